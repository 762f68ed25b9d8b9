// Package membership owns travel groups and the join-request lifecycle.
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"travelmate/internal/domain/groups"
	"travelmate/internal/domain/joinrequests"
	"travelmate/internal/domain/storage"
	"travelmate/internal/domain/users"
)

// MaxResults caps every list the manager returns.
const MaxResults = 100

type NewGroup struct {
	FromLocation string
	ToLocation   string
	TravelDate   time.Time
	BudgetMin    int
	BudgetMax    int
	TripType     string
	Description  string
	MaxMembers   int
}

// PendingRequest pairs a join request with the profile of the user who sent it.
type PendingRequest struct {
	Request *joinrequests.JoinRequest `json:"request"`
	User    *users.User               `json:"user"`
}

type Manager struct {
	users    users.Store
	groups   groups.Store
	requests joinrequests.Store

	now   func() time.Time
	newID func() string
}

func NewManager(store *storage.Container) *Manager {
	return &Manager{
		users:    store.Users,
		groups:   store.Groups,
		requests: store.JoinRequests,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (m *Manager) CreateGroup(ctx context.Context, creatorID string, spec NewGroup) (*groups.TravelGroup, error) {
	cover := groups.DefaultCoverFor(spec.ToLocation)
	group := &groups.TravelGroup{
		ID:           m.newID(),
		FromLocation: spec.FromLocation,
		ToLocation:   spec.ToLocation,
		TravelDate:   spec.TravelDate.UTC(),
		BudgetMin:    spec.BudgetMin,
		BudgetMax:    spec.BudgetMax,
		TripType:     spec.TripType,
		Description:  spec.Description,
		MaxMembers:   spec.MaxMembers,
		AdminID:      creatorID,
		Members:      []string{creatorID},
		ImageURL:     &cover,
		CreatedAt:    m.now().UTC(),
	}

	if err := m.groups.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return group, nil
}

func (m *Manager) GetGroup(ctx context.Context, groupID string) (*groups.TravelGroup, error) {
	group, err := m.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, groups.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

// GroupForAdmin loads the group and checks that adminID administers it.
func (m *Manager) GroupForAdmin(ctx context.Context, adminID, groupID string) (*groups.TravelGroup, error) {
	group, err := m.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsAdmin(adminID) {
		return nil, ErrNotAuthorized
	}
	return group, nil
}

func (m *Manager) SearchGroups(ctx context.Context, filter groups.SearchFilter) ([]*groups.TravelGroup, error) {
	return m.groups.Search(ctx, filter, MaxResults)
}

func (m *Manager) ListUserGroups(ctx context.Context, userID string) ([]*groups.TravelGroup, error) {
	return m.groups.ListByMember(ctx, userID, MaxResults)
}

func (m *Manager) ListMembers(ctx context.Context, groupID string) ([]*users.User, error) {
	group, err := m.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return m.users.GetByIDs(ctx, group.Members, MaxResults)
}

func (m *Manager) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	group, err := m.GetGroup(ctx, groupID)
	if err != nil {
		return false, err
	}
	return group.HasMember(userID), nil
}

// SetCover replaces the group's cover image. Only the admin may do this.
func (m *Manager) SetCover(ctx context.Context, adminID, groupID, imageURL string) (*groups.TravelGroup, error) {
	group, err := m.GroupForAdmin(ctx, adminID, groupID)
	if err != nil {
		return nil, err
	}
	if err := m.groups.SetImageURL(ctx, groupID, imageURL); err != nil {
		return nil, fmt.Errorf("set cover: %w", err)
	}
	group.ImageURL = &imageURL
	return group, nil
}
