package memory

import (
	"context"
	"slices"

	"travelmate/internal/domain/groups"
)

type groupStore struct{ db *DB }

func cloneGroup(g *groups.TravelGroup) *groups.TravelGroup {
	cp := *g
	cp.Members = slices.Clone(g.Members)
	if g.ImageURL != nil {
		u := *g.ImageURL
		cp.ImageURL = &u
	}
	return &cp
}

func (s *groupStore) Create(_ context.Context, group *groups.TravelGroup) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	s.db.groups[group.ID] = cloneGroup(group)
	return nil
}

func (s *groupStore) GetByID(_ context.Context, groupID string) (*groups.TravelGroup, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	g, ok := s.db.groups[groupID]
	if !ok {
		return nil, groups.ErrNotFound
	}
	return cloneGroup(g), nil
}

func (s *groupStore) Search(_ context.Context, filter groups.SearchFilter, limit int) ([]*groups.TravelGroup, error) {
	return s.collect(filter.Matches, limit), nil
}

func (s *groupStore) ListByMember(_ context.Context, userID string, limit int) ([]*groups.TravelGroup, error) {
	return s.collect(func(g *groups.TravelGroup) bool { return g.HasMember(userID) }, limit), nil
}

func (s *groupStore) collect(keep func(*groups.TravelGroup) bool, limit int) []*groups.TravelGroup {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := []*groups.TravelGroup{}
	for _, g := range s.db.groups {
		if keep(g) {
			out = append(out, cloneGroup(g))
		}
	}
	slices.SortFunc(out, func(a, b *groups.TravelGroup) int {
		return a.TravelDate.Compare(b.TravelDate)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *groupStore) AddMember(_ context.Context, groupID, userID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	g, ok := s.db.groups[groupID]
	if !ok {
		return groups.ErrNotFound
	}
	if g.HasMember(userID) {
		return nil
	}
	if g.IsFull() {
		return groups.ErrGroupFull
	}
	g.Members = append(g.Members, userID)
	return nil
}

func (s *groupStore) RemoveMember(_ context.Context, groupID, userID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	g, ok := s.db.groups[groupID]
	if !ok {
		return groups.ErrNotFound
	}
	if g.AdminID == userID {
		return nil
	}
	g.Members = slices.DeleteFunc(g.Members, func(id string) bool { return id == userID })
	return nil
}

func (s *groupStore) SetImageURL(_ context.Context, groupID, imageURL string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	g, ok := s.db.groups[groupID]
	if !ok {
		return groups.ErrNotFound
	}
	g.ImageURL = &imageURL
	return nil
}
