// Package rating validates post-trip ratings and keeps each user's running
// average in step with the ratings they received.
package rating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"travelmate/internal/domain/groups"
	"travelmate/internal/domain/ratings"
	"travelmate/internal/domain/storage"
	"travelmate/internal/domain/users"
)

// MaxResults caps ListRatingsReceived.
const MaxResults = 100

var (
	ErrSelfRating       = errors.New("Cannot rate yourself")
	ErrGroupNotFound    = errors.New("Group not found")
	ErrNotBothMembers   = errors.New("Both users must be group members")
	ErrTripNotCompleted = errors.New("Cannot rate before trip date")
	ErrDuplicateRating  = errors.New("Already rated this user for this trip")
)

type NewRating struct {
	ToUserID string
	GroupID  string
	Stars    int
	Review   *string
}

// Received pairs a rating with the profile of the user who gave it.
type Received struct {
	Rating   *ratings.Rating `json:"rating"`
	FromUser *users.User     `json:"from_user"`
}

type Aggregator struct {
	users   users.Store
	groups  groups.Store
	ratings ratings.Store

	now   func() time.Time
	newID func() string
}

func NewAggregator(store *storage.Container) *Aggregator {
	return &Aggregator{
		users:   store.Users,
		groups:  store.Groups,
		ratings: store.Ratings,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// SubmitRating records raterID's rating of another member of a finished
// trip and recomputes the ratee's average over every rating they ever got.
func (a *Aggregator) SubmitRating(ctx context.Context, raterID string, spec NewRating) (*ratings.Rating, error) {
	if spec.ToUserID == raterID {
		return nil, ErrSelfRating
	}

	group, err := a.groups.GetByID(ctx, spec.GroupID)
	if err != nil {
		if errors.Is(err, groups.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	if !group.HasMember(raterID) || !group.HasMember(spec.ToUserID) {
		return nil, ErrNotBothMembers
	}

	now := a.now().UTC()
	// the travel date itself counts as completed
	if now.Before(group.TravelDate) {
		return nil, ErrTripNotCompleted
	}

	exists, err := a.ratings.Exists(ctx, raterID, spec.ToUserID, spec.GroupID)
	if err != nil {
		return nil, fmt.Errorf("check existing rating: %w", err)
	}
	if exists {
		return nil, ErrDuplicateRating
	}

	r := &ratings.Rating{
		ID:         a.newID(),
		FromUserID: raterID,
		ToUserID:   spec.ToUserID,
		GroupID:    spec.GroupID,
		Stars:      spec.Stars,
		Review:     spec.Review,
		CreatedAt:  now,
	}
	if err := a.ratings.Create(ctx, r); err != nil {
		if errors.Is(err, ratings.ErrDuplicate) {
			return nil, ErrDuplicateRating
		}
		return nil, fmt.Errorf("create rating: %w", err)
	}

	if err := a.recompute(ctx, spec.ToUserID); err != nil {
		return nil, err
	}
	return r, nil
}

func (a *Aggregator) recompute(ctx context.Context, userID string) error {
	total, average, err := a.ratings.Stats(ctx, userID)
	if err != nil {
		return fmt.Errorf("rating stats for %s: %w", userID, err)
	}
	if err := a.users.SetRatingStats(ctx, userID, average, total); err != nil {
		return fmt.Errorf("update rating stats for %s: %w", userID, err)
	}
	return nil
}

func (a *Aggregator) ListRatingsReceived(ctx context.Context, userID string) ([]Received, error) {
	rs, err := a.ratings.ListReceived(ctx, userID, MaxResults)
	if err != nil {
		return nil, err
	}

	out := make([]Received, 0, len(rs))
	for _, r := range rs {
		from, err := a.users.GetByID(ctx, r.FromUserID)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, Received{Rating: r, FromUser: from})
	}
	return out, nil
}
