package memory

import (
	"context"
	"slices"

	"travelmate/internal/domain/ratings"
)

type ratingStore struct{ db *DB }

func (s *ratingStore) Create(_ context.Context, rating *ratings.Rating) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if s.existsLocked(rating.FromUserID, rating.ToUserID, rating.GroupID) {
		return ratings.ErrDuplicate
	}
	cp := *rating
	s.db.ratings = append(s.db.ratings, &cp)
	return nil
}

func (s *ratingStore) Exists(_ context.Context, fromUserID, toUserID, groupID string) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return s.existsLocked(fromUserID, toUserID, groupID), nil
}

func (s *ratingStore) existsLocked(fromUserID, toUserID, groupID string) bool {
	for _, r := range s.db.ratings {
		if r.FromUserID == fromUserID && r.ToUserID == toUserID && r.GroupID == groupID {
			return true
		}
	}
	return false
}

func (s *ratingStore) ListReceived(_ context.Context, toUserID string, limit int) ([]*ratings.Rating, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := []*ratings.Rating{}
	for _, r := range s.db.ratings {
		if r.ToUserID == toUserID {
			cp := *r
			out = append(out, &cp)
		}
	}
	slices.SortStableFunc(out, func(a, b *ratings.Rating) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ratingStore) Stats(_ context.Context, toUserID string) (int, float64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	total, sum := 0, 0
	for _, r := range s.db.ratings {
		if r.ToUserID == toUserID {
			total++
			sum += r.Stars
		}
	}
	if total == 0 {
		return 0, 0, nil
	}
	return total, float64(sum) / float64(total), nil
}
