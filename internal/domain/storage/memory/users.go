package memory

import (
	"context"
	"strings"

	"travelmate/internal/domain/users"
)

type userStore struct{ db *DB }

func (s *userStore) Create(_ context.Context, user *users.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, u := range s.db.users {
		if strings.EqualFold(u.Email, user.Email) {
			return users.ErrDuplicateEmail
		}
	}
	cp := *user
	s.db.users[user.ID] = &cp
	return nil
}

func (s *userStore) GetByID(_ context.Context, userID string) (*users.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	u, ok := s.db.users[userID]
	if !ok {
		return nil, users.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *userStore) GetByEmail(_ context.Context, email string) (*users.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, u := range s.db.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, users.ErrNotFound
}

func (s *userStore) GetByIDs(_ context.Context, userIDs []string, limit int) ([]*users.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := []*users.User{}
	seen := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		if len(out) >= limit {
			break
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, ok := s.db.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *userStore) SetRatingStats(_ context.Context, userID string, average float64, total int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[userID]
	if !ok {
		return users.ErrNotFound
	}
	u.AverageRating = average
	u.TotalRatings = total
	return nil
}
