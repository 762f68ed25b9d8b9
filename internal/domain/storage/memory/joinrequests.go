package memory

import (
	"context"
	"slices"

	"travelmate/internal/domain/joinrequests"
)

type requestStore struct{ db *DB }

func (s *requestStore) Create(_ context.Context, req *joinrequests.JoinRequest) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if s.hasPendingLocked(req.GroupID, req.UserID) {
		return joinrequests.ErrDuplicatePending
	}
	cp := *req
	s.db.requests[req.ID] = &cp
	return nil
}

func (s *requestStore) GetByID(_ context.Context, requestID string) (*joinrequests.JoinRequest, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	r, ok := s.db.requests[requestID]
	if !ok {
		return nil, joinrequests.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *requestStore) HasPending(_ context.Context, groupID, userID string) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return s.hasPendingLocked(groupID, userID), nil
}

func (s *requestStore) hasPendingLocked(groupID, userID string) bool {
	for _, r := range s.db.requests {
		if r.GroupID == groupID && r.UserID == userID && r.Status == joinrequests.StatusPending {
			return true
		}
	}
	return false
}

func (s *requestStore) ListPending(_ context.Context, groupID string, limit int) ([]*joinrequests.JoinRequest, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := []*joinrequests.JoinRequest{}
	for _, r := range s.db.requests {
		if r.GroupID == groupID && r.Status == joinrequests.StatusPending {
			cp := *r
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *joinrequests.JoinRequest) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *requestStore) Resolve(_ context.Context, requestID string, to joinrequests.Status) error {
	if !to.Terminal() {
		return joinrequests.ErrInvalidTransition
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	r, ok := s.db.requests[requestID]
	if !ok || r.Status != joinrequests.StatusPending {
		return joinrequests.ErrInvalidTransition
	}
	r.Status = to
	return nil
}
