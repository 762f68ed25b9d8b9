package memory

import (
	"context"
	"slices"

	"travelmate/internal/domain/messages"
)

type messageStore struct{ db *DB }

func (s *messageStore) Create(_ context.Context, msg *messages.Message) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	cp := *msg
	s.db.messages = append(s.db.messages, &cp)
	return nil
}

func (s *messageStore) ListByGroup(_ context.Context, groupID string, limit int) ([]*messages.Message, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := []*messages.Message{}
	for _, m := range s.db.messages {
		if m.GroupID == groupID {
			cp := *m
			out = append(out, &cp)
		}
	}
	// insertion order breaks timestamp ties
	slices.SortStableFunc(out, func(a, b *messages.Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
