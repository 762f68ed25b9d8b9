package memory

import (
	"context"
	"time"
)

type pushTokenStore struct{ db *DB }

func (s *pushTokenStore) Upsert(_ context.Context, userID, token string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if s.db.pushTokens[userID] == nil {
		s.db.pushTokens[userID] = make(map[string]time.Time)
	}
	s.db.pushTokens[userID][token] = time.Now()
	return nil
}

func (s *pushTokenStore) Remove(_ context.Context, userID, token string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	delete(s.db.pushTokens[userID], token)
	return nil
}

func (s *pushTokenStore) RemoveTokens(_ context.Context, tokens []string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, byToken := range s.db.pushTokens {
		for _, t := range tokens {
			delete(byToken, t)
		}
	}
	return nil
}

func (s *pushTokenStore) TokensByUserIDs(_ context.Context, userIDs []string) (map[string][]string, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	result := make(map[string][]string)
	for _, id := range userIDs {
		for t := range s.db.pushTokens[id] {
			result[id] = append(result[id], t)
		}
	}
	return result, nil
}

func (s *pushTokenStore) PruneStale(_ context.Context, olderThan time.Duration) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	for _, byToken := range s.db.pushTokens {
		for t, updated := range byToken {
			if updated.Before(cutoff) {
				delete(byToken, t)
			}
		}
	}
	return nil
}
