package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type pushTokenStore struct {
	coll *mongo.Collection
}

func (s *pushTokenStore) Upsert(ctx context.Context, userID, token string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.coll.UpdateOne(ctx,
		bson.M{"user_id": userID, "token": token},
		bson.M{"$set": bson.M{"last_updated": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *pushTokenStore) Remove(ctx context.Context, userID, token string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.coll.DeleteOne(ctx, bson.M{"user_id": userID, "token": token})
	return err
}

func (s *pushTokenStore) RemoveTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.coll.DeleteMany(ctx, bson.M{"token": bson.M{"$in": tokens}})
	return err
}

func (s *pushTokenStore) TokensByUserIDs(ctx context.Context, userIDs []string) (map[string][]string, error) {
	result := make(map[string][]string)
	if len(userIDs) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	cur, err := s.coll.Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}

	var docs []struct {
		UserID string `bson:"user_id"`
		Token  string `bson:"token"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		result[d.UserID] = append(result[d.UserID], d.Token)
	}
	return result, nil
}

func (s *pushTokenStore) PruneStale(ctx context.Context, olderThan time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	cutoff := time.Now().UTC().Add(-olderThan)
	_, err := s.coll.DeleteMany(ctx, bson.M{"last_updated": bson.M{"$lt": cutoff}})
	return err
}
