package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"travelmate/internal/domain/ratings"
)

type ratingDoc struct {
	ID         string    `bson:"_id"`
	FromUserID string    `bson:"from_user_id"`
	ToUserID   string    `bson:"to_user_id"`
	GroupID    string    `bson:"group_id"`
	Stars      int       `bson:"stars"`
	Review     *string   `bson:"review,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
}

type ratingStore struct {
	coll *mongo.Collection
}

func (s *ratingStore) Create(ctx context.Context, rating *ratings.Rating) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	doc := ratingDoc{
		ID:         rating.ID,
		FromUserID: rating.FromUserID,
		ToUserID:   rating.ToUserID,
		GroupID:    rating.GroupID,
		Stars:      rating.Stars,
		Review:     rating.Review,
		CreatedAt:  rating.CreatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ratings.ErrDuplicate
		}
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

func (s *ratingStore) Exists(ctx context.Context, fromUserID, toUserID, groupID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	n, err := s.coll.CountDocuments(ctx, bson.M{
		"from_user_id": fromUserID,
		"to_user_id":   toUserID,
		"group_id":     groupID,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *ratingStore) ListReceived(ctx context.Context, toUserID string, limit int) ([]*ratings.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, bson.M{"to_user_id": toUserID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find ratings: %w", err)
	}

	var docs []ratingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]*ratings.Rating, 0, len(docs))
	for _, d := range docs {
		out = append(out, &ratings.Rating{
			ID:         d.ID,
			FromUserID: d.FromUserID,
			ToUserID:   d.ToUserID,
			GroupID:    d.GroupID,
			Stars:      d.Stars,
			Review:     d.Review,
			CreatedAt:  d.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func (s *ratingStore) Stats(ctx context.Context, toUserID string) (int, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"to_user_id": toUserID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": 1},
			"avg":   bson.M{"$avg": "$stars"},
		}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, fmt.Errorf("aggregate ratings: %w", err)
	}

	var rows []struct {
		Total int     `bson:"total"`
		Avg   float64 `bson:"avg"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Total, rows[0].Avg, nil
}
