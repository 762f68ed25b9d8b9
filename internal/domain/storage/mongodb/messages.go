package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"travelmate/internal/domain/messages"
)

type messageDoc struct {
	ID         string    `bson:"_id"`
	GroupID    string    `bson:"group_id"`
	SenderID   string    `bson:"sender_id"`
	SenderName string    `bson:"sender_name"`
	Content    string    `bson:"content"`
	CreatedAt  time.Time `bson:"created_at"`
}

type messageStore struct {
	coll *mongo.Collection
}

func (s *messageStore) Create(ctx context.Context, msg *messages.Message) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	doc := messageDoc{
		ID:         msg.ID,
		GroupID:    msg.GroupID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *messageStore) ListByGroup(ctx context.Context, groupID string, limit int) ([]*messages.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	// created_at is strictly increasing per group, so it is a total order here
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}

	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]*messages.Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, &messages.Message{
			ID:         d.ID,
			GroupID:    d.GroupID,
			SenderID:   d.SenderID,
			SenderName: d.SenderName,
			Content:    d.Content,
			CreatedAt:  d.CreatedAt.UTC(),
		})
	}
	return out, nil
}
