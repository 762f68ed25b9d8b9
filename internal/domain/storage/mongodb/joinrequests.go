package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"travelmate/internal/domain/joinrequests"
)

type requestDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	GroupID   string    `bson:"group_id"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d *requestDoc) toRequest() *joinrequests.JoinRequest {
	return &joinrequests.JoinRequest{
		ID:        d.ID,
		UserID:    d.UserID,
		GroupID:   d.GroupID,
		Status:    joinrequests.Status(d.Status),
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type requestStore struct {
	coll *mongo.Collection
}

func (s *requestStore) Create(ctx context.Context, req *joinrequests.JoinRequest) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	doc := requestDoc{
		ID:        req.ID,
		UserID:    req.UserID,
		GroupID:   req.GroupID,
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return joinrequests.ErrDuplicatePending
		}
		return fmt.Errorf("insert join request: %w", err)
	}
	return nil
}

func (s *requestStore) GetByID(ctx context.Context, requestID string) (*joinrequests.JoinRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var doc requestDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": requestID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, joinrequests.ErrNotFound
		}
		return nil, err
	}
	return doc.toRequest(), nil
}

func (s *requestStore) HasPending(ctx context.Context, groupID, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	n, err := s.coll.CountDocuments(ctx, bson.M{
		"group_id": groupID,
		"user_id":  userID,
		"status":   string(joinrequests.StatusPending),
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *requestStore) ListPending(ctx context.Context, groupID string, limit int) ([]*joinrequests.JoinRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, bson.M{
		"group_id": groupID,
		"status":   string(joinrequests.StatusPending),
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("find join requests: %w", err)
	}

	var docs []requestDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]*joinrequests.JoinRequest, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toRequest())
	}
	return out, nil
}

func (s *requestStore) Resolve(ctx context.Context, requestID string, to joinrequests.Status) error {
	if !to.Terminal() {
		return joinrequests.ErrInvalidTransition
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": requestID, "status": string(joinrequests.StatusPending)},
		bson.M{"$set": bson.M{"status": string(to)}},
	)
	if err != nil {
		return fmt.Errorf("update join request: %w", err)
	}
	if res.MatchedCount == 0 {
		return joinrequests.ErrInvalidTransition
	}
	return nil
}
