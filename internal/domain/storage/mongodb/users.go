package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"travelmate/internal/domain/users"
)

type userDoc struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name"`
	Email         string    `bson:"email"`
	City          string    `bson:"city"`
	Age           int       `bson:"age"`
	Password      []byte    `bson:"password"`
	AverageRating float64   `bson:"average_rating"`
	TotalRatings  int       `bson:"total_ratings"`
	CreatedAt     time.Time `bson:"created_at"`
}

func (d *userDoc) toUser() *users.User {
	u := &users.User{
		ID:            d.ID,
		Name:          d.Name,
		Email:         d.Email,
		City:          d.City,
		Age:           d.Age,
		AverageRating: d.AverageRating,
		TotalRatings:  d.TotalRatings,
		CreatedAt:     d.CreatedAt,
	}
	u.Password.SetHash(d.Password)
	return u
}

type userStore struct {
	coll *mongo.Collection
}

func (s *userStore) Create(ctx context.Context, user *users.User) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	doc := userDoc{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		City:          user.City,
		Age:           user.Age,
		Password:      user.Password.Hash(),
		AverageRating: user.AverageRating,
		TotalRatings:  user.TotalRatings,
		CreatedAt:     user.CreatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return users.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *userStore) GetByID(ctx context.Context, userID string) (*users.User, error) {
	return s.findOne(ctx, bson.M{"_id": userID})
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *userStore) findOne(ctx context.Context, filter bson.M) (*users.User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var doc userDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, users.ErrNotFound
		}
		return nil, err
	}
	return doc.toUser(), nil
}

func (s *userStore) GetByIDs(ctx context.Context, userIDs []string, limit int) ([]*users.User, error) {
	if len(userIDs) == 0 {
		return []*users.User{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]*users.User, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toUser())
	}
	return out, nil
}

func (s *userStore) SetRatingStats(ctx context.Context, userID string, average float64, total int) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"average_rating": average, "total_ratings": total}},
	)
	if err != nil {
		return fmt.Errorf("update rating stats: %w", err)
	}
	if res.MatchedCount == 0 {
		return users.ErrNotFound
	}
	return nil
}
