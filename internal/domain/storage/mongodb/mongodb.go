// Package mongodb stores the travelmate collections in a MongoDB database.
// Documents use the entity id as _id.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"travelmate/internal/domain/groups"
	"travelmate/internal/domain/joinrequests"
	"travelmate/internal/domain/messages"
	"travelmate/internal/domain/pushtokens"
	"travelmate/internal/domain/ratings"
	"travelmate/internal/domain/users"
)

const (
	usersCollection        = "users"
	groupsCollection       = "travel_groups"
	joinRequestsCollection = "join_requests"
	messagesCollection     = "messages"
	ratingsCollection      = "ratings"
	pushTokensCollection   = "push_tokens"
)

var QueryTimeoutDuration = time.Second * 5

type DB struct {
	db *mongo.Database
}

func New(db *mongo.Database) *DB {
	return &DB{db: db}
}

func (d *DB) Users() users.Store               { return &userStore{d.db.Collection(usersCollection)} }
func (d *DB) Groups() groups.Store             { return &groupStore{d.db.Collection(groupsCollection)} }
func (d *DB) JoinRequests() joinrequests.Store { return &requestStore{d.db.Collection(joinRequestsCollection)} }
func (d *DB) Messages() messages.Store         { return &messageStore{d.db.Collection(messagesCollection)} }
func (d *DB) Ratings() ratings.Store           { return &ratingStore{d.db.Collection(ratingsCollection)} }
func (d *DB) PushTokens() pushtokens.Store     { return &pushTokenStore{d.db.Collection(pushTokensCollection)} }

// EnsureIndexes creates the unique indexes the stores rely on for
// duplicate detection.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		groupsCollection: {
			{Keys: bson.D{{Key: "members", Value: 1}}},
		},
		joinRequestsCollection: {
			{
				Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "group_id", Value: 1}},
				Options: options.Index().
					SetName("one_pending_per_user_group").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": string(joinrequests.StatusPending)}),
			},
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		messagesCollection: {
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		ratingsCollection: {
			{
				Keys: bson.D{
					{Key: "from_user_id", Value: 1},
					{Key: "to_user_id", Value: 1},
					{Key: "group_id", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "to_user_id", Value: 1}}},
		},
		pushTokensCollection: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "token", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for coll, models := range indexes {
		if _, err := d.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
