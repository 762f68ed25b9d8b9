package storage

import (
	"travelmate/internal/domain/groups"
	"travelmate/internal/domain/joinrequests"
	"travelmate/internal/domain/messages"
	"travelmate/internal/domain/pushtokens"
	"travelmate/internal/domain/ratings"
	"travelmate/internal/domain/storage/memory"
	"travelmate/internal/domain/storage/mongodb"
	"travelmate/internal/domain/users"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
)

type Container struct {
	Users        users.Store
	Groups       groups.Store
	JoinRequests joinrequests.Store
	Messages     messages.Store
	Ratings      ratings.Store
	PushTokens   pushtokens.Store
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		Users:        users.NewRepository(db),
		Groups:       groups.NewRepository(db),
		JoinRequests: joinrequests.NewRepository(db),
		Messages:     messages.NewRepository(db),
		Ratings:      ratings.NewRepository(db),
		PushTokens:   pushtokens.NewRepository(db),
	}
}

// NewMongoContainer expects the indexes from mongodb.DB.EnsureIndexes to exist.
func NewMongoContainer(db *mongo.Database) *Container {
	m := mongodb.New(db)
	return &Container{
		Users:        m.Users(),
		Groups:       m.Groups(),
		JoinRequests: m.JoinRequests(),
		Messages:     m.Messages(),
		Ratings:      m.Ratings(),
		PushTokens:   m.PushTokens(),
	}
}

func NewMemoryContainer() *Container {
	m := memory.New()
	return &Container{
		Users:        m.Users(),
		Groups:       m.Groups(),
		JoinRequests: m.JoinRequests(),
		Messages:     m.Messages(),
		Ratings:      m.Ratings(),
		PushTokens:   m.PushTokens(),
	}
}
