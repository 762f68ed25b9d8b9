// Package memory is an in-process record store used by tests and by the
// "memory" store driver for local development. Every collection shares one
// lock, so each operation is atomic with respect to the others.
package memory

import (
	"sync"
	"time"

	"travelmate/internal/domain/groups"
	"travelmate/internal/domain/joinrequests"
	"travelmate/internal/domain/messages"
	"travelmate/internal/domain/pushtokens"
	"travelmate/internal/domain/ratings"
	"travelmate/internal/domain/users"
)

type DB struct {
	mu         sync.RWMutex
	users      map[string]*users.User
	groups     map[string]*groups.TravelGroup
	requests   map[string]*joinrequests.JoinRequest
	messages   []*messages.Message
	ratings    []*ratings.Rating
	pushTokens map[string]map[string]time.Time
}

func New() *DB {
	return &DB{
		users:      make(map[string]*users.User),
		groups:     make(map[string]*groups.TravelGroup),
		requests:   make(map[string]*joinrequests.JoinRequest),
		pushTokens: make(map[string]map[string]time.Time),
	}
}

func (db *DB) Users() users.Store               { return &userStore{db} }
func (db *DB) Groups() groups.Store             { return &groupStore{db} }
func (db *DB) JoinRequests() joinrequests.Store { return &requestStore{db} }
func (db *DB) Messages() messages.Store         { return &messageStore{db} }
func (db *DB) Ratings() ratings.Store           { return &ratingStore{db} }
func (db *DB) PushTokens() pushtokens.Store     { return &pushTokenStore{db} }
