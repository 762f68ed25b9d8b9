// Package storetest holds the behaviour every store driver must share. Each
// driver package runs it against its own backend.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelmate/internal/domain/groups"
	"travelmate/internal/domain/joinrequests"
	"travelmate/internal/domain/storage"
	"travelmate/internal/domain/users"
)

// Run exercises the conditional member add and the join request lifecycle.
func Run(t *testing.T, store *storage.Container) {
	t.Run("AddMemberRespectsCapacity", func(t *testing.T) { addMemberRespectsCapacity(t, store) })
	t.Run("RemoveMember", func(t *testing.T) { removeMember(t, store) })
	t.Run("OnePendingRequestPerUser", func(t *testing.T) { onePendingRequestPerUser(t, store) })
	t.Run("ResolveOnlyFromPending", func(t *testing.T) { resolveOnlyFromPending(t, store) })
}

func newUser(t *testing.T, store *storage.Container) *users.User {
	t.Helper()
	id := uuid.NewString()
	u := &users.User{
		ID:        id,
		Name:      "traveller",
		Email:     id + "@example.com",
		City:      "Pune",
		Age:       30,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, u.Password.Set("secret123"))
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

func newGroup(t *testing.T, store *storage.Container, adminID string, maxMembers int) *groups.TravelGroup {
	t.Helper()
	g := &groups.TravelGroup{
		ID:           uuid.NewString(),
		FromLocation: "Mumbai",
		ToLocation:   "Goa",
		TravelDate:   time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		BudgetMin:    5000,
		BudgetMax:    15000,
		TripType:     "beach",
		MaxMembers:   maxMembers,
		AdminID:      adminID,
		Members:      []string{adminID},
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.Groups.Create(context.Background(), g))
	return g
}

func newRequest(groupID, userID string) *joinrequests.JoinRequest {
	return &joinrequests.JoinRequest{
		ID:        uuid.NewString(),
		UserID:    userID,
		GroupID:   groupID,
		Status:    joinrequests.StatusPending,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func addMemberRespectsCapacity(t *testing.T, store *storage.Container) {
	ctx := context.Background()
	admin := newUser(t, store)
	g := newGroup(t, store, admin.ID, 3)

	candidates := make([]*users.User, 10)
	for i := range candidates {
		candidates[i] = newUser(t, store)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(candidates))
	for i, u := range candidates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = store.Groups.AddMember(ctx, g.ID, u.ID)
		}()
	}
	wg.Wait()

	added := 0
	for _, err := range errs {
		if err == nil {
			added++
			continue
		}
		assert.ErrorIs(t, err, groups.ErrGroupFull)
	}
	assert.Equal(t, 2, added)

	got, err := store.Groups.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 3)
	assert.Equal(t, admin.ID, got.Members[0])

	// an existing member is accepted even when the group is full
	assert.NoError(t, store.Groups.AddMember(ctx, g.ID, got.Members[1]))

	err = store.Groups.AddMember(ctx, "missing-"+uuid.NewString(), admin.ID)
	assert.ErrorIs(t, err, groups.ErrNotFound)
}

func removeMember(t *testing.T, store *storage.Container) {
	ctx := context.Background()
	admin := newUser(t, store)
	bob := newUser(t, store)
	g := newGroup(t, store, admin.ID, 2)

	require.NoError(t, store.Groups.AddMember(ctx, g.ID, bob.ID))
	require.NoError(t, store.Groups.RemoveMember(ctx, g.ID, bob.ID))
	require.NoError(t, store.Groups.RemoveMember(ctx, g.ID, bob.ID))
	require.NoError(t, store.Groups.RemoveMember(ctx, g.ID, admin.ID))

	got, err := store.Groups.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{admin.ID}, got.Members)

	// the freed seat can be taken again
	assert.NoError(t, store.Groups.AddMember(ctx, g.ID, bob.ID))

	err = store.Groups.RemoveMember(ctx, "missing-"+uuid.NewString(), bob.ID)
	assert.ErrorIs(t, err, groups.ErrNotFound)
}

func onePendingRequestPerUser(t *testing.T, store *storage.Container) {
	ctx := context.Background()
	admin := newUser(t, store)
	bob := newUser(t, store)
	g := newGroup(t, store, admin.ID, 4)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = store.JoinRequests.Create(ctx, newRequest(g.ID, bob.ID))
		}()
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, joinrequests.ErrDuplicatePending)
	}
	assert.Equal(t, 1, created)

	pending, err := store.JoinRequests.ListPending(ctx, g.ID, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// once resolved, a fresh request is allowed
	require.NoError(t, store.JoinRequests.Resolve(ctx, pending[0].ID, joinrequests.StatusRejected))
	assert.NoError(t, store.JoinRequests.Create(ctx, newRequest(g.ID, bob.ID)))
}

func resolveOnlyFromPending(t *testing.T, store *storage.Container) {
	ctx := context.Background()
	admin := newUser(t, store)
	bob := newUser(t, store)
	g := newGroup(t, store, admin.ID, 4)

	req := newRequest(g.ID, bob.ID)
	require.NoError(t, store.JoinRequests.Create(ctx, req))

	err := store.JoinRequests.Resolve(ctx, req.ID, joinrequests.StatusPending)
	assert.ErrorIs(t, err, joinrequests.ErrInvalidTransition)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		to := joinrequests.StatusApproved
		if i%2 == 1 {
			to = joinrequests.StatusRejected
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = store.JoinRequests.Resolve(ctx, req.ID, to)
		}()
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, joinrequests.ErrInvalidTransition)
	}
	assert.Equal(t, 1, won, "resolutions: %v", errs)

	stored, err := store.JoinRequests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, stored.Status.Terminal())

	// resolved requests never move again
	for _, to := range []joinrequests.Status{joinrequests.StatusApproved, joinrequests.StatusRejected, joinrequests.StatusPending} {
		assert.ErrorIs(t, store.JoinRequests.Resolve(ctx, req.ID, to), joinrequests.ErrInvalidTransition)
	}
	after, err := store.JoinRequests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.Status, after.Status)
}
