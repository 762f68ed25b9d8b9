package membership

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelmate/internal/domain/groups"
	"travelmate/internal/domain/joinrequests"
	"travelmate/internal/domain/storage"
	"travelmate/internal/domain/users"
)

func newTestManager(t *testing.T) (*Manager, *storage.Container) {
	t.Helper()
	store := storage.NewMemoryContainer()
	m := NewManager(store)

	clock := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	m.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return m, store
}

func createUser(t *testing.T, store *storage.Container, name string) *users.User {
	t.Helper()
	u := &users.User{
		ID:        name + "-id",
		Name:      name,
		Email:     name + "@example.com",
		City:      "Pune",
		Age:       28,
		CreatedAt: time.Now(),
	}
	require.NoError(t, u.Password.Set("secret123"))
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

func createGroup(t *testing.T, m *Manager, adminID string, maxMembers int) *groups.TravelGroup {
	t.Helper()
	g, err := m.CreateGroup(context.Background(), adminID, NewGroup{
		FromLocation: "Mumbai",
		ToLocation:   "Goa",
		TravelDate:   time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		BudgetMin:    5000,
		BudgetMax:    15000,
		TripType:     "beach",
		Description:  "monsoon trip",
		MaxMembers:   maxMembers,
	})
	require.NoError(t, err)
	return g
}

func TestCreateGroup(t *testing.T) {
	m, store := newTestManager(t)
	admin := createUser(t, store, "admin")

	g := createGroup(t, m, admin.ID, 4)

	assert.Equal(t, admin.ID, g.AdminID)
	assert.Equal(t, []string{admin.ID}, g.Members)
	require.NotNil(t, g.ImageURL)
	assert.Contains(t, *g.ImageURL, "unsplash.com")

	got, err := m.GetGroup(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Members, got.Members)
}

func TestGetGroupNotFound(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.GetGroup(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestRequestJoin(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	admin := createUser(t, store, "admin")
	bob := createUser(t, store, "bob")
	g := createGroup(t, m, admin.ID, 3)

	req, err := m.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, joinrequests.StatusPending, req.Status)
	assert.Equal(t, bob.ID, req.UserID)

	t.Run("duplicate pending request", func(t *testing.T) {
		_, err := m.RequestJoin(ctx, bob.ID, g.ID)
		assert.ErrorIs(t, err, ErrDuplicateRequest)
	})

	t.Run("admin is already a member", func(t *testing.T) {
		_, err := m.RequestJoin(ctx, admin.ID, g.ID)
		assert.ErrorIs(t, err, ErrAlreadyMember)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := m.RequestJoin(ctx, bob.ID, "missing")
		assert.ErrorIs(t, err, ErrGroupNotFound)
	})
}

func TestRequestJoinFullGroup(t *testing.T) {
	m, store := newTestManager(t)
	admin := createUser(t, store, "admin")
	bob := createUser(t, store, "bob")
	g := createGroup(t, m, admin.ID, 1)

	_, err := m.RequestJoin(context.Background(), bob.ID, g.ID)
	assert.ErrorIs(t, err, ErrGroupFull)
}

func TestRequestJoinConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	admin := createUser(t, store, "admin")
	bob := createUser(t, store, "bob")
	g := createGroup(t, m, admin.ID, 5)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.RequestJoin(ctx, bob.ID, g.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicateRequest)
	}
	assert.Equal(t, 1, ok)

	pending, err := store.JoinRequests.ListPending(ctx, g.ID, 100)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestListPendingRequests(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	admin := createUser(t, store, "admin")
	bob := createUser(t, store, "bob")
	cara := createUser(t, store, "cara")
	g := createGroup(t, m, admin.ID, 5)

	_, err := m.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)
	_, err = m.RequestJoin(ctx, cara.ID, g.ID)
	require.NoError(t, err)

	_, err = m.ListPendingRequests(ctx, bob.ID, g.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	pending, err := m.ListPendingRequests(ctx, admin.ID, g.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, bob.ID, pending[0].User.ID)
	assert.Equal(t, cara.ID, pending[1].User.ID)
	assert.Equal(t, pending[0].Request.UserID, pending[0].User.ID)
}

func TestApproveRequest(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	admin := createUser(t, store, "admin")
	bob := createUser(t, store, "bob")
	g := createGroup(t, m, admin.ID, 3)

	req, err := m.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)

	_, err = m.ApproveRequest(ctx, bob.ID, g.ID, req.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	approved, err := m.ApproveRequest(ctx, admin.ID, g.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, joinrequests.StatusApproved, approved.Status)

	// retrying is harmless
	_, err = m.ApproveRequest(ctx, admin.ID, g.ID, req.ID)
	require.NoError(t, err)

	got, err := m.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{admin.ID, bob.ID}, got.Members)

	isMember, err := m.IsMember(ctx, g.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, isMember)

	stored, err := store.JoinRequests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, joinrequests.StatusApproved, stored.Status)

	// a rejected request can no longer be approved and vice versa
	_, err = m.RejectRequest(ctx, admin.ID, g.ID, req.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApproveRequestFromOtherGroup(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	admin := createUser(t, store, "admin")
	bob := createUser(t, store, "bob")
	g1 := createGroup(t, m, admin.ID, 3)
	g2 := createGroup(t, m, admin.ID, 3)

	req, err := m.RequestJoin(ctx, bob.ID, g1.ID)
	require.NoError(t, err)

	_, err = m.ApproveRequest(ctx, admin.ID, g2.ID, req.ID)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	_, err = m.RejectRequest(ctx, admin.ID, g2.ID, req.ID)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	_, err = m.ApproveRequest(ctx, admin.ID, g1.ID, "missing")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestSingleSeatGroupScenario(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	admin := createUser(t, store, "admin")
	bob := createUser(t, store, "bob")
	g := createGroup(t, m, admin.ID, 2)

	req, err := m.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, joinrequests.StatusPending, req.Status)

	// another member fills the last seat before the admin decides
	require.NoError(t, store.Groups.AddMember(ctx, g.ID, "someone-else"))

	_, err = m.ApproveRequest(ctx, admin.ID, g.ID, req.ID)
	assert.ErrorIs(t, err, ErrGroupFull)

	stored, err := store.JoinRequests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, joinrequests.StatusPending, stored.Status)
}

func TestRejectRequest(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	admin := createUser(t, store, "admin")
	bob := createUser(t, store, "bob")
	g := createGroup(t, m, admin.ID, 3)

	req, err := m.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)

	_, err = m.RejectRequest(ctx, bob.ID, g.ID, req.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	rejected, err := m.RejectRequest(ctx, admin.ID, g.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, joinrequests.StatusRejected, rejected.Status)

	_, err = m.RejectRequest(ctx, admin.ID, g.ID, req.ID)
	require.NoError(t, err)

	_, err = m.ApproveRequest(ctx, admin.ID, g.ID, req.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := m.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, got.HasMember(bob.ID))

	// a new request may be filed once the old one is resolved
	_, err = m.RequestJoin(ctx, bob.ID, g.ID)
	assert.NoError(t, err)
}

func TestConcurrentApprovalsRespectCapacity(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	admin := createUser(t, store, "admin")
	g := createGroup(t, m, admin.ID, 3)

	var reqs []*joinrequests.JoinRequest
	for i := 0; i < 8; i++ {
		u := createUser(t, store, fmt.Sprintf("user%d", i))
		req, err := m.RequestJoin(ctx, u.ID, g.ID)
		require.NoError(t, err)
		reqs = append(reqs, req)
	}

	var wg sync.WaitGroup
	for _, req := range reqs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = m.ApproveRequest(ctx, admin.ID, g.ID, id)
		}(req.ID)
	}
	wg.Wait()

	got, err := m.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 3)
	assert.True(t, got.HasMember(admin.ID))

	approved := 0
	for _, req := range reqs {
		stored, err := store.JoinRequests.GetByID(ctx, req.ID)
		require.NoError(t, err)
		if stored.Status == joinrequests.StatusApproved {
			approved++
			assert.True(t, got.HasMember(stored.UserID))
		}
	}
	assert.Equal(t, 2, approved)
}

func TestConcurrentApprovalOfSameRequest(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	admin := createUser(t, store, "admin")
	bob := createUser(t, store, "bob")
	g := createGroup(t, m, admin.ID, 5)

	req, err := m.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.ApproveRequest(ctx, admin.ID, g.ID, req.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := m.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{admin.ID, bob.ID}, got.Members)
}

// interceptGroups runs before and after around the first AddMember call only,
// so nested calls made from the hooks go straight to the wrapped store.
type interceptGroups struct {
	groups.Store
	fired  bool
	before func()
	after  func()
}

func (g *interceptGroups) AddMember(ctx context.Context, groupID, userID string) error {
	if g.fired {
		return g.Store.AddMember(ctx, groupID, userID)
	}
	g.fired = true
	if g.before != nil {
		g.before()
	}
	err := g.Store.AddMember(ctx, groupID, userID)
	if g.after != nil {
		g.after()
	}
	return err
}

func TestApproveRetriedWhileMemberIsAdded(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	admin := createUser(t, store, "admin")
	bob := createUser(t, store, "bob")
	g := createGroup(t, m, admin.ID, 3)

	req, err := m.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)

	var retryErr error
	var retried *joinrequests.JoinRequest
	m.groups = &interceptGroups{
		Store: m.groups,
		after: func() {
			retried, retryErr = m.ApproveRequest(ctx, admin.ID, g.ID, req.ID)
		},
	}

	approved, err := m.ApproveRequest(ctx, admin.ID, g.ID, req.ID)
	require.NoError(t, err)
	require.NoError(t, retryErr)
	assert.Equal(t, joinrequests.StatusApproved, approved.Status)
	assert.Equal(t, joinrequests.StatusApproved, retried.Status)

	stored, err := store.JoinRequests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, joinrequests.StatusApproved, stored.Status)

	got, err := m.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{admin.ID, bob.ID}, got.Members)
}

func TestApproveRetriedAfterLastSeatTaken(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	admin := createUser(t, store, "admin")
	bob := createUser(t, store, "bob")
	g := createGroup(t, m, admin.ID, 2)

	req, err := m.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)

	var retryErr error
	m.groups = &interceptGroups{
		Store: m.groups,
		before: func() {
			require.NoError(t, store.Groups.AddMember(ctx, g.ID, "carol-id"))
			_, retryErr = m.ApproveRequest(ctx, admin.ID, g.ID, req.ID)
		},
	}

	_, err = m.ApproveRequest(ctx, admin.ID, g.ID, req.ID)
	assert.ErrorIs(t, err, ErrGroupFull)
	assert.ErrorIs(t, retryErr, ErrGroupFull)

	// nobody was told the request went through, and it never did
	stored, err := store.JoinRequests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, joinrequests.StatusPending, stored.Status)

	got, err := m.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, got.HasMember(bob.ID))
	assert.Equal(t, []string{admin.ID, "carol-id"}, got.Members)
}

func TestApproveLosesToConcurrentReject(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	admin := createUser(t, store, "admin")
	bob := createUser(t, store, "bob")
	g := createGroup(t, m, admin.ID, 3)

	req, err := m.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)

	var rejectErr error
	m.groups = &interceptGroups{
		Store: m.groups,
		after: func() {
			_, rejectErr = m.RejectRequest(ctx, admin.ID, g.ID, req.ID)
		},
	}

	_, err = m.ApproveRequest(ctx, admin.ID, g.ID, req.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	require.NoError(t, rejectErr)

	stored, err := store.JoinRequests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, joinrequests.StatusRejected, stored.Status)

	got, err := m.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{admin.ID}, got.Members)
}

func TestConcurrentApproveAndReject(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		m, store := newTestManager(t)
		admin := createUser(t, store, "admin")
		bob := createUser(t, store, "bob")
		g := createGroup(t, m, admin.ID, 3)

		req, err := m.RequestJoin(ctx, bob.ID, g.ID)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, _ = m.ApproveRequest(ctx, admin.ID, g.ID, req.ID)
			}()
			go func() {
				defer wg.Done()
				_, _ = m.RejectRequest(ctx, admin.ID, g.ID, req.ID)
			}()
		}
		wg.Wait()

		stored, err := store.JoinRequests.GetByID(ctx, req.ID)
		require.NoError(t, err)
		got, err := m.GetGroup(ctx, g.ID)
		require.NoError(t, err)

		assert.NotEqual(t, joinrequests.StatusPending, stored.Status)
		assert.Equal(t, stored.Status == joinrequests.StatusApproved, got.HasMember(bob.ID))
	}
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	admin := createUser(t, store, "admin")
	bob := createUser(t, store, "bob")
	g := createGroup(t, m, admin.ID, 3)
	other, err := m.CreateGroup(ctx, bob.ID, NewGroup{
		FromLocation: "Delhi",
		ToLocation:   "Manali",
		TravelDate:   time.Date(2025, 5, 1, 6, 0, 0, 0, time.UTC),
		MaxMembers:   4,
	})
	require.NoError(t, err)

	found, err := m.SearchGroups(ctx, groups.SearchFilter{ToLocation: "GO"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, g.ID, found[0].ID)

	found, err = m.SearchGroups(ctx, groups.SearchFilter{TravelDate: "2025-05"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, other.ID, found[0].ID)

	all, err := m.SearchGroups(ctx, groups.SearchFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := m.ListUserGroups(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, other.ID, mine[0].ID)

	members, err := m.ListMembers(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, admin.ID, members[0].ID)

	_, err = m.ListMembers(ctx, "missing")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestSetCover(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	admin := createUser(t, store, "admin")
	bob := createUser(t, store, "bob")
	g := createGroup(t, m, admin.ID, 3)

	_, err := m.SetCover(ctx, bob.ID, g.ID, "https://res.cloudinary.com/x.jpg")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	updated, err := m.SetCover(ctx, admin.ID, g.ID, "https://res.cloudinary.com/x.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/x.jpg", *updated.ImageURL)

	got, err := m.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/x.jpg", *got.ImageURL)
}
