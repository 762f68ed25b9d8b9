package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"travelmate/internal/auth"
	"travelmate/internal/chat"
	"travelmate/internal/domain/groups"
	"travelmate/internal/domain/messages"
	"travelmate/internal/domain/storage"
	"travelmate/internal/domain/users"
	"travelmate/internal/membership"
	"travelmate/internal/ratelimiter"
	"travelmate/internal/rating"
)

type testServer struct {
	app    *application
	server *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := storage.NewMemoryContainer()
	logger := zap.NewNop().Sugar()
	hub := chat.NewHub(store, logger)

	app := &application{
		config: config{
			env: "test",
			auth: authConfig{
				basic: basicConfig{user: "ops", pass: "secret"},
			},
			rateLimiter: ratelimiter.Config{RequestsPerTimeFrame: 100, TimeFrame: time.Second},
		},
		store:         store,
		logger:        logger,
		authenticator: auth.NewJWTAuthenticator("test-secret", "TravelMate", "TravelMate", time.Hour),
		rateLimiter:   ratelimiter.NewFixedWindowLimiter(100, time.Second),
		membership:    membership.NewManager(store),
		ratings:       rating.NewAggregator(store),
		hub:           hub,
	}

	srv := httptest.NewServer(app.mount())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
		srv.Close()
	})

	return &testServer{app: app, server: srv}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out.Bytes()
}

func decodeData(t *testing.T, raw []byte, dst any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(raw, &envelope), string(raw))
	require.NoError(t, json.Unmarshal(envelope.Data, dst), string(raw))
}

func errorMessage(t *testing.T, raw []byte) string {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &e), string(raw))
	return e.Message
}

func (s *testServer) signup(t *testing.T, name string) UserWithToken {
	t.Helper()
	status, raw := s.do(t, http.MethodPost, "/v1/auth/signup", "", SignupPayload{
		Name:     name,
		Email:    strings.ToLower(name) + "@example.com",
		Password: "password123",
		City:     "Lisbon",
		Age:      30,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	var out UserWithToken
	decodeData(t, raw, &out)
	require.NotEmpty(t, out.Token)
	return out
}

func (s *testServer) createGroup(t *testing.T, token, travelDate string, maxMembers int) groups.TravelGroup {
	t.Helper()
	status, raw := s.do(t, http.MethodPost, "/v1/groups", token, CreateGroupPayload{
		FromLocation: "Lisbon",
		ToLocation:   "Porto",
		TravelDate:   travelDate,
		BudgetMin:    100,
		BudgetMax:    400,
		TripType:     "adventure",
		MaxMembers:   maxMembers,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	var g groups.TravelGroup
	decodeData(t, raw, &g)
	return g
}

func (s *testServer) joinAndApprove(t *testing.T, adminToken, userToken, groupID string) {
	t.Helper()
	status, raw := s.do(t, http.MethodPost, "/v1/groups/"+groupID+"/join-request", userToken, nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	var resp JoinRequestResponse
	require.NoError(t, json.Unmarshal(raw, &struct {
		Data *JoinRequestResponse `json:"data"`
	}{Data: &resp}))
	require.NotNil(t, resp.Request)

	status, raw = s.do(t, http.MethodPost, "/v1/groups/"+groupID+"/join-requests/"+resp.Request.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "Alice")

	t.Run("duplicate email is rejected", func(t *testing.T) {
		status, raw := s.do(t, http.MethodPost, "/v1/auth/signup", "", SignupPayload{
			Name: "Other", Email: "ALICE@example.com", Password: "password123", City: "Faro", Age: 22,
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, users.ErrDuplicateEmail.Error(), errorMessage(t, raw))
	})

	t.Run("invalid payload is rejected", func(t *testing.T) {
		status, _ := s.do(t, http.MethodPost, "/v1/auth/signup", "", SignupPayload{
			Name: "  ", Email: "not-an-email", Password: "x", City: "Faro", Age: 22,
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("login with wrong password", func(t *testing.T) {
		status, raw := s.do(t, http.MethodPost, "/v1/auth/login", "", LoginPayload{
			Email: "alice@example.com", Password: "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, errInvalidCredentials.Error(), errorMessage(t, raw))
	})

	t.Run("login is case insensitive on email", func(t *testing.T) {
		status, raw := s.do(t, http.MethodPost, "/v1/auth/login", "", LoginPayload{
			Email: "Alice@Example.com", Password: "password123",
		})
		require.Equal(t, http.StatusOK, status, string(raw))

		var out UserWithToken
		decodeData(t, raw, &out)
		assert.Equal(t, alice.User.ID, out.User.ID)
	})

	t.Run("me returns the token owner", func(t *testing.T) {
		status, raw := s.do(t, http.MethodGet, "/v1/auth/me", alice.Token, nil)
		require.Equal(t, http.StatusOK, status)

		var me users.User
		decodeData(t, raw, &me)
		assert.Equal(t, alice.User.ID, me.ID)
		assert.Equal(t, "alice@example.com", me.Email)
		assert.NotContains(t, string(raw), "password")
	})

	t.Run("me without a token", func(t *testing.T) {
		status, _ := s.do(t, http.MethodGet, "/v1/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("me with a forged token", func(t *testing.T) {
		status, _ := s.do(t, http.MethodGet, "/v1/auth/me", "not.a.jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestJoinRequestFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.signup(t, "Admin")
	bob := s.signup(t, "Bob")
	carol := s.signup(t, "Carol")

	group := s.createGroup(t, admin.Token, "2030-06-01T10:00:00", 2)
	assert.Equal(t, []string{admin.User.ID}, group.Members)
	assert.Equal(t, admin.User.ID, group.AdminID)
	require.NotNil(t, group.ImageURL)

	base := "/v1/groups/" + group.ID

	status, raw := s.do(t, http.MethodPost, base+"/join-request", bob.Token, nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	status, raw = s.do(t, http.MethodPost, base+"/join-request", bob.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, membership.ErrDuplicateRequest.Error(), errorMessage(t, raw))

	status, raw = s.do(t, http.MethodPost, base+"/join-request", admin.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, membership.ErrAlreadyMember.Error(), errorMessage(t, raw))

	status, _ = s.do(t, http.MethodGet, base+"/join-requests", bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = s.do(t, http.MethodGet, base+"/join-requests", admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var pending []membership.PendingRequest
	decodeData(t, raw, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, bob.User.ID, pending[0].User.ID)

	// carol requests while a seat is still open
	status, raw = s.do(t, http.MethodPost, base+"/join-request", carol.Token, nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	requestID := pending[0].Request.ID

	status, _ = s.do(t, http.MethodPost, base+"/join-requests/"+requestID+"/approve", bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = s.do(t, http.MethodPost, base+"/join-requests/"+requestID+"/approve", admin.Token, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Contains(t, string(raw), "Request approved")

	status, raw = s.do(t, http.MethodGet, base+"/members", "", nil)
	require.Equal(t, http.StatusOK, status)
	var members []users.User
	decodeData(t, raw, &members)
	assert.Len(t, members, 2)

	// the group filled up after carol asked
	status, raw = s.do(t, http.MethodGet, base+"/join-requests", admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	pending = nil
	decodeData(t, raw, &pending)
	require.Len(t, pending, 1)

	status, raw = s.do(t, http.MethodPost, base+"/join-requests/"+pending[0].Request.ID+"/approve", admin.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, membership.ErrGroupFull.Error(), errorMessage(t, raw))

	status, raw = s.do(t, http.MethodPost, base+"/join-requests/"+pending[0].Request.ID+"/reject", admin.Token, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Contains(t, string(raw), "Request rejected")

	status, _ = s.do(t, http.MethodPost, base+"/join-requests/missing/approve", admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, raw = s.do(t, http.MethodGet, "/v1/my-groups", bob.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var mine []groups.TravelGroup
	decodeData(t, raw, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, group.ID, mine[0].ID)
}

func TestGroupLookupAndSearch(t *testing.T) {
	s := newTestServer(t)
	admin := s.signup(t, "Admin")
	group := s.createGroup(t, admin.Token, "2030-06-01", 4)

	status, raw := s.do(t, http.MethodGet, "/v1/groups/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, membership.ErrGroupNotFound.Error(), errorMessage(t, raw))

	status, raw = s.do(t, http.MethodGet, "/v1/groups?to_location=por&travel_date=2030-06", "", nil)
	require.Equal(t, http.StatusOK, status)
	var found []groups.TravelGroup
	decodeData(t, raw, &found)
	require.Len(t, found, 1)
	assert.Equal(t, group.ID, found[0].ID)

	status, raw = s.do(t, http.MethodGet, "/v1/groups?to_location=berlin", "", nil)
	require.Equal(t, http.StatusOK, status)
	found = nil
	decodeData(t, raw, &found)
	assert.Empty(t, found)

	status, _ = s.do(t, http.MethodPost, "/v1/groups", admin.Token, map[string]any{
		"from_location": "Lisbon", "to_location": "Porto", "travel_date": "next week",
		"trip_type": "road", "max_members": 3,
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRatingFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.signup(t, "Admin")
	bob := s.signup(t, "Bob")
	outsider := s.signup(t, "Olga")

	past := s.createGroup(t, admin.Token, "2020-01-15", 4)
	s.joinAndApprove(t, admin.Token, bob.Token, past.ID)

	future := s.createGroup(t, admin.Token, "2099-01-15", 4)
	s.joinAndApprove(t, admin.Token, bob.Token, future.ID)

	rate := func(token, toUserID, groupID string, stars int) (int, []byte) {
		return s.do(t, http.MethodPost, "/v1/ratings", token, CreateRatingPayload{
			ToUserID: toUserID, GroupID: groupID, Stars: stars,
		})
	}

	status, raw := rate(bob.Token, admin.User.ID, past.ID, 4)
	require.Equal(t, http.StatusCreated, status, string(raw))
	assert.Contains(t, string(raw), "Rating submitted")

	status, raw = rate(bob.Token, admin.User.ID, past.ID, 5)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, rating.ErrDuplicateRating.Error(), errorMessage(t, raw))

	status, raw = rate(bob.Token, bob.User.ID, past.ID, 5)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, rating.ErrSelfRating.Error(), errorMessage(t, raw))

	status, raw = rate(bob.Token, admin.User.ID, future.ID, 5)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, rating.ErrTripNotCompleted.Error(), errorMessage(t, raw))

	status, _ = rate(outsider.Token, admin.User.ID, past.ID, 5)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = rate(bob.Token, admin.User.ID, "missing", 5)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = rate(bob.Token, admin.User.ID, past.ID, 6)
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = rate(admin.Token, bob.User.ID, past.ID, 2)
	require.Equal(t, http.StatusCreated, status, string(raw))

	status, raw = s.do(t, http.MethodGet, "/v1/users/"+admin.User.ID+"/ratings", "", nil)
	require.Equal(t, http.StatusOK, status)
	var received []rating.Received
	decodeData(t, raw, &received)
	require.Len(t, received, 1)
	assert.Equal(t, 4, received[0].Rating.Stars)
	assert.Equal(t, bob.User.ID, received[0].FromUser.ID)

	status, raw = s.do(t, http.MethodGet, "/v1/auth/me", admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var me users.User
	decodeData(t, raw, &me)
	assert.Equal(t, 1, me.TotalRatings)
	assert.InDelta(t, 4.0, me.AverageRating, 0.001)
}

func TestMessagesRequireMembership(t *testing.T) {
	s := newTestServer(t)
	admin := s.signup(t, "Admin")
	outsider := s.signup(t, "Olga")
	group := s.createGroup(t, admin.Token, "2030-06-01", 4)

	status, raw := s.do(t, http.MethodGet, "/v1/groups/"+group.ID+"/messages", outsider.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Not a member", errorMessage(t, raw))

	status, raw = s.do(t, http.MethodGet, "/v1/groups/"+group.ID+"/messages", admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var history []messages.Message
	decodeData(t, raw, &history)
	assert.Empty(t, history)
}

func (s *testServer) dialChat(t *testing.T, groupID, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/v1/ws/" + groupID + "/" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestChatSocketRefusals(t *testing.T) {
	s := newTestServer(t)
	admin := s.signup(t, "Admin")
	outsider := s.signup(t, "Olga")
	group := s.createGroup(t, admin.Token, "2030-06-01", 4)

	cases := []struct {
		name    string
		groupID string
		token   string
	}{
		{"invalid token", group.ID, "garbage"},
		{"not a member", group.ID, outsider.Token},
		{"unknown group", "missing", admin.Token},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn := s.dialChat(t, tc.groupID, tc.token)
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
			_, _, err := conn.ReadMessage()
			assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
		})
	}
}

func TestChatSocketDeliversAndPersists(t *testing.T) {
	s := newTestServer(t)
	admin := s.signup(t, "Admin")
	group := s.createGroup(t, admin.Token, "2030-06-01", 4)

	conn := s.dialChat(t, group.ID, admin.Token)
	require.Eventually(t, func() bool {
		return s.app.hub.Connected(group.ID, admin.User.ID)
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]string{"content": "hello porto"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got messages.Message
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "hello porto", got.Content)
	assert.Equal(t, admin.User.ID, got.SenderID)
	assert.Equal(t, "Admin", got.SenderName)

	status, raw := s.do(t, http.MethodGet, "/v1/groups/"+group.ID+"/messages", admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var history []messages.Message
	decodeData(t, raw, &history)
	require.Len(t, history, 1)
	assert.Equal(t, got.ID, history[0].ID)
}

func TestHealthRequiresBasicAuth(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodGet, "/v1/health", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/v1/health", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("ops:secret")))

	resp, err := s.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Data["status"])
	assert.Equal(t, "test", body.Data["env"])
}

func TestPushTokenHandlers(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "Alice")

	status, _ := s.do(t, http.MethodPost, "/v1/users/push-tokens", alice.Token, SavePushTokenRequest{Token: "not-expo"})
	assert.Equal(t, http.StatusBadRequest, status)

	token := "ExponentPushToken[abc123]"
	status, raw := s.do(t, http.MethodPost, "/v1/users/push-tokens", alice.Token, SavePushTokenRequest{Token: token})
	require.Equal(t, http.StatusNoContent, status, string(raw))

	got, err := s.app.store.PushTokens.TokensByUserIDs(context.Background(), []string{alice.User.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{token}, got[alice.User.ID])

	status, _ = s.do(t, http.MethodDelete, "/v1/users/push-tokens", alice.Token, RemovePushTokenRequest{Token: token})
	require.Equal(t, http.StatusNoContent, status)

	got, err = s.app.store.PushTokens.TokensByUserIDs(context.Background(), []string{alice.User.ID})
	require.NoError(t, err)
	assert.Empty(t, got[alice.User.ID])
}

func TestCoverUploadWithoutCloudinary(t *testing.T) {
	s := newTestServer(t)
	admin := s.signup(t, "Admin")
	bob := s.signup(t, "Bob")
	group := s.createGroup(t, admin.Token, "2030-06-01", 4)

	status, _ := s.do(t, http.MethodPost, "/v1/groups/"+group.ID+"/cover", bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPost, "/v1/groups/"+group.ID+"/cover", admin.Token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}
