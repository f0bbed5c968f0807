package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/chatts-server/internal/auth"
	"github.com/mohamedkhairy/chatts-server/internal/models"
	"github.com/mohamedkhairy/chatts-server/internal/storage"
	"github.com/mohamedkhairy/chatts-server/internal/wsgateway"
)

type recordedEmit struct {
	Users []string
	Event string
}

type notifierStub struct {
	mu    sync.Mutex
	Emits []recordedEmit
}

func (n *notifierStub) EmitToUsers(userIDs []string, event string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Emits = append(n.Emits, recordedEmit{Users: userIDs, Event: event})
}

func (n *notifierStub) emitted(event string) []recordedEmit {
	n.mu.Lock()
	defer n.mu.Unlock()
	var result []recordedEmit
	for _, e := range n.Emits {
		if e.Event == event {
			result = append(result, e)
		}
	}
	return result
}

type testAPI struct {
	store    *storage.MockStore
	notifier *notifierStub
	tokens   *auth.TokenManager
	router   *mux.Router
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := storage.NewMockStore()
	notifier := &notifierStub{}
	tokens := auth.NewTokenManager("test-secret", time.Hour, "chatts-token")

	router := mux.NewRouter()
	handler := NewHandler(store, store, tokens, notifier)
	handler.RegisterRoutes(router, 0)

	return &testAPI{store: store, notifier: notifier, tokens: tokens, router: router}
}

func (a *testAPI) createUser(t *testing.T, username, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	user, err := a.store.CreateUser(context.Background(), &models.User{
		Username: username,
		Password: hash,
	})
	require.NoError(t, err)
	return user
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}, asUser string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	if asUser != "" {
		token, err := a.tokens.Issue(asUser)
		require.NoError(t, err)
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, r)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegister(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "alice",
		"password": "s3cret",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "chatts-token", cookies[0].Name)

	// duplicate username
	rec = api.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "alice",
		"password": "other",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	// missing fields
	rec = api.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "bob",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)
	api.createUser(t, "alice", "s3cret")

	rec := api.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "alice",
		"password": "s3cret",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["token"])

	rec = api.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "alice",
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "nobody",
		"password": "s3cret",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPrivateRoutesRequireAuth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/chats/my", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	api := newTestAPI(t)
	alice := api.createUser(t, "alice", "s3cret")

	rec := api.do(t, http.MethodGet, "/api/v1/users/me", nil, alice.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
}

func TestCreateGroup(t *testing.T) {
	api := newTestAPI(t)
	alice := api.createUser(t, "alice", "pw")
	bob := api.createUser(t, "bob", "pw")
	carol := api.createUser(t, "carol", "pw")

	rec := api.do(t, http.MethodPost, "/api/v1/chats/group", map[string]interface{}{
		"name":    "weekend",
		"members": []string{bob.ID, carol.ID},
	}, alice.ID)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	chat := body["chat"].(map[string]interface{})
	assert.Equal(t, "weekend", chat["name"])
	assert.Equal(t, true, chat["groupChat"])

	// every member is welcomed, the invitees told to refetch
	alerts := api.notifier.emitted(wsgateway.EventAlert)
	require.Len(t, alerts, 1)
	assert.ElementsMatch(t, []string{alice.ID, bob.ID, carol.ID}, alerts[0].Users)

	refetches := api.notifier.emitted(wsgateway.EventRefetchChats)
	require.Len(t, refetches, 1)
	assert.ElementsMatch(t, []string{bob.ID, carol.ID}, refetches[0].Users)

	// the creator is a member of the stored chat
	rec = api.do(t, http.MethodGet, "/api/v1/chats/my", nil, alice.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	chats := decodeBody(t, rec)["chats"].([]interface{})
	assert.Len(t, chats, 1)
}

func TestCreateGroupValidation(t *testing.T) {
	api := newTestAPI(t)
	alice := api.createUser(t, "alice", "pw")

	rec := api.do(t, http.MethodPost, "/api/v1/chats/group", map[string]interface{}{
		"name":    "solo",
		"members": []string{"someone"},
	}, alice.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatMessagesMembership(t *testing.T) {
	api := newTestAPI(t)
	alice := api.createUser(t, "alice", "pw")
	bob := api.createUser(t, "bob", "pw")
	mallory := api.createUser(t, "mallory", "pw")

	chat, err := api.store.CreateChat(context.Background(), &models.Chat{
		Name: "direct",
		Members: []models.ChatMember{
			{User: alice.ID},
			{User: bob.ID},
		},
	})
	require.NoError(t, err)

	_, err = api.store.CreateMessage(context.Background(), &models.Message{
		Content: "hi",
		Sender:  alice.ID,
		ChatID:  chat.ID,
	})
	require.NoError(t, err)

	path := fmt.Sprintf("/api/v1/chats/%s/messages", chat.ID)

	rec := api.do(t, http.MethodGet, path, nil, bob.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	messages := decodeBody(t, rec)["messages"].([]interface{})
	assert.Len(t, messages, 1)

	rec = api.do(t, http.MethodGet, path, nil, mallory.ID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/chats/missing/messages", nil, bob.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFriendRequestFlow(t *testing.T) {
	api := newTestAPI(t)
	alice := api.createUser(t, "alice", "pw")
	bob := api.createUser(t, "bob", "pw")

	// alice sends bob a request
	rec := api.do(t, http.MethodPost, "/api/v1/requests", map[string]string{
		"receiverId": bob.ID,
	}, alice.ID)
	require.Equal(t, http.StatusCreated, rec.Code)

	request := decodeBody(t, rec)["request"].(map[string]interface{})
	requestID := request["id"].(string)

	notified := api.notifier.emitted(wsgateway.EventNewRequest)
	require.Len(t, notified, 1)
	assert.Equal(t, []string{bob.ID}, notified[0].Users)

	// a duplicate in either direction is rejected
	rec = api.do(t, http.MethodPost, "/api/v1/requests", map[string]string{
		"receiverId": alice.ID,
	}, bob.ID)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// only the receiver can answer
	rec = api.do(t, http.MethodPut, "/api/v1/requests/"+requestID, map[string]bool{
		"accept": true,
	}, alice.ID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// bob accepts: direct chat created, both told to refetch
	rec = api.do(t, http.MethodPut, "/api/v1/requests/"+requestID, map[string]bool{
		"accept": true,
	}, bob.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RequestAccepted, decodeBody(t, rec)["status"])

	refetches := api.notifier.emitted(wsgateway.EventRefetchChats)
	require.Len(t, refetches, 1)
	assert.ElementsMatch(t, []string{alice.ID, bob.ID}, refetches[0].Users)

	chats, err := api.store.FindChatsByMember(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.False(t, chats[0].GroupChat)

	// answering again is rejected
	rec = api.do(t, http.MethodPut, "/api/v1/requests/"+requestID, map[string]bool{
		"accept": false,
	}, bob.ID)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAnswerRequestReject(t *testing.T) {
	api := newTestAPI(t)
	alice := api.createUser(t, "alice", "pw")
	bob := api.createUser(t, "bob", "pw")

	rec := api.do(t, http.MethodPost, "/api/v1/requests", map[string]string{
		"receiverId": bob.ID,
	}, alice.ID)
	require.Equal(t, http.StatusCreated, rec.Code)
	requestID := decodeBody(t, rec)["request"].(map[string]interface{})["id"].(string)

	rec = api.do(t, http.MethodPut, "/api/v1/requests/"+requestID, map[string]bool{
		"accept": false,
	}, bob.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RequestRejected, decodeBody(t, rec)["status"])

	// no chat was created and nobody told to refetch
	chats, err := api.store.FindChatsByMember(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, chats)
	assert.Empty(t, api.notifier.emitted(wsgateway.EventRefetchChats))
}
