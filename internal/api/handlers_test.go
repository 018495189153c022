package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashfitness/backend/internal/store"
)

// fakeChatService records calls so tests can assert the chat core was (or was
// not) reached.
type fakeChatService struct {
	askText     string
	askErr      error
	askCalls    int
	lastUserID  int64
	lastMessage string
	clearCalls  int
	clearErr    error
}

func (f *fakeChatService) Ask(_ context.Context, userID int64, message string) (string, error) {
	f.askCalls++
	f.lastUserID = userID
	f.lastMessage = message
	return f.askText, f.askErr
}

func (f *fakeChatService) ClearHistory(_ context.Context, userID int64) error {
	f.clearCalls++
	f.lastUserID = userID
	return f.clearErr
}

type fakeStore struct {
	usersByEmail map[string]*store.User
	usersByID    map[int64]*store.User
	leads        map[string]*store.Lead
	nextUserID   int64
	nextLeadID   int
	pingErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		usersByEmail: make(map[string]*store.User),
		usersByID:    make(map[int64]*store.User),
		leads:        make(map[string]*store.Lead),
	}
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*store.User, error) {
	return f.usersByEmail[email], nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*store.User, error) {
	return f.usersByID[id], nil
}

func (f *fakeStore) CreateUser(_ context.Context, email, passwordHash, plan string) (*store.User, error) {
	f.nextUserID++
	u := &store.User{ID: f.nextUserID, Email: email, PasswordHash: passwordHash, Plan: plan}
	f.usersByEmail[email] = u
	f.usersByID[u.ID] = u
	return u, nil
}

func (f *fakeStore) UpdateUserPlan(_ context.Context, id int64, plan string) error {
	if u := f.usersByID[id]; u != nil {
		u.Plan = plan
	}
	return nil
}

func (f *fakeStore) CreateLead(_ context.Context, lead *store.Lead) error {
	f.nextLeadID++
	lead.ID = fmt.Sprintf("lead-%d", f.nextLeadID)
	f.leads[lead.ID] = lead
	return nil
}

func (f *fakeStore) GetLeadByID(_ context.Context, id string) (*store.Lead, error) {
	return f.leads[id], nil
}

func (f *fakeStore) MarkLeadConverted(_ context.Context, id string) error {
	if l := f.leads[id]; l != nil {
		l.Status = "converted"
	}
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type testServer struct {
	srv   *httptest.Server
	chat  *fakeChatService
	db    *fakeStore
	cache *fakePinger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	chat := &fakeChatService{askText: "hello from the coach"}
	db := newFakeStore()
	cache := &fakePinger{}

	sessions := scs.New() // in-memory session store is fine for tests
	handler := NewAPIHandler(chat, db, cache, sessions)
	srv := httptest.NewServer(NewRouter(handler, sessions))
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, chat: chat, db: db, cache: cache}
}

func (ts *testServer) post(t *testing.T, path string, body any, cookies []*http.Cookie) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.srv.URL+path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := http.DefaultTransport.RoundTrip(req)
	require.NoError(t, err)
	return resp
}

// loginCookies signs a member up and returns the session cookie.
func (ts *testServer) loginCookies(t *testing.T) []*http.Cookie {
	t.Helper()
	resp := ts.post(t, "/signup", map[string]string{"email": "yash@example.com", "password": "hunter22"}, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

func TestAskAIRequiresLogin(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.post(t, "/ask-ai", map[string]string{"message": "hi"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
	assert.Zero(t, ts.chat.askCalls, "anonymous request must not reach the chat core")
}

func TestAskAIWhitespaceMessage(t *testing.T) {
	ts := newTestServer(t)
	cookies := ts.loginCookies(t)

	resp := ts.post(t, "/ask-ai", map[string]string{"message": "  "}, cookies)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
	assert.Zero(t, ts.chat.askCalls, "blank message must not trigger a model call")
}

func TestAskAIHappyPath(t *testing.T) {
	ts := newTestServer(t)
	cookies := ts.loginCookies(t)

	resp := ts.post(t, "/ask-ai", map[string]string{"message": "What is my BMI?"}, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "hello from the coach", body["aiMessage"])
	assert.Equal(t, int64(1), ts.chat.lastUserID)
	assert.Equal(t, "What is my BMI?", ts.chat.lastMessage)
}

func TestAskAIUpstreamFailureIsGeneric(t *testing.T) {
	ts := newTestServer(t)
	ts.chat.askErr = errors.New("gemini exploded: secret detail")
	cookies := ts.loginCookies(t)

	resp := ts.post(t, "/ask-ai", map[string]string{"message": "hi"}, cookies)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Failed to get response from AI.", body["error"])
	assert.NotContains(t, fmt.Sprint(body), "secret detail")
}

func TestClearChat(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.post(t, "/chat/clear", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	cookies := ts.loginCookies(t)
	for i := 0; i < 2; i++ { // clearing twice succeeds both times
		resp = ts.post(t, "/chat/clear", nil, cookies)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Chat cleared.", body["message"])
	}
	assert.Equal(t, 2, ts.chat.clearCalls)
}

func TestSignupAndDuplicate(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.post(t, "/signup", map[string]string{"email": "a@b.com", "password": "pw"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.post(t, "/signup", map[string]string{"email": "a@b.com", "password": "pw"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestLoginInvalidCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.loginCookies(t) // creates yash@example.com

	resp := ts.post(t, "/login", map[string]string{"email": "yash@example.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = ts.post(t, "/login", map[string]string{"email": "nobody@example.com", "password": "pw"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestJoinNowValidation(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.post(t, "/join-now", map[string]string{"name": "", "email": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
	assert.Empty(t, ts.db.leads)
}

func TestJoinNowNormalizesLead(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.post(t, "/join-now", map[string]string{
		"name":    "  Yash T  ",
		"email":   " Yash@Example.COM ",
		"phone":   "+91 (555) 123-4567 ext 99999",
		"plan":    "Pro",
		"goal":    "Weight Loss",
		"details": " want to start asap ",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	leadID, _ := body["leadId"].(string)
	require.NotEmpty(t, leadID)

	lead := ts.db.leads[leadID]
	require.NotNil(t, lead)
	assert.Equal(t, "Yash T", lead.Name)
	assert.Equal(t, "yash@example.com", lead.Email)
	assert.Equal(t, "+91555123456799", lead.Phone) // digits and + only, capped at 15
	assert.Equal(t, "pro", lead.Plan)
	assert.Equal(t, "weight_loss", lead.Goal)
	assert.Equal(t, "want to start asap", lead.Details)
	assert.Equal(t, "join_now", lead.Source)
	assert.Nil(t, lead.UserID)
}

func TestJoinNowLinksLoggedInUser(t *testing.T) {
	ts := newTestServer(t)
	cookies := ts.loginCookies(t)

	resp := ts.post(t, "/join-now", map[string]string{"name": "Yash", "email": "y@b.com"}, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	lead := ts.db.leads[body["leadId"].(string)]
	require.NotNil(t, lead)
	require.NotNil(t, lead.UserID)
	assert.Equal(t, int64(1), *lead.UserID)
}

func TestPaymentSuccessConvertsLeadAndUpgrades(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.post(t, "/join-now", map[string]string{"name": "Yash", "email": "y@b.com"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	leadID := decodeBody(t, resp)["leadId"].(string)

	resp = ts.post(t, "/payment-success", map[string]string{"leadId": leadID, "plan": "enterprise"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "/platform.html", body["redirect"])

	assert.Equal(t, "converted", ts.db.leads[leadID].Status)
	user := ts.db.usersByEmail["y@b.com"]
	require.NotNil(t, user)
	assert.Equal(t, "enterprise", user.Plan)
}

func TestPaymentSuccessUnknownLead(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.post(t, "/payment-success", map[string]string{"leadId": "lead-999"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = ts.post(t, "/payment-success", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestMeHandler(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.srv.URL+"/me", nil)
	resp, err := http.DefaultTransport.RoundTrip(req)
	require.NoError(t, err)
	body := decodeBody(t, resp)
	assert.Nil(t, body["user"])

	cookies := ts.loginCookies(t)
	req, _ = http.NewRequest(http.MethodGet, ts.srv.URL+"/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err = http.DefaultTransport.RoundTrip(req)
	require.NoError(t, err)
	body = decodeBody(t, resp)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "yash@example.com", user["email"])
	assert.Equal(t, "free", user["plan"])
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	get := func(path string) *http.Response {
		req, _ := http.NewRequest(http.MethodGet, ts.srv.URL+path, nil)
		resp, err := http.DefaultTransport.RoundTrip(req)
		require.NoError(t, err)
		return resp
	}

	resp := get("/health/db")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = get("/health/redis")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	ts.db.pingErr = errors.New("db down")
	ts.cache.err = errors.New("redis down")

	resp = get("/health/db")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	resp.Body.Close()

	resp = get("/health/redis")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	resp.Body.Close()
}
