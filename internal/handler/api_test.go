package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/direct-message-service/internal/auth"
	"github.com/iliyamo/direct-message-service/internal/config"
	"github.com/iliyamo/direct-message-service/internal/handler"
	"github.com/iliyamo/direct-message-service/internal/repository"
	"github.com/iliyamo/direct-message-service/internal/router"
)

type testServer struct {
	e      *echo.Echo
	users  *repository.MemoryUserStore
	tokens *auth.TokenIssuer
}

// newTestServer wires the full route table against in-memory stores, with
// the admin account pre-seeded the way main does at startup.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	users := repository.NewMemoryUserStore()
	msgs := repository.NewMemoryMessageStore(users)
	tokens := auth.NewTokenIssuer("test-secret", 30, users)
	policy := auth.NewPolicy("admin")
	cfg := config.Config{BcryptCost: 4, AdminUsername: "admin"}

	_, err := users.Create(context.Background(), "admin", "secret", cfg.BcryptCost)
	require.NoError(t, err)

	a := handler.NewAuthHandler(cfg, users, tokens, policy)
	m := handler.NewMessageHandler(users, msgs, policy)
	m.Publish = nil // no broker in tests

	e := echo.New()
	router.Register(e, a, m, tokens, nil)
	return &testServer{e: e, users: users, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, username, password string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/users/",
		`{"username":"`+username+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/login",
		`{"username":"`+username+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

type messagesBody struct {
	Messages []struct {
		ID        string `json:"id"`
		Sender    string `json:"sender"`
		Recipient string `json:"recipient"`
		Text      string `json:"text"`
	} `json:"messages"`
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	s.register(t, "alice", "pw1")

	// duplicate registration is a 400 with its own error body, not a bare
	// validation failure
	rec := s.do(t, http.MethodPost, "/users/", `{"username":"alice","password":"pw2"}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"username already exists"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/login", `{"username":"alice","password":"wrong"}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/login", `{"username":"nobody","password":"pw"}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	s.login(t, "alice", "pw1")
}

func TestRegister_BadBody(t *testing.T) {
	s := newTestServer(t)
	for _, body := range []string{``, `{}`, `{"username":"x"}`, `{"password":"x"}`, `not-json`} {
		rec := s.do(t, http.MethodPost, "/users/", body, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, "body=%q", body)
	}
}

func TestUserLookupAndMe(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "pw")

	rec := s.do(t, http.MethodGet, "/users/alice", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"username":"alice"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/users/nobody", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	tok := s.login(t, "alice", "pw")
	rec = s.do(t, http.MethodGet, "/users/me", "", tok)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"username":"alice"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/users/me", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

// The end-to-end scenario: alice sends to bob, bob lists, the message is
// removed by its sender, bob's list is empty again.
func TestSendListDeleteScenario(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "pw")
	s.register(t, "bob", "pw")
	aliceTok := s.login(t, "alice", "pw")
	bobTok := s.login(t, "bob", "pw")

	rec := s.do(t, http.MethodPost, "/users/alice/messages/",
		`{"recipient":"bob","text":"hi"}`, aliceTok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sent struct {
		Message   string `json:"message"`
		MessageID string `json:"message_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sent))
	require.Equal(t, "Message sent", sent.Message)
	require.NotEmpty(t, sent.MessageID)

	rec = s.do(t, http.MethodGet, "/users/bob/messages/", "", bobTok)
	require.Equal(t, http.StatusOK, rec.Code)
	var got messagesBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Messages, 1)
	require.Equal(t, "alice", got.Messages[0].Sender)
	require.Equal(t, "hi", got.Messages[0].Text)
	require.Equal(t, sent.MessageID, got.Messages[0].ID)

	// the sender removes the message
	rec = s.do(t, http.MethodDelete, "/messages/"+sent.MessageID, "", aliceTok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/users/bob/messages/", "", bobTok)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"messages":[]}`, rec.Body.String())
}

func TestSendAuthorization(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "pw")
	s.register(t, "bob", "pw")
	aliceTok := s.login(t, "alice", "pw")
	adminTok := s.login(t, "admin", "secret")

	// alice cannot send as bob
	rec := s.do(t, http.MethodPost, "/users/bob/messages/",
		`{"recipient":"alice","text":"spoof"}`, aliceTok)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// admin can send as bob; the recorded sender is bob
	rec = s.do(t, http.MethodPost, "/users/bob/messages/",
		`{"recipient":"alice","text":"from admin"}`, adminTok)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/users/alice/messages/", "", aliceTok)
	require.Equal(t, http.StatusOK, rec.Code)
	var got messagesBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Messages, 1)
	require.Equal(t, "bob", got.Messages[0].Sender)
}

func TestSendUnknownRecipient(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "pw")
	aliceTok := s.login(t, "alice", "pw")

	rec := s.do(t, http.MethodPost, "/users/alice/messages/",
		`{"recipient":"nobody","text":"hi"}`, aliceTok)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// nothing was persisted
	rec = s.do(t, http.MethodGet, "/users/alice/messages/", "", aliceTok)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"messages":[]}`, rec.Body.String())
}

func TestListAuthorization(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "pw")
	s.register(t, "bob", "pw")
	aliceTok := s.login(t, "alice", "pw")
	adminTok := s.login(t, "admin", "secret")

	rec := s.do(t, http.MethodGet, "/users/bob/messages/", "", aliceTok)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/users/bob/messages/", "", adminTok)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/users/ghost/messages/", "", adminTok)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/users/bob/messages/", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteMessageOwnership(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "pw")
	s.register(t, "bob", "pw")
	aliceTok := s.login(t, "alice", "pw")
	bobTok := s.login(t, "bob", "pw")
	adminTok := s.login(t, "admin", "secret")

	send := func() string {
		rec := s.do(t, http.MethodPost, "/users/alice/messages/",
			`{"recipient":"bob","text":"hi"}`, aliceTok)
		require.Equal(t, http.StatusCreated, rec.Code)
		var sent struct {
			MessageID string `json:"message_id"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sent))
		return sent.MessageID
	}

	// the recipient is not the owner; only the sender or admin may delete
	id := send()
	rec := s.do(t, http.MethodDelete, "/messages/"+id, "", bobTok)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/messages/"+id, "", adminTok)
	require.Equal(t, http.StatusOK, rec.Code)

	// deleting again is a 404, never a silent no-op
	rec = s.do(t, http.MethodDelete, "/messages/"+id, "", adminTok)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// body-addressed variant used by older clients
	id = send()
	rec = s.do(t, http.MethodDelete, "/users/alice/messages/",
		`{"message_id":"`+id+`"}`, aliceTok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/users/alice/messages/", `{}`, aliceTok)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteUserAuthorization(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "pw")
	s.register(t, "bob", "pw")
	aliceTok := s.login(t, "alice", "pw")
	adminTok := s.login(t, "admin", "secret")

	rec := s.do(t, http.MethodDelete, "/users/bob", "", aliceTok)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/users/bob", "", adminTok)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/users/bob", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	// self-deletion is allowed
	rec = s.do(t, http.MethodDelete, "/users/alice", "", aliceTok)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "pw")

	expired := auth.NewTokenIssuer("test-secret", -1, s.users)
	tok, _, err := expired.Issue("alice")
	require.NoError(t, err)

	for _, path := range []string{"/users/me", "/users/alice/messages/"} {
		rec := s.do(t, http.MethodGet, path, "", tok)
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestDeletedUserTokenRejected(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "pw")
	aliceTok := s.login(t, "alice", "pw")
	adminTok := s.login(t, "admin", "secret")

	rec := s.do(t, http.MethodDelete, "/users/alice", "", adminTok)
	require.Equal(t, http.StatusOK, rec.Code)

	// the unexpired token no longer authenticates
	rec = s.do(t, http.MethodGet, "/users/me", "", aliceTok)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
