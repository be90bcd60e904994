// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejzpr/sweety-vault/internal/auth"
	"github.com/tejzpr/sweety-vault/internal/config"
	"github.com/tejzpr/sweety-vault/internal/controller"
	"github.com/tejzpr/sweety-vault/internal/database"
	"github.com/tejzpr/sweety-vault/internal/metrics"
	"github.com/tejzpr/sweety-vault/internal/nickname"
	"github.com/tejzpr/sweety-vault/internal/tools"
	"github.com/tejzpr/sweety-vault/internal/vault"
	"github.com/tejzpr/sweety-vault/internal/workspace"
	"gorm.io/gorm/logger"
)

const (
	testToken = "token-1"
	reply     = `["Sunset Chaser", "Pancake Royalty", "Lisbon Wanderer", "Pastry Pirate", "Tram Dancer"]`
)

// tokenProvider accepts a fixed set of access tokens.
type tokenProvider struct {
	auth.DisabledProvider
	sessions map[string]*auth.Session
}

func (p tokenProvider) GetSession(_ context.Context, token string) (*auth.Session, error) {
	if s, ok := p.sessions[token]; ok {
		return s, nil
	}
	return nil, auth.ErrUnauthenticated
}

// viewBody mirrors the JSON shape of controller.View.
type viewBody struct {
	Phase           string         `json:"phase"`
	Text            string         `json:"text"`
	Style           string         `json:"style"`
	Candidates      []string       `json:"candidates"`
	Fallback        bool           `json:"fallback"`
	Selected        []string       `json:"selected"`
	Search          string         `json:"search"`
	Records         []vault.Record `json:"records"`
	Total           int            `json:"total"`
	ExpandedID      string         `json:"expanded_id"`
	PendingDeleteID string         `json:"pending_delete_id"`
}

type harness struct {
	srv        *httptest.Server
	workspaces *workspace.Registry
	metrics    *metrics.Collector
}

func newHarness(t *testing.T, provider auth.Provider, backend vault.Backend) *harness {
	t.Helper()
	if provider == nil {
		provider = tokenProvider{sessions: map[string]*auth.Session{
			testToken: {UserID: "u-1", Email: "sam@example.com", AccessToken: testToken},
		}}
	}
	completer := nickname.CompleterFunc(func(context.Context, string) (string, error) {
		return reply, nil
	})
	reg := workspace.NewRegistry(completer, backend)
	t.Cleanup(reg.Close)

	m := metrics.NewCollector("sweety_test")
	s := New(config.ServerConfig{AllowedOrigins: []string{"http://localhost:5173"}}, provider, reg,
		WithMetrics(m),
		WithMCP(NewMCPServer("test", tools.NewToolContext(reg, nil))),
	)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &harness{srv: srv, workspaces: reg, metrics: m}
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decodeAs[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil, vault.NewMemoryBackend())

	status, body := h.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	got := decodeAs[map[string]interface{}](t, body)
	assert.Equal(t, "healthy", got["status"])
	assert.EqualValues(t, 0, got["workspaces"])
}

func TestHealthCheckFailure(t *testing.T) {
	reg := workspace.NewRegistry(nil, nil)
	t.Cleanup(reg.Close)
	s := New(config.ServerConfig{}, nil, reg, WithHealthCheck(func(context.Context) error {
		return errors.New("database is locked")
	}))
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "unhealthy", got["status"])
	assert.Equal(t, "database is locked", got["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, nil, vault.NewMemoryBackend())
	h.do(t, http.MethodGet, "/health", "", nil)

	status, body := h.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `sweety_test_http_requests_total`)
	assert.Contains(t, string(body), `route="/health"`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t, nil, vault.NewMemoryBackend())

	tests := []struct {
		method string
		path   string
		token  string
	}{
		{http.MethodGet, "/api/state", ""},
		{http.MethodGet, "/api/state", "bogus"},
		{http.MethodPost, "/api/nicknames", ""},
		{http.MethodGet, "/api/memories", ""},
		{http.MethodPost, "/mcp", ""},
		{http.MethodPost, "/api/auth/signout", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			status, body := h.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.NotEmpty(t, decodeAs[errorResponse](t, body).Error)
		})
	}
	assert.Equal(t, 0, h.workspaces.Len())
}

func TestAuthFlow(t *testing.T) {
	db, err := database.Open(&database.Config{
		Type:       database.TypeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	provider := auth.NewLocalProvider(db, auth.NewTokenManager(db, 24))
	h := newHarness(t, provider, vault.NewMemoryBackend())

	status, body := h.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "sam@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	signedUp := decodeAs[auth.Session](t, body)
	assert.NotEmpty(t, signedUp.AccessToken)

	status, _ = h.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "sam@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = h.do(t, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email": "sam@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = h.do(t, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email": "sam@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	session := decodeAs[auth.Session](t, body)
	assert.Equal(t, signedUp.UserID, session.UserID)

	status, body = h.do(t, http.MethodGet, "/api/auth/session", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	current := decodeAs[sessionResponse](t, body)
	assert.True(t, current.Authenticated)
	require.NotNil(t, current.Session)
	assert.Equal(t, "sam@example.com", current.Session.Email)

	status, body = h.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh_token": session.RefreshToken,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	refreshed := decodeAs[auth.Session](t, body)
	assert.NotEqual(t, session.AccessToken, refreshed.AccessToken)

	status, _ = h.do(t, http.MethodGet, "/api/state", refreshed.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, h.workspaces.Len())

	status, _ = h.do(t, http.MethodPost, "/api/auth/signout", refreshed.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, 0, h.workspaces.Len())

	status, _ = h.do(t, http.MethodGet, "/api/state", refreshed.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = h.do(t, http.MethodGet, "/api/auth/session", refreshed.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decodeAs[sessionResponse](t, body).Authenticated)
}

func TestSignInDisabledBackend(t *testing.T) {
	h := newHarness(t, auth.DisabledProvider{}, nil)

	status, _ := h.do(t, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email": "sam@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestRequestValidation(t *testing.T) {
	h := newHarness(t, nil, vault.NewMemoryBackend())

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
	}{
		{"bad email", http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "nope", "password": "secret123"}},
		{"short password", http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "a@b.co", "password": "123"}},
		{"missing refresh token", http.MethodPost, "/api/auth/refresh", "", map[string]string{}},
		{"unknown style", http.MethodPut, "/api/input", testToken, map[string]string{"text": "x", "style": "grumpy"}},
		{"unknown field", http.MethodPut, "/api/input", testToken, map[string]string{"text": "x", "mood": "sunny"}},
		{"missing memory", http.MethodPost, "/api/nicknames", testToken, map[string]string{"style": "sweet"}},
		{"no body", http.MethodPost, "/api/nicknames", testToken, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := h.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, http.StatusBadRequest, status, string(body))
			assert.NotEmpty(t, decodeAs[errorResponse](t, body).Error)
		})
	}
}

func TestWorkspaceFlow(t *testing.T) {
	h := newHarness(t, nil, vault.NewMemoryBackend())

	status, body := h.do(t, http.MethodPut, "/api/input", testToken, map[string]string{
		"text": "Pastries in Lisbon", "style": "playful",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	view := decodeAs[viewBody](t, body)
	assert.Equal(t, "Pastries in Lisbon", view.Text)
	assert.Equal(t, "playful", view.Style)
	assert.Equal(t, "idle", view.Phase)

	status, body = h.do(t, http.MethodPost, "/api/memories", testToken, nil)
	assert.Equal(t, http.StatusBadRequest, status, string(body))

	status, body = h.do(t, http.MethodPost, "/api/nicknames", testToken, map[string]string{
		"memory": "Pastries in Lisbon", "style": "playful",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	generated := decodeAs[struct {
		Result nickname.Result `json:"result"`
		View   viewBody        `json:"state"`
	}](t, body)
	assert.Len(t, generated.Result.Labels, 5)
	assert.Equal(t, "reviewing", generated.View.Phase)
	assert.Contains(t, generated.View.Candidates, "Pastry Pirate")

	status, body = h.do(t, http.MethodPost, "/api/selection/Pastry%20Pirate", testToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	selection := decodeAs[struct {
		Label    string   `json:"label"`
		Selected bool     `json:"selected"`
		View     viewBody `json:"state"`
	}](t, body)
	assert.Equal(t, "Pastry Pirate", selection.Label)
	assert.True(t, selection.Selected)
	assert.Equal(t, []string{"Pastry Pirate"}, selection.View.Selected)

	status, _ = h.do(t, http.MethodPost, "/api/selection/Grumpy%20Cat", testToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = h.do(t, http.MethodPost, "/api/selection/Tram%20Dancer", testToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = h.do(t, http.MethodPost, "/api/memories", testToken, nil)
	require.Equal(t, http.StatusCreated, status, string(body))
	saved := decodeAs[struct {
		Saved []vault.Record `json:"saved"`
		View  viewBody       `json:"state"`
	}](t, body)
	require.Len(t, saved.Saved, 2)
	assert.Equal(t, "idle", saved.View.Phase)
	assert.Empty(t, saved.View.Candidates)
	assert.Empty(t, saved.View.Text)
	assert.Equal(t, 2, saved.View.Total)

	status, body = h.do(t, http.MethodGet, "/api/memories?q=tram", testToken, nil)
	require.Equal(t, http.StatusOK, status)
	listed := decodeAs[struct {
		Records []vault.Record `json:"records"`
		Total   int            `json:"total"`
	}](t, body)
	require.Len(t, listed.Records, 1)
	assert.Equal(t, "Tram Dancer", listed.Records[0].Nickname)
	assert.Equal(t, 2, listed.Total)

	id := listed.Records[0].ID

	status, body = h.do(t, http.MethodPost, "/api/memories/"+id+"/expand", testToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, decodeAs[viewBody](t, body).ExpandedID)

	status, body = h.do(t, http.MethodPost, "/api/memories/"+id+"/delete-request", testToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, decodeAs[viewBody](t, body).PendingDeleteID)

	status, body = h.do(t, http.MethodDelete, "/api/memories/"+id+"/delete-request", testToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decodeAs[viewBody](t, body).PendingDeleteID)

	status, body = h.do(t, http.MethodDelete, "/api/memories/"+id, testToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	after := decodeAs[viewBody](t, body)
	assert.Equal(t, 1, after.Total)
	assert.Empty(t, after.ExpandedID)

	status, _ = h.do(t, http.MethodDelete, "/api/memories/"+id, testToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = h.do(t, http.MethodGet, "/api/memories?q=", testToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeAs[memoriesResponse](t, body).Records, 1)
}

func TestGenerateEmptyMemory(t *testing.T) {
	h := newHarness(t, nil, vault.NewMemoryBackend())

	status, body := h.do(t, http.MethodPost, "/api/nicknames", testToken, map[string]string{"memory": "   "})
	assert.Equal(t, http.StatusBadRequest, status, string(body))
}

func TestConfirmWithoutBackend(t *testing.T) {
	h := newHarness(t, nil, nil)

	status, _ := h.do(t, http.MethodPost, "/api/nicknames", testToken, map[string]string{"memory": "Pastries in Lisbon"})
	require.Equal(t, http.StatusOK, status)
	status, _ = h.do(t, http.MethodPost, "/api/selection/Sunset%20Chaser", testToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := h.do(t, http.MethodPost, "/api/memories", testToken, nil)
	require.Equal(t, http.StatusCreated, status, string(body))
	got := decodeAs[struct {
		Saved []vault.Record `json:"saved"`
		View  viewBody       `json:"state"`
	}](t, body)
	assert.Empty(t, got.Saved)
	assert.Equal(t, "idle", got.View.Phase)
	assert.Empty(t, got.View.Selected)
	assert.Equal(t, 0, got.View.Total)
}

func TestEventStream(t *testing.T) {
	h := newHarness(t, nil, vault.NewMemoryBackend())

	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/api/events?access_token=" + testToken
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	type event struct {
		Type string    `json:"type"`
		View *viewBody `json:"view"`
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var first event
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, string(controller.EventState), first.Type)
	require.NotNil(t, first.View)
	assert.Equal(t, "idle", first.View.Phase)

	status, _ := h.do(t, http.MethodPut, "/api/input", testToken, map[string]string{"text": "Tram rides"})
	require.Equal(t, http.StatusOK, status)

	var next event
	require.NoError(t, conn.ReadJSON(&next))
	require.NotNil(t, next.View)
	assert.Equal(t, "Tram rides", next.View.Text)
}

func TestEventStreamRejectsForeignOrigin(t *testing.T) {
	h := newHarness(t, nil, vault.NewMemoryBackend())

	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/api/events?access_token=" + testToken
	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("wrapped: %w", auth.ErrUnauthenticated), http.StatusUnauthorized},
		{workspace.ErrNoUser, http.StatusUnauthorized},
		{auth.ErrEmailTaken, http.StatusConflict},
		{controller.ErrBusy, http.StatusConflict},
		{vault.ErrSaveInFlight, http.StatusConflict},
		{controller.ErrNothingSelected, http.StatusBadRequest},
		{controller.ErrUnknownCandidate, http.StatusBadRequest},
		{nickname.ErrEmptyMemory, http.StatusBadRequest},
		{controller.ErrUnknownRecord, http.StatusNotFound},
		{auth.ErrBackendUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
