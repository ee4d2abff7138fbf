package httpserver_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/agent-middleware/internal/config"
	"github.com/janhq/agent-middleware/internal/domain/conversation"
	"github.com/janhq/agent-middleware/internal/domain/identity"
	"github.com/janhq/agent-middleware/internal/domain/profile"
	"github.com/janhq/agent-middleware/internal/infrastructure"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/databasetest"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/repository/conversationrepo"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/repository/identityrepo"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/repository/profilerepo"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/transaction"
	"github.com/janhq/agent-middleware/internal/infrastructure/logger"
	"github.com/janhq/agent-middleware/internal/infrastructure/metrics"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/handlers/conversationhandler"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/handlers/identityhandler"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/handlers/profilehandler"
	v1 "github.com/janhq/agent-middleware/internal/interfaces/httpserver/routes/v1"
)

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	log := zerolog.Nop()
	cfg := &config.Config{
		ServiceName:        "agent-middleware",
		CORSAllowedOrigins: []string{"*"},
	}

	gormDB := databasetest.Open(t)
	db := transaction.NewDatabase(gormDB)
	recorder := metrics.NewRecorder()

	identityService := identity.NewService(identityrepo.NewIdentityGormRepository(db), db, recorder, log)
	profileService := profile.NewService(profilerepo.NewProfileGormRepository(db), db, log)
	conversationService := conversation.NewService(conversationrepo.NewConversationGormRepository(db), db, recorder, log)

	route := v1.NewV1Route(
		identityhandler.NewIdentityHandler(identityService, log),
		profilehandler.NewProfileHandler(profileService, log),
		conversationhandler.NewConversationHandler(conversationService, log),
	)
	infra := infrastructure.NewInfrastructure(gormDB, nil, log, logger.NewSanitizer("hashed", "test"))
	server := httpserver.NewHttpServer(route, identityService, infra, cfg)
	return &apiClient{t: t, handler: server.Handler()}
}

func (a *apiClient) do(method, path, subject string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set("X-User-Subject", subject)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type identityBody struct {
	ID                uint    `json:"id"`
	Object            string  `json:"object"`
	ExternalSubjectID string  `json:"external_subject_id"`
	Email             *string `json:"email"`
}

type profileBody struct {
	ID                         uint    `json:"id"`
	IdentityID                 uint    `json:"identity_id"`
	PreferredAgentInstructions *string `json:"preferred_agent_instructions"`
	CustomWorkflowsJSON        *string `json:"custom_workflows_json"`
}

type conversationBody struct {
	ID               uint    `json:"id"`
	ExternalThreadID string  `json:"external_thread_id"`
	Title            *string `json:"title"`
	LastMessageAt    string  `json:"last_message_at"`
}

type listBody struct {
	Object string             `json:"object"`
	Data   []conversationBody `json:"data"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

type errorBody struct {
	Error struct {
		Type      string `json:"type"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

func TestOperationalEndpoints(t *testing.T) {
	api := newAPI(t)

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", "", nil).Code)

	ready := api.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.Contains(t, ready.Body.String(), `"database":"ok"`)

	metricsResp := api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, metricsResp.Code)
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodGet, "/v1/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, "unauthorized_error", body.Error.Type)
	assert.NotEmpty(t, body.Error.RequestID)
	assert.Equal(t, body.Error.RequestID, w.Header().Get("X-Request-Id"))
}

func TestIdentityLifecycle(t *testing.T) {
	api := newAPI(t)

	first := decode[identityBody](t, api.do(http.MethodGet, "/v1/me", "user-1", nil))
	second := decode[identityBody](t, api.do(http.MethodGet, "/v1/me", "user-1", nil))
	other := decode[identityBody](t, api.do(http.MethodGet, "/v1/me", "user-2", nil))

	assert.Equal(t, "identity", first.Object)
	assert.Equal(t, "user-1", first.ExternalSubjectID)
	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, first.ID, other.ID)

	created := api.do(http.MethodPost, "/v1/conversations", "user-1", map[string]any{"external_thread_id": "thread-1"})
	require.Equal(t, http.StatusCreated, created.Code)
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/v1/profile", "user-1", map[string]any{"preferred_agent_instructions": "hi"}).Code)

	deleted := api.do(http.MethodDelete, "/v1/me", "user-1", nil)
	require.Equal(t, http.StatusOK, deleted.Code)
	assert.Contains(t, deleted.Body.String(), `"deleted":true`)

	// the next request provisions a fresh, empty identity
	fresh := decode[identityBody](t, api.do(http.MethodGet, "/v1/me", "user-1", nil))
	assert.NotEqual(t, first.ID, fresh.ID)
	list := decode[listBody](t, api.do(http.MethodGet, "/v1/conversations", "user-1", nil))
	assert.Empty(t, list.Data)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/v1/profile", "user-1", nil).Code)
}

func TestProfileEndpoints(t *testing.T) {
	api := newAPI(t)

	missing := api.do(http.MethodGet, "/v1/profile", "user-1", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	w := api.do(http.MethodPut, "/v1/profile", "user-1", map[string]any{
		"preferred_agent_instructions": "answer in French",
		"custom_workflows_json":        `{"flows":[]}`,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[profileBody](t, w)

	w = api.do(http.MethodPut, "/v1/profile", "user-1", map[string]any{"preferred_agent_instructions": "answer in German"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[profileBody](t, w)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "answer in German", *updated.PreferredAgentInstructions)
	assert.Equal(t, `{"flows":[]}`, *updated.CustomWorkflowsJSON)

	got := decode[profileBody](t, api.do(http.MethodGet, "/v1/profile", "user-1", nil))
	assert.Equal(t, updated.ID, got.ID)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPut, "/v1/profile", "user-1", "not an object").Code)
}

func TestConversationEndpoints(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodPost, "/v1/conversations", "user-1", map[string]any{"external_thread_id": "thread-a", "title": "A"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	a := decode[conversationBody](t, w)

	w = api.do(http.MethodPost, "/v1/conversations", "user-1", map[string]any{"external_thread_id": "thread-a"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, a.ID, decode[conversationBody](t, w).ID)

	w = api.do(http.MethodPost, "/v1/conversations", "user-1", map[string]any{"external_thread_id": "thread-b"})
	require.Equal(t, http.StatusCreated, w.Code)
	b := decode[conversationBody](t, w)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/v1/conversations", "user-1", map[string]any{"title": "no thread"}).Code)

	list := decode[listBody](t, api.do(http.MethodGet, "/v1/conversations", "user-1", nil))
	assert.Equal(t, "list", list.Object)
	assert.Equal(t, 50, list.Limit)
	require.Len(t, list.Data, 2)
	assert.Equal(t, b.ID, list.Data[0].ID)

	w = api.do(http.MethodPost, fmt.Sprintf("/v1/conversations/%d/touch", a.ID), "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[listBody](t, api.do(http.MethodGet, "/v1/conversations?limit=1", "user-1", nil))
	require.Len(t, list.Data, 1)
	assert.Equal(t, a.ID, list.Data[0].ID)

	w = api.do(http.MethodPost, "/v1/threads/thread-b/touch", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, b.ID, decode[conversationBody](t, w).ID)

	w = api.do(http.MethodPatch, fmt.Sprintf("/v1/conversations/%d", a.ID), "user-1", map[string]any{"title": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", *decode[conversationBody](t, w).Title)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/v1/conversations?limit=500", "user-1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/v1/conversations/abc", "user-1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/v1/conversations/0", "user-1", nil).Code)

	// other identities cannot see or modify the conversation
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, fmt.Sprintf("/v1/conversations/%d", a.ID), "intruder", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, fmt.Sprintf("/v1/conversations/%d", a.ID), "intruder", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/v1/threads/thread-a/touch", "intruder", nil).Code)

	w = api.do(http.MethodDelete, fmt.Sprintf("/v1/conversations/%d", a.ID), "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"object":"conversation.deleted"`)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, fmt.Sprintf("/v1/conversations/%d", a.ID), "user-1", nil).Code)
}
