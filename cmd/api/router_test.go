package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authusecase "zuzuplan-backend/internal/auth/usecase"
	"zuzuplan-backend/internal/testutil"
	"zuzuplan-backend/pkg/config"
	"zuzuplan-backend/pkg/ratelimit"
	"zuzuplan-backend/pkg/realtime"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error"`
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := testutil.NewApp(t)
	cfg := &config.Config{AppEnv: "test", FrontendURL: "http://app.test"}
	tokens := authusecase.NewTokenIssuer("test-secret", 15*time.Minute, time.Hour)

	h := NewHandler(Dependencies{
		Config: cfg,
		DB:     app.DB,
		Logger: zap.NewNop(),
		Hub:    realtime.NewHub(),
		Auth: authusecase.NewAuthUsecase(app.Users, tokens, app.Mail, authusecase.AuthOptions{
			FrontendURL: cfg.FrontendURL,
		}, zap.NewNop()),
		Users:         authusecase.NewUserUsecase(app.Users, nil),
		Evaluator:     app.Evaluator,
		Projects:      app.Projects,
		Tasks:         app.Tasks,
		Labels:        app.Labels,
		Comments:      app.Comments,
		Attachments:   app.Attachments,
		Activity:      app.Activity,
		Notifications: app.Notifications,
		LoginLimiter:  ratelimit.NewMemoryLimiter(3, time.Minute),
		ResetLimiter:  ratelimit.NewMemoryLimiter(3, time.Minute),
	})
	return h.Engine()
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func register(t *testing.T, r *gin.Engine, email, name string) string {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"email": email, "password": "password123", "name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tokens struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tokens))
	return tokens.AccessToken
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestEngine(t)

	w, _ := do(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds")
}

func TestCORSPreflight(t *testing.T) {
	r := newTestEngine(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "http://app.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://app.test", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	r := newTestEngine(t)

	w, env := do(t, r, http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, http.StatusUnauthorized, env.Error.StatusCode)

	w, _ = do(t, r, http.MethodGet, "/api/projects", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProjectAndTaskFlow(t *testing.T) {
	r := newTestEngine(t)
	owner := register(t, r, "owner@example.com", "Olive Owner")
	stranger := register(t, r, "stranger@example.com", "Stan Stranger")

	w, env := do(t, r, http.MethodPost, "/api/projects", owner, gin.H{"name": "Website Redesign"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var project struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &project))

	w, _ = do(t, r, http.MethodPost, "/api/projects/"+project.ID+"/tasks", owner, gin.H{"title": "Design homepage", "priority": "HIGH"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = do(t, r, http.MethodGet, "/api/projects/"+project.ID+"/tasks", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []struct {
		Title    string `json:"title"`
		Priority string `json:"priority"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "HIGH", tasks[0].Priority)

	// Strangers cannot tell the project exists.
	w, env = do(t, r, http.MethodGet, "/api/projects/"+project.ID, stranger, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Project not found", env.Error.Message)

	w, _ = do(t, r, http.MethodGet, "/api/projects/"+project.ID+"/activity", owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	r := newTestEngine(t)

	var last int
	for i := 0; i < 4; i++ {
		w, _ := do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "nobody@example.com", "password": "whatever1"})
		last = w.Code
		if i < 3 {
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestRegisterDoesNotSpendLoginAttempts(t *testing.T) {
	r := newTestEngine(t)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"} {
		register(t, r, email, "New User")
	}

	w, _ := do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMalformedIDsAreRejected(t *testing.T) {
	r := newTestEngine(t)
	token := register(t, r, "ids@example.com", "Ida Ids")

	for _, path := range []string{
		"/api/tasks/not-a-uuid",
		"/api/projects/123",
		"/api/users/abc",
	} {
		w, env := do(t, r, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		require.NotNil(t, env.Error, path)
		assert.Equal(t, "Invalid ID format", env.Error.Message)
	}

	w, _ := do(t, r, http.MethodGet, "/api/tasks/3f2b8c1e-6a4d-4e0f-9b7a-2c5d1e8f0a11", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
