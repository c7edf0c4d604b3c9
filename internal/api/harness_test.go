package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskpulse-api/internal/api/middleware"
	"github.com/phrazzld/taskpulse-api/internal/events"
	"github.com/phrazzld/taskpulse-api/internal/mocks"
	"github.com/phrazzld/taskpulse-api/internal/notify"
	"github.com/phrazzld/taskpulse-api/internal/platform/memory"
	"github.com/phrazzld/taskpulse-api/internal/service"
	"github.com/phrazzld/taskpulse-api/internal/service/auth"
	"github.com/phrazzld/taskpulse-api/internal/testutils"
	"github.com/stretchr/testify/require"
)

const testPassword = testutils.TestPassword

// testAPI wires the real handlers, services and in-memory stores behind the
// production routes. Outgoing email is captured by a MockDispatcher.
type testAPI struct {
	router     http.Handler
	tasks      *memory.TaskStore
	users      *memory.UserStore
	userSvc    *service.UserServiceImpl
	jwt        auth.JWTService
	dispatcher *mocks.MockDispatcher
}

func discardLogger() *slog.Logger {
	return testutils.DiscardLogger()
}

func newTestAPI(t *testing.T) *testAPI {
	return newTestAPIWithDispatcher(t, &mocks.MockDispatcher{})
}

func newTestAPIWithDispatcher(t *testing.T, dispatcher notify.Dispatcher) *testAPI {
	t.Helper()
	log := discardLogger()

	cfg := testutils.TestAuthConfig()
	jwtService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	tasks := memory.NewTaskStore()
	users := memory.NewUserStore(tasks)
	hasher := &mocks.MockPasswordHasher{}

	recorder, _ := dispatcher.(*mocks.MockDispatcher)
	emitter := events.NewInMemoryEmitter(log)
	emitter.RegisterHandler(notify.NewAccountEventHandler(dispatcher))

	accounts, err := auth.NewService(cfg, users, jwtService, hasher, emitter, log)
	require.NoError(t, err)
	taskSvc, err := service.NewTaskService(tasks, log)
	require.NoError(t, err)
	userSvc, err := service.NewUserService(users, hasher, log)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.NewTraceMiddleware(log))
	r.Route("/api", func(r chi.Router) {
		RegisterRoutes(r, Handlers{
			Auth:         NewAuthHandler(accounts, log),
			Tasks:        NewTaskHandler(taskSvc, log),
			Users:        NewUserHandler(userSvc, log),
			Notification: NewNotificationHandler(dispatcher, log),
		}, middleware.NewAuthMiddleware(jwtService))
	})

	return &testAPI{
		router:     r,
		tasks:      tasks,
		users:      users,
		userSvc:    userSvc,
		jwt:        jwtService,
		dispatcher: recorder,
	}
}

// do sends a request with an optional JSON body and bearer token.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

// register creates an account through the API and returns its session.
func (a *testAPI) register(t *testing.T, name, email string) AuthResponse {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Name: name, Email: email, Password: testPassword,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeBody[AuthResponse](t, rr)
}

// registerAdmin creates an account, promotes it and logs in again so the
// access token carries the admin role.
func (a *testAPI) registerAdmin(t *testing.T, email string) AuthResponse {
	t.Helper()
	a.register(t, "Admin", email)
	_, _, err := a.userSvc.PromoteToAdmin(context.Background(), email)
	require.NoError(t, err)

	rr := a.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: email, Password: testPassword})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decodeBody[AuthResponse](t, rr)
}

// lastResetToken extracts the token from the most recent reset email.
func (a *testAPI) lastResetToken(t *testing.T) string {
	t.Helper()
	sent := a.dispatcher.EmailsWithTemplate(notify.TemplatePasswordReset)
	require.NotEmpty(t, sent)
	link, err := url.Parse(sent[len(sent)-1].Data["resetURL"].(string))
	require.NoError(t, err)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]any](t, rr)["error"].(string)
}
