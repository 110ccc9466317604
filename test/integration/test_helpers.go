//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-auth-service/internal/config"
	"go-auth-service/internal/event"
	"go-auth-service/internal/handler"
	"go-auth-service/internal/middleware"
	"go-auth-service/internal/model"
	"go-auth-service/internal/repository"
	"go-auth-service/internal/router"
	"go-auth-service/internal/service"
	"go-auth-service/internal/token"
)

type testEnv struct {
	server *httptest.Server
	users  *repository.FileUserRepository
	store  *repository.MemoryTokenStore
	audit  *service.AuditService
}

// newTestServer assembles the real router on top of the file user
// repository (which seeds admin/admin123) and an in-memory token store.
func newTestServer(t *testing.T, rotate bool, opts ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		AppName:        "auth-service",
		AppVersion:     "test",
		AppDescription: "integration fixture",

		ServerPort:     "8080",
		RequestTimeout: 30 * time.Second,

		JWTSecret:           "integration-secret",
		AccessTokenTTL:      15 * time.Minute,
		RefreshTokenTTL:     7 * 24 * time.Hour,
		RotateRefreshTokens: rotate,

		TokenStore: config.TokenStoreMemory,
		UsersFile:  filepath.Join(t.TempDir(), "users.json"),
		AuditFile:  filepath.Join(t.TempDir(), "audit.log"),

		CORSOrigins:      []string{"*"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,

		AuditEnabled: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	users, err := repository.NewFileUserRepository(cfg.UsersFile)
	require.NoError(t, err)

	tokenStore := repository.NewMemoryTokenStore()

	codec := token.NewCodec(cfg.JWTSecret)
	issuer := token.NewIssuer(codec, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	verifier := token.NewVerifier(codec, users, tokenStore)

	authService, err := service.NewAuthService(users)
	require.NoError(t, err)
	tokenService := service.NewTokenService(issuer, tokenStore)
	refreshService := service.NewRefreshService(verifier, issuer, tokenStore, cfg.RotateRefreshTokens)

	auditLog, err := repository.NewFileAuditLog(cfg.AuditFile)
	require.NoError(t, err)
	bus := event.NewBus()
	auditService := service.NewAuditService(auditLog, bus)
	auditService.Start()
	t.Cleanup(auditService.Stop)

	authMiddleware := middleware.NewAuthMiddleware(verifier)
	authHandler := handler.NewAuthHandler(authService, tokenService, refreshService, bus)
	auditHandler := handler.NewAuditHandler(auditService)
	healthHandler := handler.NewHealthHandler(cfg)
	docsHandler := handler.NewDocsHandler(filepath.Join("..", "..", "docs", "openapi.yaml"))

	server := httptest.NewServer(router.New(cfg, authMiddleware, authHandler, auditHandler, healthHandler, docsHandler))
	t.Cleanup(server.Close)

	return &testEnv{
		server: server,
		users:  users,
		store:  tokenStore,
		audit:  auditService,
	}
}

func postForm(t *testing.T, env *testEnv, path string, form url.Values) *http.Response {
	t.Helper()

	resp, err := http.PostForm(env.server.URL+path, form)
	require.NoError(t, err)
	return resp
}

func doBearer(t *testing.T, env *testEnv, method string, path string, bearer string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, env.server.URL+path, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// decodeData unwraps a successful envelope into data. The body is closed.
func decodeData(t *testing.T, resp *http.Response, data any) {
	t.Helper()
	defer resp.Body.Close()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *model.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success, "unexpected error: %+v", envelope.Error)

	if data != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
}

// decodeError unwraps an error envelope. The body is closed.
func decodeError(t *testing.T, resp *http.Response) model.APIError {
	t.Helper()
	defer resp.Body.Close()

	var envelope struct {
		Success bool            `json:"success"`
		Error   *model.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)

	return *envelope.Error
}

func login(t *testing.T, env *testEnv, username string, password string) model.LoginResponse {
	t.Helper()

	resp := postForm(t, env, "/api/v1/login", url.Values{
		"username": {username},
		"password": {password},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var data model.LoginResponse
	decodeData(t, resp, &data)
	return data
}
