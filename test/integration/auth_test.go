//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-auth-service/internal/model"
)

func TestLoginIssuesSessionTokens(t *testing.T) {
	env := newTestServer(t, false)

	session := login(t, env, "admin", "admin123")

	assert.Equal(t, "admin", session.User.Username)
	assert.Equal(t, "admin@example.com", session.User.Email)

	access := session.BackendTokens.AccessToken
	refresh := session.BackendTokens.RefreshToken
	assert.Equal(t, model.TokenTypeBearer, access.TokenType)
	assert.Equal(t, model.TokenTypeBearer, refresh.TokenType)
	assert.NotEmpty(t, access.AccessToken)
	assert.NotEmpty(t, refresh.AccessToken)
	assert.NotEqual(t, access.AccessToken, refresh.AccessToken)

	accessExpiry, err := time.Parse(time.RFC3339, access.ExpiresAt)
	require.NoError(t, err)
	refreshExpiry, err := time.Parse(time.RFC3339, refresh.ExpiresAt)
	require.NoError(t, err)

	// Expiries are whole seconds and track the configured lifetimes.
	assert.Zero(t, accessExpiry.Nanosecond())
	assert.Zero(t, refreshExpiry.Nanosecond())
	assert.InDelta(t, (15 * time.Minute).Seconds(), time.Until(accessExpiry).Seconds(), 60)
	assert.InDelta(t, (7 * 24 * time.Hour).Seconds(), time.Until(refreshExpiry).Seconds(), 60)
}

func TestLoginRejectionsAreUniform(t *testing.T) {
	env := newTestServer(t, false)

	wrongPassword := postForm(t, env, "/api/v1/login", url.Values{
		"username": {"admin"},
		"password": {"not-the-password"},
	})
	require.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	wrongPasswordErr := decodeError(t, wrongPassword)

	unknownUser := postForm(t, env, "/api/v1/login", url.Values{
		"username": {"nobody"},
		"password": {"whatever"},
	})
	require.Equal(t, http.StatusUnauthorized, unknownUser.StatusCode)
	unknownUserErr := decodeError(t, unknownUser)

	// A caller cannot tell a bad password from a missing account.
	assert.Equal(t, "UNAUTHORIZED", wrongPasswordErr.Code)
	assert.Equal(t, "could not validate credentials", wrongPasswordErr.Message)
	assert.Equal(t, wrongPasswordErr, unknownUserErr)

	missingPassword := postForm(t, env, "/api/v1/login", url.Values{
		"username": {"admin"},
	})
	require.Equal(t, http.StatusBadRequest, missingPassword.StatusCode)
	missingPasswordErr := decodeError(t, missingPassword)
	assert.Equal(t, "BAD_REQUEST", missingPasswordErr.Code)
}

func TestMeRequiresValidAccessToken(t *testing.T) {
	env := newTestServer(t, false)
	session := login(t, env, "admin", "admin123")

	denied := map[string]string{
		"no header":       "",
		"malformed token": "not-a-jwt",
	}
	for name, bearer := range denied {
		t.Run(name, func(t *testing.T) {
			resp := doBearer(t, env, http.MethodGet, "/api/v1/me", bearer)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			apiErr := decodeError(t, resp)
			assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
			assert.Equal(t, "could not validate credentials", apiErr.Message)
		})
	}

	resp := doBearer(t, env, http.MethodGet, "/api/v1/me", session.BackendTokens.AccessToken.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me model.UserDetails
	decodeData(t, resp, &me)
	assert.Equal(t, "admin", me.Username)
}

func TestRefreshWithoutRotationEchoesCredential(t *testing.T) {
	env := newTestServer(t, false)
	session := login(t, env, "admin", "admin123")
	refreshCredential := session.BackendTokens.RefreshToken.AccessToken

	resp := doBearer(t, env, http.MethodPost, "/api/v1/refresh", refreshCredential)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var refreshed model.BackendTokens
	decodeData(t, resp, &refreshed)

	assert.NotEmpty(t, refreshed.AccessToken.AccessToken)
	assert.NotEmpty(t, refreshed.AccessToken.ExpiresAt)
	assert.Equal(t, refreshCredential, refreshed.RefreshToken.AccessToken)
	assert.Empty(t, refreshed.RefreshToken.ExpiresAt)

	// The echoed credential stays live, so a second refresh succeeds.
	again := doBearer(t, env, http.MethodPost, "/api/v1/refresh", refreshCredential)
	require.Equal(t, http.StatusOK, again.StatusCode)
	decodeData(t, again, nil)

	meResp := doBearer(t, env, http.MethodGet, "/api/v1/me", refreshed.AccessToken.AccessToken)
	require.Equal(t, http.StatusOK, meResp.StatusCode)
	decodeData(t, meResp, nil)
}

func TestRefreshWithRotationRetiresOldCredential(t *testing.T) {
	env := newTestServer(t, true)
	session := login(t, env, "admin", "admin123")
	oldCredential := session.BackendTokens.RefreshToken.AccessToken

	resp := doBearer(t, env, http.MethodPost, "/api/v1/refresh", oldCredential)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rotated model.BackendTokens
	decodeData(t, resp, &rotated)

	newCredential := rotated.RefreshToken.AccessToken
	assert.NotEqual(t, oldCredential, newCredential)
	assert.NotEmpty(t, rotated.RefreshToken.ExpiresAt)

	replay := doBearer(t, env, http.MethodPost, "/api/v1/refresh", oldCredential)
	require.Equal(t, http.StatusUnauthorized, replay.StatusCode)
	apiErr := decodeError(t, replay)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)

	next := doBearer(t, env, http.MethodPost, "/api/v1/refresh", newCredential)
	require.Equal(t, http.StatusOK, next.StatusCode)
	decodeData(t, next, nil)
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newTestServer(t, false)
	session := login(t, env, "admin", "admin123")
	refreshCredential := session.BackendTokens.RefreshToken.AccessToken

	resp := doBearer(t, env, http.MethodPost, "/api/v1/logout", refreshCredential)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]bool
	decodeData(t, resp, &result)
	assert.True(t, result["logged_out"])

	refreshResp := doBearer(t, env, http.MethodPost, "/api/v1/refresh", refreshCredential)
	require.Equal(t, http.StatusUnauthorized, refreshResp.StatusCode)
	refreshResp.Body.Close()

	// Logging out an already-revoked credential is a no-op, not an error.
	again := doBearer(t, env, http.MethodPost, "/api/v1/logout", refreshCredential)
	require.Equal(t, http.StatusOK, again.StatusCode)
	decodeData(t, again, nil)
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	env := newTestServer(t, false)
	first := login(t, env, "admin", "admin123")
	second := login(t, env, "admin", "admin123")

	resp := doBearer(t, env, http.MethodPost, "/api/v1/logout-all", first.BackendTokens.AccessToken.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeData(t, resp, nil)

	for _, credential := range []string{
		first.BackendTokens.RefreshToken.AccessToken,
		second.BackendTokens.RefreshToken.AccessToken,
	} {
		refreshResp := doBearer(t, env, http.MethodPost, "/api/v1/refresh", credential)
		require.Equal(t, http.StatusUnauthorized, refreshResp.StatusCode)
		refreshResp.Body.Close()
	}
}

func TestTokenEndpointGrantsAccessOnly(t *testing.T) {
	env := newTestServer(t, false)

	resp := postForm(t, env, "/api/v1/token", url.Values{
		"username": {"admin"},
		"password": {"admin123"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var grant model.Token
	decodeData(t, resp, &grant)
	assert.Equal(t, model.TokenTypeBearer, grant.TokenType)
	assert.NotEmpty(t, grant.ExpiresAt)

	meResp := doBearer(t, env, http.MethodGet, "/api/v1/me", grant.AccessToken)
	require.Equal(t, http.StatusOK, meResp.StatusCode)
	decodeData(t, meResp, nil)

	// Nothing was persisted for this grant, so it cannot act as a
	// refresh credential.
	refreshResp := doBearer(t, env, http.MethodPost, "/api/v1/refresh", grant.AccessToken)
	require.Equal(t, http.StatusUnauthorized, refreshResp.StatusCode)
	refreshResp.Body.Close()
}

func TestAuditTrailVisibleToSuperuserOnly(t *testing.T) {
	env := newTestServer(t, false)

	hash, err := bcrypt.GenerateFromPassword([]byte("viewer-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, env.users.Create(context.Background(), model.User{
		ID:           uuid.NewString(),
		Username:     "viewer",
		Email:        "viewer@example.com",
		Name:         "Viewer",
		PasswordHash: string(hash),
		IsSuperuser:  false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))

	adminSession := login(t, env, "admin", "admin123")
	viewerSession := login(t, env, "viewer", "viewer-pass")

	deniedLogin := postForm(t, env, "/api/v1/login", url.Values{
		"username": {"admin"},
		"password": {"wrong"},
	})
	require.Equal(t, http.StatusUnauthorized, deniedLogin.StatusCode)
	deniedLogin.Body.Close()

	// Drain the consumer so every published event reaches the sink.
	env.audit.Stop()

	resp := doBearer(t, env, http.MethodGet, "/api/v1/audit", adminSession.BackendTokens.AccessToken.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list model.AuditListData
	decodeData(t, resp, &list)

	actions := make(map[string]int)
	for _, entry := range list.Items {
		actions[entry.Action]++
	}
	assert.GreaterOrEqual(t, actions["auth.login"], 2)
	assert.GreaterOrEqual(t, actions["auth.login_denied"], 1)

	filtered := doBearer(t, env, http.MethodGet, "/api/v1/audit?action=auth.login_denied&status=denied&page=1&limit=20", adminSession.BackendTokens.AccessToken.AccessToken)
	require.Equal(t, http.StatusOK, filtered.StatusCode)

	var filteredBody struct {
		Success bool                `json:"success"`
		Data    model.AuditListData `json:"data"`
		Meta    model.Meta          `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(filtered.Body).Decode(&filteredBody))
	filtered.Body.Close()
	require.True(t, filteredBody.Success)
	assert.GreaterOrEqual(t, filteredBody.Meta.Total, 1)
	require.NotEmpty(t, filteredBody.Data.Items)
	for _, entry := range filteredBody.Data.Items {
		assert.Equal(t, "auth.login_denied", entry.Action)
		assert.Equal(t, "denied", entry.Status)
	}

	forbidden := doBearer(t, env, http.MethodGet, "/api/v1/audit", viewerSession.BackendTokens.AccessToken.AccessToken)
	require.Equal(t, http.StatusForbidden, forbidden.StatusCode)
	apiErr := decodeError(t, forbidden)
	assert.Equal(t, "FORBIDDEN", apiErr.Code)

	unauthenticated := doBearer(t, env, http.MethodGet, "/api/v1/audit", "")
	require.Equal(t, http.StatusUnauthorized, unauthenticated.StatusCode)
	unauthenticated.Body.Close()
}

func TestHealthReportsServiceIdentity(t *testing.T) {
	env := newTestServer(t, false)

	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health model.HealthCheck
	decodeData(t, resp, &health)
	assert.Equal(t, "auth-service", health.Name)
	assert.Equal(t, "test", health.Version)
}
