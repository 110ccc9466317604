package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-auth-service/internal/event"
	"go-auth-service/internal/middleware"
	"go-auth-service/internal/model"
	"go-auth-service/internal/service"
	"go-auth-service/pkg/apierror"
)

type AuthHandler struct {
	auth    *service.AuthService
	tokens  *service.TokenService
	refresh *service.RefreshService
	bus     event.Bus
}

func NewAuthHandler(auth *service.AuthService, tokens *service.TokenService, refresh *service.RefreshService, bus event.Bus) *AuthHandler {
	return &AuthHandler{auth: auth, tokens: tokens, refresh: refresh, bus: bus}
}

// Login authenticates form credentials and answers with the user's public
// details plus a full token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	username, password, err := credentialsFromForm(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Authenticate(r.Context(), username, password)
	if err != nil {
		h.publish(event.TypeLoginDenied, model.AuditActor{Username: username, IP: clientIP(r)}, err)
		writeError(w, err)
		return
	}

	pair, err := h.tokens.IssuePair(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(event.TypeLogin, actorForUser(user, r), nil)
	writeSuccess(w, http.StatusOK, model.LoginResponse{
		User:          user.Details(),
		BackendTokens: pair,
	}, nil)
}

// Token is the bare credentials-for-access-token exchange. No refresh
// credential is minted, so nothing is written to the store.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	username, password, err := credentialsFromForm(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Authenticate(r.Context(), username, password)
	if err != nil {
		h.publish(event.TypeLoginDenied, model.AuditActor{Username: username, IP: clientIP(r)}, err)
		writeError(w, err)
		return
	}

	accessToken, err := h.tokens.AccessToken(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(event.TypeLogin, actorForUser(user, r), nil)
	writeSuccess(w, http.StatusOK, accessToken, nil)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	tokens, owner, err := h.refresh.Refresh(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		h.publish(event.TypeRefreshDenied, actorForUser(owner, r), err)
		writeError(w, err)
		return
	}

	h.publish(event.TypeTokenRefreshed, actorForUser(owner, r), nil)
	writeSuccess(w, http.StatusOK, tokens, nil)
}

// Logout revokes the presented refresh credential. Revoking a credential
// the store no longer holds still succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.Logout(r.Context(), r.Header.Get("Authorization")); err != nil {
		writeError(w, err)
		return
	}

	h.publish(event.TypeLogout, actorFromRequest(r), nil)
	writeSuccess(w, http.StatusOK, map[string]any{"logged_out": true}, nil)
}

// LogoutAll revokes every outstanding refresh credential of the
// authenticated user.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	if err := h.tokens.LogoutAll(r.Context(), user.ID); err != nil {
		writeError(w, err)
		return
	}

	h.publish(event.TypeLogout, actorForUser(user, r), nil)
	writeSuccess(w, http.StatusOK, map[string]any{"logged_out": true}, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	writeSuccess(w, http.StatusOK, user.Details(), nil)
}

func credentialsFromForm(r *http.Request) (string, string, error) {
	if err := r.ParseForm(); err != nil {
		return "", "", apierror.New("BAD_REQUEST", "invalid form body", "", http.StatusBadRequest)
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	if username == "" {
		return "", "", apierror.New("BAD_REQUEST", "username is required", "username", http.StatusBadRequest)
	}
	if password == "" {
		return "", "", apierror.New("BAD_REQUEST", "password is required", "password", http.StatusBadRequest)
	}

	return username, password, nil
}

func (h *AuthHandler) publish(eventType event.Type, actor model.AuditActor, cause error) {
	if h.bus == nil {
		return
	}

	payload := event.AuthPayload{
		UserID:   actor.UserID,
		Username: actor.Username,
		IP:       actor.IP,
	}
	if cause != nil {
		payload.Reason = cause.Error()
	}

	h.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ActorID:   actor.UserID,
	})
}
