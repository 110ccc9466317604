package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"go-auth-service/internal/model"
	"go-auth-service/internal/service"
)

type accessVerifier interface {
	Verify(ctx context.Context, credential string) (model.User, error)
}

type contextKey string

const userContextKey contextKey = "auth_user"

type AuthMiddleware struct {
	verifier accessVerifier
}

func NewAuthMiddleware(verifier accessVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth resolves the bearer access token to a user and stashes it in
// the request context. Every failure gets the same 401 body; the concrete
// cause only goes to the log.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential, err := service.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			denyUnauthorized(w, r, err)
			return
		}

		user, err := m.verifier.Verify(r.Context(), credential)
		if err != nil {
			denyUnauthorized(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			denyUnauthorized(w, r, model.ErrUnauthorized)
			return
		}

		if !user.IsSuperuser {
			writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func UserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userContextKey).(model.User)
	return user, ok
}

func denyUnauthorized(w http.ResponseWriter, r *http.Request, reason error) {
	slog.Warn("request not authenticated",
		"method", r.Method,
		"path", r.URL.Path,
		"reason", reason,
	)
	writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "could not validate credentials")
}

func writeAuthError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}
