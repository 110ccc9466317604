package service

import (
	"context"
	"strings"
	"time"

	"go-auth-service/internal/model"
	"go-auth-service/internal/token"
)

// TokenStore tracks outstanding refresh tokens. Claim atomically
// invalidates a token and returns its owner, so first caller wins under
// concurrent rotation.
type TokenStore interface {
	Store(ctx context.Context, credential string, userID string, expiresAt time.Time) error
	Validate(ctx context.Context, credential string) (string, error)
	Claim(ctx context.Context, credential string) (string, error)
	Revoke(ctx context.Context, credential string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	CleanExpired(ctx context.Context) (int64, error)
}

// TokenService issues credential pairs at login and revokes refresh
// credentials at logout.
type TokenService struct {
	issuer *token.Issuer
	store  TokenStore
}

func NewTokenService(issuer *token.Issuer, store TokenStore) *TokenService {
	return &TokenService{issuer: issuer, store: store}
}

// IssuePair mints an access plus refresh credential for the user and
// records the refresh credential as outstanding.
func (s *TokenService) IssuePair(ctx context.Context, user model.User) (model.BackendTokens, error) {
	access, err := s.issuer.IssueAccess(user.Username)
	if err != nil {
		return model.BackendTokens{}, err
	}

	refresh, err := s.issuer.IssueRefresh(user.Username)
	if err != nil {
		return model.BackendTokens{}, err
	}

	if err := s.store.Store(ctx, refresh.Credential, user.ID, refresh.ExpiresAt); err != nil {
		return model.BackendTokens{}, err
	}

	return model.BackendTokens{
		AccessToken:  wireToken(access),
		RefreshToken: wireToken(refresh),
	}, nil
}

// AccessToken mints an access credential alone, for clients that keep no
// refresh state.
func (s *TokenService) AccessToken(ctx context.Context, user model.User) (model.Token, error) {
	access, err := s.issuer.IssueAccess(user.Username)
	if err != nil {
		return model.Token{}, err
	}
	return wireToken(access), nil
}

// Logout revokes the refresh credential carried in the Authorization
// header. Revoking an unknown credential is a no-op.
func (s *TokenService) Logout(ctx context.Context, authorizationHeader string) error {
	credential, err := BearerToken(authorizationHeader)
	if err != nil {
		return err
	}
	return s.store.Revoke(ctx, credential)
}

// LogoutAll revokes every outstanding refresh credential of the user.
func (s *TokenService) LogoutAll(ctx context.Context, userID string) error {
	return s.store.RevokeAllForUser(ctx, userID)
}

// BearerToken extracts the credential from an Authorization header value.
// The missing header, a non-Bearer scheme, and an empty token are distinct
// failures; callers map them all to the same external response.
func BearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", model.ErrAuthHeaderMissing
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", model.ErrAuthSchemeMalformed
	}
	credential := strings.TrimPrefix(header, "Bearer ")
	if credential == "" {
		return "", model.ErrBearerTokenEmpty
	}
	return credential, nil
}

func wireToken(issued token.Issued) model.Token {
	return model.Token{
		AccessToken: issued.Credential,
		TokenType:   model.TokenTypeBearer,
		ExpiresAt:   issued.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
