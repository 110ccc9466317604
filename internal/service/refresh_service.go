package service

import (
	"context"
	"errors"

	"go-auth-service/internal/model"
	"go-auth-service/internal/token"
)

// RefreshService exchanges a refresh credential for a fresh access token.
// The refresh credential travels in the Authorization header; every way
// the exchange can fail surfaces as the single unauthorized class, while
// the internal reason stays distinct for logging.
type RefreshService struct {
	verifier *token.Verifier
	issuer   *token.Issuer
	store    TokenStore
	rotate   bool
}

func NewRefreshService(verifier *token.Verifier, issuer *token.Issuer, store TokenStore, rotate bool) *RefreshService {
	return &RefreshService{verifier: verifier, issuer: issuer, store: store, rotate: rotate}
}

// Refresh walks the header through extraction, verification, and
// reissuance. Without rotation the presented refresh credential is echoed
// back with an empty expiry, meaning "not reissued this cycle". With
// rotation the credential is atomically claimed first, so of two
// concurrent calls with the same token exactly one succeeds.
//
// The verified owner is returned alongside the tokens once verification
// passes, so callers still know who raced and lost a rotation claim.
func (s *RefreshService) Refresh(ctx context.Context, authorizationHeader string) (model.BackendTokens, model.User, error) {
	credential, err := BearerToken(authorizationHeader)
	if err != nil {
		return model.BackendTokens{}, model.User{}, err
	}

	user, err := s.verifier.VerifyRefresh(ctx, credential)
	if err != nil {
		return model.BackendTokens{}, model.User{}, err
	}

	if s.rotate {
		if _, err := s.store.Claim(ctx, credential); err != nil {
			if errors.Is(err, model.ErrTokenNotFound) {
				return model.BackendTokens{}, user, model.ErrTokenInvalid
			}
			return model.BackendTokens{}, user, err
		}
	}

	access, err := s.issuer.IssueAccess(user.Username)
	if err != nil {
		return model.BackendTokens{}, user, err
	}

	refreshToken := model.Token{
		AccessToken: credential,
		TokenType:   model.TokenTypeBearer,
		ExpiresAt:   "",
	}
	if s.rotate {
		rotated, err := s.issuer.IssueRefresh(user.Username)
		if err != nil {
			return model.BackendTokens{}, user, err
		}
		if err := s.store.Store(ctx, rotated.Credential, user.ID, rotated.ExpiresAt); err != nil {
			return model.BackendTokens{}, user, err
		}
		refreshToken = wireToken(rotated)
	}

	return model.BackendTokens{
		AccessToken:  wireToken(access),
		RefreshToken: refreshToken,
	}, user, nil
}
