package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-auth-service/internal/model"
)

// UserLookup resolves a credential subject back to a live user.
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
}

// RefreshStore reports whether a refresh credential is still outstanding,
// returning the owning user ID.
type RefreshStore interface {
	Validate(ctx context.Context, credential string) (string, error)
}

// Verifier checks presented credentials: signature and structure first,
// then expiry, then that the subject still resolves to a user. Refresh
// credentials additionally have to be outstanding in the store, so logout
// and rotation revoke them even while their signature is still good.
type Verifier struct {
	codec *Codec
	users UserLookup
	store RefreshStore
	now   func() time.Time
}

type VerifierOption func(*Verifier)

// WithVerifierNow sets the clock function (primarily for testing).
func WithVerifierNow(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.now = now
	}
}

func NewVerifier(codec *Codec, users UserLookup, store RefreshStore, options ...VerifierOption) *Verifier {
	verifier := &Verifier{
		codec: codec,
		users: users,
		store: store,
		now:   time.Now,
	}
	for _, option := range options {
		option(verifier)
	}
	return verifier
}

func (v *Verifier) Verify(ctx context.Context, credential string) (model.User, error) {
	claims, err := v.codec.Decode(credential)
	if err != nil {
		return model.User{}, err
	}
	if claims.Expired(v.now()) {
		return model.User{}, model.ErrTokenExpired
	}

	user, err := v.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.User{}, model.ErrTokenInvalid
		}
		return model.User{}, fmt.Errorf("resolve token subject: %w", err)
	}

	return user, nil
}

func (v *Verifier) VerifyRefresh(ctx context.Context, credential string) (model.User, error) {
	user, err := v.Verify(ctx, credential)
	if err != nil {
		return model.User{}, err
	}

	ownerID, err := v.store.Validate(ctx, credential)
	if err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			return model.User{}, model.ErrTokenInvalid
		}
		return model.User{}, fmt.Errorf("check refresh token: %w", err)
	}
	if ownerID != user.ID {
		return model.User{}, model.ErrTokenInvalid
	}

	return user, nil
}
