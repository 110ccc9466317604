package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-auth-service/internal/model"
	"go-auth-service/internal/repository"
	"go-auth-service/internal/token"
)

func TestTokenService_IssuePair(t *testing.T) {
	codec := token.NewCodec("test-secret")
	issuer := token.NewIssuer(codec, 15*time.Minute, 7*24*time.Hour)
	store := repository.NewMemoryTokenStore()
	svc := NewTokenService(issuer, store)

	alice := model.User{ID: "u-1", Username: "alice"}

	pair, err := svc.IssuePair(context.Background(), alice)
	require.NoError(t, err)

	assert.Equal(t, model.TokenTypeBearer, pair.AccessToken.TokenType)
	assert.Equal(t, model.TokenTypeBearer, pair.RefreshToken.TokenType)
	assert.NotEqual(t, pair.AccessToken.AccessToken, pair.RefreshToken.AccessToken)

	// Both expiries are RFC 3339 UTC instants in the future.
	accessExpiry, err := time.Parse(time.RFC3339, pair.AccessToken.ExpiresAt)
	require.NoError(t, err)
	refreshExpiry, err := time.Parse(time.RFC3339, pair.RefreshToken.ExpiresAt)
	require.NoError(t, err)
	assert.True(t, accessExpiry.After(time.Now()))
	assert.True(t, refreshExpiry.After(accessExpiry), "refresh outlives access")

	// The refresh credential is recorded as outstanding, the access
	// credential is not.
	userID, err := store.Validate(context.Background(), pair.RefreshToken.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)

	_, err = store.Validate(context.Background(), pair.AccessToken.AccessToken)
	assert.ErrorIs(t, err, model.ErrTokenNotFound)
}

func TestTokenService_AccessToken(t *testing.T) {
	codec := token.NewCodec("test-secret")
	issuer := token.NewIssuer(codec, 15*time.Minute, 7*24*time.Hour)
	store := repository.NewMemoryTokenStore()
	svc := NewTokenService(issuer, store)

	tok, err := svc.AccessToken(context.Background(), model.User{ID: "u-1", Username: "alice"})
	require.NoError(t, err)

	claims, err := codec.Decode(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
}

func TestTokenService_Logout(t *testing.T) {
	codec := token.NewCodec("test-secret")
	issuer := token.NewIssuer(codec, 15*time.Minute, 7*24*time.Hour)
	store := repository.NewMemoryTokenStore()
	svc := NewTokenService(issuer, store)

	pair, err := svc.IssuePair(context.Background(), model.User{ID: "u-1", Username: "alice"})
	require.NoError(t, err)
	refresh := pair.RefreshToken.AccessToken

	require.NoError(t, svc.Logout(context.Background(), "Bearer "+refresh))

	_, err = store.Validate(context.Background(), refresh)
	assert.ErrorIs(t, err, model.ErrTokenNotFound)

	t.Run("logout without header", func(t *testing.T) {
		err := svc.Logout(context.Background(), "")
		assert.ErrorIs(t, err, model.ErrAuthHeaderMissing)
	})
}

func TestTokenService_LogoutAll(t *testing.T) {
	codec := token.NewCodec("test-secret")
	issuer := token.NewIssuer(codec, 15*time.Minute, 7*24*time.Hour)
	store := repository.NewMemoryTokenStore()
	svc := NewTokenService(issuer, store)

	alice := model.User{ID: "u-1", Username: "alice"}
	first, err := svc.IssuePair(context.Background(), alice)
	require.NoError(t, err)
	second, err := svc.IssuePair(context.Background(), alice)
	require.NoError(t, err)

	require.NoError(t, svc.LogoutAll(context.Background(), "u-1"))

	_, err = store.Validate(context.Background(), first.RefreshToken.AccessToken)
	assert.ErrorIs(t, err, model.ErrTokenNotFound)
	_, err = store.Validate(context.Background(), second.RefreshToken.AccessToken)
	assert.ErrorIs(t, err, model.ErrTokenNotFound)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "missing header", header: "", wantErr: model.ErrAuthHeaderMissing},
		{name: "blank header", header: "   ", wantErr: model.ErrAuthHeaderMissing},
		{name: "wrong scheme", header: "Token abc", wantErr: model.ErrAuthSchemeMalformed},
		{name: "lowercase scheme", header: "bearer abc", wantErr: model.ErrAuthSchemeMalformed},
		{name: "scheme without token", header: "Bearer ", wantErr: model.ErrBearerTokenEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
