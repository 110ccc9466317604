package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-auth-service/internal/model"
)

type stubUsers struct {
	users map[string]model.User
	err   error
}

func (s *stubUsers) FindByUsername(ctx context.Context, username string) (model.User, error) {
	if s.err != nil {
		return model.User{}, s.err
	}
	user, ok := s.users[username]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

type stubRefreshStore struct {
	owners map[string]string
}

func (s *stubRefreshStore) Validate(ctx context.Context, credential string) (string, error) {
	owner, ok := s.owners[credential]
	if !ok {
		return "", model.ErrTokenNotFound
	}
	return owner, nil
}

func TestVerifier_Verify(t *testing.T) {
	codec := NewCodec("test-secret")
	alice := model.User{ID: "u-1", Username: "alice", Email: "alice@example.com"}
	users := &stubUsers{users: map[string]model.User{"alice": alice}}
	issuer := NewIssuer(codec, 15*time.Minute, 7*24*time.Hour)

	t.Run("valid credential resolves the user", func(t *testing.T) {
		verifier := NewVerifier(codec, users, &stubRefreshStore{})
		issued, err := issuer.IssueAccess("alice")
		require.NoError(t, err)

		user, err := verifier.Verify(context.Background(), issued.Credential)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, user.ID)
	})

	t.Run("malformed credential", func(t *testing.T) {
		verifier := NewVerifier(codec, users, &stubRefreshStore{})

		_, err := verifier.Verify(context.Background(), "not-a-token")
		assert.ErrorIs(t, err, model.ErrTokenMalformed)
	})

	t.Run("expired credential", func(t *testing.T) {
		issued, err := issuer.IssueAccess("alice")
		require.NoError(t, err)

		future := time.Now().Add(16 * time.Minute)
		verifier := NewVerifier(codec, users, &stubRefreshStore{},
			WithVerifierNow(func() time.Time { return future }))

		_, err = verifier.Verify(context.Background(), issued.Credential)
		assert.ErrorIs(t, err, model.ErrTokenExpired)
	})

	t.Run("subject no longer resolves", func(t *testing.T) {
		verifier := NewVerifier(codec, users, &stubRefreshStore{})
		issued, err := issuer.IssueAccess("deleted-user")
		require.NoError(t, err)

		_, err = verifier.Verify(context.Background(), issued.Credential)
		assert.ErrorIs(t, err, model.ErrTokenInvalid)
	})

	t.Run("lookup failure is not collapsed into token errors", func(t *testing.T) {
		broken := &stubUsers{err: errors.New("connection refused")}
		verifier := NewVerifier(codec, broken, &stubRefreshStore{})
		issued, err := issuer.IssueAccess("alice")
		require.NoError(t, err)

		_, err = verifier.Verify(context.Background(), issued.Credential)
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrTokenInvalid)
		assert.NotErrorIs(t, err, model.ErrTokenMalformed)
	})
}

func TestVerifier_VerifyRefresh(t *testing.T) {
	codec := NewCodec("test-secret")
	alice := model.User{ID: "u-1", Username: "alice"}
	users := &stubUsers{users: map[string]model.User{"alice": alice}}
	issuer := NewIssuer(codec, 15*time.Minute, 7*24*time.Hour)

	issued, err := issuer.IssueRefresh("alice")
	require.NoError(t, err)

	t.Run("outstanding credential passes", func(t *testing.T) {
		store := &stubRefreshStore{owners: map[string]string{issued.Credential: "u-1"}}
		verifier := NewVerifier(codec, users, store)

		user, err := verifier.VerifyRefresh(context.Background(), issued.Credential)
		require.NoError(t, err)
		assert.Equal(t, "u-1", user.ID)
	})

	t.Run("well signed but not in the store", func(t *testing.T) {
		verifier := NewVerifier(codec, users, &stubRefreshStore{})

		_, err := verifier.VerifyRefresh(context.Background(), issued.Credential)
		assert.ErrorIs(t, err, model.ErrTokenInvalid)
	})

	t.Run("owner mismatch", func(t *testing.T) {
		store := &stubRefreshStore{owners: map[string]string{issued.Credential: "someone-else"}}
		verifier := NewVerifier(codec, users, store)

		_, err := verifier.VerifyRefresh(context.Background(), issued.Credential)
		assert.ErrorIs(t, err, model.ErrTokenInvalid)
	})
}
