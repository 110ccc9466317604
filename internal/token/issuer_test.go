package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_IssueAccess(t *testing.T) {
	codec := NewCodec("test-secret")
	fixedNow := time.Date(2026, 8, 21, 10, 30, 0, 500_000_000, time.UTC)
	issuer := NewIssuer(codec, 15*time.Minute, 7*24*time.Hour, WithNow(func() time.Time { return fixedNow }))

	issued, err := issuer.IssueAccess("alice")
	require.NoError(t, err)

	assert.Equal(t, KindAccess, issued.Kind)
	assert.True(t, issued.ExpiresAt.After(fixedNow))

	claims, err := codec.Decode(issued.Credential)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.NotEmpty(t, claims.ID)

	// The clock is truncated to whole seconds before signing, so the
	// decoded timestamps match the issued ones exactly.
	wantIssued := fixedNow.Truncate(time.Second)
	assert.True(t, claims.IssuedAt.Equal(wantIssued))
	assert.True(t, claims.ExpiresAt.Equal(wantIssued.Add(15*time.Minute)))
	assert.True(t, issued.ExpiresAt.Equal(claims.ExpiresAt))
}

func TestIssuer_IssueRefresh(t *testing.T) {
	codec := NewCodec("test-secret")
	fixedNow := time.Date(2026, 8, 21, 10, 30, 0, 0, time.UTC)
	issuer := NewIssuer(codec, 15*time.Minute, 7*24*time.Hour, WithNow(func() time.Time { return fixedNow }))

	issued, err := issuer.IssueRefresh("alice")
	require.NoError(t, err)

	assert.Equal(t, KindRefresh, issued.Kind)
	assert.True(t, issued.ExpiresAt.Equal(fixedNow.Add(7*24*time.Hour)))

	claims, err := codec.Decode(issued.Credential)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.False(t, claims.Expired(fixedNow))
}

func TestIssuer_NormalizesToUTC(t *testing.T) {
	codec := NewCodec("test-secret")
	zone := time.FixedZone("UTC+5", 5*60*60)
	localNow := time.Date(2026, 8, 21, 15, 30, 0, 0, zone)
	issuer := NewIssuer(codec, 15*time.Minute, 7*24*time.Hour, WithNow(func() time.Time { return localNow }))

	issued, err := issuer.IssueAccess("alice")
	require.NoError(t, err)

	claims, err := codec.Decode(issued.Credential)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, claims.IssuedAt.Location())
	assert.True(t, claims.IssuedAt.Equal(localNow))
}

func TestIssuer_FreshTokensDiffer(t *testing.T) {
	codec := NewCodec("test-secret")
	issuer := NewIssuer(codec, 15*time.Minute, 7*24*time.Hour)

	first, err := issuer.IssueAccess("alice")
	require.NoError(t, err)
	second, err := issuer.IssueAccess("alice")
	require.NoError(t, err)

	// Same subject, same instant: the jti nonce still makes each
	// credential unique.
	assert.NotEqual(t, first.Credential, second.Credential)
}
