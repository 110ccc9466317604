package token

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Issued is a freshly signed credential together with its expiry instant.
type Issued struct {
	Credential string
	Kind       Kind
	ExpiresAt  time.Time
}

// Issuer mints access and refresh credentials. Access tokens live on a
// minutes scale, refresh tokens on a days scale; both are stamped in UTC
// truncated to whole seconds.
type Issuer struct {
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type IssuerOption func(*Issuer)

// WithNow sets the clock function (primarily for testing).
func WithNow(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.now = now
	}
}

func NewIssuer(codec *Codec, accessTTL, refreshTTL time.Duration, options ...IssuerOption) *Issuer {
	issuer := &Issuer{
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, option := range options {
		option(issuer)
	}
	return issuer
}

func (i *Issuer) IssueAccess(subject string) (Issued, error) {
	return i.issue(subject, KindAccess, i.accessTTL)
}

func (i *Issuer) IssueRefresh(subject string) (Issued, error) {
	return i.issue(subject, KindRefresh, i.refreshTTL)
}

func (i *Issuer) issue(subject string, kind Kind, ttl time.Duration) (Issued, error) {
	now := i.now().UTC().Truncate(time.Second)

	credential, err := i.codec.Encode(Claims{
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
		ID:        uuid.NewString(),
	})
	if err != nil {
		return Issued{}, fmt.Errorf("sign %s token: %w", kind, err)
	}

	return Issued{Credential: credential, Kind: kind, ExpiresAt: now.Add(ttl)}, nil
}
