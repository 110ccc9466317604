package token

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-auth-service/internal/model"
)

// Claims is the decoded payload of a credential. Timestamps are UTC with
// second precision, so a value survives Encode/Decode unchanged.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// Expired reports whether the claims are expired at the given instant.
// A credential at exactly its expiry instant is already expired.
func (c Claims) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Codec signs and verifies credentials with a process-wide HS256 key.
// Decode checks the signature and structure only; expiry is left to the
// caller so an expired token is distinguishable from a forged one.
type Codec struct {
	secret []byte
	parser *jwt.Parser
}

func NewCodec(secret string) *Codec {
	return &Codec{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

func (c *Codec) Encode(claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", errors.New("token subject is required")
	}
	if !claims.ExpiresAt.After(claims.IssuedAt) {
		return "", errors.New("token expiry must be after issuance")
	}

	payload := jwt.MapClaims{
		"sub": claims.Subject,
		"iat": claims.IssuedAt.Unix(),
		"exp": claims.ExpiresAt.Unix(),
	}
	if claims.ID != "" {
		payload["jti"] = claims.ID
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(c.secret)
}

func (c *Codec) Decode(credential string) (Claims, error) {
	parsed, err := c.parser.Parse(credential, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrTokenMalformed
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, model.ErrTokenMalformed
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, model.ErrTokenMalformed
	}

	subject, _ := claimsMap["sub"].(string)
	if subject == "" {
		return Claims{}, model.ErrTokenMalformed
	}
	issuedAt, ok := numericClaim(claimsMap, "iat")
	if !ok {
		return Claims{}, model.ErrTokenMalformed
	}
	expiresAt, ok := numericClaim(claimsMap, "exp")
	if !ok {
		return Claims{}, model.ErrTokenMalformed
	}

	claims := Claims{
		Subject:   subject,
		IssuedAt:  time.Unix(issuedAt, 0).UTC(),
		ExpiresAt: time.Unix(expiresAt, 0).UTC(),
	}
	claims.ID, _ = claimsMap["jti"].(string)

	return claims, nil
}

func numericClaim(claims jwt.MapClaims, key string) (int64, bool) {
	switch value := claims[key].(type) {
	case float64:
		return int64(value), true
	case json.Number:
		parsed, err := value.Int64()
		return parsed, err == nil
	}
	return 0, false
}
