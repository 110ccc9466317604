package model

const TokenTypeBearer = "bearer"

// Token is the wire shape for a single issued credential. ExpiresAt is
// RFC 3339 UTC, or empty when the credential was echoed back without being
// reissued.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
}

type BackendTokens struct {
	AccessToken  Token `json:"access_token"`
	RefreshToken Token `json:"refresh_token"`
}

type LoginResponse struct {
	User          UserDetails   `json:"user"`
	BackendTokens BackendTokens `json:"backend_tokens"`
}
