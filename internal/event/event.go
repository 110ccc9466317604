package event

type Type string

const (
	TypeLogin          Type = "auth.login"
	TypeLoginDenied    Type = "auth.login_denied"
	TypeTokenRefreshed Type = "auth.token_refreshed"
	TypeRefreshDenied  Type = "auth.refresh_denied"
	TypeLogout         Type = "auth.logout"
)

// AuthPayload describes the authentication attempt behind an event. Reason
// carries the internal failure cause on denied events; it never reaches
// API responses.
type AuthPayload struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	IP       string `json:"ip,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
	ActorID   string      `json:"actor_id,omitempty"` // Who triggered the event
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
