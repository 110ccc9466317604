package handler

import (
	"net"
	"net/http"
	"strings"

	"go-auth-service/internal/middleware"
	"go-auth-service/internal/model"
)

func actorFromRequest(r *http.Request) model.AuditActor {
	actor := model.AuditActor{IP: clientIP(r)}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return actor
	}

	actor.UserID = user.ID
	actor.Username = user.Username

	return actor
}

func actorForUser(user model.User, r *http.Request) model.AuditActor {
	return model.AuditActor{
		UserID:   user.ID,
		Username: user.Username,
		IP:       clientIP(r),
	}
}

func clientIP(r *http.Request) string {
	xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}

	xri := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}

	return strings.TrimSpace(r.RemoteAddr)
}
