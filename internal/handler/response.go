package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-auth-service/internal/model"
	"go-auth-service/pkg/apierror"
)

// unauthorizedClass collects every failure that must stay externally
// indistinguishable. The concrete sentinel is logged, never returned.
var unauthorizedClass = []error{
	model.ErrInvalidCredentials,
	model.ErrAuthHeaderMissing,
	model.ErrAuthSchemeMalformed,
	model.ErrBearerTokenEmpty,
	model.ErrTokenMalformed,
	model.ErrTokenExpired,
	model.ErrTokenInvalid,
	model.ErrTokenNotFound,
	model.ErrUnauthorized,
}

func isUnauthorized(err error) bool {
	for _, sentinel := range unauthorizedClass {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if isUnauthorized(err) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "could not validate credentials"
		slog.Warn("authentication failed", "reason", err)
	} else if errors.Is(err, model.ErrForbidden) {
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "insufficient permissions"
	} else if errors.Is(err, model.ErrUserNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "User not found"
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
	} else {
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}
