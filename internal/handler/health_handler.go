package handler

import (
	"net/http"

	"go-auth-service/internal/config"
	"go-auth-service/internal/model"
)

type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, model.HealthCheck{
		Name:        h.cfg.AppName,
		Version:     h.cfg.AppVersion,
		Description: h.cfg.AppDescription,
	}, nil)
}
