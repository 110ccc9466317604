package model

type HealthCheck struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}
