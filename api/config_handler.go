// Package api — configuration and provider status endpoints.
package api

import (
	"net/http"

	"github.com/Phainsworth/tradegauge-site/internal/config"
)

// RedactedConfig is the configuration view returned by GET /api/v1/config.
// Provider credentials are excluded; use /config/keys for their status.
type RedactedConfig struct {
	Scoring config.ScoringConfig `json:"scoring"`
	Strikes config.StrikesConfig `json:"strikes"`
	Events  config.EventsConfig  `json:"events"`
	Sync    config.SyncConfig    `json:"sync"`
	Advisor struct {
		Model   string `json:"model"`
		Enabled bool   `json:"enabled"`
	} `json:"advisor"`
}

// handleGetConfig returns the current tuning configuration without secrets.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	redacted := RedactedConfig{
		Scoring: s.cfg.Scoring,
		Strikes: s.cfg.Strikes,
		Events:  s.cfg.Events,
		Sync:    s.cfg.Sync,
	}
	redacted.Advisor.Model = s.cfg.Advisor.Model
	redacted.Advisor.Enabled = s.cfg.Advisor.Enabled

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    redacted,
	})
}

// handleGetConfigKeys returns the status of all sensitive API keys.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	keys := config.CheckAPIKeys(s.cfg)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    keys,
	})
}

// handleProviders reports which market data providers are credentialed.
func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	status := map[string]bool{}
	if s.providers != nil {
		status = s.providers()
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    status,
	})
}
