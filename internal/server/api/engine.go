package api

import (
	"encoding/json"
	"net/http"
)

// Toggle switches action execution on and off.
type Toggle interface {
	IsEnabled() bool
	SetEnabled(enabled bool) error
}

// EngineHandler exposes the enabled state of action execution.
type EngineHandler struct {
	toggle Toggle
}

// NewEngineHandler creates an EngineHandler for t.
func NewEngineHandler(t Toggle) *EngineHandler {
	return &EngineHandler{toggle: t}
}

type engineState struct {
	Enabled bool `json:"enabled"`
}

type updateEngineRequest struct {
	Enabled *bool `json:"enabled"`
}

// ServeHTTP handles GET and PUT /api/engine.
func (h *EngineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, engineState{Enabled: h.toggle.IsEnabled()})
	case http.MethodPut:
		var req updateEngineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		if err := h.toggle.SetEnabled(*req.Enabled); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save engine state")
			return
		}
		writeJSON(w, http.StatusOK, engineState{Enabled: h.toggle.IsEnabled()})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
