package server

import (
	"encoding/json"
	"net/http"
)

// KeyHandler receives key transitions forwarded from the browser.
type KeyHandler interface {
	KeyDown(key string) bool
	KeyUp(key string) bool
}

type keyEvent struct {
	Key   string `json:"key"`
	State string `json:"state"`
}

type keyResult struct {
	Key    string `json:"key"`
	State  string `json:"state"`
	Mapped bool   `json:"mapped"`
}

// keyboardHandler forwards POST /api/keyboard {"key","state":"down|up"} to
// the keyboard emulator. Mapped is false for keys that hold no gesture.
type keyboardHandler struct {
	keys KeyHandler
}

func (h keyboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var ev keyEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil || ev.Key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "key is required"})
		return
	}

	var mapped bool
	switch ev.State {
	case "down":
		mapped = h.keys.KeyDown(ev.Key)
	case "up":
		mapped = h.keys.KeyUp(ev.Key)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": `state must be "down" or "up"`})
		return
	}

	writeJSON(w, http.StatusOK, keyResult{Key: ev.Key, State: ev.State, Mapped: mapped})
}
