// Package plugin discovers and runs action plugins. A plugin is a directory
// holding a plugin.json manifest and an executable that reads one Request
// as JSON on stdin and writes one Response as JSON on stdout.
package plugin

import "encoding/json"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request is sent to a plugin when a bound gesture fires.
type Request struct {
	Action string `json:"action"`
	// Gesture is the identity key, e.g. "right_swipeUp".
	Gesture string          `json:"gesture"`
	Hand    string          `json:"hand"`
	Sign    string          `json:"sign"`
	Kind    string          `json:"kind"`
	Count   int             `json:"count,omitempty"`
	Config  json.RawMessage `json:"config"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// HasAction reports whether the manifest declares action.
func (p *Plugin) HasAction(action string) bool {
	for _, a := range p.Manifest.Actions {
		if a == action {
			return true
		}
	}
	return false
}
