// Package main provides a keyboard plugin that sends a keystroke when a bound
// gesture fires. It uses AppleScript on macOS and xdotool elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Hand    string          `json:"hand"`
	Sign    string          `json:"sign"`
	Kind    string          `json:"kind"`
	Count   int             `json:"count,omitempty"`
	Config  json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeystrokeParams defines the key to send. It is read from the binding
// config.
type KeystrokeParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

var appleModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

var xdotoolModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"super":   "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	switch req.Action {
	case "keystroke", "shortcut":
		p, err := parseParams(req)
		if err != nil {
			writeResponse(Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)})
			return
		}
		if err := sendKeystroke(p); err != nil {
			writeResponse(Response{Error: fmt.Sprintf("action %s failed for %s: %v", req.Action, req.Gesture, err)})
			return
		}
	default:
		writeResponse(Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	writeResponse(Response{Success: true})
}

func parseParams(req Request) (KeystrokeParams, error) {
	var p KeystrokeParams
	if len(req.Config) > 0 && string(req.Config) != "null" {
		if err := json.Unmarshal(req.Config, &p); err != nil {
			return p, fmt.Errorf("failed to parse params: %w", err)
		}
	}
	if p.Key == "" {
		return p, fmt.Errorf("key is required")
	}
	return p, nil
}

func sendKeystroke(p KeystrokeParams) error {
	if runtime.GOOS == "darwin" {
		return run("osascript", "-e", buildAppleScript(p.Key, p.Modifiers))
	}
	return run("xdotool", "key", buildXdotoolChord(p.Key, p.Modifiers))
}

func buildAppleScript(key string, modifiers []string) string {
	var mods []string
	for _, mod := range modifiers {
		if m, ok := appleModifiers[strings.ToLower(mod)]; ok {
			mods = append(mods, m)
		}
	}

	if len(mods) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`, key, strings.Join(mods, ", "))
}

func buildXdotoolChord(key string, modifiers []string) string {
	parts := make([]string, 0, len(modifiers)+1)
	for _, mod := range modifiers {
		if m, ok := xdotoolModifiers[strings.ToLower(mod)]; ok {
			parts = append(parts, m)
		}
	}
	return strings.Join(append(parts, key), "+")
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
