// Package main provides a system control plugin for volume, brightness and
// media playback. It uses AppleScript on macOS and pactl, brightnessctl and
// playerctl on Linux.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
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

// Options tune an action. Step is the volume or brightness change in percent.
type Options struct {
	Step int `json:"step"`
}

const defaultStep = 10

// command is one external program invocation.
type command []string

// actionBuilders maps action names to the commands for the current platform.
var actionBuilders = map[string]func(goos string, step int) []command{
	"volume-up":        volumeUp,
	"volume-down":      volumeDown,
	"volume-mute":      volumeMute,
	"brightness-up":    brightnessUp,
	"brightness-down":  brightnessDown,
	"media-play-pause": mediaKey("playpause", 100),
	"media-next":       mediaKey("next", 101),
	"media-prev":       mediaKey("previous", 98),
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	commands, err := plan(req, runtime.GOOS)
	if err != nil {
		writeResponse(Response{Error: err.Error()})
		return
	}

	for _, c := range commands {
		if err := run(c); err != nil {
			writeResponse(Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)})
			return
		}
	}

	writeResponse(Response{Success: true})
}

// plan resolves req into the commands to run on goos.
func plan(req Request, goos string) ([]command, error) {
	build, ok := actionBuilders[req.Action]
	if !ok {
		return nil, fmt.Errorf("unknown action: %s", req.Action)
	}

	opts, err := parseOptions(req)
	if err != nil {
		return nil, err
	}

	commands := build(goos, opts.Step)
	if len(commands) == 0 {
		return nil, fmt.Errorf("action %s is not supported on %s", req.Action, goos)
	}
	return commands, nil
}

func parseOptions(req Request) (Options, error) {
	opts := Options{Step: defaultStep}
	if len(req.Config) > 0 && string(req.Config) != "null" {
		if err := json.Unmarshal(req.Config, &opts); err != nil {
			return opts, fmt.Errorf("failed to parse options: %w", err)
		}
	}
	if opts.Step <= 0 || opts.Step > 100 {
		return opts, fmt.Errorf("step must be between 1 and 100, got %d", opts.Step)
	}
	return opts, nil
}

func appleScript(script string) command {
	return command{"osascript", "-e", script}
}

func appleKeyCode(code int) command {
	return appleScript(fmt.Sprintf("tell application \"System Events\"\n\tkey code %d\nend tell", code))
}

func volumeUp(goos string, step int) []command {
	switch goos {
	case "darwin":
		return []command{appleScript(fmt.Sprintf(`set volume output volume ((output volume of (get volume settings)) + %d)`, step))}
	case "linux":
		return []command{{"pactl", "set-sink-volume", "@DEFAULT_SINK@", "+" + strconv.Itoa(step) + "%"}}
	}
	return nil
}

func volumeDown(goos string, step int) []command {
	switch goos {
	case "darwin":
		return []command{appleScript(fmt.Sprintf(`set volume output volume ((output volume of (get volume settings)) - %d)`, step))}
	case "linux":
		return []command{{"pactl", "set-sink-volume", "@DEFAULT_SINK@", "-" + strconv.Itoa(step) + "%"}}
	}
	return nil
}

func volumeMute(goos string, _ int) []command {
	switch goos {
	case "darwin":
		return []command{appleScript(`set volume output muted (not (output muted of (get volume settings)))`)}
	case "linux":
		return []command{{"pactl", "set-sink-mute", "@DEFAULT_SINK@", "toggle"}}
	}
	return nil
}

func brightnessUp(goos string, step int) []command {
	switch goos {
	case "darwin":
		return []command{appleKeyCode(144)}
	case "linux":
		return []command{{"brightnessctl", "set", "+" + strconv.Itoa(step) + "%"}}
	}
	return nil
}

func brightnessDown(goos string, step int) []command {
	switch goos {
	case "darwin":
		return []command{appleKeyCode(145)}
	case "linux":
		return []command{{"brightnessctl", "set", strconv.Itoa(step) + "%-"}}
	}
	return nil
}

// mediaKey sends a media key: a playerctl verb on Linux, a key code on macOS.
func mediaKey(verb string, appleCode int) func(string, int) []command {
	return func(goos string, _ int) []command {
		switch goos {
		case "darwin":
			return []command{appleKeyCode(appleCode)}
		case "linux":
			return []command{{"playerctl", verb}}
		}
		return nil
	}
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}

func run(c command) error {
	output, err := exec.Command(c[0], c[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
