package main

import (
	"encoding/json"
	"testing"
)

func TestParseParams(t *testing.T) {
	req := Request{
		Action: "shortcut",
		Config: json.RawMessage(`{"key":"t","modifiers":["cmd"]}`),
	}

	p, err := parseParams(req)
	if err != nil {
		t.Fatalf("parseParams() error = %v", err)
	}
	if p.Key != "t" {
		t.Errorf("Key = %q, want t", p.Key)
	}
	if len(p.Modifiers) != 1 || p.Modifiers[0] != "cmd" {
		t.Errorf("Modifiers = %v, want [cmd]", p.Modifiers)
	}

	if _, err := parseParams(Request{Config: json.RawMessage(`{}`)}); err == nil {
		t.Error("parseParams() without key should fail")
	}
	if _, err := parseParams(Request{}); err == nil {
		t.Error("parseParams() without config should fail")
	}
}

func TestBuildAppleScript(t *testing.T) {
	got := buildAppleScript("c", []string{"Command", "bogus"})
	want := `tell application "System Events" to keystroke "c" using {command down}`
	if got != want {
		t.Errorf("buildAppleScript() = %q, want %q", got, want)
	}

	got = buildAppleScript("x", nil)
	want = `tell application "System Events" to keystroke "x"`
	if got != want {
		t.Errorf("buildAppleScript() = %q, want %q", got, want)
	}
}

func TestBuildXdotoolChord(t *testing.T) {
	if got := buildXdotoolChord("Tab", []string{"ctrl", "shift"}); got != "ctrl+shift+Tab" {
		t.Errorf("buildXdotoolChord() = %q", got)
	}
	if got := buildXdotoolChord("space", nil); got != "space" {
		t.Errorf("buildXdotoolChord() = %q", got)
	}
}
