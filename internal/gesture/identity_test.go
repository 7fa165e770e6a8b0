package gesture

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseSign(t *testing.T) {
	tests := []struct {
		label string
		want  Sign
	}{
		{"palm", SignPalm},
		{"swipeUp", SignSwipeUp},
		{"swipe up", SignSwipeUp},
		{"swipe_down", SignSwipeDown},
		{"Swipe-Left", SignSwipeLeft},
		{"swiperight", SignSwipeRight},
		{"down", SignSwipeDown},
		{"zero", SignZero},
		{"3", SignThree},
		{"none", SignNone},
		{"any", SignAny},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseSign(tt.label)
			if err != nil {
				t.Fatalf("ParseSign(%q) error = %v", tt.label, err)
			}
			if got != tt.want {
				t.Errorf("ParseSign(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}

	if _, err := ParseSign("thumbs up"); !errors.Is(err, ErrUnknownSign) {
		t.Errorf("expected ErrUnknownSign for unknown label, got %v", err)
	}
}

func TestParseHand(t *testing.T) {
	if h, err := ParseHand("Left"); err != nil || h != HandLeft {
		t.Errorf("ParseHand(Left) = %v, %v", h, err)
	}
	if h, err := ParseHand("right"); err != nil || h != HandRight {
		t.Errorf("ParseHand(right) = %v, %v", h, err)
	}
	if _, err := ParseHand("middle"); !errors.Is(err, ErrUnknownHand) {
		t.Errorf("expected ErrUnknownHand, got %v", err)
	}
}

func TestIdentity_Key(t *testing.T) {
	id := New(HandRight, SignSwipeUp)
	if id.Key() != "right_swipeUp" {
		t.Errorf("Key() = %q, want %q", id.Key(), "right_swipeUp")
	}
	if Any.Key() != "any_any" {
		t.Errorf("Any.Key() = %q, want %q", Any.Key(), "any_any")
	}

	parsed, err := ParseIdentity("right_swipe_up")
	if err != nil {
		t.Fatalf("ParseIdentity() error = %v", err)
	}
	if parsed != id {
		t.Errorf("ParseIdentity() = %v, want %v", parsed, id)
	}

	if _, err := ParseIdentity("left_any"); err == nil {
		t.Error("expected error for half-wildcard identity")
	}
}

func TestIdentity_ComparesByValue(t *testing.T) {
	counts := map[Identity]int{}
	counts[New(HandLeft, SignPalm)]++
	counts[Identity{Hand: HandLeft, Sign: SignPalm}]++

	if len(counts) != 1 || counts[New(HandLeft, SignPalm)] != 2 {
		t.Errorf("identities with equal fields should share a map key, got %v", counts)
	}
	if New(HandLeft, SignPalm) == New(HandRight, SignPalm) {
		t.Error("identities on different hands should differ")
	}
}

func TestIdentity_Valid(t *testing.T) {
	if !Any.Valid() {
		t.Error("Any should be valid")
	}
	if !New(HandLeft, SignNone).Valid() {
		t.Error("left_none should be valid")
	}
	if New(HandAny, SignPalm).Valid() {
		t.Error("any_palm should be invalid")
	}
	if (Identity{}).Valid() {
		t.Error("zero identity should be invalid")
	}
}

func TestPredictionPair_JSON(t *testing.T) {
	data := []byte(`{"left":{"label":"palm","confidence":97},"right":{"label":"swipe up","confidence":85}}`)

	var pair PredictionPair
	if err := json.Unmarshal(data, &pair); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if err := pair.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	left, right := pair.Identities()
	if left != New(HandLeft, SignPalm) {
		t.Errorf("left = %v", left)
	}
	if right != New(HandRight, SignSwipeUp) {
		t.Errorf("right = %v", right)
	}
	if pair.Left.Confidence != 97 {
		t.Errorf("left confidence = %v, want 97", pair.Left.Confidence)
	}
}

func TestPredictionPair_ValidateMissingHand(t *testing.T) {
	var pair PredictionPair
	if err := json.Unmarshal([]byte(`{"left":{"label":"palm","confidence":97}}`), &pair); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if err := pair.Validate(); !errors.Is(err, ErrUnknownSign) {
		t.Errorf("expected ErrUnknownSign for missing right hand, got %v", err)
	}
}
