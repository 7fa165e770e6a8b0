package keyboard

import (
	"testing"

	"github.com/ayusman/gestureos/internal/gesture"
)

func TestKeymap_Lookup(t *testing.T) {
	k := DefaultKeymap()

	tests := []struct {
		key  string
		want gesture.Identity
	}{
		{"a", gesture.New(gesture.HandLeft, gesture.SignPalm)},
		{"A", gesture.New(gesture.HandLeft, gesture.SignPalm)},
		{"d", gesture.New(gesture.HandRight, gesture.SignPalm)},
		{"0", gesture.New(gesture.HandRight, gesture.SignZero)},
		{"3", gesture.New(gesture.HandRight, gesture.SignThree)},
		{"ArrowUp", gesture.New(gesture.HandRight, gesture.SignSwipeUp)},
		{"left", gesture.New(gesture.HandRight, gesture.SignSwipeLeft)},
		{" ", gesture.New(gesture.HandLeft, gesture.SignNone)},
		{"space", gesture.New(gesture.HandLeft, gesture.SignNone)},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := k.Lookup(tt.key)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.key)
			}
			if got != tt.want {
				t.Errorf("Lookup(%q) = %s, want %s", tt.key, got, tt.want)
			}
		})
	}

	if _, ok := k.Lookup("z"); ok {
		t.Error("Lookup(z) should not be mapped")
	}
}
