// Package keyboard emulates a gesture recognizer from held keys. A held key
// maps to one hand's sign, and the Emulator reports the held signs for both
// hands on a fixed heartbeat so count triggers see repeated arrivals.
package keyboard

import (
	"strings"

	"github.com/ayusman/gestureos/internal/gesture"
)

// Keymap maps key names to the identity a held key emulates.
type Keymap map[string]gesture.Identity

// DefaultKeymap returns the standard emulation layout.
func DefaultKeymap() Keymap {
	right := func(s gesture.Sign) gesture.Identity { return gesture.New(gesture.HandRight, s) }

	return Keymap{
		"a":          gesture.New(gesture.HandLeft, gesture.SignPalm),
		"d":          right(gesture.SignPalm),
		"0":          right(gesture.SignZero),
		"1":          right(gesture.SignOne),
		"2":          right(gesture.SignTwo),
		"3":          right(gesture.SignThree),
		"4":          right(gesture.SignFour),
		"arrowup":    right(gesture.SignSwipeUp),
		"arrowdown":  right(gesture.SignSwipeDown),
		"arrowleft":  right(gesture.SignSwipeLeft),
		"arrowright": right(gesture.SignSwipeRight),
		"space":      gesture.New(gesture.HandLeft, gesture.SignNone),
	}
}

// Lookup returns the identity for key. Key names are matched case
// insensitively; " " is accepted for space and "up" for "arrowup".
func (k Keymap) Lookup(key string) (gesture.Identity, bool) {
	id, ok := k[normalizeKey(key)]
	return id, ok
}

func normalizeKey(key string) string {
	if key == " " {
		return "space"
	}
	key = strings.ToLower(strings.TrimSpace(key))
	switch key {
	case "up", "down", "left", "right":
		return "arrow" + key
	}
	return key
}
