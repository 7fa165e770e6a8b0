// Package gesture defines the value types that flow through the dispatch engine:
// hands, signs, gesture identities, recognizer predictions, and the bounded
// history structures used to compute rolling gesture frequency.
package gesture

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownHand is returned when a hand name cannot be parsed.
	ErrUnknownHand = errors.New("unknown hand")
	// ErrUnknownSign is returned when a sign label cannot be parsed.
	ErrUnknownSign = errors.New("unknown sign")
)

// Hand identifies which tracked hand a gesture belongs to.
type Hand uint8

const (
	HandLeft Hand = iota + 1
	HandRight
	// HandAny is the wildcard hand. Real input never produces it.
	HandAny
)

// Hands lists the hands that real input can produce, in dispatch order.
var Hands = []Hand{HandLeft, HandRight}

var handNames = map[Hand]string{
	HandLeft:  "left",
	HandRight: "right",
	HandAny:   "any",
}

// String returns the canonical lowercase name of the hand.
func (h Hand) String() string {
	if name, ok := handNames[h]; ok {
		return name
	}
	return fmt.Sprintf("hand(%d)", uint8(h))
}

// Valid reports whether h is one of the defined hands.
func (h Hand) Valid() bool {
	_, ok := handNames[h]
	return ok
}

// ParseHand parses a hand name case-insensitively.
func ParseHand(s string) (Hand, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return HandLeft, nil
	case "right", "r":
		return HandRight, nil
	case "any", "*":
		return HandAny, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownHand, s)
}

// MarshalText implements encoding.TextMarshaler.
func (h Hand) MarshalText() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHand, uint8(h))
	}
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hand) UnmarshalText(text []byte) error {
	parsed, err := ParseHand(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Sign is a classified static or dynamic hand pose.
type Sign uint8

const (
	SignNone Sign = iota + 1
	SignPalm
	SignSwipeUp
	SignSwipeDown
	SignSwipeLeft
	SignSwipeRight
	SignZero
	SignOne
	SignTwo
	SignThree
	SignFour
	// SignAny is the wildcard sign. Real input never produces it.
	SignAny
)

var signNames = map[Sign]string{
	SignNone:       "none",
	SignPalm:       "palm",
	SignSwipeUp:    "swipeUp",
	SignSwipeDown:  "swipeDown",
	SignSwipeLeft:  "swipeLeft",
	SignSwipeRight: "swipeRight",
	SignZero:       "zero",
	SignOne:        "one",
	SignTwo:        "two",
	SignThree:      "three",
	SignFour:       "four",
	SignAny:        "any",
}

// signAliases maps a folded label (lowercase, separators removed) to its sign.
// "down" is the label the legacy recognizer model emits for a downward swipe.
var signAliases = map[string]Sign{
	"down": SignSwipeDown,
	"0":    SignZero,
	"1":    SignOne,
	"2":    SignTwo,
	"3":    SignThree,
	"4":    SignFour,
	"*":    SignAny,
}

func init() {
	for sign, name := range signNames {
		signAliases[foldLabel(name)] = sign
	}
}

// foldLabel lowercases a label and strips the separators used by the various
// label spellings ("swipe up", "swipe_up", "swipe-up", "swipeUp").
func foldLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

// String returns the canonical camelCase label of the sign.
func (s Sign) String() string {
	if name, ok := signNames[s]; ok {
		return name
	}
	return fmt.Sprintf("sign(%d)", uint8(s))
}

// Valid reports whether s is one of the defined signs.
func (s Sign) Valid() bool {
	_, ok := signNames[s]
	return ok
}

// ParseSign parses a recognizer or user supplied label.
func ParseSign(label string) (Sign, error) {
	if sign, ok := signAliases[foldLabel(label)]; ok {
		return sign, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSign, label)
}

// MarshalText implements encoding.TextMarshaler.
func (s Sign) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSign, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Sign) UnmarshalText(text []byte) error {
	parsed, err := ParseSign(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Identity is the (hand, sign) pair used as the dispatch key.
// Identities compare by value and can be used directly as map keys.
type Identity struct {
	Hand Hand
	Sign Sign
}

// Any is the universal wildcard identity.
var Any = Identity{Hand: HandAny, Sign: SignAny}

// New returns the identity for a hand and sign.
func New(hand Hand, sign Sign) Identity {
	return Identity{Hand: hand, Sign: sign}
}

// ParseIdentity parses the canonical key form "{hand}_{sign}".
func ParseIdentity(key string) (Identity, error) {
	hand, sign, ok := strings.Cut(key, "_")
	if !ok {
		return Identity{}, fmt.Errorf("%w: %q", ErrUnknownHand, key)
	}
	h, err := ParseHand(hand)
	if err != nil {
		return Identity{}, err
	}
	s, err := ParseSign(sign)
	if err != nil {
		return Identity{}, err
	}
	id := Identity{Hand: h, Sign: s}
	if (h == HandAny) != (s == SignAny) {
		return Identity{}, fmt.Errorf("%w: wildcard must cover hand and sign: %q", ErrUnknownSign, key)
	}
	return id, nil
}

// Key returns the canonical string form "{hand}_{sign}".
func (id Identity) Key() string {
	return id.Hand.String() + "_" + id.Sign.String()
}

// String implements fmt.Stringer.
func (id Identity) String() string {
	return id.Key()
}

// IsAny reports whether id is the wildcard identity.
func (id Identity) IsAny() bool {
	return id == Any
}

// Valid reports whether id is either the wildcard or a concrete identity made
// of a real hand and a real sign.
func (id Identity) Valid() bool {
	if id.IsAny() {
		return true
	}
	return (id.Hand == HandLeft || id.Hand == HandRight) &&
		id.Sign.Valid() && id.Sign != SignAny
}
