package recognizer

import (
	"errors"
	"testing"

	"github.com/ayusman/gestureos/internal/gesture"
)

func TestDecodePair(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		left    gesture.Sign
		right   gesture.Sign
	}{
		{
			name:    "envelope",
			payload: `{"event":"gesture-prediction","data":{"left":{"label":"palm","confidence":97},"right":{"label":"none","confidence":88}}}`,
			left:    gesture.SignPalm,
			right:   gesture.SignNone,
		},
		{
			name:    "bare pair",
			payload: `{"left":{"label":"swipe up","confidence":90},"right":{"label":"swipe_left","confidence":90}}`,
			left:    gesture.SignSwipeUp,
			right:   gesture.SignSwipeLeft,
		},
		{
			name:    "legacy down label",
			payload: `{"left":{"label":"down","confidence":90},"right":{"label":"three"}}`,
			left:    gesture.SignSwipeDown,
			right:   gesture.SignThree,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := DecodePair([]byte(tt.payload))
			if err != nil {
				t.Fatalf("DecodePair() error = %v", err)
			}
			if pair.Left.Sign != tt.left || pair.Right.Sign != tt.right {
				t.Errorf("DecodePair() = %s/%s, want %s/%s", pair.Left.Sign, pair.Right.Sign, tt.left, tt.right)
			}
		})
	}
}

func TestDecodePair_Malformed(t *testing.T) {
	payloads := map[string]string{
		"not json":      `{"left":`,
		"missing right": `{"left":{"label":"palm","confidence":1}}`,
		"missing label": `{"left":{"confidence":1},"right":{"label":"palm"}}`,
		"unknown label": `{"left":{"label":"fist"},"right":{"label":"palm"}}`,
		"wildcard":      `{"left":{"label":"any"},"right":{"label":"palm"}}`,
		"other event":   `{"event":"speech","data":{"left":{"label":"palm"},"right":{"label":"palm"}}}`,
	}

	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodePair([]byte(payload)); !errors.Is(err, ErrMalformedPrediction) {
				t.Errorf("DecodePair() error = %v, want ErrMalformedPrediction", err)
			}
		})
	}
}

func TestDecoder_MinConfidence(t *testing.T) {
	d := Decoder{MinConfidence: 80}

	pair, err := d.Decode([]byte(`{"left":{"label":"palm","confidence":79.5},"right":{"label":"one","confidence":80}}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if pair.Left.Sign != gesture.SignNone {
		t.Errorf("left = %s, want none below the floor", pair.Left.Sign)
	}
	if pair.Right.Sign != gesture.SignOne {
		t.Errorf("right = %s, want one at the floor", pair.Right.Sign)
	}
	if pair.Left.Confidence != 79.5 {
		t.Errorf("left confidence = %v, want 79.5", pair.Left.Confidence)
	}
}
