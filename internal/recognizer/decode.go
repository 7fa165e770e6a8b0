// Package recognizer adapts an external gesture recognizer to the dispatch
// engine. It decodes the recognizer's per-frame predictions and runs the
// recognizer as a child process.
package recognizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/gestureos/internal/gesture"
)

// EventPrediction is the event name carried by recognizer envelopes.
const EventPrediction = "gesture-prediction"

// ErrMalformedPrediction is returned for payloads that do not carry a
// labelled prediction for both hands.
var ErrMalformedPrediction = errors.New("malformed gesture prediction")

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type wirePrediction struct {
	Label      *string  `json:"label"`
	Confidence *float64 `json:"confidence"`
}

type wirePair struct {
	Left  *wirePrediction `json:"left"`
	Right *wirePrediction `json:"right"`
}

// Decoder turns recognizer payloads into prediction pairs.
type Decoder struct {
	// MinConfidence rewrites a hand whose confidence is below it to none.
	// Zero disables the floor.
	MinConfidence float64
}

// DecodePair decodes payload with no confidence floor.
func DecodePair(payload []byte) (gesture.PredictionPair, error) {
	return Decoder{}.Decode(payload)
}

// Decode accepts either an envelope {"event":"gesture-prediction","data":{...}}
// or a bare {"left":{...},"right":{...}} object.
func (d Decoder) Decode(payload []byte) (gesture.PredictionPair, error) {
	payload = bytes.TrimSpace(payload)

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return gesture.PredictionPair{}, fmt.Errorf("%w: %v", ErrMalformedPrediction, err)
	}
	if env.Event != "" {
		if env.Event != EventPrediction {
			return gesture.PredictionPair{}, fmt.Errorf("%w: unexpected event %q", ErrMalformedPrediction, env.Event)
		}
		payload = env.Data
	}

	var wp wirePair
	if err := json.Unmarshal(payload, &wp); err != nil {
		return gesture.PredictionPair{}, fmt.Errorf("%w: %v", ErrMalformedPrediction, err)
	}

	left, err := d.side("left", wp.Left)
	if err != nil {
		return gesture.PredictionPair{}, err
	}
	right, err := d.side("right", wp.Right)
	if err != nil {
		return gesture.PredictionPair{}, err
	}
	return gesture.PredictionPair{Left: left, Right: right}, nil
}

func (d Decoder) side(hand string, wp *wirePrediction) (gesture.Prediction, error) {
	if wp == nil || wp.Label == nil {
		return gesture.Prediction{}, fmt.Errorf("%w: missing %s label", ErrMalformedPrediction, hand)
	}

	sign, err := gesture.ParseSign(*wp.Label)
	if err != nil || sign == gesture.SignAny {
		return gesture.Prediction{}, fmt.Errorf("%w: %s label %q", ErrMalformedPrediction, hand, *wp.Label)
	}

	p := gesture.Prediction{Sign: sign, Confidence: 100}
	if wp.Confidence != nil {
		p.Confidence = *wp.Confidence
	}
	if d.MinConfidence > 0 && p.Confidence < d.MinConfidence {
		p.Sign = gesture.SignNone
	}
	return p, nil
}
