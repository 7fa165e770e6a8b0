package gesture

import "fmt"

// Prediction is one hand's classification within a recognizer frame.
// Confidence is carried through but dispatch does not interpret it.
type Prediction struct {
	Sign       Sign    `json:"label"`
	Confidence float64 `json:"confidence"`
}

// PredictionPair is one classification event covering both hands.
type PredictionPair struct {
	Left  Prediction `json:"left"`
	Right Prediction `json:"right"`
}

// Pair builds a PredictionPair with full confidence on both hands.
func Pair(left, right Sign) PredictionPair {
	return PredictionPair{
		Left:  Prediction{Sign: left, Confidence: 100},
		Right: Prediction{Sign: right, Confidence: 100},
	}
}

// Identities returns the left and right identities carried by the pair.
func (p PredictionPair) Identities() (left, right Identity) {
	return Identity{Hand: HandLeft, Sign: p.Left.Sign}, Identity{Hand: HandRight, Sign: p.Right.Sign}
}

// Validate checks that both hands carry a concrete sign.
func (p PredictionPair) Validate() error {
	if !p.Left.Sign.Valid() || p.Left.Sign == SignAny {
		return fmt.Errorf("left: %w: %d", ErrUnknownSign, uint8(p.Left.Sign))
	}
	if !p.Right.Sign.Valid() || p.Right.Sign == SignAny {
		return fmt.Errorf("right: %w: %d", ErrUnknownSign, uint8(p.Right.Sign))
	}
	return nil
}
