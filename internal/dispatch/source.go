package dispatch

import (
	"context"

	"github.com/ayusman/gestureos/internal/gesture"
)

// SubmitFunc enqueues a prediction pair onto the manager's dispatch path.
// It blocks while the dispatch queue is full and returns once the manager
// has been unregistered.
type SubmitFunc func(pair gesture.PredictionPair)

// Source produces prediction pairs for the manager. Run blocks until ctx is
// cancelled or the source fails, and must not call submit after returning.
type Source interface {
	Name() string
	Run(ctx context.Context, submit SubmitFunc) error
}
