package assistant

import (
	"context"
	"errors"
	"time"
)

// ErrNoSpeech reports that nothing intelligible was captured within the
// listening window. The loop treats it as a skipped cycle, not a failure.
var ErrNoSpeech = errors.New("no speech detected")

// Listener captures one transcribed utterance. Implementations get
// onsetTimeout to detect the start of speech and phraseCap to bound how long
// a single phrase may run.
type Listener interface {
	Capture(ctx context.Context, onsetTimeout, phraseCap time.Duration) (string, error)
}

// Speaker vocalizes assistant replies. A missing Speaker is not an error;
// replies are still reported through the bridge.
type Speaker interface {
	Speak(text string) error
}

// Completer is a single-shot chat completion against a remote model. A
// failure must never leak past the response policy.
type Completer interface {
	Complete(ctx context.Context, system string, turns []Turn) (string, error)
}
