package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// State is the loop lifecycle. Stopped is terminal; construct a new Loop to
// run again.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

const (
	// onsetTimeout bounds how long a capture waits for speech to begin.
	onsetTimeout = 5 * time.Second
	// phraseCap bounds the duration of a single captured phrase.
	phraseCap = 10 * time.Second
)

const (
	farewellReply = "Goodbye! Have a great day!"
	shutdownReply = "Shutting down. Goodbye!"
)

var exitKeywords = []string{"exit", "quit", "stop", "goodbye"}

// LoopConfig carries the wake-word gating knobs.
type LoopConfig struct {
	WakeWord    string // lexical wake word, default "assistant"
	RequireWake bool   // gated mode; continuous when false
}

// Loop drives repeated listen/interpret/respond cycles on a single worker
// goroutine. All suspension (audio capture, model calls) happens on that
// worker so the presentation side stays responsive; the only inbound control
// is a stop request, polled at the top of each cycle.
type Loop struct {
	policy   *Policy
	listener Listener
	speaker  Speaker
	bridge   *Bridge

	wakeWord    string
	requireWake bool

	state   atomic.Int32
	stopReq atomic.Bool
}

func NewLoop(cfg LoopConfig, policy *Policy, listener Listener, speaker Speaker, bridge *Bridge) *Loop {
	wake := cfg.WakeWord
	if wake == "" {
		wake = "assistant"
	}
	return &Loop{
		policy:      policy,
		listener:    listener,
		speaker:     speaker,
		bridge:      bridge,
		wakeWord:    strings.ToLower(wake),
		requireWake: cfg.RequireWake,
	}
}

func (l *Loop) State() State { return State(l.state.Load()) }

// Stop requests a graceful stop, honored at the top of the next cycle.
func (l *Loop) Stop() { l.stopReq.Store(true) }

// Session is a snapshot of construction-time capabilities and the current
// lifecycle state.
type Session struct {
	WakeWord    string `json:"wake_word"`
	Running     bool   `json:"running"`
	RemoteModel bool   `json:"remote_model"`
	Microphone  bool   `json:"microphone"`
	TTS         bool   `json:"tts"`
}

func (l *Loop) Session() Session {
	return Session{
		WakeWord:    l.wakeWord,
		Running:     l.State() == StateRunning,
		RemoteModel: l.policy.Remote(),
		Microphone:  l.listener != nil,
		TTS:         l.speaker != nil,
	}
}

// Run executes the dialogue loop until stopped. It blocks; callers run it on
// a dedicated goroutine. Cancelling ctx is treated as a user interrupt: the
// assistant says its shutdown farewell and stops.
func (l *Loop) Run(ctx context.Context) error {
	if !l.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return errors.New("loop already started")
	}
	defer l.state.Store(int32(StateStopped))

	if l.listener == nil {
		l.bridge.Status("Error: no speech input available")
		return errors.New("no speech input available")
	}

	if !l.policy.Remote() {
		l.bridge.Status("No API key - using fallback responses")
	}
	if l.speaker == nil {
		l.bridge.Status("Speech output unavailable - replies are text only")
	}

	l.say(fmt.Sprintf(
		"Hello! I am your AI voice assistant. Say '%s' followed by your command, or just start speaking.",
		l.wakeWord,
	))

	for {
		if l.stopReq.Load() {
			l.bridge.Status("Stopped")
			return nil
		}
		if ctx.Err() != nil {
			l.say(shutdownReply)
			l.bridge.Status("Stopped")
			return nil
		}
		if l.cycle(ctx) {
			return nil
		}
	}
}

// cycle runs one listen/interpret/respond pass and reports whether the loop
// should terminate. A panic inside a cycle is reported as a status and the
// loop keeps going; only stop, interrupt, and exit commands end it.
func (l *Loop) cycle(ctx context.Context) (done bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("cycle failed", "err", r)
			l.bridge.Status(fmt.Sprintf("Error: %v", r))
			done = false
		}
	}()

	l.bridge.Status("Listening...")

	text, err := l.listener.Capture(ctx, onsetTimeout, phraseCap)
	if err != nil {
		// timeouts, unintelligible audio and backend failures all skip the
		// turn silently
		if !errors.Is(err, ErrNoSpeech) && !errors.Is(err, context.Canceled) {
			slog.Debug("capture failed", "err", err)
		}
		return false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	slog.Info("heard", "text", text)

	l.bridge.Status("Thinking...")

	if l.requireWake && !strings.Contains(strings.ToLower(text), l.wakeWord) {
		return false
	}
	text = stripWakeWord(text, l.wakeWord)
	if text == "" {
		return false
	}

	l.bridge.Transcript(RoleUser, text)

	// exit commands beat the response policy
	if containsAny(strings.ToLower(text), exitKeywords...) {
		l.say(farewellReply)
		l.bridge.Status("Stopped")
		return true
	}

	reply := l.policy.Respond(ctx, text)

	l.bridge.Status("Speaking...")
	l.say(reply)

	return false
}

// say reports the assistant turn and vocalizes it when a speaker is wired.
// A failed vocalization is reported but never fatal.
func (l *Loop) say(text string) {
	l.bridge.Transcript(RoleAssistant, text)
	if l.speaker == nil {
		return
	}
	if err := l.speaker.Speak(text); err != nil {
		slog.Warn("tts failed", "err", err)
		l.bridge.Status("Speech output failed")
	}
}

// stripWakeWord removes the wake word in its lowercase and capitalized
// spellings, leaving surrounding words intact.
func stripWakeWord(text, wake string) string {
	if wake == "" {
		return strings.TrimSpace(text)
	}
	text = strings.ReplaceAll(text, wake, "")
	text = strings.ReplaceAll(text, strings.ToUpper(wake[:1])+wake[1:], "")
	return strings.TrimSpace(text)
}
