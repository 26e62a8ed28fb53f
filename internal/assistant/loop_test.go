package assistant

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedListener replays a fixed set of utterances; once exhausted it
// behaves like a silent microphone, timing out on every capture so the loop
// keeps polling for stop requests.
type scriptedListener struct {
	mu    sync.Mutex
	lines []string
}

func (s *scriptedListener) Capture(ctx context.Context, _, _ time.Duration) (string, error) {
	s.mu.Lock()
	if len(s.lines) == 0 {
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Millisecond):
			return "", ErrNoSpeech
		}
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	s.mu.Unlock()
	return line, nil
}

type recordingSpeaker struct {
	mu     sync.Mutex
	spoken []string
	err    error
}

func (r *recordingSpeaker) Speak(text string) error {
	r.mu.Lock()
	r.spoken = append(r.spoken, text)
	r.mu.Unlock()
	return r.err
}

// collect drains n transcript events or fails the test.
func collect(t *testing.T, ch <-chan TranscriptEvent, n int) []TranscriptEvent {
	t.Helper()
	out := make([]TranscriptEvent, 0, n)
	for len(out) < n {
		select {
		case ev := <-ch:
			out = append(out, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d transcript events", len(out), n)
		}
	}
	return out
}

func startLoop(t *testing.T, cfg LoopConfig, policy *Policy, listener Listener, speaker Speaker) (*Loop, *Bridge, <-chan TranscriptEvent, chan error) {
	t.Helper()
	bridge := NewBridge()
	transcript := bridge.SubscribeTranscript()
	loop := NewLoop(cfg, policy, listener, speaker, bridge)
	errc := make(chan error, 1)
	go func() { errc <- loop.Run(context.Background()) }()
	return loop, bridge, transcript, errc
}

func waitStopped(t *testing.T, loop *Loop, errc chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		assert.Equal(t, StateStopped, loop.State())
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
		return nil
	}
}

func TestLoop_RefusesToRunWithoutSpeechInput(t *testing.T) {
	bridge := NewBridge()
	status := bridge.SubscribeStatus()
	loop := NewLoop(LoopConfig{}, NewPolicy(nil), nil, nil, bridge)

	err := loop.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, StateStopped, loop.State())
	select {
	case msg := <-status:
		assert.Contains(t, msg, "no speech input")
	case <-time.After(time.Second):
		t.Fatal("no status reported")
	}
}

func TestLoop_ExitKeywordBeatsResponsePolicy(t *testing.T) {
	fc := &fakeCompleter{reply: "should never be used"}
	listener := &scriptedListener{lines: []string{"please goodbye now"}}
	loop, _, transcript, errc := startLoop(t, LoopConfig{}, NewPolicy(fc), listener, nil)

	// greeting, user turn, farewell
	events := collect(t, transcript, 3)
	assert.Equal(t, RoleAssistant, events[0].Role)
	assert.Equal(t, TranscriptEvent{Role: RoleUser, Text: "please goodbye now"}, events[1])
	assert.Equal(t, TranscriptEvent{Role: RoleAssistant, Text: farewellReply}, events[2])

	require.NoError(t, waitStopped(t, loop, errc))
	assert.Zero(t, fc.calls, "exit command must not reach the model")
}

func TestLoop_WakeWordStripping(t *testing.T) {
	listener := &scriptedListener{lines: []string{"Assistant what time is it"}}
	loop, _, transcript, errc := startLoop(t, LoopConfig{RequireWake: true}, NewPolicy(nil), listener, nil)

	events := collect(t, transcript, 3)
	assert.Equal(t, TranscriptEvent{Role: RoleUser, Text: "what time is it"}, events[1])
	assert.Contains(t, events[2].Text, "The current time is")

	loop.Stop()
	require.NoError(t, waitStopped(t, loop, errc))
}

func TestLoop_GatedModeIgnoresUtterancesWithoutWakeWord(t *testing.T) {
	listener := &scriptedListener{lines: []string{
		// first utterance lacks the wake word and is dropped
		"what time is it",
		"assistant what time is it",
	}}
	loop, _, transcript, errc := startLoop(t, LoopConfig{RequireWake: true}, NewPolicy(nil), listener, nil)

	events := collect(t, transcript, 3)
	assert.Equal(t, "what time is it", events[1].Text)

	loop.Stop()
	require.NoError(t, waitStopped(t, loop, errc))
}

func TestLoop_WakeWordOnlyUtteranceIsDiscarded(t *testing.T) {
	listener := &scriptedListener{lines: []string{"assistant", "hello"}}
	loop, _, transcript, errc := startLoop(t, LoopConfig{}, NewPolicy(nil), listener, nil)

	events := collect(t, transcript, 3)
	// the bare wake word never became a turn
	assert.Equal(t, TranscriptEvent{Role: RoleUser, Text: "hello"}, events[1])

	loop.Stop()
	require.NoError(t, waitStopped(t, loop, errc))
}

func TestLoop_RemoteFailureDoesNotStopTheLoop(t *testing.T) {
	fc := &fakeCompleter{err: fmt.Errorf("network down")}
	listener := &scriptedListener{lines: []string{"tell me a story", "another one"}}
	loop, _, transcript, errc := startLoop(t, LoopConfig{}, NewPolicy(fc), listener, nil)

	events := collect(t, transcript, 5)
	assert.Equal(t, apologyReply, events[2].Text)
	assert.Equal(t, "another one", events[3].Text)
	assert.Equal(t, apologyReply, events[4].Text)
	assert.Equal(t, StateRunning, loop.State())

	loop.Stop()
	require.NoError(t, waitStopped(t, loop, errc))
}

func TestLoop_FifteenFallbackTurnsKeepRunning(t *testing.T) {
	lines := make([]string, 15)
	for i := range lines {
		lines[i] = fmt.Sprintf("talk to me %d", i)
	}
	listener := &scriptedListener{lines: lines}
	loop, _, transcript, errc := startLoop(t, LoopConfig{}, NewPolicy(nil), listener, nil)

	// greeting plus 15 user/assistant pairs
	events := collect(t, transcript, 1+15*2)
	assert.Equal(t, StateRunning, loop.State())
	last := events[len(events)-1]
	assert.Equal(t, RoleAssistant, last.Role)
	assert.Contains(t, last.Text, "talk to me 14")

	loop.Stop()
	require.NoError(t, waitStopped(t, loop, errc))
}

func TestLoop_InterruptSaysShutdownFarewell(t *testing.T) {
	listener := &scriptedListener{}
	bridge := NewBridge()
	transcript := bridge.SubscribeTranscript()
	loop := NewLoop(LoopConfig{}, NewPolicy(nil), listener, nil, bridge)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()

	// greeting first; the listener then behaves like a silent microphone
	events := collect(t, transcript, 1)
	assert.Equal(t, RoleAssistant, events[0].Role)

	cancel()
	events = collect(t, transcript, 1)
	assert.Equal(t, shutdownReply, events[0].Text)
	require.NoError(t, waitStopped(t, loop, errc))
}

func TestLoop_SpeaksThroughSpeakerWhenAvailable(t *testing.T) {
	speaker := &recordingSpeaker{}
	listener := &scriptedListener{lines: []string{"hello"}}
	loop, _, transcript, errc := startLoop(t, LoopConfig{}, NewPolicy(nil), listener, speaker)

	collect(t, transcript, 3)

	require.Eventually(t, func() bool {
		speaker.mu.Lock()
		defer speaker.mu.Unlock()
		return len(speaker.spoken) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	speaker.mu.Lock()
	spoken := append([]string(nil), speaker.spoken...)
	speaker.mu.Unlock()
	assert.Equal(t, "Hello! How can I help you today?", spoken[len(spoken)-1])

	loop.Stop()
	require.NoError(t, waitStopped(t, loop, errc))
}

func TestLoop_SessionSnapshot(t *testing.T) {
	listener := &scriptedListener{}
	loop := NewLoop(LoopConfig{WakeWord: "Sage"}, NewPolicy(nil), listener, nil, NewBridge())

	sess := loop.Session()
	assert.Equal(t, "sage", sess.WakeWord)
	assert.False(t, sess.Running)
	assert.False(t, sess.RemoteModel)
	assert.True(t, sess.Microphone)
	assert.False(t, sess.TTS)
}

func TestStripWakeWord(t *testing.T) {
	cases := []struct {
		in, wake, want string
	}{
		{"Assistant what time is it", "assistant", "what time is it"},
		{"assistant hello", "assistant", "hello"},
		{"no wake word here", "assistant", "no wake word here"},
		{"  assistant  ", "assistant", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, stripWakeWord(tc.in, tc.wake), "input %q", tc.in)
	}
}
