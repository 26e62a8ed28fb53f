package assistant

import "sync"

// TranscriptEvent is one completed turn as observed by the presentation
// layer.
type TranscriptEvent struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Bridge carries loop progress out to observers without ever blocking the
// worker. Status updates are newest-wins and may be dropped when superseded;
// transcript events are delivered in order and without loss to every
// subscriber attached at emission time.
type Bridge struct {
	mu     sync.Mutex
	status []chan string
	subs   []*transcriptSub
}

func NewBridge() *Bridge { return &Bridge{} }

// SubscribeStatus returns a channel that holds the most recent status text.
// An update superseded before being read is replaced, not queued.
func (b *Bridge) SubscribeStatus() <-chan string {
	ch := make(chan string, 1)
	b.mu.Lock()
	b.status = append(b.status, ch)
	b.mu.Unlock()
	return ch
}

// Status publishes a status update to all status subscribers.
func (b *Bridge) Status(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.status {
		select {
		case ch <- text:
		default:
			// mailbox full: evict the stale value, keep the newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- text:
			default:
			}
		}
	}
}

// SubscribeTranscript returns a channel of completed turns. Delivery is
// ordered and lossless; a slow reader only grows its own queue.
func (b *Bridge) SubscribeTranscript() <-chan TranscriptEvent {
	s := &transcriptSub{out: make(chan TranscriptEvent)}
	s.cond = sync.NewCond(&s.mu)
	go s.drain()
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()
	return s.out
}

// Transcript publishes a completed turn to all transcript subscribers.
func (b *Bridge) Transcript(role Role, text string) {
	ev := TranscriptEvent{Role: role, Text: text}
	b.mu.Lock()
	subs := b.subs
	b.mu.Unlock()
	for _, s := range subs {
		s.push(ev)
	}
}

// Close ends delivery. Transcript channels close once their queues drain;
// status channels close immediately.
func (b *Bridge) Close() {
	b.mu.Lock()
	status := b.status
	subs := b.subs
	b.status = nil
	b.subs = nil
	b.mu.Unlock()

	for _, ch := range status {
		close(ch)
	}
	for _, s := range subs {
		s.close()
	}
}

// transcriptSub decouples one subscriber from the emitting worker: pushes
// append to an unbounded pending queue, a dedicated goroutine forwards them
// in order to the subscriber's channel.
type transcriptSub struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []TranscriptEvent
	closed  bool
	out     chan TranscriptEvent
}

func (s *transcriptSub) push(ev TranscriptEvent) {
	s.mu.Lock()
	if !s.closed {
		s.pending = append(s.pending, ev)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *transcriptSub) close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *transcriptSub) drain() {
	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.pending) == 0 {
			s.mu.Unlock()
			close(s.out)
			return
		}
		ev := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()
		s.out <- ev
	}
}
