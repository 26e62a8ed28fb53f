package assistant

import (
	"context"
	"log/slog"
)

const systemPrompt = "You are a helpful voice assistant. Provide concise and friendly responses."

// apologyReply is returned whenever the remote model fails mid-conversation.
const apologyReply = "I'm having trouble processing that right now. Could you try again?"

// Policy decides how a reply is produced: a remote chat completion when a
// client is configured, the deterministic fallback matcher otherwise.
type Policy struct {
	client  Completer // nil in fallback-only mode
	history History
}

func NewPolicy(client Completer) *Policy {
	return &Policy{client: client}
}

// Remote reports whether a remote model is configured.
func (p *Policy) Remote() bool { return p.client != nil }

// History exposes the recorded turns for inspection. Callers must not
// mutate the slice.
func (p *Policy) History() []Turn { return p.history.Turns() }

// Respond produces a reply for utterance. Fallback-only mode never touches
// history. The remote path records the user turn before the call, so a
// failed completion still counts toward conversational context.
func (p *Policy) Respond(ctx context.Context, utterance string) string {
	if p.client == nil {
		return FallbackReply(utterance)
	}

	p.history.Append(RoleUser, utterance)

	reply, err := p.client.Complete(ctx, systemPrompt, p.history.Turns())
	if err != nil {
		slog.Error("completion failed", "err", err)
		return apologyReply
	}

	p.history.Append(RoleAssistant, reply)
	p.history.Trim()

	return reply
}
