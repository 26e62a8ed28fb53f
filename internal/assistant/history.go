package assistant

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// HistoryLimit caps the rolling context window sent to the model.
const HistoryLimit = 10

// Turn is a single role-tagged message in the conversation. Immutable once
// appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is the rolling conversation window, oldest turn first. It has a
// single writer: the dialogue worker goroutine.
type History struct {
	turns []Turn
}

func (h *History) Append(role Role, content string) {
	h.turns = append(h.turns, Turn{Role: role, Content: content})
}

// Trim evicts the oldest turns until at most HistoryLimit remain.
func (h *History) Trim() {
	if len(h.turns) > HistoryLimit {
		h.turns = h.turns[len(h.turns)-HistoryLimit:]
	}
}

// Turns returns the recorded turns. Callers must not mutate the slice.
func (h *History) Turns() []Turn { return h.turns }

func (h *History) Len() int { return len(h.turns) }
