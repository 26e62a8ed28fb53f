package assistant

import (
	"strings"
	"time"
)

// timeNow is swapped in tests that pin clock-dependent replies.
var timeNow = time.Now

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// FallbackReply produces a deterministic reply without any model access.
// Matching is case-insensitive substring, first match wins; the ordering is
// a contract ("hello, what time is it" greets instead of telling the time).
// The default case makes the function total over non-empty input.
func FallbackReply(utterance string) string {
	lower := strings.ToLower(utterance)

	switch {
	case containsAny(lower, "hello", "hi", "hey"):
		return "Hello! How can I help you today?"
	case containsAny(lower, "how are you", "how do you do"):
		return "I'm doing well, thank you for asking! How can I assist you?"
	case strings.Contains(lower, "time"):
		return "The current time is " + timeNow().Format("03:04 PM")
	case strings.Contains(lower, "date"):
		return "Today's date is " + timeNow().Format("January 02, 2006")
	case containsAny(lower, "bye", "goodbye", "exit", "quit"):
		return "Goodbye! Have a great day!"
	case strings.Contains(lower, "thank"):
		return "You're welcome! Is there anything else I can help you with?"
	case strings.Contains(lower, "help"):
		return "I can help you with various tasks. Try asking me about the time, date, or just have a conversation!"
	default:
		return "I understand you said: " + utterance + ". How can I help you with that?"
	}
}
