package assistant

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_TrimEvictsOldestFirst(t *testing.T) {
	var h History
	for i := 1; i <= 11; i++ {
		h.Append(RoleUser, fmt.Sprintf("message %d", i))
		h.Trim()
	}

	require.Equal(t, HistoryLimit, h.Len())
	assert.Equal(t, "message 2", h.Turns()[0].Content)
	assert.Equal(t, "message 11", h.Turns()[HistoryLimit-1].Content)
}

func TestHistory_NoTrimBelowLimit(t *testing.T) {
	var h History
	h.Append(RoleUser, "hi")
	h.Append(RoleAssistant, "hello")
	h.Trim()

	require.Equal(t, 2, h.Len())
	assert.Equal(t, RoleUser, h.Turns()[0].Role)
	assert.Equal(t, RoleAssistant, h.Turns()[1].Role)
}
