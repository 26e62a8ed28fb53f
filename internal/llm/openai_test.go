package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sage/internal/assistant"
)

func TestBuildMessages_SystemFirstThenHistoryInOrder(t *testing.T) {
	turns := []assistant.Turn{
		{Role: assistant.RoleUser, Content: "hello"},
		{Role: assistant.RoleAssistant, Content: "hi there"},
		{Role: assistant.RoleUser, Content: "what can you do"},
	}

	msgs := buildMessages("be brief", turns)

	require.Len(t, msgs, 4)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	assert.NotNil(t, msgs[2].OfAssistant)
	assert.NotNil(t, msgs[3].OfUser)
}

func TestNew_DefaultsModel(t *testing.T) {
	c := New(Options{APIKey: "test"})
	assert.NotEmpty(t, c.model)
}
