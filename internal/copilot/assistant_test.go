package copilot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinity/internal/copilot"
)

func TestReplyByTrigger(t *testing.T) {
	a := copilot.New(func(int) int { return 2 })

	assert.Contains(t, a.Reply("How do I validate AGE?"), `rule "Age Validation"`)
	assert.Contains(t, a.Reply("salary rules"), `rule "Income Check"`)
	assert.Contains(t, a.Reply("FEEL syntax"), "FEEL expressions in DMN support")
	assert.Contains(t, a.Reply("what is salience"), "Salience controls rule execution order")
	// first matching group wins: "decision" comes before "error"
	assert.Contains(t, a.Reply("decision error"), "For DMN decision tables")
	assert.Equal(t, copilot.Fallbacks[2], a.Reply("hello there"))
}

func TestSendAndClear(t *testing.T) {
	a := copilot.New(func(int) int { return 0 })
	require.Equal(t, copilot.Greeting, a.Messages()[0].Content)

	_, err := a.Send("   ")
	assert.ErrorIs(t, err, copilot.ErrEmptyMessage)

	msg, err := a.Send("person validation")
	require.NoError(t, err)
	assert.True(t, msg.Applicable)

	msg, err = a.Send("hello")
	require.NoError(t, err)
	assert.False(t, msg.Applicable)

	msgs := a.Messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, copilot.RoleUser, msgs[1].Role)
	assert.Equal(t, "person validation", msgs[1].Content)

	cleared := a.Clear()
	require.Len(t, cleared, 1)
	assert.Equal(t, copilot.ResetGreeting, cleared[0].Content)
}
