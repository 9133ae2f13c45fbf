package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTagForm(t *testing.T) {
	text := "Let me check that for you.\n<tool_call>weather.get_alerts(state=NY)</tool_call>"

	call := Extract(text)
	require.NotNil(t, call)
	assert.Equal(t, "weather", call.Server)
	assert.Equal(t, "get_alerts", call.Tool)
	assert.Equal(t, "state=NY", call.RawArgs)
}

func TestExtractDirectiveForm(t *testing.T) {
	call := Extract(`TOOL_CALL: rag.get_knowledge_base()`)
	require.NotNil(t, call)
	assert.Equal(t, "rag", call.Server)
	assert.Equal(t, "get_knowledge_base", call.Tool)
	assert.Equal(t, "", call.RawArgs)
}

func TestExtractLabelForm(t *testing.T) {
	call := Extract(`I will use a tool.
Tool: expense_tracker.add_expense(amount=12.50, category=food)`)
	require.NotNil(t, call)
	assert.Equal(t, "expense_tracker", call.Server)
	assert.Equal(t, "add_expense", call.Tool)
	assert.Equal(t, "amount=12.50, category=food", call.RawArgs)
}

func TestExtractFencedForm(t *testing.T) {
	call := Extract("```tool weather.get_forecast(latitude=40.7, longitude=-74.0)```")
	require.NotNil(t, call)
	assert.Equal(t, "weather", call.Server)
	assert.Equal(t, "get_forecast", call.Tool)
	assert.Equal(t, "latitude=40.7, longitude=-74.0", call.RawArgs)
}

func TestExtractCaseInsensitive(t *testing.T) {
	call := Extract(`tool_call: Weather.Get_Alerts(state=NY)`)
	require.NotNil(t, call)
	// Server token is lowercased; tool token preserved for dispatch,
	// which matches case-insensitively
	assert.Equal(t, "weather", call.Server)
	assert.Equal(t, "Get_Alerts", call.Tool)
}

func TestExtractMultilineArguments(t *testing.T) {
	call := Extract("<tool_call>rag.search({\"query\":\n\"vacation policy\"})</tool_call>")
	require.NotNil(t, call)
	assert.Equal(t, "search", call.Tool)
	assert.Contains(t, call.RawArgs, "vacation policy")
}

func TestExtractNoCall(t *testing.T) {
	for _, text := range []string{
		"",
		"The weather in NY is sunny today.",
		"Call weather.get_alerts when you need to.",   // no recognized syntax
		"<tool_call>weather.get_alerts</tool_call>",   // missing parens
		"<tool_call>weather.get_alerts(state=NY",      // unbalanced delimiters
		"TOOL_CALL weather.get_alerts(state=NY)",      // missing colon
	} {
		assert.Nil(t, Extract(text), "Extract(%q) should return nil", text)
	}
}

func TestExtractMatcherPriority(t *testing.T) {
	// The directive form appears first in the text, but the tag form has
	// higher matcher priority and must win.
	text := `TOOL_CALL: rag.get_knowledge_base()
<tool_call>weather.get_alerts(state=NY)</tool_call>`

	call := Extract(text)
	require.NotNil(t, call)
	assert.Equal(t, "weather", call.Server)
	assert.Equal(t, "get_alerts", call.Tool)
}

func TestExtractFirstOfSameSyntax(t *testing.T) {
	// Multiple calls in the same syntax: only the first by position counts
	text := `<tool_call>weather.get_alerts(state=NY)</tool_call>
<tool_call>weather.get_alerts(state=CA)</tool_call>`

	call := Extract(text)
	require.NotNil(t, call)
	assert.Equal(t, "state=NY", call.RawArgs)
}
