package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dslh/mcp-agent/internal/catalog"
	"github.com/dslh/mcp-agent/internal/dispatch"
)

// scriptedCompleter replays canned responses and records every prompt it was
// given.
type scriptedCompleter struct {
	responses []string
	calls     [][]*schema.Message
}

func (s *scriptedCompleter) Invoke(ctx context.Context, messages []*schema.Message) (string, error) {
	s.calls = append(s.calls, messages)
	if len(s.responses) == 0 {
		return "", errors.New("no scripted response left")
	}
	response := s.responses[0]
	s.responses = s.responses[1:]
	return response, nil
}

// fakeRunner records the dispatched call and returns a fixed outcome.
type fakeRunner struct {
	result string
	err    error
	got    *dispatch.Call
}

func (f *fakeRunner) Dispatch(ctx context.Context, call dispatch.Call) (string, error) {
	f.got = &call
	return f.result, f.err
}

func weatherCatalog() *catalog.Catalog {
	return catalog.Build(map[string][]*mcp.Tool{
		"weather": {{
			Name:        "get_alerts",
			Description: "Get weather alerts for a US state",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"state": {Type: "string"},
				},
				Required: []string{"state"},
			},
		}},
	}, nil)
}

func TestTurnWithToolCall(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		"<tool_call>weather.get_alerts(state=NY)</tool_call>",
		"There is a flood warning in effect for New York.",
	}}
	runner := &fakeRunner{result: "Flood warning for NY until 6pm."}

	loop := New(completer, runner, weatherCatalog(), 20)
	answer, err := loop.Turn(context.Background(), "What's the weather alert for NY?")

	require.NoError(t, err)
	assert.Equal(t, "There is a flood warning in effect for New York.", answer)

	// The call was dispatched with normalized arguments
	require.NotNil(t, runner.got)
	assert.Equal(t, "weather", runner.got.Server)
	assert.Equal(t, "get_alerts", runner.got.Tool)
	assert.Equal(t, map[string]any{"state": "NY"}, runner.got.Arguments)

	// Two LLM calls: reasoning and finalizing
	require.Len(t, completer.calls, 2)

	// The finalizing call carries the tool result
	finalPrompt := completer.calls[1]
	var sawResult bool
	for _, message := range finalPrompt {
		if message.Role == schema.User && message.Content != "What's the weather alert for NY?" {
			assert.Contains(t, message.Content, "Flood warning for NY until 6pm.")
			sawResult = true
		}
	}
	assert.True(t, sawResult, "finalizing prompt should include the tool result")

	// Transcript: user, assistant(tool call), user(result), assistant(final)
	messages := loop.history.Messages()
	require.Len(t, messages, 4)
	assert.Equal(t, schema.User, messages[0].Role)
	assert.Equal(t, schema.Assistant, messages[1].Role)
	assert.Equal(t, schema.User, messages[2].Role)
	assert.Equal(t, schema.Assistant, messages[3].Role)
}

func TestTurnWithoutToolCall(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"Hello! How can I help?"}}
	runner := &fakeRunner{}

	loop := New(completer, runner, weatherCatalog(), 20)
	answer, err := loop.Turn(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help?", answer)
	assert.Nil(t, runner.got, "nothing should be dispatched")
	assert.Len(t, completer.calls, 1, "only one LLM call without a tool call")
	assert.Equal(t, 2, loop.history.Len())
}

func TestTurnDispatchFailureStillFinalizes(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		"<tool_call>nowhere.get_alerts(state=NY)</tool_call>",
		"I could not reach that tool, sorry.",
	}}
	runner := &fakeRunner{err: &dispatch.UnknownServerError{Server: "nowhere"}}

	loop := New(completer, runner, weatherCatalog(), 20)
	answer, err := loop.Turn(context.Background(), "What's the weather alert for NY?")

	// The turn does not fail; the failure is folded into the dialogue
	require.NoError(t, err)
	assert.Equal(t, "I could not reach that tool, sorry.", answer)

	// The finalizing LLM call includes a human-readable failure note
	require.Len(t, completer.calls, 2)
	var sawFailure bool
	for _, message := range completer.calls[1] {
		if message.Role == schema.User && message.Content != "What's the weather alert for NY?" {
			assert.Contains(t, message.Content, "failed")
			assert.Contains(t, message.Content, "nowhere")
			sawFailure = true
		}
	}
	assert.True(t, sawFailure, "finalizing prompt should describe the failure")
}

func TestTurnSystemPromptRebuiltFromCatalog(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"plain answer", "plain answer"}}
	loop := New(completer, &fakeRunner{}, weatherCatalog(), 20)

	_, err := loop.Turn(context.Background(), "first")
	require.NoError(t, err)
	_, err = loop.Turn(context.Background(), "second")
	require.NoError(t, err)

	for _, call := range completer.calls {
		require.NotEmpty(t, call)
		assert.Equal(t, schema.System, call[0].Role)
		assert.Contains(t, call[0].Content, "weather.get_alerts(state:string*)")
	}
}

func TestTurnBareValueInference(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		`<tool_call>weather.get_alerts("NY")</tool_call>`,
		"done",
	}}
	runner := &fakeRunner{result: "ok"}

	loop := New(completer, runner, weatherCatalog(), 20)
	_, err := loop.Turn(context.Background(), "alerts for NY?")

	require.NoError(t, err)
	require.NotNil(t, runner.got)
	assert.Equal(t, map[string]any{"state": "NY"}, runner.got.Arguments)
}

func TestTurnLLMError(t *testing.T) {
	completer := &scriptedCompleter{} // empty script: Invoke fails
	loop := New(completer, &fakeRunner{}, weatherCatalog(), 20)

	_, err := loop.Turn(context.Background(), "hi")
	require.Error(t, err)
}

func TestHistoryCapAcrossTurns(t *testing.T) {
	const limit = 6

	responses := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		responses = append(responses, fmt.Sprintf("answer %d", i))
	}
	completer := &scriptedCompleter{responses: responses}

	loop := New(completer, &fakeRunner{}, weatherCatalog(), limit)
	for i := 0; i < 10; i++ {
		_, err := loop.Turn(context.Background(), fmt.Sprintf("question %d", i))
		require.NoError(t, err)
	}

	messages := loop.history.Messages()
	require.Len(t, messages, limit)

	// Earliest messages evicted, most recent intact
	assert.Equal(t, "question 7", messages[0].Content)
	assert.Equal(t, "answer 9", messages[len(messages)-1].Content)
}

func TestClearResetsHistory(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"hi"}}
	loop := New(completer, &fakeRunner{}, weatherCatalog(), 20)

	_, err := loop.Turn(context.Background(), "hello")
	require.NoError(t, err)
	require.NotZero(t, loop.history.Len())

	loop.Clear()
	assert.Zero(t, loop.history.Len())
}

func TestToggleDebug(t *testing.T) {
	loop := New(&scriptedCompleter{}, &fakeRunner{}, weatherCatalog(), 20)
	assert.True(t, loop.ToggleDebug())
	assert.False(t, loop.ToggleDebug())
}
