// Package chat orchestrates one user turn: prompt construction, LLM call,
// tool-call extraction, dispatch, and the finalizing LLM call.
package chat

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/dslh/mcp-agent/internal/catalog"
	"github.com/dslh/mcp-agent/internal/dispatch"
	"github.com/dslh/mcp-agent/internal/logging"
	"github.com/dslh/mcp-agent/internal/parse"
)

// Completer is the LLM boundary. Implemented by llm.Client.
type Completer interface {
	Invoke(ctx context.Context, messages []*schema.Message) (string, error)
}

// Runner executes normalized tool calls. Implemented by dispatch.Dispatcher.
type Runner interface {
	Dispatch(ctx context.Context, call dispatch.Call) (string, error)
}

const systemPromptFormat = `You are an AI assistant with access to tools on remote MCP servers.

AVAILABLE TOOLS:
%s

INSTRUCTIONS:
1. When the user's question relates to one of the tools above, you MUST use that tool.
2. You have full access to these tools - never say you don't have access.
3. Format tool calls using this exact format:
   <tool_call>server.tool_name(param1=value1, param2=value2)</tool_call>
4. Wait for the tool result before giving your final answer.

EXAMPLE:
<tool_call>weather.get_alerts(state=NY)</tool_call>`

const finalSystemPrompt = `You are a helpful assistant. Use the tool result to answer the user's question.`

// Loop runs the conversation. One turn fully resolves, including at most one
// tool round-trip and two LLM calls, before the next is accepted.
type Loop struct {
	llm     Completer
	runner  Runner
	catalog *catalog.Catalog
	history *History
	debug   bool
}

// New creates a conversation loop. historyLimit bounds the transcript in
// messages.
func New(llm Completer, runner Runner, cat *catalog.Catalog, historyLimit int) *Loop {
	return &Loop{
		llm:     llm,
		runner:  runner,
		catalog: cat,
		history: NewHistory(historyLimit),
	}
}

// Turn processes one user message and returns the final assistant response.
// When the first LLM response contains a tool call, the call is dispatched
// and a second LLM call folds the result (or a failure description) into the
// answer. A failed dispatch never fails the turn.
func (l *Loop) Turn(ctx context.Context, input string) (string, error) {
	l.history.Append(&schema.Message{Role: schema.User, Content: input})

	// The system prompt is rebuilt from the catalog every turn
	prompt := fmt.Sprintf(systemPromptFormat, l.catalog.DescribeAll())
	text, err := l.llm.Invoke(ctx, l.withSystem(prompt))
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}

	if l.debug {
		logging.Debug().Str("response", text).Msg("raw LLM response")
	}

	call := parse.Extract(text)
	if call == nil {
		// No tool call intended: the raw text is the final answer
		l.history.Append(&schema.Message{Role: schema.Assistant, Content: text})
		return text, nil
	}

	desc, ok := l.catalog.Lookup(call.Server, call.Tool)
	if !ok {
		logging.Warn().Str("server", call.Server).Str("tool", call.Tool).Msg("extracted call not in catalog")
	}
	arguments := parse.Normalize(call.RawArgs, desc)

	result, dispatchErr := l.runner.Dispatch(ctx, dispatch.Call{
		Server:    call.Server,
		Tool:      call.Tool,
		Arguments: arguments,
	})

	var resultMessage string
	if dispatchErr != nil {
		logging.Warn().Err(dispatchErr).Msg("tool dispatch failed")
		resultMessage = failureMessage(dispatchErr)
	} else {
		resultMessage = successMessage(result)
	}

	l.history.Append(&schema.Message{Role: schema.Assistant, Content: text})
	l.history.Append(&schema.Message{Role: schema.User, Content: resultMessage})

	final, err := l.llm.Invoke(ctx, l.withSystem(finalSystemPrompt))
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}

	l.history.Append(&schema.Message{Role: schema.Assistant, Content: final})
	return final, nil
}

// Clear resets the conversation history.
func (l *Loop) Clear() {
	l.history.Clear()
}

// ToggleDebug flips raw-response logging and returns the new state.
func (l *Loop) ToggleDebug() bool {
	l.debug = !l.debug
	return l.debug
}

// withSystem prefixes the transcript with a system message.
func (l *Loop) withSystem(prompt string) []*schema.Message {
	messages := make([]*schema.Message, 0, l.history.Len()+1)
	messages = append(messages, &schema.Message{Role: schema.System, Content: prompt})
	return append(messages, l.history.Messages()...)
}

func successMessage(result string) string {
	return fmt.Sprintf(`Tool executed successfully.
Result: %s

Now provide a helpful response to the user based on this information.`, result)
}

func failureMessage(err error) string {
	return fmt.Sprintf(`The tool call failed: %v

Explain the problem to the user and suggest rephrasing the question or asking about something else.`, err)
}
