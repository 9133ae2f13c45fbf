// Package parse detects tool-call directives in LLM output and normalizes
// their arguments.
package parse

import (
	"regexp"
	"strings"
)

// Call is a tool call extracted from LLM output. RawArgs holds the argument
// block verbatim (surrounding whitespace trimmed) for the normalizer.
type Call struct {
	Server  string
	Tool    string
	RawArgs string
}

// matcher is one surface syntax the model may use to request a tool call.
// Each pattern captures three groups: server, tool, argument block.
type matcher struct {
	name    string
	pattern *regexp.Regexp
}

// matchers is the ordered syntax table. Order is priority: the first matcher
// that succeeds anywhere in the text wins, regardless of where later
// matchers would have matched.
var matchers = []matcher{
	{name: "tag", pattern: regexp.MustCompile(`(?is)<tool_call>\s*(\w+)\.(\w+)\((.*?)\)\s*</tool_call>`)},
	{name: "directive", pattern: regexp.MustCompile(`(?is)TOOL_CALL:\s*(\w+)\.(\w+)\((.*?)\)`)},
	{name: "label", pattern: regexp.MustCompile(`(?is)Tool:\s*(\w+)\.(\w+)\((.*?)\)`)},
	{name: "fenced", pattern: regexp.MustCompile("(?is)```tool\\s*(\\w+)\\.(\\w+)\\((.*?)\\)```")},
}

// Extract scans text for a tool-call directive and returns the first match
// by matcher priority, then by position. A nil result means the text
// contains no tool call; that is not an error. Only one call per response is
// honored even if the text contains several.
func Extract(text string) *Call {
	for _, m := range matchers {
		groups := m.pattern.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		return &Call{
			Server:  strings.ToLower(groups[1]),
			Tool:    groups[2],
			RawArgs: strings.TrimSpace(groups[3]),
		}
	}

	return nil
}
