package parse

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/dslh/mcp-agent/internal/catalog"
)

// keyValuePattern matches key=value pairs with optional quoting around the
// value, tolerating whitespace around the separator.
var keyValuePattern = regexp.MustCompile(`(\w+)\s*=\s*["']?([^,"'{}]*)["']?`)

// Normalize converts a raw argument block into an argument mapping for the
// described tool. The policies are tried in order:
//
//  1. A block containing an opening brace is parsed as strict JSON; on
//     success the parsed mapping is used verbatim, minus null and
//     empty-string values.
//  2. A block containing "=" separators is split into key=value pairs.
//  3. A single bare value binds to the tool's primary parameter
//     (see Descriptor.PrimaryParam); without one, no inference happens.
//
// Values pass through as strings except on the JSON path, which keeps the
// parsed types; the remote server owns type coercion. Normalize never fails:
// an irreducible block yields an empty mapping.
func Normalize(rawArgs string, desc *catalog.Descriptor) map[string]any {
	arguments := make(map[string]any)

	raw := strings.TrimSpace(rawArgs)
	if raw == "" {
		return arguments
	}

	if strings.Contains(raw, "{") {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			return dropEmpty(parsed)
		}
		// Malformed JSON falls through to key=value parsing when possible
	}

	if strings.Contains(raw, "=") {
		for _, groups := range keyValuePattern.FindAllStringSubmatch(raw, -1) {
			key := groups[1]
			value := strings.TrimSpace(groups[2])
			if value != "" {
				arguments[key] = value
			}
		}
		return arguments
	}

	if strings.Contains(raw, "{") {
		// Irreducible structured block
		return arguments
	}

	// Bare value: bind to the tool's primary parameter if it has one
	if desc != nil {
		if name, ok := desc.PrimaryParam(); ok {
			value := strings.Trim(raw, `"'`)
			if value != "" {
				arguments[name] = value
			}
		}
	}

	return arguments
}

// dropEmpty removes null and empty-string values from a parsed mapping.
// The remote call must not see arguments the model left blank.
func dropEmpty(arguments map[string]any) map[string]any {
	filtered := make(map[string]any, len(arguments))
	for key, value := range arguments {
		if value == nil {
			continue
		}
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		filtered[key] = value
	}
	return filtered
}
