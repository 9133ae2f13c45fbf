package catalog

import (
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
)

// extractParams flattens the properties of a tool's input schema into a
// sorted parameter list. A nil or property-less schema yields no parameters.
func extractParams(schema *jsonschema.Schema) []Param {
	if schema == nil || len(schema.Properties) == 0 {
		return nil
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	params := make([]Param, 0, len(schema.Properties))
	for name, prop := range schema.Properties {
		params = append(params, Param{
			Name:     name,
			Type:     paramType(prop),
			Required: required[name],
		})
	}

	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })

	return params
}

// paramType resolves the declared type of a property schema, defaulting to
// "any" when the schema leaves it open.
func paramType(schema *jsonschema.Schema) string {
	if schema == nil {
		return "any"
	}
	if schema.Type != "" {
		return schema.Type
	}
	if len(schema.Types) > 0 {
		return schema.Types[0]
	}
	return "any"
}
