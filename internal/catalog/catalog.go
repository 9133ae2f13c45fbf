// Package catalog flattens the tools advertised by the connected MCP
// servers into a single addressable namespace.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Param describes a single declared tool parameter.
type Param struct {
	Name     string
	Type     string
	Required bool
}

// Descriptor holds the metadata for one tool, qualified by the server that
// advertises it. Immutable once built.
type Descriptor struct {
	Server      string
	Name        string
	Description string
	Params      []Param
}

// Key returns the catalog key for a (server, tool) pair. Keys are lowercase
// so lookups are case-insensitive.
func Key(server, tool string) string {
	return strings.ToLower(server) + "." + strings.ToLower(tool)
}

// Catalog maps (server, tool) pairs to descriptors. Read-only after Build.
type Catalog struct {
	descriptors map[string]*Descriptor
	order       []string // keys in stable render order
}

// Build flattens per-server tool lists into a catalog. Servers listed in
// hidden (by lowercase name) are connected but kept out of the catalog, so
// the model never sees their tools.
func Build(tools map[string][]*mcp.Tool, hidden map[string]bool) *Catalog {
	c := &Catalog{descriptors: make(map[string]*Descriptor)}

	servers := make([]string, 0, len(tools))
	for server := range tools {
		servers = append(servers, server)
	}
	sort.Strings(servers)

	for _, server := range servers {
		if hidden[strings.ToLower(server)] {
			continue
		}
		for _, tool := range tools[server] {
			desc := &Descriptor{
				Server:      strings.ToLower(server),
				Name:        tool.Name,
				Description: tool.Description,
				Params:      extractParams(tool.InputSchema),
			}
			key := Key(server, tool.Name)
			if _, exists := c.descriptors[key]; exists {
				continue
			}
			c.descriptors[key] = desc
			c.order = append(c.order, key)
		}
	}

	return c
}

// Lookup returns the descriptor for a (server, tool) pair.
// Matching is case-insensitive on both tokens.
func (c *Catalog) Lookup(server, tool string) (*Descriptor, bool) {
	desc, ok := c.descriptors[Key(server, tool)]
	return desc, ok
}

// Len returns the number of cataloged tools.
func (c *Catalog) Len() int {
	return len(c.descriptors)
}

// DescribeAll renders the catalog as a tool-description block for prompting,
// one line per tool:
//
//	server.name(param:type*, ...) - description
//
// where * marks a required parameter.
func (c *Catalog) DescribeAll() string {
	var lines []string
	for _, key := range c.order {
		lines = append(lines, c.descriptors[key].Describe())
	}
	return strings.Join(lines, "\n")
}

// Describe renders a single descriptor line.
func (d *Descriptor) Describe() string {
	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		marker := ""
		if p.Required {
			marker = "*"
		}
		params[i] = fmt.Sprintf("%s:%s%s", p.Name, p.Type, marker)
	}
	return fmt.Sprintf("%s.%s(%s) - %s", d.Server, d.Name, strings.Join(params, ", "), d.Description)
}

// PrimaryParam returns the parameter name a bare argument value should bind
// to: the sole declared parameter, else the sole required parameter, else
// nothing.
func (d *Descriptor) PrimaryParam() (string, bool) {
	if len(d.Params) == 1 {
		return d.Params[0].Name, true
	}

	var required []string
	for _, p := range d.Params {
		if p.Required {
			required = append(required, p.Name)
		}
	}
	if len(required) == 1 {
		return required[0], true
	}

	return "", false
}
