package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/dslh/mcp-agent/internal/paths"
)

// DefaultModel is used when no model is configured anywhere.
const DefaultModel = "gpt-4o-mini"

// DefaultHistoryLimit bounds the conversation history, counted in messages.
const DefaultHistoryLimit = 20

// DefaultTimeoutMs is the per-server timeout for connecting, tool discovery
// and individual tool calls.
const DefaultTimeoutMs = 30000

// ServerConfig represents a single MCP server configuration. A server is
// either remote (URL of a streamable HTTP or SSE endpoint) or local
// (command to spawn with a stdio transport), never both.
type ServerConfig struct {
	URL       string            `json:"url,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Command   string            `json:"command,omitempty"`
	Args      []string          `json:"args,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	TimeoutMs int               `json:"timeoutMs,omitempty"`
	Hidden    bool              `json:"hidden,omitempty"`
}

// LLMConfig holds chat model settings. Missing values fall back to
// environment variables and then to defaults.
type LLMConfig struct {
	Model        string   `json:"model,omitempty"`
	BaseURL      string   `json:"baseUrl,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    int      `json:"maxTokens,omitempty"`
	HistoryLimit int      `json:"historyLimit,omitempty"`
}

// Config represents the full mcp-agent configuration
type Config struct {
	MCPServers map[string]ServerConfig `json:"mcpServers"`
	LLM        LLMConfig               `json:"llm,omitempty"`
}

// LoadConfig loads and parses the agent configuration file
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Expand environment variables
	if err := expandEnvVars(&config); err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	config.applyDefaults()

	return &config, nil
}

// LoadDefaultConfig loads the configuration from the default location
func LoadDefaultConfig() (*Config, error) {
	configPath, err := paths.ConfigPath()
	if err != nil {
		return nil, err
	}

	return LoadConfig(configPath)
}

// applyDefaults fills in LLM settings from the environment and built-in
// defaults. File values win over the environment.
func (c *Config) applyDefaults() {
	if c.LLM.Model == "" {
		c.LLM.Model = os.Getenv("OPENAI_MODEL")
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if c.LLM.HistoryLimit <= 0 {
		c.LLM.HistoryLimit = DefaultHistoryLimit
	}
	if c.LLM.Temperature == nil {
		// Low temperature for consistent tool calling
		temp := 0.1
		c.LLM.Temperature = &temp
	}
}

// Timeout returns the configured per-server timeout in milliseconds,
// falling back to the default.
func (s ServerConfig) Timeout() int {
	if s.TimeoutMs > 0 {
		return s.TimeoutMs
	}
	return DefaultTimeoutMs
}

// expandEnvVars performs ${VAR} expansion on all string values in the config
func expandEnvVars(config *Config) error {
	for serverName, serverConfig := range config.MCPServers {
		serverConfig.URL = expandString(serverConfig.URL)
		serverConfig.Command = expandString(serverConfig.Command)

		for i, arg := range serverConfig.Args {
			serverConfig.Args[i] = expandString(arg)
		}

		for key, value := range serverConfig.Env {
			serverConfig.Env[key] = expandString(value)
		}

		for key, value := range serverConfig.Headers {
			serverConfig.Headers[key] = expandString(value)
		}

		// Update the config with expanded values
		config.MCPServers[serverName] = serverConfig
	}

	return nil
}

// envVarPattern matches ${VAR_NAME} patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandString expands ${VAR} environment variable references in a string
func expandString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name (remove ${ and })
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// Validate checks the configuration for basic validity
func (c *Config) Validate() error {
	if len(c.MCPServers) == 0 {
		return fmt.Errorf("no MCP servers configured")
	}

	for serverName, serverConfig := range c.MCPServers {
		hasURL := strings.TrimSpace(serverConfig.URL) != ""
		hasCommand := strings.TrimSpace(serverConfig.Command) != ""

		if !hasURL && !hasCommand {
			return fmt.Errorf("server %s has neither url nor command", serverName)
		}
		if hasURL && hasCommand {
			return fmt.Errorf("server %s has both url and command", serverName)
		}
	}

	return nil
}
