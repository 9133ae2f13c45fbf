package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// AgentDir returns the directory where mcp-agent files are stored.
// It checks the MCP_AGENT_DIR environment variable first, then falls back
// to ~/.mcp-agent.
func AgentDir() (string, error) {
	var agentDir string

	// Check for environment variable override first
	if envDir := os.Getenv("MCP_AGENT_DIR"); envDir != "" {
		agentDir = envDir
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		agentDir = filepath.Join(homeDir, ".mcp-agent")
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(agentDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create agent directory: %w", err)
	}

	return agentDir, nil
}

// ConfigPath returns the full path to the servers.json configuration file
func ConfigPath() (string, error) {
	agentDir, err := AgentDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(agentDir, "servers.json"), nil
}
