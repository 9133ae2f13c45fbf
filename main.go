package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dslh/mcp-agent/internal/catalog"
	"github.com/dslh/mcp-agent/internal/chat"
	"github.com/dslh/mcp-agent/internal/config"
	"github.com/dslh/mcp-agent/internal/dispatch"
	"github.com/dslh/mcp-agent/internal/llm"
	"github.com/dslh/mcp-agent/internal/logging"
	"github.com/dslh/mcp-agent/internal/remote"
)

var (
	configPath string
	modelFlag  string
	logLevel   string
	debugFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "mcp-agent",
	Short: "LLM-driven chat client for MCP tool servers",
	Long: `mcp-agent connects to the MCP servers listed in servers.json, hands
their tools to a chat model, and runs an interactive conversation in which
the model can call those tools.`,
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to servers.json (default: $MCP_AGENT_DIR/servers.json)")
	rootCmd.Flags().StringVar(&modelFlag, "model", "", "Chat model to use (overrides config)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.Flags().BoolVar(&debugFlag, "debug", false, "Log raw LLM responses")
}

func run(cmd *cobra.Command, args []string) error {
	// API keys and overrides may live in a .env file
	_ = godotenv.Load()

	logging.Init(logging.Config{
		Level:  logging.ParseLevel(logLevel),
		Pretty: true,
	})

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if modelFlag != "" {
		cfg.LLM.Model = modelFlag
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx := context.Background()

	client, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return err
	}

	manager := remote.NewManager(cfg)
	defer manager.Close()

	logging.Info().Int("servers", len(cfg.MCPServers)).Msg("connecting to MCP servers")
	if err := manager.Connect(); err != nil {
		return err
	}

	hidden := make(map[string]bool)
	for name, serverConfig := range cfg.MCPServers {
		if serverConfig.Hidden {
			hidden[strings.ToLower(name)] = true
		}
	}
	cat := catalog.Build(manager.Tools(), hidden)
	logging.Info().Int("tools", cat.Len()).Msg("catalog built")

	loop := chat.New(client, dispatch.New(manager), cat, cfg.LLM.HistoryLimit)
	if debugFlag {
		loop.ToggleDebug()
	}

	return repl(ctx, loop, cat)
}

// repl runs the line-oriented chat until the user quits.
func repl(ctx context.Context, loop *chat.Loop, cat *catalog.Catalog) error {
	fmt.Println("Interactive chat with MCP tools")
	fmt.Println("Commands: 'exit'/'quit', 'clear', 'tools', 'debug'")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "quit":
			fmt.Println("Goodbye!")
			return nil
		case "clear":
			loop.Clear()
			fmt.Println("Conversation history cleared")
			continue
		case "tools":
			fmt.Println("\nAvailable tools:")
			fmt.Println(cat.DescribeAll())
			continue
		case "debug":
			if loop.ToggleDebug() {
				fmt.Println("Debug mode on")
			} else {
				fmt.Println("Debug mode off")
			}
			continue
		}

		answer, err := loop.Turn(ctx, input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		fmt.Printf("\nAssistant: %s\n", answer)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadConfig(configPath)
	}
	return config.LoadDefaultConfig()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
