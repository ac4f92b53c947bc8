package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "diceduel",
		Short: "CLI tool for the dice duel API",
		Long: `diceduel is a CLI tool for interacting with the dice duel JSON API.

It acts as a chat adapter would: every command runs in one chat and on behalf
of one chat identity (--chat, --as-id, --as-username, --as-name). It supports
challenges, rolls, the scoreboard, and real-time SSE event streaming.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load token from file if not provided via flag/env
			if err := cfg.LoadToken(); err != nil {
				return err
			}

			client = NewClient(cfg.ServerURL, cfg.Token)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: DICEDUEL_SERVER)")
	flags.StringVar(&cfg.Token, "token", cfg.Token, "Access token (env: DICEDUEL_TOKEN)")
	flags.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: DICEDUEL_TOKEN_FILE)")
	flags.StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	flags.StringVar(&cfg.Chat, "chat", cfg.Chat, "Chat ID (env: DICEDUEL_CHAT)")
	flags.StringVar(&cfg.Identity.ID, "as-id", cfg.Identity.ID, "Chat user ID to act as (env: DICEDUEL_USER_ID)")
	flags.StringVar(&cfg.Identity.Username, "as-username", cfg.Identity.Username, "Chat username to act as (env: DICEDUEL_USERNAME)")
	flags.StringVar(&cfg.Identity.DisplayName, "as-name", cfg.Identity.DisplayName, "Display name to act as (env: DICEDUEL_DISPLAY_NAME)")

	// Add subcommands
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newRollCmd())
	rootCmd.AddCommand(newScoreboardCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
