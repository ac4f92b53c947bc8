package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			if err := client.Get("/api/v1/health", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newLoginCmd() *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange an adapter API key for an access token",
		Long: `Exchange an adapter API key for an access token and save it to the
token file, so later commands authenticate automatically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" {
				return errors.New("--api-key is required (or DICEDUEL_API_KEY)")
			}

			var result TokenResult
			if err := client.Post("/api/v1/auth/token", map[string]string{"api_key": apiKey}, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.AccessToken); err != nil {
				return err
			}
			client.SetToken(result.AccessToken)

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", getEnvOrDefault("DICEDUEL_API_KEY", ""), "Adapter API key (env: DICEDUEL_API_KEY)")

	return cmd
}
