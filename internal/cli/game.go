package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameNewCmd())
	cmd.AddCommand(newGameAcceptCmd())
	cmd.AddCommand(newGameRevengeCmd())
	cmd.AddCommand(newGameListCmd())
	cmd.AddCommand(newGameGetCmd())

	return cmd
}

func newGameNewCmd() *cobra.Command {
	var winningRounds int

	cmd := &cobra.Command{
		Use:   "new <opponent>",
		Short: "Challenge another chat member (by @username or name)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := cfg.Actor()
			if err != nil {
				return err
			}

			req := map[string]any{
				"challenger":     actor,
				"opponent":       args[0],
				"winning_rounds": winningRounds,
			}
			var result Game

			if err := client.Post(cfg.ChatPath("/games"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&winningRounds, "rounds", 0, "Rounds needed to win the match (server default if 0)")

	return cmd
}

func newGameAcceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <game-id>",
		Short: "Accept a challenge addressed to you",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postGameAction(args[0], "/accept")
		},
	}
}

func newGameRevengeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revenge <game-id>",
		Short: "Challenge the other player of a finished game again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postGameAction(args[0], "/revenge")
		},
	}
}

func postGameAction(gameID, action string) error {
	actor, err := cfg.Actor()
	if err != nil {
		return err
	}

	req := map[string]any{"actor": actor}
	var result Game

	if err := client.Post(cfg.ChatPath("/games/"+url.PathEscape(gameID)+action), req, &result); err != nil {
		return err
	}

	out := NewOutput(cfg.Output)
	out.Print(result)
	return nil
}

func newGameListCmd() *cobra.Command {
	var states []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List games in the chat (in progress by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.ChatPath("/games")
			if len(states) > 0 {
				q := url.Values{}
				for _, s := range states {
					q.Add("state", strings.ToLower(s))
				}
				path += "?" + q.Encode()
			}

			var result GameList
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&states, "state", nil, "Filter by state: initiated, accepted, finished (repeatable)")

	return cmd
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game-id>",
		Short: "Show a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Game

			if err := client.Get(cfg.ChatPath("/games/"+url.PathEscape(args[0])), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roll [value]",
		Short: "Roll the die in your game in progress",
		Long: `Roll the die in your accepted game in this chat.

Without a value the server rolls for you. A value (1-6) reports a die
thrown elsewhere, as a chat adapter forwarding the platform's dice does.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := cfg.Actor()
			if err != nil {
				return err
			}

			req := map[string]any{"actor": actor}
			if len(args) == 1 {
				var value int
				if _, err := fmt.Sscan(args[0], &value); err != nil || value < 1 || value > 6 {
					return fmt.Errorf("roll value must be between 1 and 6")
				}
				req["value"] = value
			}

			var result RollResult
			if err := client.Post(cfg.ChatPath("/rolls"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newScoreboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scoreboard",
		Short: "Show the chat's ranking of match winners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Scoreboard

			if err := client.Get(cfg.ChatPath("/scoreboard"), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
