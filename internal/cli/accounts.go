package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts (administrators only)",
	}

	cmd.AddCommand(newAccountsProgressCmd())

	return cmd
}

func newAccountsProgressCmd() *cobra.Command {
	var level, xp int

	cmd := &cobra.Command{
		Use:   "progress <account-id>",
		Short: "Set an account's level and experience points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]int{}
			if cmd.Flags().Changed("level") {
				body["level"] = level
			}
			if cmd.Flags().Changed("xp") {
				body["experience_points"] = xp
			}
			if len(body) == 0 {
				return errors.New("at least one of --level or --xp is required")
			}

			var result Account
			if err := client.Patch(cmd.Context(), "/api/v1/admin/accounts/"+args[0]+"/progress", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&level, "level", 0, "Level (at least 1)")
	cmd.Flags().IntVar(&xp, "xp", 0, "Experience points (at least 0)")

	return cmd
}
