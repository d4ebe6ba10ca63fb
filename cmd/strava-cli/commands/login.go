package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Logs in to the website and stores the session token for later runs.",
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient(cmd.Context())
		slog.Info("logged in", "athlete_id", client.AthleteId())
	},
}
