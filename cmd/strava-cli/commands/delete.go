package commands

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var deleteYes *bool

func init() {
	deleteYes = deleteCmd.Flags().Bool("yes", false, "Skip the confirmation prompt.")
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <activity-id>",
	Short: "Permanently deletes an activity.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fatal("invalid activity id", err)
		}

		if !*deleteYes {
			fmt.Printf("Permanently delete activity %d? [y/N] ", id)
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if !strings.EqualFold(strings.TrimSpace(answer), "y") {
				fmt.Println("aborted")
				return
			}
		}

		client := newClient(cmd.Context())
		if err := client.DeleteActivity(cmd.Context(), id); err != nil {
			fatal("failed to delete activity", err)
		}
		slog.Info("deleted activity", "activity_id", id)
	},
}
