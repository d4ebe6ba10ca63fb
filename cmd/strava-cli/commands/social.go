package commands

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	kudosCmd.AddCommand(kudosListCmd)
	kudosCmd.AddCommand(kudosGiveCmd)
	rootCmd.AddCommand(kudosCmd)

	commentsCmd.AddCommand(commentsListCmd)
	commentsCmd.AddCommand(commentsPostCmd)
	rootCmd.AddCommand(commentsCmd)
}

var kudosCmd = &cobra.Command{
	Use:   "kudos",
	Short: "Lists and gives kudos.",
}

var kudosListCmd = &cobra.Command{
	Use:   "list <activity-id>",
	Short: "Lists the athletes that gave kudos to an activity.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fatal("invalid activity id", err)
		}

		client := newClient(cmd.Context())
		entries, err := client.Kudos(cmd.Context(), id)
		if err != nil {
			fatal("failed to list kudos", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Athlete Id", "Name"})
		for _, e := range entries {
			t.AppendRow(table.Row{e.AthleteId, e.Name})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

var kudosGiveCmd = &cobra.Command{
	Use:   "give <activity-id>",
	Short: "Gives kudos to an activity.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fatal("invalid activity id", err)
		}

		client := newClient(cmd.Context())
		if err := client.GiveKudos(cmd.Context(), id); err != nil {
			fatal("failed to give kudos", err)
		}
		slog.Info("gave kudos", "activity_id", id)
	},
}

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Lists and posts activity comments.",
}

var commentsListCmd = &cobra.Command{
	Use:   "list <activity-id>",
	Short: "Lists the comments on an activity.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fatal("invalid activity id", err)
		}

		client := newClient(cmd.Context())
		comments, err := client.Comments(cmd.Context(), id)
		if err != nil {
			fatal("failed to list comments", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Id", "When", "Athlete", "Comment"})
		for _, c := range comments {
			t.AppendRow(table.Row{c.Id, c.CreatedAt.Format("2006-01-02 15:04"), c.AthleteName, c.Text})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

var commentsPostCmd = &cobra.Command{
	Use:   "post <activity-id> <text...>",
	Short: "Posts a comment on an activity.",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fatal("invalid activity id", err)
		}

		client := newClient(cmd.Context())
		comment, err := client.PostComment(cmd.Context(), id, strings.Join(args[1:], " "))
		if err != nil {
			fatal("failed to post comment", err)
		}
		slog.Info("posted comment", "comment_id", comment.Id)
	},
}
