package commands

import (
	"os"
	"strconv"

	"github.com/pR0Ps/stravaweblib/web"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var feedPages *int

func init() {
	feedPages = feedCmd.Flags().Int("pages", 1, "How many feed pages to fetch.")
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(followersCmd)
	rootCmd.AddCommand(followingCmd)
}

var feedCmd = &cobra.Command{
	Use:   "feed [athlete-id]",
	Short: "Shows the dashboard feed, or one athlete's feed.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := web.FeedOptions{}
		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				fatal("invalid athlete id", err)
			}
			opts.AthleteId = id
		}

		client := newClient(cmd.Context())

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"When", "Athlete", "Type", "Title", "Activity Id"})

		for i := 0; i < *feedPages; i++ {
			page, err := client.Feed(cmd.Context(), opts)
			if err != nil {
				fatal("failed to fetch feed", err)
			}
			for _, e := range page.Entries {
				t.AppendRow(table.Row{
					e.StartTime.Format("2006-01-02 15:04"),
					e.AthleteName, e.ActivityType, e.Title, e.ActivityId,
				})
			}
			if !page.HasMore {
				break
			}
			opts.Cursor = page.Cursor
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

var followersCmd = &cobra.Command{
	Use:   "followers [athlete-id]",
	Short: "Lists the athletes following you (or another athlete).",
	Args:  cobra.MaximumNArgs(1),
	Run:   followsRun("followers"),
}

var followingCmd = &cobra.Command{
	Use:   "following [athlete-id]",
	Short: "Lists the athletes you (or another athlete) follow.",
	Args:  cobra.MaximumNArgs(1),
	Run:   followsRun("following"),
}

func followsRun(kind string) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		client := newClient(cmd.Context())

		athleteId := client.AthleteId()
		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				fatal("invalid athlete id", err)
			}
			athleteId = id
		}

		var refs []web.AthleteRef
		var err error
		if kind == "followers" {
			refs, err = client.Followers(cmd.Context(), athleteId)
		} else {
			refs, err = client.Following(cmd.Context(), athleteId)
		}
		if err != nil {
			fatal("failed to list "+kind, err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Athlete Id", "Name", "Location"})
		for _, r := range refs {
			t.AppendRow(table.Row{r.Id, r.Name, r.Location})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	}
}
