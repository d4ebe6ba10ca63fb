package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/pR0Ps/stravaweblib/web"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var searchOpts = struct {
	keywords     *string
	activityType *string
	workoutType  *string
	gear         *string
	commute      *bool
	private      *bool
	trainer      *bool
	before       *string
	after        *string
	limit        *int
}{}

func init() {
	searchOpts.keywords = activitiesCmd.Flags().String("keywords", "", "Free text search.")
	searchOpts.activityType = activitiesCmd.Flags().String("type", "", "Activity type (Ride, Run, ...).")
	searchOpts.workoutType = activitiesCmd.Flags().String("workout", "", "Workout type label (Race, Workout, Long Run).")
	searchOpts.gear = activitiesCmd.Flags().String("gear", "", "Only activities using this gear id.")
	searchOpts.commute = activitiesCmd.Flags().Bool("commute", false, "Only commutes.")
	searchOpts.private = activitiesCmd.Flags().Bool("private", false, "Only private activities.")
	searchOpts.trainer = activitiesCmd.Flags().Bool("trainer", false, "Only trainer rides.")
	searchOpts.before = activitiesCmd.Flags().String("before", "", "Only activities started before this date (YYYY-MM-DD).")
	searchOpts.after = activitiesCmd.Flags().String("after", "", "Only activities started after this date (YYYY-MM-DD).")
	searchOpts.limit = activitiesCmd.Flags().Int("limit", 50, "Maximum number of activities to list, 0 for no limit.")
	rootCmd.AddCommand(activitiesCmd)
}

var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "Searches your activities, newest first.",
	Run: func(cmd *cobra.Command, args []string) {
		opts := web.SearchOptions{
			Keywords:     *searchOpts.keywords,
			ActivityType: *searchOpts.activityType,
			WorkoutType:  *searchOpts.workoutType,
			GearId:       *searchOpts.gear,
			Commute:      *searchOpts.commute,
			Private:      *searchOpts.private,
			Trainer:      *searchOpts.trainer,
			Limit:        *searchOpts.limit,
		}

		var err error
		if *searchOpts.before != "" {
			opts.Before, err = time.Parse("2006-01-02", *searchOpts.before)
			if err != nil {
				fatal("invalid --before date", err)
			}
		}
		if *searchOpts.after != "" {
			opts.After, err = time.Parse("2006-01-02", *searchOpts.after)
			if err != nil {
				fatal("invalid --after date", err)
			}
		}

		client := newClient(cmd.Context())
		it, err := client.Activities(cmd.Context(), opts)
		if err != nil {
			fatal("invalid search", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Id", "Date", "Type", "Name", "Distance (km)", "Moving", "Gear"})

		for {
			activity, ok, err := it.Next(cmd.Context())
			if err != nil {
				fatal("failed to search activities", err)
			}
			if !ok {
				break
			}
			t.AppendRow(table.Row{
				activity.Id,
				activity.StartDate.Format("2006-01-02 15:04"),
				activity.Type,
				activity.Name,
				fmt.Sprintf("%.1f", activity.Distance/1000),
				activity.MovingTime,
				activity.GearId,
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
