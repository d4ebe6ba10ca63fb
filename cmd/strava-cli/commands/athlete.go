package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(athleteCmd)
}

var athleteCmd = &cobra.Command{
	Use:   "athlete [athlete-id]",
	Short: "Shows an athlete's profile page, with their gear when visible.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient(cmd.Context())

		athleteId := client.AthleteId()
		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				fatal("invalid athlete id", err)
			}
			athleteId = id
		}

		profile, err := client.Athlete(cmd.Context(), athleteId)
		if err != nil {
			fatal("failed to fetch athlete", err)
		}

		location := strings.Join(nonEmpty(profile.City, profile.State, profile.Country), ", ")
		fmt.Printf("%s (%d)\n", profile.Name, profile.Id)
		if location != "" {
			fmt.Println(location)
		}

		if len(profile.Bikes)+len(profile.Shoes) > 0 {
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Id", "Gear", "Distance (km)"})
			for _, g := range append(profile.Bikes, profile.Shoes...) {
				t.AppendRow(table.Row{g.Id, g.Name, fmt.Sprintf("%.1f", g.Distance/1000)})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
		}
	},
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
