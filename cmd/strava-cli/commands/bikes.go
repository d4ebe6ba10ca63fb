package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pR0Ps/stravaweblib/web"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var componentsOn *string

func init() {
	componentsOn = bikeCmd.Flags().String("on", "", "Only show the components that were on the bike on this date (YYYY-MM-DD).")
	rootCmd.AddCommand(bikesCmd)
	rootCmd.AddCommand(bikeCmd)
	rootCmd.AddCommand(shoesCmd)
}

var bikesCmd = &cobra.Command{
	Use:   "bikes",
	Short: "Lists your bikes.",
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient(cmd.Context())
		bikes, err := client.Bikes(cmd.Context())
		if err != nil {
			fatal("failed to list bikes", err)
		}
		renderGear(bikes)
	},
}

var shoesCmd = &cobra.Command{
	Use:   "shoes",
	Short: "Lists your shoes.",
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient(cmd.Context())
		shoes, err := client.Shoes(cmd.Context())
		if err != nil {
			fatal("failed to list shoes", err)
		}
		renderGear(shoes)
	},
}

func renderGear(gear []web.Gear) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Id", "Name", "Primary", "Brand", "Model", "Distance (km)"})

	for _, g := range gear {
		t.AppendRow(table.Row{g.Id, g.Name, g.Primary, g.Brand, g.Model, fmt.Sprintf("%.1f", g.Distance/1000)})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

var bikeCmd = &cobra.Command{
	Use:   "bike <id-or-name> [--on <date>]",
	Short: "Shows a bike's frame data and component history.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient(cmd.Context())

		bikeId := args[0]
		if !strings.HasPrefix(bikeId, "b") {
			bikes, err := client.Bikes(cmd.Context())
			if err != nil {
				fatal("failed to list bikes", err)
			}
			bike, ok := web.MatchGearName(bikes, args[0])
			if !ok {
				fatal("no bike matches", fmt.Errorf("%q", args[0]))
			}
			bikeId = bike.Id
		}

		details, err := client.BikeDetails(cmd.Context(), bikeId)
		if err != nil {
			fatal("failed to fetch bike details", err)
		}

		fmt.Printf("%s %s (%s), %.1f kg\n", details.Brand, details.Model, details.FrameType, details.Weight)

		components := details.Components
		if *componentsOn != "" {
			on, err := time.Parse("2006-01-02", *componentsOn)
			if err != nil {
				fatal("invalid --on date", err)
			}
			components = web.ComponentsOnDate(components, on)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Id", "Type", "Brand", "Model", "Added", "Removed", "Distance (km)"})

		for _, c := range components {
			t.AppendRow(table.Row{
				c.Id, c.Type, c.Brand, c.Model,
				componentDate(c.Added), componentDate(c.Removed),
				fmt.Sprintf("%.1f", c.Distance/1000),
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

func componentDate(d time.Time) string {
	switch {
	case d.IsZero():
		return ""
	case d.Equal(web.SinceBeginning):
		return "since beginning"
	default:
		return d.Format("2006-01-02")
	}
}
