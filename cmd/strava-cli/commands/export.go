package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pR0Ps/stravaweblib/web"

	"github.com/spf13/cobra"
)

var exportFormat *string
var exportDir *string

func init() {
	exportFormat = exportCmd.PersistentFlags().String("format", "original", "The export format: original, gpx or tcx.")
	exportDir = exportCmd.PersistentFlags().String("out", ".", "The directory to write the exported file to.")
	exportCmd.AddCommand(exportActivityCmd)
	exportCmd.AddCommand(exportRouteCmd)
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Downloads activity and route files.",
}

var exportActivityCmd = &cobra.Command{
	Use:   "activity <id>",
	Short: "Downloads an activity's data file, named by the site.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fatal("invalid activity id", err)
		}

		client := newClient(cmd.Context())
		file, err := client.ExportActivity(cmd.Context(), id, web.DataFormat(*exportFormat))
		if err != nil {
			fatal("failed to export activity", err)
		}
		saveExport(file)
	},
}

var exportRouteCmd = &cobra.Command{
	Use:   "route <id>",
	Short: "Downloads a route's data file, named by the site.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fatal("invalid route id", err)
		}

		client := newClient(cmd.Context())
		file, err := client.ExportRoute(cmd.Context(), id, web.DataFormat(*exportFormat))
		if err != nil {
			fatal("failed to export route", err)
		}
		saveExport(file)
	},
}

func saveExport(file *web.ExportFile) {
	defer file.Data.Close()

	path := filepath.Join(*exportDir, file.Filename)
	out, err := os.Create(path)
	if err != nil {
		fatal("failed to create output file", err)
	}
	defer out.Close()

	written, err := io.Copy(out, file.Data)
	if err != nil {
		fatal("failed to write output file", err)
	}
	slog.Info("exported", "file", path, "bytes", written)
}
