package commands

import (
	"log/slog"
	"os"

	"powerapi-backend/internal/schedule"
	"powerapi-backend/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scheduleOutput string
	scheduleTitle  string
)

func init() {
	scheduleCmd.Flags().StringVarP(&scheduleOutput, "output", "o", "", "Write the matrix as a standalone html page to this path.")
	scheduleCmd.Flags().StringVar(&scheduleTitle, "title", "Schedule", "The title of the written page.")
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <page.html> [-o <out.html>]",
	Short: "Extracts the schedule matrix out of a saved schedule page.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		page, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read page", err)
		}
		matrix, err := schedule.ExtractMatrix(cmd.Context(), page)
		if err != nil {
			serviceutil.Fatal("failed to extract schedule", err)
		}

		if scheduleOutput != "" {
			f, err := os.Create(scheduleOutput)
			if err != nil {
				serviceutil.Fatal("failed to create output", err)
			}
			defer f.Close()
			err = matrix.Render(f, scheduleTitle)
			if err != nil {
				serviceutil.Fatal("failed to write output", err)
			}
			slog.Info("wrote schedule", "path", scheduleOutput)
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		for i, row := range matrix.Rows {
			out := make(table.Row, len(row))
			for j, cell := range row {
				out[j] = cell
			}
			if i == 0 {
				t.AppendHeader(out)
				continue
			}
			t.AppendRow(out)
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
