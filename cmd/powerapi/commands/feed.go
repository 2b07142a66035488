package commands

import (
	"os"

	"powerapi-backend/internal/components/telemetry"
	"powerapi-backend/internal/feed"
	"powerapi-backend/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(feedCmd)
}

var feedCmd = &cobra.Command{
	Use:   "feed [url]",
	Short: "Prints the articles of the school news feed.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		url := feed.DefaultUrl
		if len(args) > 0 {
			url = args[0]
		}

		articles, err := feed.NewClient(telemetry.SlogAPI{}).Fetch(cmd.Context(), url)
		if err != nil {
			serviceutil.Fatal("failed to fetch feed", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Date", "Title", "Link"})
		for _, a := range articles {
			date := a.Date
			published, ok := a.Published()
			if ok {
				date = published.Format("Jan 2, 2006")
			}
			t.AppendRow(table.Row{date, a.Title, a.Link})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
