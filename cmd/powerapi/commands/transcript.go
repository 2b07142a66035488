package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"powerapi-backend/internal/components/telemetry"
	"powerapi-backend/internal/packager"
	"powerapi-backend/internal/powerapi"
	"powerapi-backend/internal/store"
	"powerapi-backend/lib/textutil"
	"powerapi-backend/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	transcriptCourse   string
	transcriptSave     string
	transcriptDumpHttp string
	transcriptJson     bool
)

func init() {
	transcriptCmd.Flags().StringVar(&transcriptCourse, "course", "", "Print the assignments of the course closest to this name.")
	transcriptCmd.Flags().StringVar(&transcriptSave, "save", "", "Push the transcript into the sqlite database at this path.")
	transcriptCmd.Flags().StringVar(&transcriptDumpHttp, "dump-http", "", "Write every http exchange into this directory.")
	transcriptCmd.Flags().BoolVar(&transcriptJson, "json", false, "Print the transcript as json.")
	rootCmd.AddCommand(transcriptCmd)
}

var transcriptCmd = &cobra.Command{
	Use:   "transcript [--course <name>] [--save <path/to/state.db>]",
	Short: "Logs in and prints the transcript of the configured student.",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}
		api, err := newAPI(config, transcriptDumpHttp)
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}

		result := <-api.Start(cmd.Context(), powerapi.Credentials{
			Username: config.Username,
			Password: config.Password,
		})
		if result.Err != nil {
			serviceutil.Fatal("failed to fetch transcript", result.Err)
		}
		transcript, fetchedAt, _ := result.Session.Transcript()

		if transcriptSave != "" {
			database, err := store.OpenDB(store.DatabaseConfig{File: transcriptSave})
			if err != nil {
				serviceutil.Fatal("failed to open db", err)
			}
			defer database.Close()
			err = store.NewStore(database, telemetry.SlogAPI{}).Push(cmd.Context(), store.PushRequest{
				Username:   config.Username,
				Time:       fetchedAt,
				Transcript: transcript,
			})
			if err != nil {
				serviceutil.Fatal("failed to save transcript", err)
			}
			slog.Info("saved transcript", "path", transcriptSave)
		}

		if transcriptJson {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			err = encoder.Encode(transcript)
			if err != nil {
				serviceutil.Fatal("failed to encode transcript", err)
			}
			return
		}

		if transcriptCourse != "" {
			names := make([]string, len(transcript.Sections))
			for i, s := range transcript.Sections {
				names[i] = s.Name()
			}
			idx, similarity := textutil.BestMatch(transcriptCourse, names)
			if idx < 0 {
				serviceutil.Fatal("failed to find course", fmt.Errorf("no course is similar to %q", transcriptCourse))
			}
			slog.Debug("matched course", "query", transcriptCourse, "course", names[idx], "similarity", similarity)
			printAssignments(transcript.Sections[idx])
			return
		}

		printSections(transcript)
	},
}

func reportingTermsOf(transcript packager.Transcript) []string {
	var terms []string
	for _, s := range transcript.Sections {
		for term := range s.FinalGrades() {
			if !slices.Contains(terms, term) {
				terms = append(terms, term)
			}
		}
	}
	slices.Sort(terms)
	return terms
}

func printSections(transcript packager.Transcript) {
	fmt.Printf(
		"%s %s (grade %s, GPA %s)\n",
		transcript.Information["firstName"],
		transcript.Information["lastName"],
		transcript.Information["gradeLevel"],
		transcript.Information["currentGPA"],
	)

	terms := reportingTermsOf(transcript)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)

	header := table.Row{"Period", "Course", "Teacher", "Room"}
	for _, term := range terms {
		header = append(header, term)
	}
	t.AppendHeader(header)

	for _, s := range transcript.Sections {
		teacher := s.Teacher()
		row := table.Row{
			s.Expression(),
			s.Name(),
			strings.TrimSpace(teacher.FirstName + " " + teacher.LastName),
			s.RoomName(),
		}
		grades := s.FinalGrades()
		for _, term := range terms {
			row = append(row, grades[term])
		}
		t.AppendRow(row)
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

func printAssignments(section packager.Section) {
	teacher := section.Teacher()
	fmt.Printf("%s (%s) - %s %s <%s>\n", section.Name(), section.Expression(), teacher.FirstName, teacher.LastName, teacher.Email)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Assignment", "Category", "Due", "Score", "Percent"})
	for _, a := range section.Assignments() {
		score, _ := a.Score()
		percent, _ := a.Percent()
		t.AppendRow(table.Row{a.Name(), a.Category(), a.DueDate(), score, percent})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
