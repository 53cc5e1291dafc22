package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/webchat/internal/progress"
	"github.com/ziadkadry99/webchat/internal/transcript"
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript",
	Short: "Inspect and export chat transcripts",
}

var transcriptListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chat sessions, newest first",
	RunE:  runTranscriptList,
}

var transcriptShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a session transcript as Markdown (or HTML with --html)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranscriptShow,
}

var transcriptExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write session transcripts to a directory",
	RunE:  runTranscriptExport,
}

func init() {
	transcriptListCmd.Flags().String("endpoint", "", "Only sessions of this endpoint")
	transcriptListCmd.Flags().Int("limit", 50, "Maximum number of sessions")

	transcriptShowCmd.Flags().Bool("html", false, "Render HTML instead of Markdown")

	transcriptExportCmd.Flags().String("dir", "transcripts", "Output directory")
	transcriptExportCmd.Flags().String("endpoint", "", "Only sessions of this endpoint")
	transcriptExportCmd.Flags().Int("limit", 0, "Maximum number of sessions (0 for all)")
	transcriptExportCmd.Flags().Bool("html", false, "Write HTML instead of Markdown")

	transcriptCmd.AddCommand(transcriptListCmd)
	transcriptCmd.AddCommand(transcriptShowCmd)
	transcriptCmd.AddCommand(transcriptExportCmd)
	rootCmd.AddCommand(transcriptCmd)
}

func withTranscriptStore(fn func(*transcript.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(transcript.NewStore(database))
}

func runTranscriptList(cmd *cobra.Command, args []string) error {
	endpointID, _ := cmd.Flags().GetString("endpoint")
	limit, _ := cmd.Flags().GetInt("limit")

	return withTranscriptStore(func(store *transcript.Store) error {
		sessions, err := store.ListSessions(context.Background(), transcript.ListFilter{EndpointID: endpointID, Limit: limit})
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Fprintln(os.Stderr, "No sessions recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tENDPOINT\tSTARTED\tENDED\tMESSAGES")
		for _, s := range sessions {
			ended := "live"
			if s.EndedAt != nil {
				ended = s.EndedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", s.ID, s.EndpointID, s.StartedAt.Format("2006-01-02 15:04:05"), ended, s.Messages)
		}
		return w.Flush()
	})
}

func runTranscriptShow(cmd *cobra.Command, args []string) error {
	asHTML, _ := cmd.Flags().GetBool("html")

	return withTranscriptStore(func(store *transcript.Store) error {
		t, err := store.Get(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("session %q: %w", args[0], err)
		}
		body, err := render(t, asHTML)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(body)
		return err
	})
}

func runTranscriptExport(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	endpointID, _ := cmd.Flags().GetString("endpoint")
	limit, _ := cmd.Flags().GetInt("limit")
	asHTML, _ := cmd.Flags().GetBool("html")

	ext := ".md"
	if asHTML {
		ext = ".html"
	}

	return withTranscriptStore(func(store *transcript.Store) error {
		ctx := context.Background()
		sessions, err := store.ListSessions(ctx, transcript.ListFilter{EndpointID: endpointID, Limit: limit})
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}

		reporter := progress.NewReporter("Exporting transcripts")
		reporter.Start(len(sessions))
		defer reporter.Finish()

		for i, s := range sessions {
			t, err := store.Get(ctx, s.ID)
			if err != nil {
				return fmt.Errorf("loading session %s: %w", s.ID, err)
			}
			body, err := render(t, asHTML)
			if err != nil {
				return err
			}
			name := s.ID + ext
			if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}
			reporter.Update(i+1, name)
		}
		return nil
	})
}

func render(t *transcript.Transcript, asHTML bool) ([]byte, error) {
	if asHTML {
		body, err := transcript.HTML(t)
		if err != nil {
			return nil, fmt.Errorf("rendering transcript: %w", err)
		}
		return body, nil
	}
	return []byte(transcript.Markdown(t)), nil
}
