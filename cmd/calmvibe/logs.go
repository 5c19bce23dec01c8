package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"calmvibe/internal/bootstrap"
	sessioninadapter "calmvibe/internal/modules/session/adapter/in"
	sessiondto "calmvibe/internal/modules/session/dto"
	"calmvibe/internal/ui/components"
)

func newLogsCmd(dataDir *string) *cobra.Command {
	logs := &cobra.Command{Use: "logs", Short: "Browse and manage session records"}
	logs.AddCommand(newLogsListCmd(dataDir))
	logs.AddCommand(newLogsShowCmd(dataDir))
	logs.AddCommand(newLogsEditCmd(dataDir))
	logs.AddCommand(&cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete one or more records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *dataDir, func(app *bootstrap.App) error {
				n, err := app.HistoryCLI.Delete(cmd.Context(), args)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d record(s)\n", n)
				return nil
			})
		},
	})
	logs.AddCommand(newLogsExportCmd(dataDir))
	return logs
}

func newLogsListCmd(dataDir *string) *cobra.Command {
	var limit int
	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List records, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *dataDir, func(app *bootstrap.App) error {
				var cursor *sessiondto.Cursor
				shown := 0
				for {
					page, err := app.HistoryCLI.Page(cmd.Context(), limit, cursor)
					if err != nil {
						return err
					}
					for _, rec := range page.Records {
						printRecordLine(cmd.OutOrStdout(), rec)
					}
					shown += len(page.Records)
					if !page.HasNext {
						break
					}
					if !all {
						_, _ = fmt.Fprintln(cmd.OutOrStdout(), "... more records, use --all")
						break
					}
					cursor = page.NextCursor
				}
				if shown == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no records")
				}
				return nil
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "records per page")
	list.Flags().BoolVar(&all, "all", false, "page through every record")
	return list
}

func newLogsShowCmd(dataDir *string) *cobra.Command {
	var raw bool
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a record as a markdown note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *dataDir, func(app *bootstrap.App) error {
				note, err := app.HistoryCLI.Show(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if raw {
					_, _ = fmt.Fprint(cmd.OutOrStdout(), note.Markdown)
					return nil
				}
				renderer, err := components.NewMarkdownRenderer(100)
				if err != nil {
					return fmt.Errorf("markdown renderer: %w", err)
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), components.RenderMarkdown(renderer, note.Body))
				return nil
			})
		},
	}
	show.Flags().BoolVar(&raw, "raw", false, "print the note with frontmatter instead of rendering it")
	return show
}

func newLogsEditCmd(dataDir *string) *cobra.Command {
	var patch sessioninadapter.RecordFields
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *dataDir, func(app *bootstrap.App) error {
				fields, err := app.HistoryCLI.Fields(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				flags := cmd.Flags()
				overlay := []struct {
					flag string
					dst  *string
					src  string
				}{
					{"guide", &fields.GuideType, patch.GuideType},
					{"bpm", &fields.BPM, patch.BPM},
					{"breath", &fields.Breath, patch.Breath},
					{"pre-hr", &fields.PreHR, patch.PreHR},
					{"post-hr", &fields.PostHR, patch.PostHR},
					{"improvement", &fields.Improvement, patch.Improvement},
				}
				for _, o := range overlay {
					if flags.Changed(o.flag) {
						*o.dst = o.src
					}
				}
				rec, err := app.HistoryCLI.Edit(cmd.Context(), args[0], fields)
				if err != nil {
					return err
				}
				printRecordLine(cmd.OutOrStdout(), rec)
				return nil
			})
		},
	}
	edit.Flags().StringVar(&patch.GuideType, "guide", "", "guide type: VIBRATION|BREATH")
	edit.Flags().StringVar(&patch.BPM, "bpm", "", "tempo used (40-120), empty clears it")
	edit.Flags().StringVar(&patch.Breath, "breath", "", "breath pattern")
	edit.Flags().StringVar(&patch.PreHR, "pre-hr", "", "heart rate before (30-220), empty clears it")
	edit.Flags().StringVar(&patch.PostHR, "post-hr", "", "heart rate after (30-220), empty clears it")
	edit.Flags().StringVar(&patch.Improvement, "improvement", "", "improvement (1-5), empty clears it")
	return edit
}

func newLogsExportCmd(dataDir *string) *cobra.Command {
	var dir string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write every record as a markdown note",
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := dir
			if target == "" {
				target = filepath.Join(*dataDir, "notes")
			}
			return withApp(cmd.Context(), *dataDir, func(app *bootstrap.App) error {
				out, err := app.HistoryCLI.Export(cmd.Context(), target)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d note(s) to %s\n", len(out.Paths), out.Dir)
				return nil
			})
		},
	}
	export.Flags().StringVar(&dir, "dir", "", "output directory (default <data>/notes)")
	return export
}

func printRecordLine(w io.Writer, rec sessiondto.RecordOutput) {
	detail := rec.BreathConfig
	if rec.BPM != nil {
		detail = "bpm " + strconv.Itoa(*rec.BPM)
	}
	hr := "-"
	if rec.PreHR != nil || rec.PostHR != nil {
		hr = optionalText(rec.PreHR) + "→" + optionalText(rec.PostHR)
	}
	_, _ = fmt.Fprintf(w, "%-6s %s  %-9s %-22s hr %-9s improvement %s\n",
		rec.ID,
		rec.RecordedAt.Local().Format("2006-01-02 15:04"),
		rec.GuideType,
		detail,
		hr,
		optionalText(rec.Improvement),
	)
}

func optionalText(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
