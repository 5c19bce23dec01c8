package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"calmvibe/internal/bootstrap"
	guidancedto "calmvibe/internal/modules/guidance/dto"
	guidancein "calmvibe/internal/modules/guidance/port/in"
	sessioninadapter "calmvibe/internal/modules/session/adapter/in"
	sessiondto "calmvibe/internal/modules/session/dto"
	apperrors "calmvibe/internal/platform/errors"
)

func newRunCmd(dataDir *string) *cobra.Command {
	var mode string
	var fields sessioninadapter.RecordFields

	run := &cobra.Command{
		Use:   "run",
		Short: "Run a guided session in the foreground (Ctrl-C stops it)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return withApp(ctx, *dataDir, func(app *bootstrap.App) error {
				out, err := runSession(ctx, cmd, app, mode)
				if err != nil {
					return err
				}
				if fields.Empty() {
					return nil
				}
				fields.GuideType = out.Mode
				if out.BPM > 0 {
					fields.BPM = strconv.Itoa(out.BPM)
				}
				fields.Breath = out.Breath
				rec, err := app.SessionCLI.Record(context.WithoutCancel(ctx), fields)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "recorded %s (%s)\n", rec.ID, rec.GuideType)
				return nil
			})
		},
	}
	run.Flags().StringVar(&mode, "mode", "vibration", "guidance mode: vibration|breath")
	addOutcomeFlags(run, &fields)
	return run
}

func runSession(ctx context.Context, cmd *cobra.Command, app *bootstrap.App, mode string) (sessiondto.StartOutput, error) {
	w := cmd.OutOrStdout()
	done := make(chan string, 1)
	var noticeOnce sync.Once
	listener := guidancein.Callbacks{
		Step: func(step guidancedto.Step) {
			_, _ = fmt.Fprintf(w, "%s  %-6s cycle %d\n", clockText(step.ElapsedSec), step.Phase, step.Cycle+1)
		},
		Complete: func() { done <- "completed" },
		Stop:     func() { done <- "stopped" },
		HapticsError: func(err error) {
			noticeOnce.Do(func() {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "vibration unavailable, continuing visually: %v\n", err)
			})
		},
	}
	out, err := app.SessionCLI.Start(ctx, mode, listener)
	if err != nil {
		return sessiondto.StartOutput{}, err
	}
	detail := fmt.Sprintf("bpm=%d", out.BPM)
	if out.Breath != "" {
		detail = "breath=" + out.Breath
	}
	_, _ = fmt.Fprintf(w, "%s session started: %s duration=%ds\n", strings.ToLower(out.Mode), detail, out.DurationSec)

	select {
	case reason := <-done:
		_, _ = fmt.Fprintf(w, "session %s\n", reason)
	case <-ctx.Done():
		if err := app.SessionCLI.Stop(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, apperrors.ErrNotActive) {
			return out, err
		}
		_, _ = fmt.Fprintf(w, "session %s\n", <-done)
	}
	return out, nil
}

func newRecordCmd(dataDir *string) *cobra.Command {
	var fields sessioninadapter.RecordFields
	record := &cobra.Command{
		Use:   "record",
		Short: "Log a session that was not guided",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *dataDir, func(app *bootstrap.App) error {
				rec, err := app.SessionCLI.Record(cmd.Context(), fields)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "recorded %s (%s) at %s\n", rec.ID, rec.GuideType, rec.RecordedAt.Local().Format("2006-01-02 15:04"))
				return nil
			})
		},
	}
	record.Flags().StringVar(&fields.GuideType, "guide", "VIBRATION", "guide type: VIBRATION|BREATH")
	record.Flags().StringVar(&fields.BPM, "bpm", "", "tempo used (40-120)")
	record.Flags().StringVar(&fields.Breath, "breath", "", "breath pattern, e.g. inhale4-hold6-exhale4")
	addOutcomeFlags(record, &fields)
	return record
}

func addOutcomeFlags(cmd *cobra.Command, fields *sessioninadapter.RecordFields) {
	cmd.Flags().StringVar(&fields.PreHR, "pre-hr", "", "heart rate before the session (30-220)")
	cmd.Flags().StringVar(&fields.PostHR, "post-hr", "", "heart rate after the session (30-220)")
	cmd.Flags().StringVar(&fields.Improvement, "improvement", "", "how much better you feel (1-5)")
	cmd.Flags().StringVar(&fields.Notes, "notes", "", "free-form notes")
}

func clockText(sec int) string {
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}
