package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"calmvibe/internal/bootstrap"
	settingsinadapter "calmvibe/internal/modules/settings/adapter/in"
	settingsdto "calmvibe/internal/modules/settings/dto"
)

func newSettingsCmd(dataDir *string) *cobra.Command {
	settings := &cobra.Command{Use: "settings", Short: "Show or change guidance settings"}
	settings.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *dataDir, func(app *bootstrap.App) error {
				values, err := app.SettingsCLI.Show(cmd.Context())
				if err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), values)
				return nil
			})
		},
	})

	var change settingsinadapter.Change
	set := &cobra.Command{
		Use:   "set",
		Short: "Change one or more settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if change == (settingsinadapter.Change{}) {
				return fmt.Errorf("nothing to change; pass at least one flag")
			}
			return withApp(cmd.Context(), *dataDir, func(app *bootstrap.App) error {
				values, err := app.SettingsCLI.Set(cmd.Context(), change)
				if err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), values)
				return nil
			})
		},
	}
	set.Flags().StringVar(&change.BPM, "bpm", "", "vibration tempo (40-120)")
	set.Flags().StringVar(&change.Duration, "duration", "", "session length in seconds (60-300) or inf")
	set.Flags().StringVar(&change.Intensity, "intensity", "", "pulse strength: low|medium|strong")
	set.Flags().StringVar(&change.Breath, "breath", "", "breath seconds as inhale-exhale or inhale-hold-exhale")
	set.Flags().StringVar(&change.Cycles, "cycles", "", "breath cycles (>= 1) or inf")
	settings.AddCommand(set)
	return settings
}

func printSettings(w io.Writer, s settingsdto.Settings) {
	duration := "unbounded"
	if s.DurationSec != nil {
		duration = strconv.Itoa(*s.DurationSec) + "s"
	}
	cycles := "unbounded"
	if s.Breath.Cycles != nil {
		cycles = strconv.Itoa(*s.Breath.Cycles)
	}
	_, _ = fmt.Fprintf(w, "bpm:        %d\n", s.BPM)
	_, _ = fmt.Fprintf(w, "duration:   %s\n", duration)
	_, _ = fmt.Fprintf(w, "intensity:  %s\n", s.Intensity)
	_, _ = fmt.Fprintf(w, "breath:     %s (%s)\n", s.Breath.Summary, s.Breath.Type)
	_, _ = fmt.Fprintf(w, "cycles:     %s\n", cycles)
}
