package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"calmvibe/internal/bootstrap"
	"calmvibe/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:           "calmvibe",
		Short:         "Paced vibration and breathing guidance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data", defaultDataDir(), "data directory for settings, records and logs")

	root.AddCommand(newTUICmd(&dataDir))
	root.AddCommand(newRunCmd(&dataDir))
	root.AddCommand(newRecordCmd(&dataDir))
	root.AddCommand(newSettingsCmd(&dataDir))
	root.AddCommand(newLogsCmd(&dataDir))
	root.AddCommand(newActuatorCmd(&dataDir))
	return root
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".calmvibe"
	}
	return filepath.Join(home, ".calmvibe")
}

// withApp builds the application for one command and releases it afterwards.
func withApp(ctx context.Context, dataDir string, fn func(*bootstrap.App) error) (err error) {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return err
	}
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); err == nil {
			err = closeErr
		}
	}()
	return fn(app)
}

func newTUICmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the calmvibe terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *dataDir, bootstrap.RunTUI)
		},
	}
}

func newActuatorCmd(dataDir *string) *cobra.Command {
	actuator := &cobra.Command{Use: "actuator", Short: "Actuator plugin operations"}
	actuator.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List actuator manifests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *dataDir, func(app *bootstrap.App) error {
				actuators, err := app.ActuatorCLI.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(actuators) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no actuators configured")
					return nil
				}
				for _, a := range actuators {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s@%s enabled=%t capabilities=%v binary=%s\n", a.Name, a.Version, a.Enabled, a.Capabilities, a.Binary)
				}
				return nil
			})
		},
	})
	actuator.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Validate actuator checksums and lifecycle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *dataDir, func(app *bootstrap.App) error {
				results, err := app.ActuatorCLI.Doctor(cmd.Context())
				if err != nil {
					return err
				}
				if len(results) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no actuators configured")
					return nil
				}
				for _, r := range results {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s checksum=%t binary=%t lifecycle=%t", r.Name, r.ChecksumValid, r.BinaryReachable, r.LifecycleOK)
					if r.Error != "" {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), " error=%q", r.Error)
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout())
				}
				return nil
			})
		},
	})
	return actuator
}
