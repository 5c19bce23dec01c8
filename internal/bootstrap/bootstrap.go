package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"

	actuatorinadapter "calmvibe/internal/modules/actuator/adapter/in"
	actuatoroutadapter "calmvibe/internal/modules/actuator/adapter/out"
	actuatorservice "calmvibe/internal/modules/actuator/service"
	actuatorusecase "calmvibe/internal/modules/actuator/usecase"
	guidanceoutadapter "calmvibe/internal/modules/guidance/adapter/out"
	guidanceout "calmvibe/internal/modules/guidance/port/out"
	guidanceservice "calmvibe/internal/modules/guidance/service"
	guidanceusecase "calmvibe/internal/modules/guidance/usecase"
	sessioninadapter "calmvibe/internal/modules/session/adapter/in"
	sessionoutadapter "calmvibe/internal/modules/session/adapter/out"
	sessiondomain "calmvibe/internal/modules/session/domain"
	sessionservice "calmvibe/internal/modules/session/service"
	sessionusecase "calmvibe/internal/modules/session/usecase"
	settingsinadapter "calmvibe/internal/modules/settings/adapter/in"
	settingsoutadapter "calmvibe/internal/modules/settings/adapter/out"
	settingsservice "calmvibe/internal/modules/settings/service"
	settingsusecase "calmvibe/internal/modules/settings/usecase"
	"calmvibe/internal/platform/clock"
	"calmvibe/internal/platform/config"
	"calmvibe/internal/platform/id"
	"calmvibe/internal/platform/logging"
	"calmvibe/internal/platform/sqlite"
	uiapp "calmvibe/internal/ui/app"
)

const recordCacheSize = 128

type App struct {
	Config      config.Config
	Logger      hclog.Logger
	SessionCLI  sessioninadapter.CLIHandler
	HistoryCLI  sessioninadapter.HistoryHandler
	SettingsCLI settingsinadapter.CLIHandler
	ActuatorCLI actuatorinadapter.CLIHandler

	closers []io.Closer
}

// New wires every module against cfg. The returned App owns the database, the
// log file and any actuator process until Close.
func New(ctx context.Context, cfg config.Config) (app *App, err error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	logger, logCloser, err := logging.New(logging.Options{Path: cfg.LogPath, Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	if err != nil {
		return nil, err
	}
	app = &App{Config: cfg, Logger: logger, closers: []io.Closer{logCloser}}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, db)

	clk := clock.SystemClock{}

	settingsStore, err := settingsoutadapter.NewSQLiteSettingsStore(db)
	if err != nil {
		return nil, fmt.Errorf("new settings store: %w", err)
	}
	settingsUC := settingsusecase.NewInteractor(settingsservice.NewSettingsService(settingsStore, logger.Named("settings")))

	actuatorUC := actuatorusecase.NewInteractor(actuatorservice.NewActuatorService(
		actuatoroutadapter.NewFileManifestStore(cfg.ManifestPath),
		actuatoroutadapter.NewGRPCHost(logger.Named("actuator")),
		logger.Named("actuator"),
	))
	actuator, err := app.actuator(ctx, clk, func(name string) (string, error) {
		info, err := actuatorUC.Resolve(ctx, name)
		return info.Binary, err
	})
	if err != nil {
		return nil, err
	}

	engine := guidanceusecase.NewInteractor(guidanceservice.NewScheduler(clk, actuator, id.UUIDv7{}, logger.Named("guidance")))

	recordStore, err := sessionoutadapter.NewSQLiteRecordStore(db, recordCacheSize)
	if err != nil {
		return nil, fmt.Errorf("new record store: %w", err)
	}
	records := sessionservice.NewRecordService(clk, recordStore, sessionoutadapter.NewFileNoteWriter(), logger.Named("records"))
	sessionUC := sessionusecase.NewCoordinator(engine, settingsUC, records, clk, sessionusecase.Options{
		Pulses: sessiondomain.PulseTable{
			LowMS:    cfg.Pulse.LowMS,
			MediumMS: cfg.Pulse.MediumMS,
			StrongMS: cfg.Pulse.StrongMS,
		},
		MaxDurationSec: cfg.Session.MaxDurationSec,
		Logger:         logger.Named("session"),
	})

	app.SessionCLI = sessioninadapter.NewCLIHandler(sessionUC)
	app.HistoryCLI = sessioninadapter.NewHistoryHandler(sessionusecase.NewHistoryInteractor(records))
	app.SettingsCLI = settingsinadapter.NewCLIHandler(settingsUC)
	app.ActuatorCLI = actuatorinadapter.NewCLIHandler(actuatorUC)
	return app, nil
}

func (a *App) actuator(ctx context.Context, clk clock.Clock, resolve func(string) (string, error)) (guidanceout.Actuator, error) {
	switch a.Config.Actuator.Kind {
	case config.ActuatorNone:
		return guidanceoutadapter.SilentActuator{}, nil
	case config.ActuatorPlugin:
		name := a.Config.Actuator.Plugin
		binary, err := resolve(name)
		if err != nil {
			// Sessions still run; the first pulse reports the failure and
			// guidance continues visually.
			a.Logger.Warn("actuator plugin unavailable", "name", name, "error", err)
			return unavailable{err: err}, nil
		}
		plugin := actuatoroutadapter.NewPluginActuator(name, binary, a.Logger.Named("actuator"))
		a.closers = append(a.closers, plugin)
		return plugin, nil
	default:
		tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
		if err != nil {
			a.Logger.Debug("no controlling terminal, ringing on stderr", "error", err)
			return guidanceoutadapter.NewBellActuator(os.Stderr, clk), nil
		}
		a.closers = append(a.closers, tty)
		return guidanceoutadapter.NewBellActuator(tty, clk), nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(uiapp.Deps{
		Session:  app.SessionCLI,
		History:  app.HistoryCLI,
		Settings: app.SettingsCLI,
		NotesDir: filepath.Join(app.Config.DataDir, "notes"),
		Logger:   app.Logger.Named("tui"),
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	if app.SessionCLI.Status().Active {
		_ = app.SessionCLI.Stop(context.Background())
	}
	return err
}

type unavailable struct {
	err error
}

func (u unavailable) Play(context.Context, []int) error {
	return fmt.Errorf("actuator unavailable: %w", u.err)
}

func (unavailable) Stop(context.Context) error { return nil }
