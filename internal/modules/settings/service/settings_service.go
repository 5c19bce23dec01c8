package service

import (
	"context"
	"errors"
	"fmt"

	"calmvibe/internal/modules/settings/domain"
	settingsout "calmvibe/internal/modules/settings/port/out"
	apperrors "calmvibe/internal/platform/errors"

	"github.com/hashicorp/go-hclog"
)

type SettingsService struct {
	store  settingsout.Store
	logger hclog.Logger
}

func NewSettingsService(store settingsout.Store, logger hclog.Logger) *SettingsService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &SettingsService{store: store, logger: logger}
}

// Get returns the stored values, seeding defaults on first use. Read failures
// fall back to defaults so a session can always start.
func (s *SettingsService) Get(ctx context.Context) domain.Values {
	values, err := s.store.Load(ctx)
	switch {
	case err == nil:
		return domain.Normalize(values)
	case errors.Is(err, apperrors.ErrNotFound):
		defaults := domain.Defaults()
		if err := s.store.Save(ctx, defaults); err != nil {
			s.logger.Warn("seed default settings failed", "error", err)
		}
		return defaults
	default:
		s.logger.Warn("load settings failed; using defaults", "error", err)
		return domain.Defaults()
	}
}

// Save persists values, retrying once on failure.
func (s *SettingsService) Save(ctx context.Context, values domain.Values) error {
	values = domain.Normalize(values)
	err := s.store.Save(ctx, values)
	if err == nil {
		return nil
	}
	s.logger.Debug("save settings failed; retrying", "error", err)
	if err := s.store.Save(ctx, values); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
