package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	guidancedto "calmvibe/internal/modules/guidance/dto"
	guidancein "calmvibe/internal/modules/guidance/port/in"
	guidanceservice "calmvibe/internal/modules/guidance/service"
	guidanceusecase "calmvibe/internal/modules/guidance/usecase"
	"calmvibe/internal/modules/session/domain"
	sessiondto "calmvibe/internal/modules/session/dto"
	sessionin "calmvibe/internal/modules/session/port/in"
	"calmvibe/internal/modules/session/service"
	settingsdto "calmvibe/internal/modules/settings/dto"
	"calmvibe/internal/platform/clock"
	apperrors "calmvibe/internal/platform/errors"
	"calmvibe/internal/platform/id"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 6, 1, 21, 0, 0, 0, time.UTC)

type fakeSettings struct {
	values settingsdto.Settings
}

func (f *fakeSettings) Get(context.Context) (settingsdto.Settings, error) { return f.values, nil }

func (f *fakeSettings) Save(_ context.Context, in settingsdto.Settings) (settingsdto.Settings, error) {
	f.values = in
	return in, nil
}

type memoryStore struct {
	mu      sync.Mutex
	records []domain.Record
	failing error
}

func (m *memoryStore) Save(_ context.Context, r domain.Record) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return domain.Record{}, m.failing
	}
	r.ID = int64(len(m.records) + 1)
	m.records = append(m.records, r)
	return r, nil
}

func (m *memoryStore) Update(_ context.Context, r domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == r.ID {
			m.records[i] = r
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *memoryStore) Get(_ context.Context, id int64) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Record{}, apperrors.ErrNotFound
}

func (m *memoryStore) List(context.Context) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Record, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *memoryStore) ListPage(ctx context.Context, limit int, _ *domain.Cursor) (domain.Page, error) {
	all, _ := m.List(ctx)
	if len(all) > limit {
		all = all[:limit]
	}
	return domain.Page{Records: all}, nil
}

func (m *memoryStore) DeleteMany(context.Context, []int64) (int, error) { return 0, nil }

type recordingEngine struct {
	guidancein.Engine
	configs []guidancedto.Config
}

func (r *recordingEngine) StartGuidance(ctx context.Context, cfg guidancedto.Config, l guidancein.Listener) error {
	r.configs = append(r.configs, cfg)
	return r.Engine.StartGuidance(ctx, cfg, l)
}

func (r *recordingEngine) UpdateVibrationBPM(ctx context.Context, bpm int) error {
	return r.Engine.(guidancein.TempoAdjuster).UpdateVibrationBPM(ctx, bpm)
}

type silent struct{}

func (silent) Play(context.Context, []int) error { return nil }
func (silent) Stop(context.Context) error        { return nil }

type harness struct {
	clock    *clock.Manual
	engine   *recordingEngine
	settings *fakeSettings
	store    *memoryStore
	uc       sessionin.Usecase
}

func defaultSettings() settingsdto.Settings {
	duration := 180
	return settingsdto.Settings{
		BPM:         60,
		DurationSec: &duration,
		Intensity:   "strong",
		Breath:      settingsdto.Breath{Type: "three-phase", InhaleSec: 4, HoldSec: 6, ExhaleSec: 4, Summary: "inhale4-hold6-exhale4"},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := clock.NewManual(start)
	engine := &recordingEngine{Engine: guidanceusecase.NewInteractor(guidanceservice.NewScheduler(clk, silent{}, id.UUIDv7{}, nil))}
	settings := &fakeSettings{values: defaultSettings()}
	store := &memoryStore{}
	records := service.NewRecordService(clk, store, nil, nil)
	uc := NewCoordinator(engine, settings, records, clk, Options{})
	return &harness{clock: clk, engine: engine, settings: settings, store: store, uc: uc}
}

type events struct {
	steps     []guidancedto.Step
	completes int
	stops     int
}

func (e *events) listener() guidancein.Callbacks {
	return guidancein.Callbacks{
		Step:     func(s guidancedto.Step) { e.steps = append(e.steps, s) },
		Complete: func() { e.completes++ },
		Stop:     func() { e.stops++ },
	}
}

func TestStartStopCompleteRoundTrip(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	ev := &events{}

	out, err := h.uc.Start(ctx, sessiondto.StartInput{Mode: "VIBRATION"}, ev.listener())
	require.NoError(t, err)
	assert.Equal(t, 180, out.DurationSec)
	assert.Equal(t, 60, out.BPM)
	assert.True(t, h.uc.IsActive())
	require.Len(t, h.engine.configs, 1)
	assert.Equal(t, []int{250}, h.engine.configs[0].VibrationPatternMS)

	h.clock.Advance(30 * time.Second)
	require.NoError(t, h.uc.Stop(ctx))
	assert.False(t, h.uc.IsActive())
	assert.Equal(t, 1, ev.stops)

	rec, err := h.uc.Complete(ctx, sessiondto.CompleteInput{GuideType: "VIBRATION", BPM: intPtr(60), PreHR: intPtr(90), PostHR: intPtr(72), Improvement: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, "1", rec.ID)
	require.NotNil(t, rec.StartedAt)
	require.NotNil(t, rec.EndedAt)
	assert.True(t, rec.StartedAt.Equal(start))
	assert.Equal(t, 30*time.Second, rec.EndedAt.Sub(*rec.StartedAt))
	assert.True(t, rec.RecordedAt.Equal(start.Add(30*time.Second)))

	again, err := h.uc.Complete(ctx, sessiondto.CompleteInput{GuideType: "BREATH"})
	require.NoError(t, err)
	assert.Nil(t, again.StartedAt, "tracked start is cleared after recording")
}

func TestCompleteWithoutStartRecordsManualEntry(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec, err := h.uc.Complete(context.Background(), sessiondto.CompleteInput{GuideType: "BREATH", BreathConfig: "inhale4-exhale4"})
	require.NoError(t, err)
	assert.Nil(t, rec.StartedAt)
	assert.Nil(t, rec.EndedAt)
	assert.Equal(t, "inhale4-exhale4", rec.BreathConfig)
	assert.True(t, rec.RecordedAt.Equal(start))
	assert.Len(t, h.store.records, 1)
}

func TestCompleteRejectsOutOfRangeValues(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.uc.Complete(context.Background(), sessiondto.CompleteInput{GuideType: "VIBRATION", PostHR: intPtr(250)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Empty(t, h.store.records)
}

func TestCompleteWhileRunningStopsEngine(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	ev := &events{}

	_, err := h.uc.Start(ctx, sessiondto.StartInput{Mode: "BREATH"}, ev.listener())
	require.NoError(t, err)
	h.clock.Advance(10 * time.Second)

	rec, err := h.uc.Complete(ctx, sessiondto.CompleteInput{GuideType: "BREATH", BreathConfig: "inhale4-hold6-exhale4"})
	require.NoError(t, err)
	assert.False(t, h.uc.IsActive())
	assert.False(t, h.engine.IsActive())
	assert.Equal(t, 1, ev.stops)
	assert.Equal(t, 10*time.Second, rec.EndedAt.Sub(*rec.StartedAt))
}

func TestFailedSaveKeepsTrackedStart(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.uc.Start(ctx, sessiondto.StartInput{Mode: "VIBRATION"}, nil)
	require.NoError(t, err)
	require.NoError(t, h.uc.Stop(ctx))

	h.store.failing = errors.New("disk full")
	_, err = h.uc.Complete(ctx, sessiondto.CompleteInput{GuideType: "VIBRATION"})
	require.Error(t, err)

	h.store.failing = nil
	rec, err := h.uc.Complete(ctx, sessiondto.CompleteInput{GuideType: "VIBRATION"})
	require.NoError(t, err)
	require.NotNil(t, rec.StartedAt)
	assert.True(t, rec.StartedAt.Equal(start))
}

func TestStartErrors(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.uc.Start(ctx, sessiondto.StartInput{Mode: "VIBRATION"}, nil)
	require.NoError(t, err)
	_, err = h.uc.Start(ctx, sessiondto.StartInput{Mode: "BREATH"}, nil)
	assert.Equal(t, "already_active", apperrors.Code(err))

	require.NoError(t, h.uc.Stop(ctx))
	assert.Equal(t, "not_active", apperrors.Code(h.uc.Stop(ctx)))

	_, err = h.uc.Start(ctx, sessiondto.StartInput{Mode: "TAI CHI"}, nil)
	assert.Equal(t, "unsupported_mode", apperrors.Code(err))
}

func TestEngineErrorsPassThroughVerbatim(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.settings.values.BPM = 0

	_, err := h.uc.Start(context.Background(), sessiondto.StartInput{Mode: "VIBRATION"}, nil)
	assert.Equal(t, "invalid_bpm", apperrors.Code(err))
	assert.False(t, h.uc.IsActive())
}

func TestUnboundedDurationFallsBackToMax(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.settings.values.DurationSec = nil
	ev := &events{}

	out, err := h.uc.Start(context.Background(), sessiondto.StartInput{Mode: "VIBRATION"}, ev.listener())
	require.NoError(t, err)
	assert.Equal(t, 3600, out.DurationSec)

	h.clock.Advance(time.Hour)
	assert.Equal(t, 1, ev.completes)
	assert.False(t, h.uc.IsActive(), "completion clears the active flag")
}

func TestBreathConfigConvertsSecondsToMillis(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	cycles := 2
	h.settings.values.Breath = settingsdto.Breath{Type: "two-phase", InhaleSec: 3, HoldSec: 9, ExhaleSec: 5, Cycles: &cycles}
	ev := &events{}

	out, err := h.uc.Start(context.Background(), sessiondto.StartInput{Mode: "breath"}, ev.listener())
	require.NoError(t, err)
	assert.Equal(t, "BREATH", out.Mode)

	cfg := h.engine.configs[0]
	require.NotNil(t, cfg.Breath)
	assert.Equal(t, guidancedto.BreathConfig{InhaleMS: 3000, ExhaleMS: 5000, Cycles: 2, HapticsPatternMS: []int{250}}, *cfg.Breath)

	h.clock.Advance(16 * time.Second)
	assert.Equal(t, 1, ev.completes)
	assert.Len(t, ev.steps, 4)
	assert.False(t, h.uc.IsActive())
}

func TestStaleSessionDoesNotClearNewerOne(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.uc.Start(ctx, sessiondto.StartInput{Mode: "VIBRATION"}, nil)
	require.NoError(t, err)
	require.NoError(t, h.uc.Stop(ctx))
	_, err = h.uc.Start(ctx, sessiondto.StartInput{Mode: "VIBRATION"}, nil)
	require.NoError(t, err)

	c := h.uc.(*Coordinator)
	c.sessionFinished(c.generation - 1)
	assert.True(t, h.uc.IsActive())
}

func TestUpdateVibrationBPM(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	assert.ErrorIs(t, h.uc.UpdateVibrationBPM(ctx, 80), apperrors.ErrNotVibrationActive)

	_, err := h.uc.Start(ctx, sessiondto.StartInput{Mode: "BREATH"}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, h.uc.UpdateVibrationBPM(ctx, 80), apperrors.ErrNotVibrationActive)
	require.NoError(t, h.uc.Stop(ctx))

	_, err = h.uc.Start(ctx, sessiondto.StartInput{Mode: "VIBRATION"}, nil)
	require.NoError(t, err)
	assert.NoError(t, h.uc.UpdateVibrationBPM(ctx, 80))
}

type plainEngine struct{}

func (plainEngine) IsActive() bool { return false }
func (plainEngine) StartGuidance(context.Context, guidancedto.Config, guidancein.Listener) error {
	return nil
}
func (plainEngine) StopGuidance(context.Context) error { return nil }

func TestUpdateVibrationBPMWithoutCapability(t *testing.T) {
	t.Parallel()
	clk := clock.NewManual(start)
	uc := NewCoordinator(plainEngine{}, &fakeSettings{values: defaultSettings()}, service.NewRecordService(clk, &memoryStore{}, nil, nil), clk, Options{})
	_, err := uc.Start(context.Background(), sessiondto.StartInput{Mode: "VIBRATION"}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, uc.UpdateVibrationBPM(context.Background(), 90), apperrors.ErrUnsupported)
}

func intPtr(v int) *int { return &v }
