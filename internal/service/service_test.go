package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quant-edge/internal/config"
	"github.com/yourusername/quant-edge/internal/models"
	"github.com/yourusername/quant-edge/internal/odds"
	"github.com/yourusername/quant-edge/internal/pipeline"
	"github.com/yourusername/quant-edge/internal/report"
	"github.com/yourusername/quant-edge/internal/repository"
	"github.com/yourusername/quant-edge/internal/reset"
	"github.com/yourusername/quant-edge/internal/simulation"
	"github.com/yourusername/quant-edge/internal/testutil"
)

type fakeSource struct {
	snap    *models.DataSnapshot
	err     error
	fetches int
	resets  int
}

func (f *fakeSource) Name() string { return "fake" }
func (f *fakeSource) Reset()       { f.resets++ }

func (f *fakeSource) FetchSnapshot(ctx context.Context, runDate models.Date) (*models.DataSnapshot, error) {
	f.fetches++
	return f.snap, f.err
}

type fakeArchive struct {
	saved []*models.Report
	err   error
}

func (a *fakeArchive) Save(ctx context.Context, r *models.Report) (uuid.UUID, error) {
	if a.err != nil {
		return uuid.Nil, a.err
	}
	a.saved = append(a.saved, r)
	return uuid.New(), nil
}

func (a *fakeArchive) GetByID(context.Context, uuid.UUID) (*repository.ArchivedReport, error) {
	return nil, models.ErrNotFound
}

func (a *fakeArchive) GetLatest(context.Context, models.Date) (*repository.ArchivedReport, error) {
	return nil, models.ErrNotFound
}

func (a *fakeArchive) ListRecent(context.Context, int) ([]*repository.ArchivedReport, error) {
	return nil, nil
}

func newService(t *testing.T, source *fakeSource, opts ...Option) *ReportService {
	t.Helper()
	controller := reset.NewController(time.UTC, reset.WithClock(testutil.Clock))
	p, err := pipeline.New(pipeline.Config{
		Iterations: simulation.MinIterations,
		Simulation: simulation.Config{Seed: 11, Workers: 2},
		VigRemoval: odds.VigNone,
	}, controller, nil)
	require.NoError(t, err)
	return NewReportService(p, source, nil, opts...)
}

func TestRunPublishesToEveryDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "today_latest.json")
	archive := &fakeArchive{}
	source := &fakeSource{snap: testutil.Snapshot()}
	svc := newService(t, source, WithFileWriter(report.NewFileWriter(path)), WithArchive(archive))

	rep, err := svc.Run(context.Background(), pipeline.Request{Origin: "test"})
	require.NoError(t, err)

	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.Same(t, rep, latest)
	byDate, ok := svc.ForDate(rep.RunDate)
	require.True(t, ok)
	assert.Same(t, rep, byDate)

	onDisk, err := report.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, rep.Status, onDisk.Status)
	assert.Equal(t, len(rep.Plays), len(onDisk.Plays))

	require.Len(t, archive.saved, 1)
	assert.Same(t, rep, archive.saved[0])
}

func TestRunPublishesAbortedReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "today_latest.json")
	source := &fakeSource{err: errors.New("upstream timeout")}
	svc := newService(t, source, WithFileWriter(report.NewFileWriter(path)))

	rep, err := svc.Run(context.Background(), pipeline.Request{})

	assert.ErrorIs(t, err, models.ErrDataUnavailable)
	require.NotNil(t, rep)
	assert.Equal(t, models.StatusAbortedNoLiveData, rep.Status)

	onDisk, err := report.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, models.MsgLiveDataUnavailable, onDisk.Message)
	assert.Empty(t, onDisk.Plays)
}

func TestRunOverrideRejectedPublishesNothing(t *testing.T) {
	source := &fakeSource{snap: testutil.Snapshot()}
	svc := newService(t, source)
	other := testutil.RunDate.AddDays(-1)

	rep, err := svc.Run(context.Background(), pipeline.Request{Date: &other})

	assert.ErrorIs(t, err, models.ErrOverrideRejected)
	assert.Nil(t, rep)
	assert.Zero(t, source.fetches)
	_, ok := svc.Latest()
	assert.False(t, ok)
}

func TestSourceResetEveryRun(t *testing.T) {
	source := &fakeSource{snap: testutil.Snapshot()}
	svc := newService(t, source)

	for i := 0; i < 2; i++ {
		source.snap = testutil.Snapshot()
		_, err := svc.Run(context.Background(), pipeline.Request{})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, source.resets)
}

func TestArchiveFailureDoesNotFailRun(t *testing.T) {
	source := &fakeSource{snap: testutil.Snapshot()}
	svc := newService(t, source, WithArchive(&fakeArchive{err: errors.New("db down")}))

	rep, err := svc.Run(context.Background(), pipeline.Request{})
	require.NoError(t, err)
	assert.NotNil(t, rep)
}

func TestWriteFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, report.NewFileWriter(blocker).Write(&models.Report{}))

	source := &fakeSource{snap: testutil.Snapshot()}
	svc := newService(t, source, WithFileWriter(report.NewFileWriter(filepath.Join(blocker, "today.json"))))

	rep, err := svc.Run(context.Background(), pipeline.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write report")
	assert.NotNil(t, rep)

	_, ok := svc.Latest()
	assert.True(t, ok, "the in-memory store is updated even when the file write fails")
}

func TestFirstTipoff(t *testing.T) {
	snap := testutil.Snapshot()
	early := snap.Schedule[0]
	early.GameID = "g0"
	early.TipoffTime = early.TipoffTime.Add(-2 * time.Hour)
	snap.Schedule = append(snap.Schedule, early)

	svc := newService(t, &fakeSource{snap: snap})
	first, ok, err := svc.FirstTipoff(context.Background(), testutil.RunDate)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, early.TipoffTime, first)

	empty := testutil.Snapshot()
	empty.Schedule = nil
	_, ok, err = newService(t, &fakeSource{snap: empty}).FirstTipoff(context.Background(), testutil.RunDate)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPipelineConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Odds.VigRemoval = "multiplicative"
	cfg.Simulation.Iterations = 25000
	cfg.Simulation.Workers = 3
	cfg.Simulation.Seed = 99
	cfg.Ranking.MinEdge = 0.05
	cfg.Ranking.MaxPlays = 4

	pcfg, err := PipelineConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, odds.VigMultiplicative, pcfg.VigRemoval)
	assert.Equal(t, 25000, pcfg.Iterations)
	assert.Equal(t, 3, pcfg.Simulation.Workers)
	assert.Equal(t, int64(99), pcfg.Simulation.Seed)
	assert.Equal(t, simulation.DefaultMarginSD, pcfg.Simulation.MarginSD)
	assert.Equal(t, 0.05, pcfg.MinEdge)
	assert.Equal(t, 4, pcfg.MaxPlays)

	cfg.Odds.VigRemoval = "power"
	_, err = PipelineConfig(cfg)
	assert.Error(t, err)
}

func TestBuildFromConfig(t *testing.T) {
	cfg, err := config.LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Source.Path = filepath.Join(t.TempDir(), "snapshot-{date}.json")
	cfg.Report.OutputPath = filepath.Join(t.TempDir(), "today_latest.json")

	comps, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer comps.Close()

	assert.Nil(t, comps.DB)
	assert.NotNil(t, comps.Service)

	rep, err := comps.Service.Run(context.Background(), pipeline.Request{})
	assert.ErrorIs(t, err, models.ErrDataUnavailable, "missing snapshot file aborts the run")
	require.NotNil(t, rep)
	assert.Equal(t, models.StatusAbortedNoLiveData, rep.Status)
}
