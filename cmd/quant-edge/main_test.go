package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quant-edge/internal/models"
	"github.com/yourusername/quant-edge/internal/report"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunRejectsMalformedDate(t *testing.T) {
	_, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--date", "17-10-2026")
	require.Error(t, err)
	assert.Equal(t, models.MsgInvalidDate, err.Error())
	assert.Equal(t, "Invalid date format. Use YYYY-MM-DD.", err.Error())
}

func TestRunRejectsPastDateWithoutOverride(t *testing.T) {
	_, err := execute(t, "run",
		"--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--output", filepath.Join(t.TempDir(), "out.json"),
		"--date", "2001-01-01",
	)
	assert.ErrorIs(t, err, models.ErrOverrideRejected)
}

func TestRunRejectsLowIterations(t *testing.T) {
	_, err := execute(t, "run",
		"--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--output", filepath.Join(t.TempDir(), "out.json"),
		"--iterations", "500",
	)
	assert.ErrorIs(t, err, models.ErrInvalidSimulationConfig)
}

func TestRunMissingSnapshotWritesAbortedReport(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "reports", "today_latest.json")

	out, err := execute(t, "run",
		"--config", filepath.Join(dir, "none.yaml"),
		"--snapshot", filepath.Join(dir, "missing-{date}.json"),
		"--output", output,
		"--date", "2001-01-01",
		"--allow-manual-override",
		"--seed", "7",
	)
	require.NoError(t, err, "aborted runs exit cleanly")

	var printed models.Report
	require.NoError(t, json.Unmarshal([]byte(out), &printed))
	assert.Equal(t, models.StatusAbortedNoLiveData, printed.Status)
	assert.Equal(t, "Live data unavailable. Analysis aborted.", printed.Message)
	assert.True(t, printed.ManualOverrideUsed)

	onDisk, err := report.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, printed.Status, onDisk.Status)
}

func TestRunInvalidConfigFails(t *testing.T) {
	t.Setenv("QUANT_EDGE_ODDS_VIG_REMOVAL", "power")
	_, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
