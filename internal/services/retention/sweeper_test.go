package retention

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestSweep_RemovesOnlyAgedRuns(t *testing.T) {
	outputDir := t.TempDir()
	for _, name := range []string{
		"2025-10-01_run_001", // aged
		"2025-10-01_run_002", // aged
		"2025-11-10_run_001", // recent
		"notes",              // foreign directory, untouched
	} {
		require.NoError(t, os.Mkdir(filepath.Join(outputDir, name), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "2025-09-01_run_001"), nil, 0644))

	s := NewSweeper(outputDir, 30, arbor.NewLogger())
	s.now = func() time.Time { return time.Date(2025, 11, 12, 8, 0, 0, 0, time.UTC) }

	s.Sweep()

	assert.NoDirExists(t, filepath.Join(outputDir, "2025-10-01_run_001"))
	assert.NoDirExists(t, filepath.Join(outputDir, "2025-10-01_run_002"))
	assert.DirExists(t, filepath.Join(outputDir, "2025-11-10_run_001"))
	assert.DirExists(t, filepath.Join(outputDir, "notes"))
	// Non-directories are never swept even with a run-like name
	assert.FileExists(t, filepath.Join(outputDir, "2025-09-01_run_001"))
}

func TestSweep_KeepsRunsAtBoundary(t *testing.T) {
	outputDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(outputDir, "2025-10-13_run_001"), 0755))

	s := NewSweeper(outputDir, 30, arbor.NewLogger())
	s.now = func() time.Time { return time.Date(2025, 11, 12, 0, 0, 0, 0, time.UTC) }

	s.Sweep()

	// Exactly at the cutoff date is retained
	assert.DirExists(t, filepath.Join(outputDir, "2025-10-13_run_001"))
}

func TestStart_DisabledWithoutRetention(t *testing.T) {
	s := NewSweeper(t.TempDir(), 0, arbor.NewLogger())
	require.NoError(t, s.Start())
	s.Stop()
}

func TestSweep_MissingOutputDir(t *testing.T) {
	s := NewSweeper(filepath.Join(t.TempDir(), "absent"), 30, arbor.NewLogger())
	// Must not panic
	s.Sweep()
}
