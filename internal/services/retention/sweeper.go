// Package retention prunes aged run directories from the output base on a
// daily schedule.
package retention

import (
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// runDirPattern matches allocated run directories; anything else under the
// output base is left alone.
var runDirPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})_run_(\d+)$`)

// Sweeper removes run directories older than the retention window.
type Sweeper struct {
	outputDir     string
	retentionDays int
	cron          *cron.Cron
	logger        arbor.ILogger

	now func() time.Time
}

// NewSweeper creates a retention sweeper. A retentionDays of zero or less
// disables sweeping entirely.
func NewSweeper(outputDir string, retentionDays int, logger arbor.ILogger) *Sweeper {
	return &Sweeper{
		outputDir:     outputDir,
		retentionDays: retentionDays,
		cron:          cron.New(),
		logger:        logger,
		now:           time.Now,
	}
}

// Start schedules the daily sweep. The first sweep runs at the next 03:00.
func (s *Sweeper) Start() error {
	if s.retentionDays <= 0 {
		s.logger.Info().Msg("Run retention disabled")
		return nil
	}

	_, err := s.cron.AddFunc("0 3 * * *", func() {
		s.Sweep()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Int("retention_days", s.retentionDays).
		Str("output_dir", s.outputDir).
		Msg("Run retention sweeper started")
	return nil
}

// Stop stops the scheduler.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// Sweep removes run directories whose encoded date is older than the
// retention window. Removal failures are logged and skipped.
func (s *Sweeper) Sweep() {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Retention sweep could not read output directory")
		return
	}

	cutoff := s.now().AddDate(0, 0, -s.retentionDays)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		match := runDirPattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		runDate, err := time.Parse("2006-01-02", match[1])
		if err != nil {
			continue
		}
		if !runDate.Before(cutoff) {
			continue
		}

		path := filepath.Join(s.outputDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			s.logger.Warn().
				Str("run", entry.Name()).
				Err(err).
				Msg("Failed to remove aged run directory")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().
			Int("removed", removed).
			Msg("Retention sweep removed aged runs")
	}
}
