package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// maxAllocationAttempts bounds the create-exclusive retry loop so a
// pathological directory state cannot spin forever.
const maxAllocationAttempts = 100

// ErrAllocationExhausted is returned when no free run number could be
// claimed within the attempt budget.
var ErrAllocationExhausted = errors.New("run allocation exhausted")

var runDirPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})_run_(\d+)$`)

// AllocateRun claims a fresh run directory under base named
// YYYY-MM-DD_run_NNN for the given day. The directory create is the claim
// itself: concurrent allocators racing for the same number collide on
// EEXIST and move to the next, so no two runs ever share a directory.
func AllocateRun(base string, now time.Time) (runID string, runPath string, err error) {
	if err := os.MkdirAll(base, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create output base directory: %w", err)
	}

	today := now.Format("2006-01-02")
	next := nextRunNumber(base, today)

	for attempt := 0; attempt < maxAllocationAttempts; attempt++ {
		candidate := fmt.Sprintf("%s_run_%03d", today, next)
		path := filepath.Join(base, candidate)
		err := os.Mkdir(path, 0755)
		if err == nil {
			return candidate, path, nil
		}
		if !os.IsExist(err) {
			return "", "", fmt.Errorf("failed to create run directory %s: %w", path, err)
		}
		next++
	}
	return "", "", fmt.Errorf("%w: no free run number for %s after %d attempts", ErrAllocationExhausted, today, maxAllocationAttempts)
}

// nextRunNumber scans existing run directories for today and returns one
// past the highest. The scan is only a starting hint; correctness comes
// from the exclusive create.
func nextRunNumber(base, today string) int {
	entries, err := os.ReadDir(base)
	if err != nil {
		return 1
	}

	next := 1
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		match := runDirPattern.FindStringSubmatch(entry.Name())
		if match == nil || match[1] != today {
			continue
		}
		if n, err := strconv.Atoi(match[2]); err == nil && n >= next {
			next = n + 1
		}
	}
	return next
}
