// Package checklist manages per-region audit checklist configurations on
// disk: resolution of the checklist directory, cached loads, and atomic
// replacement through the editor API.
package checklist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/models"
)

// dockerChecklistDir is probed when no directory is configured.
const dockerChecklistDir = "/app/checklists"

// Store loads and caches checklists per region. Loads after the first are
// served from memory; Replace writes atomically and evicts the cache entry
// so the next load observes the new version.
type Store struct {
	dir      string
	logger   arbor.ILogger
	validate *validator.Validate

	mu    sync.RWMutex
	cache map[models.Region]*models.Checklist
}

// NewStore resolves the checklist directory and creates the store.
// Resolution order: configured directory (CHECKLISTS_DIR), the container
// path /app/checklists if it exists, then a checklists directory next to
// the executable.
func NewStore(cfg *common.Config, logger arbor.ILogger) *Store {
	dir := resolveDir(cfg.Checklists.Dir)
	logger.Info().Str("dir", dir).Msg("Checklist directory resolved")

	return &Store{
		dir:      dir,
		logger:   logger,
		validate: validator.New(),
		cache:    make(map[models.Region]*models.Checklist),
	}
}

func resolveDir(configured string) string {
	if configured != "" {
		return configured
	}
	if info, err := os.Stat(dockerChecklistDir); err == nil && info.IsDir() {
		return dockerChecklistDir
	}
	exePath, err := os.Executable()
	if err != nil {
		return "checklists"
	}
	return filepath.Join(filepath.Dir(exePath), "checklists")
}

// Path returns the checklist file path for a region.
func (s *Store) Path(region models.Region) string {
	return filepath.Join(s.dir, strings.ToLower(string(region))+"_checklist.json")
}

// Load returns the region's checklist, reading from disk on first use.
func (s *Store) Load(region models.Region) (*models.Checklist, error) {
	s.mu.RLock()
	if cl, ok := s.cache[region]; ok {
		s.mu.RUnlock()
		return cl, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if cl, ok := s.cache[region]; ok {
		return cl, nil
	}

	path := s.Path(region)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checklist for region %s at %s: %w", region, path, err)
	}

	cl, err := s.parse(region, data)
	if err != nil {
		return nil, err
	}

	s.cache[region] = cl
	s.logger.Info().
		Str("region", string(region)).
		Str("version", cl.Version).
		Int("header_checks", len(cl.HeaderChecks())).
		Int("valuation_checks", len(cl.ValuationChecks())).
		Msg("Checklist loaded")
	return cl, nil
}

// Replace validates content and atomically swaps the region's checklist
// file, evicting the cache entry. A reader that loaded before the swap
// keeps its old version; no reader ever sees a torn file.
func (s *Store) Replace(region models.Region, content []byte) error {
	cl, err := s.parse(region, content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(region)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create checklist directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".checklist-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp checklist file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp checklist file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp checklist file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace checklist file: %w", err)
	}

	delete(s.cache, region)
	s.logger.Info().
		Str("region", string(region)).
		Str("version", cl.Version).
		Msg("Checklist replaced")
	return nil
}

// parse decodes and validates checklist JSON for a region.
func (s *Store) parse(region models.Region, data []byte) (*models.Checklist, error) {
	var cl models.Checklist
	if err := json.Unmarshal(data, &cl); err != nil {
		return nil, fmt.Errorf("invalid checklist JSON: %w", err)
	}
	if err := s.validate.Struct(&cl); err != nil {
		return nil, fmt.Errorf("checklist failed validation: %w", err)
	}
	if cl.Region != region {
		return nil, fmt.Errorf("checklist region %q does not match requested region %q", cl.Region, region)
	}
	if err := cl.ValidateIDs(); err != nil {
		return nil, fmt.Errorf("checklist failed validation: %w", err)
	}
	return &cl, nil
}
