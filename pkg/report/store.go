package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/slotfit/pkg/config"
	"github.com/matzehuels/slotfit/pkg/errors"
)

// Store persists reports.
type Store interface {
	// Save stores rep under its run id, replacing any earlier version.
	Save(ctx context.Context, rep *Report) error
	// Load returns the report for runID, or a NOT_FOUND error.
	Load(ctx context.Context, runID string) (*Report, error)
	// List returns summaries of stored reports, newest first.
	List(ctx context.Context) ([]Summary, error)
	Close() error
}

// Open creates the store selected by cfg. It returns nil for the none
// backend.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	switch cfg.Backend {
	case config.BackendNone, "":
		return nil, nil
	case config.BackendFile:
		s, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendMongo:
		s, err := NewMongoStore(ctx, cfg.MongoURI, cfg.Database, cfg.Collection)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", cfg.Backend)
}

// FileStore keeps one JSON file per run in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based report store.
// If baseDir is empty, defaults to ~/.local/share/slotfit/reports/.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "get home dir")
		}
		baseDir = filepath.Join(home, ".local", "share", "slotfit", "reports")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "create report dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) reportPath(runID string) string {
	return filepath.Join(s.baseDir, runID+".json")
}

func (s *FileStore) Save(ctx context.Context, rep *Report) error {
	if err := errors.ValidateIdentifier("run id", rep.RunID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	tmp := s.reportPath(rep.RunID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "write report file")
	}
	if err := os.Rename(tmp, s.reportPath(rep.RunID)); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeStore, err, "write report file")
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, runID string) (*Report, error) {
	if err := errors.ValidateIdentifier("run id", runID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.reportPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeNotFound, "report %s not found", runID)
		}
		return nil, errors.Wrap(errors.ErrCodeStore, err, "read report file")
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "parse report %s", runID)
	}
	return &rep, nil
}

func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "read report dir")
	}
	var out []Summary
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		var rep Report
		if err := json.Unmarshal(data, &rep); err != nil {
			continue
		}
		out = append(out, rep.Summarize())
	}
	sortSummaries(out)
	return out, nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for report files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)

func sortSummaries(ss []Summary) {
	slices.SortFunc(ss, func(a, b Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.RunID, b.RunID)
	})
}
