package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/adforge/internal/domain"
	"github.com/bnema/adforge/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	historyFileMode   = 0o600
	historyDirMode    = 0o700
	tempFilePattern   = ".history-*.toml.tmp"
	DefaultMaxEntries = 200
)

// HistoryRepository appends finished runs to a TOML file, keeping at most
// maxEntries of the most recent ones.
type HistoryRepository struct {
	path       string
	maxEntries int
	mu         *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.ManifestRepository = (*HistoryRepository)(nil)

func NewHistoryRepository(path string, maxEntries int) (*HistoryRepository, error) {
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve history path: %w", err)
	}
	absPath = filepath.Clean(absPath)
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	return &HistoryRepository{path: absPath, maxEntries: maxEntries, mu: lockForPath(absPath)}, nil
}

func (r *HistoryRepository) Path() string {
	return r.path
}

func (r *HistoryRepository) Append(ctx context.Context, record ports.ManifestRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	file.Runs = append(file.Runs, toSchema(record))
	if overflow := len(file.Runs) - r.maxEntries; overflow > 0 {
		file.Runs = append([]runSchema(nil), file.Runs[overflow:]...)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return r.writeSchema(file)
}

// List returns recorded runs, oldest first.
func (r *HistoryRepository) List(ctx context.Context) ([]ports.ManifestRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	records := make([]ports.ManifestRecord, 0, len(file.Runs))
	for _, run := range file.Runs {
		records = append(records, fromSchema(run))
	}
	return records, nil
}

func (r *HistoryRepository) readSchema() (historySchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return historySchema{Version: currentSchemaVersion}, nil
		}
		return historySchema{}, fmt.Errorf("read history file: %w", err)
	}

	var file historySchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return historySchema{}, fmt.Errorf("decode history file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return historySchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *HistoryRepository) writeSchema(file historySchema) error {
	file.applyDefaults()

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, historyDirMode); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode history file: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp history file: %w", err)
	}
	if err := tempFile.Chmod(historyFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp history file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp history file: %w", err)
	}
	if err := os.Rename(tempName, r.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}
	cleanup = false

	return nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func toSchema(record ports.ManifestRecord) runSchema {
	variants := make([]variantSchema, 0, len(record.Entries))
	for _, entry := range record.Entries {
		variants = append(variants, variantSchema{
			Style:         string(entry.Style),
			ArtifactRef:   string(entry.ArtifactRef),
			FailureReason: entry.FailureReason,
			Attempts:      entry.Attempts,
		})
	}

	return runSchema{
		SessionID:     string(record.SessionID),
		Stage:         string(record.Stage),
		FailureReason: string(record.FailureReason),
		Category:      string(record.Category),
		CompletedAt:   formatTime(record.CompletedAt),
		Variants:      variants,
	}
}

func fromSchema(run runSchema) ports.ManifestRecord {
	entries := make([]domain.ManifestEntry, 0, len(run.Variants))
	for _, variant := range run.Variants {
		entries = append(entries, domain.ManifestEntry{
			Style:         domain.VariantStyle(variant.Style),
			ArtifactRef:   domain.ArtifactRef(variant.ArtifactRef),
			FailureReason: variant.FailureReason,
			Attempts:      variant.Attempts,
		})
	}

	return ports.ManifestRecord{
		SessionID:     domain.SessionID(run.SessionID),
		Stage:         domain.Stage(run.Stage),
		FailureReason: domain.FailureReason(run.FailureReason),
		Category:      domain.Category(run.Category),
		Entries:       entries,
		CompletedAt:   parseTime(run.CompletedAt),
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
