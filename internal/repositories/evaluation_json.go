package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/logger"
	"alfredoptarigan/skill-evaluator/internal/models"
)

const historyDir = "history"

// jsonEvaluationRepository keeps one JSON file per record:
// <dataDir>/history/<user_id>/evaluation_<YYYYmmdd_HHMMSS>_<id>.json
type jsonEvaluationRepository struct {
	root string
	mu   sync.RWMutex
	log  *zap.Logger
}

func NewJSONEvaluationRepository(dataDir string, log *zap.Logger) (EvaluationRepository, error) {
	root := filepath.Join(dataDir, historyDir)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &jsonEvaluationRepository{root: root, log: logger.OrNop(log)}, nil
}

func (r *jsonEvaluationRepository) Append(ctx context.Context, rec *models.EvaluationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	owner := safeSegment(rec.UserID)
	if owner == "" {
		return fmt.Errorf("evaluation record has no user id")
	}
	prepareRecord(rec)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, _ := r.locate(rec.ID); existing != "" {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}

	dir := filepath.Join(r.root, owner)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode evaluation: %w", err)
	}

	name := fmt.Sprintf("evaluation_%s_%s.json", rec.CreatedAt.UTC().Format("20060102_150405"), rec.ID)
	if err := writeFileAtomic(filepath.Join(dir, name), data); err != nil {
		return fmt.Errorf("failed to save evaluation: %w", err)
	}
	return nil
}

func (r *jsonEvaluationRepository) ListByUser(ctx context.Context, userID string) ([]models.EvaluationRecord, error) {
	owner := safeSegment(userID)
	if owner == "" {
		return []models.EvaluationRecord{}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	dir := filepath.Join(r.root, owner)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []models.EvaluationRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	records := make([]models.EvaluationRecord, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "evaluation_") || !strings.HasSuffix(name, ".json") {
			continue
		}

		rec, err := readRecord(filepath.Join(dir, name))
		if err != nil {
			r.log.Warn("⚠️ Skipping unreadable history file", zap.String("file", name), zap.Error(err))
			continue
		}
		records = append(records, *rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return newestFirst(&records[i], &records[j])
	})
	return records, nil
}

func (r *jsonEvaluationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.EvaluationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	path, err := r.locate(id)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, ErrNotFound
	}
	return readRecord(path)
}

func (r *jsonEvaluationRepository) locate(id uuid.UUID) (string, error) {
	matches, err := filepath.Glob(filepath.Join(r.root, "*", "evaluation_*_"+id.String()+".json"))
	if err != nil {
		return "", fmt.Errorf("failed to search history: %w", err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0], nil
}

func readRecord(path string) (*models.EvaluationRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec models.EvaluationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("invalid evaluation file: %w", err)
	}
	return &rec, nil
}

// writeFileAtomic writes to a temp file in the same directory and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func safeSegment(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, s)
}
