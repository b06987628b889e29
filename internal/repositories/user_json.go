package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/logger"
	"alfredoptarigan/skill-evaluator/internal/models"
)

type jsonUserRepository struct {
	root string
	mu   sync.RWMutex
	log  *zap.Logger
}

// NewJSONUserRepository stores one file per user under <dataDir>/users.
func NewJSONUserRepository(dataDir string, log *zap.Logger) (UserRepository, error) {
	root := filepath.Join(dataDir, "users")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create users directory: %w", err)
	}
	return &jsonUserRepository{root: root, log: logger.OrNop(log)}, nil
}

func (r *jsonUserRepository) Create(ctx context.Context, user *models.User) error {
	if safeSegment(user.ID) != user.ID || user.ID == "" {
		return fmt.Errorf("invalid user id %q", user.ID)
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.findByEmail(ctx, user.Email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing != nil {
		return ErrEmailExists
	}
	if _, err := os.Stat(r.path(user.ID)); err == nil {
		return fmt.Errorf("%w: %s", ErrDuplicateID, user.ID)
	}

	return r.write(user)
}

func (r *jsonUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (r *jsonUserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	if safeSegment(id) != id || id == "" {
		return nil, ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, err := readUser(r.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return user, err
}

func (r *jsonUserRepository) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	if safeSegment(id) != id || id == "" {
		return ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := readUser(r.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	user.LastLogin = &at
	return r.write(user)
}

func (r *jsonUserRepository) findByEmail(ctx context.Context, email string) (*models.User, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read users directory: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		user, err := readUser(filepath.Join(r.root, entry.Name()))
		if err != nil {
			r.log.Warn("⚠️ Skipping unreadable user file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		if user.Email == email {
			return user, nil
		}
	}
	return nil, ErrNotFound
}

func (r *jsonUserRepository) path(id string) string {
	return filepath.Join(r.root, id+".json")
}

func (r *jsonUserRepository) write(user *models.User) error {
	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := writeFileAtomic(r.path(user.ID), data); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func readUser(path string) (*models.User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("invalid user file: %w", err)
	}
	return &user, nil
}
