package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/skill-evaluator/internal/models"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicateID = errors.New("record with this id already exists")
	ErrEmailExists = errors.New("user with this email already exists")
)

// EvaluationRepository is the append-only history of evaluation records.
type EvaluationRepository interface {
	Append(ctx context.Context, rec *models.EvaluationRecord) error
	// ListByUser returns every record of the user, newest first. Ties are ordered by id.
	ListByUser(ctx context.Context, userID string) ([]models.EvaluationRecord, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.EvaluationRecord, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// prepareRecord fills the id and creation time of a record about to be appended.
func prepareRecord(rec *models.EvaluationRecord) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

func newestFirst(a, b *models.EvaluationRecord) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
