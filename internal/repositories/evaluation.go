package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/skill-evaluator/internal/models"
)

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository stores records in PostgreSQL through gorm.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Append(ctx context.Context, rec *models.EvaluationRecord) error {
	prepareRecord(rec)

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.EvaluationRecord{}).Where("id = ?", rec.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check evaluation: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}

	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create evaluation: %w", err)
	}
	return nil
}

func (r *evaluationRepository) ListByUser(ctx context.Context, userID string) ([]models.EvaluationRecord, error) {
	var records []models.EvaluationRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return records, nil
}

func (r *evaluationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.EvaluationRecord, error) {
	var rec models.EvaluationRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find evaluation: %w", err)
	}
	return &rec, nil
}
