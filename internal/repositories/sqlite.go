package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"

	"alfredoptarigan/skill-evaluator/internal/models"
)

// SQLite extended result codes for constraint violations.
const (
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	"id" TEXT PRIMARY KEY,
	"name" TEXT NOT NULL,
	"email" TEXT NOT NULL UNIQUE,
	"password_hash" TEXT NOT NULL,
	"created_at" INTEGER NOT NULL,
	"last_login" INTEGER
);
CREATE TABLE IF NOT EXISTS evaluations (
	"id" TEXT PRIMARY KEY,
	"user_id" TEXT NOT NULL,
	"session_id" TEXT,
	"mode" TEXT NOT NULL,
	"filename" TEXT,
	"input_ref" TEXT,
	"resume_text" TEXT,
	"job_description" TEXT,
	"job_role" TEXT,
	"question" TEXT,
	"answer" TEXT,
	"result" TEXT NOT NULL,
	"created_at" INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evaluations_user_created ON evaluations(user_id, created_at);
`

// MigrateSQLite creates the tables used by the SQLite repositories.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return nil
}

func sqliteCode(err error) int {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()
	}
	return 0
}

type sqliteEvaluationRepository struct {
	db *sql.DB
}

func NewSQLiteEvaluationRepository(db *sql.DB) EvaluationRepository {
	return &sqliteEvaluationRepository{db: db}
}

func (r *sqliteEvaluationRepository) Append(ctx context.Context, rec *models.EvaluationRecord) error {
	prepareRecord(rec)

	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to encode evaluation result: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO evaluations
		(id, user_id, session_id, mode, filename, input_ref, resume_text, job_description, job_role, question, answer, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.UserID, rec.SessionID, string(rec.Mode), rec.Filename, rec.InputRef,
		rec.ResumeText, rec.JobDescription, rec.JobRole, rec.Question, rec.Answer,
		string(result), rec.CreatedAt.UTC().UnixNano(),
	)
	if err != nil {
		if code := sqliteCode(err); code == sqliteConstraintPrimaryKey || code == sqliteConstraintUnique {
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
		return fmt.Errorf("failed to create evaluation: %w", err)
	}
	return nil
}

const evaluationColumns = `id, user_id, session_id, mode, filename, input_ref, resume_text, job_description, job_role, question, answer, result, created_at`

func (r *sqliteEvaluationRepository) ListByUser(ctx context.Context, userID string) ([]models.EvaluationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE user_id = ? ORDER BY created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	defer rows.Close()

	records := []models.EvaluationRecord{}
	for rows.Next() {
		rec, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return records, nil
}

func (r *sqliteEvaluationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.EvaluationRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+evaluationColumns+` FROM evaluations WHERE id = ?`, id.String())
	rec, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row rowScanner) (*models.EvaluationRecord, error) {
	var (
		rec       models.EvaluationRecord
		id, mode  string
		result    string
		createdAt int64
		nullable  [8]sql.NullString
	)

	err := row.Scan(&id, &rec.UserID, &nullable[0], &mode, &nullable[1], &nullable[2], &nullable[3],
		&nullable[4], &nullable[5], &nullable[6], &nullable[7], &result, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan evaluation: %w", err)
	}

	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid evaluation id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(result), &rec.Result); err != nil {
		return nil, fmt.Errorf("invalid evaluation result: %w", err)
	}

	rec.Mode = models.Mode(mode)
	rec.SessionID = nullable[0].String
	rec.Filename = nullable[1].String
	rec.InputRef = nullable[2].String
	rec.ResumeText = nullable[3].String
	rec.JobDescription = nullable[4].String
	rec.JobRole = nullable[5].String
	rec.Question = nullable[6].String
	rec.Answer = nullable[7].String
	rec.CreatedAt = time.Unix(0, createdAt).UTC()

	return &rec, nil
}

type sqliteUserRepository struct {
	db *sql.DB
}

func NewSQLiteUserRepository(db *sql.DB) UserRepository {
	return &sqliteUserRepository{db: db}
}

func (r *sqliteUserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt.UTC().UnixNano())
	if err != nil {
		switch sqliteCode(err) {
		case sqliteConstraintUnique:
			return ErrEmailExists
		case sqliteConstraintPrimaryKey:
			return fmt.Errorf("%w: %s", ErrDuplicateID, user.ID)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *sqliteUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *sqliteUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *sqliteUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at.UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteUserRepository) first(ctx context.Context, where string, arg any) (*models.User, error) {
	var (
		user      models.User
		createdAt int64
		lastLogin sql.NullInt64
	)

	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at, last_login FROM users WHERE `+where, arg)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &createdAt, &lastLogin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.CreatedAt = time.Unix(0, createdAt).UTC()
	if lastLogin.Valid {
		t := time.Unix(0, lastLogin.Int64).UTC()
		user.LastLogin = &t
	}
	return &user, nil
}
