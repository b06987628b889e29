package repositories

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"alfredoptarigan/skill-evaluator/internal/models"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := MigrateSQLite(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func evaluationStores(t *testing.T) map[string]EvaluationRepository {
	t.Helper()

	jsonRepo, err := NewJSONEvaluationRepository(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("json repo: %v", err)
	}
	return map[string]EvaluationRepository{
		"json":   jsonRepo,
		"sqlite": NewSQLiteEvaluationRepository(openSQLite(t)),
	}
}

func newRecord(userID string, createdAt time.Time, score float64) *models.EvaluationRecord {
	return &models.EvaluationRecord{
		UserID:    userID,
		SessionID: uuid.NewString(),
		Mode:      models.ModeInterview,
		Question:  "Tell me about yourself.",
		Answer:    "I build reliable systems.",
		Result: models.EvaluationResult{
			Mode:        models.ModeInterview,
			TotalScore:  score,
			LetterGrade: "C - Satisfactory",
			Categories: []models.CategoryResult{
				{Key: "clarity", Name: "Clarity & Communication", Score: 7, MaxScore: 10, Percent: 70},
			},
			Engine: "heuristic",
		},
		CreatedAt: createdAt,
	}
}

func TestEvaluationHistoryIsAppendOnlyAndNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, repo := range evaluationStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for i := 0; i < 5; i++ {
				if err := repo.Append(ctx, newRecord("user1", base.Add(time.Duration(i)*time.Minute), float64(60+i))); err != nil {
					t.Fatalf("append %d: %v", i, err)
				}
			}
			if err := repo.Append(ctx, newRecord("user2", base, 99)); err != nil {
				t.Fatalf("append other user: %v", err)
			}

			history, err := repo.ListByUser(ctx, "user1")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(history) != 5 {
				t.Fatalf("expected 5 records, got %d", len(history))
			}
			for i := 1; i < len(history); i++ {
				if history[i-1].CreatedAt.Before(history[i].CreatedAt) {
					t.Fatalf("history not newest first at %d", i)
				}
			}
			if history[0].Result.TotalScore != 64 {
				t.Fatalf("expected newest record first, got score %v", history[0].Result.TotalScore)
			}
			if history[0].Result.Categories[0].Name != "Clarity & Communication" {
				t.Fatalf("result not round-tripped: %+v", history[0].Result)
			}
		})
	}
}

func TestEvaluationTiesOrderedByID(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, repo := range evaluationStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 3; i++ {
				if err := repo.Append(ctx, newRecord("tied", at, 70)); err != nil {
					t.Fatalf("append: %v", err)
				}
			}

			history, err := repo.ListByUser(ctx, "tied")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(history) != 3 {
				t.Fatalf("expected 3 records with the same timestamp, got %d", len(history))
			}
			for i := 1; i < len(history); i++ {
				if history[i-1].ID.String() > history[i].ID.String() {
					t.Fatalf("ties not ordered by id")
				}
			}
		})
	}
}

func TestEvaluationFindByIDAndDuplicates(t *testing.T) {
	for name, repo := range evaluationStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := newRecord("finder", time.Now().UTC(), 75)
			if err := repo.Append(ctx, rec); err != nil {
				t.Fatalf("append: %v", err)
			}
			if rec.ID == uuid.Nil {
				t.Fatalf("expected id to be assigned")
			}

			found, err := repo.FindByID(ctx, rec.ID)
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if found.UserID != "finder" || found.Result.TotalScore != 75 {
				t.Fatalf("unexpected record %+v", found)
			}

			dup := newRecord("finder", time.Now().UTC(), 10)
			dup.ID = rec.ID
			if err := repo.Append(ctx, dup); !errors.Is(err, ErrDuplicateID) {
				t.Fatalf("expected duplicate id error, got %v", err)
			}

			if _, err := repo.FindByID(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
		})
	}
}

func TestEvaluationListUnknownUserIsEmpty(t *testing.T) {
	for name, repo := range evaluationStores(t) {
		t.Run(name, func(t *testing.T) {
			history, err := repo.ListByUser(context.Background(), "nobody")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(history) != 0 {
				t.Fatalf("expected empty history, got %d", len(history))
			}
		})
	}
}

func TestJSONEvaluationFileLayout(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewJSONEvaluationRepository(dir, nil)
	if err != nil {
		t.Fatalf("repo: %v", err)
	}

	rec := newRecord("abc123", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), 80)
	if err := repo.Append(context.Background(), rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	want := filepath.Join(dir, "history", "abc123", "evaluation_20260102_030405_"+rec.ID.String()+".json")
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("expected file %s: %v", want, err)
	}
	if !strings.Contains(string(data), `"evaluation"`) || !strings.Contains(string(data), `"timestamp"`) {
		t.Fatalf("unexpected file content: %s", data)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "history", "abc123"))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestJSONEvaluationSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewJSONEvaluationRepository(dir, nil)
	if err != nil {
		t.Fatalf("repo: %v", err)
	}
	ctx := context.Background()

	if err := repo.Append(ctx, newRecord("u1", time.Now().UTC(), 50)); err != nil {
		t.Fatalf("append: %v", err)
	}
	corrupt := filepath.Join(dir, "history", "u1", "evaluation_20200101_000000_broken.json")
	if err := os.WriteFile(corrupt, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}

	history, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected corrupt file to be skipped, got %d records", len(history))
	}
}

func userStores(t *testing.T) map[string]UserRepository {
	t.Helper()

	jsonRepo, err := NewJSONUserRepository(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("json repo: %v", err)
	}
	return map[string]UserRepository{
		"json":   jsonRepo,
		"sqlite": NewSQLiteUserRepository(openSQLite(t)),
	}
}

func TestUserRepositories(t *testing.T) {
	for name, repo := range userStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := &models.User{
				ID:           "a1b2c3",
				Name:         "Ada",
				Email:        "  Ada@Example.COM ",
				PasswordHash: "hash",
				CreatedAt:    time.Now().UTC(),
			}
			if err := repo.Create(ctx, user); err != nil {
				t.Fatalf("create: %v", err)
			}

			found, err := repo.FindByEmail(ctx, "ada@example.com")
			if err != nil {
				t.Fatalf("find by email: %v", err)
			}
			if found.ID != "a1b2c3" || found.Email != "ada@example.com" || found.LastLogin != nil {
				t.Fatalf("unexpected user %+v", found)
			}

			dup := &models.User{ID: "d4e5f6", Name: "Other", Email: "ADA@example.com", PasswordHash: "x", CreatedAt: time.Now()}
			if err := repo.Create(ctx, dup); !errors.Is(err, ErrEmailExists) {
				t.Fatalf("expected email exists, got %v", err)
			}

			at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
			if err := repo.UpdateLastLogin(ctx, "a1b2c3", at); err != nil {
				t.Fatalf("update last login: %v", err)
			}
			byID, err := repo.FindByID(ctx, "a1b2c3")
			if err != nil {
				t.Fatalf("find by id: %v", err)
			}
			if byID.LastLogin == nil || !byID.LastLogin.Equal(at) {
				t.Fatalf("last login not updated: %v", byID.LastLogin)
			}

			if _, err := repo.FindByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
			if err := repo.UpdateLastLogin(ctx, "missing", at); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected not found on update, got %v", err)
			}
		})
	}
}
