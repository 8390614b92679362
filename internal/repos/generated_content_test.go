package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studyforge/studyforge-backend/internal/repos/testutil"
	"github.com/studyforge/studyforge-backend/internal/types"
)

func TestGeneratedContentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewGeneratedContentRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	userID := uuid.New()
	paramsKey := types.GenerationParams{Count: 10, Difficulty: types.DifficultyMedium}.CacheKey()

	fresh := &types.GeneratedContent{
		ID:        uuid.New(),
		UserID:    userID,
		SourceID:  "notes.txt",
		Kind:      string(types.ContentKindQuiz),
		ParamsKey: paramsKey,
		Params:    datatypes.JSON([]byte(`{"count":10,"difficulty":"medium"}`)),
		Payload:   datatypes.JSON([]byte(`{"kind":"quiz"}`)),
		ItemCount: 10,
		CreatedAt: now.Add(-1 * time.Hour),
		UpdatedAt: now.Add(-1 * time.Hour),
	}
	stale := &types.GeneratedContent{
		ID:        uuid.New(),
		UserID:    userID,
		SourceID:  "notes.txt",
		Kind:      string(types.ContentKindQuiz),
		ParamsKey: paramsKey,
		Params:    datatypes.JSON([]byte(`{"count":10,"difficulty":"medium"}`)),
		Payload:   datatypes.JSON([]byte(`{"kind":"quiz"}`)),
		ItemCount: 10,
		CreatedAt: now.Add(-30 * 24 * time.Hour),
		UpdatedAt: now.Add(-30 * 24 * time.Hour),
	}
	otherParams := &types.GeneratedContent{
		ID:        uuid.New(),
		UserID:    userID,
		SourceID:  "notes.txt",
		Kind:      string(types.ContentKindQuiz),
		ParamsKey: types.GenerationParams{Count: 5, Difficulty: types.DifficultyHard}.CacheKey(),
		Params:    datatypes.JSON([]byte(`{"count":5,"difficulty":"hard"}`)),
		Payload:   datatypes.JSON([]byte(`{"kind":"quiz"}`)),
		ItemCount: 5,
		CreatedAt: now.Add(-1 * time.Minute),
		UpdatedAt: now.Add(-1 * time.Minute),
	}

	created, err := repo.Create(ctx, tx, []*types.GeneratedContent{fresh, stale, otherParams})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("Create: expected 3, got %d", len(created))
	}

	since := now.Add(-7 * 24 * time.Hour)
	got, err := repo.GetLatestSince(ctx, tx, userID, "notes.txt", string(types.ContentKindQuiz), paramsKey, since)
	if err != nil {
		t.Fatalf("GetLatestSince: %v", err)
	}
	if got == nil || got.ID != fresh.ID {
		t.Fatalf("GetLatestSince: expected fresh row, got %+v", got)
	}

	// Stale rows never match, even when they are the only candidates.
	got, err = repo.GetLatestSince(ctx, tx, userID, "notes.txt", string(types.ContentKindQuiz), paramsKey, now.Add(-30*time.Minute))
	if err != nil {
		t.Fatalf("GetLatestSince: %v", err)
	}
	if got != nil {
		t.Fatalf("GetLatestSince: expected nil for narrow window, got %+v", got)
	}

	// Kind is part of the cache identity.
	got, err = repo.GetLatestSince(ctx, tx, userID, "notes.txt", string(types.ContentKindFlashcards), paramsKey, since)
	if err != nil {
		t.Fatalf("GetLatestSince: %v", err)
	}
	if got != nil {
		t.Fatalf("GetLatestSince: expected nil for other kind, got %+v", got)
	}

	rows, err := repo.GetByUser(ctx, tx, userID)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("GetByUser: expected 3, got %d", len(rows))
	}

	if err := repo.FullDeleteByIDs(ctx, tx, []uuid.UUID{stale.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	rows, err = repo.GetByUser(ctx, tx, userID)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("GetByUser after delete: expected 2, got %d", len(rows))
	}
}

func TestGenerationRunRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewGenerationRunRepo(db, testutil.Logger(t))

	userID := uuid.New()
	run := &types.GenerationRun{
		ID:             uuid.New(),
		UserID:         userID,
		SourceID:       "notes.txt",
		Kind:           string(types.ContentKindFlashcards),
		ChunkCount:     3,
		UnitsPlanned:   3,
		UnitsSucceeded: 2,
		ItemsRequested: 12,
		ItemsReturned:  9,
		Detail:         datatypes.JSON([]byte(`{}`)),
	}

	if _, err := repo.Create(ctx, tx, []*types.GenerationRun{run}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows, err := repo.GetByUser(ctx, tx, userID)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(rows) != 1 || rows[0].UnitsSucceeded != 2 {
		t.Fatalf("GetByUser: unexpected rows %+v", rows)
	}
}
