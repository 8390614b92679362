package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/repos"
	"github.com/studyforge/studyforge-backend/internal/types"
)

type fakeRunsRepo struct {
	runs []*types.GenerationRun
}

func (f *fakeRunsRepo) Create(ctx context.Context, tx *gorm.DB, runs []*types.GenerationRun) ([]*types.GenerationRun, error) {
	f.runs = append(f.runs, runs...)
	return runs, nil
}

func (f *fakeRunsRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.GenerationRun, error) {
	return f.runs, nil
}

// runs is the interface, not *fakeRunsRepo: a nil fake pointer boxed into
// the deps field would defeat the service's missing-repo guard.
func newPipeline(t *testing.T, gen ChunkGenerator, store *fakeRateStore, repo *fakeContentRepo, runs repos.GenerationRunRepo) StudyMaterialService {
	t.Helper()
	log := testLogger(t)

	rate, err := NewRateLimitService(store, log)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	cache, err := NewContentCacheService(repo, log)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	genSvc, err := NewGenerationService(gen, log)
	if err != nil {
		t.Fatalf("generation: %v", err)
	}
	svc, err := NewStudyMaterialService(StudyMaterialDeps{
		Log:        log,
		Rate:       rate,
		Cache:      cache,
		Generation: genSvc,
		Runs:       runs,
		Model:      "test-model",
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return svc
}

func longDocument() string {
	// Three sections with distinct leading words so fake items stay unique.
	var b strings.Builder
	words := []string{"astronomy", "biology", "chemistry"}
	for _, w := range words {
		b.WriteString(w)
		for i := 0; i < 900; i++ {
			b.WriteString(" lecture")
		}
		b.WriteString(".\n\n")
	}
	return b.String()
}

func TestPipelineGeneratesAcrossChunks(t *testing.T) {
	t.Setenv("SEGMENT_MAX_CHUNK_SIZE", "8000")
	gen := &fakeGenerator{}
	runs := &fakeRunsRepo{}
	repo := &fakeContentRepo{}
	svc := newPipeline(t, gen, &fakeRateStore{}, repo, runs)

	res, err := svc.Generate(context.Background(), GenerateStudyAidsRequest{
		UserID:   uuid.New(),
		SourceID: "lectures.txt",
		Text:     longDocument(),
		Kind:     types.ContentKindQuiz,
		Params:   types.GenerationParams{Count: 6},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Cached {
		t.Fatal("first run must not be cached")
	}
	if res.Set.Kind != types.ContentKindQuiz || len(res.Set.Questions) != 6 {
		t.Fatalf("expected 6 questions, got %+v", res.Set)
	}
	if res.ChunkCount < 2 {
		t.Fatalf("expected multi-chunk run, got %d chunks", res.ChunkCount)
	}
	if len(gen.calls) != res.UnitsPlanned {
		t.Fatalf("expected %d generator calls, got %d", res.UnitsPlanned, len(gen.calls))
	}
	if len(runs.runs) != 1 || runs.runs[0].CacheHit {
		t.Fatalf("expected one non-cached run record, got %+v", runs.runs)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected persisted content, got %d rows", len(repo.rows))
	}
}

func TestPipelineServesCachedResultWithoutGeneration(t *testing.T) {
	gen := &fakeGenerator{}
	repo := &fakeContentRepo{}
	svc := newPipeline(t, gen, &fakeRateStore{}, repo, nil)

	userID := uuid.New()
	req := GenerateStudyAidsRequest{
		UserID:   userID,
		SourceID: "notes.txt",
		Text:     "short biology notes about mitosis and osmosis",
		Kind:     types.ContentKindQuiz,
		Params:   types.GenerationParams{Count: 2},
	}

	first, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	repo.rows[0].CreatedAt = time.Now().UTC()
	callsAfterFirst := len(gen.calls)

	second, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if !second.Cached {
		t.Fatal("second run must be served from cache")
	}
	if len(gen.calls) != callsAfterFirst {
		t.Fatal("cache hit must not call the generator")
	}
	if len(second.Set.Questions) != len(first.Set.Questions) {
		t.Fatalf("cached set differs: %d vs %d", len(second.Set.Questions), len(first.Set.Questions))
	}
}

func TestPipelineRejectsOverRateLimit(t *testing.T) {
	t.Setenv("GENERATION_RATE_LIMIT", "1")
	gen := &fakeGenerator{}
	store := &fakeRateStore{}
	svc := newPipeline(t, gen, store, &fakeContentRepo{}, nil)

	userID := uuid.New()
	req := GenerateStudyAidsRequest{
		UserID:   userID,
		SourceID: "notes.txt",
		Text:     "short biology notes about mitosis",
		Kind:     types.ContentKindFlashcards,
		Params:   types.GenerationParams{Count: 1},
	}

	if _, err := svc.Generate(context.Background(), req); err != nil {
		t.Fatalf("first Generate: %v", err)
	}

	res, err := svc.Generate(context.Background(), req)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if res == nil || res.RateLimit.Remaining != 0 {
		t.Fatalf("rejection must carry limiter state, got %+v", res)
	}
	if res.RateLimit.ResetAt.IsZero() {
		t.Fatal("rejection must carry a reset time")
	}
}

func TestPipelineRejectsEmptyText(t *testing.T) {
	svc := newPipeline(t, &fakeGenerator{}, &fakeRateStore{}, &fakeContentRepo{}, nil)

	_, err := svc.Generate(context.Background(), GenerateStudyAidsRequest{
		UserID:   uuid.New(),
		SourceID: "blank.txt",
		Text:     "  \n\n ",
		Kind:     types.ContentKindQuiz,
		Params:   types.GenerationParams{Count: 3},
	})
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestPipelineRejectsUnknownKind(t *testing.T) {
	svc := newPipeline(t, &fakeGenerator{}, &fakeRateStore{}, &fakeContentRepo{}, nil)

	_, err := svc.Generate(context.Background(), GenerateStudyAidsRequest{
		UserID:   uuid.New(),
		SourceID: "notes.txt",
		Text:     "some notes",
		Kind:     types.ContentKind("podcast"),
		Params:   types.GenerationParams{Count: 3},
	})
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
