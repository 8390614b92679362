package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/pkg/fault"
	"github.com/studyforge/studyforge-backend/internal/textsplit"
	"github.com/studyforge/studyforge-backend/internal/types"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls []fakeCall
	seq   int

	// failFor marks chunk texts whose unit should fail.
	failFor map[string]error
}

type fakeCall struct {
	text  string
	count int
}

func (f *fakeGenerator) GenerateItems(ctx context.Context, kind types.ContentKind, sourceText string, count int, params types.GenerationParams) ([]types.GeneratedItem, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{text: sourceText, count: count})
	f.seq++
	call := f.seq
	f.mu.Unlock()

	if err, ok := f.failFor[sourceText]; ok {
		return nil, err
	}
	items := make([]types.GeneratedItem, 0, count)
	for i := 0; i < count; i++ {
		// The call tag keeps item texts distinct across chunks so dedupe
		// only removes what a test deliberately duplicates.
		items = append(items, &types.QuizQuestion{
			Question:     fmt.Sprintf("question %s item %d call%d", strings.Fields(sourceText)[0], i, call),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: 0,
			Difficulty:   types.DifficultyEasy,
		})
	}
	return items, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func chunksFromTexts(texts ...string) []textsplit.Chunk {
	out := make([]textsplit.Chunk, len(texts))
	for i, txt := range texts {
		out[i] = textsplit.Chunk{Index: i, Text: txt}
	}
	return out
}

func TestGenerateAcrossChunksDistributesBudget(t *testing.T) {
	gen := &fakeGenerator{}
	svc, err := NewGenerationService(gen, testLogger(t))
	if err != nil {
		t.Fatalf("NewGenerationService: %v", err)
	}

	res, err := svc.GenerateAcrossChunks(context.Background(), ChunkedGenerationRequest{
		Kind:       types.ContentKindQuiz,
		Chunks:     chunksFromTexts("alpha text", "beta text", "gamma text"),
		TotalCount: 10,
	})
	if err != nil {
		t.Fatalf("GenerateAcrossChunks: %v", err)
	}
	if len(res.Items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(res.Items))
	}
	if res.UnitsPlanned != 3 || res.UnitsSucceeded != 3 || res.Shortfall != 0 {
		t.Fatalf("unexpected result meta: %+v", res)
	}

	// Budgets front-load the remainder: 4, 3, 3.
	counts := map[string]int{}
	for _, c := range gen.calls {
		counts[c.text] = c.count
	}
	if counts["alpha text"] != 4 || counts["beta text"] != 3 || counts["gamma text"] != 3 {
		t.Fatalf("unexpected budgets: %v", counts)
	}
}

func TestGenerateAcrossChunksOrderFollowsChunks(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _ := NewGenerationService(gen, testLogger(t))

	res, err := svc.GenerateAcrossChunks(context.Background(), ChunkedGenerationRequest{
		Kind:       types.ContentKindQuiz,
		Chunks:     chunksFromTexts("alpha text", "beta text"),
		TotalCount: 4,
	})
	if err != nil {
		t.Fatalf("GenerateAcrossChunks: %v", err)
	}
	// Items from the first chunk come first regardless of completion order.
	first := res.Items[0].SimilarityText()
	if !strings.Contains(first, "alpha") {
		t.Fatalf("expected first item from first chunk, got %q", first)
	}
	last := res.Items[len(res.Items)-1].SimilarityText()
	if !strings.Contains(last, "beta") {
		t.Fatalf("expected last item from last chunk, got %q", last)
	}
}

func TestGenerateAcrossChunksAbsorbsSingleUnitFailure(t *testing.T) {
	gen := &fakeGenerator{failFor: map[string]error{
		"beta text": fault.Errorf(fault.KindTransient, "upstream unavailable"),
	}}
	svc, _ := NewGenerationService(gen, testLogger(t))

	res, err := svc.GenerateAcrossChunks(context.Background(), ChunkedGenerationRequest{
		Kind:       types.ContentKindQuiz,
		Chunks:     chunksFromTexts("alpha text", "beta text", "gamma text"),
		TotalCount: 9,
	})
	if err != nil {
		t.Fatalf("expected partial result, got error: %v", err)
	}
	if res.UnitsSucceeded != 2 || res.UnitsPlanned != 3 {
		t.Fatalf("unexpected unit counts: %+v", res)
	}
	if len(res.Items) != 6 || res.Shortfall != 3 {
		t.Fatalf("expected 6 items with shortfall 3, got %d/%d", len(res.Items), res.Shortfall)
	}
}

func TestGenerateAcrossChunksAllUnitsFailed(t *testing.T) {
	failAll := fault.Errorf(fault.KindTransient, "upstream down")
	gen := &fakeGenerator{failFor: map[string]error{
		"alpha text": failAll,
		"beta text":  failAll,
	}}
	svc, _ := NewGenerationService(gen, testLogger(t))

	_, err := svc.GenerateAcrossChunks(context.Background(), ChunkedGenerationRequest{
		Kind:       types.ContentKindQuiz,
		Chunks:     chunksFromTexts("alpha text", "beta text"),
		TotalCount: 4,
	})
	if err == nil {
		t.Fatal("expected error when every unit fails")
	}
}

func TestGenerateAcrossChunksSingleChunkShortCircuit(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _ := NewGenerationService(gen, testLogger(t))

	res, err := svc.GenerateAcrossChunks(context.Background(), ChunkedGenerationRequest{
		Kind:       types.ContentKindQuiz,
		Chunks:     chunksFromTexts("solo text"),
		TotalCount: 5,
	})
	if err != nil {
		t.Fatalf("GenerateAcrossChunks: %v", err)
	}
	if len(gen.calls) != 1 || gen.calls[0].count != 5 {
		t.Fatalf("expected one call with full budget, got %v", gen.calls)
	}
	if len(res.Items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(res.Items))
	}
}

// repetitiveGenerator returns near-identical questions, the kind a single
// prompt can produce when the source material is narrow.
type repetitiveGenerator struct{}

func (repetitiveGenerator) GenerateItems(ctx context.Context, kind types.ContentKind, sourceText string, count int, params types.GenerationParams) ([]types.GeneratedItem, error) {
	items := make([]types.GeneratedItem, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, &types.QuizQuestion{
			Question:     fmt.Sprintf("what is mitosis really about %d", i),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: 0,
			Difficulty:   types.DifficultyEasy,
		})
	}
	return items, nil
}

func TestGenerateAcrossChunksSingleChunkKeepsSimilarItems(t *testing.T) {
	svc, _ := NewGenerationService(repetitiveGenerator{}, testLogger(t))

	// One chunk, five items that only differ by a trailing number. A
	// multi-chunk merge would collapse these; the single-unit path must
	// deliver the full count untouched.
	res, err := svc.GenerateAcrossChunks(context.Background(), ChunkedGenerationRequest{
		Kind:       types.ContentKindQuiz,
		Chunks:     chunksFromTexts("mitosis notes"),
		TotalCount: 5,
	})
	if err != nil {
		t.Fatalf("GenerateAcrossChunks: %v", err)
	}
	if len(res.Items) != 5 || res.Shortfall != 0 {
		t.Fatalf("expected 5 items with no shortfall, got %d/%d", len(res.Items), res.Shortfall)
	}
}

func TestGenerateAcrossChunksForcesDifficulty(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _ := NewGenerationService(gen, testLogger(t))

	res, err := svc.GenerateAcrossChunks(context.Background(), ChunkedGenerationRequest{
		Kind:       types.ContentKindQuiz,
		Chunks:     chunksFromTexts("alpha text", "beta text"),
		TotalCount: 4,
		Params:     types.GenerationParams{Count: 4, Difficulty: types.DifficultyHard},
	})
	if err != nil {
		t.Fatalf("GenerateAcrossChunks: %v", err)
	}
	for i, it := range res.Items {
		q, ok := it.(*types.QuizQuestion)
		if !ok {
			t.Fatalf("item %d not a quiz question", i)
		}
		if q.Difficulty != types.DifficultyHard {
			t.Fatalf("item %d difficulty %q, want %q", i, q.Difficulty, types.DifficultyHard)
		}
	}
}

func TestGenerateAcrossChunksTrimsOverdelivery(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _ := NewGenerationService(gen, testLogger(t))

	// Near-identical questions across chunks collapse, then the result
	// trims to the requested count.
	res, err := svc.GenerateAcrossChunks(context.Background(), ChunkedGenerationRequest{
		Kind:                types.ContentKindQuiz,
		Chunks:              chunksFromTexts("alpha text", "alpha text"),
		TotalCount:          2,
		SimilarityThreshold: 0.6,
	})
	if err != nil {
		t.Fatalf("GenerateAcrossChunks: %v", err)
	}
	if len(res.Items) > 2 {
		t.Fatalf("expected at most 2 items, got %d", len(res.Items))
	}
}
