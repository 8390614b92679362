package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/pkg/fault"
	"github.com/studyforge/studyforge-backend/internal/textsplit"
	"github.com/studyforge/studyforge-backend/internal/types"
)

const DefaultGenerationConcurrency = 4

// ChunkedGenerationRequest asks for TotalCount items spread over the given
// chunks. Chunks are expected in document order.
type ChunkedGenerationRequest struct {
	Kind       types.ContentKind
	Chunks     []textsplit.Chunk
	TotalCount int
	Params     types.GenerationParams

	SimilarityThreshold float64
	MaxConcurrency      int
}

type ChunkedGenerationResult struct {
	Items []types.GeneratedItem

	UnitsPlanned   int
	UnitsSucceeded int
	// Shortfall is how many requested items are missing after dedupe and
	// unit failures. Zero on a full result.
	Shortfall int
}

// GenerationService fans generation out across document chunks and merges
// the per-chunk results back into one ordered, deduplicated set.
type GenerationService interface {
	GenerateAcrossChunks(ctx context.Context, req ChunkedGenerationRequest) (*ChunkedGenerationResult, error)
}

type generationService struct {
	log       *logger.Logger
	generator ChunkGenerator
}

func NewGenerationService(generator ChunkGenerator, baseLog *logger.Logger) (GenerationService, error) {
	if generator == nil {
		return nil, fmt.Errorf("chunk generator required")
	}
	return &generationService{
		log:       baseLog.With("service", "GenerationService"),
		generator: generator,
	}, nil
}

func (s *generationService) GenerateAcrossChunks(ctx context.Context, req ChunkedGenerationRequest) (*ChunkedGenerationResult, error) {
	if len(req.Chunks) == 0 {
		return nil, fault.Errorf(fault.KindInputInvalid, "no chunks to generate from")
	}
	if req.TotalCount <= 0 {
		return nil, fault.Errorf(fault.KindInputInvalid, "total count must be positive, got %d", req.TotalCount)
	}

	budgets := textsplit.DistributeBudget(req.TotalCount, len(req.Chunks))

	// A single unit runs inline with no fan-out machinery. It also skips
	// dedupe: one chunk means one prompt, and thinning its items by
	// intra-chunk similarity would silently undercut the requested count.
	if len(req.Chunks) == 1 {
		items, err := s.generator.GenerateItems(ctx, req.Kind, req.Chunks[0].Text, budgets[0], req.Params)
		if err != nil {
			return nil, err
		}
		return s.merge(req, [][]types.GeneratedItem{items}, 1, false), nil
	}

	maxConc := req.MaxConcurrency
	if maxConc <= 0 {
		maxConc = DefaultGenerationConcurrency
	}

	perUnit := make([][]types.GeneratedItem, len(req.Chunks))
	var mu sync.Mutex
	var firstErr error
	succeeded := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConc)

	for i := range req.Chunks {
		i := i
		g.Go(func() error {
			items, err := s.generator.GenerateItems(gctx, req.Kind, req.Chunks[i].Text, budgets[i], req.Params)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// One failed unit must not void the others; absorb and
				// deliver a partial result.
				s.log.Warn("generation unit failed",
					"chunk_index", req.Chunks[i].Index,
					"budget", budgets[i],
					"kind", fault.KindOf(err).String(),
					"error", err,
				)
				if firstErr == nil {
					firstErr = err
				}
				return nil
			}
			perUnit[i] = items
			succeeded++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if succeeded == 0 {
		return nil, fmt.Errorf("all %d generation units failed: %w", len(req.Chunks), firstErr)
	}

	return s.merge(req, perUnit, succeeded, true), nil
}

// merge stitches unit outputs in chunk order, forces the requested
// difficulty, optionally drops near-duplicates, and trims to the requested
// total.
func (s *generationService) merge(req ChunkedGenerationRequest, perUnit [][]types.GeneratedItem, succeeded int, dedupe bool) *ChunkedGenerationResult {
	var all []types.GeneratedItem
	for _, items := range perUnit {
		all = append(all, items...)
	}

	if req.Params.Difficulty != "" {
		for _, it := range all {
			it.SetDifficulty(req.Params.Difficulty)
		}
	}

	deduped := all
	if dedupe {
		threshold := req.SimilarityThreshold
		if threshold <= 0 {
			threshold = DefaultSimilarityThreshold
		}
		deduped = DedupeItems(all, threshold)
	}

	if len(deduped) > req.TotalCount {
		deduped = deduped[:req.TotalCount]
	}

	res := &ChunkedGenerationResult{
		Items:          deduped,
		UnitsPlanned:   len(req.Chunks),
		UnitsSucceeded: succeeded,
	}
	if len(deduped) < req.TotalCount {
		res.Shortfall = req.TotalCount - len(deduped)
		s.log.Warn("generation returned fewer items than requested",
			"requested", req.TotalCount,
			"returned", len(deduped),
			"units_planned", res.UnitsPlanned,
			"units_succeeded", res.UnitsSucceeded,
		)
	}
	return res
}
