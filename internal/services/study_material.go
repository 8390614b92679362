package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/pkg/fault"
	"github.com/studyforge/studyforge-backend/internal/repos"
	"github.com/studyforge/studyforge-backend/internal/textsplit"
	"github.com/studyforge/studyforge-backend/internal/types"
	"github.com/studyforge/studyforge-backend/internal/utils"
)

const DefaultMaxChunksPerRun = 5

// ErrRateLimited is returned when a user is over their generation ceiling.
// The accompanying result still carries the limiter decision so callers can
// report remaining quota and reset time.
var ErrRateLimited = fault.Errorf(fault.KindQuotaExceeded, "generation rate limit exceeded")

type GenerateStudyAidsRequest struct {
	UserID   uuid.UUID
	SourceID string
	Text     string
	Kind     types.ContentKind
	Params   types.GenerationParams
}

type GenerateStudyAidsResult struct {
	Set       types.ContentSet
	Cached    bool
	RateLimit RateLimitDecision
	Model     string

	ChunkCount     int
	UnitsPlanned   int
	UnitsSucceeded int
	Shortfall      int
}

// StudyMaterialService is the full generation pipeline: limiter, cache,
// segmentation, chunk selection, fan-out generation, persistence.
type StudyMaterialService interface {
	Generate(ctx context.Context, req GenerateStudyAidsRequest) (*GenerateStudyAidsResult, error)
}

type StudyMaterialDeps struct {
	Log        *logger.Logger
	Rate       RateLimitService
	Cache      ContentCacheService
	Generation GenerationService
	Preview    DeckPreviewService // optional
	Runs       repos.GenerationRunRepo
	Model      string
}

type studyMaterialService struct {
	log        *logger.Logger
	rate       RateLimitService
	cache      ContentCacheService
	generation GenerationService
	preview    DeckPreviewService
	runs       repos.GenerationRunRepo
	model      string

	segOpts   textsplit.SegmentationOptions
	maxChunks int
}

func NewStudyMaterialService(deps StudyMaterialDeps) (StudyMaterialService, error) {
	if deps.Log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if deps.Rate == nil || deps.Cache == nil || deps.Generation == nil {
		return nil, fmt.Errorf("rate, cache, and generation services required")
	}

	segOpts := textsplit.DefaultSegmentationOptions()
	segOpts.MaxChunkSize = utils.GetEnvAsInt("SEGMENT_MAX_CHUNK_SIZE", segOpts.MaxChunkSize, deps.Log)
	segOpts.OverlapSize = utils.GetEnvAsInt("SEGMENT_OVERLAP_SIZE", segOpts.OverlapSize, deps.Log)
	segOpts.MinChunkSize = utils.GetEnvAsInt("SEGMENT_MIN_CHUNK_SIZE", segOpts.MinChunkSize, deps.Log)
	maxChunks := utils.GetEnvAsInt("MAX_CHUNKS_PER_RUN", DefaultMaxChunksPerRun, deps.Log)
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunksPerRun
	}

	return &studyMaterialService{
		log:        deps.Log.With("service", "StudyMaterialService"),
		rate:       deps.Rate,
		cache:      deps.Cache,
		generation: deps.Generation,
		preview:    deps.Preview,
		runs:       deps.Runs,
		model:      deps.Model,
		segOpts:    segOpts,
		maxChunks:  maxChunks,
	}, nil
}

func (s *studyMaterialService) Generate(ctx context.Context, req GenerateStudyAidsRequest) (*GenerateStudyAidsResult, error) {
	if req.UserID == uuid.Nil {
		return nil, fault.Errorf(fault.KindInputInvalid, "missing user id")
	}
	if strings.TrimSpace(req.SourceID) == "" {
		return nil, fault.Errorf(fault.KindInputInvalid, "missing source id")
	}
	if req.Params.Count <= 0 {
		return nil, fault.Errorf(fault.KindInputInvalid, "item count must be positive")
	}
	if _, err := types.ParseContentKind(string(req.Kind)); err != nil {
		return nil, fault.New(fault.KindInputInvalid, err)
	}

	decision := s.rate.Check(ctx, req.UserID)
	if !decision.Allowed {
		return &GenerateStudyAidsResult{RateLimit: decision}, ErrRateLimited
	}

	// A cached result costs nothing, so it does not consume quota.
	if set, hit := s.cache.Lookup(ctx, req.UserID, req.SourceID, req.Kind, req.Params); hit {
		s.log.Info("serving cached result",
			"user_id", req.UserID,
			"source_id", req.SourceID,
			"kind", req.Kind,
		)
		s.recordRun(ctx, req, nil, set.Len(), true)
		return &GenerateStudyAidsResult{Set: *set, Cached: true, RateLimit: decision}, nil
	}

	text := textsplit.Normalize(req.Text)
	if text == "" {
		return nil, ErrEmptyDocument
	}

	seg, err := textsplit.Segment(text, s.segOpts)
	if err != nil {
		return nil, fault.New(fault.KindInputInvalid, err)
	}
	selected := textsplit.SelectChunks(seg.Chunks, s.maxChunks)

	genRes, err := s.generation.GenerateAcrossChunks(ctx, ChunkedGenerationRequest{
		Kind:       req.Kind,
		Chunks:     selected,
		TotalCount: req.Params.Count,
		Params:     req.Params,
	})
	if err != nil {
		return nil, err
	}

	s.rate.RecordUse(ctx, req.UserID)

	set := types.NewContentSet(req.Kind, genRes.Items)

	if req.Kind == types.ContentKindSlides && s.preview != nil && len(set.Slides) > 0 {
		ref, perr := s.preview.RenderAndUpload(ctx, req.UserID, set.Slides)
		if perr != nil {
			s.log.Warn("deck preview render failed (ignored)", "error", perr)
		} else {
			set.PreviewRef = ref
		}
	}

	if err := s.cache.Store(ctx, req.UserID, req.SourceID, req.Kind, req.Params, set, s.model); err != nil {
		s.log.Warn("failed to persist generated content (ignored)", "error", err)
	}
	s.recordRun(ctx, req, genRes, set.Len(), false)

	return &GenerateStudyAidsResult{
		Set:            set,
		Cached:         false,
		RateLimit:      decision,
		Model:          s.model,
		ChunkCount:     seg.ChunkCount,
		UnitsPlanned:   genRes.UnitsPlanned,
		UnitsSucceeded: genRes.UnitsSucceeded,
		Shortfall:      genRes.Shortfall,
	}, nil
}

func (s *studyMaterialService) recordRun(ctx context.Context, req GenerateStudyAidsRequest, genRes *ChunkedGenerationResult, returned int, cacheHit bool) {
	if s.runs == nil {
		return
	}
	run := &types.GenerationRun{
		ID:             uuid.New(),
		UserID:         req.UserID,
		SourceID:       req.SourceID,
		Kind:           string(req.Kind),
		ItemsRequested: req.Params.Count,
		ItemsReturned:  returned,
		CacheHit:       cacheHit,
		Detail:         datatypes.JSON([]byte(`{}`)),
	}
	if genRes != nil {
		run.ChunkCount = genRes.UnitsPlanned
		run.UnitsPlanned = genRes.UnitsPlanned
		run.UnitsSucceeded = genRes.UnitsSucceeded
		if detail, err := json.Marshal(map[string]any{"shortfall": genRes.Shortfall}); err == nil {
			run.Detail = datatypes.JSON(detail)
		}
	}
	if _, err := s.runs.Create(ctx, nil, []*types.GenerationRun{run}); err != nil {
		s.log.Warn("failed to record generation run (ignored)", "error", err)
	}
}
