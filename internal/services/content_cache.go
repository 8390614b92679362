package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/repos"
	"github.com/studyforge/studyforge-backend/internal/types"
	"github.com/studyforge/studyforge-backend/internal/utils"
)

const DefaultCacheFreshnessDays = 7

// ContentCacheService reuses prior generation results when the same user
// asks for the same content from the same source with identical parameters.
// Read failures degrade to cache misses.
type ContentCacheService interface {
	Lookup(ctx context.Context, userID uuid.UUID, sourceID string, kind types.ContentKind, params types.GenerationParams) (*types.ContentSet, bool)
	Store(ctx context.Context, userID uuid.UUID, sourceID string, kind types.ContentKind, params types.GenerationParams, set types.ContentSet, model string) error
}

type contentCacheService struct {
	log       *logger.Logger
	repo      repos.GeneratedContentRepo
	freshness time.Duration
}

func NewContentCacheService(repo repos.GeneratedContentRepo, baseLog *logger.Logger) (ContentCacheService, error) {
	if repo == nil {
		return nil, fmt.Errorf("generated content repo required")
	}
	log := baseLog.With("service", "ContentCacheService")

	days := utils.GetEnvAsInt("CACHE_FRESHNESS_DAYS", DefaultCacheFreshnessDays, baseLog)
	if days <= 0 {
		days = DefaultCacheFreshnessDays
	}

	return &contentCacheService{
		log:       log,
		repo:      repo,
		freshness: time.Duration(days) * 24 * time.Hour,
	}, nil
}

func (s *contentCacheService) Lookup(ctx context.Context, userID uuid.UUID, sourceID string, kind types.ContentKind, params types.GenerationParams) (*types.ContentSet, bool) {
	since := time.Now().UTC().Add(-s.freshness)
	row, err := s.repo.GetLatestSince(ctx, nil, userID, sourceID, string(kind), params.CacheKey(), since)
	if err != nil {
		s.log.Warn("cache lookup failed, treating as miss", "user_id", userID, "source_id", sourceID, "error", err)
		return nil, false
	}
	if row == nil {
		return nil, false
	}

	var set types.ContentSet
	if err := json.Unmarshal(row.Payload, &set); err != nil {
		s.log.Warn("cached payload unreadable, treating as miss", "row_id", row.ID, "error", err)
		return nil, false
	}
	if set.Kind != kind {
		return nil, false
	}
	return &set, true
}

func (s *contentCacheService) Store(ctx context.Context, userID uuid.UUID, sourceID string, kind types.ContentKind, params types.GenerationParams, set types.ContentSet, model string) error {
	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	rawParams, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	row := &types.GeneratedContent{
		ID:        uuid.New(),
		UserID:    userID,
		SourceID:  sourceID,
		Kind:      string(kind),
		ParamsKey: params.CacheKey(),
		Params:    datatypes.JSON(rawParams),
		Payload:   datatypes.JSON(payload),
		Model:     model,
		ItemCount: set.Len(),
	}
	if _, err := s.repo.Create(ctx, nil, []*types.GeneratedContent{row}); err != nil {
		return fmt.Errorf("persist generated content: %w", err)
	}
	return nil
}
