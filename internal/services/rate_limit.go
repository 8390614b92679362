package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studyforge/studyforge-backend/internal/clients/redis"
	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/utils"
)

const (
	DefaultGenerationCeiling = 10
	DefaultRateWindow        = time.Hour
)

type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimitService enforces a per-user ceiling on generation runs inside a
// trailing window. The store is the source of truth; when it is unreachable
// the service fails open and allows the request.
type RateLimitService interface {
	Check(ctx context.Context, userID uuid.UUID) RateLimitDecision
	RecordUse(ctx context.Context, userID uuid.UUID)
}

type rateLimitService struct {
	log    *logger.Logger
	store  redis.RateWindowStore
	limit  int
	window time.Duration
}

func NewRateLimitService(store redis.RateWindowStore, baseLog *logger.Logger) (RateLimitService, error) {
	if store == nil {
		return nil, fmt.Errorf("rate window store required")
	}
	log := baseLog.With("service", "RateLimitService")

	limit := utils.GetEnvAsInt("GENERATION_RATE_LIMIT", DefaultGenerationCeiling, baseLog)
	if limit <= 0 {
		limit = DefaultGenerationCeiling
	}
	windowMin := utils.GetEnvAsInt("GENERATION_RATE_WINDOW_MINUTES", int(DefaultRateWindow.Minutes()), baseLog)
	if windowMin <= 0 {
		windowMin = int(DefaultRateWindow.Minutes())
	}

	return &rateLimitService{
		log:    log,
		store:  store,
		limit:  limit,
		window: time.Duration(windowMin) * time.Minute,
	}, nil
}

func (s *rateLimitService) Check(ctx context.Context, userID uuid.UUID) RateLimitDecision {
	now := time.Now().UTC()
	count, oldestAt, err := s.store.Count(ctx, userID.String(), now, s.window)
	if err != nil {
		// Fail open: losing the limiter must not take generation down.
		s.log.Warn("rate window read failed, allowing request", "user_id", userID, "error", err)
		return RateLimitDecision{Allowed: true, Limit: s.limit, Remaining: s.limit, ResetAt: now.Add(s.window)}
	}

	remaining := s.limit - count
	if remaining < 0 {
		remaining = 0
	}
	resetAt := now.Add(s.window)
	if !oldestAt.IsZero() {
		resetAt = oldestAt.Add(s.window)
	}
	return RateLimitDecision{
		Allowed:   count < s.limit,
		Limit:     s.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

func (s *rateLimitService) RecordUse(ctx context.Context, userID uuid.UUID) {
	now := time.Now().UTC()
	if err := s.store.Record(ctx, userID.String(), now, s.window); err != nil {
		s.log.Warn("rate window record failed", "user_id", userID, "error", err)
	}
}
