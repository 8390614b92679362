package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/pkg/fault"
	"github.com/studyforge/studyforge-backend/internal/platform/gcs"
	"github.com/studyforge/studyforge-backend/internal/platform/tts"
	"github.com/studyforge/studyforge-backend/internal/textsplit"
	"github.com/studyforge/studyforge-backend/internal/utils"
)

const DefaultSynthesisConcurrency = 3

type NarrationResult struct {
	AudioURL   string
	PieceCount int
	Characters int
}

// NarrationService turns a narration script into one audio object. The
// script is split under the synthesis character ceiling, pieces are
// synthesized concurrently, and the audio is reassembled in strict script
// order. Unlike item generation, a single failed piece fails the whole
// narration: a gap in audio is worse than no audio.
type NarrationService interface {
	SynthesizeScript(ctx context.Context, userID uuid.UUID, script string, voice tts.VoiceConfig) (*NarrationResult, error)
}

type narrationService struct {
	log    *logger.Logger
	synth  tts.Synthesizer
	bucket gcs.BucketService

	maxChars int
	maxConc  int
}

func NewNarrationService(synth tts.Synthesizer, bucket gcs.BucketService, baseLog *logger.Logger) (NarrationService, error) {
	if synth == nil {
		return nil, fmt.Errorf("synthesizer required")
	}
	if bucket == nil {
		return nil, fmt.Errorf("bucket service required")
	}
	log := baseLog.With("service", "NarrationService")

	maxChars := utils.GetEnvAsInt("TTS_MAX_CHARS", textsplit.DefaultSpeechMaxChars, baseLog)
	if maxChars <= 0 {
		maxChars = textsplit.DefaultSpeechMaxChars
	}
	maxConc := utils.GetEnvAsInt("TTS_MAX_CONCURRENCY", DefaultSynthesisConcurrency, baseLog)
	if maxConc <= 0 {
		maxConc = DefaultSynthesisConcurrency
	}

	return &narrationService{
		log:      log,
		synth:    synth,
		bucket:   bucket,
		maxChars: maxChars,
		maxConc:  maxConc,
	}, nil
}

func (s *narrationService) SynthesizeScript(ctx context.Context, userID uuid.UUID, script string, voice tts.VoiceConfig) (*NarrationResult, error) {
	pieces := textsplit.SplitForSynthesis(script, s.maxChars)
	if len(pieces) == 0 {
		return nil, fault.Errorf(fault.KindInputInvalid, "empty narration script")
	}

	audio := make([][]byte, len(pieces))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConc)
	for i := range pieces {
		i := i
		g.Go(func() error {
			data, err := s.synth.Synthesize(gctx, pieces[i], voice)
			if err != nil {
				return fmt.Errorf("synthesize piece %d of %d: %w", i+1, len(pieces), err)
			}
			audio[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for _, data := range audio {
		buf.Write(data)
	}

	// The key is stable across attempts, so a retried upload overwrites
	// its own partial object rather than leaking duplicates.
	key := fmt.Sprintf("narration/%s/%d.mp3", userID.String(), time.Now().UnixNano())
	uploadPolicy := fault.RetryPolicy{
		MaxRetries:   2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		ShouldRetry:  func(error) bool { return true },
	}
	err := fault.Retry(ctx, uploadPolicy, func() error {
		return s.bucket.UploadFile(ctx, gcs.BucketCategoryAudio, key, bytes.NewReader(buf.Bytes()))
	})
	if err != nil {
		return nil, fmt.Errorf("upload narration audio: %w", err)
	}

	chars := 0
	for _, p := range pieces {
		chars += len([]rune(p))
	}
	s.log.Info("narration synthesized",
		"user_id", userID,
		"pieces", len(pieces),
		"characters", chars,
		"bytes", buf.Len(),
	)

	return &NarrationResult{
		AudioURL:   s.bucket.GetPublicURL(gcs.BucketCategoryAudio, key),
		PieceCount: len(pieces),
		Characters: chars,
	}, nil
}
