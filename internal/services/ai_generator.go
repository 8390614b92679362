package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/pkg/fault"
	"github.com/studyforge/studyforge-backend/internal/platform/openai"
	"github.com/studyforge/studyforge-backend/internal/types"
)

// ChunkGenerator produces study items for one source excerpt. Implementations
// must classify failures with fault kinds so the orchestrator can tell
// transient trouble from contract violations.
type ChunkGenerator interface {
	GenerateItems(ctx context.Context, kind types.ContentKind, sourceText string, count int, params types.GenerationParams) ([]types.GeneratedItem, error)
}

type openAIChunkGenerator struct {
	log *logger.Logger
	ai  openai.Client
}

func NewChunkGenerator(ai openai.Client, baseLog *logger.Logger) (ChunkGenerator, error) {
	if ai == nil {
		return nil, fmt.Errorf("openai client required")
	}
	return &openAIChunkGenerator{
		log: baseLog.With("service", "ChunkGenerator"),
		ai:  ai,
	}, nil
}

func (g *openAIChunkGenerator) GenerateItems(ctx context.Context, kind types.ContentKind, sourceText string, count int, params types.GenerationParams) ([]types.GeneratedItem, error) {
	if count <= 0 {
		return nil, fault.Errorf(fault.KindInputInvalid, "item count must be positive, got %d", count)
	}
	if sourceText == "" {
		return nil, fault.Errorf(fault.KindInputInvalid, "empty source text")
	}

	obj, err := g.ai.GenerateJSON(ctx,
		systemPromptFor(kind),
		userPromptFor(kind, sourceText, count, params),
		schemaNameFor(kind),
		schemaFor(kind),
	)
	if err != nil {
		return nil, err
	}

	rawItems, ok := obj["items"]
	if !ok {
		return nil, fault.Errorf(fault.KindContractViolation, "response missing items array")
	}
	encoded, err := json.Marshal(rawItems)
	if err != nil {
		return nil, fault.Errorf(fault.KindContractViolation, "re-encode items: %w", err)
	}

	items, err := decodeItems(kind, encoded)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fault.Errorf(fault.KindContractViolation, "model returned zero items")
	}
	return items, nil
}

func decodeItems(kind types.ContentKind, encoded []byte) ([]types.GeneratedItem, error) {
	var out []types.GeneratedItem
	switch kind {
	case types.ContentKindQuiz:
		var qs []types.QuizQuestion
		if err := json.Unmarshal(encoded, &qs); err != nil {
			return nil, fault.Errorf(fault.KindContractViolation, "decode quiz items: %w", err)
		}
		for i := range qs {
			if qs[i].Question == "" || len(qs[i].Options) != 4 || qs[i].CorrectIndex < 0 || qs[i].CorrectIndex > 3 {
				return nil, fault.Errorf(fault.KindContractViolation, "malformed quiz question at index %d", i)
			}
			out = append(out, &qs[i])
		}
	case types.ContentKindFlashcards:
		var cs []types.Flashcard
		if err := json.Unmarshal(encoded, &cs); err != nil {
			return nil, fault.Errorf(fault.KindContractViolation, "decode flashcards: %w", err)
		}
		for i := range cs {
			if cs[i].Front == "" || cs[i].Back == "" {
				return nil, fault.Errorf(fault.KindContractViolation, "malformed flashcard at index %d", i)
			}
			out = append(out, &cs[i])
		}
	case types.ContentKindSlides:
		var ss []types.Slide
		if err := json.Unmarshal(encoded, &ss); err != nil {
			return nil, fault.Errorf(fault.KindContractViolation, "decode slides: %w", err)
		}
		for i := range ss {
			if ss[i].Title == "" || len(ss[i].Bullets) == 0 {
				return nil, fault.Errorf(fault.KindContractViolation, "malformed slide at index %d", i)
			}
			out = append(out, &ss[i])
		}
	case types.ContentKindNarration:
		var ns []types.NarrationSection
		if err := json.Unmarshal(encoded, &ns); err != nil {
			return nil, fault.Errorf(fault.KindContractViolation, "decode narration: %w", err)
		}
		for i := range ns {
			if ns[i].Script == "" {
				return nil, fault.Errorf(fault.KindContractViolation, "malformed narration section at index %d", i)
			}
			out = append(out, &ns[i])
		}
	default:
		return nil, fault.Errorf(fault.KindInputInvalid, "unknown content kind %q", kind)
	}
	return out, nil
}
