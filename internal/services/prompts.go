package services

import (
	"fmt"
	"strings"

	"github.com/studyforge/studyforge-backend/internal/types"
)

func systemPromptFor(kind types.ContentKind) string {
	switch kind {
	case types.ContentKindQuiz:
		return "You are an expert tutor writing multiple-choice quiz questions. " +
			"Every question must be answerable from the provided material alone. " +
			"Each question has exactly four options and one correct answer."
	case types.ContentKindFlashcards:
		return "You are an expert tutor writing study flashcards. " +
			"Each card has a short prompt on the front and a precise answer on the back, " +
			"grounded in the provided material."
	case types.ContentKindSlides:
		return "You are an expert tutor outlining presentation slides. " +
			"Each slide has a short title, three to five bullet points, and optional speaker notes, " +
			"grounded in the provided material."
	case types.ContentKindNarration:
		return "You are an expert tutor writing a spoken-word study narration. " +
			"Write flowing prose meant to be read aloud, grounded in the provided material. " +
			"Avoid markdown, lists, and formatting artifacts."
	default:
		return "You are an expert tutor creating study materials from the provided material."
	}
}

func userPromptFor(kind types.ContentKind, sourceText string, count int, params types.GenerationParams) string {
	var b strings.Builder
	switch kind {
	case types.ContentKindQuiz:
		fmt.Fprintf(&b, "Write exactly %d quiz questions", count)
	case types.ContentKindFlashcards:
		fmt.Fprintf(&b, "Write exactly %d flashcards", count)
	case types.ContentKindSlides:
		fmt.Fprintf(&b, "Outline exactly %d slides", count)
	case types.ContentKindNarration:
		fmt.Fprintf(&b, "Write exactly %d narration sections", count)
	}
	if params.Difficulty != "" {
		fmt.Fprintf(&b, " at %s difficulty", params.Difficulty)
	}
	if params.Language != "" {
		fmt.Fprintf(&b, " in %s", params.Language)
	}
	b.WriteString(" from the following material.\n\n---\n")
	b.WriteString(sourceText)
	b.WriteString("\n---\n")
	return b.String()
}

func schemaNameFor(kind types.ContentKind) string {
	return string(kind) + "_items"
}

// schemaFor returns the strict json_schema for kind. All responses share the
// { "items": [...] } envelope so parsing is uniform.
func schemaFor(kind types.ContentKind) map[string]any {
	var item map[string]any
	switch kind {
	case types.ContentKindQuiz:
		item = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question":       map[string]any{"type": "string"},
				"options":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 4, "maxItems": 4},
				"correct_index":  map[string]any{"type": "integer", "minimum": 0, "maximum": 3},
				"explanation_md": map[string]any{"type": "string"},
				"difficulty":     map[string]any{"type": "string", "enum": []string{types.DifficultyEasy, types.DifficultyMedium, types.DifficultyHard}},
			},
			"required":             []string{"question", "options", "correct_index", "explanation_md", "difficulty"},
			"additionalProperties": false,
		}
	case types.ContentKindFlashcards:
		item = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"front":      map[string]any{"type": "string"},
				"back":       map[string]any{"type": "string"},
				"difficulty": map[string]any{"type": "string", "enum": []string{types.DifficultyEasy, types.DifficultyMedium, types.DifficultyHard}},
			},
			"required":             []string{"front", "back", "difficulty"},
			"additionalProperties": false,
		}
	case types.ContentKindSlides:
		item = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":    map[string]any{"type": "string"},
				"bullets":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 1, "maxItems": 6},
				"notes_md": map[string]any{"type": "string"},
			},
			"required":             []string{"title", "bullets", "notes_md"},
			"additionalProperties": false,
		}
	case types.ContentKindNarration:
		item = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"heading": map[string]any{"type": "string"},
				"script":  map[string]any{"type": "string"},
			},
			"required":             []string{"heading", "script"},
			"additionalProperties": false,
		}
	default:
		item = map[string]any{"type": "object"}
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type":  "array",
				"items": item,
			},
		},
		"required":             []string{"items"},
		"additionalProperties": false,
	}
}
