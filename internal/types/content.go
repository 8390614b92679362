package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ContentKind tags the study-material payload types. Dispatch happens on the
// tag, never on shape probing.
type ContentKind string

const (
	ContentKindQuiz       ContentKind = "quiz"
	ContentKindFlashcards ContentKind = "flashcards"
	ContentKindSlides     ContentKind = "slides"
	ContentKindNarration  ContentKind = "narration"
)

func ParseContentKind(s string) (ContentKind, error) {
	switch ContentKind(strings.ToLower(strings.TrimSpace(s))) {
	case ContentKindQuiz:
		return ContentKindQuiz, nil
	case ContentKindFlashcards:
		return ContentKindFlashcards, nil
	case ContentKindSlides:
		return ContentKindSlides, nil
	case ContentKindNarration:
		return ContentKindNarration, nil
	default:
		return "", fmt.Errorf("unknown content kind %q", s)
	}
}

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// GenerationParams identify a generation request for caching purposes; two
// requests with equal CacheKey output are interchangeable.
type GenerationParams struct {
	Count      int    `json:"count"`
	Difficulty string `json:"difficulty,omitempty"`
	Language   string `json:"language,omitempty"`
}

// CacheKey renders the params canonically (sorted keys, no whitespace) so
// exact-match comparison survives field reordering.
func (p GenerationParams) CacheKey() string {
	raw, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return string(raw)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		v, _ := json.Marshal(m[k])
		if b.Len() > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.Write(v)
	}
	return b.String()
}

// GeneratedItem is one unit of synthesized content. SimilarityText exposes
// the natural-language field compared during deduplication; SetDifficulty
// lets the orchestrator force the requested difficulty onto drifted output.
type GeneratedItem interface {
	SimilarityText() string
	SetDifficulty(difficulty string)
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectIndex  int      `json:"correct_index"`
	ExplanationMD string   `json:"explanation_md,omitempty"`
	Difficulty    string   `json:"difficulty"`
}

func (q *QuizQuestion) SimilarityText() string { return q.Question }
func (q *QuizQuestion) SetDifficulty(d string) { q.Difficulty = d }

type Flashcard struct {
	Front      string `json:"front"`
	Back       string `json:"back"`
	Difficulty string `json:"difficulty"`
}

func (f *Flashcard) SimilarityText() string { return f.Front }
func (f *Flashcard) SetDifficulty(d string) { f.Difficulty = d }

type Slide struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
	NotesMD string   `json:"notes_md,omitempty"`
}

func (s *Slide) SimilarityText() string {
	return s.Title + " " + strings.Join(s.Bullets, " ")
}
func (s *Slide) SetDifficulty(string) {}

// NarrationSection is one spoken-word passage of a narration script.
type NarrationSection struct {
	Heading string `json:"heading,omitempty"`
	Script  string `json:"script"`
}

func (n *NarrationSection) SimilarityText() string { return n.Script }
func (n *NarrationSection) SetDifficulty(string)   {}

// ContentSet is the tagged union handed back to callers: exactly the payload
// slice matching Kind is populated.
type ContentSet struct {
	Kind       ContentKind        `json:"kind"`
	Questions  []QuizQuestion     `json:"questions,omitempty"`
	Cards      []Flashcard        `json:"cards,omitempty"`
	Slides     []Slide            `json:"slides,omitempty"`
	Narration  []NarrationSection `json:"narration,omitempty"`
	AudioRef   string             `json:"audio_ref,omitempty"`
	PreviewRef string             `json:"preview_ref,omitempty"`
}

// NewContentSet packs generic items back into the union for kind.
func NewContentSet(kind ContentKind, items []GeneratedItem) ContentSet {
	set := ContentSet{Kind: kind}
	for _, it := range items {
		switch v := it.(type) {
		case *QuizQuestion:
			set.Questions = append(set.Questions, *v)
		case *Flashcard:
			set.Cards = append(set.Cards, *v)
		case *Slide:
			set.Slides = append(set.Slides, *v)
		case *NarrationSection:
			set.Narration = append(set.Narration, *v)
		}
	}
	return set
}

// Items flattens the union back to the generic form.
func (s ContentSet) Items() []GeneratedItem {
	var out []GeneratedItem
	switch s.Kind {
	case ContentKindQuiz:
		for i := range s.Questions {
			out = append(out, &s.Questions[i])
		}
	case ContentKindFlashcards:
		for i := range s.Cards {
			out = append(out, &s.Cards[i])
		}
	case ContentKindSlides:
		for i := range s.Slides {
			out = append(out, &s.Slides[i])
		}
	case ContentKindNarration:
		for i := range s.Narration {
			out = append(out, &s.Narration[i])
		}
	}
	return out
}

func (s ContentSet) Len() int {
	switch s.Kind {
	case ContentKindQuiz:
		return len(s.Questions)
	case ContentKindFlashcards:
		return len(s.Cards)
	case ContentKindSlides:
		return len(s.Slides)
	case ContentKindNarration:
		return len(s.Narration)
	default:
		return 0
	}
}
