package textsplit

import (
	"fmt"
	"strings"
)

const (
	DefaultMaxChunkSize = 8000
	DefaultOverlapSize  = 500
	DefaultMinChunkSize = 1000

	// How far back from the candidate cut we look for a natural boundary.
	boundaryWindow = 200
)

// SegmentationOptions bound chunk sizes in characters (runes).
type SegmentationOptions struct {
	MaxChunkSize int
	OverlapSize  int
	MinChunkSize int
}

func DefaultSegmentationOptions() SegmentationOptions {
	return SegmentationOptions{
		MaxChunkSize: DefaultMaxChunkSize,
		OverlapSize:  DefaultOverlapSize,
		MinChunkSize: DefaultMinChunkSize,
	}
}

func (o SegmentationOptions) Validate() error {
	if o.MaxChunkSize <= 0 {
		return fmt.Errorf("maxChunkSize must be positive, got %d", o.MaxChunkSize)
	}
	if o.OverlapSize < 0 || o.OverlapSize >= o.MaxChunkSize {
		return fmt.Errorf("overlapSize must satisfy 0 <= overlap < maxChunkSize, got %d", o.OverlapSize)
	}
	if o.MinChunkSize < 0 || o.MinChunkSize > o.MaxChunkSize {
		return fmt.Errorf("minChunkSize must satisfy 0 <= min <= maxChunkSize, got %d", o.MinChunkSize)
	}
	return nil
}

// Chunk is a bounded, ordered slice of normalized source text. Adjacent
// chunks may overlap by up to OverlapSize characters but never skip text.
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type SegmentationResult struct {
	Chunks          []Chunk `json:"chunks"`
	TotalCharacters int     `json:"total_characters"`
	ChunkCount      int     `json:"chunk_count"`
}

// Segment normalizes text and walks it with a cursor, cutting near
// MaxChunkSize at the best natural boundary available: paragraph break,
// then sentence end, then plain space, then a hard cut. Trimmed chunks
// shorter than MinChunkSize are dropped silently.
func Segment(text string, opts SegmentationOptions) (SegmentationResult, error) {
	if err := opts.Validate(); err != nil {
		return SegmentationResult{}, err
	}

	normalized := Normalize(text)
	runes := []rune(normalized)
	total := len(runes)

	res := SegmentationResult{TotalCharacters: total}
	if total == 0 {
		return res, nil
	}
	if total <= opts.MaxChunkSize {
		res.Chunks = []Chunk{{Index: 0, Text: normalized}}
		res.ChunkCount = 1
		return res, nil
	}

	emit := func(piece string) {
		piece = strings.TrimSpace(piece)
		if len([]rune(piece)) < opts.MinChunkSize {
			return
		}
		res.Chunks = append(res.Chunks, Chunk{Index: len(res.Chunks), Text: piece})
	}

	pos := 0
	for pos < total {
		candidate := pos + opts.MaxChunkSize
		if candidate >= total {
			emit(string(runes[pos:]))
			break
		}

		split := findSplitPoint(runes, pos, candidate)
		emit(string(runes[pos:split]))

		next := split - opts.OverlapSize
		// The +1 guards against non-termination when overlap would
		// otherwise yield a zero or negative advance.
		if next <= pos {
			next = pos + 1
		}
		pos = next
	}

	res.ChunkCount = len(res.Chunks)
	return res, nil
}

// findSplitPoint searches backward from candidate within boundaryWindow,
// preferring a paragraph break, then sentence-ending punctuation followed by
// whitespace, then a plain space. The returned index is exclusive.
func findSplitPoint(runes []rune, start, candidate int) int {
	windowStart := candidate - boundaryWindow
	if windowStart < start+1 {
		windowStart = start + 1
	}

	// Paragraph break: cut after the blank line.
	for i := candidate - 1; i >= windowStart+1; i-- {
		if runes[i-1] == '\n' && runes[i] == '\n' {
			return i + 1
		}
	}

	// Sentence end: punctuation followed by whitespace, cut after the
	// whitespace so the next chunk starts on a fresh sentence.
	for i := candidate - 1; i >= windowStart+1; i-- {
		if isSentenceEnd(runes[i-1]) && isWhitespace(runes[i]) {
			return i + 1
		}
	}

	// Plain space.
	for i := candidate - 1; i >= windowStart; i-- {
		if runes[i] == ' ' {
			return i + 1
		}
	}

	// Hard cut, documents with no usable boundaries still terminate.
	return candidate
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}
