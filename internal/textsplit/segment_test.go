package textsplit

import (
	"fmt"
	"strings"
	"testing"
)

func repeatToLength(unit string, n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(unit)
	}
	return strings.TrimSpace(b.String()[:n])
}

// numberedSentences builds aperiodic prose: every sentence is unique, so a
// chunk's text occurs at exactly one source offset and position checks via
// strings.Index cannot alias to an earlier repetition.
func numberedSentences(n int) string {
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		fmt.Fprintf(&b, "Sentence number %d covers topic %d in the lecture. ", i, i*7)
	}
	return strings.TrimSpace(b.String())
}

func TestSegment_InvalidOptions(t *testing.T) {
	cases := []SegmentationOptions{
		{MaxChunkSize: 0},
		{MaxChunkSize: 100, OverlapSize: 100},
		{MaxChunkSize: 100, OverlapSize: -1},
		{MaxChunkSize: 100, MinChunkSize: 200},
	}
	for _, opts := range cases {
		if _, err := Segment("text", opts); err == nil {
			t.Fatalf("options %+v accepted, want error", opts)
		}
	}
}

func TestSegment_ShortTextSingleChunk(t *testing.T) {
	text := "A short document.   With   some  extra space."
	res, err := Segment(text, DefaultSegmentationOptions())
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if res.ChunkCount != 1 || len(res.Chunks) != 1 {
		t.Fatalf("chunk count = %d, want 1", res.ChunkCount)
	}
	if res.Chunks[0].Text != Normalize(text) {
		t.Fatalf("single chunk %q != normalized input %q", res.Chunks[0].Text, Normalize(text))
	}
}

func TestSegment_EmptyInput(t *testing.T) {
	res, err := Segment("", DefaultSegmentationOptions())
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if res.ChunkCount != 0 || res.TotalCharacters != 0 {
		t.Fatalf("empty input produced %+v", res)
	}
}

func TestSegment_ReferenceRun(t *testing.T) {
	// 20k characters, sentence-structured.
	text := repeatToLength("The quick brown fox jumps over the lazy dog. ", 20000)
	opts := SegmentationOptions{MaxChunkSize: 8000, OverlapSize: 500, MinChunkSize: 1000}

	res, err := Segment(text, opts)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if res.ChunkCount != 3 {
		t.Fatalf("chunk count = %d, want 3", res.ChunkCount)
	}
	normalized := Normalize(text)
	for _, c := range res.Chunks {
		n := len([]rune(c.Text))
		if n < opts.MinChunkSize {
			t.Fatalf("chunk %d has %d chars, below min %d", c.Index, n, opts.MinChunkSize)
		}
		if n > opts.MaxChunkSize {
			t.Fatalf("chunk %d has %d chars, above max %d", c.Index, n, opts.MaxChunkSize)
		}
		if !strings.Contains(normalized, c.Text) {
			t.Fatalf("chunk %d is not a slice of the normalized source", c.Index)
		}
	}
}

func TestSegment_CoverageNoGaps(t *testing.T) {
	text := numberedSentences(12000)
	opts := SegmentationOptions{MaxChunkSize: 3000, OverlapSize: 200, MinChunkSize: 0}

	res, err := Segment(text, opts)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if res.ChunkCount < 2 {
		t.Fatalf("expected multiple chunks, got %d", res.ChunkCount)
	}

	normalized := Normalize(text)
	prevEnd := 0
	searchFrom := 0
	for _, c := range res.Chunks {
		start := strings.Index(normalized[searchFrom:], c.Text)
		if start < 0 {
			t.Fatalf("chunk %d not found in source after offset %d", c.Index, searchFrom)
		}
		start += searchFrom
		if gap := normalized[prevEnd:max(prevEnd, start)]; strings.TrimSpace(gap) != "" {
			t.Fatalf("gap %q between chunk %d and its predecessor", gap, c.Index)
		}
		prevEnd = start + len(c.Text)
		searchFrom = start + 1
	}
	if strings.TrimSpace(normalized[prevEnd:]) != "" {
		t.Fatalf("tail %q left uncovered", normalized[prevEnd:])
	}
}

func TestSegment_AdjacentOverlapBounded(t *testing.T) {
	text := numberedSentences(15000)
	opts := SegmentationOptions{MaxChunkSize: 4000, OverlapSize: 300, MinChunkSize: 0}

	res, err := Segment(text, opts)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	normalized := Normalize(text)
	searchFrom := 0
	prevEnd := -1
	for _, c := range res.Chunks {
		start := strings.Index(normalized[searchFrom:], c.Text)
		if start < 0 {
			t.Fatalf("chunk %d not found", c.Index)
		}
		start += searchFrom
		if prevEnd >= 0 && prevEnd-start > opts.OverlapSize {
			t.Fatalf("chunks overlap by %d chars, bound is %d", prevEnd-start, opts.OverlapSize)
		}
		prevEnd = start + len(c.Text)
		searchFrom = start + 1
	}
}

func TestSegment_NoBoundariesHardCut(t *testing.T) {
	// One unbroken run with no spaces, newlines, or punctuation.
	text := strings.Repeat("x", 10000)
	opts := SegmentationOptions{MaxChunkSize: 3000, OverlapSize: 0, MinChunkSize: 0}

	res, err := Segment(text, opts)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if res.ChunkCount != 4 {
		t.Fatalf("chunk count = %d, want 4", res.ChunkCount)
	}
	var joined strings.Builder
	for _, c := range res.Chunks {
		joined.WriteString(c.Text)
	}
	if joined.String() != text {
		t.Fatal("hard-cut chunks do not reassemble the source")
	}
}
