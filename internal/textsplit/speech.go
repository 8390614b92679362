package textsplit

import "strings"

const (
	DefaultSpeechMaxChars = 4000

	// Speech pieces care only about sentence boundaries, and scripts can run
	// long sentences, so the trailing search window is wider than the
	// document segmenter's.
	speechBoundaryWindow = 500
)

// SplitForSynthesis splits a narration script into speech-engine-sized
// pieces. Sentence-ending punctuation is the only preferred boundary; the
// last space within the limit is the fallback when a sentence runs past the
// trailing window. Pieces are trimmed and non-empty, and concatenating them
// in order reproduces the script's content.
func SplitForSynthesis(script string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultSpeechMaxChars
	}
	script = strings.TrimSpace(script)
	if script == "" {
		return nil
	}

	runes := []rune(script)
	total := len(runes)
	if total <= maxChars {
		return []string{script}
	}

	var pieces []string
	pos := 0
	for pos < total {
		candidate := pos + maxChars
		if candidate >= total {
			if tail := strings.TrimSpace(string(runes[pos:])); tail != "" {
				pieces = append(pieces, tail)
			}
			break
		}

		split := findSpeechSplit(runes, pos, candidate)
		if piece := strings.TrimSpace(string(runes[pos:split])); piece != "" {
			pieces = append(pieces, piece)
		}
		pos = split
	}
	return pieces
}

func findSpeechSplit(runes []rune, start, candidate int) int {
	windowStart := candidate - speechBoundaryWindow
	if windowStart < start+1 {
		windowStart = start + 1
	}

	for i := candidate - 1; i >= windowStart+1; i-- {
		if isSentenceEnd(runes[i-1]) && isWhitespace(runes[i]) {
			return i + 1
		}
	}
	// The space fallback searches the whole piece, not just the trailing
	// window: any space beats cutting mid-word.
	for i := candidate - 1; i > start; i-- {
		if runes[i] == ' ' {
			return i + 1
		}
	}
	return candidate
}
