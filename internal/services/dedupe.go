package services

import (
	"strings"
	"unicode"

	"github.com/studyforge/studyforge-backend/internal/types"
)

// DefaultSimilarityThreshold is the Jaccard score at or above which two
// items are considered duplicates.
const DefaultSimilarityThreshold = 0.7

func tokenSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

// JaccardSimilarity compares the word sets of two strings, case-insensitive.
// Two blank strings are treated as identical.
func JaccardSimilarity(a, b string) float64 {
	sa := tokenSet(a)
	sb := tokenSet(b)
	if len(sa) == 0 && len(sb) == 0 {
		return 1
	}
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	for w := range sa {
		if _, ok := sb[w]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

// DedupeItems keeps the first occurrence of each near-duplicate group,
// preserving input order. An item is dropped when its similarity text scores
// at or above threshold against any already-kept item.
func DedupeItems(items []types.GeneratedItem, threshold float64) []types.GeneratedItem {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	kept := make([]types.GeneratedItem, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		dup := false
		for _, k := range kept {
			if JaccardSimilarity(it.SimilarityText(), k.SimilarityText()) >= threshold {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, it)
		}
	}
	return kept
}
