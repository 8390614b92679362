package textsplit

// SelectChunks picks a coverage-preserving subset when a document produced
// more chunks than a run may process: always the first chunk, the last chunk
// when room allows, and evenly strided interior chunks in between. The
// returned slice stays in original document order.
func SelectChunks(chunks []Chunk, maxChunks int) []Chunk {
	if maxChunks <= 0 {
		return nil
	}
	if len(chunks) <= maxChunks {
		return chunks
	}
	if maxChunks == 1 {
		return []Chunk{chunks[0]}
	}

	selected := make([]Chunk, 0, maxChunks)
	selected = append(selected, chunks[0])

	remaining := maxChunks - 2
	interiorCount := len(chunks) - 2
	if remaining > 0 {
		step := interiorCount / (remaining + 1)
		if step < 1 {
			step = 1
		}
		for i := 1; i <= remaining; i++ {
			idx := i * step
			if idx < 1 {
				idx = 1
			}
			if idx > interiorCount {
				idx = interiorCount
			}
			if selected[len(selected)-1].Index == chunks[idx].Index {
				continue
			}
			selected = append(selected, chunks[idx])
		}
	}

	selected = append(selected, chunks[len(chunks)-1])

	// Strided sampling can collide on tiny interiors; pad forward with the
	// earliest unused chunks so the caller still gets exactly maxChunks.
	if len(selected) < maxChunks {
		used := make(map[int]bool, len(selected))
		for _, c := range selected {
			used[c.Index] = true
		}
		for idx := 1; idx < len(chunks)-1 && len(selected) < maxChunks; idx++ {
			if used[idx] {
				continue
			}
			used[idx] = true
			selected = append(selected, chunks[idx])
		}
		sortChunksByIndex(selected)
	}
	return selected
}

func sortChunksByIndex(chunks []Chunk) {
	// Insertion sort; selections are tens of chunks at most.
	for i := 1; i < len(chunks); i++ {
		for j := i; j > 0 && chunks[j-1].Index > chunks[j].Index; j-- {
			chunks[j-1], chunks[j] = chunks[j], chunks[j-1]
		}
	}
}
