package textsplit

// DistributeBudget allocates an integer generation budget across chunkCount
// chunks: every chunk gets the floor share and the first total%chunkCount
// chunks get one extra, so earlier chunks (assumed to carry primary content)
// win remainder ties. The result always sums exactly to total.
func DistributeBudget(total, chunkCount int) []int {
	if chunkCount <= 0 {
		return nil
	}
	if total < 0 {
		total = 0
	}
	if chunkCount == 1 {
		return []int{total}
	}

	base := total / chunkCount
	remainder := total % chunkCount

	out := make([]int, chunkCount)
	for i := range out {
		out[i] = base
		if i < remainder {
			out[i]++
		}
	}
	return out
}
