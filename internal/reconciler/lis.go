package reconciler

// longestIncreasing marks the indices of one longest strictly increasing
// subsequence of positions. Negative positions never take part.
func longestIncreasing(positions []int) []bool {
	marked := make([]bool, len(positions))
	// tails[l] is the index ending the best subsequence of length l+1.
	var tails []int
	prev := make([]int, len(positions))
	for i, v := range positions {
		prev[i] = -1
		if v < 0 {
			continue
		}
		lo, hi := 0, len(tails)
		for lo < hi {
			mid := (lo + hi) / 2
			if positions[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo > 0 {
			prev[i] = tails[lo-1]
		}
		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}
	if len(tails) == 0 {
		return marked
	}
	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		marked[i] = true
	}
	return marked
}
