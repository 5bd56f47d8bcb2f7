package reports

// Distance is the Levenshtein edit distance between a and b. Both are
// expected to be Normalize output, so comparing bytes is enough.
func Distance(a, b string) int {
	if a == b {
		return 0
	}
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	// Single-row DP: row[j] holds the distance between a[:i] and b[:j].
	row := make([]int, lb+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= la; i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			next := min(row[j]+1, row[j-1]+1, diag+cost)
			diag = row[j]
			row[j] = next
		}
	}
	return row[lb]
}

// Similarity maps Distance onto [0,1]; 1 means identical.
func Similarity(a, b string) float64 {
	maxLen := max(len(a), len(b), 1)
	return 1 - float64(Distance(a, b))/float64(maxLen)
}
