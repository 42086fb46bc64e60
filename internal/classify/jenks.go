package classify

import "math"

// jenksBreaks computes natural breaks by the Fisher-Jenks dynamic program:
// partition the sorted values into nClasses contiguous groups minimizing the
// total within-class sum of squared deviations from each group mean.
//
// lower[i][j] is the 1-based index of the first element of class j in an
// optimal partition of the first i values; cost[i][j] the minimal
// within-class sum of squares for that partition. Group sums are accumulated
// from the right so each (i, j) cell is filled in O(i), giving O(n²·k)
// overall, which is fine at census-sector scale.
//
// Interior boundaries are placed on the first value of each upper group so
// the closed-left, open-right interval convention keeps every group intact.
// Every class is non-empty: a split at `first` is only considered for class
// j when the prefix holds at least j-1 elements, so tie-heavy inputs (all
// values equal, repeated counts) still backtrack through exactly nClasses
// groups. Ties between equal-cost partitions resolve to the split found
// last in the scan, which is deterministic for a given input ordering.
func jenksBreaks(sorted []float64, nClasses int) []float64 {
	m := len(sorted)

	lower := make([][]int, m+1)
	cost := make([][]float64, m+1)
	for i := range lower {
		lower[i] = make([]int, nClasses+1)
		cost[i] = make([]float64, nClasses+1)
	}
	lower[1][1] = 1
	for j := 2; j <= nClasses; j++ {
		// One element cannot fill j non-empty classes.
		cost[1][j] = math.Inf(1)
	}
	for j := 1; j <= nClasses; j++ {
		for i := 2; i <= m; i++ {
			cost[i][j] = math.Inf(1)
		}
	}

	for i := 2; i <= m; i++ {
		var sum, sumSq, w float64
		for l := 1; l <= i; l++ {
			first := i - l // 0-based index of the trailing group's first element
			v := sorted[first]
			w++
			sum += v
			sumSq += v * v
			variance := sumSq - sum*sum/w

			if first > 0 {
				// j-1 <= first keeps the lower classes non-empty.
				for j := 2; j <= nClasses && j-1 <= first; j++ {
					if cand := variance + cost[first][j-1]; cand <= cost[i][j] {
						lower[i][j] = first + 1
						cost[i][j] = cand
					}
				}
			}
		}
		// One class over the full prefix: the trailing group is everything.
		lower[i][1] = 1
		cost[i][1] = sumSq - sum*sum/w
	}

	breaks := make([]float64, nClasses+1)
	breaks[0] = sorted[0]
	breaks[nClasses] = sorted[m-1]

	k := m
	for j := nClasses; j >= 2; j-- {
		first := lower[k][j] - 1 // 0-based first element of class j
		breaks[j-1] = sorted[first]
		k = first // remaining prefix holds exactly `first` values
	}
	return breaks
}
