package framework

// NonDominatedSort ranks points into Pareto fronts. It returns, for each front,
// the indices of its points; fronts[0] is the non-dominated set.
func NonDominatedSort(points []ObjectiveSpacePoint) [][]int {
	if len(points) == 0 {
		return nil
	}

	var fronts [][]int
	dominated := make([][]int, len(points))
	domCount := make([]int, len(points))

	// Calculate domination for each point
	for i := 0; i < len(points); i++ {
		for j := 0; j < len(points); j++ {
			if i != j {
				if Dominates(points[i], points[j]) {
					dominated[i] = append(dominated[i], j)
				} else if Dominates(points[j], points[i]) {
					domCount[i]++
				}
			}
		}
	}

	// Find first front
	currentFront := []int{}
	for i := 0; i < len(points); i++ {
		if domCount[i] == 0 {
			currentFront = append(currentFront, i)
		}
	}

	// Find subsequent fronts
	for len(currentFront) > 0 {
		fronts = append(fronts, currentFront)
		nextFront := []int{}
		for _, idx := range currentFront {
			for _, dominatedIdx := range dominated[idx] {
				domCount[dominatedIdx]--
				if domCount[dominatedIdx] == 0 {
					nextFront = append(nextFront, dominatedIdx)
				}
			}
		}
		currentFront = nextFront
	}

	return fronts
}

// Dominates checks if point a Pareto-dominates point b: a is at least as good
// on every objective and strictly better on one. Larger values are better.
// Points of different dimension never dominate each other.
func Dominates(a, b ObjectiveSpacePoint) bool {
	if len(a) != len(b) {
		return false
	}
	better := false
	for i := 0; i < len(a); i++ {
		if a[i] < b[i] {
			return false
		}
		if a[i] > b[i] {
			better = true
		}
	}
	return better
}
