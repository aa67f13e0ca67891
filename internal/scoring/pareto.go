package scoring

// ParetoCandidate is a product placed in a comparison table by its component scores.
type ParetoCandidate struct {
	ProductID    string  `json:"product_id"`
	Evidence     float64 `json:"evidence"`
	Safety       float64 `json:"safety"`
	Cost         float64 `json:"cost"`
	Practicality float64 `json:"practicality"`
}

// CandidateFrom builds a ParetoCandidate from a score result.
func CandidateFrom(productID string, r ScoreResult) ParetoCandidate {
	return ParetoCandidate{
		ProductID:    productID,
		Evidence:     r.Components.Evidence,
		Safety:       r.Components.Safety,
		Cost:         r.Components.Cost,
		Practicality: r.Components.Practicality,
	}
}

// ComputeFrontier returns the Pareto-optimal candidates from the input set,
// preserving input order. A candidate is dominated if another candidate is >=
// on all four components and strictly better on at least one.
// O(n^2) dominance check, fine for comparison-table sizes.
func ComputeFrontier(candidates []ParetoCandidate) []ParetoCandidate {
	if len(candidates) <= 1 {
		return candidates
	}

	var frontier []ParetoCandidate
	for i := range candidates {
		dominated := false
		for j := range candidates {
			if i == j {
				continue
			}
			if dominates(candidates[j], candidates[i]) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, candidates[i])
		}
	}
	return frontier
}

// dominates returns true if a dominates b. Higher is better on every component.
func dominates(a, b ParetoCandidate) bool {
	if a.Evidence < b.Evidence || a.Safety < b.Safety || a.Cost < b.Cost || a.Practicality < b.Practicality {
		return false
	}
	return a.Evidence > b.Evidence || a.Safety > b.Safety || a.Cost > b.Cost || a.Practicality > b.Practicality
}
