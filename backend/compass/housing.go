package compass

import (
	"fmt"
	"math"
	"sort"
)

const (
	budgetFitWeight = 0.7
	proximityWeight = 0.3
)

// HousingRecommendation is a listing with the two terms of its score.
type HousingRecommendation struct {
	Listing        HousingListing `json:"listing"`
	MatchScore     float64        `json:"match_score"`
	CompositeScore float64        `json:"composite_score"`
}

// ComputeHousingRecommendations ranks listings by
// 0.7*(1 - |rent-budget|/budget) + 0.3*(1/distance) and returns the best TopN.
//
// The budget-fit term is not clamped: a rent far from the budget produces a
// negative score and still ranks, just low.
func ComputeHousingRecommendations(budget float64, listings []HousingListing) ([]HousingRecommendation, error) {
	if budget <= 0 || math.IsNaN(budget) || math.IsInf(budget, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBudget, budget)
	}

	recs := make([]HousingRecommendation, 0, len(listings))
	for _, l := range listings {
		if l.DistanceMiles <= 0 {
			return nil, fmt.Errorf("listing %q: %w", l.Name, ErrInvalidDistance)
		}
		match := 1 - math.Abs(l.Rent-budget)/budget
		recs = append(recs, HousingRecommendation{
			Listing:        l,
			MatchScore:     match,
			CompositeScore: budgetFitWeight*match + proximityWeight*(1/l.DistanceMiles),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CompositeScore > recs[j].CompositeScore
	})
	if len(recs) > TopN {
		recs = recs[:TopN]
	}
	return recs, nil
}
