package compass

import (
	"fmt"
	"math"
	"sort"
)

// TopN is how many matches each ranking returns.
const TopN = 3

// featureWeights scale [cleanliness, noise, sleep, food, budget] before comparison.
var featureWeights = [5]float64{1.2, 1.0, 1.0, 0.8, 1.0}

// RoommateMatch is a candidate together with its compatibility score.
type RoommateMatch struct {
	Roommate RoommateProfile `json:"roommate"`
	Score    float64         `json:"score"`
}

// ComputeRoommateMatches ranks roommates by weighted cosine similarity to the
// user and returns the best TopN. Equal scores keep their table order.
func ComputeRoommateMatches(user UserProfile, roommates []RoommateProfile) ([]RoommateMatch, error) {
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("user profile: %w", err)
	}

	userVec := weighted(features(user.Cleanliness, user.NoiseTolerance, user.SleepSchedule, user.FoodPreference, user.Budget))

	matches := make([]RoommateMatch, 0, len(roommates))
	for _, r := range roommates {
		vec := weighted(features(r.Cleanliness, r.NoiseTolerance, r.SleepSchedule, r.FoodPreference, r.Budget))
		matches = append(matches, RoommateMatch{Roommate: r, Score: CosineSimilarity(userVec[:], vec[:])})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > TopN {
		matches = matches[:TopN]
	}
	return matches, nil
}

func features(cleanliness, noise, sleep int, food FoodPreference, budget float64) [5]float64 {
	return [5]float64{float64(cleanliness), float64(noise), float64(sleep), food.Code(), budget}
}

func weighted(v [5]float64) [5]float64 {
	for i := range v {
		v[i] *= featureWeights[i]
	}
	return v
}

// CosineSimilarity returns dot(a, b) / (|a| * |b|). A zero-length vector on
// either side scores 0. Vectors of different length are compared over the
// shorter prefix.
func CosineSimilarity(a, b []float64) float64 {
	n := min(len(a), len(b))
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
