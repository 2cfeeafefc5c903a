package compass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRoommateMatches(t *testing.T) {
	catalog := DefaultCatalog()

	t.Run("returns top three sorted by score", func(t *testing.T) {
		matches, err := ComputeRoommateMatches(DefaultUserProfile(), catalog.Roommates)
		require.NoError(t, err)
		require.Len(t, matches, TopN)
		for i := 1; i < len(matches); i++ {
			assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
		}
	})

	t.Run("identical profile scores one", func(t *testing.T) {
		user := UserProfile{Cleanliness: 5, NoiseTolerance: 1, SleepSchedule: 2, FoodPreference: Veg, Budget: 950}
		matches, err := ComputeRoommateMatches(user, catalog.Roommates)
		require.NoError(t, err)
		assert.Equal(t, "Gayu", matches[0].Roommate.Name)
		assert.InDelta(t, 1.0, matches[0].Score, 1e-12)
		assert.Less(t, matches[1].Score, 1.0)
	})

	t.Run("every valid profile yields three results", func(t *testing.T) {
		for c := MinRating; c <= MaxRating; c++ {
			for _, food := range []FoodPreference{Veg, NonVeg} {
				for _, budget := range []float64{600, 900, 1500} {
					user := UserProfile{Cleanliness: c, NoiseTolerance: MaxRating + 1 - c, SleepSchedule: c, FoodPreference: food, Budget: budget}
					matches, err := ComputeRoommateMatches(user, catalog.Roommates)
					require.NoError(t, err)
					require.Len(t, matches, TopN)
					for i := 1; i < len(matches); i++ {
						assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
					}
				}
			}
		}
	})

	t.Run("ties keep table order", func(t *testing.T) {
		twin := RoommateProfile{Cleanliness: 3, NoiseTolerance: 3, SleepSchedule: 3, FoodPreference: Veg, Budget: 900}
		a, b := twin, twin
		a.Name, b.Name = "First", "Second"
		far := RoommateProfile{Name: "Far", Cleanliness: 1, NoiseTolerance: 5, SleepSchedule: 1, FoodPreference: NonVeg, Budget: 5}

		matches, err := ComputeRoommateMatches(DefaultUserProfile(), []RoommateProfile{far, a, b})
		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, "First", matches[0].Roommate.Name)
		assert.Equal(t, "Second", matches[1].Roommate.Name)
		assert.Equal(t, "Far", matches[2].Roommate.Name)
	})

	t.Run("short table returns everything", func(t *testing.T) {
		matches, err := ComputeRoommateMatches(DefaultUserProfile(), catalog.Roommates[:2])
		require.NoError(t, err)
		assert.Len(t, matches, 2)
	})

	t.Run("deterministic", func(t *testing.T) {
		first, err := ComputeRoommateMatches(DefaultUserProfile(), catalog.Roommates)
		require.NoError(t, err)
		second, err := ComputeRoommateMatches(DefaultUserProfile(), catalog.Roommates)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("invalid profiles are rejected", func(t *testing.T) {
		bad := []struct {
			name string
			mod  func(*UserProfile)
			want error
		}{
			{"rating too low", func(u *UserProfile) { u.Cleanliness = 0 }, ErrInvalidRating},
			{"rating too high", func(u *UserProfile) { u.SleepSchedule = 6 }, ErrInvalidRating},
			{"zero budget", func(u *UserProfile) { u.Budget = 0 }, ErrInvalidBudget},
			{"unknown food", func(u *UserProfile) { u.FoodPreference = FoodPreference(7) }, ErrInvalidFoodPreference},
		}
		for _, tt := range bad {
			t.Run(tt.name, func(t *testing.T) {
				user := DefaultUserProfile()
				tt.mod(&user)
				_, err := ComputeRoommateMatches(user, catalog.Roommates)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0, 0}, []float64{1, 2, 3}))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1, 2, 3}, []float64{0, 0, 0}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
}

func TestWeightsApplyToBothSides(t *testing.T) {
	v := weighted(features(5, 1, 2, Veg, 950))
	assert.Equal(t, [5]float64{6, 1, 2, 0.8, 950}, v)
}
