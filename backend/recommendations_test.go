package main

import (
	"net/http"
	"testing"

	"gitea.kood.tech/petrkubec/campus-compass/backend/compass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingNames(recs []compass.HousingRecommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Listing.Name
	}
	return out
}

func TestRecommendationsHandler(t *testing.T) {
	a := newTestApp(t)
	h := a.routes()

	t.Run("Empty body uses the default profile", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/recommendations", "", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decodeBody[RecommendationsResponse](t, rec)
		assert.Equal(t, compass.DefaultUserProfile(), resp.Profile)
		require.Len(t, resp.Roommates, 3)
		for i := 1; i < len(resp.Roommates); i++ {
			assert.GreaterOrEqual(t, resp.Roommates[i-1].Score, resp.Roommates[i].Score)
		}
		assert.Equal(t, []string{"Union at Dearborn", "Parkside Apartments", "Dearborn View"}, listingNames(resp.Housing))
	})

	t.Run("Budget drives the housing ranking", func(t *testing.T) {
		for _, tc := range []struct {
			budget float64
			want   []string
		}{
			{950, []string{"Union at Dearborn", "Parkside Apartments", "Dearborn View"}},
			{600, []string{"Village Green", "Union at Dearborn", "Parkside Apartments"}},
			{1500, []string{"Union at Dearborn", "Fairlane Meadows", "Dearborn View"}},
		} {
			rec := do(t, h, http.MethodPost, "/recommendations", "", map[string]any{"budget": tc.budget})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			resp := decodeBody[RecommendationsResponse](t, rec)
			assert.Equal(t, tc.want, listingNames(resp.Housing), "budget %v", tc.budget)
			assert.Equal(t, tc.budget, resp.Profile.Budget)
		}
	})

	t.Run("Identical candidate scores one", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/recommendations", "", map[string]any{
			"cleanliness":     5,
			"noise_tolerance": 1,
			"sleep_schedule":  2,
			"food_preference": "Veg",
			"budget":          950,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decodeBody[RecommendationsResponse](t, rec)
		require.NotEmpty(t, resp.Roommates)
		assert.Equal(t, "Gayu", resp.Roommates[0].Roommate.Name)
		assert.InDelta(t, 1.0, resp.Roommates[0].Score, 1e-9)
	})

	t.Run("Invalid input", func(t *testing.T) {
		for _, tc := range []struct {
			name string
			body any
			code string
		}{
			{"budget above range", map[string]any{"budget": 1600}, codeInvalidBudget},
			{"negative budget", map[string]any{"budget": -5}, codeInvalidBudget},
			{"rating zero", map[string]any{"cleanliness": 0}, codeInvalidProfile},
			{"food", map[string]any{"food_preference": "Pescatarian"}, codeInvalidFood},
			{"unknown field", map[string]any{"pets": "cat"}, codeInvalidJSON},
			{"not json", "budget=900", codeInvalidJSON},
		} {
			rec := do(t, h, http.MethodPost, "/recommendations", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, tc.name)
			assert.Equal(t, tc.code, errorCode(t, rec), tc.name)
		}
	})

	t.Run("Session keeps the submitted profile", func(t *testing.T) {
		sess := createSession(t, h)

		rec := do(t, h, http.MethodPost, "/recommendations", sess.Token, map[string]any{"budget": 600})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = do(t, h, http.MethodGet, "/profile", sess.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 600.0, decodeBody[compass.UserProfile](t, rec).Budget)

		// the assistant now talks about the budget-600 pick
		rec = do(t, h, http.MethodPost, "/chat", sess.Token, ChatRequest{Text: "any housing?"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, decodeBody[ChatResponse](t, rec).Reply, "**Village Green**")
	})

	t.Run("Expired session", func(t *testing.T) {
		sess := createSession(t, h)
		a.sessions.End(sess.SessionID)

		rec := do(t, h, http.MethodPost, "/recommendations", sess.Token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, codeSessionExpired, errorCode(t, rec))
	})

	t.Run("Forged token", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/recommendations", "not-a-token", map[string]any{"budget": 600})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, codeUnauthorized, errorCode(t, rec))
	})

	t.Run("Counts computed sets", func(t *testing.T) {
		before := counterValue(t, a.metrics.recommendations)
		do(t, h, http.MethodPost, "/recommendations", "", nil)
		do(t, h, http.MethodPost, "/recommendations", "", map[string]any{"budget": 5000})
		assert.Equal(t, before+1, counterValue(t, a.metrics.recommendations))
	})
}

func TestCatalogHandlers(t *testing.T) {
	h := newTestApp(t).routes()

	t.Run("Roommates in table order", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/roommates", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[map[string][]compass.RoommateProfile](t, rec)["roommates"]
		assert.Equal(t, compass.DefaultCatalog().Roommates, got)
	})

	t.Run("Roommates by name", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/roommates?name=gayu&name=nobody&name=NEEL", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[map[string][]compass.RoommateProfile](t, rec)["roommates"]
		require.Len(t, got, 2)
		assert.Equal(t, "Gayu", got[0].Name)
		assert.Equal(t, "Neel", got[1].Name)
	})

	t.Run("One roommate", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/roommates/dheeraj", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[compass.RoommateProfile](t, rec)
		assert.Equal(t, "Dheeraj", got.Name)
		assert.Equal(t, compass.NonVeg, got.FoodPreference)

		rec = do(t, h, http.MethodGet, "/roommates/nobody", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, codeNotFound, errorCode(t, rec))
	})

	t.Run("Housing", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/housing", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[map[string][]compass.HousingListing](t, rec)["housing"]
		assert.Equal(t, compass.DefaultCatalog().Housing, got)

		rec = do(t, h, http.MethodGet, "/housing?name=Village%20Green&name=union%20at%20dearborn", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got = decodeBody[map[string][]compass.HousingListing](t, rec)["housing"]
		require.Len(t, got, 2)
		assert.Equal(t, "Village Green", got[0].Name)
		assert.Equal(t, "Union at Dearborn", got[1].Name)
	})

	t.Run("One listing", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/housing/Parkside%20Apartments", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[compass.HousingListing](t, rec)
		assert.Equal(t, compass.Shared, got.Type)
		assert.Equal(t, 950.0, got.Rent)

		rec = do(t, h, http.MethodGet, "/housing/Nowhere", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
