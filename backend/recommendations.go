package main

import (
	"errors"
	"net/http"

	"gitea.kood.tech/petrkubec/campus-compass/backend/compass"
	"gitea.kood.tech/petrkubec/campus-compass/backend/store"
	"go.uber.org/zap"
)

// POST /recommendations
//
// The body is a (possibly partial) profile applied on top of the session's
// current profile, or the default profile when there is no session. With a
// session the resulting profile becomes the session's current one, so the
// chat assistant talks about the same matches.
func recommendationsHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := a.sessions.fromRequest(r)
		switch {
		case errors.Is(err, errSessionExpired):
			writeError(w, http.StatusUnauthorized, codeSessionExpired)
			return
		case err != nil:
			writeError(w, http.StatusUnauthorized, codeUnauthorized)
			return
		}

		base := compass.DefaultUserProfile()
		if s != nil {
			base = s.Profile()
		}

		var req ProfileRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidJSON)
			return
		}
		profile, err := req.apply(base)
		if err != nil {
			writeError(w, http.StatusBadRequest, profileErrorCode(err))
			return
		}

		roommates, err := compass.ComputeRoommateMatches(profile, a.catalog.Roommates)
		if err != nil {
			a.log.Error("rank roommates", zap.Error(err))
			writeError(w, http.StatusInternalServerError, codeInternal)
			return
		}
		housing, err := compass.ComputeHousingRecommendations(profile.Budget, a.catalog.Housing)
		if err != nil {
			a.log.Error("rank housing", zap.Error(err))
			writeError(w, http.StatusInternalServerError, codeInternal)
			return
		}

		if s != nil {
			s.SetProfile(profile)
		}
		a.metrics.recommendations.Inc()

		writeJSON(w, http.StatusOK, RecommendationsResponse{
			Profile:   profile,
			Roommates: roommates,
			Housing:   housing,
		})
	}
}

// GET /roommates, optionally filtered with repeated ?name=
func roommatesHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := r.URL.Query()["name"]
		if len(names) == 0 {
			writeJSON(w, http.StatusOK, map[string][]compass.RoommateProfile{"roommates": a.catalog.Roommates})
			return
		}
		loaders := GetDataLoadersFromContext(r.Context())
		if loaders == nil {
			writeError(w, http.StatusInternalServerError, codeInternal)
			return
		}

		// Queue every key before resolving so the loader sends one batch
		thunks := make([]func() (compass.RoommateProfile, error), len(names))
		for i, n := range names {
			thunks[i] = loaders.RoommateLoader.Load(r.Context(), store.NameKey(n))
		}
		out := make([]compass.RoommateProfile, 0, len(names))
		for _, thunk := range thunks {
			rm, err := thunk()
			if errors.Is(err, errCatalogNotFound) {
				continue
			}
			if err != nil {
				a.log.Error("load roommates", zap.Error(err))
				writeError(w, http.StatusInternalServerError, codeInternal)
				return
			}
			out = append(out, rm)
		}
		writeJSON(w, http.StatusOK, map[string][]compass.RoommateProfile{"roommates": out})
	}
}

// GET /roommates/{name}
func roommateHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loaders := GetDataLoadersFromContext(r.Context())
		if loaders == nil {
			writeError(w, http.StatusInternalServerError, codeInternal)
			return
		}
		rm, err := loaders.RoommateLoader.Load(r.Context(), store.NameKey(r.PathValue("name")))()
		if errors.Is(err, errCatalogNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound)
			return
		}
		if err != nil {
			a.log.Error("load roommate", zap.Error(err))
			writeError(w, http.StatusInternalServerError, codeInternal)
			return
		}
		writeJSON(w, http.StatusOK, rm)
	}
}

// GET /housing, optionally filtered with repeated ?name=
func housingHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := r.URL.Query()["name"]
		if len(names) == 0 {
			writeJSON(w, http.StatusOK, map[string][]compass.HousingListing{"housing": a.catalog.Housing})
			return
		}
		loaders := GetDataLoadersFromContext(r.Context())
		if loaders == nil {
			writeError(w, http.StatusInternalServerError, codeInternal)
			return
		}

		thunks := make([]func() (compass.HousingListing, error), len(names))
		for i, n := range names {
			thunks[i] = loaders.ListingLoader.Load(r.Context(), store.NameKey(n))
		}
		out := make([]compass.HousingListing, 0, len(names))
		for _, thunk := range thunks {
			l, err := thunk()
			if errors.Is(err, errCatalogNotFound) {
				continue
			}
			if err != nil {
				a.log.Error("load listings", zap.Error(err))
				writeError(w, http.StatusInternalServerError, codeInternal)
				return
			}
			out = append(out, l)
		}
		writeJSON(w, http.StatusOK, map[string][]compass.HousingListing{"housing": out})
	}
}

// GET /housing/{name}
func listingHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loaders := GetDataLoadersFromContext(r.Context())
		if loaders == nil {
			writeError(w, http.StatusInternalServerError, codeInternal)
			return
		}
		l, err := loaders.ListingLoader.Load(r.Context(), store.NameKey(r.PathValue("name")))()
		if errors.Is(err, errCatalogNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound)
			return
		}
		if err != nil {
			a.log.Error("load listing", zap.Error(err))
			writeError(w, http.StatusInternalServerError, codeInternal)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}
