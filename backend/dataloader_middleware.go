package main

import (
	"net/http"

	"gitea.kood.tech/petrkubec/campus-compass/backend/store"
)

// DataLoaderMiddleware creates middleware that injects dataloaders into the request context
func DataLoaderMiddleware(s store.CatalogStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// New loaders per request so the cache never outlives it
			ctx := WithDataLoaders(r.Context(), NewDataLoaders(s))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
