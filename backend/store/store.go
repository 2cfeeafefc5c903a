// Package store provides the sources the fixed catalog can be read from:
// the built-in tables, a YAML file, or Postgres.
package store

import (
	"context"
	"strings"

	"gitea.kood.tech/petrkubec/campus-compass/backend/compass"
)

// CatalogStore is read once at startup and then used for by-name lookups.
// Map keys returned by the ByName methods are lowercased names.
type CatalogStore interface {
	Catalog(ctx context.Context) (compass.Catalog, error)
	RoommatesByName(ctx context.Context, names []string) (map[string]compass.RoommateProfile, error)
	ListingsByName(ctx context.Context, names []string) (map[string]compass.HousingListing, error)
}

// NameKey is the normalised form used for lookups.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
