package store

import (
	"context"

	"gitea.kood.tech/petrkubec/campus-compass/backend/compass"
)

// MemoryStore serves a catalog held in memory.
type MemoryStore struct {
	catalog   compass.Catalog
	roommates map[string]compass.RoommateProfile
	listings  map[string]compass.HousingListing
}

// NewMemoryStore validates c and indexes it by name.
func NewMemoryStore(c compass.Catalog) (*MemoryStore, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	s := &MemoryStore{
		catalog:   c,
		roommates: make(map[string]compass.RoommateProfile, len(c.Roommates)),
		listings:  make(map[string]compass.HousingListing, len(c.Housing)),
	}
	for _, r := range c.Roommates {
		s.roommates[NameKey(r.Name)] = r
	}
	for _, h := range c.Housing {
		s.listings[NameKey(h.Name)] = h
	}
	return s, nil
}

func (s *MemoryStore) Catalog(ctx context.Context) (compass.Catalog, error) {
	return compass.Catalog{
		Roommates: append([]compass.RoommateProfile(nil), s.catalog.Roommates...),
		Housing:   append([]compass.HousingListing(nil), s.catalog.Housing...),
	}, nil
}

func (s *MemoryStore) RoommatesByName(ctx context.Context, names []string) (map[string]compass.RoommateProfile, error) {
	out := make(map[string]compass.RoommateProfile, len(names))
	for _, n := range names {
		if r, ok := s.roommates[NameKey(n)]; ok {
			out[NameKey(n)] = r
		}
	}
	return out, nil
}

func (s *MemoryStore) ListingsByName(ctx context.Context, names []string) (map[string]compass.HousingListing, error) {
	out := make(map[string]compass.HousingListing, len(names))
	for _, n := range names {
		if h, ok := s.listings[NameKey(n)]; ok {
			out[NameKey(n)] = h
		}
	}
	return out, nil
}
