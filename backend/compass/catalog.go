package compass

import (
	"fmt"
	"strings"
)

// Catalog is the fixed pair of tables every ranking runs against.
// It is built once at startup and never mutated afterwards.
type Catalog struct {
	Roommates []RoommateProfile `json:"roommates" yaml:"roommates"`
	Housing   []HousingListing  `json:"housing" yaml:"housing"`
}

// DefaultCatalog returns the built-in five roommates and five listings.
func DefaultCatalog() Catalog {
	return Catalog{
		Roommates: []RoommateProfile{
			{Name: "Aarav", Cleanliness: 4, NoiseTolerance: 2, SleepSchedule: 3, FoodPreference: Veg, Budget: 900, Note: "Prefers clean shared spaces & early mornings."},
			{Name: "Neel", Cleanliness: 5, NoiseTolerance: 1, SleepSchedule: 2, FoodPreference: Veg, Budget: 1000, Note: "Quiet roommate with similar routines."},
			{Name: "Dheeraj", Cleanliness: 3, NoiseTolerance: 4, SleepSchedule: 5, FoodPreference: NonVeg, Budget: 800, Note: "Night owl and music lover."},
			{Name: "Manohar", Cleanliness: 2, NoiseTolerance: 3, SleepSchedule: 4, FoodPreference: NonVeg, Budget: 750, Note: "Relaxed and friendly personality."},
			{Name: "Gayu", Cleanliness: 5, NoiseTolerance: 1, SleepSchedule: 2, FoodPreference: Veg, Budget: 950, Note: "Organized and enjoys cooking healthy meals."},
		},
		Housing: []HousingListing{
			{Name: "Parkside Apartments", Rent: 950, Type: Shared, DistanceMiles: 1.0, Note: "Affordable shared units, 10 mins walk to campus."},
			{Name: "Fairlane Meadows", Rent: 1100, Type: Private, DistanceMiles: 0.8, Note: "Upscale apartments near Fairlane Mall."},
			{Name: "Village Green", Rent: 800, Type: Shared, DistanceMiles: 1.2, Note: "Budget friendly and pet-friendly housing."},
			{Name: "Union at Dearborn", Rent: 1200, Type: Private, DistanceMiles: 0.5, Note: "Luxury private rooms near university center."},
			{Name: "Dearborn View", Rent: 1000, Type: Shared, DistanceMiles: 0.9, Note: "Quiet neighborhood with community spaces."},
		},
	}
}

// Validate checks every row and rejects duplicate names within a table.
func (c Catalog) Validate() error {
	if len(c.Roommates) == 0 || len(c.Housing) == 0 {
		return ErrEmptyCatalog
	}
	seen := make(map[string]struct{}, len(c.Roommates))
	for _, r := range c.Roommates {
		if err := r.validate(); err != nil {
			return err
		}
		key := strings.ToLower(r.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: roommate %q", ErrDuplicateName, r.Name)
		}
		seen[key] = struct{}{}
	}
	seen = make(map[string]struct{}, len(c.Housing))
	for _, h := range c.Housing {
		if err := h.validate(); err != nil {
			return err
		}
		key := strings.ToLower(h.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: listing %q", ErrDuplicateName, h.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Roommate looks a candidate up by name, ignoring case.
func (c Catalog) Roommate(name string) (RoommateProfile, bool) {
	for _, r := range c.Roommates {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return RoommateProfile{}, false
}

// Listing looks a housing row up by name, ignoring case.
func (c Catalog) Listing(name string) (HousingListing, bool) {
	for _, h := range c.Housing {
		if strings.EqualFold(h.Name, name) {
			return h, true
		}
	}
	return HousingListing{}, false
}
