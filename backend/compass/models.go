package compass

import (
	"fmt"
	"strings"
)

// Rating bounds shared by every lifestyle slider.
const (
	MinRating = 1
	MaxRating = 5
)

// FoodPreference is the only categorical feature used for matching.
type FoodPreference int

// The codes follow alphabetical label order ("Non-Veg" < "Veg"), so the numeric
// feature is the same for users and candidates no matter where the value came from.
const (
	NonVeg FoodPreference = iota
	Veg
)

// ParseFoodPreference accepts "Veg", "Non-Veg" and "NonVeg" in any case.
func ParseFoodPreference(s string) (FoodPreference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "veg":
		return Veg, nil
	case "non-veg", "nonveg", "non veg":
		return NonVeg, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidFoodPreference, s)
}

// Code is the numeric value fed into the feature vector.
func (f FoodPreference) Code() float64 {
	return float64(f)
}

func (f FoodPreference) Valid() bool {
	return f == Veg || f == NonVeg
}

func (f FoodPreference) String() string {
	switch f {
	case Veg:
		return "Veg"
	case NonVeg:
		return "Non-Veg"
	}
	return fmt.Sprintf("FoodPreference(%d)", int(f))
}

func (f FoodPreference) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFoodPreference, int(f))
	}
	return []byte(f.String()), nil
}

func (f *FoodPreference) UnmarshalText(b []byte) error {
	v, err := ParseFoodPreference(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// HousingType distinguishes shared units from private ones.
type HousingType string

const (
	Shared  HousingType = "Shared"
	Private HousingType = "Private"
)

// ParseHousingType normalises the case of a housing type label.
func ParseHousingType(s string) (HousingType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shared":
		return Shared, nil
	case "private":
		return Private, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidHousingType, s)
}

// RoommateProfile is one candidate row of the roommate table.
type RoommateProfile struct {
	Name           string         `json:"name" yaml:"name"`
	Cleanliness    int            `json:"cleanliness" yaml:"cleanliness"`
	NoiseTolerance int            `json:"noise_tolerance" yaml:"noise_tolerance"`
	SleepSchedule  int            `json:"sleep_schedule" yaml:"sleep_schedule"`
	FoodPreference FoodPreference `json:"food_preference" yaml:"food_preference"`
	Budget         float64        `json:"budget" yaml:"budget"`
	Note           string         `json:"note" yaml:"note"`
}

// HousingListing is one row of the housing table.
type HousingListing struct {
	Name          string      `json:"name" yaml:"name"`
	Rent          float64     `json:"rent" yaml:"rent"`
	Type          HousingType `json:"type" yaml:"type"`
	DistanceMiles float64     `json:"distance_miles" yaml:"distance_miles"`
	Note          string      `json:"note" yaml:"note"`
}

// UserProfile holds the five inputs of the person asking for matches.
type UserProfile struct {
	Cleanliness    int            `json:"cleanliness"`
	NoiseTolerance int            `json:"noise_tolerance"`
	SleepSchedule  int            `json:"sleep_schedule"`
	FoodPreference FoodPreference `json:"food_preference"`
	Budget         float64        `json:"budget"`
}

// DefaultUserProfile mirrors the initial position of every input control.
func DefaultUserProfile() UserProfile {
	return UserProfile{
		Cleanliness:    3,
		NoiseTolerance: 3,
		SleepSchedule:  3,
		FoodPreference: Veg,
		Budget:         900,
	}
}

// Validate checks the profile against the domain of every field.
func (u UserProfile) Validate() error {
	if err := validateRatings(u.Cleanliness, u.NoiseTolerance, u.SleepSchedule); err != nil {
		return err
	}
	if !u.FoodPreference.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidFoodPreference, int(u.FoodPreference))
	}
	if u.Budget <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidBudget, u.Budget)
	}
	return nil
}

func (r RoommateProfile) validate() error {
	if err := validateRatings(r.Cleanliness, r.NoiseTolerance, r.SleepSchedule); err != nil {
		return fmt.Errorf("roommate %q: %w", r.Name, err)
	}
	if !r.FoodPreference.Valid() {
		return fmt.Errorf("roommate %q: %w", r.Name, ErrInvalidFoodPreference)
	}
	if r.Budget <= 0 {
		return fmt.Errorf("roommate %q: %w", r.Name, ErrInvalidBudget)
	}
	return nil
}

func (h HousingListing) validate() error {
	if h.Rent <= 0 {
		return fmt.Errorf("listing %q: %w", h.Name, ErrInvalidRent)
	}
	if h.DistanceMiles <= 0 {
		return fmt.Errorf("listing %q: %w", h.Name, ErrInvalidDistance)
	}
	if h.Type != Shared && h.Type != Private {
		return fmt.Errorf("listing %q: %w", h.Name, ErrInvalidHousingType)
	}
	return nil
}

func validateRatings(ratings ...int) error {
	for _, r := range ratings {
		if r < MinRating || r > MaxRating {
			return fmt.Errorf("%w: got %d", ErrInvalidRating, r)
		}
	}
	return nil
}
