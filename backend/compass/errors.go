package compass

import "errors"

var (
	ErrInvalidRating         = errors.New("rating must be between 1 and 5")
	ErrInvalidBudget         = errors.New("budget must be greater than zero")
	ErrInvalidRent           = errors.New("rent must be greater than zero")
	ErrInvalidDistance       = errors.New("distance must be greater than zero")
	ErrInvalidFoodPreference = errors.New("food preference must be Veg or Non-Veg")
	ErrInvalidHousingType    = errors.New("housing type must be Shared or Private")
	ErrDuplicateName         = errors.New("duplicate name in catalog")
	ErrEmptyCatalog          = errors.New("catalog has no rows")
)
