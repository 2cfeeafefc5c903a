package main

import (
	"errors"
	"fmt"

	"gitea.kood.tech/petrkubec/campus-compass/backend/compass"
)

// Budget bounds accepted from clients (the budget slider range).
const (
	minBudget = 600
	maxBudget = 1500
)

var errBudgetOutOfRange = errors.New("budget out of range")

// ProfileRequest is the wire form of a user profile. Omitted fields keep the
// value of the profile it is applied to.
type ProfileRequest struct {
	Cleanliness    *int     `json:"cleanliness"`
	NoiseTolerance *int     `json:"noise_tolerance"`
	SleepSchedule  *int     `json:"sleep_schedule"`
	FoodPreference *string  `json:"food_preference"`
	Budget         *float64 `json:"budget"`
}

// apply overlays the request on base and validates the result.
func (p ProfileRequest) apply(base compass.UserProfile) (compass.UserProfile, error) {
	out := base
	if p.Cleanliness != nil {
		out.Cleanliness = *p.Cleanliness
	}
	if p.NoiseTolerance != nil {
		out.NoiseTolerance = *p.NoiseTolerance
	}
	if p.SleepSchedule != nil {
		out.SleepSchedule = *p.SleepSchedule
	}
	if p.FoodPreference != nil {
		f, err := compass.ParseFoodPreference(*p.FoodPreference)
		if err != nil {
			return base, err
		}
		out.FoodPreference = f
	}
	if p.Budget != nil {
		out.Budget = *p.Budget
	}
	if err := out.Validate(); err != nil {
		return base, err
	}
	if out.Budget < minBudget || out.Budget > maxBudget {
		return base, fmt.Errorf("%w: %v not in [%d, %d]", errBudgetOutOfRange, out.Budget, minBudget, maxBudget)
	}
	return out, nil
}

// RecommendationsResponse is returned by POST /recommendations.
type RecommendationsResponse struct {
	Profile   compass.UserProfile             `json:"profile"`
	Roommates []compass.RoommateMatch         `json:"roommates"`
	Housing   []compass.HousingRecommendation `json:"housing"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Text string `json:"text"`
}

// ChatResponse carries the reply and the whole transcript after the turn.
type ChatResponse struct {
	Rule       string                `json:"rule"`
	Reply      string                `json:"reply"`
	Transcript []compass.ChatMessage `json:"transcript"`
}

// SessionResponse is returned when a session is created.
type SessionResponse struct {
	SessionID string              `json:"session_id"`
	Token     string              `json:"token"`
	Profile   compass.UserProfile `json:"profile"`
}
