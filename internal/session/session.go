package session

import (
	"time"
)

// Session is the explicit per-browser-session context: who is logged in
// and where they are in the flow. Created at session start, discarded at
// logout or after the TTL. Deliberately not ambient global state - every
// operation that needs it gets it passed in.
type Session struct {
	Token          string    `json:"token"`
	Owner          string    `json:"owner"`
	OnboardingStep int       `json:"onboardingStep"`
	LastExercise   string    `json:"lastExercise"`
	CreatedAt      time.Time `json:"createdAt"`
}
