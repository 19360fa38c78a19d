package domain

import (
	"errors"
	"time"
)

var (
	// ErrJobNotFound is returned when no job exists for the requested identifier
	ErrJobNotFound = errors.New("job not found")

	// ErrNotAuthenticated is returned when an operation needs a signed-in user
	ErrNotAuthenticated = errors.New("user not authenticated")

	// ErrToggleInFlight is returned when a favourite toggle is already running for the same viewer and job
	ErrToggleInFlight = errors.New("favourite toggle already in progress")
)

// Job is a single job posting as returned by the job data source.
// IsFavourite is relative to the user the job was fetched for.
type Job struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Company     string    `json:"company" db:"company"`
	CompanyURL  string    `json:"company_url" db:"company_url"`
	CompanyLogo string    `json:"company_logo" db:"company_logo"`
	Location    string    `json:"location" db:"location"`
	Type        string    `json:"type" db:"type"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Description string    `json:"description" db:"description"`
	HowToApply  string    `json:"how_to_apply" db:"how_to_apply"`
	IsFavourite bool      `json:"isFavourite" db:"is_favourite"`
}

// User is the viewer of a page. A zero User is an anonymous viewer.
type User struct {
	ID              string `json:"id"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// Anonymous returns the unauthenticated viewer
func Anonymous() User {
	return User{}
}
