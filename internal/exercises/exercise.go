package exercises

import (
	"errors"
	"time"
)

var ErrExerciseNotFound = errors.New("exercise not found")

type Exercise struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Kind               string    `json:"exercise_kind"`
	PrimaryBodyParts   []string  `json:"primary_body_parts"`
	SecondaryBodyParts []string  `json:"secondary_body_parts"`
	Category           string    `json:"category"`
	Instructions       string    `json:"instructions,omitempty"`
	Image              string    `json:"image,omitempty"`
	IsCustom           bool      `json:"is_custom"`
	UserID             *string   `json:"user_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// ListParams filters the catalogue listing. Results always contain the
// global (built-in) exercises plus the custom ones owned by UserID.
type ListParams struct {
	UserID string
	// Query matches case-insensitively over name and body parts
	Query    string
	BodyPart string
	Limit    int
}
