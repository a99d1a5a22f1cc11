package profile

import (
	"errors"
	"time"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrInsightsNotFound = errors.New("insights not found")

	// ErrNotEnoughInfo means the profile has no source text to extract
	// insights from.
	ErrNotEnoughInfo = errors.New("not enough profile information")
)

// UserProfile is the freeform training profile a user fills in. The text
// fields are the raw material the insights extraction works on.
type UserProfile struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Sex             string     `json:"sex,omitempty"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	HeightCm        *float64   `json:"height_cm,omitempty"`
	WeightKg        *float64   `json:"weight_kg,omitempty"`
	TrainingAge     string     `json:"training_age,omitempty"`
	Goals           string     `json:"goals,omitempty"`
	InjuryHistory   string     `json:"injury_history,omitempty"`
	Strengths       string     `json:"strengths,omitempty"`
	Weaknesses      string     `json:"weaknesses,omitempty"`
	BackgroundStory string     `json:"background_story,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// HasContent reports whether there is any source text worth analyzing.
func (p UserProfile) HasContent() bool {
	return p.TrainingAge != "" ||
		p.Goals != "" ||
		p.InjuryHistory != "" ||
		p.Weaknesses != "" ||
		p.Strengths != "" ||
		p.BackgroundStory != ""
}

// TrainingPhase is one distinct phase of the user's training journey.
type TrainingPhase struct {
	Label       string `json:"label" jsonschema:"description=Short phase name"`
	Description string `json:"description" jsonschema:"description=Brief description of the phase"`
}

// Insights is the structured extraction of a profile: tags and a short
// psychological read, consumed verbatim by the coach system prompt.
type Insights struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	InjuryTags     []string        `json:"injury_tags"`
	CurrentIssues  []string        `json:"current_issues"`
	StrengthTags   []string        `json:"strength_tags"`
	WeakPointTags  []string        `json:"weak_point_tags"`
	TrainingPhases []TrainingPhase `json:"training_phases"`
	PsychProfile   string          `json:"psych_profile"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Context is the composite payload behind the coach's profile context tool
// and the system prompt builder. Profile and Insights are nil when the user
// never filled them in.
type Context struct {
	User     ContextUser  `json:"user"`
	Profile  *UserProfile `json:"profile"`
	Insights *Insights    `json:"insights"`
}

type ContextUser struct {
	Email string `json:"email"`
}
