package workouts

import (
	"errors"
	"time"

	"github.com/gympal-app/backend/internal/kinds"
)

var ErrWorkoutNotFound = errors.New("workout not found")

// Workout is one training session: started when the user begins, finished by
// an update that sets EndedAt. Exercises hold what was actually performed,
// with sets normalized under the owning exercise's kind rules.
type Workout struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	TemplateID *string           `json:"template_id"`
	Name       string            `json:"name"`
	StartedAt  time.Time         `json:"started_at"`
	EndedAt    *time.Time        `json:"ended_at"`
	Notes      string            `json:"notes,omitempty"`
	Exercises  []WorkoutExercise `json:"exercises"`
	CreatedAt  time.Time         `json:"created_at"`
}

func (w Workout) Completed() bool {
	return w.EndedAt != nil
}

type WorkoutExercise struct {
	ExerciseID string            `json:"exercise_id"`
	Order      int               `json:"order"`
	Sets       []kinds.SetRecord `json:"sets"`
	Notes      string            `json:"notes,omitempty"`
}

// ListParams filters a session listing. Zero values mean "no constraint",
// except Limit which is required.
type ListParams struct {
	From          *time.Time
	To            *time.Time
	CompletedOnly bool
	Limit         int
}
