package templates

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gympal-app/backend/internal/kinds"
)

var ErrTemplateNotFound = errors.New("template not found")

type Template struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Name      string             `json:"name"`
	Notes     string             `json:"notes,omitempty"`
	Exercises []TemplateExercise `json:"exercises"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// TemplateExercise is one expanded exercise entry within a template (or a
// scheduled workout): a stable position plus fully normalized sets.
type TemplateExercise struct {
	ExerciseID string            `json:"exercise_id"`
	Order      int               `json:"order"`
	Sets       []kinds.SetRecord `json:"sets"`
	Notes      string            `json:"notes,omitempty"`
}

// CompactExerciseSpec is the minimal exercise description supplied by the
// model (or an API client) before expansion. Sets is either an array of
// per-set hints or a legacy integer count; the scalar hints below apply to
// every generated set unless a per-set hint overrides them.
type CompactExerciseSpec struct {
	ExerciseID string          `json:"exercise_id"`
	Sets       json.RawMessage `json:"sets,omitempty"`
	Reps       *int            `json:"reps,omitempty"`
	Weight     *float64        `json:"weight,omitempty"`
	Duration   *float64        `json:"duration,omitempty"`
	Distance   *float64        `json:"distance,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

// ParseCompactSpecs converts a decoded JSON value (as produced by tool-call
// argument parsing) into compact specs. Elements that cannot be decoded are
// dropped, like specs without an exercise id later on.
func ParseCompactSpecs(raw any) []CompactExerciseSpec {
	rawJson, err := json.Marshal(raw)
	if err != nil {
		return nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(rawJson, &elements); err != nil {
		return nil
	}

	specs := make([]CompactExerciseSpec, 0, len(elements))
	for _, element := range elements {
		var spec CompactExerciseSpec
		if err := json.Unmarshal(element, &spec); err != nil {
			continue
		}
		specs = append(specs, spec)
	}
	return specs
}
