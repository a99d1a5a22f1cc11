package workouts

import (
	"context"
	"fmt"
	"time"

	"github.com/gympal-app/backend/internal/kinds"
	"github.com/gympal-app/backend/internal/telemetry/metrics"
	"github.com/gympal-app/backend/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// PR is a detected personal record: the heaviest estimated one-rep max seen
// for an exercise so far. Records are append-only, the newest one per
// exercise is the current PR.
type PR struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ExerciseID   string    `json:"exercise_id"`
	Weight       float64   `json:"weight"`
	Reps         int       `json:"reps"`
	Estimated1RM float64   `json:"estimated_1rm"`
	Date         time.Time `json:"date"`
}

// BrzyckiOneRepMax estimates a one-rep max from a single set. The formula
// degenerates at 37+ reps, the lifted weight itself is returned there.
func BrzyckiOneRepMax(weight float64, reps int) float64 {
	if reps >= 37 {
		return weight
	}
	return weight * (36.0 / float64(37-reps))
}

type prRepo interface {
	Add(ctx context.Context, pr PR) (*PR, error)
	HasBetter(ctx context.Context, userID, exerciseID string, estimated1RM float64) (bool, error)
}

// PRTracker scans finished workouts for new personal records.
type PRTracker struct {
	prs            prRepo
	metricsManager *metrics.Manager
}

func NewPRTracker(prs prRepo, metricsManager *metrics.Manager) *PRTracker {
	return &PRTracker{
		prs:            prs,
		metricsManager: metricsManager,
	}
}

// CheckWorkout inspects every working set of a finished workout and records
// a PR for each set whose estimated one-rep max beats everything stored for
// that exercise. Warmup sets and sets without positive weight and reps are
// ignored.
func (t *PRTracker) CheckWorkout(ctx context.Context, workout *Workout) (_ []PR, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.prTracker.checkWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", workout.ID))

	var created []PR
	for _, exercise := range workout.Exercises {
		for _, set := range exercise.Sets {
			if set.SetType == kinds.SetTypeWarmup {
				continue
			}
			if set.Weight == nil || set.Reps == nil {
				continue
			}
			weight := *set.Weight
			reps := *set.Reps
			if weight <= 0 || reps <= 0 {
				continue
			}

			estimated1RM := BrzyckiOneRepMax(weight, reps)

			hasBetter, err := t.prs.HasBetter(ctx, workout.UserID, exercise.ExerciseID, estimated1RM)
			if err != nil {
				return created, fmt.Errorf("check existing prs: %w", err)
			}
			if hasBetter {
				continue
			}

			pr, err := t.prs.Add(ctx, PR{
				UserID:       workout.UserID,
				ExerciseID:   exercise.ExerciseID,
				Weight:       weight,
				Reps:         reps,
				Estimated1RM: estimated1RM,
				Date:         time.Now(),
			})
			if err != nil {
				return created, fmt.Errorf("add pr: %w", err)
			}

			log.Infof(
				"new pr for exercise %s: %.2f x %d (e1rm %.2f)",
				exercise.ExerciseID, weight, reps, estimated1RM,
			)
			t.metricsManager.CounterPersonalRecords.Inc()
			created = append(created, *pr)
		}
	}

	return created, nil
}
