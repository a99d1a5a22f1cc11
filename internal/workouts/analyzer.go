package workouts

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gympal-app/backend/internal/kinds"
	"github.com/gympal-app/backend/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultHistoryDaysBack = 30
	maxHistoryDaysBack     = 365
	defaultHistoryLimit    = 30
	maxHistoryLimit        = 200

	defaultExerciseDaysBack = 120
	maxExerciseDaysBack     = 730
	defaultExerciseLimit    = 60
	maxExerciseLimit        = 300

	recentSetsCap = 15
)

// WorkoutSummary is a per-session digest of a finished workout.
type WorkoutSummary struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at"`
	ExerciseCount int        `json:"exercise_count"`
	SetCount      int        `json:"set_count"`
	TotalVolumeKg float64    `json:"total_volume_kg"`
	Notes         string     `json:"notes"`
}

// SetSample is one performed set of a specific exercise, dated by the
// session it belongs to.
type SetSample struct {
	Date     string   `json:"date"`
	Reps     *int     `json:"reps"`
	Weight   *float64 `json:"weight"`
	Duration *float64 `json:"duration"`
	Distance *float64 `json:"distance"`
}

// BestSet marks the standout set behind a stat; only the fields relevant to
// the exercise kind are filled.
type BestSet struct {
	Date            string   `json:"date"`
	Weight          *float64 `json:"weight,omitempty"`
	Reps            *int     `json:"reps,omitempty"`
	Duration        *float64 `json:"duration,omitempty"`
	DistanceKm      *float64 `json:"distance_km,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	PaceSecPerKm    *float64 `json:"pace_sec_per_km,omitempty"`
}

// ExerciseHistory aggregates all performances of one exercise in a time
// window. Which stat fields are filled depends on the exercise kind:
// strength kinds get weight/reps/e1rm stats, duration kinds a max duration,
// cardio kinds distance and pace.
type ExerciseHistory struct {
	ExerciseID      string `json:"exercise_id"`
	ExerciseKind    string `json:"exercise_kind"`
	WindowDays      int    `json:"window_days"`
	WorkoutsScanned int    `json:"workouts_scanned"`
	Samples         int    `json:"samples"`

	MaxWeight *float64 `json:"max_weight,omitempty"`
	MaxReps   *int     `json:"max_reps,omitempty"`
	BestE1RM  *float64 `json:"best_e1rm,omitempty"`
	BestSet   *BestSet `json:"best_set,omitempty"`

	MaxDurationSeconds *float64 `json:"max_duration_seconds,omitempty"`

	MaxDistanceKm    *float64 `json:"max_distance_km,omitempty"`
	BestPaceSecPerKm *float64 `json:"best_pace_sec_per_km,omitempty"`
	BestDistanceSet  *BestSet `json:"best_distance_set,omitempty"`
	BestPaceSet      *BestSet `json:"best_pace_set,omitempty"`

	RecentSets []SetSample `json:"recent_sets"`
}

// EpleyOneRepMax estimates a one-rep max for the coach analytics. PR
// bookkeeping deliberately keeps the stricter Brzycki estimate instead.
func EpleyOneRepMax(weight float64, reps int) float64 {
	return weight * (1.0 + float64(reps)/30.0)
}

type analyzerRepo interface {
	List(ctx context.Context, userID string, params ListParams) ([]Workout, error)
}

type kindSource interface {
	KindsFor(ctx context.Context, ids []string) (map[string]string, error)
}

// Analyzer computes workout history analytics on top of the sessions repo.
type Analyzer struct {
	repo       analyzerRepo
	kindSource kindSource
}

func NewAnalyzer(repo analyzerRepo, kindSource kindSource) *Analyzer {
	return &Analyzer{
		repo:       repo,
		kindSource: kindSource,
	}
}

// History summarizes the finished workouts of the last daysBack days,
// newest first. Non-positive arguments fall back to defaults, oversized
// ones are clamped.
func (a *Analyzer) History(ctx context.Context, userID string, daysBack, limit int) (_ []WorkoutSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.analyzer.history")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	daysBack = clampInt(daysBack, defaultHistoryDaysBack, 1, maxHistoryDaysBack)
	limit = clampInt(limit, defaultHistoryLimit, 1, maxHistoryLimit)
	span.SetAttributes(attribute.Int("daysBack", daysBack))

	to := time.Now()
	from := to.AddDate(0, 0, -daysBack)
	workouts, err := a.repo.List(ctx, userID, ListParams{
		From:          &from,
		To:            &to,
		CompletedOnly: true,
		Limit:         limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	summaries := make([]WorkoutSummary, 0, len(workouts))
	for _, workout := range workouts {
		summary := WorkoutSummary{
			ID:        workout.ID,
			Name:      workout.Name,
			StartedAt: workout.StartedAt,
			EndedAt:   workout.EndedAt,
			Notes:     workout.Notes,
		}
		if summary.Name == "" {
			summary.Name = "Workout"
		}

		var totalVolume float64
		for _, exercise := range workout.Exercises {
			summary.ExerciseCount++
			for _, set := range exercise.Sets {
				summary.SetCount++
				if set.Weight != nil && set.Reps != nil {
					totalVolume += *set.Weight * float64(*set.Reps)
				}
			}
		}
		summary.TotalVolumeKg = round2(totalVolume)

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// ExerciseHistory aggregates every performance of one exercise in the last
// daysBack days, with kind-appropriate stats.
func (a *Analyzer) ExerciseHistory(
	ctx context.Context, userID, exerciseID string, daysBack, limitWorkouts int,
) (_ *ExerciseHistory, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.analyzer.exerciseHistory")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exerciseId", exerciseID))

	daysBack = clampInt(daysBack, defaultExerciseDaysBack, 1, maxExerciseDaysBack)
	limitWorkouts = clampInt(limitWorkouts, defaultExerciseLimit, 1, maxExerciseLimit)

	kindMap, err := a.kindSource.KindsFor(ctx, []string{exerciseID})
	if err != nil {
		return nil, fmt.Errorf("resolve exercise kind: %w", err)
	}
	kind := kinds.Resolve(kindMap[exerciseID])
	rule := kinds.RuleFor(kind)

	to := time.Now()
	from := to.AddDate(0, 0, -daysBack)
	workouts, err := a.repo.List(ctx, userID, ListParams{
		From:          &from,
		To:            &to,
		CompletedOnly: true,
		Limit:         limitWorkouts,
	})
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	var samples []SetSample
	for _, workout := range workouts {
		date := workout.StartedAt.UTC().Format(time.RFC3339)
		for _, exercise := range workout.Exercises {
			if exercise.ExerciseID != exerciseID {
				continue
			}
			for _, set := range exercise.Sets {
				samples = append(samples, SetSample{
					Date:     date,
					Reps:     set.Reps,
					Weight:   set.Weight,
					Duration: set.Duration,
					Distance: set.Distance,
				})
			}
		}
	}

	history := &ExerciseHistory{
		ExerciseID:      exerciseID,
		ExerciseKind:    kind,
		WindowDays:      daysBack,
		WorkoutsScanned: len(workouts),
		Samples:         len(samples),
		RecentSets:      recentSets(samples),
	}

	switch {
	case rule.Allows(kinds.FieldReps) && !rule.Allows(kinds.FieldDuration) && !rule.Allows(kinds.FieldDistance):
		a.strengthStats(history, samples)
	case rule.Allows(kinds.FieldDuration) && !rule.Allows(kinds.FieldReps) && !rule.Allows(kinds.FieldDistance):
		a.durationStats(history, samples)
	case (rule.Allows(kinds.FieldDuration) || rule.Allows(kinds.FieldDistance)) && !rule.Allows(kinds.FieldReps):
		a.cardioStats(history, samples)
	}

	return history, nil
}

func (a *Analyzer) strengthStats(history *ExerciseHistory, samples []SetSample) {
	for _, s := range samples {
		if s.Reps == nil {
			continue
		}
		reps := *s.Reps

		if history.MaxReps == nil || reps > *history.MaxReps {
			history.MaxReps = intPtr(reps)
		}

		if s.Weight != nil {
			weight := *s.Weight
			if history.MaxWeight == nil || weight > *history.MaxWeight {
				history.MaxWeight = floatPtr(weight)
			}

			estimate := weight
			if reps > 0 {
				estimate = EpleyOneRepMax(weight, reps)
			}
			if history.BestE1RM == nil || estimate > *history.BestE1RM {
				history.BestE1RM = floatPtr(estimate)
				history.BestSet = &BestSet{
					Date:   s.Date,
					Weight: floatPtr(weight),
					Reps:   intPtr(reps),
				}
			}
			continue
		}

		// bodyweight sets compete on reps alone
		if history.BestSet == nil || reps > bestSetReps(history.BestSet) {
			history.BestSet = &BestSet{
				Date: s.Date,
				Reps: intPtr(reps),
			}
		}
	}

	if history.BestE1RM != nil {
		history.BestE1RM = floatPtr(round2(*history.BestE1RM))
	}
}

func (a *Analyzer) durationStats(history *ExerciseHistory, samples []SetSample) {
	for _, s := range samples {
		if s.Duration == nil {
			continue
		}
		duration := *s.Duration
		if history.MaxDurationSeconds == nil || duration > *history.MaxDurationSeconds {
			history.MaxDurationSeconds = floatPtr(duration)
			history.BestSet = &BestSet{
				Date:     s.Date,
				Duration: floatPtr(duration),
			}
		}
	}
}

func (a *Analyzer) cardioStats(history *ExerciseHistory, samples []SetSample) {
	for _, s := range samples {
		if s.Distance != nil {
			distance := *s.Distance
			if history.MaxDistanceKm == nil || distance > *history.MaxDistanceKm {
				history.MaxDistanceKm = floatPtr(distance)
				history.BestDistanceSet = &BestSet{
					Date:            s.Date,
					DistanceKm:      floatPtr(distance),
					DurationSeconds: copyFloat(s.Duration),
				}
			}
		}

		if s.Distance != nil && s.Duration != nil && *s.Distance > 0 {
			pace := *s.Duration / *s.Distance
			if history.BestPaceSecPerKm == nil || pace < *history.BestPaceSecPerKm {
				history.BestPaceSecPerKm = floatPtr(pace)
				history.BestPaceSet = &BestSet{
					Date:            s.Date,
					DistanceKm:      floatPtr(*s.Distance),
					DurationSeconds: floatPtr(*s.Duration),
					PaceSecPerKm:    floatPtr(round2(pace)),
				}
			}
		}
	}

	if history.BestPaceSecPerKm != nil {
		history.BestPaceSecPerKm = floatPtr(round2(*history.BestPaceSecPerKm))
	}
}

func recentSets(samples []SetSample) []SetSample {
	if len(samples) > recentSetsCap {
		return samples[:recentSetsCap]
	}
	if samples == nil {
		return []SetSample{}
	}
	return samples
}

func bestSetReps(set *BestSet) int {
	if set == nil || set.Reps == nil {
		return 0
	}
	return *set.Reps
}

// clampInt applies the default when v is non-positive, then clamps into
// [lo, hi].
func clampInt(v, def, lo, hi int) int {
	if v <= 0 {
		v = def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return floatPtr(*v)
}
