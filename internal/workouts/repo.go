package workouts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gympal-app/backend/internal/schedule"
	"github.com/gympal-app/backend/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// UpdateParams patches a workout session. Nil fields are left untouched.
type UpdateParams struct {
	ID        string
	UserID    string
	Notes     *string
	Exercises *[]WorkoutExercise
	EndedAt   *time.Time
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if workout.ID == "" {
		workout.ID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("workout.id", workout.ID))

	if workout.Exercises == nil {
		workout.Exercises = []WorkoutExercise{}
	}
	exercisesJson, err := json.Marshal(workout.Exercises)
	if err != nil {
		return nil, fmt.Errorf("marshal exercises: %w", err)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO workout (id, user_id, template_id, name, started_at, ended_at, notes, exercises, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
		workout.ID, workout.UserID, workout.TemplateID, workout.Name,
		workout.StartedAt, workout.EndedAt, workout.Notes, exercisesJson, workout.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &workout, nil
}

func (r *Repo) Get(ctx context.Context, userID, id string) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, template_id, name, started_at, ended_at, notes, exercises, created_at
			FROM workout WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, err
	}
	if len(workouts) != 1 {
		return nil, ErrWorkoutNotFound
	}
	return &workouts[0], nil
}

func (r *Repo) List(ctx context.Context, userID string, params ListParams) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("limit", params.Limit))
	span.SetAttributes(attribute.Bool("completedOnly", params.CompletedOnly))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, template_id, name, started_at, ended_at, notes, exercises, created_at
			FROM workout
			WHERE user_id = $1
				AND ($2::timestamptz IS NULL OR started_at >= $2)
				AND ($3::timestamptz IS NULL OR started_at <= $3)
				AND (NOT $4::boolean OR ended_at IS NOT NULL)
			ORDER BY started_at DESC
			LIMIT $5;`,
		userID, params.From, params.To, params.CompletedOnly, params.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2workouts: %w", err)
	}
	return workouts, nil
}

func (r *Repo) Update(ctx context.Context, params UpdateParams) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", params.ID))

	var exercisesJson []byte
	if params.Exercises != nil {
		if exercisesJson, err = json.Marshal(*params.Exercises); err != nil {
			return fmt.Errorf("marshal exercises: %w", err)
		}
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout SET
				notes = COALESCE($3, notes),
				exercises = COALESCE($4::jsonb, exercises),
				ended_at = COALESCE($5, ended_at)
			WHERE id = $1 AND user_id = $2;`,
		params.ID, params.UserID,
		params.Notes, exercisesJson, params.EndedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

// CompletedSince returns finished sessions of all users, oldest first. Used
// by the backup tool: a nil since exports everything, otherwise only sessions
// created after it.
func (r *Repo) CompletedSince(ctx context.Context, since *time.Time) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.completedSince")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, template_id, name, started_at, ended_at, notes, exercises, created_at
			FROM workout
			WHERE ended_at IS NOT NULL
				AND ($1::timestamptz IS NULL OR created_at > $1)
			ORDER BY created_at ASC;`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return r.rows2workouts(rows)
}

// CompletedSessions reports finished sessions started in the inclusive
// [fromDate, toDate] range, keyed by template and calendar date, so the
// schedule can mark planned entries as done.
func (r *Repo) CompletedSessions(
	ctx context.Context, userID, fromDate, toDate string,
) (_ map[schedule.SessionKey]string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.completedSessions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, template_id, started_at
			FROM workout
			WHERE user_id = $1
				AND ended_at IS NOT NULL
				AND template_id IS NOT NULL
				AND started_at >= $2::date
				AND started_at < ($3::date + INTERVAL '1 day');`,
		userID, fromDate, toDate,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	completed := make(map[schedule.SessionKey]string)
	for rows.Next() {
		var id string
		var templateID string
		var startedAt time.Time
		if err := rows.Scan(&id, &templateID, &startedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		key := schedule.SessionKey{
			TemplateID: templateID,
			Date:       schedule.FormatDate(startedAt.UTC()),
		}
		completed[key] = id
	}
	return completed, nil
}

func (r *Repo) rows2workouts(rows pgx.Rows) ([]Workout, error) {
	var workouts []Workout
	for rows.Next() {
		var workout Workout
		var exercisesJson []byte
		if err := rows.Scan(
			&workout.ID, &workout.UserID, &workout.TemplateID, &workout.Name,
			&workout.StartedAt, &workout.EndedAt, &workout.Notes,
			&exercisesJson, &workout.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}

		if len(exercisesJson) > 0 {
			if err := json.Unmarshal(exercisesJson, &workout.Exercises); err != nil {
				return nil, fmt.Errorf("unmarshal exercises: %w", err)
			}
		}
		if workout.Exercises == nil {
			workout.Exercises = []WorkoutExercise{}
		}

		workouts = append(workouts, workout)
	}

	if workouts == nil {
		workouts = []Workout{}
	}
	return workouts, nil
}
