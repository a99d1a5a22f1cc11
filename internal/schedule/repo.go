package schedule

import (
	"context"
	"fmt"

	"github.com/gympal-app/backend/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// listAllLimit caps how many stored entries a single user can have in play
// during calendar assembly.
const listAllLimit = 2000

// UpdateParams patches a planned workout. Nil fields are left untouched.
type UpdateParams struct {
	ID         string
	UserID     string
	Date       *string
	Name       *string
	Type       *string
	Notes      *string
	Status     *string
	Order      *int
	TemplateID *string
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, workout PlannedWorkout) (_ *PlannedWorkout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedule.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if workout.ID == "" {
		workout.ID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("workout.id", workout.ID))
	span.SetAttributes(attribute.String("workout.date", workout.Date))

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO planned_workout (
				id, user_id, date, name, template_id, type, notes, status, position,
				is_recurring, recurrence_type, recurrence_days, recurrence_end_date, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);`,
		workout.ID, workout.UserID, workout.Date, workout.Name, workout.TemplateID,
		workout.Type, workout.Notes, workout.Status, workout.Order,
		workout.IsRecurring, workout.RecurrenceType, workout.RecurrenceDays,
		workout.RecurrenceEndDate, workout.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &workout, nil
}

func (r *Repo) Get(ctx context.Context, userID, id string) (_ *PlannedWorkout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedule.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, date, name, template_id, type, notes, status, position,
				is_recurring, recurrence_type, recurrence_days, recurrence_end_date, created_at
			FROM planned_workout WHERE id = $1 AND user_id = $2;`,
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

// FindByDateName looks up the entry that would collide with a new workout on
// the same date with the same name.
func (r *Repo) FindByDateName(ctx context.Context, userID, date, name string) (_ *PlannedWorkout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedule.findByDateName")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", date))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, date, name, template_id, type, notes, status, position,
				is_recurring, recurrence_type, recurrence_days, recurrence_end_date, created_at
			FROM planned_workout
			WHERE user_id = $1 AND date = $2 AND name = $3
			LIMIT 1;`,
		userID, date, name,
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

func (r *Repo) ListAll(ctx context.Context, userID string) (_ []PlannedWorkout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedule.listAll")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, date, name, template_id, type, notes, status, position,
				is_recurring, recurrence_type, recurrence_days, recurrence_end_date, created_at
			FROM planned_workout
			WHERE user_id = $1
			ORDER BY date, position
			LIMIT $2;`,
		userID, listAllLimit,
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
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedule.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", params.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE planned_workout SET
				date = COALESCE($3, date),
				name = COALESCE($4, name),
				type = COALESCE($5, type),
				notes = COALESCE($6, notes),
				status = COALESCE($7, status),
				position = COALESCE($8, position),
				template_id = COALESCE($9, template_id)
			WHERE id = $1 AND user_id = $2;`,
		params.ID, params.UserID,
		params.Date, params.Name, params.Type, params.Notes,
		params.Status, params.Order, params.TemplateID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, userID, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedule.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM planned_workout WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

func (r *Repo) rows2workouts(rows pgx.Rows) ([]PlannedWorkout, error) {
	var workouts []PlannedWorkout
	for rows.Next() {
		var workout PlannedWorkout
		if err := rows.Scan(
			&workout.ID, &workout.UserID, &workout.Date, &workout.Name,
			&workout.TemplateID, &workout.Type, &workout.Notes, &workout.Status,
			&workout.Order, &workout.IsRecurring, &workout.RecurrenceType,
			&workout.RecurrenceDays, &workout.RecurrenceEndDate, &workout.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		workouts = append(workouts, workout)
	}

	if workouts == nil {
		workouts = []PlannedWorkout{}
	}
	return workouts, nil
}
