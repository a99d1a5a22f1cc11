package workouts

import (
	"context"
	"fmt"

	"github.com/gympal-app/backend/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const prListLimit = 100

type PRRepo struct {
	db *pgxpool.Pool
}

func NewPRRepo(db *pgxpool.Pool) *PRRepo {
	return &PRRepo{
		db: db,
	}
}

func (r *PRRepo) Add(ctx context.Context, pr PR) (_ *PR, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.prs.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if pr.ID == "" {
		pr.ID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("pr.exerciseId", pr.ExerciseID))

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO pr (id, user_id, exercise_id, weight, reps, estimated_1rm, date)
			VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		pr.ID, pr.UserID, pr.ExerciseID, pr.Weight, pr.Reps, pr.Estimated1RM, pr.Date,
	)
	if err != nil {
		return nil, err
	}

	return &pr, nil
}

// HasBetter reports whether a stored PR for the exercise already matches or
// beats the given estimated one-rep max.
func (r *PRRepo) HasBetter(
	ctx context.Context, userID, exerciseID string, estimated1RM float64,
) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.prs.hasBetter")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var hasBetter bool
	err = r.db.QueryRow(
		ctx,
		`SELECT EXISTS (
				SELECT 1 FROM pr
				WHERE user_id = $1 AND exercise_id = $2 AND estimated_1rm >= $3
			);`,
		userID, exerciseID, estimated1RM,
	).Scan(&hasBetter)
	if err != nil {
		return false, err
	}
	return hasBetter, nil
}

func (r *PRRepo) List(ctx context.Context, userID, exerciseID string) (_ []PR, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.prs.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, exercise_id, weight, reps, estimated_1rm, date
			FROM pr
			WHERE user_id = $1 AND ($2::text = '' OR exercise_id = $2)
			ORDER BY date DESC
			LIMIT $3;`,
		userID, exerciseID, prListLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	var prs []PR
	for rows.Next() {
		var pr PR
		if err := rows.Scan(
			&pr.ID, &pr.UserID, &pr.ExerciseID, &pr.Weight, &pr.Reps,
			&pr.Estimated1RM, &pr.Date,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		prs = append(prs, pr)
	}

	if prs == nil {
		prs = []PR{}
	}
	return prs, nil
}
