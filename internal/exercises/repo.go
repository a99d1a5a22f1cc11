package exercises

import (
	"context"
	"fmt"

	"github.com/gympal-app/backend/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, exercise Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if exercise.ID == "" {
		exercise.ID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("exercise.id", exercise.ID))
	span.SetAttributes(attribute.String("exercise.name", exercise.Name))

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO exercise
				(id, name, kind, primary_body_parts, secondary_body_parts, category, instructions, image, is_custom, user_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`,
		exercise.ID, exercise.Name, exercise.Kind,
		exercise.PrimaryBodyParts, exercise.SecondaryBodyParts,
		exercise.Category, exercise.Instructions, exercise.Image,
		exercise.IsCustom, exercise.UserID, exercise.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &exercise, nil
}

// AddAll inserts the given exercises in a single batch, returning the number
// of inserted rows.
func (r *Repo) AddAll(ctx context.Context, toAdd []Exercise) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.addAll")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("count", len(toAdd)))

	batch := &pgx.Batch{}
	for i := range toAdd {
		if toAdd[i].ID == "" {
			toAdd[i].ID = uuid.NewString()
		}
		batch.Queue(
			`INSERT INTO exercise
					(id, name, kind, primary_body_parts, secondary_body_parts, category, instructions, image, is_custom, user_id, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`,
			toAdd[i].ID, toAdd[i].Name, toAdd[i].Kind,
			toAdd[i].PrimaryBodyParts, toAdd[i].SecondaryBodyParts,
			toAdd[i].Category, toAdd[i].Instructions, toAdd[i].Image,
			toAdd[i].IsCustom, toAdd[i].UserID, toAdd[i].CreatedAt,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer func() {
		if closeErr := results.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	added := 0
	for range toAdd {
		if _, execErr := results.Exec(); execErr != nil {
			return added, execErr
		}
		added++
	}

	return added, nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, kind, primary_body_parts, secondary_body_parts, category, instructions, image, is_custom, user_id, created_at
			FROM exercise WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	exercises, err := r.rows2exercises(rows)
	if err != nil {
		return nil, err
	}

	if len(exercises) != 1 {
		return nil, ErrExerciseNotFound
	}

	return &exercises[0], nil
}

// GetByName finds an exercise by exact name, case-insensitively, among the
// global catalogue and the given user's custom exercises.
func (r *Repo) GetByName(ctx context.Context, userID, name string) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.getByName")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("name", name))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, kind, primary_body_parts, secondary_body_parts, category, instructions, image, is_custom, user_id, created_at
			FROM exercise
			WHERE LOWER(name) = LOWER($1) AND (user_id IS NULL OR user_id = $2)
			LIMIT 1;`,
		name, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	exercises, err := r.rows2exercises(rows)
	if err != nil {
		return nil, err
	}

	if len(exercises) != 1 {
		return nil, ErrExerciseNotFound
	}

	return &exercises[0], nil
}

func (r *Repo) List(ctx context.Context, params ListParams) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("query", params.Query))
	span.SetAttributes(attribute.String("body-part", params.BodyPart))
	span.SetAttributes(attribute.Int("limit", params.Limit))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, name, kind, primary_body_parts, secondary_body_parts, category, instructions, image, is_custom, user_id, created_at
			FROM exercise
				WHERE (user_id IS NULL OR user_id = $1)
				AND ($2::text = ''
					OR name ILIKE '%' || $2 || '%'
					OR EXISTS (
						SELECT 1 FROM unnest(primary_body_parts || secondary_body_parts) AS bp
						WHERE bp ILIKE '%' || $2 || '%'))
				AND ($3::text = ''
					OR EXISTS (
						SELECT 1 FROM unnest(primary_body_parts) AS bp
						WHERE bp ILIKE $3))
			ORDER BY name
			LIMIT $4;`,
		params.UserID, params.Query, params.BodyPart, params.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	exercises, err := r.rows2exercises(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2exercises: %w", err)
	}
	return exercises, nil
}

// KindsFor resolves the exercise kind for each of the given ids in one query.
// Unknown ids are simply absent from the returned map.
func (r *Repo) KindsFor(ctx context.Context, ids []string) (_ map[string]string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.kindsFor")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("ids", len(ids)))

	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT id, kind FROM exercise WHERE id = ANY($1);`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	kinds := make(map[string]string, len(ids))
	for rows.Next() {
		var id, kind string
		if err := rows.Scan(&id, &kind); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		kinds[id] = kind
	}

	return kinds, nil
}

// CountGlobal returns the number of built-in (non custom) exercises.
func (r *Repo) CountGlobal(ctx context.Context) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.countGlobal")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	if err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM exercise WHERE is_custom IS FALSE;`,
	).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *Repo) rows2exercises(rows pgx.Rows) ([]Exercise, error) {
	var exercises []Exercise
	for rows.Next() {
		var exercise Exercise
		var userID *string
		if err := rows.Scan(
			&exercise.ID, &exercise.Name, &exercise.Kind,
			&exercise.PrimaryBodyParts, &exercise.SecondaryBodyParts,
			&exercise.Category, &exercise.Instructions, &exercise.Image,
			&exercise.IsCustom, &userID, &exercise.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		exercise.UserID = userID
		if exercise.SecondaryBodyParts == nil {
			exercise.SecondaryBodyParts = []string{}
		}
		exercises = append(exercises, exercise)
	}

	if exercises == nil {
		exercises = []Exercise{}
	}

	return exercises, nil
}
