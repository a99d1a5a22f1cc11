package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gympal-app/backend/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// UpdateParams patches a template. Nil fields are left untouched.
type UpdateParams struct {
	ID        string
	UserID    string
	Name      *string
	Notes     *string
	Exercises *[]TemplateExercise
	UpdatedAt time.Time
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, template Template) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("template.id", template.ID))
	span.SetAttributes(attribute.String("template.name", template.Name))

	if template.Exercises == nil {
		template.Exercises = []TemplateExercise{}
	}
	exercisesJson, err := json.Marshal(template.Exercises)
	if err != nil {
		return nil, fmt.Errorf("marshal exercises: %w", err)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO template (id, user_id, name, notes, exercises, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		template.ID, template.UserID, template.Name, template.Notes,
		exercisesJson, template.CreatedAt, template.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &template, nil
}

func (r *Repo) Get(ctx context.Context, userID, id string) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name, notes, exercises, created_at, updated_at
			FROM template WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	templatesList, err := r.rows2templates(rows)
	if err != nil {
		return nil, err
	}

	if len(templatesList) != 1 {
		return nil, ErrTemplateNotFound
	}

	return &templatesList[0], nil
}

func (r *Repo) List(ctx context.Context, userID string, limit int) (_ []Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("limit", limit))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name, notes, exercises, created_at, updated_at
			FROM template
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2;`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	templatesList, err := r.rows2templates(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2templates: %w", err)
	}
	return templatesList, nil
}

func (r *Repo) Update(ctx context.Context, params UpdateParams) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.update")
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
		`UPDATE template SET
				name = COALESCE($3, name),
				notes = COALESCE($4, notes),
				exercises = COALESCE($5::jsonb, exercises),
				updated_at = $6
			WHERE id = $1 AND user_id = $2;`,
		params.ID, params.UserID,
		params.Name, params.Notes, exercisesJson, params.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, userID, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM template WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *Repo) rows2templates(rows pgx.Rows) ([]Template, error) {
	var templatesList []Template
	for rows.Next() {
		var template Template
		var exercisesJson []byte
		if err := rows.Scan(
			&template.ID, &template.UserID, &template.Name, &template.Notes,
			&exercisesJson, &template.CreatedAt, &template.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}

		if len(exercisesJson) > 0 {
			if err := json.Unmarshal(exercisesJson, &template.Exercises); err != nil {
				return nil, fmt.Errorf("unmarshal exercises: %w", err)
			}
		}
		if template.Exercises == nil {
			template.Exercises = []TemplateExercise{}
		}

		templatesList = append(templatesList, template)
	}

	if templatesList == nil {
		templatesList = []Template{}
	}

	return templatesList, nil
}
