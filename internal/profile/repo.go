package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gympal-app/backend/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// UpdateParams patches a profile. Nil fields are left untouched; on first
// write they fall back to empty values.
type UpdateParams struct {
	UserID          string
	Sex             *string
	DateOfBirth     *time.Time
	HeightCm        *float64
	WeightKg        *float64
	TrainingAge     *string
	Goals           *string
	InjuryHistory   *string
	Strengths       *string
	Weaknesses      *string
	BackgroundStory *string
	UpdatedAt       time.Time
}

// InsightsPatch patches stored insights the same way. TrainingPhases is
// settable only by the full extraction flow, the coach tool never sends it.
type InsightsPatch struct {
	UserID        string
	InjuryTags    *[]string
	CurrentIssues *[]string
	StrengthTags  *[]string
	WeakPointTags *[]string
	PsychProfile  *string
	UpdatedAt     time.Time
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Get(ctx context.Context, userID string) (_ *UserProfile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	row := r.db.QueryRow(ctx, `
		SELECT
			id, user_id, COALESCE(sex, ''), date_of_birth, height_cm, weight_kg,
			COALESCE(training_age, ''), COALESCE(goals, ''), COALESCE(injury_history, ''),
			COALESCE(strengths, ''), COALESCE(weaknesses, ''), COALESCE(background_story, ''),
			updated_at
		FROM profile
		WHERE user_id = $1`,
		userID,
	)

	return scanProfile(row)
}

// Upsert creates the profile on first write and patches it afterwards.
func (r *Repo) Upsert(ctx context.Context, params UpdateParams) (_ *UserProfile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", params.UserID))

	row := r.db.QueryRow(ctx, `
		INSERT INTO profile (
			id, user_id, sex, date_of_birth, height_cm, weight_kg, training_age,
			goals, injury_history, strengths, weaknesses, background_story, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			sex = COALESCE($3, profile.sex),
			date_of_birth = COALESCE($4, profile.date_of_birth),
			height_cm = COALESCE($5, profile.height_cm),
			weight_kg = COALESCE($6, profile.weight_kg),
			training_age = COALESCE($7, profile.training_age),
			goals = COALESCE($8, profile.goals),
			injury_history = COALESCE($9, profile.injury_history),
			strengths = COALESCE($10, profile.strengths),
			weaknesses = COALESCE($11, profile.weaknesses),
			background_story = COALESCE($12, profile.background_story),
			updated_at = $13
		RETURNING
			id, user_id, COALESCE(sex, ''), date_of_birth, height_cm, weight_kg,
			COALESCE(training_age, ''), COALESCE(goals, ''), COALESCE(injury_history, ''),
			COALESCE(strengths, ''), COALESCE(weaknesses, ''), COALESCE(background_story, ''),
			updated_at`,
		uuid.NewString(), params.UserID, params.Sex, params.DateOfBirth,
		params.HeightCm, params.WeightKg, params.TrainingAge, params.Goals,
		params.InjuryHistory, params.Strengths, params.Weaknesses,
		params.BackgroundStory, params.UpdatedAt,
	)

	return scanProfile(row)
}

func (r *Repo) GetInsights(ctx context.Context, userID string) (_ *Insights, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.getInsights")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	row := r.db.QueryRow(ctx, `
		SELECT
			id, user_id, injury_tags, current_issues, strength_tags,
			weak_point_tags, training_phases, COALESCE(psych_profile, ''), updated_at
		FROM profile_insights
		WHERE user_id = $1`,
		userID,
	)

	insights, err := scanInsights(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInsightsNotFound
		}
		return nil, err
	}
	return insights, nil
}

// SaveInsights replaces the stored insights wholesale; the extraction flow
// always produces a complete set.
func (r *Repo) SaveInsights(ctx context.Context, insights Insights) (_ *Insights, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.saveInsights")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", insights.UserID))

	phasesJson, err := json.Marshal(emptyPhases(insights.TrainingPhases))
	if err != nil {
		return nil, fmt.Errorf("marshal training phases: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO profile_insights (
			id, user_id, injury_tags, current_issues, strength_tags,
			weak_point_tags, training_phases, psych_profile, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			injury_tags = $3,
			current_issues = $4,
			strength_tags = $5,
			weak_point_tags = $6,
			training_phases = $7,
			psych_profile = $8,
			updated_at = $9
		RETURNING
			id, user_id, injury_tags, current_issues, strength_tags,
			weak_point_tags, training_phases, COALESCE(psych_profile, ''), updated_at`,
		uuid.NewString(), insights.UserID, emptyTags(insights.InjuryTags),
		emptyTags(insights.CurrentIssues), emptyTags(insights.StrengthTags),
		emptyTags(insights.WeakPointTags), phasesJson, insights.PsychProfile,
		insights.UpdatedAt,
	)

	return scanInsights(row)
}

// PatchInsights updates only the provided fields, creating the row with
// empty defaults on first write.
func (r *Repo) PatchInsights(ctx context.Context, patch InsightsPatch) (_ *Insights, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.patchInsights")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", patch.UserID))

	row := r.db.QueryRow(ctx, `
		INSERT INTO profile_insights (
			id, user_id, injury_tags, current_issues, strength_tags,
			weak_point_tags, training_phases, psych_profile, updated_at
		) VALUES (
			$1, $2, COALESCE($3, '{}'::text[]), COALESCE($4, '{}'::text[]),
			COALESCE($5, '{}'::text[]), COALESCE($6, '{}'::text[]),
			'[]'::jsonb, COALESCE($7, ''), $8
		)
		ON CONFLICT (user_id) DO UPDATE SET
			injury_tags = COALESCE($3, profile_insights.injury_tags),
			current_issues = COALESCE($4, profile_insights.current_issues),
			strength_tags = COALESCE($5, profile_insights.strength_tags),
			weak_point_tags = COALESCE($6, profile_insights.weak_point_tags),
			psych_profile = COALESCE($7, profile_insights.psych_profile),
			updated_at = $8
		RETURNING
			id, user_id, injury_tags, current_issues, strength_tags,
			weak_point_tags, training_phases, COALESCE(psych_profile, ''), updated_at`,
		uuid.NewString(), patch.UserID, patch.InjuryTags, patch.CurrentIssues,
		patch.StrengthTags, patch.WeakPointTags, patch.PsychProfile,
		patch.UpdatedAt,
	)

	return scanInsights(row)
}

func scanProfile(row pgx.Row) (*UserProfile, error) {
	var p UserProfile
	err := row.Scan(
		&p.ID, &p.UserID, &p.Sex, &p.DateOfBirth, &p.HeightCm, &p.WeightKg,
		&p.TrainingAge, &p.Goals, &p.InjuryHistory, &p.Strengths,
		&p.Weaknesses, &p.BackgroundStory, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}

func scanInsights(row pgx.Row) (*Insights, error) {
	var (
		insights   Insights
		phasesJson []byte
	)
	err := row.Scan(
		&insights.ID, &insights.UserID, &insights.InjuryTags,
		&insights.CurrentIssues, &insights.StrengthTags,
		&insights.WeakPointTags, &phasesJson, &insights.PsychProfile,
		&insights.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(phasesJson, &insights.TrainingPhases); err != nil {
		return nil, fmt.Errorf("unmarshal training phases: %w", err)
	}
	if insights.TrainingPhases == nil {
		insights.TrainingPhases = []TrainingPhase{}
	}
	for _, tags := range []*[]string{
		&insights.InjuryTags, &insights.CurrentIssues,
		&insights.StrengthTags, &insights.WeakPointTags,
	} {
		if *tags == nil {
			*tags = []string{}
		}
	}

	return &insights, nil
}

func emptyTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func emptyPhases(phases []TrainingPhase) []TrainingPhase {
	if phases == nil {
		return []TrainingPhase{}
	}
	return phases
}
