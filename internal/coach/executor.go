package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gympal-app/backend/internal/auth"
	"github.com/gympal-app/backend/internal/exercises"
	"github.com/gympal-app/backend/internal/kinds"
	"github.com/gympal-app/backend/internal/profile"
	"github.com/gympal-app/backend/internal/schedule"
	"github.com/gympal-app/backend/internal/telemetry/metrics"
	"github.com/gympal-app/backend/internal/telemetry/tracing"
	"github.com/gympal-app/backend/internal/templates"
	"github.com/gympal-app/backend/internal/workouts"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type exerciseStore interface {
	List(ctx context.Context, params exercises.ListParams) ([]exercises.Exercise, error)
	GetByName(ctx context.Context, userID, name string) (*exercises.Exercise, error)
	Add(ctx context.Context, exercise exercises.Exercise) (*exercises.Exercise, error)
}

type templateStore interface {
	Add(ctx context.Context, template templates.Template) (*templates.Template, error)
	List(ctx context.Context, userID string, limit int) ([]templates.Template, error)
	Update(ctx context.Context, params templates.UpdateParams) error
}

type scheduleStore interface {
	Add(ctx context.Context, workout schedule.PlannedWorkout) (*schedule.PlannedWorkout, error)
	Get(ctx context.Context, userID, id string) (*schedule.PlannedWorkout, error)
	FindByDateName(ctx context.Context, userID, date, name string) (*schedule.PlannedWorkout, error)
	Update(ctx context.Context, params schedule.UpdateParams) error
	Delete(ctx context.Context, userID, id string) error
}

type calendarSource interface {
	Range(ctx context.Context, userID, fromDate, toDate string) ([]schedule.PlannedWorkout, error)
}

type historySource interface {
	History(ctx context.Context, userID string, daysBack, limit int) ([]workouts.WorkoutSummary, error)
	ExerciseHistory(ctx context.Context, userID, exerciseID string, daysBack, limitWorkouts int) (*workouts.ExerciseHistory, error)
}

type contextSource interface {
	Context(ctx context.Context, userID string) (*profile.Context, error)
}

type insightsStore interface {
	GetInsights(ctx context.Context, userID string) (*profile.Insights, error)
	PatchInsights(ctx context.Context, patch profile.InsightsPatch) (*profile.Insights, error)
}

type specExpander interface {
	Expand(ctx context.Context, specs []templates.CompactExerciseSpec) ([]templates.TemplateExercise, error)
}

const (
	templateListLimit   = 200
	exerciseListDefault = 800
	exerciseListMax     = 1500
)

// toolHandler is the uniform shape of every tool implementation: raw model
// arguments in, JSON-marshalable payload out.
type toolHandler func(ctx context.Context, userID string, args map[string]any) (any, error)

// Executor performs tool calls on behalf of the model. Every call returns a
// JSON payload string; failures are encoded as {"error": ...} so the model
// can react instead of the round dying.
type Executor struct {
	exercises      exerciseStore
	templates      templateStore
	schedule       scheduleStore
	calendar       calendarSource
	history        historySource
	profileContext contextSource
	insights       insightsStore
	expander       specExpander
	metricsManager *metrics.Manager
	handlers       map[string]toolHandler
}

type NewExecutorParams struct {
	Exercises      exerciseStore
	Templates      templateStore
	Schedule       scheduleStore
	Calendar       calendarSource
	History        historySource
	ProfileContext contextSource
	Insights       insightsStore
	Expander       specExpander
	Metrics        *metrics.Manager
}

func NewExecutor(params NewExecutorParams) *Executor {
	e := &Executor{
		exercises:      params.Exercises,
		templates:      params.Templates,
		schedule:       params.Schedule,
		calendar:       params.Calendar,
		history:        params.History,
		profileContext: params.ProfileContext,
		insights:       params.Insights,
		expander:       params.Expander,
		metricsManager: params.Metrics,
	}
	e.handlers = map[string]toolHandler{
		ToolProfileGetContext:     e.profileGetContext,
		ToolProfileUpdateInsights: e.profileUpdateInsights,
		ToolExerciseGetAll:        e.exerciseGetAll,
		ToolExerciseCreateBatch:   e.exerciseCreateBatch,
		ToolExerciseCreateSingle:  e.exerciseCreateSingle,
		ToolTemplateGetAll:        e.templateGetAll,
		ToolTemplateCreate:        e.templateCreate,
		ToolTemplateUpdate:        e.templateUpdate,
		ToolScheduleGet:           e.scheduleGet,
		ToolScheduleAddWorkout:    e.scheduleAddWorkout,
		ToolScheduleUpdateWorkout: e.scheduleUpdateWorkout,
		ToolScheduleDeleteWorkout: e.scheduleDeleteWorkout,
		ToolHistoryGetAll:         e.historyGetAll,
		ToolHistoryByExercise:     e.historyByExercise,
	}
	return e
}

// Execute runs one tool call for a user and returns the JSON result string.
func (e *Executor) Execute(
	ctx context.Context,
	userID, toolName string,
	arguments map[string]any,
) (result string) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "coach.executeTool")
	defer span.End()
	span.SetAttributes(attribute.String("tool", toolName))

	e.metricsManager.CounterCoachToolCalls.WithLabelValues(toolName).Inc()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("tool %s panicked: %v", toolName, r)
			result = errorResult(fmt.Sprintf("%v", r))
		}
	}()

	handler, ok := e.handlers[toolName]
	if !ok {
		return toolResult(map[string]string{"error": fmt.Sprintf("Unknown tool: %s", toolName)})
	}

	payload, err := handler(ctx, userID, arguments)
	if err != nil {
		log.Errorf("tool %s failed: %s", toolName, err)
		return errorResult(err.Error())
	}
	return toolResult(payload)
}

func (e *Executor) profileGetContext(ctx context.Context, userID string, _ map[string]any) (any, error) {
	c, err := e.profileContext.Context(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return map[string]string{"error": "User not found"}, nil
		}
		return nil, err
	}
	return c, nil
}

func (e *Executor) profileUpdateInsights(ctx context.Context, userID string, args map[string]any) (any, error) {
	patch := profile.InsightsPatch{
		UserID:    userID,
		UpdatedAt: time.Now(),
	}

	patched := false
	if raw, ok := args["injury_tags"]; ok {
		tags := anyToStringSlice(raw)
		patch.InjuryTags = &tags
		patched = true
	}
	if raw, ok := args["current_issues"]; ok {
		tags := anyToStringSlice(raw)
		patch.CurrentIssues = &tags
		patched = true
	}
	if raw, ok := args["strength_tags"]; ok {
		tags := anyToStringSlice(raw)
		patch.StrengthTags = &tags
		patched = true
	}
	if raw, ok := args["weak_point_tags"]; ok {
		tags := anyToStringSlice(raw)
		patch.WeakPointTags = &tags
		patched = true
	}
	if raw, ok := args["psych_profile"]; ok {
		s := anyToString(raw)
		patch.PsychProfile = &s
		patched = true
	}

	// nothing to patch: return whatever is stored, without creating a row
	if !patched {
		insights, err := e.insights.GetInsights(ctx, userID)
		if err != nil {
			if errors.Is(err, profile.ErrInsightsNotFound) {
				return map[string]any{}, nil
			}
			return nil, err
		}
		return insights, nil
	}

	updated, err := e.insights.PatchInsights(ctx, patch)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// exercisePayload is the catalogue projection handed to the model.
type exercisePayload struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Kind               string   `json:"exercise_kind"`
	PrimaryBodyParts   []string `json:"primary_body_parts"`
	SecondaryBodyParts []string `json:"secondary_body_parts"`
	Category           string   `json:"category"`
	Instructions       string   `json:"instructions"`
	Image              string   `json:"image"`
}

func (e *Executor) exerciseGetAll(ctx context.Context, userID string, args map[string]any) (any, error) {
	query := strings.TrimSpace(argString(args, "query"))
	limit := clamp(argInt(args, "limit", exerciseListDefault), 1, exerciseListMax)

	list, err := e.exercises.List(ctx, exercises.ListParams{
		UserID: userID,
		Query:  query,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	payload := make([]exercisePayload, 0, len(list))
	for _, ex := range list {
		payload = append(payload, exercisePayload{
			ID:                 ex.ID,
			Name:               ex.Name,
			Kind:               ex.Kind,
			PrimaryBodyParts:   ex.PrimaryBodyParts,
			SecondaryBodyParts: ex.SecondaryBodyParts,
			Category:           ex.Category,
			Instructions:       ex.Instructions,
			Image:              ex.Image,
		})
	}
	return payload, nil
}

func (e *Executor) exerciseCreateBatch(ctx context.Context, userID string, args map[string]any) (any, error) {
	rawList, _ := args["exercises"].([]any)
	if len(rawList) == 0 {
		return map[string]string{"error": "No exercises provided"}, nil
	}

	results := make([]map[string]any, 0, len(rawList))
	for _, rawItem := range rawList {
		item, ok := rawItem.(map[string]any)
		if !ok {
			continue
		}
		name := strings.TrimSpace(argString(item, "name"))
		if name == "" {
			continue
		}

		created, err := e.createExercise(ctx, userID, name, item)
		if err != nil {
			return nil, err
		}
		status := "created"
		if created.exists {
			status = "exists"
		}
		results = append(results, map[string]any{"name": name, "id": created.id, "status": status})
	}

	return map[string]any{
		"success":   true,
		"exercises": results,
		"message":   fmt.Sprintf("Processed %d exercises", len(results)),
	}, nil
}

func (e *Executor) exerciseCreateSingle(ctx context.Context, userID string, args map[string]any) (any, error) {
	name := strings.TrimSpace(argString(args, "name"))
	primary := anyToStringSlice(args["primary_body_parts"])
	if name == "" || len(primary) == 0 {
		return map[string]string{"error": "name and primary_body_parts are required"}, nil
	}

	created, err := e.createExercise(ctx, userID, name, args)
	if err != nil {
		return nil, err
	}
	if created.exists {
		return map[string]any{
			"exists":  true,
			"id":      created.id,
			"name":    created.name,
			"message": "Exercise exists",
		}, nil
	}
	return map[string]any{"success": true, "id": created.id, "name": name}, nil
}

type createdExercise struct {
	id     string
	name   string
	exists bool
}

// createExercise adds a custom exercise unless one with the same name is
// already visible to the user (case-insensitive).
func (e *Executor) createExercise(
	ctx context.Context,
	userID, name string,
	fields map[string]any,
) (*createdExercise, error) {
	existing, err := e.exercises.GetByName(ctx, userID, name)
	if err == nil {
		return &createdExercise{id: existing.ID, name: existing.Name, exists: true}, nil
	}
	if !errors.Is(err, exercises.ErrExerciseNotFound) {
		return nil, err
	}

	category := argString(fields, "category")
	if category == "" {
		category = "Strength"
	}

	added, err := e.exercises.Add(ctx, exercises.Exercise{
		Name:               name,
		Kind:               kinds.Resolve(argString(fields, "exercise_kind")),
		PrimaryBodyParts:   anyToStringSlice(fields["primary_body_parts"]),
		SecondaryBodyParts: anyToStringSlice(fields["secondary_body_parts"]),
		Category:           category,
		Instructions:       argString(fields, "instructions"),
		Image:              argString(fields, "image"),
		IsCustom:           true,
		UserID:             &userID,
		CreatedAt:          time.Now(),
	})
	if err != nil {
		return nil, err
	}
	return &createdExercise{id: added.ID, name: added.Name}, nil
}

func (e *Executor) templateGetAll(ctx context.Context, userID string, _ map[string]any) (any, error) {
	list, err := e.templates.List(ctx, userID, templateListLimit)
	if err != nil {
		return nil, err
	}

	payload := make([]map[string]any, 0, len(list))
	for _, t := range list {
		exerciseIDs := make([]string, 0, len(t.Exercises))
		for _, ex := range t.Exercises {
			if ex.ExerciseID != "" {
				exerciseIDs = append(exerciseIDs, ex.ExerciseID)
			}
		}
		payload = append(payload, map[string]any{
			"id":             t.ID,
			"name":           t.Name,
			"notes":          t.Notes,
			"exercise_count": len(t.Exercises),
			"exercise_ids":   exerciseIDs,
		})
	}
	return payload, nil
}

func (e *Executor) templateCreate(ctx context.Context, userID string, args map[string]any) (any, error) {
	name := strings.TrimSpace(argString(args, "name"))
	specs := templates.ParseCompactSpecs(args["exercises"])
	if name == "" || len(specs) == 0 {
		return map[string]string{"error": "name and exercises are required"}, nil
	}

	expanded, err := e.expander.Expand(ctx, specs)
	if err != nil {
		return nil, err
	}
	if len(expanded) == 0 {
		return map[string]string{"error": "No valid exercises provided"}, nil
	}

	notes := argString(args, "notes")
	if notes == "" {
		notes = "Created by AI Coach"
	}

	now := time.Now()
	added, err := e.templates.Add(ctx, templates.Template{
		UserID:    userID,
		Name:      name,
		Notes:     notes,
		Exercises: expanded,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":     true,
		"template_id": added.ID,
		"message":     "Template created",
	}, nil
}

func (e *Executor) templateUpdate(ctx context.Context, userID string, args map[string]any) (any, error) {
	templateID := argString(args, "template_id")
	if templateID == "" {
		return map[string]string{"error": "Valid template_id is required"}, nil
	}

	params := templates.UpdateParams{
		ID:        templateID,
		UserID:    userID,
		UpdatedAt: time.Now(),
	}
	if name := argString(args, "name"); name != "" {
		params.Name = &name
	}
	if raw, ok := args["notes"]; ok && raw != nil {
		notes := anyToString(raw)
		params.Notes = &notes
	}
	if specs := templates.ParseCompactSpecs(args["exercises"]); len(specs) > 0 {
		expanded, err := e.expander.Expand(ctx, specs)
		if err != nil {
			return nil, err
		}
		params.Exercises = &expanded
	}

	if params.Name == nil && params.Notes == nil && params.Exercises == nil {
		return map[string]string{"error": "No fields to update"}, nil
	}

	if err := e.templates.Update(ctx, params); err != nil {
		if errors.Is(err, templates.ErrTemplateNotFound) {
			return map[string]string{"error": "Template not found"}, nil
		}
		return nil, err
	}
	return map[string]any{"success": true, "message": "Template updated"}, nil
}

func (e *Executor) scheduleGet(ctx context.Context, userID string, args map[string]any) (any, error) {
	startDate := argString(args, "start_date")
	endDate := argString(args, "end_date")
	if startDate == "" || endDate == "" {
		return map[string]string{"error": "start_date and end_date are required"}, nil
	}

	instances, err := e.calendar.Range(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return schedule.CalendarEntries(instances), nil
}

func (e *Executor) scheduleAddWorkout(ctx context.Context, userID string, args map[string]any) (any, error) {
	if _, ok := args["date"]; !ok {
		return map[string]string{"error": "date and name are required"}, nil
	}
	if _, ok := args["name"]; !ok {
		return map[string]string{"error": "date and name are required"}, nil
	}
	date := argString(args, "date")
	name := argString(args, "name")

	existing, err := e.schedule.FindByDateName(ctx, userID, date, name)
	if err == nil {
		return map[string]any{
			"already_exists": true,
			"id":             existing.ID,
			"template_id":    existing.TemplateID,
			"message":        "Workout already exists for that date/name",
		}, nil
	}
	if !errors.Is(err, schedule.ErrWorkoutNotFound) {
		return nil, err
	}

	templateID := argString(args, "template_id")
	var createdTemplateID *string

	if specs := templates.ParseCompactSpecs(args["exercises"]); len(specs) > 0 && templateID == "" {
		expanded, err := e.expander.Expand(ctx, specs)
		if err != nil {
			return nil, err
		}

		notes := argString(args, "notes")
		if notes == "" {
			notes = "Created by AI Coach"
		}
		now := time.Now()
		addedTemplate, err := e.templates.Add(ctx, templates.Template{
			UserID:    userID,
			Name:      name,
			Notes:     notes,
			Exercises: expanded,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, err
		}
		templateID = addedTemplate.ID
		createdTemplateID = &addedTemplate.ID
	}

	var templateIDPtr *string
	if templateID != "" {
		templateIDPtr = &templateID
	}

	planned := schedule.PlannedWorkout{
		UserID:      userID,
		Date:        date,
		Name:        name,
		TemplateID:  templateIDPtr,
		Type:        argString(args, "type"),
		Notes:       argString(args, "notes"),
		Status:      schedule.StatusPlanned,
		Order:       0,
		IsRecurring: argBool(args, "is_recurring"),
		CreatedAt:   time.Now(),
	}
	if planned.IsRecurring {
		planned.RecurrenceType = argString(args, "recurrence_type")
		planned.RecurrenceDays = anyToIntSlice(args["recurrence_days"])
		planned.RecurrenceEndDate = argString(args, "recurrence_end_date")
	}

	added, err := e.schedule.Add(ctx, planned)
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Scheduled '%s' for %s", name, date)
	if createdTemplateID != nil {
		msg += fmt.Sprintf(" (auto-created template %s)", *createdTemplateID)
	}

	return map[string]any{
		"success":             true,
		"id":                  added.ID,
		"template_id":         templateIDPtr,
		"created_template_id": createdTemplateID,
		"message":             msg,
	}, nil
}

func (e *Executor) scheduleUpdateWorkout(ctx context.Context, userID string, args map[string]any) (any, error) {
	workoutID := argString(args, "workout_id")
	if workoutID == "" {
		return map[string]string{"error": "Valid workout_id is required"}, nil
	}

	params := schedule.UpdateParams{
		ID:     workoutID,
		UserID: userID,
	}
	patched := false
	for key, target := range map[string]**string{
		"date":   &params.Date,
		"name":   &params.Name,
		"type":   &params.Type,
		"notes":  &params.Notes,
		"status": &params.Status,
	} {
		if raw, ok := args[key]; ok {
			s := anyToString(raw)
			*target = &s
			patched = true
		}
	}
	if raw, ok := args["order"]; ok {
		order := anyToInt(raw)
		params.Order = &order
		patched = true
	}
	if raw, ok := args["template_id"]; ok && raw != nil {
		templateID := anyToString(raw)
		params.TemplateID = &templateID
		patched = true
	}

	if specs := templates.ParseCompactSpecs(args["exercises"]); len(specs) > 0 {
		existing, err := e.schedule.Get(ctx, userID, workoutID)
		if err != nil {
			if errors.Is(err, schedule.ErrWorkoutNotFound) {
				return map[string]string{"error": "Scheduled workout not found"}, nil
			}
			return nil, err
		}

		workoutName := strings.TrimSpace(argString(args, "name"))
		if workoutName == "" {
			workoutName = strings.TrimSpace(existing.Name)
		}
		if workoutName == "" {
			workoutName = "Workout"
		}

		expanded, err := e.expander.Expand(ctx, specs)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		addedTemplate, err := e.templates.Add(ctx, templates.Template{
			UserID:    userID,
			Name:      fmt.Sprintf("%s (Modified)", workoutName),
			Notes:     "Created from scheduled workout modification",
			Exercises: expanded,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, err
		}
		params.TemplateID = &addedTemplate.ID
		patched = true
	}

	if !patched {
		return map[string]string{"error": "No fields to update"}, nil
	}

	if err := e.schedule.Update(ctx, params); err != nil {
		if errors.Is(err, schedule.ErrWorkoutNotFound) {
			return map[string]string{"error": "Scheduled workout not found"}, nil
		}
		return nil, err
	}

	return map[string]any{
		"success":     true,
		"message":     "Schedule updated",
		"template_id": params.TemplateID,
	}, nil
}

func (e *Executor) scheduleDeleteWorkout(ctx context.Context, userID string, args map[string]any) (any, error) {
	workoutID := argString(args, "workout_id")
	if workoutID == "" {
		return map[string]string{
			"error": fmt.Sprintf("Valid workout_id is required. Received: %v", args["workout_id"]),
		}, nil
	}

	if err := e.schedule.Delete(ctx, userID, workoutID); err != nil {
		if errors.Is(err, schedule.ErrWorkoutNotFound) {
			// deleting twice is fine, the second call is a no-op
			return map[string]any{
				"success":         true,
				"already_deleted": true,
				"message":         "Workout already deleted/no-op",
			}, nil
		}
		return nil, err
	}
	return map[string]any{
		"success": true,
		"message": fmt.Sprintf("Deleted scheduled workout %s", workoutID),
	}, nil
}

func (e *Executor) historyGetAll(ctx context.Context, userID string, args map[string]any) (any, error) {
	daysBack := clamp(argInt(args, "days_back", 30), 1, 365)
	limit := clamp(argInt(args, "limit", 30), 1, 200)

	summaries, err := e.history.History(ctx, userID, daysBack, limit)
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (e *Executor) historyByExercise(ctx context.Context, userID string, args map[string]any) (any, error) {
	exerciseID := argString(args, "exercise_id")
	if exerciseID == "" {
		return map[string]string{"error": "exercise_id is required"}, nil
	}

	daysBack := clamp(argInt(args, "days_back", 120), 1, 730)
	limitWorkouts := clamp(argInt(args, "limit_workouts", 60), 1, 300)

	history, err := e.history.ExerciseHistory(ctx, userID, exerciseID, daysBack, limitWorkouts)
	if err != nil {
		return nil, err
	}
	return history, nil
}

func toolResult(payload any) string {
	resultJson, err := json.Marshal(payload)
	if err != nil {
		return errorResult(fmt.Sprintf("marshal tool result: %s", err))
	}
	return string(resultJson)
}

func errorResult(message string) string {
	resultJson, _ := json.Marshal(map[string]string{"error": message})
	return string(resultJson)
}

func argString(args map[string]any, key string) string {
	return anyToString(args[key])
}

// argInt reads an integer argument; zero and anything unreadable fall back
// to the default, negatives pass through to the caller's clamping.
func argInt(args map[string]any, key string, def int) int {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def
	}
	if n := anyToInt(raw); n != 0 {
		return n
	}
	return def
}

func argBool(args map[string]any, key string) bool {
	v, ok := args[key].(bool)
	return ok && v
}

func anyToString(raw any) string {
	s, _ := raw.(string)
	return s
}

func anyToInt(raw any) int {
	switch n := raw.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return parsed
	}
	return 0
}

func anyToStringSlice(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func anyToIntSlice(raw any) []int {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		out = append(out, anyToInt(item))
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
