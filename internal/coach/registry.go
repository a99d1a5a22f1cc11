// Package coach runs the AI coaching loop: a tool registry the model plans
// against, an executor that performs the requested reads and writes, and an
// orchestrator that drives multi-round tool calling until the model produces
// a final text answer.
package coach

import (
	"github.com/gympal-app/backend/internal/coach/llm"
	"github.com/gympal-app/backend/internal/kinds"
)

// Tool names follow <domain>__<action>; only [a-zA-Z0-9_-] is allowed in
// function names on the completion API.
const (
	ToolProfileGetContext     = "profile__get_context"
	ToolProfileUpdateInsights = "profile__update_insights"
	ToolExerciseGetAll        = "exercise__get_all"
	ToolExerciseCreateBatch   = "exercise__create_batch"
	ToolExerciseCreateSingle  = "exercise__create_single"
	ToolTemplateGetAll        = "template__get_all"
	ToolTemplateCreate        = "template__create"
	ToolTemplateUpdate        = "template__update"
	ToolScheduleGet           = "schedule__get"
	ToolScheduleAddWorkout    = "schedule__add_workout"
	ToolScheduleUpdateWorkout = "schedule__update_workout"
	ToolScheduleDeleteWorkout = "schedule__delete_workout"
	ToolHistoryGetAll         = "workout_history__get_all"
	ToolHistoryByExercise     = "workout_history__get_by_exercise"
)

// singleCallTools may execute at most once per round no matter how many times
// the model asked for them. All of them mutate user data.
var singleCallTools = map[string]bool{
	ToolScheduleAddWorkout:    true,
	ToolScheduleUpdateWorkout: true,
	ToolScheduleDeleteWorkout: true,
	ToolTemplateCreate:        true,
	ToolTemplateUpdate:        true,
	ToolProfileUpdateInsights: true,
}

var registry = buildRegistry()

// Tools returns the shared tool registry. It is built once at startup and
// must not be mutated.
func Tools() []llm.Tool {
	return registry
}

func buildRegistry() []llm.Tool {
	return []llm.Tool{
		{
			Name: ToolProfileGetContext,
			Description: "Fetch the complete user profile context (goals, injuries, insights). " +
				"Use when you need background to personalize advice.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []string{},
			},
		},
		{
			Name: ToolProfileUpdateInsights,
			Description: "Update specific fields in the user's profile insights (injuries, strengths, weaknesses, etc.). " +
				"Use when user shares new lasting info.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"injury_tags":     stringArraySchema(),
					"current_issues":  stringArraySchema(),
					"strength_tags":   stringArraySchema(),
					"weak_point_tags": stringArraySchema(),
					"psych_profile":   map[string]any{"type": "string"},
				},
				"required": []string{},
			},
		},
		{
			Name: ToolExerciseGetAll,
			Description: "Fetch ALL available exercises in ONE call (global + user custom). " +
				"Use once, then pick exercise IDs from results. Avoid repeated calls.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Optional fuzzy query to narrow results (name/body part). Empty = all.",
						"default":     "",
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Max number of exercises to return (safety cap).",
						"default":     800,
					},
				},
				"required": []string{},
			},
		},
		{
			Name: ToolExerciseCreateBatch,
			Description: "Create multiple new exercises at once. Use this to create ALL missing exercises in a single call. " +
				"IMPORTANT: choose exercise_kind correctly (Duration vs Cardio vs Reps Only etc). " +
				"exercise_kind must be one of the known kinds from the system.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"exercises": map[string]any{
						"type":        "array",
						"description": "Array of exercises to create",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"name":                 map[string]any{"type": "string"},
								"exercise_kind":        map[string]any{"type": "string", "enum": kinds.Names()},
								"primary_body_parts":   stringArraySchema(),
								"secondary_body_parts": stringArraySchema(),
								"category": map[string]any{
									"type":        "string",
									"description": "Free text (e.g., Strength, Mobility, Core, Cardio)",
								},
								"instructions": map[string]any{
									"type":        "string",
									"description": "Optional coaching cues/instructions",
								},
								"image": map[string]any{
									"type":        "string",
									"description": "Optional image URL",
								},
							},
							"required": []string{"name", "exercise_kind", "primary_body_parts"},
						},
					},
				},
				"required": []string{"exercises"},
			},
		},
		{
			Name:        ToolExerciseCreateSingle,
			Description: "Create a single new exercise. Prefer exercise__create_batch when creating multiple.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":                 map[string]any{"type": "string"},
					"exercise_kind":        map[string]any{"type": "string", "enum": kinds.Names()},
					"primary_body_parts":   stringArraySchema(),
					"secondary_body_parts": stringArraySchema(),
					"category":             map[string]any{"type": "string"},
					"instructions":         map[string]any{"type": "string"},
					"image":                map[string]any{"type": "string"},
				},
				"required": []string{"name", "exercise_kind", "primary_body_parts"},
			},
		},
		{
			Name:        ToolTemplateGetAll,
			Description: "Fetch the user's existing workout templates (reusable routines).",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []string{},
			},
		},
		{
			Name: ToolTemplateCreate,
			Description: "Create a reusable workout TEMPLATE only (no scheduling). " +
				"Use this when user wants a routine to do 'by feel' / 2-3x/week without fixed days " +
				"or wants a quick-start routine saved in their library.\n\n" +
				"IMPORTANT: Set fields must match exercise_kind via system rules.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":  map[string]any{"type": "string", "description": "Template name"},
					"notes": map[string]any{"type": "string", "description": "Template notes/instructions"},
					"exercises": map[string]any{
						"type": "array",
						"description": "Ordered exercise list. Each exercise can have 'sets' as an array of " +
							"set objects (preferred) or an integer count.",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"exercise_id": map[string]any{"type": "string"},
								"sets": map[string]any{
									"oneOf": []any{
										map[string]any{
											"type": "array",
											"description": "Array of set objects (preferred). Each set has set_type, " +
												"reps, weight, duration, distance as needed.",
											"items": map[string]any{
												"type": "object",
												"properties": map[string]any{
													"set_type": map[string]any{
														"type":    "string",
														"enum":    []string{"normal", "warmup", "cooldown", "failure"},
														"default": "normal",
													},
													"reps":     map[string]any{"type": "integer"},
													"weight":   map[string]any{"type": "number"},
													"duration": map[string]any{"type": "number"},
													"distance": map[string]any{"type": "number"},
												},
											},
										},
										map[string]any{
											"type":        "integer",
											"description": "Number of sets (legacy - will create N identical sets)",
										},
									},
								},
								"reps": map[string]any{
									"type":        "integer",
									"description": "Default reps per set (used when sets is an integer)",
								},
								"weight": map[string]any{
									"type":        "number",
									"description": "Default weight in kg (used when sets is an integer)",
								},
								"duration": map[string]any{
									"type":        "number",
									"description": "Default duration in seconds (used when sets is an integer)",
								},
								"distance": map[string]any{
									"type":        "number",
									"description": "Default distance in km (used when sets is an integer)",
								},
								"notes": map[string]any{"type": "string"},
							},
							"required": []string{"exercise_id"},
						},
					},
				},
				"required": []string{"name", "exercises"},
			},
		},
		{
			Name: ToolTemplateUpdate,
			Description: "Update a TEMPLATE (affects all future schedules using it). " +
				"Only use if user explicitly wants to change the template itself.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"template_id": map[string]any{"type": "string"},
					"name":        map[string]any{"type": "string"},
					"notes":       map[string]any{"type": "string"},
					"exercises":   compactExercisesSchema("REPLACES the whole template exercise list (compact form)"),
				},
				"required": []string{"template_id"},
			},
		},
		{
			Name: ToolScheduleGet,
			Description: "Fetch planned/scheduled workouts for a date range (including recurring expansion). " +
				"Use this to see what is on the user's calendar.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"start_date": map[string]any{"type": "string", "description": "YYYY-MM-DD"},
					"end_date":   map[string]any{"type": "string", "description": "YYYY-MM-DD"},
				},
				"required": []string{"start_date", "end_date"},
			},
		},
		{
			Name: ToolScheduleAddWorkout,
			Description: "Create a scheduled workout on a specific date (optionally recurring). " +
				"Provide EITHER template_id OR exercises (which will auto-create a template).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"date":        map[string]any{"type": "string", "description": "YYYY-MM-DD"},
					"name":        map[string]any{"type": "string", "description": "Workout name"},
					"template_id": map[string]any{"type": "string", "description": "Use an existing template"},
					"exercises":   compactExercisesSchema("If provided, auto-creates a template then schedules it (compact form)"),
					"type":        map[string]any{"type": "string", "description": "strength/run/mobility/etc"},
					"notes":       map[string]any{"type": "string"},
					"is_recurring": map[string]any{
						"type":    "boolean",
						"default": false,
					},
					"recurrence_type": map[string]any{
						"type": "string",
						"enum": []string{"daily", "weekly", "monthly"},
					},
					"recurrence_days": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "integer"},
						"description": "Weekly: [0=Mon..6=Sun]",
					},
					"recurrence_end_date": map[string]any{
						"type":        "string",
						"description": "YYYY-MM-DD or null for indefinite",
					},
				},
				"required": []string{"date", "name"},
			},
		},
		{
			Name: ToolScheduleUpdateWorkout,
			Description: "Update a scheduled workout entry (date/name/type/notes/status/template). " +
				"If exercises provided, creates a NEW template and links it.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"workout_id":  map[string]any{"type": "string"},
					"date":        map[string]any{"type": "string"},
					"name":        map[string]any{"type": "string"},
					"template_id": map[string]any{"type": "string"},
					"exercises":   compactExercisesSchema("If provided, creates a new template and attaches it (compact form)"),
					"type":        map[string]any{"type": "string"},
					"notes":       map[string]any{"type": "string"},
					"status": map[string]any{
						"type": "string",
						"enum": []string{"planned", "in_progress", "completed", "skipped"},
					},
					"order": map[string]any{"type": "integer"},
				},
				"required": []string{"workout_id"},
			},
		},
		{
			Name: ToolScheduleDeleteWorkout,
			Description: "Delete a scheduled workout from the calendar. " +
				"Use the deletable_id from schedule__get.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"workout_id": map[string]any{"type": "string"},
				},
				"required": []string{"workout_id"},
			},
		},
		{
			Name: ToolHistoryGetAll,
			Description: "Get recent completed workouts (summaries). " +
				"Use to understand recent training load and what the user actually did.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"days_back": map[string]any{"type": "integer", "default": 30},
					"limit":     map[string]any{"type": "integer", "default": 30},
				},
				"required": []string{},
			},
		},
		{
			Name: ToolHistoryByExercise,
			Description: "Get recent performance stats for a specific exercise_id from workout history.\n" +
				"Returns best stats based on exercise_kind rules (e.g., strength: best_weight/best_e1rm; " +
				"duration: best_duration; cardio: best_distance/best_pace when possible).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"exercise_id":    map[string]any{"type": "string"},
					"days_back":      map[string]any{"type": "integer", "default": 120},
					"limit_workouts": map[string]any{"type": "integer", "default": 60},
				},
				"required": []string{"exercise_id"},
			},
		},
	}
}

func stringArraySchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

// compactExercisesSchema is the shared shape for tools that take the compact
// exercise list (integer set count plus scalar hints).
func compactExercisesSchema(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"exercise_id": map[string]any{"type": "string"},
				"sets":        map[string]any{"type": "integer"},
				"reps":        map[string]any{"type": "integer"},
				"weight":      map[string]any{"type": "number"},
				"duration":    map[string]any{"type": "number"},
				"distance":    map[string]any{"type": "number"},
				"notes":       map[string]any{"type": "string"},
			},
			"required": []string{"exercise_id"},
		},
	}
}
