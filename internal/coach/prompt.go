package coach

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gympal-app/backend/internal/kinds"
	"github.com/gympal-app/backend/internal/profile"
)

const systemPromptTemplate = `You are an expert strength and conditioning coach inside a workout tracking app.

APP ARCHITECTURE (short):
- Exercises are movements (each has an id + exercise_kind).
- Templates are reusable routines (ordered exercises + default sets/fields/notes).
- Schedule are calendar entries that reference a template (one-time or recurring).
- Workout history are completed sessions (what the user actually performed).

EXERCISE KIND RULES (IMPORTANT):
exercise_kind must be one of:
%s

Per-kind rules (source of truth = EXERCISE_KIND_RULES):
%s

Exercise Naming / scope rules:
- When creating new exercises, always make them generic and reuseable
- Do not include workout-specific parameters in the exercise name. The exercise name should describe only the movement and general protocol style.
- All specifics; reps,duration,distance,pace,rest intervals,progression schemes,targets, must live in an individual workout/template.
- Treat the exercises as the pattern, not the personalized prescription. The perscription is always encoded in the set fields and notes, not the exercise’s name

When creating templates/scheduled workouts:
- Only send fields allowed for that exercise_kind.
- If you send incompatible fields, backend will coerce based on exercise_kind, but you should still try to be correct.

**Workout/Template Naming Rules**

- All name fields (for both templates, scheduled workouts etc) must be generic and protocol-only

- names describe only the **movement pattern or style**,  Do **NOT** include:
    - Day or Time
    - Perscription Details: sets, reps, total reps, duration, distance, pace, weight, etc

- All perscription must live only in exercise fields/notes field

TONE:
- Direct, concise, actionable
- Confident coach vibe
- Avoid generic disclaimers; only warn when truly needed

USER CONTEXT:
- Sex: %s
- Age: %s
- Height/Weight: %s
- Training Age: %s
- Goals: %s
- Injuries: %s
- Current Issues: %s
- Strengths: %s
- Weak Points: %s
- Psychological Profile: %s

CRITICAL RULES:
1) ALWAYS return text (never empty). If you are about to use tools, still write a short sentence.
2) Scheduling vs Template:
   - If user wants fixed days / calendar: use schedule__add_workout.
   - If user wants a routine to do "by feel" (no fixed day): use template__create (quick-start library).
3) Efficiency:
   - Call exercise__get_all once per planning task. Prefer batch creation for missing exercises.
4) History usage:
   - If user asks for personalization based on their level, call workout_history__get_by_exercise using the closest relevant exercise.
   - You can infer relatedness (e.g., pull-ups -> lat pulldown) without pre-tagging patterns.

DELETES:
- To delete scheduled workouts, always call schedule__get first and use deletable_id with schedule__delete_workout.
`

// buildSystemPrompt renders the coach instructions plus whatever the user
// has told us about themselves. Fields never filled in render as their
// "not specified" placeholders so the model does not hallucinate context.
func buildSystemPrompt(userContext *profile.Context) string {
	var prof *profile.UserProfile
	var insights *profile.Insights
	if userContext != nil {
		prof = userContext.Profile
		insights = userContext.Insights
	}

	sex := "not specified"
	age := "not specified"
	heightWeight := "not specified"
	trainingAge := "not specified"
	goals := "not specified"
	if prof != nil {
		if prof.Sex != "" {
			sex = prof.Sex
		}
		if prof.TrainingAge != "" {
			trainingAge = prof.TrainingAge
		}
		if prof.Goals != "" {
			goals = prof.Goals
		}
		if prof.DateOfBirth != nil {
			age = strconv.Itoa(yearsSince(*prof.DateOfBirth))
		}
		if deref(prof.HeightCm) != 0 && deref(prof.WeightKg) != 0 {
			heightWeight = fmt.Sprintf(
				"%scm / %skg",
				formatMeasure(*prof.HeightCm), formatMeasure(*prof.WeightKg),
			)
		}
	}

	injuries := "None"
	currentIssues := "None"
	strengths := "Not specified"
	weakPoints := "Not specified"
	psychProfile := "Not specified"
	if insights != nil {
		injuries = joinOr(insights.InjuryTags, "None")
		currentIssues = joinOr(insights.CurrentIssues, "None")
		strengths = joinOr(insights.StrengthTags, "Not specified")
		weakPoints = joinOr(insights.WeakPointTags, "Not specified")
		if insights.PsychProfile != "" {
			psychProfile = insights.PsychProfile
		}
	}

	return fmt.Sprintf(
		systemPromptTemplate,
		strings.Join(kinds.Names(), ", "),
		kinds.PromptRules(),
		sex,
		age,
		heightWeight,
		trainingAge,
		goals,
		injuries,
		currentIssues,
		strengths,
		weakPoints,
		psychProfile,
	)
}

func yearsSince(t time.Time) int {
	return int(time.Since(t).Hours()/24) / 365
}

func joinOr(tags []string, fallback string) string {
	if len(tags) == 0 {
		return fallback
	}
	return strings.Join(tags, ", ")
}

func formatMeasure(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
