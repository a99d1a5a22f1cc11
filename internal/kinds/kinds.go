// Package kinds holds the exercise kind rule table: which numeric set fields
// (reps, weight, duration, distance) are legal for each exercise kind, plus
// the helpers that render those rules for tool schemas and coach prompts.
// The table is read-only after process start.
package kinds

import (
	"fmt"
	"sort"
	"strings"
)

type Field string

const (
	FieldReps     Field = "reps"
	FieldWeight   Field = "weight"
	FieldDuration Field = "duration"
	FieldDistance Field = "distance"
)

// DefaultKind is the fallback for unknown or missing exercise kinds, so
// downstream code never has to branch on "rule not found".
const DefaultKind = "Machine/Other"

// Rule describes the set fields a single exercise kind permits.
type Rule struct {
	Name        string
	Fields      []Field
	Description string
}

func (r Rule) Allows(f Field) bool {
	for _, rf := range r.Fields {
		if rf == f {
			return true
		}
	}
	return false
}

// TimeOrDistanceOnly reports whether the kind tracks duration and/or distance
// but no reps (holds, carries, cardio). Such kinds get different set count
// and duration defaults.
func (r Rule) TimeOrDistanceOnly() bool {
	return (r.Allows(FieldDuration) || r.Allows(FieldDistance)) && !r.Allows(FieldReps)
}

var rules = []Rule{
	{
		Name:        "Barbell",
		Fields:      []Field{FieldReps, FieldWeight},
		Description: "Use reps + weight (kg)",
	},
	{
		Name:        "Dumbbell",
		Fields:      []Field{FieldReps, FieldWeight},
		Description: "Use reps + weight (kg)",
	},
	{
		Name:        "Machine/Other",
		Fields:      []Field{FieldReps, FieldWeight},
		Description: "Use reps + weight (kg)",
	},
	{
		Name:        "Weighted Bodyweight",
		Fields:      []Field{FieldReps, FieldWeight},
		Description: "Use reps + additional weight (kg)",
	},
	{
		Name:        "Assisted Bodyweight",
		Fields:      []Field{FieldReps, FieldWeight},
		Description: "Use reps + assistance weight (kg, positive number)",
	},
	{
		Name:        "Reps Only",
		Fields:      []Field{FieldReps},
		Description: "Use reps only, no weight",
	},
	{
		Name:        "Duration",
		Fields:      []Field{FieldDuration},
		Description: "Use duration in seconds",
	},
	{
		Name:        "Cardio",
		Fields:      []Field{FieldDuration, FieldDistance},
		Description: "Use duration (seconds) and/or distance (km)",
	},
	{
		Name:        "Weighted Cardio",
		Fields:      []Field{FieldDuration, FieldWeight, FieldDistance},
		Description: "Use duration (seconds) and/or distance (km) with optional carried weight (kg)",
	},
	{
		Name:        "Weighted Duration",
		Fields:      []Field{FieldDuration, FieldWeight},
		Description: "Use duration (seconds) with optional carried weight (kg)",
	},
	{
		Name:        "EMOM (Every Minute On The Minute)",
		Fields:      []Field{FieldReps, FieldWeight, FieldDuration},
		Description: "Use reps + weight (kg) + duration (seconds)",
	},
	{
		Name:        "ETOT (Every Thirty Seconds on Thirty Seconds)",
		Fields:      []Field{FieldReps, FieldWeight, FieldDuration},
		Description: "Use reps + weight (kg) + duration (seconds)",
	},
}

var rulesByName = func() map[string]Rule {
	byName := make(map[string]Rule, len(rules))
	for _, r := range rules {
		byName[r.Name] = r
	}
	if _, ok := byName[DefaultKind]; !ok {
		panic("kinds: default kind missing from rule table")
	}
	return byName
}()

// RuleFor resolves a kind name to its rule. Unknown or empty kinds resolve
// to the rule of DefaultKind.
func RuleFor(kind string) Rule {
	if r, ok := rulesByName[kind]; ok {
		return r
	}
	return rulesByName[DefaultKind]
}

func Known(kind string) bool {
	_, ok := rulesByName[kind]
	return ok
}

// Resolve returns the given kind if known, otherwise DefaultKind.
func Resolve(kind string) string {
	if Known(kind) {
		return kind
	}
	return DefaultKind
}

// Names returns all kind names in registration order. The slice is a copy,
// callers may mutate it.
func Names() []string {
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.Name)
	}
	return names
}

// PromptRules renders the rule table as a human-readable block for the coach
// system prompt, one line per kind, sorted by kind name.
func PromptRules() string {
	names := Names()
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		r := rulesByName[name]
		fields := make([]string, 0, len(r.Fields))
		for _, f := range r.Fields {
			fields = append(fields, string(f))
		}
		lines = append(lines, fmt.Sprintf("- %s: %s | fields: %s", r.Name, r.Description, strings.Join(fields, ", ")))
	}
	return strings.Join(lines, "\n")
}
