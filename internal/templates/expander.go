package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gympal-app/backend/internal/kinds"
)

const defaultSetCount = 3

// KindSource resolves exercise ids to exercise kinds in one batched lookup.
type KindSource interface {
	KindsFor(ctx context.Context, ids []string) (map[string]string, error)
}

// Expander turns compact exercise specs into expanded template exercises
// with fully normalized sets.
type Expander struct {
	kindSource KindSource
}

func NewExpander(kindSource KindSource) *Expander {
	return &Expander{
		kindSource: kindSource,
	}
}

// Expand resolves the kind of every spec in a single batched lookup, then
// builds per-set records. Specs without an exercise id are dropped; order is
// assigned by position over the retained specs. Every returned entry has a
// non-empty set list.
func (e *Expander) Expand(ctx context.Context, specs []CompactExerciseSpec) ([]TemplateExercise, error) {
	ids := make([]string, 0, len(specs))
	for _, spec := range specs {
		if spec.ExerciseID != "" {
			ids = append(ids, spec.ExerciseID)
		}
	}

	kindMap, err := e.kindSource.KindsFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve exercise kinds: %w", err)
	}

	expanded := make([]TemplateExercise, 0, len(specs))
	for _, spec := range specs {
		if spec.ExerciseID == "" {
			continue
		}

		kind := kinds.Resolve(kindMap[spec.ExerciseID])
		baseHints := kinds.SetHints{
			Reps:     spec.Reps,
			Weight:   spec.Weight,
			Duration: spec.Duration,
			Distance: spec.Distance,
		}

		expanded = append(expanded, TemplateExercise{
			ExerciseID: spec.ExerciseID,
			Order:      len(expanded),
			Sets:       expandSets(kind, spec.Sets, baseHints),
			Notes:      spec.Notes,
		})
	}

	return expanded, nil
}

func expandSets(kind string, rawSets json.RawMessage, base kinds.SetHints) []kinds.SetRecord {
	if hints, isArray := parseSetHints(rawSets); isArray {
		sets := make([]kinds.SetRecord, 0, len(hints))
		for _, hint := range hints {
			sets = append(sets, kinds.Normalize(kind, mergeHints(base, hint)))
		}
		if len(sets) > 0 {
			return sets
		}
	}

	count := setCount(kind, rawSets)
	sets := make([]kinds.SetRecord, 0, count)
	for i := 0; i < count; i++ {
		sets = append(sets, kinds.Normalize(kind, base))
	}
	return sets
}

// parseSetHints decodes rawSets as an array of per-set hints. Elements that
// cannot be decoded are skipped.
func parseSetHints(rawSets json.RawMessage) (_ []kinds.SetHints, isArray bool) {
	if len(rawSets) == 0 {
		return nil, false
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(rawSets, &elements); err != nil {
		return nil, false
	}

	hints := make([]kinds.SetHints, 0, len(elements))
	for _, element := range elements {
		var hint kinds.SetHints
		if err := json.Unmarshal(element, &hint); err != nil {
			continue
		}
		hints = append(hints, hint)
	}
	return hints, true
}

// setCount interprets rawSets as a legacy set count when possible. Everything
// else falls back to the kind default: one set for time/distance-only kinds,
// three otherwise.
func setCount(kind string, rawSets json.RawMessage) int {
	if count, ok := parseLegacyCount(rawSets); ok && count > 0 {
		return count
	}
	if kinds.RuleFor(kind).TimeOrDistanceOnly() {
		return 1
	}
	return defaultSetCount
}

func parseLegacyCount(rawSets json.RawMessage) (int, bool) {
	if len(rawSets) == 0 {
		return 0, false
	}

	var number float64
	if err := json.Unmarshal(rawSets, &number); err == nil {
		return int(number), true
	}

	var str string
	if err := json.Unmarshal(rawSets, &str); err == nil {
		if count, convErr := strconv.Atoi(strings.TrimSpace(str)); convErr == nil {
			return count, true
		}
	}

	return 0, false
}

// mergeHints overlays a per-set hint on the spec-level scalar hints; fields
// the per-set hint supplies win.
func mergeHints(base, override kinds.SetHints) kinds.SetHints {
	merged := base
	if override.SetType != "" {
		merged.SetType = override.SetType
	}
	if override.Reps != nil {
		merged.Reps = override.Reps
	}
	if override.Weight != nil {
		merged.Weight = override.Weight
	}
	if override.Duration != nil {
		merged.Duration = override.Duration
	}
	if override.Distance != nil {
		merged.Distance = override.Distance
	}
	return merged
}
