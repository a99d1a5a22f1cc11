package kinds

type SetType string

const (
	SetTypeNormal   SetType = "normal"
	SetTypeWarmup   SetType = "warmup"
	SetTypeCooldown SetType = "cooldown"
	SetTypeFailure  SetType = "failure"
)

const (
	defaultReps            = 10
	defaultDurationSeconds = 600.0
	defaultHoldSeconds     = 30.0
)

// SetRecord is a single normalized set. Only fields the exercise kind allows
// are populated, everything else stays nil and is omitted on the wire.
type SetRecord struct {
	SetType  SetType  `json:"set_type"`
	Reps     *int     `json:"reps,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
}

// SetHints carries the raw per-set values a caller (client or model)
// supplied before kind rules are applied. Nil means "not supplied".
type SetHints struct {
	SetType  SetType  `json:"set_type,omitempty"`
	Reps     *int     `json:"reps,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
}

// Hints converts a record back into hints, so already-normalized sets can be
// re-normalized without drift.
func (s SetRecord) Hints() SetHints {
	return SetHints{
		SetType:  s.SetType,
		Reps:     s.Reps,
		Weight:   s.Weight,
		Duration: s.Duration,
		Distance: s.Distance,
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	return intPtr(*v)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return floatPtr(*v)
}

// Normalize builds a SetRecord from hints under the field rules of the given
// kind. Disallowed fields are dropped, reps get a default of 10 when the kind
// allows them, and time/distance kinds with no values at all get a default
// duration (600s for cardio-style kinds, 30s for pure holds). A record that
// ends up empty for a kind that allows neither duration nor distance falls
// back to reps 10 plus any supplied weight. Running Normalize on its own
// output is a no-op.
func Normalize(kind string, hints SetHints) SetRecord {
	rule := RuleFor(kind)

	setType := hints.SetType
	if setType == "" {
		setType = SetTypeNormal
	}
	rec := SetRecord{SetType: setType}

	if rule.Allows(FieldReps) {
		if hints.Reps != nil {
			rec.Reps = copyInt(hints.Reps)
		} else {
			rec.Reps = intPtr(defaultReps)
		}
	}
	if rule.Allows(FieldWeight) && hints.Weight != nil {
		rec.Weight = copyFloat(hints.Weight)
	}
	if rule.Allows(FieldDuration) && hints.Duration != nil {
		rec.Duration = copyFloat(hints.Duration)
	}
	if rule.Allows(FieldDistance) && hints.Distance != nil {
		rec.Distance = copyFloat(hints.Distance)
	}

	if rec.Reps == nil && rec.Weight == nil && rec.Duration == nil && rec.Distance == nil {
		switch {
		case rule.Allows(FieldDuration) && rule.Allows(FieldDistance):
			rec.Duration = floatPtr(defaultDurationSeconds)
		case rule.Allows(FieldDuration):
			rec.Duration = floatPtr(defaultHoldSeconds)
		case rule.Allows(FieldDistance):
			rec.Duration = floatPtr(defaultDurationSeconds)
		default:
			rec.Reps = intPtr(defaultReps)
			if hints.Weight != nil {
				rec.Weight = copyFloat(hints.Weight)
			}
		}
	}

	return rec
}

// NormalizeAll maps Normalize over a slice of hints.
func NormalizeAll(kind string, hints []SetHints) []SetRecord {
	records := make([]SetRecord, 0, len(hints))
	for _, h := range hints {
		records = append(records, Normalize(kind, h))
	}
	return records
}
