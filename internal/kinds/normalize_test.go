package kinds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_repsDefaultWhenMissing(t *testing.T) {
	rec := Normalize("Barbell", SetHints{Weight: floatPtr(50)})
	require.NotNil(t, rec.Reps)
	assert.Equal(t, 10, *rec.Reps)
	require.NotNil(t, rec.Weight)
	assert.Equal(t, 50.0, *rec.Weight)
	assert.Nil(t, rec.Duration)
	assert.Nil(t, rec.Distance)
	assert.Equal(t, SetTypeNormal, rec.SetType)
}

func TestNormalize_weightNeverDefaulted(t *testing.T) {
	rec := Normalize("Dumbbell", SetHints{})
	require.NotNil(t, rec.Reps)
	assert.Equal(t, 10, *rec.Reps)
	assert.Nil(t, rec.Weight)
}

func TestNormalize_disallowedFieldsDropped(t *testing.T) {
	rec := Normalize("Reps Only", SetHints{
		Reps:     intPtr(15),
		Weight:   floatPtr(20),
		Duration: floatPtr(60),
		Distance: floatPtr(5),
	})
	require.NotNil(t, rec.Reps)
	assert.Equal(t, 15, *rec.Reps)
	assert.Nil(t, rec.Weight)
	assert.Nil(t, rec.Duration)
	assert.Nil(t, rec.Distance)
}

func TestNormalize_durationKindDefaults(t *testing.T) {
	// pure hold: 30s default
	rec := Normalize("Duration", SetHints{})
	require.NotNil(t, rec.Duration)
	assert.Equal(t, 30.0, *rec.Duration)
	assert.Nil(t, rec.Reps)

	// weighted hold without any values behaves the same
	rec = Normalize("Weighted Duration", SetHints{})
	require.NotNil(t, rec.Duration)
	assert.Equal(t, 30.0, *rec.Duration)

	// supplied duration wins over the default
	rec = Normalize("Duration", SetHints{Duration: floatPtr(90)})
	require.NotNil(t, rec.Duration)
	assert.Equal(t, 90.0, *rec.Duration)
}

func TestNormalize_cardioDefaults(t *testing.T) {
	rec := Normalize("Cardio", SetHints{})
	require.NotNil(t, rec.Duration)
	assert.Equal(t, 600.0, *rec.Duration)
	assert.Nil(t, rec.Distance)

	// distance alone is a valid cardio set, no duration default kicks in
	rec = Normalize("Cardio", SetHints{Distance: floatPtr(5)})
	assert.Nil(t, rec.Duration)
	require.NotNil(t, rec.Distance)
	assert.Equal(t, 5.0, *rec.Distance)

	rec = Normalize("Weighted Cardio", SetHints{Weight: floatPtr(20)})
	require.NotNil(t, rec.Weight)
	assert.Equal(t, 20.0, *rec.Weight)
	assert.Nil(t, rec.Duration, "supplied weight means the set is not empty")
}

func TestNormalize_unknownKindBehavesLikeDefault(t *testing.T) {
	rec := Normalize("Kettlebell Flow", SetHints{Weight: floatPtr(24)})
	require.NotNil(t, rec.Reps)
	assert.Equal(t, 10, *rec.Reps)
	require.NotNil(t, rec.Weight)
	assert.Equal(t, 24.0, *rec.Weight)
}

func TestNormalize_setType(t *testing.T) {
	rec := Normalize("Barbell", SetHints{SetType: SetTypeWarmup, Reps: intPtr(5)})
	assert.Equal(t, SetTypeWarmup, rec.SetType)

	rec = Normalize("Barbell", SetHints{})
	assert.Equal(t, SetTypeNormal, rec.SetType)
}

func TestNormalize_idempotent(t *testing.T) {
	hintCases := []struct {
		kind  string
		hints SetHints
	}{
		{kind: "Barbell", hints: SetHints{Reps: intPtr(5), Weight: floatPtr(100)}},
		{kind: "Barbell", hints: SetHints{}},
		{kind: "Reps Only", hints: SetHints{Weight: floatPtr(12)}},
		{kind: "Duration", hints: SetHints{}},
		{kind: "Cardio", hints: SetHints{Distance: floatPtr(10)}},
		{kind: "Weighted Cardio", hints: SetHints{Duration: floatPtr(1200), Weight: floatPtr(10)}},
		{kind: "EMOM (Every Minute On The Minute)", hints: SetHints{Duration: floatPtr(60)}},
		{kind: "something unknown", hints: SetHints{Distance: floatPtr(3)}},
	}
	for _, tc := range hintCases {
		first := Normalize(tc.kind, tc.hints)
		second := Normalize(tc.kind, first.Hints())
		assert.Equal(t, first, second, "kind %q", tc.kind)
	}
}

func TestNormalizeAll(t *testing.T) {
	records := NormalizeAll("Barbell", []SetHints{
		{Reps: intPtr(8), Weight: floatPtr(60)},
		{},
		{SetType: SetTypeFailure, Reps: intPtr(3), Weight: floatPtr(80)},
	})
	require.Len(t, records, 3)
	assert.Equal(t, 8, *records[0].Reps)
	assert.Equal(t, 10, *records[1].Reps)
	assert.Equal(t, SetTypeFailure, records[2].SetType)
}
