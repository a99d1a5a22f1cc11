package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gympal-app/backend/internal/coach/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type completerMock struct {
	requests    []llm.Request
	completions []*llm.Completion
	err         error
}

func (m *completerMock) Complete(_ context.Context, req llm.Request) (*llm.Completion, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.completions[len(m.requests)-1], nil
}

func extractionCall(args string) llm.ToolCall {
	return llm.ToolCall{
		ID:   "call-1",
		Type: "function",
		Function: llm.FunctionCall{
			Name:      insightsToolName,
			Arguments: args,
		},
	}
}

func TestInsightsSchema(t *testing.T) {
	require.Equal(t, "object", insightsSchema["type"])
	assert.Equal(t, false, insightsSchema["additionalProperties"])

	props, ok := insightsSchema["properties"].(map[string]any)
	require.True(t, ok)
	for _, name := range []string{
		"injury_tags", "current_issues", "strength_tags",
		"weak_point_tags", "training_phases", "psych_profile",
	} {
		assert.Contains(t, props, name)
	}

	required, ok := insightsSchema["required"].([]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{
		"injury_tags", "current_issues", "strength_tags",
		"weak_point_tags", "training_phases", "psych_profile",
	}, required)

	phases, ok := props["training_phases"].(map[string]any)
	require.True(t, ok)
	items, ok := phases["items"].(map[string]any)
	require.True(t, ok)
	itemsRequired, ok := items["required"].([]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{"label", "description"}, itemsRequired)
}

func TestInsightsGenerator_Generate(t *testing.T) {
	completer := &completerMock{
		completions: []*llm.Completion{
			{
				ToolCalls: []llm.ToolCall{extractionCall(`{
					"injury_tags": ["shin stress fractures"],
					"current_issues": ["left knee aches on squats"],
					"strength_tags": ["aerobic base", "consistency"],
					"weak_point_tags": ["ankle mobility"],
					"training_phases": [
						{"label": "Base building", "description": "High volume, low intensity"}
					],
					"psych_profile": "Disciplined, tends to overreach when progress stalls."
				}`)},
			},
		},
	}
	generator := NewInsightsGenerator(completer)

	insights, err := generator.Generate(context.Background(), UserProfile{
		UserID:        "user-1",
		TrainingAge:   "5 years",
		Goals:         "run a sub 3h marathon",
		InjuryHistory: "shin stress fractures in 2022",
	})
	require.NoError(t, err)
	require.NotNil(t, insights)

	assert.Equal(t, "user-1", insights.UserID)
	assert.Equal(t, []string{"shin stress fractures"}, insights.InjuryTags)
	assert.Equal(t, []string{"left knee aches on squats"}, insights.CurrentIssues)
	assert.Equal(t, []string{"aerobic base", "consistency"}, insights.StrengthTags)
	assert.Equal(t, []string{"ankle mobility"}, insights.WeakPointTags)
	require.Len(t, insights.TrainingPhases, 1)
	assert.Equal(t, "Base building", insights.TrainingPhases[0].Label)
	assert.Equal(t, "Disciplined, tends to overreach when progress stalls.", insights.PsychProfile)
	assert.WithinDuration(t, time.Now(), insights.UpdatedAt, time.Minute)

	require.Len(t, completer.requests, 1)
	req := completer.requests[0]
	assert.Equal(t, "openai/gpt-4o-mini", req.Model)
	assert.InDelta(t, 0.3, req.Temperature, 0.001)
	assert.Equal(t, insightsToolName, req.ToolChoice)
	require.Len(t, req.Tools, 1)
	assert.Equal(t, insightsToolName, req.Tools[0].Name)

	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "expert fitness coach assistant")
	assert.Equal(t, llm.RoleUser, req.Messages[1].Role)
	assert.Contains(t, req.Messages[1].Content, "Training Age: 5 years")
	assert.Contains(t, req.Messages[1].Content, "run a sub 3h marathon")
	assert.Contains(t, req.Messages[1].Content, "shin stress fractures in 2022")
	// fields the profile never filled in are sent as "Not specified"
	assert.Contains(t, req.Messages[1].Content, "Background Story:\nNot specified")
	assert.Contains(t, req.Messages[1].Content, "Strengths:\nNot specified")
	assert.Contains(t, req.Messages[1].Content, "Weaknesses:\nNot specified")
}

func TestInsightsGenerator_Generate_notEnoughInfo(t *testing.T) {
	completer := &completerMock{}
	generator := NewInsightsGenerator(completer)

	// sex, birth date and body measurements alone say nothing extractable
	heightCm := 180.0
	insights, err := generator.Generate(context.Background(), UserProfile{
		UserID:   "user-1",
		Sex:      "male",
		HeightCm: &heightCm,
	})
	require.ErrorIs(t, err, ErrNotEnoughInfo)
	assert.Nil(t, insights)
	assert.Empty(t, completer.requests)
}

func TestInsightsGenerator_Generate_noToolCall(t *testing.T) {
	completer := &completerMock{
		completions: []*llm.Completion{
			{Content: "here are some thoughts instead"},
		},
	}
	generator := NewInsightsGenerator(completer)

	insights, err := generator.Generate(context.Background(), UserProfile{
		UserID: "user-1",
		Goals:  "get stronger",
	})
	require.Error(t, err)
	assert.Nil(t, insights)
	assert.Contains(t, err.Error(), "extraction")
}

func TestInsightsGenerator_Generate_badArguments(t *testing.T) {
	completer := &completerMock{
		completions: []*llm.Completion{
			{ToolCalls: []llm.ToolCall{extractionCall(`{"injury_tags": not json`)}},
		},
	}
	generator := NewInsightsGenerator(completer)

	insights, err := generator.Generate(context.Background(), UserProfile{
		UserID: "user-1",
		Goals:  "get stronger",
	})
	require.Error(t, err)
	assert.Nil(t, insights)
}

func TestInsightsGenerator_Generate_completerError(t *testing.T) {
	completer := &completerMock{err: errors.New("upstream busy")}
	generator := NewInsightsGenerator(completer)

	insights, err := generator.Generate(context.Background(), UserProfile{
		UserID: "user-1",
		Goals:  "get stronger",
	})
	require.Error(t, err)
	assert.Nil(t, insights)
}

func TestInsightsGenerator_Generate_missingFieldsNormalized(t *testing.T) {
	completer := &completerMock{
		completions: []*llm.Completion{
			{ToolCalls: []llm.ToolCall{extractionCall(`{"psych_profile": "steady"}`)}},
		},
	}
	generator := NewInsightsGenerator(completer)

	insights, err := generator.Generate(context.Background(), UserProfile{
		UserID: "user-1",
		Goals:  "get stronger",
	})
	require.NoError(t, err)

	assert.NotNil(t, insights.InjuryTags)
	assert.Empty(t, insights.InjuryTags)
	assert.NotNil(t, insights.CurrentIssues)
	assert.NotNil(t, insights.StrengthTags)
	assert.NotNil(t, insights.WeakPointTags)
	assert.NotNil(t, insights.TrainingPhases)
	assert.Equal(t, "steady", insights.PsychProfile)
}
