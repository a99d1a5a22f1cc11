package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gympal-app/backend/internal/coach/llm"
	"github.com/gympal-app/backend/internal/telemetry/tracing"

	"github.com/invopop/jsonschema"
)

const (
	insightsModel       = "openai/gpt-4o-mini"
	insightsTemperature = 0.3
	insightsToolName    = "extract_profile_insights"

	insightsSystemPrompt = "You are an expert fitness coach assistant that analyzes athlete profiles and extracts structured insights. You must return valid JSON matching the provided schema."
)

const extractionPromptTemplate = `Please analyze this user's training profile and extract structured insights.

Training Age: %s

Goals:
%s

Background Story:
%s

Injury History:
%s

Strengths:
%s

Weaknesses:
%s

Extract the following information:
1. injury_tags: List of specific injuries mentioned (e.g., "shin stress fractures", "posterior tibial irritation")
2. current_issues: Current problems or discomforts they're experiencing
3. strength_tags: Key strengths and capabilities
4. weak_point_tags: Weaknesses or injury-prone areas
5. training_phases: Distinct phases in their training journey (with label and description)
6. psych_profile: Their psychological approach to training, tendencies, and mental characteristics

Return the data as valid JSON matching the schema.`

// insightsExtraction is the shape the model fills in. Identifiers and
// timestamps are stamped on save.
type insightsExtraction struct {
	InjuryTags     []string        `json:"injury_tags" jsonschema:"description=List of injury tags extracted from injury history"`
	CurrentIssues  []string        `json:"current_issues" jsonschema:"description=Current issues or problems the user is experiencing"`
	StrengthTags   []string        `json:"strength_tags" jsonschema:"description=Key strengths extracted from the user's profile"`
	WeakPointTags  []string        `json:"weak_point_tags" jsonschema:"description=Weaknesses or areas prone to problems"`
	TrainingPhases []TrainingPhase `json:"training_phases" jsonschema:"description=Distinct training phases from background story"`
	PsychProfile   string          `json:"psych_profile" jsonschema:"description=Psychological profile and training tendencies"`
}

var insightsSchema = mustSchema[insightsExtraction]()

// mustSchema reflects a JSON schema out of a struct. Panics on a malformed
// schema so a broken definition surfaces at startup, not mid-request.
func mustSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schemaJson, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		panic(fmt.Sprintf("marshal insights schema: %v", err))
	}
	var schema map[string]any
	if err := json.Unmarshal(schemaJson, &schema); err != nil {
		panic(fmt.Sprintf("unmarshal insights schema: %v", err))
	}
	return schema
}

// InsightsGenerator distills freeform profile text into structured insights
// through a forced function call.
type InsightsGenerator struct {
	completer llm.Completer
}

func NewInsightsGenerator(completer llm.Completer) *InsightsGenerator {
	return &InsightsGenerator{
		completer: completer,
	}
}

func (g *InsightsGenerator) Generate(ctx context.Context, userProfile UserProfile) (_ *Insights, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "profile.insights.generate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if !userProfile.HasContent() {
		return nil, ErrNotEnoughInfo
	}

	completion, err := g.completer.Complete(ctx, llm.Request{
		Model: insightsModel,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: insightsSystemPrompt},
			{Role: llm.RoleUser, Content: extractionPrompt(userProfile)},
		},
		Tools: []llm.Tool{
			{
				Name:        insightsToolName,
				Description: "Extract structured insights from user's training profile",
				Parameters:  insightsSchema,
			},
		},
		ToolChoice:  insightsToolName,
		Temperature: insightsTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}

	if len(completion.ToolCalls) == 0 {
		return nil, errors.New("model did not return the extraction call")
	}

	var extraction insightsExtraction
	if err := json.Unmarshal(
		[]byte(completion.ToolCalls[0].Function.Arguments), &extraction,
	); err != nil {
		return nil, fmt.Errorf("parse extraction arguments: %w", err)
	}

	return &Insights{
		UserID:         userProfile.UserID,
		InjuryTags:     emptyTags(extraction.InjuryTags),
		CurrentIssues:  emptyTags(extraction.CurrentIssues),
		StrengthTags:   emptyTags(extraction.StrengthTags),
		WeakPointTags:  emptyTags(extraction.WeakPointTags),
		TrainingPhases: emptyPhases(extraction.TrainingPhases),
		PsychProfile:   extraction.PsychProfile,
		UpdatedAt:      time.Now(),
	}, nil
}

func extractionPrompt(p UserProfile) string {
	return fmt.Sprintf(extractionPromptTemplate,
		orNotSpecified(p.TrainingAge),
		orNotSpecified(p.Goals),
		orNotSpecified(p.BackgroundStory),
		orNotSpecified(p.InjuryHistory),
		orNotSpecified(p.Strengths),
		orNotSpecified(p.Weaknesses),
	)
}

func orNotSpecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}
