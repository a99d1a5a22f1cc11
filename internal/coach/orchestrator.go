package coach

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gympal-app/backend/internal/coach/llm"
	"github.com/gympal-app/backend/internal/profile"
	"github.com/gympal-app/backend/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	coachModel       = "openai/gpt-5.1"
	coachTemperature = 0.7

	// maxToolRounds bounds the plan-execute loop; the model gets this many
	// chances to call tools before it is forced into a plain text answer.
	maxToolRounds = 6
)

const (
	degradedResponse = "I hit an error while trying to respond. Try again or rephrase what you want to do."
	fallbackResponse = "I couldn’t generate a proper response just now, but nothing was changed. Try again."
)

type toolExecutor interface {
	Execute(ctx context.Context, userID, toolName string, arguments map[string]any) string
}

// Orchestrator drives the coach conversation: it threads the model through
// rounds of tool calls against the user's data and always comes back with a
// non-empty assistant message.
type Orchestrator struct {
	completer llm.Completer
	executor  toolExecutor
	profiles  contextSource
}

func NewOrchestrator(completer llm.Completer, executor toolExecutor, profiles contextSource) *Orchestrator {
	return &Orchestrator{
		completer: completer,
		executor:  executor,
		profiles:  profiles,
	}
}

// Respond runs the tool loop for one client turn and returns the grown
// conversation. The returned slice always ends with a non-empty assistant
// message and includes every tool exchange so the client can send the whole
// thing back next turn.
func (o *Orchestrator) Respond(
	ctx context.Context,
	userID string,
	messages []llm.ChatMessage,
) []llm.ChatMessage {
	ctx, span := tracing.GlobalTracer.Start(ctx, "coach.respond")
	defer span.End()

	requestID := uuid.NewString()[:8]
	span.SetAttributes(attribute.String("requestId", requestID))
	log.Infof("[coach %s] starting chat for user %s with %d messages", requestID, userID, len(messages))

	userContext, err := o.profiles.Context(ctx, userID)
	if err != nil {
		// chat must not die because the profile is missing
		log.Errorf("[coach %s] load user context: %s", requestID, err)
		userContext = &profile.Context{}
	}
	systemPrompt := buildSystemPrompt(userContext)

	// client messages minus any client-side system message; tool exchanges
	// from previous turns stay
	history := make([]llm.ChatMessage, 0, len(messages)+2)
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			continue
		}
		history = append(history, m)
	}

	current := make([]llm.ChatMessage, 0, len(history)+1)
	current = append(current, llm.ChatMessage{Role: llm.RoleSystem, Content: systemPrompt})
	for _, m := range history {
		switch {
		case m.Role == llm.RoleAssistant && len(m.ToolCalls) > 0:
			current = append(current, llm.ChatMessage{Role: m.Role, Content: m.Content, ToolCalls: m.ToolCalls})
		case m.Role == llm.RoleTool:
			current = append(current, llm.ChatMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID})
		default:
			current = append(current, llm.ChatMessage{Role: m.Role, Content: m.Content})
		}
	}

	finalContent := ""

	for round := 1; round <= maxToolRounds; round++ {
		completion, err := o.completer.Complete(ctx, llm.Request{
			Model:       coachModel,
			Messages:    current,
			Tools:       Tools(),
			Temperature: coachTemperature,
		})
		if err != nil {
			log.Errorf("[coach %s] completion round %d: %s", requestID, round, err)
			return append(history, llm.ChatMessage{Role: llm.RoleAssistant, Content: degradedResponse})
		}

		assistantText := completion.Content
		if len(completion.ToolCalls) == 0 {
			finalContent = assistantText
			break
		}

		kept := planRound(requestID, completion.ToolCalls)
		if len(kept) == 0 {
			log.Infof("[coach %s] round %d: every tool call dropped, forcing plain answer", requestID, round)
			finalContent = o.plainCompletion(ctx, requestID, current)
			break
		}

		payload := make([]llm.ToolCall, len(kept))
		for i, tc := range kept {
			payload[i] = llm.ToolCall{ID: tc.ID, Type: "function", Function: tc.Function}
		}
		assistantMsg := llm.ChatMessage{Role: llm.RoleAssistant, Content: assistantText, ToolCalls: payload}
		history = append(history, assistantMsg)
		current = append(current, assistantMsg)

		// identical requests share one execution, every call id still gets
		// its own tool message carrying that shared result
		results := make(map[callKey]string, len(kept))
		for _, tc := range kept {
			key := callKey{name: tc.Function.Name, args: tc.Function.Arguments}
			result, done := results[key]
			if !done {
				log.Infof("[coach %s] round %d: executing %s", requestID, round, tc.Function.Name)
				result = o.executor.Execute(ctx, userID, tc.Function.Name, parseArguments(tc.Function.Arguments))
				results[key] = result
			}
			current = append(current, llm.ChatMessage{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: tc.ID,
			})
			history = append(history, llm.ChatMessage{
				Role:       llm.RoleTool,
				Content:    result,
				ToolName:   tc.Function.Name,
				ToolCallID: tc.ID,
			})
		}
	}

	if finalContent == "" {
		log.Infof("[coach %s] no final content after tool rounds, forcing plain answer", requestID)
		finalContent = o.plainCompletion(ctx, requestID, current)
	}
	if strings.TrimSpace(finalContent) == "" {
		log.Warnf("[coach %s] blank final content, using fallback", requestID)
		finalContent = fallbackResponse
	}

	return append(history, llm.ChatMessage{Role: llm.RoleAssistant, Content: finalContent})
}

type callKey struct {
	name string
	args string
}

// planRound decides which requested calls survive the round. Calls that are
// byte-identical to an earlier one (same name, same raw arguments) all stay
// and will share a single execution. An extra call to a single-call tool
// with different arguments is dropped outright.
func planRound(requestID string, requested []llm.ToolCall) []llm.ToolCall {
	kept := make([]llm.ToolCall, 0, len(requested))
	seen := make(map[callKey]bool, len(requested))
	usedSingle := make(map[string]bool)

	for _, tc := range requested {
		key := callKey{name: tc.Function.Name, args: tc.Function.Arguments}
		if seen[key] {
			kept = append(kept, tc)
			continue
		}
		if singleCallTools[tc.Function.Name] && usedSingle[tc.Function.Name] {
			log.Infof("[coach %s] dropping extra %s call this round", requestID, tc.Function.Name)
			continue
		}
		seen[key] = true
		if singleCallTools[tc.Function.Name] {
			usedSingle[tc.Function.Name] = true
		}
		kept = append(kept, tc)
	}
	return kept
}

// plainCompletion asks the model once more with tools disabled. Any failure
// here degrades to an empty string and the caller's fallback text.
func (o *Orchestrator) plainCompletion(ctx context.Context, requestID string, current []llm.ChatMessage) string {
	completion, err := o.completer.Complete(ctx, llm.Request{
		Model:       coachModel,
		Messages:    current,
		Tools:       Tools(),
		ToolChoice:  llm.ToolChoiceNone,
		Temperature: coachTemperature,
	})
	if err != nil {
		log.Errorf("[coach %s] forced plain completion: %s", requestID, err)
		return ""
	}
	return completion.Content
}

// parseArguments decodes the model's raw argument JSON, degrading to an
// empty set so a malformed payload still reaches the tool's own validation.
func parseArguments(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		log.Errorf("coach: parse tool arguments: %s", err)
		return map[string]any{}
	}
	if args == nil {
		return map[string]any{}
	}
	return args
}
