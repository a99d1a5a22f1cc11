package coach

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gympal-app/backend/internal/auth"
	"github.com/gympal-app/backend/internal/coach/llm"
	"github.com/gympal-app/backend/internal/telemetry/metrics"
	"github.com/gympal-app/backend/internal/telemetry/tracing"
	"github.com/gympal-app/backend/pkg"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=coach_test

type chatResponder interface {
	Respond(ctx context.Context, userID string, messages []llm.ChatMessage) []llm.ChatMessage
}

// ChatRequest carries the whole conversation so far; the client round-trips
// what the previous response returned plus its new user message.
type ChatRequest struct {
	Messages []llm.ChatMessage `json:"messages"`
}

type ChatResponse struct {
	Messages []llm.ChatMessage `json:"messages"`
}

type Handler struct {
	coach          chatResponder
	metricsManager *metrics.Manager
}

func NewHandler(coach chatResponder, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		coach:          coach,
		metricsManager: metricsManager,
	}
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.chat")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("chat request, unmarshal json params: %s", err)
		http.Error(w, "chat failed", http.StatusBadRequest)
		return
	}
	if len(req.Messages) == 0 {
		http.Error(w, "error, no messages", http.StatusBadRequest)
		return
	}

	h.metricsManager.CounterCoachMessages.Inc()

	begin := time.Now()
	messages := h.coach.Respond(ctx, userID, req.Messages)
	h.metricsManager.HistCoachChatDuration.Observe(time.Since(begin).Seconds())

	respBytes, err := json.Marshal(ChatResponse{Messages: messages})
	if err != nil {
		log.Errorf("chat response, marshal: %s", err)
		http.Error(w, "chat failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}
