package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gympal-app/backend/internal/auth"
	"github.com/gympal-app/backend/internal/telemetry/tracing"
	"github.com/gympal-app/backend/pkg"

	log "github.com/sirupsen/logrus"
)

type profileRepo interface {
	Get(ctx context.Context, userID string) (*UserProfile, error)
	Upsert(ctx context.Context, params UpdateParams) (*UserProfile, error)
	GetInsights(ctx context.Context, userID string) (*Insights, error)
	SaveInsights(ctx context.Context, insights Insights) (*Insights, error)
}

type insightsSource interface {
	Generate(ctx context.Context, userProfile UserProfile) (*Insights, error)
}

type updateProfileRequest struct {
	Sex             *string    `json:"sex"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	HeightCm        *float64   `json:"height_cm"`
	WeightKg        *float64   `json:"weight_kg"`
	TrainingAge     *string    `json:"training_age"`
	Goals           *string    `json:"goals"`
	InjuryHistory   *string    `json:"injury_history"`
	Strengths       *string    `json:"strengths"`
	Weaknesses      *string    `json:"weaknesses"`
	BackgroundStory *string    `json:"background_story"`
}

func (req updateProfileRequest) empty() bool {
	return req.Sex == nil && req.DateOfBirth == nil && req.HeightCm == nil &&
		req.WeightKg == nil && req.TrainingAge == nil && req.Goals == nil &&
		req.InjuryHistory == nil && req.Strengths == nil &&
		req.Weaknesses == nil && req.BackgroundStory == nil
}

type Handler struct {
	repo      profileRepo
	generator insightsSource
}

func NewHandler(repo profileRepo, generator insightsSource) *Handler {
	return &Handler{
		repo:      repo,
		generator: generator,
	}
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	userProfile, err := handler.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get profile: %s", err)
		http.Error(w, "failed to get profile", http.StatusInternalServerError)
		return
	}

	profileJson, err := json.Marshal(userProfile)
	if err != nil {
		log.Errorf("failed to marshal profile: %s", err)
		http.Error(w, "failed to marshal profile", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, profileJson, http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.update")
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

	var updateReq updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		log.Tracef("update profile, unmarshal json params: %s", err)
		http.Error(w, "update profile failed", http.StatusBadRequest)
		return
	}

	if updateReq.empty() {
		http.Error(w, "error, nothing to update", http.StatusBadRequest)
		return
	}

	updated, err := handler.repo.Upsert(ctx, UpdateParams{
		UserID:          userID,
		Sex:             updateReq.Sex,
		DateOfBirth:     updateReq.DateOfBirth,
		HeightCm:        updateReq.HeightCm,
		WeightKg:        updateReq.WeightKg,
		TrainingAge:     updateReq.TrainingAge,
		Goals:           updateReq.Goals,
		InjuryHistory:   updateReq.InjuryHistory,
		Strengths:       updateReq.Strengths,
		Weaknesses:      updateReq.Weaknesses,
		BackgroundStory: updateReq.BackgroundStory,
		UpdatedAt:       time.Now(),
	})
	if err != nil {
		log.Errorf("failed to update profile: %s", err)
		http.Error(w, "profile not updated", http.StatusInternalServerError)
		return
	}

	updatedJson, err := json.Marshal(updated)
	if err != nil {
		log.Errorf("failed to marshal profile: %s", err)
		http.Error(w, "failed to marshal profile", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, updatedJson, http.StatusOK)
}

func (handler *Handler) HandleGetInsights(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.getInsights")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	insights, err := handler.repo.GetInsights(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrInsightsNotFound) {
			http.Error(w, "insights not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get insights: %s", err)
		http.Error(w, "failed to get insights", http.StatusInternalServerError)
		return
	}

	insightsJson, err := json.Marshal(insights)
	if err != nil {
		log.Errorf("failed to marshal insights: %s", err)
		http.Error(w, "failed to marshal insights", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, insightsJson, http.StatusOK)
}

// HandleGenerateInsights runs the extraction model over the stored profile
// and replaces the saved insights with the result.
func (handler *Handler) HandleGenerateInsights(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.generateInsights")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	userProfile, err := handler.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			http.Error(w, "error, not enough profile information", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to get profile: %s", err)
		http.Error(w, "failed to generate insights", http.StatusInternalServerError)
		return
	}

	insights, err := handler.generator.Generate(ctx, *userProfile)
	if err != nil {
		if errors.Is(err, ErrNotEnoughInfo) {
			http.Error(w, "error, not enough profile information", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to generate insights: %s", err)
		http.Error(w, "failed to generate insights", http.StatusInternalServerError)
		return
	}

	saved, err := handler.repo.SaveInsights(ctx, *insights)
	if err != nil {
		log.Errorf("failed to save insights: %s", err)
		http.Error(w, "failed to save insights", http.StatusInternalServerError)
		return
	}

	savedJson, err := json.Marshal(saved)
	if err != nil {
		log.Errorf("failed to marshal insights: %s", err)
		http.Error(w, "failed to marshal insights", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, savedJson, http.StatusOK)
}
