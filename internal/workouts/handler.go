package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gympal-app/backend/internal/auth"
	"github.com/gympal-app/backend/internal/kinds"
	"github.com/gympal-app/backend/internal/telemetry/metrics"
	"github.com/gympal-app/backend/internal/telemetry/tracing"
	"github.com/gympal-app/backend/internal/templates"
	"github.com/gympal-app/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const defaultListLimit = 50

type workoutsRepo interface {
	Add(ctx context.Context, workout Workout) (*Workout, error)
	Get(ctx context.Context, userID, id string) (*Workout, error)
	List(ctx context.Context, userID string, params ListParams) ([]Workout, error)
	Update(ctx context.Context, params UpdateParams) error
}

type templateSource interface {
	Get(ctx context.Context, userID, id string) (*templates.Template, error)
}

type prLister interface {
	List(ctx context.Context, userID, exerciseID string) ([]PR, error)
}

type startWorkoutRequest struct {
	TemplateID *string `json:"template_id"`
	Notes      string  `json:"notes"`
}

type updateWorkoutRequest struct {
	Exercises *[]WorkoutExercise `json:"exercises"`
	Notes     *string            `json:"notes"`
	EndedAt   *time.Time         `json:"ended_at"`
}

type ListResponse struct {
	Workouts []Workout `json:"workouts"`
	Total    int       `json:"total"`
}

type ListPRsResponse struct {
	PRs   []PR `json:"prs"`
	Total int  `json:"total"`
}

type Handler struct {
	repo           workoutsRepo
	templates      templateSource
	kindSource     kindSource
	prs            prLister
	prTracker      *PRTracker
	metricsManager *metrics.Manager
}

func NewHandler(
	repo workoutsRepo,
	templatesSource templateSource,
	kindSource kindSource,
	prs prLister,
	prTracker *PRTracker,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:           repo,
		templates:      templatesSource,
		kindSource:     kindSource,
		prs:            prs,
		prTracker:      prTracker,
		metricsManager: metricsManager,
	}
}

// HandleStart opens a new workout session, optionally attached to a
// template. The session starts empty; the client reports performed sets via
// updates as the workout progresses.
func (handler *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.start")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if contentType := r.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "application/json") {
		http.Error(w, "add workout failed, invalid content type", http.StatusBadRequest)
		return
	}

	var req startWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("start workout, unmarshal json params: %s", err)
		http.Error(w, "add workout failed", http.StatusBadRequest)
		return
	}

	workout := Workout{
		UserID:     userID,
		TemplateID: req.TemplateID,
		Name:       "Workout",
		Notes:      req.Notes,
		StartedAt:  time.Now(),
		Exercises:  []WorkoutExercise{},
	}
	if req.TemplateID != nil && *req.TemplateID != "" {
		template, err := handler.templates.Get(ctx, userID, *req.TemplateID)
		switch {
		case err == nil:
			workout.Name = template.Name
		case errors.Is(err, templates.ErrTemplateNotFound):
			http.Error(w, "template not found", http.StatusNotFound)
			return
		default:
			log.Errorf("start workout, get template: %s", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	added, err := handler.repo.Add(ctx, workout)
	if err != nil {
		log.Errorf("start workout: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	workoutJson, err := json.Marshal(added)
	if err != nil {
		log.Errorf("marshal started workout: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutJson, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	limit := defaultListLimit
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			http.Error(w, "error, invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	workouts, err := handler.repo.List(ctx, userID, ListParams{Limit: limit})
	if err != nil {
		log.Errorf("list workouts: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := ListResponse{
		Workouts: workouts,
		Total:    len(workouts),
	}
	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal workouts response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	workoutID := vars["id"]
	if workoutID == "" {
		http.Error(w, "error, workout id empty", http.StatusBadRequest)
		return
	}

	workout, err := handler.repo.Get(ctx, userID, workoutID)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("get workout %s: %s", workoutID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("marshal workout: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutJson, http.StatusOK)
}

// HandleUpdate patches a running session. Incoming sets are normalized
// against each exercise's kind before they are stored, so disallowed fields
// never reach the database. Setting ended_at finishes the workout and runs
// the PR check.
func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	workoutID := vars["id"]
	if workoutID == "" {
		http.Error(w, "error, workout id empty", http.StatusBadRequest)
		return
	}

	if contentType := r.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "application/json") {
		http.Error(w, "update workout failed, invalid content type", http.StatusBadRequest)
		return
	}

	var req updateWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("update workout, unmarshal json params: %s", err)
		http.Error(w, "update workout failed", http.StatusBadRequest)
		return
	}

	if req.Exercises == nil && req.Notes == nil && req.EndedAt == nil {
		http.Error(w, "error, nothing to update", http.StatusBadRequest)
		return
	}

	if req.Exercises != nil {
		normalized, err := handler.normalizeExercises(ctx, *req.Exercises)
		if err != nil {
			log.Errorf("update workout, normalize exercises: %s", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		req.Exercises = &normalized
	}

	err := handler.repo.Update(ctx, UpdateParams{
		ID:        workoutID,
		UserID:    userID,
		Notes:     req.Notes,
		Exercises: req.Exercises,
		EndedAt:   req.EndedAt,
	})
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("update workout %s: %s", workoutID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	workout, err := handler.repo.Get(ctx, userID, workoutID)
	if err != nil {
		log.Errorf("update workout, get updated %s: %s", workoutID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// a set ended_at means the session just finished
	if req.EndedAt != nil {
		handler.metricsManager.CounterWorkoutsCompleted.Inc()
		if _, prErr := handler.prTracker.CheckWorkout(ctx, workout); prErr != nil {
			log.Errorf("check workout %s for prs: %s", workoutID, prErr)
		}
	}

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("marshal updated workout: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutJson, http.StatusOK)
}

func (handler *Handler) HandleListPRs(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.listPRs")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	exerciseID := r.URL.Query().Get("exercise_id")

	prs, err := handler.prs.List(ctx, userID, exerciseID)
	if err != nil {
		log.Errorf("list prs: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := ListPRsResponse{
		PRs:   prs,
		Total: len(prs),
	}
	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal prs response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

// normalizeExercises reapplies the kind rules to every incoming set. Clients
// send whatever fields their UI tracked; only fields the exercise kind
// allows survive.
func (handler *Handler) normalizeExercises(
	ctx context.Context, exercises []WorkoutExercise,
) ([]WorkoutExercise, error) {
	if len(exercises) == 0 {
		return exercises, nil
	}

	ids := make([]string, 0, len(exercises))
	for _, exercise := range exercises {
		ids = append(ids, exercise.ExerciseID)
	}
	kindMap, err := handler.kindSource.KindsFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve exercise kinds: %w", err)
	}

	normalized := make([]WorkoutExercise, 0, len(exercises))
	for _, exercise := range exercises {
		kind := kinds.Resolve(kindMap[exercise.ExerciseID])
		sets := make([]kinds.SetRecord, 0, len(exercise.Sets))
		for _, set := range exercise.Sets {
			sets = append(sets, kinds.Normalize(kind, set.Hints()))
		}
		exercise.Sets = sets
		normalized = append(normalized, exercise)
	}

	return normalized, nil
}
