package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gympal-app/backend/internal/auth"
	"github.com/gympal-app/backend/internal/kinds"
	"github.com/gympal-app/backend/internal/telemetry/tracing"
	"github.com/gympal-app/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const defaultListLimit = 1000

type exercisesRepo interface {
	Add(ctx context.Context, exercise Exercise) (*Exercise, error)
	AddAll(ctx context.Context, toAdd []Exercise) (int, error)
	Get(ctx context.Context, id string) (*Exercise, error)
	List(ctx context.Context, params ListParams) ([]Exercise, error)
	CountGlobal(ctx context.Context) (int, error)
}

type ListResponse struct {
	Exercises []Exercise `json:"exercises"`
	Total     int        `json:"total"`
}

type Handler struct {
	repo exercisesRepo
}

func NewHandler(repo exercisesRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit < 1 {
			http.Error(w, "error, invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsedLimit
	}

	exercisesList, err := handler.repo.List(ctx, ListParams{
		UserID:   userID,
		Query:    r.URL.Query().Get("query"),
		BodyPart: r.URL.Query().Get("body_part"),
		Limit:    limit,
	})
	if err != nil {
		log.Errorf("failed to list exercises: %s", err)
		http.Error(w, "error, failed to list exercises", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ListResponse{
		Exercises: exercisesList,
		Total:     len(exercisesList),
	})
	if err != nil {
		log.Errorf("failed to marshal exercises: %s", err)
		http.Error(w, "error, failed to list exercises", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.new")
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

	var newExercise Exercise
	if err := json.NewDecoder(r.Body).Decode(&newExercise); err != nil {
		log.Errorf("new exercise, unmarshal json params: %s", err)
		http.Error(w, "add exercise failed", http.StatusBadRequest)
		return
	}

	if newExercise.Name == "" || len(newExercise.PrimaryBodyParts) == 0 {
		http.Error(w, "error, name or primary body parts empty", http.StatusBadRequest)
		return
	}

	newExercise.ID = ""
	newExercise.Kind = kinds.Resolve(newExercise.Kind)
	if newExercise.Category == "" {
		newExercise.Category = "Strength"
	}
	newExercise.IsCustom = true
	newExercise.UserID = &userID
	newExercise.CreatedAt = time.Now()

	addedExercise, err := handler.repo.Add(ctx, newExercise)
	if err != nil {
		log.Errorf("failed to add new exercise [%s]: %s", newExercise.Name, err)
		http.Error(w, "error, failed to add new exercise", http.StatusInternalServerError)
		return
	}

	log.Debugf("new custom exercise added: [%s] [%s]", addedExercise.Name, addedExercise.ID)

	addedExJson, err := json.Marshal(addedExercise)
	if err != nil {
		log.Errorf("failed to marshal new exercise: %s", err)
		http.Error(w, "error, failed to add new exercise", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedExJson, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.get")
	defer span.End()

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	exercise, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get exercise %s: %s", id, err)
		http.Error(w, "error, failed to get exercise", http.StatusInternalServerError)
		return
	}

	exJson, err := json.Marshal(exercise)
	if err != nil {
		log.Errorf("failed to marshal exercise: %s", err)
		http.Error(w, "failed to marshal exercise", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, exJson)
}

// HandleSeed loads the built-in catalogue. It is a no-op when global
// exercises are already present.
func (handler *Handler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.seed")
	defer span.End()

	count, err := handler.repo.CountGlobal(ctx)
	if err != nil {
		log.Errorf("seed exercises, count: %s", err)
		http.Error(w, "error, failed to seed exercises", http.StatusInternalServerError)
		return
	}

	if count > 0 {
		pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"message": "Database already has %d exercises"}`, count))
		return
	}

	added, err := handler.repo.AddAll(ctx, SeedCatalogue(time.Now()))
	if err != nil {
		log.Errorf("seed exercises: %s", err)
		http.Error(w, "error, failed to seed exercises", http.StatusInternalServerError)
		return
	}

	log.Debugf("seeded %d exercises", added)
	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"message": "Seeded %d exercises"}`, added))
}
