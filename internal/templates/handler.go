package templates

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gympal-app/backend/internal/auth"
	"github.com/gympal-app/backend/internal/telemetry/tracing"
	"github.com/gympal-app/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const defaultListLimit = 200

type templatesRepo interface {
	Add(ctx context.Context, template Template) (*Template, error)
	Get(ctx context.Context, userID, id string) (*Template, error)
	List(ctx context.Context, userID string, limit int) ([]Template, error)
	Update(ctx context.Context, params UpdateParams) error
	Delete(ctx context.Context, userID, id string) error
}

type DeleteTemplateResponse struct {
	DeletedID string `json:"deletedId"`
}

type UpdateTemplateResponse struct {
	UpdatedID string `json:"updatedId"`
}

type ListResponse struct {
	Templates []Template `json:"templates"`
	Total     int        `json:"total"`
}

type newTemplateRequest struct {
	Name      string                `json:"name"`
	Notes     string                `json:"notes"`
	Exercises []CompactExerciseSpec `json:"exercises"`
}

type updateTemplateRequest struct {
	Name      *string                `json:"name"`
	Notes     *string                `json:"notes"`
	Exercises *[]CompactExerciseSpec `json:"exercises"`
}

type Handler struct {
	repo     templatesRepo
	expander *Expander
}

func NewHandler(repo templatesRepo, expander *Expander) *Handler {
	return &Handler{
		repo:     repo,
		expander: expander,
	}
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil {
			http.Error(w, "error, invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsedLimit
	}

	templatesList, err := handler.repo.List(ctx, userID, limit)
	if err != nil {
		log.Errorf("failed to list templates: %s", err)
		http.Error(w, "failed to list templates", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ListResponse{
		Templates: templatesList,
		Total:     len(templatesList),
	})
	if err != nil {
		log.Errorf("failed to marshal templates: %s", err)
		http.Error(w, "failed to marshal templates", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.new")
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

	var newTemplate newTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&newTemplate); err != nil {
		log.Tracef("new template, unmarshal json params: %s", err)
		http.Error(w, "add template failed", http.StatusBadRequest)
		return
	}

	if newTemplate.Name == "" {
		http.Error(w, "error, template name empty", http.StatusBadRequest)
		return
	}

	expanded, err := handler.expander.Expand(ctx, newTemplate.Exercises)
	if err != nil {
		log.Errorf("failed to expand template exercises: %s", err)
		http.Error(w, "error, failed to add new template", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	addedTemplate, err := handler.repo.Add(ctx, Template{
		UserID:    userID,
		Name:      newTemplate.Name,
		Notes:     newTemplate.Notes,
		Exercises: expanded,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		log.Errorf("failed to add new template [%s]: %s", newTemplate.Name, err)
		http.Error(w, "error, failed to add new template", http.StatusInternalServerError)
		return
	}

	addedJson, err := json.Marshal(addedTemplate)
	if err != nil {
		log.Errorf("failed to marshal new template: %s", err)
		http.Error(w, "error, failed to add new template", http.StatusInternalServerError)
		return
	}

	log.Debugf("new template added: %s", addedTemplate.ID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	template, err := handler.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			http.Error(w, "template not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get template %s: %s", id, err)
		http.Error(w, "failed to get template", http.StatusInternalServerError)
		return
	}

	templateJson, err := json.Marshal(template)
	if err != nil {
		log.Errorf("failed to marshal template: %s", err)
		http.Error(w, "failed to marshal template", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, templateJson, http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.update")
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

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	var updateReq updateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		log.Tracef("update template, unmarshal json params: %s", err)
		http.Error(w, "update template failed", http.StatusBadRequest)
		return
	}

	if updateReq.Name == nil && updateReq.Notes == nil && updateReq.Exercises == nil {
		http.Error(w, "error, nothing to update", http.StatusBadRequest)
		return
	}

	params := UpdateParams{
		ID:        id,
		UserID:    userID,
		Name:      updateReq.Name,
		Notes:     updateReq.Notes,
		UpdatedAt: time.Now(),
	}
	if updateReq.Exercises != nil {
		expanded, err := handler.expander.Expand(ctx, *updateReq.Exercises)
		if err != nil {
			log.Errorf("failed to expand template exercises: %s", err)
			http.Error(w, "update template failed", http.StatusInternalServerError)
			return
		}
		params.Exercises = &expanded
	}

	if err := handler.repo.Update(ctx, params); err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			http.Error(w, "template not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update template %s: %s", id, err)
		http.Error(w, "template not updated", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(UpdateTemplateResponse{UpdatedID: id})
	if err != nil {
		log.Errorf("failed to marshal update response: %s", err)
		http.Error(w, "failed to marshal update response", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(respJson))
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			log.Debugf("template %s not found", id)
			http.Error(w, "template not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete template %s: %s", id, err)
		http.Error(w, "template not deleted", http.StatusInternalServerError)
		return
	}

	deleteRespJson, err := json.Marshal(DeleteTemplateResponse{DeletedID: id})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "failed to marshal delete response", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}
