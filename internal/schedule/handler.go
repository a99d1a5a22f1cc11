package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gympal-app/backend/internal/auth"
	"github.com/gympal-app/backend/internal/telemetry/tracing"
	"github.com/gympal-app/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type scheduleRepo interface {
	Add(ctx context.Context, workout PlannedWorkout) (*PlannedWorkout, error)
	FindByDateName(ctx context.Context, userID, date, name string) (*PlannedWorkout, error)
	Update(ctx context.Context, params UpdateParams) error
	Delete(ctx context.Context, userID, id string) error
}

type ListResponse struct {
	Entries []CalendarEntry `json:"entries"`
	Total   int             `json:"total"`
}

type DeleteWorkoutResponse struct {
	DeletedID string `json:"deletedId"`
}

type UpdateWorkoutResponse struct {
	UpdatedID string `json:"updatedId"`
}

type newWorkoutRequest struct {
	Date              string  `json:"date"`
	Name              string  `json:"name"`
	TemplateID        *string `json:"template_id"`
	Type              string  `json:"type"`
	Notes             string  `json:"notes"`
	IsRecurring       bool    `json:"is_recurring"`
	RecurrenceType    string  `json:"recurrence_type"`
	RecurrenceDays    []int   `json:"recurrence_days"`
	RecurrenceEndDate string  `json:"recurrence_end_date"`
}

type updateWorkoutRequest struct {
	Date       *string `json:"date"`
	Name       *string `json:"name"`
	Type       *string `json:"type"`
	Notes      *string `json:"notes"`
	Status     *string `json:"status"`
	Order      *int    `json:"order"`
	TemplateID *string `json:"template_id"`
}

type Handler struct {
	repo     scheduleRepo
	calendar *Calendar
}

func NewHandler(repo scheduleRepo, calendar *Calendar) *Handler {
	return &Handler{
		repo:     repo,
		calendar: calendar,
	}
}

func (handler *Handler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedule.calendar")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	fromDate := r.URL.Query().Get("start_date")
	toDate := r.URL.Query().Get("end_date")
	if fromDate == "" || toDate == "" {
		http.Error(w, "error, start_date and end_date required", http.StatusBadRequest)
		return
	}
	if _, err := ParseDate(fromDate); err != nil {
		http.Error(w, "error, invalid start_date", http.StatusBadRequest)
		return
	}
	if _, err := ParseDate(toDate); err != nil {
		http.Error(w, "error, invalid end_date", http.StatusBadRequest)
		return
	}

	instances, err := handler.calendar.Range(ctx, userID, fromDate, toDate)
	if err != nil {
		log.Errorf("failed to assemble calendar [%s..%s]: %s", fromDate, toDate, err)
		http.Error(w, "failed to get schedule", http.StatusInternalServerError)
		return
	}

	entries := CalendarEntries(instances)
	respJson, err := json.Marshal(ListResponse{
		Entries: entries,
		Total:   len(entries),
	})
	if err != nil {
		log.Errorf("failed to marshal schedule: %s", err)
		http.Error(w, "failed to marshal schedule", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedule.new")
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

	var newWorkout newWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&newWorkout); err != nil {
		log.Tracef("new planned workout, unmarshal json params: %s", err)
		http.Error(w, "add planned workout failed", http.StatusBadRequest)
		return
	}

	if newWorkout.Date == "" || newWorkout.Name == "" {
		http.Error(w, "error, date or name empty", http.StatusBadRequest)
		return
	}
	if _, err := ParseDate(newWorkout.Date); err != nil {
		http.Error(w, "error, invalid date", http.StatusBadRequest)
		return
	}
	if newWorkout.IsRecurring {
		switch newWorkout.RecurrenceType {
		case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		default:
			http.Error(w, "error, invalid recurrence type", http.StatusBadRequest)
			return
		}
	}

	existing, err := handler.repo.FindByDateName(ctx, userID, newWorkout.Date, newWorkout.Name)
	if err != nil && !errors.Is(err, ErrWorkoutNotFound) {
		log.Errorf("failed to check for existing planned workout: %s", err)
		http.Error(w, "error, failed to add planned workout", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "workout already scheduled for that date", http.StatusConflict)
		return
	}

	workout := PlannedWorkout{
		UserID:      userID,
		Date:        newWorkout.Date,
		Name:        newWorkout.Name,
		TemplateID:  newWorkout.TemplateID,
		Type:        newWorkout.Type,
		Notes:       newWorkout.Notes,
		Status:      StatusPlanned,
		Order:       0,
		IsRecurring: newWorkout.IsRecurring,
		CreatedAt:   time.Now(),
	}
	if newWorkout.IsRecurring {
		workout.RecurrenceType = newWorkout.RecurrenceType
		workout.RecurrenceDays = newWorkout.RecurrenceDays
		workout.RecurrenceEndDate = newWorkout.RecurrenceEndDate
	}

	addedWorkout, err := handler.repo.Add(ctx, workout)
	if err != nil {
		log.Errorf("failed to add planned workout [%s @ %s]: %s", newWorkout.Name, newWorkout.Date, err)
		http.Error(w, "error, failed to add planned workout", http.StatusInternalServerError)
		return
	}

	addedJson, err := json.Marshal(addedWorkout)
	if err != nil {
		log.Errorf("failed to marshal planned workout: %s", err)
		http.Error(w, "error, failed to add planned workout", http.StatusInternalServerError)
		return
	}

	log.Debugf("new planned workout added: %s", addedWorkout.ID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedule.update")
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

	var updateReq updateWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		log.Tracef("update planned workout, unmarshal json params: %s", err)
		http.Error(w, "update planned workout failed", http.StatusBadRequest)
		return
	}

	if updateReq.Date == nil && updateReq.Name == nil && updateReq.Type == nil &&
		updateReq.Notes == nil && updateReq.Status == nil && updateReq.Order == nil &&
		updateReq.TemplateID == nil {
		http.Error(w, "error, nothing to update", http.StatusBadRequest)
		return
	}
	if updateReq.Date != nil {
		if _, err := ParseDate(*updateReq.Date); err != nil {
			http.Error(w, "error, invalid date", http.StatusBadRequest)
			return
		}
	}
	if updateReq.Status != nil && !ValidStatus(*updateReq.Status) {
		http.Error(w, "error, invalid status", http.StatusBadRequest)
		return
	}

	err := handler.repo.Update(ctx, UpdateParams{
		ID:         id,
		UserID:     userID,
		Date:       updateReq.Date,
		Name:       updateReq.Name,
		Type:       updateReq.Type,
		Notes:      updateReq.Notes,
		Status:     updateReq.Status,
		Order:      updateReq.Order,
		TemplateID: updateReq.TemplateID,
	})
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "planned workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update planned workout %s: %s", id, err)
		http.Error(w, "planned workout not updated", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(UpdateWorkoutResponse{UpdatedID: id})
	if err != nil {
		log.Errorf("failed to marshal update response: %s", err)
		http.Error(w, "failed to marshal update response", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(respJson))
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedule.delete")
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
		if errors.Is(err, ErrWorkoutNotFound) {
			log.Debugf("planned workout %s not found", id)
			http.Error(w, "planned workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete planned workout %s: %s", id, err)
		http.Error(w, "planned workout not deleted", http.StatusInternalServerError)
		return
	}

	deleteRespJson, err := json.Marshal(DeleteWorkoutResponse{DeletedID: id})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "failed to marshal delete response", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}
