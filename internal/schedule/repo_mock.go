package schedule

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var (
	_ scheduleRepo = (*repoMock)(nil)
	_ entrySource  = (*repoMock)(nil)
)

type repoMock struct {
	Workouts map[string]*PlannedWorkout

	mutex sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Workouts: make(map[string]*PlannedWorkout),
	}
}

func (r *repoMock) Add(_ context.Context, workout PlannedWorkout) (*PlannedWorkout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if workout.ID == "" {
		workout.ID = uuid.NewString()
	}
	r.Workouts[workout.ID] = &workout

	added := workout
	return &added, nil
}

func (r *repoMock) Get(_ context.Context, userID, id string) (*PlannedWorkout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workout, ok := r.Workouts[id]
	if !ok || workout.UserID != userID {
		return nil, ErrWorkoutNotFound
	}
	found := *workout
	return &found, nil
}

func (r *repoMock) FindByDateName(_ context.Context, userID, date, name string) (*PlannedWorkout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, workout := range r.Workouts {
		if workout.UserID == userID && workout.Date == date && workout.Name == name {
			found := *workout
			return &found, nil
		}
	}
	return nil, ErrWorkoutNotFound
}

func (r *repoMock) ListAll(_ context.Context, userID string) ([]PlannedWorkout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workouts := make([]PlannedWorkout, 0, len(r.Workouts))
	for _, workout := range r.Workouts {
		if workout.UserID != userID {
			continue
		}
		workouts = append(workouts, *workout)
	}

	sort.Slice(workouts, func(i, j int) bool {
		if workouts[i].Date != workouts[j].Date {
			return workouts[i].Date < workouts[j].Date
		}
		return workouts[i].Order < workouts[j].Order
	})
	return workouts, nil
}

func (r *repoMock) Update(_ context.Context, params UpdateParams) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workout, ok := r.Workouts[params.ID]
	if !ok || workout.UserID != params.UserID {
		return ErrWorkoutNotFound
	}

	if params.Date != nil {
		workout.Date = *params.Date
	}
	if params.Name != nil {
		workout.Name = *params.Name
	}
	if params.Type != nil {
		workout.Type = *params.Type
	}
	if params.Notes != nil {
		workout.Notes = *params.Notes
	}
	if params.Status != nil {
		workout.Status = *params.Status
	}
	if params.Order != nil {
		workout.Order = *params.Order
	}
	if params.TemplateID != nil {
		workout.TemplateID = params.TemplateID
	}
	return nil
}

func (r *repoMock) Delete(_ context.Context, userID, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workout, ok := r.Workouts[id]
	if !ok || workout.UserID != userID {
		return ErrWorkoutNotFound
	}
	delete(r.Workouts, id)
	return nil
}

var _ SessionSource = (*sessionSourceMock)(nil)

type sessionSourceMock struct {
	Completed map[SessionKey]string
}

func newSessionSourceMock() *sessionSourceMock {
	return &sessionSourceMock{
		Completed: make(map[SessionKey]string),
	}
}

func (s *sessionSourceMock) CompletedSessions(_ context.Context, _ string, _, _ string) (map[SessionKey]string, error) {
	return s.Completed, nil
}
