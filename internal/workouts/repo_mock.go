package workouts

import (
	"context"
	"sort"
	"sync"

	"github.com/gympal-app/backend/internal/templates"

	"github.com/google/uuid"
)

var (
	_ workoutsRepo = (*repoMock)(nil)
	_ analyzerRepo = (*repoMock)(nil)
)

type repoMock struct {
	Workouts map[string]*Workout

	mutex sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Workouts: make(map[string]*Workout),
	}
}

func (r *repoMock) Add(_ context.Context, workout Workout) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if workout.ID == "" {
		workout.ID = uuid.NewString()
	}
	if workout.Exercises == nil {
		workout.Exercises = []WorkoutExercise{}
	}
	r.Workouts[workout.ID] = &workout

	added := workout
	return &added, nil
}

func (r *repoMock) Get(_ context.Context, userID, id string) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workout, ok := r.Workouts[id]
	if !ok || workout.UserID != userID {
		return nil, ErrWorkoutNotFound
	}

	found := *workout
	return &found, nil
}

func (r *repoMock) List(_ context.Context, userID string, params ListParams) ([]Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workoutsList := make([]Workout, 0, len(r.Workouts))
	for _, workout := range r.Workouts {
		if workout.UserID != userID {
			continue
		}
		if params.From != nil && workout.StartedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && workout.StartedAt.After(*params.To) {
			continue
		}
		if params.CompletedOnly && !workout.Completed() {
			continue
		}
		workoutsList = append(workoutsList, *workout)
	}

	sort.Slice(workoutsList, func(i, j int) bool {
		return workoutsList[i].StartedAt.After(workoutsList[j].StartedAt)
	})

	if params.Limit > 0 && len(workoutsList) > params.Limit {
		workoutsList = workoutsList[:params.Limit]
	}
	return workoutsList, nil
}

func (r *repoMock) Update(_ context.Context, params UpdateParams) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workout, ok := r.Workouts[params.ID]
	if !ok || workout.UserID != params.UserID {
		return ErrWorkoutNotFound
	}

	if params.Notes != nil {
		workout.Notes = *params.Notes
	}
	if params.Exercises != nil {
		workout.Exercises = *params.Exercises
	}
	if params.EndedAt != nil {
		workout.EndedAt = params.EndedAt
	}
	return nil
}

var (
	_ prRepo   = (*prRepoMock)(nil)
	_ prLister = (*prRepoMock)(nil)
)

type prRepoMock struct {
	PRs map[string]*PR

	mutex sync.Mutex
}

func newPRRepoMock() *prRepoMock {
	return &prRepoMock{
		PRs: make(map[string]*PR),
	}
}

func (r *prRepoMock) Add(_ context.Context, pr PR) (*PR, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if pr.ID == "" {
		pr.ID = uuid.NewString()
	}
	r.PRs[pr.ID] = &pr

	added := pr
	return &added, nil
}

func (r *prRepoMock) HasBetter(_ context.Context, userID, exerciseID string, estimated1RM float64) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, pr := range r.PRs {
		if pr.UserID == userID && pr.ExerciseID == exerciseID && pr.Estimated1RM >= estimated1RM {
			return true, nil
		}
	}
	return false, nil
}

func (r *prRepoMock) List(_ context.Context, userID, exerciseID string) ([]PR, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	prsList := make([]PR, 0, len(r.PRs))
	for _, pr := range r.PRs {
		if pr.UserID != userID {
			continue
		}
		if exerciseID != "" && pr.ExerciseID != exerciseID {
			continue
		}
		prsList = append(prsList, *pr)
	}

	sort.Slice(prsList, func(i, j int) bool {
		return prsList[i].Date.After(prsList[j].Date)
	})
	return prsList, nil
}

var _ kindSource = (*kindSourceMock)(nil)

type kindSourceMock struct {
	Kinds map[string]string

	mutex sync.Mutex
	calls int
}

func (s *kindSourceMock) KindsFor(_ context.Context, ids []string) (map[string]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.calls++
	found := make(map[string]string, len(ids))
	for _, id := range ids {
		if kind, ok := s.Kinds[id]; ok {
			found[id] = kind
		}
	}
	return found, nil
}

var _ templateSource = (*templateSourceMock)(nil)

type templateSourceMock struct {
	Templates map[string]*templates.Template
}

func (s *templateSourceMock) Get(_ context.Context, userID, id string) (*templates.Template, error) {
	template, ok := s.Templates[id]
	if !ok || template.UserID != userID {
		return nil, templates.ErrTemplateNotFound
	}
	found := *template
	return &found, nil
}
