package coach

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/gympal-app/backend/internal/exercises"
	"github.com/gympal-app/backend/internal/profile"
	"github.com/gympal-app/backend/internal/schedule"
	"github.com/gympal-app/backend/internal/telemetry/metrics"
	"github.com/gympal-app/backend/internal/templates"
	"github.com/gympal-app/backend/internal/workouts"

	"github.com/google/uuid"
)

type exerciseStoreMock struct {
	Exercises map[string]*exercises.Exercise
	// last List parameters, to observe query trimming and limit clamping
	LastParams exercises.ListParams

	mutex sync.Mutex
}

var _ exerciseStore = (*exerciseStoreMock)(nil)

func newExerciseStoreMock() *exerciseStoreMock {
	return &exerciseStoreMock{
		Exercises: make(map[string]*exercises.Exercise),
	}
}

func (m *exerciseStoreMock) List(_ context.Context, params exercises.ListParams) ([]exercises.Exercise, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.LastParams = params

	result := []exercises.Exercise{}
	for _, exercise := range m.Exercises {
		if exercise.UserID != nil && *exercise.UserID != params.UserID {
			continue
		}
		if params.Query != "" &&
			!strings.Contains(strings.ToLower(exercise.Name), strings.ToLower(params.Query)) {
			continue
		}
		result = append(result, *exercise)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	if params.Limit > 0 && len(result) > params.Limit {
		result = result[:params.Limit]
	}
	return result, nil
}

func (m *exerciseStoreMock) GetByName(_ context.Context, userID, name string) (*exercises.Exercise, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, exercise := range m.Exercises {
		if !strings.EqualFold(exercise.Name, name) {
			continue
		}
		if exercise.UserID == nil || *exercise.UserID == userID {
			return exercise, nil
		}
	}
	return nil, exercises.ErrExerciseNotFound
}

func (m *exerciseStoreMock) Add(_ context.Context, exercise exercises.Exercise) (*exercises.Exercise, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if exercise.ID == "" {
		exercise.ID = uuid.NewString()
	}
	stored := exercise
	m.Exercises[stored.ID] = &stored
	return &stored, nil
}

type templateStoreMock struct {
	Templates map[string]*templates.Template

	mutex sync.Mutex
}

var _ templateStore = (*templateStoreMock)(nil)

func newTemplateStoreMock() *templateStoreMock {
	return &templateStoreMock{
		Templates: make(map[string]*templates.Template),
	}
}

func (m *templateStoreMock) Add(_ context.Context, template templates.Template) (*templates.Template, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	stored := template
	m.Templates[stored.ID] = &stored
	return &stored, nil
}

func (m *templateStoreMock) List(_ context.Context, userID string, limit int) ([]templates.Template, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	result := []templates.Template{}
	for _, template := range m.Templates {
		if template.UserID != userID {
			continue
		}
		result = append(result, *template)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *templateStoreMock) Update(_ context.Context, params templates.UpdateParams) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	template, ok := m.Templates[params.ID]
	if !ok || template.UserID != params.UserID {
		return templates.ErrTemplateNotFound
	}
	if params.Name != nil {
		template.Name = *params.Name
	}
	if params.Notes != nil {
		template.Notes = *params.Notes
	}
	if params.Exercises != nil {
		template.Exercises = *params.Exercises
	}
	template.UpdatedAt = params.UpdatedAt
	return nil
}

type scheduleStoreMock struct {
	Workouts map[string]*schedule.PlannedWorkout

	mutex sync.Mutex
}

var _ scheduleStore = (*scheduleStoreMock)(nil)

func newScheduleStoreMock() *scheduleStoreMock {
	return &scheduleStoreMock{
		Workouts: make(map[string]*schedule.PlannedWorkout),
	}
}

func (m *scheduleStoreMock) Add(_ context.Context, workout schedule.PlannedWorkout) (*schedule.PlannedWorkout, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if workout.ID == "" {
		workout.ID = uuid.NewString()
	}
	stored := workout
	m.Workouts[stored.ID] = &stored
	return &stored, nil
}

func (m *scheduleStoreMock) Get(_ context.Context, userID, id string) (*schedule.PlannedWorkout, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	workout, ok := m.Workouts[id]
	if !ok || workout.UserID != userID {
		return nil, schedule.ErrWorkoutNotFound
	}
	return workout, nil
}

func (m *scheduleStoreMock) FindByDateName(_ context.Context, userID, date, name string) (*schedule.PlannedWorkout, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, workout := range m.Workouts {
		if workout.UserID == userID && workout.Date == date && workout.Name == name {
			return workout, nil
		}
	}
	return nil, schedule.ErrWorkoutNotFound
}

func (m *scheduleStoreMock) Update(_ context.Context, params schedule.UpdateParams) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	workout, ok := m.Workouts[params.ID]
	if !ok || workout.UserID != params.UserID {
		return schedule.ErrWorkoutNotFound
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

func (m *scheduleStoreMock) Delete(_ context.Context, userID, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	workout, ok := m.Workouts[id]
	if !ok || workout.UserID != userID {
		return schedule.ErrWorkoutNotFound
	}
	delete(m.Workouts, id)
	return nil
}

type calendarSourceMock struct {
	Entries []schedule.PlannedWorkout
	Err     error

	FromDate string
	ToDate   string
}

var _ calendarSource = (*calendarSourceMock)(nil)

func (m *calendarSourceMock) Range(_ context.Context, _ string, fromDate, toDate string) ([]schedule.PlannedWorkout, error) {
	m.FromDate = fromDate
	m.ToDate = toDate
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Entries, nil
}

type historySourceMock struct {
	Summaries []workouts.WorkoutSummary
	Exercise  *workouts.ExerciseHistory
	Err       error

	DaysBack      int
	Limit         int
	ExerciseID    string
	LimitWorkouts int
}

var _ historySource = (*historySourceMock)(nil)

func (m *historySourceMock) History(_ context.Context, _ string, daysBack, limit int) ([]workouts.WorkoutSummary, error) {
	m.DaysBack = daysBack
	m.Limit = limit
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Summaries, nil
}

func (m *historySourceMock) ExerciseHistory(
	_ context.Context, _, exerciseID string, daysBack, limitWorkouts int,
) (*workouts.ExerciseHistory, error) {
	m.ExerciseID = exerciseID
	m.DaysBack = daysBack
	m.LimitWorkouts = limitWorkouts
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Exercise, nil
}

type contextSourceMock struct {
	UserContext *profile.Context
	Err         error
}

var _ contextSource = (*contextSourceMock)(nil)

func (m *contextSourceMock) Context(_ context.Context, _ string) (*profile.Context, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.UserContext, nil
}

type insightsStoreMock struct {
	Insights map[string]*profile.Insights

	mutex sync.Mutex
}

var _ insightsStore = (*insightsStoreMock)(nil)

func newInsightsStoreMock() *insightsStoreMock {
	return &insightsStoreMock{
		Insights: make(map[string]*profile.Insights),
	}
}

func (m *insightsStoreMock) GetInsights(_ context.Context, userID string) (*profile.Insights, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	insights, ok := m.Insights[userID]
	if !ok {
		return nil, profile.ErrInsightsNotFound
	}
	return insights, nil
}

func (m *insightsStoreMock) PatchInsights(_ context.Context, patch profile.InsightsPatch) (*profile.Insights, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	insights, ok := m.Insights[patch.UserID]
	if !ok {
		insights = &profile.Insights{
			ID:             uuid.NewString(),
			UserID:         patch.UserID,
			InjuryTags:     []string{},
			CurrentIssues:  []string{},
			StrengthTags:   []string{},
			WeakPointTags:  []string{},
			TrainingPhases: []profile.TrainingPhase{},
		}
		m.Insights[patch.UserID] = insights
	}
	if patch.InjuryTags != nil {
		insights.InjuryTags = *patch.InjuryTags
	}
	if patch.CurrentIssues != nil {
		insights.CurrentIssues = *patch.CurrentIssues
	}
	if patch.StrengthTags != nil {
		insights.StrengthTags = *patch.StrengthTags
	}
	if patch.WeakPointTags != nil {
		insights.WeakPointTags = *patch.WeakPointTags
	}
	if patch.PsychProfile != nil {
		insights.PsychProfile = *patch.PsychProfile
	}
	insights.UpdatedAt = patch.UpdatedAt
	return insights, nil
}

// expanderMock keeps the exercise id and notes of each spec, skipping blanks
// the way the real expander does, without needing a kind source.
type expanderMock struct {
	Err error
}

var _ specExpander = (*expanderMock)(nil)

func (m *expanderMock) Expand(
	_ context.Context, specs []templates.CompactExerciseSpec,
) ([]templates.TemplateExercise, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	expanded := make([]templates.TemplateExercise, 0, len(specs))
	for i, spec := range specs {
		if spec.ExerciseID == "" {
			continue
		}
		expanded = append(expanded, templates.TemplateExercise{
			ExerciseID: spec.ExerciseID,
			Order:      i,
			Notes:      spec.Notes,
		})
	}
	return expanded, nil
}

type executorMocks struct {
	exercises *exerciseStoreMock
	templates *templateStoreMock
	schedule  *scheduleStoreMock
	calendar  *calendarSourceMock
	history   *historySourceMock
	contexts  *contextSourceMock
	insights  *insightsStoreMock
	expander  *expanderMock
	metrics   *metrics.Manager
}

func newTestExecutor() (*Executor, *executorMocks) {
	mocks := &executorMocks{
		exercises: newExerciseStoreMock(),
		templates: newTemplateStoreMock(),
		schedule:  newScheduleStoreMock(),
		calendar:  &calendarSourceMock{},
		history:   &historySourceMock{},
		contexts:  &contextSourceMock{},
		insights:  newInsightsStoreMock(),
		expander:  &expanderMock{},
		metrics:   metrics.NewTestManager(),
	}
	executor := NewExecutor(NewExecutorParams{
		Exercises:      mocks.exercises,
		Templates:      mocks.templates,
		Schedule:       mocks.schedule,
		Calendar:       mocks.calendar,
		History:        mocks.history,
		ProfileContext: mocks.contexts,
		Insights:       mocks.insights,
		Expander:       mocks.expander,
		Metrics:        mocks.metrics,
	})
	return executor, mocks
}
