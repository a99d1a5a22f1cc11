package exercises

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type repoMock struct {
	Exercises map[string]*Exercise
	// number of times KindsFor hit the mock, to observe cache fallthrough
	KindsForCalls int

	mutex sync.Mutex
}

var (
	_ exercisesRepo = (*repoMock)(nil)
	_ kindsRepo     = (*repoMock)(nil)
)

func newRepoMock() *repoMock {
	return &repoMock{
		Exercises: make(map[string]*Exercise),
	}
}

func (m *repoMock) Add(_ context.Context, exercise Exercise) (*Exercise, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if exercise.ID == "" {
		exercise.ID = uuid.NewString()
	}
	stored := exercise
	m.Exercises[stored.ID] = &stored
	return &stored, nil
}

func (m *repoMock) AddAll(ctx context.Context, toAdd []Exercise) (int, error) {
	for _, exercise := range toAdd {
		if _, err := m.Add(ctx, exercise); err != nil {
			return 0, err
		}
	}
	return len(toAdd), nil
}

func (m *repoMock) Get(_ context.Context, id string) (*Exercise, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	exercise, ok := m.Exercises[id]
	if !ok {
		return nil, ErrExerciseNotFound
	}
	return exercise, nil
}

func (m *repoMock) GetByName(_ context.Context, userID, name string) (*Exercise, error) {
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
	return nil, ErrExerciseNotFound
}

func (m *repoMock) List(_ context.Context, params ListParams) ([]Exercise, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	matchesQuery := func(exercise *Exercise) bool {
		if params.Query == "" {
			return true
		}
		query := strings.ToLower(params.Query)
		if strings.Contains(strings.ToLower(exercise.Name), query) {
			return true
		}
		allParts := append([]string{}, exercise.PrimaryBodyParts...)
		allParts = append(allParts, exercise.SecondaryBodyParts...)
		for _, part := range allParts {
			if strings.Contains(strings.ToLower(part), query) {
				return true
			}
		}
		return false
	}

	matchesBodyPart := func(exercise *Exercise) bool {
		if params.BodyPart == "" {
			return true
		}
		for _, part := range exercise.PrimaryBodyParts {
			if strings.EqualFold(part, params.BodyPart) {
				return true
			}
		}
		return false
	}

	result := []Exercise{}
	for _, exercise := range m.Exercises {
		if exercise.UserID != nil && *exercise.UserID != params.UserID {
			continue
		}
		if !matchesQuery(exercise) || !matchesBodyPart(exercise) {
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

func (m *repoMock) KindsFor(_ context.Context, ids []string) (map[string]string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.KindsForCalls++

	kindsMap := make(map[string]string, len(ids))
	for _, id := range ids {
		if exercise, ok := m.Exercises[id]; ok {
			kindsMap[id] = exercise.Kind
		}
	}
	return kindsMap, nil
}

func (m *repoMock) CountGlobal(_ context.Context) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	count := 0
	for _, exercise := range m.Exercises {
		if !exercise.IsCustom {
			count++
		}
	}
	return count, nil
}
