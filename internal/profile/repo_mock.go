package profile

import (
	"context"
	"sync"

	"github.com/gympal-app/backend/internal/auth"

	"github.com/google/uuid"
)

var (
	_ profileRepo = (*repoMock)(nil)
	_ contextRepo = (*repoMock)(nil)
)

type repoMock struct {
	Profiles map[string]*UserProfile
	Insights map[string]*Insights

	mutex sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Profiles: make(map[string]*UserProfile),
		Insights: make(map[string]*Insights),
	}
}

func (m *repoMock) Get(_ context.Context, userID string) (*UserProfile, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	p, ok := m.Profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (m *repoMock) Upsert(_ context.Context, params UpdateParams) (*UserProfile, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	p, ok := m.Profiles[params.UserID]
	if !ok {
		p = &UserProfile{
			ID:     uuid.NewString(),
			UserID: params.UserID,
		}
		m.Profiles[params.UserID] = p
	}

	if params.Sex != nil {
		p.Sex = *params.Sex
	}
	if params.DateOfBirth != nil {
		p.DateOfBirth = params.DateOfBirth
	}
	if params.HeightCm != nil {
		p.HeightCm = params.HeightCm
	}
	if params.WeightKg != nil {
		p.WeightKg = params.WeightKg
	}
	if params.TrainingAge != nil {
		p.TrainingAge = *params.TrainingAge
	}
	if params.Goals != nil {
		p.Goals = *params.Goals
	}
	if params.InjuryHistory != nil {
		p.InjuryHistory = *params.InjuryHistory
	}
	if params.Strengths != nil {
		p.Strengths = *params.Strengths
	}
	if params.Weaknesses != nil {
		p.Weaknesses = *params.Weaknesses
	}
	if params.BackgroundStory != nil {
		p.BackgroundStory = *params.BackgroundStory
	}
	p.UpdatedAt = params.UpdatedAt

	return p, nil
}

func (m *repoMock) GetInsights(_ context.Context, userID string) (*Insights, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	insights, ok := m.Insights[userID]
	if !ok {
		return nil, ErrInsightsNotFound
	}
	return insights, nil
}

func (m *repoMock) SaveInsights(_ context.Context, insights Insights) (*Insights, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if insights.ID == "" {
		insights.ID = uuid.NewString()
	}
	saved := insights
	m.Insights[insights.UserID] = &saved
	return &saved, nil
}

var _ userSource = (*userSourceMock)(nil)

type userSourceMock struct {
	Users map[string]*auth.User

	mutex sync.Mutex
}

func newUserSourceMock() *userSourceMock {
	return &userSourceMock{
		Users: make(map[string]*auth.User),
	}
}

func (m *userSourceMock) Get(_ context.Context, id string) (*auth.User, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	user, ok := m.Users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return user, nil
}
