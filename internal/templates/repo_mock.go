package templates

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var _ templatesRepo = (*repoMock)(nil)

type repoMock struct {
	Templates map[string]*Template

	mutex sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Templates: make(map[string]*Template),
	}
}

func (r *repoMock) Add(_ context.Context, template Template) (*Template, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	if template.Exercises == nil {
		template.Exercises = []TemplateExercise{}
	}
	r.Templates[template.ID] = &template

	added := template
	return &added, nil
}

func (r *repoMock) Get(_ context.Context, userID, id string) (*Template, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	template, ok := r.Templates[id]
	if !ok || template.UserID != userID {
		return nil, ErrTemplateNotFound
	}

	found := *template
	return &found, nil
}

func (r *repoMock) List(_ context.Context, userID string, limit int) ([]Template, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	templatesList := make([]Template, 0, len(r.Templates))
	for _, template := range r.Templates {
		if template.UserID != userID {
			continue
		}
		templatesList = append(templatesList, *template)
	}

	sort.Slice(templatesList, func(i, j int) bool {
		return templatesList[i].CreatedAt.After(templatesList[j].CreatedAt)
	})

	if len(templatesList) > limit {
		templatesList = templatesList[:limit]
	}
	return templatesList, nil
}

func (r *repoMock) Update(_ context.Context, params UpdateParams) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	template, ok := r.Templates[params.ID]
	if !ok || template.UserID != params.UserID {
		return ErrTemplateNotFound
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

func (r *repoMock) Delete(_ context.Context, userID, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	template, ok := r.Templates[id]
	if !ok || template.UserID != userID {
		return ErrTemplateNotFound
	}

	delete(r.Templates, id)
	return nil
}
