package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/gympal-app/backend/internal/auth"
	"github.com/gympal-app/backend/internal/telemetry/tracing"
)

type userSource interface {
	Get(ctx context.Context, id string) (*auth.User, error)
}

type contextRepo interface {
	Get(ctx context.Context, userID string) (*UserProfile, error)
	GetInsights(ctx context.Context, userID string) (*Insights, error)
}

// ContextService bundles account, profile and insights into the single
// view the coach works from.
type ContextService struct {
	users userSource
	repo  contextRepo
}

func NewContextService(users userSource, repo contextRepo) *ContextService {
	return &ContextService{
		users: users,
		repo:  repo,
	}
}

// Context returns the coaching context for a user. Profile and insights
// are nil when never written; a missing user is an error.
func (s *ContextService) Context(ctx context.Context, userID string) (_ *Context, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "profile.context")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	c := &Context{
		User: ContextUser{
			Email: user.Email,
		},
	}

	userProfile, err := s.repo.Get(ctx, userID)
	switch {
	case err == nil:
		c.Profile = userProfile
	case errors.Is(err, ErrProfileNotFound):
		// leave nil
	default:
		return nil, fmt.Errorf("get profile: %w", err)
	}

	insights, err := s.repo.GetInsights(ctx, userID)
	switch {
	case err == nil:
		c.Insights = insights
	case errors.Is(err, ErrInsightsNotFound):
		// leave nil
	default:
		return nil, fmt.Errorf("get insights: %w", err)
	}

	return c, nil
}
