package schedule

import (
	"context"
	"fmt"

	"github.com/gympal-app/backend/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

type entrySource interface {
	ListAll(ctx context.Context, userID string) ([]PlannedWorkout, error)
}

// SessionKey identifies a finished workout session by the template it ran
// and the calendar date it was started on.
type SessionKey struct {
	TemplateID string
	Date       string
}

// SessionSource reports finished sessions in a date range, so calendar
// entries can be marked completed.
type SessionSource interface {
	CompletedSessions(ctx context.Context, userID string, fromDate, toDate string) (map[SessionKey]string, error)
}

// Calendar assembles the concrete schedule for a date range: stored entries
// are expanded into per-date instances and matched against finished sessions.
type Calendar struct {
	entries  entrySource
	sessions SessionSource
}

func NewCalendar(entries entrySource, sessions SessionSource) *Calendar {
	return &Calendar{
		entries:  entries,
		sessions: sessions,
	}
}

func (c *Calendar) Range(ctx context.Context, userID, fromDate, toDate string) (_ []PlannedWorkout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "schedule.calendar.range")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("from", fromDate))
	span.SetAttributes(attribute.String("to", toDate))

	stored, err := c.entries.ListAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list planned workouts: %w", err)
	}

	instances, err := ExpandRecurring(stored, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	completed, err := c.sessions.CompletedSessions(ctx, userID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("completed sessions: %w", err)
	}

	for i := range instances {
		if instances[i].TemplateID == nil {
			continue
		}
		key := SessionKey{TemplateID: *instances[i].TemplateID, Date: instances[i].Date}
		if sessionID, ok := completed[key]; ok {
			instances[i].Status = StatusCompleted
			instances[i].SessionID = sessionID
		}
	}

	return instances, nil
}
