package schedule

import (
	"errors"
	"time"
)

var ErrWorkoutNotFound = errors.New("planned workout not found")

const (
	StatusPlanned    = "planned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusSkipped    = "skipped"
)

const (
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusPlanned, StatusInProgress, StatusCompleted, StatusSkipped:
		return true
	}
	return false
}

// PlannedWorkout is one calendar entry. A recurring entry is stored once with
// its recurrence fields and an anchor date; date-range reads expand it into
// per-date instances which carry RecurrenceParentID and are never persisted.
type PlannedWorkout struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Date               string    `json:"date"` // YYYY-MM-DD
	Name               string    `json:"name"`
	TemplateID         *string   `json:"template_id"`
	Type               string    `json:"type,omitempty"`
	Notes              string    `json:"notes,omitempty"`
	Status             string    `json:"status"`
	Order              int       `json:"order"`
	IsRecurring        bool      `json:"is_recurring"`
	RecurrenceType     string    `json:"recurrence_type,omitempty"`
	RecurrenceDays     []int     `json:"recurrence_days,omitempty"` // weekly only, 0=Mon..6=Sun
	RecurrenceEndDate  string    `json:"recurrence_end_date,omitempty"`
	RecurrenceParentID string    `json:"recurrence_parent_id,omitempty"`
	SessionID          string    `json:"session_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// DeletableID is the id deletion accepts for this entry: the stored parent
// for expanded recurring instances, the entry's own id otherwise.
func (pw PlannedWorkout) DeletableID() string {
	if pw.IsRecurring && pw.RecurrenceParentID != "" {
		return pw.RecurrenceParentID
	}
	return pw.ID
}

// CalendarEntry is the client-facing projection of an expanded planned
// workout, with the deletion id precomputed.
type CalendarEntry struct {
	ID                  string  `json:"id"`
	DeletableID         string  `json:"deletable_id"`
	Date                string  `json:"date"`
	Name                string  `json:"name"`
	Status              string  `json:"status"`
	Type                string  `json:"type,omitempty"`
	Notes               string  `json:"notes,omitempty"`
	TemplateID          *string `json:"template_id"`
	IsRecurring         bool    `json:"is_recurring"`
	IsRecurringInstance bool    `json:"is_recurring_instance"`
	SessionID           string  `json:"session_id,omitempty"`
}

func CalendarEntries(instances []PlannedWorkout) []CalendarEntry {
	entries := make([]CalendarEntry, 0, len(instances))
	for _, pw := range instances {
		entries = append(entries, CalendarEntry{
			ID:                  pw.ID,
			DeletableID:         pw.DeletableID(),
			Date:                pw.Date,
			Name:                pw.Name,
			Status:              pw.Status,
			Type:                pw.Type,
			Notes:               pw.Notes,
			TemplateID:          pw.TemplateID,
			IsRecurring:         pw.IsRecurring,
			IsRecurringInstance: pw.IsRecurring,
			SessionID:           pw.SessionID,
		})
	}
	return entries
}

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(date string) (time.Time, error) {
	return time.Parse(dateLayout, date)
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
