package schedule

import (
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

// maxExpandDays bounds the expansion window so a bad date range cannot
// generate an unbounded instance list.
const maxExpandDays = 731

// ExpandRecurring turns stored entries into the concrete calendar for the
// inclusive [from, to] date range. Non-recurring entries pass through when
// their date falls in range. Recurring entries generate one instance per
// matching date, each with a synthetic "<parent id>_<date>" id and the parent
// id in RecurrenceParentID; the stored parent itself never appears. The
// result is sorted by date, then order, then name.
func ExpandRecurring(entries []PlannedWorkout, fromDate, toDate string) ([]PlannedWorkout, error) {
	from, err := ParseDate(fromDate)
	if err != nil {
		return nil, fmt.Errorf("parse from date: %w", err)
	}
	to, err := ParseDate(toDate)
	if err != nil {
		return nil, fmt.Errorf("parse to date: %w", err)
	}

	if capped := from.AddDate(0, 0, maxExpandDays); to.After(capped) {
		log.Warnf("schedule expansion range %s..%s too wide, capping at %d days", fromDate, toDate, maxExpandDays)
		to = capped
	}

	instances := make([]PlannedWorkout, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsRecurring {
			if entry.Date >= fromDate && entry.Date <= FormatDate(to) {
				instances = append(instances, entry)
			}
			continue
		}

		anchor, err := ParseDate(entry.Date)
		if err != nil {
			log.Warnf("recurring workout %s has unparseable date %q, skipping", entry.ID, entry.Date)
			continue
		}

		until := to
		if entry.RecurrenceEndDate != "" {
			if end, err := ParseDate(entry.RecurrenceEndDate); err == nil && end.Before(until) {
				until = end
			}
		}

		start := from
		if anchor.After(start) {
			start = anchor
		}

		for d := start; !d.After(until); d = d.AddDate(0, 0, 1) {
			if !recursOn(entry, anchor, d) {
				continue
			}
			instance := entry
			instance.Date = FormatDate(d)
			instance.ID = fmt.Sprintf("%s_%s", entry.ID, instance.Date)
			instance.RecurrenceParentID = entry.ID
			instances = append(instances, instance)
		}
	}

	sort.Slice(instances, func(i, j int) bool {
		if instances[i].Date != instances[j].Date {
			return instances[i].Date < instances[j].Date
		}
		if instances[i].Order != instances[j].Order {
			return instances[i].Order < instances[j].Order
		}
		return instances[i].Name < instances[j].Name
	})

	return instances, nil
}

func recursOn(entry PlannedWorkout, anchor, day time.Time) bool {
	switch entry.RecurrenceType {
	case RecurrenceDaily:
		return true
	case RecurrenceWeekly:
		if len(entry.RecurrenceDays) == 0 {
			return mondayIndexed(day) == mondayIndexed(anchor)
		}
		dayIdx := mondayIndexed(day)
		for _, rd := range entry.RecurrenceDays {
			if rd == dayIdx {
				return true
			}
		}
		return false
	case RecurrenceMonthly:
		return day.Day() == anchor.Day()
	default:
		// recurrence type missing or unknown, only the anchor date itself counts
		return day.Equal(anchor)
	}
}

// mondayIndexed maps a weekday to the 0=Mon..6=Sun convention used by
// recurrence_days.
func mondayIndexed(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
