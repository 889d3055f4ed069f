package search

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Window normalizes the query's date bounds: missing bounds are derived
// from DaysBack (default 7), the end date is clamped to today, and
// swapped bounds are corrected.
func (q Query) Window(now time.Time) (start, end string, err error) {
	today := now.Truncate(24 * time.Hour)

	if q.StartDate == "" || q.EndDate == "" {
		days := q.DaysBack
		if days <= 0 {
			days = 7
		}
		end = today.Format(dateLayout)
		start = today.AddDate(0, 0, -days).Format(dateLayout)
		return start, end, nil
	}

	startT, err := time.Parse(dateLayout, q.StartDate)
	if err != nil {
		return "", "", fmt.Errorf("invalid start date %q: %w", q.StartDate, err)
	}
	endT, err := time.Parse(dateLayout, q.EndDate)
	if err != nil {
		return "", "", fmt.Errorf("invalid end date %q: %w", q.EndDate, err)
	}
	if endT.After(today) {
		endT = today
	}
	if startT.After(endT) {
		startT, endT = endT, startT
	}
	return startT.Format(dateLayout), endT.Format(dateLayout), nil
}

// DateRange renders the normalized window as "start to end" for summaries.
func (q Query) DateRange(now time.Time) string {
	start, end, err := q.Window(now)
	if err != nil {
		return fmt.Sprintf("%s to %s", q.StartDate, q.EndDate)
	}
	return fmt.Sprintf("%s to %s", start, end)
}
