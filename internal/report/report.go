package report

import (
	"time"

	"gradient/internal/model"
)

const (
	activeWindow = 30 * 24 * time.Hour
	monthBuckets = 12
	weekBuckets  = 4
)

// BucketCount is one time bucket of the dashboard history, oldest first.
type BucketCount struct {
	Label     string `json:"label"`
	Total     int    `json:"total"`
	Qualified int    `json:"qualified"`
}

// Dashboard is the aggregated view of the message store. All fields default
// to zero on empty input.
type Dashboard struct {
	ActiveCount    int           `json:"active_count"`
	CompletedCount int           `json:"completed_count"`
	QualifiedCount int           `json:"qualified_count"`
	QualifiedRate  float64       `json:"qualified_rate"`
	WaitingCount   int           `json:"waiting_count"`
	Monthly        []BucketCount `json:"monthly"`
	Weekly         []BucketCount `json:"weekly"`
}

// Build computes the dashboard from the full message set at time now. Pure
// and read-only; callers pass time.Now() outside tests.
func Build(msgs []model.Message, now time.Time) Dashboard {
	d := Dashboard{
		Monthly: make([]BucketCount, monthBuckets),
		Weekly:  make([]BucketCount, weekBuckets),
	}

	for i := range d.Monthly {
		monthStart := startOfMonth(now).AddDate(0, i-(monthBuckets-1), 0)
		d.Monthly[i].Label = monthStart.Format("2006-01")
	}
	for i := range d.Weekly {
		weekStart := startOfDay(now).AddDate(0, 0, -7*(weekBuckets-1-i))
		d.Weekly[i].Label = weekStart.Format("2006-01-02")
	}

	qualified := 0
	for i := range msgs {
		m := &msgs[i]
		d.CompletedCount++

		isQualified := m.Qualified()
		if isQualified {
			qualified++
		}

		if now.Sub(m.IngestedAt) <= activeWindow {
			d.ActiveCount++
		}
		if m.StatusLabel == model.StatusWaiting && !isQualified {
			d.WaitingCount++
		}

		if idx, ok := monthIndex(m.IngestedAt, now); ok {
			d.Monthly[idx].Total++
			if isQualified {
				d.Monthly[idx].Qualified++
			}
		}
		if idx, ok := weekIndex(m.IngestedAt, now); ok {
			d.Weekly[idx].Total++
			if isQualified {
				d.Weekly[idx].Qualified++
			}
		}
	}

	d.QualifiedCount = qualified
	if d.CompletedCount > 0 {
		d.QualifiedRate = float64(qualified) / float64(d.CompletedCount)
	}
	return d
}

// monthIndex places t into one of the trailing calendar-month buckets,
// index monthBuckets-1 being the current month.
func monthIndex(t, now time.Time) (int, bool) {
	months := (now.Year()-t.Year())*12 + int(now.Month()) - int(t.Month())
	if months < 0 || months >= monthBuckets {
		return 0, false
	}
	return monthBuckets - 1 - months, true
}

// weekIndex places t into one of the trailing 7-day buckets, index
// weekBuckets-1 covering the most recent 7 days.
func weekIndex(t, now time.Time) (int, bool) {
	if t.After(now) {
		return 0, false
	}
	days := int(startOfDay(now).Sub(startOfDay(t)).Hours() / 24)
	weeks := days / 7
	if weeks < 0 || weeks >= weekBuckets {
		return 0, false
	}
	return weekBuckets - 1 - weeks, true
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
