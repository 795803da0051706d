package ledger

import (
	"math"
	"time"
)

// defaultAverageScore is reported while the active ledger holds no events
const defaultAverageScore = 85.5

// Stats summarizes the ledger for the admin dashboard
type Stats struct {
	TodayCount           int     `json:"total_attendance_today"`
	InvalidLocationToday int     `json:"invalid_location_today"`
	CurrentMonthCount    int     `json:"total_attendance_current_month"`
	TotalTransactions    int     `json:"totalTransactions"`
	AverageScore         float64 `json:"averageScore"` // percent, one decimal
	ActiveMonths         int     `json:"activeMonths"`
	HistoricalMonths     int     `json:"historical_months"`
}

// Stats computes dashboard statistics as of now
func (l *Ledger) Stats(now time.Time) Stats {
	today := now.In(l.loc).Format(time.DateOnly)

	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Stats{
		CurrentMonthCount: len(l.active),
		TotalTransactions: len(l.active) - l.archivedActive() + l.archive.Total(),
		HistoricalMonths:  len(l.archive),
		ActiveMonths:      len(l.archive),
		AverageScore:      defaultAverageScore,
	}
	if len(l.active) > 0 {
		s.ActiveMonths++
	}

	var sum float64
	for _, e := range l.active {
		sum += e.Similarity
		if e.Timestamp.In(l.loc).Format(time.DateOnly) != today {
			continue
		}
		s.TodayCount++
		if !e.LocationVerified {
			s.InvalidLocationToday++
		}
	}
	if len(l.active) > 0 {
		s.AverageScore = math.Round(sum/float64(len(l.active))*1000) / 10
	}

	return s
}
