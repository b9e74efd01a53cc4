package model

// StatsWindowDays is how many days of per-day completion counts are kept.
const StatsWindowDays = 30

// Milestones are the total-completion thresholds that trigger a
// one-time celebration.
var Milestones = []int{10, 50, 100, 500, 1000, 5000, 10000}

// Stats aggregates completion history for one owner.
type Stats struct {
	OwnerID          string       `json:"owner_id"`
	TotalCompleted   int          `json:"total_completed"`
	Streak           int          `json:"streak"`
	BestStreak       int          `json:"best_streak"`
	LastCompleteDate *Date        `json:"last_complete_date"`
	DailyCounts      map[Date]int `json:"daily_counts"`
}

// NewStats returns an empty record for owner.
func NewStats(owner string) Stats {
	return Stats{OwnerID: owner, DailyCounts: map[Date]int{}}
}

// Clone returns a copy with its own DailyCounts map.
func (s Stats) Clone() Stats {
	c := s
	if s.LastCompleteDate != nil {
		d := *s.LastCompleteDate
		c.LastCompleteDate = &d
	}
	c.DailyCounts = make(map[Date]int, len(s.DailyCounts))
	for k, v := range s.DailyCounts {
		c.DailyCounts[k] = v
	}
	return c
}

// IsMilestone reports whether total is one of the Milestones.
func IsMilestone(total int) bool {
	for _, m := range Milestones {
		if m == total {
			return true
		}
	}
	return false
}
