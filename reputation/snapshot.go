package reputation

import (
	"time"

	"gorm.io/gorm"

	"github.com/commhub/reputation/models"
)

// Snapshot is the read-only view of a user's metrics that badge criteria are
// evaluated against. Lifetime counters come from the cached aggregate;
// time-windowed metrics are computed from the event log so they see the rows
// written earlier in the same transaction. Each metric has exactly one source.
type Snapshot struct {
	TotalPoints           int
	PostsCount            int
	ThreadsCount          int
	VotesReceived         int
	SolutionsProvided     int
	ConsecutiveDaysActive int
	BadgesEarned          int
	PostsToday            int
	PointsThisWeek        int
}

// metricFn reads one metric off a snapshot.
type metricFn func(s *Snapshot) int

// metricRegistry maps criteria keys to accessors. Supporting a new metric
// means registering a function here, not editing a dispatcher.
var metricRegistry = map[string]metricFn{
	"total_points":            func(s *Snapshot) int { return s.TotalPoints },
	"posts_count":             func(s *Snapshot) int { return s.PostsCount },
	"threads_count":           func(s *Snapshot) int { return s.ThreadsCount },
	"votes_received":          func(s *Snapshot) int { return s.VotesReceived },
	"solutions_provided":      func(s *Snapshot) int { return s.SolutionsProvided },
	"consecutive_days_active": func(s *Snapshot) int { return s.ConsecutiveDaysActive },
	"badges_earned":           func(s *Snapshot) int { return s.BadgesEarned },
	"posts_today":             func(s *Snapshot) int { return s.PostsToday },
	"points_this_week":        func(s *Snapshot) int { return s.PointsThisWeek },
	// Milestone flag: 1 once the user has posted at all.
	"first_post": func(s *Snapshot) int {
		if s.PostsCount >= 1 {
			return 1
		}
		return 0
	},
}

// RegisterMetric adds a metric accessor. Intended for boot-time wiring;
// registering over an existing name replaces it.
func RegisterMetric(name string, fn metricFn) {
	metricRegistry[name] = fn
}

// buildSnapshot assembles a user's metrics inside the given transaction.
func buildSnapshot(tx *gorm.DB, rep *models.UserReputation, now time.Time) (*Snapshot, error) {
	s := &Snapshot{
		TotalPoints:           rep.TotalPoints,
		PostsCount:            rep.PostsCount,
		ThreadsCount:          rep.ThreadsCount,
		VotesReceived:         rep.VotesReceived,
		SolutionsProvided:     rep.SolutionsProvided,
		ConsecutiveDaysActive: rep.ConsecutiveDaysActive,
	}

	var earned int64
	if err := tx.Model(&models.UserBadgeAward{}).
		Where("user_id = ?", rep.UserID).
		Count(&earned).Error; err != nil {
		return nil, err
	}
	s.BadgesEarned = int(earned)

	var postsToday int64
	if err := tx.Model(&models.ReputationEvent{}).
		Where("user_id = ? AND action = ? AND created_at >= ?",
			rep.UserID, string(ActionPostCreated), startOfDay(now)).
		Count(&postsToday).Error; err != nil {
		return nil, err
	}
	s.PostsToday = int(postsToday)

	var weekPoints int
	if err := tx.Model(&models.ReputationEvent{}).
		Where("user_id = ? AND created_at >= ?", rep.UserID, now.AddDate(0, 0, -7)).
		Select("COALESCE(SUM(points_change), 0)").
		Scan(&weekPoints).Error; err != nil {
		return nil, err
	}
	s.PointsThisWeek = weekPoints

	return s, nil
}
