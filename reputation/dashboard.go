package reputation

import (
	"time"

	"github.com/commhub/reputation/models"
)

// Dashboard is the reputation overview a user's profile page renders.
type Dashboard struct {
	Reputation   *models.UserReputation   `json:"reputation"`
	RankProgress RankProgress             `json:"rank_progress"`
	Position     int                      `json:"position"`
	RecentEvents []models.ReputationEvent `json:"recent_events"`
	Badges       []models.UserBadgeAward  `json:"badges"`
	PointsWeek   int                      `json:"points_last_7_days"`
	PointsMonth  int                      `json:"points_last_30_days"`
}

// BuildDashboard assembles the full snapshot for one user: aggregate, rank
// progress, competitive position, recent history, earned badges (featured
// first, newest next), and the 7/30-day point gains summed from the event log.
// A user with no reputation row yet gets a zeroed dashboard, not an error.
func (o *Orchestrator) BuildDashboard(userID uint) (*Dashboard, error) {
	db := o.db
	rep, err := o.ledger.Get(db, userID)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		tier := RankFor(0)
		rep = &models.UserReputation{UserID: userID, Rank: tier.Name, RankLevel: tier.Level}
	}

	d := &Dashboard{
		Reputation:   rep,
		RankProgress: NextRankProgress(rep.TotalPoints),
	}

	if d.Position, err = PositionOf(db, userID); err != nil {
		return nil, err
	}
	if d.RecentEvents, err = o.ledger.History(db, userID, 10); err != nil {
		return nil, err
	}

	err = db.Preload("Badge").
		Where("user_id = ?", userID).
		Order("is_featured DESC, earned_at DESC").
		Limit(12).
		Find(&d.Badges).Error
	if err != nil {
		return nil, err
	}

	now := o.now()
	if d.PointsWeek, err = o.ledger.PointsSince(db, userID, now.AddDate(0, 0, -7)); err != nil {
		return nil, err
	}
	if d.PointsMonth, err = o.ledger.PointsSince(db, userID, now.AddDate(0, 0, -30)); err != nil {
		return nil, err
	}
	return d, nil
}

// BadgeProgressFor lists the user's closest unearned badges.
func (o *Orchestrator) BadgeProgressFor(userID uint, limit int) ([]BadgeProgress, error) {
	return o.badges.Progress(o.db, userID, limit, o.now())
}

// BadgeStats summarizes awarding across all definitions.
func (o *Orchestrator) BadgeStats() (*BadgeStatistics, error) {
	return o.badges.Statistics(o.db)
}

// TopUsers returns the cached-friendly leaderboard page.
func (o *Orchestrator) TopUsers(limit int) ([]LeaderboardEntry, error) {
	return Leaderboard(o.db, limit)
}

// SnapshotOf returns a user's aggregate and position for public profile views.
func (o *Orchestrator) SnapshotOf(userID uint) (*models.UserReputation, int, error) {
	rep, err := o.ledger.Get(o.db, userID)
	if err != nil {
		return nil, 0, err
	}
	pos, err := PositionOf(o.db, userID)
	if err != nil {
		return nil, 0, err
	}
	return rep, pos, nil
}

// WithClock overrides the time source; used by tests to pin "today". The
// ledger shares the clock so event timestamps and window queries agree.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	o.ledger.now = now
	return o
}
