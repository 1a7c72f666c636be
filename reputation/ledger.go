package reputation

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/commhub/reputation/models"
)

// EventContext carries the provenance of an award into the history row.
type EventContext struct {
	SourceType  string
	SourceID    uint
	Description string
	Metadata    map[string]interface{}
}

// Ledger owns all mutation of UserReputation rows and the append-only
// ReputationEvent history. Every award updates the aggregate and appends one
// event inside the caller's transaction; per-user serialization comes from a
// row lock on the aggregate.
type Ledger struct {
	points PointValues
	now    func() time.Time
}

// NewLedger builds a ledger around an immutable point table.
func NewLedger(points PointValues) *Ledger {
	return &Ledger{points: points, now: time.Now}
}

// Award applies one point-changing action for a user. explicitPoints overrides
// the configured value when the caller needs an arbitrary delta (badge awards,
// admin adjustments). It returns the updated aggregate and the appended event.
// Must run inside a transaction; on error the caller rolls the whole unit back.
func (l *Ledger) Award(tx *gorm.DB, userID uint, action Action, explicitPoints *int, evctx EventContext) (*models.UserReputation, *models.ReputationEvent, error) {
	rep, err := l.lockReputation(tx, userID)
	if err != nil {
		return nil, nil, err
	}
	return l.apply(tx, rep, action, explicitPoints, evctx)
}

// apply credits an already-locked aggregate. Split from Award so callers that
// locked the row themselves (the daily-activity gate) do not fetch it twice.
func (l *Ledger) apply(tx *gorm.DB, rep *models.UserReputation, action Action, explicitPoints *int, evctx EventContext) (*models.UserReputation, *models.ReputationEvent, error) {
	points, category, ok := l.points.valueFor(action)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if explicitPoints != nil {
		points = *explicitPoints
	}

	before := rep.TotalPoints
	rep.TotalPoints += points
	switch category {
	case CategoryPost:
		rep.PostPoints += points
	case CategoryVote:
		rep.VotePoints += points
	case CategorySolution:
		rep.SolutionPoints += points
	case CategoryBadge:
		rep.BadgePoints += points
	}

	switch action {
	case ActionPostCreated:
		rep.PostsCount++
	case ActionThreadCreated:
		rep.ThreadsCount++
	case ActionVoteReceived:
		rep.VotesReceived++
	case ActionSolutionMarked:
		rep.SolutionsProvided++
	}

	tier := RankFor(rep.TotalPoints)
	rep.Rank = tier.Name
	rep.RankLevel = tier.Level

	if err := tx.Save(rep).Error; err != nil {
		return nil, nil, fmt.Errorf("save reputation: %w", err)
	}

	// The event carries the ledger clock, not the database clock, so the
	// windowed badge metrics compare like against like.
	event := &models.ReputationEvent{
		UserID:       rep.UserID,
		Action:       string(action),
		PointsChange: points,
		PointsBefore: before,
		PointsAfter:  rep.TotalPoints,
		SourceType:   evctx.SourceType,
		SourceID:     evctx.SourceID,
		Description:  evctx.Description,
		Metadata:     marshalMetadata(evctx.Metadata),
		CreatedAt:    l.now(),
	}
	if err := tx.Create(event).Error; err != nil {
		return nil, nil, fmt.Errorf("append event: %w", err)
	}
	return rep, event, nil
}

// lockReputation loads the user's aggregate under SELECT ... FOR UPDATE,
// creating it lazily on first use. A create race between two transactions is
// resolved by the unique index on user_id: the loser retries the locked read.
func (l *Ledger) lockReputation(tx *gorm.DB, userID uint) (*models.UserReputation, error) {
	var rep models.UserReputation
	err := forUpdate(tx).Where("user_id = ?", userID).First(&rep).Error
	if err == nil {
		return &rep, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load reputation: %w", err)
	}

	tier := RankFor(0)
	rep = models.UserReputation{UserID: userID, Rank: tier.Name, RankLevel: tier.Level}
	if err := tx.Create(&rep).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			rep = models.UserReputation{}
			if err := forUpdate(tx).Where("user_id = ?", userID).First(&rep).Error; err != nil {
				return nil, fmt.Errorf("reload reputation: %w", err)
			}
			return &rep, nil
		}
		return nil, fmt.Errorf("create reputation: %w", err)
	}
	return &rep, nil
}

// Get returns a user's aggregate without locking, or nil when the user has no
// reputation yet.
func (l *Ledger) Get(db *gorm.DB, userID uint) (*models.UserReputation, error) {
	var rep models.UserReputation
	if err := db.Where("user_id = ?", userID).First(&rep).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rep, nil
}

// History returns a user's most recent events, newest first.
func (l *Ledger) History(db *gorm.DB, userID uint, limit int) ([]models.ReputationEvent, error) {
	var events []models.ReputationEvent
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// PointsSince sums the point deltas a user accrued since the given time.
func (l *Ledger) PointsSince(db *gorm.DB, userID uint, since time.Time) (int, error) {
	var gained int
	err := db.Model(&models.ReputationEvent{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Select("COALESCE(SUM(points_change), 0)").
		Scan(&gained).Error
	return gained, err
}

// Recalculate rebuilds a user's counters and point buckets from the raw forum
// tables instead of trusting incremental history, repairing any drift. It is
// the administrative repair path and the one ledger entry point whose errors
// propagate to the caller. The correction is recorded as a single
// `recalculated` event so the history still replays to the new total.
func (l *Ledger) Recalculate(db *gorm.DB, userID uint) (*models.UserReputation, error) {
	var result *models.UserReputation
	err := db.Transaction(func(tx *gorm.DB) error {
		rep, err := l.lockReputation(tx, userID)
		if err != nil {
			return err
		}

		var threads, posts, upvotes, solutions, dailies int64
		if err := tx.Model(&models.Thread{}).Where("user_id = ?", userID).Count(&threads).Error; err != nil {
			return fmt.Errorf("count threads: %w", err)
		}
		if err := tx.Model(&models.Post{}).Where("user_id = ?", userID).Count(&posts).Error; err != nil {
			return fmt.Errorf("count posts: %w", err)
		}
		if err := tx.Model(&models.PostVote{}).
			Joins("JOIN posts ON posts.id = post_votes.post_id").
			Where("posts.user_id = ? AND post_votes.is_upvote = ?", userID, true).
			Count(&upvotes).Error; err != nil {
			return fmt.Errorf("count upvotes: %w", err)
		}
		if err := tx.Model(&models.Thread{}).
			Joins("JOIN posts ON posts.id = threads.solution_post_id").
			Where("posts.user_id = ?", userID).
			Count(&solutions).Error; err != nil {
			return fmt.Errorf("count solutions: %w", err)
		}
		// Daily sign-ins have no raw forum table; the event log is their
		// system of record.
		if err := tx.Model(&models.ReputationEvent{}).
			Where("user_id = ? AND action = ?", userID, string(ActionDailyActivity)).
			Count(&dailies).Error; err != nil {
			return fmt.Errorf("count daily events: %w", err)
		}

		var badgePoints int
		if err := tx.Model(&models.UserBadgeAward{}).
			Joins("JOIN badge_definitions ON badge_definitions.id = user_badge_awards.badge_id").
			Where("user_badge_awards.user_id = ?", userID).
			Select("COALESCE(SUM(badge_definitions.points_value), 0)").
			Scan(&badgePoints).Error; err != nil {
			return fmt.Errorf("sum badge points: %w", err)
		}

		before := rep.TotalPoints
		rep.ThreadsCount = int(threads)
		rep.PostsCount = int(posts)
		rep.VotesReceived = int(upvotes)
		rep.SolutionsProvided = int(solutions)
		rep.PostPoints = int(posts)*l.points.PostCreated +
			int(threads)*l.points.ThreadCreated +
			int(dailies)*l.points.DailyActivity
		rep.VotePoints = int(upvotes) * l.points.VoteReceived
		rep.SolutionPoints = int(solutions) * l.points.SolutionMarked
		rep.BadgePoints = badgePoints
		rep.TotalPoints = rep.PostPoints + rep.VotePoints + rep.SolutionPoints + rep.BadgePoints

		tier := RankFor(rep.TotalPoints)
		rep.Rank = tier.Name
		rep.RankLevel = tier.Level

		if err := tx.Save(rep).Error; err != nil {
			return fmt.Errorf("save reputation: %w", err)
		}

		event := &models.ReputationEvent{
			UserID:       userID,
			Action:       string(ActionRecalculated),
			PointsChange: rep.TotalPoints - before,
			PointsBefore: before,
			PointsAfter:  rep.TotalPoints,
			SourceType:   "admin",
			Description:  "full recalculation from raw activity",
			CreatedAt:    l.now(),
		}
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("append event: %w", err)
		}
		result = rep
		return nil
	})
	return result, err
}

// forUpdate adds a row lock on MySQL. SQLite (used by the test suite) has a
// single writer and no FOR UPDATE syntax, so the clause is skipped there.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func marshalMetadata(m map[string]interface{}) string {
	if len(m) == 0 {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
