package reputation

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/commhub/reputation/models"
)

// Orchestrator is the single entry point forum workflows call. Each trigger
// runs ledger update, streak update (daily trigger), and badge evaluation
// inside its own transaction, independent of the caller's. Every failure is
// caught, logged, and swallowed: gamification is a best-effort side effect and
// must never break the action that triggered it. Recalculate is the one
// propagating path.
type Orchestrator struct {
	db     *gorm.DB
	ledger *Ledger
	badges *BadgeEngine
	log    *zap.SugaredLogger
	now    func() time.Time
}

// NewOrchestrator wires the engine. The logger may not be nil.
func NewOrchestrator(db *gorm.DB, points PointValues, log *zap.SugaredLogger) *Orchestrator {
	ledger := NewLedger(points)
	return &Orchestrator{
		db:     db,
		ledger: ledger,
		badges: NewBadgeEngine(ledger),
		log:    log,
		now:    time.Now,
	}
}

// Ledger exposes the read paths (history, snapshots) to query surfaces.
func (o *Orchestrator) Ledger() *Ledger { return o.ledger }

// Badges exposes the badge read paths (progress, statistics).
func (o *Orchestrator) Badges() *BadgeEngine { return o.badges }

// Result is what a trigger hands back for observability. Failed means the
// whole gamification unit rolled back; the business action proceeds anyway and
// the points catch up on the next trigger or an admin recalculation.
type Result struct {
	Action        Action                   `json:"action"`
	PointsAwarded int                      `json:"points_awarded"`
	TotalPoints   int                      `json:"total_points"`
	Rank          string                   `json:"rank"`
	NewBadges     []models.BadgeDefinition `json:"new_badges,omitempty"`
	Skipped       bool                     `json:"skipped,omitempty"` // e.g. repeated same-day daily activity
	Failed        bool                     `json:"failed,omitempty"`
}

// OnPostCreated credits a reply.
func (o *Orchestrator) OnPostCreated(userID, postID uint) Result {
	return o.trigger(userID, ActionPostCreated, EventContext{SourceType: "post", SourceID: postID, Description: "post created"})
}

// OnThreadCreated credits a new thread.
func (o *Orchestrator) OnThreadCreated(userID, threadID uint) Result {
	return o.trigger(userID, ActionThreadCreated, EventContext{SourceType: "thread", SourceID: threadID, Description: "thread created"})
}

// OnVoteReceived credits the voted user for an upvote. Downvotes never award
// points and are a recorded no-op.
func (o *Orchestrator) OnVoteReceived(votedUserID, voterID uint, isUpvote bool) Result {
	if !isUpvote {
		return Result{Action: ActionVoteReceived, Skipped: true}
	}
	return o.trigger(votedUserID, ActionVoteReceived, EventContext{
		SourceType:  "vote",
		SourceID:    voterID,
		Description: "upvote received",
		Metadata:    map[string]interface{}{"voter_id": voterID},
	})
}

// OnSolutionMarked credits the author whose post was accepted as the solution.
func (o *Orchestrator) OnSolutionMarked(userID, postID uint) Result {
	return o.trigger(userID, ActionSolutionMarked, EventContext{SourceType: "post", SourceID: postID, Description: "solution accepted"})
}

// OnDailyActivity records a daily sign-in: at most one reward per calendar
// day, with the streak counter maintained by the tracker. Same-day repeats are
// an idempotent no-op.
func (o *Orchestrator) OnDailyActivity(userID uint) Result {
	trace := uuid.NewString()
	res := Result{Action: ActionDailyActivity}
	today := o.now()

	err := o.db.Transaction(func(tx *gorm.DB) error {
		rep, err := o.ledger.lockReputation(tx, userID)
		if err != nil {
			return err
		}
		if sameActivityDay(rep, today) {
			res.Skipped = true
			res.TotalPoints = rep.TotalPoints
			res.Rank = rep.Rank
			return nil
		}

		rep, event, err := o.ledger.apply(tx, rep, ActionDailyActivity, nil, EventContext{
			SourceType:  "activity",
			Description: "daily activity reward",
		})
		if err != nil {
			return err
		}
		TouchActivity(rep, today)
		if err := tx.Save(rep).Error; err != nil {
			return err
		}

		res.PointsAwarded = event.PointsChange
		res.TotalPoints = rep.TotalPoints
		res.Rank = rep.Rank

		badges, err := o.badges.CheckAndAward(tx, userID, today)
		if err != nil {
			return err
		}
		res.NewBadges = badges
		if rep, err := o.ledger.Get(tx, userID); err == nil && rep != nil {
			res.TotalPoints = rep.TotalPoints
			res.Rank = rep.Rank
		}
		return nil
	})
	if err != nil {
		o.log.Warnw("gamification trigger failed",
			"trace", trace, "action", ActionDailyActivity, "user_id", userID, "error", err)
		return Result{Action: ActionDailyActivity, Failed: true}
	}
	return res
}

// Recalculate rebuilds a user's aggregate from raw activity. Unlike the
// triggers, errors propagate: this is an explicit administrative action with
// no primary action to protect.
func (o *Orchestrator) Recalculate(userID uint) (*models.UserReputation, error) {
	return o.ledger.Recalculate(o.db, userID)
}

// SeedDefaultBadges installs the stock badge set; idempotent.
func (o *Orchestrator) SeedDefaultBadges() error {
	return o.badges.SeedDefaults(o.db)
}

// trigger runs the award → badge-check sequence for the non-daily actions.
func (o *Orchestrator) trigger(userID uint, action Action, evctx EventContext) Result {
	trace := uuid.NewString()
	res := Result{Action: action}
	now := o.now()

	err := o.db.Transaction(func(tx *gorm.DB) error {
		rep, event, err := o.ledger.Award(tx, userID, action, nil, evctx)
		if err != nil {
			return err
		}
		res.PointsAwarded = event.PointsChange
		res.TotalPoints = rep.TotalPoints
		res.Rank = rep.Rank

		badges, err := o.badges.CheckAndAward(tx, userID, now)
		if err != nil {
			return err
		}
		res.NewBadges = badges
		if len(badges) > 0 {
			// Badge points moved the total; report the post-award state.
			if rep, err := o.ledger.Get(tx, userID); err == nil && rep != nil {
				res.TotalPoints = rep.TotalPoints
				res.Rank = rep.Rank
			}
		}
		return nil
	})
	if err != nil {
		o.log.Warnw("gamification trigger failed",
			"trace", trace, "action", action, "user_id", userID, "error", err)
		return Result{Action: action, Failed: true}
	}
	return res
}
