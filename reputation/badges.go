package reputation

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/commhub/reputation/models"
)

// BadgeEngine evaluates badge criteria against metric snapshots and awards
// badges exactly once. It owns UserBadgeAward creation; definitions are
// read-only to it apart from the awarded counter.
type BadgeEngine struct {
	ledger *Ledger
}

// NewBadgeEngine builds an engine that credits badge points through the ledger.
func NewBadgeEngine(ledger *Ledger) *BadgeEngine {
	return &BadgeEngine{ledger: ledger}
}

// CheckAndAward evaluates every active badge the user has not yet earned and
// awards the eligible ones. All (metric, threshold) pairs of a badge must be
// satisfied (AND semantics). The unique (user_id, badge_id) index makes a
// racing duplicate insert a no-op rather than a second award. Runs inside the
// caller's transaction; returns the badges newly awarded in this pass.
func (e *BadgeEngine) CheckAndAward(tx *gorm.DB, userID uint, now time.Time) ([]models.BadgeDefinition, error) {
	rep, err := e.ledger.Get(tx, userID)
	if err != nil {
		return nil, fmt.Errorf("load reputation: %w", err)
	}
	if rep == nil {
		return nil, nil
	}

	candidates, err := e.unearnedActive(tx, userID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	snapshot, err := buildSnapshot(tx, rep, now)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}

	var awarded []models.BadgeDefinition
	for _, badge := range candidates {
		criteria, err := parseCriteria(badge.Criteria)
		if err != nil {
			// One malformed definition must not stall gamification for the
			// rest; it is an admin data problem, repaired out of band.
			continue
		}
		if !eligible(snapshot, criteria) {
			continue
		}
		if err := e.award(tx, userID, badge, snapshot, now); err != nil {
			if errors.Is(err, ErrAlreadyAwarded) {
				continue
			}
			return awarded, err
		}
		awarded = append(awarded, badge)
	}
	return awarded, nil
}

// award inserts the join row, bumps the definition's counter, and credits the
// badge's point value through the ledger.
func (e *BadgeEngine) award(tx *gorm.DB, userID uint, badge models.BadgeDefinition, snapshot *Snapshot, now time.Time) error {
	ctxJSON, _ := json.Marshal(map[string]interface{}{
		"total_points": snapshot.TotalPoints,
		"posts_count":  snapshot.PostsCount,
		"criteria":     badge.Criteria,
	})
	row := models.UserBadgeAward{
		UserID:         userID,
		BadgeID:        badge.ID,
		EarnedAt:       now,
		EarningContext: string(ctxJSON),
	}
	if err := tx.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyAwarded
		}
		return fmt.Errorf("insert award: %w", err)
	}

	if err := tx.Model(&models.BadgeDefinition{}).
		Where("id = ?", badge.ID).
		UpdateColumn("awarded_count", gorm.Expr("awarded_count + 1")).Error; err != nil {
		return fmt.Errorf("bump awarded count: %w", err)
	}

	if badge.PointsValue != 0 {
		points := badge.PointsValue
		_, _, err := e.ledger.Award(tx, userID, ActionBadgeEarned, &points, EventContext{
			SourceType:  "badge",
			SourceID:    badge.ID,
			Description: "earned badge: " + badge.Name,
		})
		if err != nil {
			return fmt.Errorf("credit badge points: %w", err)
		}
	}
	return nil
}

// unearnedActive lists active badges the user does not hold yet.
func (e *BadgeEngine) unearnedActive(tx *gorm.DB, userID uint) ([]models.BadgeDefinition, error) {
	var badges []models.BadgeDefinition
	err := tx.Where("is_active = ?", true).
		Where("id NOT IN (?)", tx.Model(&models.UserBadgeAward{}).
			Select("badge_id").
			Where("user_id = ?", userID)).
		Order("id").
		Find(&badges).Error
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return badges, nil
}

// CriterionProgress is one criterion's completion state.
type CriterionProgress struct {
	Metric    string  `json:"metric"`
	Current   int     `json:"current"`
	Threshold int     `json:"threshold"`
	Percent   float64 `json:"percent"`
}

// BadgeProgress reports how close a user is to an unearned badge. Percent is
// the minimum across criteria: the bottleneck decides, not the average.
type BadgeProgress struct {
	Badge    models.BadgeDefinition `json:"badge"`
	Percent  float64                `json:"percent"`
	Criteria []CriterionProgress    `json:"criteria"`
}

// Progress returns the user's unearned active badges with non-zero progress,
// sorted by bottleneck percentage descending and truncated to limit. It is a
// read path for "almost there" UI and takes no part in the awarding contract.
func (e *BadgeEngine) Progress(db *gorm.DB, userID uint, limit int, now time.Time) ([]BadgeProgress, error) {
	rep, err := e.ledger.Get(db, userID)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, nil
	}
	snapshot, err := buildSnapshot(db, rep, now)
	if err != nil {
		return nil, err
	}
	candidates, err := e.unearnedActive(db, userID)
	if err != nil {
		return nil, err
	}

	var out []BadgeProgress
	for _, badge := range candidates {
		criteria, err := parseCriteria(badge.Criteria)
		if err != nil {
			continue
		}
		bp := BadgeProgress{Badge: badge, Percent: 100}
		for _, c := range sortedCriteria(criteria) {
			fn, ok := metricRegistry[c.metric]
			if !ok {
				bp.Percent = 0
				break
			}
			current := fn(snapshot)
			pct := criterionPercent(current, c.threshold)
			if pct < bp.Percent {
				bp.Percent = pct
			}
			bp.Criteria = append(bp.Criteria, CriterionProgress{
				Metric:    c.metric,
				Current:   current,
				Threshold: c.threshold,
				Percent:   pct,
			})
		}
		if bp.Percent <= 0 || len(bp.Criteria) == 0 {
			continue
		}
		out = append(out, bp)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Percent > out[j].Percent })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// BadgeStatistics summarizes awarding across all definitions.
type BadgeStatistics struct {
	TotalBadges  int64                    `json:"total_badges"`
	ActiveBadges int64                    `json:"active_badges"`
	TotalAwards  int64                    `json:"total_awards"`
	Badges       []models.BadgeDefinition `json:"badges"`
}

// Statistics returns per-badge awarded counts plus overall totals.
func (e *BadgeEngine) Statistics(db *gorm.DB) (*BadgeStatistics, error) {
	stats := &BadgeStatistics{}
	if err := db.Model(&models.BadgeDefinition{}).Count(&stats.TotalBadges).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.BadgeDefinition{}).Where("is_active = ?", true).Count(&stats.ActiveBadges).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.UserBadgeAward{}).Count(&stats.TotalAwards).Error; err != nil {
		return nil, err
	}
	if err := db.Order("awarded_count DESC, id").Find(&stats.Badges).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// SeedDefaults inserts the stock badge set, skipping slugs that already exist.
// Safe to run on every boot.
func (e *BadgeEngine) SeedDefaults(db *gorm.DB) error {
	for _, badge := range defaultBadges() {
		err := db.Where("slug = ?", badge.Slug).FirstOrCreate(&badge).Error
		if err != nil {
			return fmt.Errorf("seed badge %s: %w", badge.Slug, err)
		}
	}
	return nil
}

func defaultBadges() []models.BadgeDefinition {
	mk := func(slug, name, desc, typ, rarity string, points int, criteria map[string]int) models.BadgeDefinition {
		raw, _ := json.Marshal(criteria)
		return models.BadgeDefinition{
			Slug: slug, Name: name, Description: desc,
			Type: typ, Rarity: rarity, PointsValue: points,
			Criteria: string(raw), IsActive: true,
		}
	}
	return []models.BadgeDefinition{
		mk("first-post", "First Post", "Write your first post", "milestone", "common", 10, map[string]int{"first_post": 1}),
		mk("conversation-starter", "Conversation Starter", "Open 10 threads", "counter", "uncommon", 25, map[string]int{"threads_count": 10}),
		mk("prolific-poster", "Prolific Poster", "Write 50 posts", "counter", "uncommon", 50, map[string]int{"posts_count": 50}),
		mk("crowd-favorite", "Crowd Favorite", "Receive 100 upvotes", "counter", "rare", 100, map[string]int{"votes_received": 100}),
		mk("problem-solver", "Problem Solver", "Have 5 posts accepted as solutions", "counter", "rare", 75, map[string]int{"solutions_provided": 5}),
		mk("week-streak", "Regular Visitor", "Stay active 7 days in a row", "streak", "uncommon", 30, map[string]int{"consecutive_days_active": 7}),
		mk("month-streak", "True Devotee", "Stay active 30 days in a row", "streak", "epic", 150, map[string]int{"consecutive_days_active": 30}),
		mk("rising-star", "Rising Star", "Reach 500 reputation points", "milestone", "rare", 50, map[string]int{"total_points": 500}),
		mk("daily-burst", "Daily Burst", "Write 5 posts in a single day", "counter", "common", 15, map[string]int{"posts_today": 5}),
		mk("on-fire", "On Fire", "Earn 100 points within a week", "counter", "rare", 40, map[string]int{"points_this_week": 100}),
	}
}

type criterion struct {
	metric    string
	threshold int
}

// parseCriteria decodes a definition's criteria JSON into metric thresholds.
// Milestone flags may be written as booleans (true reads as threshold 1);
// anything else non-numeric marks the definition malformed.
func parseCriteria(raw string) (map[string]int, error) {
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCriteria, err)
	}
	if len(decoded) == 0 {
		return nil, ErrBadCriteria
	}
	criteria := make(map[string]int, len(decoded))
	for metric, value := range decoded {
		switch v := value.(type) {
		case float64:
			criteria[metric] = int(v)
		case bool:
			if v {
				criteria[metric] = 1
			} else {
				criteria[metric] = 0
			}
		default:
			return nil, fmt.Errorf("%w: %s has non-numeric threshold", ErrBadCriteria, metric)
		}
	}
	return criteria, nil
}

// sortedCriteria gives a stable evaluation order for deterministic output.
func sortedCriteria(criteria map[string]int) []criterion {
	out := make([]criterion, 0, len(criteria))
	for m, t := range criteria {
		out = append(out, criterion{metric: m, threshold: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].metric < out[j].metric })
	return out
}

func eligible(s *Snapshot, criteria map[string]int) bool {
	for metric, threshold := range criteria {
		fn, ok := metricRegistry[metric]
		if !ok {
			return false
		}
		if fn(s) < threshold {
			return false
		}
	}
	return true
}

func criterionPercent(current, threshold int) float64 {
	if threshold <= 0 {
		return 100
	}
	pct := float64(current) / float64(threshold) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}
