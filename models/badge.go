package models

import "time"

// BadgeDefinition describes one achievable badge. Criteria is a JSON object of
// metric name -> integer threshold; all pairs must be satisfied for the badge
// to be awarded. Definitions are seeded or administered externally; the engine
// only ever increments AwardedCount.
type BadgeDefinition struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Slug         string    `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Name         string    `gorm:"size:128;not null" json:"name"`
	Description  string    `gorm:"size:255" json:"description"`
	Type         string    `gorm:"size:32" json:"type"`   // milestone, counter, streak
	Rarity       string    `gorm:"size:32" json:"rarity"` // common .. legendary
	PointsValue  int       `gorm:"default:0" json:"points_value"`
	Criteria     string    `gorm:"type:text;not null" json:"criteria"` // JSON: {"metric": threshold}
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	AwardedCount int       `gorm:"default:0" json:"awarded_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserBadgeAward links a user to a badge they earned. The composite unique
// index is the idempotence guarantee: a badge is awarded at most once per user,
// a concurrent second insert fails with a duplicate-key error and is treated
// as "already awarded".
type UserBadgeAward struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"uniqueIndex:idx_user_badge;not null" json:"user_id"`
	BadgeID        uint            `gorm:"uniqueIndex:idx_user_badge;not null" json:"badge_id"`
	Badge          BadgeDefinition `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	EarnedAt       time.Time       `json:"earned_at"`
	EarningContext string          `gorm:"type:text" json:"earning_context"` // JSON snapshot of the trigger
	IsFeatured     bool            `gorm:"default:false" json:"is_featured"`
}
