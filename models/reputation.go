package models

import "time"

// UserReputation is the per-user aggregate the gamification engine maintains.
// TotalPoints always equals PostPoints + VotePoints + SolutionPoints + BadgePoints;
// Rank and RankLevel are caches derived from TotalPoints and recomputed on every
// change. Rows are created lazily on the first qualifying action and mutated only
// through the ledger.
type UserReputation struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	UserID                uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	TotalPoints           int        `gorm:"default:0;index" json:"total_points"`
	PostPoints            int        `gorm:"default:0" json:"post_points"`
	VotePoints            int        `gorm:"default:0" json:"vote_points"`
	SolutionPoints        int        `gorm:"default:0" json:"solution_points"`
	BadgePoints           int        `gorm:"default:0" json:"badge_points"`
	PostsCount            int        `gorm:"default:0" json:"posts_count"`
	ThreadsCount          int        `gorm:"default:0" json:"threads_count"`
	VotesReceived         int        `gorm:"default:0" json:"votes_received"`
	SolutionsProvided     int        `gorm:"default:0" json:"solutions_provided"`
	Rank                  string     `gorm:"size:32" json:"rank"`
	RankLevel             int        `gorm:"default:1" json:"rank_level"`
	ConsecutiveDaysActive int        `gorm:"default:0" json:"consecutive_days_active"`
	LastActivityDate      *time.Time `json:"last_activity_date"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// ReputationEvent is one immutable row of point history. PointsAfter is always
// PointsBefore + PointsChange; summing PointsChange over a user's events yields
// their current TotalPoints. Rows are never updated or deleted.
type ReputationEvent struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index:idx_events_user_time,priority:1;not null" json:"user_id"`
	Action       string    `gorm:"size:32;index;not null" json:"action"`
	PointsChange int       `json:"points_change"`
	PointsBefore int       `json:"points_before"`
	PointsAfter  int       `json:"points_after"`
	SourceType   string    `gorm:"size:32" json:"source_type"`
	SourceID     uint      `json:"source_id"`
	Description  string    `gorm:"size:255" json:"description"`
	Metadata     string    `gorm:"type:text" json:"metadata"` // JSON object
	CreatedAt    time.Time `gorm:"index:idx_events_user_time,priority:2" json:"created_at"`
}
