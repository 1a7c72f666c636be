package reputation

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/commhub/reputation/models"
)

// LeaderboardEntry is one row of the points leaderboard.
type LeaderboardEntry struct {
	Position    int    `json:"position"`
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	AvatarURL   string `json:"avatar_url"`
	TotalPoints int    `json:"total_points"`
	Rank        string `json:"rank"`
	RankLevel   int    `json:"rank_level"`
}

// Leaderboard returns the top users by total points, higher rank level first
// among ties, user id as the stable final key. Positions are competition
// ranked: users tied on points share a position.
func Leaderboard(db *gorm.DB, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	var entries []LeaderboardEntry
	err := db.Model(&models.UserReputation{}).
		Select("user_reputations.user_id, users.username, users.avatar_url, user_reputations.total_points, user_reputations.`rank`, user_reputations.rank_level").
		Joins("JOIN users ON users.id = user_reputations.user_id").
		Order("user_reputations.total_points DESC, user_reputations.rank_level DESC, user_reputations.user_id ASC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	// Competition ranking over the fetched page: ties share the leader's
	// position, the next distinct total skips past them.
	for i := range entries {
		if i > 0 && entries[i].TotalPoints == entries[i-1].TotalPoints {
			entries[i].Position = entries[i-1].Position
		} else {
			entries[i].Position = i + 1
		}
	}
	return entries, nil
}

// PositionOf returns a user's 1-based competition rank: one more than the
// number of users with strictly greater totals. Tied users share a position.
// Returns 0 when the user has no reputation row yet.
func PositionOf(db *gorm.DB, userID uint) (int, error) {
	var rep models.UserReputation
	if err := db.Where("user_id = ?", userID).First(&rep).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var ahead int64
	if err := db.Model(&models.UserReputation{}).
		Where("total_points > ?", rep.TotalPoints).
		Count(&ahead).Error; err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}
