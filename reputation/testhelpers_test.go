package reputation

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/commhub/reputation/models"
)

// newTestDB opens a private in-memory SQLite database with the full schema.
// The pool is pinned to one connection so every query sees the same memory
// database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Thread{},
		&models.Post{},
		&models.PostVote{},
		&models.UserReputation{},
		&models.ReputationEvent{},
		&models.BadgeDefinition{},
		&models.UserBadgeAward{},
	))
	return db
}

func newTestOrchestrator(t *testing.T, db *gorm.DB) *Orchestrator {
	t.Helper()
	return NewOrchestrator(db, DefaultPointValues(), zap.NewNop().Sugar())
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// createBadge inserts a single active badge definition with the given criteria.
func createBadge(t *testing.T, db *gorm.DB, slug string, points int, criteria map[string]int) *models.BadgeDefinition {
	t.Helper()
	raw, err := json.Marshal(criteria)
	require.NoError(t, err)
	badge := &models.BadgeDefinition{
		Slug:        slug,
		Name:        slug,
		Description: fmt.Sprintf("test badge %s", slug),
		Type:        "counter",
		Rarity:      "common",
		PointsValue: points,
		Criteria:    string(raw),
		IsActive:    true,
	}
	require.NoError(t, db.Create(badge).Error)
	return badge
}

func loadReputation(t *testing.T, db *gorm.DB, userID uint) *models.UserReputation {
	t.Helper()
	var rep models.UserReputation
	require.NoError(t, db.Where("user_id = ?", userID).First(&rep).Error)
	return &rep
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
