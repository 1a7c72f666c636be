package reputation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commhub/reputation/models"
)

func TestEndToEndTwentyPosts(t *testing.T) {
	db := newTestDB(t)
	o := newTestOrchestrator(t, db)
	user := createTestUser(t, db, "alice")
	createBadge(t, db, "first-post", 10, map[string]int{"first_post": 1})

	first := o.OnPostCreated(user.ID, 1)
	require.False(t, first.Failed)
	assert.Equal(t, 5, first.PointsAwarded)
	require.Len(t, first.NewBadges, 1)
	assert.Equal(t, "first-post", first.NewBadges[0].Slug)
	assert.Equal(t, 15, first.TotalPoints) // 5 post + 10 badge

	var last Result
	for i := 2; i <= 20; i++ {
		last = o.OnPostCreated(user.ID, uint(i))
		require.False(t, last.Failed)
		assert.Empty(t, last.NewBadges)
	}

	rep := loadReputation(t, db, user.ID)
	assert.Equal(t, 110, rep.TotalPoints)
	assert.Equal(t, 100, rep.PostPoints)
	assert.Equal(t, 10, rep.BadgePoints)
	assert.Equal(t, 20, rep.PostsCount)
	assert.Equal(t, "Contributor", rep.Rank)
	assert.Equal(t, 2, rep.RankLevel)
	assert.Equal(t, "Contributor", last.Rank)

	// One event per post plus the badge credit; replay matches the aggregate.
	var events []models.ReputationEvent
	require.NoError(t, db.Where("user_id = ?", user.ID).Order("id").Find(&events).Error)
	require.Len(t, events, 21)
	sum := 0
	for _, e := range events {
		sum += e.PointsChange
	}
	assert.Equal(t, 110, sum)

	// Asking again awards nothing new.
	again, err := o.badges.CheckAndAward(db, user.ID, time.Now())
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Equal(t, 110, loadReputation(t, db, user.ID).TotalPoints)
}

func TestDailyActivityStreakAndIdempotence(t *testing.T) {
	db := newTestDB(t)
	o := newTestOrchestrator(t, db)
	user := createTestUser(t, db, "alice")

	day1 := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	o.WithClock(fixedClock(day1))

	res := o.OnDailyActivity(user.ID)
	require.False(t, res.Failed)
	assert.Equal(t, 2, res.PointsAwarded)
	rep := loadReputation(t, db, user.ID)
	assert.Equal(t, 1, rep.ConsecutiveDaysActive)

	// Same-day repeat: skipped, nothing changes.
	res = o.OnDailyActivity(user.ID)
	assert.True(t, res.Skipped)
	assert.Zero(t, res.PointsAwarded)
	rep = loadReputation(t, db, user.ID)
	assert.Equal(t, 2, rep.TotalPoints)
	assert.Equal(t, 1, rep.ConsecutiveDaysActive)

	// Next day extends the streak.
	o.WithClock(fixedClock(day1.AddDate(0, 0, 1)))
	res = o.OnDailyActivity(user.ID)
	require.False(t, res.Skipped)
	rep = loadReputation(t, db, user.ID)
	assert.Equal(t, 2, rep.ConsecutiveDaysActive)
	assert.Equal(t, 4, rep.TotalPoints)

	// A three-day gap resets it.
	o.WithClock(fixedClock(day1.AddDate(0, 0, 4)))
	res = o.OnDailyActivity(user.ID)
	require.False(t, res.Skipped)
	rep = loadReputation(t, db, user.ID)
	assert.Equal(t, 1, rep.ConsecutiveDaysActive)
	assert.Equal(t, 6, rep.TotalPoints)
}

func TestDownvoteNeverAwards(t *testing.T) {
	db := newTestDB(t)
	o := newTestOrchestrator(t, db)
	user := createTestUser(t, db, "alice")

	res := o.OnVoteReceived(user.ID, 99, false)
	assert.True(t, res.Skipped)

	var count int64
	require.NoError(t, db.Model(&models.UserReputation{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpvoteAwards(t *testing.T) {
	db := newTestDB(t)
	o := newTestOrchestrator(t, db)
	user := createTestUser(t, db, "alice")

	res := o.OnVoteReceived(user.ID, 99, true)
	require.False(t, res.Failed)
	assert.Equal(t, 2, res.PointsAwarded)

	rep := loadReputation(t, db, user.ID)
	assert.Equal(t, 2, rep.VotePoints)
	assert.Equal(t, 1, rep.VotesReceived)
}

func TestTriggerFailureIsSwallowedAndRolledBack(t *testing.T) {
	db := newTestDB(t)
	o := newTestOrchestrator(t, db)
	user := createTestUser(t, db, "alice")

	// Break the event table: the ledger write must fail, the whole
	// gamification unit must roll back, and the trigger must not panic or
	// return an error.
	require.NoError(t, db.Migrator().DropTable(&models.ReputationEvent{}))

	res := o.OnPostCreated(user.ID, 1)
	assert.True(t, res.Failed)
	assert.Zero(t, res.PointsAwarded)

	var count int64
	require.NoError(t, db.Model(&models.UserReputation{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count, "aggregate write must roll back with the event write")
}

func TestSolutionMarkedAwards(t *testing.T) {
	db := newTestDB(t)
	o := newTestOrchestrator(t, db)
	user := createTestUser(t, db, "alice")

	res := o.OnSolutionMarked(user.ID, 7)
	require.False(t, res.Failed)
	assert.Equal(t, 25, res.PointsAwarded)
	rep := loadReputation(t, db, user.ID)
	assert.Equal(t, 25, rep.SolutionPoints)
	assert.Equal(t, 1, rep.SolutionsProvided)
}

func TestLeaderboardOrderingAndPositions(t *testing.T) {
	db := newTestDB(t)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	// alice and bob tie on points; alice's higher rank level breaks the tie.
	require.NoError(t, db.Create(&models.UserReputation{UserID: alice.ID, TotalPoints: 100, Rank: "Contributor", RankLevel: 2}).Error)
	require.NoError(t, db.Create(&models.UserReputation{UserID: bob.ID, TotalPoints: 100, Rank: "Newcomer", RankLevel: 1}).Error)
	require.NoError(t, db.Create(&models.UserReputation{UserID: carol.ID, TotalPoints: 50, Rank: "Newcomer", RankLevel: 1}).Error)

	entries, err := Leaderboard(db, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, "bob", entries[1].Username)
	assert.Equal(t, "carol", entries[2].Username)

	// Competition ranking: the tied pair shares position 1, carol is third.
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, 1, entries[1].Position)
	assert.Equal(t, 3, entries[2].Position)

	for _, tc := range []struct {
		userID uint
		want   int
	}{
		{alice.ID, 1},
		{bob.ID, 1},
		{carol.ID, 3},
	} {
		pos, err := PositionOf(db, tc.userID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, pos)
	}
}

func TestLeaderboardLimit(t *testing.T) {
	db := newTestDB(t)
	for i, name := range []string{"u1", "u2", "u3"} {
		u := createTestUser(t, db, name)
		require.NoError(t, db.Create(&models.UserReputation{UserID: u.ID, TotalPoints: 10 * (i + 1), RankLevel: 1}).Error)
	}
	entries, err := Leaderboard(db, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "u3", entries[0].Username)
}

func TestPositionOfUnknownUser(t *testing.T) {
	db := newTestDB(t)
	pos, err := PositionOf(db, 12345)
	require.NoError(t, err)
	assert.Zero(t, pos)
}

func TestBuildDashboard(t *testing.T) {
	db := newTestDB(t)
	o := newTestOrchestrator(t, db)
	user := createTestUser(t, db, "alice")
	createBadge(t, db, "first-post", 10, map[string]int{"first_post": 1})

	o.OnPostCreated(user.ID, 1)
	o.OnVoteReceived(user.ID, 99, true)

	d, err := o.BuildDashboard(user.ID)
	require.NoError(t, err)
	require.NotNil(t, d.Reputation)
	assert.Equal(t, 17, d.Reputation.TotalPoints) // 5 + 10 badge + 2 vote
	assert.Equal(t, 1, d.Position)
	assert.Len(t, d.Badges, 1)
	assert.NotEmpty(t, d.RecentEvents)
	assert.Equal(t, 17, d.PointsWeek)
	assert.Equal(t, 17, d.PointsMonth)
	assert.False(t, d.RankProgress.MaxRank)
}

func TestBuildDashboardForUnknownUser(t *testing.T) {
	db := newTestDB(t)
	o := newTestOrchestrator(t, db)

	d, err := o.BuildDashboard(4242)
	require.NoError(t, err)
	require.NotNil(t, d.Reputation)
	assert.Zero(t, d.Reputation.TotalPoints)
	assert.Equal(t, "Newcomer", d.Reputation.Rank)
	assert.Empty(t, d.RecentEvents)
}
