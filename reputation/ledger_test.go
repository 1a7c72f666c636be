package reputation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commhub/reputation/models"
)

func TestAwardCreatesAggregateLazily(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(DefaultPointValues())
	user := createTestUser(t, db, "alice")

	rep, event, err := ledger.Award(db, user.ID, ActionPostCreated, nil, EventContext{SourceType: "post", SourceID: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, rep.TotalPoints)
	assert.Equal(t, 5, rep.PostPoints)
	assert.Equal(t, 1, rep.PostsCount)
	assert.Equal(t, "Newcomer", rep.Rank)
	assert.Equal(t, 0, event.PointsBefore)
	assert.Equal(t, 5, event.PointsAfter)
}

func TestAwardUnknownActionRejected(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(DefaultPointValues())
	user := createTestUser(t, db, "alice")

	_, _, err := ledger.Award(db, user.ID, Action("bogus"), nil, EventContext{})
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestAwardConservation(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(DefaultPointValues())
	user := createTestUser(t, db, "alice")

	badgePoints := 10
	sequence := []struct {
		action   Action
		explicit *int
	}{
		{ActionThreadCreated, nil},
		{ActionPostCreated, nil},
		{ActionPostCreated, nil},
		{ActionVoteReceived, nil},
		{ActionSolutionMarked, nil},
		{ActionDailyActivity, nil},
		{ActionBadgeEarned, &badgePoints},
	}
	for _, step := range sequence {
		_, _, err := ledger.Award(db, user.ID, step.action, step.explicit, EventContext{})
		require.NoError(t, err)
	}

	rep := loadReputation(t, db, user.ID)
	assert.Equal(t, rep.TotalPoints, rep.PostPoints+rep.VotePoints+rep.SolutionPoints+rep.BadgePoints)
	assert.Equal(t, 2, rep.PostsCount)
	assert.Equal(t, 1, rep.ThreadsCount)
	assert.Equal(t, 1, rep.VotesReceived)
	assert.Equal(t, 1, rep.SolutionsProvided)
	assert.Equal(t, 10, rep.BadgePoints)
}

func TestEventHistoryFormsChainAndReplays(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(DefaultPointValues())
	user := createTestUser(t, db, "alice")

	for i := 0; i < 7; i++ {
		_, _, err := ledger.Award(db, user.ID, ActionPostCreated, nil, EventContext{})
		require.NoError(t, err)
	}
	_, _, err := ledger.Award(db, user.ID, ActionSolutionMarked, nil, EventContext{})
	require.NoError(t, err)

	var events []models.ReputationEvent
	require.NoError(t, db.Where("user_id = ?", user.ID).Order("id").Find(&events).Error)
	require.Len(t, events, 8)

	sum := 0
	for i, e := range events {
		assert.Equal(t, e.PointsBefore+e.PointsChange, e.PointsAfter)
		if i > 0 {
			assert.Equal(t, events[i-1].PointsAfter, e.PointsBefore)
		}
		sum += e.PointsChange
	}

	rep := loadReputation(t, db, user.ID)
	assert.Equal(t, rep.TotalPoints, sum)
}

func TestAwardRecomputesRankAtThreshold(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(DefaultPointValues())
	user := createTestUser(t, db, "alice")

	for i := 0; i < 19; i++ {
		_, _, err := ledger.Award(db, user.ID, ActionPostCreated, nil, EventContext{})
		require.NoError(t, err)
	}
	rep := loadReputation(t, db, user.ID)
	assert.Equal(t, 95, rep.TotalPoints)
	assert.Equal(t, "Newcomer", rep.Rank)

	rep, _, err := ledger.Award(db, user.ID, ActionPostCreated, nil, EventContext{})
	require.NoError(t, err)
	assert.Equal(t, 100, rep.TotalPoints)
	assert.Equal(t, "Contributor", rep.Rank)
	assert.Equal(t, 2, rep.RankLevel)
}

func TestExplicitPointsOverrideTable(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(DefaultPointValues())
	user := createTestUser(t, db, "alice")

	override := 42
	rep, event, err := ledger.Award(db, user.ID, ActionPostCreated, &override, EventContext{Description: "manual adjustment"})
	require.NoError(t, err)
	assert.Equal(t, 42, rep.TotalPoints)
	assert.Equal(t, 42, event.PointsChange)
}

func TestCustomPointValues(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(PointValues{PostCreated: 1, ThreadCreated: 1, VoteReceived: 1, SolutionMarked: 1, DailyActivity: 1})
	user := createTestUser(t, db, "alice")

	rep, _, err := ledger.Award(db, user.ID, ActionSolutionMarked, nil, EventContext{})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.TotalPoints)
}

func TestRecalculateRepairsDrift(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(DefaultPointValues())
	author := createTestUser(t, db, "author")
	voter := createTestUser(t, db, "voter")

	// Raw forum activity: two threads, three posts, two upvotes received,
	// one accepted solution.
	threads := make([]models.Thread, 2)
	for i := range threads {
		threads[i] = models.Thread{UserID: author.ID, Title: "t", Content: "c"}
		require.NoError(t, db.Create(&threads[i]).Error)
	}
	posts := make([]models.Post, 3)
	for i := range posts {
		posts[i] = models.Post{ThreadID: threads[0].ID, UserID: author.ID, Content: "c"}
		require.NoError(t, db.Create(&posts[i]).Error)
	}
	require.NoError(t, db.Create(&models.PostVote{PostID: posts[0].ID, VoterID: voter.ID, IsUpvote: true}).Error)
	require.NoError(t, db.Create(&models.PostVote{PostID: posts[1].ID, VoterID: voter.ID, IsUpvote: true}).Error)
	require.NoError(t, db.Create(&models.PostVote{PostID: posts[2].ID, VoterID: voter.ID, IsUpvote: false}).Error)
	require.NoError(t, db.Model(&threads[0]).Update("solution_post_id", posts[0].ID).Error)

	// A badge the user holds contributes its point value.
	badge := createBadge(t, db, "test-badge", 10, map[string]int{"posts_count": 1})
	require.NoError(t, db.Create(&models.UserBadgeAward{UserID: author.ID, BadgeID: badge.ID}).Error)

	// Drifted aggregate: nonsense numbers that recalculation must overwrite.
	require.NoError(t, db.Create(&models.UserReputation{UserID: author.ID, TotalPoints: 999, PostPoints: 999, PostsCount: 42}).Error)

	rep, err := ledger.Recalculate(db, author.ID)
	require.NoError(t, err)

	// 2 threads * 5 + 3 posts * 5 = 25 post points; 2 upvotes * 2 = 4;
	// 1 solution * 25 = 25; badge 10. Total 64.
	assert.Equal(t, 2, rep.ThreadsCount)
	assert.Equal(t, 3, rep.PostsCount)
	assert.Equal(t, 2, rep.VotesReceived)
	assert.Equal(t, 1, rep.SolutionsProvided)
	assert.Equal(t, 25, rep.PostPoints)
	assert.Equal(t, 4, rep.VotePoints)
	assert.Equal(t, 25, rep.SolutionPoints)
	assert.Equal(t, 10, rep.BadgePoints)
	assert.Equal(t, 64, rep.TotalPoints)
	assert.Equal(t, "Newcomer", rep.Rank)

	// The correction is itself one history row keeping replay intact.
	var last models.ReputationEvent
	require.NoError(t, db.Where("user_id = ?", author.ID).Order("id DESC").First(&last).Error)
	assert.Equal(t, string(ActionRecalculated), last.Action)
	assert.Equal(t, 999, last.PointsBefore)
	assert.Equal(t, 64, last.PointsAfter)
	assert.Equal(t, -935, last.PointsChange)
}
