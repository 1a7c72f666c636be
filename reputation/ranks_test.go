package reputation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankForBoundaries(t *testing.T) {
	cases := []struct {
		points int
		name   string
		level  int
	}{
		{0, "Newcomer", 1},
		{99, "Newcomer", 1},
		{100, "Contributor", 2}, // exact threshold belongs to the new tier
		{101, "Contributor", 2},
		{499, "Contributor", 2},
		{500, "Regular", 3},
		{1500, "Veteran", 4},
		{5000, "Expert", 5},
		{14999, "Expert", 5},
		{15000, "Legend", 6},
		{1000000, "Legend", 6},
	}
	for _, tc := range cases {
		tier := RankFor(tc.points)
		assert.Equal(t, tc.name, tier.Name, "points=%d", tc.points)
		assert.Equal(t, tc.level, tier.Level, "points=%d", tc.points)
	}
}

func TestRankForNegativeClampsToFirstTier(t *testing.T) {
	tier := RankFor(-10)
	assert.Equal(t, "Newcomer", tier.Name)
}

func TestNextRankProgressMidTier(t *testing.T) {
	p := NextRankProgress(50)
	assert.Equal(t, "Newcomer", p.Current.Name)
	if assert.NotNil(t, p.Next) {
		assert.Equal(t, "Contributor", p.Next.Name)
	}
	assert.Equal(t, 50, p.PointsNeeded)
	assert.InDelta(t, 50.0, p.Percent, 0.001)
	assert.False(t, p.MaxRank)
}

func TestNextRankProgressAtThreshold(t *testing.T) {
	p := NextRankProgress(100)
	assert.Equal(t, "Contributor", p.Current.Name)
	if assert.NotNil(t, p.Next) {
		assert.Equal(t, "Regular", p.Next.Name)
	}
	assert.Equal(t, 400, p.PointsNeeded)
	assert.InDelta(t, 0.0, p.Percent, 0.001)
}

func TestNextRankProgressAtMaxRank(t *testing.T) {
	p := NextRankProgress(20000)
	assert.True(t, p.MaxRank)
	assert.Nil(t, p.Next)
	assert.InDelta(t, 100.0, p.Percent, 0.001)
	assert.Equal(t, "Legend", p.Current.Name)
}
