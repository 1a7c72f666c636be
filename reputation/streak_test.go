package reputation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commhub/reputation/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 15, 4, 5, 0, time.UTC)
}

func TestTouchActivityFirstEver(t *testing.T) {
	rep := &models.UserReputation{}
	TouchActivity(rep, day(2025, time.March, 10))
	assert.Equal(t, 1, rep.ConsecutiveDaysActive)
	require.NotNil(t, rep.LastActivityDate)
	assert.Equal(t, 10, rep.LastActivityDate.Day())
}

func TestTouchActivitySameDayIsNoOp(t *testing.T) {
	rep := &models.UserReputation{}
	TouchActivity(rep, day(2025, time.March, 10))
	TouchActivity(rep, day(2025, time.March, 10))
	assert.Equal(t, 1, rep.ConsecutiveDaysActive)
}

func TestTouchActivityConsecutiveDayIncrements(t *testing.T) {
	rep := &models.UserReputation{}
	TouchActivity(rep, day(2025, time.March, 10))
	TouchActivity(rep, day(2025, time.March, 11))
	assert.Equal(t, 2, rep.ConsecutiveDaysActive)
	TouchActivity(rep, day(2025, time.March, 12))
	assert.Equal(t, 3, rep.ConsecutiveDaysActive)
}

func TestTouchActivityGapResets(t *testing.T) {
	rep := &models.UserReputation{}
	TouchActivity(rep, day(2025, time.March, 10))
	TouchActivity(rep, day(2025, time.March, 11))
	TouchActivity(rep, day(2025, time.March, 14))
	assert.Equal(t, 1, rep.ConsecutiveDaysActive)
}

func TestTouchActivityFutureLastDateResets(t *testing.T) {
	// Clock skew: a recorded date ahead of "today" resets rather than extends.
	future := day(2025, time.March, 20)
	rep := &models.UserReputation{ConsecutiveDaysActive: 5, LastActivityDate: &future}
	TouchActivity(rep, day(2025, time.March, 10))
	assert.Equal(t, 1, rep.ConsecutiveDaysActive)
	assert.Equal(t, 10, rep.LastActivityDate.Day())
}

func TestTouchActivityMonthBoundary(t *testing.T) {
	rep := &models.UserReputation{}
	TouchActivity(rep, day(2025, time.March, 31))
	TouchActivity(rep, day(2025, time.April, 1))
	assert.Equal(t, 2, rep.ConsecutiveDaysActive)
}
