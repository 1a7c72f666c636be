package reputation

// Action is one of the closed set of point-changing actions the ledger accepts.
type Action string

const (
	ActionPostCreated    Action = "post_created"
	ActionThreadCreated  Action = "thread_created"
	ActionVoteReceived   Action = "vote_received"
	ActionSolutionMarked Action = "solution_marked"
	ActionDailyActivity  Action = "daily_activity"
	ActionBadgeEarned    Action = "badge_earned"
	ActionRecalculated   Action = "recalculated"
)

// Category names the point bucket an action credits. TotalPoints is always the
// sum of the four buckets.
type Category string

const (
	CategoryPost     Category = "post"
	CategoryVote     Category = "vote"
	CategorySolution Category = "solution"
	CategoryBadge    Category = "badge"
)

// PointValues is the immutable point table injected into the ledger at
// construction. Tests substitute their own values instead of mutating a
// package-level table.
type PointValues struct {
	PostCreated    int
	ThreadCreated  int
	VoteReceived   int
	SolutionMarked int
	DailyActivity  int
}

// DefaultPointValues mirrors the production point table.
func DefaultPointValues() PointValues {
	return PointValues{
		PostCreated:    5,
		ThreadCreated:  5,
		VoteReceived:   2,
		SolutionMarked: 25,
		DailyActivity:  2,
	}
}

// valueFor returns the configured point value and bucket for an action.
// badge_earned and recalculated carry no fixed value; their deltas always come
// from the caller. Daily activity rewards are participation points and land in
// the post bucket.
func (v PointValues) valueFor(action Action) (points int, category Category, ok bool) {
	switch action {
	case ActionPostCreated:
		return v.PostCreated, CategoryPost, true
	case ActionThreadCreated:
		return v.ThreadCreated, CategoryPost, true
	case ActionVoteReceived:
		return v.VoteReceived, CategoryVote, true
	case ActionSolutionMarked:
		return v.SolutionMarked, CategorySolution, true
	case ActionDailyActivity:
		return v.DailyActivity, CategoryPost, true
	case ActionBadgeEarned:
		return 0, CategoryBadge, true
	default:
		return 0, "", false
	}
}
