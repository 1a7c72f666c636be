package reputation

// Tier is one rung of the rank ladder.
type Tier struct {
	Threshold int    `json:"threshold"`
	Name      string `json:"name"`
	Level     int    `json:"level"`
	Color     string `json:"color"`
}

// tiers is the fixed ladder, ascending by threshold. The last tier has no
// upper bound.
var tiers = []Tier{
	{Threshold: 0, Name: "Newcomer", Level: 1, Color: "#9ca3af"},
	{Threshold: 100, Name: "Contributor", Level: 2, Color: "#22c55e"},
	{Threshold: 500, Name: "Regular", Level: 3, Color: "#3b82f6"},
	{Threshold: 1500, Name: "Veteran", Level: 4, Color: "#a855f7"},
	{Threshold: 5000, Name: "Expert", Level: 5, Color: "#f97316"},
	{Threshold: 15000, Name: "Legend", Level: 6, Color: "#eab308"},
}

// RankFor returns the tier for a point total: the highest threshold <= points.
// A total sitting exactly on a threshold belongs to that tier, not the one
// below. Negative totals clamp to the first tier.
func RankFor(totalPoints int) Tier {
	current := tiers[0]
	for _, t := range tiers {
		if totalPoints >= t.Threshold {
			current = t
		}
	}
	return current
}

// RankProgress describes where a point total sits relative to the next tier.
type RankProgress struct {
	Current      Tier    `json:"current"`
	Next         *Tier   `json:"next,omitempty"`
	PointsNeeded int     `json:"points_needed"`
	Percent      float64 `json:"percent"`
	MaxRank      bool    `json:"max_rank"`
}

// NextRankProgress reports the next tier, the points still needed, and the
// percentage covered of the span between the current and next thresholds.
// At the terminal tier it reports max rank with 100% and no next tier.
func NextRankProgress(totalPoints int) RankProgress {
	current := RankFor(totalPoints)
	if current.Level == tiers[len(tiers)-1].Level {
		return RankProgress{Current: current, Percent: 100, MaxRank: true}
	}
	next := tiers[current.Level] // tiers are 1-indexed by level
	span := next.Threshold - current.Threshold
	covered := totalPoints - current.Threshold
	if covered < 0 {
		covered = 0
	}
	pct := float64(covered) / float64(span) * 100
	if pct > 100 {
		pct = 100
	}
	return RankProgress{
		Current:      current,
		Next:         &next,
		PointsNeeded: next.Threshold - totalPoints,
		Percent:      pct,
	}
}
