package analysis

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"racestats/internal/results"
)

// TeamRanking is a team's standing computed from its best finishers.
type TeamRanking struct {
	Rank    int
	Team    string
	Points  int
	Time    time.Duration
	Scorers Table
	// Incomplete is set when the team has fewer finishers than the
	// number of scorers counted.
	Incomplete bool
}

func compareRankings(a, b TeamRanking) int {
	if a.Incomplete != b.Incomplete {
		if a.Incomplete {
			return 1
		}
		return -1
	}
	if a.Incomplete {
		if c := cmp.Compare(len(b.Scorers), len(a.Scorers)); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(a.Points, b.Points); c != 0 {
		return c
	}
	return cmp.Compare(a.Time, b.Time)
}

// TeamRankings ranks teams by the sum of the places of their best
// `scorers` finishers, the sum of their times breaks ties. Teams named in
// `exclude` (ex. the unattached label) are left out.
func TeamRankings(t Table, scorers int, exclude ...string) []TeamRanking {
	if scorers < 1 {
		scorers = 1
	}

	var rankings []TeamRanking
	for _, group := range GroupByTeam(t) {
		if slices.ContainsFunc(exclude, func(e string) bool { return strings.EqualFold(e, group.Team) }) {
			continue
		}

		placed := group.Members.filter(func(r results.Result) bool {
			return r.Finished() && r.Place > 0
		}).SortByPlace()
		if len(placed) == 0 {
			continue
		}

		ranking := TeamRanking{Team: group.Team}
		if len(placed) < scorers {
			ranking.Incomplete = true
		} else {
			placed = placed[:scorers]
		}
		ranking.Scorers = placed
		for _, r := range placed {
			ranking.Points += r.Place
			ranking.Time += r.Finish
		}
		rankings = append(rankings, ranking)
	}

	slices.SortStableFunc(rankings, func(a, b TeamRanking) int {
		if c := compareRankings(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.Team, b.Team)
	})

	for i := range rankings {
		if i > 0 && compareRankings(rankings[i-1], rankings[i]) == 0 {
			rankings[i].Rank = rankings[i-1].Rank
			continue
		}
		rankings[i].Rank = i + 1
	}
	return rankings
}
