package analysis

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"racestats/internal/results"
	"racestats/lib/textutil"
)

// Table is a set of results, possibly taken from several races.
// Operations never modify the receiver, they return a new Table.
type Table []results.Result

// Combine concatenates the results of several races into a single Table.
func Combine(races ...results.Race) Table {
	var t Table
	for _, race := range races {
		t = append(t, race.Results...)
	}
	return t
}

func (t Table) filter(keep func(r results.Result) bool) Table {
	var out Table
	for _, r := range t {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Finishers keeps the results with a usable finish time.
func (t Table) Finishers() Table {
	return t.filter(results.Result.Finished)
}

// ByCategory keeps the results in any of `categories`, no categories keeps everything.
func (t Table) ByCategory(categories ...string) Table {
	if len(categories) == 0 {
		return slices.Clone(t)
	}
	return t.filter(func(r results.Result) bool {
		return slices.ContainsFunc(categories, func(c string) bool {
			return strings.EqualFold(c, r.Category)
		})
	})
}

func (t Table) ByTeam(team string) Table {
	return t.filter(func(r results.Result) bool {
		return strings.EqualFold(r.Team, team)
	})
}

// Search keeps the results whose participant name contains `query`,
// ignoring case and accents.
func (t Table) Search(query string) Table {
	return t.filter(func(r results.Result) bool {
		return textutil.MatchName(r.Name, query)
	})
}

// Podium returns the places 1 to 3.
func (t Table) Podium() Table {
	out := t.filter(func(r results.Result) bool {
		return r.Finished() && r.Place >= 1 && r.Place <= 3
	})
	return out.SortByPlace()
}

func compareTime(a, b results.Result) int {
	if a.Finished() != b.Finished() {
		if a.Finished() {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.Finish, b.Finish)
}

func comparePlace(a, b results.Result) int {
	if (a.Place > 0) != (b.Place > 0) {
		if a.Place > 0 {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.Place, b.Place)
}

// SortByTime orders finishers by finish time, non-finishers last.
func (t Table) SortByTime() Table {
	out := slices.Clone(t)
	slices.SortStableFunc(out, compareTime)
	return out
}

// SortByPlace orders placed results by place, unplaced results last.
func (t Table) SortByPlace() Table {
	out := slices.Clone(t)
	slices.SortStableFunc(out, comparePlace)
	return out
}

// SortByTeam orders by team name, then by finish time.
func (t Table) SortByTeam() Table {
	out := slices.Clone(t)
	slices.SortStableFunc(out, func(a, b results.Result) int {
		if c := strings.Compare(a.Team, b.Team); c != 0 {
			return c
		}
		return compareTime(a, b)
	})
	return out
}

// FinishTimes returns the finish times of the finishers.
func (t Table) FinishTimes() []time.Duration {
	var out []time.Duration
	for _, r := range t {
		if r.Finished() {
			out = append(out, r.Finish)
		}
	}
	return out
}

// SplitTimes returns the times of split `name` of the finishers that have it.
func (t Table) SplitTimes(name string) []time.Duration {
	name = results.NormalizeSplitName(name)
	var out []time.Duration
	for _, r := range t {
		if !r.Finished() {
			continue
		}
		if split, ok := r.Split(name); ok && split > 0 {
			out = append(out, split)
		}
	}
	return out
}

// Teams returns the distinct team names in sorted order.
func (t Table) Teams() []string {
	var teams []string
	for _, r := range t {
		if !slices.Contains(teams, r.Team) {
			teams = append(teams, r.Team)
		}
	}
	slices.Sort(teams)
	return teams
}

type TeamGroup struct {
	Team    string
	Members Table
}

// GroupByTeam returns one group per team sorted by team name, members
// are sorted by finish time.
func GroupByTeam(t Table) []TeamGroup {
	index := map[string]int{}
	var groups []TeamGroup
	for _, r := range t {
		i, ok := index[r.Team]
		if !ok {
			i = len(groups)
			index[r.Team] = i
			groups = append(groups, TeamGroup{Team: r.Team})
		}
		groups[i].Members = append(groups[i].Members, r)
	}

	for i := range groups {
		groups[i].Members = groups[i].Members.SortByTime()
	}
	slices.SortFunc(groups, func(a, b TeamGroup) int {
		return strings.Compare(a.Team, b.Team)
	})
	return groups
}
