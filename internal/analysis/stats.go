package analysis

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"racestats/internal/results"

	"gonum.org/v1/gonum/stat"
)

// Summary describes a distribution of times.
type Summary struct {
	Count  int
	Mean   time.Duration
	Median time.Duration
	// StdDev is the sample standard deviation, it is 0 for fewer than 2 values.
	StdDev time.Duration
	Min    time.Duration
	Max    time.Duration
	P25    time.Duration
	P75    time.Duration
}

func seconds(d time.Duration) float64 {
	return d.Seconds()
}

func fromSeconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// Describe summarizes `durations`, an empty input gives a zero Summary.
func Describe(durations []time.Duration) Summary {
	if len(durations) == 0 {
		return Summary{}
	}

	x := make([]float64, len(durations))
	for i, d := range durations {
		x[i] = seconds(d)
	}
	slices.Sort(x)

	summary := Summary{
		Count: len(x),
		Mean:  fromSeconds(stat.Mean(x, nil)),
		Min:   fromSeconds(x[0]),
		Max:   fromSeconds(x[len(x)-1]),
		P25:   fromSeconds(stat.Quantile(0.25, stat.Empirical, x, nil)),
		P75:   fromSeconds(stat.Quantile(0.75, stat.Empirical, x, nil)),
	}
	if len(x) > 1 {
		summary.StdDev = fromSeconds(stat.StdDev(x, nil))
	}

	mid := len(x) / 2
	if len(x)%2 == 1 {
		summary.Median = fromSeconds(x[mid])
	} else {
		summary.Median = fromSeconds((x[mid-1] + x[mid]) / 2)
	}

	return summary
}

type TeamSummary struct {
	Team string
	Summary
}

// DescribeTeams summarizes the finish times of each team that has at
// least one finisher, ordered by mean finish time.
func DescribeTeams(t Table) []TeamSummary {
	var out []TeamSummary
	for _, group := range GroupByTeam(t) {
		times := group.Members.FinishTimes()
		if len(times) == 0 {
			continue
		}
		out = append(out, TeamSummary{
			Team:    group.Team,
			Summary: Describe(times),
		})
	}
	slices.SortStableFunc(out, func(a, b TeamSummary) int {
		if c := cmp.Compare(a.Mean, b.Mean); c != 0 {
			return c
		}
		return strings.Compare(a.Team, b.Team)
	})
	return out
}

// DescribeSplits summarizes every split found in `t`.
func DescribeSplits(t Table) map[string]Summary {
	out := map[string]Summary{}
	for _, name := range results.SplitNames(t) {
		times := t.SplitTimes(name)
		if len(times) == 0 {
			continue
		}
		out[name] = Describe(times)
	}
	return out
}

// Center selects which measure of central tendency guide lines are drawn at.
type Center int

const (
	CenterMean Center = iota
	CenterMedian
)

func (c Center) String() string {
	switch c {
	case CenterMedian:
		return "median"
	default:
		return "mean"
	}
}

func ParseCenter(s string) (Center, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mean", "average":
		return CenterMean, nil
	case "median":
		return CenterMedian, nil
	}
	return CenterMean, fmt.Errorf("unknown center %q, expected mean or median", s)
}

// Of returns the center of `s`.
func (c Center) Of(s Summary) time.Duration {
	if c == CenterMedian {
		return s.Median
	}
	return s.Mean
}
