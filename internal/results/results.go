// Package results holds the race result data model shared by the scraper,
// the store and the analysis code.
package results

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RaceKey is the set of query parameters identifying one result page.
type RaceKey struct {
	Competition string
	Race        string
	Event       string
}

func (k RaceKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Competition, k.Race, k.Event)
}

func (k RaceKey) IsZero() bool {
	return k == RaceKey{}
}

// ParseKey is the inverse of RaceKey.String.
func ParseKey(s string) (RaceKey, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return RaceKey{}, fmt.Errorf("race key %q: expected <competition>/<race>/<event>", s)
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return RaceKey{}, fmt.Errorf("race key %q: empty component", s)
		}
	}
	return RaceKey{Competition: parts[0], Race: parts[1], Event: parts[2]}, nil
}

func (k RaceKey) Less(o RaceKey) bool {
	if k.Competition != o.Competition {
		return k.Competition < o.Competition
	}
	if k.Race != o.Race {
		return k.Race < o.Race
	}
	return k.Event < o.Event
}

type Race struct {
	Key       RaceKey
	Name      string
	Date      time.Time
	Category  string
	SourceURL string
	FetchedAt time.Time
	Results   []Result
}

// Title is the name shown in reports, ex. "Cole Classic 2km (2024-02-04)".
func (r Race) Title() string {
	name := r.Name
	if name == "" {
		name = r.Key.String()
	}
	if r.Category != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(r.Category)) {
		name = fmt.Sprintf("%s %s", name, r.Category)
	}
	if r.Date.IsZero() {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, r.Date.Format(time.DateOnly))
}

type Split struct {
	Name string
	Time time.Duration
}

type Result struct {
	// Place is the overall position, 0 means the participant has no place.
	Place    int
	Bib      string
	Name     string
	Team     string
	Country  string
	Category string
	Status   Status
	Finish   time.Duration
	Splits   []Split
	// Race is the key of the race the result belongs to, it allows
	// results of several races to be analyzed together.
	Race RaceKey
}

// Finished reports whether the result has a usable finish time.
func (r Result) Finished() bool {
	return r.Status == Finished && r.Finish > 0
}

// Split returns the time of the split with the given (normalized) name.
func (r Result) Split(name string) (time.Duration, bool) {
	name = NormalizeSplitName(name)
	for _, s := range r.Splits {
		if s.Name == name {
			return s.Time, true
		}
	}
	return 0, false
}

var splitAliases = map[string]string{
	"swim":         "swim",
	"swimming":     "swim",
	"t1":           "t1",
	"transition":   "t1",
	"transition 1": "t1",
	"t2":           "t2",
	"transition 2": "t2",
	"bike":         "bike",
	"cycle":        "bike",
	"run":          "run",
	"running":      "run",
}

// NormalizeSplitName maps split column titles onto short names,
// ex. "Swim Time" -> "swim", "Transition 1" -> "t1".
func NormalizeSplitName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimSuffix(name, " time")
	name = strings.TrimSuffix(name, " split")
	if alias, ok := splitAliases[name]; ok {
		return alias
	}
	return strings.Join(strings.Fields(name), "_")
}

// SplitNames returns the split names found in `results` in first-seen order.
func SplitNames(results []Result) []string {
	seen := map[string]struct{}{}
	var names []string
	for _, r := range results {
		for _, s := range r.Splits {
			if _, ok := seen[s.Name]; ok {
				continue
			}
			seen[s.Name] = struct{}{}
			names = append(names, s.Name)
		}
	}
	return names
}

// AssignPlaces derives places from finish times using competition ranking,
// tied times share a place (1, 2, 2, 4). Non-finishers get place 0.
func AssignPlaces(results []Result) {
	idx := make([]int, 0, len(results))
	for i := range results {
		results[i].Place = 0
		if results[i].Finished() {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return results[idx[a]].Finish < results[idx[b]].Finish
	})
	for rank, i := range idx {
		if rank > 0 && results[i].Finish == results[idx[rank-1]].Finish {
			results[i].Place = results[idx[rank-1]].Place
			continue
		}
		results[i].Place = rank + 1
	}
}

// Order sorts placed results by place (ties by finish time) and moves
// results without a place to the end, keeping their relative order.
func Order(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if (a.Place > 0) != (b.Place > 0) {
			return a.Place > 0
		}
		if a.Place == 0 {
			return false
		}
		if a.Place != b.Place {
			return a.Place < b.Place
		}
		return a.Finish < b.Finish
	})
}
