package testutil

import (
	"math/rand/v2"
	"testing"
	"time"

	"racestats/internal/results"

	"github.com/mazen160/go-random"
)

// RandomName returns a random participant name.
func RandomName(t testing.TB) string {
	t.Helper()
	first, err := random.String(6)
	if err != nil {
		t.Fatal(err)
	}
	last, err := random.String(8)
	if err != nil {
		t.Fatal(err)
	}
	return first + " " + last
}

// RandomResults generates `n` finishers spread over `teams` with finish
// times between 20 and 60 minutes, every tenth participant did not finish.
// Places are assigned from the finish times.
func RandomResults(t testing.TB, n int, teams ...string) []results.Result {
	t.Helper()
	if len(teams) == 0 {
		teams = []string{"Bondi Icebergs", "Manly Masters", "Coogee Crocs"}
	}

	out := make([]results.Result, n)
	for i := range out {
		bib, err := random.String(4)
		if err != nil {
			t.Fatal(err)
		}
		r := results.Result{
			Bib:      bib,
			Name:     RandomName(t),
			Team:     teams[rand.IntN(len(teams))],
			Category: "Open",
		}
		if i%10 == 9 {
			r.Status = results.DNF
		} else {
			swim := 15*time.Minute + rand.N(20*time.Minute)
			run := 5*time.Minute + rand.N(20*time.Minute)
			r.Finish = (swim + run).Truncate(time.Second / 10)
			r.Splits = []results.Split{
				{Name: "swim", Time: swim.Truncate(time.Second / 10)},
				{Name: "run", Time: run.Truncate(time.Second / 10)},
			}
		}
		out[i] = r
	}

	results.AssignPlaces(out)
	results.Order(out)
	return out
}
