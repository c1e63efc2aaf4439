package teams

import (
	"testing"

	"racestats/internal/results"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	c := NewCanonicalizer(Options{
		Aliases: map[string]string{
			"MMSC": "Manly Masters",
		},
	})

	require.Equal(t, DefaultUnattached, c.Canonical(""))
	require.Equal(t, DefaultUnattached, c.Canonical(" - "))
	require.Equal(t, DefaultUnattached, c.Canonical("N/A"))
	require.Equal(t, DefaultUnattached, c.Canonical("Independent"))
	require.Equal(t, "Manly Masters", c.Canonical("mmsc"))
	require.Equal(t, "Manly Masters", c.Canonical("MANLY  masters"))

	require.Equal(t, "Bondi Icebergs", c.Canonical("  Bondi   Icebergs "))
	require.Equal(t, "Bondi Icebergs", c.Canonical("bondi icebergs"))
	require.Equal(t, "Bondi Icebergs", c.Canonical("Bondi-Icebergs"))
}

func TestReconcile(t *testing.T) {
	c := NewCanonicalizer(Options{Unattached: "No Club"})

	mapping := c.Reconcile([]string{
		"Bondi Icebergs",
		"Bondi Icebergs",
		"Bondi Icebergs SC",
		"Manly Masters",
		"Coogee Crocs",
		"",
	})

	expect := map[string]string{
		"Bondi Icebergs":    "Bondi Icebergs",
		"Bondi Icebergs SC": "Bondi Icebergs",
		"Manly Masters":     "Manly Masters",
		"Coogee Crocs":      "Coogee Crocs",
		"":                  "No Club",
	}
	if diff := cmp.Diff(expect, mapping); diff != "" {
		t.Fatal(diff)
	}
}

func TestReconcilePrefersLargerTeam(t *testing.T) {
	c := NewCanonicalizer(Options{})

	mapping := c.Reconcile([]string{
		"Bondi Icebergs SC",
		"Bondi Icebergs",
		"Bondi Icebergs SC",
	})
	require.Equal(t, "Bondi Icebergs SC", mapping["Bondi Icebergs"])
	require.Equal(t, "Bondi Icebergs SC", mapping["Bondi Icebergs SC"])
}

func TestReconcileThreshold(t *testing.T) {
	c := NewCanonicalizer(Options{Threshold: 0.999})

	mapping := c.Reconcile([]string{"Bondi Icebergs", "Bondi Icebergs SC"})
	require.Equal(t, "Bondi Icebergs", mapping["Bondi Icebergs"])
	require.Equal(t, "Bondi Icebergs SC", mapping["Bondi Icebergs SC"])
}

func TestApply(t *testing.T) {
	c := NewCanonicalizer(Options{})

	rs := []results.Result{
		{Name: "Ava Thompson", Team: "Bondi Icebergs"},
		{Name: "Liam O'Brien", Team: "Manly Masters"},
		{Name: "Zoë Park", Team: "Bondi Icebergs SC"},
		{Name: "Noah Williams"},
		{Name: "Jack Brown", Team: "bondi icebergs"},
	}
	c.Apply(rs)

	var got []string
	for _, r := range rs {
		got = append(got, r.Team)
	}
	require.Equal(t, []string{
		"Bondi Icebergs",
		"Manly Masters",
		"Bondi Icebergs",
		DefaultUnattached,
		"Bondi Icebergs",
	}, got)
}
