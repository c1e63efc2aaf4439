package teams

import (
	"slices"
	"strings"

	"racestats/internal/results"
	"racestats/lib/textutil"

	"github.com/antzucaro/matchr"
)

const (
	DefaultThreshold  = 0.92
	DefaultUnattached = "Unattached"
)

var unattachedNames = map[string]struct{}{
	"":            {},
	"na":          {},
	"none":        {},
	"unattached":  {},
	"independent": {},
	"individual":  {},
	"noclub":      {},
}

type Options struct {
	// Aliases maps an alternative spelling to the canonical team name.
	Aliases map[string]string
	// Threshold is the Jaro-Winkler similarity at which two team
	// names are considered the same team.
	Threshold  float64
	Unattached string
}

// Canonicalizer maps the many spellings of a team found on result
// pages to a single name. It is not safe for concurrent use.
type Canonicalizer struct {
	aliases    map[string]string
	threshold  float64
	unattached string
	seen       map[string]string
}

func NewCanonicalizer(opts Options) *Canonicalizer {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Unattached == "" {
		opts.Unattached = DefaultUnattached
	}

	aliases := make(map[string]string, len(opts.Aliases)*2)
	for alias, canonical := range opts.Aliases {
		canonical = clean(canonical)
		aliases[textutil.NormalizeName(alias)] = canonical
		aliases[textutil.NormalizeName(canonical)] = canonical
	}

	return &Canonicalizer{
		aliases:    aliases,
		threshold:  opts.Threshold,
		unattached: opts.Unattached,
		seen:       map[string]string{},
	}
}

func clean(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Unattached is the label given to participants without a team.
func (c *Canonicalizer) Unattached() string {
	return c.unattached
}

// Canonical returns the canonical spelling of `name` without fuzzy matching.
func (c *Canonicalizer) Canonical(name string) string {
	name = clean(name)
	key := textutil.NormalizeName(name)
	if _, ok := unattachedNames[key]; ok {
		return c.unattached
	}
	if key == textutil.NormalizeName(c.unattached) {
		return c.unattached
	}
	if canonical, ok := c.aliases[key]; ok {
		return canonical
	}
	if first, ok := c.seen[key]; ok {
		return first
	}
	c.seen[key] = name
	return name
}

func (c *Canonicalizer) similarity(a, b string) float64 {
	return matchr.JaroWinkler(textutil.NormalizeWords(a), textutil.NormalizeWords(b), false)
}

// Reconcile maps every spelling in `names` to its team. `names` should
// hold one entry per participant so teams with more members win when
// two spellings are merged.
func (c *Canonicalizer) Reconcile(names []string) map[string]string {
	members := map[string]int{}
	direct := make(map[string]string, len(names))
	for _, name := range names {
		if _, ok := direct[name]; ok {
			members[direct[name]]++
			continue
		}
		canonical := c.Canonical(name)
		direct[name] = canonical
		members[canonical]++
	}

	var candidates []string
	for canonical := range members {
		if canonical == c.unattached {
			continue
		}
		candidates = append(candidates, canonical)
	}
	slices.SortFunc(candidates, func(a, b string) int {
		if members[a] != members[b] {
			return members[b] - members[a]
		}
		return strings.Compare(a, b)
	})

	merged := make(map[string]string, len(candidates))
	var accepted []string
	for _, candidate := range candidates {
		// explicitly configured names are never merged into another team
		if _, aliased := c.aliases[textutil.NormalizeName(candidate)]; aliased {
			accepted = append(accepted, candidate)
			merged[candidate] = candidate
			continue
		}

		var best float64
		var bestTeam string
		for _, team := range accepted {
			similarity := c.similarity(candidate, team)
			if similarity > best {
				best = similarity
				bestTeam = team
			}
		}
		if best >= c.threshold {
			merged[candidate] = bestTeam
			continue
		}
		accepted = append(accepted, candidate)
		merged[candidate] = candidate
	}

	out := make(map[string]string, len(direct))
	for name, canonical := range direct {
		if team, ok := merged[canonical]; ok {
			out[name] = team
			continue
		}
		out[name] = canonical
	}
	return out
}

// Apply rewrites the team of every result to its reconciled name.
func (c *Canonicalizer) Apply(rs []results.Result) {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.Team
	}
	mapping := c.Reconcile(names)
	for i := range rs {
		rs[i].Team = mapping[rs[i].Team]
	}
}
