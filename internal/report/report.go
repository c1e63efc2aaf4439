package report

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"racestats/internal/analysis"
	"racestats/internal/results"
	"racestats/lib/racetime"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type Input struct {
	Races []results.Race
	// Scorers is the number of finishers counted per team.
	Scorers int
	// Exclude lists teams left out of the team rankings.
	Exclude []string
}

// NewTable creates a table writer in the style used by every report.
func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// SummaryHeader is the header row matching SummaryRow.
func SummaryHeader(first string) table.Row {
	return table.Row{first, "Count", "Mean", "Median", "Std Dev", "Min", "P25", "P75", "Max"}
}

func SummaryRow(label string, s analysis.Summary) table.Row {
	return table.Row{
		label,
		s.Count,
		racetime.FormatPrecise(s.Mean),
		racetime.FormatPrecise(s.Median),
		racetime.FormatPrecise(s.StdDev),
		racetime.FormatPrecise(s.Min),
		racetime.FormatPrecise(s.P25),
		racetime.FormatPrecise(s.P75),
		racetime.FormatPrecise(s.Max),
	}
}

func scorerNames(scorers analysis.Table) string {
	names := make([]string, len(scorers))
	for i, r := range scorers {
		names[i] = fmt.Sprintf("%s (%d)", r.Name, r.Place)
	}
	return strings.Join(names, ", ")
}

// RankingsTable renders team rankings.
func RankingsTable(w io.Writer, rankings []analysis.TeamRanking) {
	t := NewTable(w)
	t.SetTitle("Team rankings")
	t.AppendHeader(table.Row{"Rank", "Team", "Points", "Time", "Scorers"})
	for _, r := range rankings {
		rank := fmt.Sprint(r.Rank)
		if r.Incomplete {
			rank += "*"
		}
		t.AppendRow(table.Row{rank, r.Team, r.Points, racetime.FormatPrecise(r.Time), scorerNames(r.Scorers)})
	}
	if slices.ContainsFunc(rankings, func(r analysis.TeamRanking) bool { return r.Incomplete }) {
		t.AppendFooter(table.Row{"", "* incomplete team"})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
}

// ResultsTable renders results in the given order.
func ResultsTable(w io.Writer, title string, rs analysis.Table) {
	splits := results.SplitNames(rs)

	t := NewTable(w)
	t.SetTitle(title)
	header := table.Row{"Pos", "Bib", "Name", "Team", "Category", "Time"}
	for _, name := range splits {
		header = append(header, strings.ToUpper(name[:1])+name[1:])
	}
	t.AppendHeader(header)

	for _, r := range rs {
		place := "-"
		if r.Place > 0 {
			place = fmt.Sprint(r.Place)
		}
		finish := r.Status.String()
		if r.Finished() {
			finish = racetime.FormatPrecise(r.Finish)
		}
		row := table.Row{place, r.Bib, r.Name, r.Team, r.Category, finish}
		for _, name := range splits {
			split, _ := r.Split(name)
			row = append(row, racetime.FormatPrecise(split))
		}
		t.AppendRow(row)
	}
	t.Render()
}

// Render writes a text report of the races in `in`.
func Render(w io.Writer, in Input) error {
	if len(in.Races) == 0 {
		return fmt.Errorf("no races to report")
	}

	for _, race := range in.Races {
		fmt.Fprintln(w, race.Title())
		if race.SourceURL != "" {
			fmt.Fprintln(w, race.SourceURL)
		}
	}
	fmt.Fprintln(w)

	combined := analysis.Combine(in.Races...)
	finishers := combined.Finishers()
	fmt.Fprintf(w, "Finishers: %d of %d\n\n", len(finishers), len(combined))

	summary := NewTable(w)
	summary.SetTitle("Finish times")
	summary.AppendHeader(SummaryHeader(""))
	summary.AppendRow(SummaryRow("All", analysis.Describe(finishers.FinishTimes())))
	splits := analysis.DescribeSplits(combined)
	for _, name := range results.SplitNames(combined) {
		s, ok := splits[name]
		if !ok {
			continue
		}
		summary.AppendRow(SummaryRow(name, s))
	}
	summary.Render()
	fmt.Fprintln(w)

	rankings := analysis.TeamRankings(combined, in.Scorers, in.Exclude...)
	if len(rankings) > 0 {
		RankingsTable(w, rankings)
		fmt.Fprintln(w)
	}

	teams := NewTable(w)
	teams.SetTitle("Team finish times")
	teams.AppendHeader(SummaryHeader("Team"))
	for _, s := range analysis.DescribeTeams(combined) {
		teams.AppendRow(SummaryRow(s.Team, s.Summary))
	}
	teams.Render()
	fmt.Fprintln(w)

	for _, race := range in.Races {
		podium := analysis.Table(race.Results).Podium()
		if len(podium) == 0 {
			continue
		}
		ResultsTable(w, "Podium: "+race.Title(), podium)
		fmt.Fprintln(w)
	}

	return nil
}
