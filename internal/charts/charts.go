package charts

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"racestats/internal/analysis"
	"racestats/internal/results"
	"racestats/lib/telemetry"
	"racestats/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var tracer = telemetry.Tracer("racestats.internal.charts")

var ErrNoData = errors.New("nothing to plot")

var (
	Gold      = color.RGBA{R: 0xFF, G: 0xD7, B: 0x00, A: 0xFF}
	Silver    = color.RGBA{R: 0xC0, G: 0xC0, B: 0xC0, A: 0xFF}
	Bronze    = color.RGBA{R: 0xCD, G: 0x7F, B: 0x32, A: 0xFF}
	Default   = color.RGBA{R: 0x1F, G: 0x77, B: 0xB4, A: 0xFF}
	Highlight = color.RGBA{R: 0xFF, A: 0xFF}
)

const (
	width  = 8 * vg.Inch
	height = 5 * vg.Inch
)

var guideDashes = []vg.Length{vg.Points(6), vg.Points(4)}

func minutes(d time.Duration) float64 {
	return d.Minutes()
}

func save(ctx context.Context, p *plot.Plot, path string) error {
	_, span := tracer.Start(ctx, "save")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	err = p.Save(width, height, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save chart")
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	slog.DebugContext(ctx, "wrote chart", "path", path)
	return nil
}

// FinishHistogram plots the distribution of finish times in bins of width `bin`.
func FinishHistogram(ctx context.Context, t analysis.Table, bin time.Duration, path string) error {
	ctx, span := tracer.Start(ctx, "FinishHistogram")
	defer span.End()

	bins := analysis.Histogram(t.FinishTimes(), bin)
	if len(bins) == 0 {
		return ErrNoData
	}

	hist := &plotter.Histogram{
		Width:     minutes(bins[0].End - bins[0].Start),
		FillColor: Default,
		LineStyle: plotter.DefaultLineStyle,
	}
	for _, b := range bins {
		hist.Bins = append(hist.Bins, plotter.HistogramBin{
			Min:    minutes(b.Start),
			Max:    minutes(b.End),
			Weight: float64(b.Count),
		})
	}

	p := plot.New()
	p.Title.Text = "Finish times"
	p.X.Label.Text = "Finish time (minutes)"
	p.Y.Label.Text = "Participants"
	p.Add(plotter.NewGrid(), hist)

	return save(ctx, p, path)
}

// TeamBars plots the mean finish time of each team.
func TeamBars(ctx context.Context, summaries []analysis.TeamSummary, path string) error {
	ctx, span := tracer.Start(ctx, "TeamBars")
	defer span.End()

	if len(summaries) == 0 {
		return ErrNoData
	}

	values := make(plotter.Values, len(summaries))
	names := make([]string, len(summaries))
	for i, s := range summaries {
		values[i] = minutes(s.Mean)
		names[i] = s.Team
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return err
	}
	bars.Color = Default
	bars.LineStyle.Width = 0

	p := plot.New()
	p.Title.Text = "Mean finish time by team"
	p.Y.Label.Text = "Mean finish time (minutes)"
	p.Add(plotter.NewGrid(), bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = 0.6
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	return save(ctx, p, path)
}

type scatterGroup struct {
	label string
	color color.Color
	shape draw.GlyphDrawer
	size  vg.Length
	xys   plotter.XYs
}

func (g *scatterGroup) add(p *plot.Plot) error {
	if len(g.xys) == 0 {
		return nil
	}
	scatter, err := plotter.NewScatter(g.xys)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Color = g.color
	scatter.GlyphStyle.Shape = g.shape
	scatter.GlyphStyle.Radius = g.size
	p.Add(scatter)
	p.Legend.Add(g.label, scatter)
	return nil
}

func guide(from, to plotter.XY) (*plotter.Line, error) {
	line, err := plotter.NewLine(plotter.XYs{from, to})
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = color.Gray{Y: 0x60}
	line.LineStyle.Dashes = guideDashes
	return line, nil
}

// SplitScatter plots one point per finisher with split `x` against split
// `y`. Podium places are drawn in gold, silver and bronze, participants
// matching `highlight` in red. Dashed guide lines mark the `center` of each
// split.
func SplitScatter(ctx context.Context, t analysis.Table, x, y string, center analysis.Center, highlight, path string) error {
	ctx, span := tracer.Start(ctx, "SplitScatter")
	defer span.End()
	span.SetAttributes(
		attribute.String("x", x),
		attribute.String("y", y),
	)

	x = results.NormalizeSplitName(x)
	y = results.NormalizeSplitName(y)

	regular := &scatterGroup{label: "Participants", color: Default, shape: draw.CircleGlyph{}, size: vg.Points(3)}
	podium := []*scatterGroup{
		{label: "1st", color: Gold, shape: draw.CircleGlyph{}, size: vg.Points(5)},
		{label: "2nd", color: Silver, shape: draw.CircleGlyph{}, size: vg.Points(5)},
		{label: "3rd", color: Bronze, shape: draw.CircleGlyph{}, size: vg.Points(5)},
	}
	marked := &scatterGroup{label: highlight, color: Highlight, shape: draw.PyramidGlyph{}, size: vg.Points(6)}

	var xs, ys []time.Duration
	for _, r := range t {
		if !r.Finished() {
			continue
		}
		xv, okX := r.Split(x)
		yv, okY := r.Split(y)
		if !okX || !okY {
			continue
		}
		xs = append(xs, xv)
		ys = append(ys, yv)

		point := plotter.XY{X: minutes(xv), Y: minutes(yv)}
		switch {
		case highlight != "" && textutil.MatchName(r.Name, highlight):
			marked.xys = append(marked.xys, point)
		case r.Place >= 1 && r.Place <= 3:
			podium[r.Place-1].xys = append(podium[r.Place-1].xys, point)
		default:
			regular.xys = append(regular.xys, point)
		}
	}
	if len(xs) == 0 {
		return fmt.Errorf("%w: no finisher has both %s and %s", ErrNoData, x, y)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s vs %s", x, y)
	p.X.Label.Text = fmt.Sprintf("%s (minutes)", x)
	p.Y.Label.Text = fmt.Sprintf("%s (minutes)", y)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	xSummary := analysis.Describe(xs)
	ySummary := analysis.Describe(ys)
	xCenter := minutes(center.Of(xSummary))
	yCenter := minutes(center.Of(ySummary))

	vertical, err := guide(
		plotter.XY{X: xCenter, Y: minutes(ySummary.Min)},
		plotter.XY{X: xCenter, Y: minutes(ySummary.Max)},
	)
	if err != nil {
		return err
	}
	horizontal, err := guide(
		plotter.XY{X: minutes(xSummary.Min), Y: yCenter},
		plotter.XY{X: minutes(xSummary.Max), Y: yCenter},
	)
	if err != nil {
		return err
	}
	p.Add(vertical, horizontal)
	p.Legend.Add(center.String(), vertical)

	for _, group := range append([]*scatterGroup{regular}, append(podium, marked)...) {
		err := group.add(p)
		if err != nil {
			return err
		}
	}

	return save(ctx, p, path)
}
