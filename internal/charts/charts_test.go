package charts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"racestats/internal/analysis"
	"racestats/internal/results"

	"github.com/stretchr/testify/require"
)

func sampleTable() analysis.Table {
	var t analysis.Table
	for i := 0; i < 8; i++ {
		swim := time.Duration(10+i) * time.Minute
		run := time.Duration(20-i) * time.Minute
		t = append(t, results.Result{
			Place:  i + 1,
			Name:   []string{"Ava", "Liam", "Zoë", "Noah", "Mia", "Jack", "Ella", "Oscar"}[i],
			Team:   []string{"Bondi", "Manly"}[i%2],
			Finish: swim + run + time.Duration(i)*time.Second,
			Splits: []results.Split{
				{Name: "swim", Time: swim},
				{Name: "run", Time: run},
			},
		})
	}
	t = append(t, results.Result{Name: "Sofia", Status: results.DSQ})
	return t
}

func requireFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NotZero(t, info.Size())
}

func TestFinishHistogram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finish.png")
	err := FinishHistogram(context.Background(), sampleTable(), time.Minute, path)
	require.NoError(t, err)
	requireFile(t, path)
}

func TestTeamBars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teams.svg")
	err := TeamBars(context.Background(), analysis.DescribeTeams(sampleTable()), path)
	require.NoError(t, err)
	requireFile(t, path)
}

func TestSplitScatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swim_run.png")
	err := SplitScatter(context.Background(), sampleTable(), "Swim", "run", analysis.CenterMedian, "noah", path)
	require.NoError(t, err)
	requireFile(t, path)
}

func TestNoData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	err := FinishHistogram(ctx, nil, time.Minute, filepath.Join(dir, "a.png"))
	require.True(t, errors.Is(err, ErrNoData))

	err = TeamBars(ctx, nil, filepath.Join(dir, "b.png"))
	require.True(t, errors.Is(err, ErrNoData))

	err = SplitScatter(ctx, sampleTable(), "swim", "bike", analysis.CenterMean, "", filepath.Join(dir, "c.png"))
	require.True(t, errors.Is(err, ErrNoData))

	_, err = os.Stat(filepath.Join(dir, "a.png"))
	require.True(t, os.IsNotExist(err))
}
