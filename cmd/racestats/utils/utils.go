package utils

import (
	"context"
	"fmt"
	"os"

	"racestats/cmd/racestats/globals"
	"racestats/internal/analysis"
	"racestats/internal/results"

	"github.com/jedib0t/go-pretty/v6/table"
)

func NewTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func ParseKeys(args []string) ([]results.RaceKey, error) {
	keys := make([]results.RaceKey, len(args))
	for i, arg := range args {
		key, err := results.ParseKey(arg)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}
	return keys, nil
}

// LoadRaces loads stored races from their keys given as arguments.
func LoadRaces(ctx context.Context, args []string) ([]results.Race, error) {
	keys, err := ParseKeys(args)
	if err != nil {
		return nil, err
	}
	store, err := globals.Get(ctx).Store(ctx)
	if err != nil {
		return nil, err
	}
	races, err := store.Load(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("%w (run `racestats scrape` first or list stored races with `racestats races`)", err)
	}
	return races, nil
}

// LoadTable is LoadRaces combined into a single table.
func LoadTable(ctx context.Context, args []string) ([]results.Race, analysis.Table, error) {
	races, err := LoadRaces(ctx, args)
	if err != nil {
		return nil, nil, err
	}
	return races, analysis.Combine(races...), nil
}
