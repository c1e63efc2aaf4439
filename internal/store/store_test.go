package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"racestats/internal/results"
	"racestats/internal/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) Store {
	t.Helper()
	database, err := Open(context.Background(), Config{File: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	return New(database)
}

func sampleRace() results.Race {
	key := results.RaceKey{Competition: "7", Race: "2", Event: "1"}
	return results.Race{
		Key:       key,
		Name:      "Harbour Swim Classic",
		Date:      time.Date(2024, time.February, 4, 0, 0, 0, 0, time.UTC),
		Category:  "2.5km Open",
		SourceURL: "https://results.example.com/results.php?comp=7&event=1&race=2",
		FetchedAt: time.Date(2024, time.February, 5, 8, 30, 0, 0, time.UTC),
		Results: []results.Result{
			{
				Place:    1,
				Bib:      "101",
				Name:     "Ava Thompson",
				Team:     "Bondi Icebergs",
				Category: "F20-24",
				Finish:   31*time.Minute + 2400*time.Millisecond,
				Splits: []results.Split{
					{Name: "swim", Time: 30 * time.Minute},
					{Name: "t1", Time: 62400 * time.Millisecond},
				},
				Race: key,
			},
			{
				Place:   2,
				Name:    "Liam O'Brien",
				Team:    "Manly Masters",
				Country: "AUS",
				Finish:  32*time.Minute + 15*time.Second,
				Race:    key,
			},
			{
				Name:   "Jack Brown",
				Status: results.DNF,
				Race:   key,
			},
		},
	}
}

func TestSaveAndLoadRace(t *testing.T) {
	store := openMemory(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	race := sampleRace()
	require.NoError(t, store.SaveRace(ctx, race))

	loaded, err := store.Race(ctx, race.Key)
	require.NoError(t, err)
	if diff := cmp.Diff(race, loaded); diff != "" {
		t.Fatal(diff)
	}

	races, err := store.Races(ctx)
	require.NoError(t, err)
	require.Len(t, races, 1)
	require.Equal(t, RaceInfo{
		Key:       race.Key,
		Name:      race.Name,
		Date:      race.Date,
		Category:  race.Category,
		Results:   3,
		FetchedAt: race.FetchedAt,
	}, races[0])
}

func TestSaveRaceReplaces(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	race := sampleRace()
	require.NoError(t, store.SaveRace(ctx, race))

	race.Name = "Harbour Swim Classic (revised)"
	race.Results = race.Results[:1]
	require.NoError(t, store.SaveRace(ctx, race))

	loaded, err := store.Race(ctx, race.Key)
	require.NoError(t, err)
	require.Equal(t, "Harbour Swim Classic (revised)", loaded.Name)
	require.Len(t, loaded.Results, 1)
	require.Len(t, loaded.Results[0].Splits, 2)

	races, err := store.Races(ctx)
	require.NoError(t, err)
	require.Len(t, races, 1)
	require.Equal(t, 1, races[0].Results)
}

func TestRaceNotFound(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()
	key := results.RaceKey{Competition: "1", Race: "1", Event: "1"}

	_, err := store.Race(ctx, key)
	require.True(t, errors.Is(err, ErrRaceNotFound))

	err = store.DeleteRace(ctx, key)
	require.True(t, errors.Is(err, ErrRaceNotFound))

	_, err = store.Load(ctx, []results.RaceKey{key})
	require.True(t, errors.Is(err, ErrRaceNotFound))
}

func TestDeleteRace(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	race := sampleRace()
	other := sampleRace()
	other.Key.Event = "2"
	other.Date = time.Time{}
	require.NoError(t, store.SaveRace(ctx, race))
	require.NoError(t, store.SaveRace(ctx, other))

	require.NoError(t, store.DeleteRace(ctx, race.Key))

	races, err := store.Races(ctx)
	require.NoError(t, err)
	require.Len(t, races, 1)
	require.Equal(t, other.Key, races[0].Key)
	require.True(t, races[0].Date.IsZero())

	loaded, err := store.Load(ctx, []results.RaceKey{other.Key})
	require.NoError(t, err)
	require.Len(t, loaded[0].Results, 3)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "racestats.db")

	database, err := Open(context.Background(), Config{File: path})
	require.NoError(t, err)
	store := New(database)
	require.NoError(t, store.SaveRace(context.Background(), sampleRace()))
	require.NoError(t, database.Close())

	database, err = Open(context.Background(), Config{File: path})
	require.NoError(t, err)
	defer database.Close()
	races, err := New(database).Races(context.Background())
	require.NoError(t, err)
	require.Len(t, races, 1)
}

func TestOpenWithoutConfig(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	require.Error(t, err)
}

func TestSaveRandomRace(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	key := results.RaceKey{Competition: "3", Race: "1", Event: "4"}
	race := results.Race{
		Key:     key,
		Name:    "Random Swim",
		Results: testutil.RandomResults(t, 40),
	}
	for i := range race.Results {
		race.Results[i].Race = key
	}
	require.NoError(t, store.SaveRace(ctx, race))

	loaded, err := store.Race(ctx, key)
	require.NoError(t, err)
	if diff := cmp.Diff(race.Results, loaded.Results); diff != "" {
		t.Fatal(diff)
	}
}
