package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"racestats/internal/results"
	"racestats/lib/racetime"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func openFixture(t testing.TB, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func serveFixtures(t testing.TB, pages map[string]string) (*httptest.Server, *int64) {
	t.Helper()
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		key := r.URL.Query().Get("event") + ":" + r.URL.Query().Get("page")
		name, ok := pages[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		contents, err := os.ReadFile(filepath.Join("testdata", name))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(contents)
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func newTestClient(t testing.TB, baseUrl string) *Client {
	t.Helper()
	client, err := NewClient(ClientOptions{
		BaseUrl:           baseUrl,
		ResultsPath:       "results.php",
		RequestsPerSecond: 1000,
		Timeout:           time.Second * 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestParsePageOpenWater(t *testing.T) {
	base, err := url.Parse("https://results.example.com/results.php?comp=7&race=2&event=1")
	require.NoError(t, err)

	page, err := ParsePage(openFixture(t, "openwater_page1.html"), ParseOptions{
		Base:      base,
		PageParam: "page",
	})
	require.NoError(t, err)

	require.Equal(t, "Harbour Swim Classic 2.5km", page.Name)
	require.Equal(t, time.Date(2024, time.February, 4, 0, 0, 0, 0, time.UTC), page.Date)
	require.Equal(t, "2.5km Open", page.Caption)
	require.True(t, page.HasPlaces)
	require.Empty(t, page.Warnings)
	require.NotNil(t, page.Next)
	require.Equal(t, "2", page.Next.Query().Get("page"))

	expect := []results.Result{
		{Place: 1, Bib: "101", Name: "Ava Thompson", Team: "Bondi Icebergs", Category: "F20-24", Finish: racetime.MustParse("31:02.4")},
		{Place: 2, Bib: "214", Name: "Liam O'Brien", Team: "Manly Masters", Category: "M30-34", Finish: racetime.MustParse("32:15")},
		{Place: 3, Bib: "118", Name: "Zoë Park", Team: "Bondi Icebergs SC", Category: "F25-29", Finish: racetime.MustParse("33:40")},
	}
	if diff := cmp.Diff(expect, page.Results); diff != "" {
		t.Fatal(diff)
	}
}

func TestParsePageSplitsWithoutPlaces(t *testing.T) {
	page, err := ParsePage(openFixture(t, "aquathlon.html"), ParseOptions{})
	require.NoError(t, err)

	require.Equal(t, "Asia Cup Aquathlon", page.Name)
	require.Equal(t, time.Date(2024, time.March, 17, 0, 0, 0, 0, time.UTC), page.Date)
	require.False(t, page.HasPlaces)
	require.Nil(t, page.Next)
	require.Len(t, page.Results, 4)

	hana := page.Results[0]
	require.Equal(t, "Hana Sato", hana.Name)
	require.Equal(t, "JPN", hana.Country)
	require.Equal(t, []results.Split{
		{Name: "swim", Time: racetime.MustParse("11:20")},
		{Name: "t1", Time: racetime.MustParse("0:45")},
		{Name: "run", Time: racetime.MustParse("17:10")},
	}, hana.Splits)

	sofia := page.Results[3]
	require.Equal(t, results.DSQ, sofia.Status)
	require.Equal(t, []results.Split{{Name: "swim", Time: racetime.MustParse("13:05")}}, sofia.Splits)
}

func TestParsePageNoTable(t *testing.T) {
	_, err := ParsePage(openFixture(t, "empty.html"), ParseOptions{})
	require.True(t, errors.Is(err, ErrNoResultsTable))
}

func TestClassifyHeader(t *testing.T) {
	require.Equal(t, colPlace, classifyHeader(" Pos. "))
	require.Equal(t, colBib, classifyHeader("Bib No"))
	require.Equal(t, colTeam, classifyHeader("CLUB"))
	require.Equal(t, colSplit, classifyHeader("Swim Time"))
	require.Equal(t, colUnknown, classifyHeader("Comments"))
}

func TestResultsURL(t *testing.T) {
	client := newTestClient(t, "https://results.example.com/live/?lang=en")
	key := results.RaceKey{Competition: "7", Race: "2", Event: "1"}

	first, err := url.Parse(client.ResultsURL(key, 1))
	require.NoError(t, err)
	require.Equal(t, "/live/results.php", first.Path)
	require.Equal(t, "en", first.Query().Get("lang"))
	require.Equal(t, "7", first.Query().Get("comp"))
	require.Equal(t, "2", first.Query().Get("race"))
	require.Equal(t, "1", first.Query().Get("event"))
	require.False(t, first.Query().Has("page"))

	second, err := url.Parse(client.ResultsURL(key, 2))
	require.NoError(t, err)
	require.Equal(t, "2", second.Query().Get("page"))
}

func TestFetchRaceFollowsPages(t *testing.T) {
	server, hits := serveFixtures(t, map[string]string{
		"1:":  "openwater_page1.html",
		"1:1": "openwater_page1.html",
		"1:2": "openwater_page2.html",
	})
	client := newTestClient(t, server.URL)
	key := results.RaceKey{Competition: "7", Race: "2", Event: "1"}

	race, err := client.FetchRace(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, int64(2), atomic.LoadInt64(hits))

	require.Equal(t, key, race.Key)
	require.Equal(t, "Harbour Swim Classic 2.5km", race.Name)
	require.Equal(t, "2.5km Open", race.Category)
	require.Len(t, race.Results, 6)

	var names []string
	for _, r := range race.Results {
		require.Equal(t, key, r.Race)
		names = append(names, r.Name)
	}
	require.Equal(t, []string{
		"Ava Thompson", "Liam O'Brien", "Zoë Park", "Noah Williams", "Mia Chen", "Jack Brown",
	}, names)

	last := race.Results[5]
	require.Equal(t, results.DNF, last.Status)
	require.Equal(t, 0, last.Place)
}

func TestFetchRaceAssignsPlaces(t *testing.T) {
	server, _ := serveFixtures(t, map[string]string{"9:": "aquathlon.html"})
	client := newTestClient(t, server.URL)

	race, err := client.FetchRace(context.Background(), results.RaceKey{Competition: "1", Race: "1", Event: "9"})
	require.NoError(t, err)

	var places []int
	for _, r := range race.Results {
		places = append(places, r.Place)
	}
	require.Equal(t, []int{1, 1, 3, 0}, places)
}

func TestFetchRaceUnexpectedStatus(t *testing.T) {
	server, _ := serveFixtures(t, map[string]string{})
	client := newTestClient(t, server.URL)

	_, err := client.FetchRace(context.Background(), results.RaceKey{Competition: "1", Race: "1", Event: "404"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnexpectedStatus))
}

func TestFetchRacesPartialFailure(t *testing.T) {
	server, _ := serveFixtures(t, map[string]string{
		"9:":  "aquathlon.html",
		"1:":  "openwater_page1.html",
		"1:2": "openwater_page2.html",
	})
	client := newTestClient(t, server.URL)

	keys := []results.RaceKey{
		{Competition: "1", Race: "1", Event: "9"},
		{Competition: "1", Race: "1", Event: "404"},
		{Competition: "1", Race: "1", Event: "1"},
	}
	races, err := client.FetchRaces(context.Background(), keys, 2)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnexpectedStatus))
	require.Len(t, races, 2)
	require.Equal(t, "1", races[0].Key.Event)
	require.Equal(t, "9", races[1].Key.Event)
	require.Len(t, races[0].Results, 6)
}

func TestNewClientRejectsRelativeBase(t *testing.T) {
	_, err := NewClient(ClientOptions{BaseUrl: "/results"})
	require.Error(t, err)
}
