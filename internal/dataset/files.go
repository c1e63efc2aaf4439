package dataset

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"racestats/internal/results"
)

const (
	dateLayout       = "20060102"
	processedSuffix  = "_processed"
	unknownDate      = "00000000"
	CompetitionLocal = "csv"
)

var fileNamePattern = regexp.MustCompile(`^(.+)_(\d{8})_(.+)$`)

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}.\-]+`)

func sanitize(s string) string {
	s = unsafeChars.ReplaceAllString(strings.TrimSpace(s), "-")
	return strings.Trim(s, "-")
}

// FileName is the dataset file name of `race`: <event>_<YYYYMMDD>_<category>.csv
func FileName(race results.Race) string {
	event := sanitize(race.Name)
	if event == "" {
		event = sanitize(strings.ReplaceAll(race.Key.String(), "/", "-"))
	}
	date := unknownDate
	if !race.Date.IsZero() {
		date = race.Date.Format(dateLayout)
	}
	category := sanitize(race.Category)
	if category == "" {
		category = "all"
	}
	return fmt.Sprintf("%s_%s_%s.csv", event, date, category)
}

// ParseFileName extracts the event, date and category from a dataset
// file name. A trailing "_processed" is ignored.
func ParseFileName(name string) (event string, date time.Time, category string, ok bool) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.TrimSuffix(base, processedSuffix)

	match := fileNamePattern.FindStringSubmatch(base)
	if match == nil {
		return "", time.Time{}, "", false
	}
	if match[2] != unknownDate {
		parsed, err := time.Parse(dateLayout, match[2])
		if err != nil {
			return "", time.Time{}, "", false
		}
		date = parsed
	}
	return match[1], date, match[3], true
}

// Key identifies a race loaded from a dataset file in the store.
func Key(event string, date time.Time, category string) results.RaceKey {
	day := unknownDate
	if !date.IsZero() {
		day = date.Format(dateLayout)
	}
	return results.RaceKey{
		Competition: CompetitionLocal,
		Race:        event + "_" + day,
		Event:       category,
	}
}

// ReadFile reads a single dataset file into a race.
func ReadFile(path string) (results.Race, error) {
	event, date, category, ok := ParseFileName(path)
	if !ok {
		return results.Race{}, fmt.Errorf("%s does not match <event>_<YYYYMMDD>_<category>.csv", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return results.Race{}, err
	}
	defer f.Close()

	rs, err := ReadCSV(f, category)
	if err != nil {
		return results.Race{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	info, err := f.Stat()
	if err != nil {
		return results.Race{}, err
	}

	race := results.Race{
		Key:       Key(event, date, category),
		Name:      strings.ReplaceAll(event, "-", " "),
		Date:      date,
		Category:  category,
		SourceURL: "file://" + filepath.ToSlash(path),
		FetchedAt: info.ModTime().UTC().Truncate(time.Second),
		Results:   rs,
	}
	for i := range race.Results {
		race.Results[i].Race = race.Key
	}
	return race, nil
}

// LoadDir reads every dataset file in `dir`, files that are not named
// like datasets and files processed twice are skipped. Races are
// ordered by event, date, then category.
func LoadDir(ctx context.Context, dir string) ([]results.Race, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var races []results.Race
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if strings.HasSuffix(stem, processedSuffix+processedSuffix) {
			slog.DebugContext(ctx, "skipping reprocessed dataset", "file", name)
			continue
		}
		if _, _, _, ok := ParseFileName(name); !ok {
			slog.DebugContext(ctx, "skipping file not named like a dataset", "file", name)
			continue
		}

		race, err := ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		races = append(races, race)
	}

	slices.SortFunc(races, func(a, b results.Race) int {
		return cmp.Or(
			strings.Compare(a.Name, b.Name),
			a.Date.Compare(b.Date),
			strings.Compare(a.Category, b.Category),
		)
	})
	return races, nil
}

// WriteFile writes `race` into `dir` under its FileName and returns the path.
func WriteFile(dir string, race results.Race) (string, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(race))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	err = WriteCSV(f, race.Results)
	if err != nil {
		return "", err
	}
	return path, f.Close()
}
