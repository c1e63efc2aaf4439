package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"racestats/internal/results"
	"racestats/lib/racetime"
)

const (
	colPlace    = "Pos"
	colBib      = "Bib No"
	colName     = "Name"
	colTeam     = "Team"
	colCountry  = "Country"
	colCategory = "Category"
	colStatus   = "Status"
	colTime     = "Time"

	secondsSuffix = "_seconds"
)

var fixedColumns = []string{
	colPlace, colBib, colName, colTeam, colCountry, colCategory, colStatus, colTime,
}

var splitTitles = map[string]string{
	"swim": "Swim",
	"t1":   "T1",
	"t2":   "T2",
	"bike": "Bike",
	"run":  "Run",
}

func splitTitle(name string) string {
	if title, ok := splitTitles[name]; ok {
		return title
	}
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func formatSeconds(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return strconv.FormatFloat(racetime.Seconds(d), 'f', -1, 64)
}

// WriteCSV writes `rs` with one row per result, every time column is
// followed by a `_seconds` column holding the same value in seconds.
func WriteCSV(w io.Writer, rs []results.Result) error {
	splits := results.SplitNames(rs)

	header := []string{
		colPlace, colBib, colName, colTeam, colCountry, colCategory, colStatus,
		colTime, colTime + secondsSuffix,
	}
	for _, name := range splits {
		title := splitTitle(name)
		header = append(header, title, title+secondsSuffix)
	}

	writer := csv.NewWriter(w)
	err := writer.Write(header)
	if err != nil {
		return err
	}

	for _, r := range rs {
		place := ""
		if r.Place > 0 {
			place = strconv.Itoa(r.Place)
		}
		finish := "N/A"
		if r.Finished() {
			finish = racetime.Format(r.Finish)
		}
		row := []string{
			place, r.Bib, r.Name, r.Team, r.Country, r.Category, r.Status.String(),
			finish, formatSeconds(r.Finish),
		}
		for _, name := range splits {
			split, ok := r.Split(name)
			if !ok || split <= 0 {
				row = append(row, "N/A", "")
				continue
			}
			row = append(row, racetime.Format(split), formatSeconds(split))
		}
		err := writer.Write(row)
		if err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

type layout struct {
	index  map[string]int
	splits []string
}

func readLayout(header []string) layout {
	l := layout{index: map[string]int{}}
	known := map[string]struct{}{}
	for _, c := range fixedColumns {
		known[strings.ToLower(c)] = struct{}{}
	}

	for i, title := range header {
		title = strings.TrimSpace(strings.TrimPrefix(title, "\ufeff"))
		key := strings.ToLower(title)
		l.index[key] = i
		if _, ok := known[key]; ok {
			continue
		}
		if strings.HasSuffix(key, secondsSuffix) {
			continue
		}
		l.splits = append(l.splits, key)
	}
	return l
}

func (l layout) get(row []string, column string) string {
	i, ok := l.index[strings.ToLower(column)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// duration reads a time column, the `_seconds` column is preferred
// since it keeps fractions of a second.
func (l layout) duration(row []string, column string) (time.Duration, bool) {
	if secs := l.get(row, column+secondsSuffix); secs != "" {
		value, err := strconv.ParseFloat(secs, 64)
		if err == nil && value > 0 {
			return racetime.FromSeconds(value), true
		}
	}
	value, err := racetime.Parse(l.get(row, column))
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

// ReadCSV reads results written by WriteCSV. Missing columns are left
// empty, `category` is used for rows without a category.
func ReadCSV(r io.Reader, category string) ([]results.Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	l := readLayout(header)
	if _, ok := l.index[strings.ToLower(colName)]; !ok {
		return nil, fmt.Errorf("missing %q column", colName)
	}

	hasPlaces := false
	var out []results.Result
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		result := results.Result{
			Bib:      l.get(row, colBib),
			Name:     l.get(row, colName),
			Team:     l.get(row, colTeam),
			Country:  l.get(row, colCountry),
			Category: l.get(row, colCategory),
		}
		if result.Name == "" {
			continue
		}
		if result.Category == "" {
			result.Category = category
		}

		place := l.get(row, colPlace)
		if n, err := strconv.Atoi(strings.TrimSuffix(place, ".")); err == nil && n > 0 {
			result.Place = n
			hasPlaces = true
		} else if status, ok := results.ParseStatus(place); ok {
			result.Status = status
		}
		if status, ok := results.ParseStatus(l.get(row, colStatus)); ok {
			result.Status = status
		}
		if status, ok := results.ParseStatus(l.get(row, colTime)); ok {
			result.Status = status
		}

		if finish, ok := l.duration(row, colTime); ok {
			result.Finish = finish
		}
		for _, name := range l.splits {
			split, ok := l.duration(row, name)
			if !ok {
				continue
			}
			result.Splits = append(result.Splits, results.Split{
				Name: results.NormalizeSplitName(name),
				Time: split,
			})
		}

		out = append(out, result)
	}

	if !hasPlaces {
		results.AssignPlaces(out)
	}
	for i := range out {
		if out[i].Status != results.Finished {
			out[i].Place = 0
		}
	}
	results.Order(out)
	return out, nil
}
