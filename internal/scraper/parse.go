package scraper

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"racestats/internal/results"
	"racestats/lib/htmlutil"
	"racestats/lib/racetime"

	"github.com/PuerkitoBio/goquery"
)

var ErrNoResultsTable = errors.New("no results table found on page")

// Page is everything read from a single result page.
type Page struct {
	Name    string
	Date    time.Time
	Caption string
	// HasPlaces is true when the table carries its own position column.
	HasPlaces bool
	Results   []results.Result
	Next      *url.URL
	Warnings  []string
}

type ParseOptions struct {
	// Base is the url the page was fetched from, links are resolved against it.
	Base *url.URL
	// PageParam is the query parameter that selects the page of a paginated table.
	PageParam string
}

// ParsePage reads the first table on the page whose header has both a
// participant name and a finish time column.
func ParsePage(r io.Reader, opts ParseOptions) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	var page Page
	found := false
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		layout, rows := tableLayout(table)
		if !layout.usable() {
			return true
		}
		page.Caption = htmlutil.Text(table.Find("caption").First())
		page.HasPlaces = layout.has(colPlace)
		page.Results, page.Warnings = readRows(layout, rows)
		found = true
		return false
	})
	if !found {
		return Page{}, ErrNoResultsTable
	}

	page.Name = pageName(doc)
	page.Date = pageDate(doc)
	page.Next = nextPage(doc, opts)
	return page, nil
}

// cells expands a row into one entry per grid column, repeating cells
// that span several columns.
func cells(row *goquery.Selection) []*goquery.Selection {
	var out []*goquery.Selection
	row.Children().Filter("th, td").Each(func(_ int, cell *goquery.Selection) {
		span, err := strconv.Atoi(cell.AttrOr("colspan", "1"))
		if err != nil || span < 1 {
			span = 1
		}
		for i := 0; i < span; i++ {
			out = append(out, cell)
		}
	})
	return out
}

func tableLayout(table *goquery.Selection) (columnLayout, []*goquery.Selection) {
	allRows := table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		// rows of nested tables belong to those tables
		return tr.Closest("table").IsSelection(table)
	})

	if allRows.Length() == 0 {
		return nil, nil
	}

	isHeader := func(tr *goquery.Selection) bool {
		if tr.ParentFiltered("thead").Length() > 0 {
			return true
		}
		return tr.Children().Filter("td").Length() == 0 && tr.Children().Filter("th").Length() > 0
	}

	// multi-row headers use their last row for column titles
	headerIdx := -1
	for i := 0; i < allRows.Length(); i++ {
		if isHeader(allRows.Eq(i)) {
			headerIdx = i
			continue
		}
		if headerIdx >= 0 {
			break
		}
	}
	if headerIdx < 0 {
		headerIdx = 0
	}

	headerCells := cells(allRows.Eq(headerIdx))
	layout := make(columnLayout, len(headerCells))
	for i, cell := range headerCells {
		title := htmlutil.Text(cell)
		layout[i] = column{kind: classifyHeader(title), title: title}
	}

	var rows []*goquery.Selection
	allRows.Each(func(i int, tr *goquery.Selection) {
		if i <= headerIdx {
			return
		}
		rows = append(rows, tr)
	})

	detectSplits(layout, rows)
	return layout, rows
}

// detectSplits marks titled columns whose values are mostly clock times as splits.
func detectSplits(layout columnLayout, rows []*goquery.Selection) {
	for col := range layout {
		if layout[col].kind != colUnknown || layout[col].title == "" {
			continue
		}
		var filled, times int
		for _, row := range rows {
			rowCells := cells(row)
			if col >= len(rowCells) {
				continue
			}
			text := htmlutil.Text(rowCells[col])
			if text == "" || text == "-" {
				continue
			}
			filled++
			if _, err := racetime.Parse(text); err == nil {
				times++
			}
		}
		if filled > 0 && times*2 >= filled {
			layout[col].kind = colSplit
		}
	}
}

var leadingNumber = regexp.MustCompile(`\d+`)

func parsePlace(text string) int {
	match := leadingNumber.FindString(text)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

func readRows(layout columnLayout, rows []*goquery.Selection) ([]results.Result, []string) {
	var out []results.Result
	var warnings []string

	for _, row := range rows {
		rowCells := cells(row)
		text := func(kind columnKind) string {
			i := layout.index(kind)
			if i < 0 || i >= len(rowCells) {
				return ""
			}
			return htmlutil.Text(rowCells[i])
		}

		name := text(colName)
		if name == "" {
			name = strings.TrimSpace(text(colFirstName) + " " + text(colLastName))
		}
		if name == "" {
			continue
		}

		result := results.Result{
			Bib:      text(colBib),
			Name:     name,
			Team:     text(colTeam),
			Country:  text(colCountry),
			Category: text(colCategory),
		}

		placeText := text(colPlace)
		if status, ok := results.ParseStatus(placeText); ok {
			result.Status = status
		} else {
			result.Place = parsePlace(placeText)
		}
		if status, ok := results.ParseStatus(text(colStatus)); ok && status != results.Finished {
			result.Status = status
		}

		timeText := text(colTime)
		if status, ok := results.ParseStatus(timeText); ok {
			if status != results.Finished {
				result.Status = status
			}
		} else if timeText != "" && timeText != "-" {
			finish, err := racetime.Parse(timeText)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: unreadable time %q", name, timeText))
			}
			result.Finish = finish
		}
		if result.Status != results.Finished {
			result.Place = 0
		}

		for i, col := range layout {
			if col.kind != colSplit || i >= len(rowCells) {
				continue
			}
			splitText := htmlutil.Text(rowCells[i])
			if splitText == "" || splitText == "-" {
				continue
			}
			split, err := racetime.Parse(splitText)
			if err != nil {
				if _, isStatus := results.ParseStatus(splitText); !isStatus {
					warnings = append(warnings, fmt.Sprintf("%s: unreadable %s split %q", name, col.title, splitText))
				}
				continue
			}
			result.Splits = append(result.Splits, results.Split{
				Name: results.NormalizeSplitName(col.title),
				Time: split,
			})
		}

		out = append(out, result)
	}

	return out, warnings
}

func pageName(doc *goquery.Document) string {
	for _, selector := range []string{"h1", "h2", "title"} {
		name := htmlutil.Text(doc.Find(selector).First())
		if name != "" {
			return name
		}
	}
	return ""
}

var (
	isoDateRegex     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	slashDateRegex   = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`)
	writtenDateRegex = regexp.MustCompile(`\b(\d{1,2} (?:January|February|March|April|May|June|July|August|September|October|November|December) \d{4})\b`)
)

// parseDateText finds a date in free text, slashed dates are read day first.
func parseDateText(text string) (time.Time, bool) {
	if m := isoDateRegex.FindString(text); m != "" {
		if d, err := time.Parse(time.DateOnly, m); err == nil {
			return d, true
		}
	}
	if m := slashDateRegex.FindString(text); m != "" {
		if d, err := time.Parse("2/1/2006", m); err == nil {
			return d, true
		}
	}
	if m := writtenDateRegex.FindString(text); m != "" {
		if d, err := time.Parse("2 January 2006", m); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func pageDate(doc *goquery.Document) time.Time {
	if attr, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		if d, err := time.Parse(time.RFC3339, attr); err == nil {
			return d
		}
		if d, err := time.Parse(time.DateOnly, attr); err == nil {
			return d
		}
	}
	for _, selector := range []string{".date", ".event-date", "h1", "h2", "h3", "title"} {
		var found time.Time
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			d, ok := parseDateText(htmlutil.Text(s))
			if ok {
				found = d
			}
			return !ok
		})
		if !found.IsZero() {
			return found
		}
	}
	return time.Time{}
}

var nextLabels = map[string]struct{}{
	"next":   {},
	"next >": {},
	">":      {},
	">>":     {},
	"›":      {},
	"»":      {},
	"next ›": {},
	"next »": {},
}

func currentPage(base *url.URL, param string) int {
	if base == nil || param == "" {
		return 1
	}
	n, err := strconv.Atoi(base.Query().Get(param))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func nextPage(doc *goquery.Document, opts ParseOptions) *url.URL {
	if anchors := htmlutil.GetAnchors(opts.Base, doc.Find("a[rel~=next], link[rel~=next]")); len(anchors) > 0 {
		return anchors[0].Href
	}
	anchors := htmlutil.GetAnchors(opts.Base, doc.Find("a"))
	for _, a := range anchors {
		if _, ok := nextLabels[strings.ToLower(a.Name)]; ok {
			return a.Href
		}
	}

	if opts.PageParam == "" {
		return nil
	}
	want := strconv.Itoa(currentPage(opts.Base, opts.PageParam) + 1)
	for _, a := range anchors {
		if a.Href.Query().Get(opts.PageParam) == want {
			return a.Href
		}
	}
	return nil
}
