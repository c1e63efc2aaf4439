package scraper

import (
	"regexp"
	"strings"

	"racestats/internal/results"
)

type columnKind int

const (
	colUnknown columnKind = iota
	colPlace
	colBib
	colName
	colFirstName
	colLastName
	colTeam
	colCountry
	colCategory
	colTime
	colStatus
	colSplit
)

var headerSynonyms = map[string]columnKind{
	"pos":         colPlace,
	"position":    colPlace,
	"place":       colPlace,
	"rank":        colPlace,
	"overall":     colPlace,
	"#":           colPlace,
	"bib":         colBib,
	"bib no":      colBib,
	"bib number":  colBib,
	"race no":     colBib,
	"no":          colBib,
	"name":        colName,
	"athlete":     colName,
	"participant": colName,
	"swimmer":     colName,
	"competitor":  colName,
	"full name":   colName,
	"first name":  colFirstName,
	"given name":  colFirstName,
	"last name":   colLastName,
	"surname":     colLastName,
	"family name": colLastName,
	"team":        colTeam,
	"club":        colTeam,
	"squad":       colTeam,
	"team name":   colTeam,
	"club name":   colTeam,
	"country":     colCountry,
	"nat":         colCountry,
	"nation":      colCountry,
	"nationality": colCountry,
	"category":    colCategory,
	"cat":         colCategory,
	"age group":   colCategory,
	"division":    colCategory,
	"class":       colCategory,
	"time":        colTime,
	"finish":      colTime,
	"finish time": colTime,
	"total":       colTime,
	"total time":  colTime,
	"result":      colTime,
	"chip time":   colTime,
	"net time":    colTime,
	"status":      colStatus,
}

var headerNoise = regexp.MustCompile(`[^a-z0-9# ]+`)

func normalizeHeader(h string) string {
	h = strings.ToLower(h)
	h = headerNoise.ReplaceAllString(h, " ")
	return strings.Join(strings.Fields(h), " ")
}

func classifyHeader(h string) columnKind {
	normalized := normalizeHeader(h)
	if kind, ok := headerSynonyms[normalized]; ok {
		return kind
	}
	switch results.NormalizeSplitName(normalized) {
	case "swim", "t1", "t2", "bike", "run":
		return colSplit
	}
	return colUnknown
}

type column struct {
	kind  columnKind
	title string
}

type columnLayout []column

func (l columnLayout) has(kind columnKind) bool {
	return l.index(kind) >= 0
}

func (l columnLayout) index(kind columnKind) int {
	for i, c := range l {
		if c.kind == kind {
			return i
		}
	}
	return -1
}

// usable reports whether the layout can produce a participant and a time.
func (l columnLayout) usable() bool {
	hasName := l.has(colName) || (l.has(colFirstName) && l.has(colLastName))
	return hasName && l.has(colTime)
}
