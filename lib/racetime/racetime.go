// Package racetime parses and formats the clock values printed on race
// result pages.
package racetime

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidTime = errors.New("invalid race time")

// MaxTime is the longest clock value Parse accepts.
const MaxTime = 1000 * time.Hour

func invalid(s string) error {
	return fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

// Parse accepts H:MM:SS, MM:SS and M:SS with optional fractional seconds.
// Only the leading field may be 60 or above, so "75:10" is 1h15m10s while
// "1:75:10" is rejected.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, invalid(s)
	}
	s = strings.ReplaceAll(s, ",", ".")

	fields := strings.Split(s, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, invalid(s)
	}

	last := fields[len(fields)-1]
	var frac time.Duration
	if whole, fracStr, ok := strings.Cut(last, "."); ok {
		if fracStr == "" || len(fracStr) > 3 {
			return 0, invalid(s)
		}
		n, err := strconv.Atoi(fracStr)
		if err != nil || n < 0 {
			return 0, invalid(s)
		}
		frac = time.Duration(n) * time.Second / time.Duration(math.Pow10(len(fracStr)))
		fields[len(fields)-1] = whole
	}

	var total time.Duration
	for i, f := range fields {
		if f == "" || strings.ContainsAny(f, "+-") {
			return 0, invalid(s)
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return 0, invalid(s)
		}
		if i > 0 && (n >= 60 || len(f) != 2) {
			return 0, invalid(s)
		}
		unit := time.Second
		for range fields[i+1:] {
			unit *= 60
		}
		if time.Duration(n) > MaxTime/unit {
			return 0, invalid(s)
		}
		total += time.Duration(n) * unit
	}
	total += frac
	if total > MaxTime {
		return 0, invalid(s)
	}
	return total, nil
}

// MustParse is Parse for literals, it panics on malformed input.
func MustParse(s string) time.Duration {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Format renders HH:MM:SS, truncating fractional seconds.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// FormatOptional is Format, but renders "N/A" for a zero duration.
func FormatOptional(d time.Duration) string {
	if d <= 0 {
		return "N/A"
	}
	return Format(d)
}

// FormatPrecise renders H:MM:SS.t (or M:SS.t below an hour).
func FormatPrecise(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	tenths := int64(d / (time.Second / 10))
	secs := tenths / 10
	if secs >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d.%d", secs/3600, (secs%3600)/60, secs%60, tenths%10)
	}
	return fmt.Sprintf("%d:%02d.%d", secs/60, secs%60, tenths%10)
}

// Seconds is the duration as fractional seconds, the unit used in
// datasets and charts.
func Seconds(d time.Duration) float64 {
	return d.Seconds()
}

func FromSeconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
