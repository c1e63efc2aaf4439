package analysis

import (
	"slices"
	"time"
)

const DefaultBin = time.Minute

// MaxBins bounds the number of bins a histogram may have.
const MaxBins = 10000

type Bin struct {
	Start time.Duration
	// End is exclusive.
	End   time.Duration
	Count int
}

// Histogram counts `durations` in bins of width `bin` aligned to
// multiples of `bin`, from the bin holding the minimum to the bin
// holding the maximum. Empty bins in between are kept. When that would
// take more than MaxBins bins, `bin` is widened by a whole multiple.
func Histogram(durations []time.Duration, bin time.Duration) []Bin {
	if len(durations) == 0 {
		return nil
	}
	if bin <= 0 {
		bin = DefaultBin
	}

	lo := slices.Min(durations)
	hi := slices.Max(durations)
	first, n := binRange(lo, hi, bin)
	for n > MaxBins {
		bin *= time.Duration((n + MaxBins - 1) / MaxBins)
		first, n = binRange(lo, hi, bin)
	}

	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Start = first + time.Duration(i)*bin
		bins[i].End = bins[i].Start + bin
	}
	for _, d := range durations {
		bins[int((d-first)/bin)].Count++
	}
	return bins
}

func binRange(lo, hi, bin time.Duration) (first time.Duration, n int64) {
	first = lo - lo%bin
	if lo < 0 && lo%bin != 0 {
		first -= bin
	}
	return first, int64((hi-first)/bin) + 1
}
