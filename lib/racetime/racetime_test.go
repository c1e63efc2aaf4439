package racetime

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in     string
		expect time.Duration
	}{
		{in: "1:02:03", expect: time.Hour + 2*time.Minute + 3*time.Second},
		{in: "01:02:03", expect: time.Hour + 2*time.Minute + 3*time.Second},
		{in: "22:15", expect: 22*time.Minute + 15*time.Second},
		{in: "9:05", expect: 9*time.Minute + 5*time.Second},
		{in: "75:10", expect: 75*time.Minute + 10*time.Second},
		{in: " 21:03.4 ", expect: 21*time.Minute + 3*time.Second + 400*time.Millisecond},
		{in: "21:03,45", expect: 21*time.Minute + 3*time.Second + 450*time.Millisecond},
		{in: "0:21:03.123", expect: 21*time.Minute + 3*time.Second + 123*time.Millisecond},
		{in: "1000:00:00", expect: MaxTime},
	}
	for _, test := range cases {
		d, err := Parse(test.in)
		require.NoError(t, err, test.in)
		require.Equal(t, test.expect, d, test.in)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "DNF", "12", "1:75:10", "1:2:3", "10:5", "1:02:03:04", "1:-2", "21:03.", "21:03.1234", "a:bc", "9999999999999:00", "1000:00:01", "99999999999999999999:00"} {
		_, err := Parse(in)
		require.Error(t, err, in)
		require.True(t, errors.Is(err, ErrInvalidTime), in)
	}
}

func TestFormat(t *testing.T) {
	d := MustParse("1:02:03.9")
	require.Equal(t, "01:02:03", Format(d))
	require.Equal(t, "1:02:03.9", FormatPrecise(d))
	require.Equal(t, "21:03.4", FormatPrecise(MustParse("21:03.45")))
	require.Equal(t, "N/A", FormatOptional(0))
	require.Equal(t, "-", FormatPrecise(0))
	require.Equal(t, "00:00:00", Format(-time.Second))
}

func TestSecondsRoundTrip(t *testing.T) {
	d := MustParse("25:40.5")
	require.Equal(t, 1540.5, Seconds(d))
	require.Equal(t, d, FromSeconds(1540.5))
}
