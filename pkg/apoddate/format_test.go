package apoddate

import (
	"testing"
	"time"

	errs "apodget/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.October, 18, 14, 30, 0, 0, time.UTC)

func TestFormat(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), "240101"},
		{time.Date(1995, time.June, 16, 23, 59, 0, 0, time.UTC), "950616"},
		{time.Date(2000, time.December, 31, 0, 0, 0, 0, time.UTC), "001231"},
		{time.Date(2009, time.September, 5, 12, 0, 0, 0, time.UTC), "090905"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.date))
		})
	}
}

func TestToday(t *testing.T) {
	assert.Equal(t, "261018", Today(fixedNow))
}

func TestParse(t *testing.T) {
	got, err := Parse("240101", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = Parse("950616", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1995, time.June, 16, 0, 0, 0, 0, time.UTC), got)

	got, err = Parse("000229", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC), got)
}

func TestParseUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	got, err := Parse("240101", fixedNow.In(loc))
	require.NoError(t, err)
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, 0, got.Hour())
}

func TestParseCenturyBoundary(t *testing.T) {
	// Current two-digit year is 26
	got, err := Parse("260101", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year(), "year equal to current two-digit year maps to 2000s")

	got, err = Parse("270101", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1927, got.Year(), "year above current two-digit year maps to 1900s")

	got, err = Parse("990101", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1999, got.Year())

	got, err = Parse("000101", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 2000, got.Year())
}

func TestParseDeterministicForFixedNow(t *testing.T) {
	in2030 := time.Date(2030, time.March, 1, 0, 0, 0, 0, time.UTC)

	a, err := Parse("280505", fixedNow)
	require.NoError(t, err)
	b, err := Parse("280505", in2030)
	require.NoError(t, err)

	assert.Equal(t, 1928, a.Year())
	assert.Equal(t, 2028, b.Year())
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too short", "2401"},
		{"too long", "2401011"},
		{"letters", "24010a"},
		{"sign", "+40101"},
		{"non ascii digits", "２４０１０１"},
		{"month zero", "240001"},
		{"month thirteen", "241301"},
		{"day zero", "240100"},
		{"feb thirtieth", "240230"},
		{"feb 29 non leap", "230229"},
		{"april 31", "240431"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, fixedNow)
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.ErrorTypeValidation), "expected validation error, got %v", err)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{"240101", "950616", "000229", "991231", "261018", "500715", "010203"}

	for _, s := range inputs {
		t.Run(s, func(t *testing.T) {
			d, err := Parse(s, fixedNow)
			require.NoError(t, err)
			assert.Equal(t, s, Format(d))
		})
	}
}

func TestRoundTripAllDaysOfYear(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Year() == 2024; d = d.AddDate(0, 0, 1) {
		s := Format(d)
		parsed, err := Parse(s, fixedNow)
		require.NoError(t, err, s)
		require.Equal(t, d, parsed, s)
	}
}

func TestMidnight(t *testing.T) {
	assert.Equal(t, time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC), Midnight(fixedNow))
}
