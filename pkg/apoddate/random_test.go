package apoddate

import (
	"math/rand"
	"testing"
	"time"

	errs "apodget/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPicker(now time.Time, seed int64) *Picker {
	return &Picker{
		Clock: func() time.Time { return now },
		Rand:  rand.New(rand.NewSource(seed)),
	}
}

func TestPickWithinBounds(t *testing.T) {
	lower := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	picker := newTestPicker(fixedNow, 42)

	for i := 0; i < 2000; i++ {
		d, err := picker.Pick(lower)
		require.NoError(t, err)
		assert.False(t, d.Before(lower), "sampled %s before lower bound", d)
		assert.False(t, d.After(fixedNow), "sampled %s after now", d)
		assert.Equal(t, d, Midnight(d), "sampled value must be a calendar date")
	}
}

func TestPickSameDayRange(t *testing.T) {
	// Lower bound is today's midnight; every sample lands on today
	lower := Midnight(fixedNow)
	picker := newTestPicker(fixedNow, 7)

	for i := 0; i < 50; i++ {
		d, err := picker.Pick(lower)
		require.NoError(t, err)
		assert.Equal(t, lower, d)
	}
}

func TestPickRejectsEmptyRange(t *testing.T) {
	picker := newTestPicker(fixedNow, 1)

	_, err := picker.Pick(fixedNow)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeValidation))

	_, err = picker.Pick(fixedNow.AddDate(0, 0, 3))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeValidation))
}

func TestPickIsUniform(t *testing.T) {
	// Ten equal buckets of one hundred days each
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	lower := now.AddDate(0, 0, -1000)
	picker := newTestPicker(now, 2024)

	const samples = 20000
	const buckets = 10
	counts := make([]int, buckets)

	for i := 0; i < samples; i++ {
		d, err := picker.Pick(lower)
		require.NoError(t, err)
		days := int(d.Sub(lower).Hours() / 24)
		counts[days*buckets/1000]++
	}

	expected := samples / buckets
	for i, c := range counts {
		// Generous tolerance: a clustered sampler would miss by far more
		assert.InDelta(t, expected, c, float64(expected)*0.1, "bucket %d has %d samples", i, c)
	}
}

func TestPickDeterministicWithSeed(t *testing.T) {
	lower := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

	a := newTestPicker(fixedNow, 99)
	b := newTestPicker(fixedNow, 99)

	for i := 0; i < 10; i++ {
		da, err := a.Pick(lower)
		require.NoError(t, err)
		db, err := b.Pick(lower)
		require.NoError(t, err)
		assert.Equal(t, da, db)
	}
}

func TestZeroValuePicker(t *testing.T) {
	var picker Picker
	d, err := picker.Pick(FirstPublished)
	require.NoError(t, err)
	assert.False(t, d.Before(Midnight(FirstPublished)))
}
