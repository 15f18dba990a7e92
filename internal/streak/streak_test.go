package streak

import (
	"testing"
	"time"

	"github.com/meenakshiar/looplist/internal/schedule"
	"github.com/stretchr/testify/assert"
)

// 2024-01-01 is a Monday.
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func days(offsets ...int) []time.Time {
	out := make([]time.Time, len(offsets))
	for i, o := range offsets {
		out[i] = monday.AddDate(0, 0, o)
	}
	return out
}

func daily(t *testing.T) schedule.Descriptor {
	t.Helper()
	d, err := schedule.New("daily", nil)
	assert.NoError(t, err)
	return d
}

func TestCompute_EmptyCompletions(t *testing.T) {
	got := Compute(daily(t), monday, nil, monday.AddDate(0, 0, 10))
	assert.Equal(t, Result{}, got)
}

func TestCompute_FutureStart(t *testing.T) {
	got := Compute(daily(t), monday.AddDate(0, 0, 5), days(0), monday)
	assert.Equal(t, Result{}, got)
}

func TestCompute_TodayLeniency(t *testing.T) {
	// Completions for every day through yesterday, none today.
	now := monday.AddDate(0, 0, 4)
	got := Compute(daily(t), monday, days(0, 1, 2, 3), now)
	assert.Equal(t, 4, got.CurrentStreak)
	assert.Equal(t, 4, got.LongestStreak)
}

func TestCompute_BreakOnPastMiss(t *testing.T) {
	// Days 0-2 done, gap on day 3, days 4-5 done, now = day 5.
	now := monday.AddDate(0, 0, 5)
	got := Compute(daily(t), monday, days(0, 1, 2, 4, 5), now)
	assert.Equal(t, 2, got.CurrentStreak)
	assert.Equal(t, 3, got.LongestStreak)
}

func TestCompute_Deterministic(t *testing.T) {
	now := monday.AddDate(0, 0, 9)
	completions := days(0, 1, 3, 4, 7)
	first := Compute(daily(t), monday, completions, now)
	second := Compute(daily(t), monday, completions, now)
	assert.Equal(t, first, second)
}

func TestCompute_InputOrderIrrelevant(t *testing.T) {
	now := monday.AddDate(0, 0, 5)
	sorted := days(0, 1, 2, 4, 5)
	shuffled := days(4, 0, 5, 2, 1)
	assert.Equal(t, Compute(daily(t), monday, sorted, now), Compute(daily(t), monday, shuffled, now))
}

func TestCompute_LongestAtLeastCurrent(t *testing.T) {
	cases := [][]int{
		{0},
		{0, 1, 2},
		{0, 2, 4},
		{1, 3, 5, 6, 7},
	}
	for _, offsets := range cases {
		got := Compute(daily(t), monday, days(offsets...), monday.AddDate(0, 0, 8))
		assert.GreaterOrEqual(t, got.LongestStreak, got.CurrentStreak)
	}
}

func TestCompute_WeekendsSkippedOnWeekdaysSchedule(t *testing.T) {
	d, err := schedule.New("weekdays", nil)
	assert.NoError(t, err)

	// Mon-Fri done, nothing Sat/Sun, then Mon done. The weekend gap must
	// not break the run.
	now := monday.AddDate(0, 0, 7) // next Monday
	got := Compute(d, monday, days(0, 1, 2, 3, 4, 7), now)
	assert.Equal(t, 6, got.CurrentStreak)
	assert.Equal(t, 6, got.LongestStreak)
}

func TestCompute_CustomDays(t *testing.T) {
	d, err := schedule.New("custom", []string{"tue", "thu"})
	assert.NoError(t, err)

	// Done on Tue(1), Thu(3), Tue(8); Thu(10) missed; now = Fri(11).
	now := monday.AddDate(0, 0, 11)
	got := Compute(d, monday, days(1, 3, 8), now)
	assert.Equal(t, 0, got.CurrentStreak)
	assert.Equal(t, 3, got.LongestStreak)
}

func TestCompute_DoneOnNonExpectedDayIgnored(t *testing.T) {
	d, err := schedule.New("weekdays", nil)
	assert.NoError(t, err)

	// A Saturday completion neither extends nor breaks anything.
	now := monday.AddDate(0, 0, 7)
	withSaturday := Compute(d, monday, days(0, 1, 2, 3, 4, 5, 7), now)
	withoutSaturday := Compute(d, monday, days(0, 1, 2, 3, 4, 7), now)
	assert.Equal(t, withoutSaturday, withSaturday)
}

func TestComputeStats_Daily(t *testing.T) {
	// 5 days elapsed (0..4 inclusive), 4 done.
	now := monday.AddDate(0, 0, 4)
	got := ComputeStats(daily(t), monday, days(0, 1, 2, 3), now)
	assert.Equal(t, 4, got.TotalCheckIns)
	assert.Equal(t, 5, got.ExpectedCheckIns)
	assert.Equal(t, 80, got.CompletionRate)
	assert.Equal(t, 1, got.CheckInsByDate["2024-01-01"])
	assert.Len(t, got.CheckInsByDate, 4)
}

func TestComputeStats_WeekdaysFilter(t *testing.T) {
	d, err := schedule.New("weekdays", nil)
	assert.NoError(t, err)

	// Start on Saturday, now the following Monday: only Monday is expected.
	saturday := monday.AddDate(0, 0, 5)
	now := saturday.AddDate(0, 0, 2)
	got := ComputeStats(d, saturday, nil, now)
	assert.Equal(t, 1, got.ExpectedCheckIns)
	assert.Equal(t, 0, got.TotalCheckIns)
	assert.Equal(t, 0, got.CompletionRate)
}

func TestComputeStats_VacuousRate(t *testing.T) {
	d, err := schedule.New("custom", []string{"fri"})
	assert.NoError(t, err)

	// Starting today on a Monday with a Friday-only schedule: zero
	// expected days so far, vacuously 100% complete.
	got := ComputeStats(d, monday, nil, monday)
	assert.Equal(t, 0, got.ExpectedCheckIns)
	assert.Equal(t, 100, got.CompletionRate)
}

func TestComputeStats_NonExpectedCompletionCountsTowardTotalOnly(t *testing.T) {
	d, err := schedule.New("weekdays", nil)
	assert.NoError(t, err)

	// Saturday completion inflates the numerator but not the denominator.
	now := monday.AddDate(0, 0, 6) // Sunday
	got := ComputeStats(d, monday, days(0, 1, 2, 3, 4, 5), now)
	assert.Equal(t, 6, got.TotalCheckIns)
	assert.Equal(t, 5, got.ExpectedCheckIns)
	assert.Equal(t, 120, got.CompletionRate)
}

func TestComputeStats_SharesPredicateWithCompute(t *testing.T) {
	// A 3x/week loop completed on every Mon/Wed/Fri for two weeks must
	// show both a perfect streak and a 100% rate; any divergence means
	// the two paths disagree on which days were expected.
	d, err := schedule.New("3x/week", nil)
	assert.NoError(t, err)

	completions := days(0, 2, 4, 7, 9, 11)
	now := monday.AddDate(0, 0, 11)

	res := Compute(d, monday, completions, now)
	stats := ComputeStats(d, monday, completions, now)
	assert.Equal(t, 6, res.CurrentStreak)
	assert.Equal(t, 6, res.LongestStreak)
	assert.Equal(t, 6, stats.ExpectedCheckIns)
	assert.Equal(t, 100, stats.CompletionRate)
}
