// Package streak derives streak and completion statistics for a loop from
// its schedule and its done check-in days. Everything here is a pure
// function over its arguments; the caller supplies the data and the clock.
package streak

import (
	"math"
	"time"

	"github.com/meenakshiar/looplist/internal/schedule"
)

type Result struct {
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
}

type Stats struct {
	TotalCheckIns    int            `json:"total_check_ins"`
	ExpectedCheckIns int            `json:"expected_check_ins"`
	CompletionRate   int            `json:"completion_rate"`
	CheckInsByDate   map[string]int `json:"check_ins_by_date"`
}

// Compute walks every calendar day from the loop's start date through
// today and derives the current and longest runs of completed expected
// days. Days the schedule does not expect neither extend nor break a run.
// A missing check-in for today does not break the current run: the user
// has until the end of the day.
func Compute(d schedule.Descriptor, startDate time.Time, completions []time.Time, now time.Time) Result {
	if len(completions) == 0 {
		return Result{}
	}

	start := schedule.Normalize(startDate)
	today := schedule.Normalize(now)

	done := daySet(completions)

	var running, longest int
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		if !d.ExpectsAction(day) {
			continue
		}
		if done[schedule.DayKey(day)] {
			running++
			if running > longest {
				longest = running
			}
		} else if day.Before(today) {
			running = 0
		}
	}

	return Result{CurrentStreak: running, LongestStreak: longest}
}

// ComputeStats derives the completion-rate view over the same day walk.
// The expected denominator uses the identical ExpectsAction predicate as
// Compute; the total counts every done record, including ones on days the
// schedule did not expect.
func ComputeStats(d schedule.Descriptor, startDate time.Time, completions []time.Time, now time.Time) Stats {
	start := schedule.Normalize(startDate)
	today := schedule.Normalize(now)

	expected := 0
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		if d.ExpectsAction(day) {
			expected++
		}
	}

	byDate := make(map[string]int, len(completions))
	for _, c := range completions {
		byDate[schedule.DayKey(c)]++
	}

	total := len(completions)
	rate := 100 // vacuously complete when no days were expected yet
	if expected > 0 {
		rate = int(math.Round(float64(total) / float64(expected) * 100))
	}

	return Stats{
		TotalCheckIns:    total,
		ExpectedCheckIns: expected,
		CompletionRate:   rate,
		CheckInsByDate:   byDate,
	}
}

// daySet builds the completed-day lookup. Membership is all the walk
// needs, so the store's return order never matters.
func daySet(completions []time.Time) map[string]bool {
	set := make(map[string]bool, len(completions))
	for _, d := range completions {
		set[schedule.DayKey(d)] = true
	}
	return set
}
