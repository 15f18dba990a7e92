package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/meenakshiar/looplist/internal"
	"github.com/meenakshiar/looplist/internal/schedule"
	"github.com/meenakshiar/looplist/internal/storage"
	"github.com/meenakshiar/looplist/internal/streak"
)

type CheckInResult struct {
	CheckIn *internal.CheckIn `json:"check_in"`
	Streaks streak.Result     `json:"streaks"`
}

type LoopStats struct {
	streak.Result
	streak.Stats
	StartDate time.Time `json:"start_date"`
}

// RecordCompletion marks a loop done for the given day and refreshes the
// loop's streak summary. Idempotent: a repeated check-in for the same day
// returns the existing record with the already-persisted streaks. A racing
// concurrent insert loses against the (loop, date) uniqueness constraint
// and is folded into the same already-checked-in path.
func RecordCompletion(ctx context.Context, loopRepo storage.LoopRepository, checkInRepo storage.CheckInRepository, user *internal.User, loopID string, day, now time.Time) (*CheckInResult, error) {
	loop, err := loopRepo.GetLoop(ctx, loopID, user.ID)
	if err != nil {
		return nil, err
	}

	day = schedule.Normalize(day)

	if existing, err := checkInRepo.GetCheckIn(ctx, loopID, day); err == nil {
		return &CheckInResult{
			CheckIn: existing,
			Streaks: streak.Result{CurrentStreak: loop.CurrentStreak, LongestStreak: loop.LongestStreak},
		}, nil
	} else if !errors.Is(err, storage.ErrCheckInNotFound) {
		return nil, err
	}

	checkIn := &internal.CheckIn{
		ID:        uuid.NewString(),
		LoopID:    loopID,
		UserID:    user.ID,
		Date:      day,
		Status:    internal.CheckInDone,
		CreatedAt: time.Now(),
	}
	if err := checkInRepo.InsertCheckIn(ctx, checkIn); err != nil {
		if errors.Is(err, storage.ErrDuplicateCheckIn) {
			existing, getErr := checkInRepo.GetCheckIn(ctx, loopID, day)
			if getErr != nil {
				return nil, getErr
			}
			checkIn = existing
		} else {
			return nil, err
		}
	}

	result, err := recomputeStreaks(ctx, loopRepo, checkInRepo, loop, user.ID, now)
	if err != nil {
		return nil, err
	}
	return &CheckInResult{CheckIn: checkIn, Streaks: result}, nil
}

// RetractCompletion deletes the check-in for the given day, if any, and
// refreshes the loop's streak summary.
func RetractCompletion(ctx context.Context, loopRepo storage.LoopRepository, checkInRepo storage.CheckInRepository, user *internal.User, loopID string, day, now time.Time) (streak.Result, error) {
	loop, err := loopRepo.GetLoop(ctx, loopID, user.ID)
	if err != nil {
		return streak.Result{}, err
	}

	if err := checkInRepo.DeleteCheckIn(ctx, loopID, schedule.Normalize(day)); err != nil {
		return streak.Result{}, err
	}

	return recomputeStreaks(ctx, loopRepo, checkInRepo, loop, user.ID, now)
}

func ListCheckIns(ctx context.Context, loopRepo storage.LoopRepository, checkInRepo storage.CheckInRepository, user *internal.User, loopID string) ([]internal.CheckIn, error) {
	if _, err := loopRepo.GetLoop(ctx, loopID, user.ID); err != nil {
		return nil, err
	}
	return checkInRepo.ListCheckIns(ctx, loopID)
}

// GetLoopStats combines the streak walk with the completion-rate view.
// Both run over the same descriptor and done-day snapshot.
func GetLoopStats(ctx context.Context, loopRepo storage.LoopRepository, checkInRepo storage.CheckInRepository, user *internal.User, loopID string, now time.Time) (*LoopStats, error) {
	loop, err := loopRepo.GetLoop(ctx, loopID, user.ID)
	if err != nil {
		return nil, err
	}

	desc, err := descriptorFor(loop)
	if err != nil {
		return nil, err
	}

	dates, err := checkInRepo.ListDoneDates(ctx, loopID, user.ID)
	if err != nil {
		return nil, err
	}

	return &LoopStats{
		Result:    streak.Compute(desc, loop.StartDate, dates, now),
		Stats:     streak.ComputeStats(desc, loop.StartDate, dates, now),
		StartDate: loop.StartDate,
	}, nil
}

// recomputeStreaks re-runs the streak engine over the loop's current done
// days and persists the summary. The engine itself never writes state;
// this is the single place where its result lands back on the loop.
func recomputeStreaks(ctx context.Context, loopRepo storage.LoopRepository, checkInRepo storage.CheckInRepository, loop *internal.Loop, userID string, now time.Time) (streak.Result, error) {
	desc, err := descriptorFor(loop)
	if err != nil {
		return streak.Result{}, err
	}

	dates, err := checkInRepo.ListDoneDates(ctx, loop.ID, userID)
	if err != nil {
		return streak.Result{}, err
	}

	result := streak.Compute(desc, loop.StartDate, dates, now)
	if err := loopRepo.UpdateStreaks(ctx, loop.ID, result.CurrentStreak, result.LongestStreak); err != nil {
		return streak.Result{}, err
	}
	return result, nil
}
