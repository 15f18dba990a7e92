package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/meenakshiar/looplist/internal"
	"github.com/meenakshiar/looplist/internal/schedule"
	"github.com/meenakshiar/looplist/internal/storage"
)

type SweepReport struct {
	Processed      int       `json:"processed"`
	MissedCheckIns int       `json:"missed_check_ins"`
	Date           time.Time `json:"date"`
}

// SweepMissed backfills missed records for yesterday. For every loop whose
// start date has passed and whose schedule expected an action yesterday,
// a missed check-in is inserted unless any record already exists for that
// day, and the loop's streak summary is refreshed. Running the sweep twice
// for the same day is a no-op thanks to the (loop, date) uniqueness
// constraint, so it can be triggered by both the in-process ticker and an
// external cron without coordination.
func SweepMissed(ctx context.Context, loopRepo storage.LoopRepository, checkInRepo storage.CheckInRepository, logger internal.Logger, now time.Time) (SweepReport, error) {
	yesterday := schedule.Normalize(now).AddDate(0, 0, -1)

	loops, err := loopRepo.ListLoopsStartedBefore(ctx, yesterday)
	if err != nil {
		return SweepReport{}, err
	}

	report := SweepReport{Date: yesterday}
	for i := range loops {
		loop := &loops[i]

		desc, err := descriptorFor(loop)
		if err != nil {
			logger.Warnf("sweep: skipping loop %s with bad frequency %q: %v", loop.ID, loop.Frequency, err)
			continue
		}
		if !desc.ExpectsAction(yesterday) {
			continue
		}
		report.Processed++

		if _, err := checkInRepo.GetCheckIn(ctx, loop.ID, yesterday); err == nil {
			continue
		} else if !errors.Is(err, storage.ErrCheckInNotFound) {
			return report, err
		}

		missed := &internal.CheckIn{
			ID:        uuid.NewString(),
			LoopID:    loop.ID,
			UserID:    loop.OwnerID,
			Date:      yesterday,
			Status:    internal.CheckInMissed,
			CreatedAt: time.Now(),
		}
		if err := checkInRepo.InsertCheckIn(ctx, missed); err != nil {
			if errors.Is(err, storage.ErrDuplicateCheckIn) {
				// A concurrent sweep or check-in got there first.
				continue
			}
			return report, err
		}
		report.MissedCheckIns++

		if _, err := recomputeStreaks(ctx, loopRepo, checkInRepo, loop, loop.OwnerID, now); err != nil {
			return report, err
		}
	}

	logger.Infof("sweep: processed %d loops, inserted %d missed check-ins for %s",
		report.Processed, report.MissedCheckIns, schedule.DayKey(yesterday))
	return report, nil
}
