package storage

import (
	"context"
	"errors"
	"time"

	"github.com/meenakshiar/looplist/internal"
)

var (
	ErrLoopNotFound    = errors.New("storage: loop not found")
	ErrDuplicateTitle  = errors.New("storage: loop title already exists for owner")
	ErrCheckInNotFound = errors.New("storage: check-in not found")
	// ErrDuplicateCheckIn is the uniqueness backstop for (loop, date): a
	// racing second insert must surface this instead of creating a
	// duplicate record.
	ErrDuplicateCheckIn = errors.New("storage: check-in already exists for date")
)

type LoopRepository interface {
	CreateLoop(ctx context.Context, loop *internal.Loop) error
	GetLoop(ctx context.Context, loopID, ownerID string) (*internal.Loop, error)
	ListLoops(ctx context.Context, ownerID string) ([]internal.Loop, error)
	// ListLoopsStartedBefore returns every loop whose start date is on or
	// before the cutoff day, for the missed-day sweep.
	ListLoopsStartedBefore(ctx context.Context, cutoff time.Time) ([]internal.Loop, error)
	UpdateStreaks(ctx context.Context, loopID string, current, longest int) error
	DeleteLoop(ctx context.Context, loopID, ownerID string) error
}

type CheckInRepository interface {
	InsertCheckIn(ctx context.Context, checkIn *internal.CheckIn) error
	GetCheckIn(ctx context.Context, loopID string, date time.Time) (*internal.CheckIn, error)
	// ListCheckIns returns every check-in for a loop, newest first.
	ListCheckIns(ctx context.Context, loopID string) ([]internal.CheckIn, error)
	// ListDoneDates returns the days with a done check-in, ascending.
	ListDoneDates(ctx context.Context, loopID, userID string) ([]time.Time, error)
	DeleteCheckIn(ctx context.Context, loopID string, date time.Time) error
	DeleteCheckInsForLoop(ctx context.Context, loopID string) error
}

type AuthProvider interface {
	ValidateTokenLocal(token string) (*internal.User, error)
	ValidateTokenRemote(ctx context.Context, token string) (*internal.User, error)
}
