package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/meenakshiar/looplist/internal"
	"github.com/meenakshiar/looplist/internal/schedule"
	"github.com/meenakshiar/looplist/internal/storage"
)

var validate = validator.New()

type LoopRequest struct {
	Title      string    `json:"title" validate:"required,max=100"`
	Frequency  string    `json:"frequency" validate:"required"`
	CustomDays []string  `json:"custom_days,omitempty" validate:"omitempty,dive,required"`
	StartDate  time.Time `json:"start_date" validate:"required"`
	Visibility string    `json:"visibility,omitempty" validate:"omitempty,oneof=private public"`
	IconEmoji  string    `json:"icon_emoji,omitempty"`
}

// ValidateLoopRequest checks the struct tags and then builds the schedule
// descriptor, so an unknown frequency or a bad custom-day set is rejected
// before anything is persisted.
func ValidateLoopRequest(req *LoopRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	_, err := schedule.New(req.Frequency, req.CustomDays)
	return err
}

func CreateLoop(ctx context.Context, loopRepo storage.LoopRepository, user *internal.User, req *LoopRequest) (*internal.Loop, error) {
	visibility := req.Visibility
	if visibility == "" {
		visibility = "private"
	}
	loop := &internal.Loop{
		ID:         uuid.NewString(),
		OwnerID:    user.ID,
		Title:      req.Title,
		Frequency:  req.Frequency,
		CustomDays: req.CustomDays,
		StartDate:  schedule.Normalize(req.StartDate),
		Visibility: visibility,
		IconEmoji:  req.IconEmoji,
		CreatedAt:  time.Now(),
	}
	if err := loopRepo.CreateLoop(ctx, loop); err != nil {
		return nil, err
	}
	return loop, nil
}

func ListLoops(ctx context.Context, loopRepo storage.LoopRepository, user *internal.User) ([]internal.Loop, error) {
	return loopRepo.ListLoops(ctx, user.ID)
}

func GetLoop(ctx context.Context, loopRepo storage.LoopRepository, user *internal.User, loopID string) (*internal.Loop, error) {
	return loopRepo.GetLoop(ctx, loopID, user.ID)
}

// DeleteLoop removes a loop and cascades to its check-in records, so a
// deleted loop never leaves orphaned check-ins behind.
func DeleteLoop(ctx context.Context, loopRepo storage.LoopRepository, checkInRepo storage.CheckInRepository, user *internal.User, loopID string) error {
	if err := loopRepo.DeleteLoop(ctx, loopID, user.ID); err != nil {
		return err
	}
	return checkInRepo.DeleteCheckInsForLoop(ctx, loopID)
}

// descriptorFor rebuilds the schedule descriptor from a loop's persisted
// frequency fields. Loops are validated at creation, so an error here
// means the stored record predates validation or was edited out of band.
func descriptorFor(loop *internal.Loop) (schedule.Descriptor, error) {
	return schedule.New(loop.Frequency, loop.CustomDays)
}
