package api

import (
	"github.com/meenakshiar/looplist/internal"
	"github.com/meenakshiar/looplist/internal/storage"
)

type App interface {
	Logger() internal.Logger
	LoopRepo() storage.LoopRepository
	CheckInRepo() storage.CheckInRepository
}
