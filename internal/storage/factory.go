package storage

import "github.com/meenakshiar/looplist/internal"

func NewFileRepositories(loopsFile, checkInsFile string, logger internal.Logger) (LoopRepository, CheckInRepository, error) {
	storage, err := NewFileStorage(loopsFile, checkInsFile, logger)
	if err != nil {
		return nil, nil, err
	}
	return storage, storage, nil
}

func NewPostgresRepositories(dsn string, logger internal.Logger) (LoopRepository, CheckInRepository, error) {
	storage, err := NewPostgresStorage(dsn, logger)
	if err != nil {
		return nil, nil, err
	}
	return storage, storage, nil
}
