package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/meenakshiar/looplist/internal"
	"github.com/meenakshiar/looplist/internal/schedule"
)

type FileStorage struct {
	loops             map[string]*internal.Loop       // loopID -> Loop
	ownerLoopIndex    map[string][]*internal.Loop     // ownerID -> loops (newest first)
	checkIns          map[string]*internal.CheckIn    // loopID|day -> CheckIn
	loopCheckInIndex  map[string][]*internal.CheckIn  // loopID -> check-ins (ascending by date)
	mu                sync.RWMutex
	loopsFile         string
	checkInsFile      string
	saveLoopsChan     chan struct{}
	saveCheckInsChan  chan struct{}
	shutdownChan      chan struct{}
	saveLoopsDelay    time.Duration
	saveCheckInsDelay time.Duration
	logger            internal.Logger
}

func NewFileStorage(loopsFile, checkInsFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		loops:             make(map[string]*internal.Loop),
		ownerLoopIndex:    make(map[string][]*internal.Loop),
		checkIns:          make(map[string]*internal.CheckIn),
		loopCheckInIndex:  make(map[string][]*internal.CheckIn),
		loopsFile:         loopsFile,
		checkInsFile:      checkInsFile,
		saveLoopsChan:     make(chan struct{}, 1),
		saveCheckInsChan:  make(chan struct{}, 1),
		shutdownChan:      make(chan struct{}),
		saveLoopsDelay:    500 * time.Millisecond,
		saveCheckInsDelay: 500 * time.Millisecond,
		logger:            logger,
	}

	if err := s.loadLoops(); err != nil {
		logger.Errorf("storage: failed to load loops: %v", err)
		return nil, err
	}
	if err := s.loadCheckIns(); err != nil {
		logger.Errorf("storage: failed to load check-ins: %v", err)
		return nil, err
	}

	go s.saveLoopsWorker()
	go s.saveCheckInsWorker()

	return s, nil
}

func checkInKey(loopID string, date time.Time) string {
	return loopID + "|" + schedule.DayKey(date)
}

func (s *FileStorage) loadLoops() error {
	file, err := os.Open(s.loopsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	var loops []*internal.Loop
	if err := json.NewDecoder(file).Decode(&loops); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range loops {
		s.loops[l.ID] = l
		s.ownerLoopIndex[l.OwnerID] = append(s.ownerLoopIndex[l.OwnerID], l)
	}

	// Sort each owner's loops newest first
	for ownerID := range s.ownerLoopIndex {
		sort.Slice(s.ownerLoopIndex[ownerID], func(i, j int) bool {
			return s.ownerLoopIndex[ownerID][i].CreatedAt.After(s.ownerLoopIndex[ownerID][j].CreatedAt)
		})
	}

	return nil
}

func (s *FileStorage) loadCheckIns() error {
	file, err := os.Open(s.checkInsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	var checkIns []*internal.CheckIn
	if err := json.NewDecoder(file).Decode(&checkIns); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range checkIns {
		s.checkIns[checkInKey(c.LoopID, c.Date)] = c
		s.loopCheckInIndex[c.LoopID] = append(s.loopCheckInIndex[c.LoopID], c)
	}

	// Sort each loop's check-ins ascending by date
	for loopID := range s.loopCheckInIndex {
		sort.Slice(s.loopCheckInIndex[loopID], func(i, j int) bool {
			return s.loopCheckInIndex[loopID][i].Date.Before(s.loopCheckInIndex[loopID][j].Date)
		})
	}

	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

// saveLoops encodes a value snapshot taken under the lock:
// UpdateStreaks mutates stored loops in place, so handing the shared
// pointers to the JSON encoder after unlocking would race with it.
func (s *FileStorage) saveLoops() error {
	s.mu.RLock()
	loops := make([]internal.Loop, 0, len(s.loops))
	for _, l := range s.loops {
		loops = append(loops, *l)
	}
	s.mu.RUnlock()

	return atomicWriteFileJSON(s.loopsFile, loops)
}

func (s *FileStorage) saveCheckIns() error {
	s.mu.RLock()
	checkIns := make([]internal.CheckIn, 0, len(s.checkIns))
	for _, c := range s.checkIns {
		checkIns = append(checkIns, *c)
	}
	s.mu.RUnlock()

	return atomicWriteFileJSON(s.checkInsFile, checkIns)
}

// saveLoopsWorker batches save operations to avoid frequent disk writes
func (s *FileStorage) saveLoopsWorker() {
	timer := time.NewTimer(s.saveLoopsDelay)
	defer timer.Stop()

	for {
		select {
		case <-s.saveLoopsChan:
			timer.Reset(s.saveLoopsDelay)
		case <-timer.C:
			if err := s.saveLoops(); err != nil {
				s.logger.Errorf("storage: error saving loops: %v", err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *FileStorage) saveCheckInsWorker() {
	timer := time.NewTimer(s.saveCheckInsDelay)
	defer timer.Stop()

	for {
		select {
		case <-s.saveCheckInsChan:
			timer.Reset(s.saveCheckInsDelay)
		case <-timer.C:
			if err := s.saveCheckIns(); err != nil {
				s.logger.Errorf("storage: error saving check-ins: %v", err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *FileStorage) signalSaveLoops() {
	select {
	case s.saveLoopsChan <- struct{}{}:
	default:
	}
}

func (s *FileStorage) signalSaveCheckIns() {
	select {
	case s.saveCheckInsChan <- struct{}{}:
	default:
	}
}

func (s *FileStorage) Close() error {
	close(s.shutdownChan)

	// Save pending data synchronously on shutdown
	if err := s.saveLoops(); err != nil {
		return err
	}
	if err := s.saveCheckIns(); err != nil {
		return err
	}
	return nil
}

// --- LoopRepository ---

func (s *FileStorage) CreateLoop(ctx context.Context, loop *internal.Loop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.ownerLoopIndex[loop.OwnerID] {
		if existing.Title == loop.Title {
			return ErrDuplicateTitle
		}
	}

	s.loops[loop.ID] = loop
	s.ownerLoopIndex[loop.OwnerID] = append([]*internal.Loop{loop}, s.ownerLoopIndex[loop.OwnerID]...)
	s.signalSaveLoops()
	return nil
}

func (s *FileStorage) GetLoop(ctx context.Context, loopID, ownerID string) (*internal.Loop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.loops[loopID]
	if !ok || l.OwnerID != ownerID {
		return nil, ErrLoopNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *FileStorage) ListLoops(ctx context.Context, ownerID string) ([]internal.Loop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loopsPtr := s.ownerLoopIndex[ownerID]
	loops := make([]internal.Loop, len(loopsPtr))
	for i, l := range loopsPtr {
		loops[i] = *l
	}
	return loops, nil
}

func (s *FileStorage) ListLoopsStartedBefore(ctx context.Context, cutoff time.Time) ([]internal.Loop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day := schedule.Normalize(cutoff)
	var loops []internal.Loop
	for _, l := range s.loops {
		if !schedule.Normalize(l.StartDate).After(day) {
			loops = append(loops, *l)
		}
	}
	sort.Slice(loops, func(i, j int) bool { return loops[i].ID < loops[j].ID })
	return loops, nil
}

func (s *FileStorage) UpdateStreaks(ctx context.Context, loopID string, current, longest int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loops[loopID]
	if !ok {
		return ErrLoopNotFound
	}
	l.CurrentStreak = current
	l.LongestStreak = longest
	s.signalSaveLoops()
	return nil
}

func (s *FileStorage) DeleteLoop(ctx context.Context, loopID, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loops[loopID]
	if !ok || l.OwnerID != ownerID {
		return ErrLoopNotFound
	}
	delete(s.loops, loopID)
	owned := s.ownerLoopIndex[ownerID]
	for i, candidate := range owned {
		if candidate.ID == loopID {
			s.ownerLoopIndex[ownerID] = append(owned[:i], owned[i+1:]...)
			break
		}
	}
	s.signalSaveLoops()
	return nil
}

// --- CheckInRepository ---

func (s *FileStorage) InsertCheckIn(ctx context.Context, checkIn *internal.CheckIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := checkInKey(checkIn.LoopID, checkIn.Date)
	if _, exists := s.checkIns[key]; exists {
		return ErrDuplicateCheckIn
	}

	s.checkIns[key] = checkIn

	// Insert into the per-loop index maintaining ascending date order
	index := s.loopCheckInIndex[checkIn.LoopID]
	inserted := false
	for i, existing := range index {
		if checkIn.Date.Before(existing.Date) {
			index = append(index[:i], append([]*internal.CheckIn{checkIn}, index[i:]...)...)
			inserted = true
			break
		}
	}
	if !inserted {
		index = append(index, checkIn)
	}
	s.loopCheckInIndex[checkIn.LoopID] = index

	s.signalSaveCheckIns()
	return nil
}

func (s *FileStorage) GetCheckIn(ctx context.Context, loopID string, date time.Time) (*internal.CheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.checkIns[checkInKey(loopID, date)]
	if !ok {
		return nil, ErrCheckInNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *FileStorage) ListCheckIns(ctx context.Context, loopID string) ([]internal.CheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	index := s.loopCheckInIndex[loopID]
	checkIns := make([]internal.CheckIn, len(index))
	// Index is ascending; reverse for newest first
	for i, c := range index {
		checkIns[len(index)-1-i] = *c
	}
	return checkIns, nil
}

func (s *FileStorage) ListDoneDates(ctx context.Context, loopID, userID string) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var dates []time.Time
	for _, c := range s.loopCheckInIndex[loopID] {
		if c.UserID == userID && c.Status == internal.CheckInDone {
			dates = append(dates, c.Date)
		}
	}
	return dates, nil
}

func (s *FileStorage) DeleteCheckIn(ctx context.Context, loopID string, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := checkInKey(loopID, date)
	c, ok := s.checkIns[key]
	if !ok {
		return ErrCheckInNotFound
	}
	delete(s.checkIns, key)

	index := s.loopCheckInIndex[loopID]
	for i, existing := range index {
		if existing == c {
			s.loopCheckInIndex[loopID] = append(index[:i], index[i+1:]...)
			break
		}
	}

	s.signalSaveCheckIns()
	return nil
}

func (s *FileStorage) DeleteCheckInsForLoop(ctx context.Context, loopID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.loopCheckInIndex[loopID] {
		delete(s.checkIns, checkInKey(c.LoopID, c.Date))
	}
	delete(s.loopCheckInIndex, loopID)

	s.signalSaveCheckIns()
	return nil
}

// --- Compile-time assertions ---
var _ LoopRepository = (*FileStorage)(nil)
var _ CheckInRepository = (*FileStorage)(nil)
