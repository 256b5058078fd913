package engine

import (
	"cardash/internal/models"
	"sync"
	"time"
)

// Store holds the most recently published dashboard data and the load status.
// Published data is never modified, so readers may keep the pointer.
type Store struct {
	mu      sync.RWMutex
	current *models.DashboardData
	status  models.LoadStatus
	now     func() time.Time
}

func NewStore() *Store {
	s := &Store{now: time.Now}
	s.status = models.LoadStatus{State: models.StateIdle, UpdatedAt: s.now()}
	return s
}

// Begin records that a load started.
func (s *Store) Begin(loadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.LoadsStarted++
	s.status.State = models.StateLoading
	s.status.LoadID = loadID
	s.status.UpdatedAt = s.now()
}

// Publish replaces the current data. The last call wins, whatever order the
// loads started in.
func (s *Store) Publish(data *models.DashboardData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = data
	s.status.LoadsCompleted++
	s.status.LoadID = data.LoadID
	s.status.LastError = ""
	s.settle(models.StateReady)
}

// Fail records a failed load. Previously published data stays available.
func (s *Store) Fail(loadID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.LoadsCompleted++
	s.status.LoadID = loadID
	s.status.LastError = err.Error()
	s.settle(models.StateFailed)
}

// settle keeps the state at loading while other loads are still running.
func (s *Store) settle(done models.LoadState) {
	if s.status.LoadsCompleted < s.status.LoadsStarted {
		s.status.State = models.StateLoading
	} else {
		s.status.State = done
	}
	s.status.UpdatedAt = s.now()
}

// Current returns the published data, or nil before the first successful load.
func (s *Store) Current() *models.DashboardData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) Status() models.LoadStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
