package browser

import (
	"sync"

	log "github.com/sirupsen/logrus"

	bwerrors "brandwatch/pkg/errors"
)

// bootFunc is swappable in tests
type bootFunc func(Config) (Driver, error)

// Supervisor owns one long-lived browser session and restarts it whole when
// it drifts: after a fixed number of served items, or immediately after a
// reported interaction failure. Restarts draw from a bounded budget;
// exhausting it is a structured failure rather than a silent retry loop.
type Supervisor struct {
	name          string
	cfg           Config
	recycleEvery  int
	restartBudget int

	boot bootFunc

	mu       sync.Mutex
	driver   Driver
	served   int
	restarts int
}

// SupervisorConfig tunes session recycling.
type SupervisorConfig struct {
	// RecycleEvery is the number of served items between coarse restarts.
	RecycleEvery int
	// RestartBudget bounds the total restarts over the supervisor lifetime.
	RestartBudget int
}

// DefaultSupervisorConfig matches the field-study operating point.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		RecycleEvery:  500,
		RestartBudget: 50,
	}
}

func NewSupervisor(name string, cfg Config, sup SupervisorConfig) *Supervisor {
	if sup.RecycleEvery <= 0 {
		sup.RecycleEvery = 500
	}
	if sup.RestartBudget <= 0 {
		sup.RestartBudget = 50
	}
	return &Supervisor{
		name:          name,
		cfg:           cfg,
		recycleEvery:  sup.RecycleEvery,
		restartBudget: sup.RestartBudget,
		boot: func(cfg Config) (Driver, error) {
			return Boot(cfg)
		},
	}
}

// Session returns a live driver, booting or recycling as needed. Every call
// counts as one served item toward the recycle interval.
func (s *Supervisor) Session() (Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.driver != nil && s.served > 0 && s.served%s.recycleEvery == 0 {
		log.Infof("browser %s: recycling session after %d items", s.name, s.served)
		if err := s.restartLocked(); err != nil {
			return nil, err
		}
	}

	if s.driver == nil {
		if err := s.restartLocked(); err != nil {
			return nil, err
		}
	}

	s.served++
	return s.driver, nil
}

// ReportFailure quits the current session and boots a new one. Called after
// an interaction failure leaves the session in an unknown state.
func (s *Supervisor) ReportFailure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Warnf("browser %s: interaction failure reported, recycling session", s.name)
	return s.restartLocked()
}

// WindowCount reports open windows in the current session; zero when no
// session is live.
func (s *Supervisor) WindowCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.driver == nil {
		return 0, bwerrors.ErrBrowserNotReady
	}
	counter, ok := s.driver.(interface{ WindowCount() (int, error) })
	if !ok {
		return 0, bwerrors.ErrBrowserNotReady
	}
	return counter.WindowCount()
}

// Close shuts the supervised session down.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.driver == nil {
		return nil
	}
	err := s.driver.Close()
	s.driver = nil
	return err
}

// Restarts returns how many restarts have been consumed.
func (s *Supervisor) Restarts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts
}

func (s *Supervisor) restartLocked() error {
	if s.driver != nil {
		if err := s.driver.Close(); err != nil {
			log.Warnf("browser %s: close during restart: %v", s.name, err)
		}
		s.driver = nil
	}

	if s.restarts >= s.restartBudget {
		return bwerrors.ErrRestartBudget
	}
	s.restarts++

	driver, err := s.boot(s.cfg)
	if err != nil {
		return err
	}
	s.driver = driver
	log.Infof("browser %s: session started (restart %d/%d)", s.name, s.restarts, s.restartBudget)
	return nil
}
