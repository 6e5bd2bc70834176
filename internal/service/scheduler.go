package service

import (
	"context"
	"sync"
	"time"

	"skinsignal-api/internal/model"

	"go.uber.org/zap"
)

// SteamIDLister enumerates every known user.
type SteamIDLister interface {
	ListSteamIDs(ctx context.Context) ([]string, error)
}

// Snapshotter takes one snapshot for a user.
type Snapshotter interface {
	TakeSnapshot(ctx context.Context, steamID string) (*model.SnapshotResult, error)
}

// DailyConfig holds configuration for the daily snapshot scheduler.
type DailyConfig struct {
	// Interval is how often a full sweep runs.
	// Default: 24 hours
	Interval time.Duration

	// Timeout bounds a single sweep over all users.
	// Default: 30 minutes
	Timeout time.Duration
}

// DailyResult is the outcome for one user in a sweep.
type DailyResult struct {
	SteamID string   `json:"steam_id"`
	OK      bool     `json:"ok"`
	Total   *float64 `json:"total,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// DailyScheduler snapshots every known user on a fixed interval.
// Users are processed one at a time so a sweep never bursts the inventory source.
type DailyScheduler struct {
	users     SteamIDLister
	snapshots Snapshotter
	config    DailyConfig
	log       *zap.Logger

	ticker    *time.Ticker
	stopCh    chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
	sweepMu   sync.Mutex

	// base is cancelled by Stop so a ticker sweep in flight ends early.
	base       context.Context
	cancelBase context.CancelFunc
}

// NewDailyScheduler creates a new daily scheduler.
func NewDailyScheduler(users SteamIDLister, snapshots Snapshotter, config DailyConfig, log *zap.Logger) *DailyScheduler {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Minute
	}

	base, cancel := context.WithCancel(context.Background())
	return &DailyScheduler{
		users:      users,
		snapshots:  snapshots,
		config:     config,
		log:        log.Named("daily"),
		stopCh:     make(chan struct{}),
		base:       base,
		cancelBase: cancel,
	}
}

// Start begins the periodic sweep. The first sweep runs after one interval.
func (s *DailyScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.log.Info("scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("timeout", s.config.Timeout),
	)

	go s.run()
}

func (s *DailyScheduler) run() {
	defer close(s.done)
	for {
		select {
		case <-s.ticker.C:
			if s.base.Err() != nil {
				return
			}
			ctx, cancel := context.WithTimeout(s.base, s.config.Timeout)
			if _, err := s.RunNow(ctx); err != nil {
				s.log.Error("daily sweep failed", zap.Error(err))
			}
			cancel()
		case <-s.stopCh:
			s.log.Info("scheduler stopped")
			return
		}
	}
}

// Stop stops the scheduler, cancels a ticker sweep in progress and waits for
// it to return. Once Stop returns no further snapshots are started by the ticker.
func (s *DailyScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		if s.ticker != nil {
			s.ticker.Stop()
		}
		s.cancelBase()
		close(s.stopCh)
		s.isRunning = false
		done := s.done
		s.mu.Unlock()

		if done != nil {
			<-done
		}
	})
}

// RunNow snapshots every known user and reports per-user outcomes.
// A failure for one user never stops the sweep; only listing users can fail the call.
func (s *DailyScheduler) RunNow(ctx context.Context) ([]DailyResult, error) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	ids, err := s.users.ListSteamIDs(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([]DailyResult, 0, len(ids))
	failed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			results = append(results, DailyResult{SteamID: id, Error: ctx.Err().Error()})
			failed++
			continue
		}

		res, err := s.snapshots.TakeSnapshot(ctx, id)
		if err != nil {
			s.log.Warn("daily snapshot failed", zap.String("steam_id", id), zap.Error(err))
			results = append(results, DailyResult{SteamID: id, Error: err.Error()})
			failed++
			continue
		}
		total := res.TotalValue
		results = append(results, DailyResult{SteamID: id, OK: true, Total: &total})
	}

	s.log.Info("daily sweep complete",
		zap.Int("users", len(ids)),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(start)),
	)
	return results, nil
}
