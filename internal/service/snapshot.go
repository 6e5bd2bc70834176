package service

import (
	"context"
	"sync"
	"time"

	"skinsignal-api/internal/apperror"
	"skinsignal-api/internal/model"
	"skinsignal-api/internal/steam"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultSnapshotRateLimit is the minimum gap between two snapshots of one user.
const DefaultSnapshotRateLimit = 60 * time.Second

// InventorySource fetches a user's raw inventory.
type InventorySource interface {
	FetchInventory(ctx context.Context, steamID string) (*model.InventoryPayload, error)
}

// SnapshotStore is the storage the snapshot pipeline needs.
type SnapshotStore interface {
	UpsertUser(ctx context.Context, steamID string) (*model.User, error)
	LatestSnapshotAt(ctx context.Context, userID int64) (time.Time, bool, error)
	CreateSnapshot(ctx context.Context, snap *model.Snapshot) (int64, error)
}

// AlertRunner evaluates alerts for a committed snapshot.
type AlertRunner interface {
	Evaluate(ctx context.Context, userID int64, items []model.ValuedItem, snapshotID int64) error
}

// SnapshotConfig tunes the snapshot pipeline.
type SnapshotConfig struct {
	RateLimit time.Duration
	FanOut    int
}

// SnapshotService values a whole inventory and persists it as one snapshot.
type SnapshotService struct {
	store     SnapshotStore
	inventory InventorySource
	valuator  *Valuator
	alerts    AlertRunner
	runner    *DetachedRunner
	cfg       SnapshotConfig
	now       func() time.Time
	log       *zap.Logger

	locks userLocks
}

// NewSnapshotService creates a SnapshotService.
func NewSnapshotService(
	store SnapshotStore,
	inventory InventorySource,
	valuator *Valuator,
	alerts AlertRunner,
	runner *DetachedRunner,
	cfg SnapshotConfig,
	log *zap.Logger,
) *SnapshotService {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultSnapshotRateLimit
	}
	if cfg.FanOut < 1 {
		cfg.FanOut = 1
	}
	return &SnapshotService{
		store:     store,
		inventory: inventory,
		valuator:  valuator,
		alerts:    alerts,
		runner:    runner,
		cfg:       cfg,
		now:       time.Now,
		log:       log.Named("snapshot"),
	}
}

// TakeSnapshot values the user's current inventory and stores it.
// Alert evaluation is launched after commit and cannot fail the snapshot.
func (s *SnapshotService) TakeSnapshot(ctx context.Context, rawSteamID string) (*model.SnapshotResult, error) {
	steamID, err := model.NormalizeSteamID(rawSteamID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(steamID)
	defer unlock()

	user, err := s.store.UpsertUser(ctx, steamID)
	if err != nil {
		return nil, err
	}

	if err := s.checkRateLimit(ctx, user.ID); err != nil {
		return nil, err
	}

	items, err := s.aggregate(ctx, steamID)
	if err != nil {
		return nil, err
	}

	valued, err := s.valueAll(ctx, user.ID, items)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, v := range valued {
		total = total.Add(decimal.NewFromInt(int64(v.Qty)).Mul(decimal.NewFromFloat(v.ValuedPriceUSDEffective)))
	}

	snap := &model.Snapshot{
		UserID:     user.ID,
		TakenAt:    s.now(),
		TotalValue: cents(total),
		Items:      valued,
	}
	id, err := s.store.CreateSnapshot(ctx, snap)
	if err != nil {
		return nil, err
	}

	s.log.Info("snapshot stored",
		zap.String("steam_id", steamID),
		zap.Int64("snapshot_id", id),
		zap.Int("items", len(valued)),
		zap.Float64("total_value", snap.TotalValue))

	if s.alerts != nil && s.runner != nil {
		userID := user.ID
		s.runner.Go("evaluate_alerts", func(ctx context.Context) error {
			return s.alerts.Evaluate(ctx, userID, valued, id)
		}, zap.Int64("snapshot_id", id))
	}

	return &model.SnapshotResult{SnapshotID: id, TotalValue: snap.TotalValue, Items: valued}, nil
}

// PreviewInventory returns the aggregated inventory without valuing or storing it.
func (s *SnapshotService) PreviewInventory(ctx context.Context, rawSteamID string) ([]model.InventoryItem, error) {
	steamID, err := model.NormalizeSteamID(rawSteamID)
	if err != nil {
		return nil, err
	}
	return s.aggregate(ctx, steamID)
}

func (s *SnapshotService) checkRateLimit(ctx context.Context, userID int64) error {
	last, ok, err := s.store.LatestSnapshotAt(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if elapsed := s.now().Sub(last); elapsed < s.cfg.RateLimit {
		return apperror.RateLimited(s.cfg.RateLimit - elapsed)
	}
	return nil
}

func (s *SnapshotService) aggregate(ctx context.Context, steamID string) ([]model.InventoryItem, error) {
	payload, err := s.inventory.FetchInventory(ctx, steamID)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, apperror.InventoryUnavailable("inventory source returned no payload", nil)
	}
	if err := model.Validate(payload); err != nil {
		return nil, apperror.InventoryUnavailable("malformed inventory payload", err)
	}
	return steam.Aggregate(payload), nil
}

// valueAll prices items with at most cfg.FanOut concurrent valuations, keeping input order.
func (s *SnapshotService) valueAll(ctx context.Context, userID int64, items []model.InventoryItem) ([]model.ValuedItem, error) {
	valued := make([]model.ValuedItem, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FanOut)
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			v, err := s.valuator.Value(gctx, userID, it)
			if err != nil {
				return err
			}
			valued[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return valued, nil
}

// userLocks serializes snapshots per user so near-simultaneous requests cannot
// both pass the rate-limit check.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func (l *userLocks) lock(key string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*userLock)
	}
	ul, ok := l.locks[key]
	if !ok {
		ul = &userLock{}
		l.locks[key] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
