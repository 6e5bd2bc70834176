package service

import (
	"context"
	"sort"

	"skinsignal-api/internal/apperror"
	"skinsignal-api/internal/market"
	"skinsignal-api/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	topMovers = 3
	topPicks  = 3
)

// PortfolioStore is the read side the portfolio queries need.
type PortfolioStore interface {
	GetUserBySteamID(ctx context.Context, steamID string) (*model.User, error)
	ListSnapshots(ctx context.Context, userID int64, limit int) ([]model.Snapshot, error)
	History(ctx context.Context, userID int64) ([]model.HistoryPoint, error)
	SnapshotItems(ctx context.Context, snapshotID int64) ([]model.ValuedItem, error)
	CategoryTotals(ctx context.Context, snapshotID int64) ([]model.AllocationSlice, error)
}

// HistoryView is the timeline plus the newest snapshot with its items.
type HistoryView struct {
	History []model.HistoryPoint `json:"history"`
	Last    *model.Snapshot      `json:"last"`
}

// PortfolioService answers read-only portfolio queries. Unknown users get empty results.
type PortfolioService struct {
	store  PortfolioStore
	scorer *SaleScorer
	log    *zap.Logger
}

// NewPortfolioService creates a PortfolioService.
func NewPortfolioService(store PortfolioStore, scorer *SaleScorer, log *zap.Logger) *PortfolioService {
	return &PortfolioService{store: store, scorer: scorer, log: log.Named("portfolio")}
}

// user resolves steamID; a nil user with nil error means "no data yet".
func (s *PortfolioService) user(ctx context.Context, rawSteamID string) (*model.User, error) {
	steamID, err := model.NormalizeSteamID(rawSteamID)
	if err != nil {
		return nil, err
	}
	u, err := s.store.GetUserBySteamID(ctx, steamID)
	if isNotFound(err) {
		return nil, nil
	}
	return u, err
}

func (s *PortfolioService) latest(ctx context.Context, userID int64, n int) ([]model.Snapshot, error) {
	return s.store.ListSnapshots(ctx, userID, n)
}

// History returns all snapshot totals oldest first and the newest snapshot in full.
func (s *PortfolioService) History(ctx context.Context, steamID string) (*HistoryView, error) {
	view := &HistoryView{History: []model.HistoryPoint{}}

	u, err := s.user(ctx, steamID)
	if err != nil || u == nil {
		return view, err
	}

	if view.History, err = s.store.History(ctx, u.ID); err != nil {
		return nil, err
	}

	snaps, err := s.latest(ctx, u.ID, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 1 {
		last := snaps[0]
		if last.Items, err = s.store.SnapshotItems(ctx, last.ID); err != nil {
			return nil, err
		}
		view.Last = &last
	}
	return view, nil
}

// Movers compares the two newest snapshots item by item.
func (s *PortfolioService) Movers(ctx context.Context, steamID string) (*model.Movers, error) {
	empty := &model.Movers{Gainers: []model.Mover{}, Losers: []model.Mover{}}

	u, err := s.user(ctx, steamID)
	if err != nil || u == nil {
		return empty, err
	}

	snaps, err := s.latest(ctx, u.ID, 2)
	if err != nil {
		return nil, err
	}
	if len(snaps) < 2 {
		return empty, nil
	}

	current, err := s.store.SnapshotItems(ctx, snaps[0].ID)
	if err != nil {
		return nil, err
	}
	previous, err := s.store.SnapshotItems(ctx, snaps[1].ID)
	if err != nil {
		return nil, err
	}
	return ComputeMovers(previous, current), nil
}

// ComputeMovers ranks per-item line value changes from previous to current.
// Items that disappeared count as a full loss.
func ComputeMovers(previous, current []model.ValuedItem) *model.Movers {
	was := lineValues(previous)
	now := lineValues(current)

	names := make([]string, 0, len(now)+len(was))
	for _, it := range current {
		names = append(names, it.Name)
	}
	for _, it := range previous {
		if _, ok := now[it.Name]; !ok {
			names = append(names, it.Name)
		}
	}

	deltas := make([]model.Mover, 0, len(names))
	seen := make(map[string]bool, len(names))
	hundred := decimal.NewFromInt(100)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		cur, prev := now[name], was[name]
		d := cur.Sub(prev)

		var pct decimal.Decimal
		switch {
		case !prev.IsZero():
			pct = d.Div(prev).Mul(hundred)
		case !cur.IsZero():
			pct = hundred
		}
		deltas = append(deltas, model.Mover{Name: name, USD: cents(d), Pct: cents(pct)})
	}

	sort.SliceStable(deltas, func(i, j int) bool {
		if deltas[i].USD != deltas[j].USD {
			return deltas[i].USD > deltas[j].USD
		}
		return deltas[i].Name < deltas[j].Name
	})

	n := topMovers
	if n > len(deltas) {
		n = len(deltas)
	}
	gainers := append([]model.Mover{}, deltas[:n]...)
	losers := make([]model.Mover, 0, n)
	for i := len(deltas) - 1; i >= len(deltas)-n; i-- {
		losers = append(losers, deltas[i])
	}
	return &model.Movers{Gainers: gainers, Losers: losers}
}

func lineValues(items []model.ValuedItem) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(items))
	for _, it := range items {
		v := decimal.NewFromInt(int64(it.Qty)).Mul(decimal.NewFromFloat(it.ValuedPriceUSDEffective))
		out[it.Name] = out[it.Name].Add(v)
	}
	return out
}

// Allocation sums the newest snapshot's value per category.
func (s *PortfolioService) Allocation(ctx context.Context, steamID string) ([]model.AllocationSlice, error) {
	u, err := s.user(ctx, steamID)
	if err != nil || u == nil {
		return []model.AllocationSlice{}, err
	}

	snaps, err := s.latest(ctx, u.ID, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return []model.AllocationSlice{}, nil
	}

	slices, err := s.store.CategoryTotals(ctx, snaps[0].ID)
	if err != nil {
		return nil, err
	}
	for i := range slices {
		if slices[i].Label == "" {
			slices[i].Label = OtherCategory
		}
		slices[i].Value = cents(decimal.NewFromFloat(slices[i].Value))
	}
	return slices, nil
}

// ItemScore scores one item of the user and attaches a suggested price.
func (s *PortfolioService) ItemScore(ctx context.Context, steamID, itemName string) (*model.SalePick, error) {
	if itemName == "" {
		return nil, apperror.Validation("name", "missing_item_name")
	}
	u, err := s.user(ctx, steamID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.NotFound("user", steamID)
	}
	return s.pick(ctx, u.ID, itemName)
}

// SmartSale scores every item of the newest snapshot and returns the best picks.
func (s *PortfolioService) SmartSale(ctx context.Context, steamID string) ([]model.SalePick, error) {
	u, err := s.user(ctx, steamID)
	if err != nil || u == nil {
		return []model.SalePick{}, err
	}

	snaps, err := s.latest(ctx, u.ID, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return []model.SalePick{}, nil
	}
	items, err := s.store.SnapshotItems(ctx, snaps[0].ID)
	if err != nil {
		return nil, err
	}

	picks := make([]model.SalePick, 0, len(items))
	for _, it := range items {
		p, err := s.pick(ctx, u.ID, it.Name)
		if err != nil {
			return nil, err
		}
		picks = append(picks, *p)
	}

	s.log.Debug("smart sale scored", zap.Int64("user_id", u.ID), zap.Int("items", len(items)))

	sort.SliceStable(picks, func(i, j int) bool { return picks[i].Score > picks[j].Score })
	if len(picks) > topPicks {
		picks = picks[:topPicks]
	}
	return picks, nil
}

func (s *PortfolioService) pick(ctx context.Context, userID int64, name string) (*model.SalePick, error) {
	score, listings, err := s.scorer.scoreWithListings(ctx, userID, name)
	if err != nil {
		return nil, err
	}

	p := &model.SalePick{
		Name:          name,
		Score:         score.Score,
		Why:           score.Why,
		Window:        saleWindow(score.Score),
		LowConfidence: score.LowConfidence,
	}
	if price, ok := market.SuggestPrice(listings); ok {
		p.SuggestPrice = &price
	}
	return p, nil
}

// saleWindow maps a score to a suggested selling horizon.
func saleWindow(score int) *string {
	var w string
	switch {
	case score >= 70:
		w = "fast exit"
	case score >= 40:
		w = "1–2 days"
	default:
		return nil
	}
	return &w
}
