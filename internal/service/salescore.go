package service

import (
	"context"
	"math"

	"skinsignal-api/internal/market"
	"skinsignal-api/internal/model"

	"go.uber.org/zap"
)

const (
	// seriesDepth is how many recent snapshots feed a score.
	seriesDepth = 30
	// momentumWindow is how many samples after the newest form the 7d mean.
	momentumWindow = 7

	neutral        = 50.0
	premiumRisk    = 50.0
	overrideDrag   = 50.0
	maxWhy         = 2
	liquidityDepth = 10
)

// SeriesReader returns an item's value across recent snapshots, newest first.
type SeriesReader interface {
	ItemValueSeries(ctx context.Context, userID int64, itemName string, limit int) ([]float64, error)
}

// SaleScorer rates how attractive selling an item is right now.
type SaleScorer struct {
	series   SeriesReader
	listings ListingProvider
	log      *zap.Logger
}

// NewSaleScorer creates a SaleScorer.
func NewSaleScorer(series SeriesReader, listings ListingProvider, log *zap.Logger) *SaleScorer {
	return &SaleScorer{series: series, listings: listings, log: log.Named("salescore")}
}

// Score computes the sale score of itemName for userID.
func (s *SaleScorer) Score(ctx context.Context, userID int64, itemName string) (model.SaleScore, error) {
	score, _, err := s.scoreWithListings(ctx, userID, itemName)
	return score, err
}

// scoreWithListings also returns the listings it fetched (nil on fetch failure).
func (s *SaleScorer) scoreWithListings(ctx context.Context, userID int64, itemName string) (model.SaleScore, []model.Listing, error) {
	series, err := s.series.ItemValueSeries(ctx, userID, itemName, seriesDepth)
	if err != nil {
		return model.SaleScore{}, nil, err
	}

	listings, err := s.listings.GetListings(ctx, itemName)
	if err != nil {
		s.log.Debug("listings unavailable, using neutral liquidity", zap.String("item", itemName), zap.Error(err))
		return ComputeSaleScore(series, nil, false), nil, nil
	}
	return ComputeSaleScore(series, listings, true), listings, nil
}

// ComputeSaleScore is the pure scoring function. series is newest first; when
// haveListings is false liquidity and ladder fall back to neutral.
func ComputeSaleScore(series []float64, listings []model.Listing, haveListings bool) model.SaleScore {
	last := 0.0
	if len(series) > 0 {
		last = series[0]
	}

	momentum := neutral
	if len(series) > 1 {
		end := 1 + momentumWindow
		if end > len(series) {
			end = len(series)
		}
		if m := mean(series[1:end]); m != 0 {
			momentum = clamp(neutral+50*(last-m)/math.Abs(m), 0, 100)
		}
	}

	back := last
	if len(series) >= seriesDepth {
		back = series[seriesDepth-1]
	} else if len(series) > 0 {
		back = series[len(series)-1]
	}
	denom := math.Abs(back)
	if denom == 0 {
		denom = 1
	}
	trend := clamp(neutral+50*(last-back)/denom, 0, 100)

	liquidity, ladder := neutral, neutral
	if haveListings {
		liquidity = clamp(math.Min(liquidityDepth, float64(len(listings)))/liquidityDepth*100, 0, 100)
		ladder = clamp(market.LadderSpread(listings)*400, 0, 100)
	}

	raw := 0.30*momentum + 0.20*trend + 0.20*liquidity + 0.15*ladder + 0.10*premiumRisk + 0.05*overrideDrag

	return model.SaleScore{
		Score:         int(clamp(math.Round(raw), 0, 100)),
		Why:           explain(momentum, trend, liquidity, ladder),
		LowConfidence: len(series) < seriesDepth,
	}
}

func explain(momentum, trend, liquidity, ladder float64) []string {
	why := make([]string, 0, maxWhy)
	for _, r := range []struct {
		hit    bool
		reason string
	}{
		{momentum > 60, "above 7d mean"},
		{trend > 60, "uptrend"},
		{liquidity > 60, "high liquidity"},
		{ladder > 60, "wide ladder spread"},
	} {
		if r.hit && len(why) < maxWhy {
			why = append(why, r.reason)
		}
	}
	if len(why) == 0 {
		why = append(why, "neutral signals")
	}
	return why
}
