package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"skinsignal-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func flat(first float64, rest float64, n int) []float64 {
	s := []float64{first}
	for i := 1; i < n; i++ {
		s = append(s, rest)
	}
	return s
}

func TestComputeSaleScore(t *testing.T) {
	t.Run("no data is neutral", func(t *testing.T) {
		s := ComputeSaleScore(nil, nil, false)
		assert.Equal(t, 50, s.Score)
		assert.Equal(t, []string{"neutral signals"}, s.Why)
		assert.True(t, s.LowConfidence)
	})

	t.Run("rising item with deep wide book", func(t *testing.T) {
		s := ComputeSaleScore(flat(20, 10, 8), listings(10, 20, 21, 22, 23, 24, 25, 26, 27, 28), true)
		assert.Equal(t, 93, s.Score)
		assert.Equal(t, []string{"above 7d mean", "uptrend"}, s.Why)
	})

	t.Run("falling item with thin book", func(t *testing.T) {
		s := ComputeSaleScore(flat(5, 10, 8), listings(5, 5.01), true)
		assert.Equal(t, 24, s.Score)
		assert.Equal(t, []string{"neutral signals"}, s.Why)
	})

	t.Run("zero prior mean keeps momentum neutral", func(t *testing.T) {
		s := ComputeSaleScore(flat(10, 0, 30), nil, false)
		assert.Equal(t, 60, s.Score)
		assert.Equal(t, []string{"uptrend"}, s.Why)
		assert.False(t, s.LowConfidence)
	})

	t.Run("single sample", func(t *testing.T) {
		s := ComputeSaleScore([]float64{12}, nil, false)
		assert.Equal(t, 50, s.Score)
	})
}

func TestComputeSaleScore_Bounded(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		series := make([]float64, r.Intn(40))
		for j := range series {
			series[j] = r.Float64()*1000 - 100
		}
		book := make([]model.Listing, r.Intn(15))
		for j := range book {
			book[j] = model.Listing{Price: model.FlexFloat(r.Float64() * 500)}
		}

		s := ComputeSaleScore(series, book, r.Intn(2) == 0)
		assert.GreaterOrEqual(t, s.Score, 0)
		assert.LessOrEqual(t, s.Score, 100)
		assert.NotEmpty(t, s.Why)
		assert.LessOrEqual(t, len(s.Why), 2)
	}
}

type fixedSeries []float64

func (f fixedSeries) ItemValueSeries(context.Context, int64, string, int) ([]float64, error) {
	return f, nil
}

func TestSaleScorer_ListingFailureIsNeutral(t *testing.T) {
	market := new(MockListingProvider)
	market.On("GetListings", mock.Anything, redline).Return(nil, errors.New("timeout"))

	scorer := NewSaleScorer(fixedSeries{10, 10}, market, zaptest.NewLogger(t))
	s, book, err := scorer.scoreWithListings(context.Background(), 1, redline)
	require.NoError(t, err)
	assert.Nil(t, book)
	assert.Equal(t, 50, s.Score)
}

func TestSaleWindow(t *testing.T) {
	assert.Equal(t, "fast exit", *saleWindow(70))
	assert.Equal(t, "1–2 days", *saleWindow(40))
	assert.Nil(t, saleWindow(39))
}
