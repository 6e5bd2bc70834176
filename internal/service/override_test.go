package service

import (
	"context"
	"errors"
	"testing"

	"skinsignal-api/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverrideService(t *testing.T) {
	store := newStore(t)
	svc := NewOverrideService(store)
	ctx := context.Background()

	_, err := svc.List(ctx, testSteamID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	o, err := svc.Set(ctx, testSteamID, SetOverrideInput{ItemName: "  " + redline + " ", CustomValueUSD: fptr(100), Note: "pattern 661"})
	require.NoError(t, err)
	assert.Equal(t, redline, o.ItemName)

	_, err = svc.Set(ctx, testSteamID, SetOverrideInput{ItemName: redline, CustomValueUSD: fptr(120)})
	require.NoError(t, err)

	list, err := svc.List(ctx, testSteamID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 120.0, *list[0].CustomValueUSD)

	require.NoError(t, svc.Clear(ctx, testSteamID, redline))
	err = svc.Clear(ctx, testSteamID, redline)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestOverrideService_Validation(t *testing.T) {
	svc := NewOverrideService(newStore(t))
	ctx := context.Background()

	tests := []struct {
		name  string
		steam string
		in    SetOverrideInput
	}{
		{"bad steam id", "abc", SetOverrideInput{ItemName: redline, CustomValueUSD: fptr(1)}},
		{"missing name", testSteamID, SetOverrideInput{ItemName: "  ", CustomValueUSD: fptr(1)}},
		{"missing value", testSteamID, SetOverrideInput{ItemName: redline}},
		{"negative value", testSteamID, SetOverrideInput{ItemName: redline, CustomValueUSD: fptr(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Set(ctx, tt.steam, tt.in)
			assert.True(t, errors.Is(err, apperror.ErrValidation))
		})
	}
}
