package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swaperex-scan/internal/domain"
)

func TestScanRecordStore_InsertAndGetByWallet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewScanRecordStore(pool)

	r := &domain.ScanRecord{
		ChainID:    1,
		Wallet:     "0x1f9090aae28b8a3dceadf281b0f12828e676c326",
		Provider:   "moralis",
		TokenCount: 12,
		DurationMs: 840,
		CreatedAt:  1704067200000,
	}

	err := store.Insert(ctx, r)
	require.NoError(t, err)

	got, err := store.GetByWallet(ctx, 1, r.Wallet, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, r.ChainID, got[0].ChainID)
	assert.Equal(t, r.Wallet, got[0].Wallet)
	assert.Equal(t, r.Provider, got[0].Provider)
	assert.Equal(t, r.TokenCount, got[0].TokenCount)
	assert.Equal(t, r.DurationMs, got[0].DurationMs)
	assert.Equal(t, r.CreatedAt, got[0].CreatedAt)
}

func TestScanRecordStore_NewestFirst(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewScanRecordStore(pool)
	wallet := "0x1f9090aae28b8a3dceadf281b0f12828e676c326"

	for _, ts := range []int64{100, 300, 200} {
		r := &domain.ScanRecord{
			ChainID:    1,
			Wallet:     wallet,
			Provider:   "explorer",
			TokenCount: 1,
			CreatedAt:  ts,
		}
		require.NoError(t, store.Insert(ctx, r))
	}

	got, err := store.GetByWallet(ctx, 1, wallet, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(300), got[0].CreatedAt)
	assert.Equal(t, int64(200), got[1].CreatedAt)
}

func TestScanRecordStore_GetByWallet_Empty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewScanRecordStore(pool)

	got, err := store.GetByWallet(ctx, 1, "0x0000000000000000000000000000000000000001", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScanRecordStore_CountSince(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewScanRecordStore(pool)
	wallet := "0x1f9090aae28b8a3dceadf281b0f12828e676c326"

	for _, ts := range []int64{100, 200, 300} {
		r := &domain.ScanRecord{ChainID: 1, Wallet: wallet, Provider: "moralis", CreatedAt: ts}
		require.NoError(t, store.Insert(ctx, r))
	}

	n, err := store.CountSince(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
