package repository

import (
	"testing"

	"github.com/stretchr/testify/require"

	bCtx "github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
)

func TestBuyerWhitelist(t *testing.T) {
	ctx := bCtx.Background()
	r := NewBuyerWhitelist(3)

	alice := domain.Address("0x000000000000000000000000000000000000a001")
	bob := domain.Address("0x000000000000000000000000000000000000B002")

	ok, err := r.IsWhitelisted(ctx, 1, alice)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, r.AddMany(ctx, 1, []domain.Address{alice, bob}))

	ok, err = r.IsWhitelisted(ctx, 1, alice)
	require.NoError(t, err)
	require.True(t, ok)

	// membership is case-insensitive on addresses
	ok, err = r.IsWhitelisted(ctx, 1, bob.ToLower())
	require.NoError(t, err)
	require.True(t, ok)

	// scoped per listing
	ok, err = r.IsWhitelisted(ctx, 2, alice)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, r.RemoveMany(ctx, 1, []domain.Address{alice}))
	ok, err = r.IsWhitelisted(ctx, 1, alice)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, r.Clear(ctx, 1))
	ok, err = r.IsWhitelisted(ctx, 1, bob)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBuyerWhitelistBatchLimit(t *testing.T) {
	ctx := bCtx.Background()
	r := NewBuyerWhitelist(2)

	buyers := []domain.Address{"0x01", "0x02", "0x03"}
	require.ErrorIs(t, r.AddMany(ctx, 1, buyers), domain.ErrExceedsMaxBatchSize)
	require.ErrorIs(t, r.RemoveMany(ctx, 1, buyers), domain.ErrExceedsMaxBatchSize)
}

func TestBuyerWhitelistRevert(t *testing.T) {
	ctx := bCtx.Background()
	r := NewBuyerWhitelist(10)

	alice := domain.Address("0x000000000000000000000000000000000000a001")
	bob := domain.Address("0x000000000000000000000000000000000000b002")

	require.NoError(t, r.AddMany(ctx, 1, []domain.Address{alice}))
	rev := r.Snapshot()

	require.NoError(t, r.AddMany(ctx, 1, []domain.Address{bob}))
	require.NoError(t, r.RemoveMany(ctx, 1, []domain.Address{alice}))
	require.NoError(t, r.Clear(ctx, 1))

	r.RevertToSnapshot(rev)

	ok, err := r.IsWhitelisted(ctx, 1, alice)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = r.IsWhitelisted(ctx, 1, bob)
	require.NoError(t, err)
	require.False(t, ok)
}
