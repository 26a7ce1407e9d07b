package repository

import (
	"testing"

	"github.com/stretchr/testify/require"

	bCtx "github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/currency"
)

func addrs(entries []currency.Currency) []domain.Address {
	out := make([]domain.Address, len(entries))
	for i, e := range entries {
		out[i] = e.Address
	}
	return out
}

func TestAllowlistAddRemove(t *testing.T) {
	ctx := bCtx.Background()
	r := NewAllowlist()

	a := domain.Address("0x00000000000000000000000000000000000000a1")
	b := domain.Address("0x00000000000000000000000000000000000000b2")

	ok, err := r.IsAllowed(ctx, a)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, r.Add(ctx, a))
	require.ErrorIs(t, r.Add(ctx, a), domain.ErrCurrencyAlreadyAllowed)

	ok, err = r.IsAllowed(ctx, a)
	require.NoError(t, err)
	require.True(t, ok)

	require.ErrorIs(t, r.Remove(ctx, b), domain.ErrCurrencyNotAllowed)
	require.NoError(t, r.Remove(ctx, a))
	ok, err = r.IsAllowed(ctx, a)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAllowlistNativeSpellings(t *testing.T) {
	ctx := bCtx.Background()
	r := NewAllowlist()

	// the empty string and the zero address both mean the native currency
	require.NoError(t, r.Add(ctx, ""))
	ok, err := r.IsAllowed(ctx, domain.NativeCurrency)
	require.NoError(t, err)
	require.True(t, ok)
	require.ErrorIs(t, r.Add(ctx, domain.NativeCurrency), domain.ErrCurrencyAlreadyAllowed)
}

func TestAllowlistSwapAndPopOrder(t *testing.T) {
	ctx := bCtx.Background()
	r := NewAllowlist()

	a := domain.Address("0x00000000000000000000000000000000000000a1")
	b := domain.Address("0x00000000000000000000000000000000000000b2")
	c := domain.Address("0x00000000000000000000000000000000000000c3")
	d := domain.Address("0x00000000000000000000000000000000000000d4")

	for _, addr := range []domain.Address{a, b, c, d} {
		require.NoError(t, r.Add(ctx, addr))
	}

	// removing from the middle moves the tail entry into the hole
	require.NoError(t, r.Remove(ctx, b))
	got, err := r.ListAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.Address{a, d, c}, addrs(got))

	// the moved entry stays addressable at its new slot
	require.NoError(t, r.Remove(ctx, d))
	got, err = r.ListAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.Address{a, c}, addrs(got))

	// removing the tail shrinks in place
	require.NoError(t, r.Remove(ctx, c))
	got, err = r.ListAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.Address{a}, addrs(got))
}
