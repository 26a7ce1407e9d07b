package compound

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/service/cache/provider"
	"github.com/vendue/goapi/service/cache/provider/primitive"
)

var mockCtx = ctx.Background()

func TestCompoundBackfillsFrontLayers(t *testing.T) {
	front := primitive.NewPrimitive("front", 1)
	back := primitive.NewPrimitive("back", 1)
	cp := NewCompound([]provider.Provider{front, back})

	_, _, err := cp.Get(mockCtx, "k")
	require.Equal(t, provider.ErrNotFound, err)

	// only the back layer holds the value; a read must fill the front
	require.NoError(t, back.Set(mockCtx, "k", []byte("v"), time.Minute))

	val, _, err := cp.Get(mockCtx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), val)

	val, _, err = front.Get(mockCtx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), val)
}

func TestCompoundSetAndDelHitEveryLayer(t *testing.T) {
	front := primitive.NewPrimitive("front", 1)
	back := primitive.NewPrimitive("back", 1)
	cp := NewCompound([]provider.Provider{front, back})

	require.NoError(t, cp.Set(mockCtx, "k", []byte("v"), time.Minute))

	for _, lyr := range []provider.Provider{front, back} {
		val, _, err := lyr.Get(mockCtx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v"), val)
	}

	require.NoError(t, cp.Del(mockCtx, "k"))

	for _, lyr := range []provider.Provider{front, back} {
		_, _, err := lyr.Get(mockCtx, "k")
		require.Equal(t, provider.ErrNotFound, err)
	}
}
