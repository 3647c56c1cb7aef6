package motion

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cyclopcam/motionwatch/pkg/grid"
	"github.com/stretchr/testify/require"
)

func TestVectorSimilarity(t *testing.T) {
	require.Equal(t, float32(1), VectorSimilarity(grid.VecF{}, grid.VecF{}))
	require.Equal(t, float32(1), VectorSimilarity(grid.VecF{X: 3, Y: -2}, grid.VecF{X: 3, Y: -2}))
	require.InDelta(t, math.Exp(-1), VectorSimilarity(grid.VecF{X: 4}, grid.VecF{X: -4}), 1e-6)
	require.InDelta(t, math.Exp(-0.25), VectorSimilarity(grid.VecF{X: 4}, grid.VecF{X: 12}), 1e-6)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10000; i++ {
		a := grid.VecF{X: float32(rng.NormFloat64() * 20), Y: float32(rng.NormFloat64() * 20)}
		b := grid.VecF{X: float32(rng.NormFloat64() * 20), Y: float32(rng.NormFloat64() * 20)}
		if i%10 == 0 {
			b = grid.VecF{}
		}
		s := VectorSimilarity(a, b)
		require.Greater(t, s, float32(0))
		require.LessOrEqual(t, s, float32(1))
	}
}

func TestSimilarityGrid(t *testing.T) {
	a := grid.MustNew[grid.Vec](2, 1)
	b := grid.MustNew[grid.VecF](2, 1)
	out := grid.MustNew[float32](2, 1)
	a.Set(0, 0, grid.Vec{X: 2, Y: 2})
	b.Set(0, 0, grid.VecF{X: 2, Y: 2})
	b.Set(0, 1, grid.VecF{X: 1})
	Similarity(a, b, out)
	require.Equal(t, float32(1), out.At(0, 0))
	require.InDelta(t, math.Exp(-1), out.At(0, 1), 1e-6)

	mag := grid.MustNew[float32](2, 1)
	Magnitude(a, mag)
	require.InDelta(t, math.Sqrt(8), mag.At(0, 0), 1e-6)
}

func TestClassifyCell(t *testing.T) {
	alpha := float32(0.7)
	beta := float32(4)
	// Both directions agree
	require.Equal(t, TierStrong, ClassifyCell(5, 0.9, 0.8, 0, 0, alpha, beta))
	require.Equal(t, -TierStrong, ClassifyCell(3, 0.9, 0.8, 0, 0, alpha, beta))
	// One direction agrees. 10 * 0.8² = 6.4, 5 * 0.8² = 3.2
	require.Equal(t, TierSingle, ClassifyCell(10, 0.8, 0.1, 0, 0, alpha, beta))
	require.Equal(t, -TierSingle, ClassifyCell(5, 0.1, 0.8, 0, 0, alpha, beta))
	// Equal to alpha is not enough
	require.Equal(t, TierSingle, ClassifyCell(10, 0.7, 0.8, 0, 0, alpha, beta))
	// Only the projections agree. 0.9² * 10 = 8.1, 0.9² * 4 = 3.24
	require.Equal(t, TierProject, ClassifyCell(0, 0.1, 0.1, 0.9, 10, alpha, beta))
	require.Equal(t, -TierProject, ClassifyCell(0, 0.1, 0.1, 0.9, 4, alpha, beta))
	// Nothing agrees
	require.Equal(t, TierUnknown, ClassifyCell(20, 0.1, 0.1, 0.1, 20, alpha, beta))
}

func TestSpatialFilter(t *testing.T) {
	tiers := grid.MustNew[Tier](5, 5)
	snap := grid.MustNew[Tier](5, 5)
	// (2,2) has foreground below it at distance 1, and background above it at distance 2.
	// (1+(-0.5))/2 > 0
	tiers.Set(3, 2, TierStrong)
	tiers.Set(0, 2, -TierStrong)
	SpatialFilter(tiers, snap, UnresolvedUnknown)
	require.Equal(t, TierSpatial, tiers.At(2, 2))
	require.Equal(t, TierStrong, tiers.At(3, 2))
	require.Equal(t, -TierStrong, tiers.At(0, 2))
	// (1,2) has background at distance 1 above, and foreground at distance 2 below
	require.Equal(t, -TierSpatial, tiers.At(1, 2))
	// Nothing within range of the corner
	require.Equal(t, TierUnknown, tiers.At(4, 0))
	// (4,2) is resolved from (3,2). (4,4) would see it if cells were resolved in place.
	require.Equal(t, TierSpatial, tiers.At(4, 2))
	require.Equal(t, TierUnknown, tiers.At(4, 4))
}

func TestSpatialFilterTieBreak(t *testing.T) {
	expect := map[Unresolved]Tier{
		UnresolvedForeground: TierSpatial,
		UnresolvedBackground: -TierSpatial,
		UnresolvedUnknown:    TierUnknown,
	}
	for policy, want := range expect {
		tiers := grid.MustNew[Tier](3, 1)
		snap := grid.MustNew[Tier](3, 1)
		tiers.Set(0, 0, TierStrong)
		tiers.Set(0, 2, -TierSingle)
		SpatialFilter(tiers, snap, policy)
		require.Equal(t, want, tiers.At(0, 1), "policy %v", policy)
	}

	// No classified neighbours at all
	tiers := grid.MustNew[Tier](2, 2)
	snap := grid.MustNew[Tier](2, 2)
	SpatialFilter(tiers, snap, UnresolvedBackground)
	require.Equal(t, 4, tiers.Count(func(v Tier) bool { return v == -TierSpatial }))
}

func TestUnresolvedValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, UnresolvedForeground, cfg.Unresolved)
	cfg.Unresolved = "maybe"
	require.ErrorIs(t, cfg.Validate(), ErrBadConfig)
	cfg.Unresolved = UnresolvedBackground
	require.NoError(t, cfg.Validate())
}

func TestSpatialFilterSnapshot(t *testing.T) {
	tiers := grid.MustNew[Tier](5, 1)
	snap := grid.MustNew[Tier](5, 1)
	tiers.Set(0, 0, TierStrong)
	SpatialFilter(tiers, snap, UnresolvedUnknown)
	require.Equal(t, TierSpatial, tiers.At(0, 1))
	require.Equal(t, TierSpatial, tiers.At(0, 2))
	// Only unknown cells within range, so no vote
	require.Equal(t, TierUnknown, tiers.At(0, 3))
	require.Equal(t, TierUnknown, tiers.At(0, 4))
}
