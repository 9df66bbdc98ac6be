package layout

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gocfg/bbreorder/internal/cfg"
)

func TestProbabilitiesEquivalent(t *testing.T) {
	require.True(t, probabilitiesEquivalent(1000, 1000))
	require.True(t, probabilitiesEquivalent(1050, 1000)) // +5%, within the 10% band
	require.False(t, probabilitiesEquivalent(1200, 1000))
	require.True(t, probabilitiesEquivalent(0, 0))
	require.False(t, probabilitiesEquivalent(10, 0))
}

func TestBetterEdgePNilCurrentAlwaysLoses(t *testing.T) {
	bb := &cfg.BasicBlock{}
	cand := &cfg.Edge{Dst: &cfg.BasicBlock{}}
	require.True(t, betterEdgeP(bb, nil, cand, false))
}

func TestBetterEdgePCrossingOverride(t *testing.T) {
	bb := &cfg.BasicBlock{}
	cur := &cfg.Edge{Dst: &cfg.BasicBlock{}, Probability: 9000, Crossing: true}
	cand := &cfg.Edge{Dst: &cfg.BasicBlock{}, Probability: 1000, Crossing: false}

	// Partitioning disabled: probability alone decides, cur wins.
	require.False(t, betterEdgeP(bb, cur, cand, false))
	// Partitioning enabled: any non-crossing edge beats any crossing one.
	require.True(t, betterEdgeP(bb, cur, cand, true))
}

func TestBetterEdgePHigherProbabilityWins(t *testing.T) {
	bb := &cfg.BasicBlock{}
	cur := &cfg.Edge{Dst: &cfg.BasicBlock{}, Probability: 3000}
	cand := &cfg.Edge{Dst: &cfg.BasicBlock{}, Probability: 8000}
	require.True(t, betterEdgeP(bb, cur, cand, false))
	require.False(t, betterEdgeP(bb, cand, cur, false))
}

func TestBetterEdgePEquivalentProbabilityLowerFrequencyWins(t *testing.T) {
	bb := &cfg.BasicBlock{}
	cur := &cfg.Edge{Dst: &cfg.BasicBlock{Frequency: 500}, Probability: 5000}
	cand := &cfg.Edge{Dst: &cfg.BasicBlock{Frequency: 100}, Probability: 5000}
	require.True(t, betterEdgeP(bb, cur, cand, false))
}

func TestBetterEdgePStabilityTieBreak(t *testing.T) {
	layoutNext := &cfg.BasicBlock{Frequency: 200}
	other := &cfg.BasicBlock{Frequency: 200}
	bb := &cfg.BasicBlock{LayoutNext: layoutNext}

	cur := &cfg.Edge{Dst: other, Probability: 5000}
	cand := &cfg.Edge{Dst: layoutNext, Probability: 5000}
	require.True(t, betterEdgeP(bb, cur, cand, false))
	require.False(t, betterEdgeP(bb, cand, cur, false))
}
