package svcall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitInsDelFlipsOrientationToInwardConvention(t *testing.T) {
	opts := testOpts()
	cl := NewClusterer(opts)
	for i := 0; i < 10; i++ {
		cl.Add(delPair(i))
	}
	cl.Postprocess()
	events := cl.Emit()
	require.Len(t, events, 1)
	e := events[0]
	// delPair stores O1=-, O2=+; emission flips both sides to the inward
	// convention (spec.md §4.5/§9).
	assert.Equal(t, Plus, e.O1)
	assert.Equal(t, Minus, e.O2)
}

func TestEmitInsDelSuppressesBelowWindow(t *testing.T) {
	opts := testOpts()
	c := NewCluster(Pair{ReadID: "a", C1: "chr1", P1: 100, O1: Minus, C2: "chr1", P2: 20000, O2: Plus, TLen: 5050}, opts)
	c.tryMerge(Pair{ReadID: "b", C1: "chr1", P1: 100, O1: Minus, C2: "chr1", P2: 20000, O2: Plus, TLen: 5060}, false, opts)
	// DEL votes with template lengths just barely above Outward.Max, so the
	// indel sizes (50 and 60) average below the significance Window
	// (spec.md §4.5).
	_, ok := c.emitInsDel()
	assert.False(t, ok)
}

func TestEmitCTXProducesCrossReferencedPair(t *testing.T) {
	c := &Cluster{
		C1: "chr1", C2: "chr7",
		P1Min: 1000, P1Max: 1000, P2Min: 5000, P2Max: 5000,
		O1: Plus, O2: Minus, Count: 5,
	}
	events := c.emitCTX()
	require.Len(t, events, 2)
	assert.Equal(t, "chr1", events[0].C1)
	assert.Equal(t, "chr7", events[0].MateC)
	assert.Equal(t, "chr7", events[1].C1)
	assert.Equal(t, "chr1", events[1].MateC)
	assert.Equal(t, events[0].P1, events[1].MateP)
	assert.Equal(t, events[1].P1, events[0].MateP)
}

func TestInvAnchorPicksMinForPlusMaxForMinus(t *testing.T) {
	assert.Equal(t, 100, invAnchor(Plus, 100, 200))
	assert.Equal(t, 200, invAnchor(Minus, 100, 200))
}

func TestEmitInvUnpairedUsesAnchorConvention(t *testing.T) {
	c := &Cluster{
		C1: "chr1", C2: "chr1",
		P1Min: 100, P1Max: 300, O1: Plus,
		P2Min: 900, P2Max: 1100, O2: Minus,
		Count: 5,
	}
	e, ok := c.emitINVUnpaired()
	require.True(t, ok)
	assert.Equal(t, 100, e.P1)   // Plus -> min
	assert.Equal(t, 1100, e.P2) // Minus -> max
}

func TestEmitInvPairRequiresAlternatingSourceAndOrientation(t *testing.T) {
	a := &Cluster{
		C1: "chr1", C2: "chr1", Count: 5,
		P1Min: 1000, P1Max: 1000, O1: Plus,
		P2Min: 5000, P2Max: 5000, O2: Plus,
	}
	b := &Cluster{
		C1: "chr1", C2: "chr1", Count: 5,
		P1Min: 1050, P1Max: 1050, O1: Minus,
		P2Min: 5050, P2Max: 5050, O2: Minus,
	}
	e, ok := emitInvPair(a, b)
	require.True(t, ok)
	assert.Equal(t, 1000, e.P1)
	assert.Equal(t, 5050, e.P2)
	assert.Equal(t, 10, e.Count)
}

func TestEmitInvPairRejectsNonAlternatingAnchors(t *testing.T) {
	// Both of a's anchors land before both of b's: no alternation, not a
	// balanced inversion.
	a := &Cluster{
		C1: "chr1", C2: "chr1", Count: 5,
		P1Min: 1000, P1Max: 1000, O1: Plus,
		P2Min: 1050, P2Max: 1050, O2: Plus,
	}
	b := &Cluster{
		C1: "chr1", C2: "chr1", Count: 5,
		P1Min: 5000, P1Max: 5000, O1: Minus,
		P2Min: 5050, P2Max: 5050, O2: Minus,
	}
	_, ok := emitInvPair(a, b)
	assert.False(t, ok)
}

func TestLowHighSidesOrdersByMidpoint(t *testing.T) {
	c := &Cluster{P1Min: 100, P1Max: 100, P2Min: 5000, P2Max: 5000}
	lowMax, highMin := c.lowHighSides()
	assert.Equal(t, 100, lowMax)
	assert.Equal(t, 5000, highMin)

	reversed := &Cluster{P1Min: 5000, P1Max: 5000, P2Min: 100, P2Max: 100}
	lowMax, highMin = reversed.lowHighSides()
	assert.Equal(t, 100, lowMax)
	assert.Equal(t, 5000, highMin)
}
