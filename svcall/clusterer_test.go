package svcall

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOpts() Opts {
	o := DefaultOpts
	o.Inward = InsertWindow{Min: 0, Max: 500}
	o.Outward = InsertWindow{Min: 2000, Max: 5000}
	return o
}

// delOffsets spans exactly [0,100] so the resulting cluster's P1 range
// matches spec.md §8.1's worked DEL scenario (p1 ∈ [100000,100100]).
var delOffsets = []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 100}

// delPair returns an RF-oriented (outward) pair at the given offset within
// the DEL scenario of spec.md §8.1.
func delPair(i int) Pair {
	return Pair{
		ReadID: fmt.Sprintf("del-%d", i),
		C1:     "chr1", P1: 100000 + delOffsets[i], O1: Minus,
		C2: "chr1", P2: 110000 + delOffsets[i], O2: Plus,
		TLen: 10000, MapQ: 60, SeqLen: 100,
	}
}

func TestScenarioDEL(t *testing.T) {
	opts := testOpts()
	cl := NewClusterer(opts)
	for i := 0; i < 10; i++ {
		cl.Add(delPair(i))
	}
	cl.Postprocess()
	events := cl.Emit()

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, DEL, e.Type)
	assert.Equal(t, 10, e.Count)
	assert.InDelta(t, 5000, e.Size, 200)
	assert.Equal(t, 100100, e.P1)
	assert.Equal(t, 110000, e.P2)
}

func insPair(i int) Pair {
	return Pair{
		ReadID: fmt.Sprintf("ins-%d", i),
		C1:     "chr1", P1: 200000 + i*10, O1: Minus,
		C2: "chr1", P2: 201500 + i*10, O2: Plus,
		TLen: 1500, MapQ: 60, SeqLen: 100,
	}
}

func TestScenarioINS(t *testing.T) {
	opts := testOpts()
	cl := NewClusterer(opts)
	for i := 0; i < 10; i++ {
		cl.Add(insPair(i))
	}
	cl.Postprocess()
	events := cl.Emit()

	require.Len(t, events, 1)
	assert.Equal(t, INS, events[0].Type)
	assert.InDelta(t, 500, events[0].Size, 100)
}

func itxPair(i int) Pair {
	return Pair{
		ReadID: fmt.Sprintf("itx-%d", i),
		C1:     "chr2", P1: 300000 + i*10, O1: Plus,
		C2: "chr2", P2: 350000 + i*10, O2: Minus,
		TLen: 50000, MapQ: 60, SeqLen: 100,
	}
}

func TestScenarioITX(t *testing.T) {
	opts := testOpts()
	cl := NewClusterer(opts)
	for i := 0; i < 10; i++ {
		cl.Add(itxPair(i))
	}
	cl.Postprocess()
	events := cl.Emit()

	require.Len(t, events, 1)
	assert.Equal(t, ITX, events[0].Type)
	assert.Greater(t, events[0].Size, 0)
}

func ctxPair(i int) Pair {
	return Pair{
		ReadID: fmt.Sprintf("ctx-%d", i),
		C1:     "chr1", P1: 400000 + i*10, O1: Plus,
		C2: "chr7", P2: 500000 + i*10, O2: Minus,
		TLen: 0, MapQ: 60, SeqLen: 100,
	}
}

func TestScenarioCTX(t *testing.T) {
	opts := testOpts()
	cl := NewClusterer(opts)
	for i := 0; i < 5; i++ {
		cl.Add(ctxPair(i))
	}
	cl.Postprocess()
	events := cl.Emit()

	require.Len(t, events, 2)
	assert.Equal(t, CTX, events[0].Type)
	assert.Equal(t, CTX, events[1].Type)
	assert.Equal(t, events[0].C1, events[1].MateC)
	assert.Equal(t, events[1].C1, events[0].MateC)
}

func TestClustererMergesReadIDIdempotently(t *testing.T) {
	opts := testOpts()
	cl := NewClusterer(opts)
	p := delPair(0)
	cl.Add(p)
	cl.Add(p) // same read ID, must not double count
	clusters := cl.All()
	require.Len(t, clusters, 1)
	assert.Equal(t, 1, clusters[0].Count)
}

func TestClustererGreedyOpensNewClusterOnRangeOverflow(t *testing.T) {
	opts := testOpts()
	cl := NewClusterer(opts)
	cl.Add(delPair(0))
	// Far away pair, same chromosome/orientation-parity bucket, but well
	// outside outward_max of the first cluster: must open a second cluster
	// rather than growing the first past its range gate.
	far := delPair(0)
	far.ReadID = "del-far"
	far.P1 += 100000
	far.P2 += 100000
	cl.Add(far)

	clusters := cl.All()
	assert.Len(t, clusters, 2)
}
