package svcall

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsMergeAccumulatesFieldsAndEventCounts(t *testing.T) {
	a := NewStats()
	a.RecordsSeen = 10
	a.PairsFiltered = 2
	a.EventsByType[DEL] = 3

	b := NewStats()
	b.RecordsSeen = 5
	b.ClustersFused = 1
	b.EventsByType[DEL] = 1
	b.EventsByType[INV] = 2

	merged := a.Merge(b)
	assert.Equal(t, 15, merged.RecordsSeen)
	assert.Equal(t, 2, merged.PairsFiltered)
	assert.Equal(t, 1, merged.ClustersFused)
	assert.Equal(t, 4, merged.EventsByType[DEL])
	assert.Equal(t, 2, merged.EventsByType[INV])
}

func TestQCDedupIncrementsQCSuppressed(t *testing.T) {
	opts := testOpts()
	opts.QCFilter = true

	a := NewCluster(delPair(0), opts)
	for i := 1; i < 10; i++ {
		a.tryMerge(delPair(i), false, opts)
	}
	dup := delPair(0)
	dup.ReadID = "del-dup"
	dup.P1, dup.P2 = 100050, 110050
	b := NewCluster(dup, opts)

	cl := NewClusterer(opts)
	cl.buckets[chromKey("chr1", "chr1")] = map[string][]*Cluster{"diff": {a, b}}
	cl.qcDedup()

	assert.Equal(t, 1, cl.Stats().QCSuppressed)
}

func TestPairInversionsIncrementsInversionsPaired(t *testing.T) {
	opts := testOpts()
	cl := NewClusterer(opts)
	offsets := []int{-200, -100, 0, 100, 200}
	for i, o := range offsets {
		cl.Add(invPPair(i, o))
	}
	for i, o := range offsets {
		cl.Add(invMPair(i, o))
	}
	cl.Postprocess()
	assert.Equal(t, 1, cl.Stats().InversionsPaired)
}

func TestEmitTalliesEventsByType(t *testing.T) {
	opts := testOpts()
	cl := NewClusterer(opts)
	for i := 0; i < 10; i++ {
		cl.Add(delPair(i))
	}
	cl.Postprocess()
	cl.Emit()
	assert.Equal(t, 1, cl.Stats().EventsByType[DEL])
}
