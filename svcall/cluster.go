package svcall

import (
	"math"

	"github.com/minio/highwayhash"
)

// zeroHashKey is the fixed HighwayHash key used to fingerprint read-ID sets
// (readIDDigest below), the same "hash internal identifiers with a
// zero-valued fixed key" idiom the teacher uses for gene-pair identities in
// fusion/postprocess.go's groupCandidatesByGenePair.
var zeroHashKey = [highwayhash.Size]byte{}

// hashReadID fingerprints a single read identifier.
func hashReadID(id string) [highwayhash.Size]byte {
	return highwayhash.Sum([]byte(id), zeroHashKey[:])
}

// xorDigest folds two read-ID-set fingerprints into the fingerprint of
// their union. XOR is commutative, so readIDDigest is order-independent —
// the "set", not "sequence", of read IDs a cluster has absorbed — and only
// correct because a read ID is never added to more than one cluster
// (spec.md §8: "No two pair-halves with identical read_id appear in the
// same cluster") before clusters are fused together.
func xorDigest(a, b [highwayhash.Size]byte) [highwayhash.Size]byte {
	var out [highwayhash.Size]byte
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// ClusterRef is a weak (bucket-key, orientation-parity, index) handle into
// the cluster arena, per spec.md §9 ("Back-references between paired
// inversion clusters ... these are weak handles, not ownership"). Clusters
// live in a slice per bucket; a back-reference is an index into that
// slice, and a consumed partner's slot is set to nil rather than removed,
// so indices stay stable.
type ClusterRef struct {
	Key    string
	Parity string
	Index  int
	Valid  bool
}

// Cluster is the mutable discordant-pair aggregate of spec.md §3.
type Cluster struct {
	C1, C2       string
	P1Min, P1Max int
	P2Min, P2Max int
	O1, O2       Orientation

	ReadIDs   map[string]struct{}
	Fragments []int
	Indels    []int
	Count     int
	TypeTally map[SVType]int

	// readIDDigest is a HighwayHash fingerprint of ReadIDs, kept for the QC
	// de-duplication sweep's tie-break bookkeeping (postprocess.go's
	// qcDedup): on an exact count/size tie, it distinguishes two clusters
	// that measured the same evidence twice from two that merely overlap.
	readIDDigest [highwayhash.Size]byte

	// SeqLen is a representative read length, taken from the first pair
	// fused in, used by the inward/outward fusion eligibility test
	// (spec.md §4.4b).
	SeqLen int

	Merge      bool
	InvMerge   bool
	InvPartner ClusterRef
	QC         bool

	// consumed marks a cluster that was folded into another as an
	// inward/outward fusion partner and logically deleted (spec.md §4.4b:
	// "The partner is removed from the bucket (logical deletion)").
	consumed bool
}

// NewCluster opens a new cluster from the first pair that failed to merge
// into any existing cluster in its bucket (spec.md §4.3).
func NewCluster(p Pair, opts Opts) *Cluster {
	c := &Cluster{
		C1: p.C1, C2: p.C2,
		P1Min: p.P1, P1Max: p.P1,
		P2Min: p.P2, P2Max: p.P2,
		O1: p.O1, O2: p.O2,
		ReadIDs:   map[string]struct{}{p.ReadID: {}},
		Count:     1,
		TypeTally: map[SVType]int{},
		SeqLen:    p.SeqLen,
		QC:        true,
	}
	c.readIDDigest = hashReadID(p.ReadID)
	c.vote(p, opts)
	return c
}

// Size is the spatial extent of the cluster, used for tie-breaks and merge
// gating (spec.md §3).
func (c *Cluster) Size() int {
	return (c.P1Max - c.P1Min) + (c.P2Max - c.P2Min)
}

// P1Range and P2Range are the individual side extents, used by the
// inward/outward fusion eligibility test (spec.md §4.4b).
func (c *Cluster) P1Range() int { return c.P1Max - c.P1Min }
func (c *Cluster) P2Range() int { return c.P2Max - c.P2Min }

// DominantType is argmax(type_tally) (spec.md §4.3/§4.5), breaking exact
// ties by typePriority for determinism.
func (c *Cluster) DominantType() SVType {
	best, bestCount := UNK, -1
	for _, t := range typePriority {
		if n := c.TypeTally[t]; n > bestCount {
			best, bestCount = t, n
		}
	}
	return best
}

// mid1 and mid2 are the cluster's two side midpoints, used throughout the
// intersect and fusion predicates.
func (c *Cluster) mid1() float64 { return float64(c.P1Min+c.P1Max) / 2 }
func (c *Cluster) mid2() float64 { return float64(c.P2Min+c.P2Max) / 2 }

// vote records the initial SV-type vote for p into c.TypeTally, and for
// INS/DEL votes appends the size contribution to c.Indels (spec.md §4.3
// "Initial SV-type vote").
func (c *Cluster) vote(p Pair, opts Opts) {
	var t SVType
	switch {
	case p.C1 != p.C2:
		t = CTX
	case p.O1 == p.O2:
		t = INV
	case IsRF(p):
		switch {
		case p.TLen < opts.Outward.Min:
			t = INS
			c.Indels = append(c.Indels, opts.Outward.Min-p.TLen)
		case p.TLen > opts.Outward.Max:
			t = DEL
			c.Indels = append(c.Indels, p.TLen-opts.Outward.Max)
		default:
			t = UNK
		}
	case IsFR(p):
		t = ITX
	default:
		t = UNK
	}
	c.TypeTally[t]++
}

// intersect implements spec.md §4.3's "Intersect test": it reports whether
// p may be folded into c and, if so, whether p's two sides must be read
// swapped relative to c's side1/side2 convention to align them.
//
// Same read identifier is treated as already merged (idempotent), per
// spec.md §4.3.
func (c *Cluster) intersect(p Pair, outwardMax int) (ok, swap bool) {
	if _, dup := c.ReadIDs[p.ReadID]; dup {
		return true, false
	}

	if c.C1 == c.C2 && p.C1 == p.C2 {
		// Same-chromosome case: choose whichever assignment of (p.P1,
		// p.P2) to (side1, side2) minimizes distance to the cluster's
		// midpoints.
		distDirect := math.Abs(float64(p.P1)-c.mid1()) + math.Abs(float64(p.P2)-c.mid2())
		distSwap := math.Abs(float64(p.P1)-c.mid2()) + math.Abs(float64(p.P2)-c.mid1())
		swap = distSwap < distDirect
		return c.checkAssignment(p, swap, outwardMax), swap
	}

	// Cross-chromosome case: match by exact chromosome identity, in
	// either order.
	switch {
	case p.C1 == c.C1 && p.C2 == c.C2:
		swap = false
	case p.C1 == c.C2 && p.C2 == c.C1:
		swap = true
	default:
		return false, false
	}
	return c.checkAssignment(p, swap, outwardMax), swap
}

// checkAssignment validates orientation match and window proximity for one
// candidate (direct or swapped) side assignment of p against c.
func (c *Cluster) checkAssignment(p Pair, swap bool, outwardMax int) bool {
	pp1, pp2, o1, o2 := p.P1, p.P2, p.O1, p.O2
	if swap {
		pp1, pp2, o1, o2 = p.P2, p.P1, p.O2, p.O1
	}
	if o1 != c.O1 || o2 != c.O2 {
		return false
	}
	if math.Abs(float64(pp1)-c.mid1()) > float64(outwardMax) {
		return false
	}
	if math.Abs(float64(pp2)-c.mid2()) > float64(outwardMax) {
		return false
	}
	return true
}

// tryMerge folds p into c under the given side assignment, but only
// commits the mutation if the post-merge per-side range stays within
// outwardMax (spec.md §4.3: "merge succeeds iff the post-merge per-side
// range remains ≤ outward_max"). It returns whether the merge committed.
func (c *Cluster) tryMerge(p Pair, swap bool, opts Opts) bool {
	if _, dup := c.ReadIDs[p.ReadID]; dup {
		return true
	}
	pp1, pp2 := p.P1, p.P2
	if swap {
		pp1, pp2 = p.P2, p.P1
	}
	newP1Min, newP1Max := minInt(c.P1Min, pp1), maxInt(c.P1Max, pp1)
	newP2Min, newP2Max := minInt(c.P2Min, pp2), maxInt(c.P2Max, pp2)
	if newP1Max-newP1Min > opts.Outward.Max || newP2Max-newP2Min > opts.Outward.Max {
		return false
	}

	c.P1Min, c.P1Max = newP1Min, newP1Max
	c.P2Min, c.P2Max = newP2Min, newP2Max
	c.ReadIDs[p.ReadID] = struct{}{}
	c.readIDDigest = xorDigest(c.readIDDigest, hashReadID(p.ReadID))
	c.Fragments = append(c.Fragments, p.TLen)
	c.Count++
	c.vote(p, opts)
	return true
}
