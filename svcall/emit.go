package svcall

import "sort"

// Event is an emission-ready structural-variant call, oriented to the
// inward (FR) convention (spec.md §4.5/§9). A CTX cluster produces two
// Events; every other type, paired INV included, produces zero or one (a
// paired INV yields one composite Event for both clusters).
type Event struct {
	Type  SVType
	C1    string
	C2    string
	P1    int
	P2    int
	Size  int
	Count int
	Merge bool
	O1    Orientation
	O2    Orientation

	// MateC and MateP are set only for CTX events: the mate chromosome and
	// coordinate carried in the per-breakpoint annotation tag (spec.md §6:
	// "each carrying the mate chromosome coordinates in an annotation
	// tag").
	MateC string
	MateP int
}

// Emit runs the event classifier of spec.md §4.5 over every live cluster
// and returns the resulting events. Live means qc == true and count >=
// MinClusterCount: the fuller predicate spec.md §3 associates with
// "live" (which also requires size > inward_max·span and both side-ranges
// >= seq_length·min_cluster_count) is the eligibility gate for the
// inward/outward fusion roles (isOutwardEvidence/isInwardEvidence,
// spec.md §4.4b) rather than a blanket single-cluster emission gate — see
// DESIGN.md for why: applied at emission it would silently drop the
// worked DEL/INS scenarios of spec.md §8.
func (cl *Clusterer) Emit() []Event {
	var events []Event
	for _, byParity := range cl.buckets {
		for _, list := range byParity {
			for _, c := range list {
				if c == nil || !c.QC || c.consumed || c.Count < cl.opts.MinClusterCount {
					continue
				}
				emitted := c.emit(cl)
				for _, e := range emitted {
					cl.stats.EventsByType[e.Type]++
				}
				events = append(events, emitted...)
			}
		}
	}
	return events
}

func (c *Cluster) emit(cl *Clusterer) []Event {
	switch c.DominantType() {
	case INS, DEL:
		if e, ok := c.emitInsDel(); ok {
			return []Event{e}
		}
	case ITX:
		if e, ok := c.emitITX(); ok {
			return []Event{e}
		}
	case CTX:
		return c.emitCTX()
	case INV:
		if c.InvMerge {
			partner := cl.lookup(c.InvPartner)
			if partner == nil || !partner.QC || partner.Count < cl.opts.MinClusterCount {
				return nil
			}
			if e, ok := emitInvPair(c, partner); ok {
				cl.remove(c.InvPartner)
				return []Event{e}
			}
			return nil
		}
		if e, ok := c.emitINVUnpaired(); ok {
			return []Event{e}
		}
	}
	return nil
}

// lowHighSides orders the cluster's two sides by midpoint, returning
// (lowSideMax, highSideMin) — the reorientation spec.md §4.5 calls for on
// INS/DEL/ITX emission: "orient output so the smaller midpoint is written
// as p1_max and the larger as p2_min".
func (c *Cluster) lowHighSides() (lowMax, highMin int) {
	if c.mid1() <= c.mid2() {
		return c.P1Max, c.P2Min
	}
	return c.P2Max, c.P1Min
}

// emitInsDel is spec.md §4.5's INS/DEL branch.
func (c *Cluster) emitInsDel() (Event, bool) {
	if len(c.Indels) == 0 {
		return Event{}, false
	}
	sum := 0
	for _, v := range c.Indels {
		sum += v
	}
	svSize := sum / len(c.Indels)

	lowMax, highMin := c.lowHighSides()
	if highMin <= lowMax || svSize <= Window {
		return Event{}, false
	}
	return Event{
		Type: c.DominantType(), C1: c.C1, C2: c.C2,
		P1: lowMax, P2: highMin, Size: svSize,
		Count: c.Count, Merge: c.Merge,
		O1: c.O1.Flip(), O2: c.O2.Flip(),
	}, true
}

// emitITX is spec.md §4.5's ITX branch.
func (c *Cluster) emitITX() (Event, bool) {
	lowMax, highMin := c.lowHighSides()
	size := highMin - lowMax
	if size <= 0 {
		return Event{}, false
	}
	return Event{
		Type: ITX, C1: c.C1, C2: c.C2,
		P1: lowMax, P2: highMin, Size: size,
		Count: c.Count, Merge: c.Merge,
		O1: c.O1.Flip(), O2: c.O2.Flip(),
	}, true
}

// emitCTX is spec.md §4.5's CTX branch: one record per chromosome, each
// carrying the other's coordinate as its mate annotation.
func (c *Cluster) emitCTX() []Event {
	o1, o2 := c.O1.Flip(), c.O2.Flip()
	p1mid := (c.P1Min + c.P1Max) / 2
	p2mid := (c.P2Min + c.P2Max) / 2
	return []Event{
		{Type: CTX, C1: c.C1, P1: p1mid, MateC: c.C2, MateP: p2mid, O1: o1, O2: o2, Count: c.Count, Merge: c.Merge},
		{Type: CTX, C1: c.C2, P1: p2mid, MateC: c.C1, MateP: p1mid, O1: o2, O2: o1, Count: c.Count, Merge: c.Merge},
	}
}

// invAnchor returns the anchor coordinate for one side of an INV cluster:
// "+  → use p_min, − → use p_max" (spec.md §4.5).
func invAnchor(o Orientation, min, max int) int {
	if o == Plus {
		return min
	}
	return max
}

// emitINVUnpaired is spec.md §4.5's unpaired-INV branch.
func (c *Cluster) emitINVUnpaired() (Event, bool) {
	a1 := invAnchor(c.O1, c.P1Min, c.P1Max)
	a2 := invAnchor(c.O2, c.P2Min, c.P2Max)
	return Event{
		Type: INV, C1: c.C1, C2: c.C2,
		P1: a1, P2: a2, Size: absInt(a2 - a1),
		Count: c.Count, Merge: c.Merge,
		O1: c.O1.Flip(), O2: c.O2.Flip(),
	}, true
}

type invAnchorPoint struct {
	pos    int
	source int
	ori    Orientation
}

// emitInvPair is spec.md §4.5's paired-INV branch: sort the four endpoint
// anchors, require alternation by source cluster and by orientation
// (a balanced inversion), then emit a composite record spanning the outer
// two anchors.
func emitInvPair(a, b *Cluster) (Event, bool) {
	anchors := []invAnchorPoint{
		{invAnchor(a.O1, a.P1Min, a.P1Max), 0, a.O1},
		{invAnchor(a.O2, a.P2Min, a.P2Max), 0, a.O2},
		{invAnchor(b.O1, b.P1Min, b.P1Max), 1, b.O1},
		{invAnchor(b.O2, b.P2Min, b.P2Max), 1, b.O2},
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].pos < anchors[j].pos })
	for i := 1; i < len(anchors); i++ {
		if anchors[i].source == anchors[i-1].source || anchors[i].ori == anchors[i-1].ori {
			return Event{}, false
		}
	}
	return Event{
		Type: INV, C1: a.C1, C2: a.C2,
		P1: anchors[0].pos, P2: anchors[3].pos, Size: anchors[3].pos - anchors[0].pos,
		Count: a.Count + b.Count, Merge: a.Merge || b.Merge,
		O1: a.O1.Flip(), O2: a.O2.Flip(),
	}, true
}
