package svcall

import "math"

// Postprocess runs the three cluster-algebra sweeps of spec.md §4.4, in
// order: QC de-duplication (opt-in), inward/outward fusion, then inversion
// pairing. Each sweep operates within a bucket only, preserving the
// per-bucket isolation spec.md §5 calls out as the natural parallelism
// boundary.
func (cl *Clusterer) Postprocess() {
	if cl.opts.QCFilter {
		cl.qcDedup()
	}
	cl.fuseInwardOutward()
	cl.pairInversions()
}

func rangesOverlap(aMin, aMax, bMin, bMax int) bool {
	return aMin <= bMax && bMin <= aMax
}

// clustersOverlap implements spec.md §4.4a's "overlap on both sides" test:
// directly (same side-to-side correspondence, matching orientations), or,
// for same-chromosome same-orientation clusters, swapped.
func clustersOverlap(a, b *Cluster) bool {
	if a.O1 == b.O1 && a.O2 == b.O2 &&
		rangesOverlap(a.P1Min, a.P1Max, b.P1Min, b.P1Max) &&
		rangesOverlap(a.P2Min, a.P2Max, b.P2Min, b.P2Max) {
		return true
	}
	if a.C1 == a.C2 && a.O1 == a.O2 &&
		a.O1 == b.O2 && a.O2 == b.O1 &&
		rangesOverlap(a.P1Min, a.P1Max, b.P2Min, b.P2Max) &&
		rangesOverlap(a.P2Min, a.P2Max, b.P1Min, b.P1Max) {
		return true
	}
	return false
}

// qcDedup is spec.md §4.4a: within each bucket, compare every live pair of
// clusters; on overlap, keep the larger count, tie-break by larger size,
// and suppress both on a double tie — unless the double tie is because the
// two clusters absorbed exactly the same read IDs (readIDDigest equal,
// same cardinality), in which case one survives rather than discarding a
// real call over duplicate bookkeeping. Suppression only flips qc; it
// never mutates cluster geometry.
func (cl *Clusterer) qcDedup() {
	for _, byParity := range cl.buckets {
		for _, list := range byParity {
			for i := 0; i < len(list); i++ {
				a := list[i]
				if a == nil || !a.QC {
					continue
				}
				for j := i + 1; j < len(list); j++ {
					b := list[j]
					if b == nil || !b.QC {
						continue
					}
					if !clustersOverlap(a, b) {
						continue
					}
					switch {
					case a.Count > b.Count:
						b.QC = false
						cl.stats.QCSuppressed++
					case b.Count > a.Count:
						a.QC = false
						cl.stats.QCSuppressed++
					case a.Size() > b.Size():
						b.QC = false
						cl.stats.QCSuppressed++
					case b.Size() > a.Size():
						a.QC = false
						cl.stats.QCSuppressed++
					default:
						if a.readIDDigest == b.readIDDigest && len(a.ReadIDs) == len(b.ReadIDs) {
							// Same evidence measured twice, not two
							// genuinely competing clusters: keep one
							// instead of discarding a real call.
							b.QC = false
							cl.stats.QCSuppressed++
						} else {
							a.QC, b.QC = false, false
							cl.stats.QCSuppressed += 2
						}
					}
					if !a.QC {
						break
					}
				}
			}
		}
	}
}

// isOutwardEvidence and isInwardEvidence are the two fusion-eligibility
// roles of spec.md §4.4b.
func (c *Cluster) isOutwardEvidence(opts Opts) bool {
	return c.QC && !c.consumed && float64(c.Size()) > float64(opts.Inward.Max)*Span
}

func (c *Cluster) isInwardEvidence(opts Opts) bool {
	if !c.QC || c.consumed {
		return false
	}
	if float64(c.Size()) >= float64(opts.Inward.Max)*Span {
		return false
	}
	minSpan := c.SeqLen * opts.MinClusterCount
	return c.P1Range() >= minSpan && c.P2Range() >= minSpan
}

// fusionAssignment decides whether out (outward evidence) and in (inward
// evidence) describe the same joint, and whether in's sides must be read
// swapped relative to out's convention. spec.md §9 flags the source's
// "inward_outward_intersect?" predicate as buggy (a tautologically false
// self-comparison) and says to use the companion merge predicate's form
// instead: a straightforward proximity check under each of the two
// possible side assignments.
func fusionAssignment(out, in *Cluster, outwardMax int) (ok, swap bool) {
	direct := math.Abs(out.mid1()-in.mid1()) <= float64(outwardMax) &&
		math.Abs(out.mid2()-in.mid2()) <= float64(outwardMax) &&
		out.O1 != in.O1 && out.O2 != in.O2
	if direct {
		return true, false
	}
	swapped := math.Abs(out.mid1()-in.mid2()) <= float64(outwardMax) &&
		math.Abs(out.mid2()-in.mid1()) <= float64(outwardMax) &&
		out.O1 != in.O2 && out.O2 != in.O1
	if swapped {
		return true, true
	}
	return false, false
}

// fusedSides returns in's (P1Min,P1Max,P2Min,P2Max,O1,O2) under swap,
// aligned to out's side convention.
func fusedSides(in *Cluster, swap bool) (p1min, p1max, p2min, p2max int, o1, o2 Orientation) {
	if !swap {
		return in.P1Min, in.P1Max, in.P2Min, in.P2Max, in.O1, in.O2
	}
	return in.P2Min, in.P2Max, in.P1Min, in.P1Max, in.O2, in.O1
}

// canFuse checks the fused span invariant of spec.md §4.4b: "If the fused
// per-side extents stay within outward_max · span, merge."
func canFuse(out, in *Cluster, swap bool, opts Opts) bool {
	ip1min, ip1max, ip2min, ip2max, _, _ := fusedSides(in, swap)
	newP1Min, newP1Max := minInt(out.P1Min, ip1min), maxInt(out.P1Max, ip1max)
	newP2Min, newP2Max := minInt(out.P2Min, ip2min), maxInt(out.P2Max, ip2max)
	limit := float64(opts.Outward.Max) * Span
	return float64(newP1Max-newP1Min) <= limit && float64(newP2Max-newP2Min) <= limit
}

// fuseWith merges in into out: union side-ranges, concatenate read IDs,
// fragments and indels, sum count, and set merge. If in was the larger
// (by Size) of the two, its orientation and type_tally survive instead of
// out's ("outward evidence dominates when longer", spec.md §4.4b).
func fuseWith(out, in *Cluster, swap bool) {
	ip1min, ip1max, ip2min, ip2max, iO1, iO2 := fusedSides(in, swap)
	inLarger := in.Size() > out.Size()

	out.P1Min, out.P1Max = minInt(out.P1Min, ip1min), maxInt(out.P1Max, ip1max)
	out.P2Min, out.P2Max = minInt(out.P2Min, ip2min), maxInt(out.P2Max, ip2max)
	for id := range in.ReadIDs {
		out.ReadIDs[id] = struct{}{}
	}
	out.readIDDigest = xorDigest(out.readIDDigest, in.readIDDigest)
	out.Fragments = append(out.Fragments, in.Fragments...)
	out.Indels = append(out.Indels, in.Indels...)
	out.Count += in.Count
	out.Merge = true
	if inLarger {
		out.O1, out.O2 = iO1, iO2
		out.TypeTally = in.TypeTally
	}
}

// fuseInwardOutward is spec.md §4.4b. Every eligible outward-evidence
// cluster in a bucket is tried against every eligible inward-evidence
// cluster in the same bucket; on a match the inward partner is folded in
// and logically deleted (its slot set to nil).
func (cl *Clusterer) fuseInwardOutward() {
	for _, byParity := range cl.buckets {
		for _, list := range byParity {
			for _, out := range list {
				if out == nil || !out.isOutwardEvidence(cl.opts) {
					continue
				}
				for _, in := range list {
					if in == nil || in == out || in.consumed || !in.isInwardEvidence(cl.opts) {
						continue
					}
					ok, swap := fusionAssignment(out, in, cl.opts.Outward.Max)
					if !ok || !canFuse(out, in, swap, cl.opts) {
						continue
					}
					fuseWith(out, in, swap)
					in.consumed = true
					cl.stats.ClustersFused++
				}
			}
			// Replace consumed inward partners with nil rather than
			// mutating slice length, keeping indices (and any
			// back-references into them) stable.
			for i, c := range list {
				if c != nil && c.consumed {
					list[i] = nil
				}
			}
		}
	}
}

// invProximity mirrors fusionAssignment's proximity check for two INV
// clusters: side-windows overlap within outward_max under one of the two
// possible assignments (spec.md §4.4c).
func invProximity(a, b *Cluster, outwardMax int) (ok, swap bool) {
	if math.Abs(a.mid1()-b.mid1()) <= float64(outwardMax) && math.Abs(a.mid2()-b.mid2()) <= float64(outwardMax) {
		return true, false
	}
	if math.Abs(a.mid1()-b.mid2()) <= float64(outwardMax) && math.Abs(a.mid2()-b.mid1()) <= float64(outwardMax) {
		return true, true
	}
	return false, false
}

// pairInversions is spec.md §4.4c: within each same-chromosome, same-parity
// bucket, pair opposite-orientation ("++" with "--") INV clusters whose
// side-windows overlap. Each cluster participates in at most one pairing;
// pairing only records back-references, it never mutates positions.
func (cl *Clusterer) pairInversions() {
	for key, byParity := range cl.buckets {
		list, ok := byParity["same"]
		if !ok {
			continue
		}
		for i := 0; i < len(list); i++ {
			a := list[i]
			if a == nil || !a.QC || a.InvMerge || a.DominantType() != INV {
				continue
			}
			if a.O1 != a.O2 {
				continue
			}
			for j := i + 1; j < len(list); j++ {
				b := list[j]
				if b == nil || !b.QC || b.InvMerge || b.DominantType() != INV {
					continue
				}
				if b.O1 != b.O2 || a.O1 == b.O1 {
					continue
				}
				if ok, _ := invProximity(a, b, cl.opts.Outward.Max); !ok {
					continue
				}
				a.InvMerge = true
				a.InvPartner = ClusterRef{Key: key, Parity: "same", Index: j, Valid: true}
				b.InvMerge = true
				b.InvPartner = ClusterRef{Key: key, Parity: "same", Index: i, Valid: true}
				cl.stats.InversionsPaired++
				break
			}
		}
	}
}
