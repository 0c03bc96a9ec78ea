package svcall

// Clusterer partitions discordant pairs by (chromosome-pair,
// orientation-parity) and incrementally merges each new record into an
// existing cluster in that bucket, or opens a new one (spec.md §4.3).
//
// Buckets never interact with each other during clustering (spec.md §5),
// so a caller may shard work across Clusterer instances keyed by bucket and
// merge the resulting bucket maps; this implementation stays single
// threaded, matching the batch, single-process core spec.md describes.
type Clusterer struct {
	opts    Opts
	buckets map[string]map[string][]*Cluster
	stats   Stats
}

// NewClusterer returns an empty clusterer configured with opts.
func NewClusterer(opts Opts) *Clusterer {
	return &Clusterer{opts: opts, buckets: map[string]map[string][]*Cluster{}, stats: NewStats()}
}

// Stats returns the run-level counters accumulated so far.
func (cl *Clusterer) Stats() Stats { return cl.stats }

// chromKey is the canonical chromosome-pair bucket key of spec.md §3:
// "min(c1,c2)-max(c1,c2)".
func chromKey(c1, c2 string) string {
	if c1 <= c2 {
		return c1 + "-" + c2
	}
	return c2 + "-" + c1
}

// parityKey is the orientation-parity bucket key of spec.md §3: "same"
// (o1 = o2) or "diff" (o1 ≠ o2).
func parityKey(o1, o2 Orientation) string {
	if o1 == o2 {
		return "same"
	}
	return "diff"
}

// Add folds one surviving discordant pair into the clusterer (spec.md
// §4.3). It attempts to merge p into the first cluster in its bucket whose
// intersect test holds, evaluated in insertion order (greedy,
// order-dependent, per spec.md §9's design note); if that attempt fails
// the per-side range gate, a new cluster is opened rather than trying the
// remaining candidates.
func (cl *Clusterer) Add(p Pair) {
	cl.stats.PairsClustered++
	key := chromKey(p.C1, p.C2)
	parity := parityKey(p.O1, p.O2)

	byParity, ok := cl.buckets[key]
	if !ok {
		byParity = map[string][]*Cluster{}
		cl.buckets[key] = byParity
	}
	list := byParity[parity]

	for _, c := range list {
		if c == nil {
			continue
		}
		ok, swap := c.intersect(p, cl.opts.Outward.Max)
		if !ok {
			continue
		}
		if c.tryMerge(p, swap, cl.opts) {
			return
		}
		break
	}
	byParity[parity] = append(list, NewCluster(p, cl.opts))
	cl.stats.ClustersOpened++
}

// Buckets returns the bucket keys currently populated, for diagnostics and
// tests.
func (cl *Clusterer) Buckets() []string {
	keys := make([]string, 0, len(cl.buckets))
	for k := range cl.buckets {
		keys = append(keys, k)
	}
	return keys
}

// Clusters returns the non-nil clusters in one bucket partition, for
// diagnostics and tests. QC-suppressed clusters are included.
func (cl *Clusterer) Clusters(key, parity string) []*Cluster {
	var out []*Cluster
	for _, c := range cl.buckets[key][parity] {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// All returns every non-nil cluster across all buckets, including
// QC-suppressed clusters and clusters below MinClusterCount.
func (cl *Clusterer) All() []*Cluster {
	var out []*Cluster
	for _, byParity := range cl.buckets {
		for _, list := range byParity {
			for _, c := range list {
				if c != nil {
					out = append(out, c)
				}
			}
		}
	}
	return out
}

func (cl *Clusterer) lookup(ref ClusterRef) *Cluster {
	if !ref.Valid {
		return nil
	}
	list := cl.buckets[ref.Key][ref.Parity]
	if ref.Index < 0 || ref.Index >= len(list) {
		return nil
	}
	return list[ref.Index]
}

func (cl *Clusterer) remove(ref ClusterRef) {
	if !ref.Valid {
		return
	}
	list := cl.buckets[ref.Key][ref.Parity]
	if ref.Index >= 0 && ref.Index < len(list) {
		list[ref.Index] = nil
	}
}
