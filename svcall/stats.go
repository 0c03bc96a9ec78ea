package svcall

// Stats collects run-level counters for one svcaller invocation, mirroring
// fusion.Stats in the teacher package.
type Stats struct {
	// RecordsSeen is the total number of alignment records decoded.
	RecordsSeen int
	// PairsFiltered is the number of pairs rejected by the mask/MAPQ/
	// uniqueness/concordance filter (spec.md §4.1).
	PairsFiltered int
	// PairsClustered is the number of surviving discordant pairs folded
	// into the streaming clusterer.
	PairsClustered int
	// ClustersOpened is the number of new clusters created.
	ClustersOpened int
	// ClustersFused is the number of inward/outward fusion merges applied
	// in the post-pass.
	ClustersFused int
	// InversionsPaired is the number of INV cluster pairs joined into a
	// single balanced-inversion event.
	InversionsPaired int
	// QCSuppressed is the number of clusters suppressed by QC de-duplication.
	QCSuppressed int
	// MalformedRecords is the number of records skipped as
	// align.ErrMalformedRecord (spec.md §7's MalformedRecord: "non-fatal;
	// skipped").
	MalformedRecords int
	// EventsByType tallies emitted events per SVType.
	EventsByType map[SVType]int
}

// NewStats returns a zeroed Stats with its map initialized.
func NewStats() Stats {
	return Stats{EventsByType: map[SVType]int{}}
}

// Merge adds the field values of two Stats and returns a new Stats, the
// same accumulation shape as fusion.Stats.Merge in the teacher package.
func (s Stats) Merge(o Stats) Stats {
	s.RecordsSeen += o.RecordsSeen
	s.PairsFiltered += o.PairsFiltered
	s.PairsClustered += o.PairsClustered
	s.ClustersOpened += o.ClustersOpened
	s.ClustersFused += o.ClustersFused
	s.InversionsPaired += o.InversionsPaired
	s.QCSuppressed += o.QCSuppressed
	s.MalformedRecords += o.MalformedRecords
	merged := map[SVType]int{}
	for t, n := range s.EventsByType {
		merged[t] = n
	}
	for t, n := range o.EventsByType {
		merged[t] += n
	}
	s.EventsByType = merged
	return s
}
