package svcall

// Global constants named in spec.md §9 ("Global constants"). They are
// immutable package-level constants read directly by the components that
// use them; they are not fields of Opts and cannot be changed per run.
const (
	// Window is the minimum significant INS/DEL size (bp), spec.md §4.5/§8.
	Window = 100
	// Span is the tolerance multiplier of the cluster post-pass, spec.md
	// §3/§4.4: inward/outward fusion keeps each fused side within
	// Outward.Max·Span, and the fusion roles compare cluster size against
	// Inward.Max·Span. Incremental merges gate on Outward.Max alone.
	Span = 2.5
	// KMeansK is the number of clusters used by the fragment-size
	// inferrer's noise-floor k-means pass, spec.md §4.2 step 1.
	KMeansK = 3
	// KMeansDelta is the k-means convergence threshold between successive
	// centroid shifts, spec.md §4.2 step 1.
	KMeansDelta = 0.001
	// MaxSigma bounds the number of standard-deviation widenings the
	// fragment-size inferrer will try before giving up with
	// ErrPoorLibrary, spec.md §4.2 step 3.
	MaxSigma = 3
	// BinSize is the width, in base pairs, of one template-length
	// histogram bin, spec.md §4.2 ("bin = floor(|tlen| / 100)").
	BinSize = 100
)

// InsertWindow is an inclusive [Min, Max] base-pair insert-size interval.
type InsertWindow struct {
	Min, Max int
}

// Contains reports whether tlen falls within the window, inclusive.
func (w InsertWindow) Contains(tlen int) bool {
	return tlen >= w.Min && tlen <= w.Max
}

// Opts is the configuration record threaded through every component
// (spec.md §9: "Expose as a configuration record passed to every
// component; no process-wide mutable state"). It corresponds to the "lite
// profile" fields of spec.md §6 plus the two insert-size windows, which in
// the auto profile are filled in by InferInsertWindows instead of by flags.
type Opts struct {
	// Inward and Outward are the two insert-size windows discovered by the
	// fragment-size inferrer, or supplied directly in the lite profile.
	Inward, Outward InsertWindow

	// MinClusterCount is the minimum number of fused pairs a cluster must
	// carry to be considered live.
	MinClusterCount int
	// MinMappingQuality rejects records below this MAPQ.
	MinMappingQuality int
	// UniqueMapping requires the "XT:A:U" aux tag when true.
	UniqueMapping bool
	// SVNamePrefix is the annotation-name prefix used by the output
	// serializers (default "SV").
	SVNamePrefix string
	// QCFilter enables the cluster post-pass's QC de-duplication sweep.
	QCFilter bool
}

// DefaultOpts mirrors the lite-profile defaults of spec.md §6.
var DefaultOpts = Opts{
	MinClusterCount:   2,
	MinMappingQuality: 0,
	UniqueMapping:     false,
	SVNamePrefix:      "SV",
	QCFilter:          false,
}
