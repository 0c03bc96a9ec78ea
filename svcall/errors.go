package svcall

import "errors"

// Sentinel errors for the fragment-size inferrer's failure model (spec.md
// §4.6/§7). These are terminal: the caller aborts the run with exit code 1.
// Leaf packages in the teacher declare sentinels this way with the standard
// library "errors" package (see encoding/fastq/scanner.go's ErrShort,
// ErrInvalid, ErrDiscordant); I/O-adjacent layers instead wrap with
// github.com/grailbio/base/errors, which needs a real path/operation to
// attach (see align and genomask).
var (
	// ErrPoorLibrary is returned when no bin clears the background-noise
	// cutoff even after widening it to 3 standard deviations above the
	// noise-cluster mean (spec.md §4.2 step 3).
	ErrPoorLibrary = errors.New("svcall: could not find a bin above the background-noise threshold at sigma <= 3 (poor library)")

	// ErrNonDeconvolvableLibrary is returned when the two candidate
	// insert-size intervals overlap, so the library cannot be resolved
	// into two disjoint inward/outward populations (spec.md §4.2 step 6).
	ErrNonDeconvolvableLibrary = errors.New("svcall: inferred inward and outward insert-size windows overlap")
)
