// Package align decodes BAM alignment records into the normalized Pair
// tuple that the rest of svcaller consumes (spec.md §3 "Aligned record",
// §4.1 "Record decoder"). It is grounded on the teacher's BAM reading
// path (encoding/bamprovider.BAMProvider, encoding/bampair.IsLeftMost).
package align

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"

	"github.com/oliverhampton/SVachra/svcall"
)

var xtTag = sam.NewTag("XT")

// ErrMalformedRecord is Next's report of spec.md §7's MalformedRecord kind:
// a record that passed BAM parsing but is missing the reference
// information isLeftMost and decode both need. It is non-fatal; the caller
// counts it and keeps decoding (unlike io.EOF and the wrapped
// github.com/grailbio/base/errors below, both of which stop the stream).
var ErrMalformedRecord = stderrors.New("align: malformed record")

// uniqueTagValue is the aux value the "-u" unique-mapping constraint checks
// for (spec.md §4.1: `unique_mapping`: boolean; when true, the optional tag
// XT:A:U must be present).
const uniqueTagValue = "U"

// Reader streams sam.Record pairs from a BAM file and decodes each primary,
// non-secondary, non-supplementary, both-mapped record into a svcall.Pair.
// It mirrors bamprovider.BAMProvider's open/close discipline but reads the
// whole file forward, which is all the batch, single-process core of
// spec.md §5 needs.
type Reader struct {
	path   string
	ctx    context.Context
	f      file.File
	reader *bam.Reader
}

// Open opens path (which may be a cloud URL; file.Open is transport
// agnostic, spec.md §2) for streaming BAM decode.
func Open(ctx context.Context, path string) (*Reader, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "align.Open: opening", path)
	}
	r, err := bam.NewReader(f.Reader(ctx), 1)
	if err != nil {
		f.Close(ctx)
		return nil, errors.E(err, "align.Open: reading BAM header from", path)
	}
	return &Reader{path: path, ctx: ctx, f: f, reader: r}, nil
}

// Header returns the BAM header, mainly for reference-name lookups by
// callers that need chromosome name validation.
func (r *Reader) Header() *sam.Header { return r.reader.Header() }

// Close releases the underlying file.
func (r *Reader) Close() error {
	if err := r.f.Close(r.ctx); err != nil {
		return errors.E(err, "align.Close:", r.path)
	}
	return nil
}

// Next decodes the next eligible record's pair into p, skipping secondary,
// supplementary, unmapped, and mate-unmapped records exactly as
// bampair.findDistantMates does. It reports io.EOF via the returned error
// when the stream is exhausted, ErrMalformedRecord for a record missing
// the reference fields isLeftMost/decode dereference (spec.md §7's
// MalformedRecord, non-fatal), and any other decode failure wrapped
// through github.com/grailbio/base/errors (spec.md §7's AlignerIOError,
// fatal). It reports (Pair{}, false, nil) for records that were skipped
// rather than decoded, so the caller can keep a record-seen counter
// accurate without special-casing skip reasons.
func (r *Reader) Next() (p svcall.Pair, ok bool, err error) {
	rec, err := r.reader.Read()
	if err != nil {
		if err == io.EOF {
			return svcall.Pair{}, false, io.EOF
		}
		return svcall.Pair{}, false, errors.E(err, "align.Next: reading", r.path)
	}
	if skip(rec) {
		return svcall.Pair{}, false, nil
	}
	if malformed(rec) {
		LogSkipped("malformed record (missing reference)", rec.Name)
		return svcall.Pair{}, false, ErrMalformedRecord
	}
	// Only decode the leftmost mate of a pair; the mate record carries the
	// same information mirrored, and would otherwise double-count the
	// pair (bampair.IsLeftMost, adapted: here "leftmost" only decides
	// which of the two records in the stream produces the Pair, not shard
	// assignment).
	if !isLeftMost(rec) {
		return svcall.Pair{}, false, nil
	}
	return decode(rec), true, nil
}

// malformed reports whether rec lacks the reference identity isLeftMost
// and decode both dereference. A record can pass BAM parsing yet still be
// missing this when the aligner emits a truncated or hand-edited stream.
func malformed(rec *sam.Record) bool {
	return rec.Ref == nil || rec.MateRef == nil
}

func skip(rec *sam.Record) bool {
	if rec.Flags&sam.Secondary != 0 || rec.Flags&sam.Supplementary != 0 {
		return true
	}
	if rec.Flags&sam.Unmapped != 0 || rec.Flags&sam.MateUnmapped != 0 {
		return true
	}
	return false
}

// isLeftMost mirrors bampair.IsLeftMost: the read on the smaller reference
// ID, then smaller position, then Read1 breaks a same-position tie.
func isLeftMost(r *sam.Record) bool {
	if r.Ref.ID() != r.MateRef.ID() {
		return r.Ref.ID() < r.MateRef.ID()
	}
	if r.Pos != r.MatePos {
		return r.Pos < r.MatePos
	}
	return r.Flags&sam.Read1 != 0
}

func orientationOf(r *sam.Record) svcall.Orientation {
	if r.Flags&sam.Reverse != 0 {
		return svcall.Minus
	}
	return svcall.Plus
}

func mateOrientationOf(r *sam.Record) svcall.Orientation {
	if r.Flags&sam.MateReverse != 0 {
		return svcall.Minus
	}
	return svcall.Plus
}

func hasUniqueTag(r *sam.Record) bool {
	aux := r.AuxFields.Get(xtTag)
	if aux == nil {
		return false
	}
	if aux.Type() == 'A' {
		return len(aux) > 3 && aux[3] == uniqueTagValue[0]
	}
	v, ok := aux.Value().(string)
	return ok && v == uniqueTagValue
}

func decode(r *sam.Record) svcall.Pair {
	tlen := r.TempLen
	if tlen < 0 {
		tlen = -tlen
	}
	return svcall.Pair{
		ReadID: r.Name,
		C1:     r.Ref.Name(),
		P1:     r.Pos + 1,
		O1:     orientationOf(r),
		C2:     r.MateRef.Name(),
		P2:     r.MatePos + 1,
		O2:     mateOrientationOf(r),
		TLen:   tlen,
		MapQ:   int(r.MapQ),
		Unique: hasUniqueTag(r),
		SeqLen: r.Seq.Length,
	}
}

// LogSkipped logs a debug line for a record that decode-time filtering
// dropped, in the teacher's log.Debug.Printf style (bampair.findDistantMates).
func LogSkipped(reason, name string) {
	log.Debug.Printf("align: skipping %s: %s", name, reason)
}
