package output

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/file"
	"github.com/pkg/errors"

	"github.com/oliverhampton/SVachra/svcall"
)

// BEDWriter emits intra-chromosomal events (INS, DEL, ITX, unpaired and
// paired INV) as BED records, spec.md §6: "BED for intra-chromosomal
// events".
type BEDWriter struct {
	out file.File
	w   io.Writer
	n   int
}

// NewBEDWriter creates path for BED output.
func NewBEDWriter(ctx context.Context, path string) (*BEDWriter, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "output.NewBEDWriter: creating %s", path)
	}
	return &BEDWriter{out: f, w: f.Writer(ctx)}, nil
}

// Write appends e as a BED interval if e is intra-chromosomal (C1 == C2 or
// e.Type is not CTX); CTX events belong in BEDPE and are silently skipped.
func (w *BEDWriter) Write(e svcall.Event, namePrefix string) error {
	if e.Type == svcall.CTX {
		return nil
	}
	w.n++
	start, end := e.P1, e.P2
	if end < start {
		start, end = end, start
	}
	_, err := fmt.Fprintf(w.w, "%s\t%d\t%d\t%s%d_%s\t%d\t%s\n",
		e.C1, start, end, namePrefix, w.n, e.Type, e.Count, e.O1)
	return errors.Wrapf(err, "output.BEDWriter: writing event %d", w.n)
}

// Close releases the underlying file.
func (w *BEDWriter) Close(ctx context.Context) error {
	return errors.Wrap(w.out.Close(ctx), "output.BEDWriter: close")
}
