package output

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/file"
	"github.com/pkg/errors"

	"github.com/oliverhampton/SVachra/svcall"
)

// BEDPEWriter emits inter-chromosomal (CTX) events as BEDPE records,
// spec.md §6: "BEDPE for inter-chromosomal events".
type BEDPEWriter struct {
	out file.File
	w   io.Writer
	n   int
}

// NewBEDPEWriter creates path for BEDPE output.
func NewBEDPEWriter(ctx context.Context, path string) (*BEDPEWriter, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "output.NewBEDPEWriter: creating %s", path)
	}
	return &BEDPEWriter{out: f, w: f.Writer(ctx)}, nil
}

// WritePair appends one CTX breakpoint's paired records (a, b, the two
// Events emitCTX produces) as a single BEDPE line.
func (w *BEDPEWriter) WritePair(a, b svcall.Event, namePrefix string) error {
	if a.Type != svcall.CTX || b.Type != svcall.CTX {
		return errors.New("output.BEDPEWriter.WritePair: both events must be CTX")
	}
	w.n++
	_, err := fmt.Fprintf(w.w, "%s\t%d\t%d\t%s\t%d\t%d\t%s%d\t%d\t%s\t%s\n",
		a.C1, a.P1, a.P1+1, b.C1, b.P1, b.P1+1,
		namePrefix, w.n, a.Count, a.O1, b.O1)
	return errors.Wrapf(err, "output.BEDPEWriter: writing pair %d", w.n)
}

// Close releases the underlying file.
func (w *BEDPEWriter) Close(ctx context.Context) error {
	return errors.Wrap(w.out.Close(ctx), "output.BEDPEWriter: close")
}
