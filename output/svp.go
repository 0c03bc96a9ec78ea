// Package output implements the serializer collaborators of spec.md §6:
// SVP, BED, BEDPE, and link/tile visualization writers fed by svcall.Event
// streams. It follows the teacher's file-writing discipline
// (cmd/bio-fusion/io.go: open with grailbio/base/file, defer/explicit
// Close, panic-free error returns) but wraps errors with
// github.com/pkg/errors instead of grailbio/base/errors, matching how the
// rest of the pack's leaf serializer code (rather than its I/O-adjacent
// BAM/PAM layer) tends to wrap.
package output

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/grailbio/base/file"
	"github.com/pkg/errors"

	"github.com/oliverhampton/SVachra/svcall"
)

// annotationTags is the SVP header's tag dictionary, spec.md §6: "the
// annotation-tag dictionary {TY, O1, O2, NR, MG, CTX}".
var annotationTags = []string{"TY", "O1", "O2", "NR", "MG", "CTX"}

// SVPWriter emits one SVP line per event (two for CTX), spec.md §6.
type SVPWriter struct {
	out  file.File
	w    io.Writer
	opts svcall.Opts
	n    int
}

// NewSVPWriter creates path and writes the SVP header: program name,
// source file, run ID, and the annotation-tag dictionary.
func NewSVPWriter(ctx context.Context, path, programName, sourceFile string, opts svcall.Opts) (*SVPWriter, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "output.NewSVPWriter: creating %s", path)
	}
	w := &SVPWriter{out: f, w: f.Writer(ctx), opts: opts}
	if err := w.writeHeader(programName, sourceFile); err != nil {
		f.Close(ctx)
		return nil, err
	}
	return w, nil
}

func (w *SVPWriter) writeHeader(programName, sourceFile string) error {
	runID := uuid.New().String()
	if _, err := fmt.Fprintf(w.w, "##program=%s\n##source=%s\n##run_id=%s\n", programName, sourceFile, runID); err != nil {
		return errors.Wrap(err, "output.SVPWriter: writing header")
	}
	for _, tag := range annotationTags {
		if _, err := fmt.Fprintf(w.w, "##tag=%s\n", tag); err != nil {
			return errors.Wrap(err, "output.SVPWriter: writing tag dictionary")
		}
	}
	_, err := fmt.Fprintf(w.w, "#chrom1\tpos1\tchrom2\tpos2\tname\ttype\tsize\tcount\tmerge\to1\to2\n")
	return errors.Wrap(err, "output.SVPWriter: writing column header")
}

// Write appends one event as an SVP line.
func (w *SVPWriter) Write(e svcall.Event) error {
	w.n++
	name := fmt.Sprintf("%s%d", w.opts.SVNamePrefix, w.n)
	c2, p2 := e.C2, e.P2
	if e.Type == svcall.CTX {
		c2, p2 = e.MateC, e.MateP
	}
	mg := 0
	if e.Merge {
		mg = 1
	}
	_, err := fmt.Fprintf(w.w, "%s\t%d\t%s\t%d\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
		e.C1, e.P1, c2, p2, name, e.Type, e.Size, e.Count, mg, e.O1, e.O2)
	return errors.Wrapf(err, "output.SVPWriter: writing event %s", name)
}

// Close flushes and releases the underlying file.
func (w *SVPWriter) Close(ctx context.Context) error {
	return errors.Wrap(w.out.Close(ctx), "output.SVPWriter: close")
}
