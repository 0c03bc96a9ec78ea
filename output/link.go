package output

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/file"
	"github.com/pkg/errors"

	"github.com/oliverhampton/SVachra/svcall"
)

// LinkTileWriter writes the two visualization files spec.md §6 calls out:
// a "link" file (one arc per event, for Circos-style renderers) and a
// "tile" file (one flat interval per breakpoint side, for genome browser
// tracks).
type LinkTileWriter struct {
	linkOut, tileOut file.File
	link, tile       io.Writer
	n                int
}

// NewLinkTileWriter creates the link and tile output paths.
func NewLinkTileWriter(ctx context.Context, linkPath, tilePath string) (*LinkTileWriter, error) {
	linkF, err := file.Create(ctx, linkPath)
	if err != nil {
		return nil, errors.Wrapf(err, "output.NewLinkTileWriter: creating %s", linkPath)
	}
	tileF, err := file.Create(ctx, tilePath)
	if err != nil {
		linkF.Close(ctx)
		return nil, errors.Wrapf(err, "output.NewLinkTileWriter: creating %s", tilePath)
	}
	return &LinkTileWriter{
		linkOut: linkF, tileOut: tileF,
		link: linkF.Writer(ctx), tile: tileF.Writer(ctx),
	}, nil
}

// Write appends one event to both the link and tile files.
func (w *LinkTileWriter) Write(e svcall.Event, namePrefix string) error {
	w.n++
	name := fmt.Sprintf("%s%d", namePrefix, w.n)
	c2, p2 := e.C2, e.P2
	if e.Type == svcall.CTX {
		c2, p2 = e.MateC, e.MateP
	}
	if _, err := fmt.Fprintf(w.link, "%s\t%d\t%d\t%s\t%d\t%d\t%s\n", e.C1, e.P1, e.P1+1, c2, p2, p2+1, name); err != nil {
		return errors.Wrapf(err, "output.LinkTileWriter: writing link %s", name)
	}
	if _, err := fmt.Fprintf(w.tile, "%s\t%d\t%d\t%s_1\n", e.C1, e.P1, e.P1+1, name); err != nil {
		return errors.Wrapf(err, "output.LinkTileWriter: writing tile %s", name)
	}
	if _, err := fmt.Fprintf(w.tile, "%s\t%d\t%d\t%s_2\n", c2, p2, p2+1, name); err != nil {
		return errors.Wrapf(err, "output.LinkTileWriter: writing tile %s", name)
	}
	return nil
}

// Close releases both underlying files.
func (w *LinkTileWriter) Close(ctx context.Context) error {
	err1 := w.linkOut.Close(ctx)
	err2 := w.tileOut.Close(ctx)
	if err1 != nil {
		return errors.Wrap(err1, "output.LinkTileWriter: close link")
	}
	return errors.Wrap(err2, "output.LinkTileWriter: close tile")
}
