package output

import (
	"context"
	"fmt"

	"github.com/grailbio/base/file"
	"github.com/pkg/errors"

	"github.com/oliverhampton/SVachra/svcall"
)

// WriteHistogram dumps h as "bin*100 -> count" pairs to path, the
// library-QC diagnostic of spec.md §6.
func WriteHistogram(ctx context.Context, path string, h svcall.Histogram) error {
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "output.WriteHistogram: creating %s", path)
	}
	w := f.Writer(ctx)
	for _, pair := range h.Dump() {
		if _, err := fmt.Fprintf(w, "%d\t%d\n", pair[0], pair[1]); err != nil {
			f.Close(ctx)
			return errors.Wrap(err, "output.WriteHistogram: writing")
		}
	}
	return errors.Wrap(f.Close(ctx), "output.WriteHistogram: close")
}
