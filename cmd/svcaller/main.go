// Command svcaller decodes a BAM file of mate-pair/Nextera alignments and
// calls structural-variant breakpoints from discordant read pairs
// (spec.md §1). It follows the process-bootstrap shape of the teacher's
// cmd/bio-fusion: grail.Init() for setup/teardown, vcontext.Background()
// for the root context, github.com/grailbio/base/log for progress lines.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/spf13/cobra"

	"github.com/oliverhampton/SVachra/align"
	"github.com/oliverhampton/SVachra/genomask"
	"github.com/oliverhampton/SVachra/output"
	"github.com/oliverhampton/SVachra/svcall"
)

// cliFlags mirrors fusionFlags in the teacher's cmd/bio-fusion/main.go: a
// flat struct of the "lite profile" configuration options of spec.md §6,
// bound directly to command-line flags with no intermediate parsing layer.
type cliFlags struct {
	bamFile   string
	maskBED   string
	inwardMin int
	inwardMax int
	outwardMin int
	outwardMax int
	auto      bool

	minClusterCount   int
	minMappingQuality int
	uniqueMapping     bool
	svName            string
	qcFilter          bool

	svpOut    string
	bedOut    string
	bedpeOut  string
	linkOut   string
	tileOut   string
}

func (f cliFlags) opts() svcall.Opts {
	o := svcall.DefaultOpts
	o.MinClusterCount = f.minClusterCount
	o.MinMappingQuality = f.minMappingQuality
	o.UniqueMapping = f.uniqueMapping
	o.SVNamePrefix = f.svName
	o.QCFilter = f.qcFilter
	o.Inward = svcall.InsertWindow{Min: f.inwardMin, Max: f.inwardMax}
	o.Outward = svcall.InsertWindow{Min: f.outwardMin, Max: f.outwardMax}
	return o
}

func addCommonFlags(cmd *cobra.Command, f *cliFlags) {
	fl := cmd.Flags()
	fl.StringVar(&f.bamFile, "bam-file", "", "input BAM file (required)")
	fl.StringVar(&f.maskBED, "mask-bed", "", "optional mask BED (chrom, start, end)")
	fl.BoolVar(&f.auto, "auto", false, "infer insert-size windows from the BAM instead of requiring them (spec.md §4.2)")
	fl.IntVar(&f.inwardMin, "inward-min", 0, "inward insert-size window minimum (lite profile)")
	fl.IntVar(&f.inwardMax, "inward-max", 0, "inward insert-size window maximum (lite profile)")
	fl.IntVar(&f.outwardMin, "outward-min", 0, "outward insert-size window minimum (lite profile)")
	fl.IntVar(&f.outwardMax, "outward-max", 0, "outward insert-size window maximum (lite profile)")
	fl.IntVar(&f.minClusterCount, "min-cluster-count", svcall.DefaultOpts.MinClusterCount, "minimum fused pairs for a live cluster")
	fl.IntVar(&f.minMappingQuality, "min-mapping-quality", svcall.DefaultOpts.MinMappingQuality, "reject records below this MAPQ")
	fl.BoolVar(&f.uniqueMapping, "unique-mapping", svcall.DefaultOpts.UniqueMapping, "require the XT:A:U aux tag")
	fl.StringVar(&f.svName, "sv-name", svcall.DefaultOpts.SVNamePrefix, "annotation-name prefix")
	fl.BoolVar(&f.qcFilter, "qc-filter", svcall.DefaultOpts.QCFilter, "enable QC de-duplication sweep")
	fl.StringVar(&f.svpOut, "svp-output", "out.svp", "SVP output path")
	fl.StringVar(&f.bedOut, "bed-output", "out.bed", "BED output path")
	fl.StringVar(&f.bedpeOut, "bedpe-output", "out.bedpe", "BEDPE output path")
	fl.StringVar(&f.linkOut, "link-output", "out.link", "link visualization output path")
	fl.StringVar(&f.tileOut, "tile-output", "out.tile", "tile visualization output path")
}

func runCall(ctx context.Context, f cliFlags) error {
	if f.bamFile == "" {
		return errors.E(fmt.Errorf("--bam-file is required"))
	}
	if !f.auto && (f.inwardMax == 0 && f.outwardMax == 0) {
		return errors.E(fmt.Errorf("--inward-min/max and --outward-min/max are required unless --auto is set"))
	}

	reader, err := align.Open(ctx, f.bamFile)
	if err != nil {
		return errors.E(err, "svcaller: opening", f.bamFile)
	}
	defer reader.Close()

	var mask *genomask.Mask
	if f.maskBED != "" {
		mask, err = genomask.Load(ctx, f.maskBED)
		if err != nil {
			return errors.E(err, "svcaller: loading mask")
		}
	}

	opts := f.opts()
	stats := svcall.NewStats()

	if f.auto {
		hist := svcall.NewHistogram()
		pairs, err := decodeAll(reader, &stats)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			hist.Add(p.TLen)
		}
		inward, outward, err := svcall.InferInsertWindows(hist)
		if err != nil {
			return errors.E(err, "svcaller: fragment-size inference")
		}
		opts.Inward, opts.Outward = inward, outward
		log.Printf("svcaller: inferred inward=%+v outward=%+v", inward, outward)
		return call(ctx, pairs, mask, opts, f, &stats)
	}

	pairs, err := decodeAll(reader, &stats)
	if err != nil {
		return err
	}
	return call(ctx, pairs, mask, opts, f, &stats)
}

// pairReader is the subset of *align.Reader decodeAll needs, narrowed to an
// interface so its error-classification logic can be tested against a fake
// stream instead of a real BAM file.
type pairReader interface {
	Next() (svcall.Pair, bool, error)
}

// decodeAll drains reader into a slice of pairs. It distinguishes the three
// outcomes spec.md §7 gives Next: io.EOF ends the stream normally;
// align.ErrMalformedRecord is non-fatal and only bumps
// stats.MalformedRecords, since Next already logged which record and
// why; anything else is AlignerIOError and aborts the run. An aligner
// stream that produced not one record is treated as AlignerIOError too
// ("the external decoder produced no records or terminated abnormally").
func decodeAll(reader pairReader, stats *svcall.Stats) ([]svcall.Pair, error) {
	var pairs []svcall.Pair
	for {
		p, ok, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			if err == align.ErrMalformedRecord {
				stats.MalformedRecords++
				continue
			}
			return nil, errors.E(err, "svcaller: decoding alignment stream")
		}
		if ok {
			pairs = append(pairs, p)
		}
	}
	if len(pairs) == 0 {
		return nil, errors.E(fmt.Errorf("no records decoded"), "svcaller: aligner produced no records")
	}
	return pairs, nil
}

func call(ctx context.Context, pairs []svcall.Pair, mask *genomask.Mask, opts svcall.Opts, f cliFlags, stats *svcall.Stats) error {
	rule := genomask.Rule{
		Mask: mask, MinMappingQuality: opts.MinMappingQuality,
		UniqueMapping: opts.UniqueMapping, Inward: opts.Inward, Outward: opts.Outward,
	}
	clusterer := svcall.NewClusterer(opts)
	rejected := map[string]struct{}{}
	for _, p := range pairs {
		stats.RecordsSeen++
		if _, dup := rejected[p.ReadID]; dup {
			stats.PairsFiltered++
			continue
		}
		if rule.Reject(p) {
			rejected[p.ReadID] = struct{}{}
			stats.PairsFiltered++
			continue
		}
		clusterer.Add(p)
	}
	clusterer.Postprocess()
	events := clusterer.Emit()

	svp, err := output.NewSVPWriter(ctx, f.svpOut, "svcaller", f.bamFile, opts)
	if err != nil {
		return err
	}
	defer svp.Close(ctx)
	bed, err := output.NewBEDWriter(ctx, f.bedOut)
	if err != nil {
		return err
	}
	defer bed.Close(ctx)
	bedpe, err := output.NewBEDPEWriter(ctx, f.bedpeOut)
	if err != nil {
		return err
	}
	defer bedpe.Close(ctx)
	linktile, err := output.NewLinkTileWriter(ctx, f.linkOut, f.tileOut)
	if err != nil {
		return err
	}
	defer linktile.Close(ctx)

	writeOne := func(e svcall.Event) error {
		if err := svp.Write(e); err != nil {
			return err
		}
		if err := bed.Write(e, opts.SVNamePrefix); err != nil {
			return err
		}
		return linktile.Write(e, opts.SVNamePrefix)
	}

	i := 0
	for i < len(events) {
		e := events[i]
		if e.Type == svcall.CTX && i+1 < len(events) && events[i+1].Type == svcall.CTX {
			if err := bedpe.WritePair(e, events[i+1], opts.SVNamePrefix); err != nil {
				return err
			}
			if err := writeOne(e); err != nil {
				return err
			}
			if err := writeOne(events[i+1]); err != nil {
				return err
			}
			i += 2
			continue
		}
		if err := writeOne(e); err != nil {
			return err
		}
		i++
	}
	log.Printf("svcaller: emitted %d events from %d records (%d filtered, %d malformed)", len(events), stats.RecordsSeen, stats.PairsFiltered, stats.MalformedRecords)
	return nil
}

func newHistogramDumpCmd() *cobra.Command {
	var bamFile, out string
	cmd := &cobra.Command{
		Use:   "histogram-dump",
		Short: "Dump the absolute-template-length histogram for library QC (spec.md §6)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := vcontext.Background()
			reader, err := align.Open(ctx, bamFile)
			if err != nil {
				return err
			}
			defer reader.Close()
			stats := svcall.NewStats()
			pairs, err := decodeAll(reader, &stats)
			if err != nil {
				return err
			}
			hist := svcall.NewHistogram()
			for _, p := range pairs {
				hist.Add(p.TLen)
			}
			return output.WriteHistogram(ctx, out, hist)
		},
	}
	cmd.Flags().StringVar(&bamFile, "bam-file", "", "input BAM file (required)")
	cmd.Flags().StringVar(&out, "output", "histogram.tsv", "histogram dump output path")
	return cmd
}

// newMaskCheckCmd reports, per chromosome, how many mask intervals were
// loaded and their total base coverage (spec.md §6's mask-check diagnostic).
func newMaskCheckCmd() *cobra.Command {
	var maskBED string
	cmd := &cobra.Command{
		Use:   "mask-check",
		Short: "Report per-chromosome mask interval counts and base coverage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := vcontext.Background()
			mask, err := genomask.Load(ctx, maskBED)
			if err != nil {
				return err
			}
			stats := mask.Stats()
			chroms := make([]string, 0, len(stats))
			for chrom := range stats {
				chroms = append(chroms, chrom)
			}
			sort.Strings(chroms)
			for _, chrom := range chroms {
				s := stats[chrom]
				fmt.Printf("%s\t%d\t%d\n", chrom, s.Intervals, s.Coverage)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&maskBED, "mask-bed", "", "mask BED file (required)")
	return cmd
}

func newRootCmd() *cobra.Command {
	f := cliFlags{}
	cmd := &cobra.Command{
		Use:   "svcaller",
		Short: "Call structural-variant breakpoints from discordant mate-pair alignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(vcontext.Background(), f)
		},
	}
	addCommonFlags(cmd, &f)
	cmd.AddCommand(newHistogramDumpCmd(), newMaskCheckCmd())
	return cmd
}

func main() {
	cleanup := grail.Init()
	defer cleanup()

	if err := newRootCmd().Execute(); err != nil {
		log.Error.Printf("svcaller: %v", err)
		os.Exit(1)
	}
}
