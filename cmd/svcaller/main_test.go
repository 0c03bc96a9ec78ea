package main

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oliverhampton/SVachra/align"
	"github.com/oliverhampton/SVachra/svcall"
)

// fakePairReader replays a fixed script of Next() results, letting
// decodeAll's error classification be tested without a real BAM stream.
type fakePairReader struct {
	pairs []svcall.Pair
	errs  []error
	i     int
}

func (f *fakePairReader) Next() (svcall.Pair, bool, error) {
	if f.i >= len(f.errs) {
		return svcall.Pair{}, false, io.EOF
	}
	err := f.errs[f.i]
	var p svcall.Pair
	ok := err == nil
	if ok {
		p = f.pairs[f.i]
	}
	f.i++
	return p, ok, err
}

func TestDecodeAllSkipsMalformedRecordsAndCounts(t *testing.T) {
	reader := &fakePairReader{
		pairs: []svcall.Pair{{ReadID: "a"}, {}, {ReadID: "b"}},
		errs:  []error{nil, align.ErrMalformedRecord, nil},
	}
	stats := svcall.NewStats()
	pairs, err := decodeAll(reader, &stats)
	assert.NoError(t, err)
	assert.Len(t, pairs, 2)
	assert.Equal(t, 1, stats.MalformedRecords)
}

func TestDecodeAllPropagatesFatalDecodeError(t *testing.T) {
	reader := &fakePairReader{
		pairs: []svcall.Pair{{ReadID: "a"}, {}},
		errs:  []error{nil, errors.New("aligner terminated abnormally")},
	}
	stats := svcall.NewStats()
	_, err := decodeAll(reader, &stats)
	assert.Error(t, err)
}

func TestDecodeAllRejectsEmptyStreamAsAlignerIOError(t *testing.T) {
	reader := &fakePairReader{}
	stats := svcall.NewStats()
	_, err := decodeAll(reader, &stats)
	assert.Error(t, err)
}
