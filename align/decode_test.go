package align

import (
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oliverhampton/SVachra/svcall"
)

func newTestRecord(t *testing.T, name string, ref *sam.Reference, pos int, flags sam.Flags, mateRef *sam.Reference, matePos int) *sam.Record {
	t.Helper()
	return &sam.Record{
		Name: name, Ref: ref, Pos: pos, Flags: flags,
		MateRef: mateRef, MatePos: matePos, MapQ: 60,
		Seq: sam.NewSeq(make([]byte, 100)),
	}
}

func testRefs(t *testing.T) (chr1, chr2 *sam.Reference) {
	t.Helper()
	chr1, err := sam.NewReference("chr1", "", "", 1000000, nil, nil)
	require.NoError(t, err)
	chr2, err = sam.NewReference("chr2", "", "", 1000000, nil, nil)
	require.NoError(t, err)
	// Registering the references in a header assigns their IDs (chr1=0,
	// chr2=1), which isLeftMost orders by.
	_, err = sam.NewHeader(nil, []*sam.Reference{chr1, chr2})
	require.NoError(t, err)
	return chr1, chr2
}

func TestSkipFiltersSecondarySupplementaryUnmapped(t *testing.T) {
	chr1, _ := testRefs(t)
	assert.True(t, skip(newTestRecord(t, "a", chr1, 0, sam.Secondary, chr1, 100)))
	assert.True(t, skip(newTestRecord(t, "a", chr1, 0, sam.Supplementary, chr1, 100)))
	assert.True(t, skip(newTestRecord(t, "a", chr1, 0, sam.Unmapped, chr1, 100)))
	assert.True(t, skip(newTestRecord(t, "a", chr1, 0, sam.MateUnmapped, chr1, 100)))
	assert.False(t, skip(newTestRecord(t, "a", chr1, 0, sam.Paired, chr1, 100)))
}

func TestIsLeftMostOrdersByRefThenPosThenRead1(t *testing.T) {
	chr1, chr2 := testRefs(t)
	assert.True(t, isLeftMost(newTestRecord(t, "a", chr1, 0, 0, chr2, 0)))
	assert.False(t, isLeftMost(newTestRecord(t, "a", chr2, 0, 0, chr1, 0)))
	assert.True(t, isLeftMost(newTestRecord(t, "a", chr1, 10, 0, chr1, 20)))
	assert.False(t, isLeftMost(newTestRecord(t, "a", chr1, 20, 0, chr1, 10)))
	// same reference, same position: Read1 breaks the tie.
	assert.True(t, isLeftMost(newTestRecord(t, "a", chr1, 10, sam.Read1, chr1, 10)))
	assert.False(t, isLeftMost(newTestRecord(t, "a", chr1, 10, sam.Read2, chr1, 10)))
}

func TestOrientationFlagDecoding(t *testing.T) {
	chr1, _ := testRefs(t)
	fwd := newTestRecord(t, "a", chr1, 0, 0, chr1, 100)
	assert.Equal(t, svcall.Plus, orientationOf(fwd))
	assert.Equal(t, svcall.Plus, mateOrientationOf(fwd))

	rev := newTestRecord(t, "a", chr1, 0, sam.Reverse|sam.MateReverse, chr1, 100)
	assert.Equal(t, svcall.Minus, orientationOf(rev))
	assert.Equal(t, svcall.Minus, mateOrientationOf(rev))
}

func TestHasUniqueTag(t *testing.T) {
	chr1, _ := testRefs(t)
	r := newTestRecord(t, "a", chr1, 0, 0, chr1, 100)
	assert.False(t, hasUniqueTag(r))

	aux, err := sam.NewAux(xtTag, "U")
	require.NoError(t, err)
	r.AuxFields = append(r.AuxFields, aux)
	assert.True(t, hasUniqueTag(r))
}

func TestMalformedDetectsMissingReference(t *testing.T) {
	chr1, _ := testRefs(t)
	assert.False(t, malformed(newTestRecord(t, "a", chr1, 0, 0, chr1, 100)))
	assert.True(t, malformed(newTestRecord(t, "a", nil, 0, 0, chr1, 100)))
	assert.True(t, malformed(newTestRecord(t, "a", chr1, 0, 0, nil, 100)))
}

func TestDecodeBuildsNormalizedPair(t *testing.T) {
	chr1, chr2 := testRefs(t)
	r := newTestRecord(t, "read-1", chr1, 999, sam.Reverse, chr2, 4999)
	r.TempLen = -12345

	p := decode(r)
	assert.Equal(t, "read-1", p.ReadID)
	assert.Equal(t, "chr1", p.C1)
	assert.Equal(t, 1000, p.P1) // 1-based
	assert.Equal(t, svcall.Minus, p.O1)
	assert.Equal(t, "chr2", p.C2)
	assert.Equal(t, 5000, p.P2)
	assert.Equal(t, 12345, p.TLen) // absolute value
	assert.Equal(t, 60, p.MapQ)
	assert.Equal(t, 100, p.SeqLen)
}
