package column

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogama/pointquaffer/errkind"
	"github.com/gogama/pointquaffer/las"
	"github.com/gogama/pointquaffer/las/lastest"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceSource struct {
	points []las.Point
	pos    int
	read   int
	err    error
	closed bool
}

func (s *sliceSource) Next() bool {
	if s.pos >= len(s.points) {
		return false
	}
	s.pos++
	s.read++
	return true
}

func (s *sliceSource) Point() las.Point { return s.points[s.pos-1] }
func (s *sliceSource) Err() error       { return s.err }
func (s *sliceSource) Close() error     { s.closed = true; return nil }

// elevenPoints has ground points at positions 2 and 5 only.
func elevenPoints() []las.Point {
	pts := lastest.Points(11, las.Unclassified)
	pts[2].Classification = las.Ground
	pts[5].Classification = las.Ground
	return pts
}

func TestAccumulateAll(t *testing.T) {
	src := &sliceSource{points: elevenPoints()}

	b, capped, err := Accumulate(src, nil, -1, 11)

	require.NoError(t, err)
	assert.False(t, capped)
	assert.True(t, src.closed)
	require.Equal(t, 11, b.Len())
	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, b.FID)
	assert.Equal(t, orb.Point{1000, 2000}, b.XY[0])
	assert.Equal(t, orb.Point{1010, 2010}, b.XY[10])
	assert.NoError(t, b.Check())
}

func TestAccumulateGroundOnlyReindexes(t *testing.T) {
	src := &sliceSource{points: elevenPoints()}

	b, _, err := Accumulate(src, GroundOnly, -1, 11)

	require.NoError(t, err)
	require.Equal(t, 2, b.Len())
	assert.Equal(t, []int64{0, 1}, b.FID)
	assert.Equal(t, []string{"Ground", "Ground"}, b.Classification)
	assert.Equal(t, []float64{12, 15}, b.Z)
	assert.Equal(t, []int64{102, 105}, b.Intensity)
}

func TestAccumulateCap(t *testing.T) {
	for _, tc := range []struct {
		name   string
		points []las.Point
		filter Filter
		limit  int64
		want   int
		capped bool
		read   int
	}{
		{"cap below total", elevenPoints(), nil, 4, 4, true, 5},
		{"cap equals total", elevenPoints(), nil, 11, 11, false, 11},
		{"cap above total", elevenPoints(), nil, 50, 11, false, 11},
		{"zero cap", elevenPoints(), nil, 0, 0, true, 1},
		{"zero cap empty source", nil, nil, 0, 0, false, 0},
		{"zero cap nothing matches", lastest.Points(4, las.Water), GroundOnly, 0, 0, false, 4},
		{"ground cap 1", elevenPoints(), GroundOnly, 1, 1, true, 6},
		{"ground cap equals matches", elevenPoints(), GroundOnly, 2, 2, false, 11},
		{"ground cap 5", elevenPoints(), GroundOnly, 5, 2, false, 11},
	} {
		t.Run(tc.name, func(t *testing.T) {
			src := &sliceSource{points: tc.points}
			b, capped, err := Accumulate(src, tc.filter, tc.limit, 11)
			require.NoError(t, err)
			assert.Equal(t, tc.want, b.Len())
			assert.Equal(t, tc.capped, capped)
			assert.Equal(t, tc.read, src.read)
			assert.NoError(t, b.Check())
		})
	}
}

func TestAccumulateSourceError(t *testing.T) {
	boom := errors.New("boom")
	src := &sliceSource{points: elevenPoints()[:2], err: boom}

	_, _, err := Accumulate(src, nil, -1, 0)

	assert.ErrorIs(t, err, boom)
	assert.True(t, src.closed)
}

func TestAccumulateBuffersStayAligned(t *testing.T) {
	pts := lastest.Points(97, las.Ground, las.Building, las.Ground, las.Water)
	for _, filter := range []Filter{nil, GroundOnly, func(p *las.Point) bool { return p.Intensity%3 == 0 }} {
		for _, limit := range []int64{-1, 0, 1, 10, 96, 97, 200} {
			b, _, err := Accumulate(&sliceSource{points: pts}, filter, limit, int64(len(pts)))
			require.NoError(t, err)
			require.NoError(t, b.Check())
			n := b.Len()
			for _, l := range []int{len(b.XY), len(b.Z), len(b.Intensity), len(b.ReturnNumber),
				len(b.NumberOfReturns), len(b.ScanDirection), len(b.Classification),
				len(b.ScanAngle), len(b.PointSourceID), len(b.GPSTime), len(b.GPSTimeValid)} {
				assert.Equal(t, n, l)
			}
			if limit >= 0 {
				assert.LessOrEqual(t, int64(n), limit)
			}
		}
	}
}

func TestAccumulateFromReader(t *testing.T) {
	data := lastest.File{Format: 0, Points: elevenPoints()}.Bytes()
	rd, err := las.NewReader(bytes.NewReader(data), int64(len(data)), las.WithChunkSize(3))
	require.NoError(t, err)

	b, _, err := Accumulate(rd.Points(), GroundOnly, -1, int64(rd.Header().PointCount))

	require.NoError(t, err)
	require.Equal(t, 2, b.Len())
	assert.Equal(t, []bool{false, false}, b.GPSTimeValid)
	assert.Equal(t, orb.Bound{Min: orb.Point{1002, 2002}, Max: orb.Point{1005, 2005}}, b.Bound())
}

func TestCheckDetectsMismatch(t *testing.T) {
	b := NewBuffers(2)
	p := lastest.Points(1)[0]
	b.Append(&p)
	b.Z = append(b.Z, 1)

	err := b.Check()

	assert.ErrorIs(t, err, ErrLengthMismatch)
	assert.ErrorIs(t, err, errkind.ErrSchemaMismatch)
}

func TestCheckReportsFirstColumnInOrder(t *testing.T) {
	b := NewBuffers(2)
	p := lastest.Points(1)[0]
	b.Append(&p)
	b.PointSourceID = append(b.PointSourceID, 1)
	b.Intensity = append(b.Intensity, 1)
	b.GPSTime = b.GPSTime[:0]

	for i := 0; i < 20; i++ {
		err := b.Check()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "column intensity has 2 rows, fid has 1")
	}
}

func TestAppendConvertsAttributes(t *testing.T) {
	b := NewBuffers(0)
	p := las.Point{
		X: 1.5, Y: -2.5, Z: 3, Intensity: 65535, ReturnNumber: 2, NumberOfReturns: 3,
		ScanDirection: las.LeftToRight, Classification: las.Classification(99),
		ScanAngle: -12, PointSourceID: 42, GPSTime: 123.25, HasGPSTime: true,
	}
	b.Append(&p)

	assert.Equal(t, []int64{65535}, b.Intensity)
	assert.Equal(t, []string{"LeftToRight"}, b.ScanDirection)
	assert.Equal(t, []string{"UserDefinable(99)"}, b.Classification)
	assert.Equal(t, []float64{-12}, b.ScanAngle)
	assert.Equal(t, []float64{123.25}, b.GPSTime)
	assert.Equal(t, []bool{true}, b.GPSTimeValid)
	assert.Equal(t, orb.Bound{Min: orb.Point{1.5, -2.5}, Max: orb.Point{1.5, -2.5}}, b.Bound())
}

func TestRowMatchesAppend(t *testing.T) {
	b := NewBuffers(3)
	for _, p := range lastest.Points(3, las.Ground) {
		b.Append(&p)
	}

	r := b.Row(2)

	assert.Equal(t, Row{
		XY: orb.Point{1002, 2002}, FID: 2, Z: 12, Intensity: 102,
		ReturnNumber: 1, NumberOfReturns: 2, ScanDirection: "RightToLeft",
		Classification: "Ground", ScanAngle: -13, PointSourceID: 9,
		GPSTime: 400000.5, GPSTimeValid: true,
	}, r)
}
