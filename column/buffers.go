// Package column accumulates point attributes into per-column buffers.
package column

import (
	"github.com/gogama/pointquaffer/errkind"
	"github.com/gogama/pointquaffer/las"
	"github.com/paulmach/orb"
)

// Buffers holds one growable slice per output column. Index i refers
// to the same accepted row in every slice.
type Buffers struct {
	XY              []orb.Point
	FID             []int64
	Z               []float64
	Intensity       []int64
	ReturnNumber    []int64
	NumberOfReturns []int64
	ScanDirection   []string
	Classification  []string
	ScanAngle       []float64
	PointSourceID   []int64
	GPSTime         []float64
	// GPSTimeValid marks which GPSTime entries are present.
	GPSTimeValid []bool

	bound orb.Bound
}

// NewBuffers returns empty buffers with room for n rows.
func NewBuffers(n int) *Buffers {
	if n < 0 {
		n = 0
	}
	return &Buffers{
		XY:              make([]orb.Point, 0, n),
		FID:             make([]int64, 0, n),
		Z:               make([]float64, 0, n),
		Intensity:       make([]int64, 0, n),
		ReturnNumber:    make([]int64, 0, n),
		NumberOfReturns: make([]int64, 0, n),
		ScanDirection:   make([]string, 0, n),
		Classification:  make([]string, 0, n),
		ScanAngle:       make([]float64, 0, n),
		PointSourceID:   make([]int64, 0, n),
		GPSTime:         make([]float64, 0, n),
		GPSTimeValid:    make([]bool, 0, n),
	}
}

// Len returns the number of rows.
func (b *Buffers) Len() int {
	return len(b.FID)
}

// Bound returns the 2-D extent of all rows. It is the zero Bound when
// there are no rows.
func (b *Buffers) Bound() orb.Bound {
	return b.bound
}

// Row is one row across all buffers.
type Row struct {
	XY              orb.Point
	FID             int64
	Z               float64
	Intensity       int64
	ReturnNumber    int64
	NumberOfReturns int64
	ScanDirection   string
	Classification  string
	ScanAngle       float64
	PointSourceID   int64
	GPSTime         float64
	GPSTimeValid    bool
}

// Append adds p as the next row. The row's fid is its 0-based position
// among appended rows.
func (b *Buffers) Append(p *las.Point) {
	b.AppendRow(Row{
		XY:              orb.Point{p.X, p.Y},
		FID:             int64(len(b.FID)),
		Z:               p.Z,
		Intensity:       int64(p.Intensity),
		ReturnNumber:    int64(p.ReturnNumber),
		NumberOfReturns: int64(p.NumberOfReturns),
		ScanDirection:   p.ScanDirection.String(),
		Classification:  p.Classification.String(),
		ScanAngle:       float64(p.ScanAngle),
		PointSourceID:   int64(p.PointSourceID),
		GPSTime:         p.GPSTime,
		GPSTimeValid:    p.HasGPSTime,
	})
}

// AppendRow adds r to every buffer, keeping its fid as given.
func (b *Buffers) AppendRow(r Row) {
	if len(b.FID) == 0 {
		b.bound = r.XY.Bound()
	} else {
		b.bound = b.bound.Extend(r.XY)
	}
	b.XY = append(b.XY, r.XY)
	b.FID = append(b.FID, r.FID)
	b.Z = append(b.Z, r.Z)
	b.Intensity = append(b.Intensity, r.Intensity)
	b.ReturnNumber = append(b.ReturnNumber, r.ReturnNumber)
	b.NumberOfReturns = append(b.NumberOfReturns, r.NumberOfReturns)
	b.ScanDirection = append(b.ScanDirection, r.ScanDirection)
	b.Classification = append(b.Classification, r.Classification)
	b.ScanAngle = append(b.ScanAngle, r.ScanAngle)
	b.PointSourceID = append(b.PointSourceID, r.PointSourceID)
	b.GPSTime = append(b.GPSTime, r.GPSTime)
	b.GPSTimeValid = append(b.GPSTimeValid, r.GPSTimeValid)
}

// Row returns row i. It panics if i is out of range.
func (b *Buffers) Row(i int) Row {
	return Row{
		XY:              b.XY[i],
		FID:             b.FID[i],
		Z:               b.Z[i],
		Intensity:       b.Intensity[i],
		ReturnNumber:    b.ReturnNumber[i],
		NumberOfReturns: b.NumberOfReturns[i],
		ScanDirection:   b.ScanDirection[i],
		Classification:  b.Classification[i],
		ScanAngle:       b.ScanAngle[i],
		PointSourceID:   b.PointSourceID[i],
		GPSTime:         b.GPSTime[i],
		GPSTimeValid:    b.GPSTimeValid[i],
	}
}

// Check verifies every buffer has the same length. A failure means the
// buffers were modified outside Append.
func (b *Buffers) Check() error {
	n := len(b.FID)
	// Output column order, so the first mismatch reported is stable.
	lengths := []struct {
		name string
		len  int
	}{
		{"xy", len(b.XY)},
		{"z", len(b.Z)},
		{"intensity", len(b.Intensity)},
		{"return_number", len(b.ReturnNumber)},
		{"number_of_returns", len(b.NumberOfReturns)},
		{"scan_direction", len(b.ScanDirection)},
		{"classification", len(b.Classification)},
		{"scan_angle", len(b.ScanAngle)},
		{"point_source_id", len(b.PointSourceID)},
		{"gps_time", len(b.GPSTime)},
		{"gps_time validity", len(b.GPSTimeValid)},
	}
	for _, col := range lengths {
		if col.len != n {
			return errkind.Wrapf(errkind.ErrSchemaMismatch, ErrLengthMismatch,
				"column %s has %d rows, fid has %d", col.name, col.len, n)
		}
	}
	return nil
}
