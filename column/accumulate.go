package column

import (
	"github.com/gogama/pointquaffer/las"
)

// Source is a forward-only point sequence such as *las.PointStream.
type Source interface {
	Next() bool
	Point() las.Point
	Err() error
	Close() error
}

// Filter reports whether a point should become a row. A nil Filter
// accepts every point.
type Filter func(*las.Point) bool

// GroundOnly accepts points classified as ground.
func GroundOnly(p *las.Point) bool {
	return p.Classification == las.Ground
}

// Accumulate appends every point from src that passes filter, stopping
// once limit rows are accepted. A negative limit means no cap.
// sizeHint, typically the header point count, pre-sizes the buffers.
// src is closed before Accumulate returns.
//
// capped reports whether the cap dropped a point: after limit rows,
// src is read on only until the next point filter accepts, so a cap
// equal to the number of matching points is not reported as capped.
func Accumulate(src Source, filter Filter, limit, sizeHint int64) (b *Buffers, capped bool, err error) {
	defer func() {
		if cerr := src.Close(); err == nil {
			err = cerr
		}
	}()
	if limit >= 0 && (sizeHint < 0 || limit < sizeHint) {
		sizeHint = limit
	}
	b = NewBuffers(int(sizeHint))
	for src.Next() {
		p := src.Point()
		if filter != nil && !filter(&p) {
			continue
		}
		if limit >= 0 && int64(b.Len()) >= limit {
			return b, true, nil
		}
		b.Append(&p)
	}
	if err = src.Err(); err != nil {
		return nil, false, err
	}
	return b, false, nil
}
