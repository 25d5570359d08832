package geoparquet

import (
	"encoding/json"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gogama/pointquaffer/crs"
	"github.com/gogama/pointquaffer/errkind"
	"github.com/gogama/pointquaffer/table"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

type EncoderOptions struct {
	// Encoding selects the physical geometry layout. Empty means
	// EncodingPoint.
	Encoding Encoding
	// MarkUnspecifiedCRS adds crs_status=unspecified when there is no
	// CRS, so readers need not guess a default.
	MarkUnspecifiedCRS bool
	// Allocator backs arrays the encoder creates. Nil means the default
	// Go allocator.
	Allocator memory.Allocator
}

// Encoder rewrites point batches against a GeoParquet target schema.
type Encoder struct {
	opts   EncoderOptions
	crs    *crs.CRS
	target *arrow.Schema
}

// NewEncoder returns an encoder tagging output with c, which may be nil.
func NewEncoder(opts EncoderOptions, c *crs.CRS) (*Encoder, error) {
	if opts.Encoding == "" {
		opts.Encoding = EncodingPoint
	}
	if opts.Allocator == nil {
		opts.Allocator = memory.DefaultAllocator
	}
	var geom arrow.Field
	switch opts.Encoding {
	case EncodingPoint:
		geom = table.GeometryField(table.PointExtension, table.PointType)
	case EncodingWKB:
		geom = table.GeometryField(table.WKBExtension, arrow.BinaryTypes.Binary)
	default:
		return nil, errkind.Wrap(errkind.ErrEncoding, fmtErr("%q: %w", opts.Encoding, ErrUnknownEncoding), "")
	}
	fields := table.Schema().Fields()
	fields[0] = geom
	return &Encoder{
		opts:   opts,
		crs:    c,
		target: arrow.NewSchema(fields, nil),
	}, nil
}

// TargetSchema is the schema of every record Encode produces.
func (e *Encoder) TargetSchema() *arrow.Schema {
	return e.target
}

// EncodedBatch is a record in target layout plus the file-level
// key/value metadata to write with it.
type EncodedBatch struct {
	Record   arrow.Record
	Geo      Metadata
	KeyValue arrow.Metadata
}

// Release releases the record.
func (b *EncodedBatch) Release() {
	if b.Record != nil {
		b.Record.Release()
		b.Record = nil
	}
}

// Encode rewrites rec, which must have the table.Schema layout, into the
// target layout. The returned batch holds its own reference to every
// column; the caller releases it.
func (e *Encoder) Encode(rec arrow.Record) (*EncodedBatch, error) {
	if err := e.checkLayout(rec.Schema()); err != nil {
		return nil, errkind.Wrap(errkind.ErrEncoding, err, "")
	}
	xy, ok := rec.Column(0).(*array.Struct)
	if !ok || xy.NumField() != 2 {
		return nil, errkind.Wrap(errkind.ErrEncoding, fmtErr("%s: %w", rec.Column(0).DataType(), ErrGeometryColumn), "")
	}
	xs, okX := xy.Field(0).(*array.Float64)
	ys, okY := xy.Field(1).(*array.Float64)
	if !okX || !okY {
		return nil, errkind.Wrap(errkind.ErrEncoding, fmtErr("%s: %w", xy.DataType(), ErrGeometryColumn), "")
	}
	if xy.NullN() > 0 {
		return nil, errkind.Wrap(errkind.ErrEncoding, fmtErr("%d null points: %w", xy.NullN(), ErrGeometryColumn), "")
	}

	cols := append([]arrow.Array(nil), rec.Columns()...)
	if e.opts.Encoding == EncodingWKB {
		geom, err := e.wkbColumn(xs, ys)
		if err != nil {
			return nil, errkind.Wrap(errkind.ErrEncoding, err, "")
		}
		defer geom.Release()
		cols[0] = geom
	}

	geo := Metadata{
		Version:       Version,
		PrimaryColumn: table.GeometryColumn,
		Columns: map[string]ColumnMetadata{
			table.GeometryColumn: {
				Encoding:      e.opts.Encoding,
				GeometryTypes: []string{"Point"},
				BBox:          bbox(xs, ys),
			},
		},
	}
	if e.crs != nil {
		col := geo.Columns[table.GeometryColumn]
		col.CRS = e.crs.ProjJSON
		geo.Columns[table.GeometryColumn] = col
	}
	raw, err := json.Marshal(geo)
	if err != nil {
		return nil, errkind.Wrap(errkind.ErrEncoding, err, "marshalling geo metadata")
	}
	keys, values := []string{MetadataKey}, []string{string(raw)}
	if e.crs != nil {
		keys = append(keys, CRSWKTKey, CRSStatusKey)
		values = append(values, e.crs.WKT, CRSStatusWKT)
	} else if e.opts.MarkUnspecifiedCRS {
		keys, values = append(keys, CRSStatusKey), append(values, CRSStatusUnspecified)
	}

	return &EncodedBatch{
		Record:   array.NewRecord(e.target, cols, rec.NumRows()),
		Geo:      geo,
		KeyValue: arrow.NewMetadata(keys, values),
	}, nil
}

func (e *Encoder) checkLayout(s *arrow.Schema) error {
	want := table.Schema()
	if s.NumFields() != want.NumFields() {
		return fmtErr("%d columns, want %d: %w", s.NumFields(), want.NumFields(), ErrLayout)
	}
	if s.Field(0).Name != table.GeometryColumn {
		return fmtErr("first column is %q: %w", s.Field(0).Name, ErrGeometryColumn)
	}
	for i := 1; i < want.NumFields(); i++ {
		got, w := s.Field(i), want.Field(i)
		if got.Name != w.Name || !arrow.TypeEqual(got.Type, w.Type) {
			return fmtErr("column %d is %s %s, want %s %s: %w", i, got.Name, got.Type, w.Name, w.Type, ErrLayout)
		}
	}
	return nil
}

func (e *Encoder) wkbColumn(xs, ys *array.Float64) (arrow.Array, error) {
	b := array.NewBinaryBuilder(e.opts.Allocator, arrow.BinaryTypes.Binary)
	defer b.Release()
	b.Reserve(xs.Len())
	for i := 0; i < xs.Len(); i++ {
		data, err := wkb.Marshal(orb.Point{xs.Value(i), ys.Value(i)})
		if err != nil {
			return nil, fmtErr("row %d: %w", i, err)
		}
		b.Append(data)
	}
	return b.NewArray(), nil
}

// bbox returns [minx, miny, maxx, maxy], or nil for no points.
func bbox(xs, ys *array.Float64) []float64 {
	if xs.Len() == 0 {
		return nil
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i < xs.Len(); i++ {
		x, y := xs.Value(i), ys.Value(i)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return []float64{minX, minY, maxX, maxY}
}
