package table

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/gogama/pointquaffer/column"
	"github.com/gogama/pointquaffer/errkind"
	"github.com/gogama/pointquaffer/schema"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// Extract copies a point record back into column buffers. The geometry
// column may be native GeoArrow points or WKB. Records lacking a point
// column, or holding one of the wrong type, fail with a schema
// mismatch.
func Extract(rec arrow.Record) (*column.Buffers, error) {
	b := column.NewBuffers(int(rec.NumRows()))
	if err := appendRecord(b, rec); err != nil {
		return nil, errkind.Wrap(errkind.ErrSchemaMismatch, err, "")
	}
	return b, nil
}

// ExtractTable is Extract over every chunk of tbl, in order.
func ExtractTable(tbl arrow.Table) (*column.Buffers, error) {
	b := column.NewBuffers(int(tbl.NumRows()))
	tr := array.NewTableReader(tbl, 0)
	defer tr.Release()
	for tr.Next() {
		if err := appendRecord(b, tr.Record()); err != nil {
			return nil, errkind.Wrap(errkind.ErrSchemaMismatch, err, "")
		}
	}
	if err := tr.Err(); err != nil {
		return nil, errkind.Wrap(errkind.ErrIO, err, "reading table")
	}
	return b, nil
}

func appendRecord(b *column.Buffers, rec arrow.Record) error {
	xy, err := points(rec)
	if err != nil {
		return err
	}
	fid, err := columnOf[*array.Int64](rec, schema.FID)
	if err != nil {
		return err
	}
	z, err := columnOf[*array.Float64](rec, schema.Z)
	if err != nil {
		return err
	}
	intensity, err := columnOf[*array.Int64](rec, schema.Intensity)
	if err != nil {
		return err
	}
	returnNumber, err := columnOf[*array.Int64](rec, schema.ReturnNumber)
	if err != nil {
		return err
	}
	numberOfReturns, err := columnOf[*array.Int64](rec, schema.NumberOfReturns)
	if err != nil {
		return err
	}
	scanDirection, err := columnOf[*array.String](rec, schema.ScanDirection)
	if err != nil {
		return err
	}
	classification, err := columnOf[*array.String](rec, schema.Classification)
	if err != nil {
		return err
	}
	scanAngle, err := columnOf[*array.Float64](rec, schema.ScanAngle)
	if err != nil {
		return err
	}
	pointSourceID, err := columnOf[*array.Int64](rec, schema.PointSourceID)
	if err != nil {
		return err
	}
	gpsTime, err := columnOf[*array.Float64](rec, schema.GPSTime)
	if err != nil {
		return err
	}
	for i := range xy {
		b.AppendRow(column.Row{
			XY:              xy[i],
			FID:             fid.Value(i),
			Z:               z.Value(i),
			Intensity:       intensity.Value(i),
			ReturnNumber:    returnNumber.Value(i),
			NumberOfReturns: numberOfReturns.Value(i),
			ScanDirection:   scanDirection.Value(i),
			Classification:  classification.Value(i),
			ScanAngle:       scanAngle.Value(i),
			PointSourceID:   pointSourceID.Value(i),
			GPSTime:         gpsTime.Value(i),
			GPSTimeValid:    gpsTime.IsValid(i),
		})
	}
	return nil
}

func columnOf[T arrow.Array](rec arrow.Record, name string) (T, error) {
	var zero T
	idx := rec.Schema().FieldIndices(name)
	if len(idx) == 0 {
		return zero, fmtErr("%q: %w", name, ErrMissingColumn)
	}
	arr, ok := rec.Column(idx[0]).(T)
	if !ok {
		return zero, fmtErr("%q is %s: %w", name, rec.Column(idx[0]).DataType(), ErrColumnType)
	}
	return arr, nil
}

func points(rec arrow.Record) ([]orb.Point, error) {
	idx := rec.Schema().FieldIndices(GeometryColumn)
	if len(idx) == 0 {
		return nil, fmtErr("%q: %w", GeometryColumn, ErrMissingColumn)
	}
	n := int(rec.NumRows())
	pts := make([]orb.Point, n)
	switch arr := rec.Column(idx[0]).(type) {
	case *array.Struct:
		if arr.NumField() != 2 {
			return nil, fmtErr("%q has %d fields: %w", GeometryColumn, arr.NumField(), ErrColumnType)
		}
		xs, okX := arr.Field(0).(*array.Float64)
		ys, okY := arr.Field(1).(*array.Float64)
		if !okX || !okY {
			return nil, fmtErr("%q is %s: %w", GeometryColumn, arr.DataType(), ErrColumnType)
		}
		for i := range pts {
			pts[i] = orb.Point{xs.Value(i), ys.Value(i)}
		}
	case *array.Binary:
		for i := range pts {
			g, err := wkb.Unmarshal(arr.Value(i))
			if err != nil {
				return nil, fmtErr("row %d: %w", i, err)
			}
			p, ok := g.(orb.Point)
			if !ok {
				return nil, fmtErr("row %d is %s: %w", i, g.GeoJSONType(), ErrGeometry)
			}
			pts[i] = p
		}
	default:
		return nil, fmtErr("%q is %s: %w", GeometryColumn, arr.DataType(), ErrColumnType)
	}
	return pts, nil
}
