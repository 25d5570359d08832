// Package table assembles accumulated point columns into an Arrow
// record batch and reads such batches back.
package table

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gogama/pointquaffer/column"
	"github.com/gogama/pointquaffer/schema"
)

// GeometryColumn is the name of the point geometry column.
const GeometryColumn = "xy"

// Arrow extension metadata keys and the GeoArrow names used with them.
const (
	ExtensionNameKey     = "ARROW:extension:name"
	ExtensionMetadataKey = "ARROW:extension:metadata"
	PointExtension       = "geoarrow.point"
	WKBExtension         = "geoarrow.wkb"
)

// PointType is the storage type of a native point geometry column.
var PointType = arrow.StructOf(
	arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Float64},
	arrow.Field{Name: "y", Type: arrow.PrimitiveTypes.Float64},
)

var pointSchema = newSchema()

func newSchema() *arrow.Schema {
	fields := []arrow.Field{GeometryField(PointExtension, PointType)}
	for _, col := range schema.Points() {
		f, err := col.ArrowField()
		if err != nil {
			panic(err)
		}
		fields = append(fields, f)
	}
	return arrow.NewSchema(fields, nil)
}

// GeometryField returns the non-nullable geometry field with the given
// GeoArrow extension name and storage type.
func GeometryField(extension string, dt arrow.DataType) arrow.Field {
	return arrow.Field{
		Name: GeometryColumn,
		Type: dt,
		Metadata: arrow.NewMetadata(
			[]string{ExtensionNameKey, ExtensionMetadataKey},
			[]string{extension, "{}"},
		),
	}
}

// Schema returns the logical schema of a point batch: the xy geometry
// followed by the attribute columns.
func Schema() *arrow.Schema {
	return pointSchema
}

// Build copies b into a new record with Schema. The caller owns the
// record and must Release it. Build fails only if b's buffers disagree
// in length.
func Build(mem memory.Allocator, b *column.Buffers) (arrow.Record, error) {
	if err := b.Check(); err != nil {
		return nil, err
	}
	rb := array.NewRecordBuilder(mem, pointSchema)
	defer rb.Release()
	rb.Reserve(b.Len())

	xy := rb.Field(0).(*array.StructBuilder)
	x := xy.FieldBuilder(0).(*array.Float64Builder)
	y := xy.FieldBuilder(1).(*array.Float64Builder)
	for _, p := range b.XY {
		xy.Append(true)
		x.Append(p.X())
		y.Append(p.Y())
	}
	int64s(rb, schema.FID).AppendValues(b.FID, nil)
	float64s(rb, schema.Z).AppendValues(b.Z, nil)
	int64s(rb, schema.Intensity).AppendValues(b.Intensity, nil)
	int64s(rb, schema.ReturnNumber).AppendValues(b.ReturnNumber, nil)
	int64s(rb, schema.NumberOfReturns).AppendValues(b.NumberOfReturns, nil)
	strings(rb, schema.ScanDirection).AppendValues(b.ScanDirection, nil)
	strings(rb, schema.Classification).AppendValues(b.Classification, nil)
	float64s(rb, schema.ScanAngle).AppendValues(b.ScanAngle, nil)
	int64s(rb, schema.PointSourceID).AppendValues(b.PointSourceID, nil)
	float64s(rb, schema.GPSTime).AppendValues(b.GPSTime, b.GPSTimeValid)

	return rb.NewRecord(), nil
}

func fieldBuilder(rb *array.RecordBuilder, name string) array.Builder {
	return rb.Field(pointSchema.FieldIndices(name)[0])
}

func int64s(rb *array.RecordBuilder, name string) *array.Int64Builder {
	return fieldBuilder(rb, name).(*array.Int64Builder)
}

func float64s(rb *array.RecordBuilder, name string) *array.Float64Builder {
	return fieldBuilder(rb, name).(*array.Float64Builder)
}

func strings(rb *array.RecordBuilder, name string) *array.StringBuilder {
	return fieldBuilder(rb, name).(*array.StringBuilder)
}
