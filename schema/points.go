package schema

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/gogama/flatgeobuf/flatgeobuf/flat"
)

// Names of the point attribute columns.
const (
	FID             = "fid"
	Z               = "z"
	Intensity       = "intensity"
	ReturnNumber    = "return_number"
	NumberOfReturns = "number_of_returns"
	ScanDirection   = "scan_direction"
	Classification  = "classification"
	ScanAngle       = "scan_angle"
	PointSourceID   = "point_source_id"
	GPSTime         = "gps_time"
)

// Points returns the attribute columns of a converted point row in
// output order. The geometry column is not included.
func Points() []Column {
	return []Column{
		{Name: FID, Type: flat.ColumnTypeLong, Required: true, Unique: true, PrimaryKey: true,
			Description: "0-based index among accepted points"},
		{Name: Z, Type: flat.ColumnTypeDouble, Required: true},
		{Name: Intensity, Type: flat.ColumnTypeLong, Required: true},
		{Name: ReturnNumber, Type: flat.ColumnTypeLong, Required: true},
		{Name: NumberOfReturns, Type: flat.ColumnTypeLong, Required: true},
		{Name: ScanDirection, Type: flat.ColumnTypeString, Required: true},
		{Name: Classification, Type: flat.ColumnTypeString, Required: true},
		{Name: ScanAngle, Type: flat.ColumnTypeDouble, Required: true, Description: "degrees"},
		{Name: PointSourceID, Type: flat.ColumnTypeLong, Required: true},
		{Name: GPSTime, Type: flat.ColumnTypeDouble},
	}
}

// ArrowType returns the Arrow type holding values of c.
func (c *Column) ArrowType() (arrow.DataType, error) {
	switch c.Type {
	case flat.ColumnTypeBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case flat.ColumnTypeByte:
		return arrow.PrimitiveTypes.Int8, nil
	case flat.ColumnTypeUByte:
		return arrow.PrimitiveTypes.Uint8, nil
	case flat.ColumnTypeShort:
		return arrow.PrimitiveTypes.Int16, nil
	case flat.ColumnTypeUShort:
		return arrow.PrimitiveTypes.Uint16, nil
	case flat.ColumnTypeInt:
		return arrow.PrimitiveTypes.Int32, nil
	case flat.ColumnTypeUInt:
		return arrow.PrimitiveTypes.Uint32, nil
	case flat.ColumnTypeLong:
		return arrow.PrimitiveTypes.Int64, nil
	case flat.ColumnTypeULong:
		return arrow.PrimitiveTypes.Uint64, nil
	case flat.ColumnTypeFloat:
		return arrow.PrimitiveTypes.Float32, nil
	case flat.ColumnTypeDouble:
		return arrow.PrimitiveTypes.Float64, nil
	case flat.ColumnTypeString, flat.ColumnTypeJson, flat.ColumnTypeDateTime:
		return arrow.BinaryTypes.String, nil
	case flat.ColumnTypeBinary:
		return arrow.BinaryTypes.Binary, nil
	default:
		return nil, fmtErr("column %q: %w", c.Name, ErrUnknownType)
	}
}

// ArrowField returns the Arrow field for c. Nullability follows
// Required.
func (c *Column) ArrowField() (arrow.Field, error) {
	dt, err := c.ArrowType()
	if err != nil {
		return arrow.Field{}, err
	}
	return arrow.Field{Name: c.Name, Type: dt, Nullable: !c.Required}, nil
}
