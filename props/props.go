package props

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/gogama/flatgeobuf/flatgeobuf"
	"github.com/gogama/flatgeobuf/flatgeobuf/flat"
	"github.com/gogama/pointquaffer/interop"
)

const (
	sizeOfColumnIndex = 2
	sizeOfLength      = 4
)

// Props combines a property Schema with a set of property values under
// the Schema.
//
// The Schema is immutable, but the property values are mutable, so you
// can set values that are supported by the Schema, overwrite them, or
// delete them. Bytes returns the values in FlatGeobuf property format,
// ordered by column index.
//
// Values are encoded with flatgeobuf.PropWriter and decoded with
// flatgeobuf.PropReader.
//
// Props is not safe for concurrent use.
type Props struct {
	// flatSchema is the source schema taken from a FlatGeobuf file.
	flatSchema flatgeobuf.Schema
	// fastSchema is the schema used if the properties were created
	// using the schema type from this package.
	fastSchema *Schema
	// values holds one encoded value per column, without the leading
	// column index. A nil entry means the column has no value.
	values [][]byte
	// size is the encoded length of all present values.
	size int
}

// PropsFromFlat decodes FlatGeobuf property bytes under schema. Values
// for column indices beyond the schema are an error. The Props keep
// references into data.
func PropsFromFlat(schema flatgeobuf.Schema, data []byte) (*Props, error) {
	if schema == nil {
		textPanic("nil schema")
	}
	p := &Props{flatSchema: schema}
	if fast, ok := schema.(*Schema); ok {
		p.fastSchema = fast
	}
	p.values = make([][]byte, p.numColumns())
	br := bytes.NewReader(data)
	r := flatgeobuf.NewPropReader(br)
	for br.Len() > 0 {
		col, err := r.ReadUShort()
		if err != nil {
			return nil, truncated(err)
		}
		if int(col) >= len(p.values) {
			return nil, fmtErr("column index %d: %w", col, ErrNoColumn)
		}
		start := len(data) - br.Len()
		if _, err = readValue(r, p.columnType(int(col)), data[start:]); err != nil {
			return nil, err
		}
		p.put(int(col), data[start:len(data)-br.Len()])
	}
	return p, nil
}

func NewProps(schema *Schema) *Props {
	if schema == nil {
		textPanic("nil schema")
	}
	return &Props{
		fastSchema: schema,
		values:     make([][]byte, schema.ColumnsLength()),
	}
}

func (p *Props) columnType(col int) flat.ColumnType {
	if p.fastSchema != nil {
		return p.fastSchema.Type(col)
	}
	var columnType flat.ColumnType
	_ = interop.FlatBufferSafe(func() error {
		var obj flat.Column
		if p.flatSchema.Columns(&obj, col) {
			columnType = obj.Type()
		}
		return nil
	})
	return columnType
}

func (p *Props) numColumns() int {
	if p.fastSchema != nil {
		return p.fastSchema.ColumnsLength()
	} else {
		return p.flatSchema.ColumnsLength()
	}
}

// readValue reads one value of the given type from r. rest holds the
// bytes r has not consumed yet, so a length prefix can be checked
// before the reader allocates for it.
func readValue(r *flatgeobuf.PropReader, columnType flat.ColumnType, rest []byte) (v any, err error) {
	switch columnType {
	case flat.ColumnTypeBool:
		v, err = r.ReadBool()
	case flat.ColumnTypeByte:
		v, err = r.ReadByte()
	case flat.ColumnTypeUByte:
		v, err = r.ReadUByte()
	case flat.ColumnTypeShort:
		v, err = r.ReadShort()
	case flat.ColumnTypeUShort:
		v, err = r.ReadUShort()
	case flat.ColumnTypeInt:
		v, err = r.ReadInt()
	case flat.ColumnTypeUInt:
		v, err = r.ReadUInt()
	case flat.ColumnTypeLong:
		v, err = r.ReadLong()
	case flat.ColumnTypeULong:
		v, err = r.ReadULong()
	case flat.ColumnTypeFloat:
		v, err = r.ReadFloat()
	case flat.ColumnTypeDouble:
		v, err = r.ReadDouble()
	case flat.ColumnTypeString, flat.ColumnTypeJson, flat.ColumnTypeDateTime:
		if err = checkLength(rest); err != nil {
			return nil, err
		}
		v, err = r.ReadString()
	case flat.ColumnTypeBinary:
		if err = checkLength(rest); err != nil {
			return nil, err
		}
		v, err = r.ReadBinary()
	default:
		return nil, errUnknownColumnType
	}
	if err != nil {
		return nil, truncated(err)
	}
	return v, nil
}

func checkLength(rest []byte) error {
	if len(rest) < sizeOfLength {
		return errStringSizeCorrupt
	}
	if uint64(binary.LittleEndian.Uint32(rest)) > uint64(len(rest)-sizeOfLength) {
		return errTruncated
	}
	return nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errTruncated
	}
	return err
}

func (p *Props) name2Col(name string) (int, error) {
	if p.fastSchema != nil {
		if col, ok := p.fastSchema.Index(name); ok {
			return col, nil
		}
		return 0, ErrNoColumn
	}
	n := p.flatSchema.ColumnsLength()
	col := -1
	err := interop.FlatBufferSafe(func() error {
		var obj flat.Column
		for i := 0; i < n; i++ {
			if p.flatSchema.Columns(&obj, i) && string(obj.Name()) == name {
				col = i
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	} else if col < 0 {
		return 0, ErrNoColumn
	}
	return col, nil
}

func (p *Props) put(col int, v []byte) {
	if p.values[col] != nil {
		p.size -= sizeOfColumnIndex + len(p.values[col])
	}
	p.values[col] = v
	if v != nil {
		p.size += sizeOfColumnIndex + len(v)
	}
}

// set encodes the value of col with write after checking its type.
func (p *Props) set(col int, expectedType flat.ColumnType, write func(*flatgeobuf.PropWriter) (int, error)) error {
	if err := p.check(col, expectedType); err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := write(flatgeobuf.NewPropWriter(&buf)); err != nil {
		return err
	}
	p.put(col, buf.Bytes())
	return nil
}

// get decodes the value of col after checking its type.
func (p *Props) get(col int, expectedType flat.ColumnType) (any, error) {
	if err := p.check(col, expectedType); err != nil {
		return nil, err
	}
	v := p.values[col]
	if v == nil {
		return nil, ErrNoValue
	}
	return readValue(flatgeobuf.NewPropReader(bytes.NewReader(v)), expectedType, v)
}

func (p *Props) check(col int, expectedType flat.ColumnType) error {
	if col < 0 || col >= len(p.values) {
		return ErrNoColumn
	}
	if actualType := p.columnType(col); actualType != expectedType {
		return ErrTypeMismatch
	}
	return nil
}

// Schema returns the schema the properties were created with, or nil
// if they were decoded under a FlatGeobuf schema.
func (p *Props) Schema() *Schema {
	return p.fastSchema
}

func (p *Props) Has(index int) bool {
	return index >= 0 && index < len(p.values) && p.values[index] != nil
}

func (p *Props) HasName(name string) bool {
	col, err := p.name2Col(name)
	return err == nil && p.Has(col)
}

func (p *Props) Delete(index int) bool {
	if !p.Has(index) {
		return false
	}
	p.put(index, nil)
	return true
}

// Reset deletes every value, keeping the schema, so the Props can be
// reused for the next feature.
func (p *Props) Reset() {
	clear(p.values)
	p.size = 0
}

// Len returns the encoded length of the properties.
func (p *Props) Len() int {
	return p.size
}

// AppendTo appends the properties in FlatGeobuf property format to dst.
func (p *Props) AppendTo(dst []byte) []byte {
	buf := bytes.NewBuffer(dst)
	w := flatgeobuf.NewPropWriter(buf)
	for col, v := range p.values {
		if v == nil {
			continue
		}
		// Writes to a bytes.Buffer cannot fail.
		_, _ = w.WriteUShort(uint16(col))
		buf.Write(v)
	}
	return buf.Bytes()
}

// Bytes returns the properties in FlatGeobuf property format.
func (p *Props) Bytes() []byte {
	return p.AppendTo(make([]byte, 0, p.size))
}

// GetValue returns the value of the column as the Go type matching its
// column type. String, JSON and DateTime values are returned as
// strings and Binary values as []byte.
func (p *Props) GetValue(index int) (any, error) {
	if index < 0 || index >= len(p.values) {
		return nil, ErrNoColumn
	}
	return p.get(index, p.columnType(index))
}

func (p *Props) GetValueName(name string) (any, error) {
	col, err := p.name2Col(name)
	if err != nil {
		return nil, err
	}
	return p.GetValue(col)
}

func (p *Props) GetLong(index int) (int64, error) {
	v, err := p.get(index, flat.ColumnTypeLong)
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (p *Props) GetLongName(name string) (int64, error) {
	col, err := p.name2Col(name)
	if err != nil {
		return 0, err
	}
	return p.GetLong(col)
}

func (p *Props) SetLong(index int, value int64) error {
	return p.set(index, flat.ColumnTypeLong, func(w *flatgeobuf.PropWriter) (int, error) {
		return w.WriteLong(value)
	})
}

func (p *Props) SetLongName(name string, value int64) error {
	col, err := p.name2Col(name)
	if err != nil {
		return err
	}
	return p.SetLong(col, value)
}

func (p *Props) GetDouble(index int) (float64, error) {
	v, err := p.get(index, flat.ColumnTypeDouble)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (p *Props) GetDoubleName(name string) (float64, error) {
	col, err := p.name2Col(name)
	if err != nil {
		return 0, err
	}
	return p.GetDouble(col)
}

func (p *Props) SetDouble(index int, value float64) error {
	return p.set(index, flat.ColumnTypeDouble, func(w *flatgeobuf.PropWriter) (int, error) {
		return w.WriteDouble(value)
	})
}

func (p *Props) SetDoubleName(name string, value float64) error {
	col, err := p.name2Col(name)
	if err != nil {
		return err
	}
	return p.SetDouble(col, value)
}

func (p *Props) GetString(index int) (string, error) {
	v, err := p.get(index, flat.ColumnTypeString)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (p *Props) GetStringName(name string) (string, error) {
	col, err := p.name2Col(name)
	if err != nil {
		return "", err
	}
	return p.GetString(col)
}

func (p *Props) SetString(index int, value string) error {
	return p.set(index, flat.ColumnTypeString, func(w *flatgeobuf.PropWriter) (int, error) {
		return w.WriteString(value)
	})
}

func (p *Props) SetStringName(name string, value string) error {
	col, err := p.name2Col(name)
	if err != nil {
		return err
	}
	return p.SetString(col, value)
}
