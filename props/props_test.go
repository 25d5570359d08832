package props

import (
	"bytes"
	"testing"

	"github.com/gogama/flatgeobuf/flatgeobuf"
	"github.com/gogama/flatgeobuf/flatgeobuf/flat"
	"github.com/gogama/pointquaffer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return NewSchema([]schema.Column{
		{Name: "id", Type: flat.ColumnTypeLong},
		{Name: "height", Type: flat.ColumnTypeDouble},
		{Name: "label", Type: flat.ColumnTypeString},
		{Name: "flag", Type: flat.ColumnTypeBool},
	})
}

func TestPropsEncodesInColumnOrder(t *testing.T) {
	p := NewProps(testSchema())
	require.NoError(t, p.SetStringName("label", "ab"))
	require.NoError(t, p.SetLong(0, 258))

	assert.Equal(t, []byte{
		0, 0, 2, 1, 0, 0, 0, 0, 0, 0,
		2, 0, 2, 0, 0, 0, 'a', 'b',
	}, p.Bytes())
	assert.Equal(t, 18, p.Len())
}

func TestPropsRoundTrip(t *testing.T) {
	s := testSchema()
	p := NewProps(s)
	require.NoError(t, p.SetLong(0, -7))
	require.NoError(t, p.SetDouble(1, 12.5))
	require.NoError(t, p.SetString(2, "Ground"))

	q, err := PropsFromFlat(flatOnly{s}, p.Bytes())
	require.NoError(t, err)

	assert.Nil(t, q.Schema())
	id, err := q.GetLongName("id")
	require.NoError(t, err)
	assert.Equal(t, int64(-7), id)
	h, err := q.GetDouble(1)
	require.NoError(t, err)
	assert.Equal(t, 12.5, h)
	label, err := q.GetStringName("label")
	require.NoError(t, err)
	assert.Equal(t, "Ground", label)
	assert.False(t, q.HasName("flag"))
	assert.Equal(t, p.Bytes(), q.Bytes())

	v, err := q.GetValueName("height")
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)
}

func TestPropsReadableBySchemaReader(t *testing.T) {
	s := NewSchema([]schema.Column{
		{Name: "id", Type: flat.ColumnTypeLong},
		{Name: "height", Type: flat.ColumnTypeDouble},
		{Name: "label", Type: flat.ColumnTypeString},
	})
	p := NewProps(s)
	require.NoError(t, p.SetString(2, "Water"))
	require.NoError(t, p.SetDouble(1, -3.25))
	require.NoError(t, p.SetLong(0, 1<<40))

	vals, err := flatgeobuf.NewPropReader(bytes.NewReader(p.Bytes())).ReadSchema(s)

	require.NoError(t, err)
	require.Len(t, vals, 3)
	assert.Equal(t, int64(1<<40), vals[0].Value)
	assert.Equal(t, -3.25, vals[1].Value)
	assert.Equal(t, "Water", vals[2].Value)
	assert.Equal(t, uint16(2), vals[2].ColIndex)
}

// flatOnly hides the concrete schema type so lookups go through
// flat.Column.
type flatOnly struct {
	flatgeobuf.Schema
}

func TestPropsFromFlatFastSchema(t *testing.T) {
	s := testSchema()

	q, err := PropsFromFlat(s, []byte{1, 0, 0, 0, 0, 0, 0, 0, 0xf0, 0x3f})

	require.NoError(t, err)
	assert.Same(t, s, q.Schema())
	h, err := q.GetDouble(1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, h)
}

func TestPropsOverwriteAndDelete(t *testing.T) {
	p := NewProps(testSchema())
	require.NoError(t, p.SetString(2, "long value"))
	require.NoError(t, p.SetString(2, "x"))
	assert.Equal(t, 2+4+1, p.Len())

	assert.True(t, p.Delete(2))
	assert.False(t, p.Delete(2))
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.Bytes())

	require.NoError(t, p.SetDouble(1, 1))
	p.Reset()
	assert.False(t, p.Has(1))
	assert.Equal(t, 0, p.Len())
}

func TestPropsErrors(t *testing.T) {
	p := NewProps(testSchema())

	assert.ErrorIs(t, p.SetDouble(0, 1), ErrTypeMismatch)
	assert.ErrorIs(t, p.SetLong(9, 1), ErrNoColumn)
	assert.ErrorIs(t, p.SetLongName("nope", 1), ErrNoColumn)
	_, err := p.GetLong(0)
	assert.ErrorIs(t, err, ErrNoValue)
	_, err = p.GetString(1)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestPropsFromFlatCorrupt(t *testing.T) {
	s := testSchema()
	for name, data := range map[string][]byte{
		"dangling index":   {0},
		"short long":       {0, 0, 1, 2, 3},
		"short string":     {2, 0, 9, 0, 0, 0, 'a'},
		"missing prefix":   {2, 0, 1},
		"column too large": {7, 0, 1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := PropsFromFlat(s, data)
			assert.Error(t, err)
		})
	}
}

func TestSchemaIndex(t *testing.T) {
	small := testSchema()
	i, ok := small.Index("label")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	_, ok = small.Index("missing")
	assert.False(t, ok)

	large := NewSchema(schema.Points())
	for want, col := range schema.Points() {
		got, ok := large.Index(col.Name)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok = large.Index("missing")
	assert.False(t, ok)
}

func TestSchemaFromFlat(t *testing.T) {
	s := NewSchema(schema.Points())

	got, err := SchemaFromFlat(s)

	require.NoError(t, err)
	require.Equal(t, s.ColumnsLength(), got.ColumnsLength())
	for i := 0; i < s.ColumnsLength(); i++ {
		assert.Equal(t, s.Column(i), got.Column(i))
	}
}
