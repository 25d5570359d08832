package header

import (
	"testing"

	"github.com/gogama/flatgeobuf/flatgeobuf/flat"
	"github.com/gogama/pointquaffer/crs"
	"github.com/gogama/pointquaffer/props"
	"github.com/gogama/pointquaffer/schema"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRoundTrip(t *testing.T) {
	want := &Header{
		Name:          ptr("tile_0001"),
		Envelope:      []float64{1, 2, 3, 4},
		GeometryType:  flat.GeometryTypePoint,
		Schema:        props.NewSchema(schema.Points()),
		FeaturesCount: 42,
		IndexNodeSize: ptr(uint16(0)),
		CRS: &crs.CRS{
			Org:  "EPSG",
			Code: 6344,
			Name: "NAD83(2011) / UTM zone 15N",
			WKT:  `PROJCS["NAD83(2011) / UTM zone 15N"]`,
		},
		Description: ptr("converted point cloud"),
	}

	got, err := FromFlat(want.ToFlat())

	require.NoError(t, err)
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(props.Schema{})); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestMinimalHeader(t *testing.T) {
	got, err := FromFlat((&Header{GeometryType: flat.GeometryTypePoint}).ToFlat())

	require.NoError(t, err)
	assert.Nil(t, got.Name)
	assert.Nil(t, got.Envelope)
	assert.Nil(t, got.CRS)
	assert.Equal(t, 0, got.ColumnsLength())
	require.NotNil(t, got.IndexNodeSize)
	assert.Equal(t, uint16(16), *got.IndexNodeSize)
}

func TestColumnsWithoutSchema(t *testing.T) {
	var hdr Header
	var col flat.Column

	assert.Equal(t, 0, hdr.ColumnsLength())
	assert.False(t, hdr.Columns(&col, 0))
}
