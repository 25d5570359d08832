package orbconvert

import (
	"testing"

	"github.com/gogama/flatgeobuf/flatgeobuf/flat"
	"github.com/gogama/pointquaffer/props"
	"github.com/gogama/pointquaffer/schema"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometryRoundTrip(t *testing.T) {
	for _, g := range []orb.Geometry{
		orb.Point{1.5, -2.25},
		orb.MultiPoint{{1, 2}, {3, 4}, {5, 6}},
		orb.LineString{{0, 0}, {10, 10}},
	} {
		t.Run(g.GeoJSONType(), func(t *testing.T) {
			b := flatbuffers.NewBuilder(0)
			off, err := ToBuilderProps(b, g, nil)
			require.NoError(t, err)
			b.Finish(off)

			f := flat.GetRootAsFeature(b.FinishedBytes(), 0)
			got, err := FromFlat(f)

			require.NoError(t, err)
			assert.Equal(t, g, got)
			assert.Equal(t, 0, f.PropertiesLength())
		})
	}
}

func TestFeatureWithProps(t *testing.T) {
	s := props.NewSchema(schema.Points())
	p := props.NewProps(s)
	require.NoError(t, p.SetLongName(schema.FID, 7))
	require.NoError(t, p.SetStringName(schema.Classification, "Ground"))
	require.NoError(t, p.SetDoubleName(schema.Z, 101.25))

	b := flatbuffers.NewBuilder(0)
	off, err := ToBuilderProps(b, orb.Point{10, 20}, p)
	require.NoError(t, err)
	b.FinishSizePrefixed(off)

	f := flat.GetRootAsFeature(b.FinishedBytes()[flatbuffers.SizeUint32:], 0)
	g, q, err := FromFlatProps(f, s)

	require.NoError(t, err)
	assert.Equal(t, orb.Point{10, 20}, g)
	fid, err := q.GetLongName(schema.FID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), fid)
	class, err := q.GetStringName(schema.Classification)
	require.NoError(t, err)
	assert.Equal(t, "Ground", class)
	z, err := q.GetDoubleName(schema.Z)
	require.NoError(t, err)
	assert.Equal(t, 101.25, z)
	assert.False(t, q.HasName(schema.GPSTime))
}

func TestUnsupported(t *testing.T) {
	b := flatbuffers.NewBuilder(0)

	_, err := ToBuilder(b, orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}})

	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFeatureWithoutGeometry(t *testing.T) {
	b := flatbuffers.NewBuilder(0)
	flat.FeatureStart(b)
	b.Finish(flat.FeatureEnd(b))

	_, err := FromFlat(flat.GetRootAsFeature(b.FinishedBytes(), 0))

	assert.ErrorIs(t, err, ErrNoGeometry)
}
