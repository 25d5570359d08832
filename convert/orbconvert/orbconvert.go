// Package orbconvert converts between orb geometries and FlatGeobuf
// geometry and feature tables.
package orbconvert

import (
	"errors"
	"fmt"

	"github.com/gogama/flatgeobuf/flatgeobuf"
	"github.com/gogama/flatgeobuf/flatgeobuf/flat"
	"github.com/gogama/pointquaffer/interop"
	"github.com/gogama/pointquaffer/props"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
)

var (
	ErrUnsupported = errors.New("orbconvert: unsupported geometry type")
	ErrNoGeometry  = errors.New("orbconvert: feature has no geometry")
	ErrOddXY       = errors.New("orbconvert: xy vector has odd length")
)

func FromFlat(f *flat.Feature) (orb.Geometry, error) {
	var g orb.Geometry
	err := interop.FlatBufferSafe(func() error {
		obj := f.Geometry(nil)
		if obj == nil {
			return ErrNoGeometry
		}
		var err error
		g, err = geometryFromFlat(obj)
		return err
	})
	return g, err
}

// FromFlatProps decodes the geometry and properties of f. s can be
// either the feature's own columns or the file header.
func FromFlatProps(f *flat.Feature, s flatgeobuf.Schema) (orb.Geometry, *props.Props, error) {
	g, err := FromFlat(f)
	if err != nil {
		return nil, nil, err
	}
	var data []byte
	err = interop.FlatBufferSafe(func() error {
		data = f.PropertiesBytes()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	p, err := props.PropsFromFlat(s, data)
	if err != nil {
		return nil, nil, err
	}
	return g, p, nil
}

func geometryFromFlat(obj *flat.Geometry) (orb.Geometry, error) {
	n := obj.XyLength()
	if n%2 != 0 {
		return nil, ErrOddXY
	}
	pts := make([]orb.Point, n/2)
	for i := range pts {
		pts[i] = orb.Point{obj.Xy(2 * i), obj.Xy(2*i + 1)}
	}
	switch obj.Type() {
	case flat.GeometryTypePoint:
		if len(pts) != 1 {
			return nil, fmt.Errorf("orbconvert: point has %d coordinates", len(pts))
		}
		return pts[0], nil
	case flat.GeometryTypeMultiPoint:
		return orb.MultiPoint(pts), nil
	case flat.GeometryTypeLineString:
		return orb.LineString(pts), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, obj.Type())
	}
}

// ToBuilder builds a Geometry table for g.
func ToBuilder(b *flatbuffers.Builder, g orb.Geometry) (flatbuffers.UOffsetT, error) {
	var geometryType flat.GeometryType
	var pts []orb.Point
	switch g := g.(type) {
	case orb.Point:
		geometryType, pts = flat.GeometryTypePoint, []orb.Point{g}
	case orb.MultiPoint:
		geometryType, pts = flat.GeometryTypeMultiPoint, g
	case orb.LineString:
		geometryType, pts = flat.GeometryTypeLineString, g
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupported, g.GeoJSONType())
	}
	flat.GeometryStartXyVector(b, 2*len(pts))
	for i := len(pts) - 1; i >= 0; i-- {
		b.PrependFloat64(pts[i].Y())
		b.PrependFloat64(pts[i].X())
	}
	xy := b.EndVector(2 * len(pts))
	flat.GeometryStart(b)
	flat.GeometryAddXy(b, xy)
	flat.GeometryAddType(b, geometryType)
	return flat.GeometryEnd(b), nil
}

// ToBuilderProps builds a Feature table holding g and, if p is not nil
// and not empty, its properties. Columns are never echoed into the
// feature; readers take them from the header.
func ToBuilderProps(b *flatbuffers.Builder, g orb.Geometry, p *props.Props) (flatbuffers.UOffsetT, error) {
	geometry, err := ToBuilder(b, g)
	if err != nil {
		return 0, err
	}
	func() {
		defer flat.FeatureAddGeometry(b, geometry)
		if p != nil && p.Len() > 0 {
			offset := b.CreateByteVector(p.Bytes())
			defer flat.FeatureAddProperties(b, offset)
		}
		flat.FeatureStart(b)
	}()
	return flat.FeatureEnd(b), nil
}
