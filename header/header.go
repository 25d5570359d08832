package header

import (
	"github.com/gogama/flatgeobuf/flatgeobuf"
	"github.com/gogama/flatgeobuf/flatgeobuf/flat"
	"github.com/gogama/pointquaffer/crs"
	"github.com/gogama/pointquaffer/interop"
	"github.com/gogama/pointquaffer/props"
	flatbuffers "github.com/google/flatbuffers/go"
)

// Compile-time checks.
var (
	_ flatgeobuf.Schema = &Header{}
)

type Header struct {
	Name          *string
	Envelope      []float64
	GeometryType  flat.GeometryType
	HasZ          bool
	HasM          bool
	HasT          bool
	HasTM         bool
	Schema        *props.Schema
	FeaturesCount uint64
	// IndexNodeSize nil means the FlatGeobuf default of 16. Zero means
	// the file has no spatial index.
	IndexNodeSize *uint16
	CRS           *crs.CRS
	Title         *string
	Description   *string
	Metadata      *string
}

func FromFlat(hdr *flat.Header) (*Header, error) {
	var result Header
	err := interop.FlatBufferSafe(func() error {
		result.Name = optString(hdr.Name())
		if n := hdr.EnvelopeLength(); n > 0 {
			result.Envelope = make([]float64, n)
			for i := range result.Envelope {
				result.Envelope[i] = hdr.Envelope(i)
			}
		}
		result.GeometryType = hdr.GeometryType()
		result.HasZ = hdr.HasZ()
		result.HasM = hdr.HasM()
		result.HasT = hdr.HasT()
		result.HasTM = hdr.HasTm()
		result.FeaturesCount = hdr.FeaturesCount()
		indexNodeSize := hdr.IndexNodeSize()
		result.IndexNodeSize = &indexNodeSize
		result.Title = optString(hdr.Title())
		result.Description = optString(hdr.Description())
		result.Metadata = optString(hdr.Metadata())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Schema, err = props.SchemaFromFlat(hdr); err != nil {
		return nil, err
	}
	if obj := hdr.Crs(nil); obj != nil {
		if result.CRS, err = crs.FromFlat(obj); err != nil {
			return nil, err
		}
	}
	return &result, nil
}

func optString(b []byte) *string {
	if b == nil {
		return nil
	}
	s := string(b)
	return &s
}

// ToFlat returns hdr as a standalone FlatGeobuf header table.
func (hdr *Header) ToFlat() *flat.Header {
	b := flatbuffers.NewBuilder(1024)
	b.Finish(hdr.ToBuilder(b))
	return flat.GetRootAsHeader(b.FinishedBytes(), 0)
}

func (hdr *Header) ToBuilder(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	func() {
		defer func() {
			flat.HeaderAddGeometryType(b, hdr.GeometryType)
			flat.HeaderAddHasZ(b, hdr.HasZ)
			flat.HeaderAddHasM(b, hdr.HasM)
			flat.HeaderAddHasT(b, hdr.HasT)
			flat.HeaderAddHasTm(b, hdr.HasTM)
			flat.HeaderAddFeaturesCount(b, hdr.FeaturesCount)
			if hdr.IndexNodeSize != nil {
				flat.HeaderAddIndexNodeSize(b, *hdr.IndexNodeSize)
			}
		}()
		if hdr.Name != nil {
			offset := b.CreateString(*hdr.Name)
			defer flat.HeaderAddName(b, offset)
		}
		if len(hdr.Envelope) > 0 {
			flat.HeaderStartEnvelopeVector(b, len(hdr.Envelope))
			for i := len(hdr.Envelope) - 1; i >= 0; i-- {
				b.PrependFloat64(hdr.Envelope[i])
			}
			offset := b.EndVector(len(hdr.Envelope))
			defer flat.HeaderAddEnvelope(b, offset)
		}
		if hdr.Schema != nil && hdr.Schema.ColumnsLength() > 0 {
			offset := hdr.Schema.ToBuilder(b)
			defer flat.HeaderAddColumns(b, offset)
		}
		if hdr.CRS != nil {
			offset := hdr.CRS.ToBuilder(b)
			defer flat.HeaderAddCrs(b, offset)
		}
		if hdr.Title != nil {
			offset := b.CreateString(*hdr.Title)
			defer flat.HeaderAddTitle(b, offset)
		}
		if hdr.Description != nil {
			offset := b.CreateString(*hdr.Description)
			defer flat.HeaderAddDescription(b, offset)
		}
		if hdr.Metadata != nil {
			offset := b.CreateString(*hdr.Metadata)
			defer flat.HeaderAddMetadata(b, offset)
		}
		flat.HeaderStart(b)
	}()
	return flat.HeaderEnd(b)
}

func (hdr *Header) ColumnsLength() int {
	if hdr.Schema == nil {
		return 0
	}
	return hdr.Schema.ColumnsLength()
}

func (hdr *Header) Columns(obj *flat.Column, j int) bool {
	if hdr.Schema == nil {
		return false
	}
	return hdr.Schema.Columns(obj, j)
}
