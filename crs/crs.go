package crs

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gogama/flatgeobuf/flatgeobuf/flat"
	"github.com/gogama/pointquaffer/interop"
	flatbuffers "github.com/google/flatbuffers/go"
)

// CRS is a resolved coordinate reference system. WKT holds the
// embedded text with padding removed, and ProjJSON its PROJJSON form.
type CRS struct {
	Org         string
	Code        int32
	Name        string
	Description string
	WKT         string
	CodeString  string
	ProjJSON    json.RawMessage
}

// FromWKT decodes a WKT payload as stored in a file record: it must be
// UTF-8, and trailing NUL padding and surrounding whitespace are
// dropped before parsing.
func FromWKT(payload []byte) (*CRS, error) {
	if !utf8.Valid(payload) {
		return nil, ErrInvalidUTF8
	}
	wkt := strings.TrimFunc(string(payload), func(r rune) bool {
		return r == 0 || unicode.IsSpace(r)
	})
	if wkt == "" {
		return nil, ErrEmpty
	}
	root, err := ParseWKT(wkt)
	if err != nil {
		return nil, err
	}
	pj, err := ToProjJSON(root)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(pj)
	if err != nil {
		return nil, err
	}
	c := &CRS{Name: pj.Name, WKT: wkt, ProjJSON: raw}
	if pj.ID != nil {
		c.Org = pj.ID.Authority
		switch code := pj.ID.Code.(type) {
		case int64:
			if code >= math.MinInt32 && code <= math.MaxInt32 {
				c.Code = int32(code)
			} else {
				c.CodeString = strconv.FormatInt(code, 10)
			}
		case string:
			c.CodeString = code
		}
	}
	return c, nil
}

// ProjJSONValue decodes ProjJSON for embedding in other JSON documents.
func (crs *CRS) ProjJSONValue() (map[string]any, error) {
	var v map[string]any
	if err := json.Unmarshal(crs.ProjJSON, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func FromFlat(crs *flat.Crs) (*CRS, error) {
	var result CRS
	err := interop.FlatBufferSafe(func() error {
		result.Org = string(crs.Org())
		result.Code = crs.Code()
		result.Name = string(crs.Name())
		result.Description = string(crs.Description())
		result.WKT = string(crs.Wkt())
		result.CodeString = string(crs.CodeString())
		return nil
	})
	return &result, err
}

func (crs *CRS) ToBuilder(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	func() {
		if crs.Org != "" {
			offset := b.CreateString(crs.Org)
			defer flat.CrsAddOrg(b, offset)
		}
		defer flat.CrsAddCode(b, crs.Code)
		if crs.Name != "" {
			offset := b.CreateString(crs.Name)
			defer flat.CrsAddName(b, offset)
		}
		if crs.Description != "" {
			offset := b.CreateString(crs.Description)
			defer flat.CrsAddDescription(b, offset)
		}
		if crs.WKT != "" {
			offset := b.CreateString(crs.WKT)
			defer flat.CrsAddWkt(b, offset)
		}
		if crs.CodeString != "" {
			offset := b.CreateString(crs.CodeString)
			defer flat.CrsAddCodeString(b, offset)
		}
		flat.CrsStart(b)
	}()
	return flat.CrsEnd(b)
}
