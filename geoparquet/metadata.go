// Package geoparquet encodes point batches as GeoParquet and writes
// and reads them.
package geoparquet

import (
	"encoding/json"
	"strings"

	"github.com/gogama/pointquaffer/errkind"
)

// File-level key/value metadata keys and values.
const (
	MetadataKey = "geo"
	Version     = "1.1.0"

	CRSWKTKey            = "crs_wkt"
	CRSStatusKey         = "crs_status"
	CRSStatusWKT         = "wkt"
	CRSStatusUnspecified = "unspecified"
)

// Encoding is a GeoParquet geometry column encoding.
type Encoding string

const (
	EncodingPoint Encoding = "point"
	EncodingWKB   Encoding = "WKB"
)

// ParseEncoding accepts "point" (or "native") and "wkb" in any case.
// The empty string means EncodingPoint.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(s) {
	case "", "point", "native":
		return EncodingPoint, nil
	case "wkb":
		return EncodingWKB, nil
	default:
		return "", errkind.Wrap(errkind.ErrEncoding, fmtErr("%q: %w", s, ErrUnknownEncoding), "")
	}
}

// Metadata is the value of the geo key.
type Metadata struct {
	Version       string                    `json:"version"`
	PrimaryColumn string                    `json:"primary_column"`
	Columns       map[string]ColumnMetadata `json:"columns"`
}

// ColumnMetadata describes one geometry column. A missing CRS means
// the reference system is unspecified.
type ColumnMetadata struct {
	Encoding      Encoding        `json:"encoding"`
	GeometryTypes []string        `json:"geometry_types"`
	BBox          []float64       `json:"bbox,omitempty"`
	CRS           json.RawMessage `json:"crs,omitempty"`
}

// Primary returns the metadata of the primary geometry column.
func (m *Metadata) Primary() (ColumnMetadata, bool) {
	col, ok := m.Columns[m.PrimaryColumn]
	return col, ok
}
