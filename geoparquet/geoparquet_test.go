package geoparquet

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/gogama/pointquaffer/column"
	"github.com/gogama/pointquaffer/crs"
	"github.com/gogama/pointquaffer/errkind"
	"github.com/gogama/pointquaffer/las"
	"github.com/gogama/pointquaffer/las/lastest"
	"github.com/gogama/pointquaffer/table"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wgs84 = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]]`

func testCRS(t *testing.T) *crs.CRS {
	t.Helper()
	c, err := crs.FromWKT([]byte(wgs84 + "\x00\x00"))
	require.NoError(t, err)
	return c
}

func testBuffers(n int) *column.Buffers {
	b := column.NewBuffers(n)
	for i, p := range lastest.Points(n, las.Ground, las.Building, las.Water) {
		if i%4 == 1 {
			p.HasGPSTime, p.GPSTime = false, 0
		}
		b.Append(&p)
	}
	return b
}

func testRecord(t *testing.T, b *column.Buffers) arrow.Record {
	t.Helper()
	rec, err := table.Build(memory.DefaultAllocator, b)
	require.NoError(t, err)
	t.Cleanup(rec.Release)
	return rec
}

func encode(t *testing.T, opts EncoderOptions, c *crs.CRS, rec arrow.Record) *EncodedBatch {
	t.Helper()
	enc, err := NewEncoder(opts, c)
	require.NoError(t, err)
	batch, err := enc.Encode(rec)
	require.NoError(t, err)
	t.Cleanup(batch.Release)
	return batch
}

func TestEncodeWithCRS(t *testing.T) {
	c := testCRS(t)
	batch := encode(t, EncoderOptions{MarkUnspecifiedCRS: true}, c, testRecord(t, testBuffers(5)))

	assert.Equal(t, []string{MetadataKey, CRSWKTKey, CRSStatusKey}, batch.KeyValue.Keys())
	assert.Equal(t, wgs84, batch.KeyValue.Values()[1])
	assert.Equal(t, CRSStatusWKT, batch.KeyValue.Values()[2])

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(batch.KeyValue.Values()[0]), &got))
	var projjson map[string]any
	require.NoError(t, json.Unmarshal(c.ProjJSON, &projjson))
	want := map[string]any{
		"version":        "1.1.0",
		"primary_column": "xy",
		"columns": map[string]any{
			"xy": map[string]any{
				"encoding":       "point",
				"geometry_types": []any{"Point"},
				"bbox":           []any{1000.0, 2000.0, 1004.0, 2004.0},
				"crs":            projjson,
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("geo metadata mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "GeographicCRS", projjson["type"])
}

func TestEncodeWithoutCRS(t *testing.T) {
	for _, mark := range []bool{true, false} {
		batch := encode(t, EncoderOptions{MarkUnspecifiedCRS: mark}, nil, testRecord(t, testBuffers(3)))

		col, ok := batch.Geo.Primary()
		require.True(t, ok)
		assert.Nil(t, col.CRS)
		assert.NotContains(t, batch.KeyValue.Values()[0], `"crs"`)
		_, hasWKT := batch.KeyValue.GetValue(CRSWKTKey)
		assert.False(t, hasWKT)
		status, hasStatus := batch.KeyValue.GetValue(CRSStatusKey)
		assert.Equal(t, mark, hasStatus)
		if mark {
			assert.Equal(t, CRSStatusUnspecified, status)
		}
	}
}

func TestEncodeEmptyBatchOmitsBBox(t *testing.T) {
	batch := encode(t, EncoderOptions{}, nil, testRecord(t, column.NewBuffers(0)))

	assert.EqualValues(t, 0, batch.Record.NumRows())
	assert.NotContains(t, batch.KeyValue.Values()[0], "bbox")
}

func TestEncodeWKB(t *testing.T) {
	want := testBuffers(6)
	batch := encode(t, EncoderOptions{Encoding: EncodingWKB}, nil, testRecord(t, want))

	geom := batch.Record.Schema().Field(0)
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.Binary, geom.Type))
	ext, _ := geom.Metadata.GetValue(table.ExtensionNameKey)
	assert.Equal(t, "geoarrow.wkb", ext)
	assert.Equal(t, EncodingWKB, batch.Geo.Columns["xy"].Encoding)

	got, err := table.Extract(batch.Record)
	require.NoError(t, err)
	assert.Equal(t, want.XY, got.XY)
}

func TestEncodeRejectsWrongGeometry(t *testing.T) {
	rec := testRecord(t, testBuffers(2))
	ib := array.NewInt64Builder(memory.DefaultAllocator)
	defer ib.Release()
	ib.AppendValues([]int64{1, 2}, nil)
	bad := ib.NewArray()
	defer bad.Release()
	fields := rec.Schema().Fields()
	fields[0] = arrow.Field{Name: "xy", Type: arrow.PrimitiveTypes.Int64}
	cols := append([]arrow.Array{bad}, rec.Columns()[1:]...)
	badRec := array.NewRecord(arrow.NewSchema(fields, nil), cols, 2)
	defer badRec.Release()

	enc, err := NewEncoder(EncoderOptions{}, nil)
	require.NoError(t, err)
	_, err = enc.Encode(badRec)

	assert.ErrorIs(t, err, errkind.ErrEncoding)
	assert.ErrorIs(t, err, ErrGeometryColumn)
}

func TestEncodeRejectsWrongLayout(t *testing.T) {
	rec := testRecord(t, testBuffers(2))
	short := array.NewRecord(arrow.NewSchema(rec.Schema().Fields()[:5], nil), rec.Columns()[:5], 2)
	defer short.Release()

	enc, err := NewEncoder(EncoderOptions{}, nil)
	require.NoError(t, err)
	_, err = enc.Encode(short)

	assert.ErrorIs(t, err, errkind.ErrEncoding)
	assert.ErrorIs(t, err, ErrLayout)
}

func TestNewEncoderUnknownEncoding(t *testing.T) {
	_, err := NewEncoder(EncoderOptions{Encoding: "geojson"}, nil)

	assert.ErrorIs(t, err, errkind.ErrEncoding)
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestParseEncoding(t *testing.T) {
	for in, want := range map[string]Encoding{"": EncodingPoint, "point": EncodingPoint, "Native": EncodingPoint, "wkb": EncodingWKB, "WKB": EncodingWKB} {
		got, err := ParseEncoding(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseEncoding("hex")
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]compress.Compression{
		"":       compress.Codecs.Snappy,
		"snappy": compress.Codecs.Snappy,
		"ZSTD":   compress.Codecs.Zstd,
		"lz4":    compress.Codecs.Lz4Raw,
		"gzip":   compress.Codecs.Gzip,
		"none":   compress.Codecs.Uncompressed,
	} {
		got, err := ParseCompression(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseCompression("lzo")
	assert.ErrorIs(t, err, ErrUnknownCompression)
}

func TestWriteReadRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name     string
		encoding Encoding
		codec    compress.Compression
		crs      bool
	}{
		{"point snappy crs", EncodingPoint, compress.Codecs.Snappy, true},
		{"point zstd", EncodingPoint, compress.Codecs.Zstd, false},
		{"wkb gzip crs", EncodingWKB, compress.Codecs.Gzip, true},
		{"wkb none", EncodingWKB, compress.Codecs.Uncompressed, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var c *crs.CRS
			if tc.crs {
				c = testCRS(t)
			}
			want := testBuffers(250)
			batch := encode(t, EncoderOptions{Encoding: tc.encoding, MarkUnspecifiedCRS: true}, c, testRecord(t, want))
			path := filepath.Join(t.TempDir(), "out.parquet")

			require.NoError(t, WriteFile(path, batch, WriterOptions{Compression: tc.codec, CreatedBy: "tests"}))
			f, err := ReadFile(context.Background(), path, nil)
			require.NoError(t, err)
			defer f.Release()

			assert.Equal(t, 1, f.RowGroups)
			assert.EqualValues(t, 250, f.Table.NumRows())
			assert.Equal(t, batch.Geo.Version, f.Geo.Version)
			assert.Equal(t, "xy", f.Geo.PrimaryColumn)
			assert.Equal(t, tc.encoding, f.Geo.Columns["xy"].Encoding)
			assert.Equal(t, []float64{1000, 2000, 1249, 2249}, f.Geo.Columns["xy"].BBox)
			if tc.crs {
				assert.Equal(t, CRSStatusWKT, f.CRSStatus())
				assert.Equal(t, wgs84, f.KeyValue[CRSWKTKey])
				assert.JSONEq(t, string(c.ProjJSON), string(f.Geo.Columns["xy"].CRS))
			} else {
				assert.Equal(t, CRSStatusUnspecified, f.CRSStatus())
				assert.Nil(t, f.Geo.Columns["xy"].CRS)
			}

			var names []string
			for _, fld := range f.Table.Schema().Fields() {
				names = append(names, fld.Name)
			}
			assert.Equal(t, []string{
				"xy", "fid", "z", "intensity", "return_number", "number_of_returns",
				"scan_direction", "classification", "scan_angle", "point_source_id", "gps_time",
			}, names)

			got, err := table.ExtractTable(f.Table)
			require.NoError(t, err)
			for i, valid := range got.GPSTimeValid {
				if !valid {
					got.GPSTime[i] = 0
				}
			}
			if diff := cmp.Diff(want, got, cmp.AllowUnexported(column.Buffers{})); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteFileReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.parquet")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))
	batch := encode(t, EncoderOptions{}, nil, testRecord(t, testBuffers(3)))

	require.NoError(t, WriteFile(path, batch, WriterOptions{Compression: compress.Codecs.Snappy}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.parquet", entries[0].Name())
	f, err := ReadFile(context.Background(), path, memory.DefaultAllocator)
	require.NoError(t, err)
	defer f.Release()
	assert.EqualValues(t, 3, f.Table.NumRows())
}

func TestWriteFileMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "out.parquet")
	batch := encode(t, EncoderOptions{}, nil, testRecord(t, testBuffers(1)))

	err := WriteFile(path, batch, WriterOptions{})

	assert.ErrorIs(t, err, errkind.ErrIO)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReadFileWithoutGeoMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.parquet")
	batch := encode(t, EncoderOptions{}, nil, testRecord(t, testBuffers(2)))
	batch.KeyValue = arrow.Metadata{}
	require.NoError(t, WriteFile(path, batch, WriterOptions{}))

	_, err := ReadFile(context.Background(), path, nil)

	assert.ErrorIs(t, err, ErrNotGeoParquet)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.parquet"), nil)

	assert.ErrorIs(t, err, errkind.ErrIO)
}
