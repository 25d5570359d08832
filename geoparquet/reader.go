package geoparquet

import (
	"context"
	"encoding/json"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/gogama/pointquaffer/errkind"
)

// File is a GeoParquet file read fully into memory.
type File struct {
	Table     arrow.Table
	Geo       Metadata
	KeyValue  map[string]string
	RowGroups int
}

// Release releases the table.
func (f *File) Release() {
	if f.Table != nil {
		f.Table.Release()
		f.Table = nil
	}
}

// CRSStatus returns the crs_status marker, or "" if the file has none.
func (f *File) CRSStatus() string {
	return f.KeyValue[CRSStatusKey]
}

// ReadFile opens path, decodes its geo metadata, and reads every row.
// A file without geo metadata fails with ErrNotGeoParquet.
func ReadFile(ctx context.Context, path string, mem memory.Allocator) (*File, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, errkind.Wrapf(errkind.ErrIO, err, "opening %s", path)
	}
	defer rdr.Close()

	md := rdr.MetaData()
	kv := md.KeyValueMetadata()
	out := &File{
		KeyValue:  make(map[string]string, kv.Len()),
		RowGroups: md.NumRowGroups(),
	}
	keys, values := kv.Keys(), kv.Values()
	for i := range keys {
		out.KeyValue[keys[i]] = values[i]
	}
	raw := kv.FindValue(MetadataKey)
	if raw == nil {
		return nil, errkind.Wrap(errkind.ErrSchemaMismatch, ErrNotGeoParquet, path)
	}
	if err = json.Unmarshal([]byte(*raw), &out.Geo); err != nil {
		return nil, errkind.Wrap(errkind.ErrSchemaMismatch, err, "decoding geo metadata")
	}

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{BatchSize: 64 * 1024}, mem)
	if err != nil {
		return nil, errkind.Wrap(errkind.ErrIO, err, "creating arrow reader")
	}
	if out.Table, err = fr.ReadTable(ctx); err != nil {
		return nil, errkind.Wrap(errkind.ErrIO, err, "reading table")
	}
	return out, nil
}
