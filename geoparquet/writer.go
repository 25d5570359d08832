package geoparquet

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/gogama/pointquaffer/errkind"
)

// ParseCompression maps a codec name to a Parquet codec. The empty
// string means Snappy. "lz4" selects the raw LZ4 codec.
func ParseCompression(s string) (compress.Compression, error) {
	switch strings.ToLower(s) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "lz4", "lz4_raw":
		return compress.Codecs.Lz4Raw, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, fmtErr("%q: %w", s, ErrUnknownCompression)
	}
}

type WriterOptions struct {
	Compression compress.Compression
	// CreatedBy is recorded in the file footer.
	CreatedBy string
}

// WriteFile writes batch to path as a single row group and appends the
// batch's key/value metadata to the footer. The file is written under
// a temporary name in the same directory and renamed onto path only
// after it is completely closed, so a failed write never leaves a file
// at path. An existing file at path is replaced.
func WriteFile(path string, batch *EncodedBatch, opts WriterOptions) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errkind.Wrap(errkind.ErrIO, err, "creating output")
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()
	if err = f.Chmod(0o644); err != nil {
		return errkind.Wrap(errkind.ErrIO, err, "creating output")
	}

	rowGroupLength := batch.Record.NumRows()
	if rowGroupLength < 1 {
		rowGroupLength = 1
	}
	wprops := []parquet.WriterProperty{
		parquet.WithCompression(opts.Compression),
		parquet.WithMaxRowGroupLength(rowGroupLength),
	}
	if opts.CreatedBy != "" {
		wprops = append(wprops, parquet.WithCreatedBy(opts.CreatedBy))
	}
	fw, err := pqarrow.NewFileWriter(
		batch.Record.Schema(),
		f,
		parquet.NewWriterProperties(wprops...),
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()),
	)
	if err != nil {
		return errkind.Wrap(errkind.ErrIO, err, "creating parquet writer")
	}
	if err = fw.Write(batch.Record); err != nil {
		return errkind.Wrap(errkind.ErrIO, err, "writing row group")
	}
	keys, values := batch.KeyValue.Keys(), batch.KeyValue.Values()
	for i := range keys {
		if err = fw.AppendKeyValueMetadata(keys[i], values[i]); err != nil {
			return errkind.Wrapf(errkind.ErrIO, err, "appending %s metadata", keys[i])
		}
	}
	if err = fw.Close(); err != nil {
		return errkind.Wrap(errkind.ErrIO, err, "closing parquet writer")
	}
	// The parquet writer closes its sink.
	if err = f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return errkind.Wrap(errkind.ErrIO, err, "closing output")
	}
	if err = os.Rename(tmp, path); err != nil {
		return errkind.Wrap(errkind.ErrIO, err, "renaming output into place")
	}
	return nil
}
