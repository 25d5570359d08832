// Package fgb writes converted point batches as FlatGeobuf files and
// reads FlatGeobuf files back.
package fgb

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/gogama/flatgeobuf/flatgeobuf"
	"github.com/gogama/flatgeobuf/flatgeobuf/flat"
	"github.com/gogama/pointquaffer/column"
	"github.com/gogama/pointquaffer/convert/orbconvert"
	"github.com/gogama/pointquaffer/crs"
	"github.com/gogama/pointquaffer/errkind"
	"github.com/gogama/pointquaffer/header"
	"github.com/gogama/pointquaffer/props"
	"github.com/gogama/pointquaffer/schema"
	"github.com/gogama/pointquaffer/table"
	flatbuffers "github.com/google/flatbuffers/go"
)

type Options struct {
	// Name is recorded as the dataset name when not empty.
	Name        string
	Description string
	// IndexNodeSize is the node size of the packed Hilbert R-tree
	// written ahead of the features. Zero writes no index. An index is
	// never written for an empty file.
	IndexNodeSize uint16
}

// NewHeader describes rows as a FlatGeobuf point layer.
func NewHeader(rows *column.Buffers, c *crs.CRS, opts Options) *header.Header {
	indexNodeSize := opts.IndexNodeSize
	if rows.Len() == 0 {
		indexNodeSize = 0
	}
	hdr := &header.Header{
		GeometryType:  flat.GeometryTypePoint,
		Schema:        props.NewSchema(schema.Points()),
		FeaturesCount: uint64(rows.Len()),
		IndexNodeSize: &indexNodeSize,
		CRS:           c,
	}
	if rows.Len() > 0 {
		bound := rows.Bound()
		hdr.Envelope = []float64{bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y()}
	}
	if opts.Name != "" {
		hdr.Name = &opts.Name
	}
	if opts.Description != "" {
		hdr.Description = &opts.Description
	}
	return hdr
}

// WriteFile writes the point record rec, in table.Schema layout, to
// path. Like the GeoParquet writer it writes a temporary file first and
// renames it onto path only after it is complete.
func WriteFile(path string, rec arrow.Record, c *crs.CRS, opts Options) (err error) {
	rows, err := table.Extract(rec)
	if err != nil {
		return err
	}
	hdr := NewHeader(rows, c, opts)

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

	w := bufio.NewWriterSize(f, 1<<16)
	if err = writeAll(w, hdr, rows); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return errkind.Wrap(errkind.ErrIO, err, "writing output")
	}
	if err = f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return errkind.Wrap(errkind.ErrIO, err, "closing output")
	}
	if err = os.Rename(tmp, path); err != nil {
		return errkind.Wrap(errkind.ErrIO, err, "renaming output into place")
	}
	return nil
}

func writeAll(w io.Writer, hdr *header.Header, rows *column.Buffers) error {
	fw := flatgeobuf.NewFileWriter(w)
	b := flatbuffers.NewBuilder(4096)
	b.FinishSizePrefixed(hdr.ToBuilder(b))
	if _, err := fw.Header(flat.GetSizePrefixedRootAsHeader(b.FinishedBytes(), 0)); err != nil {
		return errkind.Wrap(errkind.ErrIO, err, "writing header")
	}

	// With an index every feature must be built before the first is
	// written, since the tree precedes the data section.
	indexed := *hdr.IndexNodeSize > 0
	var features []flat.Feature
	if indexed {
		features = make([]flat.Feature, 0, rows.Len())
	}
	p := props.NewProps(hdr.Schema)
	for i := 0; i < rows.Len(); i++ {
		f, err := buildFeature(b, p, rows.Row(i))
		if err != nil {
			return errkind.Wrapf(errkind.ErrEncoding, err, "row %d", i)
		}
		if indexed {
			features = append(features, *f)
		} else if _, err = fw.Data([]flat.Feature{*f}); err != nil {
			return errkind.Wrapf(errkind.ErrIO, err, "writing feature %d", i)
		}
	}
	if indexed {
		if _, err := fw.IndexData(features); err != nil {
			return errkind.Wrap(errkind.ErrIO, err, "writing index and features")
		}
	}
	if err := fw.Close(); err != nil {
		return errkind.Wrap(errkind.ErrIO, err, "finishing output")
	}
	return nil
}

// buildFeature encodes one row as a size-prefixed feature table. The
// builder and props are reset and reused; the returned feature owns its
// bytes.
func buildFeature(b *flatbuffers.Builder, p *props.Props, r column.Row) (*flat.Feature, error) {
	b.Reset()
	p.Reset()
	if err := setProps(p, &r); err != nil {
		return nil, err
	}
	offset, err := orbconvert.ToBuilderProps(b, r.XY, p)
	if err != nil {
		return nil, err
	}
	b.FinishSizePrefixed(offset)
	buf := append([]byte(nil), b.FinishedBytes()...)
	return flat.GetSizePrefixedRootAsFeature(buf, 0), nil
}

func setProps(p *props.Props, r *column.Row) error {
	for _, err := range []error{
		p.SetLongName(schema.FID, r.FID),
		p.SetDoubleName(schema.Z, r.Z),
		p.SetLongName(schema.Intensity, r.Intensity),
		p.SetLongName(schema.ReturnNumber, r.ReturnNumber),
		p.SetLongName(schema.NumberOfReturns, r.NumberOfReturns),
		p.SetStringName(schema.ScanDirection, r.ScanDirection),
		p.SetStringName(schema.Classification, r.Classification),
		p.SetDoubleName(schema.ScanAngle, r.ScanAngle),
		p.SetLongName(schema.PointSourceID, r.PointSourceID),
	} {
		if err != nil {
			return err
		}
	}
	if r.GPSTimeValid {
		return p.SetDoubleName(schema.GPSTime, r.GPSTime)
	}
	return nil
}
