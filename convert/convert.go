// Package convert runs one LAS file through the whole pipeline: read
// points, resolve the CRS, accumulate columns, build the Arrow record,
// and write GeoParquet or FlatGeobuf.
package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gogama/pointquaffer/column"
	"github.com/gogama/pointquaffer/crs"
	"github.com/gogama/pointquaffer/errkind"
	"github.com/gogama/pointquaffer/fgb"
	"github.com/gogama/pointquaffer/geoparquet"
	"github.com/gogama/pointquaffer/las"
	"github.com/gogama/pointquaffer/table"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Format is an output file format.
type Format string

const (
	FormatGeoParquet Format = "geoparquet"
	FormatFlatGeobuf Format = "flatgeobuf"
)

// ParseFormat accepts the format names and their usual file extensions.
// The empty string means FormatGeoParquet.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "geoparquet", "parquet":
		return FormatGeoParquet, nil
	case "flatgeobuf", "fgb":
		return FormatFlatGeobuf, nil
	}
	return "", fmtErr("%q: %w", s, ErrUnknownFormat)
}

// Ext is the file extension written for f.
func (f Format) Ext() string {
	if f == FormatFlatGeobuf {
		return ".fgb"
	}
	return ".parquet"
}

// OutputPath replaces the extension of in with the one for format.
func OutputPath(in string, format Format) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + format.Ext()
}

// NoCap disables the row cap.
const NoCap int64 = -1

// maxPresize bounds how many rows the header point count may reserve
// up front.
const maxPresize = 1 << 24

// CreatedBy is recorded in GeoParquet footers.
const CreatedBy = "pointquaffer"

type Request struct {
	Input string
	// Output defaults to OutputPath(Input, Format).
	Output string
	// GroundOnly keeps only points classified as ground.
	GroundOnly bool
	// MaxPoints caps the number of rows written. Negative means no cap;
	// zero writes an empty file.
	MaxPoints int64
	Format    Format
	// Encoding and Compression apply to GeoParquet output. Empty values
	// mean the native point encoding and Snappy.
	Encoding    string
	Compression string
	// Parallelism and ChunkSize tune LAS decoding. Zero picks defaults.
	Parallelism int
	ChunkSize   int
	CRSPolicy   crs.Policy
	// MarkUnspecifiedCRS writes crs_status=unspecified when the input has
	// no WKT record.
	MarkUnspecifiedCRS bool
	// Allocator backs the Arrow arrays. Nil means the default allocator.
	Allocator memory.Allocator
}

// Result describes a completed conversion.
type Result struct {
	Output string
	Rows   int
	// Capped is set when MaxPoints left out at least one point that
	// would otherwise have become a row.
	Capped bool
	// CRS is nil when the input carried no WKT record.
	CRS *crs.CRS
}

type plan struct {
	output   string
	format   Format
	encoding geoparquet.Encoding
	writer   geoparquet.WriterOptions
	mem      memory.Allocator
}

func (req *Request) plan() (*plan, error) {
	if req.Input == "" {
		return nil, fmt.Errorf("%w: no input file", ErrRequest)
	}
	p := &plan{mem: req.Allocator, writer: geoparquet.WriterOptions{CreatedBy: CreatedBy}}
	var err error
	if p.format, err = ParseFormat(string(req.Format)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	if p.encoding, err = geoparquet.ParseEncoding(req.Encoding); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	if p.writer.Compression, err = geoparquet.ParseCompression(req.Compression); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	p.output = req.Output
	if p.output == "" {
		p.output = OutputPath(req.Input, p.format)
	}
	if filepath.Clean(p.output) == filepath.Clean(req.Input) {
		return nil, fmt.Errorf("%w: output %s would overwrite the input", ErrRequest, p.output)
	}
	if p.mem == nil {
		p.mem = memory.DefaultAllocator
	}
	return p, nil
}

// File converts req.Input. Every log entry carries the fields run, a
// fresh UUID, and input. A failed run leaves nothing at the output
// path; its error matches an errkind sentinel, ErrRequest when req
// itself is invalid, or the context error when ctx ends first.
func File(ctx context.Context, req Request, log logrus.FieldLogger) (*Result, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	p, err := req.plan()
	if err != nil {
		return nil, err
	}
	log = log.WithFields(logrus.Fields{
		"run":   uuid.NewString(),
		"input": req.Input,
	})

	log.Info("Opening input")
	rd, err := las.Open(req.Input, las.WithParallelism(req.Parallelism), las.WithChunkSize(req.ChunkSize))
	if err != nil {
		return nil, errkind.Wrap(errkind.ErrIO, err, "opening input")
	}
	defer rd.Close()
	hdr := rd.Header()
	log.WithFields(logrus.Fields{
		"version": versionString(hdr),
		"format":  hdr.PointFormat,
		"points":  hdr.PointCount,
	}).Debug("Read header")

	c, err := crs.Resolve(hdr, req.CRSPolicy)
	if err != nil {
		return nil, err
	}
	if c != nil {
		log.WithField("crs", c.Name).Info("Found WKT record")
	} else {
		log.Warn("No WKT record, CRS is unspecified")
	}

	var filter column.Filter
	if req.GroundOnly {
		filter = column.GroundOnly
	}
	rows, capped, err := column.Accumulate(rd.Points(), filter, req.MaxPoints, int64(min(hdr.PointCount, maxPresize)))
	if err != nil {
		return nil, errkind.Wrap(errkind.ErrIO, err, "reading points")
	}
	if capped {
		log.WithField("max_points", req.MaxPoints).Info("Reached max points")
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	log.WithField("rows", rows.Len()).Info("Building arrays")
	rec, err := table.Build(p.mem, rows)
	if err != nil {
		return nil, err
	}
	defer rec.Release()

	log.WithFields(logrus.Fields{"output": p.output, "format": p.format}).Info("Writing output")
	switch p.format {
	case FormatFlatGeobuf:
		name := strings.TrimSuffix(filepath.Base(req.Input), filepath.Ext(req.Input))
		err = fgb.WriteFile(p.output, rec, c, fgb.Options{Name: name})
	default:
		err = writeGeoParquet(p, rec, c, req.MarkUnspecifiedCRS)
	}
	if err != nil {
		return nil, err
	}

	log.WithField("rows", rows.Len()).Info("Done")
	return &Result{
		Output: p.output,
		Rows:   rows.Len(),
		Capped: capped,
		CRS:    c,
	}, nil
}

func writeGeoParquet(p *plan, rec arrow.Record, c *crs.CRS, markUnspecified bool) error {
	enc, err := geoparquet.NewEncoder(geoparquet.EncoderOptions{
		Encoding:           p.encoding,
		MarkUnspecifiedCRS: markUnspecified,
		Allocator:          p.mem,
	}, c)
	if err != nil {
		return err
	}
	batch, err := enc.Encode(rec)
	if err != nil {
		return err
	}
	defer batch.Release()
	return geoparquet.WriteFile(p.output, batch, p.writer)
}

func versionString(h *las.Header) string {
	return fmt.Sprintf("%d.%d", h.VersionMajor, h.VersionMinor)
}
