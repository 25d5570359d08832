// Command pointquaffer converts LAS point clouds to GeoParquet or
// FlatGeobuf and prints samples of converted files.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gogama/pointquaffer/column"
	"github.com/gogama/pointquaffer/config"
	"github.com/gogama/pointquaffer/convert"
	"github.com/gogama/pointquaffer/crs"
	"github.com/gogama/pointquaffer/errkind"
	"github.com/gogama/pointquaffer/fgb"
	"github.com/gogama/pointquaffer/geoparquet"
	"github.com/gogama/pointquaffer/logging"
	"github.com/gogama/pointquaffer/table"
)

const version = "0.1.0"

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintf(stdout, "pointquaffer %s\n\n", version)
		usage(stdout)
		return exitOK
	}
	var err error
	switch args[0] {
	case "convert":
		err = runConvert(ctx, args[1:], stdout, stderr)
	case "inspect":
		err = runInspect(ctx, args[1:], stdout, stderr)
	case "version", "-version", "--version":
		fmt.Fprintln(stdout, version)
	case "help", "-h", "-help", "--help":
		usage(stdout)
	default:
		fmt.Fprintf(stderr, "pointquaffer: unknown command %q\n", args[0])
		usage(stderr)
		return exitUsage
	}
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage), errors.Is(err, convert.ErrRequest):
		fmt.Fprintf(stderr, "pointquaffer %s: %v\n", args[0], err)
		return exitUsage
	default:
		if kind := errkind.Of(err); kind != nil {
			fmt.Fprintf(stderr, "pointquaffer %s: %s: %v\n", args[0], kind, err)
		} else {
			fmt.Fprintf(stderr, "pointquaffer %s: %v\n", args[0], err)
		}
		return exitError
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage:
  pointquaffer convert [flags] input.las
  pointquaffer inspect [-every N] file.parquet|file.fgb

Run "pointquaffer convert -h" for conversion flags.
`)
}

func parse(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		err = fmt.Errorf("%w: %v", errUsage, err)
	}
	return err
}

func runConvert(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "INI config file")
	output := fs.String("o", "", "output path (default: input with its extension replaced)")
	ground := fs.Bool("ground", false, "keep only ground-classified points")
	maxPoints := fs.Int64("max-points", -1, "maximum rows to write, negative for no cap")
	format := fs.String("format", "", "output format: geoparquet or flatgeobuf")
	encoding := fs.String("encoding", "", "GeoParquet geometry encoding: point or wkb")
	compression := fs.String("compression", "", "GeoParquet codec: snappy, zstd, lz4, gzip, brotli or none")
	parallelism := fs.Int("parallelism", 0, "point decode workers, 0 for one per CPU")
	chunkSize := fs.Int("chunk-size", 0, "points per decode chunk")
	crsConflict := fs.String("crs-conflict", "", "when WKT records disagree: error or last")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: expected one input file, got %d", errUsage, fs.NArg())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	c := &cfg.Convert
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ground":
			c.GroundOnly = *ground
		case "max-points":
			c.MaxPoints = *maxPoints
		case "format":
			c.Format = *format
		case "encoding":
			c.GeometryEncoding = *encoding
		case "compression":
			c.Compression = *compression
		case "parallelism":
			c.Parallelism = *parallelism
		case "chunk-size":
			c.ChunkSize = *chunkSize
		case "crs-conflict":
			c.CRSConflict = *crsConflict
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})

	log, err := logging.New(cfg.Log.Level, stderr)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	policy, err := crs.ParsePolicy(c.CRSConflict)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	res, err := convert.File(ctx, convert.Request{
		Input:              fs.Arg(0),
		Output:             *output,
		GroundOnly:         c.GroundOnly,
		MaxPoints:          c.MaxPoints,
		Format:             convert.Format(c.Format),
		Encoding:           c.GeometryEncoding,
		Compression:        c.Compression,
		Parallelism:        c.Parallelism,
		ChunkSize:          c.ChunkSize,
		CRSPolicy:          policy,
		MarkUnspecifiedCRS: c.MarkUnspecifiedCRS,
	}, log)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %d rows to %s\n", res.Rows, res.Output)
	return nil
}

func runInspect(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	every := fs.Int("every", 10000, "print every Nth row")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: expected one file, got %d", errUsage, fs.NArg())
	}
	if *every < 1 {
		return fmt.Errorf("%w: -every must be positive", errUsage)
	}
	path := fs.Arg(0)

	var rows *column.Buffers
	if strings.EqualFold(filepath.Ext(path), ".fgb") {
		r, hdr, err := fgb.ReadRows(path)
		if err != nil {
			return err
		}
		rows = r
		fmt.Fprintf(stdout, "FlatGeobuf: %d features, geometry type %s\n", hdr.FeaturesCount, hdr.GeometryType)
		fmt.Fprintln(stdout, "Columns:")
		for i := 0; i < hdr.Schema.ColumnsLength(); i++ {
			col := hdr.Schema.Column(i)
			fmt.Fprintf(stdout, "  - %s: %s\n", col.Name, col.Type)
		}
		if hdr.CRS != nil {
			fmt.Fprintf(stdout, "CRS: %s (%s:%d)\n", hdr.CRS.Name, hdr.CRS.Org, hdr.CRS.Code)
		}
	} else {
		f, err := geoparquet.ReadFile(ctx, path, memory.DefaultAllocator)
		if err != nil {
			return err
		}
		defer f.Release()
		fmt.Fprintln(stdout, f.Table.Schema())
		geo, err := json.MarshalIndent(f.Geo, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Geo metadata: %s\n", geo)
		if status := f.CRSStatus(); status != "" {
			fmt.Fprintf(stdout, "CRS status: %s\n", status)
		}
		if rows, err = table.ExtractTable(f.Table); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "Rows: %d\n", rows.Len())
	for i := 0; i < rows.Len(); i += *every {
		r := rows.Row(i)
		fmt.Fprintf(stdout, "Row %d: x=%.3f, y=%.3f, z=%.3f - %s\n", i, r.XY.X(), r.XY.Y(), r.Z, r.Classification)
	}
	return nil
}
