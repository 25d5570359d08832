// Package config loads pointquaffer settings from an optional INI file.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// Convert is the [convert] section.
type Convert struct {
	GroundOnly bool
	// MaxPoints below zero means no cap.
	MaxPoints          int64
	Format             string
	GeometryEncoding   string
	Compression        string
	Parallelism        int
	ChunkSize          int
	CRSConflict        string
	MarkUnspecifiedCRS bool
}

// Log is the [log] section.
type Log struct {
	Level string
}

type Config struct {
	Raw     *ini.File
	Convert Convert
	Log     Log
}

// New returns the defaults used when no file is given.
func New() *Config {
	return &Config{
		Raw: ini.Empty(),
		Convert: Convert{
			MaxPoints:          -1,
			Format:             "geoparquet",
			GeometryEncoding:   "point",
			Compression:        "snappy",
			ChunkSize:          65536,
			CRSConflict:        "error",
			MarkUnspecifiedCRS: true,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path returns the
// defaults. Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := New()
	if path == "" {
		return cfg, nil
	}
	f, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: loading %s", path)
	}
	cfg.Raw = f
	if err = cfg.parseConvert(f.Section("convert")); err != nil {
		return nil, errors.Wrapf(err, "config: %s [convert]", path)
	}
	cfg.parseLog(f.Section("log"))
	return cfg, nil
}

func (cfg *Config) parseConvert(section *ini.Section) error {
	c := &cfg.Convert
	var err error
	if section.HasKey("ground_only") {
		if c.GroundOnly, err = section.Key("ground_only").Bool(); err != nil {
			return errors.Wrap(err, "ground_only")
		}
	}
	if section.HasKey("max_points") {
		if c.MaxPoints, err = section.Key("max_points").Int64(); err != nil {
			return errors.Wrap(err, "max_points")
		}
	}
	if section.HasKey("parallelism") {
		if c.Parallelism, err = section.Key("parallelism").Int(); err != nil {
			return errors.Wrap(err, "parallelism")
		}
	}
	if section.HasKey("chunk_size") {
		if c.ChunkSize, err = section.Key("chunk_size").Int(); err != nil {
			return errors.Wrap(err, "chunk_size")
		}
	}
	if section.HasKey("mark_unspecified_crs") {
		if c.MarkUnspecifiedCRS, err = section.Key("mark_unspecified_crs").Bool(); err != nil {
			return errors.Wrap(err, "mark_unspecified_crs")
		}
	}
	c.Format = section.Key("format").MustString(c.Format)
	c.GeometryEncoding = section.Key("geometry_encoding").MustString(c.GeometryEncoding)
	c.Compression = section.Key("compression").MustString(c.Compression)
	c.CRSConflict = section.Key("crs_conflict").MustString(c.CRSConflict)
	return nil
}

func (cfg *Config) parseLog(section *ini.Section) {
	cfg.Log.Level = strings.ToLower(section.Key("level").MustString(cfg.Log.Level))
}
