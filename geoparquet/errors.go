package geoparquet

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownEncoding    = textErr("unknown geometry encoding")
	ErrUnknownCompression = textErr("unknown compression codec")
	ErrGeometryColumn     = textErr("geometry column cannot be encoded")
	ErrLayout             = textErr("batch does not match target layout")
	ErrNotGeoParquet      = textErr("file has no geo metadata")
)

const packageName = "geoparquet: "

func textErr(text string) error {
	return errors.New(packageName + text)
}

func fmtErr(format string, a ...any) error {
	return fmt.Errorf(packageName+format, a...)
}
