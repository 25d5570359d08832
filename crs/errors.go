package crs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidUTF8  = textErr("WKT payload is not valid UTF-8")
	ErrEmpty        = textErr("WKT payload is empty")
	ErrConflict     = textErr("conflicting WKT records")
	ErrUnsupported  = textErr("unsupported CRS keyword")
	errMissingDatum = textErr("geodetic CRS has no datum")
)

const packageName = "crs: "

func textErr(text string) error {
	return errors.New(packageName + text)
}

func fmtErr(format string, a ...any) error {
	return fmt.Errorf(packageName+format, a...)
}
