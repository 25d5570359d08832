package fgb

import (
	"errors"
	"fmt"
)

var (
	ErrMagic   = textErr("not a FlatGeobuf v3 file")
	ErrClosed  = textErr("reader is closed")
	errNoProps = textErr("property schema has no point columns")
)

const packageName = "fgb: "

func textErr(text string) error {
	return errors.New(packageName + text)
}

func fmtErr(format string, a ...any) error {
	return fmt.Errorf(packageName+format, a...)
}
