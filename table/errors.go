package table

import (
	"errors"
	"fmt"
)

var (
	ErrMissingColumn = textErr("missing column")
	ErrColumnType    = textErr("unexpected column type")
	ErrGeometry      = textErr("geometry is not a 2-D point")
)

const packageName = "table: "

func textErr(text string) error {
	return errors.New(packageName + text)
}

func fmtErr(format string, a ...any) error {
	return fmt.Errorf(packageName+format, a...)
}
