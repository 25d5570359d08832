package schema

import (
	"errors"
	"fmt"
)

var ErrUnknownType = textErr("column type has no columnar equivalent")

const packageName = "schema: "

func textErr(text string) error {
	return errors.New(packageName + text)
}

func fmtErr(format string, a ...any) error {
	return fmt.Errorf(packageName+format, a...)
}
