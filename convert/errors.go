package convert

import (
	"errors"
	"fmt"
)

var (
	// ErrRequest means a Request field is invalid. It is a usage error,
	// not one of the errkind failures.
	ErrRequest       = textErr("invalid request")
	ErrUnknownFormat = textErr("unknown output format")
)

const packageName = "convert: "

func textErr(text string) error {
	return errors.New(packageName + text)
}

func fmtErr(format string, a ...any) error {
	return fmt.Errorf(packageName+format, a...)
}
