package las

import (
	"errors"
	"fmt"
)

var (
	ErrSignature  = textErr("missing LASF file signature")
	ErrCompressed = textErr("LAZ compressed point data is not supported")
	ErrConsumed   = textErr("point stream already consumed")
	ErrClosed     = textErr("reader is closed")
)

const packageName = "las: "

func textErr(text string) error {
	return errors.New(packageName + text)
}

func fmtErr(format string, a ...any) error {
	return fmt.Errorf(packageName+format, a...)
}
