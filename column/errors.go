package column

import (
	"errors"
)

var ErrLengthMismatch = textErr("buffer lengths disagree")

const packageName = "column: "

func textErr(text string) error {
	return errors.New(packageName + text)
}
