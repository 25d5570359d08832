// Package interop guards calls into generated FlatBuffers accessors.
package interop

import "fmt"

// FlatBufferSafe runs f and turns a panic from a malformed table, such
// as a corrupt header read from disk, into an error.
func FlatBufferSafe(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: flatbuffers: %v", r)
		}
	}()
	err = f()
	return
}
