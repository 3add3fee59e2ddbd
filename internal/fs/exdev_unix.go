//go:build unix

package fs

import (
	"errors"
	"os"
	"syscall"
)

// isEXDEV reports whether a rename failed because source and destination are on
// different filesystems.
func isEXDEV(err error) bool {
	var le *os.LinkError
	if errors.As(err, &le) {
		err = le.Err
	}
	return errors.Is(err, syscall.EXDEV)
}
