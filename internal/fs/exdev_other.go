//go:build !unix

package fs

import (
	"errors"
	"os"
)

// Outside unix a failed rename between volumes is reported as a *os.LinkError
// carrying a platform specific errno, so any link error is treated as cross-device.
func isEXDEV(err error) bool {
	var le *os.LinkError
	return errors.As(err, &le)
}
