package fs

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/fedragon/go-mediasort/internal/metrics"

	"github.com/natefinch/atomic"
)

// swapped in tests to simulate EXDEV
var renameFunc = os.Rename

var ErrDigestMismatch = errors.New("digest mismatch")

// CrossDeviceError is returned by Rename when src and dst live on different filesystems.
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("cannot rename %q to %q across devices: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// CopyFile atomically writes a copy of src to dst, then carries over the
// permission bits and modification time of src.
func CopyFile(mx *metrics.Metrics, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	stop := mx.Record("transfer")
	err = atomic.WriteFile(dst, bufio.NewReader(in))
	stop()
	if err != nil {
		return fmt.Errorf("cannot atomically copy %v to %v: %w", src, dst, err)
	}

	return PreserveAttributes(dst, info)
}

// PreserveAttributes applies the permission bits and modification time in info to path.
// The access time is set to the modification time as well.
func PreserveAttributes(path string, info os.FileInfo) error {
	if err := os.Chmod(path, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(path, info.ModTime(), info.ModTime())
}

// Verify compares the digests of src and dst.
func Verify(mx *metrics.Metrics, src, dst string) error {
	a, err := Hash(mx, src)
	if err != nil {
		return err
	}
	b, err := Hash(mx, dst)
	if err != nil {
		return err
	}
	if !bytes.Equal(a, b) {
		return fmt.Errorf("%v and %v: %w", src, dst, ErrDigestMismatch)
	}
	return nil
}

// Move renames src to dst. When the two paths are on different filesystems, or
// src is a symbolic link, it falls back to copying the contents, verifying the
// copy and removing src.
func Move(mx *metrics.Metrics, src, dst string) error {
	if info, err := os.Lstat(src); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return copyAndRemove(mx, src, dst)
	}

	stop := mx.Record("transfer")
	err := Rename(src, dst)
	stop()
	if err == nil || !IsCrossDevice(err) {
		return err
	}

	return copyAndRemove(mx, src, dst)
}

func copyAndRemove(mx *metrics.Metrics, src, dst string) error {
	if err := CopyFile(mx, src, dst); err != nil {
		return err
	}
	if err := Verify(mx, src, dst); err != nil {
		_ = os.Remove(dst)
		return err
	}

	return os.Remove(src)
}
