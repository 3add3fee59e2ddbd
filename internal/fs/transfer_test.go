package fs

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string, mtime time.Time) os.FileInfo {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return info
}

func assertSameFile(t *testing.T, expected os.FileInfo, path, content string) {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Errorf("Expected content %q but got %q instead", content, got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(expected.ModTime()) {
		t.Errorf("Expected mtime %v but got %v instead", expected.ModTime(), info.ModTime())
	}
	if info.Mode().Perm() != expected.Mode().Perm() {
		t.Errorf("Expected mode %v but got %v instead", expected.Mode().Perm(), info.Mode().Perm())
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")
	info := writeFile(t, src, "content", time.Date(2020, 5, 20, 15, 30, 10, 0, time.Local))

	if err := CopyFile(mx, src, dst); err != nil {
		t.Fatal(err)
	}

	assertSameFile(t, info, dst, "content")
	if _, err := os.Stat(src); err != nil {
		t.Errorf("Expected source to still exist, got %v", err)
	}
}

func TestMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")
	info := writeFile(t, src, "content", time.Date(2021, 1, 2, 3, 4, 5, 0, time.Local))

	if err := Move(mx, src, dst); err != nil {
		t.Fatal(err)
	}

	assertSameFile(t, info, dst, "content")
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("Expected source to be gone, got %v", err)
	}
}

func TestMoveSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.jpg")
	link := filepath.Join(dir, "link.jpg")
	dst := filepath.Join(dir, "dst.jpg")
	info := writeFile(t, target, "content", time.Date(2021, 1, 2, 3, 4, 5, 0, time.Local))

	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symbolic links not supported: %v", err)
	}

	if err := Move(mx, link, dst); err != nil {
		t.Fatal(err)
	}

	assertSameFile(t, info, dst, "content")
	if dstInfo, err := os.Lstat(dst); err != nil || !dstInfo.Mode().IsRegular() {
		t.Errorf("Expected a regular file at the destination, got %v", err)
	}
	if _, err := os.Lstat(link); !os.IsNotExist(err) {
		t.Errorf("Expected link to be gone, got %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("Expected target to be untouched, got %v", err)
	}
}

func TestMoveAcrossDevices(t *testing.T) {
	renameFunc = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}
	defer func() { renameFunc = os.Rename }()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")
	info := writeFile(t, src, "content", time.Date(2022, 7, 8, 9, 10, 11, 0, time.Local))

	if err := Rename(src, dst); !IsCrossDevice(err) {
		t.Fatalf("Expected a cross-device error but got %v instead", err)
	}

	if err := Move(mx, src, dst); err != nil {
		t.Fatal(err)
	}

	assertSameFile(t, info, dst, "content")
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("Expected source to be gone, got %v", err)
	}
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	now := time.Now()
	writeFile(t, a, "one", now)
	writeFile(t, b, "two", now)

	if err := Verify(mx, a, a); err != nil {
		t.Errorf("Expected no error but got %v instead", err)
	}
	if err := Verify(mx, a, b); err == nil {
		t.Errorf("Expected a digest mismatch")
	}
}
