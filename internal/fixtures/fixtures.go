// Package fixtures builds media files for tests.
package fixtures

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// JPEG returns a minimal JPEG whose EXIF block holds dateTimeOriginal, formatted
// as "2006:01:02 15:04:05". padding extra bytes are appended after the image so
// callers can vary the file size.
func JPEG(dateTimeOriginal string, padding int) []byte {
	value := append([]byte(dateTimeOriginal), 0)

	le := binary.LittleEndian
	tiff := new(bytes.Buffer)

	// header, IFD0 starts right after it
	tiff.WriteString("II")
	_ = binary.Write(tiff, le, uint16(42))
	_ = binary.Write(tiff, le, uint32(8))

	// IFD0: a single ExifIFDPointer entry
	const ifd0Size = 2 + 12 + 4
	exifIFD := uint32(8 + ifd0Size)
	_ = binary.Write(tiff, le, uint16(1))
	_ = binary.Write(tiff, le, uint16(0x8769))
	_ = binary.Write(tiff, le, uint16(4)) // LONG
	_ = binary.Write(tiff, le, uint32(1))
	_ = binary.Write(tiff, le, exifIFD)
	_ = binary.Write(tiff, le, uint32(0))

	// Exif IFD: a single DateTimeOriginal entry, its value stored after the IFD
	const exifIFDSize = 2 + 12 + 4
	_ = binary.Write(tiff, le, uint16(1))
	_ = binary.Write(tiff, le, uint16(0x9003))
	_ = binary.Write(tiff, le, uint16(2)) // ASCII
	_ = binary.Write(tiff, le, uint32(len(value)))
	_ = binary.Write(tiff, le, exifIFD+exifIFDSize)
	_ = binary.Write(tiff, le, uint32(0))
	tiff.Write(value)

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	out := new(bytes.Buffer)
	out.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	_ = binary.Write(out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write([]byte{0xFF, 0xD9})
	out.Write(make([]byte, padding))

	return out.Bytes()
}

// PlainJPEG returns a JPEG without an EXIF block.
func PlainJPEG(padding int) []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xD9}, make([]byte, padding)...)
}

// MP4 returns a minimal MP4 with a version 0 movie header created at movie, and a
// single track whose media header was created at media. Zero times are written as 0.
func MP4(movie, media time.Time) []byte {
	be := binary.BigEndian

	box := func(kind string, payload []byte) []byte {
		b := new(bytes.Buffer)
		_ = binary.Write(b, be, uint32(8+len(payload)))
		b.WriteString(kind)
		b.Write(payload)
		return b.Bytes()
	}

	mvhd := new(bytes.Buffer)
	mvhd.Write([]byte{0, 0, 0, 0}) // version, flags
	_ = binary.Write(mvhd, be, mp4Seconds(movie))
	_ = binary.Write(mvhd, be, mp4Seconds(movie))
	_ = binary.Write(mvhd, be, uint32(1000)) // timescale
	_ = binary.Write(mvhd, be, uint32(0))    // duration
	_ = binary.Write(mvhd, be, int32(0x00010000))
	_ = binary.Write(mvhd, be, int16(0x0100))
	mvhd.Write(make([]byte, 2+8))
	for _, m := range []int32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000} {
		_ = binary.Write(mvhd, be, m)
	}
	mvhd.Write(make([]byte, 24))
	_ = binary.Write(mvhd, be, uint32(2)) // next track id

	mdhd := new(bytes.Buffer)
	mdhd.Write([]byte{0, 0, 0, 0})
	_ = binary.Write(mdhd, be, mp4Seconds(media))
	_ = binary.Write(mdhd, be, mp4Seconds(media))
	_ = binary.Write(mdhd, be, uint32(1000))
	_ = binary.Write(mdhd, be, uint32(0))
	_ = binary.Write(mdhd, be, uint16(0x55c4)) // "und"
	_ = binary.Write(mdhd, be, uint16(0))

	ftyp := new(bytes.Buffer)
	ftyp.WriteString("isom")
	_ = binary.Write(ftyp, be, uint32(512))
	ftyp.WriteString("isom")

	trak := box("trak", box("mdia", box("mdhd", mdhd.Bytes())))
	moov := box("moov", append(box("mvhd", mvhd.Bytes()), trak...))

	return append(box("ftyp", ftyp.Bytes()), moov...)
}

func mp4Seconds(t time.Time) uint32 {
	if t.IsZero() {
		return 0
	}
	return uint32(t.Unix() + 2082844800)
}

// WriteFile writes content to dir/name, creating dir, and sets its modification time.
func WriteFile(t *testing.T, dir, name string, content []byte, mtime time.Time) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	return path
}
