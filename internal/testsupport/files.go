package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WritePhotoFile creates a JPEG-shaped file at path for capture tests:
// an SOI/EOI envelope around zero filler, with no metadata segments.
// Parent directories are created as needed. Sizes below the 4-byte
// envelope are rounded up to it.
func WritePhotoFile(t testing.TB, path string, size int64) {
	t.Helper()

	const envelope = 4
	if size < envelope {
		size = envelope
	}

	var buf bytes.Buffer
	buf.Grow(int(size))
	buf.Write([]byte{0xFF, 0xD8})
	buf.Write(make([]byte, size-envelope))
	buf.Write([]byte{0xFF, 0xD9})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
