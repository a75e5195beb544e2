package checksum

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHashReader_LargeInput(t *testing.T) {
	t.Parallel()

	// Larger than one read buffer to exercise chunked streaming.
	data := bytes.Repeat([]byte("abcdefgh"), bufferSize/4)
	digest, n, err := HashReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("HashReader() error = %v", err)
	}
	if n != int64(len(data)) {
		t.Errorf("HashReader() n = %d, want %d", n, len(data))
	}
	if digest != HashBytes(data) {
		t.Errorf("HashReader() digest = %s, want %s", digest, HashBytes(data))
	}
}

func TestHashFile(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	digest, n, err := HashFile(p)
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}
	if n != 5 {
		t.Errorf("HashFile() n = %d, want 5", n)
	}
	if want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"; digest != want {
		t.Errorf("HashFile() = %s, want %s", digest, want)
	}
	if strings.ToLower(digest) != digest || len(digest) != 64 {
		t.Errorf("digest not 64 lowercase hex chars: %s", digest)
	}
}

func TestHashFile_Missing(t *testing.T) {
	t.Parallel()

	if _, _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("HashFile() error = nil, want error for missing file")
	}
}
