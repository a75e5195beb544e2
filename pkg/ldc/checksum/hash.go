package checksum

import (
	"encoding/hex"
	"io"
	"os"
	"sync"

	"github.com/minio/sha256-simd"
)

// bufferSize is the read chunk used when streaming file content.
const bufferSize = 64 * 1024

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// HashReader streams r through SHA-256 and returns the hex digest and the
// number of bytes read.
func HashReader(r io.Reader) (string, int64, error) {
	bp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bp)

	h := sha256.New()
	n, err := io.CopyBuffer(h, r, *bp)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// HashFile returns the hex SHA-256 digest and size of the file at path.
// The file is read in fixed-size chunks and closed before returning.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	return HashReader(f)
}

// HashBytes returns the hex SHA-256 digest of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
