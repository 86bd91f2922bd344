// Package hasher implements the streaming write-and-hash primitive of
// spec §4.2: consume a reader, write to a destination file while computing
// SHA-256, optionally fsync, and report the resulting (hash, size).
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// bufSize matches the teacher's 64 KiB buffered-copy convention.
const bufSize = 64 * 1024

// Result is returned by WriteAndHash.
type Result struct {
	SHA256Hex string
	Size      int64
}

// WriteAndHash streams r into dest, computing its SHA-256 as it goes.
// dest must already be open for writing; the caller owns closing it.
// When durable is true, dest.Sync() is called after the buffer is flushed
// so a reader who later observes the final path sees fsynced bytes.
//
// On any I/O failure the error is returned and dest is left exactly as far
// as the copy progressed — the caller (blob store) is responsible for
// unlinking the partial temp file.
func WriteAndHash(dest *os.File, r io.Reader, durable bool) (Result, error) {
	h := sha256.New()
	tee := io.TeeReader(r, h)

	buf := make([]byte, bufSize)
	n, err := io.CopyBuffer(dest, tee, buf)
	if err != nil {
		return Result{}, fmt.Errorf("hasher: stream copy: %w", err)
	}

	if durable {
		if err := dest.Sync(); err != nil {
			return Result{}, fmt.Errorf("hasher: fsync: %w", err)
		}
	}

	return Result{
		SHA256Hex: hex.EncodeToString(h.Sum(nil)),
		Size:      n,
	}, nil
}
