package core

// reader.go wraps ingest input so the parser can stream it in one pass
// while the service keeps control of the byte stream:
//
//   - reads fail once the context is done, ending the scan with an I/O error
//   - input beyond the size limit fails with ErrFileTooLarge
//   - a SHA-256 of the content is accumulated for duplicate detection

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
)

// ErrFileTooLarge is returned when input exceeds the configured maximum size.
var ErrFileTooLarge = errors.New("file too large")

type ingestReader struct {
	ctx   context.Context
	r     io.Reader
	limit int64
	read  int64
	sum   hash.Hash
}

func newIngestReader(ctx context.Context, r io.Reader, limit int64) *ingestReader {
	return &ingestReader{ctx: ctx, r: r, limit: limit, sum: sha256.New()}
}

func (r *ingestReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := r.r.Read(p)
	r.read += int64(n)
	if r.limit > 0 && r.read > r.limit {
		return 0, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, r.limit)
	}
	r.sum.Write(p[:n])
	return n, err
}

// BytesRead returns the number of bytes consumed so far.
func (r *ingestReader) BytesRead() int64 { return r.read }

// Hash returns the hex SHA-256 of the bytes consumed so far.
func (r *ingestReader) Hash() string {
	return hex.EncodeToString(r.sum.Sum(nil))
}

// FileHash returns the hex SHA-256 of the file at path.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
