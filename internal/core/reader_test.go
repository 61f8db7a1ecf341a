package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIngestReader_HashAndCount(t *testing.T) {
	body := "100,NEM12\n900\n"
	r := newIngestReader(context.Background(), strings.NewReader(body), 0)

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != body {
		t.Errorf("content = %q, want %q", got, body)
	}
	if r.BytesRead() != int64(len(body)) {
		t.Errorf("BytesRead() = %d, want %d", r.BytesRead(), len(body))
	}

	sum := sha256.Sum256([]byte(body))
	if want := hex.EncodeToString(sum[:]); r.Hash() != want {
		t.Errorf("Hash() = %s, want %s", r.Hash(), want)
	}
}

func TestIngestReader_SizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		limit   int64
		wantErr bool
	}{
		{"under limit", 10, 16, false},
		{"at limit", 16, 16, false},
		{"over limit", 17, 16, true},
		{"no limit", 4096, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newIngestReader(context.Background(), strings.NewReader(strings.Repeat("x", tt.size)), tt.limit)
			_, err := io.ReadAll(r)
			if tt.wantErr != errors.Is(err, ErrFileTooLarge) {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIngestReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := newIngestReader(ctx, strings.NewReader("100,NEM12\n"), 0)

	buf := make([]byte, 4)
	if _, err := r.Read(buf); err != nil {
		t.Fatalf("first Read() error = %v", err)
	}
	cancel()
	if _, err := r.Read(buf); !errors.Is(err, context.Canceled) {
		t.Errorf("Read() after cancel error = %v, want context.Canceled", err)
	}
}

func TestFileHash(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	if err := os.WriteFile(a, []byte("same"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("same"), 0o600); err != nil {
		t.Fatal(err)
	}

	ha, err := FileHash(a)
	if err != nil {
		t.Fatalf("FileHash(a) error = %v", err)
	}
	hb, _ := FileHash(b)
	if ha != hb {
		t.Errorf("identical content hashed differently: %s vs %s", ha, hb)
	}
	if len(ha) != 64 {
		t.Errorf("hash length = %d, want 64", len(ha))
	}

	if _, err := FileHash(filepath.Join(dir, "missing")); err == nil {
		t.Error("FileHash(missing) expected error")
	}
}
