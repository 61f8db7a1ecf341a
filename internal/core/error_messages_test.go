package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/nem12ingest/internal/nem12"
	"github.com/JonMunkholm/nem12ingest/internal/store"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "duplicate key maps correctly",
			err:         errors.New("pq: duplicate key value violates unique constraint"),
			wantCode:    "DB001",
			wantMessage: "A record with this ID already exists",
		},
		{
			name:        "unique constraint maps correctly",
			err:         errors.New("ERROR: unique constraint violated"),
			wantCode:    "DB002",
			wantMessage: "This value must be unique but already exists",
		},
		{
			name:        "structural error maps correctly",
			err:         &nem12.StructuralError{FileID: "a.csv", MissingFooter: true},
			wantCode:    "NEM001",
			wantMessage: "File is missing its 100 header or 900 footer record",
		},
		{
			name:        "unknown format maps correctly",
			err:         fmt.Errorf("%w: no format handles \".txt\" files", ErrUnknownFormat),
			wantCode:    "NEM002",
			wantMessage: "File type is not supported",
		},
		{
			name:        "long line maps correctly",
			err:         errors.New("read a.csv at line 3: bufio.Scanner: token too long"),
			wantCode:    "NEM003",
			wantMessage: "A line in the file is longer than allowed",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "timeout maps correctly",
			err:         errors.New("context deadline exceeded (timeout)"),
			wantCode:    "DB006",
			wantMessage: "Operation timed out",
		},
		{
			name:        "file too large maps correctly",
			err:         ErrFileTooLarge,
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum size limit",
		},
		{
			name:        "missing file maps before not found",
			err:         errors.New("open /tmp/x.csv: no such file or directory"),
			wantCode:    "FILE002",
			wantMessage: "File not found",
		},
		{
			name:        "busy limiter maps correctly",
			err:         ErrTooManyIngests,
			wantCode:    "ING002",
			wantMessage: "System is busy processing other files",
		},
		{
			name:        "missing run maps correctly",
			err:         fmt.Errorf("get run: %w", store.ErrNotFound),
			wantCode:    "ING003",
			wantMessage: "Ingest run not found",
		},
		{
			name:        "deadline maps correctly",
			err:         context.DeadlineExceeded,
			wantCode:    "ING004",
			wantMessage: "Ingest timed out",
		},
		{
			name:        "oversized request body maps to file too large",
			err:         errors.New("read upload: http: request body too large"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum size limit",
		},
		{
			name:        "malformed run id maps correctly",
			err:         errors.New("invalid run id: invalid UUID length: 3"),
			wantCode:    "ING005",
			wantMessage: "Run id is not valid",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DUPLICATE KEY value violates"),
			wantCode:    "DB001",
			wantMessage: "A record with this ID already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := errors.New("duplicate key value violates")
	result := FormatUserError(err)

	expected := "A record with this ID already exists (Code: DB001). Check whether the file was already ingested"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  errors.New("duplicate key"),
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := errors.New("pq: duplicate key value")
		userErr := NewUserError(techErr)

		if userErr.Error() != "A record with this ID already exists" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		if !errors.Is(userErr, techErr) {
			t.Error("Unwrap() should return original error")
		}
	})
}
