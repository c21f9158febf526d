// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatError_NonCUE(t *testing.T) {
	t.Parallel()

	if err := FormatError(nil, "config.cue"); err != nil {
		t.Errorf("FormatError(nil) = %v", err)
	}

	base := errors.New("boom")
	err := FormatError(base, "config.cue")
	if !errors.Is(err, base) || !strings.HasPrefix(err.Error(), "config.cue: ") {
		t.Errorf("FormatError() = %v, want wrapped with file name", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{path: nil, want: ""},
		{path: []string{"runs"}, want: "runs"},
		{path: []string{"knobs", "codegen_backend"}, want: "knobs.codegen_backend"},
		{path: []string{"steps", "0", "knobs", "2"}, want: "steps[0].knobs[2]"},
		{path: []string{"0"}, want: "0"},
	}

	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 8), 8, "a.cue"); err != nil {
		t.Errorf("at limit: %v", err)
	}

	err := CheckFileSize(make([]byte, 9), 8, "a.cue")
	var sizeErr *FileSizeError
	if !errors.As(err, &sizeErr) || sizeErr.Size != 9 || sizeErr.Max != 8 {
		t.Fatalf("CheckFileSize() error = %v, want *FileSizeError", err)
	}
	if !errors.Is(err, ErrFileTooLarge) {
		t.Error("FileSizeError must unwrap to ErrFileTooLarge")
	}
}
