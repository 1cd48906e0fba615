package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"page not found", ErrPageNotFound, "PAGE001"},
		{"table not found", ErrTableNotFound, "TBL001"},
		{"page full", ErrPageFull, "TBL002"},
		{"file too large", ErrFileTooLarge, "FILE001"},
		{"no file", ErrNoFile, "FILE002"},
		{"empty import", ErrEmptyImport, "FILE003"},
		{"ai disabled", ErrAIDisabled, "AI001"},
		{"generation failure", fmt.Errorf("generation failed: %w", errors.New("status 500")), "AI002"},
		{"wrapped sentinel", fmt.Errorf("import: %w", ErrPageNotFound), "PAGE001"},
		{"db down", errors.New("dial tcp: connection refused"), "STORE001"},
		{"timeout", context.DeadlineExceeded, "REQ002"},
		{"unknown", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
			if got.Message == "" || got.Action == "" {
				t.Errorf("MapError(%v) has empty message or action: %+v", tt.err, got)
			}
		})
	}

	if got := MapError(nil); got != (UserMessage{}) {
		t.Errorf("MapError(nil) = %+v, want zero value", got)
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrFileTooLarge)
	if !strings.Contains(got, "FILE001") {
		t.Errorf("FormatUserError missing code: %q", got)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	if !IsUserFacing(ErrTableNotFound) {
		t.Error("sentinel should be user-facing")
	}
	if IsUserFacing(errors.New("mystery")) {
		t.Error("unknown error should not be user-facing")
	}
	if IsUserFacing(nil) {
		t.Error("nil should not be user-facing")
	}
}
