package dateutil

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var fixed = time.Date(2026, time.March, 7, 10, 0, 0, 0, time.UTC)

// ---------------------------------------------------------------------------
// TestParseFormat - Token conversion
// ---------------------------------------------------------------------------

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		format  string
		want    string
		wantErr bool
	}{
		{"iso", "YYYY-MM-DD", "2006-01-02", false},
		{"long month", "MMMM D, YYYY", "January 2, 2006", false},
		{"short", "D/M/YY", "2/1/06", false},
		{"bracket literal", "[Day] DD", "Day 02", false},
		{"empty", "", "", true},
		{"unclosed bracket", "[Day DD", "", true},
		{"too long", strings.Repeat("Y", MaxDateFormatLength+1), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFormat(tt.format)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDateFormat) {
					t.Errorf("ParseFormat(%q) error = %v, want ErrInvalidDateFormat", tt.format, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat(%q) unexpected error: %v", tt.format, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestResolve - auto placeholder
// ---------------------------------------------------------------------------

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{"literal passthrough", "June 1st", "June 1st", false},
		{"empty passthrough", "", "", false},
		{"auto default", "auto", "March 7, 2026", false},
		{"auto uppercase", "AUTO", "March 7, 2026", false},
		{"auto custom", "auto:DD/MM/YYYY", "07/03/2026", false},
		{"auto preset", "auto:iso", "2026-03-07", false},
		{"auto preset any case", "auto:US", "03/07/2026", false},
		{"auto empty format", "auto:", "", true},
		{"bad auto syntax", "automatic", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Resolve(tt.value, fixed)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDateFormat) {
					t.Errorf("Resolve(%q) error = %v, want ErrInvalidDateFormat", tt.value, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) unexpected error: %v", tt.value, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
