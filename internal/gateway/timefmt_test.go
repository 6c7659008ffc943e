package gateway

import (
	"testing"
	"time"
)

func TestParseWireTime(t *testing.T) {
	want := time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC)

	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2026-08-30T14:05:09Z", false},
		{"2026-08-30T14:05:09.123Z", false},   // fractional part stripped
		{"2026-08-30T14:05:09.123456Z", false},
		{"2026-08-30 14:05:09", true},
		{"", true},
	}
	for _, tt := range tests {
		got, err := ParseWireTime(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseWireTime(%q) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseWireTime(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseWireTime(%q) = %v, want %v", tt.in, got, want)
		}
	}
}

func TestFormatWireTime(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	in := time.Date(2026, 8, 30, 9, 5, 9, 0, loc)
	if got := FormatWireTime(in); got != "2026-08-30T14:05:09Z" {
		t.Errorf("FormatWireTime = %q, want UTC Z form", got)
	}
}
