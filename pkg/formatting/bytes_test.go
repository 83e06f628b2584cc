package formatting_test

import (
	"testing"

	"github.com/JaimeStill/snare/pkg/formatting"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n         int64
		precision int
		want      string
	}{
		{0, 1, "0 B"},
		{512, 2, "512 B"},
		{1024, 1, "1.0 KB"},
		{1536, 1, "1.5 KB"},
		{5 * 1024 * 1024, 0, "5 MB"},
		{-2048, 1, "-2.0 KB"},
		{1024, -3, "1 KB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatting.FormatBytes(tt.n, tt.precision); got != tt.want {
				t.Errorf("FormatBytes(%d, %d) = %q, want %q", tt.n, tt.precision, got, tt.want)
			}
		})
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"512", 512, false},
		{"64KB", 64 * 1024, false},
		{"64 kb", 64 * 1024, false},
		{"1.5MiB", 1536 * 1024, false},
		{"2GB", 2 << 30, false},
		{"", 0, true},
		{"-1KB", 0, true},
		{"ten", 0, true},
		{"5QB", 0, true},
		{"99999999EB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := formatting.ParseBytes(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBytes(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBytes(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
