// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"
	"unicode/utf8"

	"github.com/spf13/viper"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short ascii", "village", 24, "village"},
		{"exact length", "абвгд", 5, "абвгд"},
		{"long ascii", "abcdefghij", 8, "abcde..."},
		{"long cyrillic", "с. Покровка Бузулукского уезда", 24, "с. Покровка Бузулукск..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.max)
			}
		})
	}
}

func TestArchiveConfigBindsStructTagKeys(t *testing.T) {
	defer viper.Reset()

	// A config file written against ArchiveConfig's yaml tags uses
	// archive.archive_dir and archive.max_results.
	viper.Set("archive.archive_dir", "/data/archive")
	viper.Set("archive.max_results", 7)

	cfg := archiveConfigFromFlags(archiveStoreCmd)
	if cfg.ArchiveDir != "/data/archive" {
		t.Errorf("ArchiveDir = %q, want config value", cfg.ArchiveDir)
	}
	if cfg.MaxResults != 7 {
		t.Errorf("MaxResults = %d, want 7", cfg.MaxResults)
	}
}
