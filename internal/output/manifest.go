// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/genharvest/pkg/types"
)

// Manifest is the on-disk record of one harvest run: where the pages came
// from, how the walk went, and what the extraction produced. It lets a
// researcher audit a CSV months later without re-running the harvest.
type Manifest struct {
	Source  ManifestSource  `yaml:"source"`
	Pages   ManifestPages   `yaml:"pages"`
	Records ManifestRecords `yaml:"records"`
	// Elapsed is the wall-clock run duration, rounded to seconds.
	Elapsed   string    `yaml:"elapsed"`
	Timestamp time.Time `yaml:"timestamp"`
}

// ManifestSource stores the fetch parameters that produced the run.
type ManifestSource struct {
	BaseURL      string `yaml:"base_url"`
	TotalPages   int    `yaml:"total_pages"`
	OffsetStride int    `yaml:"offset_stride"`
}

// ManifestPages stores the page-walk counts.
type ManifestPages struct {
	Fetched int `yaml:"fetched"`
	Skipped int `yaml:"skipped"`
	Failed  int `yaml:"failed"`
}

// ManifestRecords stores the extraction counts.
type ManifestRecords struct {
	Total    int `yaml:"total"`
	Degraded int `yaml:"degraded"`
	// CSVPath is where the rows were written.
	CSVPath string `yaml:"csv_path"`
}

// NewManifest assembles a manifest from a run's config and results.
func NewManifest(cfg types.FetchConfig, fetched, skipped, failed int, records []types.Record, csvPath string, elapsed time.Duration) Manifest {
	degraded := 0
	for _, r := range records {
		if r.DateBirth == "" {
			degraded++
		}
	}
	return Manifest{
		Source: ManifestSource{
			BaseURL:      cfg.BaseURL,
			TotalPages:   cfg.TotalPages,
			OffsetStride: cfg.OffsetStride,
		},
		Pages: ManifestPages{
			Fetched: fetched,
			Skipped: skipped,
			Failed:  failed,
		},
		Records: ManifestRecords{
			Total:    len(records),
			Degraded: degraded,
			CSVPath:  csvPath,
		},
		Elapsed:   elapsed.Round(time.Second).String(),
		Timestamp: time.Now(),
	}
}

// WriteManifest saves the manifest as YAML.
func WriteManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadManifest loads a previously written manifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
