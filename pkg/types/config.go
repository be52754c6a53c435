package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// AcceptLanguage is the Accept-Language header. The source forum
	// serves Russian-language pages.
	AcceptLanguage string `json:"accept_language" yaml:"accept_language"`
}

// FetchConfig holds settings for the page-fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is a printf template for page URLs with one %d verb for
	// the page offset.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// TotalPages is the number of forum pages to walk (default 228).
	TotalPages int `json:"total_pages" yaml:"total_pages"`

	// OffsetStride is the offset increment per page (default 10:
	// page n starts at offset (n-1)*10).
	OffsetStride int `json:"offset_stride" yaml:"offset_stride"`

	// PageDelay is the pause between consecutive page requests
	// (default 500ms), to stay polite to the forum.
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`

	// ErrorBackoff is the longer pause taken after a failed page fetch
	// before moving on (default 2s).
	ErrorBackoff time.Duration `json:"error_backoff" yaml:"error_backoff"`

	// PagesDir is the directory for saved pages (contains raw/).
	PagesDir string `json:"pages_dir" yaml:"pages_dir"`
}

// ExtractionConfig holds settings for the record-extraction stage.
type ExtractionConfig struct {
	// Header is the literal marker that opens every record block.
	Header string `json:"header" yaml:"header"`

	// Terminators are literals whose appearance in a line ends a block.
	Terminators []string `json:"terminators" yaml:"terminators"`

	// GenderTokens are the codes recognized immediately before a birth date.
	GenderTokens []string `json:"gender_tokens" yaml:"gender_tokens"`

	// PagesDir is the directory of saved pages (contains raw/).
	PagesDir string `json:"pages_dir" yaml:"pages_dir"`

	// OutputDir is the directory for records.csv and the run manifest.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// ArchiveConfig holds settings for the record archive.
type ArchiveConfig struct {
	// ArchiveDir is the base directory for the archive (contains index/).
	ArchiveDir string `json:"archive_dir" yaml:"archive_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// Defaults used when a config value is unset. The URL, page count, and
// pacing match the source topic this tool was written for.
const (
	DefaultBaseURL      = "https://forum.vgd.ru/9103/166633/%d.htm?a=stdforum_view&o="
	DefaultTotalPages   = 228
	DefaultOffsetStride = 10
	DefaultPageDelay    = 500 * time.Millisecond
	DefaultErrorBackoff = 2 * time.Second
	DefaultHTTPTimeout  = 15 * time.Second
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAcceptLanguage = "ru-RU,ru;q=0.9"
)
