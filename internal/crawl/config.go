package crawl

import (
	"fmt"
	"net/url"
	"regexp"
	"time"
)

// Config is the caller-supplied configuration for one harvest run
type Config struct {
	// SourceID is an opaque caller identifier, passed through untouched
	SourceID string `json:"source_id" yaml:"source_id"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	// CrawlPattern restricts which discovered links are followed
	CrawlPattern string `json:"crawl_pattern,omitempty" yaml:"crawl_pattern"`
	// LinkSelector is reserved for CSS-selector-scoped link extraction;
	// the default extractor does not use it
	LinkSelector string        `json:"link_selector,omitempty" yaml:"link_selector"`
	FileTypes    []string      `json:"file_types" yaml:"file_types"`
	MaxDepth     int           `json:"max_depth" yaml:"max_depth"`
	CrawlDelay   time.Duration `json:"crawl_delay" yaml:"crawl_delay"`
	MaxPages     int           `json:"max_pages,omitempty" yaml:"max_pages"` // 0 = unlimited
	MaxFiles     int           `json:"max_files,omitempty" yaml:"max_files"` // 0 = unlimited

	UserAgent       string        `json:"user_agent" yaml:"user_agent"`
	FetchTimeout    time.Duration `json:"fetch_timeout" yaml:"fetch_timeout"`
	DownloadTimeout time.Duration `json:"download_timeout" yaml:"download_timeout"`
}

// DefaultConfig returns default harvest configuration
func DefaultConfig() *Config {
	return &Config{
		FileTypes:       []string{"pdf"},
		MaxDepth:        2,
		CrawlDelay:      1 * time.Second,
		UserAgent:       "HakbankHarvester/1.0 (+https://hakbank.io/bot)",
		FetchTimeout:    30 * time.Second,
		DownloadTimeout: 60 * time.Second,
	}
}

// Validate checks the config and fills unset fields from defaults
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("base URL must be http or https, got %q", c.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("base URL must have a host")
	}
	if c.CrawlPattern != "" {
		if _, err := regexp.Compile(c.CrawlPattern); err != nil {
			return fmt.Errorf("invalid crawl pattern: %w", err)
		}
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth cannot be negative")
	}

	defaults := DefaultConfig()
	if len(c.FileTypes) == 0 {
		c.FileTypes = defaults.FileTypes
	}
	if c.CrawlDelay <= 0 {
		c.CrawlDelay = defaults.CrawlDelay
	}
	if c.UserAgent == "" {
		c.UserAgent = defaults.UserAgent
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = defaults.FetchTimeout
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = defaults.DownloadTimeout
	}
	return nil
}
