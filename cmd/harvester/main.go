package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/hakbank/harvester/internal/crawl"
	"github.com/hakbank/harvester/pkg/logging"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file")
		baseURL    = flag.String("url", "", "base URL to crawl (overrides config)")
		pattern    = flag.String("pattern", "", "regexp restricting followed links")
		depth      = flag.Int("depth", -1, "max crawl depth (overrides config)")
		delay      = flag.Duration("delay", 0, "politeness delay between requests")
		maxPages   = flag.Int("max-pages", 0, "stop after visiting this many pages")
		maxFiles   = flag.Int("max-files", 0, "stop after saving this many files")
		fileTypes  = flag.String("types", "", "comma-separated file extensions to download")
		logLevel   = flag.String("log-level", "info", "log level (debug, info, warn, error)")
		logFormat  = flag.String("log-format", "pretty", "log format (json, pretty)")
	)
	flag.Parse()

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = *logLevel
	logCfg.Format = *logFormat
	if err := logging.SetupLogger(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		os.Exit(1)
	}

	cfg := crawl.DefaultConfig()
	if *configPath != "" {
		if err := loadConfig(*configPath, cfg); err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
		}
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *pattern != "" {
		cfg.CrawlPattern = *pattern
	}
	if *depth >= 0 {
		cfg.MaxDepth = *depth
	}
	if *delay > 0 {
		cfg.CrawlDelay = *delay
	}
	if *maxPages > 0 {
		cfg.MaxPages = *maxPages
	}
	if *maxFiles > 0 {
		cfg.MaxFiles = *maxFiles
	}
	if *fileTypes != "" {
		cfg.FileTypes = strings.Split(*fileTypes, ",")
	}
	if cfg.SourceID == "" {
		cfg.SourceID = uuid.NewString()
	}
	if cfg.BaseURL == "" {
		log.Fatal().Msg("A base URL is required (-url or config file)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service := crawl.NewService()
	start := time.Now()

	result, err := service.Harvest(ctx, cfg, func(p crawl.Progress) {
		log.Debug().
			Str("current_url", p.CurrentURL).
			Int("pages_visited", p.PagesVisited).
			Int("files_saved", p.FilesSaved).
			Int("problems_extracted", p.ProblemsExtracted).
			Msg("Harvest progress")
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Harvest failed to start")
	}

	summary := runSummary{
		SourceID:          cfg.SourceID,
		BaseURL:           cfg.BaseURL,
		Status:            string(result.Progress.Status),
		PagesVisited:      result.Progress.PagesVisited,
		FilesFound:        result.Progress.FilesFound,
		FilesSaved:        result.Progress.FilesSaved,
		ProblemsExtracted: result.Progress.ProblemsExtracted,
		Errors:            result.Progress.Errors,
		Elapsed:           time.Since(start).Round(time.Millisecond).String(),
	}
	for _, f := range result.Files {
		entry := fileSummary{
			URL:      f.Link.URL,
			Type:     f.Link.Type,
			Name:     f.Link.DisplayName,
			Size:     f.Size,
			NeedsOCR: f.NeedsOCR,
		}
		if f.Extraction != nil {
			entry.Problems = len(f.Extraction.Problems)
			entry.Confidence = f.Extraction.Confidence
		}
		summary.Files = append(summary.Files, entry)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode run summary")
	}
	fmt.Println(string(out))

	if result.Progress.Status == crawl.StatusFailed {
		os.Exit(1)
	}
}

type runSummary struct {
	SourceID          string        `json:"source_id"`
	BaseURL           string        `json:"base_url"`
	Status            string        `json:"status"`
	PagesVisited      int           `json:"pages_visited"`
	FilesFound        int           `json:"files_found"`
	FilesSaved        int           `json:"files_saved"`
	ProblemsExtracted int           `json:"problems_extracted"`
	Errors            []string      `json:"errors,omitempty"`
	Elapsed           string        `json:"elapsed"`
	Files             []fileSummary `json:"files,omitempty"`
}

type fileSummary struct {
	URL        string  `json:"url"`
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	Size       int     `json:"size"`
	Problems   int     `json:"problems"`
	Confidence float64 `json:"confidence"`
	NeedsOCR   bool    `json:"needs_ocr,omitempty"`
}

func loadConfig(path string, cfg *crawl.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
