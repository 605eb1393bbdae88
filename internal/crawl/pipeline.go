package crawl

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hakbank/harvester/internal/problems"
	"github.com/hakbank/harvester/pkg/exam"
	"github.com/hakbank/harvester/pkg/extractor"
	"github.com/hakbank/harvester/pkg/logging"
)

// Status is the lifecycle state of one harvest run
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// errorLimit is the number of accumulated errors past which a run is
// judged FAILED. A policy constant, not an architectural limit.
const errorLimit = 10

// Progress is the run's mutable progress record. It is owned exclusively
// by the pipeline loop; the callback receives snapshot copies.
type Progress struct {
	Status            Status   `json:"status"`
	PagesVisited      int      `json:"pages_visited"`
	FilesFound        int      `json:"files_found"`
	FilesSaved        int      `json:"files_saved"`
	ProblemsExtracted int      `json:"problems_extracted"`
	Errors            []string `json:"errors"`
	CurrentURL        string   `json:"current_url,omitempty"`
}

// CrawledFile is the per-file output record: the file link, its bytes,
// and whatever extraction succeeded. Never mutated after creation.
type CrawledFile struct {
	Link       FileLink               `json:"link"`
	Data       []byte                 `json:"-"`
	Size       int                    `json:"size"`
	Text       string                 `json:"text,omitempty"`
	Extraction *exam.ExtractionResult `json:"extraction,omitempty"`
	Metadata   *exam.DocumentMetadata `json:"metadata,omitempty"`
	NeedsOCR   bool                   `json:"needs_ocr,omitempty"`
}

// RunResult is handed back to the caller once the run reaches a terminal
// status. The caller owns the file list; persistence is its concern.
type RunResult struct {
	Files    []CrawledFile `json:"files"`
	Progress Progress      `json:"progress"`
}

// ProgressFunc receives progress snapshots. It runs synchronously on the
// crawl loop and must not block indefinitely.
type ProgressFunc func(Progress)

type frontierItem struct {
	url   string
	depth int
}

// Pipeline drives one breadth-first harvest run
type Pipeline struct {
	cfg        *Config
	robots     *RobotsPolicy
	fetcher    *PageFetcher
	downloader *Downloader
	engine     *extractor.Engine
	problems   *problems.Extractor
	limiter    *DomainLimiter
	onProgress ProgressFunc
	logger     zerolog.Logger

	progress  Progress
	files     []CrawledFile
	visited   map[string]bool
	pattern   *regexp.Regexp
	fileTypes map[string]bool
}

// NewPipeline wires a pipeline from its components. cfg must already be
// validated.
func NewPipeline(
	cfg *Config,
	robots *RobotsPolicy,
	fetcher *PageFetcher,
	downloader *Downloader,
	engine *extractor.Engine,
	problemExtractor *problems.Extractor,
	limiter *DomainLimiter,
	onProgress ProgressFunc,
) *Pipeline {
	p := &Pipeline{
		cfg:        cfg,
		robots:     robots,
		fetcher:    fetcher,
		downloader: downloader,
		engine:     engine,
		problems:   problemExtractor,
		limiter:    limiter,
		onProgress: onProgress,
		logger:     logging.GetRunLogger(cfg.SourceID, cfg.BaseURL),
		visited:    make(map[string]bool),
		fileTypes:  make(map[string]bool),
	}
	if cfg.CrawlPattern != "" {
		p.pattern = regexp.MustCompile(cfg.CrawlPattern) // validated earlier
	}
	for _, t := range cfg.FileTypes {
		p.fileTypes[t] = true
	}
	return p
}

// Run executes the crawl to a terminal status and returns whatever was
// harvested, partial results included. Cancellation is honored only at
// frontier-item boundaries so progress is never corrupted mid-item.
func (p *Pipeline) Run(ctx context.Context) *RunResult {
	start := time.Now()
	p.progress.Status = StatusRunning

	base, err := url.Parse(p.cfg.BaseURL)
	if err != nil {
		p.recordError(fmt.Sprintf("invalid base URL %q: %v", p.cfg.BaseURL, err))
		return p.finalize(start)
	}
	host := base.Hostname()

	delay := p.cfg.CrawlDelay
	if robotsDelay, ok := p.robots.CrawlDelay(p.cfg.UserAgent); ok && robotsDelay > delay {
		delay = robotsDelay
	}

	p.logger.Info().
		Int("max_depth", p.cfg.MaxDepth).
		Dur("crawl_delay", delay).
		Strs("file_types", p.cfg.FileTypes).
		Msg("Starting harvest run")

	queue := []frontierItem{{url: p.cfg.BaseURL, depth: 0}}

	for len(queue) > 0 {
		if ctx.Err() != nil {
			p.logger.Warn().Msg("Harvest cancelled, returning partial results")
			break
		}
		if p.limitReached() {
			break
		}

		item := queue[0]
		queue = queue[1:]

		if p.visited[item.url] {
			continue
		}
		p.visited[item.url] = true

		pageURL, err := url.Parse(item.url)
		if err != nil {
			continue
		}
		if !p.robots.IsAllowed(pageURL.Path, p.cfg.UserAgent) {
			p.logger.Debug().Str("url", item.url).Msg("Skipping robots-disallowed path")
			continue
		}

		if err := p.limiter.Wait(ctx, pageURL.Hostname(), delay); err != nil {
			break
		}

		p.progress.CurrentURL = item.url
		p.report()

		page := p.fetcher.Fetch(ctx, item.url)
		if !page.Success {
			p.recordError(fmt.Sprintf("fetch %s: %s", item.url, page.Error))
			p.report()
			continue
		}

		p.progress.PagesVisited++
		p.processFileLinks(ctx, page)

		if item.depth < p.cfg.MaxDepth {
			for _, link := range page.Links {
				linkURL, err := url.Parse(link)
				if err != nil || linkURL.Hostname() != host {
					continue
				}
				// document links are downloaded, never crawled as pages
				ext := strings.ToLower(strings.TrimPrefix(path.Ext(linkURL.Path), "."))
				if documentExtensions[ext] {
					continue
				}
				if p.visited[link] {
					continue
				}
				if p.pattern != nil && !p.pattern.MatchString(link) {
					continue
				}
				queue = append(queue, frontierItem{url: link, depth: item.depth + 1})
			}
		}

		p.report()
	}

	return p.finalize(start)
}

func (p *Pipeline) limitReached() bool {
	if p.cfg.MaxPages > 0 && p.progress.PagesVisited >= p.cfg.MaxPages {
		return true
	}
	if p.cfg.MaxFiles > 0 && p.progress.FilesSaved >= p.cfg.MaxFiles {
		return true
	}
	return false
}

// processFileLinks downloads every matching file link inline and runs text
// and problem extraction on it. Download failures are recorded but never
// abort the run.
func (p *Pipeline) processFileLinks(ctx context.Context, page *PageResult) {
	for _, link := range page.Files {
		if !p.fileTypes[link.Type] {
			continue
		}
		if p.cfg.MaxFiles > 0 && p.progress.FilesSaved >= p.cfg.MaxFiles {
			return
		}
		p.progress.FilesFound++

		dl := p.downloader.Download(ctx, link.URL)
		if !dl.Success {
			p.recordError(fmt.Sprintf("download %s: %s", link.URL, dl.Error))
			continue
		}
		p.progress.FilesSaved++

		file := CrawledFile{Link: link, Data: dl.Data, Size: dl.Size}
		if link.Type == "pdf" {
			p.extractFromPDF(ctx, &file)
		}
		p.files = append(p.files, file)
	}
}

// extractFromPDF runs text extraction and, unless the document is
// image-based, problem extraction. A parse failure means "text
// unavailable", not a run error.
func (p *Pipeline) extractFromPDF(ctx context.Context, file *CrawledFile) {
	res, err := p.engine.Extract(ctx, file.Data, file.Link.Type)
	if err != nil || !res.Success {
		p.logger.Debug().
			Str("url", file.Link.URL).
			Str("reason", res.Error).
			Msg("Text extraction unavailable, keeping raw bytes")
		return
	}

	text := extractor.Clean(res.Text)
	file.Text = text

	if extractor.IsImageBased(text, res.PageCount) {
		file.NeedsOCR = true
		p.logger.Debug().Str("url", file.Link.URL).Int("pages", res.PageCount).Msg("Image-based document, skipping problem extraction")
		return
	}

	extraction := p.problems.ExtractProblems(text)
	file.Extraction = &extraction
	file.Metadata = &extraction.Metadata
	p.progress.ProblemsExtracted += len(extraction.Problems)
}

func (p *Pipeline) recordError(msg string) {
	p.progress.Errors = append(p.progress.Errors, msg)
	p.logger.Warn().Str("error", msg).Msg("Harvest error recorded")
}

// finalize sets the terminal status exactly once and emits the last
// progress snapshot
func (p *Pipeline) finalize(start time.Time) *RunResult {
	if len(p.progress.Errors) > errorLimit {
		p.progress.Status = StatusFailed
	} else {
		p.progress.Status = StatusCompleted
	}
	p.progress.CurrentURL = ""
	p.report()

	p.logger.Info().
		Str("status", string(p.progress.Status)).
		Int("pages_visited", p.progress.PagesVisited).
		Int("files_saved", p.progress.FilesSaved).
		Int("problems_extracted", p.progress.ProblemsExtracted).
		Int("errors", len(p.progress.Errors)).
		Dur("elapsed", time.Since(start)).
		Msg("Harvest run finished")

	return &RunResult{Files: p.files, Progress: p.snapshot()}
}

// snapshot returns a copy safe to hand outside the loop
func (p *Pipeline) snapshot() Progress {
	copied := p.progress
	copied.Errors = append([]string(nil), p.progress.Errors...)
	return copied
}

func (p *Pipeline) report() {
	if p.onProgress != nil {
		p.onProgress(p.snapshot())
	}
}
