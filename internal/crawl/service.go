package crawl

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hakbank/harvester/internal/problems"
	"github.com/hakbank/harvester/pkg/exam"
	"github.com/hakbank/harvester/pkg/extractor"
	"github.com/hakbank/harvester/pkg/logging"
)

// Service is the high-level entry point: it wires the crawl components
// for full harvest runs and exposes single-file reprocessing for already
// downloaded documents.
type Service struct {
	engine   *extractor.Engine
	problems *problems.Extractor
	limiter  *DomainLimiter
	logger   zerolog.Logger
}

func NewService() *Service {
	return &Service{
		engine:   extractor.NewEngine(),
		problems: problems.NewExtractor(),
		limiter:  NewDomainLimiter(),
		logger:   logging.GetLogger("harvest-service"),
	}
}

// Harvest runs one crawl to completion and returns the result set. Only
// configuration problems return an error; crawl failures accumulate in
// the run's progress record.
func (s *Service) Harvest(ctx context.Context, cfg *Config, onProgress ProgressFunc) (*RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fetcher := NewPageFetcher(FetchOptions{
		Timeout:   cfg.FetchTimeout,
		UserAgent: cfg.UserAgent,
	})
	downloader := NewDownloader(DownloadOptions{
		Timeout:   cfg.DownloadTimeout,
		UserAgent: cfg.UserAgent,
	})
	robots := FetchRobotsPolicy(ctx, cfg.BaseURL, cfg.UserAgent, cfg.FetchTimeout)

	pipeline := NewPipeline(cfg, robots, fetcher, downloader, s.engine, s.problems, s.limiter, onProgress)
	return pipeline.Run(ctx), nil
}

// ReprocessResult is the outcome of re-running extraction on an already
// downloaded file, without touching the network.
type ReprocessResult struct {
	Text     string                `json:"text"`
	Problems []exam.Problem        `json:"problems"`
	Metadata exam.DocumentMetadata `json:"metadata"`
	NeedsOCR bool                  `json:"needs_ocr"`
}

// ReprocessFile re-runs text and problem extraction on raw file bytes.
// A failed text extraction returns the extractor's error; image-based
// documents come back with NeedsOCR set and no problems.
func (s *Service) ReprocessFile(ctx context.Context, data []byte, fileType string) (*ReprocessResult, error) {
	res, err := s.engine.Extract(ctx, data, fileType)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, &extractor.ProcessingError{Message: res.Error}
	}

	text := extractor.Clean(res.Text)
	if extractor.IsImageBased(text, res.PageCount) {
		return &ReprocessResult{Text: text, NeedsOCR: true}, nil
	}

	extraction := s.problems.ExtractProblems(text)
	return &ReprocessResult{
		Text:     text,
		Problems: extraction.Problems,
		Metadata: extraction.Metadata,
	}, nil
}
