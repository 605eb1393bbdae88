package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakbank/harvester/internal/problems"
	"github.com/hakbank/harvester/pkg/extractor"
)

func newTestPipeline(cfg *Config, robots *RobotsPolicy, onProgress ProgressFunc) *Pipeline {
	return NewPipeline(
		cfg,
		robots,
		NewPageFetcher(FetchOptions{UserAgent: cfg.UserAgent}),
		NewDownloader(DownloadOptions{UserAgent: cfg.UserAgent}),
		extractor.NewEngine(),
		problems.NewExtractor(),
		NewDomainLimiter(),
		onProgress,
	)
}

func page(anchors ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, href := range anchors {
		fmt.Fprintf(&b, `<a href="%s">link</a>`, href)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func TestPipelineRun_VisitsPagesAndDownloadsFiles(t *testing.T) {
	pdfBytes := []byte("not really a pdf")

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page("/sub", "/files/exam.pdf")))
	})
	mux.HandleFunc("/sub", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page()))
	})
	mux.HandleFunc("/files/exam.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Write(pdfBytes)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := &Config{
		BaseURL:   server.URL + "/",
		FileTypes: []string{"pdf"},
		MaxDepth:  2,
	}
	result := newTestPipeline(cfg, PermissivePolicy(), nil).Run(context.Background())

	assert.Equal(t, StatusCompleted, result.Progress.Status)
	assert.Equal(t, 2, result.Progress.PagesVisited)
	assert.Equal(t, 1, result.Progress.FilesFound)
	assert.Equal(t, 1, result.Progress.FilesSaved)
	assert.Empty(t, result.Progress.Errors)

	require.Len(t, result.Files, 1)
	file := result.Files[0]
	assert.Equal(t, "pdf", file.Link.Type)
	assert.Equal(t, pdfBytes, file.Data)
	assert.Equal(t, len(pdfBytes), file.Size)
	// The bytes are not a parseable PDF; the raw file is kept and no
	// extraction is attached.
	assert.Empty(t, file.Text)
	assert.Nil(t, file.Extraction)
	assert.False(t, file.NeedsOCR)
}

func TestPipelineRun_StaysInsideDomain(t *testing.T) {
	externalHits := 0
	external := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		externalHits++
		w.Write([]byte(page()))
	}))
	defer external.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page(external.URL + "/lured")))
	}))
	defer server.Close()

	cfg := &Config{BaseURL: server.URL, FileTypes: []string{"pdf"}, MaxDepth: 3}
	result := newTestPipeline(cfg, PermissivePolicy(), nil).Run(context.Background())

	assert.Equal(t, 1, result.Progress.PagesVisited)
	assert.Zero(t, externalHits)
}

func TestPipelineRun_HonorsRobotsDisallow(t *testing.T) {
	secretHits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page("/secret/page", "/open")))
	})
	mux.HandleFunc("/open", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page()))
	})
	mux.HandleFunc("/secret/", func(w http.ResponseWriter, r *http.Request) {
		secretHits++
		w.Write([]byte(page()))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	robots := ParseRobotsPolicy("User-agent: *\nDisallow: /secret/\n")
	cfg := &Config{BaseURL: server.URL + "/", FileTypes: []string{"pdf"}, MaxDepth: 1}
	result := newTestPipeline(cfg, robots, nil).Run(context.Background())

	assert.Equal(t, 2, result.Progress.PagesVisited)
	assert.Zero(t, secretHits)
	// A disallowed path is skipped silently, not recorded as an error.
	assert.Empty(t, result.Progress.Errors)
}

func TestPipelineRun_MaxPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page("/a", "/b", "/c")))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := &Config{BaseURL: server.URL + "/", FileTypes: []string{"pdf"}, MaxDepth: 2, MaxPages: 1}
	result := newTestPipeline(cfg, PermissivePolicy(), nil).Run(context.Background())

	assert.Equal(t, StatusCompleted, result.Progress.Status)
	assert.Equal(t, 1, result.Progress.PagesVisited)
}

func TestPipelineRun_MaxFiles(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page("/f/1.pdf", "/f/2.pdf", "/f/3.pdf")))
	})
	mux.HandleFunc("/f/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := &Config{BaseURL: server.URL + "/", FileTypes: []string{"pdf"}, MaxFiles: 1}
	result := newTestPipeline(cfg, PermissivePolicy(), nil).Run(context.Background())

	assert.Equal(t, 1, result.Progress.FilesSaved)
	assert.Len(t, result.Files, 1)
}

func TestPipelineRun_DepthLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page("/deeper")))
	})
	mux.HandleFunc("/deeper", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page()))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := &Config{BaseURL: server.URL + "/", FileTypes: []string{"pdf"}, MaxDepth: 0}
	result := newTestPipeline(cfg, PermissivePolicy(), nil).Run(context.Background())

	assert.Equal(t, 1, result.Progress.PagesVisited)
}

func TestPipelineRun_CrawlPatternFiltersLinks(t *testing.T) {
	otherHits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page("/board/view?id=1", "/notice/today")))
	})
	mux.HandleFunc("/board/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page()))
	})
	mux.HandleFunc("/notice/", func(w http.ResponseWriter, r *http.Request) {
		otherHits++
		w.Write([]byte(page()))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := &Config{
		BaseURL:      server.URL + "/",
		CrawlPattern: `/board/`,
		FileTypes:    []string{"pdf"},
		MaxDepth:     1,
	}
	result := newTestPipeline(cfg, PermissivePolicy(), nil).Run(context.Background())

	assert.Equal(t, 2, result.Progress.PagesVisited)
	assert.Zero(t, otherHits)
}

func TestPipelineRun_FileTypeFilter(t *testing.T) {
	zipHits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page("/f/exam.pdf", "/f/archive.zip")))
	})
	mux.HandleFunc("/f/exam.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	})
	mux.HandleFunc("/f/archive.zip", func(w http.ResponseWriter, r *http.Request) {
		zipHits++
		w.Write([]byte("data"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := &Config{BaseURL: server.URL + "/", FileTypes: []string{"pdf"}}
	result := newTestPipeline(cfg, PermissivePolicy(), nil).Run(context.Background())

	assert.Equal(t, 1, result.Progress.FilesFound)
	assert.Zero(t, zipHits)
}

func TestPipelineRun_TooManyErrorsFails(t *testing.T) {
	var anchors []string
	for i := 0; i < 12; i++ {
		anchors = append(anchors, fmt.Sprintf("/f/%d.pdf", i))
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page(anchors...)))
	})
	mux.HandleFunc("/f/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := &Config{BaseURL: server.URL + "/", FileTypes: []string{"pdf"}}
	result := newTestPipeline(cfg, PermissivePolicy(), nil).Run(context.Background())

	assert.Equal(t, StatusFailed, result.Progress.Status)
	assert.Len(t, result.Progress.Errors, 12)
	assert.Equal(t, 12, result.Progress.FilesFound)
	assert.Zero(t, result.Progress.FilesSaved)
}

func TestPipelineRun_FewErrorsStillCompletes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page("/f/1.pdf", "/f/2.pdf")))
	})
	mux.HandleFunc("/f/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := &Config{BaseURL: server.URL + "/", FileTypes: []string{"pdf"}}
	result := newTestPipeline(cfg, PermissivePolicy(), nil).Run(context.Background())

	assert.Equal(t, StatusCompleted, result.Progress.Status)
	assert.Len(t, result.Progress.Errors, 2)
}

func TestPipelineRun_CancelledBeforeStart(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(page()))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &Config{BaseURL: server.URL + "/", FileTypes: []string{"pdf"}}
	result := newTestPipeline(cfg, PermissivePolicy(), nil).Run(ctx)

	// Cancellation surfaces as a clean partial result, never an error.
	assert.Equal(t, StatusCompleted, result.Progress.Status)
	assert.Zero(t, result.Progress.PagesVisited)
	assert.Empty(t, result.Progress.Errors)
	assert.Zero(t, hits)
}

func TestPipelineRun_ProgressCallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page()))
	}))
	defer server.Close()

	var snapshots []Progress
	cfg := &Config{BaseURL: server.URL + "/", FileTypes: []string{"pdf"}}
	newTestPipeline(cfg, PermissivePolicy(), func(p Progress) {
		snapshots = append(snapshots, p)
	}).Run(context.Background())

	require.NotEmpty(t, snapshots)
	assert.Equal(t, server.URL+"/", snapshots[0].CurrentURL)
	assert.Equal(t, StatusRunning, snapshots[0].Status)

	final := snapshots[len(snapshots)-1]
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Empty(t, final.CurrentURL)
	assert.Equal(t, 1, final.PagesVisited)
}

func TestPipelineRun_RobotsDelayOverridesShorterConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page()))
	}))
	defer server.Close()

	robots := ParseRobotsPolicy("User-agent: *\nCrawl-delay: 5\n")
	cfg := &Config{BaseURL: server.URL + "/", FileTypes: []string{"pdf"}, CrawlDelay: 0}

	// A single page never waits, so the longer robots delay must not slow
	// the run down; it only applies between requests.
	result := newTestPipeline(cfg, robots, nil).Run(context.Background())
	assert.Equal(t, 1, result.Progress.PagesVisited)
}
