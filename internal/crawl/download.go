package crawl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// DownloadedFile is the outcome of one binary download. Failures set
// Success=false; they are reported once and never retried here.
type DownloadedFile struct {
	URL     string `json:"url"`
	Data    []byte `json:"-"`
	Size    int    `json:"size"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DownloadOptions configures file downloads
type DownloadOptions struct {
	Timeout   time.Duration
	UserAgent string
	MaxSize   int64
}

// Downloader retrieves the binary content of single URLs
type Downloader struct {
	client *http.Client
	opts   DownloadOptions
}

func NewDownloader(opts DownloadOptions) *Downloader {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 50 * 1024 * 1024
	}
	return &Downloader{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
}

// Download fetches the bytes at fileURL with a hard timeout
func (d *Downloader) Download(ctx context.Context, fileURL string) *DownloadedFile {
	result := &DownloadedFile{URL: fileURL}

	reqCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, fileURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("invalid request: %v", err)
		return result
	}
	req.Header.Set("User-Agent", d.opts.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("download failed: %v", err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Error = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status)
		return result
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.opts.MaxSize+1))
	if err != nil {
		result.Error = fmt.Sprintf("read failed: %v", err)
		return result
	}
	if int64(len(data)) > d.opts.MaxSize {
		result.Error = fmt.Sprintf("content exceeds %d byte limit", d.opts.MaxSize)
		return result
	}

	result.Data = data
	result.Size = len(data)
	result.Success = true

	log.Debug().Str("url", fileURL).Int("size", result.Size).Msg("File downloaded")

	return result
}
