package crawl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// maxPageSize caps how much of an HTML response is read
const maxPageSize = 10 * 1024 * 1024

// documentExtensions is the fixed set of extensions classified as
// downloadable document files
var documentExtensions = map[string]bool{
	"pdf": true, "hwp": true, "doc": true, "docx": true,
	"xls": true, "xlsx": true, "ppt": true, "pptx": true, "zip": true,
}

// FileLink is a downloadable document reference found on a page
type FileLink struct {
	URL         string `json:"url"`
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
}

// PageResult is the outcome of fetching one HTML page. On failure the
// collections are empty and Error describes what went wrong; fetch
// failures never escape as errors.
type PageResult struct {
	URL     string     `json:"url"`
	HTML    string     `json:"-"`
	Title   string     `json:"title"`
	Links   []string   `json:"links"`
	Files   []FileLink `json:"files"`
	Success bool       `json:"success"`
	Error   string     `json:"error,omitempty"`
}

// FetchOptions configures page fetching
type FetchOptions struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// PageFetcher retrieves HTML pages and extracts their outbound links and
// document file links in a single pass over the DOM.
type PageFetcher struct {
	client *http.Client
	opts   FetchOptions
}

func NewPageFetcher(opts FetchOptions) *PageFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &PageFetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
}

// Fetch retrieves one page and extracts links. Timeouts, network errors,
// and non-2xx statuses all yield Success=false with empty collections.
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) *PageResult {
	result := &PageResult{URL: pageURL}

	reqCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("invalid request: %v", err)
		return result
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, v := range f.opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("fetch failed: %v", err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Error = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status)
		return result
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		result.Error = fmt.Sprintf("read failed: %v", err)
		return result
	}

	// resolve relative links against the final URL after redirects
	base := resp.Request.URL

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		result.Error = fmt.Sprintf("parse failed: %v", err)
		return result
	}

	result.HTML = string(body)
	result.Title = strings.TrimSpace(doc.Find("title").First().Text())
	result.Links, result.Files = extractLinks(doc, base)
	result.Success = true

	log.Debug().
		Str("url", pageURL).
		Int("links", len(result.Links)).
		Int("files", len(result.Files)).
		Msg("Page fetched")

	return result
}

// extractLinks walks every anchor once, resolving hrefs to absolute form,
// discarding non-web schemes, deduplicating, and classifying document
// extensions into file links.
func extractLinks(doc *goquery.Document, base *url.URL) ([]string, []FileLink) {
	var links []string
	var files []FileLink
	seenLinks := make(map[string]bool)
	seenFiles := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved, ok := resolveLink(base, href)
		if !ok {
			return
		}

		abs := resolved.String()
		if !seenLinks[abs] {
			seenLinks[abs] = true
			links = append(links, abs)
		}

		ext := strings.ToLower(strings.TrimPrefix(path.Ext(resolved.Path), "."))
		if !documentExtensions[ext] || seenFiles[abs] {
			return
		}
		seenFiles[abs] = true
		files = append(files, FileLink{
			URL:         abs,
			Type:        ext,
			DisplayName: displayName(sel, resolved),
		})
	})

	return links, files
}

// resolveLink resolves href against base and reports whether the result is
// a crawlable web URL. javascript:, mailto:, and tel: links resolve to
// "skip", never to a URL.
func resolveLink(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil, false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil, false
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil, false
	}
	resolved.Fragment = ""

	return resolved, true
}

// displayName picks the anchor's visible text, falling back to the
// URL-decoded trailing path segment
func displayName(sel *goquery.Selection, resolved *url.URL) string {
	name := strings.Join(strings.Fields(sel.Text()), " ")
	if name != "" {
		return name
	}

	segment := path.Base(resolved.Path)
	if decoded, err := url.PathUnescape(segment); err == nil {
		return decoded
	}
	return segment
}
