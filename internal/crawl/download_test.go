package crawl

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload(t *testing.T) {
	content := bytes.Repeat([]byte("%PDF-1.4 "), 100)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TestBot", r.Header.Get("User-Agent"))
		w.Write(content)
	}))
	defer server.Close()

	d := NewDownloader(DownloadOptions{UserAgent: "TestBot"})
	result := d.Download(context.Background(), server.URL+"/exam.pdf")

	require.True(t, result.Success)
	assert.Equal(t, content, result.Data)
	assert.Equal(t, len(content), result.Size)
	assert.Empty(t, result.Error)
}

func TestDownload_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	d := NewDownloader(DownloadOptions{})
	result := d.Download(context.Background(), server.URL)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "403")
	assert.Nil(t, result.Data)
}

func TestDownload_SizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer server.Close()

	d := NewDownloader(DownloadOptions{MaxSize: 1024})
	result := d.Download(context.Background(), server.URL)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "limit")
	assert.Nil(t, result.Data)
}

func TestDownload_ExactlyAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 1024))
	}))
	defer server.Close()

	d := NewDownloader(DownloadOptions{MaxSize: 1024})
	result := d.Download(context.Background(), server.URL)

	require.True(t, result.Success)
	assert.Equal(t, 1024, result.Size)
}

func TestDownload_NetworkFailure(t *testing.T) {
	d := NewDownloader(DownloadOptions{})
	result := d.Download(context.Background(), "http://127.0.0.1:1/file.pdf")

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}
