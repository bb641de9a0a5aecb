// Package httpfetch implements importer.AttachmentFetcher over net/http:
// it follows redirects, verifies the final response, and deletes whatever
// it wrote to disk if verification fails.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/ha1tch/wxrimport/importer"
)

// Fetcher retrieves attachments over HTTP(S). The zero value is not usable;
// construct with New.
type Fetcher struct {
	Client   *http.Client
	MaxBytes int64 // 0 means no limit
}

// New returns a Fetcher with a 30s timeout client.
func New() *Fetcher {
	return &Fetcher{Client: &http.Client{Timeout: 30 * time.Second}}
}

// Fetch downloads rawURL into destDir/bucketYYYYMM/<basename>, deleting the
// partial file on any failure so a retried import never sees a truncated
// attachment. It satisfies importer.AttachmentFetcher.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, destDir, bucketYYYYMM string) (importer.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return importer.FetchResult{}, &importer.FetchError{Kind: importer.FetchErrorNetwork, URL: rawURL, Err: err}
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return importer.FetchResult{}, &importer.FetchError{Kind: importer.FetchErrorNetwork, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return importer.FetchResult{}, &importer.FetchError{
			Kind: importer.FetchErrorHTTPStatus, URL: rawURL, Err: fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	name := filepath.Base(localPath(rawURL))
	dir := filepath.Join(destDir, bucketYYYYMM)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return importer.FetchResult{}, &importer.FetchError{Kind: importer.FetchErrorWrite, URL: rawURL, Err: err}
	}
	destPath := filepath.Join(dir, name)

	out, err := os.Create(destPath)
	if err != nil {
		return importer.FetchResult{}, &importer.FetchError{Kind: importer.FetchErrorWrite, URL: rawURL, Err: err}
	}

	var reader io.Reader = resp.Body
	if f.MaxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.MaxBytes+1)
	}
	written, err := io.Copy(out, reader)
	closeErr := out.Close()
	if err != nil {
		os.Remove(destPath)
		return importer.FetchResult{}, &importer.FetchError{Kind: importer.FetchErrorWrite, URL: rawURL, Err: err}
	}
	if closeErr != nil {
		os.Remove(destPath)
		return importer.FetchResult{}, &importer.FetchError{Kind: importer.FetchErrorWrite, URL: rawURL, Err: closeErr}
	}
	if f.MaxBytes > 0 && written > f.MaxBytes {
		os.Remove(destPath)
		return importer.FetchResult{}, &importer.FetchError{
			Kind: importer.FetchErrorSizeMismatch, URL: rawURL, Err: fmt.Errorf("exceeds %d byte limit", f.MaxBytes),
		}
	}
	if cl := resp.ContentLength; cl >= 0 && cl != written {
		os.Remove(destPath)
		return importer.FetchResult{}, &importer.FetchError{
			Kind: importer.FetchErrorSizeMismatch, URL: rawURL, Err: fmt.Errorf("content-length %d, wrote %d", cl, written),
		}
	}

	return importer.FetchResult{File: destPath, URL: rawURL, FinalURL: resp.Request.URL.String()}, nil
}

func localPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}
