package imagectl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPPreloader verifies that an image URL is actually servable by fetching
// it, the way a browser's off-screen Image() probe does.
type HTTPPreloader struct {
	httpClient *http.Client
}

// NewHTTPPreloader creates an HTTPPreloader.
func NewHTTPPreloader() *HTTPPreloader {
	return &HTTPPreloader{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Preload fetches the URL and reports an error when the image does not load.
func (p *HTTPPreloader) Preload(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create preload request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("image preload failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image preload failed with status %d", resp.StatusCode)
	}
	// Drain a little so keep-alive connections get reused.
	io.CopyN(io.Discard, resp.Body, 512)
	return nil
}
