package page

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/hpungsan/hilite/internal/errors"
)

// MaxBodyBytes caps how much of a response body is parsed.
const MaxBodyBytes = 5 << 20

// ValidateURL checks that rawURL is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return errors.NewInvalidRequest("url must be an absolute http(s) URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.NewInvalidRequest("url must be an absolute http(s) URL")
	}
	return nil
}

// Fetch downloads and parses the page at pageURL.
// A nil client uses http.DefaultClient.
func Fetch(ctx context.Context, client *http.Client, pageURL string) (*Page, error) {
	if err := ValidateURL(pageURL); err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid url: %v", err))
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("fetch")
		}
		return nil, errors.NewInvalidRequest(fmt.Sprintf("fetch %s: %v", pageURL, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("fetch %s: status %d", pageURL, resp.StatusCode))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, _ := mime.ParseMediaType(ct)
		if mediaType != "text/html" && mediaType != "application/xhtml+xml" {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("fetch %s: unsupported content type %q", pageURL, mediaType))
		}
	}

	return Parse(io.LimitReader(resp.Body, MaxBodyBytes), pageURL)
}
