// Package media provides attachment fetchers for non-platform URI schemes.
package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"veilbot/pkg/veil"
)

// Schemes lists the URI schemes the HTTP fetcher resolves.
var Schemes = []string{"http", "https"}

const (
	defaultUserAgent = "veilbot/1.0"
	// defaultMaxBytes bounds downloads when the request carries no limit.
	defaultMaxBytes = int64(32 * 1024 * 1024)
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPFetcher downloads attachment content over plain HTTP(S).
type HTTPFetcher struct {
	client    HTTPClient
	userAgent string
}

// HTTPFetcherOption customizes fetcher construction.
type HTTPFetcherOption func(*HTTPFetcher)

// WithUserAgent overrides the User-Agent sent on downloads.
func WithUserAgent(userAgent string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if userAgent != "" {
			f.userAgent = userAgent
		}
	}
}

// NewHTTPFetcher creates a fetcher with the given HTTP client.
func NewHTTPFetcher(client HTTPClient, options ...HTTPFetcherOption) (*HTTPFetcher, error) {
	if client == nil {
		return nil, fmt.Errorf("new http fetcher: nil client")
	}

	fetcher := &HTTPFetcher{
		client:    client,
		userAgent: defaultUserAgent,
	}
	for _, option := range options {
		option(fetcher)
	}

	return fetcher, nil
}

// FetchMedia downloads one URL within the request byte limit.
func (f *HTTPFetcher) FetchMedia(
	ctx context.Context,
	request veil.FetchMediaRequest,
) (*veil.MediaContent, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("fetch http media: %w", err)
	}

	parsed, err := url.Parse(request.URI)
	if err != nil {
		return nil, fmt.Errorf("fetch http media: parse uri: %w", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", veil.ErrMediaUnsupported, parsed.Scheme)
	}

	maxBytes := request.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, request.URI, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch http media: create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch http media: http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch http media %s: unexpected status %d", request.URI, resp.StatusCode)
	}
	if resp.ContentLength > maxBytes {
		return nil, fmt.Errorf(
			"fetch http media %s: declared size %d: %w",
			request.URI,
			resp.ContentLength,
			veil.ErrMediaTooLarge,
		)
	}

	// Read one byte past the cap so undeclared oversize bodies are detected
	// without buffering the whole stream.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch http media %s: read body: %w", request.URI, err)
	}
	if int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("fetch http media %s: %w", request.URI, veil.ErrMediaTooLarge)
	}

	return &veil.MediaContent{
		Bytes:    body,
		MIMEType: contentMIMEType(resp.Header),
		FileName: contentFileName(resp.Header, parsed),
	}, nil
}

func contentMIMEType(header http.Header) string {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		return ""
	}

	mimeType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}

	return mimeType
}

// contentFileName prefers the Content-Disposition filename and falls back to
// the final URL path segment.
func contentFileName(header http.Header, parsed *url.URL) string {
	if disposition := header.Get("Content-Disposition"); disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := params["filename"]; name != "" {
				return path.Base(name)
			}
		}
	}

	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		return ""
	}

	return name
}
