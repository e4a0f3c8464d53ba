package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"veilbot/pkg/veil"
)

type stubHTTPClient struct {
	response *http.Response
	err      error
	lastReq  *http.Request
}

func (c *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.lastReq = req

	return c.response, c.err
}

func okResponse(body string, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}

	return &http.Response{
		StatusCode:    http.StatusOK,
		ContentLength: int64(len(body)),
		Header:        header,
		Body:          io.NopCloser(strings.NewReader(body)),
	}
}

func TestHTTPFetcherFetchMedia(t *testing.T) {
	t.Parallel()

	header := http.Header{}
	header.Set("Content-Type", "image/png; charset=binary")
	header.Set("Content-Disposition", `attachment; filename="cat.png"`)
	client := &stubHTTPClient{response: okResponse("png-bytes", header)}

	fetcher, err := NewHTTPFetcher(client, WithUserAgent("veilbot-test/1.0"))
	if err != nil {
		t.Fatalf("new http fetcher failed: %v", err)
	}

	content, err := fetcher.FetchMedia(context.Background(), veil.FetchMediaRequest{
		URI:      "https://example.com/files/upload",
		MaxBytes: 1024,
	})
	if err != nil {
		t.Fatalf("fetch media failed: %v", err)
	}
	if string(content.Bytes) != "png-bytes" {
		t.Fatalf("bytes = %q, want png-bytes", content.Bytes)
	}
	if content.MIMEType != "image/png" {
		t.Fatalf("mime type = %q, want image/png", content.MIMEType)
	}
	if content.FileName != "cat.png" {
		t.Fatalf("file name = %q, want cat.png from disposition", content.FileName)
	}
	if got := client.lastReq.Header.Get("User-Agent"); got != "veilbot-test/1.0" {
		t.Fatalf("user agent = %q, want override", got)
	}
}

func TestHTTPFetcherFileNameFallsBackToURLPath(t *testing.T) {
	t.Parallel()

	client := &stubHTTPClient{response: okResponse("data", nil)}
	fetcher, err := NewHTTPFetcher(client)
	if err != nil {
		t.Fatalf("new http fetcher failed: %v", err)
	}

	content, err := fetcher.FetchMedia(context.Background(), veil.FetchMediaRequest{
		URI: "https://example.com/media/report.txt",
	})
	if err != nil {
		t.Fatalf("fetch media failed: %v", err)
	}
	if content.FileName != "report.txt" {
		t.Fatalf("file name = %q, want report.txt from url path", content.FileName)
	}
}

func TestHTTPFetcherRejectsDeclaredOversize(t *testing.T) {
	t.Parallel()

	response := okResponse("tiny", nil)
	response.ContentLength = 10 * 1024 * 1024
	fetcher, err := NewHTTPFetcher(&stubHTTPClient{response: response})
	if err != nil {
		t.Fatalf("new http fetcher failed: %v", err)
	}

	_, err = fetcher.FetchMedia(context.Background(), veil.FetchMediaRequest{
		URI:      "https://example.com/big.mp4",
		MaxBytes: 1024,
	})
	if !errors.Is(err, veil.ErrMediaTooLarge) {
		t.Fatalf("err = %v, want ErrMediaTooLarge", err)
	}
}

func TestHTTPFetcherRejectsUndeclaredOversize(t *testing.T) {
	t.Parallel()

	response := okResponse(strings.Repeat("x", 64), nil)
	// Chunked transfer: no declared length to pre-check.
	response.ContentLength = -1
	fetcher, err := NewHTTPFetcher(&stubHTTPClient{response: response})
	if err != nil {
		t.Fatalf("new http fetcher failed: %v", err)
	}

	_, err = fetcher.FetchMedia(context.Background(), veil.FetchMediaRequest{
		URI:      "https://example.com/stream.bin",
		MaxBytes: 16,
	})
	if !errors.Is(err, veil.ErrMediaTooLarge) {
		t.Fatalf("err = %v, want ErrMediaTooLarge", err)
	}
}

func TestHTTPFetcherRejectsBadStatusAndScheme(t *testing.T) {
	t.Parallel()

	notFound := &http.Response{
		StatusCode: http.StatusNotFound,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("gone")),
	}
	fetcher, err := NewHTTPFetcher(&stubHTTPClient{response: notFound})
	if err != nil {
		t.Fatalf("new http fetcher failed: %v", err)
	}

	if _, err := fetcher.FetchMedia(context.Background(), veil.FetchMediaRequest{URI: "https://example.com/a"}); err == nil {
		t.Fatal("expected status error")
	}

	_, err = fetcher.FetchMedia(context.Background(), veil.FetchMediaRequest{URI: "ftp://example.com/a"})
	if !errors.Is(err, veil.ErrMediaUnsupported) {
		t.Fatalf("err = %v, want ErrMediaUnsupported", err)
	}
}

func TestHTTPFetcherPropagatesTransportFailure(t *testing.T) {
	t.Parallel()

	transportErr := errors.New("connection refused")
	fetcher, err := NewHTTPFetcher(&stubHTTPClient{err: transportErr})
	if err != nil {
		t.Fatalf("new http fetcher failed: %v", err)
	}

	if _, err := fetcher.FetchMedia(context.Background(), veil.FetchMediaRequest{URI: "https://example.com/a"}); !errors.Is(err, transportErr) {
		t.Fatalf("err = %v, want wrapped transport error", err)
	}

	if _, err := NewHTTPFetcher(nil); err == nil {
		t.Fatal("expected nil client error")
	}
}
