package telegram

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"veilbot/pkg/veil"

	"github.com/gotd/td/tg"
)

type stubDocumentDownloader struct {
	content      []byte
	err          error
	lastLocation *tg.InputDocumentFileLocation
	calls        int
}

func (d *stubDocumentDownloader) DownloadDocument(
	_ context.Context,
	location *tg.InputDocumentFileLocation,
	w io.Writer,
) error {
	d.calls++
	d.lastLocation = location
	if d.err != nil {
		return d.err
	}

	_, err := w.Write(d.content)

	return err
}

func TestGotdMediaFetcherFetchMedia(t *testing.T) {
	t.Parallel()

	documents, err := NewDocumentCache(4)
	if err != nil {
		t.Fatalf("new document cache failed: %v", err)
	}
	documents.Remember(&tg.Document{
		ID:            9001,
		AccessHash:    77,
		FileReference: []byte{1, 2, 3},
		MimeType:      "image/png",
		Size:          3,
		Attributes: []tg.DocumentAttributeClass{
			&tg.DocumentAttributeFilename{FileName: "cat.png"},
		},
	})

	download := &stubDocumentDownloader{content: []byte("png")}
	fetcher, err := newGotdMediaFetcherWithDownloader(download, documents)
	if err != nil {
		t.Fatalf("new media fetcher failed: %v", err)
	}

	content, err := fetcher.FetchMedia(context.Background(), veil.FetchMediaRequest{
		URI:      "tg://doc/9001",
		MaxBytes: 1024,
	})
	if err != nil {
		t.Fatalf("fetch media failed: %v", err)
	}
	if !bytes.Equal(content.Bytes, []byte("png")) {
		t.Fatalf("content bytes = %q, want png", content.Bytes)
	}
	if content.MIMEType != "image/png" || content.FileName != "cat.png" {
		t.Fatalf("content metadata = %+v, want cached record fields", content)
	}
	if download.lastLocation == nil || download.lastLocation.ID != 9001 || download.lastLocation.AccessHash != 77 {
		t.Fatalf("download location = %+v, want cached document location", download.lastLocation)
	}
}

func TestGotdMediaFetcherRejectsDeclaredOversize(t *testing.T) {
	t.Parallel()

	documents, err := NewDocumentCache(4)
	if err != nil {
		t.Fatalf("new document cache failed: %v", err)
	}
	documents.Remember(&tg.Document{ID: 9001, Size: 4096})

	download := &stubDocumentDownloader{content: []byte("huge")}
	fetcher, err := newGotdMediaFetcherWithDownloader(download, documents)
	if err != nil {
		t.Fatalf("new media fetcher failed: %v", err)
	}

	_, err = fetcher.FetchMedia(context.Background(), veil.FetchMediaRequest{
		URI:      "tg://doc/9001",
		MaxBytes: 1024,
	})
	if !errors.Is(err, veil.ErrMediaTooLarge) {
		t.Fatalf("err = %v, want ErrMediaTooLarge", err)
	}
	if download.calls != 0 {
		t.Fatalf("download calls = %d, want 0 for declared oversize", download.calls)
	}
}

func TestGotdMediaFetcherRejectsStreamOverflow(t *testing.T) {
	t.Parallel()

	documents, err := NewDocumentCache(4)
	if err != nil {
		t.Fatalf("new document cache failed: %v", err)
	}
	// Declared size fits the limit; the actual stream does not.
	documents.Remember(&tg.Document{ID: 9001, Size: 2})

	download := &stubDocumentDownloader{content: []byte("overflowing stream")}
	fetcher, err := newGotdMediaFetcherWithDownloader(download, documents)
	if err != nil {
		t.Fatalf("new media fetcher failed: %v", err)
	}

	_, err = fetcher.FetchMedia(context.Background(), veil.FetchMediaRequest{
		URI:      "tg://doc/9001",
		MaxBytes: 4,
	})
	if !errors.Is(err, veil.ErrMediaTooLarge) {
		t.Fatalf("err = %v, want ErrMediaTooLarge", err)
	}
}

func TestGotdMediaFetcherFailsOnUncachedDocument(t *testing.T) {
	t.Parallel()

	documents, err := NewDocumentCache(4)
	if err != nil {
		t.Fatalf("new document cache failed: %v", err)
	}

	fetcher, err := newGotdMediaFetcherWithDownloader(&stubDocumentDownloader{}, documents)
	if err != nil {
		t.Fatalf("new media fetcher failed: %v", err)
	}

	if _, err := fetcher.FetchMedia(context.Background(), veil.FetchMediaRequest{URI: "tg://doc/404"}); err == nil {
		t.Fatal("expected uncached document error")
	}
	if _, err := fetcher.FetchMedia(context.Background(), veil.FetchMediaRequest{URI: "https://example.com/a"}); err == nil {
		t.Fatal("expected unsupported scheme error")
	}
}

func TestGotdMediaFetcherPropagatesDownloadFailure(t *testing.T) {
	t.Parallel()

	documents, err := NewDocumentCache(4)
	if err != nil {
		t.Fatalf("new document cache failed: %v", err)
	}
	documents.Remember(&tg.Document{ID: 9001})

	downloadErr := errors.New("FILE_REFERENCE_EXPIRED")
	fetcher, err := newGotdMediaFetcherWithDownloader(&stubDocumentDownloader{err: downloadErr}, documents)
	if err != nil {
		t.Fatalf("new media fetcher failed: %v", err)
	}

	_, err = fetcher.FetchMedia(context.Background(), veil.FetchMediaRequest{URI: "tg://doc/9001"})
	if !errors.Is(err, downloadErr) {
		t.Fatalf("err = %v, want wrapped download failure", err)
	}
}
