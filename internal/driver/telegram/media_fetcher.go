package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"veilbot/pkg/veil"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
)

// MediaSchemes lists attachment URI schemes resolvable by the Telegram fetcher.
var MediaSchemes = []string{documentURIScheme}

type documentDownloader interface {
	DownloadDocument(ctx context.Context, location *tg.InputDocumentFileLocation, w io.Writer) error
}

// GotdMediaFetcher retrieves tg-scheme attachment content through MTProto.
type GotdMediaFetcher struct {
	documents  *DocumentCache
	downloader documentDownloader
}

// NewGotdMediaFetcher creates a media fetcher backed by gotd file downloads.
func NewGotdMediaFetcher(client *tg.Client, documents *DocumentCache) (*GotdMediaFetcher, error) {
	if client == nil {
		return nil, fmt.Errorf("new gotd media fetcher: nil client")
	}

	return newGotdMediaFetcherWithDownloader(gotdDocumentDownloader{client: client}, documents)
}

func newGotdMediaFetcherWithDownloader(
	dl documentDownloader,
	documents *DocumentCache,
) (*GotdMediaFetcher, error) {
	if dl == nil {
		return nil, fmt.Errorf("new gotd media fetcher: nil downloader")
	}
	if documents == nil {
		return nil, fmt.Errorf("new gotd media fetcher: nil document cache")
	}

	return &GotdMediaFetcher{
		documents:  documents,
		downloader: dl,
	}, nil
}

// FetchMedia downloads one cached document within the request byte limit.
func (f *GotdMediaFetcher) FetchMedia(
	ctx context.Context,
	request veil.FetchMediaRequest,
) (*veil.MediaContent, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("fetch telegram media: %w", err)
	}

	record, err := f.documents.ResolveURI(request.URI)
	if err != nil {
		return nil, fmt.Errorf("fetch telegram media: %w", err)
	}
	if request.MaxBytes > 0 && record.SizeBytes > request.MaxBytes {
		return nil, fmt.Errorf(
			"fetch telegram media %s: declared size %d: %w",
			request.URI,
			record.SizeBytes,
			veil.ErrMediaTooLarge,
		)
	}

	var buffer bytes.Buffer
	writer := io.Writer(&buffer)
	if request.MaxBytes > 0 {
		writer = &boundedWriter{inner: &buffer, remaining: request.MaxBytes}
	}
	if err := f.downloader.DownloadDocument(ctx, record.AsFileLocation(), writer); err != nil {
		return nil, fmt.Errorf("fetch telegram media %s: %w", request.URI, err)
	}

	return &veil.MediaContent{
		Bytes:    buffer.Bytes(),
		MIMEType: record.MIMEType,
		FileName: record.FileName,
	}, nil
}

// boundedWriter fails a streamed download once the byte limit is exceeded.
type boundedWriter struct {
	inner     io.Writer
	remaining int64
}

func (w *boundedWriter) Write(p []byte) (int, error) {
	if int64(len(p)) > w.remaining {
		return 0, fmt.Errorf("stream exceeds byte limit: %w", veil.ErrMediaTooLarge)
	}
	n, err := w.inner.Write(p)
	w.remaining -= int64(n)

	return n, err
}

type gotdDocumentDownloader struct {
	client *tg.Client
}

func (d gotdDocumentDownloader) DownloadDocument(
	ctx context.Context,
	location *tg.InputDocumentFileLocation,
	w io.Writer,
) error {
	if location == nil {
		return fmt.Errorf("download document: nil location")
	}

	if _, err := downloader.NewDownloader().Download(d.client, location).Stream(ctx, w); err != nil {
		return fmt.Errorf("download document %d: %w", location.ID, err)
	}

	return nil
}
