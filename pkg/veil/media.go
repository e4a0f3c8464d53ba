package veil

import (
	"context"
	"fmt"
)

// ServiceMediaFetcher is the canonical service registry key for media retrieval.
const ServiceMediaFetcher = "veil.media_fetcher"

// FetchMediaRequest describes a bounded read of one attachment's content.
type FetchMediaRequest struct {
	// URI is the attachment location from MediaAttachment.URI.
	URI string
	// MaxBytes caps how much content the fetcher may return. Zero means the
	// fetcher's own default limit applies.
	MaxBytes int64
}

// Validate checks fetch request fields.
func (r FetchMediaRequest) Validate() error {
	if r.URI == "" {
		return fmt.Errorf("%w: missing media uri", ErrInvalidOutboundRequest)
	}
	if r.MaxBytes < 0 {
		return fmt.Errorf("%w: negative media byte limit", ErrInvalidOutboundRequest)
	}

	return nil
}

// MediaContent is fetched attachment content.
type MediaContent struct {
	// Bytes is the attachment content.
	Bytes []byte
	// MIMEType is the content type reported by the source when known.
	MIMEType string
	// FileName is the source-reported filename when known.
	FileName string
}

// MediaFetcher retrieves attachment content referenced by scheme-specific URIs.
//
// Fetch failures for oversized content return errors wrapping ErrMediaTooLarge;
// unknown URI schemes return errors wrapping ErrMediaUnsupported.
type MediaFetcher interface {
	// FetchMedia downloads attachment content within the request byte limit.
	FetchMedia(ctx context.Context, request FetchMediaRequest) (*MediaContent, error)
}
