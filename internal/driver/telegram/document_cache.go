package telegram

import (
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gotd/td/tg"
)

const (
	documentURIScheme       = "tg"
	documentURIPrefix       = documentURIScheme + "://doc/"
	defaultDocumentCapacity = 512
)

// DocumentRecord stores the reference fields needed to fetch or re-send one
// Telegram document after its inbound update has been processed.
type DocumentRecord struct {
	ID            int64
	AccessHash    int64
	FileReference []byte
	MIMEType      string
	FileName      string
	SizeBytes     int64
}

// AsInputDocument builds the document reference used for re-sending by value.
func (r DocumentRecord) AsInputDocument() *tg.InputDocument {
	return &tg.InputDocument{
		ID:            r.ID,
		AccessHash:    r.AccessHash,
		FileReference: append([]byte(nil), r.FileReference...),
	}
}

// AsFileLocation builds the location used for content downloads.
func (r DocumentRecord) AsFileLocation() *tg.InputDocumentFileLocation {
	return &tg.InputDocumentFileLocation{
		ID:            r.ID,
		AccessHash:    r.AccessHash,
		FileReference: append([]byte(nil), r.FileReference...),
	}
}

// DocumentCache keeps recently seen Telegram document references.
//
// File references expire server-side, so the cache is bounded LRU: stale
// entries age out as new updates arrive and a missing entry simply means the
// attachment can no longer be resolved.
type DocumentCache struct {
	entries *lru.Cache[int64, DocumentRecord]
}

// NewDocumentCache creates a bounded document reference cache.
func NewDocumentCache(capacity int) (*DocumentCache, error) {
	if capacity <= 0 {
		capacity = defaultDocumentCapacity
	}

	entries, err := lru.New[int64, DocumentRecord](capacity)
	if err != nil {
		return nil, fmt.Errorf("new document cache: %w", err)
	}

	return &DocumentCache{entries: entries}, nil
}

// Remember stores one document reference observed on an inbound update.
func (c *DocumentCache) Remember(document *tg.Document) {
	if c == nil || document == nil {
		return
	}

	c.entries.Add(document.ID, DocumentRecord{
		ID:            document.ID,
		AccessHash:    document.AccessHash,
		FileReference: append([]byte(nil), document.FileReference...),
		MIMEType:      document.MimeType,
		FileName:      documentFileName(document.Attributes),
		SizeBytes:     document.Size,
	})
}

// Resolve returns the cached record for one document ID.
func (c *DocumentCache) Resolve(documentID int64) (DocumentRecord, bool) {
	if c == nil {
		return DocumentRecord{}, false
	}

	return c.entries.Get(documentID)
}

// ResolveURI returns the cached record for one tg attachment URI.
func (c *DocumentCache) ResolveURI(uri string) (DocumentRecord, error) {
	documentID, err := ParseDocumentURI(uri)
	if err != nil {
		return DocumentRecord{}, err
	}

	record, ok := c.Resolve(documentID)
	if !ok {
		return DocumentRecord{}, fmt.Errorf("resolve document uri %s: reference not cached", uri)
	}

	return record, nil
}

// DocumentURI builds the attachment URI for one Telegram document ID.
func DocumentURI(documentID int64) string {
	return documentURIPrefix + strconv.FormatInt(documentID, 10)
}

// ParseDocumentURI extracts the document ID from one tg attachment URI.
func ParseDocumentURI(uri string) (int64, error) {
	rawID, ok := strings.CutPrefix(uri, documentURIPrefix)
	if !ok {
		return 0, fmt.Errorf("parse document uri %s: unsupported prefix", uri)
	}

	documentID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || documentID == 0 {
		return 0, fmt.Errorf("parse document uri %s: invalid document id", uri)
	}

	return documentID, nil
}
