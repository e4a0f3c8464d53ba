package spoiler

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"veilbot/pkg/veil"
)

// hiddenNotice is the fixed front-door body shown in place of hidden content.
const hiddenNotice = "This spoiler has been hidden. Press the button to reveal it!"

// Attachment references one archived file. Order is meaningful: the first
// attachment is the primary one used as the reveal preview.
type Attachment struct {
	// FileName is the attachment filename.
	FileName string
	// URI is the platform attachment reference resolvable by a media fetcher.
	URI string
	// SizeBytes is the attachment content size.
	SizeBytes int64
}

// SpoilerRecord is the canonical hidden-content value moved between the
// archive conversation, the lookup cache, and reveal rendering.
type SpoilerRecord struct {
	// AuthorID is the publishing actor's platform identifier.
	AuthorID int64
	// OriginChannelID is the conversation the spoiler was published in.
	OriginChannelID int64
	// Title is the visible spoiler title.
	Title string
	// Text is the hidden text body, possibly empty.
	Text string
	// Attachments lists archived files in upload order.
	Attachments []Attachment
}

// encodeArchive renders a record into the archive card layout.
//
// The archive card is the durable storage format: the attribution slot holds
// the author id and the footer holds the origin conversation id, both as
// decimal strings, so decodeArchive can reconstruct the record exactly.
func encodeArchive(record SpoilerRecord) *veil.Card {
	return &veil.Card{
		Headline:     record.Title,
		Body:         record.Text,
		AttributedTo: strconv.FormatInt(record.AuthorID, 10),
		Footer:       strconv.FormatInt(record.OriginChannelID, 10),
	}
}

// encodeFrontDoor renders the public stand-in card posted in the origin
// conversation. The footer carries the archive message pointer that
// reconstruction follows back to storage.
func encodeFrontDoor(record SpoilerRecord, authorName string, pointer int64) *veil.Card {
	return &veil.Card{
		Headline:     displayTitle(record),
		Body:         hiddenNotice,
		AttributedTo: authorName,
		Footer:       strconv.FormatInt(pointer, 10),
	}
}

// decodeArchive reconstructs a record from a fetched archive message.
//
// Every slot must be present and parse cleanly; callers map any decode
// failure to the not-found path.
func decodeArchive(message *veil.Message) (SpoilerRecord, error) {
	if message == nil || message.Card == nil {
		return SpoilerRecord{}, fmt.Errorf("decode archive: message carries no card")
	}

	authorID, err := strconv.ParseInt(message.Card.AttributedTo, 10, 64)
	if err != nil {
		return SpoilerRecord{}, fmt.Errorf("decode archive: parse author id %q: %w", message.Card.AttributedTo, err)
	}
	originID, err := strconv.ParseInt(message.Card.Footer, 10, 64)
	if err != nil {
		return SpoilerRecord{}, fmt.Errorf("decode archive: parse origin id %q: %w", message.Card.Footer, err)
	}

	record := SpoilerRecord{
		AuthorID:        authorID,
		OriginChannelID: originID,
		Title:           message.Card.Headline,
		Text:            message.Card.Body,
	}
	for _, media := range message.Media {
		record.Attachments = append(record.Attachments, Attachment{
			FileName:  media.FileName,
			URI:       media.URI,
			SizeBytes: media.SizeBytes,
		})
	}

	return record, nil
}

// displayTitle suffixes the title for public rendering. A record with no text
// whose primary attachment is an image reads "<title> Spoiler Image";
// everything else reads "<title> Spoiler".
func displayTitle(record SpoilerRecord) string {
	if record.Text == "" && len(record.Attachments) > 0 && isImageFileName(record.Attachments[0].FileName) {
		return record.Title + " Spoiler Image"
	}

	return record.Title + " Spoiler"
}

func fileExtension(fileName string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
}

func isImageFileName(fileName string) bool {
	switch fileExtension(fileName) {
	case "png", "jpg", "jpeg", "gif":
		return true
	default:
		return false
	}
}
