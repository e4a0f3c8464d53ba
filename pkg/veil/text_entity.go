package veil

import (
	"fmt"
	"unicode/utf8"
)

// TextEntityType identifies the formatting class of a rich text fragment.
type TextEntityType string

const (
	// TextEntityTypeBold marks bold styling.
	TextEntityTypeBold TextEntityType = "bold"
	// TextEntityTypeItalic marks italic styling.
	TextEntityTypeItalic TextEntityType = "italic"
	// TextEntityTypeUnderline marks underline styling.
	TextEntityTypeUnderline TextEntityType = "underline"
	// TextEntityTypeStrikethrough marks strikethrough styling.
	TextEntityTypeStrikethrough TextEntityType = "strikethrough"
	// TextEntityTypeCode marks inline monospace styling.
	TextEntityTypeCode TextEntityType = "code"
	// TextEntityTypePre marks preformatted block styling.
	TextEntityTypePre TextEntityType = "pre"
	// TextEntityTypeURL marks a literal URL fragment.
	TextEntityTypeURL TextEntityType = "url"
	// TextEntityTypeTextURL marks a fragment linking to an external URL.
	TextEntityTypeTextURL TextEntityType = "text_url"
	// TextEntityTypeMention marks an @username mention fragment.
	TextEntityTypeMention TextEntityType = "mention"
	// TextEntityTypeMentionName marks a mention bound to a user identifier.
	TextEntityTypeMentionName TextEntityType = "mention_name"
	// TextEntityTypeHashtag marks a #hashtag fragment.
	TextEntityTypeHashtag TextEntityType = "hashtag"
	// TextEntityTypeSpoiler marks platform-native hidden-text styling.
	TextEntityTypeSpoiler TextEntityType = "spoiler"
	// TextEntityTypeCustomEmoji marks a custom emoji bound to a document identifier.
	TextEntityTypeCustomEmoji TextEntityType = "custom_emoji"
)

// TextEntity marks a rich text fragment.
//
// Offset and Length are rune-based against the containing text.
type TextEntity struct {
	// Type identifies the entity class.
	Type TextEntityType
	// Offset is the zero-based rune offset in the message text.
	Offset int
	// Length is the rune span of the entity.
	Length int
	// URL is the link destination for text_url entities.
	URL string
	// Language is the syntax hint for pre entities.
	Language string
	// MentionUserID is the bound user identifier for mention_name entities.
	MentionUserID string
	// CustomEmojiID is the bound document identifier for custom_emoji entities.
	CustomEmojiID string
}

// ValidateTextEntities checks entity ranges and per-type payload requirements
// against the text they decorate.
func ValidateTextEntities(text string, entities []TextEntity) error {
	if len(entities) == 0 {
		return nil
	}

	runeCount := utf8.RuneCountInString(text)
	for index, entity := range entities {
		if entity.Type == "" {
			return fmt.Errorf("validate text entity[%d]: missing type", index)
		}
		if entity.Offset < 0 {
			return fmt.Errorf("validate text entity[%d]: negative offset %d", index, entity.Offset)
		}
		if entity.Length <= 0 {
			return fmt.Errorf("validate text entity[%d]: non-positive length %d", index, entity.Length)
		}
		if entity.Offset+entity.Length > runeCount {
			return fmt.Errorf(
				"validate text entity[%d]: range [%d,%d) exceeds text length %d",
				index,
				entity.Offset,
				entity.Offset+entity.Length,
				runeCount,
			)
		}

		switch entity.Type {
		case TextEntityTypeTextURL:
			if entity.URL == "" {
				return fmt.Errorf("validate text entity[%d]: text_url requires url", index)
			}
		case TextEntityTypeMentionName:
			if entity.MentionUserID == "" {
				return fmt.Errorf("validate text entity[%d]: mention_name requires user id", index)
			}
		case TextEntityTypeCustomEmoji:
			if entity.CustomEmojiID == "" {
				return fmt.Errorf("validate text entity[%d]: custom_emoji requires emoji id", index)
			}
		}
	}

	return nil
}
