package telegram

import (
	"testing"

	"veilbot/pkg/veil"

	"github.com/gotd/td/tg"
)

func TestMapTextEntities(t *testing.T) {
	t.Parallel()

	entities := []tg.MessageEntityClass{
		&tg.MessageEntityBold{Offset: 0, Length: 4},
		&tg.MessageEntityPre{Offset: 5, Length: 3, Language: "go"},
		&tg.MessageEntityTextURL{Offset: 9, Length: 5, URL: "https://example.com"},
		&tg.MessageEntityMentionName{Offset: 15, Length: 5, UserID: 123},
		&tg.MessageEntityCustomEmoji{Offset: 21, Length: 1, DocumentID: 999},
		&tg.MessageEntityStrike{Offset: 23, Length: 7},
	}

	got := mapTextEntities(entities)
	if len(got) != len(entities) {
		t.Fatalf("entity len = %d, want %d", len(got), len(entities))
	}

	if got[0].Type != veil.TextEntityTypeBold {
		t.Fatalf("entity[0].Type = %q, want %q", got[0].Type, veil.TextEntityTypeBold)
	}
	if got[1].Type != veil.TextEntityTypePre || got[1].Language != "go" {
		t.Fatalf("entity[1] = %+v, want pre with language go", got[1])
	}
	if got[2].Type != veil.TextEntityTypeTextURL || got[2].URL != "https://example.com" {
		t.Fatalf("entity[2] = %+v, want text_url with URL", got[2])
	}
	if got[3].Type != veil.TextEntityTypeMentionName || got[3].MentionUserID != "123" {
		t.Fatalf("entity[3] = %+v, want mention_name with user id", got[3])
	}
	if got[4].Type != veil.TextEntityTypeCustomEmoji || got[4].CustomEmojiID != "999" {
		t.Fatalf("entity[4] = %+v, want custom_emoji with id", got[4])
	}
	if got[5].Type != veil.TextEntityTypeStrikethrough {
		t.Fatalf("entity[5] = %+v, want strikethrough", got[5])
	}
}

func TestMapTextEntitiesSkipsUnsupportedClasses(t *testing.T) {
	t.Parallel()

	entities := []tg.MessageEntityClass{
		&tg.MessageEntityBankCard{Offset: 0, Length: 16},
		&tg.MessageEntityPhone{Offset: 17, Length: 10},
	}

	if got := mapTextEntities(entities); got != nil {
		t.Fatalf("entities = %+v, want nil", got)
	}
}
