package spoiler

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"veilbot/pkg/veil"
)

const (
	defaultMarkerEmoji    = "🙈"
	defaultRevealCooldown = 10 * time.Second
	defaultPublishDelay   = 200 * time.Millisecond
)

// Config configures spoiler module behavior.
type Config struct {
	// ArchiveConversationID is the conversation used as durable spoiler storage.
	ArchiveConversationID string
	// ArchiveConversationType is the archive conversation scope.
	ArchiveConversationType veil.ConversationType
	// MarkerEmoji is the reaction emoji that triggers a private reveal.
	MarkerEmoji string
	// RevealCooldown is the per-(message, actor) reaction reveal interval.
	RevealCooldown time.Duration
	// PublishDelay is the pause between the archive write and the origin delete.
	PublishDelay time.Duration
}

type fileConfig struct {
	ArchiveConversationID   string `json:"archive_conversation_id"`
	ArchiveConversationType string `json:"archive_conversation_type"`
	MarkerEmoji             string `json:"marker_emoji"`
	RevealCooldown          string `json:"reveal_cooldown"`
	PublishDelay            string `json:"publish_delay"`
}

// ParseConfig parses and validates the module's raw JSON configuration.
func ParseConfig(raw []byte) (Config, error) {
	var parsed fileConfig
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return Config{}, fmt.Errorf("parse spoiler config: %w", err)
		}
	}

	cfg := Config{
		ArchiveConversationID:   strings.TrimSpace(parsed.ArchiveConversationID),
		ArchiveConversationType: veil.ConversationTypeChannel,
		MarkerEmoji:             defaultMarkerEmoji,
		RevealCooldown:          defaultRevealCooldown,
		PublishDelay:            defaultPublishDelay,
	}
	if rawType := strings.TrimSpace(parsed.ArchiveConversationType); rawType != "" {
		cfg.ArchiveConversationType = veil.ConversationType(rawType)
	}
	if parsed.MarkerEmoji != "" {
		cfg.MarkerEmoji = parsed.MarkerEmoji
	}
	if rawCooldown := strings.TrimSpace(parsed.RevealCooldown); rawCooldown != "" {
		cooldown, err := time.ParseDuration(rawCooldown)
		if err != nil {
			return Config{}, fmt.Errorf("parse spoiler config reveal_cooldown: %w", err)
		}
		cfg.RevealCooldown = cooldown
	}
	if rawDelay := strings.TrimSpace(parsed.PublishDelay); rawDelay != "" {
		delay, err := time.ParseDuration(rawDelay)
		if err != nil {
			return Config{}, fmt.Errorf("parse spoiler config publish_delay: %w", err)
		}
		cfg.PublishDelay = delay
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks configuration coherence.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ArchiveConversationID) == "" {
		return fmt.Errorf("spoiler config: missing archive_conversation_id")
	}
	switch c.ArchiveConversationType {
	case veil.ConversationTypePrivate, veil.ConversationTypeGroup, veil.ConversationTypeChannel:
	default:
		return fmt.Errorf("spoiler config: unsupported archive_conversation_type %q", c.ArchiveConversationType)
	}
	if c.MarkerEmoji == "" {
		return fmt.Errorf("spoiler config: missing marker_emoji")
	}
	if c.RevealCooldown <= 0 {
		return fmt.Errorf("spoiler config: reveal_cooldown must be positive")
	}
	if c.PublishDelay < 0 {
		return fmt.Errorf("spoiler config: publish_delay must not be negative")
	}

	return nil
}

func (c Config) archiveTarget() veil.OutboundTarget {
	return veil.OutboundTarget{
		Conversation: veil.Conversation{
			ID:   c.ArchiveConversationID,
			Type: c.ArchiveConversationType,
		},
	}
}
