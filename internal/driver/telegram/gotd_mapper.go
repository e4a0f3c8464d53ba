package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"veilbot/pkg/veil"

	"github.com/gotd/td/tg"
)

const (
	gotdUnknownConversationID = "unknown"
	gotdUnknownActorID        = "unknown"
)

// DefaultGotdUpdateMapper maps gotd updates into adapter DTO updates.
type DefaultGotdUpdateMapper struct {
	peerCache *PeerCache
	documents *DocumentCache
}

// GotdUpdateMapperOption mutates DefaultGotdUpdateMapper behavior.
type GotdUpdateMapperOption func(*DefaultGotdUpdateMapper)

// WithPeerCache records entity-derived peer mappings for outbound dispatch.
func WithPeerCache(cache *PeerCache) GotdUpdateMapperOption {
	return func(mapper *DefaultGotdUpdateMapper) {
		if cache != nil {
			mapper.peerCache = cache
		}
	}
}

// WithDocumentCache records inbound document references so attachment URIs stay
// resolvable for fetch and re-send.
func WithDocumentCache(cache *DocumentCache) GotdUpdateMapperOption {
	return func(mapper *DefaultGotdUpdateMapper) {
		if cache != nil {
			mapper.documents = cache
		}
	}
}

// NewDefaultGotdUpdateMapper creates the default gotd mapper.
func NewDefaultGotdUpdateMapper(options ...GotdUpdateMapperOption) DefaultGotdUpdateMapper {
	mapper := DefaultGotdUpdateMapper{}
	for _, option := range options {
		option(&mapper)
	}

	return mapper
}

// Map converts a gotd raw update value into an adapter update.
func (m DefaultGotdUpdateMapper) Map(ctx context.Context, raw any) (Update, bool, error) {
	select {
	case <-ctx.Done():
		return Update{}, false, fmt.Errorf("map gotd update context: %w", ctx.Err())
	default:
	}

	envelope, err := normalizeGotdRaw(raw)
	if err != nil {
		return Update{}, false, fmt.Errorf("map gotd raw update: %w", err)
	}
	m.rememberEnvelope(envelope)

	if envelope.reaction != nil {
		return m.mapReactionDelta(envelope)
	}

	switch update := envelope.update.(type) {
	case *tg.UpdateNewMessage:
		return m.mapNewMessage(update, envelope)
	case *tg.UpdateNewChannelMessage:
		return m.mapNewMessage(&tg.UpdateNewMessage{
			Message:  update.Message,
			Pts:      update.Pts,
			PtsCount: update.PtsCount,
		}, envelope)
	case *tg.UpdateEditMessage:
		return m.mapEditMessage(update.Message, envelope)
	case *tg.UpdateEditChannelMessage:
		return m.mapEditMessage(update.Message, envelope)
	case *tg.UpdateDeleteMessages:
		return m.mapDeleteMessages(update, envelope)
	case *tg.UpdateDeleteChannelMessages:
		return m.mapDeleteChannelMessages(update, envelope)
	case *tg.UpdateBotCallbackQuery:
		return m.mapCallbackQuery(update, envelope)
	default:
		return Update{}, false, nil
	}
}

func (m DefaultGotdUpdateMapper) rememberEnvelope(envelope gotdUpdateEnvelope) {
	if m.peerCache != nil {
		m.peerCache.RememberEnvelope(envelope)
	}
}

func (m DefaultGotdUpdateMapper) rememberConversationPeer(chat ChatRef, peer tg.InputPeerClass) {
	if m.peerCache != nil {
		m.peerCache.RememberConversation(chat, peer)
	}
}

func normalizeGotdRaw(raw any) (gotdUpdateEnvelope, error) {
	switch typed := raw.(type) {
	case gotdUpdateEnvelope:
		return typed, nil
	case *gotdUpdateEnvelope:
		if typed == nil {
			return gotdUpdateEnvelope{}, fmt.Errorf("nil envelope")
		}
		return *typed, nil
	case tg.UpdateClass:
		if typed == nil {
			return gotdUpdateEnvelope{}, fmt.Errorf("nil update class")
		}
		return gotdUpdateEnvelope{
			update:      typed,
			occurredAt:  time.Now().UTC(),
			updateClass: typed.TypeName(),
		}, nil
	default:
		return gotdUpdateEnvelope{}, fmt.Errorf("unsupported raw type %T", raw)
	}
}

func (m DefaultGotdUpdateMapper) mapNewMessage(
	update *tg.UpdateNewMessage,
	envelope gotdUpdateEnvelope,
) (Update, bool, error) {
	if update == nil {
		return Update{}, false, fmt.Errorf("map new message: nil update")
	}

	// Service messages (joins, migrations, pins) carry no content to archive.
	message, ok := update.Message.(*tg.Message)
	if !ok {
		return Update{}, false, nil
	}

	return m.mapMessage(message, envelope)
}

func (m DefaultGotdUpdateMapper) mapMessage(
	message *tg.Message,
	envelope gotdUpdateEnvelope,
) (Update, bool, error) {
	if message == nil {
		return Update{}, false, fmt.Errorf("map message: nil message")
	}

	chat := resolveChatFromPeer(message.PeerID, envelope)
	actor := resolveActorFromPeer(message.FromID, envelope)
	if actor.ID == gotdUnknownActorID {
		actor = resolveActorFromPeer(message.PeerID, envelope)
	}

	payload := &MessagePayload{
		ID:       strconv.Itoa(message.ID),
		Text:     message.Message,
		Entities: mapTextEntities(message.Entities),
		Media:    m.mapMessageMedia(message.Media),
	}
	if replyTo, ok := message.GetReplyTo(); ok {
		if header, ok := replyTo.(*tg.MessageReplyHeader); ok {
			if replyToMessageID, ok := header.GetReplyToMsgID(); ok {
				payload.ReplyToID = strconv.Itoa(replyToMessageID)
			}
			if threadID, ok := header.GetReplyToTopID(); ok {
				payload.ThreadID = strconv.Itoa(threadID)
			}
		}
	}

	occurredAt := intToTimeUTC(message.Date)
	if occurredAt.IsZero() {
		occurredAt = envelope.occurredAt
	}
	m.rememberConversationPeer(chat, resolveInputPeerFromPeer(message.PeerID, envelope))

	return Update{
		ID:         composeUpdateID(UpdateTypeMessage, chat.ID, payload.ID, occurredAt),
		Type:       UpdateTypeMessage,
		OccurredAt: occurredAt,
		Chat:       chat,
		Actor:      actor,
		Message:    payload,
		Metadata:   newGotdMetadata(envelope),
	}, true, nil
}

func (m DefaultGotdUpdateMapper) mapEditMessage(
	message tg.MessageClass,
	envelope gotdUpdateEnvelope,
) (Update, bool, error) {
	typed, ok := message.(*tg.Message)
	if !ok {
		return Update{}, false, nil
	}

	chat := resolveChatFromPeer(typed.PeerID, envelope)
	actor := resolveActorFromPeer(typed.FromID, envelope)
	if actor.ID == gotdUnknownActorID {
		actor = resolveActorFromPeer(typed.PeerID, envelope)
	}
	occurredAt := intToTimeUTC(typed.Date)
	if occurredAt.IsZero() {
		occurredAt = envelope.occurredAt
	}
	m.rememberConversationPeer(chat, resolveInputPeerFromPeer(typed.PeerID, envelope))

	return Update{
		ID:         composeUpdateID(UpdateTypeEdit, chat.ID, strconv.Itoa(typed.ID), occurredAt),
		Type:       UpdateTypeEdit,
		OccurredAt: occurredAt,
		Chat:       chat,
		Actor:      actor,
		Edit: &EditPayload{
			MessageID: strconv.Itoa(typed.ID),
			After: &SnapshotPayload{
				Text:  typed.Message,
				Media: m.mapMessageMedia(typed.Media),
			},
			Reason: "telegram_edit_update",
		},
		Metadata: newGotdMetadata(envelope),
	}, true, nil
}

func (m DefaultGotdUpdateMapper) mapDeleteMessages(
	update *tg.UpdateDeleteMessages,
	envelope gotdUpdateEnvelope,
) (Update, bool, error) {
	if update == nil || len(update.Messages) == 0 {
		return Update{}, false, nil
	}

	messageID := update.Messages[0]
	occurredAt := envelope.occurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Update{
		ID:         composeUpdateID(UpdateTypeDelete, gotdUnknownConversationID, strconv.Itoa(messageID), occurredAt),
		Type:       UpdateTypeDelete,
		OccurredAt: occurredAt,
		Chat: ChatRef{
			ID:   gotdUnknownConversationID,
			Type: veil.ConversationTypePrivate,
		},
		Actor: ActorRef{ID: gotdUnknownActorID},
		Delete: &DeletePayload{
			MessageID: strconv.Itoa(messageID),
			Reason:    "telegram_delete_update",
		},
		Metadata: newGotdMetadata(envelope),
	}, true, nil
}

func (m DefaultGotdUpdateMapper) mapDeleteChannelMessages(
	update *tg.UpdateDeleteChannelMessages,
	envelope gotdUpdateEnvelope,
) (Update, bool, error) {
	if update == nil || len(update.Messages) == 0 {
		return Update{}, false, nil
	}

	chat := resolveChatByChannelID(update.ChannelID, envelope)
	occurredAt := envelope.occurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	m.rememberConversationPeer(chat, resolveInputPeerByChannelID(update.ChannelID, envelope))

	return Update{
		ID:         composeUpdateID(UpdateTypeDelete, chat.ID, strconv.Itoa(update.Messages[0]), occurredAt),
		Type:       UpdateTypeDelete,
		OccurredAt: occurredAt,
		Chat:       chat,
		Actor:      ActorRef{ID: gotdUnknownActorID},
		Delete: &DeletePayload{
			MessageID: strconv.Itoa(update.Messages[0]),
			Reason:    "telegram_delete_channel_update",
		},
		Metadata: newGotdMetadata(envelope),
	}, true, nil
}

func (m DefaultGotdUpdateMapper) mapReactionDelta(envelope gotdUpdateEnvelope) (Update, bool, error) {
	delta := envelope.reaction
	if delta == nil {
		return Update{}, false, fmt.Errorf("map reaction delta: nil delta")
	}
	if delta.emoji == "" {
		return Update{}, false, nil
	}

	chat := resolveChatFromPeer(delta.peer, envelope)
	actor := resolveActorFromPeer(delta.actor, envelope)
	occurredAt := envelope.occurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	m.rememberConversationPeer(chat, resolveInputPeerFromPeer(delta.peer, envelope))

	payload := &ReactionPayload{
		MessageID: strconv.Itoa(delta.messageID),
		Emoji:     delta.emoji,
	}
	if emojiID, ok := strings.CutPrefix(delta.emoji, "custom:"); ok {
		payload.Emoji = ""
		payload.EmojiID = emojiID
	}

	return Update{
		ID:         composeUpdateID(delta.action, chat.ID, strconv.Itoa(delta.messageID), delta.emoji, occurredAt),
		Type:       delta.action,
		OccurredAt: occurredAt,
		Chat:       chat,
		Actor:      actor,
		Reaction:   payload,
		Metadata:   newGotdMetadata(envelope),
	}, true, nil
}

func (m DefaultGotdUpdateMapper) mapCallbackQuery(
	update *tg.UpdateBotCallbackQuery,
	envelope gotdUpdateEnvelope,
) (Update, bool, error) {
	if update == nil {
		return Update{}, false, fmt.Errorf("map callback query: nil update")
	}

	data, ok := update.GetData()
	if !ok || len(data) == 0 {
		return Update{}, false, nil
	}

	chat := resolveChatFromPeer(update.Peer, envelope)
	actor := resolveActorByUserID(update.UserID, envelope)
	occurredAt := envelope.occurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	m.rememberConversationPeer(chat, resolveInputPeerFromPeer(update.Peer, envelope))

	queryID := strconv.FormatInt(update.QueryID, 10)

	return Update{
		ID:         composeUpdateID(UpdateTypeControl, chat.ID, strconv.Itoa(update.MsgID), queryID),
		Type:       UpdateTypeControl,
		OccurredAt: occurredAt,
		Chat:       chat,
		Actor:      actor,
		Control: &ControlPayload{
			MessageID: strconv.Itoa(update.MsgID),
			ControlID: string(data),
			QueryID:   queryID,
		},
		Metadata: newGotdMetadata(envelope),
	}, true, nil
}

type gotdUpdateEnvelope struct {
	update      tg.UpdateClass
	occurredAt  time.Time
	usersByID   map[int64]*tg.User
	chatsByID   map[int64]gotdChatInfo
	updateClass string
	reaction    *gotdReactionDelta
}

type gotdReactionDelta struct {
	action    UpdateType
	messageID int
	emoji     string
	actor     tg.PeerClass
	peer      tg.PeerClass
}

type gotdChatInfo struct {
	title     string
	kind      veil.ConversationType
	inputPeer tg.InputPeerClass
}

func indexGotdUsers(users []tg.UserClass) map[int64]*tg.User {
	if len(users) == 0 {
		return nil
	}

	out := make(map[int64]*tg.User, len(users))
	for _, user := range users {
		if user == nil {
			continue
		}
		notEmpty, ok := user.AsNotEmpty()
		if !ok || notEmpty == nil {
			continue
		}
		out[notEmpty.ID] = notEmpty
	}

	return out
}

func indexGotdChats(chats []tg.ChatClass) map[int64]gotdChatInfo {
	if len(chats) == 0 {
		return nil
	}

	out := make(map[int64]gotdChatInfo, len(chats))
	for _, chat := range chats {
		if chat == nil {
			continue
		}

		switch typed := chat.(type) {
		case *tg.Chat:
			out[typed.ID] = gotdChatInfo{
				title:     typed.Title,
				kind:      veil.ConversationTypeGroup,
				inputPeer: typed.AsInputPeer(),
			}
		case *tg.ChatForbidden:
			out[typed.ID] = gotdChatInfo{
				title: typed.Title,
				kind:  veil.ConversationTypeGroup,
				inputPeer: &tg.InputPeerChat{
					ChatID: typed.ID,
				},
			}
		case *tg.Channel:
			kind := veil.ConversationTypeChannel
			if typed.Megagroup {
				kind = veil.ConversationTypeGroup
			}
			out[typed.ID] = gotdChatInfo{
				title:     typed.Title,
				kind:      kind,
				inputPeer: typed.AsInputPeer(),
			}
		case *tg.ChannelForbidden:
			kind := veil.ConversationTypeChannel
			if typed.Megagroup {
				kind = veil.ConversationTypeGroup
			}
			out[typed.ID] = gotdChatInfo{
				title: typed.Title,
				kind:  kind,
				inputPeer: &tg.InputPeerChannel{
					ChannelID:  typed.ID,
					AccessHash: typed.AccessHash,
				},
			}
		}
	}

	return out
}

func resolveChatFromPeer(peer tg.PeerClass, envelope gotdUpdateEnvelope) ChatRef {
	switch typed := peer.(type) {
	case *tg.PeerUser:
		actor := resolveActorByUserID(typed.UserID, envelope)
		return ChatRef{
			ID:    actor.ID,
			Type:  veil.ConversationTypePrivate,
			Title: actor.DisplayName,
		}
	case *tg.PeerChat:
		return resolveChatByChatID(typed.ChatID, envelope)
	case *tg.PeerChannel:
		return resolveChatByChannelID(typed.ChannelID, envelope)
	default:
		return ChatRef{
			ID:   gotdUnknownConversationID,
			Type: veil.ConversationTypePrivate,
		}
	}
}

func resolveChatByChatID(chatID int64, envelope gotdUpdateEnvelope) ChatRef {
	id := strconv.FormatInt(chatID, 10)
	info, ok := envelope.chatsByID[chatID]
	if !ok {
		return ChatRef{
			ID:   id,
			Type: veil.ConversationTypeGroup,
		}
	}

	return ChatRef{
		ID:    id,
		Title: info.title,
		Type:  info.kind,
	}
}

func resolveChatByChannelID(channelID int64, envelope gotdUpdateEnvelope) ChatRef {
	id := strconv.FormatInt(channelID, 10)
	info, ok := envelope.chatsByID[channelID]
	if !ok {
		return ChatRef{
			ID:   id,
			Type: veil.ConversationTypeChannel,
		}
	}

	return ChatRef{
		ID:    id,
		Title: info.title,
		Type:  info.kind,
	}
}

func resolveActorFromPeer(peer tg.PeerClass, envelope gotdUpdateEnvelope) ActorRef {
	switch typed := peer.(type) {
	case *tg.PeerUser:
		return resolveActorByUserID(typed.UserID, envelope)
	case *tg.PeerChat:
		return ActorRef{
			ID:          strconv.FormatInt(typed.ChatID, 10),
			DisplayName: lookupChatTitle(typed.ChatID, envelope),
			IsBot:       false,
		}
	case *tg.PeerChannel:
		return ActorRef{
			ID:          strconv.FormatInt(typed.ChannelID, 10),
			DisplayName: lookupChatTitle(typed.ChannelID, envelope),
			IsBot:       false,
		}
	default:
		return ActorRef{ID: gotdUnknownActorID}
	}
}

func resolveActorByUserID(userID int64, envelope gotdUpdateEnvelope) ActorRef {
	id := strconv.FormatInt(userID, 10)
	if userID == 0 {
		return ActorRef{ID: gotdUnknownActorID}
	}

	user, ok := envelope.usersByID[userID]
	if !ok || user == nil {
		return ActorRef{ID: id}
	}

	username, _ := user.GetUsername()
	firstName, _ := user.GetFirstName()
	lastName, _ := user.GetLastName()

	displayName := strings.TrimSpace(strings.TrimSpace(firstName + " " + lastName))
	if displayName == "" {
		displayName = username
	}
	if displayName == "" {
		displayName = id
	}

	return ActorRef{
		ID:          id,
		Username:    username,
		DisplayName: displayName,
		IsBot:       user.Bot,
	}
}

func resolveInputPeerFromPeer(peer tg.PeerClass, envelope gotdUpdateEnvelope) tg.InputPeerClass {
	switch typed := peer.(type) {
	case *tg.PeerUser:
		return resolveInputPeerByUserID(typed.UserID, envelope)
	case *tg.PeerChat:
		return resolveInputPeerByChatID(typed.ChatID)
	case *tg.PeerChannel:
		return resolveInputPeerByChannelID(typed.ChannelID, envelope)
	default:
		return nil
	}
}

func resolveInputPeerByUserID(userID int64, envelope gotdUpdateEnvelope) tg.InputPeerClass {
	if userID == 0 {
		return nil
	}

	user, ok := envelope.usersByID[userID]
	if !ok || user == nil {
		return nil
	}

	return user.AsInputPeer()
}

func resolveInputPeerByChatID(chatID int64) tg.InputPeerClass {
	if chatID == 0 {
		return nil
	}

	return &tg.InputPeerChat{ChatID: chatID}
}

func resolveInputPeerByChannelID(channelID int64, envelope gotdUpdateEnvelope) tg.InputPeerClass {
	if channelID == 0 {
		return nil
	}

	info, ok := envelope.chatsByID[channelID]
	if !ok || info.inputPeer == nil {
		return nil
	}

	return cloneInputPeer(info.inputPeer)
}

func lookupChatTitle(chatID int64, envelope gotdUpdateEnvelope) string {
	info, ok := envelope.chatsByID[chatID]
	if !ok {
		return ""
	}
	return info.title
}

func mapTextEntities(entities []tg.MessageEntityClass) []veil.TextEntity {
	if len(entities) == 0 {
		return nil
	}

	out := make([]veil.TextEntity, 0, len(entities))
	for _, entity := range entities {
		if entity == nil {
			continue
		}

		entityType, ok := mapInboundEntityType(entity)
		if !ok {
			continue
		}
		mapped := veil.TextEntity{
			Type:   entityType,
			Offset: entity.GetOffset(),
			Length: entity.GetLength(),
		}
		switch typed := entity.(type) {
		case *tg.MessageEntityTextURL:
			mapped.URL = typed.URL
		case *tg.MessageEntityPre:
			mapped.Language = typed.Language
		case *tg.MessageEntityMentionName:
			mapped.MentionUserID = strconv.FormatInt(typed.UserID, 10)
		case *tg.MessageEntityCustomEmoji:
			mapped.CustomEmojiID = strconv.FormatInt(typed.DocumentID, 10)
		}

		out = append(out, mapped)
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

func mapInboundEntityType(entity tg.MessageEntityClass) (veil.TextEntityType, bool) {
	switch entity.(type) {
	case *tg.MessageEntityBold:
		return veil.TextEntityTypeBold, true
	case *tg.MessageEntityItalic:
		return veil.TextEntityTypeItalic, true
	case *tg.MessageEntityUnderline:
		return veil.TextEntityTypeUnderline, true
	case *tg.MessageEntityStrike:
		return veil.TextEntityTypeStrikethrough, true
	case *tg.MessageEntityCode:
		return veil.TextEntityTypeCode, true
	case *tg.MessageEntityPre:
		return veil.TextEntityTypePre, true
	case *tg.MessageEntityURL:
		return veil.TextEntityTypeURL, true
	case *tg.MessageEntityTextURL:
		return veil.TextEntityTypeTextURL, true
	case *tg.MessageEntityMention:
		return veil.TextEntityTypeMention, true
	case *tg.MessageEntityMentionName:
		return veil.TextEntityTypeMentionName, true
	case *tg.MessageEntityHashtag:
		return veil.TextEntityTypeHashtag, true
	case *tg.MessageEntitySpoiler:
		return veil.TextEntityTypeSpoiler, true
	case *tg.MessageEntityCustomEmoji:
		return veil.TextEntityTypeCustomEmoji, true
	default:
		return "", false
	}
}

func (m DefaultGotdUpdateMapper) mapMessageMedia(media tg.MessageMediaClass) []MediaPayload {
	switch typed := media.(type) {
	case *tg.MessageMediaPhoto:
		photo, ok := typed.GetPhoto()
		if !ok || photo == nil {
			return nil
		}
		photoID := mapPhotoID(photo)
		if photoID == "" {
			return nil
		}

		return []MediaPayload{
			{
				ID:   photoID,
				Type: veil.MediaTypePhoto,
			},
		}
	case *tg.MessageMediaDocument:
		document, ok := typed.GetDocument()
		if !ok || document == nil {
			return nil
		}
		return m.mapDocumentMedia(document)
	default:
		return nil
	}
}

func mapPhotoID(photo tg.PhotoClass) string {
	switch typed := photo.(type) {
	case *tg.Photo:
		return strconv.FormatInt(typed.ID, 10)
	case *tg.PhotoEmpty:
		return strconv.FormatInt(typed.ID, 10)
	default:
		return ""
	}
}

func (m DefaultGotdUpdateMapper) mapDocumentMedia(document tg.DocumentClass) []MediaPayload {
	typed, ok := document.(*tg.Document)
	if !ok {
		return nil
	}

	mediaType := mediaTypeFromDocument(typed.MimeType, typed.Attributes)
	fileName := documentFileName(typed.Attributes)
	if m.documents != nil {
		m.documents.Remember(typed)
	}

	return []MediaPayload{
		{
			ID:        strconv.FormatInt(typed.ID, 10),
			Type:      mediaType,
			MIMEType:  typed.MimeType,
			FileName:  fileName,
			SizeBytes: typed.Size,
			URI:       DocumentURI(typed.ID),
		},
	}
}

func mediaTypeFromDocument(mimeType string, attributes []tg.DocumentAttributeClass) veil.MediaType {
	for _, attribute := range attributes {
		switch attribute.(type) {
		case *tg.DocumentAttributeAudio:
			return veil.MediaTypeAudio
		case *tg.DocumentAttributeVideo:
			return veil.MediaTypeVideo
		}
	}

	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return veil.MediaTypePhoto
	case strings.HasPrefix(mimeType, "video/"):
		return veil.MediaTypeVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return veil.MediaTypeAudio
	default:
		return veil.MediaTypeDocument
	}
}

func documentFileName(attributes []tg.DocumentAttributeClass) string {
	for _, attribute := range attributes {
		typed, ok := attribute.(*tg.DocumentAttributeFilename)
		if !ok {
			continue
		}
		return typed.FileName
	}

	return ""
}

func reactionToEmoji(reaction tg.ReactionClass) string {
	switch typed := reaction.(type) {
	case *tg.ReactionEmoji:
		return typed.Emoticon
	case *tg.ReactionCustomEmoji:
		return "custom:" + strconv.FormatInt(typed.DocumentID, 10)
	case *tg.ReactionPaid:
		return "paid"
	default:
		return ""
	}
}

func intToTimeUTC(value int) time.Time {
	if value <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(value), 0).UTC()
}

func composeUpdateID(updateType UpdateType, chatID string, parts ...any) string {
	values := []string{"tg", string(updateType)}
	if chatID != "" {
		values = append(values, chatID)
	}
	for _, part := range parts {
		switch typed := part.(type) {
		case string:
			if typed != "" {
				values = append(values, typed)
			}
		case time.Time:
			if !typed.IsZero() {
				values = append(values, strconv.FormatInt(typed.UnixNano(), 10))
			}
		default:
			values = append(values, fmt.Sprint(part))
		}
	}

	return strings.Join(values, ":")
}

func newGotdMetadata(envelope gotdUpdateEnvelope) map[string]string {
	if envelope.updateClass == "" {
		return nil
	}
	return map[string]string{
		"gotd_update": envelope.updateClass,
	}
}
