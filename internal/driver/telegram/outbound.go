package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"veilbot/pkg/veil"

	"github.com/gotd/td/crypto"
	gotdtelegram "github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/unpack"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"
)

const defaultOutboundTimeout = 3 * time.Second

// OutboundOption mutates outbound dispatcher configuration.
type OutboundOption func(*outboundConfig)

// WithOutboundTimeout configures a timeout bound for each outbound RPC call.
func WithOutboundTimeout(timeout time.Duration) OutboundOption {
	return func(cfg *outboundConfig) {
		if timeout > 0 {
			cfg.rpcTimeout = timeout
		}
	}
}

// WithOutboundLogger configures structured logging for outbound operations.
func WithOutboundLogger(logger *slog.Logger) OutboundOption {
	return func(cfg *outboundConfig) {
		cfg.logger = logger
	}
}

// WithSinkRef configures the sink identity returned by sink-list operations.
func WithSinkRef(ref veil.SinkRef) OutboundOption {
	return func(cfg *outboundConfig) {
		cfg.sink = ref
		if cfg.sink.Platform == "" {
			cfg.sink.Platform = DriverPlatform
		}
	}
}

// SinkDispatcher adapts neutral outbound operations to Telegram RPC calls.
type SinkDispatcher struct {
	cfg       outboundConfig
	peers     *PeerCache
	documents *DocumentCache
	telegram  outboundRPC
}

type outboundConfig struct {
	rpcTimeout time.Duration
	logger     *slog.Logger
	sink       veil.SinkRef
}

// NewOutboundDispatcher creates a Telegram outbound dispatcher using gotd client APIs.
func NewOutboundDispatcher(
	client *gotdtelegram.Client,
	peers *PeerCache,
	documents *DocumentCache,
	options ...OutboundOption,
) (*SinkDispatcher, error) {
	if client == nil {
		return nil, fmt.Errorf("new telegram outbound dispatcher: nil client")
	}

	rpc, err := newGotdOutboundRPC(client)
	if err != nil {
		return nil, fmt.Errorf("new telegram outbound dispatcher: %w", err)
	}

	return newOutboundDispatcherWithRPC(rpc, peers, documents, options...)
}

func newOutboundDispatcherWithRPC(
	rpc outboundRPC,
	peers *PeerCache,
	documents *DocumentCache,
	options ...OutboundOption,
) (*SinkDispatcher, error) {
	if rpc == nil {
		return nil, fmt.Errorf("new telegram outbound dispatcher: nil rpc adapter")
	}
	if peers == nil {
		return nil, fmt.Errorf("new telegram outbound dispatcher: nil peer cache")
	}
	if documents == nil {
		return nil, fmt.Errorf("new telegram outbound dispatcher: nil document cache")
	}

	cfg := outboundConfig{
		rpcTimeout: defaultOutboundTimeout,
		sink: veil.SinkRef{
			Platform: DriverPlatform,
		},
	}
	for _, option := range options {
		option(&cfg)
	}

	return &SinkDispatcher{
		cfg:       cfg,
		peers:     peers,
		documents: documents,
		telegram:  rpc,
	}, nil
}

// SendMessage publishes an outbound message to a Telegram conversation.
func (d *SinkDispatcher) SendMessage(
	ctx context.Context,
	request veil.SendMessageRequest,
) (*veil.OutboundMessage, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("send message validate: %w", err)
	}

	peer, err := d.resolvePeer(veil.OutboundOperationSendMessage, request.Target)
	if err != nil {
		return nil, err
	}

	content, err := d.buildContent(outboundDraft{
		text:               request.Text,
		entities:           request.Entities,
		card:               request.Card,
		files:              request.Files,
		control:            request.Control,
		replyToMessageID:   request.ReplyToMessageID,
		disableLinkPreview: request.DisableLinkPreview,
		silent:             request.Silent,
	})
	if err != nil {
		return nil, fmt.Errorf("send message build content: %w", err)
	}

	rpcCtx, cancel := d.withTimeout(ctx)
	defer cancel()

	id, err := d.telegram.SendMessage(rpcCtx, peer, content)
	if err != nil {
		return nil, d.wrapRPCError(veil.OutboundOperationSendMessage, err)
	}

	d.logOutbound(
		ctx,
		"send_message",
		"conversation", request.Target.Conversation.ID,
		"conversation_type", request.Target.Conversation.Type,
		"message_id", id,
		"files", len(request.Files),
		"has_control", request.Control != nil,
	)

	return &veil.OutboundMessage{
		ID:     strconv.Itoa(id),
		Target: request.Target,
	}, nil
}

// DeleteMessage removes an existing Telegram message.
func (d *SinkDispatcher) DeleteMessage(ctx context.Context, request veil.DeleteMessageRequest) error {
	if err := request.Validate(); err != nil {
		return fmt.Errorf("delete message validate: %w", err)
	}

	peer, err := d.resolvePeer(veil.OutboundOperationDeleteMessage, request.Target)
	if err != nil {
		return err
	}

	messageID, err := parseMessageID(request.MessageID)
	if err != nil {
		return fmt.Errorf("delete message parse id %s: %w", request.MessageID, err)
	}

	rpcCtx, cancel := d.withTimeout(ctx)
	defer cancel()

	if err := d.telegram.DeleteMessage(rpcCtx, peer, messageID, request.Revoke); err != nil {
		return d.wrapRPCError(veil.OutboundOperationDeleteMessage, err)
	}

	d.logOutbound(
		ctx,
		"delete_message",
		"conversation", request.Target.Conversation.ID,
		"conversation_type", request.Target.Conversation.Type,
		"message_id", request.MessageID,
		"revoke", request.Revoke,
	)

	return nil
}

// FetchMessage retrieves one existing Telegram message by ID.
func (d *SinkDispatcher) FetchMessage(
	ctx context.Context,
	request veil.FetchMessageRequest,
) (*veil.Message, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("fetch message validate: %w", err)
	}

	peer, err := d.resolvePeer(veil.OutboundOperationFetchMessage, request.Target)
	if err != nil {
		return nil, err
	}

	messageID, err := parseMessageID(request.MessageID)
	if err != nil {
		return nil, fmt.Errorf("fetch message parse id %s: %w", request.MessageID, err)
	}

	rpcCtx, cancel := d.withTimeout(ctx)
	defer cancel()

	resolved, err := d.telegram.FetchMessage(rpcCtx, peer, messageID)
	if err != nil {
		return nil, d.wrapRPCError(veil.OutboundOperationFetchMessage, err)
	}

	d.peers.RememberEnvelope(gotdUpdateEnvelope{
		usersByID: resolved.usersByID,
		chatsByID: resolved.chatsByID,
	})

	d.logOutbound(
		ctx,
		"fetch_message",
		"conversation", request.Target.Conversation.ID,
		"conversation_type", request.Target.Conversation.Type,
		"message_id", request.MessageID,
	)

	return d.convertFetchedMessage(resolved.message), nil
}

// SendDirect delivers one private Telegram message to a single actor.
func (d *SinkDispatcher) SendDirect(
	ctx context.Context,
	request veil.SendDirectRequest,
) (*veil.OutboundMessage, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("send direct validate: %w", err)
	}

	target := veil.OutboundTarget{
		Conversation: veil.Conversation{
			ID:   request.ActorID,
			Type: veil.ConversationTypePrivate,
		},
		Sink: request.Sink,
	}
	peer, err := d.resolvePeer(veil.OutboundOperationSendDirect, target)
	if err != nil {
		return nil, err
	}

	content, err := d.buildContent(outboundDraft{
		text:     request.Text,
		entities: request.Entities,
		card:     request.Card,
		files:    request.Files,
		silent:   request.Silent,
	})
	if err != nil {
		return nil, fmt.Errorf("send direct build content: %w", err)
	}

	rpcCtx, cancel := d.withTimeout(ctx)
	defer cancel()

	id, err := d.telegram.SendMessage(rpcCtx, peer, content)
	if err != nil {
		return nil, d.wrapRPCError(veil.OutboundOperationSendDirect, err)
	}

	d.logOutbound(
		ctx,
		"send_direct",
		"actor", request.ActorID,
		"message_id", id,
		"files", len(request.Files),
	)

	return &veil.OutboundMessage{
		ID:     strconv.Itoa(id),
		Target: target,
	}, nil
}

// AnswerControl acknowledges one inline control press.
func (d *SinkDispatcher) AnswerControl(ctx context.Context, request veil.AnswerControlRequest) error {
	if err := request.Validate(); err != nil {
		return fmt.Errorf("answer control validate: %w", err)
	}
	if request.Sink != nil && request.Sink.Platform != "" && request.Sink.Platform != DriverPlatform {
		return fmt.Errorf("%w: platform %s", veil.ErrOutboundUnsupported, request.Sink.Platform)
	}

	queryID, err := strconv.ParseInt(strings.TrimSpace(request.QueryID), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid control query id %q", veil.ErrInvalidOutboundRequest, request.QueryID)
	}

	rpcCtx, cancel := d.withTimeout(ctx)
	defer cancel()

	if err := d.telegram.AnswerCallback(rpcCtx, queryID, request.Text, request.ShowAlert); err != nil {
		return d.wrapRPCError(veil.OutboundOperationAnswerControl, err)
	}

	d.logOutbound(
		ctx,
		"answer_control",
		"query_id", request.QueryID,
		"show_alert", request.ShowAlert,
	)

	return nil
}

// ListSinks returns the configured Telegram sink identity.
func (d *SinkDispatcher) ListSinks(ctx context.Context) ([]veil.SinkRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list sinks: %w", err)
	}

	return []veil.SinkRef{d.cfg.sink}, nil
}

// ListSinksByPlatform returns the configured sink when platform matches Telegram.
func (d *SinkDispatcher) ListSinksByPlatform(
	ctx context.Context,
	platform veil.Platform,
) ([]veil.SinkRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list sinks by platform: %w", err)
	}
	if platform != d.cfg.sink.Platform {
		return []veil.SinkRef{}, nil
	}

	return []veil.SinkRef{d.cfg.sink}, nil
}

func (d *SinkDispatcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.cfg.rpcTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, d.cfg.rpcTimeout)
}

func (d *SinkDispatcher) resolvePeer(
	operation veil.OutboundOperation,
	target veil.OutboundTarget,
) (tg.InputPeerClass, error) {
	if target.Sink != nil && target.Sink.Platform != "" && target.Sink.Platform != veil.PlatformTelegram {
		return nil, fmt.Errorf("%w: platform %s", veil.ErrOutboundUnsupported, target.Sink.Platform)
	}

	peer, err := d.peers.Resolve(target.Conversation)
	if err != nil {
		return nil, &veil.OutboundError{
			Operation: operation,
			Kind:      veil.OutboundErrorKindNotFound,
			Platform:  DriverPlatform,
			SinkID:    d.cfg.sink.ID,
			Cause:     fmt.Errorf("resolve conversation %s: %w", target.Conversation.ID, err),
		}
	}

	return peer, nil
}

func (d *SinkDispatcher) wrapRPCError(operation veil.OutboundOperation, err error) error {
	return mapTelegramOutboundError(operation, d.cfg.sink, err)
}

// outboundDraft is the platform-neutral content of one pending send.
type outboundDraft struct {
	text               string
	entities           []veil.TextEntity
	card               *veil.Card
	files              []veil.FileUpload
	control            *veil.ControlSpec
	replyToMessageID   string
	disableLinkPreview bool
	silent             bool
}

// outboundContent is the Telegram-shaped content handed to the RPC adapter.
type outboundContent struct {
	text      string
	entities  []tg.MessageEntityClass
	uploads   []outboundUpload
	markup    tg.ReplyMarkupClass
	replyToID int
	noWebpage bool
	silent    bool
}

// outboundUpload carries one attachment: raw bytes to upload, or a cached
// document reference to re-send without content transfer.
type outboundUpload struct {
	fileName string
	mimeType string
	bytes    []byte
	document *tg.InputDocument
}

func (d *SinkDispatcher) buildContent(draft outboundDraft) (outboundContent, error) {
	text := draft.text
	textEntities := draft.entities
	if draft.card != nil {
		rendered, entities, err := renderCard(draft.card)
		if err != nil {
			return outboundContent{}, err
		}
		text = rendered
		textEntities = entities
	}

	entities, err := mapOutboundTextEntities(text, textEntities)
	if err != nil {
		return outboundContent{}, fmt.Errorf("map outbound entities: %w", err)
	}

	content := outboundContent{
		text:      text,
		entities:  entities,
		noWebpage: draft.disableLinkPreview,
		silent:    draft.silent,
	}

	if draft.replyToMessageID != "" {
		replyID, err := parseMessageID(draft.replyToMessageID)
		if err != nil {
			return outboundContent{}, fmt.Errorf("parse reply id %s: %w", draft.replyToMessageID, err)
		}
		content.replyToID = replyID
	}

	if draft.control != nil {
		content.markup = &tg.ReplyInlineMarkup{
			Rows: []tg.KeyboardButtonRow{
				{
					Buttons: []tg.KeyboardButtonClass{
						&tg.KeyboardButtonCallback{
							Text: draft.control.Label,
							Data: []byte(draft.control.ID),
						},
					},
				},
			},
		}
	}

	for index, file := range draft.files {
		upload, err := d.buildUpload(file)
		if err != nil {
			return outboundContent{}, fmt.Errorf("file[%d]: %w", index, err)
		}
		content.uploads = append(content.uploads, upload)
	}

	// Telegram albums cannot carry reply markup; the control would be lost.
	if content.markup != nil && len(content.uploads) > 1 {
		return outboundContent{}, fmt.Errorf(
			"%w: control attached to multi-file message",
			veil.ErrOutboundUnsupported,
		)
	}

	return content, nil
}

func (d *SinkDispatcher) buildUpload(file veil.FileUpload) (outboundUpload, error) {
	if file.Ref != "" {
		record, err := d.documents.ResolveURI(file.Ref)
		if err != nil {
			return outboundUpload{}, err
		}

		upload := outboundUpload{
			fileName: file.FileName,
			mimeType: file.MIMEType,
			document: record.AsInputDocument(),
		}
		if upload.fileName == "" {
			upload.fileName = record.FileName
		}
		if upload.mimeType == "" {
			upload.mimeType = record.MIMEType
		}

		return upload, nil
	}

	return outboundUpload{
		fileName: file.FileName,
		mimeType: file.MIMEType,
		bytes:    file.Bytes,
	}, nil
}

func (d *SinkDispatcher) convertFetchedMessage(fetched *tg.Message) *veil.Message {
	mapper := NewDefaultGotdUpdateMapper(WithDocumentCache(d.documents))

	converted := &veil.Message{
		ID:       strconv.Itoa(fetched.ID),
		Text:     fetched.Message,
		Entities: mapTextEntities(fetched.Entities),
		Media:    mapMedia(mapper.mapMessageMedia(fetched.Media)),
		Card:     parseCardText(fetched.Message),
	}
	if replyTo, ok := fetched.GetReplyTo(); ok {
		if header, ok := replyTo.(*tg.MessageReplyHeader); ok {
			if replyID, ok := header.GetReplyToMsgID(); ok {
				converted.ReplyToID = strconv.Itoa(replyID)
			}
		}
	}

	return converted
}

func (d *SinkDispatcher) logOutbound(ctx context.Context, operation string, attrs ...any) {
	if d.cfg.logger == nil {
		return
	}

	values := make([]any, 0, 2+len(attrs))
	values = append(values, "operation", operation, "platform", veil.PlatformTelegram)
	values = append(values, attrs...)
	d.cfg.logger.InfoContext(ctx, "telegram outbound operation", values...)
}

func parseMessageID(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid message id: %w", veil.ErrInvalidOutboundRequest, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%w: invalid message id", veil.ErrInvalidOutboundRequest)
	}

	return value, nil
}

func mapOutboundTextEntities(text string, entities []veil.TextEntity) ([]tg.MessageEntityClass, error) {
	if len(entities) == 0 {
		return nil, nil
	}

	utf16Offsets := buildUTF16Offsets(text)
	converted := make([]tg.MessageEntityClass, 0, len(entities))
	for index, entity := range entities {
		start := entity.Offset
		end := entity.Offset + entity.Length
		if start < 0 || end < start || end >= len(utf16Offsets) {
			return nil, fmt.Errorf(
				"entity[%d] invalid range [%d,%d) for text runes %d",
				index,
				start,
				end,
				len(utf16Offsets)-1,
			)
		}

		offsetUTF16 := utf16Offsets[start]
		lengthUTF16 := utf16Offsets[end] - utf16Offsets[start]
		telegramEntity, err := convertOutboundTextEntity(entity, offsetUTF16, lengthUTF16)
		if err != nil {
			return nil, fmt.Errorf("entity[%d] convert: %w", index, err)
		}
		converted = append(converted, telegramEntity)
	}

	return converted, nil
}

func convertOutboundTextEntity(
	entity veil.TextEntity,
	offset int,
	length int,
) (tg.MessageEntityClass, error) {
	switch entity.Type {
	case veil.TextEntityTypeBold:
		return &tg.MessageEntityBold{Offset: offset, Length: length}, nil
	case veil.TextEntityTypeItalic:
		return &tg.MessageEntityItalic{Offset: offset, Length: length}, nil
	case veil.TextEntityTypeUnderline:
		return &tg.MessageEntityUnderline{Offset: offset, Length: length}, nil
	case veil.TextEntityTypeStrikethrough:
		return &tg.MessageEntityStrike{Offset: offset, Length: length}, nil
	case veil.TextEntityTypeCode:
		return &tg.MessageEntityCode{Offset: offset, Length: length}, nil
	case veil.TextEntityTypePre:
		return &tg.MessageEntityPre{
			Offset:   offset,
			Length:   length,
			Language: entity.Language,
		}, nil
	case veil.TextEntityTypeURL:
		return &tg.MessageEntityURL{Offset: offset, Length: length}, nil
	case veil.TextEntityTypeTextURL:
		return &tg.MessageEntityTextURL{
			Offset: offset,
			Length: length,
			URL:    entity.URL,
		}, nil
	case veil.TextEntityTypeMention:
		return &tg.MessageEntityMention{Offset: offset, Length: length}, nil
	case veil.TextEntityTypeMentionName:
		return nil, fmt.Errorf(
			"%w: text entity type %q requires resolved input user and is not supported",
			veil.ErrOutboundUnsupported,
			entity.Type,
		)
	case veil.TextEntityTypeHashtag:
		return &tg.MessageEntityHashtag{Offset: offset, Length: length}, nil
	case veil.TextEntityTypeSpoiler:
		return &tg.MessageEntitySpoiler{Offset: offset, Length: length}, nil
	case veil.TextEntityTypeCustomEmoji:
		documentID, err := parseEntityID(entity.CustomEmojiID)
		if err != nil {
			return nil, fmt.Errorf("custom_emoji parse custom_emoji_id: %w", err)
		}
		return &tg.MessageEntityCustomEmoji{
			Offset:     offset,
			Length:     length,
			DocumentID: documentID,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported text entity type %q", veil.ErrOutboundUnsupported, entity.Type)
	}
}

func buildUTF16Offsets(text string) []int {
	offsets := make([]int, 1, len(text)+1)
	current := 0
	for _, value := range text {
		current += utf16RuneLength(value)
		offsets = append(offsets, current)
	}

	return offsets
}

func utf16RuneLength(value rune) int {
	if value >= 0x10000 && value <= 0x10FFFF {
		return 2
	}

	return 1
}

func parseEntityID(raw string) (int64, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("%w: invalid entity id %q", veil.ErrInvalidOutboundRequest, raw)
	}

	return parsed, nil
}

type outboundRPC interface {
	SendMessage(ctx context.Context, peer tg.InputPeerClass, content outboundContent) (int, error)
	DeleteMessage(ctx context.Context, peer tg.InputPeerClass, messageID int, revoke bool) error
	FetchMessage(ctx context.Context, peer tg.InputPeerClass, messageID int) (resolvedMessage, error)
	AnswerCallback(ctx context.Context, queryID int64, text string, showAlert bool) error
}

type gotdOutboundRPC struct {
	raw      *tg.Client
	rand     io.Reader
	sender   *message.Sender
	uploads  *uploader.Uploader
	resolver *GotdMessageResolver
}

func newGotdOutboundRPC(client *gotdtelegram.Client) (gotdOutboundRPC, error) {
	raw := client.API()

	resolver, err := NewGotdMessageResolver(raw)
	if err != nil {
		return gotdOutboundRPC{}, err
	}

	return gotdOutboundRPC{
		raw:      raw,
		rand:     crypto.DefaultRand(),
		sender:   message.NewSender(raw),
		uploads:  uploader.NewUploader(raw),
		resolver: resolver,
	}, nil
}

func (r gotdOutboundRPC) SendMessage(
	ctx context.Context,
	peer tg.InputPeerClass,
	content outboundContent,
) (int, error) {
	if len(content.uploads) == 0 {
		return r.sendText(ctx, peer, content)
	}

	media, err := r.prepareMedia(ctx, content.uploads)
	if err != nil {
		return 0, err
	}
	if len(media) == 1 {
		return r.sendSingleMedia(ctx, peer, content, media[0])
	}

	return r.sendAlbum(ctx, peer, content, media)
}

func (r gotdOutboundRPC) sendText(
	ctx context.Context,
	peer tg.InputPeerClass,
	content outboundContent,
) (int, error) {
	sendRequest := &tg.MessagesSendMessageRequest{
		Peer:        peer,
		Message:     content.text,
		NoWebpage:   content.noWebpage,
		Silent:      content.silent,
		Entities:    content.entities,
		ReplyMarkup: content.markup,
	}
	if content.replyToID > 0 {
		sendRequest.ReplyTo = &tg.InputReplyToMessage{
			ReplyToMsgID: content.replyToID,
		}
	}

	randomID, err := crypto.RandInt64(r.rand)
	if err != nil {
		return 0, fmt.Errorf("send text random id: %w", err)
	}
	sendRequest.RandomID = randomID

	updates, err := r.raw.MessagesSendMessage(ctx, sendRequest)
	if err != nil {
		return 0, fmt.Errorf("send text: %w", err)
	}

	messageID, err := unpack.MessageID(updates, nil)
	if err != nil {
		return 0, fmt.Errorf("extract sent message id: %w", err)
	}

	return messageID, nil
}

func (r gotdOutboundRPC) sendSingleMedia(
	ctx context.Context,
	peer tg.InputPeerClass,
	content outboundContent,
	media tg.InputMediaClass,
) (int, error) {
	sendRequest := &tg.MessagesSendMediaRequest{
		Peer:        peer,
		Media:       media,
		Message:     content.text,
		Silent:      content.silent,
		Entities:    content.entities,
		ReplyMarkup: content.markup,
	}
	if content.replyToID > 0 {
		sendRequest.ReplyTo = &tg.InputReplyToMessage{
			ReplyToMsgID: content.replyToID,
		}
	}

	randomID, err := crypto.RandInt64(r.rand)
	if err != nil {
		return 0, fmt.Errorf("send media random id: %w", err)
	}
	sendRequest.RandomID = randomID

	updates, err := r.raw.MessagesSendMedia(ctx, sendRequest)
	if err != nil {
		return 0, fmt.Errorf("send media: %w", err)
	}

	messageID, err := sentMessageIDFromUpdates(updates)
	if err != nil {
		return 0, fmt.Errorf("extract sent message id: %w", err)
	}

	return messageID, nil
}

func (r gotdOutboundRPC) sendAlbum(
	ctx context.Context,
	peer tg.InputPeerClass,
	content outboundContent,
	media []tg.InputMediaClass,
) (int, error) {
	multiMedia := make([]tg.InputSingleMedia, 0, len(media))
	for index, item := range media {
		// Album items must reference server-side media; freshly uploaded files
		// are registered through messages.uploadMedia first.
		registered, err := r.registerAlbumMedia(ctx, peer, item)
		if err != nil {
			return 0, fmt.Errorf("register album media[%d]: %w", index, err)
		}

		randomID, err := crypto.RandInt64(r.rand)
		if err != nil {
			return 0, fmt.Errorf("album media[%d] random id: %w", index, err)
		}

		single := tg.InputSingleMedia{
			Media:    registered,
			RandomID: randomID,
		}
		if index == 0 {
			single.Message = content.text
			single.Entities = content.entities
		}
		multiMedia = append(multiMedia, single)
	}

	sendRequest := &tg.MessagesSendMultiMediaRequest{
		Peer:       peer,
		MultiMedia: multiMedia,
		Silent:     content.silent,
	}
	if content.replyToID > 0 {
		sendRequest.ReplyTo = &tg.InputReplyToMessage{
			ReplyToMsgID: content.replyToID,
		}
	}

	updates, err := r.raw.MessagesSendMultiMedia(ctx, sendRequest)
	if err != nil {
		return 0, fmt.Errorf("send multi media: %w", err)
	}

	messageID, err := sentMessageIDFromUpdates(updates)
	if err != nil {
		return 0, fmt.Errorf("extract sent album message id: %w", err)
	}

	return messageID, nil
}

func (r gotdOutboundRPC) prepareMedia(
	ctx context.Context,
	uploads []outboundUpload,
) ([]tg.InputMediaClass, error) {
	media := make([]tg.InputMediaClass, 0, len(uploads))
	for index, upload := range uploads {
		if upload.document != nil {
			media = append(media, &tg.InputMediaDocument{ID: upload.document})
			continue
		}

		file, err := r.uploads.FromBytes(ctx, upload.fileName, upload.bytes)
		if err != nil {
			return nil, fmt.Errorf("upload file[%d] %s: %w", index, upload.fileName, err)
		}

		uploaded := &tg.InputMediaUploadedDocument{
			File:     file,
			MimeType: upload.mimeType,
			Attributes: []tg.DocumentAttributeClass{
				&tg.DocumentAttributeFilename{FileName: upload.fileName},
			},
		}
		media = append(media, uploaded)
	}

	return media, nil
}

func (r gotdOutboundRPC) registerAlbumMedia(
	ctx context.Context,
	peer tg.InputPeerClass,
	media tg.InputMediaClass,
) (tg.InputMediaClass, error) {
	if _, alreadyServerSide := media.(*tg.InputMediaDocument); alreadyServerSide {
		return media, nil
	}

	registered, err := r.raw.MessagesUploadMedia(ctx, &tg.MessagesUploadMediaRequest{
		Peer:  peer,
		Media: media,
	})
	if err != nil {
		return nil, fmt.Errorf("messages.uploadMedia: %w", err)
	}

	mediaDocument, ok := registered.(*tg.MessageMediaDocument)
	if !ok {
		return nil, fmt.Errorf("unexpected uploaded media kind %T", registered)
	}
	documentClass, ok := mediaDocument.GetDocument()
	if !ok {
		return nil, fmt.Errorf("uploaded media has no document")
	}
	document, ok := documentClass.(*tg.Document)
	if !ok {
		return nil, fmt.Errorf("unexpected uploaded document kind %T", documentClass)
	}

	return &tg.InputMediaDocument{
		ID: &tg.InputDocument{
			ID:            document.ID,
			AccessHash:    document.AccessHash,
			FileReference: append([]byte(nil), document.FileReference...),
		},
	}, nil
}

func (r gotdOutboundRPC) DeleteMessage(
	ctx context.Context,
	peer tg.InputPeerClass,
	messageID int,
	revoke bool,
) error {
	if revoke {
		if _, err := r.sender.To(peer).Revoke().Messages(ctx, messageID); err != nil {
			return fmt.Errorf("revoke delete message: %w", err)
		}

		return nil
	}

	if _, isChannel := peer.(*tg.InputPeerChannel); isChannel {
		return fmt.Errorf("%w: non-revoke channel delete", veil.ErrOutboundUnsupported)
	}

	if _, err := r.sender.Delete().Messages(ctx, messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	return nil
}

func (r gotdOutboundRPC) FetchMessage(
	ctx context.Context,
	peer tg.InputPeerClass,
	messageID int,
) (resolvedMessage, error) {
	return r.resolver.ResolveMessage(ctx, peer, messageID)
}

func (r gotdOutboundRPC) AnswerCallback(
	ctx context.Context,
	queryID int64,
	text string,
	showAlert bool,
) error {
	answerRequest := &tg.MessagesSetBotCallbackAnswerRequest{
		QueryID: queryID,
		Alert:   showAlert,
	}
	if text != "" {
		answerRequest.SetMessage(text)
	}

	if _, err := r.raw.MessagesSetBotCallbackAnswer(ctx, answerRequest); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}

	return nil
}

func sentMessageIDFromUpdates(updates tg.UpdatesClass) (int, error) {
	if messageID, err := unpack.MessageID(updates, nil); err == nil {
		return messageID, nil
	}

	var ids []int
	collect := func(list []tg.UpdateClass) {
		for _, update := range list {
			switch typed := update.(type) {
			case *tg.UpdateNewMessage:
				if sent, ok := typed.Message.(*tg.Message); ok {
					ids = append(ids, sent.ID)
				}
			case *tg.UpdateNewChannelMessage:
				if sent, ok := typed.Message.(*tg.Message); ok {
					ids = append(ids, sent.ID)
				}
			case *tg.UpdateMessageID:
				ids = append(ids, typed.ID)
			}
		}
	}
	switch typed := updates.(type) {
	case *tg.Updates:
		collect(typed.Updates)
	case *tg.UpdatesCombined:
		collect(typed.Updates)
	}

	if len(ids) == 0 {
		return 0, fmt.Errorf("no message id in updates %T", updates)
	}
	sort.Ints(ids)

	return ids[0], nil
}
