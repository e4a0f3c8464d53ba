package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/tg"
)

// errMessageNotFound marks a fetch of a message that no longer exists.
var errMessageNotFound = errors.New("telegram message not found")

type gotdMessagesAPI interface {
	MessagesGetMessages(ctx context.Context, id []tg.InputMessageClass) (tg.MessagesMessagesClass, error)
	ChannelsGetMessages(ctx context.Context, request *tg.ChannelsGetMessagesRequest) (tg.MessagesMessagesClass, error)
}

// GotdMessageResolver fetches single messages by ID through Telegram API methods.
//
// Channel peers require channels.getMessages; every other peer kind goes
// through messages.getMessages.
type GotdMessageResolver struct {
	api gotdMessagesAPI
}

// NewGotdMessageResolver creates a resolver backed by a gotd tg.Client-like API.
func NewGotdMessageResolver(api gotdMessagesAPI) (*GotdMessageResolver, error) {
	if api == nil {
		return nil, fmt.Errorf("new gotd message resolver: nil api")
	}

	return &GotdMessageResolver{
		api: api,
	}, nil
}

// resolvedMessage bundles a fetched message with its entity context.
type resolvedMessage struct {
	message   *tg.Message
	usersByID map[int64]*tg.User
	chatsByID map[int64]gotdChatInfo
}

// ResolveMessage fetches one message by ID for the given peer.
func (r *GotdMessageResolver) ResolveMessage(
	ctx context.Context,
	peer tg.InputPeerClass,
	messageID int,
) (resolvedMessage, error) {
	if r == nil || r.api == nil {
		return resolvedMessage{}, fmt.Errorf("resolve message: nil resolver")
	}
	if peer == nil {
		return resolvedMessage{}, fmt.Errorf("resolve message: nil peer")
	}
	if messageID <= 0 {
		return resolvedMessage{}, fmt.Errorf("resolve message: invalid message id %d", messageID)
	}

	messages, err := r.fetchMessages(ctx, peer, messageID)
	if err != nil {
		return resolvedMessage{}, err
	}

	resolved, found := findMessageByID(messages, messageID)
	if !found {
		return resolvedMessage{}, fmt.Errorf("resolve message %d: %w", messageID, errMessageNotFound)
	}

	return resolved, nil
}

func (r *GotdMessageResolver) fetchMessages(
	ctx context.Context,
	peer tg.InputPeerClass,
	messageID int,
) (tg.MessagesMessagesClass, error) {
	inputID := []tg.InputMessageClass{&tg.InputMessageID{ID: messageID}}

	if channel, ok := peer.(*tg.InputPeerChannel); ok {
		messages, err := r.api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
			Channel: &tg.InputChannel{
				ChannelID:  channel.ChannelID,
				AccessHash: channel.AccessHash,
			},
			ID: inputID,
		})
		if err != nil {
			return nil, fmt.Errorf("channels.getMessages: %w", err)
		}

		return messages, nil
	}

	messages, err := r.api.MessagesGetMessages(ctx, inputID)
	if err != nil {
		return nil, fmt.Errorf("messages.getMessages: %w", err)
	}

	return messages, nil
}

func findMessageByID(messages tg.MessagesMessagesClass, messageID int) (resolvedMessage, bool) {
	var (
		items []tg.MessageClass
		users []tg.UserClass
		chats []tg.ChatClass
	)
	switch typed := messages.(type) {
	case *tg.MessagesMessages:
		items, users, chats = typed.Messages, typed.Users, typed.Chats
	case *tg.MessagesMessagesSlice:
		items, users, chats = typed.Messages, typed.Users, typed.Chats
	case *tg.MessagesChannelMessages:
		items, users, chats = typed.Messages, typed.Users, typed.Chats
	default:
		return resolvedMessage{}, false
	}

	for _, item := range items {
		message, ok := item.(*tg.Message)
		if !ok || message.ID != messageID {
			continue
		}

		return resolvedMessage{
			message:   message,
			usersByID: indexGotdUsers(users),
			chatsByID: indexGotdChats(chats),
		}, true
	}

	return resolvedMessage{}, false
}
