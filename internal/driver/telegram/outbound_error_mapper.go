package telegram

import (
	"context"
	"errors"
	"net"
	"strings"

	"veilbot/pkg/veil"

	"github.com/gotd/td/tgerr"
)

func mapTelegramOutboundError(
	operation veil.OutboundOperation,
	sink veil.SinkRef,
	err error,
) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, veil.ErrInvalidOutboundRequest) || errors.Is(err, veil.ErrOutboundUnsupported) {
		return err
	}

	outboundErr := &veil.OutboundError{
		Operation: operation,
		Kind:      veil.OutboundErrorKindUnknown,
		Platform:  sink.Platform,
		SinkID:    sink.ID,
		Cause:     err,
	}

	if errors.Is(err, errMessageNotFound) {
		outboundErr.Kind = veil.OutboundErrorKindNotFound

		return outboundErr
	}

	if retryAfter, ok := tgerr.AsFloodWait(err); ok {
		outboundErr.Kind = veil.OutboundErrorKindRateLimited
		outboundErr.RetryAfter = retryAfter
		if rpcErr, hasRPC := tgerr.As(err); hasRPC {
			outboundErr.Code = rpcErr.Code
			outboundErr.Type = rpcErr.Type
		}

		return outboundErr
	}

	rpcErr, ok := tgerr.As(err)
	if !ok {
		outboundErr.Kind = classifyTransportError(err)

		return outboundErr
	}

	outboundErr.Code = rpcErr.Code
	outboundErr.Type = rpcErr.Type
	outboundErr.Kind = classifyTelegramRPCError(rpcErr)

	return outboundErr
}

func classifyTelegramRPCError(rpcErr *tgerr.Error) veil.OutboundErrorKind {
	if rpcErr == nil {
		return veil.OutboundErrorKindUnknown
	}

	errorType := strings.ToUpper(strings.TrimSpace(rpcErr.Type))
	if rpcErr.Code == 420 || rpcErr.Code == 429 || strings.Contains(errorType, "FLOOD") {
		return veil.OutboundErrorKindRateLimited
	}

	switch rpcErr.Code {
	case 401, 403:
		return veil.OutboundErrorKindForbidden
	case 400, 404, 405, 406:
		if isTelegramNotFoundType(errorType) {
			return veil.OutboundErrorKindNotFound
		}

		return veil.OutboundErrorKindInvalid
	}
	if rpcErr.Code >= 500 {
		return veil.OutboundErrorKindInternal
	}

	return veil.OutboundErrorKindUnknown
}

// isTelegramNotFoundType matches 400-class types that really mean a missing
// target rather than malformed request content.
func isTelegramNotFoundType(errorType string) bool {
	switch {
	case strings.Contains(errorType, "NOT_FOUND"),
		strings.Contains(errorType, "MESSAGE_ID_INVALID"),
		strings.Contains(errorType, "MSG_ID_INVALID"),
		strings.Contains(errorType, "MESSAGE_EMPTY"),
		strings.Contains(errorType, "PEER_ID_INVALID"),
		strings.Contains(errorType, "USER_ID_INVALID"),
		strings.Contains(errorType, "CHANNEL_INVALID"),
		strings.Contains(errorType, "CHAT_ID_INVALID"):
		return true
	default:
		return false
	}
}

func classifyTransportError(err error) veil.OutboundErrorKind {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return veil.OutboundErrorKindNetwork
	default:
		return veil.OutboundErrorKindUnknown
	}
}
