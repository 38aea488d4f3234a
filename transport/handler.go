package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"rockerboo/mcp-bridge/logger"

	"github.com/sourcegraph/jsonrpc2"
)

// NotificationHandler receives server-initiated notifications (log and
// progress events) read off the channel.
type NotificationHandler func(method string, params json.RawMessage)

// channelHandler handles incoming messages from the tool server
type channelHandler struct {
	name   string
	notify NotificationHandler
}

func (h *channelHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	if req.Notif {
		var params json.RawMessage
		if req.Params != nil {
			params = *req.Params
		}

		logger.Debug(fmt.Sprintf("[%s] notification %s: %s", h.name, req.Method, string(params)))

		if h.notify != nil {
			h.notify(req.Method, params)
		}

		return
	}

	// Liveness probes get an empty result so well-behaved servers don't
	// treat us as hung.
	if req.Method == "ping" {
		if err := conn.Reply(ctx, req.ID, map[string]any{}); err != nil {
			logger.Debug(fmt.Sprintf("[%s] failed to reply to ping: %v", h.name, err))
		}

		return
	}

	// Server-to-client requests (sampling, roots) are outside the bridge's
	// method surface.
	logger.Warn(fmt.Sprintf("[%s] rejecting server request %s", h.name, req.Method))

	rpcErr := &jsonrpc2.Error{
		Code:    jsonrpc2.CodeMethodNotFound,
		Message: "method not supported",
	}
	if replyErr := conn.ReplyWithError(ctx, req.ID, rpcErr); replyErr != nil {
		logger.Error(fmt.Sprintf("[%s] failed to reply with error: %v", h.name, replyErr))
	}
}
