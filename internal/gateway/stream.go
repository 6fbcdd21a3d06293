package gateway

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/log"

	"github.com/compresr/model-adapters/internal/monitoring"
)

// handleChatStream upgrades to a websocket, reads one ChatRequest and
// streams the reply as chunk frames followed by a done frame. Failures are
// reported as an error frame before a normal close.
func (g *Gateway) handleChatStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		log.Debug().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	requestID := monitoring.RequestIDFromContext(ctx)

	var req ChatRequest
	if err := wsjson.Read(ctx, conn, &req); err != nil {
		g.alerts.FlagInvalidRequest(requestID, err.Error())
		conn.Close(websocket.StatusUnsupportedData, "invalid request")
		return
	}

	fail := func(err error) {
		_ = wsjson.Write(ctx, conn, StreamFrame{Type: FrameError, Error: err.Error()})
		conn.Close(websocket.StatusNormalClosure, "")
	}

	p, err := g.prepare(ctx, req)
	if err != nil {
		fail(err)
		return
	}

	out, streamed, err := g.invoke(ctx, p, func(text string) error {
		return wsjson.Write(ctx, conn, StreamFrame{Type: FrameChunk, Text: text})
	})
	if err != nil {
		fail(err)
		return
	}

	if !streamed && out.Text != "" {
		if err := wsjson.Write(ctx, conn, StreamFrame{Type: FrameChunk, Text: out.Text}); err != nil {
			return
		}
	}
	usage := out.Usage
	if err := wsjson.Write(ctx, conn, StreamFrame{Type: FrameDone, StopReason: out.StopReason, Usage: &usage}); err != nil {
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}
