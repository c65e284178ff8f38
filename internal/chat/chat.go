package chat

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"aioep/internal/llmclient"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type inbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type outbound struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

const advisorSystemPrompt = "You are a strategy advisor embedded in an enterprise planning dashboard. " +
	"Answer questions about strategic drivers, goals, initiatives and ArchiMate motivation modeling. " +
	"Be concise and concrete."

// Handler bridges a websocket conversation to the configured model provider.
// Each message is answered as a stream of text deltas when the provider
// supports it, or as a single message otherwise.
type Handler struct {
	client llmclient.Client
}

func NewHandler(client llmclient.Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		log.Printf("chat ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	writeCh := make(chan outbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		// A dead writer must release anyone blocked in push.
		defer cancel()
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	push(ctx, writeCh, outbound{Type: "ready"})

	for {
		var in inbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch in.Type {
		case "message":
			text := strings.TrimSpace(in.Text)
			if text == "" {
				push(ctx, writeCh, outbound{Type: "error", Code: "invalid_argument", Message: "text is required"})
				continue
			}
			h.respond(ctx, writeCh, text)
		case "ping":
			push(ctx, writeCh, outbound{Type: "pong"})
		default:
			push(ctx, writeCh, outbound{Type: "error", Code: "invalid_argument", Message: "unknown message type"})
		}
	}
}

func (h *Handler) respond(ctx context.Context, writeCh chan outbound, text string) {
	if s, ok := h.client.(llmclient.Streamer); ok {
		_, err := s.CompleteStream(ctx, advisorSystemPrompt, text, func(chunk string) {
			push(ctx, writeCh, outbound{Type: "delta", Text: chunk})
		})
		if err != nil {
			push(ctx, writeCh, outbound{Type: "error", Code: "upstream", Message: err.Error()})
			return
		}
		push(ctx, writeCh, outbound{Type: "done"})
		return
	}

	full, err := h.client.Complete(ctx, advisorSystemPrompt, text)
	if err != nil {
		push(ctx, writeCh, outbound{Type: "error", Code: "upstream", Message: err.Error()})
		return
	}
	push(ctx, writeCh, outbound{Type: "delta", Text: full})
	push(ctx, writeCh, outbound{Type: "done"})
}

func push(ctx context.Context, ch chan outbound, out outbound) {
	select {
	case <-ctx.Done():
	case ch <- out:
	}
}
