package chat

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"aioep/internal/llmclient"
)

func dial(t *testing.T) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(NewHandler(llmclient.NewMockClient()))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) outbound {
	t.Helper()
	var out outbound
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func TestChatStreamsDeltasThenDone(t *testing.T) {
	conn := dial(t)
	require.Equal(t, "ready", readMsg(t, conn).Type)

	require.NoError(t, conn.WriteJSON(inbound{Type: "message", Text: "what is a driver?"}))

	var full strings.Builder
	for {
		out := readMsg(t, conn)
		if out.Type == "done" {
			break
		}
		require.Equal(t, "delta", out.Type)
		full.WriteString(out.Text)
	}
	require.NotEmpty(t, full.String())
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	conn := dial(t)
	require.Equal(t, "ready", readMsg(t, conn).Type)

	require.NoError(t, conn.WriteJSON(inbound{Type: "message", Text: "   "}))
	out := readMsg(t, conn)
	require.Equal(t, "error", out.Type)
	require.Equal(t, "invalid_argument", out.Code)
}

// floodClient streams far more chunks than the write buffer holds and
// signals when the stream call returns.
type floodClient struct {
	done chan struct{}
}

func (f *floodClient) Name() string { return "flood" }
func (f *floodClient) Close() error { return nil }

func (f *floodClient) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	return "ok", nil
}

func (f *floodClient) CompleteStream(ctx context.Context, systemPrompt, userMessage string, onChunk func(chunk string)) (string, error) {
	defer close(f.done)
	for i := 0; i < 200; i++ {
		onChunk("chunk ")
	}
	return "ok", nil
}

func TestChatDisconnectMidStreamDoesNotBlockResponder(t *testing.T) {
	client := &floodClient{done: make(chan struct{})}
	srv := httptest.NewServer(NewHandler(client))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	var out outbound
	require.NoError(t, conn.ReadJSON(&out))
	require.Equal(t, "ready", out.Type)

	require.NoError(t, conn.WriteJSON(inbound{Type: "message", Text: "stream a lot"}))
	// Drop the connection while deltas are still being produced. The dead
	// writer has to cancel the context so the streaming goroutine finishes
	// instead of blocking on a full write channel forever.
	require.NoError(t, conn.Close())

	select {
	case <-client.done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream callback still blocked after client disconnect")
	}
}

func TestChatUnknownType(t *testing.T) {
	conn := dial(t)
	require.Equal(t, "ready", readMsg(t, conn).Type)

	require.NoError(t, conn.WriteJSON(inbound{Type: "subscribe"}))
	out := readMsg(t, conn)
	require.Equal(t, "error", out.Type)
}
