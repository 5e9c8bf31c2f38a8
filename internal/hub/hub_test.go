package hub

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedEvent struct {
	Type string `json:"type"`
}

func (e namedEvent) EventName() string { return e.Type }

func TestEncode(t *testing.T) {
	msg, err := encode(namedEvent{Type: "graph_published"})
	require.NoError(t, err)
	assert.Equal(t, "event: graph_published\ndata: {\"type\":\"graph_published\"}\n\n", string(msg))

	msg, err = encode(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.Equal(t, "data: {\"n\":1}\n\n", string(msg))

	_, err = encode(make(chan int))
	assert.Error(t, err)
}

func TestHubBroadcast(t *testing.T) {
	h := New(log.New(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.Broadcast(namedEvent{Type: "fetch_failed"})

	var lines []string
	for len(lines) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	assert.Equal(t, "event: fetch_failed", lines[0])
	assert.Equal(t, `data: {"type":"fetch_failed"}`, lines[1])
}

func TestHubShutdownClosesClients(t *testing.T) {
	h := New(log.New(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()

	// Stream ends once the hub closes the client
	_, err = io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Zero(t, h.ClientCount())
}
