package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/blossom-engine/internal/services/events"
	"github.com/jwebster45206/blossom-engine/pkg/engine"
	"github.com/jwebster45206/blossom-engine/pkg/storage"
)

func newEventsFixture(t *testing.T) (*events.Broadcaster, *storage.MockStorage, *httptest.Server) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	broadcaster := events.NewBroadcaster(client, testLogger())
	store := storage.NewMockStorage()
	server := httptest.NewServer(NewEventsHandler(broadcaster, store, testLogger()))
	t.Cleanup(server.Close)
	return broadcaster, store, server
}

// readEvents streams "event:" names from an SSE body until it closes.
func readEvents(body *bufio.Scanner) <-chan string {
	out := make(chan string, 16)
	go func() {
		defer close(out)
		for body.Scan() {
			if name, ok := strings.CutPrefix(body.Text(), "event: "); ok {
				out <- name
			}
		}
	}()
	return out
}

func nextEvent(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case name, ok := <-ch:
		require.True(t, ok, "stream closed")
		return name
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for SSE event")
		return ""
	}
}

func TestEventsHandler_StreamsSessionEvents(t *testing.T) {
	broadcaster, store, server := newEventsFixture(t)
	id := uuid.New()
	require.NoError(t, store.SaveSession(context.Background(), id, []byte(`{}`)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/v1/events/sessions/"+id.String(), nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	names := readEvents(bufio.NewScanner(resp.Body))
	assert.Equal(t, "connected", nextEvent(t, names))

	frames := []engine.Frame{{Kind: engine.FrameNarration, Text: "Petals drift on the water."}}
	require.NoError(t, broadcaster.PublishFrames(context.Background(), id, frames))
	assert.Equal(t, string(events.EventTypeFrame), nextEvent(t, names))

	require.NoError(t, broadcaster.PublishSessionEnded(context.Background(), id, "A", "normal"))
	assert.Equal(t, string(events.EventTypeSessionEnded), nextEvent(t, names))
}

func TestEventsHandler_Errors(t *testing.T) {
	_, _, server := newEventsFixture(t)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{name: "unknown session", method: http.MethodGet, path: "/v1/events/sessions/" + uuid.NewString(), expectedStatus: http.StatusNotFound},
		{name: "bad id", method: http.MethodGet, path: "/v1/events/sessions/nope", expectedStatus: http.StatusBadRequest},
		{name: "bad path", method: http.MethodGet, path: "/v1/events/games/" + uuid.NewString(), expectedStatus: http.StatusBadRequest},
		{name: "post", method: http.MethodPost, path: "/v1/events/sessions/" + uuid.NewString(), expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, server.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}
