package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
)

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubOrderingAndReconnect(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	channel := UserChannel(uuid.New())

	clientA := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, channel)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventPlaybackProgress, Data: map[string]any{"minutes": 1}})
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventPlaybackQuizComplete})

	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventPlaybackProgress {
		t.Fatalf("first event = %s", got.Event)
	}
	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventPlaybackQuizComplete {
		t.Fatalf("second event = %s", got.Event)
	}

	hub.CloseClient(clientA)
	hub.CloseClient(clientA)
	if _, ok := <-clientA.Outbound; ok {
		t.Fatalf("outbound should be closed after disconnect")
	}
	if n := hub.Subscribers(channel); n != 0 {
		t.Fatalf("subscribers after close = %d", n)
	}

	clientB := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientB, channel)
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventPlaybackComplete})
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != SSEEventPlaybackComplete {
		t.Fatalf("reconnect event = %s", got.Event)
	}
}

func TestSSEHubIgnoresOtherChannels(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, "mine")
	hub.Broadcast(SSEMessage{Channel: "theirs", Event: SSEEventProfileUpdated})
	hub.Broadcast(SSEMessage{Event: SSEEventProfileUpdated})
	select {
	case msg := <-client.Outbound:
		t.Fatalf("unexpected message %+v", msg)
	default:
	}
}

func TestSSEHubServeHTTPWritesEvents(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, "c")

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sse/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		hub.ServeHTTP(rec, req, client)
		close(done)
	}()

	hub.Broadcast(SSEMessage{Channel: "c", Event: SSEEventAchievementEarned, Data: map[string]any{"code": "first_quiz"}})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "event: AchievementEarned\n") || !strings.Contains(body, `"code":"first_quiz"`) {
		t.Fatalf("body = %q", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}
}

func TestSSEHubCloseAll(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	a := hub.NewSSEClient(uuid.New())
	b := hub.NewSSEClient(uuid.New())
	hub.AddChannel(a, "one")
	hub.AddChannel(b, "two")
	hub.AddChannel(b, "three")

	hub.CloseAll()

	for _, ch := range []string{"one", "two", "three"} {
		if n := hub.Subscribers(ch); n != 0 {
			t.Fatalf("%s still has %d subscribers", ch, n)
		}
	}
	if _, ok := <-a.Outbound; ok {
		t.Fatalf("client a not closed")
	}
	if _, ok := <-b.Outbound; ok {
		t.Fatalf("client b not closed")
	}
}

func TestSSEHubRegisterReplacesSameSession(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	userID, session := uuid.New(), uuid.New()
	channel := UserChannel(userID)

	first := hub.NewSessionClient(userID, session)
	hub.Register(first)
	hub.AddChannel(first, channel)

	other := hub.NewSessionClient(userID, uuid.Nil)
	hub.Register(other)
	hub.AddChannel(other, channel)

	second := hub.NewSessionClient(userID, session)
	hub.Register(second)
	hub.AddChannel(second, channel)

	select {
	case <-first.Done():
	default:
		t.Fatalf("first stream should be closed by the reconnect")
	}
	if n := hub.Subscribers(channel); n != 2 {
		t.Fatalf("subscribers = %d, want 2", n)
	}

	// closing the replaced client again must not evict its successor
	hub.CloseClient(first)
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventProfileUpdated})
	if got := recvMessage(t, second.Outbound, time.Second); got.Event != SSEEventProfileUpdated {
		t.Fatalf("second got %s", got.Event)
	}
	if got := recvMessage(t, other.Outbound, time.Second); got.Event != SSEEventProfileUpdated {
		t.Fatalf("other got %s", got.Event)
	}
}
