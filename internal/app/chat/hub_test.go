package chat

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"chatrelay/internal/pkg/metrics"
)

type decodedFrame struct {
	Event string          `json:"event"`
	Ack   uint64          `json:"ack"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  int             `json:"code"`
}

func newHubClient(t *testing.T, h *Hub, id string) *Client {
	t.Helper()
	c := NewClient(id, h, nil, nil, nil)
	if err := h.Register(c); err != nil {
		t.Fatalf("Register(%s) error = %v", id, err)
	}
	return c
}

// drain returns every frame currently queued for c.
func drain(t *testing.T, c *Client) []decodedFrame {
	t.Helper()
	var frames []decodedFrame
	for {
		select {
		case b, ok := <-c.send:
			if !ok {
				return frames
			}
			var f decodedFrame
			if err := json.Unmarshal(b, &f); err != nil {
				t.Fatalf("queued frame is not JSON: %v", err)
			}
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func TestHubRoomMulticast(t *testing.T) {
	h := NewHub(nil)
	a := newHubClient(t, h, "a")
	b := newHubClient(t, h, "b")
	c := newHubClient(t, h, "c")

	h.JoinRoom("a", "party")
	h.JoinRoom("b", "party")
	h.JoinRoom("c", "other")

	h.EmitToRoom("party", EventMsg, Message{Username: "x", Text: "hello"})

	for _, cl := range []*Client{a, b} {
		frames := drain(t, cl)
		if len(frames) != 1 || frames[0].Event != EventMsg {
			t.Fatalf("%s frames = %+v", cl.ID, frames)
		}
		var m Message
		json.Unmarshal(frames[0].Data, &m)
		if m.Text != "hello" {
			t.Errorf("%s got text %q", cl.ID, m.Text)
		}
	}
	if frames := drain(t, c); len(frames) != 0 {
		t.Errorf("client in another room got %+v", frames)
	}
}

func TestHubBroadcastExcludesSender(t *testing.T) {
	h := NewHub(nil)
	a := newHubClient(t, h, "a")
	b := newHubClient(t, h, "b")
	h.JoinRoom("a", "party")
	h.JoinRoom("b", "party")

	h.BroadcastToRoom("party", "a", EventMsg, Message{Text: "b only"})

	if frames := drain(t, a); len(frames) != 0 {
		t.Errorf("excluded sender got %+v", frames)
	}
	if frames := drain(t, b); len(frames) != 1 {
		t.Errorf("other member got %d frames, want 1", len(frames))
	}
}

func TestHubEmitTo(t *testing.T) {
	h := NewHub(nil)
	a := newHubClient(t, h, "a")
	b := newHubClient(t, h, "b")

	h.EmitTo("a", EventMsg, Message{Text: "direct"})
	h.EmitTo("ghost", EventMsg, Message{Text: "nobody"})

	if frames := drain(t, a); len(frames) != 1 {
		t.Errorf("target got %d frames, want 1", len(frames))
	}
	if frames := drain(t, b); len(frames) != 0 {
		t.Errorf("non-target got %+v", frames)
	}
}

func TestHubJoinRoomUnknownConnection(t *testing.T) {
	h := NewHub(nil)

	if err := h.JoinRoom("ghost", "party"); !errors.Is(err, ErrUnknownConnection) {
		t.Errorf("JoinRoom() error = %v, want ErrUnknownConnection", err)
	}
}

func TestHubLeaveRoom(t *testing.T) {
	h := NewHub(nil)
	a := newHubClient(t, h, "a")
	h.JoinRoom("a", "party")

	h.LeaveRoom("a", "party")
	h.EmitToRoom("party", EventMsg, Message{})

	if frames := drain(t, a); len(frames) != 0 {
		t.Errorf("client got frames after leaving: %+v", frames)
	}
	if len(h.rooms) != 0 {
		t.Errorf("empty room group not removed: %v", h.rooms)
	}
}

func TestHubUnregister(t *testing.T) {
	h := NewHub(nil)
	a := newHubClient(t, h, "a")
	h.JoinRoom("a", "party")

	if !h.Unregister(a) {
		t.Fatal("Unregister() = false for registered client")
	}
	if h.Unregister(a) {
		t.Error("second Unregister() = true")
	}

	if _, ok := <-a.send; ok {
		t.Error("send queue not closed")
	}
	if h.ConnectionCount() != 0 {
		t.Errorf("ConnectionCount() = %d", h.ConnectionCount())
	}

	// emitting to a room whose only member is gone must not panic
	h.EmitToRoom("party", EventMsg, Message{})

	if err := h.JoinRoom("a", "party"); !errors.Is(err, ErrUnknownConnection) {
		t.Errorf("JoinRoom() after Unregister error = %v", err)
	}
}

func TestHubFullQueueClosesConnection(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	h := NewHub(m)
	a := newHubClient(t, h, "a")

	for range sendQueueSize {
		h.EmitTo("a", EventMsg, Message{})
	}
	h.EmitTo("a", EventMsg, Message{Text: "overflow"})

	if v := testutil.ToFloat64(m.DroppedFrames); v != 1 {
		t.Errorf("dropped_frames = %v, want 1", v)
	}
	if len(a.send) != sendQueueSize {
		t.Errorf("queue length = %d, want %d", len(a.send), sendQueueSize)
	}
}

func TestHubShutdown(t *testing.T) {
	h := NewHub(nil)
	a := newHubClient(t, h, "a")
	h.JoinRoom("a", "party")

	h.Shutdown()
	h.Shutdown()

	if _, ok := <-a.send; ok {
		t.Error("send queue not closed by Shutdown")
	}
	if h.Unregister(a) {
		t.Error("Unregister() after Shutdown should report false")
	}
	if err := h.Register(NewClient("b", h, nil, nil, nil)); !errors.Is(err, ErrHubClosed) {
		t.Errorf("Register() after Shutdown error = %v", err)
	}

	h.EmitToRoom("party", EventMsg, Message{})
}

func TestHubAckFrame(t *testing.T) {
	h := NewHub(nil)
	a := newHubClient(t, h, "a")

	a.ack(7, nil)
	a.ack(0, nil)

	frames := drain(t, a)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].Event != EventAck || frames[0].Ack != 7 || frames[0].Error != "" {
		t.Errorf("ack frame = %+v", frames[0])
	}
}
