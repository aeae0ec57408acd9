package status

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

func readStatus(t *testing.T, conn *websocket.Conn) Status {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var s Status
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("Unmarshal(%q): %v", data, err)
	}
	return s
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub()
	h.Info("loaded %d objects", 3)
	if h.Last() == nil {
		t.Fatalf("last message not stored")
	}

	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if s := readStatus(t, conn); s.Type != INFO || s.Message != "loaded 3 objects" {
		t.Errorf("replayed status %+v", s)
	}

	var zero float32
	h.Progress(zero/zero, "half")
	if s := readStatus(t, conn); s.Type != PROGRESS || s.Progress != 0 || s.Message != "half" {
		t.Errorf("progress status %+v", s)
	}

	h.Error("failed: %v", "boom")
	if s := readStatus(t, conn); s.Type != ERROR || s.Message != "failed: boom" {
		t.Errorf("error status %+v", s)
	}
}
