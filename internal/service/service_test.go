package service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"github.com/dshills/jsinspect"
	"github.com/dshills/jsinspect/engine/enginetest"
)

func newTestService(t *testing.T) (*Service, *jsinspect.Handler, *enginetest.Engine) {
	t.Helper()

	eng := enginetest.New()
	handler, err := jsinspect.New(eng)
	if err != nil {
		t.Fatalf("jsinspect.New failed: %v", err)
	}
	t.Cleanup(handler.Close)

	svc := New(WithName("Test Instance", "A test"), WithVersion("1.2.3"))
	return svc, handler, eng
}

func listen(t *testing.T, svc *Service) int {
	t.Helper()
	if err := svc.Listen(0); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc.Port()
}

func get(t *testing.T, port int, path string) (string, http.Header) {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d%s", port, path))
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body), resp.Header
}

func TestService_VersionEndpoint(t *testing.T) {
	svc, _, _ := newTestService(t)
	port := listen(t, svc)

	body, headers := get(t, port, "/json/version")

	if got := gjson.Get(body, "Browser").String(); got != "JavaScript/v1.2.3" {
		t.Errorf("Browser = %q", got)
	}
	if got := gjson.Get(body, "Protocol-Version").String(); got != "1.2" {
		t.Errorf("Protocol-Version = %q", got)
	}
	if ct := headers.Get("Content-Type"); ct != "application/json; charset=UTF-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := headers.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}
}

func TestService_ProtocolEndpoint(t *testing.T) {
	svc, _, _ := newTestService(t)
	port := listen(t, svc)

	body, _ := get(t, port, "/json/protocol")
	if body != "{}" {
		t.Errorf("body = %q", body)
	}
}

func TestService_ListEndpoint(t *testing.T) {
	svc, handler, _ := newTestService(t)
	id := svc.RegisterHandler("target-1", handler, false)
	if id != "target-1" {
		t.Fatalf("id = %q", id)
	}
	port := listen(t, svc)

	for _, path := range []string{"/json", "/json/list"} {
		body, _ := get(t, port, path)

		var targets []map[string]any
		if err := json.Unmarshal([]byte(body), &targets); err != nil {
			t.Fatalf("%s: invalid JSON: %v", path, err)
		}
		if len(targets) != 1 {
			t.Fatalf("%s: expected 1 target, got %d", path, len(targets))
		}

		target := targets[0]
		if target["id"] != "target-1" {
			t.Errorf("id = %v", target["id"])
		}
		if target["title"] != "Test Instance" {
			t.Errorf("title = %v", target["title"])
		}
		if target["type"] != "node" {
			t.Errorf("type = %v", target["type"])
		}
		wantWS := fmt.Sprintf("ws://localhost:%d/target-1", port)
		if target["webSocketDebuggerUrl"] != wantWS {
			t.Errorf("webSocketDebuggerUrl = %v, want %s", target["webSocketDebuggerUrl"], wantWS)
		}
		if !strings.Contains(target["devtoolsFrontendUrl"].(string), "inspector.html") {
			t.Errorf("devtoolsFrontendUrl = %v", target["devtoolsFrontendUrl"])
		}
	}
}

func TestService_GeneratedTargetID(t *testing.T) {
	svc, handler, _ := newTestService(t)

	id := svc.RegisterHandler("", handler, false)
	if id == "" {
		t.Fatal("expected a generated id")
	}

	svc.UnregisterHandler(id)
}

func TestService_UnknownTargetNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	port := listen(t, svc)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/no-such-target", port))
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestService_WebSocketRoundTrip(t *testing.T) {
	svc, handler, eng := newTestService(t)
	svc.RegisterHandler("t", handler, false)
	port := listen(t, svc)

	// Stand-in engine thread: pump command processing while the test
	// talks over the socket.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				eng.PumpAsyncBreak()
				handler.ProcessCommandQueue()
			}
		}
	}()

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://127.0.0.1:%d/t", port), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"id":1,"method":"Schema.getDomains"}`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if gjson.GetBytes(data, "id").Int() != 1 {
		t.Errorf("response = %s", data)
	}
	if len(gjson.GetBytes(data, "result.domains").Array()) != 3 {
		t.Errorf("domains = %s", gjson.GetBytes(data, "result.domains").Raw)
	}
}

func TestTargetListJSON_Empty(t *testing.T) {
	if got := targetListJSON(nil, 9229, "n", "d", ""); got != "[]" {
		t.Errorf("empty list = %q", got)
	}
}

func TestTargetListJSON_FavIcon(t *testing.T) {
	withIcon := targetListJSON([]string{"a"}, 1, "n", "d", "http://icon")
	if gjson.Get(withIcon, "0.faviconUrl").String() != "http://icon" {
		t.Errorf("faviconUrl missing: %s", withIcon)
	}

	withoutIcon := targetListJSON([]string{"a"}, 1, "n", "d", "")
	if gjson.Get(withoutIcon, "0.faviconUrl").Exists() {
		t.Errorf("faviconUrl should be absent: %s", withoutIcon)
	}
}
