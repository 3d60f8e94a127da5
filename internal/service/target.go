package service

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/dshills/jsinspect"
)

// target binds one registered protocol handler to at most one WebSocket
// frontend at a time.
type target struct {
	id               string
	handler          *jsinspect.Handler
	breakOnFirstLine bool
	log              *zap.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func newTarget(id string, handler *jsinspect.Handler, breakOnFirstLine bool, log *zap.Logger) *target {
	return &target{
		id:               id,
		handler:          handler,
		breakOnFirstLine: breakOnFirstLine,
		log:              log,
	}
}

// serve attaches conn as the target's frontend and pumps incoming protocol
// commands until the connection drops.
func (t *target) serve(conn *websocket.Conn) {
	err := t.handler.Connect(t.breakOnFirstLine, func(message string) {
		t.writeMu.Lock()
		defer t.writeMu.Unlock()
		if werr := conn.WriteMessage(websocket.TextMessage, []byte(message)); werr != nil {
			t.log.Warn("write frontend message", zap.String("target", t.id), zap.Error(werr))
		}
	})
	if err != nil {
		// A frontend is already attached.
		t.log.Warn("reject frontend connection", zap.String("target", t.id), zap.Error(err))
		_ = conn.Close()
		return
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if err := t.handler.SendCommand(string(data)); err != nil {
			t.log.Warn("send command", zap.String("target", t.id), zap.Error(err))
		}
	}

	t.mu.Lock()
	t.conn = nil
	t.mu.Unlock()

	if err := t.handler.Disconnect(); err != nil {
		t.log.Warn("disconnect", zap.String("target", t.id), zap.Error(err))
	}
	_ = conn.Close()
}

// disconnect drops the attached frontend, if any.
func (t *target) disconnect() {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn != nil {
		// Closing the socket unwinds serve, which disconnects the
		// handler.
		_ = conn.Close()
	}
}

// targetListJSON renders the discovery target list.
func targetListJSON(ids []string, port int, name, description, favIconURL string) string {
	sort.Strings(ids)

	list := "[]"
	for _, id := range ids {
		entry := "{}"
		entry, _ = sjson.Set(entry, "description", description)
		entry, _ = sjson.Set(entry, "devtoolsFrontendUrl", fmt.Sprintf(
			"chrome-devtools://devtools/bundled/inspector.html?experiments=true&v8only=true&ws=localhost:%d/%s",
			port, id))
		if favIconURL != "" {
			entry, _ = sjson.Set(entry, "faviconUrl", favIconURL)
		}
		entry, _ = sjson.Set(entry, "id", id)
		entry, _ = sjson.Set(entry, "title", name)
		entry, _ = sjson.Set(entry, "type", "node")
		entry, _ = sjson.Set(entry, "url", "file://")
		entry, _ = sjson.Set(entry, "webSocketDebuggerUrl", fmt.Sprintf("ws://localhost:%d/%s", port, id))

		list, _ = sjson.SetRaw(list, "-1", entry)
	}
	return list
}

// versionJSON renders the version endpoint body.
func versionJSON(version string) string {
	body := "{}"
	body, _ = sjson.Set(body, "Browser", fmt.Sprintf("JavaScript/v%s", version))
	body, _ = sjson.Set(body, "Protocol-Version", protocolVersion)
	return body
}
