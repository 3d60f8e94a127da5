package agent

import (
	"testing"

	"github.com/tidwall/gjson"

	"github.com/dshills/jsinspect/engine/enginetest"
	"github.com/dshills/jsinspect/internal/cdp"
	"github.com/dshills/jsinspect/internal/debug"
)

// notification is one captured frontend event.
type notification struct {
	method string
	params any
}

// fakeFrontend records everything the agents push toward the transport.
type fakeFrontend struct {
	responses     []int64
	failures      []error
	notifications []notification
}

func (f *fakeFrontend) SendResponse(id int64, result any) {
	f.responses = append(f.responses, id)
}

func (f *fakeFrontend) SendFailure(id int64, err error) {
	f.failures = append(f.failures, err)
}

func (f *fakeFrontend) SendNotification(method string, params any) {
	f.notifications = append(f.notifications, notification{method: method, params: params})
}

func (f *fakeFrontend) FlushNotifications() {}

// methods returns the captured notification methods in order.
func (f *fakeFrontend) methods() []string {
	out := make([]string, len(f.notifications))
	for i, n := range f.notifications {
		out[i] = n.method
	}
	return out
}

// count returns how many notifications used the given method.
func (f *fakeFrontend) count(method string) int {
	n := 0
	for _, note := range f.notifications {
		if note.method == method {
			n++
		}
	}
	return n
}

// last returns the most recent notification with the given method.
func (f *fakeFrontend) last(t *testing.T, method string) notification {
	t.Helper()
	for i := len(f.notifications) - 1; i >= 0; i-- {
		if f.notifications[i].method == method {
			return f.notifications[i]
		}
	}
	t.Fatalf("no %s notification captured; saw %v", method, f.methods())
	return notification{}
}

// nopHost satisfies the pump interfaces without a real protocol handler.
type nopHost struct {
	runIfWaitingCalls int
}

func (h *nopHost) ProcessCommandQueue()     {}
func (h *nopHost) WaitForDebugger()         {}
func (h *nopHost) ProcessDeferredGo()       {}
func (h *nopHost) Continue()                {}
func (h *nopHost) RunIfWaitingForDebugger() { h.runIfWaitingCalls++ }

// testRig bundles the pieces an agent test drives.
type testRig struct {
	eng      *enginetest.Engine
	core     *debug.Debugger
	frontend *fakeFrontend
	host     *nopHost
}

func newRig(t *testing.T) *testRig {
	t.Helper()

	eng := enginetest.New()
	host := &nopHost{}
	core, err := debug.New(eng, host)
	if err != nil {
		t.Fatalf("debug.New failed: %v", err)
	}

	return &testRig{
		eng:      eng,
		core:     core,
		frontend: &fakeFrontend{},
		host:     host,
	}
}

// request builds a protocol request with the given params JSON.
func request(paramsJSON string) *cdp.Request {
	return &cdp.Request{ID: 1, Method: "test", Params: gjson.Parse(paramsJSON)}
}
