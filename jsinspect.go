// Package jsinspect bridges a single-threaded JavaScript engine's
// diagnostic API to the Chrome DevTools Protocol. A Handler owns the
// debugging session over one engine runtime: a DevTools-style frontend
// connects through a transport of the embedder's choosing, sends protocol
// commands with SendCommand, and receives responses and notifications
// through the response callback.
//
// The embedder supplies the engine as an engine.Diagnostics implementation
// and keeps the single-engine-thread discipline: only Connect, Disconnect,
// SendCommand, SendRequest and SetCommandQueueCallback may be called from
// other threads.
package jsinspect

import (
	"go.uber.org/zap"

	"github.com/dshills/jsinspect/engine"
	"github.com/dshills/jsinspect/internal/handler"
)

// ResponseCallback receives serialized protocol messages bound for the
// frontend, invoked synchronously on the engine thread.
type ResponseCallback func(message string)

// Option configures a Handler.
type Option func(*options)

type options struct {
	handlerOpts []handler.Option
}

// WithLogger installs a logger for protocol dispatch tracing.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		o.handlerOpts = append(o.handlerOpts, handler.WithLogger(log))
	}
}

// WithStrictCompileErrors makes Runtime.compileScript fail on compile
// errors instead of reporting them through exceptionDetails on a successful
// response.
func WithStrictCompileErrors() Option {
	return func(o *options) {
		o.handlerOpts = append(o.handlerOpts, handler.WithStrictCompileErrors())
	}
}

// Handler is the protocol handler bound to one engine runtime.
type Handler struct {
	inner *handler.Handler
}

// New creates a handler over runtime and starts engine debugging.
func New(runtime engine.Diagnostics, opts ...Option) (*Handler, error) {
	if runtime == nil {
		return nil, errRuntimeRequired
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	inner, err := handler.New(runtime, o.handlerOpts...)
	if err != nil {
		return nil, err
	}
	return &Handler{inner: inner}, nil
}

// Close stops engine debugging. Shutdown failures are swallowed so teardown
// always completes.
func (h *Handler) Close() {
	h.inner.Close()
}

// Connect attaches a frontend. breakOnFirstLine pauses execution at the
// first statement once the frontend releases startup with
// Runtime.runIfWaitingForDebugger. Fails while another frontend is
// connected. Safe to call from any thread.
func (h *Handler) Connect(breakOnFirstLine bool, callback ResponseCallback) error {
	if callback == nil {
		return errCallbackRequired
	}
	return h.inner.Connect(breakOnFirstLine, handler.ResponseCallback(callback))
}

// Disconnect detaches the connected frontend. Safe to call from any
// thread.
func (h *Handler) Disconnect() error {
	return h.inner.Disconnect()
}

// SendCommand submits one raw protocol command for processing on the
// engine thread. Safe to call from any thread.
func (h *Handler) SendCommand(command string) error {
	if command == "" {
		return errCommandRequired
	}
	return h.inner.SendCommand(command)
}

// SendRequest submits an internal host request (Debugger.go,
// Debugger.deferredGo, Debugger.stepInto, Console.log). Safe to call from
// any thread.
func (h *Handler) SendRequest(request string) error {
	return h.inner.SendRequest(request)
}

// SetCommandQueueCallback registers a callback fired whenever SendCommand
// enqueues work, letting the embedder schedule a ProcessCommandQueue on the
// engine thread. Safe to call from any thread.
func (h *Handler) SetCommandQueueCallback(callback func()) {
	h.inner.SetCommandQueueCallback(callback)
}

// ProcessCommandQueue drains pending protocol commands. Engine thread
// only.
func (h *Handler) ProcessCommandQueue() {
	h.inner.ProcessCommandQueue()
}

// WaitForDebugger blocks the engine thread pumping protocol commands until
// a frontend connects and releases startup. Engine thread only.
func (h *Handler) WaitForDebugger() {
	h.inner.WaitForDebugger()
}

// ConsoleAPIEvent forwards a console call to the connected frontend as a
// Runtime.consoleAPICalled notification. Engine thread only.
func (h *Handler) ConsoleAPIEvent(kind string, args []any) {
	h.inner.ConsoleAPIEvent(kind, args)
}
