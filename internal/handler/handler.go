package handler

import (
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/jsinspect/engine"
	"github.com/dshills/jsinspect/internal/agent"
	"github.com/dshills/jsinspect/internal/cdp"
	"github.com/dshills/jsinspect/internal/debug"
)

// commandKind tags one command queue entry.
type commandKind int

const (
	commandConnect commandKind = iota
	commandDisconnect
	commandMessageReceived
	commandHostRequest
)

// command is one entry of the cross-thread command queue.
type command struct {
	kind    commandKind
	payload string
}

// StartupState tracks what happens at the first break after connect.
type StartupState int

const (
	// StartupPause stays paused in the debugger at the first break.
	StartupPause StartupState = iota
	// StartupContinue continues when the debugger connects.
	StartupContinue
	// StartupRunning means startup has completed.
	StartupRunning
)

// Host request tokens accepted on the internal request channel.
const (
	HostRequestGo         = "Debugger.go"
	HostRequestDeferredGo = "Debugger.deferredGo"
	HostRequestStepInto   = "Debugger.stepInto"
	HostRequestConsoleLog = "Console.log"
)

// ResponseCallback receives serialized protocol responses and notifications
// bound for the frontend. It is invoked synchronously on the engine thread.
type ResponseCallback func(message string)

// Option configures a Handler.
type Option func(*Handler)

// WithLogger installs a logger for command dispatch tracing.
func WithLogger(log *zap.Logger) Option {
	return func(h *Handler) { h.log = log }
}

// WithStrictCompileErrors makes Runtime.compileScript fail on compile
// errors instead of reporting them through exceptionDetails.
func WithStrictCompileErrors() Option {
	return func(h *Handler) { h.strictCompileErrors = true }
}

// Handler owns the debugging lifecycle for one engine runtime: it accepts
// protocol commands from transport threads, drains them on the engine
// thread, and emits responses and notifications back through the response
// callback.
type Handler struct {
	eng      engine.Diagnostics
	debugger *debug.Debugger

	dispatcher *cdp.Dispatcher
	log        *zap.Logger

	mu                   sync.Mutex
	commandWaiting       *sync.Cond
	commandQueue         []command
	responseCallback     ResponseCallback
	commandQueueCallback func()

	// Engine-thread state: touched only after each entry path has
	// released the handler mutex, except breakOnConnect and startupState,
	// which Connect and Disconnect also write under the mutex.
	isConnected            bool
	waitingForDebugger     bool
	breakOnConnect         bool
	startupState           StartupState
	deferredGo             bool
	processingCommandQueue bool
	strictCompileErrors    bool

	consoleAgent  *agent.ConsoleAgent
	debuggerAgent *agent.DebuggerAgent
	runtimeAgent  *agent.RuntimeAgent
	schemaAgent   *agent.SchemaAgent
}

// New creates a handler over the engine and starts its debugging session.
func New(eng engine.Diagnostics, opts ...Option) (*Handler, error) {
	h := &Handler{
		eng:          eng,
		log:          zap.NewNop(),
		startupState: StartupRunning,
	}
	h.commandWaiting = sync.NewCond(&h.mu)
	h.dispatcher = cdp.NewDispatcher(h)

	for _, opt := range opts {
		opt(h)
	}

	debugger, err := debug.New(eng, h)
	if err != nil {
		return nil, err
	}
	h.debugger = debugger

	return h, nil
}

// Close stops the debugging session, swallowing shutdown errors.
func (h *Handler) Close() {
	h.debugger.Close()
}

// Connect attaches a frontend. breakOnFirstLine selects whether execution
// pauses at the first statement once the frontend releases startup. Safe to
// call from any thread; fails while another frontend is connected.
func (h *Handler) Connect(breakOnFirstLine bool, callback ResponseCallback) error {
	if callback == nil {
		return ErrCallbackRequired
	}

	h.mu.Lock()
	if h.responseCallback != nil {
		h.mu.Unlock()
		return ErrAlreadyConnected
	}

	h.responseCallback = callback
	h.breakOnConnect = breakOnFirstLine
	if breakOnFirstLine {
		h.startupState = StartupPause
	} else {
		h.startupState = StartupContinue
	}
	h.enqueueLocked(commandConnect, "")
	h.mu.Unlock()

	return h.debugger.RequestAsyncBreak()
}

// Disconnect detaches the connected frontend. Safe to call from any thread.
func (h *Handler) Disconnect() error {
	h.mu.Lock()
	if h.responseCallback == nil {
		h.mu.Unlock()
		return ErrNotConnected
	}

	h.responseCallback = nil
	h.breakOnConnect = false
	h.enqueueLocked(commandDisconnect, "")
	h.mu.Unlock()

	return h.debugger.RequestAsyncBreak()
}

// SendCommand enqueues a raw protocol command for the engine thread and
// requests an async break so it is picked up soon. Safe to call from any
// thread.
func (h *Handler) SendCommand(cmd string) error {
	if cmd == "" {
		return ErrCommandRequired
	}

	h.mu.Lock()
	h.enqueueLocked(commandMessageReceived, cmd)
	queueCallback := h.commandQueueCallback
	h.mu.Unlock()

	err := h.debugger.RequestAsyncBreak()

	if queueCallback != nil {
		// Notify the host that the queue has work.
		queueCallback()
	}

	return err
}

// SendRequest enqueues an internal host request. Safe to call from any
// thread.
func (h *Handler) SendRequest(request string) error {
	h.mu.Lock()
	h.enqueueLocked(commandHostRequest, request)
	h.mu.Unlock()

	return h.debugger.RequestAsyncBreak()
}

// SetCommandQueueCallback registers a callback fired whenever SendCommand
// enqueues work. Safe to call from any thread.
func (h *Handler) SetCommandQueueCallback(callback func()) {
	h.mu.Lock()
	h.commandQueueCallback = callback
	h.mu.Unlock()
}

// ConsoleAPIEvent forwards a console call from the engine's console object
// to the connected frontend. Engine thread only.
func (h *Handler) ConsoleAPIEvent(kind string, args []any) {
	if h.runtimeAgent != nil {
		h.runtimeAgent.ConsoleAPIEvent(kind, args)
	}
}

// WaitForDebugger blocks the engine thread pumping commands until a
// frontend releases startup via Runtime.runIfWaitingForDebugger or the
// debugger resumes.
func (h *Handler) WaitForDebugger() {
	h.waitingForDebugger = true
	h.ProcessCommandQueue()
}

// RunIfWaitingForDebugger releases a WaitForDebugger pump. When the
// frontend asked to break on first line, a pause is scheduled before
// execution proceeds.
func (h *Handler) RunIfWaitingForDebugger() {
	if h.startupState == StartupPause {
		h.debugger.PauseOnNextStatement()
	}
	h.waitingForDebugger = false
}

// Continue releases the pump so script execution resumes and marks startup
// complete.
func (h *Handler) Continue() {
	h.waitingForDebugger = false
	h.startupState = StartupRunning
}

// ProcessDeferredGo turns a pending deferred resume into the next queued
// host request. The debugger core invokes it just before entering the
// nested wait.
func (h *Handler) ProcessDeferredGo() {
	if h.deferredGo {
		h.deferredGo = false
		_ = h.SendRequest(HostRequestGo)
	}
}

// ProcessCommandQueue drains the command queue on the engine thread,
// blocking on the command condition while waiting for the debugger. A
// nested call returns immediately.
func (h *Handler) ProcessCommandQueue() {
	if h.processingCommandQueue {
		return
	}
	h.processingCommandQueue = true
	defer func() { h.processingCommandQueue = false }()

	for {
		h.mu.Lock()
		if h.waitingForDebugger && len(h.commandQueue) == 0 {
			h.commandWaiting.Wait()
		}
		current := h.commandQueue
		h.commandQueue = nil
		h.mu.Unlock()

		for i := range current {
			h.dispatchCommand(current[i])
		}

		if !h.waitingForDebugger && len(current) == 0 {
			return
		}
	}
}

// enqueueLocked appends a command and wakes the drain loop. The handler
// mutex must be held.
func (h *Handler) enqueueLocked(kind commandKind, payload string) {
	h.commandQueue = append(h.commandQueue, command{kind: kind, payload: payload})
	h.commandWaiting.Broadcast()
}

func (h *Handler) dispatchCommand(cmd command) {
	switch cmd.kind {
	case commandConnect:
		h.handleConnect()
	case commandDisconnect:
		h.handleDisconnect()
	case commandMessageReceived:
		h.log.Debug("dispatching protocol message", zap.String("message", cmd.payload))
		h.dispatcher.Dispatch(cmd.payload)
	case commandHostRequest:
		h.log.Debug("dispatching host request", zap.String("request", cmd.payload))
		h.handleHostRequest(cmd.payload)
	}
}

func (h *Handler) handleConnect() {
	if h.isConnected {
		h.log.Warn("connect while already connected")
		return
	}

	h.consoleAgent = agent.NewConsoleAgent()
	h.consoleAgent.Register(h.dispatcher)

	h.debuggerAgent = agent.NewDebuggerAgent(h.debugger, h)
	h.debuggerAgent.Register(h.dispatcher)

	h.runtimeAgent = agent.NewRuntimeAgent(h.debugger, h, h)
	h.runtimeAgent.StrictCompileErrors = h.strictCompileErrors
	h.runtimeAgent.Register(h.dispatcher)

	h.schemaAgent = agent.NewSchemaAgent()
	h.schemaAgent.Register(h.dispatcher)

	h.debugger.PauseOnNextStatement()

	h.isConnected = true
}

func (h *Handler) handleDisconnect() {
	if !h.isConnected {
		h.log.Warn("disconnect while not connected")
		return
	}

	h.debuggerAgent.Dispose()

	for _, domain := range []string{"Console", "Debugger", "Runtime", "Schema"} {
		h.dispatcher.Unregister(domain)
	}
	h.consoleAgent = nil
	h.debuggerAgent = nil
	h.runtimeAgent = nil
	h.schemaAgent = nil

	h.RunIfWaitingForDebugger()
	h.isConnected = false
}

func (h *Handler) handleHostRequest(request string) {
	switch request {
	case HostRequestGo:
		h.debugger.Go()
	case HostRequestDeferredGo:
		h.deferredGo = true
	case HostRequestStepInto:
		h.debugger.StepIn()
	case HostRequestConsoleLog:
		// Reserved.
	}
}

// SendResponse implements cdp.FrontendChannel.
func (h *Handler) SendResponse(id int64, result any) {
	data, err := cdp.MarshalResponse(id, result)
	if err != nil {
		h.log.Error("marshal response", zap.Int64("id", id), zap.Error(err))
		return
	}
	h.sendToFrontend(string(data))
}

// SendFailure implements cdp.FrontendChannel.
func (h *Handler) SendFailure(id int64, failure error) {
	data, err := cdp.MarshalFailure(id, failure)
	if err != nil {
		h.log.Error("marshal failure", zap.Int64("id", id), zap.Error(err))
		return
	}
	h.sendToFrontend(string(data))
}

// SendNotification implements cdp.FrontendChannel.
func (h *Handler) SendNotification(method string, params any) {
	data, err := cdp.MarshalNotification(method, params)
	if err != nil {
		h.log.Error("marshal notification", zap.String("method", method), zap.Error(err))
		return
	}
	h.sendToFrontend(string(data))
}

// FlushNotifications implements cdp.FrontendChannel. Delivery is
// unbuffered, so there is nothing to flush.
func (h *Handler) FlushNotifications() {}

// sendToFrontend delivers one serialized message synchronously to the
// response callback, if a frontend is still connected.
func (h *Handler) sendToFrontend(message string) {
	h.mu.Lock()
	callback := h.responseCallback
	h.mu.Unlock()

	if callback != nil {
		callback(message)
	}
}

// IsConnected reports whether a frontend connection is active. Engine
// thread only.
func (h *Handler) IsConnected() bool { return h.isConnected }
