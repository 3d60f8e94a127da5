package debug

import (
	"github.com/dshills/jsinspect/engine"
	"github.com/dshills/jsinspect/internal/cdp"
)

// SkipPauseRequest is the decision produced by a break handler.
type SkipPauseRequest int

const (
	// RequestNoSkip pauses and enters the nested message loop.
	RequestNoSkip SkipPauseRequest = iota
	// RequestContinue resumes without pausing.
	RequestContinue
	// RequestStepFrame resumes with a step-in applied.
	RequestStepFrame
	// RequestStepInto resumes with a step-in applied.
	RequestStepInto
	// RequestStepOut resumes with a step-out applied.
	RequestStepOut
)

// Host is the debugger core's view of the protocol handler: the command
// queue and the nested pause pump.
type Host interface {
	// ProcessCommandQueue drains pending frontend commands.
	ProcessCommandQueue()

	// WaitForDebugger pumps commands until the frontend resumes
	// execution.
	WaitForDebugger()

	// ProcessDeferredGo turns a pending deferred resume into the next
	// queued host request.
	ProcessDeferredGo()

	// Continue releases the pump so script execution resumes.
	Continue()
}

// SourceHandler receives script compile events.
type SourceHandler func(script *Script, success bool)

// BreakHandler receives break events and decides whether to pause.
type BreakHandler func(breakInfo *BreakInfo) SkipPauseRequest

// ResumeHandler fires after the engine resumes from a pause.
type ResumeHandler func()

// Debugger is the core debug state machine. It owns the engine debugging
// session and fans engine events out to the registered handlers. All methods
// run on the engine thread except RequestAsyncBreak, which only touches the
// engine's thread-safe break request.
type Debugger struct {
	eng  engine.Diagnostics
	host Host

	enabled                    bool
	paused                     bool
	runningNestedMessageLoop   bool
	shouldPauseOnNextStatement bool

	sourceHandler SourceHandler
	breakHandler  BreakHandler
	resumeHandler ResumeHandler
}

// New starts a debugging session over the engine and registers the event
// callback.
func New(eng engine.Diagnostics, host Host) (*Debugger, error) {
	d := &Debugger{eng: eng, host: host}
	if err := eng.StartDebugging(d.handleDebugEvent); err != nil {
		return nil, err
	}
	return d, nil
}

// Close stops the debugging session. Shutdown errors are swallowed so
// teardown always completes.
func (d *Debugger) Close() {
	_ = d.eng.StopDebugging()
}

// Enable turns the debugger on. Idempotent.
func (d *Debugger) Enable() {
	if d.enabled {
		return
	}
	d.enabled = true
}

// Disable turns the debugger off and clears every breakpoint set in the
// engine. Idempotent.
func (d *Debugger) Disable() {
	if !d.enabled {
		return
	}
	d.enabled = false
	d.clearBreakpoints()
}

// IsEnabled reports whether the debugger is enabled.
func (d *Debugger) IsEnabled() bool { return d.enabled }

// IsPaused reports whether the engine is paused at a break.
func (d *Debugger) IsPaused() bool { return d.paused }

// SetSourceHandler registers the script compile event handler.
func (d *Debugger) SetSourceHandler(h SourceHandler) { d.sourceHandler = h }

// SetBreakHandler registers the break event handler.
func (d *Debugger) SetBreakHandler(h BreakHandler) { d.breakHandler = h }

// SetResumeHandler registers the resume event handler.
func (d *Debugger) SetResumeHandler(h ResumeHandler) { d.resumeHandler = h }

// RequestAsyncBreak asks the engine to break at the earliest safe point.
// Safe to call from any thread.
func (d *Debugger) RequestAsyncBreak() error {
	return d.eng.RequestAsyncBreak()
}

// PauseOnNextStatement arms a pause for the next statement and requests an
// async break to deliver it.
func (d *Debugger) PauseOnNextStatement() {
	d.shouldPauseOnNextStatement = true
	_ = d.eng.RequestAsyncBreak()
}

// GetScripts re-enumerates the engine's loaded scripts.
func (d *Debugger) GetScripts() []*Script {
	objs, err := d.eng.GetScripts()
	if err != nil {
		return nil
	}

	scripts := make([]*Script, 0, len(objs))
	for _, obj := range objs {
		scripts = append(scripts, NewScript(d.eng, obj))
	}
	return scripts
}

// GetCallFrame returns the stack frame at ordinal, failing with
// ErrInvalidOrdinal past the end of the stack.
func (d *Debugger) GetCallFrame(ordinal int) (*CallFrame, error) {
	frames, err := d.eng.GetStackTrace()
	if err != nil {
		return nil, err
	}
	if ordinal >= len(frames) {
		return nil, ErrInvalidOrdinal
	}
	return NewCallFrame(d.eng, frames[ordinal]), nil
}

// GetCallFrames returns the full stack trace, top frame first.
func (d *Debugger) GetCallFrames() ([]*CallFrame, error) {
	objs, err := d.eng.GetStackTrace()
	if err != nil {
		return nil, err
	}

	frames := make([]*CallFrame, 0, len(objs))
	for _, obj := range objs {
		frames = append(frames, NewCallFrame(d.eng, obj))
	}
	return frames, nil
}

// GetObjectProperties returns the property and internal-property
// descriptors of the object behind a persistent handle.
func (d *Debugger) GetObjectProperties(handle int) ([]cdp.PropertyDescriptor, []cdp.InternalPropertyDescriptor, error) {
	if _, err := d.eng.GetObjectFromHandle(handle); err != nil {
		return nil, nil, err
	}
	return wrapObjectProperties(d.eng, handle)
}

// SetBreakpoint asks the engine to place bp and records the engine's id and
// chosen location back into the record.
func (d *Debugger) SetBreakpoint(bp *Breakpoint) error {
	result, err := d.eng.SetBreakpoint(bp.ScriptID(), bp.LineNumber(), bp.ColumnNumber())
	if err != nil {
		return err
	}

	bp.OnResolved(
		result.Int(engine.PropBreakpointID),
		result.Int(engine.PropLine),
		result.Int(engine.PropColumn))
	return nil
}

// RemoveBreakpoint removes bp from the engine, best effort.
func (d *Debugger) RemoveBreakpoint(bp *Breakpoint) {
	_ = d.eng.RemoveBreakpoint(bp.ActualID())
}

// EvaluateInFrame evaluates an expression in the call frame identified by
// ordinal without materializing the stack trace first.
func (d *Debugger) EvaluateInFrame(expression string, ordinal int) (engine.Object, error) {
	return d.eng.Evaluate(expression, ordinal)
}

// EvaluateGlobal parses and runs script source in the global scope.
func (d *Debugger) EvaluateGlobal(script, sourceName string) (any, error) {
	return d.eng.EvaluateGlobal(script, sourceName)
}

// ParseScript parses source without running it.
func (d *Debugger) ParseScript(expression, sourceName string) error {
	return d.eng.ParseScript(expression, sourceName)
}

// GetBreakOnException reports the engine's exception break mode.
func (d *Debugger) GetBreakOnException() (engine.BreakOnExceptionAttributes, error) {
	return d.eng.GetBreakOnException()
}

// SetBreakOnException configures the engine's exception break mode.
func (d *Debugger) SetBreakOnException(attrs engine.BreakOnExceptionAttributes) error {
	return d.eng.SetBreakOnException(attrs)
}

// Continue releases the nested pump so execution resumes.
func (d *Debugger) Continue() {
	d.host.Continue()
}

// Go resumes execution, clearing any pending pause-on-next-statement.
func (d *Debugger) Go() {
	d.shouldPauseOnNextStatement = false
	d.host.Continue()
}

// StepIn arms a step-in and resumes.
func (d *Debugger) StepIn() {
	d.setStepType(engine.StepIn)
	d.Continue()
}

// StepOut arms a step-out and resumes.
func (d *Debugger) StepOut() {
	d.setStepType(engine.StepOut)
	d.Continue()
}

// StepOver arms a step-over and resumes.
func (d *Debugger) StepOver() {
	d.setStepType(engine.StepOver)
	d.Continue()
}

// setStepType applies a step type, tolerating "not at break". Other
// failures leave the resume unstepped.
func (d *Debugger) setStepType(step engine.StepType) {
	_ = d.eng.SetStepType(step)
}

// handleDebugEvent is the engine's event callback. Every event first drains
// the command queue: the transport thread may have enqueued commands before
// the engine re-entered.
func (d *Debugger) handleDebugEvent(event engine.DebugEvent, data engine.Object) {
	d.host.ProcessCommandQueue()

	if !d.enabled {
		return
	}

	switch event {
	case engine.EventSourceCompile, engine.EventCompileError:
		d.handleSourceEvent(data, event == engine.EventSourceCompile)

		// The engine considers a pending break request satisfied by
		// *any* debug event, including a source event that never
		// enters the debugger. Re-arm it.
		if d.shouldPauseOnNextStatement {
			_ = d.eng.RequestAsyncBreak()
		}

	case engine.EventBreakpoint, engine.EventStepComplete,
		engine.EventDebuggerStatement, engine.EventRuntimeException:
		d.handleBreak(data)

	case engine.EventAsyncBreak:
		if d.shouldPauseOnNextStatement {
			d.shouldPauseOnNextStatement = false
			d.handleBreak(data)
		}
	}
}

func (d *Debugger) handleSourceEvent(data engine.Object, success bool) {
	if d.sourceHandler != nil {
		d.sourceHandler(NewScript(d.eng, data), success)
	}
}

func (d *Debugger) handleBreak(data engine.Object) {
	if d.runningNestedMessageLoop {
		// Don't allow reentrancy.
		return
	}

	if d.breakHandler == nil {
		return
	}

	d.paused = true

	request := d.breakHandler(NewBreakInfo(data))

	if request == RequestNoSkip {
		d.runningNestedMessageLoop = true
		d.host.ProcessDeferredGo()
		d.host.WaitForDebugger()
		d.runningNestedMessageLoop = false
	}

	d.paused = false

	switch request {
	case RequestStepFrame, RequestStepInto:
		_ = d.eng.SetStepType(engine.StepIn)
	case RequestStepOut:
		_ = d.eng.SetStepType(engine.StepOut)
	}

	if d.resumeHandler != nil {
		d.resumeHandler()
	}
}

// clearBreakpoints removes every breakpoint currently set in the engine.
func (d *Debugger) clearBreakpoints() {
	breakpoints, err := d.eng.GetBreakpoints()
	if err != nil {
		return
	}
	for _, bp := range breakpoints {
		if id, ok := bp.TryInt(engine.PropBreakpointID); ok {
			_ = d.eng.RemoveBreakpoint(id)
		}
	}
}

// wrapObjectProperties fetches and wraps the property descriptors of the
// object behind handle.
func wrapObjectProperties(eng engine.Diagnostics, handle int) ([]cdp.PropertyDescriptor, []cdp.InternalPropertyDescriptor, error) {
	props, err := eng.GetProperties(handle)
	if err != nil {
		return nil, nil, err
	}

	descriptors := make([]cdp.PropertyDescriptor, 0, len(props.Array(engine.PropProperties)))
	for _, p := range props.Array(engine.PropProperties) {
		d, err := WrapProperty(p)
		if err != nil {
			return nil, nil, err
		}
		descriptors = append(descriptors, d)
	}

	internal := make([]cdp.InternalPropertyDescriptor, 0, len(props.Array(engine.PropDebuggerOnlyProps)))
	for _, p := range props.Array(engine.PropDebuggerOnlyProps) {
		d, err := WrapInternalProperty(p)
		if err != nil {
			return nil, nil, err
		}
		internal = append(internal, d)
	}

	return descriptors, internal, nil
}
