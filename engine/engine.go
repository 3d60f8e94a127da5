package engine

// DebugEvent identifies an engine debug event delivered to the registered
// event callback.
type DebugEvent int

const (
	// EventSourceCompile fires when the engine compiles a script.
	EventSourceCompile DebugEvent = iota
	// EventCompileError fires when a script fails to compile.
	EventCompileError
	// EventBreakpoint fires when execution hits a breakpoint.
	EventBreakpoint
	// EventStepComplete fires when a requested step finishes.
	EventStepComplete
	// EventDebuggerStatement fires on a `debugger;` statement.
	EventDebuggerStatement
	// EventAsyncBreak fires when a previously requested async break lands.
	EventAsyncBreak
	// EventRuntimeException fires when script throws and the configured
	// break-on-exception attributes match.
	EventRuntimeException
)

// String returns a string representation of the event.
func (e DebugEvent) String() string {
	switch e {
	case EventSourceCompile:
		return "sourceCompile"
	case EventCompileError:
		return "compileError"
	case EventBreakpoint:
		return "breakpoint"
	case EventStepComplete:
		return "stepComplete"
	case EventDebuggerStatement:
		return "debuggerStatement"
	case EventAsyncBreak:
		return "asyncBreak"
	case EventRuntimeException:
		return "runtimeException"
	default:
		return "unknown"
	}
}

// StepType selects the stepping mode applied before resuming.
type StepType int

const (
	// StepIn steps into the next call.
	StepIn StepType = iota
	// StepOut steps out of the current frame.
	StepOut
	// StepOver steps over the next call.
	StepOver
)

// BreakOnExceptionAttributes controls which thrown exceptions pause the
// engine.
type BreakOnExceptionAttributes int

const (
	// BreakOnExceptionNone never pauses on exceptions.
	BreakOnExceptionNone BreakOnExceptionAttributes = 0
	// BreakOnExceptionFirstChance pauses on every throw.
	BreakOnExceptionFirstChance BreakOnExceptionAttributes = 1
	// BreakOnExceptionUncaught pauses on uncaught throws only.
	BreakOnExceptionUncaught BreakOnExceptionAttributes = 2
)

// EventCallback receives engine debug events on the engine's execution
// thread. data carries the event payload (script record, break info,
// exception info) as a diagnostic object.
type EventCallback func(event DebugEvent, data Object)

// Diagnostics is the capability surface over the engine's debugging API.
//
// Evaluate and ParseScript report thrown or compile exceptions through an
// *Error carrying CodeScriptException or CodeScriptCompile plus the
// exception's descriptor object.
type Diagnostics interface {
	// StartDebugging enables debug mode and registers the event callback.
	StartDebugging(cb EventCallback) error

	// StopDebugging disables debug mode and drops the event callback.
	StopDebugging() error

	// RequestAsyncBreak asks the engine to pause at the earliest safe
	// point. Safe to call from any thread.
	RequestAsyncBreak() error

	// GetScripts enumerates the metadata of every loaded script.
	GetScripts() ([]Object, error)

	// GetSource retrieves the source record for a script, including its
	// full text.
	GetSource(scriptID int) (Object, error)

	// GetStackTrace returns the current call stack, top frame first.
	// Fails with CodeNotAtBreak when the engine is running.
	GetStackTrace() ([]Object, error)

	// GetStackProperties returns the locals, scopes and globals record of
	// a call frame identified by ordinal.
	GetStackProperties(frameOrdinal int) (Object, error)

	// SetBreakpoint places a breakpoint and returns the engine's record
	// for it: the assigned id and the actually chosen line and column.
	SetBreakpoint(scriptID, line, column int) (Object, error)

	// RemoveBreakpoint removes a breakpoint by engine-assigned id.
	RemoveBreakpoint(id int) error

	// GetBreakpoints enumerates the breakpoints currently set in the
	// engine.
	GetBreakpoints() ([]Object, error)

	// GetObjectFromHandle resolves a persistent object handle.
	GetObjectFromHandle(handle int) (Object, error)

	// GetProperties returns the property and internal-property
	// descriptors of the object behind handle.
	GetProperties(handle int) (Object, error)

	// SetStepType arms the stepping mode applied on resume. Fails with
	// CodeNotAtBreak when the engine is running.
	SetStepType(step StepType) error

	// GetBreakOnException reports the configured exception break mode.
	GetBreakOnException() (BreakOnExceptionAttributes, error)

	// SetBreakOnException configures the exception break mode.
	SetBreakOnException(attrs BreakOnExceptionAttributes) error

	// Evaluate evaluates an expression in the call frame identified by
	// ordinal. Only valid at a break.
	Evaluate(expression string, frameOrdinal int) (Object, error)

	// EvaluateGlobal parses and runs script source in the global scope
	// and returns the raw result value.
	EvaluateGlobal(script, sourceName string) (any, error)

	// ParseScript parses source without running it, reporting compile
	// errors.
	ParseScript(expression, sourceName string) error
}
