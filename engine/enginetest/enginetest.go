// Package enginetest provides a deterministic, scriptable implementation of
// the engine diagnostic surface. Tests (and the demo host) drive it
// explicitly from the goroutine standing in for the engine thread: loading
// scripts fires compile events, HitBreakpoint and ThrowUncaught fire break
// events, and PumpAsyncBreak delivers a pending async break request the way
// the real engine does at its next safe point.
package enginetest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/jsinspect/engine"
)

// Engine is a fake diagnostic engine.
type Engine struct {
	mu             sync.Mutex
	breakRequested bool

	debugging bool
	callback  engine.EventCallback

	nextScriptID int
	scripts      []engine.Object
	sources      map[int]string

	nextBreakpointID int
	breakpoints      map[int]engine.Object

	breakOnException engine.BreakOnExceptionAttributes

	atBreak bool
	stack   []engine.Object

	// StackProperties supplies GetStackProperties results by frame
	// ordinal.
	StackProperties map[int]engine.Object

	// Objects and Properties back GetObjectFromHandle and GetProperties
	// by handle.
	Objects    map[int]engine.Object
	Properties map[int]engine.Object

	// EvalResults supplies canned Evaluate results by expression.
	EvalResults map[string]engine.Object

	// EvalErrors supplies canned Evaluate failures by expression.
	EvalErrors map[string]*engine.Error

	// BreakpointLineAdjust shifts the line the engine "chooses" for every
	// breakpoint, emulating placement on the nearest executable
	// statement.
	BreakpointLineAdjust int

	// EvaluateGlobalFunc, when set, handles EvaluateGlobal calls.
	EvaluateGlobalFunc func(script, sourceName string) (any, error)

	// ParseScriptFunc, when set, handles ParseScript calls.
	ParseScriptFunc func(expression, sourceName string) error

	// LastStepType records the most recent SetStepType call.
	LastStepType engine.StepType

	// StepTypeSet reports whether SetStepType has been called.
	StepTypeSet bool
}

// New creates an empty fake engine.
func New() *Engine {
	return &Engine{
		sources:          make(map[int]string),
		breakpoints:      make(map[int]engine.Object),
		StackProperties:  make(map[int]engine.Object),
		Objects:          make(map[int]engine.Object),
		Properties:       make(map[int]engine.Object),
		EvalResults:      make(map[string]engine.Object),
		EvalErrors:       make(map[string]*engine.Error),
		nextScriptID:     1,
		nextBreakpointID: 1,
	}
}

// StartDebugging implements engine.Diagnostics.
func (e *Engine) StartDebugging(cb engine.EventCallback) error {
	if e.debugging {
		return engine.NewError(engine.CodeGeneric, "already debugging")
	}
	e.debugging = true
	e.callback = cb
	return nil
}

// StopDebugging implements engine.Diagnostics.
func (e *Engine) StopDebugging() error {
	if !e.debugging {
		return engine.NewError(engine.CodeNotDebugging, "debugging not started")
	}
	e.debugging = false
	e.callback = nil
	return nil
}

// RequestAsyncBreak implements engine.Diagnostics. Safe from any thread.
func (e *Engine) RequestAsyncBreak() error {
	e.mu.Lock()
	e.breakRequested = true
	e.mu.Unlock()
	return nil
}

// BreakRequested reports whether an async break request is pending.
func (e *Engine) BreakRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.breakRequested
}

// fire delivers one event. Any event satisfies a pending async break
// request, matching the real engine.
func (e *Engine) fire(event engine.DebugEvent, data engine.Object) {
	e.mu.Lock()
	e.breakRequested = false
	e.mu.Unlock()

	if e.callback != nil {
		e.callback(event, data)
	}
}

// AddScript registers a script and, while debugging, fires its compile
// event. Returns the assigned script id.
func (e *Engine) AddScript(url, source string) int {
	return e.addScript(url, source, engine.EventSourceCompile)
}

// AddFailedScript registers a script whose compilation failed.
func (e *Engine) AddFailedScript(url, source string) int {
	return e.addScript(url, source, engine.EventCompileError)
}

func (e *Engine) addScript(url, source string, event engine.DebugEvent) int {
	id := e.nextScriptID
	e.nextScriptID++

	lines := strings.Split(source, "\n")
	meta := engine.Object{
		engine.PropScriptID:           id,
		engine.PropURL:                url,
		engine.PropStartLine:          0,
		engine.PropStartColumn:        0,
		engine.PropEndLine:            len(lines) - 1,
		engine.PropEndColumn:          len(lines[len(lines)-1]),
		engine.PropExecutionContextID: 1,
	}

	e.scripts = append(e.scripts, meta)
	e.sources[id] = source

	if e.debugging {
		e.fire(event, meta)
	}
	return id
}

// PumpAsyncBreak delivers a pending async break request at a safe point,
// reporting whether an event fired. The optional stack stands in for the
// frames of whatever script was executing when the break landed.
func (e *Engine) PumpAsyncBreak(stack ...engine.Object) bool {
	if !e.BreakRequested() {
		return false
	}
	e.stack = stack
	e.atBreak = true
	e.fire(engine.EventAsyncBreak, engine.Object{})
	e.atBreak = false
	e.stack = nil
	return true
}

// HitBreakpoint simulates execution reaching a breakpoint with the given
// stack.
func (e *Engine) HitBreakpoint(breakpointID int, stack ...engine.Object) {
	e.stack = stack
	e.atBreak = true
	e.fire(engine.EventBreakpoint, engine.Object{engine.PropBreakpoint: breakpointID})
	e.atBreak = false
	e.stack = nil
}

// EmitStepComplete simulates a completed step with the given stack.
func (e *Engine) EmitStepComplete(stack ...engine.Object) {
	e.stack = stack
	e.atBreak = true
	e.fire(engine.EventStepComplete, engine.Object{})
	e.atBreak = false
	e.stack = nil
}

// EmitDebuggerStatement simulates a `debugger;` statement with the given
// stack.
func (e *Engine) EmitDebuggerStatement(stack ...engine.Object) {
	e.stack = stack
	e.atBreak = true
	e.fire(engine.EventDebuggerStatement, engine.Object{})
	e.atBreak = false
	e.stack = nil
}

// ThrowUncaught simulates an uncaught exception reaching the configured
// break-on-exception filter.
func (e *Engine) ThrowUncaught(exception engine.Object, stack ...engine.Object) {
	e.stack = stack
	e.atBreak = true
	e.fire(engine.EventRuntimeException, engine.Object{
		engine.PropException: exception,
		engine.PropUncaught:  true,
	})
	e.atBreak = false
	e.stack = nil
}

// GetScripts implements engine.Diagnostics.
func (e *Engine) GetScripts() ([]engine.Object, error) {
	out := make([]engine.Object, len(e.scripts))
	copy(out, e.scripts)
	return out, nil
}

// GetSource implements engine.Diagnostics.
func (e *Engine) GetSource(scriptID int) (engine.Object, error) {
	source, ok := e.sources[scriptID]
	if !ok {
		return nil, engine.NewError(engine.CodeInvalidArgument, fmt.Sprintf("unknown script %d", scriptID))
	}
	return engine.Object{
		engine.PropScriptID: scriptID,
		engine.PropSource:   source,
	}, nil
}

// GetStackTrace implements engine.Diagnostics.
func (e *Engine) GetStackTrace() ([]engine.Object, error) {
	if !e.atBreak {
		return nil, engine.NewError(engine.CodeNotAtBreak, "engine is running")
	}
	out := make([]engine.Object, len(e.stack))
	copy(out, e.stack)
	return out, nil
}

// GetStackProperties implements engine.Diagnostics.
func (e *Engine) GetStackProperties(frameOrdinal int) (engine.Object, error) {
	if !e.atBreak {
		return nil, engine.NewError(engine.CodeNotAtBreak, "engine is running")
	}
	props, ok := e.StackProperties[frameOrdinal]
	if !ok {
		return engine.Object{}, nil
	}
	return props, nil
}

// SetBreakpoint implements engine.Diagnostics.
func (e *Engine) SetBreakpoint(scriptID, line, column int) (engine.Object, error) {
	if !e.hasScript(scriptID) {
		return nil, engine.NewError(engine.CodeInvalidArgument, fmt.Sprintf("unknown script %d", scriptID))
	}

	actualLine := line + e.BreakpointLineAdjust

	// Setting a breakpoint on an already-claimed location returns the
	// existing breakpoint.
	for _, bp := range e.breakpoints {
		if bp.Int(engine.PropScriptID) == scriptID &&
			bp.Int(engine.PropLine) == actualLine &&
			bp.Int(engine.PropColumn) == column {
			return bp, nil
		}
	}

	id := e.nextBreakpointID
	e.nextBreakpointID++

	bp := engine.Object{
		engine.PropBreakpointID: id,
		engine.PropScriptID:     scriptID,
		engine.PropLine:         actualLine,
		engine.PropColumn:       column,
	}
	e.breakpoints[id] = bp
	return bp, nil
}

// RemoveBreakpoint implements engine.Diagnostics.
func (e *Engine) RemoveBreakpoint(id int) error {
	if _, ok := e.breakpoints[id]; !ok {
		return engine.NewError(engine.CodeInvalidArgument, fmt.Sprintf("unknown breakpoint %d", id))
	}
	delete(e.breakpoints, id)
	return nil
}

// GetBreakpoints implements engine.Diagnostics.
func (e *Engine) GetBreakpoints() ([]engine.Object, error) {
	out := make([]engine.Object, 0, len(e.breakpoints))
	for _, bp := range e.breakpoints {
		out = append(out, bp)
	}
	return out, nil
}

// BreakpointCount reports how many breakpoints are set in the engine.
func (e *Engine) BreakpointCount() int {
	return len(e.breakpoints)
}

// GetObjectFromHandle implements engine.Diagnostics.
func (e *Engine) GetObjectFromHandle(handle int) (engine.Object, error) {
	obj, ok := e.Objects[handle]
	if !ok {
		return nil, engine.NewError(engine.CodeInvalidArgument, fmt.Sprintf("unknown handle %d", handle))
	}
	return obj, nil
}

// GetProperties implements engine.Diagnostics.
func (e *Engine) GetProperties(handle int) (engine.Object, error) {
	props, ok := e.Properties[handle]
	if !ok {
		return engine.Object{}, nil
	}
	return props, nil
}

// SetStepType implements engine.Diagnostics.
func (e *Engine) SetStepType(step engine.StepType) error {
	if !e.atBreak {
		return engine.NewError(engine.CodeNotAtBreak, "engine is running")
	}
	e.LastStepType = step
	e.StepTypeSet = true
	return nil
}

// GetBreakOnException implements engine.Diagnostics.
func (e *Engine) GetBreakOnException() (engine.BreakOnExceptionAttributes, error) {
	return e.breakOnException, nil
}

// SetBreakOnException implements engine.Diagnostics.
func (e *Engine) SetBreakOnException(attrs engine.BreakOnExceptionAttributes) error {
	e.breakOnException = attrs
	return nil
}

// Evaluate implements engine.Diagnostics. Without a break and a frame at
// the ordinal, the engine reports "not at break"; otherwise canned results
// and errors answer by expression, defaulting to undefined.
func (e *Engine) Evaluate(expression string, frameOrdinal int) (engine.Object, error) {
	if !e.atBreak || frameOrdinal >= len(e.stack) {
		return nil, engine.NewError(engine.CodeNotAtBreak, "engine is running")
	}

	if err, ok := e.EvalErrors[expression]; ok {
		return nil, err
	}
	if result, ok := e.EvalResults[expression]; ok {
		return result, nil
	}
	return engine.Object{
		engine.PropName:    "[value]",
		engine.PropType:    "undefined",
		engine.PropDisplay: "undefined",
	}, nil
}

// EvaluateGlobal implements engine.Diagnostics.
func (e *Engine) EvaluateGlobal(script, sourceName string) (any, error) {
	if e.EvaluateGlobalFunc == nil {
		return nil, engine.NewError(engine.CodeGeneric, "no global evaluator installed")
	}
	return e.EvaluateGlobalFunc(script, sourceName)
}

// ParseScript implements engine.Diagnostics.
func (e *Engine) ParseScript(expression, sourceName string) error {
	if e.ParseScriptFunc == nil {
		return nil
	}
	return e.ParseScriptFunc(expression, sourceName)
}

func (e *Engine) hasScript(scriptID int) bool {
	for _, s := range e.scripts {
		if s.Int(engine.PropScriptID) == scriptID {
			return true
		}
	}
	return false
}
