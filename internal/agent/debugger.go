package agent

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dshills/jsinspect/engine"
	"github.com/dshills/jsinspect/internal/cdp"
	"github.com/dshills/jsinspect/internal/debug"
)

// DebuggerAgent implements the Debugger protocol domain: the script
// registry, the breakpoint registry keyed by fingerprint, breakpoint
// resolution against loaded scripts, and the pause/resume notifications.
type DebuggerAgent struct {
	debugger *debug.Debugger
	frontend cdp.FrontendChannel

	isEnabled           bool
	shouldSkipAllPauses bool

	scripts     map[string]*debug.Script
	breakpoints map[string]*debug.Breakpoint
}

// NewDebuggerAgent creates the Debugger domain agent.
func NewDebuggerAgent(debugger *debug.Debugger, frontend cdp.FrontendChannel) *DebuggerAgent {
	return &DebuggerAgent{
		debugger:    debugger,
		frontend:    frontend,
		scripts:     make(map[string]*debug.Script),
		breakpoints: make(map[string]*debug.Breakpoint),
	}
}

// Register wires the agent's methods into the dispatcher.
func (a *DebuggerAgent) Register(d *cdp.Dispatcher) {
	d.Register("Debugger.enable", a.enable)
	d.Register("Debugger.disable", a.disable)
	d.Register("Debugger.setBreakpointByUrl", a.setBreakpointByURL)
	d.Register("Debugger.setBreakpoint", a.setBreakpoint)
	d.Register("Debugger.removeBreakpoint", a.removeBreakpoint)
	d.Register("Debugger.stepOver", a.stepOver)
	d.Register("Debugger.stepInto", a.stepInto)
	d.Register("Debugger.stepOut", a.stepOut)
	d.Register("Debugger.pause", a.pause)
	d.Register("Debugger.resume", a.resume)
	d.Register("Debugger.getScriptSource", a.getScriptSource)
	d.Register("Debugger.setPauseOnExceptions", a.setPauseOnExceptions)
	d.Register("Debugger.evaluateOnCallFrame", a.evaluateOnCallFrame)

	for _, method := range []string{
		"Debugger.setBreakpointsActive",
		"Debugger.setSkipAllPauses",
		"Debugger.continueToLocation",
		"Debugger.searchInContent",
		"Debugger.setScriptSource",
		"Debugger.restartFrame",
		"Debugger.setVariableValue",
		"Debugger.setAsyncCallStackDepth",
		"Debugger.setBlackboxPatterns",
		"Debugger.setBlackboxedRanges",
	} {
		d.Register(method, notImplemented)
	}
}

// Dispose tears the agent down at disconnect.
func (a *DebuggerAgent) Dispose() {
	_, _ = a.disable(nil)
}

func (a *DebuggerAgent) enable(*cdp.Request) (any, error) {
	if a.isEnabled {
		return nil, nil
	}

	a.isEnabled = true
	a.debugger.Enable()
	a.debugger.SetSourceHandler(a.handleSourceEvent)
	a.debugger.SetBreakHandler(a.handleBreakEvent)
	a.debugger.SetResumeHandler(a.handleResumeEvent)

	// Replay scripts the engine loaded before the frontend enabled the
	// domain.
	for _, script := range a.debugger.GetScripts() {
		a.handleSourceEvent(script, true)
	}

	return nil, nil
}

func (a *DebuggerAgent) disable(*cdp.Request) (any, error) {
	if !a.isEnabled {
		return nil, nil
	}

	a.isEnabled = false
	a.debugger.Disable()
	a.debugger.SetSourceHandler(nil)
	a.debugger.SetBreakHandler(nil)
	a.debugger.SetResumeHandler(nil)

	a.scripts = make(map[string]*debug.Script)
	a.breakpoints = make(map[string]*debug.Breakpoint)
	a.shouldSkipAllPauses = false

	return nil, nil
}

type setBreakpointByURLResult struct {
	BreakpointID string         `json:"breakpointId,omitempty"`
	Locations    []cdp.Location `json:"locations"`
}

func (a *DebuggerAgent) setBreakpointByURL(req *cdp.Request) (any, error) {
	var query string
	var kind debug.QueryKind

	switch {
	case req.Params.Get("url").Exists():
		query = req.Params.Get("url").String()
		kind = debug.QueryURL
	case req.Params.Get("urlRegex").Exists():
		query = req.Params.Get("urlRegex").String()
		kind = debug.QueryURLRegex
	default:
		return nil, ErrURLRequired
	}

	line := int(req.Params.Get("lineNumber").Int())
	column := 0
	if col := req.Params.Get("columnNumber"); col.Exists() {
		column = int(col.Int())
	}
	if column < 0 {
		return nil, ErrInvalidColumnNumber
	}
	condition := req.Params.Get("condition").String()

	bp := debug.NewBreakpoint(query, kind, line, column, condition)
	key := bp.Key()

	if _, exists := a.breakpoints[key]; exists {
		return nil, ErrBreakpointExists
	}

	locations := []cdp.Location{}
	for _, script := range a.scripts {
		if bp.TryLoadScript(script) {
			resolved, err := a.tryResolveBreakpoint(bp)
			if err != nil {
				return nil, err
			}
			if resolved {
				locations = append(locations, bp.ActualLocation())
			}
		}
	}

	result := setBreakpointByURLResult{Locations: locations}

	if !a.actualBreakpointExists(bp) {
		result.BreakpointID = key
		a.breakpoints[key] = bp
	}

	return result, nil
}

type setBreakpointResult struct {
	BreakpointID   string        `json:"breakpointId,omitempty"`
	ActualLocation *cdp.Location `json:"actualLocation,omitempty"`
}

func (a *DebuggerAgent) setBreakpoint(req *cdp.Request) (any, error) {
	scriptID, err := strconv.Atoi(req.Params.Get("location.scriptId").String())
	if err != nil {
		return nil, fmt.Errorf("invalid script id: %s", req.Params.Get("location.scriptId").String())
	}

	bp := debug.BreakpointFromLocation(
		scriptID,
		int(req.Params.Get("location.lineNumber").Int()),
		int(req.Params.Get("location.columnNumber").Int()),
		req.Params.Get("condition").String())

	key := bp.Key()
	if _, exists := a.breakpoints[key]; exists {
		return nil, ErrBreakpointExists
	}

	resolved, rerr := a.tryResolveBreakpoint(bp)
	if rerr != nil || !resolved {
		return nil, ErrBreakpointCouldNotResolve
	}

	location := bp.ActualLocation()
	result := setBreakpointResult{ActualLocation: &location}

	if !a.actualBreakpointExists(bp) {
		result.BreakpointID = key
		a.breakpoints[key] = bp
	}

	return result, nil
}

func (a *DebuggerAgent) removeBreakpoint(req *cdp.Request) (any, error) {
	id := req.Params.Get("breakpointId").String()

	bp, ok := a.breakpoints[id]
	if !ok {
		return nil, ErrBreakpointNotFound
	}

	a.debugger.RemoveBreakpoint(bp)
	delete(a.breakpoints, id)
	return nil, nil
}

func (a *DebuggerAgent) stepOver(*cdp.Request) (any, error) {
	a.debugger.StepOver()
	return nil, nil
}

func (a *DebuggerAgent) stepInto(*cdp.Request) (any, error) {
	a.debugger.StepIn()
	return nil, nil
}

func (a *DebuggerAgent) stepOut(*cdp.Request) (any, error) {
	a.debugger.StepOut()
	return nil, nil
}

func (a *DebuggerAgent) pause(*cdp.Request) (any, error) {
	a.debugger.PauseOnNextStatement()
	return nil, nil
}

func (a *DebuggerAgent) resume(*cdp.Request) (any, error) {
	if !a.isEnabled {
		return nil, ErrDebuggerNotEnabled
	}
	a.debugger.Continue()
	return nil, nil
}

type getScriptSourceResult struct {
	ScriptSource string `json:"scriptSource"`
}

func (a *DebuggerAgent) getScriptSource(req *cdp.Request) (any, error) {
	if !a.isEnabled {
		return nil, ErrDebuggerNotEnabled
	}

	scriptID := req.Params.Get("scriptId").String()
	script, ok := a.scripts[scriptID]
	if !ok {
		return nil, fmt.Errorf("Script not found: %s", scriptID)
	}

	return getScriptSourceResult{ScriptSource: script.Source()}, nil
}

func (a *DebuggerAgent) setPauseOnExceptions(req *cdp.Request) (any, error) {
	var attrs engine.BreakOnExceptionAttributes

	state := req.Params.Get("state").String()
	switch state {
	case "none":
		attrs = engine.BreakOnExceptionNone
	case "all":
		attrs = engine.BreakOnExceptionFirstChance
	case "uncaught":
		attrs = engine.BreakOnExceptionUncaught
	default:
		return nil, fmt.Errorf("Unrecognized state value: %s", state)
	}

	if err := a.debugger.SetBreakOnException(attrs); err != nil {
		return nil, err
	}
	return nil, nil
}

type evaluateOnCallFrameResult struct {
	Result           *cdp.RemoteObject     `json:"result"`
	ExceptionDetails *cdp.ExceptionDetails `json:"exceptionDetails,omitempty"`
}

func (a *DebuggerAgent) evaluateOnCallFrame(req *cdp.Request) (any, error) {
	parsed, err := debug.ParseObjectID(req.Params.Get("callFrameId").String())
	if err != nil || !parsed.HasOrdinal {
		return nil, ErrInvalidCallFrameID
	}

	frame, err := a.debugger.GetCallFrame(parsed.Ordinal)
	if err != nil {
		return nil, err
	}

	result, details, err := frame.Evaluate(req.Params.Get("expression").String())
	if err != nil {
		return nil, err
	}

	return evaluateOnCallFrameResult{Result: result, ExceptionDetails: details}, nil
}

// handleSourceEvent emits scriptParsed or scriptFailedToParse, records the
// script, and re-attempts resolution of every pending breakpoint against
// it.
func (a *DebuggerAgent) handleSourceEvent(script *debug.Script, success bool) {
	var auxData any
	if raw := script.ExecutionContextAuxData(); raw != "" {
		auxData = json.RawMessage(raw)
	}

	if success {
		a.frontend.SendNotification(cdp.EventDebuggerScriptParsed, cdp.ScriptParsedParams{
			ScriptID:                script.ScriptID(),
			URL:                     script.URL(),
			StartLine:               script.StartLine(),
			StartColumn:             script.StartColumn(),
			EndLine:                 script.EndLine(),
			EndColumn:               script.EndColumn(),
			ExecutionContextID:      script.ExecutionContextID(),
			Hash:                    script.Hash(),
			ExecutionContextAuxData: auxData,
			IsLiveEdit:              script.IsLiveEdit(),
			SourceMapURL:            script.SourceMapURL(),
			HasSourceURL:            script.HasSourceURL(),
		})
	} else {
		a.frontend.SendNotification(cdp.EventDebuggerScriptFailedToParse, cdp.ScriptFailedToParseParams{
			ScriptID:                script.ScriptID(),
			URL:                     script.URL(),
			StartLine:               script.StartLine(),
			StartColumn:             script.StartColumn(),
			EndLine:                 script.EndLine(),
			EndColumn:               script.EndColumn(),
			ExecutionContextID:      script.ExecutionContextID(),
			Hash:                    script.Hash(),
			ExecutionContextAuxData: auxData,
			SourceMapURL:            script.SourceMapURL(),
			HasSourceURL:            script.HasSourceURL(),
		})
	}

	a.scripts[script.ScriptID()] = script

	for key, bp := range a.breakpoints {
		if bp.TryLoadScript(script) {
			resolved, err := a.tryResolveBreakpoint(bp)
			if err == nil && resolved {
				a.frontend.SendNotification(cdp.EventDebuggerBreakpointResolved, cdp.BreakpointResolvedParams{
					BreakpointID: key,
					Location:     bp.ActualLocation(),
				})
			}
		}
	}
}

// evaluateConditionOnBreakpoint decides whether a conditional breakpoint
// pauses: the condition is evaluated in the top frame, and only a true
// result keeps the pause. Evaluation failures resume execution.
func (a *DebuggerAgent) evaluateConditionOnBreakpoint(bpID int) debug.SkipPauseRequest {
	if bpID < 0 {
		return debug.RequestNoSkip
	}

	var bp *debug.Breakpoint
	for _, candidate := range a.breakpoints {
		if candidate.ActualID() == bpID {
			bp = candidate
			break
		}
	}
	if bp == nil || bp.Condition() == "" {
		return debug.RequestNoSkip
	}

	result, err := a.debugger.EvaluateInFrame(bp.Condition(), 0)
	if err != nil {
		return debug.RequestContinue
	}
	if result.BoolConvert(engine.PropValue) {
		return debug.RequestNoSkip
	}
	return debug.RequestContinue
}

// handleBreakEvent decides whether to pause and, when pausing, emits the
// paused notification with the converted stack.
func (a *DebuggerAgent) handleBreakEvent(breakInfo *debug.BreakInfo) debug.SkipPauseRequest {
	request := debug.RequestNoSkip

	if a.shouldSkipAllPauses {
		request = debug.RequestContinue
	} else {
		request = a.evaluateConditionOnBreakpoint(breakInfo.HitBreakpoint())
	}

	if request != debug.RequestNoSkip {
		return request
	}

	callFrames := []cdp.CallFrame{}
	if frames, err := a.debugger.GetCallFrames(); err == nil {
		for _, frame := range frames {
			callFrames = append(callFrames, frame.ToProtocol())
		}
	}

	var data any
	if exception, ok := breakInfo.Exception(); ok {
		if wrapped, err := debug.WrapException(exception); err == nil {
			data = wrapped
		}
	}

	a.frontend.SendNotification(cdp.EventDebuggerPaused, cdp.PausedParams{
		CallFrames:     callFrames,
		Reason:         breakInfo.Reason(),
		Data:           data,
		HitBreakpoints: a.hitBreakpointIDs(breakInfo.HitBreakpoint()),
	})

	return request
}

func (a *DebuggerAgent) handleResumeEvent() {
	a.frontend.SendNotification(cdp.EventDebuggerResumed, nil)
}

// hitBreakpointIDs maps an engine breakpoint id back to the protocol
// breakpoint id it belongs to.
func (a *DebuggerAgent) hitBreakpointIDs(bpID int) []string {
	if bpID < 0 {
		return nil
	}
	for key, bp := range a.breakpoints {
		if bp.ActualID() == bpID {
			return []string{key}
		}
	}
	return nil
}

// actualBreakpointExists reports whether an equivalent breakpoint is
// already registered. The engine returns the existing breakpoint when a new
// one lands on the same resolved location, so a resolved breakpoint is
// compared by engine id; an unresolved one by its nominal location.
func (a *DebuggerAgent) actualBreakpointExists(bp *debug.Breakpoint) bool {
	for _, existing := range a.breakpoints {
		if bp.IsResolved() {
			if existing.ActualID() == bp.ActualID() {
				return true
			}
		} else if existing.ScriptID() == bp.ScriptID() &&
			existing.LineNumber() == bp.LineNumber() &&
			existing.ColumnNumber() == bp.ColumnNumber() {
			return true
		}
	}
	return false
}

// tryResolveBreakpoint asks the engine to place a breakpoint bound to a
// loaded script.
func (a *DebuggerAgent) tryResolveBreakpoint(bp *debug.Breakpoint) (bool, error) {
	if !bp.IsScriptLoaded() {
		return false, ErrScriptMustBeLoaded
	}

	if err := a.debugger.SetBreakpoint(bp); err != nil {
		return false, err
	}
	return bp.IsResolved(), nil
}

// notImplemented answers a stubbed protocol method.
func notImplemented(*cdp.Request) (any, error) {
	return nil, cdp.ErrNotImplemented
}
