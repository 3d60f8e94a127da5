package agent

import (
	"strings"

	"github.com/dshills/jsinspect/engine"
	"github.com/dshills/jsinspect/internal/cdp"
	"github.com/dshills/jsinspect/internal/debug"
)

// Text of the synthetic exception reported for throwOnSideEffect
// evaluations.
const sideEffectText = "Possible side effects of expression evaluation"

// The single default execution context announced on Runtime.enable.
const defaultExecutionContextID = 1

// Host is the runtime agent's view of the protocol handler startup
// coordination.
type Host interface {
	// RunIfWaitingForDebugger releases a host blocked in WaitForDebugger.
	RunIfWaitingForDebugger()
}

// RuntimeAgent implements the Runtime protocol domain: expression
// evaluation with paused and global paths, property introspection over
// handle- and scope-identified objects, script compilation, and console
// events.
type RuntimeAgent struct {
	debugger *debug.Debugger
	frontend cdp.FrontendChannel
	host     Host

	isEnabled bool

	// StrictCompileErrors selects the compileScript failure contract:
	// when set, a compile error fails the method after building exception
	// details; when clear (the default), the method succeeds and reports
	// the compile error through exceptionDetails.
	StrictCompileErrors bool
}

// NewRuntimeAgent creates the Runtime domain agent.
func NewRuntimeAgent(debugger *debug.Debugger, frontend cdp.FrontendChannel, host Host) *RuntimeAgent {
	return &RuntimeAgent{debugger: debugger, frontend: frontend, host: host}
}

// Register wires the agent's methods into the dispatcher.
func (a *RuntimeAgent) Register(d *cdp.Dispatcher) {
	d.Register("Runtime.enable", a.enable)
	d.Register("Runtime.disable", a.disable)
	d.Register("Runtime.evaluate", a.evaluate)
	d.Register("Runtime.getProperties", a.getProperties)
	d.Register("Runtime.compileScript", a.compileScript)
	d.Register("Runtime.runIfWaitingForDebugger", a.runIfWaitingForDebugger)

	for _, method := range []string{
		"Runtime.awaitPromise",
		"Runtime.callFunctionOn",
		"Runtime.releaseObject",
		"Runtime.releaseObjectGroup",
		"Runtime.discardConsoleEntries",
		"Runtime.setCustomObjectFormatterEnabled",
		"Runtime.runScript",
	} {
		d.Register(method, notImplemented)
	}
}

func (a *RuntimeAgent) enable(*cdp.Request) (any, error) {
	if a.isEnabled {
		return nil, nil
	}

	a.isEnabled = true

	a.frontend.SendNotification(cdp.EventRuntimeExecutionContextCreated, cdp.ExecutionContextCreatedParams{
		Context: cdp.ExecutionContextDescription{
			ID:     defaultExecutionContextID,
			Origin: "default",
			Name:   "default",
		},
	})

	return nil, nil
}

func (a *RuntimeAgent) disable(*cdp.Request) (any, error) {
	a.isEnabled = false
	return nil, nil
}

func (a *RuntimeAgent) runIfWaitingForDebugger(*cdp.Request) (any, error) {
	if !a.isEnabled {
		return nil, ErrRuntimeNotEnabled
	}
	a.host.RunIfWaitingForDebugger()
	return nil, nil
}

type evaluateResult struct {
	Result           *cdp.RemoteObject     `json:"result"`
	ExceptionDetails *cdp.ExceptionDetails `json:"exceptionDetails,omitempty"`
}

func (a *RuntimeAgent) evaluate(req *cdp.Request) (any, error) {
	expression := req.Params.Get("expression").String()
	silent := req.Params.Get("silent").Bool()

	// A side-effect-free guarantee cannot be given, so the expression is
	// never run.
	if req.Params.Get("throwOnSideEffect").Bool() {
		return evaluateResult{
			Result: debug.UndefinedRemoteObject(),
			ExceptionDetails: &cdp.ExceptionDetails{
				ExceptionID:  0,
				Text:         sideEffectText,
				LineNumber:   -1,
				ColumnNumber: -1,
			},
		}, nil
	}

	if req.Params.Get("awaitPromise").Bool() {
		return nil, cdp.ErrNotImplemented
	}

	result, err := a.debugger.EvaluateInFrame(expression, 0)
	if err == nil {
		wrapped, werr := debug.WrapObject(result)
		if werr != nil {
			return a.evaluateFailure(werr, silent)
		}
		return evaluateResult{Result: wrapped}, nil
	}

	if exception, ok := debug.ExceptionOf(err); ok {
		details, werr := debug.WrapExceptionDetails(exception)
		if werr != nil {
			return a.evaluateFailure(werr, silent)
		}
		return evaluateResult{
			Result:           details.Exception,
			ExceptionDetails: details,
		}, nil
	}

	if engine.IsNotAtBreak(err) {
		return a.evaluateGlobal(expression, silent)
	}

	return a.evaluateFailure(err, silent)
}

// evaluateGlobal evaluates an expression outside a break by wrapping it in
// an eval that captures either the result or the thrown error.
func (a *RuntimeAgent) evaluateGlobal(expression string, silent bool) (any, error) {
	escaped := strings.ReplaceAll(expression, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	source := `try{({value:eval("` + escaped + `")})}catch(e){({error:e})}`

	result, err := a.debugger.EvaluateGlobal(source, "eval")
	if err != nil {
		return a.evaluateFailure(err, silent)
	}

	var outcome map[string]any
	switch m := result.(type) {
	case map[string]any:
		outcome = m
	case engine.Object:
		outcome = map[string]any(m)
	}

	if errVal, ok := outcome["error"]; ok {
		return evaluateResult{
			Result: debug.UndefinedRemoteObject(),
			ExceptionDetails: &cdp.ExceptionDetails{
				ExceptionID: 0,
				Text:        engine.Stringify(errVal),
			},
		}, nil
	}

	wrapped, werr := debug.WrapValue(outcome["value"])
	if werr != nil {
		return a.evaluateFailure(werr, silent)
	}
	return evaluateResult{Result: wrapped}, nil
}

// evaluateFailure reports an evaluation failure honoring the silent flag: a
// silent evaluation succeeds and carries the failure in exceptionDetails.
func (a *RuntimeAgent) evaluateFailure(err error, silent bool) (any, error) {
	if !silent {
		return nil, err
	}
	return evaluateResult{
		Result: debug.UndefinedRemoteObject(),
		ExceptionDetails: &cdp.ExceptionDetails{
			ExceptionID: 0,
			Text:        err.Error(),
		},
	}, nil
}

type getPropertiesResult struct {
	Result             []cdp.PropertyDescriptor         `json:"result"`
	InternalProperties []cdp.InternalPropertyDescriptor `json:"internalProperties,omitempty"`
}

func (a *RuntimeAgent) getProperties(req *cdp.Request) (any, error) {
	// Accessor-only queries are unsupported; answer with an empty list.
	if req.Params.Get("accessorPropertiesOnly").Bool() {
		return getPropertiesResult{Result: []cdp.PropertyDescriptor{}}, nil
	}

	parsed, err := debug.ParseObjectID(req.Params.Get("objectId").String())
	if err != nil {
		return nil, err
	}

	switch {
	case parsed.HasHandle:
		props, internal, err := a.debugger.GetObjectProperties(parsed.Handle)
		if err != nil {
			return nil, err
		}
		return getPropertiesResult{Result: props, InternalProperties: internal}, nil

	case parsed.HasOrdinal && (parsed.Name == debug.ScopeLocals || parsed.Name == debug.ScopeGlobals):
		frame, err := a.debugger.GetCallFrame(parsed.Ordinal)
		if err != nil {
			return nil, err
		}

		var props []cdp.PropertyDescriptor
		var internal []cdp.InternalPropertyDescriptor
		if parsed.Name == debug.ScopeLocals {
			props, internal, err = frame.GetLocals()
		} else {
			props, internal, err = frame.GetGlobals()
		}
		if err != nil {
			return nil, err
		}
		return getPropertiesResult{Result: props, InternalProperties: internal}, nil
	}

	return nil, debug.ErrInvalidObjectID
}

type compileScriptResult struct {
	ExceptionDetails *cdp.ExceptionDetails `json:"exceptionDetails,omitempty"`
}

func (a *RuntimeAgent) compileScript(req *cdp.Request) (any, error) {
	// Persisted scripts are unsupported.
	if req.Params.Get("persistScript").Bool() {
		return nil, cdp.ErrNotImplemented
	}

	err := a.debugger.ParseScript(
		req.Params.Get("expression").String(),
		req.Params.Get("sourceURL").String())
	if err == nil {
		// No script id: the script was not persisted.
		return nil, nil
	}

	exception, ok := debug.ExceptionOf(err)
	if !ok {
		return nil, ErrScriptParse
	}

	wrapped, werr := debug.WrapValue(exception)
	if werr != nil {
		return nil, ErrScriptParse
	}

	details := &cdp.ExceptionDetails{
		ExceptionID:  0,
		Text:         exception.Object(engine.PropException).Str("message"),
		LineNumber:   exception.Int(engine.PropLine),
		ColumnNumber: exception.Int(engine.PropColumn),
		Exception:    wrapped,
	}

	if a.StrictCompileErrors {
		return nil, ErrScriptParse
	}
	return compileScriptResult{ExceptionDetails: details}, nil
}

// ConsoleAPIEvent forwards a console call into a consoleAPICalled
// notification. Arguments that cannot be wrapped surface as undefined.
func (a *RuntimeAgent) ConsoleAPIEvent(kind string, args []any) {
	wrapped := make([]cdp.RemoteObject, 0, len(args))
	for _, arg := range args {
		remote, err := debug.WrapValue(arg)
		if err != nil {
			remote = debug.UndefinedRemoteObject()
		}
		wrapped = append(wrapped, *remote)
	}

	a.frontend.SendNotification(cdp.EventRuntimeConsoleAPICalled, cdp.ConsoleAPICalledParams{
		Type:      kind,
		Args:      wrapped,
		Timestamp: 0,
	})
}
