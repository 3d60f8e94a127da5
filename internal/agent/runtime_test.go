package agent

import (
	"errors"
	"strings"
	"testing"

	"github.com/dshills/jsinspect/engine"
	"github.com/dshills/jsinspect/internal/cdp"
	"github.com/dshills/jsinspect/internal/debug"
)

func newRuntimeAgent(t *testing.T) (*RuntimeAgent, *testRig) {
	t.Helper()
	rig := newRig(t)
	return NewRuntimeAgent(rig.core, rig.frontend, rig.host), rig
}

func TestRuntimeAgent_EnableAnnouncesContext(t *testing.T) {
	a, rig := newRuntimeAgent(t)

	if _, err := a.enable(nil); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	if _, err := a.enable(nil); err != nil {
		t.Fatalf("second enable failed: %v", err)
	}

	if got := rig.frontend.count(cdp.EventRuntimeExecutionContextCreated); got != 1 {
		t.Fatalf("expected 1 executionContextCreated, got %d", got)
	}

	params := rig.frontend.last(t, cdp.EventRuntimeExecutionContextCreated).params.(cdp.ExecutionContextCreatedParams)
	if params.Context.ID != 1 || params.Context.Origin != "default" || params.Context.Name != "default" {
		t.Errorf("context = %+v", params.Context)
	}
}

func TestRuntimeAgent_RunIfWaitingForDebugger(t *testing.T) {
	a, rig := newRuntimeAgent(t)

	if _, err := a.runIfWaitingForDebugger(nil); !errors.Is(err, ErrRuntimeNotEnabled) {
		t.Fatalf("disabled: got %v, want ErrRuntimeNotEnabled", err)
	}

	if _, err := a.enable(nil); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	if _, err := a.runIfWaitingForDebugger(nil); err != nil {
		t.Fatalf("runIfWaitingForDebugger failed: %v", err)
	}
	if rig.host.runIfWaitingCalls != 1 {
		t.Errorf("host calls = %d, want 1", rig.host.runIfWaitingCalls)
	}
}

func TestRuntimeAgent_EvaluateThrowOnSideEffect(t *testing.T) {
	a, _ := newRuntimeAgent(t)

	result, err := a.evaluate(request(`{"expression":"globalThis.x=1","throwOnSideEffect":true}`))
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	eval := result.(evaluateResult)
	if eval.Result.Type != "undefined" {
		t.Errorf("result type = %q, want undefined", eval.Result.Type)
	}
	if eval.ExceptionDetails == nil {
		t.Fatal("expected exception details")
	}
	if eval.ExceptionDetails.Text != "Possible side effects of expression evaluation" {
		t.Errorf("text = %q", eval.ExceptionDetails.Text)
	}
}

func TestRuntimeAgent_EvaluateAwaitPromiseNotImplemented(t *testing.T) {
	a, _ := newRuntimeAgent(t)

	_, err := a.evaluate(request(`{"expression":"p","awaitPromise":true}`))
	if !errors.Is(err, cdp.ErrNotImplemented) {
		t.Errorf("got %v, want ErrNotImplemented", err)
	}
}

func TestRuntimeAgent_EvaluateGlobalFallback(t *testing.T) {
	a, rig := newRuntimeAgent(t)

	var gotSource string
	rig.eng.EvaluateGlobalFunc = func(script, sourceName string) (any, error) {
		gotSource = script
		return map[string]any{"value": 5.0}, nil
	}

	result, err := a.evaluate(request(`{"expression":"2+3"}`))
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	if !strings.Contains(gotSource, `eval("2+3")`) {
		t.Errorf("wrapper source = %q", gotSource)
	}
	if !strings.HasPrefix(gotSource, "try{({value:eval(") {
		t.Errorf("wrapper source = %q", gotSource)
	}
	if !strings.HasSuffix(gotSource, `})}catch(e){({error:e})}`) {
		t.Errorf("wrapper source = %q", gotSource)
	}

	eval := result.(evaluateResult)
	if eval.Result.Type != "number" {
		t.Errorf("type = %q, want number", eval.Result.Type)
	}
	if eval.Result.Value != 5.0 {
		t.Errorf("value = %v, want 5", eval.Result.Value)
	}
	if eval.Result.Description != "5.00000000" {
		t.Errorf("description = %q, want 5.00000000", eval.Result.Description)
	}
}

func TestRuntimeAgent_EvaluateGlobalEscapesExpression(t *testing.T) {
	a, rig := newRuntimeAgent(t)

	var gotSource string
	rig.eng.EvaluateGlobalFunc = func(script, sourceName string) (any, error) {
		gotSource = script
		return map[string]any{"value": nil}, nil
	}

	if _, err := a.evaluate(request(`{"expression":"say(\"hi\\\\there\")"}`)); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	if !strings.Contains(gotSource, `eval("say(\"hi\\\\there\")")`) {
		t.Errorf("wrapper source = %q", gotSource)
	}
}

func TestRuntimeAgent_EvaluateGlobalErrorProperty(t *testing.T) {
	a, rig := newRuntimeAgent(t)

	rig.eng.EvaluateGlobalFunc = func(script, sourceName string) (any, error) {
		return map[string]any{"error": "ReferenceError: x is not defined"}, nil
	}

	result, err := a.evaluate(request(`{"expression":"x"}`))
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	eval := result.(evaluateResult)
	if eval.Result.Type != "undefined" {
		t.Errorf("result type = %q, want undefined", eval.Result.Type)
	}
	if eval.ExceptionDetails == nil || eval.ExceptionDetails.Text != "ReferenceError: x is not defined" {
		t.Errorf("exception details = %+v", eval.ExceptionDetails)
	}
}

func TestRuntimeAgent_EvaluateSilent(t *testing.T) {
	a, rig := newRuntimeAgent(t)

	rig.eng.EvaluateGlobalFunc = func(script, sourceName string) (any, error) {
		return nil, engine.NewError(engine.CodeGeneric, "engine blew up")
	}

	// Loud: the failure propagates.
	if _, err := a.evaluate(request(`{"expression":"x"}`)); err == nil {
		t.Fatal("expected an error without silent")
	}

	// Silent: the failure rides in exception details on success.
	result, err := a.evaluate(request(`{"expression":"x","silent":true}`))
	if err != nil {
		t.Fatalf("silent evaluate failed: %v", err)
	}
	eval := result.(evaluateResult)
	if eval.ExceptionDetails == nil || !strings.Contains(eval.ExceptionDetails.Text, "engine blew up") {
		t.Errorf("exception details = %+v", eval.ExceptionDetails)
	}
}

func TestRuntimeAgent_EvaluateAtBreakUsesFrame(t *testing.T) {
	a, rig := newRuntimeAgent(t)

	rig.eng.EvalResults["total"] = engine.Object{
		engine.PropType:    "number",
		engine.PropValue:   45.0,
		engine.PropDisplay: "45.00000000",
	}

	var result any
	var evalErr error
	rig.core.SetBreakHandler(func(*debug.BreakInfo) debug.SkipPauseRequest {
		result, evalErr = a.evaluate(request(`{"expression":"total"}`))
		return debug.RequestContinue
	})
	rig.core.Enable()

	rig.eng.HitBreakpoint(-1, engine.Object{engine.PropIndex: 0})

	if evalErr != nil {
		t.Fatalf("evaluate failed: %v", evalErr)
	}
	eval := result.(evaluateResult)
	if eval.Result.Description != "45.00000000" {
		t.Errorf("result = %+v", eval.Result)
	}
}

func TestRuntimeAgent_EvaluateExceptionAtBreak(t *testing.T) {
	a, rig := newRuntimeAgent(t)

	rig.eng.EvalErrors["boom()"] = &engine.Error{
		Code:    engine.CodeScriptException,
		Message: "script threw",
		Exception: engine.Object{
			engine.PropType:    "object",
			engine.PropDisplay: "Error: boom",
			engine.PropHandle:  6,
		},
	}

	var result any
	var evalErr error
	rig.core.SetBreakHandler(func(*debug.BreakInfo) debug.SkipPauseRequest {
		result, evalErr = a.evaluate(request(`{"expression":"boom()"}`))
		return debug.RequestContinue
	})
	rig.core.Enable()

	rig.eng.HitBreakpoint(-1, engine.Object{engine.PropIndex: 0})

	if evalErr != nil {
		t.Fatalf("evaluate failed: %v", evalErr)
	}
	eval := result.(evaluateResult)
	if eval.ExceptionDetails == nil {
		t.Fatal("expected exception details")
	}
	if eval.ExceptionDetails.Text != "Error: boom" {
		t.Errorf("text = %q", eval.ExceptionDetails.Text)
	}
	if eval.ExceptionDetails.ExceptionID != 6 {
		t.Errorf("exceptionId = %d, want 6", eval.ExceptionDetails.ExceptionID)
	}
}

func TestRuntimeAgent_GetPropertiesAccessorOnly(t *testing.T) {
	a, _ := newRuntimeAgent(t)

	result, err := a.getProperties(request(`{"objectId":"{\"handle\":1}","accessorPropertiesOnly":true}`))
	if err != nil {
		t.Fatalf("getProperties failed: %v", err)
	}
	if got := result.(getPropertiesResult); len(got.Result) != 0 {
		t.Errorf("expected empty list, got %d", len(got.Result))
	}
}

func TestRuntimeAgent_GetPropertiesByHandle(t *testing.T) {
	a, rig := newRuntimeAgent(t)

	rig.eng.Objects[5] = engine.Object{engine.PropType: "object", engine.PropDisplay: "{...}", engine.PropHandle: 5}
	rig.eng.Properties[5] = engine.Object{
		engine.PropProperties: []any{
			map[string]any{
				engine.PropName:    "count",
				engine.PropType:    "number",
				engine.PropValue:   2.0,
				engine.PropDisplay: "2",
			},
		},
		engine.PropDebuggerOnlyProps: []any{
			map[string]any{
				engine.PropName:    "[[Prototype]]",
				engine.PropType:    "object",
				engine.PropDisplay: "Object",
			},
		},
	}

	result, err := a.getProperties(request(`{"objectId":"{\"handle\":5}"}`))
	if err != nil {
		t.Fatalf("getProperties failed: %v", err)
	}

	got := result.(getPropertiesResult)
	if len(got.Result) != 1 || got.Result[0].Name != "count" {
		t.Errorf("properties = %+v", got.Result)
	}
	if !got.Result[0].Writable || !got.Result[0].Enumerable || !got.Result[0].Configurable {
		t.Errorf("descriptor flags = %+v", got.Result[0])
	}
	if len(got.InternalProperties) != 1 || got.InternalProperties[0].Name != "[[Prototype]]" {
		t.Errorf("internal properties = %+v", got.InternalProperties)
	}
}

func TestRuntimeAgent_GetPropertiesLocals(t *testing.T) {
	a, rig := newRuntimeAgent(t)

	rig.eng.StackProperties[0] = engine.Object{
		engine.PropLocals: []any{
			map[string]any{
				engine.PropName:    "i",
				engine.PropType:    "number",
				engine.PropValue:   3.0,
				engine.PropDisplay: "3",
			},
		},
	}

	var result any
	var propErr error
	rig.core.SetBreakHandler(func(*debug.BreakInfo) debug.SkipPauseRequest {
		result, propErr = a.getProperties(request(`{"objectId":"{\"ordinal\":0,\"name\":\"locals\"}"}`))
		return debug.RequestContinue
	})
	rig.core.Enable()

	rig.eng.HitBreakpoint(-1, engine.Object{engine.PropIndex: 0})

	if propErr != nil {
		t.Fatalf("getProperties failed: %v", propErr)
	}
	got := result.(getPropertiesResult)
	if len(got.Result) != 1 || got.Result[0].Name != "i" {
		t.Errorf("locals = %+v", got.Result)
	}
}

func TestRuntimeAgent_GetPropertiesGlobals(t *testing.T) {
	a, rig := newRuntimeAgent(t)

	rig.eng.StackProperties[0] = engine.Object{
		engine.PropGlobals: map[string]any{engine.PropHandle: 7},
	}
	rig.eng.Properties[7] = engine.Object{
		engine.PropProperties: []any{
			map[string]any{
				engine.PropName:    "version",
				engine.PropType:    "string",
				engine.PropValue:   "1.0",
				engine.PropDisplay: "1.0",
			},
		},
	}

	var result any
	var propErr error
	rig.core.SetBreakHandler(func(*debug.BreakInfo) debug.SkipPauseRequest {
		result, propErr = a.getProperties(request(`{"objectId":"{\"ordinal\":0,\"name\":\"globals\"}"}`))
		return debug.RequestContinue
	})
	rig.core.Enable()

	rig.eng.HitBreakpoint(-1, engine.Object{engine.PropIndex: 0})

	if propErr != nil {
		t.Fatalf("getProperties failed: %v", propErr)
	}
	got := result.(getPropertiesResult)
	if len(got.Result) != 1 || got.Result[0].Name != "version" {
		t.Errorf("globals = %+v", got.Result)
	}
}

func TestRuntimeAgent_GetPropertiesInvalidObjectID(t *testing.T) {
	a, _ := newRuntimeAgent(t)

	tests := []string{
		`{"objectId":"not json"}`,
		`{"objectId":"{\"ordinal\":0,\"name\":\"closure\"}"}`,
		`{"objectId":"{\"something\":1}"}`,
	}

	for _, params := range tests {
		if _, err := a.getProperties(request(params)); !errors.Is(err, debug.ErrInvalidObjectID) {
			t.Errorf("params %s: got %v, want ErrInvalidObjectID", params, err)
		}
	}
}

func TestRuntimeAgent_CompileScriptPersistNotImplemented(t *testing.T) {
	a, _ := newRuntimeAgent(t)

	_, err := a.compileScript(request(`{"expression":"1+1","sourceURL":"s.js","persistScript":true}`))
	if !errors.Is(err, cdp.ErrNotImplemented) {
		t.Errorf("got %v, want ErrNotImplemented", err)
	}
}

func TestRuntimeAgent_CompileScriptSuccess(t *testing.T) {
	a, _ := newRuntimeAgent(t)

	result, err := a.compileScript(request(`{"expression":"1+1","sourceURL":"s.js"}`))
	if err != nil {
		t.Fatalf("compileScript failed: %v", err)
	}
	if result != nil {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func compileError() *engine.Error {
	return &engine.Error{
		Code:    engine.CodeScriptCompile,
		Message: "compile failed",
		Exception: engine.Object{
			engine.PropLine:   3,
			engine.PropColumn: 5,
			engine.PropException: map[string]any{
				"message": "Unexpected token",
			},
		},
	}
}

func TestRuntimeAgent_CompileScriptLenientFailure(t *testing.T) {
	a, rig := newRuntimeAgent(t)
	rig.eng.ParseScriptFunc = func(expression, sourceName string) error {
		return compileError()
	}

	result, err := a.compileScript(request(`{"expression":"1+","sourceURL":"s.js"}`))
	if err != nil {
		t.Fatalf("lenient compileScript should succeed, got %v", err)
	}

	details := result.(compileScriptResult).ExceptionDetails
	if details == nil {
		t.Fatal("expected exception details")
	}
	if details.Text != "Unexpected token" {
		t.Errorf("text = %q", details.Text)
	}
	if details.LineNumber != 3 || details.ColumnNumber != 5 {
		t.Errorf("line/column = %d/%d, want 3/5", details.LineNumber, details.ColumnNumber)
	}
}

func TestRuntimeAgent_CompileScriptStrictFailure(t *testing.T) {
	a, rig := newRuntimeAgent(t)
	a.StrictCompileErrors = true
	rig.eng.ParseScriptFunc = func(expression, sourceName string) error {
		return compileError()
	}

	_, err := a.compileScript(request(`{"expression":"1+","sourceURL":"s.js"}`))
	if !errors.Is(err, ErrScriptParse) {
		t.Errorf("strict compileScript: got %v, want ErrScriptParse", err)
	}
}

func TestRuntimeAgent_ConsoleAPIEvent(t *testing.T) {
	a, rig := newRuntimeAgent(t)

	a.ConsoleAPIEvent("log", []any{"hello", 2.0, struct{}{}})

	params := rig.frontend.last(t, cdp.EventRuntimeConsoleAPICalled).params.(cdp.ConsoleAPICalledParams)
	if params.Type != "log" {
		t.Errorf("type = %q", params.Type)
	}
	if params.Timestamp != 0 {
		t.Errorf("timestamp = %v, want 0", params.Timestamp)
	}
	if len(params.Args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(params.Args))
	}
	if params.Args[0].Type != "string" || params.Args[1].Type != "number" {
		t.Errorf("arg types = %q/%q", params.Args[0].Type, params.Args[1].Type)
	}
	if params.Args[2].Type != "undefined" {
		t.Errorf("unwrappable arg type = %q, want undefined", params.Args[2].Type)
	}
}
