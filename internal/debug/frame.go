package debug

import (
	"strconv"

	"github.com/dshills/jsinspect/engine"
	"github.com/dshills/jsinspect/internal/cdp"
)

// CallFrame is one entry of the paused engine's stack trace, identified by
// ordinal (0 is the top frame).
type CallFrame struct {
	eng     engine.Diagnostics
	obj     engine.Object
	ordinal int
}

// NewCallFrame builds a call frame view over an engine stack frame object.
func NewCallFrame(eng engine.Diagnostics, obj engine.Object) *CallFrame {
	return &CallFrame{eng: eng, obj: obj, ordinal: obj.Int(engine.PropIndex)}
}

// Ordinal returns the frame's position in the stack trace.
func (f *CallFrame) Ordinal() int { return f.ordinal }

// ToProtocol converts the frame into its protocol form. The scope chain
// exposes the locals and globals scope objects through scope-form object
// ids; `this` is reported as undefined because the engine's stack records do
// not carry it.
func (f *CallFrame) ToProtocol() cdp.CallFrame {
	functionName := f.obj.Str(engine.PropFunctionName)

	return cdp.CallFrame{
		CallFrameID:  FormatCallFrameID(f.ordinal),
		FunctionName: functionName,
		Location: cdp.Location{
			ScriptID:     strconv.Itoa(f.obj.Int(engine.PropScriptID)),
			LineNumber:   f.obj.Int(engine.PropLine),
			ColumnNumber: f.obj.Int(engine.PropColumn),
		},
		ScopeChain: []cdp.Scope{
			{
				Type: cdp.ScopeTypeLocal,
				Object: cdp.RemoteObject{
					Type:        cdp.TypeObject,
					ClassName:   "Object",
					Description: "Object",
					ObjectID:    FormatScopeObjectID(f.ordinal, ScopeLocals),
				},
			},
			{
				Type: cdp.ScopeTypeGlobal,
				Object: cdp.RemoteObject{
					Type:        cdp.TypeObject,
					ClassName:   "Object",
					Description: "Object",
					ObjectID:    FormatScopeObjectID(f.ordinal, ScopeGlobals),
				},
			},
		},
		This: UndefinedRemoteObject(),
	}
}

// Evaluate evaluates an expression in this frame. A thrown script exception
// is reported through the returned exception details alongside the wrapped
// exception value.
func (f *CallFrame) Evaluate(expression string) (*cdp.RemoteObject, *cdp.ExceptionDetails, error) {
	result, err := f.eng.Evaluate(expression, f.ordinal)
	if err != nil {
		if exc, ok := ExceptionOf(err); ok {
			wrapped, werr := WrapException(exc)
			if werr != nil {
				return nil, nil, werr
			}
			details, werr := WrapExceptionDetails(exc)
			if werr != nil {
				return nil, nil, werr
			}
			return wrapped, details, nil
		}
		return nil, nil, err
	}

	wrapped, err := WrapObject(result)
	if err != nil {
		return nil, nil, err
	}
	return wrapped, nil, nil
}

// GetLocals returns the frame's local variable descriptors.
func (f *CallFrame) GetLocals() ([]cdp.PropertyDescriptor, []cdp.InternalPropertyDescriptor, error) {
	props, err := f.eng.GetStackProperties(f.ordinal)
	if err != nil {
		return nil, nil, err
	}

	descriptors := make([]cdp.PropertyDescriptor, 0, len(props.Array(engine.PropLocals)))
	for _, local := range props.Array(engine.PropLocals) {
		d, err := WrapProperty(local)
		if err != nil {
			return nil, nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil, nil
}

// GetGlobals returns the property descriptors of the frame's globals
// object.
func (f *CallFrame) GetGlobals() ([]cdp.PropertyDescriptor, []cdp.InternalPropertyDescriptor, error) {
	props, err := f.eng.GetStackProperties(f.ordinal)
	if err != nil {
		return nil, nil, err
	}

	globals, ok := props.TryObject(engine.PropGlobals)
	if !ok {
		return []cdp.PropertyDescriptor{}, nil, nil
	}

	handle, ok := globals.TryInt(engine.PropHandle)
	if !ok {
		return []cdp.PropertyDescriptor{}, nil, nil
	}

	return wrapObjectProperties(f.eng, handle)
}

// BreakInfo is the payload of an engine break event.
type BreakInfo struct {
	data engine.Object
}

// NewBreakInfo wraps an engine break event payload.
func NewBreakInfo(data engine.Object) *BreakInfo {
	return &BreakInfo{data: data}
}

// HitBreakpoint returns the engine id of the breakpoint that fired, or a
// negative value when the break was not caused by a breakpoint.
func (b *BreakInfo) HitBreakpoint() int {
	if id, ok := b.data.TryInt(engine.PropBreakpoint); ok {
		return id
	}
	return -1
}

// Exception returns the thrown exception descriptor for exception breaks.
func (b *BreakInfo) Exception() (engine.Object, bool) {
	return b.data.TryObject(engine.PropException)
}

// Reason returns the protocol pause reason for this break.
func (b *BreakInfo) Reason() string {
	if _, ok := b.Exception(); ok {
		return cdp.PauseReasonException
	}
	return cdp.PauseReasonOther
}
