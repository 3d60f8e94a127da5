package debug

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/dshills/jsinspect/engine"
	"github.com/dshills/jsinspect/internal/cdp"
)

const (
	// Display strings are capped at this many characters before the
	// ellipsis is appended.
	displayMax = 196

	// Fallback text for exceptions without a display string.
	defaultExceptionText = "Uncaught"

	// Property attribute flag marking a read-only property.
	propertyAttrReadOnly = 0x4
)

// Scope object names recognized inside scope-form object ids.
const (
	ScopeLocals  = "locals"
	ScopeGlobals = "globals"
)

// ObjectID is a parsed opaque object id. Exactly one of the two forms is
// populated: a persistent engine handle, or a call-frame scope reference.
type ObjectID struct {
	Handle  int
	Ordinal int
	Name    string

	HasHandle  bool
	HasOrdinal bool
}

// FormatObjectID renders the handle form of an object id.
func FormatObjectID(handle int) string {
	return fmt.Sprintf(`{"handle":%d}`, handle)
}

// FormatScopeObjectID renders the scope form of an object id, rooted in the
// call frame identified by ordinal.
func FormatScopeObjectID(ordinal int, name string) string {
	return fmt.Sprintf(`{"ordinal":%d,"name":%q}`, ordinal, name)
}

// FormatCallFrameID renders a call frame id carrying the frame's ordinal.
func FormatCallFrameID(ordinal int) string {
	return fmt.Sprintf(`{"ordinal":%d}`, ordinal)
}

// ParseObjectID parses an opaque object id string. It fails with
// ErrInvalidObjectID when the string is not a JSON object; consumers decide
// which of the recognized forms they accept.
func ParseObjectID(objectID string) (*ObjectID, error) {
	if !gjson.Valid(objectID) {
		return nil, ErrInvalidObjectID
	}

	parsed := gjson.Parse(objectID)
	if !parsed.IsObject() {
		return nil, ErrInvalidObjectID
	}

	id := &ObjectID{}
	if handle := parsed.Get("handle"); handle.Exists() {
		id.Handle = int(handle.Int())
		id.HasHandle = true
	}
	if ordinal := parsed.Get("ordinal"); ordinal.Exists() {
		id.Ordinal = int(ordinal.Int())
		id.HasOrdinal = true
	}
	id.Name = parsed.Get("name").String()

	return id, nil
}

// ExceptionOf extracts the exception descriptor from a script exception or
// compile failure.
func ExceptionOf(err error) (engine.Object, bool) {
	ee, ok := err.(*engine.Error)
	if !ok || ee.Exception == nil {
		return nil, false
	}
	if ee.Code != engine.CodeScriptException && ee.Code != engine.CodeScriptCompile {
		return nil, false
	}
	return ee.Exception, true
}

// UndefinedRemoteObject returns the canonical wrapper for undefined.
func UndefinedRemoteObject() *cdp.RemoteObject {
	return &cdp.RemoteObject{Type: cdp.TypeUndefined}
}

// WrapObject converts an engine value descriptor (an object carrying type,
// optional className, value, display and handle properties) into a
// RemoteObject.
func WrapObject(obj engine.Object) (*cdp.RemoteObject, error) {
	typeName, hasType := obj.TryStr(engine.PropType)
	if !hasType || typeName == cdp.TypeUndefined {
		return UndefinedRemoteObject(), nil
	}

	remote := &cdp.RemoteObject{Type: typeName}

	if className, ok := obj.TryStr(engine.PropClassName); ok {
		remote.ClassName = className
	}

	hasValue := obj.Has(engine.PropValue)
	if hasValue {
		remote.Value = ToProtocolValue(obj[engine.PropValue])
	}

	display, hasDisplay := obj.TryStr(engine.PropDisplay)

	// A description is required for values to be shown in the debugger.
	if !hasDisplay {
		if !hasValue {
			return nil, ErrNoDisplayString
		}
		display, _ = obj.StrConvert(engine.PropValue)
	}
	remote.Description = display

	if handle, ok := obj.TryInt(engine.PropHandle); ok {
		remote.ObjectID = FormatObjectID(handle)
	}

	return remote, nil
}

// WrapValue converts a raw engine value into a RemoteObject by synthesizing
// a descriptor around it. Errors, symbols, array buffers, typed arrays and
// data views are not supported.
func WrapValue(value any) (*cdp.RemoteObject, error) {
	var typeName, display string

	switch v := value.(type) {
	case engine.UndefinedValue:
		typeName = "undefined"
		display = "undefined"
	case nil:
		typeName = "null"
		display = "null"
	case bool:
		typeName = "boolean"
		display = strconv.FormatBool(v)
	case int:
		typeName = "number"
		display = fmt.Sprintf("%.8f", float64(v))
	case int64:
		typeName = "number"
		display = fmt.Sprintf("%.8f", float64(v))
	case float64:
		typeName = "number"
		display = fmt.Sprintf("%.8f", v)
	case string:
		typeName = "string"
		display = truncateDisplay(v)
	case map[string]any, engine.Object:
		typeName = "object"
		display = "{...}"
	case []any:
		typeName = "array"
		display = "[...]"
	default:
		return nil, ErrUnsupportedValue
	}

	desc := engine.Object{
		engine.PropName:    "[value]",
		engine.PropType:    typeName,
		engine.PropDisplay: display,
		engine.PropValue:   value,
	}
	return WrapObject(desc)
}

// truncateDisplay caps a display string, marking truncation with an
// ellipsis.
func truncateDisplay(s string) string {
	if len(s) <= displayMax {
		return s
	}
	return s[:displayMax] + "..."
}

// WrapException wraps an exception descriptor, tagging it with the error
// subtype.
func WrapException(exception engine.Object) (*cdp.RemoteObject, error) {
	wrapped, err := WrapObject(exception)
	if err != nil {
		return nil, err
	}
	wrapped.Subtype = "error"
	return wrapped, nil
}

// WrapExceptionDetails builds protocol exception details around an exception
// descriptor. Line and column are unavailable on engine exception records
// and are reported as zero.
func WrapExceptionDetails(exception engine.Object) (*cdp.ExceptionDetails, error) {
	wrapped, err := WrapException(exception)
	if err != nil {
		return nil, err
	}

	text := exception.Str(engine.PropDisplay)
	if text == "" {
		text = defaultExceptionText
	}

	return &cdp.ExceptionDetails{
		ExceptionID:  exception.Int(engine.PropHandle),
		Text:         text,
		LineNumber:   0,
		ColumnNumber: 0,
		Exception:    wrapped,
	}, nil
}

// WrapProperty converts an engine property descriptor into a protocol
// property descriptor.
func WrapProperty(property engine.Object) (cdp.PropertyDescriptor, error) {
	value, err := WrapObject(property)
	if err != nil {
		return cdp.PropertyDescriptor{}, err
	}

	attrs := property.Int(engine.PropPropertyAttrs)

	return cdp.PropertyDescriptor{
		Name:         property.Str(engine.PropName),
		Value:        value,
		Writable:     attrs&propertyAttrReadOnly == 0,
		Configurable: true,
		Enumerable:   true,
	}, nil
}

// WrapInternalProperty converts an engine property descriptor into a
// protocol internal-property descriptor.
func WrapInternalProperty(property engine.Object) (cdp.InternalPropertyDescriptor, error) {
	value, err := WrapObject(property)
	if err != nil {
		return cdp.InternalPropertyDescriptor{}, err
	}

	return cdp.InternalPropertyDescriptor{
		Name:  property.Str(engine.PropName),
		Value: value,
	}, nil
}

// ToProtocolValue converts a raw engine value into a protocol value.
// Objects and arrays become empty placeholders.
// TODO: populate object and array contents by enumerating properties.
func ToProtocolValue(value any) any {
	switch v := value.(type) {
	case engine.UndefinedValue:
		return nil
	case nil:
		return nil
	case bool:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	case string:
		return v
	case map[string]any, engine.Object:
		return map[string]any{}
	case []any:
		return []any{}
	default:
		return nil
	}
}
