package cdp

// Protocol type names for RemoteObject.Type.
const (
	TypeUndefined = "undefined"
	TypeObject    = "object"
	TypeFunction  = "function"
	TypeNumber    = "number"
	TypeString    = "string"
	TypeBoolean   = "boolean"
)

// RemoteObject mirrors Runtime.RemoteObject: a value that lives in the
// debuggee, referenced by objectId when it has a persistent handle.
type RemoteObject struct {
	Type        string `json:"type"`
	Subtype     string `json:"subtype,omitempty"`
	ClassName   string `json:"className,omitempty"`
	Value       any    `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
	ObjectID    string `json:"objectId,omitempty"`
}

// PropertyDescriptor mirrors Runtime.PropertyDescriptor.
type PropertyDescriptor struct {
	Name         string        `json:"name"`
	Value        *RemoteObject `json:"value,omitempty"`
	Writable     bool          `json:"writable"`
	Configurable bool          `json:"configurable"`
	Enumerable   bool          `json:"enumerable"`
}

// InternalPropertyDescriptor mirrors Runtime.InternalPropertyDescriptor.
type InternalPropertyDescriptor struct {
	Name  string        `json:"name"`
	Value *RemoteObject `json:"value,omitempty"`
}

// ExceptionDetails mirrors Runtime.ExceptionDetails.
type ExceptionDetails struct {
	ExceptionID        int           `json:"exceptionId"`
	Text               string        `json:"text"`
	LineNumber         int           `json:"lineNumber"`
	ColumnNumber       int           `json:"columnNumber"`
	ScriptID           string        `json:"scriptId,omitempty"`
	URL                string        `json:"url,omitempty"`
	Exception          *RemoteObject `json:"exception,omitempty"`
	ExecutionContextID int           `json:"executionContextId,omitempty"`
}

// Location mirrors Debugger.Location.
type Location struct {
	ScriptID     string `json:"scriptId"`
	LineNumber   int    `json:"lineNumber"`
	ColumnNumber int    `json:"columnNumber"`
}

// Scope mirrors Debugger.Scope: one entry of a call frame's scope chain.
type Scope struct {
	Type   string       `json:"type"`
	Object RemoteObject `json:"object"`
}

// Scope chain entry types.
const (
	ScopeTypeLocal  = "local"
	ScopeTypeGlobal = "global"
)

// CallFrame mirrors Debugger.CallFrame.
type CallFrame struct {
	CallFrameID  string        `json:"callFrameId"`
	FunctionName string        `json:"functionName"`
	Location     Location      `json:"location"`
	ScopeChain   []Scope       `json:"scopeChain"`
	This         *RemoteObject `json:"this,omitempty"`
}

// ExecutionContextDescription mirrors Runtime.ExecutionContextDescription.
type ExecutionContextDescription struct {
	ID     int    `json:"id"`
	Origin string `json:"origin"`
	Name   string `json:"name"`
}

// Domain is one entry of Schema.getDomains.
type Domain struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Notification method names emitted by the agents.
const (
	EventDebuggerScriptParsed           = "Debugger.scriptParsed"
	EventDebuggerScriptFailedToParse    = "Debugger.scriptFailedToParse"
	EventDebuggerPaused                 = "Debugger.paused"
	EventDebuggerResumed                = "Debugger.resumed"
	EventDebuggerBreakpointResolved     = "Debugger.breakpointResolved"
	EventRuntimeExecutionContextCreated = "Runtime.executionContextCreated"
	EventRuntimeConsoleAPICalled        = "Runtime.consoleAPICalled"
)

// ScriptParsedParams is the payload of Debugger.scriptParsed.
type ScriptParsedParams struct {
	ScriptID                string `json:"scriptId"`
	URL                     string `json:"url"`
	StartLine               int    `json:"startLine"`
	StartColumn             int    `json:"startColumn"`
	EndLine                 int    `json:"endLine"`
	EndColumn               int    `json:"endColumn"`
	ExecutionContextID      int    `json:"executionContextId"`
	Hash                    string `json:"hash"`
	ExecutionContextAuxData any    `json:"executionContextAuxData,omitempty"`
	IsLiveEdit              bool   `json:"isLiveEdit,omitempty"`
	SourceMapURL            string `json:"sourceMapURL,omitempty"`
	HasSourceURL            bool   `json:"hasSourceURL,omitempty"`
}

// ScriptFailedToParseParams is the payload of Debugger.scriptFailedToParse.
type ScriptFailedToParseParams struct {
	ScriptID                string `json:"scriptId"`
	URL                     string `json:"url"`
	StartLine               int    `json:"startLine"`
	StartColumn             int    `json:"startColumn"`
	EndLine                 int    `json:"endLine"`
	EndColumn               int    `json:"endColumn"`
	ExecutionContextID      int    `json:"executionContextId"`
	Hash                    string `json:"hash"`
	ExecutionContextAuxData any    `json:"executionContextAuxData,omitempty"`
	SourceMapURL            string `json:"sourceMapURL,omitempty"`
	HasSourceURL            bool   `json:"hasSourceURL,omitempty"`
}

// PausedParams is the payload of Debugger.paused.
type PausedParams struct {
	CallFrames     []CallFrame `json:"callFrames"`
	Reason         string      `json:"reason"`
	Data           any         `json:"data,omitempty"`
	HitBreakpoints []string    `json:"hitBreakpoints,omitempty"`
}

// Pause reasons.
const (
	PauseReasonOther     = "other"
	PauseReasonException = "exception"
)

// BreakpointResolvedParams is the payload of Debugger.breakpointResolved.
type BreakpointResolvedParams struct {
	BreakpointID string   `json:"breakpointId"`
	Location     Location `json:"location"`
}

// ExecutionContextCreatedParams is the payload of
// Runtime.executionContextCreated.
type ExecutionContextCreatedParams struct {
	Context ExecutionContextDescription `json:"context"`
}

// ConsoleAPICalledParams is the payload of Runtime.consoleAPICalled.
type ConsoleAPICalledParams struct {
	Type               string         `json:"type"`
	Args               []RemoteObject `json:"args"`
	ExecutionContextID int            `json:"executionContextId"`
	Timestamp          float64        `json:"timestamp"`
}
