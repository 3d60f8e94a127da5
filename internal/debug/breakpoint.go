package debug

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/dshills/jsinspect/internal/cdp"
)

// QueryKind identifies how a breakpoint selects its script.
type QueryKind int

const (
	// QueryScriptID targets one specific script id.
	QueryScriptID QueryKind = iota
	// QueryURL matches scripts by exact URL.
	QueryURL
	// QueryURLRegex matches scripts by URL regular expression.
	QueryURLRegex
)

// String returns a string representation of the kind.
func (k QueryKind) String() string {
	switch k {
	case QueryScriptID:
		return "scriptId"
	case QueryURL:
		return "url"
	case QueryURLRegex:
		return "urlRegex"
	default:
		return "unknown"
	}
}

// Breakpoint is one requested breakpoint and its resolution state. The
// engine-assigned id stays negative until the breakpoint has been accepted;
// once accepted, the actual line and column reflect the engine's chosen
// location, which may differ from the requested one.
type Breakpoint struct {
	query     string
	kind      QueryKind
	line      int
	column    int
	condition string

	scriptID     int
	scriptLoaded bool

	actualID     int
	actualLine   int
	actualColumn int
}

// NewBreakpoint creates an unresolved breakpoint from a URL or URL-regex
// query.
func NewBreakpoint(query string, kind QueryKind, line, column int, condition string) *Breakpoint {
	return &Breakpoint{
		query:     query,
		kind:      kind,
		line:      line,
		column:    column,
		condition: condition,
		actualID:  -1,
	}
}

// BreakpointFromLocation creates a breakpoint pinned to a loaded script id.
func BreakpointFromLocation(scriptID, line, column int, condition string) *Breakpoint {
	return &Breakpoint{
		query:        strconv.Itoa(scriptID),
		kind:         QueryScriptID,
		line:         line,
		column:       column,
		condition:    condition,
		scriptID:     scriptID,
		scriptLoaded: true,
		actualID:     -1,
	}
}

// Key returns the breakpoint's fingerprint: a deterministic string derived
// from the query, query kind, requested location and condition.
func (b *Breakpoint) Key() string {
	return fmt.Sprintf("%d:%d:%d:%s:%s", b.kind, b.line, b.column, b.query, b.condition)
}

// Condition returns the breakpoint's condition expression, possibly empty.
func (b *Breakpoint) Condition() string { return b.condition }

// LineNumber returns the requested line.
func (b *Breakpoint) LineNumber() int { return b.line }

// ColumnNumber returns the requested column.
func (b *Breakpoint) ColumnNumber() int { return b.column }

// ScriptID returns the id of the script the breakpoint is bound to.
func (b *Breakpoint) ScriptID() int { return b.scriptID }

// IsScriptLoaded reports whether a matching script has been bound.
func (b *Breakpoint) IsScriptLoaded() bool { return b.scriptLoaded }

// ActualID returns the engine-assigned breakpoint id, negative while
// unresolved.
func (b *Breakpoint) ActualID() int { return b.actualID }

// IsResolved reports whether the engine has accepted the breakpoint.
func (b *Breakpoint) IsResolved() bool { return b.actualID >= 0 }

// TryLoadScript binds the breakpoint to script when the query matches. A
// breakpoint already bound to a script is left alone.
func (b *Breakpoint) TryLoadScript(script *Script) bool {
	if b.scriptLoaded {
		return false
	}

	switch b.kind {
	case QueryURL:
		if script.URL() != b.query {
			return false
		}
	case QueryURLRegex:
		re, err := regexp.Compile(b.query)
		if err != nil || !re.MatchString(script.URL()) {
			return false
		}
	case QueryScriptID:
		if script.ScriptID() != b.query {
			return false
		}
	default:
		return false
	}

	b.scriptID = script.RawScriptID()
	b.scriptLoaded = true
	return true
}

// OnResolved records the engine's acceptance of the breakpoint.
func (b *Breakpoint) OnResolved(actualID, actualLine, actualColumn int) {
	b.actualID = actualID
	b.actualLine = actualLine
	b.actualColumn = actualColumn
}

// ActualLocation returns the engine's chosen location for the resolved
// breakpoint.
func (b *Breakpoint) ActualLocation() cdp.Location {
	return cdp.Location{
		ScriptID:     strconv.Itoa(b.scriptID),
		LineNumber:   b.actualLine,
		ColumnNumber: b.actualColumn,
	}
}
