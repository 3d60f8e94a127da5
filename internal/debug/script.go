package debug

import (
	"strconv"

	"github.com/dshills/jsinspect/engine"
)

// Script is the immutable record of one script compiled by the engine. The
// source text is fetched lazily on first access.
type Script struct {
	eng engine.Diagnostics

	scriptID           int
	url                string
	startLine          int
	startColumn        int
	endLine            int
	endColumn          int
	executionContextID int
	hash               string
	auxData            string
	isLiveEdit         bool
	sourceMapURL       string
	hasSourceURL       bool

	source       string
	sourceLoaded bool
}

// NewScript builds a script record from an engine script metadata object.
func NewScript(eng engine.Diagnostics, obj engine.Object) *Script {
	return &Script{
		eng:                eng,
		scriptID:           obj.Int(engine.PropScriptID),
		url:                obj.Str(engine.PropURL),
		startLine:          obj.Int(engine.PropStartLine),
		startColumn:        obj.Int(engine.PropStartColumn),
		endLine:            obj.Int(engine.PropEndLine),
		endColumn:          obj.Int(engine.PropEndColumn),
		executionContextID: obj.Int(engine.PropExecutionContextID),
		hash:               obj.Str(engine.PropHash),
		auxData:            obj.Str(engine.PropExecutionContextAuxData),
		isLiveEdit:         obj.Bool(engine.PropIsLiveEdit),
		sourceMapURL:       obj.Str(engine.PropSourceMappingURL),
		hasSourceURL:       obj.Bool(engine.PropHasSourceURL),
	}
}

// ScriptID returns the engine script id in its protocol string form.
func (s *Script) ScriptID() string { return strconv.Itoa(s.scriptID) }

// RawScriptID returns the engine script id.
func (s *Script) RawScriptID() int { return s.scriptID }

// URL returns the script's source URL.
func (s *Script) URL() string { return s.url }

// StartLine returns the first line of the script.
func (s *Script) StartLine() int { return s.startLine }

// StartColumn returns the first column of the script.
func (s *Script) StartColumn() int { return s.startColumn }

// EndLine returns the last line of the script.
func (s *Script) EndLine() int { return s.endLine }

// EndColumn returns the last column of the script.
func (s *Script) EndColumn() int { return s.endColumn }

// ExecutionContextID returns the owning execution context.
func (s *Script) ExecutionContextID() int { return s.executionContextID }

// Hash returns the engine's content hash, if any.
func (s *Script) Hash() string { return s.hash }

// ExecutionContextAuxData returns the raw auxiliary-data JSON blob, possibly
// empty.
func (s *Script) ExecutionContextAuxData() string { return s.auxData }

// IsLiveEdit reports whether the script was produced by live edit.
func (s *Script) IsLiveEdit() bool { return s.isLiveEdit }

// SourceMapURL returns the script's source map URL, if any.
func (s *Script) SourceMapURL() string { return s.sourceMapURL }

// HasSourceURL reports whether the script carried a sourceURL annotation.
func (s *Script) HasSourceURL() bool { return s.hasSourceURL }

// Source returns the script's full source text, fetching it from the engine
// on first use. A fetch failure yields an empty string and is retried on the
// next call.
func (s *Script) Source() string {
	if !s.sourceLoaded {
		obj, err := s.eng.GetSource(s.scriptID)
		if err != nil {
			return ""
		}
		s.source = obj.Str(engine.PropSource)
		s.sourceLoaded = true
	}
	return s.source
}
