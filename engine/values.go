package engine

// UndefinedValue is the raw-value representation of JavaScript undefined,
// distinct from nil, which represents null.
type UndefinedValue struct{}

// Undefined is the canonical undefined raw value.
var Undefined UndefinedValue

// String returns the script-side rendering of undefined.
func (UndefinedValue) String() string { return "undefined" }
