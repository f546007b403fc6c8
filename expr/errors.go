package expr

import (
	"fmt"

	"github.com/acksell/dynsink/schema"
)

// CompileError is returned when an expression is not valid in the language.
type CompileError struct {
	Expression string
	Msg        string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile expression %q: %s", e.Expression, e.Msg)
}

// BindingReason says why a variable cannot be bound.
type BindingReason int

const (
	ReasonMissing BindingReason = iota
	ReasonNotSimple
)

// VariableBindingError reports one variable of an expression that does not
// refer to a simple field of the input schema.
type VariableBindingError struct {
	Expression string
	Variable   string
	Reason     BindingReason
	Found      *schema.Schema // set for ReasonNotSimple
}

func (e *VariableBindingError) Error() string {
	if e.Reason == ReasonMissing {
		return fmt.Sprintf("expression %q has variable %q that is not present in input field", e.Expression, e.Variable)
	}
	return fmt.Sprintf("expression %q has variable %q that is not of type 'string', 'int', 'long', 'float', 'double' (found %s)",
		e.Expression, e.Variable, e.Found)
}

// EvalError is returned when evaluation fails for a record.
type EvalError struct {
	Expression string
	Variable   string // empty unless a specific binding failed
	Msg        string
	Err        error
}

func (e *EvalError) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("evaluate %q: variable %q: %s", e.Expression, e.Variable, e.Msg)
	}
	return fmt.Sprintf("evaluate %q: %s", e.Expression, e.Msg)
}

func (e *EvalError) Unwrap() error { return e.Err }
