// Package expr compiles and evaluates the row key and column family
// expressions.
//
// The language is a closed subset built on gval: string literals (double or
// single quoted), integer and float literals, true and false, identifiers,
// parentheses, the arithmetic operators + - * / %, comparisons
// == != < <= > >=, the logical operators && || ! and unary minus. "+"
// concatenates when either operand is a string.
package expr

import (
	"context"
	"fmt"
	"sort"

	"github.com/PaesslerAG/gval"
	"github.com/acksell/dynsink/record"
	"github.com/acksell/dynsink/schema"
	"github.com/pkg/errors"
)

// Expression is a compiled expression. It is read-only after Compile and
// safe for concurrent use.
type Expression struct {
	text string
	vars []string
	eval gval.Evaluable
}

// Compile parses text into an Expression.
func Compile(text string) (*Expression, error) {
	c := &collector{seen: make(map[string]struct{})}
	lang := gval.NewLanguage(operators, gval.VariableSelector(c.selector))
	eval, err := lang.NewEvaluable(text)
	if err != nil {
		return nil, &CompileError{Expression: text, Msg: err.Error()}
	}
	if c.err != nil {
		return nil, &CompileError{Expression: text, Msg: c.err.Error()}
	}
	vars := make([]string, 0, len(c.seen))
	for name := range c.seen {
		vars = append(vars, name)
	}
	sort.Strings(vars)
	return &Expression{text: text, vars: vars, eval: eval}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(text string) *Expression {
	e, err := Compile(text)
	if err != nil {
		panic(err)
	}
	return e
}

// String returns the source text.
func (e *Expression) String() string { return e.text }

// Variables returns the distinct identifiers referenced by the expression,
// sorted. The slice must not be modified.
func (e *Expression) Variables() []string { return e.vars }

// Evaluate runs the expression against r and returns the resulting string.
func (e *Expression) Evaluate(r *record.Record) (string, error) {
	return e.EvaluateContext(context.Background(), r)
}

// EvaluateContext is Evaluate with a caller supplied context.
func (e *Expression) EvaluateContext(ctx context.Context, r *record.Record) (string, error) {
	params, err := e.bind(r)
	if err != nil {
		return "", err
	}
	out, err := e.eval(ctx, params)
	if err != nil {
		return "", &EvalError{Expression: e.text, Msg: err.Error(), Err: err}
	}
	s, ok := out.(string)
	if !ok {
		return "", &EvalError{Expression: e.text, Msg: fmt.Sprintf("result %s (%T) is not a string", Format(out), out)}
	}
	return s, nil
}

// bind collects the values of the referenced simple fields. Null values bind
// as nil.
func (e *Expression) bind(r *record.Record) (map[string]interface{}, error) {
	params := make(map[string]interface{}, len(e.vars))
	for _, name := range e.vars {
		f, ok := r.Schema().Field(name)
		if !ok {
			return nil, &EvalError{Expression: e.text, Variable: name, Msg: "variable is not a field of the record"}
		}
		if !f.Schema.IsSimple() {
			return nil, &EvalError{Expression: e.text, Variable: name, Msg: "variable is bound to unsupported type " + f.Schema.String()}
		}
		v, _ := r.Get(name)
		params[name] = v.Native()
	}
	return params, nil
}

// CheckBindings reports every referenced variable that is missing from s or
// whose type is not simple. It returns nil when all variables bind.
func (e *Expression) CheckBindings(s *schema.Schema) []error {
	var errs []error
	for _, name := range e.vars {
		f, ok := s.Field(name)
		if !ok {
			errs = append(errs, &VariableBindingError{Expression: e.text, Variable: name, Reason: ReasonMissing})
			continue
		}
		if !f.Schema.IsSimple() {
			errs = append(errs, &VariableBindingError{Expression: e.text, Variable: name, Reason: ReasonNotSimple, Found: f.Schema})
		}
	}
	return errs
}

// collector records the identifiers seen while parsing one expression.
type collector struct {
	seen map[string]struct{}
	err  error
}

func (c *collector) selector(path gval.Evaluables) gval.Evaluable {
	name, err := path[0].EvalString(context.Background(), nil)
	switch {
	case err != nil:
		c.err = err
	case len(path) > 1:
		c.err = errors.Errorf("nested variable %q is not supported", name)
	default:
		c.seen[name] = struct{}{}
	}
	return func(_ context.Context, params interface{}) (interface{}, error) {
		vars, _ := params.(map[string]interface{})
		v, ok := vars[name]
		if !ok {
			return nil, errors.Errorf("unknown variable %s", name)
		}
		return v, nil
	}
}
