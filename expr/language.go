package expr

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/PaesslerAG/gval"
	"github.com/pkg/errors"
)

// operators is the fixed part of the row key language. Variable selection is
// added per compilation so each Expression learns its own identifiers.
var operators = gval.NewLanguage(
	gval.Base(),
	gval.PropositionalLogic(),

	gval.PrefixExtension(scanner.Int, parseInt),
	gval.PrefixExtension(scanner.Char, parseSingleQuoted),
	gval.PrefixOperator("-", negate),

	gval.InfixOperator("+", arith('+')),
	gval.InfixOperator("-", arith('-')),
	gval.InfixOperator("*", arith('*')),
	gval.InfixOperator("/", arith('/')),
	gval.InfixOperator("%", arith('%')),

	gval.InfixNumberOperator("<", func(a, b float64) (interface{}, error) { return a < b, nil }),
	gval.InfixNumberOperator("<=", func(a, b float64) (interface{}, error) { return a <= b, nil }),
	gval.InfixNumberOperator(">", func(a, b float64) (interface{}, error) { return a > b, nil }),
	gval.InfixNumberOperator(">=", func(a, b float64) (interface{}, error) { return a >= b, nil }),
	gval.InfixTextOperator("<", func(a, b string) (interface{}, error) { return a < b, nil }),
	gval.InfixTextOperator("<=", func(a, b string) (interface{}, error) { return a <= b, nil }),
	gval.InfixTextOperator(">", func(a, b string) (interface{}, error) { return a > b, nil }),
	gval.InfixTextOperator(">=", func(a, b string) (interface{}, error) { return a >= b, nil }),

	gval.InfixTextOperator("==", func(a, b string) (interface{}, error) { return a == b, nil }),
	gval.InfixTextOperator("!=", func(a, b string) (interface{}, error) { return a != b, nil }),
	gval.InfixNumberOperator("==", func(a, b float64) (interface{}, error) { return a == b, nil }),
	gval.InfixNumberOperator("!=", func(a, b float64) (interface{}, error) { return a != b, nil }),

	gval.PrefixMetaPrefix(scanner.Ident, parseIdent),
)

// parseIdent accepts a bare identifier only. Calls, selectors and index
// expressions are rejected while parsing.
func parseIdent(_ context.Context, p *gval.Parser) (string, func() (gval.Evaluable, error), error) {
	name := p.TokenText()
	return name, func() (gval.Evaluable, error) {
		switch p.Scan() {
		case '(':
			return nil, errors.Errorf("function call %s(...) is not supported", name)
		case '.', '[':
			return nil, errors.Errorf("nested variable %q is not supported", name)
		}
		p.Camouflage("variable", '.', '(', '[')
		return p.Var(p.Const(name)), nil
	}, nil
}

// parseInt keeps integer literals integral so that "id + 1" stays "id1"
// rather than "id1.0".
func parseInt(_ context.Context, p *gval.Parser) (gval.Evaluable, error) {
	text := p.TokenText()
	n, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil {
			return nil, err
		}
		return p.Const(f), nil
	}
	return p.Const(n), nil
}

func parseSingleQuoted(_ context.Context, p *gval.Parser) (gval.Evaluable, error) {
	text := p.TokenText()
	if len(text) < 2 || text[len(text)-1] != '\'' {
		return nil, errors.Errorf("unterminated string %s", text)
	}
	inner := text[1 : len(text)-1]
	if !strings.Contains(inner, `\`) {
		return p.Const(inner), nil
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case c == '\\' && i+1 < len(inner) && inner[i+1] == '\'':
			b.WriteByte('\'')
			i++
		case c == '\\' && i+1 < len(inner):
			b.WriteByte(c)
			b.WriteByte(inner[i+1])
			i++
		case c == '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	s, err := strconv.Unquote(b.String())
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse string %s", text)
	}
	return p.Const(s), nil
}

func negate(_ context.Context, v interface{}) (interface{}, error) {
	if n, ok := asInt(v); ok {
		return -n, nil
	}
	if f, ok := asFloat(v); ok {
		return -f, nil
	}
	return nil, errors.Errorf("unexpected %T expected number", v)
}

// arith implements the arithmetic operators. "+" concatenates when either
// operand is a string; integer operands stay int64, anything else is float64.
func arith(op rune) func(a, b interface{}) (interface{}, error) {
	return func(a, b interface{}) (interface{}, error) {
		if a == nil || b == nil {
			return nil, errors.Errorf("invalid operation %v %c %v: null operand", a, op, b)
		}
		if op == '+' {
			_, as := a.(string)
			_, bs := b.(string)
			if as || bs {
				return Format(a) + Format(b), nil
			}
		}
		if x, ok := asInt(a); ok {
			if y, ok := asInt(b); ok {
				return intOp(op, x, y)
			}
		}
		x, xok := asFloat(a)
		y, yok := asFloat(b)
		if !xok || !yok {
			return nil, errors.Errorf("invalid operation (%T) %c (%T)", a, op, b)
		}
		switch op {
		case '+':
			return x + y, nil
		case '-':
			return x - y, nil
		case '*':
			return x * y, nil
		case '/':
			return x / y, nil
		default:
			return math.Mod(x, y), nil
		}
	}
}

func intOp(op rune, x, y int64) (interface{}, error) {
	switch op {
	case '+':
		return x + y, nil
	case '-':
		return x - y, nil
	case '*':
		return x * y, nil
	}
	if y == 0 {
		return nil, errors.New("division by zero")
	}
	if op == '/' {
		return x / y, nil
	}
	return x % y, nil
}

func asInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	}
	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

// Format renders a bound or computed value the way it appears in a
// concatenated row key. Floats print in their shortest round-trip form and
// always carry a fractional part, so float 3 renders as "3.0".
func Format(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return "null"
	case string:
		return n
	case int64:
		return strconv.FormatInt(n, 10)
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case int:
		return strconv.Itoa(n)
	case float32:
		return withFraction(strconv.FormatFloat(float64(n), 'g', -1, 32))
	case float64:
		return withFraction(strconv.FormatFloat(n, 'g', -1, 64))
	case bool:
		return strconv.FormatBool(n)
	}
	return fmt.Sprint(v)
}

func withFraction(s string) string {
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}
