package sink

import (
	"regexp"
	"strings"

	"github.com/acksell/dynsink/dynfield"
	"github.com/acksell/dynsink/expr"
	"github.com/acksell/dynsink/schema"
	"github.com/pkg/errors"
)

// Kind selects the mutation layout.
type Kind int

const (
	// KindTable writes plain key-value rows without a column family.
	KindTable Kind = iota
	// KindFamily writes wide-column rows into a computed column family.
	KindFamily
)

func (k Kind) String() string {
	if k == KindFamily {
		return "family"
	}
	return "table"
}

// ParseKind maps "table" and "family" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "table":
		return KindTable, nil
	case "family":
		return KindFamily, nil
	}
	return 0, errors.Errorf("unknown sink kind %q", s)
}

var referenceNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidationError holds every configuration problem found by Validate.
type ValidationError struct {
	Failures []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return "invalid sink configuration: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error { return e.Failures }

// Validate checks cfg against the input schema before any record is
// processed. It reports all problems together as a *ValidationError.
func Validate(cfg Config, kind Kind, s *schema.Schema) error {
	_, _, err := compile(cfg, kind, s)
	return err
}

// compile validates the configuration and returns the compiled row key and
// family expressions. family is nil for table sinks.
func compile(cfg Config, kind Kind, s *schema.Schema) (rowKey, family *expr.Expression, err error) {
	var failures []error
	fail := func(err error) { failures = append(failures, err) }

	switch {
	case cfg.ReferenceName == "":
		fail(errors.New("reference name is required"))
	case !referenceNamePattern.MatchString(cfg.ReferenceName):
		fail(errors.Errorf("reference name %q may only contain letters, numbers, '_', '-' and '.'", cfg.ReferenceName))
	}
	if cfg.Table == "" {
		fail(errors.New("table name is required"))
	}

	if s == nil {
		fail(errors.New("input schema is required"))
	} else {
		res, err := dynfield.Validate(s)
		switch {
		case err != nil:
			fail(err)
		case !res.OK():
			fail(res.Err())
		}
	}

	if cfg.RowKey == "" {
		fail(errors.New("row key is required"))
	} else {
		rowKey, err = expr.Compile(cfg.RowKey)
		switch {
		case err != nil:
			fail(err)
		case len(rowKey.Variables()) == 0:
			fail(errors.Errorf("row key %q is not correctly formed: it must reference at least one input field", cfg.RowKey))
		case s != nil:
			failures = append(failures, rowKey.CheckBindings(s)...)
		}
	}

	switch {
	case kind == KindTable && cfg.Family != "":
		fail(errors.New("family is not supported by table sinks"))
	case kind == KindFamily && cfg.Family == "":
		fail(errors.New("family is required"))
	case kind == KindFamily:
		family, err = expr.Compile(cfg.Family)
		if err != nil {
			fail(err)
		} else if s != nil {
			failures = append(failures, family.CheckBindings(s)...)
		}
	}

	if len(failures) > 0 {
		return nil, nil, &ValidationError{Failures: failures}
	}
	return rowKey, family, nil
}
