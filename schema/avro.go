package schema

import (
	"encoding/json"

	"github.com/linkedin/goavro/v2"
	"github.com/pkg/errors"
)

// ParseAvro builds a Schema from an Avro JSON schema document. The top level
// must be a record. Supported types are the Avro primitives, records, arrays,
// maps with string values and the nullable union ["null", T] in either order.
// Named records may be referenced by name after their first definition.
func ParseAvro(text string) (*Schema, error) {
	// goavro performs the full Avro validation (names, defaults, duplicates).
	if _, err := goavro.NewCodec(text); err != nil {
		return nil, errors.Wrap(err, "invalid avro schema")
	}
	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, errors.Wrap(err, "decode avro schema")
	}
	p := avroParser{named: make(map[string]*Schema)}
	s, err := p.parse(doc, "")
	if err != nil {
		return nil, err
	}
	if s.Kind() != KindRecord {
		return nil, errors.Errorf("top level avro schema must be a record, got %s", s.Kind())
	}
	return s, nil
}

type avroParser struct {
	named map[string]*Schema
}

var avroPrimitives = map[string]Kind{
	"null":    KindNull,
	"boolean": KindBoolean,
	"int":     KindInt,
	"long":    KindLong,
	"float":   KindFloat,
	"double":  KindDouble,
	"string":  KindString,
	"bytes":   KindBytes,
}

func (p *avroParser) parse(node any, namespace string) (*Schema, error) {
	switch n := node.(type) {
	case string:
		if k, ok := avroPrimitives[n]; ok {
			return Of(k), nil
		}
		if s, ok := p.lookup(n, namespace); ok {
			return s, nil
		}
		return nil, errors.Errorf("unknown avro type %q", n)
	case []any:
		return p.parseUnion(n, namespace)
	case map[string]any:
		return p.parseComplex(n, namespace)
	default:
		return nil, errors.Errorf("unexpected avro schema node %T", node)
	}
}

func (p *avroParser) parseUnion(branches []any, namespace string) (*Schema, error) {
	if len(branches) != 2 {
		return nil, errors.Errorf("only [\"null\", T] unions are supported, got %d branches", len(branches))
	}
	var other any
	nulls := 0
	for _, b := range branches {
		if name, ok := b.(string); ok && name == "null" {
			nulls++
			continue
		}
		other = b
	}
	if nulls != 1 {
		return nil, errors.New("only [\"null\", T] unions are supported")
	}
	s, err := p.parse(other, namespace)
	if err != nil {
		return nil, err
	}
	return Nullable(s), nil
}

func (p *avroParser) parseComplex(n map[string]any, namespace string) (*Schema, error) {
	typ, _ := n["type"].(string)
	switch typ {
	case "record":
		return p.parseRecord(n, namespace)
	case "array":
		elem, err := p.parse(n["items"], namespace)
		if err != nil {
			return nil, errors.Wrap(err, "array items")
		}
		return ArrayOf(elem), nil
	case "map":
		values, _ := n["values"].(string)
		if values != "string" {
			return nil, errors.Errorf("only maps of string values are supported, got %v", n["values"])
		}
		return MapOf(), nil
	case "enum", "fixed", "error":
		return nil, errors.Errorf("avro type %q is not supported", typ)
	default:
		// {"type": "string"} and friends.
		if _, ok := avroPrimitives[typ]; ok {
			return p.parse(typ, namespace)
		}
		if inner, ok := n["type"]; ok && typ == "" {
			return p.parse(inner, namespace)
		}
		return nil, errors.Errorf("unknown avro type %q", typ)
	}
}

func (p *avroParser) parseRecord(n map[string]any, namespace string) (*Schema, error) {
	name, _ := n["name"].(string)
	if ns, ok := n["namespace"].(string); ok && ns != "" {
		namespace = ns
	}
	rawFields, _ := n["fields"].([]any)
	fields := make([]Field, 0, len(rawFields))
	for _, rf := range rawFields {
		fm, ok := rf.(map[string]any)
		if !ok {
			return nil, errors.Errorf("record %q: malformed field", name)
		}
		fname, _ := fm["name"].(string)
		fs, err := p.parse(fm["type"], namespace)
		if err != nil {
			return nil, errors.Wrapf(err, "record %q field %q", name, fname)
		}
		fields = append(fields, F(fname, fs))
	}
	s, err := RecordOf(name, fields...)
	if err != nil {
		return nil, err
	}
	p.named[name] = s
	if namespace != "" {
		p.named[namespace+"."+name] = s
	}
	return s, nil
}

func (p *avroParser) lookup(name, namespace string) (*Schema, bool) {
	if s, ok := p.named[name]; ok {
		return s, true
	}
	if namespace != "" {
		s, ok := p.named[namespace+"."+name]
		return s, ok
	}
	return nil, false
}
