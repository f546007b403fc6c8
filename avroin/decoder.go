// Package avroin decodes Avro input, in binary or JSON encoding, into records.
package avroin

import (
	"bufio"
	"bytes"
	"io"

	"github.com/acksell/dynsink/record"
	"github.com/acksell/dynsink/schema"
	"github.com/linkedin/goavro/v2"
	"github.com/pkg/errors"
)

// Decoder turns Avro data written with one schema into records.
type Decoder struct {
	schema *schema.Schema
	binary *goavro.Codec
	json   *goavro.Codec
}

// NewDecoder parses the Avro schema and prepares codecs for it. JSON input is
// read as standard JSON: union values may appear bare, without the
// {"type": value} wrapper of the Avro JSON encoding.
func NewDecoder(schemaJSON string) (*Decoder, error) {
	s, err := schema.ParseAvro(schemaJSON)
	if err != nil {
		return nil, err
	}
	binary, err := goavro.NewCodec(schemaJSON)
	if err != nil {
		return nil, errors.Wrap(err, "avro codec")
	}
	text, err := goavro.NewCodecForStandardJSON(schemaJSON)
	if err != nil {
		return nil, errors.Wrap(err, "avro json codec")
	}
	return &Decoder{schema: s, binary: binary, json: text}, nil
}

func (d *Decoder) Schema() *schema.Schema { return d.schema }

// DecodeJSON decodes one JSON-encoded record from buf and returns the
// remaining bytes.
func (d *Decoder) DecodeJSON(buf []byte) (*record.Record, []byte, error) {
	native, rest, err := d.json.NativeFromTextual(buf)
	if err != nil {
		return nil, rest, errors.Wrap(err, "decode json")
	}
	r, err := d.fromNative(native)
	return r, rest, err
}

// DecodeBinary decodes one binary-encoded record from buf and returns the
// remaining bytes.
func (d *Decoder) DecodeBinary(buf []byte) (*record.Record, []byte, error) {
	native, rest, err := d.binary.NativeFromBinary(buf)
	if err != nil {
		return nil, rest, errors.Wrap(err, "decode binary")
	}
	r, err := d.fromNative(native)
	return r, rest, err
}

// EncodeBinary encodes a goavro native record.
func (d *Decoder) EncodeBinary(native map[string]any) ([]byte, error) {
	buf, err := d.binary.BinaryFromNative(nil, native)
	return buf, errors.Wrap(err, "encode binary")
}

func (d *Decoder) fromNative(native any) (*record.Record, error) {
	m, ok := native.(map[string]any)
	if !ok {
		return nil, errors.Errorf("expected record, got %T", native)
	}
	return record.FromNative(d.schema, m)
}

// ReadJSON reads newline-delimited JSON records until EOF and calls fn for
// each one in order. Blank lines are skipped. Decoding stops at the first
// error, either returned by fn or from malformed input.
func (d *Decoder) ReadJSON(r io.Reader, fn func(i int, rec *record.Record) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	i := 0
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		rec, _, err := d.DecodeJSON(line)
		if err != nil {
			return errors.Wrapf(err, "record %d", i)
		}
		if err := fn(i, rec); err != nil {
			return err
		}
		i++
	}
	return errors.Wrap(sc.Err(), "read input")
}

// ReadBinary decodes concatenated binary records until buf is exhausted.
func (d *Decoder) ReadBinary(buf []byte, fn func(i int, rec *record.Record) error) error {
	for i := 0; len(buf) > 0; i++ {
		rec, rest, err := d.DecodeBinary(buf)
		if err != nil {
			return errors.Wrapf(err, "record %d", i)
		}
		if err := fn(i, rec); err != nil {
			return err
		}
		buf = rest
	}
	return nil
}
