package store

import (
	"bytes"

	"github.com/pkg/errors"
)

// Key encoding for BadgerDB.
// Key format: [table][separator][row][separator][family][separator][column]
//
// Every component is escaped so it never contains the separator byte (0x00).
// Table-style mutations have an empty family component.

const keySeparator byte = 0x00

func rowPrefix(table string, row []byte) []byte {
	var buf bytes.Buffer
	buf.Write(escapeBytes([]byte(table)))
	buf.WriteByte(keySeparator)
	buf.Write(escapeBytes(row))
	buf.WriteByte(keySeparator)
	return buf.Bytes()
}

func tablePrefix(table string) []byte {
	return append(escapeBytes([]byte(table)), keySeparator)
}

func cellKey(table string, row, family, column []byte) []byte {
	buf := bytes.NewBuffer(rowPrefix(table, row))
	buf.Write(escapeBytes(family))
	buf.WriteByte(keySeparator)
	buf.Write(escapeBytes(column))
	return buf.Bytes()
}

type decodedKey struct {
	table  string
	row    []byte
	family []byte
	column []byte
}

func decodeKey(key []byte) (decodedKey, error) {
	parts := bytes.Split(key, []byte{keySeparator})
	if len(parts) != 4 {
		return decodedKey{}, errors.Errorf("malformed cell key %q: %d components", key, len(parts))
	}
	return decodedKey{
		table:  string(unescapeBytes(parts[0])),
		row:    unescapeBytes(parts[1]),
		family: unescapeBytes(parts[2]),
		column: unescapeBytes(parts[3]),
	}, nil
}

// escapeBytes escapes null bytes (0x00) in the input to preserve separator integrity.
// Uses 0x01 0x01 for literal 0x00, and 0x01 0x02 for literal 0x01.
func escapeBytes(b []byte) []byte {
	if bytes.IndexByte(b, 0x00) < 0 && bytes.IndexByte(b, 0x01) < 0 {
		return append([]byte(nil), b...)
	}
	var buf bytes.Buffer
	for _, c := range b {
		switch c {
		case 0x00:
			buf.Write([]byte{0x01, 0x01})
		case 0x01:
			buf.Write([]byte{0x01, 0x02})
		default:
			buf.WriteByte(c)
		}
	}
	return buf.Bytes()
}

// unescapeBytes reverses the escaping done by escapeBytes.
func unescapeBytes(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == 0x01 && i+1 < len(b) {
			switch b[i+1] {
			case 0x01:
				out = append(out, 0x00)
				i++
				continue
			case 0x02:
				out = append(out, 0x01)
				i++
				continue
			}
		}
		out = append(out, b[i])
	}
	return out
}
