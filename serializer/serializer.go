// Package serializer renders tables, schemas, records, attributes, and
// bare values as human-readable text, and parses tag-prefixed literals
// back into recordmgr.Values.
package serializer

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/arvinmehra/pagedb/recordmgr"
)

// TableInfo is the minimal table summary serialize_table_info needs:
// a name, its schema, and its live tuple count.
type TableInfo struct {
	Name      string
	Schema    *recordmgr.Schema
	NumTuples int32
}

// SerializeTableInfo renders "TABLE <name>\nSchema: ...\nTotal Tuples: K\n".
func SerializeTableInfo(t TableInfo) string {
	var buf bytes.Buffer
	buf.WriteString("TABLE ")
	buf.WriteString(t.Name)
	buf.WriteByte('\n')
	buf.WriteString("Schema: ")
	buf.WriteString(SerializeSchema(t.Schema))
	buf.WriteByte('\n')
	fmt.Fprintf(&buf, "Total Tuples: %d\n", t.NumTuples)
	return buf.String()
}

// SerializeSchema renders "Attributes[N]: a: INT, b: STRING(5), ...[|
// Keys: a, ...]".
func SerializeSchema(s *recordmgr.Schema) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Attributes[%d]: ", s.NumAttrs())
	for i := 0; i < s.NumAttrs(); i++ {
		if i > 0 {
			buf.WriteString(", ")
		}
		a := s.Attr(i)
		buf.WriteString(a.Name)
		buf.WriteString(": ")
		buf.WriteString(a.DT.String())
		if a.DT == recordmgr.TypeString {
			fmt.Fprintf(&buf, "(%d)", a.TypeLength)
		}
	}
	if keys := s.Keys(); len(keys) > 0 {
		buf.WriteString(" | Keys: ")
		for i, k := range keys {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(s.Attr(k).Name)
		}
	}
	return buf.String()
}

// SerializeRecord renders "RID(p,s) [name: value, ...]" using the RID
// the record acquired at insert time.
func SerializeRecord(rec *recordmgr.Record, schema *recordmgr.Schema) (string, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "RID(%d,%d) [", rec.ID.Page, rec.ID.Slot)
	for i := 0; i < schema.NumAttrs(); i++ {
		if i > 0 {
			buf.WriteString(", ")
		}
		s, err := SerializeAttr(rec, schema, i)
		if err != nil {
			return "", err
		}
		buf.WriteString(s)
	}
	buf.WriteString("]")
	return buf.String(), nil
}

// SerializeAttr renders "name: 123", "name: 1.23", "name: 'abc'", or
// "name: true".
func SerializeAttr(rec *recordmgr.Record, schema *recordmgr.Schema, i int) (string, error) {
	a := schema.Attr(i)
	v, err := rec.GetAttr(i)
	if err != nil {
		return "", err
	}
	return a.Name + ": " + formatValue(v, true), nil
}

// SerializeValue renders a bare literal (no attribute name).
func SerializeValue(v recordmgr.Value) string {
	return formatValue(v, false)
}

// formatValue renders v; inRecord selects 2-decimal floats and
// single-quoted strings (record/attr context) vs. 6-decimal floats and
// unquoted strings (bare value context).
func formatValue(v recordmgr.Value, inRecord bool) string {
	switch v.DT {
	case recordmgr.TypeInt:
		return strconv.Itoa(int(v.Int))
	case recordmgr.TypeFloat:
		if inRecord {
			return strconv.FormatFloat(float64(v.Flt), 'f', 2, 32)
		}
		return strconv.FormatFloat(float64(v.Flt), 'f', 6, 32)
	case recordmgr.TypeBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case recordmgr.TypeString:
		s := v.StringValue()
		if inRecord {
			return "'" + s + "'"
		}
		return s
	default:
		return ""
	}
}

// ValueFromString parses a one-char-tagged literal: i<int>, f<float>,
// s<string>, b<t|1|anything-else>. Returns false if the tag is
// unrecognized or empty.
func ValueFromString(s string) (recordmgr.Value, bool) {
	if len(s) == 0 {
		return recordmgr.Value{}, false
	}
	tag, rest := s[0], s[1:]
	switch tag {
	case 'i':
		n, err := strconv.ParseInt(rest, 10, 32)
		if err != nil {
			return recordmgr.Value{}, false
		}
		return recordmgr.NewInt(int32(n)), true
	case 'f':
		f, err := strconv.ParseFloat(rest, 32)
		if err != nil {
			return recordmgr.Value{}, false
		}
		return recordmgr.NewFloat(float32(f)), true
	case 's':
		return recordmgr.NewString(rest), true
	case 'b':
		return recordmgr.NewBool(rest == "t" || rest == "1"), true
	default:
		return recordmgr.Value{}, false
	}
}
