package rdf

import (
	"github.com/lychee-technology/ldstore"
)

// Rows adapts an in-memory result set to ldcore.TupleResult, the shape
// both reference drivers return from Transaction.TupleQuery once Select
// has already evaluated the compiled query against their Backend.
type Rows struct {
	columns []string
	data    [][]ldcore.Value
	pos     int
	err     error
}

// NewRows wraps data (already in projection order) as a TupleResult.
func NewRows(columns []string, data [][]ldcore.Value) *Rows {
	return &Rows{columns: columns, data: data, pos: -1}
}

func (r *Rows) Next() bool {
	if r.err != nil {
		return false
	}
	r.pos++
	return r.pos < len(r.data)
}

func (r *Rows) Columns() []string { return r.columns }

func (r *Rows) Scan(dest ...any) error {
	if r.pos < 0 || r.pos >= len(r.data) {
		return ldcore.UnsupportedError("rdf: Scan called without a valid Next()")
	}
	row := r.data[r.pos]
	if len(dest) != len(row) {
		return ldcore.UnsupportedError("rdf: Scan argument count does not match row width")
	}
	for i, d := range dest {
		if err := scanInto(d, row[i]); err != nil {
			return err
		}
	}
	return nil
}

func scanInto(dest any, v ldcore.Value) error {
	switch p := dest.(type) {
	case *ldcore.Value:
		*p = v
		return nil
	case *string:
		switch v.Case() {
		case ldcore.CaseString:
			s, _ := v.AsString()
			*p = s
		case ldcore.CaseURI:
			s, _ := v.AsURI()
			*p = s
		default:
			enc, err := v.Encode("")
			if err != nil {
				return err
			}
			*p = enc
		}
		return nil
	case *int:
		i, ok := v.AsIntegral()
		if !ok {
			return ldcore.UnsupportedError("rdf: Scan target *int does not match an Integral value")
		}
		*p = int(i)
		return nil
	default:
		return ldcore.UnsupportedError("rdf: unsupported Scan destination type")
	}
}

func (r *Rows) Err() error   { return r.err }
func (r *Rows) Close() error { return nil }
