package rdf

import (
	"context"

	"github.com/lychee-technology/ldstore"
)

// fakeBackend is a minimal in-memory Backend, standing in for ldpgx/
// ldduckdb's real relational Backend in tests that only need Match/
// Insert/Delete's documented contract.
type fakeBackend struct {
	rows []Row
}

func (f *fakeBackend) Match(ctx context.Context, subject, predicate *string, object *ldcore.Value) ([]Row, error) {
	var out []Row
	for _, r := range f.rows {
		if subject != nil && r.Subject != *subject {
			continue
		}
		if predicate != nil && r.Predicate != *predicate {
			continue
		}
		if object != nil {
			kind, text, lang, datatype, err := EncodeObject(*object)
			if err != nil {
				return nil, err
			}
			if r.ObjectKind != kind || r.ObjectText != text || r.ObjectLanguage != lang || r.ObjectDatatype != datatype {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeBackend) Insert(ctx context.Context, rows []Row) error {
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeBackend) Delete(ctx context.Context, subject, predicate *string, object *ldcore.Value) error {
	var kept []Row
	for _, r := range f.rows {
		match := true
		if subject != nil && r.Subject != *subject {
			match = false
		}
		if predicate != nil && r.Predicate != *predicate {
			match = false
		}
		if object != nil {
			kind, text, lang, datatype, err := EncodeObject(*object)
			if err != nil {
				return err
			}
			if r.ObjectKind != kind || r.ObjectText != text || r.ObjectLanguage != lang || r.ObjectDatatype != datatype {
				match = false
			}
		}
		if !match {
			kept = append(kept, r)
		}
	}
	f.rows = kept
	return nil
}
