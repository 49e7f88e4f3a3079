// Package rdf is the shared relational-triple backbone both reference
// drivers (ldpgx, ldduckdb) store rows through and run the planner's
// compiled query strings against. It deliberately does not implement
// general SPARQL — only the constrained grammar this module's own
// planner (internal/engine/planner.go, planner_expr.go, fetcher.go,
// updater.go) ever emits, which keeps the interpreter in Select/Update tractable
// while still exercising a real triple-pattern-over-SQL execution
// strategy against each backend.
package rdf

import (
	"math/big"
	"strconv"

	"github.com/lychee-technology/ldstore"
)

// Row is one stored statement, object kept in its relational columns
// rather than as a live ldcore.Value so backends can persist it directly.
type Row struct {
	Subject        string
	Predicate      string
	Graph          string
	ObjectKind     string
	ObjectText     string
	ObjectLanguage string
	ObjectDatatype string
}

// EncodeObject splits v into the columns a Row stores it under.
func EncodeObject(v ldcore.Value) (kind, text, lang, datatype string, err error) {
	switch v.Case() {
	case ldcore.CaseURI:
		u, _ := v.AsURI()
		return "uri", u, "", "", nil
	case ldcore.CaseBit:
		b, _ := v.AsBit()
		if b {
			return "bit", "true", "", "", nil
		}
		return "bit", "false", "", "", nil
	case ldcore.CaseIntegral:
		i, _ := v.AsIntegral()
		return "integral", strconv.FormatInt(i, 10), "", "", nil
	case ldcore.CaseFloating:
		f, _ := v.AsFloating()
		return "floating", strconv.FormatFloat(f, 'e', -1, 64), "", "", nil
	case ldcore.CaseInteger:
		i, _ := v.AsInteger()
		return "integer", i.String(), "", "", nil
	case ldcore.CaseDecimal:
		d, _ := v.AsDecimal()
		return "decimal", d.Text('f'), "", "", nil
	case ldcore.CaseString:
		s, _ := v.AsString()
		return "string", s, "", "", nil
	case ldcore.CaseText:
		loc, text, _ := v.AsText()
		return "text", text, string(loc), "", nil
	case ldcore.CaseData:
		datatype, lexical, _ := v.AsData()
		return "data", lexical, "", datatype, nil
	default:
		enc, encErr := v.Encode("")
		if encErr != nil {
			return "", "", "", "", encErr
		}
		switch v.Case() {
		case ldcore.CaseTemporal:
			return "temporal", enc, "", "", nil
		case ldcore.CaseTemporalAmount:
			return "temporalamount", enc, "", "", nil
		default:
			return "", "", "", "", ldcore.UnsupportedError("cannot store this value case as an RDF object")
		}
	}
}

// DecodeObject rebuilds the ldcore.Value a Row's object columns encode.
func DecodeObject(kind, text, lang, datatype string) (ldcore.Value, error) {
	switch kind {
	case "uri":
		return ldcore.NewURI(text), nil
	case "bit":
		return ldcore.NewBit(text == "true"), nil
	case "integral":
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return ldcore.Nil, err
		}
		return ldcore.NewIntegral(i), nil
	case "floating":
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return ldcore.Nil, err
		}
		return ldcore.NewFloating(f)
	case "integer":
		bi, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return ldcore.Nil, ldcore.UnsupportedError("malformed stored Integer")
		}
		return ldcore.NewInteger(bi)
	case "decimal":
		d, err := ldcore.ParseDecimal(text)
		if err != nil {
			return ldcore.Nil, err
		}
		return ldcore.NewDecimal(d), nil
	case "string":
		return ldcore.NewString(text), nil
	case "text":
		return ldcore.NewText(ldcore.Locale(lang), text), nil
	case "data":
		return ldcore.NewData(datatype, text)
	case "temporal":
		return ldcore.DecodeTemporal(text)
	case "temporalamount":
		return ldcore.DecodeTemporalAmount(text)
	default:
		return ldcore.Nil, ldcore.UnsupportedError("unknown stored object kind: " + kind)
	}
}
