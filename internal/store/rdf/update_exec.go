package rdf

import (
	"context"
	"regexp"
	"strings"

	"github.com/lychee-technology/ldstore"
)

var updateTripleLine = regexp.MustCompile(`^\s*(\S+)\s+(\S+)\s+(\S+)\s*\.\s*$`)

// execDeleteLine deletes the statements matched by one line of a
// compiled "DELETE WHERE {...}" block. updater.go's compileUpdate gives
// each delete task's wildcard slots their own uniquely-named fresh
// variable per task index, so unlike a planner SELECT's WHERE block,
// these lines never share variables — each can be matched and deleted
// independently, with no join required.
func execDeleteLine(ctx context.Context, backend Backend, line string) error {
	m := updateTripleLine.FindStringSubmatch(line)
	if m == nil {
		return ldcore.UnsupportedError("rdf: malformed DELETE WHERE line: " + line)
	}
	subject, err := deleteSlot(m[1])
	if err != nil {
		return err
	}
	predicate, err := deleteSlot(m[2])
	if err != nil {
		return err
	}
	objectVal, err := deleteObjectSlot(m[3])
	if err != nil {
		return err
	}
	return backend.Delete(ctx, subject, predicate, objectVal)
}

// deleteSlot resolves a subject/predicate token: a fresh "?dsN"/"?dpN"
// variable (wildcard, unconstrained) or a ground "<uri>" term.
func deleteSlot(tok string) (*string, error) {
	if strings.HasPrefix(tok, "?") {
		return nil, nil
	}
	if strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">") {
		s := tok[1 : len(tok)-1]
		return &s, nil
	}
	return nil, ldcore.UnsupportedError("rdf: unexpected DELETE WHERE term: " + tok)
}

func deleteObjectSlot(tok string) (*ldcore.Value, error) {
	if strings.HasPrefix(tok, "?") {
		return nil, nil
	}
	t, err := parseTerm(tok)
	if err != nil {
		return nil, err
	}
	return &t.value, nil
}

// parseInsertLine decodes one "INSERT DATA {...}" line — always three
// ground compileLiteral-rendered terms — into the Row it stores.
func parseInsertLine(line string) (Row, error) {
	m := updateTripleLine.FindStringSubmatch(line)
	if m == nil {
		return Row{}, ldcore.UnsupportedError("rdf: malformed INSERT DATA line: " + line)
	}
	subj, err := groundTermString(m[1])
	if err != nil {
		return Row{}, err
	}
	pred, err := groundTermString(m[2])
	if err != nil {
		return Row{}, err
	}
	objTerm, err := parseTerm(m[3])
	if err != nil {
		return Row{}, err
	}
	kind, text, lang, datatype, err := EncodeObject(objTerm.value)
	if err != nil {
		return Row{}, err
	}
	return Row{
		Subject:        subj,
		Predicate:      pred,
		ObjectKind:     kind,
		ObjectText:     text,
		ObjectLanguage: lang,
		ObjectDatatype: datatype,
	}, nil
}

// groundTermString extracts the bare URI a subject/predicate token
// renders as — updater.go's compileLiteral always emits "<uri>" for
// these, since Task.Resource/Task.Predicate are always URI Values.
func groundTermString(tok string) (string, error) {
	if strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">") {
		return tok[1 : len(tok)-1], nil
	}
	return "", ldcore.UnsupportedError("rdf: expected a URI term, got: " + tok)
}
