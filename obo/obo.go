// Package obo parses the stanza-based OBO ontology interchange format
// into flat term records. Only the parts needed for term lookup are
// interpreted: [Term] stanzas, is_a edges and relationship lines. No
// reasoning is done over the ontology graph.
package obo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	ErrMissingID = errors.New("obo: stanza has no id field")
)

// Reference is the target of an is_a line: an accession with an optional
// trailing comment ("MS:1000001 ! sample number").
type Reference struct {
	Accession string
	Comment   string
}

// ParseReference splits an is_a value on the first "!".
func ParseReference(s string) Reference {
	acc, comment, found := strings.Cut(s, "!")
	if !found {
		return Reference{Accession: strings.TrimSpace(s)}
	}
	return Reference{
		Accession: strings.TrimSpace(acc),
		Comment:   strings.TrimSpace(comment),
	}
}

// Relationship is a named edge to another term
// ("relationship: has_regexp MS:1001180 ! (?<=[KR])(?!P)").
type Relationship struct {
	Predicate string
	Accession string
	Comment   string
}

var relationshipRe = regexp.MustCompile(`^(\S+?):?\s+(\S+)(?:\s+!\s*(.*))?$`)

// ParseRelationship parses a relationship value into its predicate,
// target accession and optional comment.
func ParseRelationship(s string) (Relationship, error) {
	m := relationshipRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Relationship{}, fmt.Errorf("obo: malformed relationship %q", s)
	}
	return Relationship{Predicate: m[1], Accession: m[2], Comment: m[3]}, nil
}

// Term is one packed [Term] stanza. Fields keeps every raw key/value pair
// in stanza order; IsA and Relationships hold the interpreted edges.
// Terms are immutable once parsed.
type Term struct {
	ID            string
	Name          string
	IsA           []Reference
	Relationships map[string]Relationship
	Fields        map[string][]string
}

// Relationship returns the relationship with the given predicate, giving
// direct access to edges like has_regexp without walking Fields.
func (t Term) Relationship(predicate string) (Relationship, bool) {
	r, ok := t.Relationships[predicate]
	return r, ok
}

// Value returns the first value recorded for key, or "".
func (t Term) Value(key string) string {
	if vs := t.Fields[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// stanza accumulates key/value lines until packed.
type stanza map[string][]string

func (s stanza) pack() (Term, error) {
	ids := s["id"]
	if len(ids) == 0 || ids[0] == "" {
		return Term{}, ErrMissingID
	}
	t := Term{
		ID:     ids[0],
		Fields: s,
	}
	if names := s["name"]; len(names) > 0 {
		t.Name = names[0]
	}
	for _, v := range s["is_a"] {
		t.IsA = append(t.IsA, ParseReference(v))
	}
	for _, v := range s["relationship"] {
		rel, err := ParseRelationship(v)
		if err != nil {
			return Term{}, err
		}
		if t.Relationships == nil {
			t.Relationships = make(map[string]Relationship)
		}
		t.Relationships[rel.Predicate] = rel
	}
	return t, nil
}

// Parse reads an OBO document and returns its terms keyed by id.
// Typedef stanzas and the header before the first stanza are skipped.
// A [Term] stanza without an id is a fatal parse error: silently dropping
// it would only surface later as a confusing failed lookup.
func Parse(r io.Reader) (map[string]Term, error) {
	terms := make(map[string]Term)
	var cur stanza

	flush := func() error {
		if cur == nil {
			return nil
		}
		t, err := cur.pack()
		if err != nil {
			return err
		}
		terms[t.ID] = t
		cur = nil
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "[Term]":
			if err := flush(); err != nil {
				return nil, err
			}
			cur = make(stanza)
		case strings.HasPrefix(line, "["):
			// [Typedef] and any other stanza kind: flush the pending
			// term and skip lines until the next [Term].
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			if cur == nil {
				// Header lines before the first stanza.
				continue
			}
			key, val, found := strings.Cut(line, ":")
			if !found {
				continue
			}
			key = strings.TrimSpace(key)
			cur[key] = append(cur[key], strings.TrimSpace(val))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	// Final stanza may end at EOF without a blank line.
	if err := flush(); err != nil {
		return nil, err
	}
	return terms, nil
}
