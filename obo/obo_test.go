package obo

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const miniOBO = `format-version: 1.2
data-version: 2.25.0

[Term]
id: MS:1000001
name: sample number
def: "A reference number." [PSI:MS]

[Term]
id: MS:1001251
name: Trypsin
is_a: MS:1001045 ! cleavage agent name
relationship: has_regexp MS:1001180 ! (?<=[KR])(?!P)

[Typedef]
id: has_regexp
name: has regexp

[Term]
id: MS:1001180
name: (?<=[KR])(?!P)`

func TestParse(t *testing.T) {
	terms, err := Parse(strings.NewReader(miniOBO))
	if err != nil {
		t.Fatalf("Parse: error return %v", err)
	}
	// Typedef stanzas are not terms; header lines are skipped.
	if len(terms) != 3 {
		t.Errorf("Parse: got %d terms, want 3", len(terms))
	}
	if _, ok := terms["has_regexp"]; ok {
		t.Errorf("Parse: typedef leaked into term map")
	}

	trypsin, ok := terms["MS:1001251"]
	if !ok {
		t.Fatalf("Parse: term MS:1001251 missing")
	}
	if trypsin.Name != "Trypsin" {
		t.Errorf("Parse: name %q, want Trypsin", trypsin.Name)
	}
	wantIsA := []Reference{{Accession: "MS:1001045", Comment: "cleavage agent name"}}
	if diff := cmp.Diff(wantIsA, trypsin.IsA); diff != "" {
		t.Errorf("Parse: is_a mismatch (-want +got):\n%s", diff)
	}

	// A relationship line is exposed both as a Relationship record and
	// under its predicate for direct access.
	rel, ok := trypsin.Relationship("has_regexp")
	if !ok {
		t.Fatalf("Parse: has_regexp relationship missing")
	}
	want := Relationship{Predicate: "has_regexp", Accession: "MS:1001180", Comment: "(?<=[KR])(?!P)"}
	if diff := cmp.Diff(want, rel); diff != "" {
		t.Errorf("Parse: relationship mismatch (-want +got):\n%s", diff)
	}
	raw := trypsin.Fields["relationship"]
	if len(raw) != 1 {
		t.Errorf("Parse: raw relationship values %v, want 1 entry", raw)
	}
}

func TestParseNoTrailingNewline(t *testing.T) {
	// Final stanza flushed at EOF.
	terms, err := Parse(strings.NewReader("[Term]\nid: MS:1\nname: foo"))
	if err != nil {
		t.Fatalf("Parse: error return %v", err)
	}
	if terms["MS:1"].Name != "foo" {
		t.Errorf("Parse: final stanza not flushed, got %+v", terms)
	}
}

func TestParseEmpty(t *testing.T) {
	terms, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: error return %v", err)
	}
	if len(terms) != 0 {
		t.Errorf("Parse: got %d terms from empty input", len(terms))
	}
}

func TestParseMissingID(t *testing.T) {
	_, err := Parse(strings.NewReader("[Term]\nname: nameless\n"))
	if !errors.Is(err, ErrMissingID) {
		t.Errorf("Parse: error %v, want ErrMissingID", err)
	}
}

func TestParseRepeatedKeys(t *testing.T) {
	in := "[Term]\nid: UO:1\nname: unit\nsynonym: u1\nsynonym: u2\n"
	terms, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: error return %v", err)
	}
	got := terms["UO:1"].Fields["synonym"]
	if diff := cmp.Diff([]string{"u1", "u2"}, got); diff != "" {
		t.Errorf("Parse: repeated key order lost (-want +got):\n%s", diff)
	}
}

func TestParseReference(t *testing.T) {
	r := ParseReference("MS:1000001 ! sample number")
	if r.Accession != "MS:1000001" || r.Comment != "sample number" {
		t.Errorf("ParseReference: got %+v", r)
	}
	r = ParseReference("MS:1000001")
	if r.Accession != "MS:1000001" || r.Comment != "" {
		t.Errorf("ParseReference: got %+v", r)
	}
}

func TestParseRelationshipNoComment(t *testing.T) {
	rel, err := ParseRelationship("part_of MS:1000001")
	if err != nil {
		t.Fatalf("ParseRelationship: error return %v", err)
	}
	if rel.Predicate != "part_of" || rel.Accession != "MS:1000001" || rel.Comment != "" {
		t.Errorf("ParseRelationship: got %+v", rel)
	}
}
