package mzidentml

import (
	"bytes"
	"log/slog"
	"testing"
)

func testContext() *Context {
	return NewContext(nil, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func TestResolveStable(t *testing.T) {
	ctx := testContext()
	first := ctx.Resolve("SearchDatabase", 1)
	second := ctx.Resolve("SearchDatabase", 1)
	if first != second {
		t.Errorf("Resolve not stable: %q then %q", first, second)
	}
}

func TestResolveSynthesizedFormat(t *testing.T) {
	ctx := testContext()
	if ref := ctx.Resolve("SearchDatabase", 7); ref != "SEARCHDATABASE_7" {
		t.Errorf("Resolve: got %q, want SEARCHDATABASE_7", ref)
	}
	if ref := ctx.Resolve("Peptide", 12); ref != "PEPTIDE_12" {
		t.Errorf("Resolve: got %q, want PEPTIDE_12", ref)
	}
	// String ids are used verbatim.
	if ref := ctx.Resolve("Person", "PERSON_DOC_OWNER"); ref != "PERSON_DOC_OWNER" {
		t.Errorf("Resolve: got %q, want PERSON_DOC_OWNER", ref)
	}
}

func TestFirstResolutionWins(t *testing.T) {
	ctx := testContext()
	synthesized := ctx.Resolve("SpectraData", 3)
	// A later Register is a no-op with respect to the synthesized value.
	registered := ctx.Register("SpectraData", 3)
	if registered != synthesized {
		t.Errorf("Register after Resolve: got %q, want %q", registered, synthesized)
	}
	if ref := ctx.Resolve("SpectraData", 3); ref != synthesized {
		t.Errorf("Resolve after Register: got %q, want %q", ref, synthesized)
	}
}

func TestRegisterIdempotent(t *testing.T) {
	ctx := testContext()
	first := ctx.Register("SearchDatabase", 1)
	if second := ctx.Register("SearchDatabase", 1); second != first {
		t.Errorf("Register not idempotent: %q then %q", first, second)
	}
	if first != "SEARCHDATABASE_1" {
		t.Errorf("Register: got %q, want SEARCHDATABASE_1", first)
	}
}

func TestResolveWarnsOnSynthesis(t *testing.T) {
	var buf bytes.Buffer
	ctx := NewContext(nil, slog.New(slog.NewTextHandler(&buf, nil)))

	ctx.Register("Peptide", 1)
	ctx.Resolve("Peptide", 1)
	if buf.Len() != 0 {
		t.Errorf("Resolve of a registered id logged: %s", buf.String())
	}
	ctx.Resolve("Peptide", 2)
	if buf.Len() == 0 {
		t.Errorf("Resolve of an unregistered id logged nothing")
	}
	buf.Reset()
	// The synthesized value is remembered: no second warning.
	ctx.Resolve("Peptide", 2)
	if buf.Len() != 0 {
		t.Errorf("second Resolve of synthesized id logged again: %s", buf.String())
	}
}

func TestNextIDPerType(t *testing.T) {
	ctx := testContext()
	if id := ctx.NextID("Peptide"); id != 1 {
		t.Errorf("NextID: got %d, want 1", id)
	}
	if id := ctx.NextID("Peptide"); id != 2 {
		t.Errorf("NextID: got %d, want 2", id)
	}
	// Counters are per type.
	if id := ctx.NextID("DBSequence"); id != 1 {
		t.Errorf("NextID: got %d, want 1", id)
	}
}
