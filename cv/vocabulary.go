// Package cv resolves human-supplied names against controlled
// vocabularies (ontologies) and turns them into exact
// (accession, canonical name, source vocabulary) triples for use in
// mzIdentML cvParam elements. Vocabularies are fetched through an
// on-disk cache and parsed lazily on first lookup.
package cv

import (
	"fmt"
	"io"
	"strings"

	"github.com/524D/mzidwriter/obo"
)

// Vocabulary is a read-only set of ontology terms, identified by the
// short source tag used as cvRef in composed accessions (e.g. "PSI-MS").
type Vocabulary struct {
	ID      string
	terms   map[string]obo.Term
	byName  map[string]obo.Term
	byLower map[string]string // lowercased name -> canonical name
}

// New builds the dual name mapping over parsed terms. Names are assumed
// unique within one vocabulary; on a duplicate the last term wins.
func New(id string, terms map[string]obo.Term) *Vocabulary {
	v := &Vocabulary{
		ID:      id,
		terms:   terms,
		byName:  make(map[string]obo.Term, len(terms)),
		byLower: make(map[string]string, len(terms)),
	}
	for _, t := range terms {
		v.byName[t.Name] = t
		v.byLower[strings.ToLower(t.Name)] = t.Name
	}
	return v
}

// FromOBO parses OBO content and wraps it in a Vocabulary.
func FromOBO(id string, r io.Reader) (*Vocabulary, error) {
	terms, err := obo.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("cv: parsing vocabulary %s: %w", id, err)
	}
	return New(id, terms), nil
}

// Len returns the number of terms.
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// TermNotFoundError reports a failed lookup together with the attempted
// keys, so the caller can see both the original and the normalized form.
type TermNotFoundError struct {
	Vocabulary string
	Key        string
	Normalized string
}

func (e *TermNotFoundError) Error() string {
	return fmt.Sprintf("cv: term not found in %s: tried id/name %q and normalized name %q",
		e.Vocabulary, e.Key, e.Normalized)
}

// Lookup finds a term by accession, by exact canonical name, or by
// case-insensitive name, in that order.
func (v *Vocabulary) Lookup(key string) (obo.Term, error) {
	if t, ok := v.terms[key]; ok {
		return t, nil
	}
	if t, ok := v.byName[key]; ok {
		return t, nil
	}
	lower := strings.ToLower(key)
	if name, ok := v.byLower[lower]; ok {
		return v.byName[name], nil
	}
	return obo.Term{}, &TermNotFoundError{Vocabulary: v.ID, Key: key, Normalized: lower}
}
