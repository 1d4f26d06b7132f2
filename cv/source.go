package cv

import (
	"github.com/524D/mzidwriter/obo"
)

// Default vocabulary source URIs (the PSI-MS ontology, the unit
// ontology and the UNIMOD modifications ontology).
const (
	PSIMSURI = "http://psidev.cvs.sourceforge.net/viewvc/*checkout*/psidev" +
		"/psi/psi-ms/mzML/controlledVocabulary/psi-ms.obo"
	UnitURI   = "http://obo.cvs.sourceforge.net/*checkout*/obo/obo/ontology/phenotype/unit.obo"
	UnimodURI = "http://www.unimod.org/obo/unimod.obo"
)

// Source is a cheap descriptor of one controlled vocabulary: the data
// written into the document's cvList element, plus a deferred handle on
// the parsed vocabulary. Construction does no I/O; the vocabulary is
// fetched and parsed on first lookup and memoized for the lifetime of
// the source, errors included.
type Source struct {
	ID       string // short source tag, used as cvRef
	FullName string
	URI      string
	Version  string

	cache  *Cache
	loaded bool
	vocab  *Vocabulary
	err    error
}

// NewSource returns a lazy source resolved through cache.
func NewSource(id, fullName, uri, version string, cache *Cache) *Source {
	return &Source{ID: id, FullName: fullName, URI: uri, Version: version, cache: cache}
}

// NewStaticSource wraps an already-built vocabulary, for offline use
// and tests.
func NewStaticSource(fullName, uri, version string, vocab *Vocabulary) *Source {
	return &Source{
		ID:       vocab.ID,
		FullName: fullName,
		URI:      uri,
		Version:  version,
		loaded:   true,
		vocab:    vocab,
	}
}

// Vocabulary returns the parsed vocabulary, fetching and parsing it on
// first call. A failed load stays failed for the lifetime of the
// source; the caller may pre-populate the cache and build a new source
// to retry.
func (s *Source) Vocabulary() (*Vocabulary, error) {
	if s.loaded {
		return s.vocab, s.err
	}
	s.loaded = true
	rc, err := s.cache.Resolve(s.URI)
	if err != nil {
		s.err = err
		return nil, s.err
	}
	defer rc.Close()
	s.vocab, s.err = FromOBO(s.ID, rc)
	return s.vocab, s.err
}

// Lookup looks key up in the (lazily loaded) vocabulary.
func (s *Source) Lookup(key string) (obo.Term, error) {
	v, err := s.Vocabulary()
	if err != nil {
		return obo.Term{}, err
	}
	return v.Lookup(key)
}

// DefaultSources is the fixed, priority-ordered vocabulary list used
// when the caller configures nothing: PSI-MS, then the unit ontology,
// then UNIMOD. All three are resolved through cache, so a custom
// resolver registered there (e.g. for the UNIMOD artifact) is honored.
func DefaultSources(cache *Cache) []*Source {
	return []*Source{
		NewSource("PSI-MS", "PSI-MS", PSIMSURI, "2.25.0", cache),
		NewSource("UO", "UNIT-ONTOLOGY", UnitURI, "", cache),
		NewSource("UNIMOD", "UNIMOD", UnimodURI, "", cache),
	}
}
