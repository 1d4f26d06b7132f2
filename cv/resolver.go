package cv

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/524D/mzidwriter/obo"
)

// Param is an annotation value. Qualified params carry the exact
// (accession, canonical name, source vocabulary) triple of an ontology
// term; unqualified params are free-text userParam annotations.
type Param struct {
	Name  string
	Value string

	Accession string
	CVRef     string

	UnitName      string
	UnitAccession string
	UnitCVRef     string
}

// Qualified reports whether the param is tied to a vocabulary term.
func (p Param) Qualified() bool {
	return p.Accession != "" && p.CVRef != ""
}

// Accession composes a {tag}:{number} accession string.
func Accession(tag string, number int) string {
	return fmt.Sprintf("%s:%d", tag, number)
}

// Resolver searches a priority-ordered list of vocabulary sources to
// qualify parameter names.
type Resolver struct {
	Sources []*Source
	logger  *slog.Logger
}

// NewResolver returns a resolver over sources. A nil logger means
// slog.Default().
func NewResolver(sources []*Source, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{Sources: sources, logger: logger}
}

// Param qualifies p against the source list. Already-qualified input is
// returned unchanged. Otherwise the sources are searched in declaration
// order and the first hit supplies the canonical name, accession and
// source tag; per-source lookup and load errors mean "try the next
// one". If no source recognizes the name the input is returned as an
// unqualified user param — free-text annotations are valid output, not
// an error. When two vocabularies define the same name, declaration
// order decides; there is no further tie-break policy.
func (r *Resolver) Param(p Param) Param {
	if p.Qualified() {
		return p
	}
	if p.Accession != "" {
		// Caller supplied an explicit accession; trust it and derive
		// the cvRef from its tag rather than searching.
		if tag, _, found := strings.Cut(p.Accession, ":"); found {
			p.CVRef = tag
		}
		return p
	}
	for _, src := range r.Sources {
		term, err := src.Lookup(p.Name)
		if err != nil {
			var notFound *TermNotFoundError
			if !errors.As(err, &notFound) {
				r.logger.Debug("vocabulary unavailable",
					slog.String("cv", src.ID), slog.String("error", err.Error()))
			}
			continue
		}
		p.Name = term.Name
		p.Accession = term.ID
		p.CVRef = src.ID
		return p
	}
	return p
}

// Term finds name in the source list, returning the term and the tag of
// the source that defined it. Unlike Param there is no fallback: a
// total miss is an error, for callers that structurally require an
// ontology term.
func (r *Resolver) Term(name string) (obo.Term, string, error) {
	lower := strings.ToLower(name)
	for _, src := range r.Sources {
		term, err := src.Lookup(name)
		if err != nil {
			continue
		}
		return term, src.ID, nil
	}
	return obo.Term{}, "", &TermNotFoundError{Vocabulary: "any", Key: name, Normalized: lower}
}
