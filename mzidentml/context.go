// Package mzidentml writes mzIdentML 1.1 documents in a single
// streaming pass. A Context tracks the generated reference strings that
// let entities written in different document sections cite each other;
// entity components bind to the context at construction and are emitted
// by the Writer as nested scoped XML elements.
package mzidentml

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/524D/mzidwriter/cv"
	"github.com/524D/mzidwriter/obo"
)

// refString builds the document-wide reference for an entity id.
// Numeric ids become {TYPE}_{N} with the type name uppercased; string
// ids are already reference-shaped and are used verbatim.
func refString(typeName string, id any) string {
	if s, ok := id.(string); ok {
		return s
	}
	return fmt.Sprintf("%s_%v", strings.ToUpper(typeName), id)
}

// registry maps declared entity ids of one type to their reference
// strings. It owns the per-type counter for caller-omitted ids.
type registry struct {
	typeName string
	refs     map[any]string
	counter  int
}

func newRegistry(typeName string) *registry {
	return &registry{typeName: typeName, refs: make(map[any]string)}
}

func (r *registry) nextID() int {
	r.counter++
	return r.counter
}

// Context is the sole source of truth for cross-reference strings
// during one document-writing session. It is passed by pointer to every
// component and must not be shared between concurrent writers.
type Context struct {
	registries map[string]*registry
	resolver   *cv.Resolver
	logger     *slog.Logger
}

// NewContext returns a context using resolver for vocabulary lookups.
// A nil logger means slog.Default().
func NewContext(resolver *cv.Resolver, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		registries: make(map[string]*registry),
		resolver:   resolver,
		logger:     logger,
	}
}

func (c *Context) registry(typeName string) *registry {
	r, ok := c.registries[typeName]
	if !ok {
		r = newRegistry(typeName)
		c.registries[typeName] = r
	}
	return r
}

// Register pre-declares an entity id under a type and returns its
// reference string. It is idempotent: once a reference exists for an id
// (registered or synthesized) it never changes.
func (c *Context) Register(typeName string, id any) string {
	r := c.registry(typeName)
	if ref, ok := r.refs[id]; ok {
		return ref
	}
	ref := refString(typeName, id)
	r.refs[id] = ref
	return ref
}

// Resolve returns the reference string for an entity id, synthesizing
// and remembering one if the id was never registered. The synthesis is
// logged: it either satisfies a legitimate forward reference or papers
// over a caller ordering mistake, and the context cannot tell the two
// apart, so the write proceeds either way.
func (c *Context) Resolve(typeName string, id any) string {
	r := c.registry(typeName)
	if ref, ok := r.refs[id]; ok {
		return ref
	}
	ref := refString(typeName, id)
	r.refs[id] = ref
	c.logger.Warn("no reference registered, synthesizing",
		slog.String("type", typeName), slog.Any("id", id), slog.String("ref", ref))
	return ref
}

// NextID hands out the next auto-incremented id for a type.
func (c *Context) NextID(typeName string) int {
	return c.registry(typeName).nextID()
}

// Param qualifies p against the session's vocabularies (see cv.Resolver).
func (c *Context) Param(p cv.Param) cv.Param {
	if c.resolver == nil {
		return p
	}
	return c.resolver.Param(p)
}

// Term requires an exact ontology term for name (see cv.Resolver).
func (c *Context) Term(name string) (obo.Term, string, error) {
	if c.resolver == nil {
		return obo.Term{}, "", &cv.TermNotFoundError{Vocabulary: "any", Key: name, Normalized: strings.ToLower(name)}
	}
	return c.resolver.Term(name)
}

// Sources exposes the vocabulary source list for the cvList section.
func (c *Context) Sources() []*cv.Source {
	if c.resolver == nil {
		return nil
	}
	return c.resolver.Sources
}
