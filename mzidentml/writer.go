package mzidentml

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/524D/mzidwriter/cv"
)

const (
	mzIdentMLNS = "http://psidev.info/psi/pi/mzIdentML/1.1"
	xsiNS       = "http://www.w3.org/2001/XMLSchema-instance"
	schemaLoc   = "http://psidev.info/psi/pi/mzIdentML/1.1 ../../schema/mzIdentML1.1.0.xsd"
	version     = "1.1.0"
)

const xmlHeader = `<?xml version="1.0" encoding="utf-8"?>
`

// Writer streams an mzIdentML document to an output sink, section by
// section. The exposed section methods follow the document's fixed
// order (provenance before inputs before the sections that reference
// them); writing them out of order is not rejected, it falls back on
// reference synthesis with a logged diagnostic.
//
// One Writer owns one Context for the whole session. Writers are not
// safe for concurrent use.
type Writer struct {
	ctx    *Context
	x      *xmlFile
	out    io.Writer
	logger *slog.Logger
	docID  string

	begun  bool
	closed bool
}

// Option configures a Writer.
type Option func(*writerConfig)

type writerConfig struct {
	sources  []*cv.Source
	resolver *cv.Resolver
	logger   *slog.Logger
	docID    string
}

// WithSources sets the priority-ordered vocabulary list. Without this
// option the default PSI-MS / UO / UNIMOD set is used, resolved through
// a cache in cv.DefaultCacheDir.
func WithSources(sources []*cv.Source) Option {
	return func(c *writerConfig) { c.sources = sources }
}

// WithResolver supplies a fully built vocabulary resolver, overriding
// WithSources.
func WithResolver(r *cv.Resolver) Option {
	return func(c *writerConfig) { c.resolver = r }
}

// WithLogger sets the logger for reference-synthesis diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *writerConfig) { c.logger = l }
}

// WithDocumentID overrides the generated document id attribute.
func WithDocumentID(id string) Option {
	return func(c *writerConfig) { c.docID = id }
}

// NewWriter returns a writer over out. Nothing is written until Begin.
func NewWriter(out io.Writer, opts ...Option) *Writer {
	var cfg writerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.resolver == nil {
		sources := cfg.sources
		if sources == nil {
			sources = cv.DefaultSources(cv.NewCache(""))
		}
		cfg.resolver = cv.NewResolver(sources, cfg.logger)
	}
	if cfg.docID == "" {
		cfg.docID = "MZIDWRITER_" + uuid.NewString()
	}
	return &Writer{
		ctx:    NewContext(cfg.resolver, cfg.logger),
		x:      newXMLFile(out),
		out:    out,
		logger: cfg.logger,
		docID:  cfg.docID,
	}
}

// Context returns the session's reference context.
func (w *Writer) Context() *Context {
	return w.ctx
}

// Register pre-declares an entity id so that later sections can cite it
// before the entity itself is written, without triggering the
// dangling-reference diagnostic.
func (w *Writer) Register(typeName string, id any) string {
	return w.ctx.Register(typeName, id)
}

// Begin writes the XML header and opens the MzIdentML root element.
func (w *Writer) Begin() error {
	if w.begun {
		return nil
	}
	if _, err := io.WriteString(w.out, xmlHeader); err != nil {
		return fmt.Errorf("mzidentml: writing header: %w", err)
	}
	err := w.x.open("MzIdentML",
		attr("xmlns", mzIdentMLNS),
		attr("xmlns:xsi", xsiNS),
		attr("xsi:schemaLocation", schemaLoc),
		attr("id", w.docID),
		attr("version", version),
		attr("creationDate", time.Now().UTC().Format(time.RFC3339)),
	)
	if err != nil {
		return fmt.Errorf("mzidentml: opening document: %w", err)
	}
	w.begun = true
	return nil
}

// Close closes the root element and flushes the sink. It is idempotent
// and must run on every exit path; an error from Close means the
// document is not usable.
func (w *Writer) Close() error {
	if w.closed || !w.begun {
		w.closed = true
		return nil
	}
	w.closed = true
	if err := w.x.close("MzIdentML"); err != nil {
		return fmt.Errorf("mzidentml: closing document: %w", err)
	}
	if err := w.x.flush(); err != nil {
		return fmt.Errorf("mzidentml: flushing document: %w", err)
	}
	return nil
}

func (w *Writer) section(err error) error {
	if err != nil {
		return err
	}
	return w.x.flush()
}

// ControlledVocabularies writes the cvList section from the resolver's
// source list.
func (w *Writer) ControlledVocabularies() error {
	return w.section(w.x.element("cvList", nil, func() error {
		for _, src := range w.ctx.Sources() {
			attrs := []xml.Attr{
				attr("id", src.ID),
				attr("fullName", src.FullName),
				attr("uri", src.URI),
			}
			if src.Version != "" {
				attrs = append(attrs, attr("version", src.Version))
			}
			if err := w.x.empty("cv", attrs...); err != nil {
				return err
			}
		}
		return nil
	}))
}

// Providence writes the provenance sections: the software list, the
// document provider and the audit collection. A nil owner or
// organization gets the document-owner defaults. It should be written
// early so later sections can reference the software by id.
func (w *Writer) Providence(software []AnalysisSoftware, owner *Person, organization *Organization) error {
	if owner == nil {
		owner = &Person{}
	}
	if organization == nil {
		organization = &Organization{}
	}
	owner.bind(w.ctx)
	organization.bind(w.ctx)
	for i := range software {
		software[i].bind(w.ctx)
	}

	err := w.x.element("AnalysisSoftwareList", nil, func() error {
		for i := range software {
			if err := software[i].write(w.x, w.ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return w.section(err)
	}
	prov := provider{id: DefaultProviderID, contactRef: owner.ref}
	if err := prov.write(w.x, w.ctx); err != nil {
		return w.section(err)
	}
	return w.section(w.x.element("AuditCollection", nil, func() error {
		if err := owner.write(w.x, w.ctx); err != nil {
			return err
		}
		return organization.write(w.x, w.ctx)
	}))
}

// SequenceCollection writes database sequences, peptides and peptide
// evidence. The declaration order inside the section matches the
// reference order: evidence cites peptides and sequences declared just
// before it.
func (w *Writer) SequenceCollection(dbSequences []DBSequence, peptides []Peptide, evidence []PeptideEvidence) error {
	for i := range dbSequences {
		dbSequences[i].bind(w.ctx)
	}
	for i := range peptides {
		peptides[i].bind(w.ctx)
	}
	for i := range evidence {
		evidence[i].bind(w.ctx)
	}
	return w.section(w.x.element("SequenceCollection", nil, func() error {
		for i := range dbSequences {
			if err := dbSequences[i].write(w.x, w.ctx); err != nil {
				return err
			}
		}
		for i := range peptides {
			if err := peptides[i].write(w.x, w.ctx); err != nil {
				return err
			}
		}
		for i := range evidence {
			if err := evidence[i].write(w.x, w.ctx); err != nil {
				return err
			}
		}
		return nil
	}))
}

// AnalysisProtocolCollection writes the search and protein detection
// protocols.
func (w *Writer) AnalysisProtocolCollection(spectrum []SpectrumIdentificationProtocol, protein []ProteinDetectionProtocol) error {
	for i := range spectrum {
		spectrum[i].bind(w.ctx)
	}
	for i := range protein {
		protein[i].bind(w.ctx)
	}
	return w.section(w.x.element("AnalysisProtocolCollection", nil, func() error {
		for i := range spectrum {
			if err := spectrum[i].write(w.x, w.ctx); err != nil {
				return err
			}
		}
		for i := range protein {
			if err := protein[i].write(w.x, w.ctx); err != nil {
				return err
			}
		}
		return nil
	}))
}

// AnalysisCollection ties spectra and databases to protocols and result
// lists.
func (w *Writer) AnalysisCollection(idents []SpectrumIdentification) error {
	for i := range idents {
		idents[i].bind(w.ctx)
	}
	return w.section(w.x.element("AnalysisCollection", nil, func() error {
		for i := range idents {
			if err := idents[i].write(w.x, w.ctx); err != nil {
				return err
			}
		}
		return nil
	}))
}

// DataCollection writes the input declarations and the analysis data
// holding the spectrum identification lists.
func (w *Writer) DataCollection(inputs Inputs, lists []SpectrumIdentificationList) error {
	for i := range inputs.SourceFiles {
		inputs.SourceFiles[i].bind(w.ctx)
	}
	for i := range inputs.SearchDatabases {
		inputs.SearchDatabases[i].bind(w.ctx)
	}
	for i := range inputs.SpectraData {
		inputs.SpectraData[i].bind(w.ctx)
	}
	for i := range lists {
		lists[i].bind(w.ctx)
	}
	return w.section(w.x.element("DataCollection", nil, func() error {
		err := w.x.element("Inputs", nil, func() error {
			for i := range inputs.SourceFiles {
				if err := inputs.SourceFiles[i].write(w.x, w.ctx); err != nil {
					return err
				}
			}
			for i := range inputs.SearchDatabases {
				if err := inputs.SearchDatabases[i].write(w.x, w.ctx); err != nil {
					return err
				}
			}
			for i := range inputs.SpectraData {
				if err := inputs.SpectraData[i].write(w.x, w.ctx); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		return w.x.element("AnalysisData", nil, func() error {
			for i := range lists {
				if err := lists[i].write(w.x, w.ctx); err != nil {
					return err
				}
			}
			return nil
		})
	}))
}
