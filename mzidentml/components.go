package mzidentml

import (
	"encoding/xml"
	"strconv"

	"github.com/524D/mzidwriter/cv"
)

// Default provenance identifiers, used when the caller supplies no
// document owner.
const (
	DefaultContactID      = "PERSON_DOC_OWNER"
	DefaultOrganizationID = "ORG_DOC_OWNER"
	DefaultProviderID     = "PROVIDER"
)

// Unit accessions for the tolerance units in common use.
var commonUnits = map[string]string{
	"parts per million": "UO:0000169",
	"dalton":            "UO:0000221",
}

// component is one document entity: bind registers it (and resolves the
// references it holds) in the session context, write emits it.
type component interface {
	bind(ctx *Context)
	write(x *xmlFile, ctx *Context) error
}

// ---------------------------------------------------------------------
// Provenance

// AnalysisSoftware describes one program that took part in the
// analysis.
type AnalysisSoftware struct {
	ID      int
	Name    string
	Version string
	URI     string
	// ContactID is the contact playing the software vendor role;
	// defaults to the document owner.
	ContactID any

	ref        string
	contactRef string
}

func (s *AnalysisSoftware) bind(ctx *Context) {
	if s.ID == 0 {
		s.ID = ctx.NextID("AnalysisSoftware")
	}
	s.ref = ctx.Register("AnalysisSoftware", s.ID)
	if s.ContactID == nil {
		s.ContactID = DefaultContactID
	}
	s.contactRef = ctx.Resolve("Person", s.ContactID)
}

func (s *AnalysisSoftware) write(x *xmlFile, ctx *Context) error {
	attrs := []xml.Attr{attr("id", s.ref), attr("name", s.Name)}
	if s.Version != "" {
		attrs = append(attrs, attr("version", s.Version))
	}
	if s.URI != "" {
		attrs = append(attrs, attr("uri", s.URI))
	}
	return x.element("AnalysisSoftware", attrs, func() error {
		return x.element("ContactRole", []xml.Attr{attr("contact_ref", s.contactRef)}, func() error {
			return x.element("Role", nil, func() error {
				return x.param(cv.Param{Name: "software vendor", Accession: "MS:1001267", CVRef: "PSI-MS"})
			})
		})
	})
}

// Person is the document owner or another contact.
type Person struct {
	ID            any // defaults to DefaultContactID
	FirstName     string
	LastName      string
	AffiliationID any // defaults to DefaultOrganizationID

	ref            string
	affiliationRef string
}

func (p *Person) bind(ctx *Context) {
	if p.ID == nil {
		p.ID = DefaultContactID
	}
	p.ref = ctx.Register("Person", p.ID)
	if p.AffiliationID == nil {
		p.AffiliationID = DefaultOrganizationID
	}
	p.affiliationRef = ctx.Resolve("Organization", p.AffiliationID)
}

func (p *Person) write(x *xmlFile, ctx *Context) error {
	attrs := []xml.Attr{attr("id", p.ref)}
	if p.FirstName != "" {
		attrs = append(attrs, attr("firstName", p.FirstName))
	}
	if p.LastName != "" {
		attrs = append(attrs, attr("lastName", p.LastName))
	}
	return x.element("Person", attrs, func() error {
		return x.empty("Affiliation", attr("organization_ref", p.affiliationRef))
	})
}

// Organization is a contact affiliation.
type Organization struct {
	ID   any // defaults to DefaultOrganizationID
	Name string

	ref string
}

func (o *Organization) bind(ctx *Context) {
	if o.ID == nil {
		o.ID = DefaultOrganizationID
	}
	o.ref = ctx.Register("Organization", o.ID)
}

func (o *Organization) write(x *xmlFile, ctx *Context) error {
	attrs := []xml.Attr{attr("id", o.ref)}
	if o.Name != "" {
		attrs = append(attrs, attr("name", o.Name))
	}
	return x.empty("Organization", attrs...)
}

// provider ties the document to its owning contact.
type provider struct {
	id         string
	contactRef string
}

func (p *provider) write(x *xmlFile, ctx *Context) error {
	return x.element("Provider", []xml.Attr{attr("id", p.id)}, func() error {
		return x.element("ContactRole", []xml.Attr{attr("contact_ref", p.contactRef)}, func() error {
			return x.element("Role", nil, func() error {
				return x.param(cv.Param{Name: "researcher", Accession: "MS:1001271", CVRef: "PSI-MS"})
			})
		})
	})
}

// ---------------------------------------------------------------------
// Inputs

// SourceFile describes a file the analysis data came from.
type SourceFile struct {
	ID         any
	Location   string
	FileFormat cv.Param
	Params     []cv.Param

	ref string
}

func (s *SourceFile) bind(ctx *Context) {
	if s.ID == nil {
		s.ID = ctx.NextID("SourceFile")
	}
	s.ref = ctx.Register("SourceFile", s.ID)
}

func (s *SourceFile) write(x *xmlFile, ctx *Context) error {
	attrs := []xml.Attr{attr("id", s.ref), attr("location", s.Location)}
	return x.element("SourceFile", attrs, func() error {
		if err := x.element("FileFormat", nil, func() error {
			return x.param(ctx.Param(s.FileFormat))
		}); err != nil {
			return err
		}
		return x.params(ctx, s.Params)
	})
}

// SearchDatabase describes the sequence database that was searched.
type SearchDatabase struct {
	ID         any
	Name       string
	Location   string
	FileFormat cv.Param
	Params     []cv.Param

	ref string
}

func (s *SearchDatabase) bind(ctx *Context) {
	if s.ID == nil {
		s.ID = ctx.NextID("SearchDatabase")
	}
	s.ref = ctx.Register("SearchDatabase", s.ID)
}

func (s *SearchDatabase) write(x *xmlFile, ctx *Context) error {
	attrs := []xml.Attr{attr("id", s.ref), attr("name", s.Name)}
	if s.Location != "" {
		attrs = append(attrs, attr("location", s.Location))
	}
	return x.element("SearchDatabase", attrs, func() error {
		if err := x.element("FileFormat", nil, func() error {
			return x.param(ctx.Param(s.FileFormat))
		}); err != nil {
			return err
		}
		if err := x.element("DatabaseName", nil, func() error {
			// The database name is free text, not an ontology term.
			return x.param(cv.Param{Name: s.Name})
		}); err != nil {
			return err
		}
		return x.params(ctx, s.Params)
	})
}

// SpectraData describes the spectrum file identifications refer back to.
type SpectraData struct {
	ID               any
	Location         string
	FileFormat       cv.Param
	SpectrumIDFormat cv.Param

	ref string
}

func (s *SpectraData) bind(ctx *Context) {
	if s.ID == nil {
		s.ID = ctx.NextID("SpectraData")
	}
	s.ref = ctx.Register("SpectraData", s.ID)
}

func (s *SpectraData) write(x *xmlFile, ctx *Context) error {
	attrs := []xml.Attr{attr("id", s.ref), attr("location", s.Location)}
	return x.element("SpectraData", attrs, func() error {
		if err := x.element("FileFormat", nil, func() error {
			return x.param(ctx.Param(s.FileFormat))
		}); err != nil {
			return err
		}
		return x.element("SpectrumIDFormat", nil, func() error {
			return x.param(ctx.Param(s.SpectrumIDFormat))
		})
	})
}

// ---------------------------------------------------------------------
// Sequence collection

// DBSequence is a protein sequence from the search database.
type DBSequence struct {
	ID        any
	Accession string
	Sequence  string
	// SearchDatabaseID cites the database the sequence came from.
	SearchDatabaseID any
	Params           []cv.Param

	ref               string
	searchDatabaseRef string
}

func (d *DBSequence) bind(ctx *Context) {
	if d.ID == nil {
		d.ID = ctx.NextID("DBSequence")
	}
	d.ref = ctx.Register("DBSequence", d.ID)
	if d.SearchDatabaseID == nil {
		d.SearchDatabaseID = 1
	}
	d.searchDatabaseRef = ctx.Resolve("SearchDatabase", d.SearchDatabaseID)
}

func (d *DBSequence) write(x *xmlFile, ctx *Context) error {
	attrs := []xml.Attr{
		attr("id", d.ref),
		attr("accession", d.Accession),
		attrInt("length", len(d.Sequence)),
		attr("searchDatabase_ref", d.searchDatabaseRef),
	}
	return x.element("DBSequence", attrs, func() error {
		if err := x.element("Seq", nil, func() error {
			return x.chars(d.Sequence)
		}); err != nil {
			return err
		}
		return x.params(ctx, d.Params)
	})
}

// Modification is a mass modification at one position of a peptide.
type Modification struct {
	Location              int
	Residues              string
	MonoisotopicMassDelta float64
	Params                []cv.Param
}

func (m *Modification) write(x *xmlFile, ctx *Context) error {
	attrs := []xml.Attr{
		attrInt("location", m.Location),
		attrFloat("monoisotopicMassDelta", m.MonoisotopicMassDelta),
	}
	if m.Residues != "" {
		attrs = append(attrs, attr("residues", m.Residues))
	}
	return x.element("Modification", attrs, func() error {
		return x.params(ctx, m.Params)
	})
}

// Peptide is one (possibly modified) peptide sequence.
type Peptide struct {
	ID            any
	Sequence      string
	Modifications []Modification

	ref string
}

func (p *Peptide) bind(ctx *Context) {
	if p.ID == nil {
		p.ID = ctx.NextID("Peptide")
	}
	p.ref = ctx.Register("Peptide", p.ID)
}

func (p *Peptide) write(x *xmlFile, ctx *Context) error {
	return x.element("Peptide", []xml.Attr{attr("id", p.ref)}, func() error {
		if err := x.element("PeptideSequence", nil, func() error {
			return x.chars(p.Sequence)
		}); err != nil {
			return err
		}
		for i := range p.Modifications {
			if err := p.Modifications[i].write(x, ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// PeptideEvidence places a peptide within a database sequence.
type PeptideEvidence struct {
	ID           any
	PeptideID    any
	DBSequenceID any
	Start        int
	End          int
	Pre          string
	Post         string
	IsDecoy      bool

	ref           string
	peptideRef    string
	dbSequenceRef string
}

func (e *PeptideEvidence) bind(ctx *Context) {
	if e.ID == nil {
		e.ID = ctx.NextID("PeptideEvidence")
	}
	e.ref = ctx.Register("PeptideEvidence", e.ID)
	e.peptideRef = ctx.Resolve("Peptide", e.PeptideID)
	e.dbSequenceRef = ctx.Resolve("DBSequence", e.DBSequenceID)
}

func (e *PeptideEvidence) write(x *xmlFile, ctx *Context) error {
	return x.empty("PeptideEvidence",
		attr("id", e.ref),
		attr("peptide_ref", e.peptideRef),
		attr("dBSequence_ref", e.dbSequenceRef),
		attrInt("start", e.Start),
		attrInt("end", e.End),
		attr("pre", e.Pre),
		attr("post", e.Post),
		attrBool("isDecoy", e.IsDecoy),
	)
}

// ---------------------------------------------------------------------
// Protocols

// Enzyme is a cleavage agent. When SiteRegexp is empty the cleavage
// pattern is derived from the ontology: the enzyme term's has_regexp
// relationship points at a term whose name is the pattern.
type Enzyme struct {
	ID              any
	Name            string
	MissedCleavages int
	SemiSpecific    bool
	SiteRegexp      string

	ref string
}

func (e *Enzyme) bind(ctx *Context) {
	if e.ID == nil {
		e.ID = ctx.NextID("Enzyme")
	}
	e.ref = ctx.Register("Enzyme", e.ID)
	if e.SiteRegexp == "" {
		// Best effort: an enzyme without an ontology entry simply has
		// no SiteRegexp element.
		if term, _, err := ctx.Term(e.Name); err == nil {
			if rel, ok := term.Relationship("has_regexp"); ok {
				if regexTerm, _, err := ctx.Term(rel.Accession); err == nil {
					e.SiteRegexp = regexTerm.Name
				}
			}
		}
	}
}

func (e *Enzyme) write(x *xmlFile, ctx *Context) error {
	attrs := []xml.Attr{
		attr("id", e.ref),
		attrBool("semiSpecific", e.SemiSpecific),
		attrInt("missedCleavages", e.MissedCleavages),
	}
	return x.element("Enzyme", attrs, func() error {
		if e.SiteRegexp != "" {
			if err := x.element("SiteRegexp", nil, func() error {
				return x.chars(e.SiteRegexp)
			}); err != nil {
				return err
			}
		}
		return x.element("EnzymeName", nil, func() error {
			return x.param(ctx.Param(cv.Param{Name: e.Name}))
		})
	})
}

// Tolerance is a symmetric or asymmetric search tolerance window.
// Unit defaults to parts per million; Minus defaults to Plus.
type Tolerance struct {
	Plus  float64
	Minus float64
	Unit  string
}

func (t Tolerance) write(x *xmlFile, ctx *Context, tagName string) error {
	unit := t.Unit
	if unit == "" {
		unit = "parts per million"
	}
	minus := t.Minus
	if minus == 0 {
		minus = t.Plus
	}
	unitParam := func(name, accession string, value float64) cv.Param {
		return cv.Param{
			Name:          name,
			Accession:     accession,
			CVRef:         "PSI-MS",
			Value:         strconv.FormatFloat(value, 'g', -1, 64),
			UnitName:      unit,
			UnitAccession: commonUnits[unit],
			UnitCVRef:     "UO",
		}
	}
	return x.element(tagName, nil, func() error {
		if err := x.param(unitParam("search tolerance plus value", "MS:1001412", t.Plus)); err != nil {
			return err
		}
		return x.param(unitParam("search tolerance minus value", "MS:1001413", minus))
	})
}

// writeThreshold writes an acceptance threshold, "no threshold" when
// none is given.
func writeThreshold(x *xmlFile, ctx *Context, params []cv.Param) error {
	return x.element("Threshold", nil, func() error {
		if len(params) == 0 {
			return x.param(cv.Param{Name: "no threshold", Accession: "MS:1001494", CVRef: "PSI-MS"})
		}
		return x.params(ctx, params)
	})
}

// SearchModification is a modification the search allowed for.
type SearchModification struct {
	MassDelta float64
	Residues  string
	Fixed     bool
	Params    []cv.Param
}

func (m *SearchModification) write(x *xmlFile, ctx *Context) error {
	attrs := []xml.Attr{
		attrBool("fixedMod", m.Fixed),
		attrFloat("massDelta", m.MassDelta),
		attr("residues", m.Residues),
	}
	return x.element("SearchModification", attrs, func() error {
		return x.params(ctx, m.Params)
	})
}

// SpectrumIdentificationProtocol records the search parameters.
type SpectrumIdentificationProtocol struct {
	ID                     any
	AnalysisSoftwareID     any
	SearchType             cv.Param
	AdditionalSearchParams []cv.Param
	ModificationParams     []SearchModification
	Enzymes                []Enzyme
	FragmentTolerance      *Tolerance
	ParentTolerance        *Tolerance
	Threshold              []cv.Param

	ref         string
	softwareRef string
}

func (p *SpectrumIdentificationProtocol) bind(ctx *Context) {
	if p.ID == nil {
		p.ID = ctx.NextID("SpectrumIdentificationProtocol")
	}
	p.ref = ctx.Register("SpectrumIdentificationProtocol", p.ID)
	if p.AnalysisSoftwareID == nil {
		p.AnalysisSoftwareID = 1
	}
	p.softwareRef = ctx.Resolve("AnalysisSoftware", p.AnalysisSoftwareID)
	for i := range p.Enzymes {
		p.Enzymes[i].bind(ctx)
	}
}

func (p *SpectrumIdentificationProtocol) write(x *xmlFile, ctx *Context) error {
	attrs := []xml.Attr{
		attr("id", p.ref),
		attr("analysisSoftware_ref", p.softwareRef),
	}
	return x.element("SpectrumIdentificationProtocol", attrs, func() error {
		if err := x.element("SearchType", nil, func() error {
			return x.param(ctx.Param(p.SearchType))
		}); err != nil {
			return err
		}
		if len(p.AdditionalSearchParams) > 0 {
			if err := x.element("AdditionalSearchParams", nil, func() error {
				return x.params(ctx, p.AdditionalSearchParams)
			}); err != nil {
				return err
			}
		}
		if len(p.ModificationParams) > 0 {
			if err := x.element("ModificationParams", nil, func() error {
				for i := range p.ModificationParams {
					if err := p.ModificationParams[i].write(x, ctx); err != nil {
						return err
					}
				}
				return nil
			}); err != nil {
				return err
			}
		}
		if len(p.Enzymes) > 0 {
			if err := x.element("Enzymes", nil, func() error {
				for i := range p.Enzymes {
					if err := p.Enzymes[i].write(x, ctx); err != nil {
						return err
					}
				}
				return nil
			}); err != nil {
				return err
			}
		}
		if p.FragmentTolerance != nil {
			if err := p.FragmentTolerance.write(x, ctx, "FragmentTolerance"); err != nil {
				return err
			}
		}
		if p.ParentTolerance != nil {
			if err := p.ParentTolerance.write(x, ctx, "ParentTolerance"); err != nil {
				return err
			}
		}
		return writeThreshold(x, ctx, p.Threshold)
	})
}

// ProteinDetectionProtocol records protein inference parameters.
type ProteinDetectionProtocol struct {
	ID                 any
	AnalysisSoftwareID any
	Threshold          []cv.Param

	ref         string
	softwareRef string
}

func (p *ProteinDetectionProtocol) bind(ctx *Context) {
	if p.ID == nil {
		p.ID = ctx.NextID("ProteinDetectionProtocol")
	}
	p.ref = ctx.Register("ProteinDetectionProtocol", p.ID)
	if p.AnalysisSoftwareID == nil {
		p.AnalysisSoftwareID = 1
	}
	p.softwareRef = ctx.Resolve("AnalysisSoftware", p.AnalysisSoftwareID)
}

func (p *ProteinDetectionProtocol) write(x *xmlFile, ctx *Context) error {
	attrs := []xml.Attr{
		attr("id", p.ref),
		attr("analysisSoftware_ref", p.softwareRef),
	}
	return x.element("ProteinDetectionProtocol", attrs, func() error {
		return writeThreshold(x, ctx, p.Threshold)
	})
}

// ---------------------------------------------------------------------
// Analysis collection

// SpectrumIdentification ties input spectra and databases to the
// protocol and result list that processed them.
type SpectrumIdentification struct {
	ID                               any
	SpectrumIdentificationListID     any
	SpectrumIdentificationProtocolID any
	SpectraDataIDs                   []any
	SearchDatabaseIDs                []any

	ref          string
	listRef      string
	protocolRef  string
	spectraRefs  []string
	searchDBRefs []string
}

func (s *SpectrumIdentification) bind(ctx *Context) {
	if s.ID == nil {
		s.ID = ctx.NextID("SpectrumIdentification")
	}
	s.ref = ctx.Register("SpectrumIdentification", s.ID)
	if s.SpectrumIdentificationListID == nil {
		s.SpectrumIdentificationListID = 1
	}
	if s.SpectrumIdentificationProtocolID == nil {
		s.SpectrumIdentificationProtocolID = 1
	}
	s.listRef = ctx.Resolve("SpectrumIdentificationList", s.SpectrumIdentificationListID)
	s.protocolRef = ctx.Resolve("SpectrumIdentificationProtocol", s.SpectrumIdentificationProtocolID)
	for _, id := range s.SpectraDataIDs {
		s.spectraRefs = append(s.spectraRefs, ctx.Resolve("SpectraData", id))
	}
	for _, id := range s.SearchDatabaseIDs {
		s.searchDBRefs = append(s.searchDBRefs, ctx.Resolve("SearchDatabase", id))
	}
}

func (s *SpectrumIdentification) write(x *xmlFile, ctx *Context) error {
	attrs := []xml.Attr{
		attr("id", s.ref),
		attr("spectrumIdentificationList_ref", s.listRef),
		attr("spectrumIdentificationProtocol_ref", s.protocolRef),
	}
	return x.element("SpectrumIdentification", attrs, func() error {
		for _, ref := range s.spectraRefs {
			if err := x.empty("InputSpectra", attr("spectraData_ref", ref)); err != nil {
				return err
			}
		}
		for _, ref := range s.searchDBRefs {
			if err := x.empty("SearchDatabaseRef", attr("searchDatabase_ref", ref)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ---------------------------------------------------------------------
// Analysis data

// SpectrumIdentificationItem is one candidate identification of a
// spectrum.
type SpectrumIdentificationItem struct {
	ID                any
	CalculatedMZ      float64
	ExperimentalMZ    float64
	ChargeState       int
	PeptideID         any
	PeptideEvidenceID any
	Score             cv.Param
	Params            []cv.Param
	PassThreshold     bool
	Rank              int

	ref                string
	peptideRef         string
	peptideEvidenceRef string
}

func (i *SpectrumIdentificationItem) bind(ctx *Context) {
	if i.ID == nil {
		i.ID = ctx.NextID("SpectrumIdentificationItem")
	}
	i.ref = ctx.Register("SpectrumIdentificationItem", i.ID)
	i.peptideRef = ctx.Resolve("Peptide", i.PeptideID)
	i.peptideEvidenceRef = ctx.Resolve("PeptideEvidence", i.PeptideEvidenceID)
	if i.Rank == 0 {
		i.Rank = 1
	}
}

func (i *SpectrumIdentificationItem) write(x *xmlFile, ctx *Context) error {
	attrs := []xml.Attr{
		attr("id", i.ref),
		attrFloat("calculatedMassToCharge", i.CalculatedMZ),
		attrFloat("experimentalMassToCharge", i.ExperimentalMZ),
		attrInt("chargeState", i.ChargeState),
		attr("peptide_ref", i.peptideRef),
		attrInt("rank", i.Rank),
		attrBool("passThreshold", i.PassThreshold),
	}
	return x.element("SpectrumIdentificationItem", attrs, func() error {
		if err := x.empty("PeptideEvidenceRef", attr("peptideEvidence_ref", i.peptideEvidenceRef)); err != nil {
			return err
		}
		if i.Score.Name != "" {
			if err := x.param(ctx.Param(i.Score)); err != nil {
				return err
			}
		}
		return x.params(ctx, i.Params)
	})
}

// SpectrumIdentificationResult groups the identifications of one
// spectrum.
type SpectrumIdentificationResult struct {
	ID            any
	SpectraDataID any
	SpectrumID    string
	Items         []SpectrumIdentificationItem
	Params        []cv.Param

	ref            string
	spectraDataRef string
}

func (r *SpectrumIdentificationResult) bind(ctx *Context) {
	if r.ID == nil {
		r.ID = ctx.NextID("SpectrumIdentificationResult")
	}
	r.ref = ctx.Register("SpectrumIdentificationResult", r.ID)
	r.spectraDataRef = ctx.Resolve("SpectraData", r.SpectraDataID)
	for i := range r.Items {
		r.Items[i].bind(ctx)
	}
}

func (r *SpectrumIdentificationResult) write(x *xmlFile, ctx *Context) error {
	attrs := []xml.Attr{
		attr("id", r.ref),
		attr("spectrumID", r.SpectrumID),
		attr("spectraData_ref", r.spectraDataRef),
	}
	return x.element("SpectrumIdentificationResult", attrs, func() error {
		for i := range r.Items {
			if err := r.Items[i].write(x, ctx); err != nil {
				return err
			}
		}
		return x.params(ctx, r.Params)
	})
}

// SpectrumIdentificationList is the ordered list of all identification
// results.
type SpectrumIdentificationList struct {
	ID      any
	Results []SpectrumIdentificationResult

	ref string
}

func (l *SpectrumIdentificationList) bind(ctx *Context) {
	if l.ID == nil {
		l.ID = ctx.NextID("SpectrumIdentificationList")
	}
	l.ref = ctx.Register("SpectrumIdentificationList", l.ID)
	for i := range l.Results {
		l.Results[i].bind(ctx)
	}
}

func (l *SpectrumIdentificationList) write(x *xmlFile, ctx *Context) error {
	return x.element("SpectrumIdentificationList", []xml.Attr{attr("id", l.ref)}, func() error {
		for i := range l.Results {
			if err := l.Results[i].write(x, ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// Inputs groups the input declarations of the data collection.
type Inputs struct {
	SourceFiles     []SourceFile
	SearchDatabases []SearchDatabase
	SpectraData     []SpectraData
}
