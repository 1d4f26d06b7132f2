package mzidentml

import (
	"encoding/xml"
	"errors"
	"io"

	"golang.org/x/net/html/charset"
)

var (
	ErrInvalidIdentIndex = errors.New("mzidentml: invalid identification index")
)

// Document holds the parts of a decoded mzIdentML file needed to verify
// what the writer produced: the cv list, the sequence collection with
// its reference attributes, and the identification results.
type Document struct {
	pepIdx    map[string]int
	identList []identRef
	content   documentContent
}

type identRef struct {
	resultIdx int
	itemIdx   int
}

type documentContent struct {
	XMLName         xml.Name           `xml:"MzIdentML"`
	ID              string             `xml:"id,attr"`
	Version         string             `xml:"version,attr"`
	CVs             []CVRecord         `xml:"cvList>cv"`
	DBSequences     []DBSequenceRecord `xml:"SequenceCollection>DBSequence"`
	Peptides        []PeptideRecord    `xml:"SequenceCollection>Peptide"`
	PeptideEvidence []EvidenceRecord   `xml:"SequenceCollection>PeptideEvidence"`
	Results         []ResultRecord     `xml:"DataCollection>AnalysisData>SpectrumIdentificationList>SpectrumIdentificationResult"`
}

// CVRecord is one declared controlled vocabulary.
type CVRecord struct {
	ID       string `xml:"id,attr"`
	FullName string `xml:"fullName,attr"`
	URI      string `xml:"uri,attr"`
}

// DBSequenceRecord is a decoded protein sequence entry.
type DBSequenceRecord struct {
	ID                string `xml:"id,attr"`
	Accession         string `xml:"accession,attr"`
	SearchDatabaseRef string `xml:"searchDatabase_ref,attr"`
	Seq               string `xml:"Seq"`
}

// PeptideRecord is a decoded peptide entry.
type PeptideRecord struct {
	ID              string `xml:"id,attr"`
	PeptideSequence string
}

// EvidenceRecord is a decoded peptide evidence entry.
type EvidenceRecord struct {
	ID            string `xml:"id,attr"`
	PeptideRef    string `xml:"peptide_ref,attr"`
	DBSequenceRef string `xml:"dBSequence_ref,attr"`
	Start         int    `xml:"start,attr"`
	End           int    `xml:"end,attr"`
	IsDecoy       bool   `xml:"isDecoy,attr"`
}

// ResultRecord is a decoded spectrum identification result.
type ResultRecord struct {
	ID             string       `xml:"id,attr"`
	SpectrumID     string       `xml:"spectrumID,attr"`
	SpectraDataRef string       `xml:"spectraData_ref,attr"`
	Items          []itemRecord `xml:"SpectrumIdentificationItem"`
}

type itemRecord struct {
	ID             string          `xml:"id,attr"`
	ChargeState    int             `xml:"chargeState,attr"`
	ExperimentalMZ float64         `xml:"experimentalMassToCharge,attr"`
	PeptideRef     string          `xml:"peptide_ref,attr"`
	CvPar          []CVParamRecord `xml:"cvParam"`
	UserPar        []CVParamRecord `xml:"userParam"`
}

// CVParamRecord is a decoded cvParam or userParam.
type CVParamRecord struct {
	Accession string `xml:"accession,attr"`
	Name      string `xml:"name,attr"`
	Value     string `xml:"value,attr"`
	CVRef     string `xml:"cvRef,attr"`
}

// Identification is one flattened spectrum identification.
type Identification struct {
	PepSeq         string
	PepID          string
	Charge         int
	ExperimentalMZ float64
	SpecID         string
	Cv             []CVParamRecord
}

// Read decodes mzIdentML content from reader.
func Read(reader io.Reader) (Document, error) {
	var doc Document
	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel
	if err := d.Decode(&doc.content); err != nil {
		return doc, err
	}
	doc.pepIdx = make(map[string]int, len(doc.content.Peptides))
	for i, p := range doc.content.Peptides {
		doc.pepIdx[p.ID] = i
	}
	for i := range doc.content.Results {
		for j := range doc.content.Results[i].Items {
			doc.identList = append(doc.identList, identRef{resultIdx: i, itemIdx: j})
		}
	}
	return doc, nil
}

// ID returns the document id attribute.
func (d *Document) ID() string { return d.content.ID }

// Version returns the document version attribute.
func (d *Document) Version() string { return d.content.Version }

// CVs returns the declared controlled vocabularies.
func (d *Document) CVs() []CVRecord { return d.content.CVs }

// DBSequences returns the decoded database sequences.
func (d *Document) DBSequences() []DBSequenceRecord { return d.content.DBSequences }

// Peptides returns the decoded peptides.
func (d *Document) Peptides() []PeptideRecord { return d.content.Peptides }

// PeptideEvidence returns the decoded peptide evidence entries.
func (d *Document) PeptideEvidence() []EvidenceRecord { return d.content.PeptideEvidence }

// Results returns the decoded spectrum identification results.
func (d *Document) Results() []ResultRecord { return d.content.Results }

// NumIdents returns the total number of identifications. A spectrum may
// carry more than one.
func (d *Document) NumIdents() int {
	return len(d.identList)
}

// Ident returns identification i, flattened across the result/item
// nesting. The index runs from 0 to NumIdents()-1.
func (d *Document) Ident(i int) (Identification, error) {
	var ident Identification
	if i < 0 || i >= len(d.identList) {
		return ident, ErrInvalidIdentIndex
	}
	res := d.content.Results[d.identList[i].resultIdx]
	item := res.Items[d.identList[i].itemIdx]

	if pi, ok := d.pepIdx[item.PeptideRef]; ok {
		ident.PepSeq = d.content.Peptides[pi].PeptideSequence
		ident.PepID = d.content.Peptides[pi].ID
	}
	ident.Charge = item.ChargeState
	ident.ExperimentalMZ = item.ExperimentalMZ
	ident.SpecID = res.SpectrumID
	ident.Cv = append(ident.Cv, item.CvPar...)
	return ident, nil
}
