package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/524D/mzidwriter/cv"
	"github.com/524D/mzidwriter/mzidentml"
)

// job is the YAML description of one document: who ran the analysis,
// what was searched, and what was found.
type job struct {
	Software     []softwareSpec `yaml:"software"`
	Owner        *personSpec    `yaml:"owner"`
	Organization *orgSpec       `yaml:"organization"`

	SourceFiles     []sourceFileSpec  `yaml:"source_files"`
	SearchDatabases []searchDBSpec    `yaml:"search_databases"`
	SpectraData     []spectraDataSpec `yaml:"spectra_data"`

	Proteins []proteinSpec  `yaml:"proteins"`
	Peptides []peptideSpec  `yaml:"peptides"`
	Evidence []evidenceSpec `yaml:"peptide_evidence"`

	Protocol *protocolSpec `yaml:"protocol"`
	Results  []resultSpec  `yaml:"identification_results"`
}

type softwareSpec struct {
	ID      int    `yaml:"id"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	URI     string `yaml:"uri"`
}

type personSpec struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

type orgSpec struct {
	Name string `yaml:"name"`
}

type sourceFileSpec struct {
	ID         int    `yaml:"id"`
	Location   string `yaml:"location"`
	FileFormat string `yaml:"file_format"`
}

type searchDBSpec struct {
	ID         int    `yaml:"id"`
	Name       string `yaml:"name"`
	Location   string `yaml:"location"`
	FileFormat string `yaml:"file_format"`
}

type spectraDataSpec struct {
	ID               int    `yaml:"id"`
	Location         string `yaml:"location"`
	FileFormat       string `yaml:"file_format"`
	SpectrumIDFormat string `yaml:"spectrum_id_format"`
}

type proteinSpec struct {
	ID               int    `yaml:"id"`
	Accession        string `yaml:"accession"`
	Sequence         string `yaml:"sequence"`
	SearchDatabaseID int    `yaml:"search_database_id"`
}

type peptideSpec struct {
	ID            int       `yaml:"id"`
	Sequence      string    `yaml:"peptide_sequence"`
	Modifications []modSpec `yaml:"modifications"`
}

type modSpec struct {
	Location  int     `yaml:"location"`
	Residues  string  `yaml:"residues"`
	MassDelta float64 `yaml:"monoisotopic_mass_delta"`
	Name      string  `yaml:"name"`
}

type evidenceSpec struct {
	ID           int    `yaml:"id"`
	PeptideID    int    `yaml:"peptide_id"`
	DBSequenceID int    `yaml:"db_sequence_id"`
	Start        int    `yaml:"start_position"`
	End          int    `yaml:"end_position"`
	Pre          string `yaml:"pre"`
	Post         string `yaml:"post"`
	IsDecoy      bool   `yaml:"is_decoy"`
}

type protocolSpec struct {
	ID                 int            `yaml:"id"`
	AnalysisSoftwareID int            `yaml:"analysis_software_id"`
	SearchType         string         `yaml:"search_type"`
	Enzymes            []enzymeSpec   `yaml:"enzymes"`
	FragmentTolerance  *toleranceSpec `yaml:"fragment_tolerance"`
	ParentTolerance    *toleranceSpec `yaml:"parent_tolerance"`
}

type enzymeSpec struct {
	Name            string `yaml:"name"`
	MissedCleavages int    `yaml:"missed_cleavages"`
	SemiSpecific    bool   `yaml:"semi_specific"`
	SiteRegexp      string `yaml:"site_regexp"`
}

type toleranceSpec struct {
	Plus  float64 `yaml:"plus"`
	Minus float64 `yaml:"minus"`
	Unit  string  `yaml:"unit"`
}

type resultSpec struct {
	ID            int        `yaml:"id"`
	SpectraDataID int        `yaml:"spectra_data_id"`
	SpectrumID    string     `yaml:"spectrum_id"`
	Items         []itemSpec `yaml:"identifications"`
}

type itemSpec struct {
	ID                int     `yaml:"id"`
	CalculatedMZ      float64 `yaml:"calculated_mass_to_charge"`
	ExperimentalMZ    float64 `yaml:"experimental_mass_to_charge"`
	ChargeState       int     `yaml:"charge_state"`
	PeptideID         int     `yaml:"peptide_id"`
	PeptideEvidenceID int     `yaml:"peptide_evidence_id"`
	ScoreName         string  `yaml:"score_name"`
	Score             string  `yaml:"score"`
}

func loadJob(path string) (*job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var j job
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parsing job file %s: %w", path, err)
	}
	return &j, nil
}

// sections is the fixed document protocol: section name mapped to its
// writing step, executed in declaration order.
var sections = []struct {
	name  string
	write func(w *mzidentml.Writer, j *job) error
}{
	{"cvList", writeCVList},
	{"providence", writeProvidence},
	{"sequenceCollection", writeSequenceCollection},
	{"analysisProtocolCollection", writeProtocols},
	{"analysisCollection", writeAnalysisCollection},
	{"dataCollection", writeDataCollection},
}

func writeDocument(w *mzidentml.Writer, j *job) error {
	if err := w.Begin(); err != nil {
		return err
	}
	// Inputs and result lists are emitted inside DataCollection, after
	// the sections that cite them; declare their ids up front.
	for _, s := range j.SpectraData {
		w.Register("SpectraData", s.ID)
	}
	for _, s := range j.SearchDatabases {
		w.Register("SearchDatabase", s.ID)
	}
	w.Register("SpectrumIdentificationList", 1)

	for _, s := range sections {
		if err := s.write(w, j); err != nil {
			return fmt.Errorf("writing %s: %w", s.name, err)
		}
	}
	return w.Close()
}

func writeCVList(w *mzidentml.Writer, j *job) error {
	return w.ControlledVocabularies()
}

func writeProvidence(w *mzidentml.Writer, j *job) error {
	software := make([]mzidentml.AnalysisSoftware, len(j.Software))
	for i, s := range j.Software {
		software[i] = mzidentml.AnalysisSoftware{
			ID: s.ID, Name: s.Name, Version: s.Version, URI: s.URI,
		}
	}
	var owner *mzidentml.Person
	if j.Owner != nil {
		owner = &mzidentml.Person{FirstName: j.Owner.FirstName, LastName: j.Owner.LastName}
	}
	var org *mzidentml.Organization
	if j.Organization != nil {
		org = &mzidentml.Organization{Name: j.Organization.Name}
	}
	return w.Providence(software, owner, org)
}

func writeSequenceCollection(w *mzidentml.Writer, j *job) error {
	seqs := make([]mzidentml.DBSequence, len(j.Proteins))
	for i, p := range j.Proteins {
		seqs[i] = mzidentml.DBSequence{
			ID:               p.ID,
			Accession:        p.Accession,
			Sequence:         p.Sequence,
			SearchDatabaseID: p.SearchDatabaseID,
		}
	}
	peptides := make([]mzidentml.Peptide, len(j.Peptides))
	for i, p := range j.Peptides {
		mods := make([]mzidentml.Modification, len(p.Modifications))
		for k, m := range p.Modifications {
			mods[k] = mzidentml.Modification{
				Location:              m.Location,
				Residues:              m.Residues,
				MonoisotopicMassDelta: m.MassDelta,
			}
			if m.Name != "" {
				mods[k].Params = []cv.Param{{Name: m.Name}}
			}
		}
		peptides[i] = mzidentml.Peptide{ID: p.ID, Sequence: p.Sequence, Modifications: mods}
	}
	evidence := make([]mzidentml.PeptideEvidence, len(j.Evidence))
	for i, e := range j.Evidence {
		evidence[i] = mzidentml.PeptideEvidence{
			ID:           e.ID,
			PeptideID:    e.PeptideID,
			DBSequenceID: e.DBSequenceID,
			Start:        e.Start,
			End:          e.End,
			Pre:          e.Pre,
			Post:         e.Post,
			IsDecoy:      e.IsDecoy,
		}
	}
	return w.SequenceCollection(seqs, peptides, evidence)
}

func writeProtocols(w *mzidentml.Writer, j *job) error {
	if j.Protocol == nil {
		return nil
	}
	p := j.Protocol
	proto := mzidentml.SpectrumIdentificationProtocol{
		SearchType: cv.Param{Name: p.SearchType},
	}
	if p.ID != 0 {
		proto.ID = p.ID
	}
	if p.AnalysisSoftwareID != 0 {
		proto.AnalysisSoftwareID = p.AnalysisSoftwareID
	}
	if p.SearchType == "" {
		proto.SearchType = cv.Param{Name: "ms-ms search"}
	}
	for _, e := range p.Enzymes {
		proto.Enzymes = append(proto.Enzymes, mzidentml.Enzyme{
			Name:            e.Name,
			MissedCleavages: e.MissedCleavages,
			SemiSpecific:    e.SemiSpecific,
			SiteRegexp:      e.SiteRegexp,
		})
	}
	if t := p.FragmentTolerance; t != nil {
		proto.FragmentTolerance = &mzidentml.Tolerance{Plus: t.Plus, Minus: t.Minus, Unit: t.Unit}
	}
	if t := p.ParentTolerance; t != nil {
		proto.ParentTolerance = &mzidentml.Tolerance{Plus: t.Plus, Minus: t.Minus, Unit: t.Unit}
	}
	return w.AnalysisProtocolCollection([]mzidentml.SpectrumIdentificationProtocol{proto}, nil)
}

func writeAnalysisCollection(w *mzidentml.Writer, j *job) error {
	ident := mzidentml.SpectrumIdentification{}
	for _, s := range j.SpectraData {
		ident.SpectraDataIDs = append(ident.SpectraDataIDs, s.ID)
	}
	for _, s := range j.SearchDatabases {
		ident.SearchDatabaseIDs = append(ident.SearchDatabaseIDs, s.ID)
	}
	return w.AnalysisCollection([]mzidentml.SpectrumIdentification{ident})
}

func writeDataCollection(w *mzidentml.Writer, j *job) error {
	var inputs mzidentml.Inputs
	for _, s := range j.SourceFiles {
		inputs.SourceFiles = append(inputs.SourceFiles, mzidentml.SourceFile{
			ID: s.ID, Location: s.Location, FileFormat: cv.Param{Name: s.FileFormat},
		})
	}
	for _, s := range j.SearchDatabases {
		inputs.SearchDatabases = append(inputs.SearchDatabases, mzidentml.SearchDatabase{
			ID: s.ID, Name: s.Name, Location: s.Location, FileFormat: cv.Param{Name: s.FileFormat},
		})
	}
	for _, s := range j.SpectraData {
		inputs.SpectraData = append(inputs.SpectraData, mzidentml.SpectraData{
			ID:               s.ID,
			Location:         s.Location,
			FileFormat:       cv.Param{Name: s.FileFormat},
			SpectrumIDFormat: cv.Param{Name: s.SpectrumIDFormat},
		})
	}

	list := mzidentml.SpectrumIdentificationList{ID: 1}
	for _, r := range j.Results {
		result := mzidentml.SpectrumIdentificationResult{
			ID:            r.ID,
			SpectraDataID: r.SpectraDataID,
			SpectrumID:    r.SpectrumID,
		}
		for _, it := range r.Items {
			item := mzidentml.SpectrumIdentificationItem{
				ID:                it.ID,
				CalculatedMZ:      it.CalculatedMZ,
				ExperimentalMZ:    it.ExperimentalMZ,
				ChargeState:       it.ChargeState,
				PeptideID:         it.PeptideID,
				PeptideEvidenceID: it.PeptideEvidenceID,
				PassThreshold:     true,
			}
			if it.Score != "" {
				name := it.ScoreName
				if name == "" {
					name = "score"
				}
				item.Score = cv.Param{Name: name, Value: it.Score}
			}
			result.Items = append(result.Items, item)
		}
		list.Results = append(list.Results, result)
	}
	return w.DataCollection(inputs, []mzidentml.SpectrumIdentificationList{list})
}
