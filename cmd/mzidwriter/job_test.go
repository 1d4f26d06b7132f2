package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/524D/mzidwriter/cv"
	"github.com/524D/mzidwriter/mzidentml"
)

const testJob = `software:
  - name: My Generic Software
    version: 1.2.0rc
    uri: http://www.github.com
search_databases:
  - id: 1
    name: Uniprot Human Proteins
    location: file:///data/UniprotHumanProteins.fa
    file_format: FASTA format
spectra_data:
  - id: 1
    location: file:///data/human_qtof.mgf
    file_format: Mascot MGF format
    spectrum_id_format: multiple peak list nativeID format
proteins:
  - id: 1
    accession: P02763|A1AG1_HUMAN
    sequence: MALSWVLTVLSLLPLLEAQIPLCANLVPVPITNATLDQITGK
    search_database_id: 1
peptides:
  - id: 1
    peptide_sequence: NEEYNK
peptide_evidence:
  - id: 1
    peptide_id: 1
    db_sequence_id: 1
    start_position: 128
    end_position: 134
protocol:
  id: 1
  search_type: ms-ms search
  enzymes:
    - name: trypsin
      missed_cleavages: 2
  fragment_tolerance:
    plus: 10
identification_results:
  - id: 1
    spectra_data_id: 1
    spectrum_id: index=9122
    identifications:
      - id: 1
        calculated_mass_to_charge: 775.38243
        experimental_mass_to_charge: 775.22735
        charge_state: 2
        peptide_id: 1
        peptide_evidence_id: 1
        score: "0.9"
`

const testJobOBO = `[Term]
id: MS:1001251
name: Trypsin

[Term]
id: MS:1001348
name: FASTA format

[Term]
id: MS:1001083
name: ms-ms search
`

func TestLoadJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testJob), 0o644))

	j, err := loadJob(path)
	require.NoError(t, err)
	require.Len(t, j.Software, 1)
	assert.Equal(t, "My Generic Software", j.Software[0].Name)
	require.Len(t, j.Proteins, 1)
	assert.Equal(t, 1, j.Proteins[0].SearchDatabaseID)
	require.NotNil(t, j.Protocol)
	require.Len(t, j.Protocol.Enzymes, 1)
	assert.Equal(t, 2, j.Protocol.Enzymes[0].MissedCleavages)
	require.Len(t, j.Results, 1)
	require.Len(t, j.Results[0].Items, 1)
	assert.Equal(t, "0.9", j.Results[0].Items[0].Score)
}

func TestWriteDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testJob), 0o644))
	j, err := loadJob(path)
	require.NoError(t, err)

	vocab, err := cv.FromOBO("PSI-MS", strings.NewReader(testJobOBO))
	require.NoError(t, err)

	var out bytes.Buffer
	w := mzidentml.NewWriter(&out,
		mzidentml.WithSources([]*cv.Source{cv.NewStaticSource("PSI-MS", cv.PSIMSURI, "", vocab)}),
		mzidentml.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	require.NoError(t, writeDocument(w, j))

	doc, err := mzidentml.Read(&out)
	require.NoError(t, err)

	// Inputs were pre-registered, so the protein cites the database by
	// its final reference string.
	seqs := doc.DBSequences()
	require.Len(t, seqs, 1)
	assert.Equal(t, "SEARCHDATABASE_1", seqs[0].SearchDatabaseRef)

	require.Equal(t, 1, doc.NumIdents())
	ident, err := doc.Ident(0)
	require.NoError(t, err)
	assert.Equal(t, "NEEYNK", ident.PepSeq)
	assert.Equal(t, "index=9122", ident.SpecID)
}
