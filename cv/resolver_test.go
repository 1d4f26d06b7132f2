package cv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resolverTestMS = `[Term]
id: MS:1001251
name: Trypsin
relationship: has_regexp MS:1001180 ! cleavage pattern

[Term]
id: MS:1001180
name: (?<=[KR])(?!P)

[Term]
id: MS:1000584
name: mzML format
`

const resolverTestUO = `[Term]
id: UO:0000169
name: parts per million

[Term]
id: UO:0000221
name: dalton

[Term]
id: UO:0001000
name: mzML format
`

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	ms, err := FromOBO("PSI-MS", strings.NewReader(resolverTestMS))
	require.NoError(t, err)
	uo, err := FromOBO("UO", strings.NewReader(resolverTestUO))
	require.NoError(t, err)
	return NewResolver([]*Source{
		NewStaticSource("PSI-MS", PSIMSURI, "2.25.0", ms),
		NewStaticSource("UNIT-ONTOLOGY", UnitURI, "", uo),
	}, nil)
}

func TestParamQualifies(t *testing.T) {
	r := testResolver(t)

	p := r.Param(Param{Name: "trypsin"})
	assert.Equal(t, "Trypsin", p.Name, "canonical name replaces input")
	assert.Equal(t, "MS:1001251", p.Accession)
	assert.Equal(t, "PSI-MS", p.CVRef)
	assert.True(t, p.Qualified())
}

func TestParamIdempotent(t *testing.T) {
	r := testResolver(t)

	in := Param{Name: "custom score", Accession: "XX:17", CVRef: "XX", Value: "0.5"}
	assert.Equal(t, in, r.Param(in), "qualified input returned unchanged")
}

func TestParamExplicitAccession(t *testing.T) {
	r := testResolver(t)

	// Explicit accession skips the search; cvRef derives from the tag.
	p := r.Param(Param{Name: "search tolerance plus value", Accession: "MS:1001412"})
	assert.Equal(t, "MS:1001412", p.Accession)
	assert.Equal(t, "MS", p.CVRef)
	assert.Equal(t, "search tolerance plus value", p.Name)
}

func TestParamFallbackToUserParam(t *testing.T) {
	r := testResolver(t)

	// An unrecognized name never errors; it stays a free-text param.
	p := r.Param(Param{Name: "my in-house score", Value: "42"})
	assert.False(t, p.Qualified())
	assert.Equal(t, "my in-house score", p.Name)
	assert.Equal(t, "42", p.Value)
}

func TestParamFirstMatchWins(t *testing.T) {
	r := testResolver(t)

	// "mzML format" exists in both vocabularies; declaration order
	// decides.
	p := r.Param(Param{Name: "mzML format"})
	assert.Equal(t, "MS:1000584", p.Accession)
	assert.Equal(t, "PSI-MS", p.CVRef)
}

func TestParamSkipsBrokenSource(t *testing.T) {
	uo, err := FromOBO("UO", strings.NewReader(resolverTestUO))
	require.NoError(t, err)
	broken := NewSource("PSI-MS", "PSI-MS", "http://127.0.0.1:0/nope.obo", "", NewCache(t.TempDir()))
	r := NewResolver([]*Source{broken, NewStaticSource("UNIT-ONTOLOGY", UnitURI, "", uo)}, nil)

	// A source that fails to load is skipped, not fatal.
	p := r.Param(Param{Name: "dalton"})
	assert.Equal(t, "UO:0000221", p.Accession)
	assert.Equal(t, "UO", p.CVRef)
}

func TestTerm(t *testing.T) {
	r := testResolver(t)

	term, tag, err := r.Term("Trypsin")
	require.NoError(t, err)
	assert.Equal(t, "MS:1001251", term.ID)
	assert.Equal(t, "PSI-MS", tag)

	// Structural lookups do not fall back: a miss is an error listing
	// the attempted keys.
	_, _, err = r.Term("No Such Enzyme")
	var notFound *TermNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "No Such Enzyme", notFound.Key)
	assert.Equal(t, "no such enzyme", notFound.Normalized)
}

func TestAccession(t *testing.T) {
	assert.Equal(t, "UO:169", Accession("UO", 169))
}
