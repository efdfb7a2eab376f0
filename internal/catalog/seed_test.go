package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

const seedFixture = "../../config/catalog.seed.yaml"

func TestLoadSeedFile(t *testing.T) {
	seed, err := LoadSeedFile(seedFixture)
	require.NoError(t, err)

	assert.NotEmpty(t, seed.Version)
	assert.NotEmpty(t, seed.Symptoms)
	assert.NotEmpty(t, seed.Diseases)
	assert.Equal(t, domain.DiseaseID("common_cold"), seed.Diseases[0].ID)
	assert.Empty(t, seed.UnresolvedReferences(), "shipped seed must reference known symptoms only")
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := LoadSeedFile("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestParseSeed(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		expectError error
		symptoms    int
		diseases    int
	}{
		{
			name: "Valid",
			doc: `
version: "1"
symptoms:
  - id: fever
    name: Fever
    severity_level: moderate
diseases:
  - id: flu
    name: Influenza
    severity: moderate
    primary_symptoms: [fever]
`,
			symptoms: 1,
			diseases: 1,
		},
		{
			name: "Empty document",
			doc:  "",
		},
		{
			name: "Duplicate symptom",
			doc: `
symptoms:
  - {id: fever, name: Fever}
  - {id: fever, name: Fever again}
`,
			expectError: domain.ErrDuplicateCatalogEntry,
		},
		{
			name: "Invalid severity",
			doc: `
diseases:
  - {id: flu, name: Influenza, severity: apocalyptic}
`,
			expectError: domain.ErrInvalidCatalogRecord,
		},
		{
			name: "Missing name",
			doc: `
symptoms:
  - {id: fever}
`,
			expectError: domain.ErrInvalidCatalogRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, err := ParseSeed(strings.NewReader(tt.doc))
			if tt.expectError != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectError), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, seed.Symptoms, tt.symptoms)
			assert.Len(t, seed.Diseases, tt.diseases)
		})
	}
}

func TestParseSeed_UnknownField(t *testing.T) {
	_, err := ParseSeed(strings.NewReader("symptoms:\n  - {id: a, name: A, colour: red}\n"))
	assert.Error(t, err)
}

func TestSeed_UnresolvedReferences(t *testing.T) {
	seed := &Seed{
		Symptoms: []domain.Symptom{{ID: "fever", Name: "Fever"}},
		Diseases: []domain.Disease{
			{ID: "flu", Name: "Flu", PrimarySymptoms: []domain.SymptomID{"fever"}, LateSymptoms: []domain.SymptomID{"ghost"}},
			{ID: "cold", Name: "Cold", PrimarySymptoms: []domain.SymptomID{"fever"}},
		},
	}

	unresolved := seed.UnresolvedReferences()
	assert.Equal(t, map[domain.DiseaseID][]domain.SymptomID{"flu": {"ghost"}}, unresolved)
}
