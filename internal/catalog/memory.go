package catalog

import (
	"context"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// Set bundles the two catalogs the diagnosis service consumes.
type Set struct {
	Diseases domain.DiseaseCatalog
	Symptoms domain.SymptomCatalog
}

// MemoryDiseases is an immutable in-memory disease catalog.
type MemoryDiseases struct {
	diseases []domain.Disease
	index    map[domain.DiseaseID]int
}

// MemorySymptoms is an immutable in-memory symptom catalog.
type MemorySymptoms struct {
	symptoms []domain.Symptom
	index    map[domain.SymptomID]int
}

// NewMemory builds in-memory catalogs from a validated seed. The seed is
// copied; later changes to it are not observed.
func NewMemory(seed *Seed) (*MemoryDiseases, *MemorySymptoms, error) {
	if err := seed.Validate(); err != nil {
		return nil, nil, err
	}

	diseases := &MemoryDiseases{
		diseases: append([]domain.Disease(nil), seed.Diseases...),
		index:    make(map[domain.DiseaseID]int, len(seed.Diseases)),
	}
	for i := range diseases.diseases {
		diseases.index[diseases.diseases[i].ID] = i
	}

	symptoms := &MemorySymptoms{
		symptoms: append([]domain.Symptom(nil), seed.Symptoms...),
		index:    make(map[domain.SymptomID]int, len(seed.Symptoms)),
	}
	for i := range symptoms.symptoms {
		symptoms.index[symptoms.symptoms[i].ID] = i
	}

	return diseases, symptoms, nil
}

// NewMemorySet is NewMemory packaged as a Set.
func NewMemorySet(seed *Seed) (Set, error) {
	diseases, symptoms, err := NewMemory(seed)
	if err != nil {
		return Set{}, err
	}
	return Set{Diseases: diseases, Symptoms: symptoms}, nil
}

// FindAll returns every disease in catalog order.
func (m *MemoryDiseases) FindAll(ctx context.Context) ([]domain.Disease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Disease, len(m.diseases))
	copy(out, m.diseases)
	return out, nil
}

// FindByIDs returns the known diseases among ids in request order,
// skipping unknown and repeated ids.
func (m *MemoryDiseases) FindByIDs(ctx context.Context, ids []domain.DiseaseID) ([]domain.Disease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Disease, 0, len(ids))
	seen := make(map[domain.DiseaseID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if i, ok := m.index[id]; ok {
			out = append(out, m.diseases[i])
		}
	}
	return out, nil
}

// Len is the number of diseases.
func (m *MemoryDiseases) Len() int {
	return len(m.diseases)
}

// FindByIDs returns the known symptoms among ids in request order,
// skipping unknown and repeated ids.
func (m *MemorySymptoms) FindByIDs(ctx context.Context, ids []domain.SymptomID) ([]domain.Symptom, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Symptom, 0, len(ids))
	seen := make(map[domain.SymptomID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if i, ok := m.index[id]; ok {
			out = append(out, m.symptoms[i])
		}
	}
	return out, nil
}

// Len is the number of symptoms.
func (m *MemorySymptoms) Len() int {
	return len(m.symptoms)
}
