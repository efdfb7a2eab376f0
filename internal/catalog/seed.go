// Package catalog provides the disease and symptom catalogs consumed by the
// diagnosis service: an in-memory catalog loaded from a YAML seed file, a
// PostgreSQL catalog, and caching / circuit-breaking decorators.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// Seed is the on-disk catalog format used for the in-memory backend and
// for importing into PostgreSQL. Disease order in the file is catalog order.
type Seed struct {
	Version  string           `yaml:"version"`
	Symptoms []domain.Symptom `yaml:"symptoms"`
	Diseases []domain.Disease `yaml:"diseases"`
}

// LoadSeedFile reads and validates a YAML seed file.
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()

	seed, err := ParseSeed(f)
	if err != nil {
		return nil, fmt.Errorf("loading seed file %s: %w", path, err)
	}
	return seed, nil
}

// ParseSeed decodes and validates a YAML seed document.
func ParseSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &seed, nil
		}
		return nil, fmt.Errorf("decoding seed: %w", err)
	}

	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

// Validate checks every record and rejects duplicate identifiers. Disease
// symptom references to unknown symptoms are allowed; they simply never
// match.
func (s *Seed) Validate() error {
	var errs []error

	symptomIDs := make(map[domain.SymptomID]struct{}, len(s.Symptoms))
	for i := range s.Symptoms {
		sym := &s.Symptoms[i]
		if err := sym.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%w: symptom #%d: %w", domain.ErrInvalidCatalogRecord, i, err))
			continue
		}
		if _, dup := symptomIDs[sym.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: symptom %q", domain.ErrDuplicateCatalogEntry, sym.ID))
			continue
		}
		symptomIDs[sym.ID] = struct{}{}
	}

	diseaseIDs := make(map[domain.DiseaseID]struct{}, len(s.Diseases))
	for i := range s.Diseases {
		d := &s.Diseases[i]
		if err := d.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%w: disease #%d: %w", domain.ErrInvalidCatalogRecord, i, err))
			continue
		}
		if _, dup := diseaseIDs[d.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: disease %q", domain.ErrDuplicateCatalogEntry, d.ID))
			continue
		}
		diseaseIDs[d.ID] = struct{}{}
	}

	return errors.Join(errs...)
}

// UnresolvedReferences lists disease symptom references that name no symptom
// in the seed, keyed by disease.
func (s *Seed) UnresolvedReferences() map[domain.DiseaseID][]domain.SymptomID {
	known := make(map[domain.SymptomID]struct{}, len(s.Symptoms))
	for i := range s.Symptoms {
		known[s.Symptoms[i].ID] = struct{}{}
	}

	out := make(map[domain.DiseaseID][]domain.SymptomID)
	for i := range s.Diseases {
		d := &s.Diseases[i]
		for _, group := range [][]domain.SymptomID{d.PrimarySymptoms, d.EarlySymptoms, d.LateSymptoms} {
			for _, id := range group {
				if _, ok := known[id]; !ok {
					out[d.ID] = append(out[d.ID], id)
				}
			}
		}
	}
	return out
}
