package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// BreakerSettings builds gobreaker settings from configuration. Zero values
// fall back to conservative defaults.
func BreakerSettings(name string, cfg domain.BreakerConfig, logger *logrus.Logger) gobreaker.Settings {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	maxRequests := cfg.MaxRequests
	if maxRequests == 0 {
		maxRequests = 3
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = 30 * time.Second
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 3
	}
	failureRatio := cfg.FailureRatio
	if failureRatio == 0 {
		failureRatio = 0.6
	}

	return gobreaker.Settings{
		Name:        name,
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && ratio >= failureRatio
		},
		IsSuccessful: func(err error) bool {
			// Cancelled requests say nothing about catalog health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Catalog circuit breaker changed state")
		},
	}
}

// BreakerDiseases fails fast with domain.ErrCatalogUnavailable while the
// wrapped disease catalog is unhealthy.
type BreakerDiseases struct {
	next domain.DiseaseCatalog
	cb   *gobreaker.CircuitBreaker
}

// BreakerSymptoms is the symptom catalog counterpart of BreakerDiseases.
type BreakerSymptoms struct {
	next domain.SymptomCatalog
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerDiseases wraps next with a circuit breaker.
func NewBreakerDiseases(next domain.DiseaseCatalog, settings gobreaker.Settings) *BreakerDiseases {
	return &BreakerDiseases{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// NewBreakerSymptoms wraps next with a circuit breaker.
func NewBreakerSymptoms(next domain.SymptomCatalog, settings gobreaker.Settings) *BreakerSymptoms {
	return &BreakerSymptoms{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// WithBreakers wraps both catalogs of set.
func WithBreakers(set Set, cfg domain.BreakerConfig, logger *logrus.Logger) Set {
	return Set{
		Diseases: NewBreakerDiseases(set.Diseases, BreakerSettings("disease-catalog", cfg, logger)),
		Symptoms: NewBreakerSymptoms(set.Symptoms, BreakerSettings("symptom-catalog", cfg, logger)),
	}
}

func (b *BreakerDiseases) FindAll(ctx context.Context) ([]domain.Disease, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.FindAll(ctx)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return result.([]domain.Disease), nil
}

func (b *BreakerDiseases) FindByIDs(ctx context.Context, ids []domain.DiseaseID) ([]domain.Disease, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.FindByIDs(ctx, ids)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return result.([]domain.Disease), nil
}

// State reports the breaker state, for health checks.
func (b *BreakerDiseases) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerSymptoms) FindByIDs(ctx context.Context, ids []domain.SymptomID) ([]domain.Symptom, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.FindByIDs(ctx, ids)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return result.([]domain.Symptom), nil
}

// State reports the breaker state, for health checks.
func (b *BreakerSymptoms) State() gobreaker.State {
	return b.cb.State()
}

func breakerError(err error) error {
	if errors.Is(err, domain.ErrCatalogUnavailable) {
		return err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: circuit breaker: %w", domain.ErrCatalogUnavailable, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
}
