package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

func testBreakerLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func TestBreakerDiseases_PassThrough(t *testing.T) {
	diseases, _, err := NewMemory(testSeed())
	require.NoError(t, err)

	breaker := NewBreakerDiseases(diseases, BreakerSettings("test", domain.BreakerConfig{}, testBreakerLogger()))

	all, err := breaker.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := breaker.FindByIDs(context.Background(), []domain.DiseaseID{"measles"})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, gobreaker.StateClosed, breaker.State())
}

func TestBreakerDiseases_OpensAfterFailures(t *testing.T) {
	inner := &countingDiseases{err: errors.New("connection reset")}
	cfg := domain.BreakerConfig{MinRequests: 2, FailureRatio: 0.5, Timeout: time.Minute}
	breaker := NewBreakerDiseases(inner, BreakerSettings("test", cfg, testBreakerLogger()))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := breaker.FindAll(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen, breaker.State())

	_, err := breaker.FindAll(ctx)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.calls, "open breaker must not reach the catalog")
}

func TestBreakerSymptoms(t *testing.T) {
	_, symptoms, err := NewMemory(testSeed())
	require.NoError(t, err)

	set := WithBreakers(Set{Symptoms: symptoms}, domain.BreakerConfig{}, testBreakerLogger())
	found, err := set.Symptoms.FindByIDs(context.Background(), []domain.SymptomID{"cough"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	failing := NewBreakerSymptoms(&countingSymptoms{err: errors.New("timeout")},
		BreakerSettings("symptoms", domain.BreakerConfig{}, testBreakerLogger()))
	_, err = failing.FindByIDs(context.Background(), []domain.SymptomID{"cough"})
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.Equal(t, gobreaker.StateClosed, failing.State())
}

func TestBreakerSettings_CancelledRequestsDoNotTrip(t *testing.T) {
	inner := &countingDiseases{err: context.Canceled}
	cfg := domain.BreakerConfig{MinRequests: 1, FailureRatio: 0.1}
	breaker := NewBreakerDiseases(inner, BreakerSettings("test", cfg, testBreakerLogger()))

	for i := 0; i < 3; i++ {
		_, err := breaker.FindAll(context.Background())
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, breaker.State())
}

func TestWithBreakers_NilLogger(t *testing.T) {
	inner := &countingDiseases{err: errors.New("connection reset")}
	cfg := domain.BreakerConfig{MinRequests: 1, FailureRatio: 0.5, Timeout: time.Minute}
	set := WithBreakers(Set{Diseases: inner}, cfg, nil)

	assert.NotPanics(t, func() {
		_, err := set.Diseases.FindAll(context.Background())
		assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	})
	assert.Equal(t, gobreaker.StateOpen, set.Diseases.(*BreakerDiseases).State())
}
