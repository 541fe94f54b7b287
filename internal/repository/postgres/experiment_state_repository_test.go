//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"

	"canaryAnalytics/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Runs against a real database: POSTGRES_TEST_DSN=... go test -tags integration ./...
func TestExperimentStateRepository_RoundTrip(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ctx := context.Background()
	repo := NewExperimentStateRepository(db)
	require.NoError(t, repo.Migrate(ctx))

	name := "state-roundtrip-" + t.Name()
	t.Cleanup(func() { _ = repo.DeleteState(ctx, name) })

	got, err := repo.GetState(ctx, name)
	require.NoError(t, err)
	assert.Nil(t, got)

	state := &domain.LastState{
		AggregatedCounterMetrics: map[string]map[string]domain.CounterDataPoint{
			"v1": {"request_count": {Value: 42}},
		},
		TrafficSplitRecommendation: map[string]map[string]int{
			domain.StrategyProgressive: {"v1": 98, "v2": 2},
		},
	}
	require.NoError(t, repo.SaveState(ctx, name, state))

	state.AggregatedCounterMetrics["v1"]["request_count"] = domain.CounterDataPoint{Value: 43}
	require.NoError(t, repo.SaveState(ctx, name, state))

	got, err = repo.GetState(ctx, name)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 43.0, got.AggregatedCounterMetrics["v1"]["request_count"].Value)
	assert.Equal(t, 2, got.TrafficSplitRecommendation[domain.StrategyProgressive]["v2"])

	require.NoError(t, repo.DeleteState(ctx, name))
	got, err = repo.GetState(ctx, name)
	require.NoError(t, err)
	assert.Nil(t, got)
}
