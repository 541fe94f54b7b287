package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"canaryAnalytics/domain"

	"github.com/redis/go-redis/v9"
)

type ExperimentStateRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewExperimentStateRepository stores states with the given TTL; zero keeps them forever.
func NewExperimentStateRepository(client *redis.Client, ttl time.Duration) *ExperimentStateRepository {
	return &ExperimentStateRepository{
		client: client,
		ttl:    ttl,
	}
}

func stateKey(name string) string {
	// key format: "experiment_state:{name}"
	return fmt.Sprintf("experiment_state:%s", name)
}

func (r *ExperimentStateRepository) GetState(ctx context.Context, name string) (*domain.LastState, error) {
	val, err := r.client.Get(ctx, stateKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get experiment state from Redis: %w", err)
	}

	var state domain.LastState
	if err := json.Unmarshal(val, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal experiment state: %w", err)
	}

	return &state, nil
}

func (r *ExperimentStateRepository) SaveState(ctx context.Context, name string, state *domain.LastState) error {
	jsonData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal experiment state: %w", err)
	}

	if err := r.client.Set(ctx, stateKey(name), jsonData, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store experiment state in Redis: %w", err)
	}
	return nil
}

func (r *ExperimentStateRepository) DeleteState(ctx context.Context, name string) error {
	if err := r.client.Del(ctx, stateKey(name)).Err(); err != nil {
		return fmt.Errorf("failed to delete experiment state from Redis: %w", err)
	}
	return nil
}
