package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"canaryAnalytics/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExperimentStateRepository struct {
	DB *gorm.DB
}

func NewExperimentStateRepository(db *gorm.DB) *ExperimentStateRepository {
	return &ExperimentStateRepository{DB: db}
}

type experimentStateRow struct {
	Name      string         `gorm:"column:name;primaryKey"`
	StateJSON datatypes.JSON `gorm:"column:state_json;type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (experimentStateRow) TableName() string {
	return "experiment_state"
}

// Migrate creates the experiment_state table when it does not exist.
func (r *ExperimentStateRepository) Migrate(ctx context.Context) error {
	if err := r.DB.WithContext(ctx).AutoMigrate(&experimentStateRow{}); err != nil {
		return fmt.Errorf("failed to migrate experiment_state: %w", err)
	}
	return nil
}

func (r *ExperimentStateRepository) GetState(ctx context.Context, name string) (*domain.LastState, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var row experimentStateRow
	err := r.DB.WithContext(ctx).First(&row, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query experiment_state: %w", err)
	}

	var state domain.LastState
	if err := json.Unmarshal(row.StateJSON, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state_json: %w", err)
	}

	return &state, nil
}

func (r *ExperimentStateRepository) SaveState(ctx context.Context, name string, state *domain.LastState) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	row := experimentStateRow{
		Name:      name,
		StateJSON: datatypes.JSON(raw),
		UpdatedAt: time.Now().UTC(),
	}

	if err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"state_json", "updated_at"}),
		},
	).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to upsert experiment_state: %w", err)
	}

	return nil
}

func (r *ExperimentStateRepository) DeleteState(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Delete(&experimentStateRow{}, "name = ?", name).Error; err != nil {
		return fmt.Errorf("failed to delete experiment_state: %w", err)
	}
	return nil
}
