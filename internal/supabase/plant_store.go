package supabase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/status"
)

const plantsTable = "plants"

// PlantStore stores plants in the Supabase "plants" table.
type PlantStore struct {
	client *Client
}

// NewPlantStore wires a PlantStore to a shared client.
func NewPlantStore(client *Client) *PlantStore {
	return &PlantStore{client: client}
}

// plantPatch lists the columns a Save is allowed to overwrite.
type plantPatch struct {
	Name      string       `json:"name"`
	PlantType string       `json:"plant_type"`
	Image     *string      `json:"image"`
	Age       int          `json:"age"`
	Status    status.Store `json:"status"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func ownedBy(id, userID uuid.UUID) url.Values {
	return url.Values{
		"id":      {eq(id.String())},
		"user_id": {eq(userID.String())},
	}
}

// Create inserts the plant and refreshes it from the returned row.
func (s *PlantStore) Create(ctx context.Context, plant *db.Plant) error {
	var rows []db.Plant
	if err := s.client.Insert(ctx, plantsTable, plant, &rows); err != nil {
		return fmt.Errorf("create plant: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("create plant: %w: no row returned", db.ErrStorage)
	}
	*plant = rows[0]
	return nil
}

// Get returns the plant only when it belongs to userID.
func (s *PlantStore) Get(ctx context.Context, id, userID uuid.UUID) (*db.Plant, error) {
	var rows []db.Plant
	if err := s.client.Select(ctx, plantsTable, ownedBy(id, userID), &rows); err != nil {
		return nil, fmt.Errorf("get plant: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("get plant: %w", db.ErrNotFound)
	}
	return &rows[0], nil
}

// ListByUser returns the user's plants, newest first.
func (s *PlantStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]db.Plant, error) {
	query := url.Values{
		"user_id": {eq(userID.String())},
		"order":   {"created_at.desc"},
	}
	rows := []db.Plant{}
	if err := s.client.Select(ctx, plantsTable, query, &rows); err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	return rows, nil
}

// Save replaces the mutable columns of the plant in one PATCH.
func (s *PlantStore) Save(ctx context.Context, plant *db.Plant) error {
	patch := plantPatch{
		Name:      plant.Name,
		PlantType: plant.PlantType,
		Image:     plant.Image,
		Age:       plant.Age,
		Status:    plant.Status,
		UpdatedAt: plant.UpdatedAt,
	}

	var rows []db.Plant
	if err := s.client.Update(ctx, plantsTable, ownedBy(plant.ID, plant.UserID), patch, &rows); err != nil {
		return fmt.Errorf("save plant: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("save plant: %w", db.ErrNotFound)
	}
	*plant = rows[0]
	return nil
}

// Delete removes the plant and reports how many rows went away.
func (s *PlantStore) Delete(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	var rows []db.Plant
	if err := s.client.Delete(ctx, plantsTable, ownedBy(id, userID), &rows); err != nil {
		return 0, fmt.Errorf("delete plant: %w", err)
	}
	return int64(len(rows)), nil
}
