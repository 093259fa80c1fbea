package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/plantcare/internal/status"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := Open(Options{
		Path:     fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel: logger.Silent,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { Close(gdb) })
	return gdb
}

func newTestPlant(userID uuid.UUID, name string) *Plant {
	now := time.Now().UTC()
	return &Plant{
		ID:          uuid.New(),
		Name:        name,
		PlantType:   "Herb",
		PlantedDate: now,
		UserID:      userID,
		Status:      status.Store{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestPlantStoreCreateGetList(t *testing.T) {
	ctx := context.Background()
	store := NewPlantStore(openTestDB(t))
	owner := uuid.New()

	basil := newTestPlant(owner, "Basil")
	basil.CreatedAt = basil.CreatedAt.Add(-time.Hour)
	if err := store.Create(ctx, basil); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	mint := newTestPlant(owner, "Mint")
	if err := store.Create(ctx, mint); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := store.Create(ctx, newTestPlant(uuid.New(), "Someone else's")); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	got, err := store.Get(ctx, basil.ID, owner)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Name != "Basil" || got.PlantType != "Herb" {
		t.Fatalf("unexpected plant: %+v", got)
	}

	plants, err := store.ListByUser(ctx, owner)
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(plants) != 2 {
		t.Fatalf("expected 2 plants, got %d", len(plants))
	}
	if plants[0].Name != "Mint" {
		t.Fatalf("expected newest first, got %s", plants[0].Name)
	}
}

func TestPlantStoreGetForeignOwner(t *testing.T) {
	ctx := context.Background()
	store := NewPlantStore(openTestDB(t))

	plant := newTestPlant(uuid.New(), "Tomato")
	if err := store.Create(ctx, plant); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	_, err := store.Get(ctx, plant.ID, uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlantStoreSavePersistsStatus(t *testing.T) {
	ctx := context.Background()
	store := NewPlantStore(openTestDB(t))
	owner := uuid.New()

	plant := newTestPlant(owner, "Chili")
	if err := store.Create(ctx, plant); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	next, err := plant.Status.Apply("2025-07-15", "watered", true)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	plant.Status = next
	plant.Name = "Chili Pepper"
	if err := store.Save(ctx, plant); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	reloaded, err := store.Get(ctx, plant.ID, owner)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	day, ok := reloaded.Status.Day("2025-07-15")
	if !ok || !day.Watered || day.Fertilized || day.Harvested {
		t.Fatalf("unexpected status after reload: %+v", reloaded.Status)
	}
	if reloaded.Name != "Chili Pepper" {
		t.Fatalf("expected name to update, got %s", reloaded.Name)
	}
}

func TestPlantStoreSaveMissing(t *testing.T) {
	store := NewPlantStore(openTestDB(t))

	err := store.Save(context.Background(), newTestPlant(uuid.New(), "Ghost"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlantStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewPlantStore(openTestDB(t))
	owner := uuid.New()

	plant := newTestPlant(owner, "Lettuce")
	if err := store.Create(ctx, plant); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if n, err := store.Delete(ctx, plant.ID, uuid.New()); err != nil || n != 0 {
		t.Fatalf("expected foreign delete to affect 0 rows, got %d (%v)", n, err)
	}
	if n, err := store.Delete(ctx, plant.ID, owner); err != nil || n != 1 {
		t.Fatalf("expected delete to affect 1 row, got %d (%v)", n, err)
	}
	if _, err := store.Get(ctx, plant.ID, owner); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPlantAgeOn(t *testing.T) {
	planted := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	p := Plant{PlantedDate: planted}

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{name: "same day", now: planted.Add(3 * time.Hour), want: 0},
		{name: "two weeks", now: planted.AddDate(0, 0, 14), want: 14},
		{name: "clock skew", now: planted.Add(-time.Hour), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.AgeOn(tt.now); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestUserStoreDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(openTestDB(t))

	user := &User{ID: uuid.New(), Name: "Ayu", Email: "ayu@example.com", Password: "hash"}
	if err := store.Create(ctx, user); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	dup := &User{ID: uuid.New(), Name: "Ayu 2", Email: "ayu@example.com", Password: "hash"}
	if err := store.Create(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	found, err := store.FindByEmail(ctx, " ayu@example.com ")
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	if found.ID != user.ID {
		t.Fatalf("expected %s, got %s", user.ID, found.ID)
	}

	if _, err := store.FindByID(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected 1 user, got %d (%v)", count, err)
	}
}
