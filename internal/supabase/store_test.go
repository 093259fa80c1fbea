package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/status"
	"github.com/plantcare/internal/supabase/supabasetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *supabasetest.Server) {
	t.Helper()
	srv := supabasetest.New("service-key")
	t.Cleanup(srv.Close)

	client, err := New(Config{ProjectURL: srv.URL + "/", APIKey: "service-key"})
	require.NoError(t, err)
	return client, srv
}

func newPlant(userID uuid.UUID, name string, created time.Time) *db.Plant {
	return &db.Plant{
		ID:          uuid.New(),
		Name:        name,
		PlantType:   "Vegetable",
		PlantedDate: created,
		UserID:      userID,
		Status:      status.Store{},
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{APIKey: "k"})
	assert.Error(t, err)

	_, err = New(Config{ProjectURL: "https://example.supabase.co"})
	assert.Error(t, err)

	c, err := New(Config{ProjectURL: "https://example.supabase.co/rest/v1", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.supabase.co/rest/v1", c.prefix)
}

func TestPlantStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	client, srv := newTestClient(t)
	store := NewPlantStore(client)
	owner := uuid.New()
	base := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	older := newPlant(owner, "Spinach", base)
	newer := newPlant(owner, "Kale", base.Add(time.Hour))
	require.NoError(t, store.Create(ctx, older))
	require.NoError(t, store.Create(ctx, newer))
	require.NoError(t, store.Create(ctx, newPlant(uuid.New(), "Foreign", base)))

	plants, err := store.ListByUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, plants, 2)
	assert.Equal(t, "Kale", plants[0].Name)

	got, err := store.Get(ctx, older.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "Spinach", got.Name)

	_, err = store.Get(ctx, older.ID, uuid.New())
	assert.ErrorIs(t, err, db.ErrNotFound)

	got.Status, err = got.Status.Apply("2025-07-15", "harvested", true)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, got))

	reloaded, err := store.Get(ctx, older.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, status.Store{"2025-07-15": {Harvested: true}}, reloaded.Status)

	rows := srv.Rows("plants")
	require.Len(t, rows, 3)

	n, err := store.Delete(ctx, older.ID, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.Delete(ctx, older.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPlantStoreSaveMissing(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewPlantStore(client)

	err := store.Save(context.Background(), newPlant(uuid.New(), "Ghost", time.Now()))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestPlantStoreToleratesLegacyStatus(t *testing.T) {
	client, srv := newTestClient(t)
	store := NewPlantStore(client)
	owner := uuid.New()
	id := uuid.New()

	srv.Seed("plants", map[string]any{
		"id":           id.String(),
		"name":         "Legacy",
		"plant_type":   "Herb",
		"planted_date": "2025-07-01T00:00:00Z",
		"age":          0,
		"user_id":      owner.String(),
		"status": map[string]any{
			"2025-07-15": map[string]any{"watered": true, "pruned": true},
			"2025-07-16": "garbage",
		},
		"created_at": "2025-07-01T00:00:00Z",
		"updated_at": "2025-07-01T00:00:00Z",
	})

	got, err := store.Get(context.Background(), id, owner)
	require.NoError(t, err)
	assert.Equal(t, status.Store{"2025-07-15": {Watered: true}}, got.Status)
}

func TestUserStoreDuplicateAndLookup(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	store := NewUserStore(client)

	city := "Bandung"
	user := &db.User{ID: uuid.New(), Name: "Sari", Email: "sari@example.com", Password: "hash", City: &city}
	require.NoError(t, store.Create(ctx, user))
	assert.False(t, user.CreatedAt.IsZero())

	err := store.Create(ctx, &db.User{ID: uuid.New(), Name: "Sari", Email: "sari@example.com", Password: "x"})
	assert.ErrorIs(t, err, db.ErrDuplicate)

	found, err := store.FindByEmail(ctx, "sari@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", found.Password)
	require.NotNil(t, found.City)
	assert.Equal(t, "Bandung", *found.City)

	_, err = store.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestClientMapsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code":"XX000","message":"boom","hint":"check logs"}`))
	}))
	defer srv.Close()

	client, err := New(Config{ProjectURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = NewPlantStore(client).ListByUser(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrStorage)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "XX000", apiErr.Code)
	assert.Equal(t, "boom (check logs)", apiErr.Message)
}

func TestClientHonoursContext(t *testing.T) {
	client, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPlantStore(client).ListByUser(ctx, uuid.New())
	assert.ErrorIs(t, err, db.ErrStorage)
	assert.ErrorIs(t, err, context.Canceled)
}
