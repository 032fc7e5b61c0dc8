package objects

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-metro/internal/logging"
)

func TestCreatePayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload CreatePayload
		wantErr string
	}{
		{"valid", CreatePayload{Name: "Кафе", Latitude: 55.75, Longitude: 37.6}, ""},
		{"blank name", CreatePayload{Name: "   ", Latitude: 55.75, Longitude: 37.6}, "name is required"},
		{"latitude range", CreatePayload{Name: "x", Latitude: 91, Longitude: 0}, "latitude"},
		{"longitude range", CreatePayload{Name: "x", Latitude: 0, Longitude: -181}, "longitude"},
		{"edges", CreatePayload{Name: "x", Latitude: -90, Longitude: 180}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalized(t *testing.T) {
	p := CreatePayload{Name: "  Кафе ", Description: Text("  "), ObjectType: Text(" Кафе ")}.Normalized()
	assert.Equal(t, "Кафе", p.Name)
	assert.Nil(t, p.Description)
	require.NotNil(t, p.ObjectType)
	assert.Equal(t, "Кафе", *p.ObjectType)
}

func TestServiceCreateAndList(t *testing.T) {
	svc := NewService(NewMemoryRepository(), logging.Discard())
	ctx := context.Background()

	first, err := svc.Create(ctx, CreatePayload{Name: "Кафе", Latitude: 55.75, Longitude: 37.6})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, [2]float64{37.6, 55.75}, first.Geom.Coordinates, "geometry is [lon, lat]")
	assert.False(t, first.CreatedAt.IsZero())

	second, err := svc.Create(ctx, CreatePayload{Name: "Памятник", Latitude: 55.7, Longitude: 37.5})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Кафе", list[0].Name)
	assert.Equal(t, "Памятник", list[1].Name)

	got, err := svc.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	_, err = svc.Get(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceRejectsInvalid(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, logging.Discard())

	_, err := svc.Create(context.Background(), CreatePayload{Name: " ", Latitude: 1, Longitude: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, _ := repo.List(context.Background())
	assert.Empty(t, list)
}

func TestUserObjectJSONKeepsNullFields(t *testing.T) {
	repo := NewMemoryRepository()
	obj, err := repo.Create(context.Background(), CreatePayload{Name: "Кафе", Latitude: 55.75, Longitude: 37.6})
	require.NoError(t, err)

	raw, err := json.Marshal(obj)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	for _, key := range []string{"description", "object_type"} {
		v, ok := m[key]
		assert.True(t, ok, key)
		assert.Nil(t, v, key)
	}
}
