package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsVisible(t *testing.T) {
	th := Thresholds{
		MetroStation: {MinZoom: Zoom(12)},
		Districts:    {MinZoom: Zoom(7), MaxZoom: Zoom(13)},
		BusTramStops: {MaxZoom: Zoom(13)},
	}

	tests := []struct {
		name    string
		id      ID
		toggled bool
		zoom    float64
		want    bool
	}{
		{"toggle off dominates", MetroStation, false, 15, false},
		{"toggle off no entry", StreetsPedestrian, false, 15, false},
		{"no entry always visible", StreetsPedestrian, true, 0, true},
		{"no entry high zoom", StreetsPedestrian, true, 22, true},
		{"min bound inclusive", MetroStation, true, 12, true},
		{"below min", MetroStation, true, 11, false},
		{"fractional below min", MetroStation, true, 11.99, false},
		{"max bound inclusive", BusTramStops, true, 13, true},
		{"above max", BusTramStops, true, 14, false},
		{"inside range", Districts, true, 10, true},
		{"range low edge", Districts, true, 7, true},
		{"range high edge", Districts, true, 13, true},
		{"range above", Districts, true, 13.5, false},
		{"range below", Districts, true, 6, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsVisible(tt.id, tt.toggled, tt.zoom, th))
		})
	}
}

func TestIsVisibleDeterministic(t *testing.T) {
	th := DefaultThresholds()
	for _, id := range All {
		for z := 0.0; z <= 20; z++ {
			assert.False(t, IsVisible(id, false, z, th))
			assert.Equal(t, IsVisible(id, true, z, th), IsVisible(id, true, z, th))
			assert.True(t, IsVisible(id, true, z, nil))
		}
	}
}

func TestParse(t *testing.T) {
	id, err := Parse("metro_station")
	require.NoError(t, err)
	assert.Equal(t, MetroStation, id)

	_, err = Parse("tram_depots")
	assert.Error(t, err)
}

func TestPanelLabel(t *testing.T) {
	th := DefaultThresholds()
	assert.Equal(t, "metro station (z>11)", PanelLabel(MetroStation, th[MetroStation]))
	assert.Equal(t, "districts layer (z>6) (z<14)", PanelLabel(Districts, th[Districts]))
	assert.Equal(t, "StreetsPedestrian (z>14)", PanelLabel(StreetsPedestrian, th[StreetsPedestrian]))
	assert.Equal(t, "bus tram stops", PanelLabel(BusTramStops, Threshold{}))
	assert.Equal(t, "bus tram stops", PanelLabel(BusTramStops, Threshold{MinZoom: Zoom(0)}))
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.NoError(t, c.Validate())
	assert.Equal(t, All, c.IDs())
	assert.Equal(t, "metro_station.geojson", c.Files()[MetroStation])
	assert.Equal(t, DefaultThresholds(), c.Thresholds())
}

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(`
layers:
  - id: metro_station
    file: metro.geojson
    minZoom: 10
  - id: districts_layer
    unbounded: true
  - id: bus_tram_stops
    file: stops-2024.geojson
`))
	require.NoError(t, err)

	files := c.Files()
	assert.Equal(t, "metro.geojson", files[MetroStation])
	assert.Equal(t, "stops-2024.geojson", files[BusTramStops])
	assert.Equal(t, "districts_layer.geojson", files[Districts])

	th := c.Thresholds()
	require.NotNil(t, th[MetroStation].MinZoom)
	assert.Equal(t, 10.0, *th[MetroStation].MinZoom)
	_, ok := th[Districts]
	assert.False(t, ok, "unbounded layer keeps no threshold entry")
	require.NotNil(t, th[BusTramStops].MinZoom)
	assert.Equal(t, 14.0, *th[BusTramStops].MinZoom)
}

func TestParseCatalogRejects(t *testing.T) {
	_, err := ParseCatalog([]byte("layers:\n  - id: ferries\n"))
	assert.ErrorContains(t, err, "unknown layer")

	_, err = ParseCatalog([]byte("layers:\n  - id: mck_station\n  - id: mck_station\n"))
	assert.ErrorContains(t, err, "twice")

	_, err = ParseCatalog([]byte("layers:\n  - id: mck_station\n    minZoom: 15\n    maxZoom: 12\n"))
	assert.ErrorContains(t, err, "minZoom above maxZoom")

	_, err = ParseCatalog([]byte("layers: [unclosed"))
	assert.ErrorContains(t, err, "parsing catalog")
}
