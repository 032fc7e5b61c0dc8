package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointOrder(t *testing.T) {
	p := NewPoint(37.6, 55.75)
	assert.Equal(t, "Point", p.Type)
	assert.Equal(t, 37.6, p.Lon())
	assert.Equal(t, 55.75, p.Lat())
	assert.Equal(t, LatLng{Lat: 55.75, Lng: 37.6}, p.LatLng())
	assert.Equal(t, orb.Point{37.6, 55.75}, p.Orb())
}

func TestGeometryType(t *testing.T) {
	assert.Equal(t, "", GeometryType(nil))
	assert.Equal(t, "", GeometryType(&geojson.Feature{}))
	assert.Equal(t, "Point", GeometryType(geojson.NewFeature(orb.Point{1, 2})))
	assert.Equal(t, "LineString", GeometryType(geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}})))
	assert.True(t, IsPolygonal("MultiPolygon"))
	assert.True(t, IsLinear("MultiLineString"))
	assert.True(t, IsPuntal("MultiPoint"))
	assert.False(t, IsPuntal("Polygon"))
}

func TestPropertiesOf(t *testing.T) {
	assert.Nil(t, PropertiesOf(nil))
	assert.Nil(t, PropertiesOf(&geojson.Feature{}))

	f := geojson.NewFeature(orb.Point{0, 0})
	f.Properties["name"] = "Арбатская"
	f.Properties["empty"] = ""
	f.Properties["zero"] = 0.0
	f.Properties["code"] = 42.0
	f.Properties["nested"] = map[string]any{"a": 1}
	f.Properties["nothing"] = nil

	props := PropertiesOf(f)
	require.Len(t, props, 6)

	s, ok := props.Text("name")
	assert.True(t, ok)
	assert.Equal(t, "Арбатская", s)

	s, ok = props.Text("code")
	assert.True(t, ok)
	assert.Equal(t, "42", s)

	for _, key := range []string{"empty", "zero", "nested", "nothing", "missing"} {
		_, ok := props.Text(key)
		assert.False(t, ok, key)
	}

	s, ok = props.First("missing", "empty", "name")
	assert.True(t, ok)
	assert.Equal(t, "Арбатская", s)

	var none Properties
	_, ok = none.First("name")
	assert.False(t, ok)
}

func TestValueKinds(t *testing.T) {
	assert.Equal(t, KindString, ValueOf("x").Kind())
	assert.Equal(t, KindNumber, ValueOf(1.5).Kind())
	assert.Equal(t, KindNumber, ValueOf(3).Kind())
	assert.Equal(t, KindBool, ValueOf(true).Kind())
	assert.Equal(t, KindNull, ValueOf([]any{1}).Kind())
	assert.Equal(t, "true", Bool(true).Text())
	assert.False(t, Bool(false).Truthy())
	assert.Equal(t, "1.5", Number(1.5).Text())
}
