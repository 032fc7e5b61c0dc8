// Package geo holds the geometry and feature model shared by the layer engine.
//
// Features and feature collections are paulmach/orb geojson values. This package
// adds the GeoJSON Point used by user objects and a typed view over the open
// property bags that static layers carry.
package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Point is a GeoJSON Point geometry. Coordinates are [longitude, latitude].
type Point struct {
	Type        string     `json:"type" enum:"Point" doc:"Geometry type" example:"Point"`
	Coordinates [2]float64 `json:"coordinates" doc:"[longitude, latitude]" example:"[37.6,55.75]"`
}

// NewPoint builds a Point from longitude and latitude, in that order.
func NewPoint(lon, lat float64) Point {
	return Point{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

// Lon returns the longitude.
func (p Point) Lon() float64 { return p.Coordinates[0] }

// Lat returns the latitude.
func (p Point) Lat() float64 { return p.Coordinates[1] }

// LatLng returns the position in map-pixel order (latitude first).
func (p Point) LatLng() LatLng {
	return LatLng{Lat: p.Coordinates[1], Lng: p.Coordinates[0]}
}

// Orb converts the point into an orb.Point.
func (p Point) Orb() orb.Point {
	return orb.Point{p.Coordinates[0], p.Coordinates[1]}
}

// LatLng is a position as the map client consumes it.
type LatLng struct {
	Lat float64 `json:"lat" doc:"Latitude" example:"55.751244"`
	Lng float64 `json:"lng" doc:"Longitude" example:"37.618423"`
}

// GeometryType returns the GeoJSON type of the feature geometry, or "" when
// the feature or its geometry is missing.
func GeometryType(f *geojson.Feature) string {
	if f == nil || f.Geometry == nil {
		return ""
	}
	return f.Geometry.GeoJSONType()
}

// IsPolygonal reports whether t is Polygon or MultiPolygon.
func IsPolygonal(t string) bool {
	return t == geojson.TypePolygon || t == geojson.TypeMultiPolygon
}

// IsLinear reports whether t is LineString or MultiLineString.
func IsLinear(t string) bool {
	return t == geojson.TypeLineString || t == geojson.TypeMultiLineString
}

// IsPuntal reports whether t is Point or MultiPoint.
func IsPuntal(t string) bool {
	return t == geojson.TypePoint || t == geojson.TypeMultiPoint
}
