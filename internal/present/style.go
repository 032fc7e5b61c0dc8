// Package present resolves how static layer features are drawn: line and
// fill style, label and popup text, and point marker icons.
package present

import (
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-metro/internal/geo"
	"github.com/joeblew999/plat-metro/internal/layer"
)

// Style describes how a feature path is stroked and filled.
type Style struct {
	Color       string  `json:"color" doc:"Stroke color (CSS)" example:"#3388ff"`
	Weight      float64 `json:"weight" doc:"Stroke width in pixels" example:"2"`
	Opacity     float64 `json:"opacity" doc:"Stroke opacity (0-1)" example:"1"`
	FillOpacity float64 `json:"fillOpacity,omitempty" doc:"Fill opacity (0-1)" example:"0.2"`
	FillColor   string  `json:"fillColor,omitempty" doc:"Fill color (CSS)"`
}

// DefaultStyle applies when nothing more specific matches.
var DefaultStyle = Style{Color: "#3388ff", Weight: 2, Opacity: 1, FillOpacity: 0.2}

var layerStyles = map[layer.ID]Style{
	layer.Districts: {
		Color:       "rgba(0, 100, 255, 0.7)",
		Weight:      1,
		Opacity:     0.8,
		FillOpacity: 0.15,
		FillColor:   "rgba(0, 100, 255, 0.5)",
	},
	layer.StreetsPedestrian: {Color: "#00cc66", Weight: 2.5, Opacity: 0.7},
}

// StyleFor resolves the style of a feature: a layer-specific style first,
// then a geometry-type default, then DefaultStyle. Features without geometry
// always get DefaultStyle.
func StyleFor(id layer.ID, f *geojson.Feature) Style {
	gt := geo.GeometryType(f)
	if gt == "" {
		return DefaultStyle
	}
	if s, ok := layerStyles[id]; ok {
		return s
	}
	s := DefaultStyle
	switch {
	case geo.IsPolygonal(gt):
		s.Color, s.Weight = "#ff7800", 1.5
	case geo.IsLinear(gt):
		s.Color, s.Weight = "#4CAF50", 2.5
	}
	return s
}

// Icon describes a point marker. Default markers carry no color.
type Icon struct {
	Default bool       `json:"default" doc:"Use the map client's stock marker"`
	Color   string     `json:"color,omitempty" doc:"Dot color (CSS)" example:"red"`
	HTML    string     `json:"html,omitempty" doc:"Marker HTML"`
	Size    [2]float64 `json:"size,omitempty" doc:"Icon size in pixels"`
	Anchor  [2]float64 `json:"anchor,omitempty" doc:"Icon anchor in pixels"`
}

var iconColors = map[layer.ID]string{
	layer.BusTramStops: "dodgerblue",
	layer.MetroStation: "red",
	layer.MCKStation:   "orange",
	layer.MCDStation:   "purple",
}

// IconFor returns the marker for points of a layer. Layers outside the icon
// table get the default marker.
func IconFor(id layer.ID) Icon {
	color, ok := iconColors[id]
	if !ok {
		return Icon{Default: true}
	}
	return Icon{
		Color: color,
		HTML: fmt.Sprintf(`<div style="background-color:%s;width:8px;height:8px;border-radius:50%%;`+
			`border:1px solid white;box-shadow: 0 0 3px rgba(0,0,0,0.5);"></div>`, color),
		Size:   [2]float64{10, 10},
		Anchor: [2]float64{5, 5},
	}
}

// IsPointLayer reports whether a collection is drawn as markers. Only the
// first feature is inspected; collections are assumed homogeneous.
func IsPointLayer(fc *geojson.FeatureCollection) bool {
	if fc == nil || len(fc.Features) == 0 {
		return false
	}
	return geo.IsPuntal(geo.GeometryType(fc.Features[0]))
}

// RenderKey identifies a rendered layer. It changes with visibility so the
// client remounts the layer instead of diffing it.
func RenderKey(id layer.ID, visible bool) string {
	return fmt.Sprintf("%s-%t", id, visible)
}
