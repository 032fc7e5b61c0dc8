// Package service owns the mutable map view state and composes the drawable
// scene from static layers and live user objects.
package service

import (
	"encoding/json"

	"github.com/joeblew999/plat-metro/internal/geo"
	"github.com/joeblew999/plat-metro/internal/layer"
	"github.com/joeblew999/plat-metro/internal/present"
)

// ObjectsLayerName is the panel title of the user object layer.
const ObjectsLayerName = "Мои объекты"

// Scene is everything the map needs to draw one frame.
// Single source of truth: Huma reads the tags for the OpenAPI schema and the
// SSE stream sends the same JSON as Datastar signals.
type Scene struct {
	Zoom      float64      `json:"zoom" doc:"Current map zoom" example:"10"`
	Center    geo.LatLng   `json:"center" doc:"Map center"`
	Loading   bool         `json:"loading" doc:"True until every static layer fetch has resolved"`
	Layers    []LayerView  `json:"layers" doc:"Static layers in drawing order"`
	Objects   *ObjectsView `json:"objects,omitempty" doc:"User object markers, present only when toggled on"`
	Placement Placement    `json:"placement" doc:"Add-object flow state"`
}

// LayerView is one static layer. Features are filled only when Visible.
type LayerView struct {
	ID        layer.ID       `json:"id" doc:"Layer identifier" example:"metro_station"`
	Key       string         `json:"key" doc:"Render key; changes whenever visibility flips" example:"metro_station-true"`
	Label     string         `json:"label" doc:"Panel label with zoom hints" example:"metro station (z>11)"`
	Available bool           `json:"available" doc:"False when the layer failed to load"`
	Active    bool           `json:"active" doc:"User toggle"`
	Visible   bool           `json:"visible" doc:"Toggle and zoom threshold both allow drawing"`
	Point     bool           `json:"point" doc:"First feature is a point; features are drawn as icons"`
	Icon      *present.Icon  `json:"icon,omitempty" doc:"Marker icon for point layers"`
	Features  []DrawnFeature `json:"features,omitempty"`
}

// DrawnFeature is one resolved feature.
type DrawnFeature struct {
	Geometry json.RawMessage `json:"geometry" doc:"GeoJSON geometry, [lon, lat] order"`
	Style    present.Style   `json:"style"`
	Label    string          `json:"label" example:"Станция: Охотный Ряд"`
	Popup    string          `json:"popup" doc:"Popup HTML"`
}

// ObjectsView is the clustered user object layer.
type ObjectsView struct {
	Name    string   `json:"name" example:"Мои объекты"`
	Cluster bool     `json:"cluster" doc:"Markers are grouped by the map's clustering"`
	State   string   `json:"state" enum:"idle,loading,ready,error"`
	Error   string   `json:"error,omitempty" doc:"Last refresh failure"`
	Markers []Marker `json:"markers"`
}

// Marker is one user object, positioned as (lat, lng).
type Marker struct {
	Key      string     `json:"key" example:"user-1"`
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Position geo.LatLng `json:"position"`
	Popup    string     `json:"popup"`
}

// PanelItem is one checkbox of the layer panel.
type PanelItem struct {
	ID        layer.ID `json:"id"`
	Label     string   `json:"label"`
	Available bool     `json:"available" doc:"Checkbox enabled"`
	Active    bool     `json:"active" doc:"Checkbox checked"`
	Visible   bool     `json:"visible"`
}

// Panel is the layer control panel.
type Panel struct {
	Loading        bool        `json:"loading"`
	Items          []PanelItem `json:"items"`
	ObjectsName    string      `json:"objectsName"`
	ObjectsActive  bool        `json:"objectsActive"`
	ObjectsCount   int         `json:"objectsCount"`
	ObjectsLoading bool        `json:"objectsLoading"`
	ObjectsError   string      `json:"objectsError,omitempty"`
}

// PlacementMode is the step of the add-object flow.
type PlacementMode string

const (
	PlacementOff     PlacementMode = "off"
	PlacementPicking PlacementMode = "picking"
	PlacementEditing PlacementMode = "form"
)

// Placement is the add-object flow state.
type Placement struct {
	Mode       PlacementMode `json:"mode" enum:"off,picking,form"`
	Coords     *geo.LatLng   `json:"coords,omitempty" doc:"Clicked position, rounded to 6 decimals"`
	Submitting bool          `json:"submitting"`
	Error      string        `json:"error,omitempty" doc:"Last submit failure; the form stays open"`
}

// PlacementForm is what the user typed into the add-object form.
type PlacementForm struct {
	Name        string `json:"name" maxLength:"255" doc:"Object name" example:"Кафе"`
	Description string `json:"description,omitempty" doc:"Optional description"`
	ObjectType  string `json:"object_type,omitempty" doc:"Optional type" example:"Кафе"`
}
