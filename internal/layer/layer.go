// Package layer defines the static map layers, their zoom thresholds and the
// visibility policy that gates them.
package layer

import (
	"fmt"
	"strconv"
	"strings"
)

// ID identifies one of the six static layers.
type ID string

const (
	BusTramStops      ID = "bus_tram_stops"
	Districts         ID = "districts_layer"
	MCDStation        ID = "mcd_station"
	MCKStation        ID = "mck_station"
	MetroStation      ID = "metro_station"
	StreetsPedestrian ID = "StreetsPedestrian"
)

// All lists the layers in drawing order.
var All = []ID{BusTramStops, Districts, MCDStation, MCKStation, MetroStation, StreetsPedestrian}

// Valid reports whether id belongs to the closed layer set.
func (id ID) Valid() bool {
	for _, known := range All {
		if id == known {
			return true
		}
	}
	return false
}

// Parse converts s into a layer ID.
func Parse(s string) (ID, error) {
	id := ID(s)
	if !id.Valid() {
		return "", fmt.Errorf("unknown layer %q", s)
	}
	return id, nil
}

// Threshold bounds the zoom range in which a toggled-on layer is drawn.
// A nil bound is open on that side.
type Threshold struct {
	MinZoom *float64 `json:"minZoom,omitempty" yaml:"minZoom,omitempty" doc:"Lowest zoom at which the layer is drawn (inclusive)"`
	MaxZoom *float64 `json:"maxZoom,omitempty" yaml:"maxZoom,omitempty" doc:"Highest zoom at which the layer is drawn (inclusive)"`
}

// Thresholds maps layers to their zoom bounds. A layer without an entry is
// drawn at every zoom once toggled on.
type Thresholds map[ID]Threshold

// Zoom returns a pointer to z, for building thresholds.
func Zoom(z float64) *float64 { return &z }

// DefaultThresholds returns the stock zoom table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Districts:         {MinZoom: Zoom(7), MaxZoom: Zoom(13)},
		BusTramStops:      {MinZoom: Zoom(14)},
		MCDStation:        {MinZoom: Zoom(12)},
		MCKStation:        {MinZoom: Zoom(12)},
		MetroStation:      {MinZoom: Zoom(12)},
		StreetsPedestrian: {MinZoom: Zoom(15)},
	}
}

// IsVisible decides whether a layer is drawn. The toggle dominates; a layer
// with no threshold entry is zoom-independent; otherwise both bounds are
// inclusive.
func IsVisible(id ID, toggledOn bool, zoom float64, thresholds Thresholds) bool {
	if !toggledOn {
		return false
	}
	th, ok := thresholds[id]
	if !ok {
		return true
	}
	if th.MinZoom != nil && zoom < *th.MinZoom {
		return false
	}
	if th.MaxZoom != nil && zoom > *th.MaxZoom {
		return false
	}
	return true
}

// PanelLabel renders the checkbox label for a layer, e.g. "metro station (z>11)".
func PanelLabel(id ID, th Threshold) string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(string(id), "_", " "))
	if th.MinZoom != nil && *th.MinZoom != 0 {
		fmt.Fprintf(&b, " (z>%s)", formatZoom(*th.MinZoom-1))
	}
	if th.MaxZoom != nil && *th.MaxZoom != 0 {
		fmt.Fprintf(&b, " (z<%s)", formatZoom(*th.MaxZoom+1))
	}
	return b.String()
}

func formatZoom(z float64) string {
	return strconv.FormatFloat(z, 'f', -1, 64)
}
