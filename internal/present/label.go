package present

import (
	"html"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-metro/internal/geo"
	"github.com/joeblew999/plat-metro/internal/layer"
	"github.com/joeblew999/plat-metro/internal/objects"
)

// Unavailable is the label of a feature that carries no usable name.
const Unavailable = "Информация недоступна"

const unnamed = "Без имени"

// labelRule names the property holding a feature's name in one layer, the
// prefix shown before it, and the secondary line of its popup.
type labelRule struct {
	key         string
	prefix      string
	placeholder string
	detailKey   string
	detail      string
}

var labelRules = map[layer.ID]labelRule{
	layer.BusTramStops:      {key: "name_mpv", prefix: "Остановка: ", placeholder: unnamed, detailKey: "marshrut", detail: "Маршруты: "},
	layer.Districts:         {key: "NAME", placeholder: "Район без имени", detailKey: "NAME_AO", detail: "Округ: "},
	layer.MCDStation:        {key: "name_station", prefix: "Станция: ", placeholder: unnamed, detailKey: "name_line", detail: "Линия: "},
	layer.MCKStation:        {key: "name_station", prefix: "Станция: ", placeholder: unnamed, detailKey: "name_line", detail: "Линия: "},
	layer.MetroStation:      {key: "name_station", prefix: "Станция: ", placeholder: unnamed, detailKey: "name_line", detail: "Линия: "},
	layer.StreetsPedestrian: {key: "ST_NAME", prefix: "Улица: ", placeholder: unnamed},
}

// LabelFor returns the plain-text label of a feature. It tries the layer's
// name property, then "name", then "Name", and falls back to Unavailable.
func LabelFor(id layer.ID, f *geojson.Feature) string {
	props := geo.PropertiesOf(f)
	rule := labelRules[id]
	if rule.key != "" {
		if s, ok := props.Text(rule.key); ok {
			return rule.prefix + s
		}
	}
	if s, ok := props.First("name", "Name"); ok {
		return rule.prefix + s
	}
	return Unavailable
}

// PopupFor returns the HTML popup of a feature: the bold headline with a
// placeholder for missing names, plus the layer's secondary line.
func PopupFor(id layer.ID, f *geojson.Feature) string {
	if f == nil || f.Properties == nil {
		return Unavailable
	}
	props := geo.PropertiesOf(f)

	rule, ok := labelRules[id]
	if !ok {
		if s, ok := props.First("name", "Name"); ok {
			return html.EscapeString(s)
		}
		return Unavailable
	}

	name, ok := props.Text(rule.key)
	if !ok {
		name = rule.placeholder
	}

	var b strings.Builder
	if rule.prefix != "" {
		b.WriteString("<b>" + strings.TrimSpace(rule.prefix) + "</b> " + html.EscapeString(name))
	} else {
		b.WriteString("<b>" + html.EscapeString(name) + "</b>")
	}
	if rule.detailKey != "" {
		if d, ok := props.Text(rule.detailKey); ok {
			b.WriteString("<br/>" + rule.detail + html.EscapeString(d))
		}
	}
	return b.String()
}

// ObjectPopup returns the HTML popup of a user object marker.
func ObjectPopup(obj objects.UserObject) string {
	var b strings.Builder
	b.WriteString("<b>" + html.EscapeString(obj.Name) + "</b><br />")
	if obj.ObjectType != nil && *obj.ObjectType != "" {
		b.WriteString("Тип: " + html.EscapeString(*obj.ObjectType))
	}
	b.WriteString("<br />")
	if obj.Description != nil && *obj.Description != "" {
		b.WriteString("Описание: " + html.EscapeString(*obj.Description))
	}
	return b.String()
}
