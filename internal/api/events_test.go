package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-metro/internal/humastar"
	"github.com/joeblew999/plat-metro/internal/layer"
	"github.com/joeblew999/plat-metro/internal/logging"
	"github.com/joeblew999/plat-metro/internal/service"
	"github.com/joeblew999/plat-metro/internal/templates"
)

func TestLayerItems(t *testing.T) {
	r, err := templates.New()
	require.NoError(t, err)
	h := NewMapHandler(nil, humastar.Handler{Renderer: r}, logging.Discard())

	items := []service.PanelItem{
		{ID: layer.MetroStation, Label: "metro station (z>11)"},
		{ID: layer.Districts, Label: "districts layer"},
	}

	html := h.layerItems(service.Panel{Loading: true, Items: items})
	assert.Contains(t, html, "Загрузка слоёв")
	assert.NotContains(t, html, "layer-metro_station")

	html = h.layerItems(service.Panel{Items: items})
	assert.Contains(t, html, "Нет слоёв")

	items[1].Available = true
	html = h.layerItems(service.Panel{Items: items})
	assert.Contains(t, html, `id="layer-metro_station"`)
	assert.Contains(t, html, `id="layer-districts_layer"`)
	assert.NotContains(t, html, "empty-state")
}
