package api

import (
	"context"
	"log/slog"
	"slices"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-metro/internal/humastar"
	"github.com/joeblew999/plat-metro/internal/metrics"
	"github.com/joeblew999/plat-metro/internal/service"
)

// MapHandler streams the scene to the Datastar map page.
type MapHandler struct {
	humastar.Handler
	view *service.View
	log  *slog.Logger
}

// NewMapHandler creates the map stream handler.
func NewMapHandler(view *service.View, h humastar.Handler, log *slog.Logger) *MapHandler {
	return &MapHandler{Handler: h, view: view, log: log}
}

func (h *MapHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/map/events", h.Events,
		huma.OperationTags("view"),
	)
}

// Events sends the full scene on connect and again after every change.
func (h *MapHandler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		metrics.ActiveStreams.Inc()
		defer metrics.ActiveStreams.Dec()

		bus := h.view.Bus()
		ch := bus.Subscribe()
		defer bus.Unsubscribe(ch)

		if err := h.push(sse, service.Event{Resource: service.ResourceView, Action: "connected"}); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if err := h.push(sse, ev); err != nil {
					h.log.Debug("map stream closed", "error", err)
					return
				}
			}
		}
	}), nil
}

func (h *MapHandler) push(sse humastar.SSE, ev service.Event) error {
	if err := sse.Signals(map[string]any{
		"scene": h.view.Scene(),
		"event": ev,
	}); err != nil {
		return err
	}
	if h.Renderer == nil {
		return nil
	}
	p := h.view.Panel()
	panel, err := h.Renderer.Render("layer-panel", p)
	if err != nil {
		h.log.Error("rendering layer panel", "error", err)
		return sse.Error(err.Error())
	}
	if err := sse.Patch(panel, "#layer-panel"); err != nil {
		return err
	}
	if err := sse.Patch(h.layerItems(p), "#layer-items"); err != nil {
		return err
	}
	placement, err := h.Renderer.Render("placement", h.view.Placement())
	if err != nil {
		return err
	}
	return sse.Patch(placement, "#placement")
}

// layerItems renders the layer checkboxes, or an empty state while no layer
// has data to toggle.
func (h *MapHandler) layerItems(p service.Panel) string {
	var items []any
	if slices.ContainsFunc(p.Items, func(it service.PanelItem) bool { return it.Available }) {
		for _, it := range p.Items {
			items = append(items, it)
		}
	}
	if p.Loading {
		return h.RenderList("layer-item", items, "Загрузка слоёв…", "Данные карты загружаются")
	}
	return h.RenderList("layer-item", items, "Нет слоёв", "Ни один слой не загрузился")
}
