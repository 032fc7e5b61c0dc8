package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	"github.com/joeblew999/plat-metro/internal/geo"
	"github.com/joeblew999/plat-metro/internal/layer"
	"github.com/joeblew999/plat-metro/internal/livestore"
	"github.com/joeblew999/plat-metro/internal/loader"
	"github.com/joeblew999/plat-metro/internal/metrics"
	"github.com/joeblew999/plat-metro/internal/objects"
	"github.com/joeblew999/plat-metro/internal/present"
)

// Initial view.
var (
	InitialZoom   = 10.0
	InitialCenter = geo.LatLng{Lat: 55.751244, Lng: 37.618423}
)

var (
	ErrUnknownLayer     = errors.New("unknown layer")
	ErrLayerUnavailable = errors.New("layer data unavailable")
	ErrNotPicking       = errors.New("not waiting for a map click")
	ErrNoForm           = errors.New("no placement form open")
	ErrSubmitting       = errors.New("placement form is already submitting")
)

// Config wires a View.
type Config struct {
	Catalog layer.Catalog
	Loader  *loader.Loader
	Store   *livestore.Store
	Bus     *EventBus
	Logger  *slog.Logger
}

// View is the single writer of zoom, toggles and the placement flow.
type View struct {
	catalog    layer.Catalog
	thresholds layer.Thresholds
	loader     *loader.Loader
	store      *livestore.Store
	bus        *EventBus
	log        *slog.Logger

	mu          sync.Mutex
	zoom        float64
	center      geo.LatLng
	toggles     map[layer.ID]bool
	showObjects bool
	placement   Placement

	unsubscribe func()
}

// New creates a view at the initial zoom with every toggle off.
func New(cfg Config) *View {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Bus == nil {
		cfg.Bus = NewEventBus()
	}
	v := &View{
		catalog:    cfg.Catalog,
		thresholds: cfg.Catalog.Thresholds(),
		loader:     cfg.Loader,
		store:      cfg.Store,
		bus:        cfg.Bus,
		log:        cfg.Logger,
		zoom:       InitialZoom,
		center:     InitialCenter,
		toggles:    make(map[layer.ID]bool),
		placement:  Placement{Mode: PlacementOff},
	}

	// Both callbacks only publish; they never take v.mu.
	v.loader.OnComplete(func(r loader.Result) {
		metrics.SceneChanges.WithLabelValues("layers").Inc()
		v.bus.Publish(Event{Resource: ResourceLayers, Action: "loaded"})
	})
	v.unsubscribe = v.store.Subscribe(livestore.ObserverFunc(func(s livestore.Snapshot) {
		metrics.SceneChanges.WithLabelValues("objects").Inc()
		v.bus.Publish(Event{Resource: ResourceObjects, Action: s.State.String()})
	}))
	return v
}

// Bus returns the event bus the view publishes on.
func (v *View) Bus() *EventBus { return v.bus }

// Close detaches the view from the object store.
func (v *View) Close() {
	if v.unsubscribe != nil {
		v.unsubscribe()
	}
}

// Start loads the static layers and refreshes the user objects together, and
// waits for both. A failed refresh is returned but leaves the view usable.
func (v *View) Start(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		v.ReloadStatic(ctx)
		return nil
	})
	g.Go(func() error {
		return v.RefreshObjects(ctx)
	})
	return g.Wait()
}

// ReloadStatic re-fetches every catalog layer and replaces the whole result.
func (v *View) ReloadStatic(ctx context.Context) loader.Result {
	return v.loader.LoadAll(ctx, v.catalog.Files())
}

// RefreshObjects re-lists the user objects.
func (v *View) RefreshObjects(ctx context.Context) error {
	return v.store.Refresh(ctx)
}

// ZoomEnd records the zoom the map settled on.
func (v *View) ZoomEnd(zoom float64) {
	v.mu.Lock()
	v.zoom = zoom
	v.mu.Unlock()
	v.changed("zoom", Event{Resource: ResourceView, Action: "zoomed", ID: fmt.Sprint(zoom)})
}

// MoveEnd records the center and zoom after a pan.
func (v *View) MoveEnd(center geo.LatLng, zoom float64) {
	v.mu.Lock()
	v.center = center
	v.zoom = zoom
	v.mu.Unlock()
	v.changed("zoom", Event{Resource: ResourceView, Action: "moved"})
}

// ToggleLayer flips a static layer and returns its new state. Layers without
// data cannot be toggled.
func (v *View) ToggleLayer(id layer.ID) (bool, error) {
	if !v.inCatalog(id) {
		return false, fmt.Errorf("%w: %q", ErrUnknownLayer, id)
	}
	if v.loader.Data()[id] == nil {
		return false, fmt.Errorf("%w: %s", ErrLayerUnavailable, id)
	}
	v.mu.Lock()
	v.toggles[id] = !v.toggles[id]
	on := v.toggles[id]
	v.mu.Unlock()
	v.changed("toggle", Event{Resource: ResourceView, Action: "toggled", ID: string(id)})
	return on, nil
}

// ToggleObjects flips the user object layer and returns its new state.
func (v *View) ToggleObjects() bool {
	v.mu.Lock()
	v.showObjects = !v.showObjects
	on := v.showObjects
	v.mu.Unlock()
	v.changed("toggle", Event{Resource: ResourceView, Action: "toggled", ID: "objects"})
	return on
}

// StartPlacement waits for a map click.
func (v *View) StartPlacement() {
	v.mu.Lock()
	v.placement = Placement{Mode: PlacementPicking}
	v.mu.Unlock()
	v.changed("placement", Event{Resource: ResourceView, Action: "placement"})
}

// CancelPlacement closes the flow without creating anything.
func (v *View) CancelPlacement() {
	v.mu.Lock()
	v.placement = Placement{Mode: PlacementOff}
	v.mu.Unlock()
	v.changed("placement", Event{Resource: ResourceView, Action: "placement"})
}

// Click takes the clicked position while picking and opens the form.
func (v *View) Click(pos geo.LatLng) (Placement, error) {
	v.mu.Lock()
	if v.placement.Mode != PlacementPicking {
		v.mu.Unlock()
		return Placement{}, ErrNotPicking
	}
	coords := geo.LatLng{Lat: round6(pos.Lat), Lng: round6(pos.Lng)}
	v.placement = Placement{Mode: PlacementEditing, Coords: &coords}
	p := v.placement
	v.mu.Unlock()
	v.changed("placement", Event{Resource: ResourceView, Action: "placement"})
	return p, nil
}

// Submit creates the object described by form at the clicked position. On
// failure the form stays open with the error recorded.
func (v *View) Submit(ctx context.Context, form PlacementForm) (objects.UserObject, error) {
	v.mu.Lock()
	if v.placement.Mode != PlacementEditing {
		v.mu.Unlock()
		return objects.UserObject{}, ErrNoForm
	}
	if v.placement.Submitting {
		v.mu.Unlock()
		return objects.UserObject{}, ErrSubmitting
	}
	if v.placement.Coords == nil {
		v.mu.Unlock()
		return objects.UserObject{}, fmt.Errorf("%w: coordinates are required", objects.ErrInvalidInput)
	}
	if strings.TrimSpace(form.Name) == "" {
		v.mu.Unlock()
		return objects.UserObject{}, fmt.Errorf("%w: name is required", objects.ErrInvalidInput)
	}
	coords := *v.placement.Coords
	v.placement.Submitting = true
	v.placement.Error = ""
	v.mu.Unlock()

	obj, err := v.store.Create(ctx, objects.CreatePayload{
		Name:        form.Name,
		Description: objects.Text(form.Description),
		ObjectType:  objects.Text(form.ObjectType),
		Latitude:    coords.Lat,
		Longitude:   coords.Lng,
	})

	v.mu.Lock()
	if err != nil {
		v.placement.Submitting = false
		v.placement.Error = err.Error()
	} else {
		v.placement = Placement{Mode: PlacementOff}
	}
	v.mu.Unlock()

	if err != nil {
		v.changed("placement", Event{Resource: ResourceView, Action: "submit-failed"})
		return objects.UserObject{}, err
	}
	v.log.Info("object placed", "id", obj.ID, "name", obj.Name)
	v.changed("placement", Event{Resource: ResourceObjects, Action: "created", ID: fmt.Sprint(obj.ID)})
	return obj, nil
}

// Zoom returns the current zoom.
func (v *View) Zoom() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom
}

// Placement returns the add-object flow state.
func (v *View) Placement() Placement {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.placement
}

// Panel returns the checkbox panel.
func (v *View) Panel() Panel {
	st := v.state()
	data := v.loader.Data()
	snap := v.store.Snapshot()

	p := Panel{
		Loading:        v.loader.Loading(),
		Items:          make([]PanelItem, 0, len(v.catalog.Layers)),
		ObjectsName:    ObjectsLayerName,
		ObjectsActive:  st.showObjects,
		ObjectsCount:   len(snap.Objects),
		ObjectsLoading: snap.Loading(),
		ObjectsError:   snap.Err,
	}
	for _, e := range v.catalog.Layers {
		on := st.toggles[e.ID]
		p.Items = append(p.Items, PanelItem{
			ID:        e.ID,
			Label:     layer.PanelLabel(e.ID, v.thresholds[e.ID]),
			Available: data[e.ID] != nil,
			Active:    on,
			Visible:   layer.IsVisible(e.ID, on, st.zoom, v.thresholds),
		})
	}
	return p
}

// Scene composes the drawable scene. Visibility is recomputed for every
// layer on each call.
func (v *View) Scene() Scene {
	st := v.state()
	data := v.loader.Data()

	sc := Scene{
		Zoom:      st.zoom,
		Center:    st.center,
		Loading:   v.loader.Loading(),
		Layers:    make([]LayerView, 0, len(v.catalog.Layers)),
		Placement: st.placement,
	}
	for _, e := range v.catalog.Layers {
		sc.Layers = append(sc.Layers, v.layerView(e.ID, data[e.ID], st))
	}
	if st.showObjects {
		sc.Objects = objectsView(v.store.Snapshot())
	}
	return sc
}

func (v *View) layerView(id layer.ID, fc *geojson.FeatureCollection, st viewState) LayerView {
	on := st.toggles[id]
	visible := layer.IsVisible(id, on, st.zoom, v.thresholds)
	lv := LayerView{
		ID:        id,
		Key:       present.RenderKey(id, visible),
		Label:     layer.PanelLabel(id, v.thresholds[id]),
		Available: fc != nil,
		Active:    on,
		Visible:   visible,
		Point:     present.IsPointLayer(fc),
	}
	if lv.Point {
		icon := present.IconFor(id)
		lv.Icon = &icon
	}
	if !visible || fc == nil {
		return lv
	}

	lv.Features = make([]DrawnFeature, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		raw, err := geojson.NewGeometry(f.Geometry).MarshalJSON()
		if err != nil {
			v.log.Warn("skipping feature", "layer", id, "error", err)
			continue
		}
		lv.Features = append(lv.Features, DrawnFeature{
			Geometry: raw,
			Style:    present.StyleFor(id, f),
			Label:    present.LabelFor(id, f),
			Popup:    present.PopupFor(id, f),
		})
	}
	return lv
}

func objectsView(s livestore.Snapshot) *ObjectsView {
	ov := &ObjectsView{
		Name:    ObjectsLayerName,
		Cluster: true,
		State:   s.State.String(),
		Error:   s.Err,
		Markers: make([]Marker, 0, len(s.Objects)),
	}
	for _, o := range s.Objects {
		ov.Markers = append(ov.Markers, Marker{
			Key:      fmt.Sprintf("user-%d", o.ID),
			ID:       o.ID,
			Name:     o.Name,
			Position: o.Geom.LatLng(),
			Popup:    present.ObjectPopup(o),
		})
	}
	return ov
}

type viewState struct {
	zoom        float64
	center      geo.LatLng
	toggles     map[layer.ID]bool
	showObjects bool
	placement   Placement
}

func (v *View) state() viewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	toggles := make(map[layer.ID]bool, len(v.toggles))
	for k, on := range v.toggles {
		toggles[k] = on
	}
	return viewState{
		zoom:        v.zoom,
		center:      v.center,
		toggles:     toggles,
		showObjects: v.showObjects,
		placement:   v.placement,
	}
}

func (v *View) inCatalog(id layer.ID) bool {
	for _, e := range v.catalog.Layers {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (v *View) changed(cause string, e Event) {
	metrics.SceneChanges.WithLabelValues(cause).Inc()
	v.bus.Publish(e)
}

func round6(x float64) float64 {
	return math.Round(x*1e6) / 1e6
}
