package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-metro/internal/geo"
	"github.com/joeblew999/plat-metro/internal/layer"
	"github.com/joeblew999/plat-metro/internal/livestore"
	"github.com/joeblew999/plat-metro/internal/loader"
	"github.com/joeblew999/plat-metro/internal/logging"
	"github.com/joeblew999/plat-metro/internal/objects"
)

const metroJSON = `{"type":"FeatureCollection","features":[
  {"type":"Feature","geometry":{"type":"Point","coordinates":[37.6176,55.7574]},
   "properties":{"name_station":"Охотный Ряд","name_line":"Сокольническая"}}]}`

const districtsJSON = `{"type":"FeatureCollection","features":[
  {"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[37.5,55.7],[37.7,55.7],[37.7,55.8],[37.5,55.7]]]},
   "properties":{}}]}`

// fixtures serves metro and districts; every other layer fails.
func fixtures(ctx context.Context, file string) ([]byte, error) {
	switch file {
	case "metro_station.geojson":
		return []byte(metroJSON), nil
	case "districts_layer.geojson":
		return []byte(districtsJSON), nil
	}
	return nil, errors.New("404")
}

type failingRemote struct{ livestore.Remote }

func (failingRemote) Create(ctx context.Context, p objects.CreatePayload) (objects.UserObject, error) {
	return objects.UserObject{}, errors.New("server unavailable")
}

// gatedRemote blocks Create until release is closed.
type gatedRemote struct {
	*objects.Service
	entered chan struct{}
	release chan struct{}
}

func (r gatedRemote) Create(ctx context.Context, p objects.CreatePayload) (objects.UserObject, error) {
	close(r.entered)
	<-r.release
	return r.Service.Create(ctx, p)
}

func newView(t *testing.T, remote livestore.Remote) *View {
	t.Helper()
	log := logging.Discard()
	v := New(Config{
		Catalog: layer.DefaultCatalog(),
		Loader:  loader.New(loader.SourceFunc(fixtures), loader.WithLogger(log)),
		Store:   livestore.New(remote, log),
		Logger:  log,
	})
	t.Cleanup(v.Close)
	return v
}

func layerByID(sc Scene, id layer.ID) LayerView {
	for _, lv := range sc.Layers {
		if lv.ID == id {
			return lv
		}
	}
	return LayerView{}
}

func TestInitialView(t *testing.T) {
	v := newView(t, objects.NewService(objects.NewMemoryRepository(), logging.Discard()))

	sc := v.Scene()
	assert.Equal(t, 10.0, sc.Zoom)
	assert.Equal(t, InitialCenter, sc.Center)
	assert.True(t, sc.Loading)
	assert.Nil(t, sc.Objects)
	assert.Equal(t, PlacementOff, sc.Placement.Mode)
	require.Len(t, sc.Layers, len(layer.All))
	for i, lv := range sc.Layers {
		assert.Equal(t, layer.All[i], lv.ID, "catalog order")
		assert.False(t, lv.Active)
		assert.False(t, lv.Visible)
		assert.Empty(t, lv.Features)
	}
}

func TestEndToEndScenario(t *testing.T) {
	svc := objects.NewService(objects.NewMemoryRepository(), logging.Discard())
	_, err := svc.Create(context.Background(), objects.CreatePayload{Name: "Памятник", Latitude: 55.7, Longitude: 37.5})
	require.NoError(t, err)

	v := newView(t, svc)
	require.NoError(t, v.Start(context.Background()))
	assert.False(t, v.Scene().Loading)

	_, err = v.ToggleLayer(layer.MetroStation)
	require.NoError(t, err)

	metro := layerByID(v.Scene(), layer.MetroStation)
	assert.True(t, metro.Active)
	assert.False(t, metro.Visible, "below minZoom 12")
	assert.Equal(t, "metro_station-false", metro.Key)
	assert.Empty(t, metro.Features)

	v.ZoomEnd(12)
	metro = layerByID(v.Scene(), layer.MetroStation)
	assert.True(t, metro.Visible)
	assert.Equal(t, "metro_station-true", metro.Key)
	assert.True(t, metro.Point)
	require.NotNil(t, metro.Icon)
	assert.Equal(t, "red", metro.Icon.Color)
	require.Len(t, metro.Features, 1)
	assert.Equal(t, "Станция: Охотный Ряд", metro.Features[0].Label)
	assert.Contains(t, string(metro.Features[0].Geometry), `[37.6176,55.7574]`)

	v.StartPlacement()
	p, err := v.Click(geo.LatLng{Lat: 55.7500004, Lng: 37.6000001})
	require.NoError(t, err)
	assert.Equal(t, PlacementEditing, p.Mode)
	assert.Equal(t, geo.LatLng{Lat: 55.75, Lng: 37.6}, *p.Coords)

	obj, err := v.Submit(context.Background(), PlacementForm{Name: "Кафе", ObjectType: "Кафе"})
	require.NoError(t, err)
	assert.Equal(t, PlacementOff, v.Placement().Mode)

	assert.Nil(t, v.Scene().Objects, "objects toggle is off")
	assert.True(t, v.ToggleObjects())

	v.ZoomEnd(3)
	ov := v.Scene().Objects
	require.NotNil(t, ov, "objects are independent of zoom")
	assert.True(t, ov.Cluster)
	require.Len(t, ov.Markers, 2)
	last := ov.Markers[1]
	assert.Equal(t, obj.ID, last.ID)
	assert.Equal(t, "Кафе", last.Name)
	assert.Equal(t, geo.LatLng{Lat: 55.75, Lng: 37.6}, last.Position)
	assert.Equal(t, "user-2", last.Key)
	assert.Equal(t, "Памятник", ov.Markers[0].Name)
}

func TestToggleLayerErrors(t *testing.T) {
	v := newView(t, objects.NewService(objects.NewMemoryRepository(), logging.Discard()))
	v.ReloadStatic(context.Background())

	_, err := v.ToggleLayer(layer.MCKStation)
	assert.ErrorIs(t, err, ErrLayerUnavailable)
	_, err = v.ToggleLayer(layer.ID("nope"))
	assert.ErrorIs(t, err, ErrUnknownLayer)

	on, err := v.ToggleLayer(layer.Districts)
	require.NoError(t, err)
	assert.True(t, on)
	on, err = v.ToggleLayer(layer.Districts)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestZoomRecomputesAllLayers(t *testing.T) {
	v := newView(t, objects.NewService(objects.NewMemoryRepository(), logging.Discard()))
	v.ReloadStatic(context.Background())
	_, err := v.ToggleLayer(layer.Districts)
	require.NoError(t, err)
	_, err = v.ToggleLayer(layer.MetroStation)
	require.NoError(t, err)

	v.ZoomEnd(13)
	sc := v.Scene()
	assert.True(t, layerByID(sc, layer.Districts).Visible)
	assert.True(t, layerByID(sc, layer.MetroStation).Visible)

	v.ZoomEnd(14)
	sc = v.Scene()
	assert.False(t, layerByID(sc, layer.Districts).Visible, "above maxZoom 13")
	assert.True(t, layerByID(sc, layer.MetroStation).Visible)

	districts := layerByID(v.Scene(), layer.Districts)
	assert.False(t, districts.Point)
	assert.Nil(t, districts.Icon)
}

func TestPanel(t *testing.T) {
	v := newView(t, objects.NewService(objects.NewMemoryRepository(), logging.Discard()))
	assert.True(t, v.Panel().Loading)
	require.NoError(t, v.Start(context.Background()))
	_, err := v.ToggleLayer(layer.MetroStation)
	require.NoError(t, err)

	p := v.Panel()
	assert.False(t, p.Loading)
	assert.Equal(t, ObjectsLayerName, p.ObjectsName)
	require.Len(t, p.Items, 6)
	for _, it := range p.Items {
		switch it.ID {
		case layer.MetroStation:
			assert.True(t, it.Available)
			assert.True(t, it.Active)
			assert.False(t, it.Visible)
			assert.Equal(t, "metro station (z>11)", it.Label)
		case layer.Districts:
			assert.True(t, it.Available)
		default:
			assert.False(t, it.Available, it.ID)
		}
	}
}

func TestPlacementFlow(t *testing.T) {
	v := newView(t, failingRemote{})

	_, err := v.Click(geo.LatLng{Lat: 1, Lng: 1})
	assert.ErrorIs(t, err, ErrNotPicking, "clicks outside picking mode are ignored")

	_, err = v.Submit(context.Background(), PlacementForm{Name: "x"})
	assert.ErrorIs(t, err, ErrNoForm)

	v.StartPlacement()
	_, err = v.Click(geo.LatLng{Lat: 55.75, Lng: 37.6})
	require.NoError(t, err)

	_, err = v.Submit(context.Background(), PlacementForm{Name: "  "})
	assert.ErrorIs(t, err, objects.ErrInvalidInput)
	assert.Equal(t, PlacementEditing, v.Placement().Mode)

	_, err = v.Submit(context.Background(), PlacementForm{Name: "Кафе"})
	require.Error(t, err)
	pl := v.Placement()
	assert.Equal(t, PlacementEditing, pl.Mode, "form stays open for retry")
	assert.False(t, pl.Submitting)
	assert.Contains(t, pl.Error, "server unavailable")

	v.CancelPlacement()
	assert.Equal(t, PlacementOff, v.Placement().Mode)
	assert.Nil(t, v.Placement().Coords)
}

func TestSubmitRejectsSecondSubmit(t *testing.T) {
	svc := objects.NewService(objects.NewMemoryRepository(), logging.Discard())
	remote := gatedRemote{Service: svc, entered: make(chan struct{}), release: make(chan struct{})}
	v := newView(t, remote)

	v.StartPlacement()
	_, err := v.Click(geo.LatLng{Lat: 55.75, Lng: 37.6})
	require.NoError(t, err)

	first := make(chan error, 1)
	go func() {
		_, err := v.Submit(context.Background(), PlacementForm{Name: "Кафе"})
		first <- err
	}()
	<-remote.entered
	assert.True(t, v.Placement().Submitting)

	_, err = v.Submit(context.Background(), PlacementForm{Name: "Кафе"})
	assert.ErrorIs(t, err, ErrSubmitting)

	close(remote.release)
	select {
	case err := <-first:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("first submit did not return")
	}

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, PlacementOff, v.Placement().Mode)
}

func TestEventsPublished(t *testing.T) {
	v := newView(t, objects.NewService(objects.NewMemoryRepository(), logging.Discard()))
	ch := v.Bus().Subscribe()
	defer v.Bus().Unsubscribe(ch)

	v.ReloadStatic(context.Background())
	select {
	case ev := <-ch:
		assert.Equal(t, ResourceLayers, ev.Resource)
		assert.Equal(t, "loaded", ev.Action)
	case <-time.After(time.Second):
		t.Fatal("no event after load")
	}

	v.ZoomEnd(11)
	ev := <-ch
	assert.Equal(t, ResourceView, ev.Resource)
	assert.Equal(t, "zoomed", ev.Action)

	require.NoError(t, v.RefreshObjects(context.Background()))
	var actions []string
	for range 2 {
		actions = append(actions, (<-ch).Action)
	}
	assert.Equal(t, "loading,ready", strings.Join(actions, ","))
}

func TestEventBusUnsubscribeTwice(t *testing.T) {
	b := NewEventBus()
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	b.Unsubscribe(ch)
	b.Publish(Event{Resource: ResourceView})
	_, open := <-ch
	assert.False(t, open)
}
