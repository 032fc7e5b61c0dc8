// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-metro/internal/geo"
	"github.com/joeblew999/plat-metro/internal/humastar"
	"github.com/joeblew999/plat-metro/internal/layer"
	"github.com/joeblew999/plat-metro/internal/objects"
	"github.com/joeblew999/plat-metro/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Objects *objects.Service
	View    *service.View
}

// Types

type ObjectIDInput struct {
	ID int64 `path:"id" minimum:"1" doc:"Object ID" example:"1"`
}

type LayerIDInput struct {
	ID string `path:"id" doc:"Layer ID" example:"metro_station"`
}

type ObjectOutput struct {
	Body objects.UserObject
}

type ObjectsOutput struct {
	Body []objects.UserObject
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type ZoomBody struct {
	Zoom   float64     `json:"zoom" minimum:"0" maximum:"24" doc:"Zoom the map settled on" example:"12"`
	Center *geo.LatLng `json:"center,omitempty" required:"false" doc:"Map center after the move"`
}

type ToggleBody struct {
	ID     string `json:"id" doc:"Toggled layer" example:"metro_station"`
	Active bool   `json:"active" doc:"New toggle state"`
}

type RefreshBody struct {
	State string `json:"state" enum:"idle,loading,ready,error" doc:"Live store state after the refresh"`
	Count int    `json:"count" doc:"Objects held by the live store"`
}

type SceneOutput struct {
	Body service.Scene
}

type PanelOutput struct {
	Body service.Panel
}

type PlacementOutput struct {
	Body service.Placement
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterObjects registers the user object routes.
func (h *APIHandler) RegisterObjects(api huma.API) {
	if h.svc.Objects == nil {
		return
	}
	huma.Get(api, "/api/objects/", h.ListObjects, huma.OperationTags("objects"))
	huma.Post(api, "/api/objects/", h.CreateObject, huma.OperationTags("objects"))
	huma.Get(api, "/api/objects/{id}", h.GetObject, huma.OperationTags("objects"))
}

// RegisterView registers the map view routes.
func (h *APIHandler) RegisterView(api huma.API) {
	if h.svc.View == nil {
		return
	}
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("view"))
	huma.Post(api, "/api/v1/layers/reload", h.ReloadLayers, huma.OperationTags("view"))
	huma.Get(api, "/api/v1/scene", h.GetScene, huma.OperationTags("view"))
	huma.Post(api, "/api/v1/view/zoom", h.Zoom, huma.OperationTags("view"))
	huma.Post(api, "/api/v1/view/layers/{id}/toggle", h.ToggleLayer, huma.OperationTags("view"))
	huma.Post(api, "/api/v1/view/objects/toggle", h.ToggleObjects, huma.OperationTags("view"))
	huma.Post(api, "/api/v1/objects/refresh", h.RefreshObjects, huma.OperationTags("view"))

	huma.Post(api, "/api/v1/view/placement", h.StartPlacement, huma.OperationTags("placement"))
	huma.Delete(api, "/api/v1/view/placement", h.CancelPlacement, huma.OperationTags("placement"))
	huma.Post(api, "/api/v1/view/placement/click", h.Click, huma.OperationTags("placement"))
	huma.Post(api, "/api/v1/view/placement/submit", h.Submit, huma.OperationTags("placement"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) ListObjects(ctx context.Context, input *struct{}) (*ObjectsOutput, error) {
	list, err := h.svc.Objects.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing objects", err)
	}
	return &ObjectsOutput{Body: list}, nil
}

func (h *APIHandler) CreateObject(ctx context.Context, input *struct{ Body objects.CreatePayload }) (*ObjectOutput, error) {
	obj, err := h.svc.Objects.Create(ctx, input.Body)
	if err != nil {
		if errors.Is(err, objects.ErrInvalidInput) {
			return nil, huma.Error400BadRequest(err.Error())
		}
		return nil, huma.Error500InternalServerError("creating object", err)
	}
	return &ObjectOutput{Body: obj}, nil
}

func (h *APIHandler) GetObject(ctx context.Context, input *ObjectIDInput) (*ObjectOutput, error) {
	obj, err := h.svc.Objects.Get(ctx, input.ID)
	if err != nil {
		if errors.Is(err, objects.ErrNotFound) {
			return nil, huma.Error404NotFound("Object not found")
		}
		return nil, huma.Error500InternalServerError("reading object", err)
	}
	return &ObjectOutput{Body: obj}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*PanelOutput, error) {
	return &PanelOutput{Body: h.svc.View.Panel()}, nil
}

func (h *APIHandler) ReloadLayers(ctx context.Context, input *struct{}) (*PanelOutput, error) {
	h.svc.View.ReloadStatic(ctx)
	return &PanelOutput{Body: h.svc.View.Panel()}, nil
}

func (h *APIHandler) GetScene(ctx context.Context, input *struct{}) (*SceneOutput, error) {
	return &SceneOutput{Body: h.svc.View.Scene()}, nil
}

func (h *APIHandler) Zoom(ctx context.Context, input *struct{ Body ZoomBody }) (*PanelOutput, error) {
	if c := input.Body.Center; c != nil {
		h.svc.View.MoveEnd(*c, input.Body.Zoom)
	} else {
		h.svc.View.ZoomEnd(input.Body.Zoom)
	}
	return &PanelOutput{Body: h.svc.View.Panel()}, nil
}

func (h *APIHandler) ToggleLayer(ctx context.Context, input *LayerIDInput) (*struct{ Body ToggleBody }, error) {
	on, err := h.svc.View.ToggleLayer(layer.ID(input.ID))
	if err != nil {
		return nil, problem(err)
	}
	return &struct{ Body ToggleBody }{Body: ToggleBody{ID: input.ID, Active: on}}, nil
}

func (h *APIHandler) ToggleObjects(ctx context.Context, input *struct{}) (*struct{ Body ToggleBody }, error) {
	on := h.svc.View.ToggleObjects()
	return &struct{ Body ToggleBody }{Body: ToggleBody{ID: "objects", Active: on}}, nil
}

func (h *APIHandler) RefreshObjects(ctx context.Context, input *struct{}) (*struct{ Body RefreshBody }, error) {
	if err := h.svc.View.RefreshObjects(ctx); err != nil {
		return nil, huma.Error502BadGateway("refreshing objects", err)
	}
	p := h.svc.View.Panel()
	return &struct{ Body RefreshBody }{Body: RefreshBody{State: "ready", Count: p.ObjectsCount}}, nil
}

func (h *APIHandler) StartPlacement(ctx context.Context, input *struct{}) (*PlacementOutput, error) {
	h.svc.View.StartPlacement()
	return &PlacementOutput{Body: h.svc.View.Placement()}, nil
}

func (h *APIHandler) CancelPlacement(ctx context.Context, input *struct{}) (*PlacementOutput, error) {
	h.svc.View.CancelPlacement()
	return &PlacementOutput{Body: h.svc.View.Placement()}, nil
}

// Click reads the clicked position from the lat and lng signals.
func (h *APIHandler) Click(ctx context.Context, input *humastar.SignalsInput) (*PlacementOutput, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	if !signals.Has("lat") || !signals.Has("lng") {
		return nil, huma.Error400BadRequest("lat and lng are required")
	}
	p, err := h.svc.View.Click(geo.LatLng{Lat: signals.Float("lat"), Lng: signals.Float("lng")})
	if err != nil {
		return nil, problem(err)
	}
	return &PlacementOutput{Body: p}, nil
}

// Submit accepts either a plain JSON form or the full Datastar signal set,
// reading only the form fields.
func (h *APIHandler) Submit(ctx context.Context, input *humastar.SignalsInput) (*ObjectOutput, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	obj, err := h.svc.View.Submit(ctx, service.PlacementForm{
		Name:        signals.String("name"),
		Description: signals.String("description"),
		ObjectType:  signals.String("object_type"),
	})
	if err != nil {
		return nil, problem(err)
	}
	return &ObjectOutput{Body: obj}, nil
}

// problem maps domain errors onto HTTP problem responses.
func problem(err error) error {
	switch {
	case errors.Is(err, objects.ErrInvalidInput):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, objects.ErrNotFound), errors.Is(err, service.ErrUnknownLayer):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, service.ErrLayerUnavailable),
		errors.Is(err, service.ErrNotPicking),
		errors.Is(err, service.ErrNoForm),
		errors.Is(err, service.ErrSubmitting):
		return huma.Error409Conflict(err.Error())
	}
	return huma.Error502BadGateway("remote object API failed", err)
}

// RegisterRoutes registers every REST route on api.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}
