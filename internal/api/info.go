package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

// Version is reported by /health and /api/v1/info.
const Version = "0.1.0"

type InfoHandler struct {
	dataDir  string
	database string
	objects  string
}

// NewInfoHandler describes the running configuration. database names the
// object repository driver; objects is the object API the live store reads.
func NewInfoHandler(dataDir, database, objects string) *InfoHandler {
	return &InfoHandler{dataDir: dataDir, database: database, objects: objects}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name       string   `json:"name" doc:"Service name"`
	Version    string   `json:"version" doc:"Service version"`
	DataDir    string   `json:"data_dir" doc:"Data directory path"`
	Database   string   `json:"database" doc:"Object repository driver" example:"duckdb"`
	ObjectsAPI string   `json:"objects_api" doc:"Object API consumed by the live store" example:"local"`
	Features   []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:       "plat-metro",
		Version:    Version,
		DataDir:    h.dataDir,
		Database:   h.database,
		ObjectsAPI: h.objects,
		Features:   []string{"geojson-layers", "zoom-visibility", "user-objects", "datastar-sse"},
	}}, nil
}
