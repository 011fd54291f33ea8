package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	dataDir   string
	inference string
}

func NewInfoHandler(dataDir, inferenceURL string) *InfoHandler {
	return &InfoHandler{dataDir: dataDir, inference: inferenceURL}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name      string   `json:"name" doc:"Service name"`
	Version   string   `json:"version" doc:"Service version"`
	DataDir   string   `json:"data_dir" doc:"Data directory path"`
	Inference string   `json:"inference" doc:"Configured inference endpoint"`
	Features  []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:      "fieldview",
		Version:   "0.1.0",
		DataDir:   h.dataDir,
		Inference: h.inference,
		Features:  []string{"geotiff", "geojson", "geopackage", "delineation"},
	}}, nil
}
