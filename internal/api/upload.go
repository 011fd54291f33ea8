package api

import (
	"context"
	"mime/multipart"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/agromaps/fieldview/internal/service"
)

type UploadInput struct {
	RawBody multipart.Form
}

// UploadBody reports the layers created from one uploaded file.
type UploadBody struct {
	Layers  []*service.Layer `json:"layers" doc:"Layers created from the upload"`
	Message string           `json:"message" doc:"Result message"`
}

type UploadsOutput struct {
	Body []service.UploadFile
}

type UploadNameInput struct {
	Filename string `path:"filename" doc:"Uploaded file name"`
}

// RegisterUploads registers upload and stored-file routes.
func (h *APIHandler) RegisterUploads(api huma.API) {
	huma.Post(api, "/api/v1/upload", h.Upload, huma.OperationTags("uploads"))
	huma.Get(api, "/api/v1/uploads", h.GetUploads, huma.OperationTags("uploads"))
	huma.Delete(api, "/api/v1/uploads/{filename}", h.DeleteUpload, huma.OperationTags("uploads"))
}

// Upload saves the file, ingests it into one or more layers and
// prepends them to the layer store. A failed parse leaves the store
// untouched and surfaces the decoder's diagnostic.
func (h *APIHandler) Upload(ctx context.Context, input *UploadInput) (*struct{ Body UploadBody }, error) {
	files := input.RawBody.File["file"]
	if len(files) == 0 {
		return nil, huma.Error400BadRequest("no file provided")
	}
	fileHeader := files[0]

	if !service.Accepted(fileHeader.Filename) {
		return nil, huma.Error400BadRequest("unsupported file type; accepted: .tif .tiff .gpkg .geojson .json")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, huma.Error400BadRequest("failed to open uploaded file")
	}
	defer file.Close()

	path, err := h.svc.Uploads.Save(fileHeader.Filename, file)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	layers, err := h.svc.Ingest.File(path)
	if err != nil {
		h.log.Warn("upload ingestion failed",
			zap.String("file", fileHeader.Filename),
			zap.Error(err))
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	for _, layer := range layers {
		if _, err := h.svc.Layers.Add(layer); err != nil {
			return nil, serviceError(err)
		}
	}

	return &struct{ Body UploadBody }{Body: UploadBody{
		Layers:  layers,
		Message: "File uploaded: " + fileHeader.Filename,
	}}, nil
}

func (h *APIHandler) GetUploads(ctx context.Context, input *struct{}) (*UploadsOutput, error) {
	files, err := h.svc.Uploads.List()
	if err != nil {
		return &UploadsOutput{Body: []service.UploadFile{}}, nil
	}
	return &UploadsOutput{Body: files}, nil
}

func (h *APIHandler) DeleteUpload(ctx context.Context, input *UploadNameInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Uploads.Delete(input.Filename); err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Deleted: " + input.Filename}}, nil
}
