package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/agromaps/fieldview/internal/service"
)

type PrefsOutput struct {
	Body service.Prefs
}

type PutPrefsInput struct {
	Body service.Prefs
}

// RegisterPrefs registers the UI preference routes. Preferences are
// loaded at startup and saved on every change.
func (h *APIHandler) RegisterPrefs(api huma.API) {
	huma.Get(api, "/api/v1/prefs", h.GetPrefs, huma.OperationTags("prefs"))
	huma.Put(api, "/api/v1/prefs", h.PutPrefs, huma.OperationTags("prefs"))
}

func (h *APIHandler) GetPrefs(ctx context.Context, input *struct{}) (*PrefsOutput, error) {
	return &PrefsOutput{Body: h.svc.Prefs.Get()}, nil
}

func (h *APIHandler) PutPrefs(ctx context.Context, input *PutPrefsInput) (*PrefsOutput, error) {
	prefs, err := h.svc.Prefs.Put(input.Body)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to persist preferences: " + err.Error())
	}
	return &PrefsOutput{Body: prefs}, nil
}
