package handler

import (
	"context"
	"net/http"

	"github.com/mwantia/evtrec/pkg/db/models"
	"github.com/mwantia/evtrec/pkg/folder"
	"github.com/mwantia/evtrec/pkg/log"
)

// Tenants is the folder lifecycle and engine lookup the handlers need.
type Tenants interface {
	ListFolders(ctx context.Context) ([]models.Folder, error)
	CreateFolder(ctx context.Context, name string) (*models.Folder, error)
	RemoveFolder(ctx context.Context, id uint) error
	Acquire(ctx context.Context, id uint) (*folder.Engine, func(), error)
}

type Handler struct {
	Tenants         Tenants
	MaxUploadBytes  int64
	MaxRequestBytes int64
	Log             log.LoggerService
}

// engine resolves the folderID route parameter. On failure the error
// response is already written; otherwise release must be called when the
// handler is done with the engine.
func (h *Handler) engine(w http.ResponseWriter, r *http.Request) (*folder.Engine, func(), bool) {
	id, err := idParam(r, "folderID")
	if err != nil {
		h.fail(w, r, err)
		return nil, nil, false
	}

	e, release, err := h.Tenants.Acquire(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return nil, nil, false
	}
	return e, release, true
}
