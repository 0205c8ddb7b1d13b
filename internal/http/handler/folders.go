package handler

import (
	"net/http"
)

func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.Tenants.ListFolders(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"folders": folders})
}

func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	f, err := parseFields(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	folder, err := h.Tenants.CreateFolder(r.Context(), f.get("name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, map[string]any{"folder": folder})
}

func (h *Handler) RemoveFolder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "folderID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.Tenants.RemoveFolder(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, nil)
}
