package handler

import "net/http"

func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	e, release, found := h.engine(w, r)
	if !found {
		return
	}
	defer release()

	tags, err := e.ListTags(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"tags": tags})
}

func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	e, release, found := h.engine(w, r)
	if !found {
		return
	}
	defer release()

	f, err := parseFields(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	tag, err := e.CreateTag(r.Context(), f.get("name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, map[string]any{"tag": tag})
}
