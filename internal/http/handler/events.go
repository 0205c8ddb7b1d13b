package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mwantia/evtrec/pkg/errs"
	"github.com/mwantia/evtrec/pkg/folder"
)

func eventInput(f fields) folder.EventInput {
	return folder.EventInput{
		EventDate:   f.lookup("event_date"),
		Name:        f.lookup("name"),
		Description: f.lookup("description"),
		Remark:      f.lookup("remark"),
	}
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	e, release, found := h.engine(w, r)
	if !found {
		return
	}
	defer release()

	var tagID uint
	if raw := strings.TrimSpace(r.URL.Query().Get("tag_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.fail(w, r, errs.Newf(errs.Validation, "invalid tag_id '%s'", raw))
			return
		}
		tagID = uint(id)
	}

	events, err := e.ListEvents(r.Context(), r.URL.Query().Get("q"), tagID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	e, release, found := h.engine(w, r)
	if !found {
		return
	}
	defer release()

	id, err := idParam(r, "eventID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	event, err := e.GetEvent(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"event": event})
}

// CreateEvent stores a new event and, when tags_csv is sent, its tags.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
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

	event, err := e.CreateEvent(r.Context(), eventInput(f))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if csv := f.lookup("tags_csv"); csv != nil {
		if err := e.SetEventTags(r.Context(), event.ID, splitTags(*csv)); err != nil {
			h.fail(w, r, err)
			return
		}
		if event, err = e.GetEvent(r.Context(), event.ID); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	ok(w, http.StatusCreated, map[string]any{"event": event})
}

// UpdateEvent overlays the sent fields. A sent tags_csv, even an empty one,
// replaces all tags; an absent one keeps them.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	e, release, found := h.engine(w, r)
	if !found {
		return
	}
	defer release()

	id, err := idParam(r, "eventID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	f, err := parseFields(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	event, err := e.UpdateEvent(r.Context(), id, eventInput(f))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if csv := f.lookup("tags_csv"); csv != nil {
		if err := e.SetEventTags(r.Context(), id, splitTags(*csv)); err != nil {
			h.fail(w, r, err)
			return
		}
		if event, err = e.GetEvent(r.Context(), id); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	ok(w, http.StatusOK, map[string]any{"event": event})
}

func (h *Handler) LinkFile(w http.ResponseWriter, r *http.Request) {
	e, release, found := h.engine(w, r)
	if !found {
		return
	}
	defer release()

	id, err := idParam(r, "eventID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	f, err := parseFields(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = e.LinkFile(r.Context(), id, folder.FileLink{
		FileURL:     f.get("file_url"),
		LocalPath:   f.get("local_path"),
		DisplayName: f.get("display_name"),
		FileType:    f.get("file_type"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	event, err := e.GetEvent(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"event": event})
}

func (h *Handler) RemoveEventFile(w http.ResponseWriter, r *http.Request) {
	e, release, found := h.engine(w, r)
	if !found {
		return
	}
	defer release()

	id, err := idParam(r, "eventFileID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := e.RemoveEventFile(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, nil)
}
