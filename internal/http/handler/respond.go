package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mwantia/evtrec/pkg/errs"
)

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ok writes the success envelope {"ok": true, ...}.
func ok(w http.ResponseWriter, status int, body map[string]any) {
	if body == nil {
		body = map[string]any{}
	}
	body["ok"] = true
	writeJSON(w, status, body)
}

// StatusOf maps an error kind onto an HTTP status code.
func StatusOf(err error) int {
	switch errs.KindOf(err) {
	case errs.Validation:
		return http.StatusBadRequest
	case errs.NotFound:
		return http.StatusNotFound
	case errs.Safety:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error envelope {"ok": false, "error": "..."}. Storage
// failures are logged and reported without internal details.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)

	msg := errs.Message(err)
	if status == http.StatusInternalServerError {
		h.Log.Error("%s %s failed: %v", r.Method, r.URL.Path, err)
		msg = "internal storage error"
	}

	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

// idParam parses a positive numeric route parameter.
func idParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errs.Newf(errs.Validation, "invalid %s '%s'", name, raw)
	}
	return uint(id), nil
}

// fields holds request parameters from either a JSON object or a form body.
type fields map[string]string

func parseFields(r *http.Request) (fields, error) {
	out := fields{}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, errs.Wrap(errs.Validation, "invalid json body", err)
		}
		for key, value := range raw {
			switch v := value.(type) {
			case nil:
			case string:
				out[key] = v
			case float64:
				out[key] = strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				out[key] = strconv.FormatBool(v)
			case []any:
				parts := make([]string, 0, len(v))
				for _, item := range v {
					if s, ok := item.(string); ok {
						parts = append(parts, s)
					}
				}
				out[key] = strings.Join(parts, ",")
			default:
				return nil, errs.Newf(errs.Validation, "unsupported value for '%s'", key)
			}
		}
		return out, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, errs.Wrap(errs.Validation, "invalid form body", err)
	}
	for key, values := range r.PostForm {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out, nil
}

func (f fields) get(key string) string {
	return f[key]
}

// lookup returns nil when key was not sent at all.
func (f fields) lookup(key string) *string {
	if v, ok := f[key]; ok {
		return &v
	}
	return nil
}

// splitTags splits a comma separated tag list, dropping blank entries.
func splitTags(csv string) []string {
	var names []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}
