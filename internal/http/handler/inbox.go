package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mwantia/evtrec/pkg/errs"
	"github.com/mwantia/evtrec/pkg/folder"
	"github.com/mwantia/evtrec/pkg/pathsafe"
)

func (h *Handler) ListInbox(w http.ResponseWriter, r *http.Request) {
	e, release, found := h.engine(w, r)
	if !found {
		return
	}
	defer release()

	files, err := e.ListInboxFiles(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"files": files})
}

// UploadInbox streams every "files" part of a multipart body into a spool
// file and hands the batch to the engine.
func (h *Handler) UploadInbox(w http.ResponseWriter, r *http.Request) {
	e, release, found := h.engine(w, r)
	if !found {
		return
	}
	defer release()

	if h.MaxRequestBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxRequestBytes)
	}

	reader, err := r.MultipartReader()
	if err != nil {
		h.fail(w, r, errs.Wrap(errs.Validation, "multipart body required", err))
		return
	}

	var incoming []folder.IncomingFile
	defer func() {
		// Saved files were moved away; this only drops skipped spools
		for _, in := range incoming {
			if in.TempPath != "" {
				os.Remove(in.TempPath)
			}
		}
	}()

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.failBody(w, r, err)
			return
		}

		name := part.FormName()
		if (name != "files" && name != "files[]") || part.FileName() == "" {
			part.Close()
			continue
		}

		in := h.spool(e, part)
		incoming = append(incoming, in)
		part.Close()

		if tooLarge(in.Err) {
			h.failBody(w, r, in.Err)
			return
		}
	}

	saved, err := e.SaveUploads(r.Context(), incoming)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"files": saved})
}

// failBody answers 413 once the request exceeded MaxRequestBytes and 400 for
// any other multipart error.
func (h *Handler) failBody(w http.ResponseWriter, r *http.Request, err error) {
	if tooLarge(err) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
			"ok":    false,
			"error": fmt.Sprintf("request body exceeds %d bytes", h.MaxRequestBytes),
		})
		return
	}
	h.fail(w, r, errs.Wrap(errs.Validation, "malformed multipart body", err))
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// spool copies a part into a temporary file, reading at most one byte past
// the upload limit so oversized files can be rejected without buffering them.
func (h *Handler) spool(e *folder.Engine, part *multipart.Part) folder.IncomingFile {
	in := folder.IncomingFile{Name: part.FileName()}

	f, err := e.CreateTemp()
	if err != nil {
		in.Err = err
		return in
	}
	in.TempPath = f.Name()

	in.Size, err = io.Copy(f, io.LimitReader(part, h.MaxUploadBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	in.Err = err

	return in
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	e, release, found := h.engine(w, r)
	if !found {
		return
	}
	defer release()

	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	f, file, err := e.OpenInboxFile(r.Context(), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer f.Close()

	_, ext := pathsafe.SplitExt(file.DisplayName)
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": file.DisplayName}))
	http.ServeContent(w, r, file.DisplayName, time.Unix(file.MTime, 0), f)
}
