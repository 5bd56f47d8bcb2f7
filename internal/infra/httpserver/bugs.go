package httpserver

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appbugs "github.com/bryanwahyu/auditlens/internal/application/bugs"
	dombugs "github.com/bryanwahyu/auditlens/internal/domain/bugs"
	"github.com/bryanwahyu/auditlens/internal/middleware"
)

// GET /v1/bugs?limit=20
func (r *Router) handleListBugs(w http.ResponseWriter, req *http.Request) error {
	list, err := r.bugsSvc.List(req.Context(), queryLimit(req))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*dombugs.Bug{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /v1/bugs (multipart: file, name, description)
func (r *Router) handleUploadBug(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return badRequestf("invalid multipart form: %s", err)
	}
	defer req.MultipartForm.RemoveAll()

	file, header, err := req.FormFile("file")
	if err != nil {
		return badRequestf("form field file is required")
	}
	defer file.Close()

	bug, err := r.bugsSvc.Upload(req.Context(), appbugs.UploadCommand{
		Name:        middleware.SanitizeString(req.FormValue("name")),
		Filename:    middleware.SanitizeString(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Description: middleware.SanitizeString(req.FormValue("description")),
		Body:        file,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, bug)
}

// GET /v1/bugs/{id}
func (r *Router) handleGetBug(w http.ResponseWriter, req *http.Request) error {
	id, err := bugID(req)
	if err != nil {
		return err
	}
	bug, err := r.bugsSvc.Get(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, bug)
}

// GET /v1/bugs/{id}/download
func (r *Router) handleDownloadBug(w http.ResponseWriter, req *http.Request) error {
	id, err := bugID(req)
	if err != nil {
		return err
	}
	bug, rc, err := r.bugsSvc.Download(req.Context(), id)
	if err != nil {
		return err
	}
	defer rc.Close()

	filename := bug.Filename
	if filename == "" {
		filename = string(bug.ID)
	}
	w.Header().Set("Content-Type", bug.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(bug.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("ETag", fmt.Sprintf("%q", bug.ContentHash))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		// headers are gone; nothing useful to send back
		r.logger.Warn("download interrupted", "id", bug.ID, "error", err)
	}
	return nil
}

func bugID(req *http.Request) (dombugs.BugID, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateBugID(id); err != nil {
		return "", badRequestf("%s", err)
	}
	return dombugs.BugID(id), nil
}
