package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/bondcheck/internal/core"
)

// UploadResponse is returned by the JSON upload endpoints.
type UploadResponse struct {
	Category core.Category `json:"category"`
	FileName string        `json:"fileName"`
	Count    int           `json:"count"`
	Loaded   bool          `json:"loaded"`
}

// readUpload reads the multipart "file" field, enforcing the size limit.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	maxSize := s.cfg.Upload.MaxFileSize

	// Leave room for multipart headers around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+64<<10)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, fmt.Errorf("%w: %w", core.ErrFileTooLarge, err)
		}
		return "", nil, fmt.Errorf("%w: %w", errNoFile, err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", errNoFile, err)
	}
	defer file.Close()

	if header.Size > maxSize {
		return "", nil, fmt.Errorf("%w: %d bytes", core.ErrFileTooLarge, header.Size)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", core.ErrReadFailure, err)
	}
	return header.Filename, data, nil
}

// load reads the upload into the request's session.
func (s *Server) load(w http.ResponseWriter, r *http.Request, c core.Category) (string, error) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		return "", err
	}
	if err := sessionFrom(r.Context()).Load(r.Context(), c, name, data); err != nil {
		return name, err
	}
	return name, nil
}

// handleUploadForm loads a list from the page's upload form and returns to the page.
func (s *Server) handleUploadForm(c core.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.load(w, r, c); err != nil {
			respondError(w, r, err, statusFor(err))
			return
		}
		redirectToPage(w, r, "#"+string(c))
	}
}

// handleUploadAPI loads a list and reports how many entries it holds.
func (s *Server) handleUploadAPI(c core.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := s.load(w, r, c)
		if err != nil {
			respondError(w, r, err, statusFor(err))
			return
		}

		snap := sessionFrom(r.Context()).Snapshot()
		count := len(snap.Own)
		if c == core.CategoryWinning {
			count = len(snap.Winning)
		}
		writeJSON(w, http.StatusOK, UploadResponse{
			Category: c,
			FileName: name,
			Count:    count,
			Loaded:   true,
		})
	}
}

// redirectToPage sends the browser back to the index page after a form post.
func redirectToPage(w http.ResponseWriter, r *http.Request, fragment string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/"+fragment)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/"+fragment, http.StatusSeeOther)
}
