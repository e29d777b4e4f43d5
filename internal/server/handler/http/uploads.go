package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/atinyakov/herbcatalog/internal/models"
)

// FileOpener opens stored upload files by name.
type FileOpener interface {
	Open(name string) (afero.File, error)
}

// UploadsHandler serves stored images.
type UploadsHandler struct {
	Files FileOpener
	Log   *zap.Logger
}

// Serve handles GET {public_prefix}/{name}. The content type is detected
// from the file content, not from its extension.
func (h *UploadsHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	f, err := h.Files.Open(name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "File not found"})
			return
		}
		writeError(w, h.Log, err)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		writeError(w, h.Log, models.StorageError("stat upload", err))
		return
	}
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		writeError(w, h.Log, models.StorageError("detect content type", err))
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		writeError(w, h.Log, models.StorageError("rewind upload", err))
		return
	}

	w.Header().Set("Content-Type", mt.String())
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, name, info.ModTime(), f)
}
