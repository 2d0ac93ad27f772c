package http

import (
	"net/http"
	"os"
	"path"

	"github.com/gorilla/mux"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/service"
)

// FileOpener reads back uploads kept on the local filesystem.
type FileOpener interface {
	Open(key string) (*os.File, error)
}

// fileHandler accepts admin uploads and serves locally stored files.
type fileHandler struct {
	images   service.ImageService
	files    FileOpener
	maxBytes int64
}

// upload handles multipart form posts with a "file" part and a "folder" field.
func (h *fileHandler) upload(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart envelope so the service reports the size error.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, r, domain.NewValidationError("file", "invalid or oversized multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, domain.NewValidationError("file", "is required"))
		return
	}
	defer file.Close()

	log := logger.FromContext(r.Context())
	lastQuarter := int64(0)
	progress := func(written, total int64) {
		if total <= 0 {
			return
		}
		if q := written * 4 / total; q > lastQuarter {
			lastQuarter = q
			log.Debug("Upload progress", "file", header.Filename, "percent", q*25)
		}
	}

	uploaded, err := h.images.UploadImage(r.Context(), r.FormValue("folder"), header.Filename,
		header.Header.Get("Content-Type"), file, header.Size, progress)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploaded)
}

func (h *fileHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.images.DeleteImage(r.Context(), mux.Vars(r)["key"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *fileHandler) serve(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["path"]
	file, err := h.files.Open(key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "file not found", Code: "not_found"})
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeContent(w, r, path.Base(key), info.ModTime(), file)
}
