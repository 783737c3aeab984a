package server

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"Slidecast/logger"
	"Slidecast/model"
	"Slidecast/storage"

	"github.com/gorilla/mux"
)

// Archive stores rendered artifacts and serves them back.
type Archive interface {
	Put(ctx context.Context, kind string, art *model.Artifact) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error)
}

// ArtifactHandler streams an archived video from object storage.
func (h *Handler) ArtifactHandler(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	if h.archive == nil || !storage.ValidKey(key) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	object, info, err := h.archive.Open(ctx, key)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		logger.Error("Error opening archived artifact", logger.String("key", key), logger.ErrorField(err))
		http.Error(w, "Archive unavailable", http.StatusBadGateway)
		return
	}
	defer object.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = model.ContentTypeMP4
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	if !info.LastModified.IsZero() {
		w.Header().Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
	if download, _ := strconv.ParseBool(r.URL.Query().Get("download")); download {
		w.Header().Set("Content-Disposition", "attachment")
	}

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, object); err != nil {
		logger.Error("Error serving file from MinIO", logger.String("key", key), logger.ErrorField(err))
	}
}
