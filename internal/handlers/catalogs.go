package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/blossom-engine/pkg/storage"
)

type CatalogHandler struct {
	log     *slog.Logger
	storage storage.Storage
}

func NewCatalogHandler(log *slog.Logger, storage storage.Storage) *CatalogHandler {
	return &CatalogHandler{
		log:     log,
		storage: storage,
	}
}

// ServeHTTP lists catalogs at /v1/catalogs and returns one at /v1/catalogs/{filename}.
func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	filename := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/catalogs"), "/")
	if filename == "" {
		list, err := h.storage.ListCatalogs(r.Context())
		if err != nil {
			h.log.Error("Failed to list catalogs", "error", err)
			writeError(w, h.log, http.StatusInternalServerError, "Failed to list catalogs")
			return
		}
		writeJSON(w, h.log, http.StatusOK, list)
		return
	}

	if strings.Contains(filename, "..") || strings.Contains(filename, "/") {
		writeError(w, h.log, http.StatusBadRequest, "Invalid filename")
		return
	}

	catalog, err := h.storage.GetCatalog(r.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.log, http.StatusNotFound, "Catalog not found")
			return
		}
		h.log.Error("Failed to get catalog", "error", err, "filename", filename)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to retrieve catalog")
		return
	}
	writeJSON(w, h.log, http.StatusOK, catalog)
}
