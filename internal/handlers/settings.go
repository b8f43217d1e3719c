package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/blossom-engine/pkg/settings"
	"github.com/jwebster45206/blossom-engine/pkg/storage"
)

type SettingsHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewSettingsHandler(storage storage.Storage, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{storage: storage, logger: logger}
}

// ServeHTTP handles player preferences
// GET /v1/settings, PUT /v1/settings
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s, err := h.storage.LoadSettings(r.Context())
		if err != nil {
			h.logger.Error("Failed to load settings", "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to load settings")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, s)

	case http.MethodPut:
		s := settings.Default()
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&s); err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := s.Validate(); err != nil {
			writeError(w, h.logger, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if err := h.storage.SaveSettings(r.Context(), s); err != nil {
			h.logger.Error("Failed to save settings", "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to save settings")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, s)

	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, PUT")
	}
}
