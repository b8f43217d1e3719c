package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/blossom-engine/pkg/save"
	"github.com/jwebster45206/blossom-engine/pkg/scenario"
	"github.com/jwebster45206/blossom-engine/pkg/storage"
)

type SlotsHandler struct {
	storage storage.Storage
	catalog *scenario.Scenario
	logger  *slog.Logger
}

func NewSlotsHandler(storage storage.Storage, catalog *scenario.Scenario, logger *slog.Logger) *SlotsHandler {
	return &SlotsHandler{
		storage: storage,
		catalog: catalog,
		logger:  logger,
	}
}

// ServeHTTP handles named save slots
// Routes:
// GET    /v1/slots         - List slots
// GET    /v1/slots/{name}  - Download a save
// PUT    /v1/slots/{name}  - Store a save; the body must be a valid save for the loaded catalog
// DELETE /v1/slots/{name}  - Delete a slot
func (h *SlotsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/slots"), "/")

	if name == "" {
		if r.Method != http.MethodGet {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
			return
		}
		h.handleList(w, r)
		return
	}

	if !scenario.IsValidID(name) {
		writeError(w, h.logger, http.StatusBadRequest, "Slot names must be lowercase kebab or snake case")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r, name)
	case http.MethodPut:
		h.handlePut(w, r, name)
	case http.MethodDelete:
		h.handleDelete(w, r, name)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, PUT, DELETE")
	}
}

func (h *SlotsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	slots, err := h.storage.ListSlots(r.Context())
	if err != nil {
		h.logger.Error("Failed to list slots", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list slots")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"slots": slots})
}

func (h *SlotsHandler) handleGet(w http.ResponseWriter, r *http.Request, name string) {
	blob, err := h.storage.LoadSlot(r.Context(), name)
	if err != nil {
		h.slotError(w, name, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob); err != nil {
		h.logger.Error("Failed to write slot", "slot", name, "error", err)
	}
}

func (h *SlotsHandler) handlePut(w http.ResponseWriter, r *http.Request, name string) {
	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if _, err := save.Decode(blob, h.catalog); err != nil {
		h.logger.Warn("Rejected save upload", "slot", name, "error", err)
		writeError(w, h.logger, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.storage.SaveSlot(r.Context(), name, blob); err != nil {
		h.logger.Error("Failed to save slot", "slot", name, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save slot")
		return
	}
	h.logger.Info("Save slot written", "slot", name, "size", len(blob))
	writeJSON(w, h.logger, http.StatusOK, storage.SlotInfo{Name: name, Size: len(blob)})
}

func (h *SlotsHandler) handleDelete(w http.ResponseWriter, r *http.Request, name string) {
	if err := h.storage.DeleteSlot(r.Context(), name); err != nil {
		h.slotError(w, name, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SlotsHandler) slotError(w http.ResponseWriter, name string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Save slot not found")
		return
	}
	h.logger.Error("Slot storage failure", "slot", name, "error", err)
	writeError(w, h.logger, http.StatusInternalServerError, "Storage failure")
}
