package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/blossom-engine/internal/logger"
	"github.com/jwebster45206/blossom-engine/pkg/engine"
	"github.com/jwebster45206/blossom-engine/pkg/save"
	"github.com/jwebster45206/blossom-engine/pkg/scenario"
	"github.com/jwebster45206/blossom-engine/pkg/state"
	"github.com/jwebster45206/blossom-engine/pkg/storage"
)

const (
	// maxBodyBytes bounds request bodies, including uploaded saves.
	maxBodyBytes = 1 << 20
	// lockWait is how long an event waits behind others on the same session.
	lockWait = 5 * time.Second
)

// EventPublisher fans session activity out to subscribers.
type EventPublisher interface {
	PublishSessionCreated(ctx context.Context, sessionID uuid.UUID, catalog string) error
	PublishFrames(ctx context.Context, sessionID uuid.UUID, frames []engine.Frame) error
	PublishSessionEnded(ctx context.Context, sessionID uuid.UUID, endingID, branch string) error
	PublishSessionDeleted(ctx context.Context, sessionID uuid.UUID) error
}

// SessionResponse is returned by every session operation. Frames are the
// presentation instructions produced by the request, in order.
type SessionResponse struct {
	ID       uuid.UUID             `json:"id"`
	Phase    engine.Phase          `json:"phase"`
	SceneID  string                `json:"scene_id,omitempty"`
	EndingID string                `json:"ending_id,omitempty"`
	State    *state.NarrativeState `json:"narrative_state"`
	Frames   []engine.Frame        `json:"frames"`
	Warning  string                `json:"warning,omitempty"`
}

type ChoiceRequest struct {
	ChoiceID string `json:"choice_id"`
}

type HotspotRequest struct {
	HotspotID string `json:"hotspot_id"`
}

// LoadRequest restores a session from a named slot or from an inline save.
type LoadRequest struct {
	Slot string          `json:"slot,omitempty"`
	Save json.RawMessage `json:"save,omitempty"`
}

type SessionsHandler struct {
	storage storage.Storage
	catalog *scenario.Scenario
	events  EventPublisher
	logger  *slog.Logger
}

// NewSessionsHandler creates the session handler. events may be nil.
func NewSessionsHandler(storage storage.Storage, catalog *scenario.Scenario, events EventPublisher, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{
		storage: storage,
		catalog: catalog,
		events:  events,
		logger:  logger,
	}
}

// ServeHTTP handles HTTP requests for play sessions
// Routes:
// POST   /v1/sessions                 - Start a new game
// GET    /v1/sessions/{id}            - Current view of a session
// DELETE /v1/sessions/{id}            - Delete a session
// POST   /v1/sessions/{id}/advance    - Advance the dialogue
// POST   /v1/sessions/{id}/ready      - Scene transition finished
// POST   /v1/sessions/{id}/choices    - Select a choice
// POST   /v1/sessions/{id}/hotspots   - Trigger a hotspot
// GET    /v1/sessions/{id}/save       - Download a save
// POST   /v1/sessions/{id}/load       - Load a save or slot
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	var parts []string
	if path != "" {
		parts = strings.Split(path, "/")
	}

	if len(parts) == 0 {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleCreate(w, r)
		return
	}
	if len(parts) > 2 {
		writeError(w, h.logger, http.StatusNotFound, "Unknown session route")
		return
	}

	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
		return
	}

	action := parts[1]
	if action == "save" {
		if r.Method != http.MethodGet {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
			return
		}
		h.handleSave(w, r, id)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	switch action {
	case "advance":
		h.apply(w, r, id, engine.Advance{})
	case "ready":
		h.apply(w, r, id, engine.SceneReady{})
	case "choices":
		var req ChoiceRequest
		if !h.decode(w, r, &req) {
			return
		}
		if req.ChoiceID == "" {
			writeError(w, h.logger, http.StatusBadRequest, "choice_id is required")
			return
		}
		h.apply(w, r, id, engine.ChoiceSelected{ChoiceID: req.ChoiceID})
	case "hotspots":
		var req HotspotRequest
		if !h.decode(w, r, &req) {
			return
		}
		if req.HotspotID == "" {
			writeError(w, h.logger, http.StatusBadRequest, "hotspot_id is required")
			return
		}
		h.apply(w, r, id, engine.HotspotTriggered{HotspotID: req.HotspotID})
	case "load":
		h.handleLoad(w, r, id)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown session route")
	}
}

func (h *SessionsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	id := uuid.New()
	log := logger.WithSession(h.logger, id.String())
	rec := engine.NewRecorder()
	eng := engine.New(h.catalog, rec, log)

	if err := eng.StartNewGame(); err != nil {
		log.Error("Failed to start new game", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to start new game")
		return
	}
	if !h.persist(w, r, id, eng) {
		return
	}

	log.Info("Session created", "catalog", h.catalog.Name)
	if h.events != nil {
		if err := h.events.PublishSessionCreated(r.Context(), id, h.catalog.FileName); err != nil {
			log.Warn("Failed to publish session created", "error", err)
		}
	}
	h.publish(r.Context(), id, eng, rec, false)
	writeJSON(w, h.logger, http.StatusCreated, h.response(id, eng, rec, ""))
}

func (h *SessionsHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	rec := engine.NewRecorder()
	eng, ok := h.resume(w, r, id, rec)
	if !ok {
		return
	}
	eng.Refresh()
	writeJSON(w, h.logger, http.StatusOK, h.response(id, eng, rec, ""))
}

func (h *SessionsHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	unlock, ok := h.lock(w, r, id)
	if !ok {
		return
	}
	defer unlock()

	if _, err := h.storage.LoadSession(r.Context(), id); err != nil {
		h.storageError(w, err, "Session not found")
		return
	}
	if err := h.storage.DeleteSession(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete session", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	if h.events != nil {
		if err := h.events.PublishSessionDeleted(r.Context(), id); err != nil {
			h.logger.Warn("Failed to publish session deleted", "session_id", id, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) handleSave(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	eng, ok := h.resume(w, r, id, engine.NopPresentation{})
	if !ok {
		return
	}
	blob, err := eng.Save()
	if err != nil {
		writeError(w, h.logger, statusFor(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob); err != nil {
		h.logger.Error("Failed to write save", "session_id", id, "error", err)
	}
}

func (h *SessionsHandler) handleLoad(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req LoadRequest
	if !h.decode(w, r, &req) {
		return
	}

	var blob []byte
	switch {
	case req.Slot != "":
		data, err := h.storage.LoadSlot(r.Context(), req.Slot)
		if err != nil {
			h.storageError(w, err, "Save slot not found")
			return
		}
		blob = data
	case len(req.Save) > 0:
		blob = req.Save
	default:
		writeError(w, h.logger, http.StatusBadRequest, "Either slot or save is required")
		return
	}

	h.apply(w, r, id, engine.LoadRequested{Blob: blob})
}

// apply runs one event against a stored session and persists the result.
// Rejected events leave the stored session untouched. The session lock is
// held from load to save, so concurrent events on one session apply in turn.
func (h *SessionsHandler) apply(w http.ResponseWriter, r *http.Request, id uuid.UUID, event engine.Event) {
	unlock, ok := h.lock(w, r, id)
	if !ok {
		return
	}
	defer unlock()

	rec := engine.NewRecorder()
	eng, ok := h.resume(w, r, id, rec)
	if !ok {
		return
	}
	wasEnded := eng.Phase() == engine.PhaseEnded

	var warning string
	if err := eng.Dispatch(event); err != nil {
		if !engine.IsUnknownScene(err) {
			h.logger.Debug("Event rejected", "session_id", id, "path", r.URL.Path, "error", err)
			writeError(w, h.logger, statusFor(err), err.Error())
			return
		}
		h.logger.Warn("Scene transition failed", "session_id", id, "error", err)
		warning = err.Error()
	}

	if !h.persist(w, r, id, eng) {
		return
	}
	h.publish(r.Context(), id, eng, rec, wasEnded)
	writeJSON(w, h.logger, http.StatusOK, h.response(id, eng, rec, warning))
}

func (h *SessionsHandler) lock(w http.ResponseWriter, r *http.Request, id uuid.UUID) (func(), bool) {
	ctx, cancel := context.WithTimeout(r.Context(), lockWait)
	defer cancel()

	unlock, err := h.storage.LockSession(ctx, id)
	if err != nil {
		h.storageError(w, err, "Session not found")
		return nil, false
	}
	return unlock, true
}

func (h *SessionsHandler) resume(w http.ResponseWriter, r *http.Request, id uuid.UUID, p engine.Presentation) (*engine.Engine, bool) {
	data, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		h.storageError(w, err, "Session not found")
		return nil, false
	}

	eng := engine.New(h.catalog, p, logger.WithSession(h.logger, id.String()))
	if err := eng.Resume(data); err != nil {
		logger.WithError(h.logger, err).Error("Failed to resume session", "session_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Stored session is unreadable")
		return nil, false
	}
	return eng, true
}

func (h *SessionsHandler) persist(w http.ResponseWriter, r *http.Request, id uuid.UUID, eng *engine.Engine) bool {
	data, err := eng.MarshalCheckpoint()
	if err == nil {
		err = h.storage.SaveSession(r.Context(), id, data)
	}
	if err != nil {
		logger.WithError(h.logger, err).Error("Failed to persist session", "session_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save session")
		return false
	}
	return true
}

func (h *SessionsHandler) publish(ctx context.Context, id uuid.UUID, eng *engine.Engine, rec *engine.Recorder, wasEnded bool) {
	if h.events == nil {
		return
	}
	if err := h.events.PublishFrames(ctx, id, rec.Frames()); err != nil {
		h.logger.Warn("Failed to publish frames", "session_id", id, "error", err)
	}
	if !wasEnded && eng.Phase() == engine.PhaseEnded {
		branch := string(eng.State().CurrentBranch)
		if err := h.events.PublishSessionEnded(ctx, id, eng.EndingID(), branch); err != nil {
			h.logger.Warn("Failed to publish session ended", "session_id", id, "error", err)
		}
	}
}

func (h *SessionsHandler) response(id uuid.UUID, eng *engine.Engine, rec *engine.Recorder, warning string) SessionResponse {
	return SessionResponse{
		ID:       id,
		Phase:    eng.Phase(),
		SceneID:  eng.SceneID(),
		EndingID: eng.EndingID(),
		State:    eng.State(),
		Frames:   rec.Frames(),
		Warning:  warning,
	}
}

func (h *SessionsHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *SessionsHandler) storageError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, h.logger, http.StatusNotFound, notFound)
		return
	case errors.Is(err, storage.ErrSessionBusy):
		h.logger.Warn("Session lock wait timed out", "error", err)
		writeError(w, h.logger, http.StatusConflict, "Session is busy, try again")
		return
	}
	h.logger.Error("Storage failure", "error", err)
	writeError(w, h.logger, http.StatusInternalServerError, "Storage failure")
}

// statusFor maps engine and save errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownChoice), errors.Is(err, engine.ErrUnknownHotspot), save.IsCorrupt(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrSessionEnded),
		errors.Is(err, engine.ErrNotChoosing),
		errors.Is(err, engine.ErrSceneLoading),
		errors.Is(err, engine.ErrNoScene):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
