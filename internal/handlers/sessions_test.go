package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/blossom-engine/internal/content"
	"github.com/jwebster45206/blossom-engine/pkg/engine"
	"github.com/jwebster45206/blossom-engine/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type publishedEnding struct {
	endingID string
	branch   string
}

// fakePublisher records what the handler publishes.
type fakePublisher struct {
	mu      sync.Mutex
	created []uuid.UUID
	frames  int
	endings []publishedEnding
	deleted []uuid.UUID
}

func (f *fakePublisher) PublishSessionCreated(ctx context.Context, id uuid.UUID, catalog string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, id)
	return nil
}

func (f *fakePublisher) PublishFrames(ctx context.Context, id uuid.UUID, frames []engine.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames += len(frames)
	return nil
}

func (f *fakePublisher) PublishSessionEnded(ctx context.Context, id uuid.UUID, endingID, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endings = append(f.endings, publishedEnding{endingID: endingID, branch: branch})
	return nil
}

func (f *fakePublisher) PublishSessionDeleted(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type sessionsFixture struct {
	handler *SessionsHandler
	store   *storage.MockStorage
	events  *fakePublisher
}

func newSessionsFixture(t *testing.T) *sessionsFixture {
	t.Helper()
	store := storage.NewMockStorage()
	events := &fakePublisher{}
	return &sessionsFixture{
		handler: NewSessionsHandler(store, content.MustPeachBlossom(), events, testLogger()),
		store:   store,
		events:  events,
	}
}

func (f *sessionsFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decodeSession(t *testing.T, rr *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var resp SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp), rr.Body.String())
	return resp
}

func (f *sessionsFixture) create(t *testing.T) SessionResponse {
	t.Helper()
	rr := f.do(t, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeSession(t, rr)
}

func (f *sessionsFixture) post(t *testing.T, id uuid.UUID, action string, body any) SessionResponse {
	t.Helper()
	rr := f.do(t, http.MethodPost, "/v1/sessions/"+id.String()+"/"+action, body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decodeSession(t, rr)
}

func (f *sessionsFixture) advanceToChoice(t *testing.T, id uuid.UUID) SessionResponse {
	t.Helper()
	for i := 0; i < 20; i++ {
		resp := f.post(t, id, "advance", nil)
		if resp.Phase == engine.PhaseChoosing {
			return resp
		}
	}
	t.Fatal("never reached a choice point")
	return SessionResponse{}
}

func (f *sessionsFixture) choose(t *testing.T, id uuid.UUID, choiceID string) SessionResponse {
	t.Helper()
	resp := f.post(t, id, "choices", ChoiceRequest{ChoiceID: choiceID})
	if resp.Phase == engine.PhaseLoading {
		resp = f.post(t, id, "ready", nil)
	}
	return resp
}

func lastChoices(frames []engine.Frame) []string {
	var ids []string
	for _, fr := range frames {
		if fr.Kind == engine.FrameChoices {
			ids = ids[:0]
			for _, c := range fr.Choices {
				ids = append(ids, c.ID)
			}
		}
	}
	return ids
}

func kindsOf(frames []engine.Frame) []engine.FrameKind {
	kinds := make([]engine.FrameKind, 0, len(frames))
	for _, fr := range frames {
		kinds = append(kinds, fr.Kind)
	}
	return kinds
}

func TestSessionsHandler_Create(t *testing.T) {
	f := newSessionsFixture(t)

	resp := f.create(t)
	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, engine.PhaseLoading, resp.Phase)
	assert.Equal(t, "scene1", resp.SceneID)
	assert.Equal(t, []string{"scene1"}, resp.State.VisitedScenes)
	assert.Contains(t, kindsOf(resp.Frames), engine.FrameCounters)
	assert.Contains(t, kindsOf(resp.Frames), engine.FrameScene)

	_, err := f.store.LoadSession(context.Background(), resp.ID)
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{resp.ID}, f.events.created)
}

func TestSessionsHandler_ReadyShowsFirstStep(t *testing.T) {
	f := newSessionsFixture(t)
	created := f.create(t)

	resp := f.post(t, created.ID, "ready", nil)
	assert.Equal(t, engine.PhaseDialogue, resp.Phase)
	kinds := kindsOf(resp.Frames)
	assert.Equal(t, engine.FrameHotspots, kinds[0])
	assert.Equal(t, engine.FrameNarration, kinds[len(kinds)-1])
}

func TestSessionsHandler_HiddenEnding(t *testing.T) {
	f := newSessionsFixture(t)
	id := f.create(t).ID
	f.post(t, id, "ready", nil)

	for _, hs := range []string{"withered-1", "withered-2", "withered-3"} {
		f.post(t, id, "hotspots", HotspotRequest{HotspotID: hs})
	}

	f.advanceToChoice(t, id)
	f.choose(t, id, "enter-cave")

	resp := f.advanceToChoice(t, id)
	assert.Contains(t, lastChoices(resp.Frames), "question-reality")

	f.choose(t, id, "question-reality")
	f.advanceToChoice(t, id)
	f.choose(t, id, "continue-to-scene3")

	resp = f.advanceToChoice(t, id)
	assert.Equal(t, []string{"promise-keep", "greed-tell", "suspicion-dark"}, lastChoices(resp.Frames))

	resp = f.post(t, id, "choices", ChoiceRequest{ChoiceID: "suspicion-dark"})
	assert.Equal(t, engine.PhaseEnded, resp.Phase)
	assert.Equal(t, "C", resp.EndingID)
	assert.EqualValues(t, "truth", resp.State.CurrentBranch)
	assert.Equal(t, []publishedEnding{{endingID: "C", branch: "truth"}}, f.events.endings)

	rr := f.do(t, http.MethodPost, "/v1/sessions/"+id.String()+"/advance", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Len(t, f.events.endings, 1, "rejected events must not republish the ending")
}

func TestSessionsHandler_ConcurrentHotspots(t *testing.T) {
	for run := 0; run < 10; run++ {
		f := newSessionsFixture(t)
		id := f.create(t).ID
		f.post(t, id, "ready", nil)
		f.store.SetLoadDelay(2 * time.Millisecond)

		clicks := []string{"withered-1", "withered-2", "withered-3", "withered-3"}
		recorders := make([]*httptest.ResponseRecorder, len(clicks))
		var wg sync.WaitGroup
		for i, hs := range clicks {
			body, err := json.Marshal(HotspotRequest{HotspotID: hs})
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+id.String()+"/hotspots", bytes.NewReader(body))
			recorders[i] = httptest.NewRecorder()

			wg.Add(1)
			go func(rr *httptest.ResponseRecorder) {
				defer wg.Done()
				f.handler.ServeHTTP(rr, req)
			}(recorders[i])
		}
		wg.Wait()

		flickers := 0
		for _, rr := range recorders {
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			for _, fr := range decodeSession(t, rr).Frames {
				if fr.Kind == engine.FrameEffect && fr.Effect == engine.EffectFlicker {
					flickers++
				}
			}
		}

		f.store.SetLoadDelay(0)
		rr := f.do(t, http.MethodGet, "/v1/sessions/"+id.String(), nil)
		require.Equal(t, http.StatusOK, rr.Code)
		st := decodeSession(t, rr).State
		assert.Equal(t, 3, st.WitheredCount, "run %d lost an increment", run)
		assert.True(t, st.HiddenBranchUnlocked, "run %d", run)
		assert.Equal(t, 1, flickers, "run %d", run)
	}
}

func TestSessionsHandler_BusySession(t *testing.T) {
	f := newSessionsFixture(t)
	id := f.create(t).ID

	unlock, err := f.store.LockSession(context.Background(), id)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+id.String()+"/ready", nil).WithContext(ctx)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "busy")

	data, err := f.store.LoadSession(context.Background(), id)
	require.NoError(t, err)
	eng := engine.New(content.MustPeachBlossom(), nil, testLogger())
	require.NoError(t, eng.Resume(data))
	assert.Equal(t, engine.PhaseLoading, eng.Phase(), "a busy session is left as it was")
}

func TestSessionsHandler_UnreadableSession(t *testing.T) {
	f := newSessionsFixture(t)
	id := uuid.New()
	require.NoError(t, f.store.SaveSession(context.Background(), id, []byte("garbage")))

	rr := f.do(t, http.MethodPost, "/v1/sessions/"+id.String()+"/advance", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Stored session is unreadable")

	data, err := f.store.LoadSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []byte("garbage"), data)
}

func TestSessionsHandler_RejectedEventsLeaveSessionUntouched(t *testing.T) {
	f := newSessionsFixture(t)
	id := f.create(t).ID
	f.post(t, id, "ready", nil)

	before, err := f.store.LoadSession(context.Background(), id)
	require.NoError(t, err)

	tests := []struct {
		name           string
		action         string
		body           any
		expectedStatus int
	}{
		{name: "choice while in dialogue", action: "choices", body: ChoiceRequest{ChoiceID: "enter-cave"}, expectedStatus: http.StatusConflict},
		{name: "unknown hotspot", action: "hotspots", body: HotspotRequest{HotspotID: "moon"}, expectedStatus: http.StatusUnprocessableEntity},
		{name: "missing choice id", action: "choices", body: ChoiceRequest{}, expectedStatus: http.StatusBadRequest},
		{name: "missing hotspot id", action: "hotspots", body: nil, expectedStatus: http.StatusBadRequest},
		{name: "unknown body field", action: "choices", body: `{"choice":"x"}`, expectedStatus: http.StatusBadRequest},
		{name: "corrupt inline save", action: "load", body: `{"save":{"version":99}}`, expectedStatus: http.StatusUnprocessableEntity},
		{name: "corrupt save string", action: "load", body: `{"save":"not a save"}`, expectedStatus: http.StatusUnprocessableEntity},
		{name: "load without source", action: "load", body: `{}`, expectedStatus: http.StatusBadRequest},
		{name: "missing slot", action: "load", body: LoadRequest{Slot: "nowhere"}, expectedStatus: http.StatusNotFound},
		{name: "unknown action", action: "dance", body: nil, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/v1/sessions/"+id.String()+"/"+tt.action, tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())

			var errResp ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
			assert.NotEmpty(t, errResp.Error)

			after, err := f.store.LoadSession(context.Background(), id)
			require.NoError(t, err)
			assert.JSONEq(t, string(before), string(after))
		})
	}
}

func TestSessionsHandler_UnknownChoice(t *testing.T) {
	f := newSessionsFixture(t)
	id := f.create(t).ID
	f.post(t, id, "ready", nil)
	f.advanceToChoice(t, id)

	rr := f.do(t, http.MethodPost, "/v1/sessions/"+id.String()+"/choices", ChoiceRequest{ChoiceID: "fly-away"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	read := f.do(t, http.MethodGet, "/v1/sessions/"+id.String(), nil)
	require.Equal(t, http.StatusOK, read.Code)
	assert.Equal(t, engine.PhaseChoosing, decodeSession(t, read).Phase)
}

func TestSessionsHandler_SaveAndLoadSlot(t *testing.T) {
	f := newSessionsFixture(t)
	id := f.create(t).ID
	f.post(t, id, "ready", nil)
	f.post(t, id, "hotspots", HotspotRequest{HotspotID: "withered-1"})
	f.advanceToChoice(t, id)
	f.choose(t, id, "enter-cave")
	f.post(t, id, "advance", nil)

	rr := f.do(t, http.MethodGet, "/v1/sessions/"+id.String()+"/save", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	blob := rr.Body.Bytes()
	require.NoError(t, f.store.SaveSlot(context.Background(), "chapter-two", blob))

	other := f.create(t).ID
	resp := f.post(t, other, "load", LoadRequest{Slot: "chapter-two"})
	assert.Equal(t, engine.PhaseLoading, resp.Phase)
	assert.Equal(t, "scene2", resp.SceneID)
	assert.Equal(t, 1, resp.State.WitheredCount)
	assert.Equal(t, []string{"enter-cave"}, resp.State.ChoiceHistory)

	resp = f.post(t, other, "ready", nil)
	assert.Equal(t, engine.PhaseDialogue, resp.Phase)
	last := resp.Frames[len(resp.Frames)-1]
	assert.Equal(t, engine.FrameLine, last.Kind, "the step on screen at save time is shown again")

	original := f.do(t, http.MethodGet, "/v1/sessions/"+id.String(), nil)
	restored := f.do(t, http.MethodGet, "/v1/sessions/"+other.String(), nil)
	assert.Equal(t, decodeSession(t, original).State, decodeSession(t, restored).State)
}

func TestSessionsHandler_LoadInlineSave(t *testing.T) {
	f := newSessionsFixture(t)
	id := f.create(t).ID
	f.post(t, id, "ready", nil)

	rr := f.do(t, http.MethodGet, "/v1/sessions/"+id.String()+"/save", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := `{"save":` + rr.Body.String() + `}`
	resp := f.post(t, id, "load", body)
	assert.Equal(t, engine.PhaseLoading, resp.Phase)
	assert.Equal(t, "scene1", resp.SceneID)
}

func TestSessionsHandler_SaveAfterEnding(t *testing.T) {
	f := newSessionsFixture(t)
	id := f.create(t).ID
	f.post(t, id, "ready", nil)
	f.advanceToChoice(t, id)
	f.choose(t, id, "enter-cave")
	f.advanceToChoice(t, id)
	f.choose(t, id, "accept-wine")
	f.advanceToChoice(t, id)
	f.choose(t, id, "continue-to-scene3")
	f.advanceToChoice(t, id)
	resp := f.post(t, id, "choices", ChoiceRequest{ChoiceID: "promise-keep"})
	require.Equal(t, engine.PhaseEnded, resp.Phase)
	assert.Equal(t, "A", resp.EndingID)

	rr := f.do(t, http.MethodGet, "/v1/sessions/"+id.String()+"/save", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestSessionsHandler_Read(t *testing.T) {
	f := newSessionsFixture(t)
	id := f.create(t).ID
	f.post(t, id, "ready", nil)
	f.advanceToChoice(t, id)

	rr := f.do(t, http.MethodGet, "/v1/sessions/"+id.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeSession(t, rr)
	assert.Equal(t, engine.PhaseChoosing, resp.Phase)
	assert.Equal(t, []string{"enter-cave"}, lastChoices(resp.Frames))
	assert.Equal(t, engine.FrameCounters, resp.Frames[0].Kind)
}

func TestSessionsHandler_Delete(t *testing.T) {
	f := newSessionsFixture(t)
	id := f.create(t).ID

	rr := f.do(t, http.MethodDelete, "/v1/sessions/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []uuid.UUID{id}, f.events.deleted)

	rr = f.do(t, http.MethodGet, "/v1/sessions/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, http.MethodDelete, "/v1/sessions/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionsHandler_Routing(t *testing.T) {
	f := newSessionsFixture(t)
	id := f.create(t).ID.String()

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{name: "list not supported", method: http.MethodGet, path: "/v1/sessions", expectedStatus: http.StatusMethodNotAllowed},
		{name: "invalid id", method: http.MethodGet, path: "/v1/sessions/not-a-uuid", expectedStatus: http.StatusBadRequest},
		{name: "unknown session", method: http.MethodGet, path: "/v1/sessions/" + uuid.NewString(), expectedStatus: http.StatusNotFound},
		{name: "put session", method: http.MethodPut, path: "/v1/sessions/" + id, expectedStatus: http.StatusMethodNotAllowed},
		{name: "get advance", method: http.MethodGet, path: "/v1/sessions/" + id + "/advance", expectedStatus: http.StatusMethodNotAllowed},
		{name: "post save", method: http.MethodPost, path: "/v1/sessions/" + id + "/save", expectedStatus: http.StatusMethodNotAllowed},
		{name: "too deep", method: http.MethodPost, path: "/v1/sessions/" + id + "/choices/extra", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, tt.method, tt.path, nil)
			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestSessionsHandler_AdvanceWhileLoadingIsNoop(t *testing.T) {
	f := newSessionsFixture(t)
	id := f.create(t).ID

	resp := f.post(t, id, "advance", nil)
	assert.Equal(t, engine.PhaseLoading, resp.Phase)
	assert.Empty(t, resp.Frames)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{err: engine.ErrUnknownChoice, expected: http.StatusUnprocessableEntity},
		{err: engine.ErrUnknownHotspot, expected: http.StatusUnprocessableEntity},
		{err: engine.ErrSessionEnded, expected: http.StatusConflict},
		{err: engine.ErrNotChoosing, expected: http.StatusConflict},
		{err: engine.ErrSceneLoading, expected: http.StatusConflict},
		{err: engine.ErrNoScene, expected: http.StatusConflict},
		{err: io.ErrUnexpectedEOF, expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.expected, statusFor(tt.err))
		})
	}
}
