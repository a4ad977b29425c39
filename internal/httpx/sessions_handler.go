package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ariefcatur/go-skip-selector/internal/session"
	"github.com/ariefcatur/go-skip-selector/internal/skips"
	"github.com/ariefcatur/go-skip-selector/internal/viewport"
	"github.com/go-chi/chi/v5"
)

type SessionsHandler struct {
	Sessions *session.Manager
}

type createSessionReq struct {
	ClientID string `json:"client_id"`
	Postcode string `json:"postcode"`
	Area     string `json:"area"`
}

type createSessionResp struct {
	SessionID string       `json:"session_id"`
	ClientID  string       `json:"client_id"`
	View      session.View `json:"view"`
}

type toggleReq struct {
	SkipID *int64 `json:"skip_id"`
}

type viewModeReq struct {
	Mode session.ViewMode `json:"mode"`
}

type viewportReq struct {
	Height  float64                  `json:"height"`
	Anchors map[string]viewport.Rect `json:"anchors"`
}

type confirmResp struct {
	EventID string       `json:"event_id"`
	View    session.View `json:"view"`
}

func (h *SessionsHandler) Register(r *chi.Mux) {
	r.Post("/sessions", h.create)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Delete("/", h.close)
		r.Post("/toggle", h.toggle)
		r.Post("/continue", h.cont)
		r.Post("/dismiss", h.dismiss)
		r.Post("/confirm", h.confirm)
		r.Post("/retry", h.retry)
		r.Post("/view-mode", h.viewMode)
		r.Post("/viewport", h.viewport)
	})
}

func (h *SessionsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionReq
	// empty body = defaults
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s, err := h.Sessions.Create(r.Context(), req.ClientID, skips.Query{Postcode: req.Postcode, Area: req.Area})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResp{SessionID: s.ID(), ClientID: s.ClientID(), View: s.View()})
}

func (h *SessionsHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := h.Sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
	}
	return s, ok
}

func (h *SessionsHandler) get(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, s.View())
	}
}

func (h *SessionsHandler) close(w http.ResponseWriter, r *http.Request) {
	if !h.Sessions.Close(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) toggle(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req toggleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SkipID == nil {
		writeError(w, http.StatusBadRequest, "skip_id required")
		return
	}
	h.respond(w, s, s.ToggleByID(r.Context(), *req.SkipID))
}

func (h *SessionsHandler) cont(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.lookup(w, r); ok {
		h.respond(w, s, s.Continue())
	}
}

func (h *SessionsHandler) dismiss(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.lookup(w, r); ok {
		h.respond(w, s, s.Dismiss(r.Context()))
	}
}

func (h *SessionsHandler) confirm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	ev, err := s.ContinueBooking()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, confirmResp{EventID: ev.EventID, View: s.View()})
}

// retry returns as soon as the session is Loading again; poll GET for the outcome.
func (h *SessionsHandler) retry(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := s.RetryAsync(h.Sessions.Context()); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, s.View())
}

func (h *SessionsHandler) viewMode(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req viewModeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	h.respond(w, s, s.SetViewMode(req.Mode))
}

// viewport is the client's scroll event: it reports where the anchors are now.
func (h *SessionsHandler) viewport(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req viewportReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.Screen.Update(req.Height, req.Anchors)
	writeJSON(w, http.StatusOK, s.View())
}

func (h *SessionsHandler) respond(w http.ResponseWriter, s *session.Session, err error) {
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotAllowed):
		return http.StatusConflict
	case errors.Is(err, session.ErrUnknownSkip), errors.Is(err, session.ErrInvalidMode):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrClosed):
		return http.StatusGone
	}
	return http.StatusInternalServerError
}
