package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/resume/pkg/snapshot"
)

// SnapshotHeader carries the snapshot identifier of a returned document.
const SnapshotHeader = "X-Resume-Snapshot"

func (s *Server) servePage(page Page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.Render(r.Context(), page, r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.writeDocument(w, res)
	}
}

func (s *Server) serveDispatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !snapshot.ValidID(id) {
		s.fail(w, r, fmt.Errorf("%w: invalid snapshot id", ErrBadRequest))
		return
	}

	var req DispatchRequest
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	res, err := s.Resume(r.Context(), id, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeDocument(w, res)
}

func (s *Server) writeDocument(w http.ResponseWriter, res *Result) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set(SnapshotHeader, res.ID)
	w.WriteHeader(http.StatusOK)
	w.Write(res.HTML)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "error", err)
	}
	http.Error(w, http.StatusText(status), status)
}
