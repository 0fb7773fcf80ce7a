package server

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/safemeridian/chaincfg/pkg/errors"
	"github.com/safemeridian/chaincfg/pkg/manifest"
	"github.com/safemeridian/chaincfg/pkg/resolver"
)

// handleCreateAudit audits a manifest posted as the raw request body.
// With resolve=1 and a configured resolver, the transitive dependency
// closure is fetched and checked for conflicts as well.
func (s *Server) handleCreateAudit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxManifestSize+1))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "cannot read request body"))
		return
	}
	if len(body) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidManifest, "empty manifest"))
		return
	}
	if len(body) > maxManifestSize {
		s.writeError(w, errors.New(errors.ErrCodeInvalidManifest, "manifest exceeds %d bytes", maxManifestSize))
		return
	}

	m, err := manifest.Parse(bytes.NewReader(body))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var res *resolver.Resolution
	if s.resolver != nil && r.URL.Query().Get("resolve") == "1" {
		res, err = s.resolver.Resolve(r.Context(), m, resolver.Options{})
		if err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeNetwork, err, "resolution failed"))
			return
		}
	}

	report := s.auditor.Run(r.Context(), m, res)
	if err := s.store.SaveReport(r.Context(), report); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/audits/"+report.ID)
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid report id: %s", id))
		return
	}

	report, err := s.store.GetReport(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
