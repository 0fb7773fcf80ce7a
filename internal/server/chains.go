package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/safemeridian/chaincfg/internal/chains"
	"github.com/safemeridian/chaincfg/pkg/errors"
)

const (
	defaultPageSize = 40
	maxPageSize     = 100
)

// chainPage is the paginated chain list response.
type chainPage struct {
	Count   int           `json:"count"`
	Results []chains.View `json:"results"`
}

func (s *Server) handleListChains(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	all, err := s.store.ListChains(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	page := chainPage{Count: len(all), Results: []chains.View{}}
	if offset < len(all) {
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		for _, c := range all[offset:end] {
			page.Results = append(page.Results, c.AsView())
		}
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetChain(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	if err := errors.ValidateChainID(raw); err != nil {
		s.writeError(w, err)
		return
	}
	id, _ := strconv.ParseInt(raw, 10, 64)

	c, err := s.store.GetChain(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.AsView())
}

func pagination(r *http.Request) (limit, offset int, err error) {
	limit = defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return 0, 0, errors.New(errors.ErrCodeInvalidInput, "invalid limit: %s", raw)
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, errors.New(errors.ErrCodeInvalidInput, "invalid offset: %s", raw)
		}
	}
	return limit, offset, nil
}
