package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/edgar"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// CompanyHandler serves the EDGAR registrant directory.
type CompanyHandler struct {
	directory interfaces.CompanyDirectory
	index     *edgar.CompanyIndex
	client    *edgar.Client
	logger    arbor.ILogger
}

func NewCompanyHandler(index *edgar.CompanyIndex, client *edgar.Client, logger arbor.ILogger) *CompanyHandler {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &CompanyHandler{
		directory: index,
		index:     index,
		client:    client,
		logger:    logger,
	}
}

// SearchHandler handles GET /api/companies/search?q=...&limit=N
func (h *CompanyHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		WriteError(w, http.StatusBadRequest, "Missing query parameter 'q'")
		return
	}
	limit := QueryInt(r, "limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	matches := h.directory.Search(query, limit)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":     query,
		"count":     len(matches),
		"companies": matches,
	})
}

// GetHandler handles GET /api/companies/{cikOrTicker}
func (h *CompanyHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/api/companies/")
	key = strings.Trim(key, "/")
	if key == "" {
		WriteError(w, http.StatusBadRequest, "Missing company identifier")
		return
	}

	info, ok := h.resolve(key)
	if !ok {
		WriteError(w, http.StatusNotFound, "Company not found: "+key)
		return
	}
	WriteJSON(w, http.StatusOK, info)
}

// RefreshHandler handles POST /api/companies/refresh. It reloads the
// ticker index from EDGAR synchronously.
func (h *CompanyHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := h.index.Load(r.Context(), h.client); err != nil {
		h.logger.Warn().Err(err).Msg("Company index refresh failed")
		WriteError(w, http.StatusBadGateway, "Failed to refresh company index: "+err.Error())
		return
	}

	h.logger.Info().Int("companies", h.index.Size()).Msg("Company index refreshed")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"companies": h.index.Size(),
	})
}

// resolve accepts a ticker symbol or a CIK in any zero-padding.
func (h *CompanyHandler) resolve(key string) (models.CompanyInfo, bool) {
	if info, ok := h.directory.LookupTicker(key); ok {
		return info, true
	}
	if cik := common.NormalizeCIK(key); cik != "" {
		return h.directory.Lookup(cik)
	}
	return models.CompanyInfo{}, false
}
