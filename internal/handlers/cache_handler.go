package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// CacheHandler exposes filing cache counters and maintenance.
type CacheHandler struct {
	cache  interfaces.FilingCache
	logger arbor.ILogger
}

func NewCacheHandler(cache interfaces.FilingCache, logger arbor.ILogger) *CacheHandler {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &CacheHandler{cache: cache, logger: logger}
}

// StatsHandler handles GET /api/cache/stats
func (h *CacheHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, h.cache.Stats())
}

// ClearHandler handles POST /api/cache/clear. An optional ?cik= scopes
// the clear to one company.
func (h *CacheHandler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if raw := r.URL.Query().Get("cik"); raw != "" {
		cik := normalizeNumericCIK(raw)
		if cik == "" {
			WriteError(w, http.StatusBadRequest, "Invalid CIK: "+raw)
			return
		}
		if err := h.cache.ClearCompany(cik); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to clear cache: "+err.Error())
			return
		}
		h.logger.Info().Str("cik", cik).Msg("Filing cache cleared for company")
		WriteSuccess(w, "Cache cleared for "+cik)
		return
	}

	if err := h.cache.Clear(); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to clear cache: "+err.Error())
		return
	}
	h.logger.Info().Msg("Filing cache cleared")
	WriteSuccess(w, "Cache cleared")
}
