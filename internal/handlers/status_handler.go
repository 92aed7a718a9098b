package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// StatusHandler reports a combined application status snapshot.
type StatusHandler struct {
	cache      interfaces.FilingCache
	dispatcher interfaces.TaskDispatcher
	storage    interfaces.StorageManager
	directory  interfaces.CompanyDirectory
	logger     arbor.ILogger
}

func NewStatusHandler(cache interfaces.FilingCache, dispatcher interfaces.TaskDispatcher, storage interfaces.StorageManager, directory interfaces.CompanyDirectory, logger arbor.ILogger) *StatusHandler {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &StatusHandler{
		cache:      cache,
		dispatcher: dispatcher,
		storage:    storage,
		directory:  directory,
		logger:     logger,
	}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	profiles, err := h.storage.ProfileStorage().CountProfiles()
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to count stored profiles")
		profiles = -1
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version":   common.GetVersion(),
		"profiles":  profiles,
		"companies": len(h.directory.All()),
		"cache":     h.cache.Stats(),
		"pool":      h.dispatcher.PoolStats(),
	})
}

// PoolStatsHandler handles GET /api/pool/stats
func (h *StatusHandler) PoolStatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, h.dispatcher.PoolStats())
}
