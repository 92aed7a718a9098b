package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/services/scheduler"
)

// SchedulerHandler exposes the refresh scheduler.
type SchedulerHandler struct {
	scheduler *scheduler.Service
	logger    arbor.ILogger
}

func NewSchedulerHandler(sched *scheduler.Service, logger arbor.ILogger) *SchedulerHandler {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &SchedulerHandler{scheduler: sched, logger: logger}
}

// StatusHandler handles GET /api/scheduler/status
func (h *SchedulerHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, h.scheduler.Status())
}

// TriggerHandler handles POST /api/scheduler/trigger
func (h *SchedulerHandler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := h.scheduler.TriggerNow(); err != nil {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	WriteStarted(w, "Profile refresh triggered")
}
