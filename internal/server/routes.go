package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Company directory
	mux.HandleFunc("/api/companies/search", s.app.CompanyHandler.SearchHandler)
	mux.HandleFunc("/api/companies/refresh", s.app.CompanyHandler.RefreshHandler)
	mux.HandleFunc("/api/companies/", s.app.CompanyHandler.GetHandler) // GET /{cikOrTicker}

	// API routes - Profiles
	mux.HandleFunc("/api/profiles/generate", s.app.ProfileHandler.GenerateHandler)
	mux.HandleFunc("/api/profiles", s.app.ProfileHandler.ListHandler)
	mux.HandleFunc("/api/profiles/", s.handleProfileRoutes) // /{cik} and subpaths

	// API routes - Relationship graph
	mux.HandleFunc("/api/relationships", s.app.ProfileHandler.ListRelationshipsByTypeHandler)

	// API routes - Filing cache
	mux.HandleFunc("/api/cache/stats", s.app.CacheHandler.StatsHandler)
	mux.HandleFunc("/api/cache/clear", s.app.CacheHandler.ClearHandler)

	// API routes - Scheduler
	mux.HandleFunc("/api/scheduler/status", s.app.SchedulerHandler.StatusHandler)
	mux.HandleFunc("/api/scheduler/trigger", s.app.SchedulerHandler.TriggerHandler)

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/pool/stats", s.app.StatusHandler.PoolStatsHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/shutdown", s.ShutdownHandler) // Graceful shutdown endpoint (dev mode)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleProfileRoutes routes /api/profiles/{cik} and its subpaths
func (s *Server) handleProfileRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case strings.HasSuffix(path, "/summary"):
		s.app.ProfileHandler.SummaryHandler(w, r)
	case strings.HasSuffix(path, "/progress"):
		s.app.ProfileHandler.ProgressHandler(w, r)
	case strings.HasSuffix(path, "/cancel"):
		s.app.ProfileHandler.CancelHandler(w, r)
	case strings.HasSuffix(path, "/relationships"):
		s.app.ProfileHandler.RelationshipsHandler(w, r)
	default:
		// GET or DELETE on the bare /{cik}
		RouteByMethod(w, r, MethodRouter{
			"GET":    s.app.ProfileHandler.GetHandler,
			"DELETE": s.app.ProfileHandler.DeleteHandler,
		})
	}
}
