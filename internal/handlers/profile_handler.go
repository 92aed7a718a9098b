package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/profile"
)

// generateTimeout bounds a background generation run.
const generateTimeout = 15 * time.Minute

// GenerateRequest is the POST body for profile generation.
type GenerateRequest struct {
	CIK                       string `json:"cik,omitempty"`
	Ticker                    string `json:"ticker,omitempty"`
	LookbackYears             int    `json:"lookback_years,omitempty"`
	ExtractRelationships      *bool  `json:"extract_relationships,omitempty"`
	SkipRelationshipsForSpeed bool   `json:"skip_relationships_for_speed,omitempty"`
}

// ProfileHandler serves profile generation and retrieval.
type ProfileHandler struct {
	service   *profile.Service
	storage   interfaces.StorageManager
	directory interfaces.CompanyDirectory
	cfg       *common.Config
	logger    arbor.ILogger
}

func NewProfileHandler(service *profile.Service, storage interfaces.StorageManager, directory interfaces.CompanyDirectory, cfg *common.Config, logger arbor.ILogger) *ProfileHandler {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &ProfileHandler{
		service:   service,
		storage:   storage,
		directory: directory,
		cfg:       cfg,
		logger:    logger,
	}
}

// GenerateHandler handles POST /api/profiles/generate. The run is
// asynchronous unless ?wait=true.
func (h *ProfileHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	info, ok := h.resolveCompany(req)
	if !ok {
		WriteError(w, http.StatusNotFound, "Company not found")
		return
	}

	opts := h.buildOptions(req)

	if r.URL.Query().Get("wait") == "true" {
		p, err := h.service.Generate(r.Context(), info, opts)
		if err != nil {
			h.writeGenerateError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, p)
		return
	}

	common.SafeGo(h.logger, "profile-generate-"+info.CIK, func() {
		ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
		defer cancel()
		if _, err := h.service.Generate(ctx, info, opts); err != nil {
			h.logger.Warn().
				Str("cik", info.CIK).
				Str("ticker", info.Ticker).
				Err(err).
				Msg("Background profile generation failed")
		}
	})

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
		"cik":    info.CIK,
		"ticker": info.Ticker,
	})
}

// ListHandler handles GET /api/profiles?limit=N&offset=N
func (h *ProfileHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit := QueryInt(r, "limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := QueryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	profiles, err := h.storage.ProfileStorage().ListProfiles(&interfaces.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list profiles: "+err.Error())
		return
	}
	total, err := h.storage.ProfileStorage().CountProfiles()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to count profiles: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"total":    total,
		"count":    len(profiles),
		"offset":   offset,
		"profiles": profiles,
	})
}

// GetHandler handles GET /api/profiles/{cik}
func (h *ProfileHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	cik, ok := h.pathCIK(w, r)
	if !ok {
		return
	}

	p, err := h.loadProfile(w, cik)
	if p == nil || err != nil {
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// SummaryHandler handles GET /api/profiles/{cik}/summary. Markdown by
// default, rendered HTML with ?format=html.
func (h *ProfileHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	cik, ok := h.pathCIK(w, r)
	if !ok {
		return
	}
	p, err := h.loadProfile(w, cik)
	if p == nil || err != nil {
		return
	}

	if r.URL.Query().Get("format") == "html" {
		html, err := profile.SummaryHTML(p)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to render summary: "+err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(profile.Summary(p)))
}

// ProgressHandler handles GET /api/profiles/{cik}/progress
func (h *ProfileHandler) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	cik, ok := h.pathCIK(w, r)
	if !ok {
		return
	}

	progress, found := h.service.Progress(cik)
	if !found {
		WriteError(w, http.StatusNotFound, "No generation in progress for "+cik)
		return
	}
	WriteJSON(w, http.StatusOK, progress)
}

// CancelHandler handles POST /api/profiles/{cik}/cancel
func (h *ProfileHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	cik, ok := h.pathCIK(w, r)
	if !ok {
		return
	}

	h.service.Cancel(cik)
	WriteSuccess(w, "Cancellation requested for "+cik)
}

// DeleteHandler handles DELETE /api/profiles/{cik}. The relationship
// document goes with the profile.
func (h *ProfileHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	cik, ok := h.pathCIK(w, r)
	if !ok {
		return
	}

	if err := h.storage.ProfileStorage().DeleteProfile(cik); err != nil {
		if errors.Is(err, interfaces.ErrProfileNotFound) {
			WriteError(w, http.StatusNotFound, "Profile not found: "+cik)
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to delete profile: "+err.Error())
		return
	}
	if err := h.storage.RelationshipStorage().DeleteRelationships(cik); err != nil {
		h.logger.Warn().Str("cik", cik).Err(err).Msg("Failed to delete relationship document")
	}

	WriteSuccess(w, "Profile deleted: "+cik)
}

// RelationshipsHandler handles GET /api/profiles/{cik}/relationships
func (h *ProfileHandler) RelationshipsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	cik, ok := h.pathCIK(w, r)
	if !ok {
		return
	}

	rels, err := h.storage.RelationshipStorage().GetRelationships(cik)
	if err != nil {
		WriteError(w, http.StatusNotFound, "No relationships found for "+cik)
		return
	}
	WriteJSON(w, http.StatusOK, rels)
}

// ListRelationshipsByTypeHandler handles GET /api/relationships?type=supplier&limit=N
func (h *ProfileHandler) ListRelationshipsByTypeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	relType := models.RelationshipType(strings.ToLower(r.URL.Query().Get("type")))
	if !models.ValidRelationshipType(relType) {
		WriteError(w, http.StatusBadRequest, "Invalid or missing relationship type")
		return
	}
	limit := QueryInt(r, "limit", 100)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rels, err := h.storage.RelationshipStorage().ListByType(relType, limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list relationships: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"type":          relType,
		"count":         len(rels),
		"relationships": rels,
	})
}

// resolveCompany resolves a generation request to a directory entry. A
// CIK not in the directory is still accepted so obscure registrants can
// be profiled, with the name filled in later from filings metadata.
func (h *ProfileHandler) resolveCompany(req GenerateRequest) (models.CompanyInfo, bool) {
	if req.Ticker != "" {
		return h.directory.LookupTicker(req.Ticker)
	}
	cik := normalizeNumericCIK(req.CIK)
	if cik == "" {
		return models.CompanyInfo{}, false
	}
	if info, ok := h.directory.Lookup(cik); ok {
		return info, true
	}
	return models.CompanyInfo{CIK: cik}, true
}

func (h *ProfileHandler) buildOptions(req GenerateRequest) *profile.GenerateOptions {
	opts := profile.DefaultGenerateOptions(h.cfg)
	if req.LookbackYears > 0 {
		opts.LookbackYears = req.LookbackYears
	}
	if req.ExtractRelationships != nil {
		opts.ExtractRelationships = *req.ExtractRelationships
	}
	opts.SkipRelationshipsForSpeed = req.SkipRelationshipsForSpeed
	return opts
}

func (h *ProfileHandler) writeGenerateError(w http.ResponseWriter, err error) {
	var genErr *profile.GenerateError
	status := http.StatusInternalServerError
	if errors.As(err, &genErr) {
		switch genErr.Reason {
		case profile.ReasonNoFilings:
			status = http.StatusNotFound
		case profile.ReasonCancelled:
			status = http.StatusRequestTimeout
		}
	}
	WriteError(w, status, err.Error())
}

// pathCIK extracts and normalizes the {cik} path segment of
// /api/profiles/{cik}[/suffix].
func (h *ProfileHandler) pathCIK(w http.ResponseWriter, r *http.Request) (string, bool) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/profiles/")
	seg := strings.SplitN(strings.Trim(rest, "/"), "/", 2)[0]
	cik := normalizeNumericCIK(seg)
	if cik == "" {
		WriteError(w, http.StatusBadRequest, "Invalid CIK: "+seg)
		return "", false
	}
	return cik, true
}

// normalizeNumericCIK pads a CIK to 10 digits, rejecting non-numeric
// input.
func normalizeNumericCIK(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return common.NormalizeCIK(raw)
}

func (h *ProfileHandler) loadProfile(w http.ResponseWriter, cik string) (*models.CompanyProfile, error) {
	p, err := h.storage.ProfileStorage().GetProfile(cik)
	if err != nil {
		if errors.Is(err, interfaces.ErrProfileNotFound) {
			WriteError(w, http.StatusNotFound, "Profile not found: "+cik)
		} else {
			WriteError(w, http.StatusInternalServerError, "Failed to load profile: "+err.Error())
		}
		return nil, err
	}
	return p, nil
}
