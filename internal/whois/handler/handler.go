// Package handler exposes the parsing pipeline over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"structwhois/internal/platform/middleware"
	"structwhois/internal/transport/http/shared"
	"structwhois/internal/whois/cache"
	"structwhois/internal/whois/fields"
	"structwhois/internal/whois/parser"
	"structwhois/internal/whois/records"
	"structwhois/internal/whois/store"
	dErrors "structwhois/pkg/domain-errors"
)

// maxBatchSize caps one batch request; larger workloads paginate client-side.
const maxBatchSize = 500

// Parser is the subset of the parsing pipeline the HTTP layer needs.
type Parser interface {
	ParseRecord(ctx context.Context, raw string, opts parser.ParseOptions) (*records.WhoisRecord, error)
	ParseMany(ctx context.Context, raws []string, opts parser.ParseOptions) []parser.Result
	SelectTLD(explicit, domain string) string
	SupportedTLDs() []string
	RegisterTLD(tld string, overrides fields.Overrides, replace, preload bool) error
	RemoveTLD(tld string)
	RefreshDefaultParser() error
}

// Handler handles whois parsing endpoints.
type Handler struct {
	logger     *slog.Logger
	parser     Parser
	archive    store.RecordStore  // optional
	cache      *cache.RecordCache // nil disables caching
	adminToken string
}

// Option configures the Handler.
type Option func(*Handler)

// WithArchive persists every successful parse.
func WithArchive(archive store.RecordStore) Option {
	return func(h *Handler) {
		h.archive = archive
	}
}

// WithCache serves repeated payloads from the cross-process cache.
func WithCache(c *cache.RecordCache) Option {
	return func(h *Handler) {
		h.cache = c
	}
}

// New creates a whois Handler.
func New(p Parser, logger *slog.Logger, adminToken string, opts ...Option) *Handler {
	h := &Handler{
		logger:     logger,
		parser:     p,
		adminToken: adminToken,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the whois routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	whoisRouter := chi.NewRouter()
	whoisRouter.Use(middleware.Recovery(h.logger))
	whoisRouter.Use(middleware.RequestID)
	whoisRouter.Use(middleware.Logger(h.logger))
	whoisRouter.Use(middleware.Timeout(30 * time.Second))
	whoisRouter.Use(middleware.ContentTypeJSON)
	whoisRouter.Post("/whois/parse", h.handleParse)
	whoisRouter.Post("/whois/parse/batch", h.handleParseBatch)
	whoisRouter.Get("/whois/tlds", h.handleListTLDs)
	whoisRouter.Get("/whois/records/{id}", h.handleGetRecord)
	whoisRouter.Get("/whois/records", h.handleListRecords)

	adminRouter := chi.NewRouter()
	adminRouter.Use(middleware.Recovery(h.logger))
	adminRouter.Use(middleware.RequestID)
	adminRouter.Use(middleware.Logger(h.logger))
	adminRouter.Use(middleware.RequireAdminToken(h.adminToken, h.logger))
	adminRouter.Post("/tlds", h.handleRegisterTLD)
	adminRouter.Delete("/tlds/{tld}", h.handleRemoveTLD)
	adminRouter.Post("/refresh", h.handleRefresh)

	r.Mount("/", whoisRouter)
	r.Mount("/admin", adminRouter)
}

type parseRequest struct {
	RawText        string `json:"raw_text"`
	Domain         string `json:"domain,omitempty"`
	TLD            string `json:"tld,omitempty"`
	Lowercase      bool   `json:"lowercase,omitempty"`
	IncludeRawText bool   `json:"include_raw_text,omitempty"`
}

func (h *Handler) handleParse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.RawText == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "raw_text is required"))
		return
	}

	opts := parser.ParseOptions{TLD: req.TLD, Domain: req.Domain, Lowercase: req.Lowercase}
	tld := h.parser.SelectTLD(req.TLD, req.Domain)

	if cached, ok := h.cache.Get(ctx, tld, req.RawText); ok {
		shared.WriteJSON(w, http.StatusOK, cached)
		return
	}

	record, err := h.parser.ParseRecord(ctx, req.RawText, opts)
	if err != nil {
		h.logger.WarnContext(ctx, "parse failed",
			"request_id", requestID,
			"tld", tld,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	payload := record.ToMap(req.IncludeRawText)
	if err := h.cache.Set(ctx, tld, req.RawText, payload); err != nil {
		h.logger.WarnContext(ctx, "cache store failed",
			"request_id", requestID,
			"error", err.Error(),
		)
	}
	h.archiveRecord(ctx, requestID, tld, record)

	shared.WriteJSON(w, http.StatusOK, payload)
}

func (h *Handler) archiveRecord(ctx context.Context, requestID, tld string, record *records.WhoisRecord) {
	if h.archive == nil {
		return
	}
	stored := &store.StoredRecord{
		ID:        uuid.New(),
		Domain:    record.Domain,
		TLD:       tld,
		RawText:   record.RawText,
		Fields:    record.ToMap(false),
		CreatedAt: time.Now(),
	}
	if err := h.archive.Save(ctx, stored); err != nil {
		h.logger.ErrorContext(ctx, "record archive failed",
			"request_id", requestID,
			"error", err.Error(),
		)
	}
}

type batchRequest struct {
	Items     []string `json:"items"`
	Domain    string   `json:"domain,omitempty"`
	TLD       string   `json:"tld,omitempty"`
	Lowercase bool     `json:"lowercase,omitempty"`
}

type batchItemResponse struct {
	Record map[string]any        `json:"record,omitempty"`
	Error  *shared.ErrorResponse `json:"error,omitempty"`
}

func (h *Handler) handleParseBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if len(req.Items) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "items is required"))
		return
	}
	if len(req.Items) > maxBatchSize {
		shared.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "batch exceeds %d items", maxBatchSize))
		return
	}

	opts := parser.ParseOptions{TLD: req.TLD, Domain: req.Domain, Lowercase: req.Lowercase}
	results := h.parser.ParseMany(ctx, req.Items, opts)

	out := make([]batchItemResponse, len(results))
	for i, result := range results {
		if result.Err != nil {
			code := dErrors.GetCode(result.Err)
			out[i] = batchItemResponse{Error: &shared.ErrorResponse{
				Error:   string(code),
				Message: result.Err.Error(),
			}}
			continue
		}
		out[i] = batchItemResponse{Record: result.Record.ToMap(false)}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (h *Handler) handleListTLDs(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]any{"tlds": h.parser.SupportedTLDs()})
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "record archive not configured"))
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid record id"))
		return
	}
	record, err := h.archive.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "record not found"))
			return
		}
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "record archive not configured"))
		return
	}
	domain := r.URL.Query().Get("domain")
	if domain == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "domain query parameter is required"))
		return
	}
	items, err := h.archive.ListByDomain(r.Context(), domain)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"records": items})
}

type registerTLDRequest struct {
	TLD       string                          `json:"tld"`
	Replace   bool                            `json:"replace,omitempty"`
	Preload   bool                            `json:"preload,omitempty"`
	Overrides map[string]fields.FieldOverride `json:"overrides"`
}

func (h *Handler) handleRegisterTLD(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req registerTLDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.TLD == "" || len(req.Overrides) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "tld and overrides are required"))
		return
	}

	overrides := make(fields.Overrides, len(req.Overrides))
	for name, override := range req.Overrides {
		overrides[fields.NormalizeFieldName(name)] = override
	}

	if err := h.parser.RegisterTLD(req.TLD, overrides, req.Replace, req.Preload); err != nil {
		h.logger.WarnContext(ctx, "tld registration failed",
			"request_id", requestID,
			"tld", req.TLD,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "tld registered",
		"request_id", requestID,
		"tld", req.TLD,
		"replace", req.Replace,
	)
	shared.WriteJSON(w, http.StatusCreated, map[string]string{"tld": req.TLD})
}

func (h *Handler) handleRemoveTLD(w http.ResponseWriter, r *http.Request) {
	tld := chi.URLParam(r, "tld")
	if tld == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "tld is required"))
		return
	}
	h.parser.RemoveTLD(tld)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.parser.RefreshDefaultParser(); err != nil {
		h.logger.ErrorContext(ctx, "parser refresh failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to refresh parsers"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}
