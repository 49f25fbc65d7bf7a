package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdedup/internal/domain"
	domcamp "github.com/kailas-cloud/docdedup/internal/domain/campaign"
	domrec "github.com/kailas-cloud/docdedup/internal/domain/record"
	campaignuc "github.com/kailas-cloud/docdedup/internal/usecase/campaign"
	healthuc "github.com/kailas-cloud/docdedup/internal/usecase/health"
)

const (
	// DefaultMaxUploadBytes caps the multipart upload body.
	DefaultMaxUploadBytes int64 = 20 << 20

	uploadField          = "pdf"
	sourceReferenceField = "sourceReference"
	contractAddressField = "contractAddress"
	multipartMemory      = 8 << 20

	msgUploaded       = "PDF uploaded successfully!"
	msgDuplicate      = "Duplicate PDF detected!"
	msgCampaignStored = "Campaign stored successfully!"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the docdedup HTTP API.
type Server struct {
	ingest         Ingester
	records        RecordReader
	campaigns      CampaignManager
	health         HealthChecker
	logger         *zap.Logger
	maxUploadBytes int64
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest Ingester,
	records RecordReader,
	campaigns CampaignManager,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		ingest:         ingest,
		records:        records,
		campaigns:      campaigns,
		health:         health,
		logger:         logger,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	// First match wins; an embedding timeout wraps both ErrEmbeddingService and DeadlineExceeded.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrExtraction, http.StatusUnprocessableEntity, ErrorCodeExtraction),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, ErrorCodeAlreadyExists),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingService, http.StatusBadGateway, ErrorCodeEmbedding),
		sentinelHandler(domain.ErrIndex, http.StatusInternalServerError, ErrorCodeIndex),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, ErrorCodeTimeout),
	}
	return s
}

// WithMaxUploadBytes caps the upload request body.
func (s *Server) WithMaxUploadBytes(n int64) *Server {
	if n > 0 {
		s.maxUploadBytes = n
	}
	return s
}

// Routes mounts all API routes on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/upload", s.Upload)
	r.Get("/api/data", s.ListRecords)
	r.Get("/api/data/{id}", s.GetRecord)
	r.Get("/api/data/source/{sourceReference}", s.ListRecordsBySource)
	r.Get("/api/data/contract/{sourceReference}", s.ListRecordsBySource)
	r.Post("/api/campaigns", s.CreateCampaign)
	r.Get("/api/campaigns", s.ListCampaigns)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Upload handles POST /api/upload.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid multipart body: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "pdf file is required")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "read upload: "+err.Error())
		return
	}

	meta := domrec.Metadata{
		Filename:        header.Filename,
		SourceReference: formValue(r, sourceReferenceField, contractAddressField),
	}

	res, err := s.ingest.Ingest(r.Context(), raw, meta)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if res.Duplicate != nil {
		writeJSON(w, http.StatusConflict, DuplicateResponse{
			Message: msgDuplicate,
			SimilarTo: SimilarTo{
				ID:       res.Duplicate.CandidateID(),
				Filename: res.Duplicate.Filename(),
				Score:    res.Duplicate.Score(),
			},
		})
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{Message: msgUploaded, File: recordToAPI(res.Record, true)})
}

// ListRecords handles GET /api/data.
func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request) {
	s.listRecords(w, r, "", true)
}

// ListRecordsBySource handles GET /api/data/source/{sourceReference}.
// Text content is omitted from these listings.
func (s *Server) ListRecordsBySource(w http.ResponseWriter, r *http.Request) {
	var src string
	err := runtime.BindStyledParameterWithOptions("simple", "sourceReference",
		chi.URLParam(r, "sourceReference"), &src, runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil || strings.TrimSpace(src) == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid sourceReference")
		return
	}
	s.listRecords(w, r, src, false)
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request, src string, withText bool) {
	params, err := bindListParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	cursor := ""
	if params.Cursor != nil {
		cursor = *params.Cursor
	}
	limit := 0
	if params.Limit != nil {
		limit = *params.Limit
	}

	recs, next, err := s.records.List(r.Context(), src, cursor, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]Record, len(recs))
	for i := range recs {
		items[i] = recordToAPI(&recs[i], withText)
	}

	resp := RecordListResponse{Items: items, HasMore: next != ""}
	if next != "" {
		resp.NextCursor = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetRecord handles GET /api/data/{id}.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid id")
		return
	}

	rec, err := s.records.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordToAPI(&rec, true))
}

// CreateCampaign handles POST /api/campaigns.
func (s *Server) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	c, err := s.campaigns.Create(r.Context(), campaignuc.CreateInput{
		PaperID:       req.PaperID,
		CampaignID:    req.CampaignID,
		Goal:          req.Goal,
		WalletAddress: req.WalletAddress,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateCampaignResponse{Message: msgCampaignStored, Campaign: campaignToAPI(&c)})
}

// ListCampaigns handles GET /api/campaigns.
func (s *Server) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	cs, err := s.campaigns.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]Campaign, len(cs))
	for i := range cs {
		items[i] = campaignToAPI(&cs[i])
	}
	writeJSON(w, http.StatusOK, CampaignListResponse{Items: items})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	resp := HealthResponse{Status: string(report.Status), Checks: checks}
	if _, ok := report.Checks[healthuc.ComponentIndex]; ok {
		n := report.Records
		resp.Records = &n
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, resp)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func bindListParams(r *http.Request) (ListRecordsParams, error) {
	var params ListRecordsParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "cursor", q, &params.Cursor); err != nil {
		return params, errors.New("invalid format for parameter cursor")
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &params.Limit); err != nil {
		return params, errors.New("invalid format for parameter limit")
	}
	if params.Limit != nil && *params.Limit < 0 {
		return params, errors.New("limit must not be negative")
	}
	return params, nil
}

// formValue returns the first non-empty form value among keys.
func formValue(r *http.Request, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r.FormValue(k)); v != "" {
			return v
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrExtraction,
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrRateLimited,
		domain.ErrEmbeddingService,
		domain.ErrIndex,
		context.DeadlineExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternal, "internal error")
}

func recordToAPI(rec *domrec.Record, withText bool) Record {
	out := Record{
		ID:              rec.ID(),
		Filename:        rec.Filename(),
		SourceReference: rec.SourceReference(),
		StorageLocation: rec.StorageLocation(),
		UploadedAt:      rec.UploadedAt(),
	}
	if withText {
		out.TextContent = rec.TextContent()
	}
	return out
}

func campaignToAPI(c *domcamp.Campaign) Campaign {
	return Campaign{
		PaperID:       c.PaperID(),
		CampaignID:    c.CampaignID(),
		Goal:          c.Goal(),
		WalletAddress: c.WalletAddress(),
		CreatedAt:     c.CreatedAt(),
		UpdatedAt:     c.UpdatedAt(),
	}
}
