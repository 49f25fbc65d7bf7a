package chi

import "time"

// ErrorCode is a machine-readable error category.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeExtraction       ErrorCode = "extraction_failed"
	ErrorCodeEmbedding        ErrorCode = "embedding_provider_error"
	ErrorCodeIndex            ErrorCode = "index_error"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeAlreadyExists    ErrorCode = "already_exists"
	ErrorCodePayloadTooLarge  ErrorCode = "payload_too_large"
	ErrorCodeRateLimited      ErrorCode = "rate_limited"
	ErrorCodeTimeout          ErrorCode = "timeout"
	ErrorCodeInternal         ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Record is the public view of a stored document. Embeddings are never exposed.
type Record struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	SourceReference string    `json:"sourceReference"`
	StorageLocation string    `json:"storageLocation,omitempty"`
	TextContent     string    `json:"textContent,omitempty"`
	UploadedAt      time.Time `json:"uploadedAt"`
}

// UploadResponse is returned when an upload is accepted.
type UploadResponse struct {
	Message string `json:"message"`
	File    Record `json:"file"`
}

// SimilarTo describes the stored record an upload duplicates.
type SimilarTo struct {
	ID       string  `json:"id"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}

// DuplicateResponse is returned with 409 when an upload is rejected as a duplicate.
type DuplicateResponse struct {
	Message   string    `json:"message"`
	SimilarTo SimilarTo `json:"similarTo"`
}

// RecordListResponse is a cursor-paginated page of records.
type RecordListResponse struct {
	Items      []Record `json:"items"`
	HasMore    bool     `json:"hasMore"`
	NextCursor *string  `json:"nextCursor,omitempty"`
}

// ListRecordsParams are the query parameters of the listing routes.
type ListRecordsParams struct {
	Cursor *string
	Limit  *int
}

// CreateCampaignRequest is the body of POST /api/campaigns.
type CreateCampaignRequest struct {
	PaperID       string `json:"paperId"`
	CampaignID    string `json:"campaignId"`
	Goal          string `json:"goal"`
	WalletAddress string `json:"walletAddress"`
}

// Campaign is the public view of a campaign.
type Campaign struct {
	PaperID       string    `json:"paperId"`
	CampaignID    string    `json:"campaignId"`
	Goal          string    `json:"goal"`
	WalletAddress string    `json:"walletAddress"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateCampaignResponse is returned with 201 on campaign creation.
type CreateCampaignResponse struct {
	Message  string   `json:"message"`
	Campaign Campaign `json:"campaign"`
}

// CampaignListResponse lists all campaigns.
type CampaignListResponse struct {
	Items []Campaign `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Records *int              `json:"records,omitempty"`
}
