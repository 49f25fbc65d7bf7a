package docdedup

import "time"

// Record is a stored PDF.
// TextContent is empty in by-source listings.
type Record struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	SourceReference string    `json:"sourceReference"`
	StorageLocation string    `json:"storageLocation,omitempty"`
	TextContent     string    `json:"textContent,omitempty"`
	UploadedAt      time.Time `json:"uploadedAt"`
}

// SimilarRecord identifies the stored record an upload collided with.
type SimilarRecord struct {
	ID       string  `json:"id"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}

// UploadResult is the outcome of an upload.
// Exactly one of Record and Duplicate is set.
type UploadResult struct {
	Message   string
	Record    *Record
	Duplicate *SimilarRecord
}

// IsDuplicate reports whether the upload was rejected as a near-duplicate.
func (r UploadResult) IsDuplicate() bool { return r.Duplicate != nil }

// ListResult is one page of records.
type ListResult struct {
	Records    []Record
	NextCursor string
}

// ListOptions controls pagination. Zero values use server defaults.
type ListOptions struct {
	Cursor string
	Limit  int
}

// Campaign is funding metadata attached to a paper.
type Campaign struct {
	PaperID       string    `json:"paperId"`
	CampaignID    string    `json:"campaignId"`
	Goal          string    `json:"goal"`
	WalletAddress string    `json:"walletAddress"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HealthStatus represents the aggregated service health.
type HealthStatus struct {
	Status  string            `json:"status"` // "ok", "degraded", "error"
	Checks  map[string]string `json:"checks"`
	Records *int              `json:"records,omitempty"`
}
