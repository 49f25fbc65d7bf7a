package docdedup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	uploadField          = "pdf"
	sourceReferenceField = "sourceReference"
	maxErrorBody         = 64 << 10
)

// Client is the docdedup API entry point.
type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
	obs    *observer
}

// New creates a Client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("docdedup: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("docdedup: base url %q must be absolute", baseURL)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{base: base, apiKey: cfg.apiKey, http: hc, obs: obs}, nil
}

// Upload submits a PDF. A near-duplicate is not an error: the result
// carries Duplicate instead of Record.
func (c *Client) Upload(ctx context.Context, filename string, pdf []byte, sourceReference string) (res UploadResult, err error) {
	call := c.obs.begin("upload")
	defer func() { call.end(err) }()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(uploadField, filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("docdedup: build upload: %w", err)
	}
	if _, err = part.Write(pdf); err != nil {
		return UploadResult{}, fmt.Errorf("docdedup: build upload: %w", err)
	}
	if err = mw.WriteField(sourceReferenceField, sourceReference); err != nil {
		return UploadResult{}, fmt.Errorf("docdedup: build upload: %w", err)
	}
	if err = mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("docdedup: build upload: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/upload", nil, &body, mw.FormDataContentType())
	if err != nil {
		return UploadResult{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out struct {
			Message string `json:"message"`
			File    Record `json:"file"`
		}
		if err = decode(resp, &out); err != nil {
			return UploadResult{}, err
		}
		return UploadResult{Message: out.Message, Record: &out.File}, nil
	case http.StatusConflict:
		var out struct {
			Message   string        `json:"message"`
			SimilarTo SimilarRecord `json:"similarTo"`
		}
		if err = decode(resp, &out); err != nil {
			return UploadResult{}, err
		}
		call.markDuplicate()
		return UploadResult{Message: out.Message, Duplicate: &out.SimilarTo}, nil
	default:
		return UploadResult{}, apiError(resp)
	}
}

// List returns one page of all records.
func (c *Client) List(ctx context.Context, opts ListOptions) (res ListResult, err error) {
	call := c.obs.begin("list")
	defer func() { call.end(err) }()

	return c.list(ctx, "/api/data", opts)
}

// ListBySource returns one page of records uploaded for sourceReference.
// Text content is not included.
func (c *Client) ListBySource(ctx context.Context, sourceReference string, opts ListOptions) (res ListResult, err error) {
	call := c.obs.begin("list_by_source")
	defer func() { call.end(err) }()

	if strings.TrimSpace(sourceReference) == "" {
		return ListResult{}, fmt.Errorf("%w: source reference is required", ErrInvalidInput)
	}
	return c.list(ctx, "/api/data/source/"+url.PathEscape(sourceReference), opts)
}

// Get returns a record by ID.
func (c *Client) Get(ctx context.Context, id string) (rec Record, err error) {
	call := c.obs.begin("get")
	defer func() { call.end(err) }()

	if id == "" {
		return Record{}, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	err = c.getJSON(ctx, "/api/data/"+url.PathEscape(id), nil, &rec)
	return rec, err
}

// CreateCampaign stores funding metadata for a paper.
func (c *Client) CreateCampaign(ctx context.Context, campaign Campaign) (out Campaign, err error) {
	call := c.obs.begin("create_campaign")
	defer func() { call.end(err) }()

	payload, err := json.Marshal(struct {
		PaperID       string `json:"paperId"`
		CampaignID    string `json:"campaignId"`
		Goal          string `json:"goal"`
		WalletAddress string `json:"walletAddress"`
	}{campaign.PaperID, campaign.CampaignID, campaign.Goal, campaign.WalletAddress})
	if err != nil {
		return Campaign{}, fmt.Errorf("docdedup: encode campaign: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/campaigns", nil, bytes.NewReader(payload), "application/json")
	if err != nil {
		return Campaign{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return Campaign{}, apiError(resp)
	}
	var body struct {
		Campaign Campaign `json:"campaign"`
	}
	if err = decode(resp, &body); err != nil {
		return Campaign{}, err
	}
	return body.Campaign, nil
}

// Campaigns lists all stored campaigns.
func (c *Client) Campaigns(ctx context.Context) (out []Campaign, err error) {
	call := c.obs.begin("list_campaigns")
	defer func() { call.end(err) }()

	var body struct {
		Items []Campaign `json:"items"`
	}
	if err = c.getJSON(ctx, "/api/campaigns", nil, &body); err != nil {
		return nil, err
	}
	return body.Items, nil
}

// Health reports service health. A degraded or unhealthy service is
// not an error; inspect Status.
func (c *Client) Health(ctx context.Context) (h HealthStatus, err error) {
	call := c.obs.begin("health")
	defer func() { call.end(err) }()

	resp, err := c.do(ctx, http.MethodGet, "/health", nil, nil, "")
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return HealthStatus{}, apiError(resp)
	}
	err = decode(resp, &h)
	return h, err
}

func (c *Client) list(ctx context.Context, path string, opts ListOptions) (ListResult, error) {
	q := url.Values{}
	if opts.Cursor != "" {
		q.Set("cursor", opts.Cursor)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	var body struct {
		Items      []Record `json:"items"`
		HasMore    bool     `json:"hasMore"`
		NextCursor *string  `json:"nextCursor"`
	}
	if err := c.getJSON(ctx, path, q, &body); err != nil {
		return ListResult{}, err
	}

	res := ListResult{Records: body.Items}
	if body.HasMore && body.NextCursor != nil {
		res.NextCursor = *body.NextCursor
	}
	return res, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, q, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return decode(resp, out)
}

func (c *Client) do(
	ctx context.Context, method, path string, q url.Values, body io.Reader, contentType string,
) (*http.Response, error) {
	// path is already escaped
	u, err := url.Parse(c.base.String() + path)
	if err != nil {
		return nil, fmt.Errorf("docdedup: build url: %w", err)
	}
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("docdedup: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docdedup: %s %s: %w", method, path, err)
	}
	return resp, nil
}

func decode(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("docdedup: decode response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	e := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Code != "" {
		e.Code = body.Code
		e.Message = body.Message
		return e
	}
	e.Message = strings.TrimSpace(string(raw))
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
