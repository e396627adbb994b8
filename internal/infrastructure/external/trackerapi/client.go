// Package trackerapi implements the REST client for the external risk
// collaborator service. The collaborator owns all durable state and the
// risk-scoring rule engine; this client only consumes its response
// contract. Failed requests are never retried automatically - the user
// re-triggers, which keeps the backend safe from retry storms.
package trackerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
	"github.com/edurisk/atrisk-tracker/internal/domain/student"
	"github.com/edurisk/atrisk-tracker/pkg/logger"
)

// TokenSource supplies the bearer token for each call. The session guard
// implements this; an empty token means the caller is unauthenticated and
// the request will be rejected locally before touching the network.
type TokenSource interface {
	Token() string
}

// ClientConfig contains configuration for the tracker API client.
type ClientConfig struct {
	// BaseURL is the collaborator API base URL
	BaseURL string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// Tokens supplies the bearer token per request
	Tokens TokenSource

	// Logger for structured logging
	Logger *logger.Logger

	// Debug enables request logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string, tokens TokenSource) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
		Tokens:  tokens,
	}
}

// Client is the tracker API client.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *logger.Logger
	mapper     *Mapper
}

// NewClient creates a new tracker API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger.With(logger.Component("trackerapi")),
		mapper: NewMapper(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// READ OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// ListStudents fetches the full student list with optional filters.
func (c *Client) ListStudents(ctx context.Context, filters Filters) ([]student.StudentRecord, error) {
	params := url.Values{}
	if filters.RiskLevel != "" {
		params.Set("risk_level", filters.RiskLevel)
	}
	if filters.Search != "" {
		params.Set("search", filters.Search)
	}
	if filters.ExamType != "" {
		params.Set("exam_type", filters.ExamType)
	}

	path := "/students"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var response StudentsResponse
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	if !response.Success {
		return nil, apiFailure("ListStudents", response.Error)
	}

	return c.mapper.StudentsFromDTO(response.Students), nil
}

// GetSummary fetches the aggregate risk-tier counts.
func (c *Client) GetSummary(ctx context.Context) (student.Summary, error) {
	var response SummaryResponse
	if err := c.doRequest(ctx, http.MethodGet, "/students/dashboard/summary", nil, &response); err != nil {
		return student.Summary{}, fmt.Errorf("get summary: %w", err)
	}
	if !response.Success {
		return student.Summary{}, apiFailure("GetSummary", response.Error)
	}

	return c.mapper.SummaryFromDTO(response.Summary), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// INGESTION
// ══════════════════════════════════════════════════════════════════════════════

// UploadResult is the collaborator's report for one accepted file.
type UploadResult struct {
	Created int
	Updated int
	Summary *student.Summary
}

// Affected returns the total number of records touched.
func (r UploadResult) Affected() int {
	return r.Created + r.Updated
}

// UploadFile submits one file to the partition's upload endpoint as
// multipart form data.
func (c *Client) UploadFile(ctx context.Context, partition student.ActorPartition, filename string, content io.Reader) (UploadResult, error) {
	if !partition.IsValid() {
		return UploadResult{}, shared.ErrUnknownPartition
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", filename, err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", filename, err)
	}

	path := "/upload/" + partition.String()
	var response UploadResponse
	if err := c.doRaw(ctx, http.MethodPost, path, &buf, mw.FormDataContentType(), &response); err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", filename, err)
	}
	if !response.Success {
		return UploadResult{}, apiFailure("UploadFile", response.Error)
	}

	result := UploadResult{Created: response.CreatedCount, Updated: response.UpdatedCount}
	if response.Summary != nil {
		sum := c.mapper.SummaryFromDTO(*response.Summary)
		result.Summary = &sum
	}
	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MUTATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Recalculate asks the collaborator to re-run risk scoring for one student
// and returns the reclassified record.
func (c *Client) Recalculate(ctx context.Context, id student.StudentID) (student.StudentRecord, error) {
	path := fmt.Sprintf("/students/%s/recalculate", url.PathEscape(id.String()))

	var response RecalculateResponse
	if err := c.doRequest(ctx, http.MethodPost, path, nil, &response); err != nil {
		return student.StudentRecord{}, fmt.Errorf("recalculate %s: %w", id, err)
	}
	if !response.Success {
		return student.StudentRecord{}, apiFailure("Recalculate", response.Error)
	}

	return c.mapper.StudentFromDTO(response.Student), nil
}

// DeleteStudent removes one student record server-side.
func (c *Client) DeleteStudent(ctx context.Context, id student.StudentID) (int, error) {
	path := fmt.Sprintf("/students/%s", url.PathEscape(id.String()))

	var response DeleteResponse
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, &response); err != nil {
		return 0, fmt.Errorf("delete student %s: %w", id, err)
	}
	if !response.Success {
		return 0, apiFailure("DeleteStudent", response.Error)
	}
	return response.DeletedCount, nil
}

// DeleteAllStudents removes every record server-side. The destructive
// operation guard is the only caller and gates this behind a typed
// confirmation phrase.
func (c *Client) DeleteAllStudents(ctx context.Context) (int, error) {
	var response DeleteResponse
	if err := c.doRequest(ctx, http.MethodDelete, "/students", nil, &response); err != nil {
		return 0, fmt.Errorf("delete all students: %w", err)
	}
	if !response.Success {
		return 0, apiFailure("DeleteAllStudents", response.Error)
	}
	return response.DeletedCount, nil
}

// CleanupDuplicates asks the collaborator to repair duplicated student IDs
// produced by upstream double-ingestion.
func (c *Client) CleanupDuplicates(ctx context.Context) (int, error) {
	var response CleanupResponse
	if err := c.doRequest(ctx, http.MethodPost, "/students/cleanup-duplicates", nil, &response); err != nil {
		return 0, fmt.Errorf("cleanup duplicates: %w", err)
	}
	if !response.Success {
		return 0, apiFailure("CleanupDuplicates", response.Error)
	}
	return response.RemovedCount, nil
}

// SendNotifications triggers outbound guardian/faculty alerts.
func (c *Client) SendNotifications(ctx context.Context, req DispatchRequest) (DispatchResponse, error) {
	var response DispatchResponse
	if err := c.doRequest(ctx, http.MethodPost, "/notifications", req, &response); err != nil {
		return DispatchResponse{}, fmt.Errorf("send notifications: %w", err)
	}
	return response, nil
}

// IsHealthy checks if the collaborator API is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	err := c.doRequest(ctx, http.MethodGet, "/health", nil, nil)
	return err == nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs a JSON request against the collaborator API.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}
	return c.doRaw(ctx, method, path, bodyReader, "application/json", result)
}

// doRaw performs a single HTTP request with an arbitrary body.
func (c *Client) doRaw(ctx context.Context, method, path string, body io.Reader, contentType string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	token := ""
	if c.config.Tokens != nil {
		token = c.config.Tokens.Token()
	}
	if token == "" {
		// Never touch the network without a token.
		return shared.WrapError("trackerapi", "Request", shared.ErrUnauthorized, "no session token", nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	if c.config.Debug {
		c.logger.Debug("tracker api request", logger.String("method", method), logger.String("path", path))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return shared.WrapError("trackerapi", "Request", shared.ErrExternalService, "http request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return shared.WrapError("trackerapi", "Request", shared.ErrExternalService, "read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return shared.WrapError("trackerapi", "Request", shared.ErrUnauthorized, "token rejected", nil)
	case resp.StatusCode == http.StatusForbidden:
		return shared.WrapError("trackerapi", "Request", shared.ErrForbidden, "access denied", nil)
	case resp.StatusCode >= 400:
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		_ = json.Unmarshal(respBody, apiErr)
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return shared.WrapError("trackerapi", "Parse", shared.ErrInvalidFormat, "unmarshal response", err)
		}
	}
	return nil
}

// apiFailure wraps a success=false envelope into a typed error.
func apiFailure(op, message string) error {
	if message == "" {
		message = "request rejected"
	}
	return shared.NewDomainError("trackerapi", op, shared.ErrExternalService, message)
}
