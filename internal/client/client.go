// Package client talks to the back office HTTP API. SearchClient plugs a
// remote resource into a listview.Screen.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-freight/internal/common/models"
	"go-freight/internal/features/bulk_operation"
	"go-freight/internal/features/listing"
	"go-freight/internal/features/saved_filter"
	"go-freight/internal/listview"
	"go-freight/internal/middleware"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response.
type APIError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s (status %d, request %s)", e.Message, e.Status, e.RequestID)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

// do sends the request and decodes a JSON body into out. Non-2xx responses
// become *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error     string `json:"error"`
		RequestID string `json:"request_id"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload.Error == "" {
		payload.Error = http.StatusText(resp.StatusCode)
	}
	if payload.RequestID == "" {
		payload.RequestID = resp.Header.Get(middleware.HeaderRequestID)
	}
	return &APIError{Status: resp.StatusCode, Message: payload.Error, RequestID: payload.RequestID}
}

// Resources lists the searchable resources with their filter metadata.
func (c *Client) Resources(ctx context.Context) ([]listing.ResourceSchema, error) {
	var out []listing.ResourceSchema
	err := c.do(ctx, http.MethodGet, "/api/lists", nil, nil, &out)
	return out, err
}

// SavedFilter loads the caller's saved criteria for resource by name.
func (c *Client) SavedFilter(ctx context.Context, resource, name string) (models.FilterCriteria, error) {
	var out saved_filter.SavedFilter
	path := fmt.Sprintf("/api/filters/by-name/%s/%s", url.PathEscape(resource), url.PathEscape(name))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return models.FilterCriteria{}, err
	}
	return out.Criteria, nil
}

// BulkResult is the outcome of a bulk action. File is only set for print.
type BulkResult struct {
	Operation bulk_operation.BulkOperation
	FileName  string
	File      []byte
}

// RunBulkAction applies action to the selection described by res. The
// server refuses to act when its resolved count differs from res.Count.
func (c *Client) RunBulkAction(ctx context.Context, resource string, action bulk_operation.BulkAction, res listview.Resolution) (*BulkResult, error) {
	body := bulk_operation.BulkRequest{ResolveRequest: res.Request(), ExpectedCount: res.Count}
	path := fmt.Sprintf("/api/bulk/%s/%s", url.PathEscape(resource), url.PathEscape(string(action)))
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result := &BulkResult{}
	switch {
	case resp.StatusCode == http.StatusConflict:
		if err := json.NewDecoder(resp.Body).Decode(&result.Operation); err != nil {
			return nil, err
		}
		return result, fmt.Errorf("%w: server resolved %d of %d", listview.ErrCountMismatch,
			result.Operation.ResolvedCount, res.Count)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return nil, decodeError(resp)
	}

	if ct, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); ct == "application/json" {
		if err := json.NewDecoder(resp.Body).Decode(&result.Operation); err != nil {
			return nil, err
		}
		return result, nil
	}

	result.File, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		result.FileName = params["filename"]
	}
	if result.FileName == "" {
		return nil, errors.New("print response carries no file name")
	}
	if id, err := primitive.ObjectIDFromHex(resp.Header.Get(bulk_operation.HeaderOperationID)); err == nil {
		result.Operation.ID = id
	}
	result.Operation.Status = bulk_operation.BulkStatusCompleted
	result.Operation.Action = action
	result.Operation.Resource = resource
	result.Operation.ResolvedCount = res.Count
	return result, nil
}
