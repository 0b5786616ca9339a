package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	promptEndpoint = "/api/prompt"
	deleteEndpoint = "/api/report/delete/{id}"
)

// ErrMalformedResponse is returned when a 2xx reply cannot be understood.
var ErrMalformedResponse = errors.New("malformed response from server")

// RemoteError is a non-2xx reply from the backend.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// TransportError is a request that never produced a reply.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewHistoryItem is the history entry announced by a prompt response.
type NewHistoryItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// PromptResponse is the decoded reply of POST /api/prompt.
type PromptResponse struct {
	Response       string
	Format         string
	NewHistoryItem *NewHistoryItem
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type promptReply struct {
	Response       *string         `json:"response"`
	Format         string          `json:"format,omitempty"`
	NewHistoryItem *NewHistoryItem `json:"new_history_item,omitempty"`
}

type errorReply struct {
	Error string `json:"error"`
}

// ReportClient is the backend API as consumed by the UI.
type ReportClient interface {
	SendPrompt(ctx context.Context, prompt string) (*PromptResponse, error)
	DeleteReport(ctx context.Context, id string) error
}

// APIClient talks to the report backend over HTTP.
type APIClient struct {
	client *resty.Client
}

// NewAPIClient creates a client for baseURL. An empty token sends no
// Authorization header.
func NewAPIClient(baseURL, token string) *APIClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &APIClient{client: client}
}

// SendPrompt posts prompt and decodes the reply.
func (c *APIClient) SendPrompt(ctx context.Context, prompt string) (*PromptResponse, error) {
	requestID := uuid.NewString()
	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Request-ID", requestID).
		SetBody(promptRequest{Prompt: prompt}).
		Post(promptEndpoint)
	if err != nil {
		slog.Error("prompt.transport_failed", "request_id", requestID, "error", err)
		return nil, &TransportError{Op: "send prompt", Err: err}
	}

	if !res.IsSuccess() {
		remote := remoteError(res)
		slog.Error("prompt.rejected", "request_id", requestID, "status", remote.StatusCode, "error", remote.Message)
		return nil, remote
	}

	var reply promptReply
	if err := json.Unmarshal(res.Body(), &reply); err != nil {
		slog.Error("prompt.malformed", "request_id", requestID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if reply.Response == nil {
		slog.Error("prompt.malformed", "request_id", requestID, "error", "missing response field")
		return nil, fmt.Errorf("%w: missing response field", ErrMalformedResponse)
	}
	if item := reply.NewHistoryItem; item != nil && item.ID == "" {
		slog.Warn("prompt.history_item_without_id", "request_id", requestID, "title", item.Title)
		reply.NewHistoryItem = nil
	}

	slog.Debug("prompt.answered", "request_id", requestID, "bytes", len(res.Body()))
	return &PromptResponse{
		Response:       *reply.Response,
		Format:         reply.Format,
		NewHistoryItem: reply.NewHistoryItem,
	}, nil
}

// DeleteReport removes the report id on the server.
func (c *APIClient) DeleteReport(ctx context.Context, id string) error {
	requestID := uuid.NewString()
	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Request-ID", requestID).
		SetPathParam("id", id).
		Delete(deleteEndpoint)
	if err != nil {
		slog.Error("report.delete_transport_failed", "request_id", requestID, "id", id, "error", err)
		return &TransportError{Op: "delete report", Err: err}
	}
	if !res.IsSuccess() {
		remote := remoteError(res)
		slog.Error("report.delete_failed", "request_id", requestID, "id", id, "status", remote.StatusCode, "error", remote.Message)
		return remote
	}
	return nil
}

// remoteError extracts the "error" field of a failure body, when there is one.
func remoteError(res *resty.Response) *RemoteError {
	remote := &RemoteError{StatusCode: res.StatusCode()}
	var reply errorReply
	if err := json.Unmarshal(res.Body(), &reply); err == nil {
		remote.Message = reply.Error
	}
	return remote
}
