// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the ragchat backend.
//
// The backend owns every non-trivial concern: authentication truth,
// document chunking and embedding, vector retrieval, model invocation, and
// conversation persistence. This client is deliberately thin: it marshals
// requests, surfaces the backend's error detail verbatim, and never
// retries — a failed operation is re-initiated by the user, not by the
// client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/morganforge/ragchat/internal/model"
)

// Configuration constants for the backend API.
const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout is the default timeout for API requests. Chat and
	// upload calls can be slow (model invocation, chunking + embedding),
	// so this is generous.
	DefaultTimeout = 120 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared HTTP client for all backend requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	Timeout: DefaultTimeout,
}

// Error variables for common backend errors.
var (
	// ErrUnreachable indicates the backend could not be contacted at all.
	ErrUnreachable = errors.New("backend unreachable")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")
)

// BackendError represents a non-2xx response from the backend. Detail
// carries the backend's own message when it sent one.
type BackendError struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// Detail extracts the backend's detail message from err, or returns the
// fallback when none is present. Used to build user-facing notices.
func Detail(err error, fallback string) string {
	var be *BackendError
	if errors.As(err, &be) && be.Detail != "" {
		return be.Detail
	}
	return fallback
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatRequest is the payload for POST /chat. ConversationID is empty when
// no conversation is active; the backend then creates one and reports its
// identifier back. Model and APIKey are omitted entirely when unset so the
// backend falls back to its own defaults.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	UseRAG         bool   `json:"use_rag"`
	CollectionName string `json:"collection_name"`
	Model          string `json:"model,omitempty"`
	APIKey         string `json:"api_key,omitempty"`
}

// ChatResponse is the reply to POST /chat. ConversationID is the existing
// or newly created conversation the message landed in.
type ChatResponse struct {
	ConversationID string `json:"conversation_id"`
	Response       string `json:"response"`
}

// QueryRequest is the payload for POST /rag/query.
type QueryRequest struct {
	Query          string `json:"query"`
	CollectionName string `json:"collection_name"`
}

// QueryResponse is the reply to POST /rag/query: an answer plus ranked
// source excerpts.
type QueryResponse struct {
	Answer  string         `json:"answer"`
	Sources []model.Source `json:"sources"`
}

// UploadDetails reports what the backend did with an uploaded document.
type UploadDetails struct {
	Chunks   int    `json:"chunks"`
	Filename string `json:"filename"`
}

type uploadResponse struct {
	Details UploadDetails `json:"details"`
}

type conversationListResponse struct {
	Conversations []*model.Conversation `json:"conversations"`
}

type modelsResponse struct {
	Models []model.ModelDescriptor `json:"models"`
}

type collectionsResponse struct {
	Collections []string `json:"collections"`
}

// detailResponse is the backend's error body shape.
type detailResponse struct {
	Detail string `json:"detail"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the ragchat backend over REST.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL. An empty URL falls
// back to DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: sharedHTTPClient,
	}
}

// WithTimeout sets the request timeout. The shared pooled transport is
// kept.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	client := *sharedHTTPClient
	client.Timeout = timeout
	c.httpClient = &client
	return c
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// ListConversations fetches all conversation summaries.
func (c *Client) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	var out conversationListResponse
	if err := c.getJSON(ctx, "/conversations", &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// GetConversation fetches a full conversation with its messages.
func (c *Client) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var out model.Conversation
	if err := c.getJSON(ctx, "/conversations/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation removes a conversation by identifier.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/conversations/"+id, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	_, err = c.do(req)
	return err
}

// =============================================================================
// CHAT
// =============================================================================

// SendChat posts a chat message. The request carries the active
// conversation identifier (or none, in which case the backend creates a
// conversation) and the current session settings.
func (c *Client) SendChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.postJSON(ctx, "/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// MODELS AND COLLECTIONS
// =============================================================================

// ListModels fetches the available-model listing.
func (c *Client) ListModels(ctx context.Context) ([]model.ModelDescriptor, error) {
	var out modelsResponse
	if err := c.getJSON(ctx, "/available-models", &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

// ListCollections fetches the names of known document collections.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	var out collectionsResponse
	if err := c.getJSON(ctx, "/rag/collections", &out); err != nil {
		return nil, err
	}
	return out.Collections, nil
}

// =============================================================================
// RAG
// =============================================================================

// Query runs a stateless direct query against a collection.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	var out QueryResponse
	if err := c.postJSON(ctx, "/rag/query", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadDocument submits one file into one collection as a multipart
// request and reports the chunk count the backend produced.
func (c *Client) UploadDocument(ctx context.Context, path, collection string) (*UploadDetails, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if err := w.WriteField("collection_name", collection); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rag/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var out uploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &out.Details, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// do executes a request and returns the response body, converting non-2xx
// statuses to a BackendError. There is no retry: every failure is handed
// back to the user to re-initiate.
func (c *Client) do(req *http.Request) ([]byte, error) {
	logRequest(req)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	logResponse(resp, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorFromResponse(resp.StatusCode, body)
	}
	return body, nil
}

// readResponse reads the body with a size cap.
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// errorFromResponse converts an error body to a BackendError, decoding
// the backend's {"detail": ...} shape when present.
func errorFromResponse(status int, body []byte) error {
	var dr detailResponse
	detail := ""
	if err := json.Unmarshal(body, &dr); err == nil {
		detail = dr.Detail
	}

	be := &BackendError{Status: status, Detail: detail}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrNotFound, be)
	}
	return be
}

// logRequest logs an API request without exposing sensitive data.
// Headers and bodies are never logged (the chat payload may carry a user
// API key).
func logRequest(req *http.Request) {
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs status code and duration only.
func logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, duration)
}
