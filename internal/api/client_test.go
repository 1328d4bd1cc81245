// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestListConversations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/conversations" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"conversations": [
			{"id": "c1", "title": "First", "messages": []},
			{"id": "c2", "title": "Second", "messages": []}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	convs, err := client.ListConversations(testContext(t))
	if err != nil {
		t.Fatalf("ListConversations error: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("got %d conversations, want 2", len(convs))
	}
	if convs[0].ID != "c1" || convs[1].Title != "Second" {
		t.Errorf("unexpected conversations: %+v", convs)
	}
}

func TestGetConversation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations/c1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "c1", "title": "First", "messages": [
			{"id": "m1", "role": "user", "content": "hi", "timestamp": "2025-01-02T10:00:00Z"},
			{"id": "m2", "role": "assistant", "content": "hello", "timestamp": "2025-01-02T10:00:01Z"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	conv, err := client.GetConversation(testContext(t), "c1")
	if err != nil {
		t.Fatalf("GetConversation error: %v", err)
	}
	if conv.MessageCount() != 2 {
		t.Fatalf("got %d messages, want 2", conv.MessageCount())
	}
	if !conv.Messages[0].IsUser() || !conv.Messages[1].IsAssistant() {
		t.Error("message roles not decoded")
	}
}

func TestDeleteConversation(t *testing.T) {
	deleted := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete && r.URL.Path == "/conversations/gone" {
			deleted = true
		}
		w.Write([]byte(`{"status": "deleted"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.DeleteConversation(testContext(t), "gone"); err != nil {
		t.Fatalf("DeleteConversation error: %v", err)
	}
	if !deleted {
		t.Error("DELETE request was not issued")
	}
}

func TestSendChat(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"conversation_id": "c-new", "response": "answer"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.SendChat(testContext(t), ChatRequest{
		Message:        "hello",
		UseRAG:         true,
		CollectionName: "default_collection",
		Model:          "m1",
	})
	if err != nil {
		t.Fatalf("SendChat error: %v", err)
	}
	if resp.ConversationID != "c-new" {
		t.Errorf("ConversationID = %q, want %q", resp.ConversationID, "c-new")
	}
	if got.Message != "hello" || !got.UseRAG || got.CollectionName != "default_collection" {
		t.Errorf("request not carried: %+v", got)
	}
}

// An unset API key and model must be absent from the wire payload, not
// transmitted as empty strings.
func TestSendChatOmitsEmptyOptionalFields(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"conversation_id": "c1", "response": "ok"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SendChat(testContext(t), ChatRequest{
		Message:        "hi",
		CollectionName: "default_collection",
	})
	if err != nil {
		t.Fatalf("SendChat error: %v", err)
	}

	for _, field := range []string{"api_key", "model", "conversation_id"} {
		if _, present := raw[field]; present {
			t.Errorf("field %q should be omitted when unset", field)
		}
	}
}

func TestBackendDetailSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"detail": "rate limited"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SendChat(testContext(t), ChatRequest{Message: "hi", CollectionName: "c"})
	if err == nil {
		t.Fatal("expected error")
	}

	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("error is not a BackendError: %v", err)
	}
	if be.Detail != "rate limited" {
		t.Errorf("Detail = %q, want %q", be.Detail, "rate limited")
	}
	if Detail(err, "fallback") != "rate limited" {
		t.Errorf("Detail() should surface the backend message")
	}
}

func TestDetailFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.ListModels(testContext(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if Detail(err, "generic notice") != "generic notice" {
		t.Errorf("Detail() should fall back when the backend sent no detail")
	}
}

func TestNotFoundSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "no such conversation"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetConversation(testContext(t), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if Detail(err, "") != "no such conversation" {
		t.Errorf("detail should survive the not-found wrap")
	}
}

func TestUnreachableBackend(t *testing.T) {
	// Port 1 should refuse connections.
	client := NewClient("http://127.0.0.1:1")
	_, err := client.ListCollections(testContext(t))
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/available-models" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"models": [{"id": "a", "name": "Model A", "provider": "acme"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	models, err := client.ListModels(testContext(t))
	if err != nil {
		t.Fatalf("ListModels error: %v", err)
	}
	if len(models) != 1 || models[0].Label() != "Model A (acme)" {
		t.Errorf("unexpected models: %+v", models)
	}
}

func TestQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Query != "what is this" || req.CollectionName != "docs" {
			t.Errorf("unexpected query request: %+v", req)
		}
		w.Write([]byte(`{"answer": "an answer", "sources": [
			{"content": "excerpt", "metadata": {"source": "x.pdf"}, "score": 0.92}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Query(testContext(t), QueryRequest{Query: "what is this", CollectionName: "docs"})
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if resp.Answer != "an answer" || len(resp.Sources) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Sources[0].Origin() != "x.pdf" || resp.Sources[0].Score != 0.92 {
		t.Errorf("source not decoded: %+v", resp.Sources[0])
	}
}

func TestUploadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.pdf")
	if err := os.WriteFile(path, []byte("pdf bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("collection_name") != "docs" {
			t.Errorf("collection_name = %q", r.FormValue("collection_name"))
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "x.pdf" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		w.Write([]byte(`{"details": {"chunks": 5, "filename": "x.pdf"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	details, err := client.UploadDocument(testContext(t), path, "docs")
	if err != nil {
		t.Fatalf("UploadDocument error: %v", err)
	}
	if details.Chunks != 5 || details.Filename != "x.pdf" {
		t.Errorf("unexpected details: %+v", details)
	}
}

func TestUploadMissingFile(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.UploadDocument(testContext(t), "/does/not/exist.pdf", "docs")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestBaseURLDefaultsAndTrim(t *testing.T) {
	if NewClient("").BaseURL() != DefaultBaseURL {
		t.Error("empty base URL should fall back to the default")
	}
	if NewClient("http://x/").BaseURL() != "http://x" {
		t.Error("trailing slash should be trimmed")
	}
}
