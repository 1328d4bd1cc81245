// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/morganforge/ragchat/internal/api"
	"github.com/morganforge/ragchat/internal/model"
	"github.com/morganforge/ragchat/internal/ui/components"
	"github.com/morganforge/ragchat/internal/ui/styles"
)

type fakeBackend struct {
	uploadCalls int
	queryCalls  int
}

func (f *fakeBackend) UploadDocument(ctx context.Context, path, collection string) (*api.UploadDetails, error) {
	f.uploadCalls++
	return &api.UploadDetails{Chunks: 5, Filename: "x.pdf"}, nil
}

func (f *fakeBackend) Query(ctx context.Context, req api.QueryRequest) (*api.QueryResponse, error) {
	f.queryCalls++
	return &api.QueryResponse{Answer: "42"}, nil
}

func newTestModel(backend *fakeBackend) Model {
	m := New(styles.NewTheme(), backend, "default_collection")
	m.SetSize(100, 30)
	return m
}

func TestUploadSuccessClearsSelection(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m.fileInput.SetValue("/tmp/x.pdf")
	m, _ = m.submitUpload()

	m, cmd := m.Update(UploadDoneMsg{Details: &api.UploadDetails{Chunks: 5, Filename: "x.pdf"}})
	if m.fileInput.Value() != "" {
		t.Error("successful upload should clear the file selection")
	}
	if cmd == nil {
		t.Fatal("success should raise a toast")
	}
	toast := cmd().(components.ToastAddMsg)
	if toast.Kind != components.ToastKindSuccess {
		t.Errorf("toast kind = %v", toast.Kind)
	}
	if toast.Message != "Ingested x.pdf: 5 chunks into default_collection" {
		t.Errorf("toast message = %q", toast.Message)
	}
}

func TestUploadFailureRetainsSelection(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m.fileInput.SetValue("/tmp/x.pdf")
	m, _ = m.submitUpload()

	m, cmd := m.Update(UploadDoneMsg{Err: &api.BackendError{Status: 500, Detail: "ingestion failed"}})
	if m.fileInput.Value() != "/tmp/x.pdf" {
		t.Error("failed upload should keep the file selection for retry")
	}
	toast := cmd().(components.ToastAddMsg)
	if toast.Message != "ingestion failed" {
		t.Errorf("toast = %q, want the backend's wording", toast.Message)
	}
}

func TestEmptyUploadPathSkipsNetwork(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(backend)
	m.fileInput.SetValue("  ")

	m, cmd := m.submitUpload()
	if m.uploadFlow.Pending() {
		t.Error("blank path must not occupy the pending slot")
	}
	if toast := cmd().(components.ToastAddMsg); toast.Kind != components.ToastKindStatus {
		t.Errorf("got %v, want a status notice", toast.Kind)
	}
}

func TestUploadWhilePendingRefused(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m.fileInput.SetValue("/tmp/x.pdf")
	m, _ = m.submitUpload()

	_, cmd := m.submitUpload()
	if cmd != nil {
		t.Error("a second upload while one is pending must be refused")
	}
}

func TestQueryRendersAnswerAndSources(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m.queryInput.SetValue("what is the answer")
	m, _ = m.submitQuery()

	resp := &api.QueryResponse{
		Answer: "The answer is 42.",
		Sources: []model.Source{
			{Content: "deep thought output", Metadata: map[string]any{"source": "guide.pdf"}, Score: 0.91},
		},
	}
	m, _ = m.Update(QueryDoneMsg{Response: resp})
	if m.resultText == "" {
		t.Fatal("result should be rendered")
	}
	for _, want := range []string{"The answer is 42.", "guide.pdf", "0.910"} {
		if !strings.Contains(m.resultText, want) {
			t.Errorf("result missing %q", want)
		}
	}
	if m.queryFlow.Pending() {
		t.Error("query workflow should be idle after the result")
	}
}

func TestEmptyQuerySkipsNetwork(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(backend)
	m.queryInput.SetValue("")
	m.focus = sectionQuery

	_, cmd := m.submitQuery()
	if backend.queryCalls != 0 {
		t.Error("blank query must not reach the backend")
	}
	if toast := cmd().(components.ToastAddMsg); toast.Kind != components.ToastKindStatus {
		t.Errorf("got %v, want a status notice", toast.Kind)
	}
}
