// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// READER TESTS
// =============================================================================

func TestReaderReadEvent(t *testing.T) {
	input := "data: hello\n\ndata: world\n\n"
	r := NewReader(strings.NewReader(input))

	_, data, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("expected 'hello', got %q", data)
	}

	_, data, err = r.ReadEvent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "world" {
		t.Errorf("expected 'world', got %q", data)
	}

	_, _, err = r.ReadEvent()
	if err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReaderCRLFAndComments(t *testing.T) {
	input := ": comment\r\nretry: 3000\r\ndata: chunk\r\n\r\n"
	r := NewReader(strings.NewReader(input))

	_, data, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "chunk" {
		t.Errorf("expected 'chunk', got %q", data)
	}
}

func TestReaderEventType(t *testing.T) {
	input := "event: message\ndata: payload\n\n"
	r := NewReader(strings.NewReader(input))

	eventType, data, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eventType != "message" {
		t.Errorf("expected event type 'message', got %q", eventType)
	}
	if string(data) != "payload" {
		t.Errorf("expected 'payload', got %q", data)
	}
}

func TestReaderDataBeforeEOF(t *testing.T) {
	// Final event without trailing blank line is still delivered.
	r := NewReader(strings.NewReader("data: tail\n"))

	_, data, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "tail" {
		t.Errorf("expected 'tail', got %q", data)
	}
}

// =============================================================================
// CLASSIFY TESTS
// =============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		payload string
		want    EventKind
	}{
		{"", EventEmpty},
		{"[DONE]", EventDone},
		{"ping", EventHeartbeat},
		{"keepalive", EventHeartbeat},
		{"hello", EventContent},
		{"[done]", EventContent}, // sentinel is case-sensitive
		{" ping", EventContent},
	}

	for _, tt := range tests {
		if got := Classify(tt.payload); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.payload, got, tt.want)
		}
	}
}

// =============================================================================
// CONNECTION TESTS
// =============================================================================

func TestClientOpenEncodesParams(t *testing.T) {
	var gotMemoryID, gotMessage string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMemoryID = r.URL.Query().Get("memoryId")
		gotMessage = r.URL.Query().Get("message")
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: ok\n\ndata: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL)
	conn, err := client.Open(context.Background(), 123456789012345, "hello & 世界?")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()

	if gotMemoryID != "123456789012345" {
		t.Errorf("memoryId = %q", gotMemoryID)
	}
	if gotMessage != "hello & 世界?" {
		t.Errorf("message = %q", gotMessage)
	}

	payload, err := conn.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if payload != "ok" {
		t.Errorf("payload = %q", payload)
	}
}

func TestClientOpenNonOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Open(context.Background(), 1, "hi"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestConnReadEOFAfterServerClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: only\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL)
	conn, err := client.Open(context.Background(), 1, "hi")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()

	if payload, err := conn.Read(); err != nil || payload != "only" {
		t.Fatalf("Read = %q, %v", payload, err)
	}
	if _, err := conn.Read(); err != io.EOF {
		t.Errorf("expected io.EOF after server close, got %v", err)
	}
}
