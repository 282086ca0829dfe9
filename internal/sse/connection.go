// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Base transport for streaming requests; each Client clones it so the
// connect timeout can differ without sharing mutable state.
var sharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// =============================================================================
// CLIENT
// =============================================================================

// Client opens streaming exchanges against the chat backend.
type Client struct {
	baseURL string

	// ConnectTimeout bounds the dial plus response-header wait. Zero
	// means unbounded. Set before the first Open; the stream itself has
	// no deadline, its lifetime is controlled by the request context.
	ConnectTimeout time.Duration

	initOnce sync.Once
	http     *http.Client
}

// NewClient creates a client for the given backend base URL
// (e.g. "http://localhost:8080").
func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL}
}

// httpClient lazily builds the underlying client on first use.
func (c *Client) httpClient() *http.Client {
	c.initOnce.Do(func() {
		t := sharedTransport.Clone()
		t.ResponseHeaderTimeout = c.ConnectTimeout
		c.http = &http.Client{Transport: t}
	})
	return c.http
}

// Open starts one streaming exchange. The request is addressed with the
// numeric session identifier (memoryId) and the raw user text (message),
// both percent-encoded in the query string.
func (c *Client) Open(ctx context.Context, sessionID int64, message string) (*Conn, error) {
	q := url.Values{}
	q.Set("memoryId", strconv.FormatInt(sessionID, 10))
	q.Set("message", message)

	reqURL := c.baseURL + "/chat/stream?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	return &Conn{
		body:   resp.Body,
		reader: NewReader(resp.Body),
	}, nil
}

// =============================================================================
// CONNECTION
// =============================================================================

// Conn is one open push connection. Read returns payloads in delivery
// order; the transport preserves send order, so no reordering happens here.
type Conn struct {
	body   io.ReadCloser
	reader *Reader
}

// Read returns the next event payload. io.EOF signals that the server
// closed the stream.
func (c *Conn) Read() (string, error) {
	_, data, err := c.reader.ReadEvent()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Close tears the connection down. Safe to call more than once.
func (c *Conn) Close() error {
	return c.body.Close()
}
