// Package client provides a Go client for the liveboard server.
// This file contains the SSE consumer for the snapshot stream.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// SnapshotHandler is called once per pushed snapshot frame.
type SnapshotHandler func(State)

// Stream opens the snapshot stream and invokes handler for every data
// frame until ctx is cancelled or the connection drops. Comment keepalives
// are skipped. A nil error means ctx ended the stream.
func (c *Client) Stream(ctx context.Context, handler SnapshotHandler) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/realtime", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream is long-lived; the client's request timeout must not
	// apply here.
	httpClient := &http.Client{Transport: c.HTTP.Transport}
	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream failed: %d", resp.StatusCode)
	}

	br := bufio.NewReader(resp.Body)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("stream read: %w", err)
		}
		line = strings.TrimRight(line, "\n")
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var snapshot State
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snapshot); err != nil {
			return fmt.Errorf("decode frame: %w", err)
		}
		handler(snapshot)
	}
}
