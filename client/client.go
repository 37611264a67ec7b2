// Package client provides a Go client for the liveboard server: typed
// actions against the realtime endpoint plus a snapshot stream consumer.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.HTTP = httpClient
		}
	}
}

type Counter struct {
	Count       int64 `json:"count"`
	LastUpdated int64 `json:"lastUpdated"`
}

type ChatMessage struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type VoteOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Votes int64  `json:"votes"`
}

// State is the full snapshot the server returns from every action and
// pushes down the stream.
type State struct {
	Counter      Counter       `json:"counter"`
	ChatMessages []ChatMessage `json:"chatMessages"`
	Votes        []VoteOption  `json:"votes"`
}

type action struct {
	Action   string `json:"action"`
	OptionID string `json:"optionId,omitempty"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message,omitempty"`
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Increment(ctx context.Context) (State, error) {
	return c.do(ctx, action{Action: "increment"})
}

func (c *Client) Decrement(ctx context.Context) (State, error) {
	return c.do(ctx, action{Action: "decrement"})
}

func (c *Client) Reset(ctx context.Context) (State, error) {
	return c.do(ctx, action{Action: "reset"})
}

func (c *Client) Vote(ctx context.Context, optionID string) (State, error) {
	return c.do(ctx, action{Action: "vote", OptionID: optionID})
}

func (c *Client) Chat(ctx context.Context, username, message string) (State, error) {
	return c.do(ctx, action{Action: "chat", Username: username, Message: message})
}

// State fetches the current snapshot without mutating anything.
func (c *Client) State(ctx context.Context) (State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/state", nil)
	if err != nil {
		return State{}, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return State{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return State{}, fmt.Errorf("state failed: %d", resp.StatusCode)
	}
	var out State
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return State{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, act action) (State, error) {
	buf, err := json.Marshal(act)
	if err != nil {
		return State{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/realtime", bytes.NewReader(buf))
	if err != nil {
		return State{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return State{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return State{}, fmt.Errorf("action %s failed: %d", act.Action, resp.StatusCode)
	}
	var out State
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return State{}, err
	}
	return out, nil
}
