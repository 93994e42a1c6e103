// Package client is the consumer-side library for the VeriClause API. It
// decodes the chat event stream incrementally with the sse parser so
// partial answers render as they arrive.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/vericlause/vericlause-ai/internal/domain/analysis"
	"github.com/vericlause/vericlause-ai/internal/domain/chat"
	"github.com/vericlause/vericlause-ai/internal/sse"
)

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: http.DefaultClient,
	}
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return c.HTTPClient.Do(req)
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return fmt.Errorf("request failed with HTTP %d", resp.StatusCode)
	}
	return fmt.Errorf("%s (HTTP %d)", body.Error, resp.StatusCode)
}

// Analyze submits contract text for structured analysis.
func (c *Client) Analyze(ctx context.Context, contractText string) (*analysis.Result, error) {
	resp, err := c.post(ctx, "/v1/analyze", map[string]string{"contractText": contractText})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	var result analysis.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ChatRequest mirrors the chat endpoint body.
type ChatRequest struct {
	ContractText  string         `json:"contractText"`
	ReferenceDocs string         `json:"referenceDocs,omitempty"`
	Messages      []chat.Message `json:"messages"`
}

// Chat streams one assistant turn. Deltas are delivered in arrival order
// through onDelta; the accumulated text is returned. On a mid-stream
// failure the partial text accumulated so far is returned with the error.
func (c *Client) Chat(ctx context.Context, req ChatRequest, onDelta func(string)) (string, error) {
	resp, err := c.post(ctx, "/v1/chat", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}

	parser := sse.NewParser()
	var accumulated bytes.Buffer
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			deltas, parseErr := parser.Feed(buf[:n])
			for _, d := range deltas {
				accumulated.WriteString(d)
				if onDelta != nil {
					onDelta(d)
				}
			}
			if parseErr != nil {
				return accumulated.String(), parseErr
			}
		}
		if readErr != nil {
			// io.EOF is the normal transport end; anything else keeps the
			// partial answer and reports the failure.
			if errors.Is(readErr, io.EOF) {
				return accumulated.String(), nil
			}
			return accumulated.String(), readErr
		}
	}
}
