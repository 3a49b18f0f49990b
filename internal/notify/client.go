package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client calls the SMS gateway's template-send endpoint.
type Client struct {
	BaseURL  string
	APIKey   string
	SenderID string
	HTTP     *http.Client
}

// NewClient creates a gateway client with a short delivery timeout; a
// slow provider must not back the dispatch loop up indefinitely.
func NewClient(baseURL, apiKey, senderID string) *Client {
	return &Client{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		SenderID: senderID,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendRequest struct {
	Sender    string            `json:"sender"`
	To        string            `json:"to"`
	Template  string            `json:"template"`
	Variables map[string]string `json:"variables"`
}

type sendResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Send delivers one templated message to a phone number.
func (c *Client) Send(ctx context.Context, to, templateID string, vars map[string]string) error {
	body, err := json.Marshal(sendRequest{
		Sender:    c.SenderID,
		To:        to,
		Template:  templateID,
		Variables: vars,
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway: status %d", resp.StatusCode)
	}
	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	if !out.OK {
		return fmt.Errorf("sms gateway rejected message: %s", out.Message)
	}
	return nil
}
