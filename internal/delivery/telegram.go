package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// TelegramClient sends messages through the Telegram Bot API.
type TelegramClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// TelegramOption customizes the client.
type TelegramOption func(*TelegramClient)

// WithBaseURL points the client at a different API host, used by tests.
func WithBaseURL(url string) TelegramOption {
	return func(c *TelegramClient) {
		c.baseURL = url
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) TelegramOption {
	return func(c *TelegramClient) {
		c.httpClient = client
	}
}

// NewTelegramClient creates a sender authenticated by the given bot token.
func NewTelegramClient(token string, opts ...TelegramOption) *TelegramClient {
	c := &TelegramClient{
		baseURL:    defaultTelegramBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts the text to the destination chat via the sendMessage method.
func (c *TelegramClient) Send(ctx context.Context, destination int64, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: destination, Text: text})
	if err != nil {
		return fmt.Errorf("telegram: failed to encode message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("telegram: failed to read response: %w", err)
	}

	var decoded sendMessageResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("telegram: unexpected response (status %d): %w", resp.StatusCode, err)
	}
	if !decoded.OK {
		return fmt.Errorf("telegram: sendMessage rejected (status %d): %s", resp.StatusCode, decoded.Description)
	}

	return nil
}
