// Package notifier delivers warm digests and command replies over Telegram.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramNotifier posts digests to one chat and answers commands from it.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	BaseURL  string
	Client   *http.Client
}

// NewTelegramNotifier builds a notifier; proxyURL may be empty.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		BaseURL:  defaultTelegramAPI,
		Client:   &http.Client{Timeout: 30 * time.Second, Transport: transport},
	}
}

// botResponse is the envelope every Bot API method answers with.
type botResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// BotAPIError reports a rejected Bot API call.
type BotAPIError struct {
	Method      string
	Status      int
	Description string
}

func (e *BotAPIError) Error() string {
	return fmt.Sprintf("telegram %s: status %d: %s", e.Method, e.Status, e.Description)
}

// call posts payload as JSON to a Bot API method and decodes the result into out.
func (t *TelegramNotifier) call(ctx context.Context, client *http.Client, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(t.BaseURL, "/"), t.BotToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var env botResponse
	if jsonErr := json.Unmarshal(raw, &env); jsonErr != nil || !env.OK || resp.StatusCode != http.StatusOK {
		desc := env.Description
		if desc == "" {
			desc = strings.TrimSpace(string(raw))
		}
		return &BotAPIError{Method: method, Status: resp.StatusCode, Description: desc}
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send posts an HTML-formatted message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	return t.call(ctx, t.Client, "sendMessage", sendMessageRequest{
		ChatID:    t.ChatID,
		Text:      text,
		ParseMode: "HTML",
	}, nil)
}

// SendWithRetry retries Send with a doubling backoff starting at one second.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = t.Send(ctx, text); err == nil {
			return nil
		}
		if attempt == maxRetries {
			return fmt.Errorf("all %d attempts failed: %w", maxRetries+1, err)
		}
		wait := time.Second << attempt
		log.Printf("[WARN] Telegram send failed (attempt %d/%d): %v, retrying in %v", attempt+1, maxRetries+1, err, wait)
		if !sleep(ctx, wait) {
			return ctx.Err()
		}
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
