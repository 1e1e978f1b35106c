// Package notify fires best-effort alerts for high-value classifications.
// Every notifier is fire-and-forget: a missing destination is a silent no-op
// and a delivery failure never propagates beyond a log line at the caller.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/oneboxhq/onebox/pkg/models"
)

// Notifier delivers an alert for one classified message.
type Notifier interface {
	Notify(ctx context.Context, doc *models.Document) error
}

// snippetLen caps the body excerpt included in notification payloads.
const snippetLen = 200

func snippet(text string) string {
	if len(text) <= snippetLen {
		return text
	}
	// Back off to a rune boundary so the cut never produces invalid UTF-8.
	cut := snippetLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

// postJSON sends a JSON payload to a webhook URL and checks for a 2xx reply.
func postJSON(ctx context.Context, client *http.Client, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
