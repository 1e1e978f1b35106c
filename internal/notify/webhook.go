package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/oneboxhq/onebox/pkg/models"
)

// WebhookNotifier posts a generic machine-readable event to an external
// webhook endpoint.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

// NewWebhookNotifier creates a webhook notifier. An empty URL disables it.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:        url,
		httpClient: newHTTPClient(),
	}
}

type webhookEmail struct {
	From      string    `json:"from"`
	Subject   string    `json:"subject"`
	Date      time.Time `json:"date"`
	MessageID string    `json:"messageId"`
}

type webhookPayload struct {
	Event    string       `json:"event"`
	Category string       `json:"category"`
	Email    webhookEmail `json:"email"`
}

// Notify posts the event. It is a no-op when no URL is configured.
func (n *WebhookNotifier) Notify(ctx context.Context, doc *models.Document) error {
	if n.url == "" {
		return nil
	}

	payload := webhookPayload{
		Event:    "email_categorized",
		Category: string(doc.Category),
		Email: webhookEmail{
			From:      doc.FromAddr,
			Subject:   doc.Subject,
			Date:      doc.Date,
			MessageID: doc.MessageID,
		},
	}

	return postJSON(ctx, n.httpClient, n.url, payload)
}
