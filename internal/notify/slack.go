package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/oneboxhq/onebox/pkg/models"
)

// SlackNotifier posts a formatted lead alert to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewSlackNotifier creates a Slack notifier. An empty URL disables it.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: newHTTPClient(),
	}
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

// Notify posts the lead alert. It is a no-op when no webhook is configured.
func (n *SlackNotifier) Notify(ctx context.Context, doc *models.Document) error {
	if n.webhookURL == "" {
		return nil
	}

	from := doc.FromAddr
	if doc.FromName != "" {
		from = fmt.Sprintf("%s <%s>", doc.FromName, doc.FromAddr)
	}

	payload := slackPayload{
		Text: `New "Interested" Lead!`,
		Blocks: []slackBlock{
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: `*New "Interested" Lead!*`}},
			{Type: "divider"},
			{Type: "section", Fields: []slackText{
				{Type: "mrkdwn", Text: "*From:*\n" + from},
				{Type: "mrkdwn", Text: "*Date:*\n" + doc.Date.Format("Jan 2, 2006 15:04")},
			}},
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: "*Subject:*\n" + doc.Subject}},
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: "*Snippet:*\n>" + snippet(doc.BodyText)}},
		},
	}

	return postJSON(ctx, n.httpClient, n.webhookURL, payload)
}
