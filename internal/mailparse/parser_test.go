package mailparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainMessage = "From: Alice Example <alice@example.com>\r\n" +
	"To: Bob <bob@example.com>, Carol <carol@example.com>\r\n" +
	"Subject: Quarterly update\r\n" +
	"Date: Tue, 15 Jul 2025 10:30:00 +0000\r\n" +
	"Message-ID: <abc123@example.com>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Here is the quarterly update.\r\n"

const multipartMessage = "From: Alice <alice@example.com>\r\n" +
	"To: Bob <bob@example.com>\r\n" +
	"Subject: Hello\r\n" +
	"Date: Tue, 15 Jul 2025 10:30:00 +0000\r\n" +
	"Message-ID: <multi@example.com>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=frontier\r\n" +
	"\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Plain body here.\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body><p>HTML body here.</p></body></html>\r\n" +
	"--frontier--\r\n"

const htmlOnlyMessage = "From: Alice <alice@example.com>\r\n" +
	"Subject: Offer inside\r\n" +
	"Date: Tue, 15 Jul 2025 10:30:00 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body><p>Big news.</p><p>More below.</p></body></html>\r\n"

func TestParsePlainMessage(t *testing.T) {
	msg, err := Parse(strings.NewReader(plainMessage))
	require.NoError(t, err)

	assert.Equal(t, "Quarterly update", msg.Subject)
	assert.Equal(t, "abc123@example.com", msg.MessageID)
	assert.Equal(t, "Alice Example", msg.From.Name)
	assert.Equal(t, "alice@example.com", msg.From.Address)
	require.Len(t, msg.To, 2)
	assert.Equal(t, "bob@example.com", msg.To[0].Address)
	assert.Equal(t, "Here is the quarterly update.", strings.TrimSpace(msg.BodyText))
	assert.Empty(t, msg.BodyHTML)
	assert.Equal(t, 2025, msg.Date.Year())
}

func TestParseMultipartMessage(t *testing.T) {
	msg, err := Parse(strings.NewReader(multipartMessage))
	require.NoError(t, err)

	assert.Equal(t, "Hello", msg.Subject)
	assert.Contains(t, msg.BodyText, "Plain body here.")
	assert.Contains(t, msg.BodyHTML, "HTML body here.")
}

func TestParseHTMLOnlyDerivesText(t *testing.T) {
	msg, err := Parse(strings.NewReader(htmlOnlyMessage))
	require.NoError(t, err)

	assert.Contains(t, msg.BodyHTML, "<p>")
	assert.Contains(t, msg.BodyText, "Big news.")
	assert.Contains(t, msg.BodyText, "More below.")
	assert.NotContains(t, msg.BodyText, "<p>")
}

func TestParseMissingMessageIDGetsFallback(t *testing.T) {
	msg, err := Parse(strings.NewReader(htmlOnlyMessage))
	require.NoError(t, err)

	assert.NotEmpty(t, msg.MessageID)
	assert.Contains(t, msg.MessageID, "@onebox.generated")
}

func TestHTMLText(t *testing.T) {
	text, err := HTMLText(`<html><head><style>p{color:red}</style></head><body><p>Hello <b>world</b></p><script>alert(1)</script><div>Second line</div></body></html>`)
	require.NoError(t, err)

	assert.Contains(t, text, "Hello world")
	assert.Contains(t, text, "Second line")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "<")
}

func TestHTMLTextEmpty(t *testing.T) {
	text, err := HTMLText("")
	require.NoError(t, err)
	assert.Empty(t, text)
}
