// Package mailparse converts raw RFC 5322 message streams into the
// structured shape the rest of the pipeline works with.
package mailparse

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/oneboxhq/onebox/pkg/models"
)

// Parse reads one raw message and returns its structured form. AccountID and
// SeqNum are filled in by the caller. Malformed input returns an error; the
// caller logs it and drops the message.
func Parse(r io.Reader) (*models.Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail reader: %w", err)
	}

	msg := &models.Message{}

	msg.Subject, _ = mr.Header.Subject()
	msg.Date, _ = mr.Header.Date()
	if msg.Date.IsZero() {
		msg.Date = time.Now().UTC()
	}

	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = models.Address{Name: from[0].Name, Address: from[0].Address}
	}
	if to, err := mr.Header.AddressList("To"); err == nil {
		for _, a := range to {
			msg.To = append(msg.To, models.Address{Name: a.Name, Address: a.Address})
		}
	}

	if id, err := mr.Header.MessageID(); err == nil && id != "" {
		msg.MessageID = id
	} else {
		// Some senders omit Message-ID; generate one so the index
		// still has a stable document key.
		msg.MessageID = uuid.NewString() + "@onebox.generated"
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A broken part should not discard what was already read.
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		ct, _, _ := header.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(ct, "text/html"):
			msg.BodyHTML = string(body)
		case strings.HasPrefix(ct, "text/plain"):
			msg.BodyText = string(body)
		}
	}

	// HTML-only messages still need a plain-text body for classification
	// and full-text search.
	if msg.BodyText == "" && msg.BodyHTML != "" {
		if text, err := HTMLText(msg.BodyHTML); err == nil {
			msg.BodyText = text
		}
	}

	return msg, nil
}
