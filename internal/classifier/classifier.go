// Package classifier assigns a business category to parsed emails using an
// ordered set of keyword rules. Classification is a pure function of the
// message's subject and plain-text body.
package classifier

import (
	"regexp"
	"strings"

	"github.com/oneboxhq/onebox/pkg/models"
)

// scope controls which part of the message a rule is matched against.
type scope int

const (
	scopeContent scope = iota // lower-cased subject + body
	scopeSubject              // lower-cased subject only
)

type rule struct {
	category models.Category
	pattern  *regexp.Regexp
	scope    scope
}

// rules are evaluated in order; the first match wins. The ordering is a
// deliberate tie-break policy: a message mentioning both "meeting" and
// "interested" is Meeting Booked, never Interested.
var rules = []rule{
	{models.CategoryMeetingBooked, wordPattern("meeting", "schedule", "calendar", "book a time", "call"), scopeContent},
	{models.CategoryInterested, wordPattern("interested", "learn more", "next steps", "demo", "proposal", "quote"), scopeContent},
	{models.CategoryNotInterested, wordPattern("not interested", "unsubscribe", "not a fit", "remove me"), scopeContent},
	{models.CategoryOutOfOffice, wordPattern("out of office", "away from my desk", "auto-reply", "ooo"), scopeContent},
	{models.CategorySpam, wordPattern("spam", "lottery", "winner", "congratulations", "free gift"), scopeSubject},
	{models.CategoryPromotional, wordPattern("sale", "% off", "discount", "offer", "limited time", "new arrivals"), scopeContent},
}

func wordPattern(words ...string) *regexp.Regexp {
	escaped := make([]string, len(words))
	for i, w := range words {
		escaped[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(` + strings.Join(escaped, "|") + `)\b`)
}

// Classify maps a message's subject and plain-text body to exactly one
// category. It is deterministic and never fails: a message with no matching
// keywords, or no content at all, is Uncategorized.
func Classify(subject, text string) models.Category {
	subject = strings.ToLower(subject)
	content := subject + " " + strings.ToLower(text)

	for _, r := range rules {
		input := content
		if r.scope == scopeSubject {
			input = subject
		}
		if r.pattern.MatchString(input) {
			return r.category
		}
	}
	return models.CategoryUncategorized
}
