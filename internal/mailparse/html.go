package mailparse

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	whitespaceRegex = regexp.MustCompile(`[^\S\n]+`)
	newlineRegex    = regexp.MustCompile(`\n{3,}`)
	// Invisible Unicode characters (zero-width spaces and friends) that
	// marketing emails like to sprinkle around.
	invisibleRegex = regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}\x{00AD}\x{2060}-\x{2064}\x{FE00}-\x{FE0F}]+`)
)

// HTMLText converts an HTML email body to clean plain text.
func HTMLText(html string) (string, error) {
	if html == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, head, meta, link").Remove()

	// Block elements become line breaks.
	doc.Find("p, div, br, h1, h2, h3, h4, h5, h6, li, tr").Each(func(i int, s *goquery.Selection) {
		s.PrependHtml("\n")
	})

	text := doc.Text()
	text = invisibleRegex.ReplaceAllString(text, "")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	var clean []string
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			clean = append(clean, line)
		}
	}
	text = strings.Join(clean, "\n")
	text = newlineRegex.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text), nil
}
