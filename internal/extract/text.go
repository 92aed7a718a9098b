// -----------------------------------------------------------------------
// Text Helpers - HTML to plain text and sentence handling for filings
// -----------------------------------------------------------------------

package extract

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	sentenceRe   = regexp.MustCompile(`[.!?]\s+`)
)

// PlainText strips an HTML filing document down to readable text. Script,
// style and hidden XBRL sections are removed before text extraction.
// Non-HTML input (Form 4 XML, plain text filings) passes through with
// whitespace normalized.
func PlainText(content string) string {
	if !strings.Contains(content, "<") {
		return normalizeWhitespace(content)
	}

	// Adjacent elements would otherwise run together in the extracted
	// text ("</p><p>" yields no separator).
	padded := strings.ReplaceAll(content, "<", " <")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(padded))
	if err != nil {
		return normalizeWhitespace(content)
	}

	doc.Find("script, style, head, ix\\:header").Remove()
	return normalizeWhitespace(doc.Text())
}

// Markdown converts an HTML filing document to markdown, used when a
// rendered summary needs document structure preserved.
func Markdown(content string) string {
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(content)
	if err != nil {
		return PlainText(content)
	}
	return strings.TrimSpace(markdown)
}

// Sentences splits plain text into sentences. Splitting is heuristic;
// abbreviations may produce short fragments, which callers filter by
// length where it matters.
func Sentences(text string) []string {
	parts := sentenceRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Snippet trims a sentence to a bounded evidence excerpt.
func Snippet(sentence string, maxLen int) string {
	sentence = strings.TrimSpace(sentence)
	if len(sentence) <= maxLen {
		return sentence
	}
	cut := sentence[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
