// Package sanitize cleans scraped or user-provided text before it is stored or
// embedded in an AI prompt.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`[ \t]+`)
)

// StripHTML extracts the text content of s. Entities are decoded and tags that only
// appear after decoding are removed as well. Script and style bodies are dropped.
func StripHTML(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))

	var sb strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(htmlTagRegex.ReplaceAllString(sb.String(), ""))
		case html.StartTagToken:
			if isRawTextElement(z) {
				skip++
			}
		case html.EndTagToken:
			if skip > 0 && isRawTextElement(z) {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

func isRawTextElement(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	tag := string(name)
	return tag == "script" || tag == "style"
}

// Text strips HTML, applies NFKC normalization and collapses runs of spaces. Used for
// stored free-text fields.
func Text(s string) string {
	return whitespaceRegex.ReplaceAllString(norm.NFKC.String(StripHTML(s)), " ")
}

// PromptText prepares untrusted text for inclusion in a prompt: HTML and control
// characters (except newline and tab) are removed and the result is cut to maxLen runes.
func PromptText(s string, maxLen int) string {
	cleaned := Text(s)

	var sb strings.Builder
	count := 0
	for _, r := range cleaned {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		if maxLen > 0 && count >= maxLen {
			sb.WriteString("... [truncated]")
			break
		}
		sb.WriteRune(r)
		count++
	}
	return sb.String()
}
