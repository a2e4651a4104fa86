// ABOUTME: Markdown to HTML conversion for content submitted with content_format=markdown
// ABOUTME: Uses a shared goldmark instance with GitHub-flavoured extensions

package cms

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Content formats accepted by create_content and update_content.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

func markdownConverter() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdown
}

// renderContent returns body as HTML. Markdown is converted; HTML is stored
// as given. Raw HTML inside markdown is not passed through.
func renderContent(body, format string) (string, error) {
	if format != FormatMarkdown {
		return body, nil
	}
	var buf bytes.Buffer
	if err := markdownConverter().Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}
