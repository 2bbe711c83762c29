package conv

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/inbucket/html2text"
	"github.com/microcosm-cc/bluemonday"
)

var (
	extensions = parser.CommonExtensions | parser.NoEmptyLineBeforeBlock
	htmlFlags  = html.CommonFlags
	docPolicy  = bluemonday.UGCPolicy()
)

// MarkdownToHTML renders markdown and drops anything outside the
// user-generated-content allow list.
func MarkdownToHTML(md []byte) string {
	// A parser keeps state between calls, so build one per document.
	p := parser.NewWithExtensions(extensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	unsafeHTML := markdown.Render(p.Parse(md), renderer)

	return string(docPolicy.SanitizeBytes(unsafeHTML))
}

// HTMLToText sanitizes an HTML document and flattens it to plain text.
// Script and style bodies never reach the output.
func HTMLToText(doc string) (string, error) {
	sanitized := docPolicy.Sanitize(doc)
	text, err := html2text.FromString(sanitized, html2text.Options{
		OmitLinks:    false,
		PrettyTables: true,
	})
	if err != nil {
		return "", fmt.Errorf("html to text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func MarkdownToText(md []byte) (string, error) {
	return HTMLToText(MarkdownToHTML(md))
}
