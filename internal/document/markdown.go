package document

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// MarkdownParser flattens .md files to plain text. Some suppliers send
// invoices exported as markdown, so the label/value lines must survive
// the conversion intact.
type MarkdownParser struct{}

func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

func (p *MarkdownParser) Parse(ctx context.Context, filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read markdown file: %w", err)
	}
	return p.ParseBytes(ctx, data, filePath)
}

func (p *MarkdownParser) ParseBytes(_ context.Context, data []byte, _ string) (string, error) {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)
	doc := mdParser.Parse(data)

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	rendered := markdown.Render(doc, renderer)

	return stripHTML(string(rendered)), nil
}

// blockTags are rendered as line breaks so that "ИНН: ..." in a table
// cell or list item stays on its own line for the extraction patterns.
var blockTags = []struct{ tag, repl string }{
	{"<br>", "\n"}, {"<br/>", "\n"}, {"<br />", "\n"},
	{"</p>", "\n"}, {"</li>", "\n"}, {"</tr>", "\n"},
	{"</td>", " "}, {"</th>", " "},
	{"</h1>", "\n"}, {"</h2>", "\n"}, {"</h3>", "\n"},
	{"</h4>", "\n"}, {"</h5>", "\n"}, {"</h6>", "\n"},
}

// stripHTML removes markup from rendered HTML, keeping line structure.
func stripHTML(s string) string {
	for _, t := range blockTags {
		s = strings.ReplaceAll(s, t.tag, t.repl)
	}

	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}

	// collapse runs of spaces but keep newlines, the extraction rules
	// depend on line boundaries
	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
