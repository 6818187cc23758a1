// Package markup renders the inline Markdown allowed in text fields of
// worksheets, books and free prompts. The HTML backend uses ToHTML; the
// PDF backend draws ToPlain output with its own fonts.
package markup

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// ErrConversion indicates Markdown could not be rendered.
var ErrConversion = errors.New("markdown conversion failed")

// Bullet prefixes list items in plain-text output.
const Bullet = "• "

// Converter renders Markdown fragments with goldmark. Safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

// New creates a Converter with GFM (task lists, strikethrough, tables).
func New() *Converter {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			// WithUnsafe is not used: raw HTML in content is dropped.
		),
	)
	return &Converter{md: md}
}

// ToHTML renders src as an HTML fragment.
func (c *Converter) ToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrConversion, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// ToPlain strips Markdown syntax and keeps the readable text. Block
// boundaries become newlines, list items get a bullet and task items a
// ballot box.
func (c *Converter) ToPlain(src string) string {
	source := []byte(src)
	doc := c.md.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(source))
				if node.HardLineBreak() {
					b.WriteByte('\n')
				} else if node.SoftLineBreak() {
					b.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
		case *ast.ListItem:
			if entering {
				b.WriteString(Bullet)
			}
		case *extast.TaskCheckBox:
			if entering {
				if node.IsChecked {
					b.WriteString("☑ ")
				} else {
					b.WriteString("☐ ")
				}
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(source))
				}
			}
		case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
			if !entering {
				b.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return tidy(b.String())
}

// tidy drops trailing spaces left by soft breaks and collapses runs of
// blank lines.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	s = strings.Join(lines, "\n")
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return strings.Trim(s, "\n")
}
