// Package mdtext 把 Markdown 文本展平成折行器使用的纯文本段落（每段一行）。
package mdtext

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Paragraphs 解析 Markdown，按块顺序返回段落文本。
// 标题、段落与列表项各占一段，列表项前加 "• "；行内格式只保留文字。
func Paragraphs(source []byte) ([]string, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	var out []string
	var walk func(n ast.Node, bullet string) error
	walk = func(n ast.Node, bullet string) error {
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			switch c := child.(type) {
			case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
				s, err := inlineText(c, source)
				if err != nil {
					return err
				}
				if s != "" {
					out = append(out, bullet+s)
					bullet = ""
				}
			case *ast.ListItem:
				if err := walk(c, "• "); err != nil {
					return err
				}
			case *ast.FencedCodeBlock, *ast.CodeBlock:
				lines := c.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					if s := strings.TrimSpace(string(seg.Value(source))); s != "" {
						out = append(out, s)
					}
				}
			case *ast.ThematicBreak:
				out = append(out, "")
			default:
				if err := walk(c, bullet); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(doc, ""); err != nil {
		return nil, fmt.Errorf("展平 Markdown 失败: %w", err)
	}
	return out, nil
}

// Text 以换行符连接 Paragraphs 的结果。
func Text(source []byte) (string, error) {
	paras, err := Paragraphs(source)
	if err != nil {
		return "", err
	}
	return strings.Join(paras, "\n"), nil
}

func inlineText(n ast.Node, source []byte) (string, error) {
	var sb strings.Builder
	err := ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		case *ast.CodeSpan:
			for c := t.FirstChild(); c != nil; c = c.NextSibling() {
				if txt, ok := c.(*ast.Text); ok {
					sb.Write(txt.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(sb.String()), " "), nil
}
