package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/folio/dsl"
)

const sampleDSL = `
doc Invoice v1 {
  meta {
    title: "Invoice"
    keywords: [
      "finance"
      "internal"
    ]
    lang: en
  }

  resources {
    font Body {
      src: "gofont:regular"
    }
    image Logo { src: "logo.png" }

    color Accent = #0F62FE
  }

  // 第一页
  page A4 portrait margin 50pt {
    image Logo width 100pt align right y 20pt
    text Body size 10pt color #333 { "Hello, ${customer.name}!" }
    /* 明细表 */
    table columns 60% 20% 20% {
      header { cell { "Item" }; cell { "Qty" }; cell { "Amount" } }
      row each "invoice.items" {
        cell { "${item.name}" }
      }
    }
    pagebreak
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if doc.Name != "Invoice" || doc.Version != "v1" {
		t.Fatalf("unexpected header: %s %s", doc.Name, doc.Version)
	}
	if len(doc.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(doc.Sections))
	}
	kinds := []string{doc.Sections[0].Kind(), doc.Sections[1].Kind(), doc.Sections[2].Kind()}
	if strings.Join(kinds, ",") != "meta,resources,page" {
		t.Fatalf("unexpected section kinds: %v", kinds)
	}

	meta := doc.Sections[0].Meta
	title := meta.Block.Statements[0].Assignment
	if title == nil || title.Key != "title" || string(*title.Value.String) != "Invoice" {
		t.Fatalf("expected title assignment, got %+v", meta.Block.Statements[0])
	}
	keywords := meta.Block.Statements[1].Assignment
	if keywords == nil || keywords.Value.Array == nil || len(keywords.Value.Array.Values) != 2 {
		t.Fatalf("expected 2 keywords, got %+v", keywords)
	}
	lang := meta.Block.Statements[2].Assignment
	if lang == nil || lang.Value.Ident == nil || *lang.Value.Ident != "en" {
		t.Fatalf("expected ident value for lang, got %+v", lang)
	}

	res := doc.Sections[1].Resources
	if len(res.Block.Statements) != 3 {
		t.Fatalf("expected 3 resources, got %d", len(res.Block.Statements))
	}
	color := res.Block.Statements[2].Command
	if color == nil || color.Name != "color" || len(color.Args) != 3 || color.Args[2].Value != "#0F62FE" {
		t.Fatalf("unexpected color resource: %+v", color)
	}

	page := doc.Sections[2].Page
	if page.Spec.Size != "A4" || len(page.Spec.Params) != 3 || page.Spec.Params[2].Value != "50pt" {
		t.Fatalf("unexpected page spec: %+v", page.Spec)
	}
	stmts := page.Block.Statements
	if len(stmts) != 4 {
		t.Fatalf("expected 4 page statements, got %d", len(stmts))
	}

	img := stmts[0].Command
	if img == nil || img.Name != "image" || img.Block != nil || len(img.Args) != 7 {
		t.Fatalf("unexpected image command: %+v", img)
	}

	text := stmts[1].Command
	if text == nil || text.Name != "text" || text.Block == nil {
		t.Fatalf("unexpected text command: %+v", text)
	}
	if got := string(text.Block.Statements[0].Text.Value); !strings.Contains(got, "${customer.name}") {
		t.Fatalf("expected interpolation in text literal, got %s", got)
	}

	table := stmts[2].Command
	if table == nil || table.Name != "table" || len(table.Args) != 4 {
		t.Fatalf("unexpected table command: %+v", table)
	}
	header := table.Block.Statements[0].Command
	if header == nil || header.Name != "header" || len(header.Block.Statements) != 3 {
		t.Fatalf("unexpected header row: %+v", header)
	}
	row := table.Block.Statements[1].Command
	if row == nil || row.Name != "row" || len(row.Args) != 2 || row.Args[1].Type != "String" || row.Args[1].Value != "invoice.items" {
		t.Fatalf("unexpected row command: %+v", row)
	}

	if pb := stmts[3].Command; pb == nil || pb.Name != "pagebreak" {
		t.Fatalf("expected pagebreak, got %+v", stmts[3])
	}
}

func TestParseErrorHasPosition(t *testing.T) {
	_, err := dsl.ParseString("doc Broken v1 {\n  page A4 {\n    text { \"unterminated }\n  }\n}\n")
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), ":") {
		t.Fatalf("parse error should carry a position, got %v", err)
	}
}

func TestDocumentPages(t *testing.T) {
	doc, err := dsl.ParseString("doc T v1 {\n  page A4 { }\n  meta { }\n  page A5 landscape { }\n}")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	pages := doc.Pages()
	if len(pages) != 2 || pages[0].Spec.Size != "A4" || pages[1].Spec.Size != "A5" {
		t.Fatalf("unexpected pages: %+v", pages)
	}
	if len(pages[1].Spec.Params) != 1 || pages[1].Spec.Params[0].Value != "landscape" {
		t.Fatalf("unexpected page params: %+v", pages[1].Spec.Params)
	}
}
