package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	canvasrenderer "github.com/ByLCY/folio/renderer/canvas"
)

func TestRunExampleInvoice(t *testing.T) {
	data, err := loadData("examples/invoice.json")
	if err != nil {
		t.Fatalf("loadData: %v", err)
	}
	out := filepath.Join(t.TempDir(), "out", "invoice.pdf")
	debug := filepath.Join(t.TempDir(), "layout.json")

	r := canvasrenderer.NewRenderer("examples")
	if err := run("examples/invoice.folio", out, debug, data, r); err != nil {
		t.Fatalf("run: %v", err)
	}
	pdf, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("读取输出失败: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF")
	}
	raw, err := os.ReadFile(debug)
	if err != nil {
		t.Fatalf("读取调试 JSON 失败: %v", err)
	}
	if !bytes.Contains(raw, []byte("INV-2026-0042")) || !bytes.Contains(raw, []byte("1,684.50")) {
		t.Fatalf("调试 JSON 缺少插值后的发票内容")
	}
}

func TestLoadData(t *testing.T) {
	if v, err := loadData(""); err != nil || v != nil {
		t.Fatalf("空路径应返回 nil: %v %v", v, err)
	}
	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadData(bad); err == nil {
		t.Fatalf("无效 JSON 应报错")
	}
}

func TestRunRequiresRenderer(t *testing.T) {
	if err := run("examples/invoice.folio", "x.pdf", "", nil, nil); err == nil {
		t.Fatalf("缺少 renderer 时应报错")
	}
}
