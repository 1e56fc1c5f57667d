package canvasrenderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/layout"
)

var body = layout.FontResource{Name: "Body", Src: "gofont:regular"}

func TestTextWidthIsAdditive(t *testing.T) {
	r := NewRenderer(".")
	size := 12 * layout.PtToMm

	a, err := r.TextWidth(body, size, "hello")
	if err != nil {
		t.Fatalf("TextWidth error: %v", err)
	}
	ab, err := r.TextWidth(body, size, "hello hello")
	if err != nil {
		t.Fatalf("TextWidth error: %v", err)
	}
	if a <= 0 || ab <= 2*a {
		t.Fatalf("宽度应随文本增长: %g %g", a, ab)
	}
	double, err := r.TextWidth(body, 2*size, "hello")
	if err != nil {
		t.Fatalf("TextWidth error: %v", err)
	}
	if diff := double - 2*a; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("字号加倍宽度应加倍: %g vs %g", double, 2*a)
	}
}

func TestFontMetricsInMillimetres(t *testing.T) {
	r := NewRenderer(".")
	size := 10 * layout.PtToMm
	m, err := r.FontMetrics(body, size)
	if err != nil {
		t.Fatalf("FontMetrics error: %v", err)
	}
	if m.Ascent <= 0 || m.Descent <= 0 || m.LineHeight < m.Ascent {
		t.Fatalf("字体度量异常: %+v", m)
	}
	if m.LineHeight > 2*size {
		t.Fatalf("行高应与字号同一量级: %g vs %g", m.LineHeight, size)
	}
}

func TestMissingFontFallsBack(t *testing.T) {
	r := NewRenderer(t.TempDir())
	missing := layout.FontResource{Name: "Missing", Src: "fonts/none.ttf"}
	got, err := r.TextWidth(missing, 4, "abc")
	if err != nil {
		t.Fatalf("缺失字体应退回内置字体: %v", err)
	}
	want, _ := r.TextWidth(body, 4, "abc")
	if got != want {
		t.Fatalf("退回字体宽度不符: %g vs %g", got, want)
	}
}

func writePNG(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 15, G: 98, B: 254, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
}

func TestImageSize(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "logo.png", 40, 10)
	r := NewRenderer(dir)
	w, h, err := r.ImageSize("logo.png")
	if err != nil {
		t.Fatalf("ImageSize error: %v", err)
	}
	if w != 40 || h != 10 {
		t.Fatalf("像素尺寸不符: %dx%d", w, h)
	}
	if _, _, err := NewRenderer("").ImageSize("logo.png"); err == nil {
		t.Fatalf("未设置资源目录时相对路径应报错")
	}
}

func TestRenderDocument(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "logo.png", 40, 10)
	src := `doc Hello v1 {
  meta { title: "Hello" }
  resources { image Logo { src: "logo.png" } }
  page A4 margin 50pt {
    image Logo width 100pt align right y 20pt
    heading { "Hello, World!" }
    text { "` + strings.Repeat("Lorem ipsum dolor sit amet ", 40) + `" }
    line
    table { header { cell { "A" }; cell { "B" } }; row { cell { "1" }; cell { "2" } } }
    rect x 10mm y 250mm width 20mm height 10mm fill #eeeeee
  }
}`
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	r := NewRenderer(dir)
	res, err := layout.Build(doc, nil, layout.BuildOptions{Typesetter: r, BaseDir: dir})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	for _, tb := range res.Pages[0].Texts {
		for _, ln := range tb.Lines {
			font := res.Resources.Fonts[tb.Font]
			w, _ := r.TextWidth(font, tb.FontSize, ln.Text)
			if w > tb.Width+1e-9 && strings.Contains(ln.Text, " ") {
				t.Fatalf("多词行超宽: %q %g > %g", ln.Text, w, tb.Width)
			}
		}
	}
	out, err := r.Render(res)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF")
	}
}

func TestRenderRejectsEmpty(t *testing.T) {
	r := NewRenderer(".")
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("nil 结果应报错")
	}
	if _, err := r.Render(&layout.Result{}); err == nil {
		t.Fatalf("无页面应报错")
	}
}
