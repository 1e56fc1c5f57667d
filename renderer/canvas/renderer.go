package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/folio/fonts"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/renderer"
)

const (
	tableBorderWidth = 0.2 // mm
	defaultLineWidth = 0.3 // mm
)

var (
	headerFill = canvas.Hex("#f4f4f4")
	textBlack  = layout.Color{}
)

// Renderer 基于 github.com/tdewolff/canvas 输出 PDF，同时作为布局阶段的测量后端。
// 所有坐标与尺寸为 mm，字号进入 canvas 前换算为 pt。
type Renderer struct {
	baseDir string

	mu       sync.Mutex
	families map[string]*fontEntry
	fallback *canvas.FontFamily
	images   map[string]image.Image
}

var (
	_ renderer.Engine   = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

type fontEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// NewRenderer 创建渲染器，相对路径的字体与图片以 baseDir 为根解析。
func NewRenderer(baseDir string) *Renderer {
	return &Renderer{
		baseDir:  baseDir,
		families: map[string]*fontEntry{},
		images:   map[string]image.Image{},
	}
}

// TextWidth 实现 layout.Typesetter，size 与返回值均为 mm。
func (r *Renderer) TextWidth(font layout.FontResource, size float64, s string) (float64, error) {
	face, err := r.fontFace(font, size, textBlack)
	if err != nil {
		return 0, err
	}
	return face.TextWidth(s), nil
}

// FontMetrics 实现 layout.Typesetter。
func (r *Renderer) FontMetrics(font layout.FontResource, size float64) (layout.FontMetrics, error) {
	face, err := r.fontFace(font, size, textBlack)
	if err != nil {
		return layout.FontMetrics{}, err
	}
	m := face.Metrics()
	return layout.FontMetrics{Ascent: m.Ascent, Descent: m.Descent, LineHeight: m.LineHeight}, nil
}

// ImageSize 只解码图片头部获取像素尺寸。
func (r *Renderer) ImageSize(src string) (int, int, error) {
	path, err := r.resolvePath(src)
	if err != nil {
		return 0, 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("读取图片 %s 失败: %w", src, err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("解码图片 %s 失败: %w", src, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Render 把布局结果绘制为 PDF 字节。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	meta := result.Meta
	writer.SetInfo(meta.Title, meta.Subject, strings.Join(meta.Keywords, ", "), meta.Author, meta.Creator)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 左上角为原点，与布局一致

		if err := r.drawPage(ctx, page, result.Resources); err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", i+1, err)
		}
		c.RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	layout.Logger().Debug("pdf rendered", "pages", len(result.Pages), "bytes", buf.Len())
	return buf.Bytes(), nil
}

// drawPage 先画形状作为背景，再画文本、图片与表格。
func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, res layout.ResourceSet) error {
	r.drawRects(ctx, page.Rects)
	r.drawLines(ctx, page.Lines)
	for _, tb := range page.Texts {
		if err := r.drawTextBox(ctx, tb, res.Fonts); err != nil {
			return err
		}
	}
	if err := r.drawImages(ctx, page.Images); err != nil {
		return err
	}
	return r.drawTables(ctx, page.Tables, res.Fonts)
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, fontSet map[string]layout.FontResource) error {
	face, err := r.fontFace(lookupFont(tb.Font, fontSet), tb.FontSize, tb.Color)
	if err != nil {
		return err
	}
	align, anchorX := canvas.Left, tb.X
	switch tb.Align {
	case "center":
		align, anchorX = canvas.Center, tb.X+tb.Width/2
	case "right":
		align, anchorX = canvas.Right, tb.X+tb.Width
	}
	for _, ln := range tb.Lines {
		// 布局给出的 Y 即基线
		ctx.DrawText(anchorX, ln.Y, canvas.NewTextLine(face, ln.Text, align))
	}
	return nil
}

func (r *Renderer) drawImages(ctx *canvas.Context, images []layout.ImageBox) error {
	for _, box := range images {
		img, err := r.loadImage(box.Src)
		if err != nil {
			return err
		}
		px := img.Bounds().Dx()
		if px <= 0 || box.Width <= 0 {
			continue
		}
		ctx.DrawImage(box.X, box.Y, img, canvas.DPMM(float64(px)/box.Width))
	}
	return nil
}

func (r *Renderer) drawTables(ctx *canvas.Context, tables []layout.TableBox, fontSet map[string]layout.FontResource) error {
	for _, table := range tables {
		if len(table.ColumnWidths) == 0 {
			continue
		}
		for _, row := range table.Rows {
			var fill color.Color = canvas.White
			switch {
			case row.Fill != nil:
				fill = colorFromLayout(*row.Fill)
			case row.IsHeader:
				fill = headerFill
			}
			x := table.X
			for _, w := range table.ColumnWidths {
				ctx.SetFillColor(fill)
				ctx.SetStrokeColor(colorFromLayout(table.BorderColor))
				ctx.SetStrokeWidth(tableBorderWidth)
				ctx.DrawPath(x, row.Y, canvas.Rectangle(w, row.Height))
				x += w
			}
			for _, cell := range row.Cells {
				if err := r.drawTextBox(ctx, cell.Text, fontSet); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *Renderer) drawLines(ctx *canvas.Context, lines []layout.Line) {
	for _, ln := range lines {
		w := ln.Width
		if w <= 0 {
			w = defaultLineWidth
		}
		ctx.SetStrokeColor(colorFromLayout(ln.Color))
		ctx.SetStrokeWidth(w)
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(ln.X2-ln.X1, ln.Y2-ln.Y1)
		ctx.DrawPath(ln.X1, ln.Y1, p)
	}
}

func (r *Renderer) drawRects(ctx *canvas.Context, rects []layout.Rect) {
	for _, rc := range rects {
		w := rc.StrokeWidth
		if w <= 0 {
			w = defaultLineWidth
		}
		if rc.FillColor != nil {
			ctx.SetFillColor(colorFromLayout(*rc.FillColor))
		} else {
			ctx.SetFillColor(color.RGBA{})
		}
		ctx.SetStrokeColor(colorFromLayout(rc.StrokeColor))
		ctx.SetStrokeWidth(w)
		ctx.DrawPath(rc.X, rc.Y, canvas.Rectangle(rc.Width, rc.Height))
	}
}

// fontFace 的 size 为 mm。
func (r *Renderer) fontFace(font layout.FontResource, size float64, col layout.Color) (*canvas.FontFace, error) {
	if size <= 0 {
		return nil, fmt.Errorf("字号无效: %g", size)
	}
	entry, err := r.family(font)
	if err != nil {
		return nil, err
	}
	return entry.family.Face(size*layout.MmToPt, colorFromLayout(col), entry.style, canvas.FontNormal), nil
}

// family 按字体资源缓存 FontFamily；加载失败时退回内置 Go 字体并记录警告。
func (r *Renderer) family(font layout.FontResource) (*fontEntry, error) {
	key := font.Name + "|" + font.Src + "|" + font.Style
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.families[key]; ok {
		return entry, nil
	}

	name := font.Name
	if name == "" {
		name = "Body"
	}
	style := parseFontStyle(font.Style)
	family := canvas.NewFontFamily(name)
	err := r.loadFont(family, font, style)
	if err != nil {
		layout.Logger().Warn("字体加载失败，使用内置字体", "font", name, "src", font.Src, "err", err)
		fb, fbErr := r.fallbackFamily()
		if fbErr != nil {
			return nil, fmt.Errorf("加载字体 %s 失败: %w", name, err)
		}
		family, style = fb, canvas.FontRegular
	}
	entry := &fontEntry{family: family, style: style}
	r.families[key] = entry
	return entry, nil
}

func (r *Renderer) loadFont(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	if font.Src == "" {
		return fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	var (
		data []byte
		err  error
	)
	if fonts.IsBuiltin(font.Src) {
		data, err = fonts.Load(font.Src)
	} else {
		var path string
		if path, err = r.resolvePath(font.Src); err == nil {
			data, err = os.ReadFile(path)
		}
	}
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

// fallbackFamily 调用方需持有 r.mu。
func (r *Renderer) fallbackFamily() (*canvas.FontFamily, error) {
	if r.fallback != nil {
		return r.fallback, nil
	}
	data, err := fonts.Load("regular")
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("folio-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	r.fallback = family
	return family, nil
}

func (r *Renderer) loadImage(src string) (image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if img, ok := r.images[src]; ok {
		return img, nil
	}
	path, err := r.resolvePath(src)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", src, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", src, err)
	}
	r.images[src] = img
	return img, nil
}

func (r *Renderer) resolvePath(src string) (string, error) {
	if filepath.IsAbs(src) {
		return src, nil
	}
	if r.baseDir == "" {
		return "", fmt.Errorf("未指定资源目录时不允许使用相对路径：%s", src)
	}
	return filepath.Join(r.baseDir, src), nil
}

func lookupFont(name string, fontSet map[string]layout.FontResource) layout.FontResource {
	if font, ok := fontSet[name]; ok {
		return font
	}
	if font, ok := fontSet["Body"]; ok {
		return font
	}
	return layout.FontResource{Name: name, Src: "gofont:regular"}
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}
