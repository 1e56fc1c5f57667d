package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/folio/binding"
	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/mdtext"
	"github.com/ByLCY/folio/wrap"
)

const (
	defaultFontSize    = 10 * PtToMm
	defaultHeadingSize = 20 * PtToMm
	// 行高为字体高度的 1.2 倍
	defaultLineFactor = 1.2
)

var defaultTextColor = Color{R: 0, G: 0, B: 0}

// textStyle 是解析后的文本样式，尺寸均为 mm。
type textStyle struct {
	fontName   string
	font       FontResource
	size       float64
	lineHeight float64
	metrics    FontMetrics
	color      Color
	align      string
}

func (ctx *flowContext) handleText(cmd *dsl.Command, heading bool) error {
	name, attrs := parseArgs(cmd.Args, true)
	content, err := ctx.b.textContent(cmd.Block, attrs, ctx.data)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return nil
	}

	size, fontName := defaultFontSize, name
	if heading {
		size = defaultHeadingSize
		if fontName == "" {
			fontName = ctx.b.firstFont("Heading", "Bold")
		}
	}
	st, err := ctx.b.resolveStyle(fontName, attrs, size)
	if err != nil {
		return err
	}

	width := ctx.width
	if v := attrs["width"]; v != "" {
		if w := parseDimension(v, ctx.width); w > 0 && w < ctx.width {
			width = w
		}
	}
	x := ctx.x
	if v := attrs["x"]; v != "" {
		x = ctx.x + parseDimension(v, ctx.width)
	}

	ctx.ensureSpace(st.lineHeight)
	res, err := ctx.b.wrapText(st, content, width, ctx.cursorY)
	if err != nil {
		return err
	}
	ctx.placeText(st, res, x, width)
	return nil
}

// wrapText 以 top 为文本块顶部折行，首行基线位于 top + ascent。
func (b *builder) wrapText(st textStyle, content string, width, top float64) (wrap.LayoutResult, error) {
	ts := b.opts.Typesetter
	measure := func(s string) (float64, error) {
		return ts.TextWidth(st.font, st.size, s)
	}
	return wrap.Wrap(content, width, st.lineHeight, measure, top+st.metrics.Ascent)
}

// placeText 把折行结果放到当前页；行越过内容区底部时续排到下一页。
func (ctx *flowContext) placeText(st textStyle, res wrap.LayoutResult, x, width float64) {
	if len(res.Lines) == 0 {
		return
	}
	newBox := func(top float64) TextBox {
		return TextBox{
			X:          x,
			Y:          top,
			Width:      width,
			LineHeight: st.lineHeight,
			Font:       st.fontName,
			FontSize:   st.size,
			Color:      st.color,
			Align:      st.align,
		}
	}
	flush := func(box TextBox) {
		last := box.Lines[len(box.Lines)-1]
		box.Height = last.Y + st.lineHeight - st.metrics.Ascent - box.Y
		ctx.collector.curr().Texts = append(ctx.collector.curr().Texts, box)
	}

	box := newBox(ctx.cursorY)
	shift := 0.0
	for _, ln := range res.Lines {
		y := ln.Y - shift
		overflow := y+st.metrics.Descent > ctx.collector.contentBottom()
		if overflow && ctx.allowPageBreak && (len(box.Lines) > 0 || box.Y > ctx.collector.contentTop()) {
			if len(box.Lines) > 0 {
				flush(box)
			}
			ctx.pageBreak()
			shift = ln.Y - (ctx.cursorY + st.metrics.Ascent)
			y = ln.Y - shift
			box = newBox(ctx.cursorY)
		}
		box.Lines = append(box.Lines, wrap.LayoutLine{Text: ln.Text, Y: y})
	}
	flush(box)
	ctx.cursorY = res.CursorY - shift - st.metrics.Ascent + blockSpacing
}

// layoutCell 在固定区域内折行，不分页，返回文本块及其高度。
func (b *builder) layoutCell(st textStyle, content string, x, top, width float64) (TextBox, float64, error) {
	res, err := b.wrapText(st, content, width, top)
	if err != nil {
		return TextBox{}, 0, err
	}
	tb := TextBox{
		X:          x,
		Y:          top,
		Width:      width,
		LineHeight: st.lineHeight,
		Font:       st.fontName,
		FontSize:   st.size,
		Color:      st.color,
		Align:      st.align,
		Lines:      res.Lines,
	}
	if len(res.Lines) > 0 {
		tb.Height = res.CursorY - st.metrics.Ascent - top
	}
	return tb, tb.Height, nil
}

func (b *builder) resolveStyle(fontName string, attrs map[string]string, size float64) (textStyle, error) {
	if v := attrs["font"]; v != "" {
		fontName = v
	}
	if fontName == "" {
		fontName = "Body"
	}
	font, err := b.resolveFont(fontName)
	if err != nil {
		return textStyle{}, err
	}
	if v := parseLength(attrs["size"]); v > 0 {
		size = v
	}
	metrics, err := b.opts.Typesetter.FontMetrics(font, size)
	if err != nil {
		return textStyle{}, fmt.Errorf("获取字体 %s 度量失败: %w", font.Name, err)
	}
	base := metrics.LineHeight
	if base <= 0 {
		base = size
	}
	lineHeight := base * defaultLineFactor
	if lh, ok := parseLineHeight(attrs["line-height"], base); ok {
		lineHeight = lh
	}
	return textStyle{
		fontName:   font.Name,
		font:       font,
		size:       size,
		lineHeight: lineHeight,
		metrics:    metrics,
		color:      b.resolveColor(attrs["color"], defaultTextColor),
		align:      normalizeAlign(attrs["align"]),
	}, nil
}

func (b *builder) resolveFont(name string) (FontResource, error) {
	if font, ok := b.res.Fonts[name]; ok {
		return font, nil
	}
	if font, ok := b.res.Fonts["Body"]; ok {
		Logger().Warn("字体未定义，使用 Body", "font", name)
		return font, nil
	}
	return FontResource{}, fmt.Errorf("字体 %s 未定义，且没有可用的默认字体", name)
}

// firstFont 返回第一个已定义的字体名，都未定义时返回空串。
func (b *builder) firstFont(names ...string) string {
	for _, n := range names {
		if _, ok := b.res.Fonts[n]; ok {
			return n
		}
	}
	return ""
}

// textContent 合并块内字符串（每个字面量一段），或读取 src 指向的文件，
// 然后做数据插值与 Unicode NFC 规范化。
func (b *builder) textContent(block *dsl.Block, attrs map[string]string, data any) (string, error) {
	var content string
	if src := attrs["src"]; src != "" {
		path := src
		if !filepath.IsAbs(path) {
			path = filepath.Join(b.opts.BaseDir, path)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("读取文本文件 %s 失败: %w", src, err)
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".md" || ext == ".markdown" || attrs["format"] == "markdown" {
			if content, err = mdtext.Text(raw); err != nil {
				return "", fmt.Errorf("解析 Markdown %s 失败: %w", src, err)
			}
		} else {
			content = string(raw)
		}
	} else {
		content = extractText(block)
	}
	if data != nil {
		content = binding.Interpolate(content, data, b.bind)
	}
	return norm.NFC.String(content), nil
}

func extractText(block *dsl.Block) string {
	if block == nil {
		return ""
	}
	var parts []string
	for _, stmt := range block.Statements {
		if stmt.Text != nil {
			parts = append(parts, string(stmt.Text.Value))
		}
	}
	return strings.Join(parts, "\n")
}
