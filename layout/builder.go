package layout

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/ByLCY/folio/binding"
	"github.com/ByLCY/folio/dsl"
)

const (
	blockSpacing = 3.0 // mm
	cellPadding  = 1.5 // mm
)

var pagePresets = map[string][2]float64{
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
}

// Build 根据 DSL AST 生成页面、文本、图片与表格的布局结果。
func Build(doc *dsl.Document, data any, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}

	res := collectResources(doc)
	meta := collectMeta(doc)
	b := &builder{
		res:  res,
		data: data,
		opts: opts,
		bind: binding.Options{Lang: parseLang(meta.Lang)},
	}

	var pages []Page
	for _, section := range doc.Pages() {
		ps, err := b.buildPages(section)
		if err != nil {
			return nil, err
		}
		pages = append(pages, ps...)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("文档中缺少 page 段落")
	}
	Logger().Debug("layout built", "pages", len(pages))

	return &Result{Pages: pages, Resources: res, Meta: meta}, nil
}

// builder 保存一次 Build 调用内共享的只读状态。
type builder struct {
	res  ResourceSet
	data any
	opts BuildOptions
	bind binding.Options
}

func (b *builder) buildPages(section *dsl.PageSection) ([]Page, error) {
	width, height, err := resolvePageSize(section.Spec)
	if err != nil {
		return nil, err
	}
	if section.Block == nil {
		return nil, fmt.Errorf("page 段落缺少内容")
	}
	margin := resolveMargin(section.Spec.Params)
	collector := newPageCollector(width, height, margin)

	root := &flowContext{
		b:              b,
		collector:      collector,
		x:              margin.Left,
		width:          width - margin.Left - margin.Right,
		cursorY:        margin.Top,
		data:           b.data,
		allowPageBreak: true,
	}
	if err := root.processBlock(section.Block); err != nil {
		return nil, err
	}
	return collector.pages(), nil
}

// flowContext 是自上而下排版的一列区域。
type flowContext struct {
	b              *builder
	collector      *pageCollector
	parent         *flowContext
	x              float64
	width          float64
	cursorY        float64
	data           any
	allowPageBreak bool
}

// processBlock 依次处理 block 内的命令。
func (ctx *flowContext) processBlock(block *dsl.Block) error {
	for _, stmt := range block.Statements {
		if stmt.Command == nil {
			continue
		}
		cmd := stmt.Command
		var err error
		switch strings.ToLower(cmd.Name) {
		case "text":
			err = ctx.handleText(cmd, false)
		case "heading":
			err = ctx.handleText(cmd, true)
		case "image":
			err = ctx.handleImage(cmd)
		case "table":
			err = ctx.handleTable(cmd)
		case "columns":
			err = ctx.handleColumns(cmd)
		case "spacer":
			ctx.handleSpacer(cmd)
		case "pagebreak":
			if ctx.allowPageBreak {
				ctx.pageBreak()
			}
		case "line":
			ctx.handleLine(cmd)
		case "rect":
			ctx.handleRect(cmd)
		default:
			Logger().Warn("忽略未知命令", "name", cmd.Name, "pos", cmd.Pos.String())
		}
		if err != nil {
			return fmt.Errorf("%s (%s): %w", cmd.Name, cmd.Pos, err)
		}
	}
	return nil
}

func (ctx *flowContext) handleImage(cmd *dsl.Command) error {
	name, attrs := parseArgs(cmd.Args, true)
	src := attrs["src"]
	if img, ok := ctx.b.res.Images[name]; ok && src == "" {
		src = img.Src
	}
	if src == "" {
		src = name
	}
	if src == "" {
		return fmt.Errorf("image 缺少图片来源")
	}

	width := parseDimension(attrs["width"], ctx.width)
	if width <= 0 {
		width = ctx.width / 4
	}
	height := parseDimension(attrs["height"], ctx.width)
	if height <= 0 {
		pw, ph, err := ctx.b.opts.Typesetter.ImageSize(src)
		if err != nil {
			return fmt.Errorf("读取图片 %s 尺寸失败: %w", src, err)
		}
		if pw <= 0 || ph <= 0 {
			return fmt.Errorf("图片 %s 尺寸无效: %dx%d", src, pw, ph)
		}
		// 按像素宽高比计算高度
		height = width * float64(ph) / float64(pw)
	}

	x := ctx.x + alignOffset(ctx.width, width, attrs["align"])
	if v := attrs["x"]; v != "" {
		x = parseLength(v)
	}
	box := ImageBox{Src: src, X: x, Width: width, Height: height}

	// 指定 y 时按页面坐标绝对定位，不占用流式空间
	if v := attrs["y"]; v != "" {
		box.Y = parseLength(v)
		ctx.collector.curr().Images = append(ctx.collector.curr().Images, box)
		return nil
	}
	ctx.ensureSpace(height)
	box.Y = ctx.cursorY
	ctx.collector.curr().Images = append(ctx.collector.curr().Images, box)
	ctx.cursorY += height + blockSpacing
	return nil
}

// handleColumns 把当前宽度按比例分成多列，每列独立自上而下排版，
// 结束后游标移动到最高一列的底部。列内不分页。
func (ctx *flowContext) handleColumns(cmd *dsl.Command) error {
	if cmd.Block == nil {
		return fmt.Errorf("columns 缺少 column 定义")
	}
	var cols []*dsl.Command
	for _, st := range cmd.Block.Statements {
		if st.Command != nil && strings.EqualFold(st.Command.Name, "column") {
			cols = append(cols, st.Command)
		}
	}
	if len(cols) == 0 {
		return fmt.Errorf("columns 中至少需要一个 column")
	}
	widths := resolveWidths(collectLengths(cmd.Args), len(cols), ctx.width)

	top := ctx.cursorY
	bottom := top
	x := ctx.x
	for i, col := range cols {
		child := &flowContext{
			b:         ctx.b,
			collector: ctx.collector,
			parent:    ctx,
			x:         x,
			width:     widths[i],
			cursorY:   top,
			data:      ctx.data,
		}
		if col.Block != nil {
			if err := child.processBlock(col.Block); err != nil {
				return err
			}
		}
		if child.cursorY > bottom {
			bottom = child.cursorY
		}
		x += widths[i]
	}
	ctx.cursorY = bottom
	return nil
}

func (ctx *flowContext) handleSpacer(cmd *dsl.Command) {
	h := blockSpacing
	if len(cmd.Args) > 0 {
		if v := parseDimension(cmd.Args[0].Value, ctx.width); v > 0 {
			h = v
		}
	}
	ctx.cursorY += h
}

// handleLine 支持完整形式 x1/y1/x2/y2（页面坐标），省略坐标时在游标处画一条横贯当前列的分隔线。
func (ctx *flowContext) handleLine(cmd *dsl.Command) {
	_, attrs := parseArgs(cmd.Args, false)
	ln := Line{
		Color: ctx.b.resolveColor(attrs["color"], Color{}),
		Width: parseLength(attrs["width"]),
	}
	if attrs["x1"] != "" || attrs["y1"] != "" || attrs["x2"] != "" || attrs["y2"] != "" {
		ln.X1, ln.Y1 = parseLength(attrs["x1"]), parseLength(attrs["y1"])
		ln.X2, ln.Y2 = parseLength(attrs["x2"]), parseLength(attrs["y2"])
		ctx.collector.curr().Lines = append(ctx.collector.curr().Lines, ln)
		return
	}
	ctx.ensureSpace(blockSpacing)
	ln.X1, ln.X2 = ctx.x, ctx.x+ctx.width
	ln.Y1, ln.Y2 = ctx.cursorY, ctx.cursorY
	ctx.collector.curr().Lines = append(ctx.collector.curr().Lines, ln)
	ctx.cursorY += blockSpacing
}

func (ctx *flowContext) handleRect(cmd *dsl.Command) {
	_, attrs := parseArgs(cmd.Args, false)
	rc := Rect{
		X:           parseLength(attrs["x"]),
		Y:           parseLength(attrs["y"]),
		Width:       parseDimension(attrs["width"], ctx.width),
		Height:      parseLength(attrs["height"]),
		StrokeColor: ctx.b.resolveColor(attrs["stroke"], Color{}),
		StrokeWidth: parseLength(attrs["stroke-width"]),
	}
	if rc.Width <= 0 || rc.Height <= 0 {
		Logger().Warn("忽略尺寸无效的 rect", "pos", cmd.Pos.String())
		return
	}
	if v := attrs["fill"]; v != "" {
		c := ctx.b.resolveColor(v, Color{})
		rc.FillColor = &c
	}
	ctx.collector.curr().Rects = append(ctx.collector.curr().Rects, rc)
}

func (ctx *flowContext) ensureSpace(height float64) {
	if !ctx.allowPageBreak || ctx.atTop() {
		return
	}
	if ctx.cursorY+height <= ctx.collector.contentBottom() {
		return
	}
	ctx.pageBreak()
}

func (ctx *flowContext) atTop() bool {
	return ctx.cursorY <= ctx.collector.contentTop()
}

func (ctx *flowContext) pageBreak() {
	if ctx.parent != nil && ctx.parent.allowPageBreak {
		ctx.parent.pageBreak()
		ctx.cursorY = ctx.parent.cursorY
		return
	}
	ctx.collector.newPage()
	ctx.cursorY = ctx.collector.contentTop()
	Logger().Debug("page break", "page", len(ctx.collector.accs))
}

type pageCollector struct {
	width  float64
	height float64
	margin Margin
	accs   []*Page
}

func newPageCollector(width, height float64, margin Margin) *pageCollector {
	pc := &pageCollector{width: width, height: height, margin: margin}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() *Page {
	p := &Page{Width: pc.width, Height: pc.height, Margin: pc.margin}
	pc.accs = append(pc.accs, p)
	return p
}

func (pc *pageCollector) curr() *Page {
	return pc.accs[len(pc.accs)-1]
}

func (pc *pageCollector) contentTop() float64 {
	return pc.margin.Top
}

func (pc *pageCollector) contentBottom() float64 {
	return pc.height - pc.margin.Bottom
}

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, p := range pc.accs {
		out[i] = *p
	}
	return out
}

func resolvePageSize(spec dsl.PageSpec) (float64, float64, error) {
	base, ok := pagePresets[strings.ToUpper(spec.Size)]
	if !ok {
		return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", spec.Size)
	}
	width, height := base[0], base[1]
	for _, token := range spec.Params {
		if strings.EqualFold(token.Value, "landscape") {
			width, height = height, width
		}
	}
	return width, height, nil
}

// resolveMargin 解析 margin 后最多四个长度，语义同 CSS：
// 1 个值四边相同；2 个值为上下、左右；3 个值为上、左右、下；4 个值为上右下左。
func resolveMargin(params []*dsl.Lexeme) Margin {
	margin := Margin{Top: 20, Right: 20, Bottom: 20, Left: 20}
	for i, token := range params {
		if token.Value != "margin" {
			continue
		}
		var vals []float64
		for j := i + 1; j < len(params) && len(vals) < 4; j++ {
			l, ok := ParseLength(params[j].Value)
			if !ok || l.Unit == UnitPercent {
				break
			}
			vals = append(vals, l.MM(0))
		}
		switch len(vals) {
		case 1:
			margin = Margin{Top: vals[0], Right: vals[0], Bottom: vals[0], Left: vals[0]}
		case 2:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}
		case 3:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}
		case 4:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
		}
	}
	return margin
}

// parseArgs 把 key value 成对的参数转为 map；allowName 为 true 且参数个数为奇数时，
// 首个 Ident 视为资源名，例如 text Body size 10pt。
func parseArgs(args []*dsl.Lexeme, allowName bool) (string, map[string]string) {
	result := map[string]string{}
	cursor := 0
	var name string
	if allowName && len(args)%2 == 1 && args[0].Type == "Ident" {
		name = args[0].Value
		cursor = 1
	}
	for cursor < len(args)-1 {
		result[strings.ToLower(args[cursor].Value)] = args[cursor+1].Value
		cursor += 2
	}
	return name, result
}

// collectLengths 读取 "columns" 之后（或从头开始）连续的长度参数。
func collectLengths(args []*dsl.Lexeme) []Length {
	var out []Length
	start := 0
	for i, a := range args {
		if strings.EqualFold(a.Value, "columns") {
			start = i + 1
			break
		}
	}
	for _, a := range args[start:] {
		l, ok := ParseLength(a.Value)
		if !ok {
			break
		}
		out = append(out, l)
	}
	return out
}

// resolveWidths 计算 n 列的宽度：显式给出的按比例解析，其余平分剩余宽度。
func resolveWidths(specs []Length, n int, total float64) []float64 {
	widths := make([]float64, n)
	used, rest := 0.0, 0
	for i := range widths {
		if i < len(specs) {
			widths[i] = specs[i].MM(total)
			used += widths[i]
		} else {
			rest++
		}
	}
	if rest > 0 {
		share := (total - used) / float64(rest)
		if share < 0 {
			share = 0
		}
		for i := len(specs); i < n; i++ {
			widths[i] = share
		}
	}
	return widths
}

func alignOffset(container, width float64, align string) float64 {
	if container <= width {
		return 0
	}
	switch normalizeAlign(align) {
	case "center":
		return (container - width) / 2
	case "right":
		return container - width
	default:
		return 0
	}
}

func normalizeAlign(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "center", "middle":
		return "center"
	case "right", "end":
		return "right"
	case "left", "start":
		return "left"
	default:
		return ""
	}
}

func parseLang(v string) language.Tag {
	if v == "" {
		return language.Und
	}
	tag, err := language.Parse(v)
	if err != nil {
		Logger().Warn("无法识别的文档语言", "lang", v, "err", err)
		return language.Und
	}
	return tag
}

func (b *builder) resolveColor(value string, fallback Color) Color {
	if value == "" {
		return fallback
	}
	if c, ok := b.res.Colors[value]; ok {
		return c
	}
	if c, err := parseColor(value); err == nil {
		return c
	}
	return fallback
}

func parseColor(value string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	return Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}
