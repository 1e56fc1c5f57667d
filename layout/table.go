package layout

import (
	"fmt"
	"strings"

	"github.com/ByLCY/folio/binding"
	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/wrap"
)

var defaultBorderColor = Color{R: 200, G: 200, B: 200}

// tableRowSpec 是展开 each 之后的一行定义及其数据作用域。
type tableRowSpec struct {
	cmd    *dsl.Command
	header bool
	data   any
	attrs  map[string]string
}

// handleTable 逐行排版表格；跨页时在新页重复表头。
func (ctx *flowContext) handleTable(cmd *dsl.Command) error {
	if cmd.Block == nil {
		return fmt.Errorf("table 语句缺少内容")
	}
	specs, attrs := tableArgs(cmd.Args)

	width := ctx.width
	if v := attrs["width"]; v != "" {
		if w := parseDimension(v, ctx.width); w > 0 && w < ctx.width {
			width = w
		}
	}
	x := ctx.x + alignOffset(ctx.width, width, attrs["align"])

	rows, err := ctx.expandRows(cmd.Block)
	if err != nil {
		return err
	}
	cols := len(specs)
	for _, r := range rows {
		if n := countCells(r.cmd); n > cols {
			cols = n
		}
	}
	if cols == 0 {
		return fmt.Errorf("table 需要至少一个单元格")
	}
	widths := resolveWidths(specs, cols, width)

	built := make([]TableRow, len(rows))
	for i, spec := range rows {
		if built[i], err = ctx.b.buildRow(spec, x, widths); err != nil {
			return err
		}
	}
	// 表头与第一行数据不可拆开
	ctx.ensureSpace(leadingHeight(built))

	newTable := func() TableBox {
		return TableBox{
			X:            x,
			Y:            ctx.cursorY,
			Width:        width,
			ColumnWidths: widths,
			BorderColor:  ctx.b.resolveColor(attrs["border"], defaultBorderColor),
		}
	}
	table := newTable()
	var headers []TableRow
	bodyRows := 0 // 当前页已放置的数据行
	for _, row := range built {
		if row.IsHeader {
			headers = append(headers, row)
		}
		overflow := ctx.cursorY+row.Height > ctx.collector.contentBottom()
		// 从页顶开始的表格至少放一行数据
		canBreak := bodyRows > 0 || table.Y > ctx.collector.contentTop()
		if ctx.allowPageBreak && !row.IsHeader && overflow && canBreak {
			if len(table.Rows) > 0 {
				ctx.collector.curr().Tables = append(ctx.collector.curr().Tables, table)
			}
			ctx.pageBreak()
			bodyRows = 0
			table = newTable()
			for _, h := range headers {
				table.Rows = append(table.Rows, shiftRow(h, ctx.cursorY))
				ctx.cursorY += h.Height
			}
		}
		table.Rows = append(table.Rows, shiftRow(row, ctx.cursorY))
		ctx.cursorY += row.Height
		if !row.IsHeader {
			bodyRows++
		}
	}
	ctx.collector.curr().Tables = append(ctx.collector.curr().Tables, table)
	ctx.cursorY += blockSpacing
	return nil
}

// leadingHeight 返回开头连续表头行加上第一行数据的高度。
func leadingHeight(rows []TableRow) float64 {
	total := 0.0
	for _, row := range rows {
		total += row.Height
		if !row.IsHeader {
			break
		}
	}
	return total
}

// expandRows 按顺序展开 header/row，row each "path" as name 对数组中的每一项生成一行。
func (ctx *flowContext) expandRows(block *dsl.Block) ([]tableRowSpec, error) {
	var out []tableRowSpec
	for _, stmt := range block.Statements {
		if stmt.Command == nil {
			continue
		}
		kind := strings.ToLower(stmt.Command.Name)
		if kind != "header" && kind != "row" {
			continue
		}
		_, attrs := parseArgs(stmt.Command.Args, false)
		path, ok := attrs["each"]
		if !ok {
			out = append(out, tableRowSpec{cmd: stmt.Command, header: kind == "header", data: ctx.data, attrs: attrs})
			continue
		}
		name := attrs["as"]
		if name == "" {
			name = "item"
		}
		val, found := binding.Lookup(ctx.data, path)
		if !found {
			Logger().Warn("row each 数据不存在", "path", path, "pos", stmt.Command.Pos.String())
			continue
		}
		items, isList := val.([]any)
		if !isList {
			return nil, fmt.Errorf("row each %q 需要数组，实际为 %T", path, val)
		}
		for i, item := range items {
			scope := binding.With(ctx.data, name, item)
			scope["index"] = i + 1
			out = append(out, tableRowSpec{cmd: stmt.Command, header: kind == "header", data: scope, attrs: attrs})
		}
	}
	return out, nil
}

// buildRow 以 0 为行顶部排版单元格，之后由 shiftRow 移到实际位置。
func (b *builder) buildRow(spec tableRowSpec, x float64, widths []float64) (TableRow, error) {
	row := TableRow{IsHeader: spec.header}
	if v := spec.attrs["fill"]; v != "" {
		c := b.resolveColor(v, Color{})
		row.Fill = &c
	}
	defaultFont := ""
	if spec.header {
		defaultFont = b.firstFont("Bold")
	}

	maxHeight := 0.0
	col := 0
	for _, stmt := range cellCommands(spec.cmd) {
		if col >= len(widths) {
			break
		}
		name, attrs := parseArgs(stmt.Args, true)
		if name == "" {
			name = defaultFont
		}
		content, err := b.textContent(stmt.Block, attrs, spec.data)
		if err != nil {
			return TableRow{}, err
		}
		st, err := b.resolveStyle(name, attrs, defaultFontSize)
		if err != nil {
			return TableRow{}, err
		}
		cellWidth := widths[col] - 2*cellPadding
		if cellWidth <= 0 {
			cellWidth = widths[col]
		}
		tb, h, err := b.layoutCell(st, content, x+cellPadding, cellPadding, cellWidth)
		if err != nil {
			return TableRow{}, err
		}
		row.Cells = append(row.Cells, TableCell{Text: tb})
		if h > maxHeight {
			maxHeight = h
		}
		x += widths[col]
		col++
	}
	if col == 0 {
		return TableRow{}, fmt.Errorf("%s 中至少需要一个 cell", spec.cmd.Name)
	}
	row.Height = maxHeight + 2*cellPadding
	return row, nil
}

// shiftRow 把以 0 为顶部的行整体下移到 top。
func shiftRow(row TableRow, top float64) TableRow {
	out := row
	out.Y = top
	out.Cells = make([]TableCell, len(row.Cells))
	for i, cell := range row.Cells {
		tb := cell.Text
		tb.Y += top
		lines := make([]wrap.LayoutLine, len(tb.Lines))
		for j, ln := range tb.Lines {
			ln.Y += top
			lines[j] = ln
		}
		tb.Lines = lines
		out.Cells[i] = TableCell{Text: tb}
	}
	return out
}

func cellCommands(cmd *dsl.Command) []*dsl.Command {
	if cmd.Block == nil {
		return nil
	}
	var out []*dsl.Command
	for _, stmt := range cmd.Block.Statements {
		if stmt.Command != nil && strings.EqualFold(stmt.Command.Name, "cell") {
			out = append(out, stmt.Command)
		}
	}
	return out
}

func countCells(cmd *dsl.Command) int {
	return len(cellCommands(cmd))
}

// tableArgs 读取 columns 后的列宽，其余按 key value 成对解析。
func tableArgs(args []*dsl.Lexeme) ([]Length, map[string]string) {
	attrs := map[string]string{}
	var specs []Length
	for i := 0; i < len(args); i++ {
		key := strings.ToLower(args[i].Value)
		if key == "columns" {
			for i+1 < len(args) {
				l, ok := ParseLength(args[i+1].Value)
				if !ok {
					break
				}
				specs = append(specs, l)
				i++
			}
			continue
		}
		if i+1 < len(args) {
			attrs[key] = args[i+1].Value
			i++
		}
	}
	return specs, attrs
}
