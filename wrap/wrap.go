// Package wrap 实现贪心段落折行：按给定宽度把多段文本拆成带基线坐标的行。
//
// 宽度由调用方提供的测量函数给出（通常由字体度量支持），包内不依赖任何渲染库。
// 每个单词只测量一次，整体耗时取决于 O(单词数) 次 measure 调用。
package wrap

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidConfiguration 表示宽度或行高不是有限正数。
var ErrInvalidConfiguration = errors.New("wrap: 无效配置")

// MeasureFunc 返回字符串渲染后的宽度，单位与 maxWidth 相同。
type MeasureFunc func(s string) (float64, error)

// Paragraph 是一段已拆分的单词序列。
type Paragraph struct {
	Words []string `json:"words"`
}

// Blank 报告该段落是否没有任何单词。
func (p Paragraph) Blank() bool { return len(p.Words) == 0 }

// LayoutLine 是折行后的一行文本及其基线 Y 坐标。
type LayoutLine struct {
	Text string  `json:"text"`
	Y    float64 `json:"y"`
}

// Words 把行文本按空格拆回单词。
func (l LayoutLine) Words() []string {
	return strings.Split(l.Text, " ")
}

// LayoutResult 保存全部行以及最终的纵向游标，便于调用方在其下方继续排版。
type LayoutResult struct {
	Lines   []LayoutLine `json:"lines"`
	CursorY float64      `json:"cursorY"`
}

// Text 以换行符连接所有行。
func (r LayoutResult) Text() string {
	parts := make([]string, len(r.Lines))
	for i, ln := range r.Lines {
		parts[i] = ln.Text
	}
	return strings.Join(parts, "\n")
}

// Options 控制段间距，数值为行高的倍数。
type Options struct {
	ParagraphGap float64 // 段落末行之后的推进量，默认 1.5
	BlankGap     float64 // 空段落的推进量，默认 1.0
}

// DefaultOptions 返回默认段间距。
func DefaultOptions() Options {
	return Options{ParagraphGap: 1.5, BlankGap: 1}
}

// Paragraphs 清理文本并拆分段落：去掉 \r，整体与每段去除首尾空白，
// 段内仅以空格分词（连续空格合并，制表符属于单词的一部分）。
func Paragraphs(text string) []Paragraph {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r", ""))
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	out := make([]Paragraph, 0, len(raw))
	for _, p := range raw {
		var words []string
		for _, w := range strings.Split(strings.TrimSpace(p), " ") {
			if w != "" {
				words = append(words, w)
			}
		}
		out = append(out, Paragraph{Words: words})
	}
	return out
}

// Wrap 使用默认段间距折行，见 WrapWithOptions。
func Wrap(text string, maxWidth, lineHeight float64, measure MeasureFunc, startY float64) (LayoutResult, error) {
	return WrapWithOptions(text, maxWidth, lineHeight, measure, startY, DefaultOptions())
}

// WrapWithOptions 对 text 做贪心折行。
//
// 单词逐个追加到当前行；若追加后宽度超过 maxWidth 且当前行非空，则输出当前行并以该单词开启新行。
// 单个超宽单词独占一行，不做截断或断字。measure 返回的错误原样返回。
func WrapWithOptions(text string, maxWidth, lineHeight float64, measure MeasureFunc, startY float64, opts Options) (LayoutResult, error) {
	if !positive(maxWidth) || !positive(lineHeight) {
		return LayoutResult{}, fmt.Errorf("%w: maxWidth=%g lineHeight=%g", ErrInvalidConfiguration, maxWidth, lineHeight)
	}
	if measure == nil {
		return LayoutResult{}, fmt.Errorf("%w: 缺少 measure", ErrInvalidConfiguration)
	}
	if opts.ParagraphGap <= 0 {
		opts.ParagraphGap = 1.5
	}
	if opts.BlankGap <= 0 {
		opts.BlankGap = 1
	}

	paragraphs := Paragraphs(text)
	res := LayoutResult{CursorY: startY}
	for i, p := range paragraphs {
		if p.Blank() {
			res.CursorY += lineHeight * opts.BlankGap
			continue
		}

		line := ""
		for _, word := range p.Words {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			w, err := measure(candidate)
			if err != nil {
				return LayoutResult{}, err
			}
			if w > maxWidth && line != "" {
				res.Lines = append(res.Lines, LayoutLine{Text: line, Y: res.CursorY})
				res.CursorY += lineHeight
				line = word
				continue
			}
			line = candidate
		}

		res.Lines = append(res.Lines, LayoutLine{Text: line, Y: res.CursorY})
		if i == len(paragraphs)-1 {
			res.CursorY += lineHeight
		} else {
			res.CursorY += lineHeight * opts.ParagraphGap
		}
	}
	return res, nil
}

// positive 对 NaN 与 ±Inf 返回 false。
func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
