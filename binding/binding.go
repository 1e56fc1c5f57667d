package binding

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Options 控制插值时的数字格式。
type Options struct {
	Lang language.Tag // 数字分组与小数点按该语言输出，零值按英语处理
}

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 支持管道过滤器，例如 ${invoice.total | money}。
// 若 data 为空或路径不存在，则保留原占位符。
func Interpolate(text string, data any, opts Options) string {
	if data == nil {
		return text
	}
	tag := opts.Lang
	if tag == language.Und {
		tag = language.English
	}
	printer := message.NewPrinter(tag)
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		parts := strings.Split(groups[1], "|")
		path := strings.TrimSpace(parts[0])
		if path == "" {
			return match
		}
		val, ok := Lookup(data, path)
		if !ok {
			return match
		}
		for _, f := range parts[1:] {
			val, ok = applyFilter(strings.TrimSpace(f), val)
			if !ok {
				return match
			}
		}
		return format(printer, val)
	})
}

// Lookup 按 a.b[0].c 形式的路径在 JSON 解码结果中取值。
func Lookup(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes := parseSegment(segment)
		if name != "" {
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			if current, ok = m[name]; !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			arr, ok := current.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			current = arr[idx]
		}
	}
	return current, true
}

// With 返回在 data 之上覆盖 name=value 的新作用域，data 本身不被修改。
func With(data any, name string, value any) map[string]any {
	out := map[string]any{}
	if m, ok := data.(map[string]any); ok {
		for k, v := range m {
			out[k] = v
		}
	}
	out[name] = value
	return out
}

// money 是 money 过滤器的结果，格式化时保留两位小数。
type money float64

func applyFilter(name string, val any) (any, bool) {
	switch name {
	case "money":
		f, ok := toFloat(val)
		if !ok {
			return nil, false
		}
		return money(f), true
	case "upper":
		return strings.ToUpper(fmt.Sprint(val)), true
	case "lower":
		return strings.ToLower(fmt.Sprint(val)), true
	default:
		return nil, false
	}
}

func format(p *message.Printer, val any) string {
	switch v := val.(type) {
	case money:
		return p.Sprintf("%.2f", float64(v))
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return p.Sprintf("%d", int64(v))
		}
		return p.Sprintf("%v", v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func toFloat(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func parseSegment(segment string) (string, []string) {
	name := segment
	var indexes []string
	if i := strings.Index(segment, "["); i != -1 {
		name = segment[:i]
		rest := segment[i:]
		for len(rest) > 0 && rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				break
			}
			indexes = append(indexes, rest[1:end])
			rest = rest[end+1:]
		}
	}
	return name, indexes
}
