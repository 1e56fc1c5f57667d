package layout

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// BuildOptions 配置布局阶段所需的依赖。
type BuildOptions struct {
	Typesetter Typesetter
	// BaseDir 用于解析 text src 等相对路径，通常为 DSL 文件所在目录。
	BaseDir string
}

// FontMetrics 是字体在给定字号下的纵向度量（mm）。
type FontMetrics struct {
	Ascent     float64
	Descent    float64
	LineHeight float64
}

// Typesetter 提供布局所需的测量能力，由渲染器实现。
type Typesetter interface {
	// TextWidth 返回 s 以 font/size（mm）渲染后的宽度（mm）。
	TextWidth(font FontResource, size float64, s string) (float64, error)
	FontMetrics(font FontResource, size float64) (FontMetrics, error)
	// ImageSize 返回图片的像素尺寸，用于按比例计算高度。
	ImageSize(src string) (width, height int, err error)
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger 设置 layout 使用的日志器，默认不输出任何日志；传 nil 恢复静默。
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger 返回当前日志器，渲染器等子包共用。
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
