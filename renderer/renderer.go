package renderer

import "github.com/ByLCY/folio/layout"

// Renderer 将布局结果输出为最终文件，例如 PDF。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Engine 同时负责测量与输出，保证折行使用的字体度量与绘制时一致。
type Engine interface {
	Renderer
	layout.Typesetter
}
