package fonts

import (
	"fmt"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Prefix 是内置字体 src 的前缀，例如 "gofont:bold"。
const Prefix = "gofont:"

var builtin = map[string][]byte{
	"regular":    goregular.TTF,
	"bold":       gobold.TTF,
	"italic":     goitalic.TTF,
	"bolditalic": gobolditalic.TTF,
	"mono":       gomono.TTF,
}

// IsBuiltin 判断 src 是否指向内置字体。
func IsBuiltin(src string) bool {
	return strings.HasPrefix(src, Prefix)
}

// Load 返回内置 Go 字体的 TTF 数据，name 可写为 "gofont:bold" 或直接 "bold"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, Prefix)))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	if key == "" {
		key = "regular"
	}
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("内置字体 %s 不存在", name)
	}
	return data, nil
}
