package fonts

import "testing"

func TestLoadBuiltin(t *testing.T) {
	for _, name := range []string{"gofont:regular", "gofont:Bold", "bold-italic", "mono", "gofont:"} {
		data, err := Load(name)
		if err != nil {
			t.Fatalf("Load(%q) 失败: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("Load(%q) 返回空数据", name)
		}
	}
	if _, err := Load("gofont:comic"); err == nil {
		t.Fatalf("未知字体应返回错误")
	}
}

func TestIsBuiltin(t *testing.T) {
	if !IsBuiltin("gofont:regular") {
		t.Fatalf("gofont:regular 应为内置字体")
	}
	if IsBuiltin("fonts/Inter.ttf") {
		t.Fatalf("路径字体不应视为内置")
	}
}
