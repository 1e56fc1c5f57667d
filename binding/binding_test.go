package binding

import (
	"encoding/json"
	"testing"

	"golang.org/x/text/language"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("解析 JSON 失败: %v", err)
	}
	return data
}

func TestInterpolate(t *testing.T) {
	data := decode(t, `{
		"customer": {"name": "ACME GmbH"},
		"invoice": {"number": "2024-017", "total": 1234.5, "items": [{"name": "Widget", "qty": 3}]}
	}`)
	cases := []struct {
		in   string
		lang language.Tag
		want string
	}{
		{"Bill to ${customer.name}", language.Und, "Bill to ACME GmbH"},
		{"No. ${ invoice.number }", language.Und, "No. 2024-017"},
		{"${invoice.items[0].name} x ${invoice.items[0].qty}", language.Und, "Widget x 3"},
		{"Total ${invoice.total | money}", language.English, "Total 1,234.50"},
		{"Summe ${invoice.total | money}", language.German, "Summe 1.234,50"},
		{"${customer.name | upper}", language.Und, "ACME GMBH"},
		{"${missing.path}", language.Und, "${missing.path}"},
		{"${invoice.items[5].name}", language.Und, "${invoice.items[5].name}"},
		{"${customer.name | nosuchfilter}", language.Und, "${customer.name | nosuchfilter}"},
	}
	for _, tc := range cases {
		if got := Interpolate(tc.in, data, Options{Lang: tc.lang}); got != tc.want {
			t.Fatalf("Interpolate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestInterpolateNilData(t *testing.T) {
	if got := Interpolate("${a.b}", nil, Options{}); got != "${a.b}" {
		t.Fatalf("nil data 时应原样返回，实际 %q", got)
	}
}

func TestWithDoesNotMutate(t *testing.T) {
	data := decode(t, `{"a": 1}`)
	scoped := With(data, "item", "x")
	if scoped["item"] != "x" || scoped["a"] != float64(1) {
		t.Fatalf("作用域覆盖错误: %+v", scoped)
	}
	if _, ok := data.(map[string]any)["item"]; ok {
		t.Fatalf("With 不应修改原数据")
	}
	v, ok := Lookup(scoped, "item")
	if !ok || v != "x" {
		t.Fatalf("Lookup(item) = %v, %v", v, ok)
	}
}
