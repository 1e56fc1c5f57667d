package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度。
func TestPtMmRoundTrip(t *testing.T) {
	for _, pt := range []float64{0, 0.001, 1, 12, 72, 595.28} {
		back := pt * PtToMm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%g back=%g", pt, back)
		}
	}
	if got := 72 * PtToMm; math.Abs(got-25.4) > 1e-9 {
		t.Fatalf("72pt 应为 25.4mm，实际 %g", got)
	}
}

func TestParseLength(t *testing.T) {
	cases := []struct {
		in   string
		ref  float64
		want float64
		ok   bool
	}{
		{"10mm", 0, 10, true},
		{"1cm", 0, 10, true},
		{"1in", 0, 25.4, true},
		{"72pt", 0, 25.4, true},
		{"50%", 180, 90, true},
		{" 7 ", 0, 7, true},
		{"-2mm", 0, -2, true},
		{"portrait", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range cases {
		l, ok := ParseLength(tc.in)
		if ok != tc.ok {
			t.Fatalf("ParseLength(%q) ok=%v, want %v", tc.in, ok, tc.ok)
		}
		if got := l.MM(tc.ref); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("ParseLength(%q).MM(%g) = %g, want %g", tc.in, tc.ref, got, tc.want)
		}
	}
	if UnitPT.String() != "pt" || UnitNone.String() != "" {
		t.Fatalf("Unit.String 结果不符")
	}
}

func TestParseLineHeight(t *testing.T) {
	if got, ok := parseLineHeight("1.5x", 4); !ok || got != 6 {
		t.Fatalf("1.5x 解析错误: %g %v", got, ok)
	}
	if got, ok := parseLineHeight("6mm", 4); !ok || got != 6 {
		t.Fatalf("6mm 解析错误: %g %v", got, ok)
	}
	if _, ok := parseLineHeight("0x", 4); ok {
		t.Fatalf("0x 应视为无效")
	}
}
