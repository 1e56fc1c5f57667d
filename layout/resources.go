package layout

import (
	"strings"

	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/fonts"
)

// collectResources 汇总所有 resources 段落；未声明任何字体时提供内置的 Body/Bold。
func collectResources(doc *dsl.Document) ResourceSet {
	res := ResourceSet{
		Fonts:  map[string]FontResource{},
		Colors: map[string]Color{},
		Images: map[string]ImageResource{},
	}
	for _, section := range doc.Sections {
		if section.Resources == nil || section.Resources.Block == nil {
			continue
		}
		for _, stmt := range section.Resources.Block.Statements {
			if stmt.Command == nil {
				continue
			}
			cmd := stmt.Command
			switch strings.ToLower(cmd.Name) {
			case "font":
				if font := parseFontResource(cmd); font.Name != "" {
					res.Fonts[font.Name] = font
				}
			case "image":
				if img := parseImageResource(cmd); img.Name != "" {
					res.Images[img.Name] = img
				}
			case "color":
				name, value := parseColorResource(cmd)
				if name == "" || value == "" {
					continue
				}
				c, err := parseColor(value)
				if err != nil {
					Logger().Warn("忽略无效颜色", "name", name, "err", err)
					continue
				}
				res.Colors[name] = c
			default:
				Logger().Warn("忽略未知资源", "kind", cmd.Name, "pos", cmd.Pos.String())
			}
		}
	}

	if len(res.Fonts) == 0 {
		res.Fonts["Body"] = FontResource{Name: "Body", Src: fonts.Prefix + "regular"}
		res.Fonts["Bold"] = FontResource{Name: "Bold", Src: fonts.Prefix + "bold", Style: "bold"}
	}
	return res
}

// parseFontResource 支持 font Name "src" 与 font Name { src: "..." style: "..." } 两种写法。
func parseFontResource(cmd *dsl.Command) FontResource {
	if len(cmd.Args) == 0 {
		return FontResource{}
	}
	font := FontResource{Name: cmd.Args[0].Value}
	if len(cmd.Args) > 1 {
		font.Src = cmd.Args[len(cmd.Args)-1].Value
	}
	for key, val := range blockAssignments(cmd.Block) {
		switch key {
		case "src":
			font.Src = val
		case "style":
			font.Style = val
		}
	}
	if font.Src == "" {
		font.Src = fonts.Prefix + "regular"
	}
	return font
}

func parseImageResource(cmd *dsl.Command) ImageResource {
	if len(cmd.Args) == 0 {
		return ImageResource{}
	}
	img := ImageResource{Name: cmd.Args[0].Value}
	if len(cmd.Args) > 1 {
		img.Src = cmd.Args[len(cmd.Args)-1].Value
	}
	if src, ok := blockAssignments(cmd.Block)["src"]; ok {
		img.Src = src
	}
	return img
}

// parseColorResource 取首个参数为名称、最后一个参数为颜色值，兼容 color Name = #hex。
func parseColorResource(cmd *dsl.Command) (string, string) {
	if len(cmd.Args) < 2 {
		return "", ""
	}
	return cmd.Args[0].Value, cmd.Args[len(cmd.Args)-1].Value
}

func blockAssignments(block *dsl.Block) map[string]string {
	out := map[string]string{}
	if block == nil {
		return out
	}
	for _, stmt := range block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		out[strings.ToLower(stmt.Assignment.Key)] = valueToString(stmt.Assignment.Value)
	}
	return out
}

func collectMeta(doc *dsl.Document) DocumentMeta {
	meta := DocumentMeta{Creator: "folio"}
	for _, section := range doc.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, stmt := range section.Meta.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			val := stmt.Assignment.Value
			switch strings.ToLower(stmt.Assignment.Key) {
			case "title":
				meta.Title = valueToString(val)
			case "author":
				meta.Author = valueToString(val)
			case "subject":
				meta.Subject = valueToString(val)
			case "creator":
				meta.Creator = valueToString(val)
			case "keywords":
				meta.Keywords = valueToStringSlice(val)
			case "lang", "language":
				meta.Lang = valueToString(val)
			}
		}
	}
	return meta
}

func valueToString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Color != nil:
		return *val.Color
	case val.Ident != nil:
		return *val.Ident
	default:
		return ""
	}
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array == nil {
		if s := valueToString(val); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(val.Array.Values))
	for _, item := range val.Array.Values {
		if s := valueToString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
