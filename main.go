package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/renderer"
	canvasrenderer "github.com/ByLCY/folio/renderer/canvas"
)

func main() {
	input := flag.String("in", "examples/invoice.folio", "DSL 文件路径")
	output := flag.String("out", "helloworld.pdf", "PDF 输出路径")
	dataPath := flag.String("data", "", "绑定到 DSL 的 JSON 数据文件")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	layout.SetLogger(logger)

	data, err := loadData(*dataPath)
	if err != nil {
		logger.Error("读取数据失败", "path", *dataPath, "err", err)
		os.Exit(1)
	}

	r := canvasrenderer.NewRenderer(filepath.Dir(*input))
	if err := run(*input, *output, *debug, data, r); err != nil {
		logger.Error("生成 PDF 失败", "err", err)
		os.Exit(1)
	}
	fmt.Printf("已生成 PDF：%s\n", *output)
}

// loadData 读取 JSON 数据文件，path 为空时返回 nil。
func loadData(path string) (any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
	}
	return data, nil
}

// run 串联解析、布局与渲染。
func run(inputPath, outputPath, debugPath string, data any, e renderer.Engine) error {
	if e == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("无法打开 DSL 文件 %s: %w", inputPath, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return fmt.Errorf("解析 DSL 失败: %w", err)
	}

	result, err := layout.Build(doc, data, layout.BuildOptions{
		Typesetter: e,
		BaseDir:    filepath.Dir(inputPath),
	})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}

	if debugPath != "" {
		if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
			return fmt.Errorf("创建调试目录失败: %w", err)
		}
		if err := layout.WriteDebugJSON(result, debugPath); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}

	pdfBytes, err := e.Render(result)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(outputPath, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	layout.Logger().Info("pdf written", "path", outputPath, "pages", len(result.Pages))
	return nil
}
