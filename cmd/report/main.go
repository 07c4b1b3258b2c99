package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"dex-markets/internal/app"
	"dex-markets/internal/config"
	"dex-markets/internal/logging"
	"dex-markets/internal/reporting"
)

func main() {
	// Parse flags
	configFile := flag.String("config", os.Getenv("DEX_CONFIG"), "Path to YAML config file")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	timeout := flag.Duration("timeout", 5*time.Minute, "Deadline for building the market list")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	files, err := generate(ctx, cfg, logger, *outputDir)
	if err != nil {
		logger.Error("report failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Println("Market report generated successfully:")
	for _, f := range files {
		fmt.Printf("  - %s\n", f)
	}
}

func generate(ctx context.Context, cfg *config.Config, logger *zap.Logger, outputDir string) ([]string, error) {
	b, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open backends: %w", err)
	}
	defer b.Close()

	report, err := reporting.NewGenerator(b.Service(nil), cfg.DexOptions().Reserves).Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("build market list: %w", err)
	}

	csvOut, err := reporting.RenderCSV(report.Markets)
	if err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	jsonOut, err := reporting.RenderJSON(report)
	if err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	outputs := []struct {
		name string
		data []byte
	}{
		{"MARKETS.md", []byte(reporting.RenderMarkdown(report))},
		{"MARKETS.csv", []byte(csvOut)},
		{"MARKETS.json", jsonOut},
	}

	var written []string
	for _, o := range outputs {
		path := filepath.Join(outputDir, o.name)
		if err := os.WriteFile(path, o.data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}

	logger.Info("market report written",
		zap.Int("markets", len(report.Markets)),
		zap.String("dir", outputDir))
	return written, nil
}
