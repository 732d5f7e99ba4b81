package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/DhKDc/precios3d/catalog"
	"github.com/DhKDc/precios3d/history"
	"github.com/DhKDc/precios3d/models"
	"github.com/DhKDc/precios3d/pipeline"
	"github.com/DhKDc/precios3d/scrape"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape every target URL and append the batch to the price history",
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().String("metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	cfg.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	targets, err := catalog.LoadURLs(cfg.URLsFile)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("no target URLs in %s", cfg.URLsFile)
	}

	rules, err := catalog.LoadRules(cfg.BrandsFile, cfg.CategoriesFile)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.HistoryFile)
	if err != nil {
		return err
	}

	s, err := scrape.NewScraper(cfg)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}

	slog.Info("starting acquisition",
		slog.Int("targets", len(targets)),
		slog.Int("workers", cfg.Parallelism),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	p := pipeline.NewPipeline(rules)
	p.Start(cfg.Parallelism)

	result, err := s.Run(ctx, targets, p)
	if err != nil {
		return fmt.Errorf("acquisition failed: %w", err)
	}
	if err := p.Close(); err != nil {
		return fmt.Errorf("pipeline shutdown failed: %w", err)
	}

	records := p.Records()
	if err := store.Append(records); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printScrapeSummary(result, len(records), cfg.HistoryFile, p.GetMetrics())
	return nil
}

func printScrapeSummary(result *models.AcquireResult, committed int, historyFile string, metrics map[string]interface{}) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")

	duration := result.EndTime.Sub(result.StartTime)
	itemsPerSec := 0.0
	if duration.Seconds() > 0 {
		itemsPerSec = float64(committed) / duration.Seconds()
	}

	fmt.Printf("  Targets:       %d\n", result.TargetCount)
	fmt.Printf("  Committed:     %d\n", committed)
	fmt.Printf("  Errors:        %d\n", result.ErrorCount)
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	if len(result.FailedURLs) > 0 {
		fmt.Printf("  Failed URLs:   %d\n", len(result.FailedURLs))
	}
	if outcomes, ok := metrics["outcomes"].(map[string]int); ok && len(outcomes) > 0 {
		fmt.Printf("  Outcomes:      %v\n", outcomes)
	}
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Items/sec:     %.2f\n", itemsPerSec)
	fmt.Printf("  History file:  %s\n", historyFile)
	fmt.Println(separator)
}
