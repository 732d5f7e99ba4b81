package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/DhKDc/precios3d/history"
	"github.com/DhKDc/precios3d/pricing"
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Generate the smoothed price list from the recorded history",
	Long: `Computes one determined price per product as an expanding mean over
its observations inside the trailing window, then overwrites the price list
file. Products without a usable in-window price are left off the list.`,
	RunE: runPrices,
}

func init() {
	pricesCmd.Flags().Int("window-days", pricing.DefaultWindowDays, "trailing window in days")
	pricesCmd.Flags().String("out", "latest_prices.csv", "price list output file")
	pricesCmd.Flags().String("format", "csv", "output format: csv, json, or dual")
	rootCmd.AddCommand(pricesCmd)
}

func runPrices(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	cfg.WindowDays, _ = cmd.Flags().GetInt("window-days")
	cfg.PriceListFile, _ = cmd.Flags().GetString("out")
	cfg.OutputFormat, _ = cmd.Flags().GetString("format")
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := history.Open(cfg.HistoryFile)
	if err != nil {
		return err
	}
	if store.Len() == 0 {
		return fmt.Errorf("history %s is empty, run scrape first", cfg.HistoryFile)
	}

	snapshots := pricing.Determine(store, cfg.WindowDays)
	if skipped := len(store.Products()) - len(snapshots); skipped > 0 {
		slog.Debug("products without usable in-window prices omitted", slog.Int("count", skipped))
	}

	writer, err := pricing.NewWriter(cfg.OutputFormat, cfg.PriceListFile)
	if err != nil {
		return err
	}
	if err := writer.Write(snapshots); err != nil {
		writer.Close()
		return fmt.Errorf("write price list: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close price list: %w", err)
	}
	if err := writer.Validate(); err != nil {
		return fmt.Errorf("price list validation failed: %w", err)
	}

	fmt.Printf("Price list written: %d products, window %d days, output %s\n", len(snapshots), cfg.WindowDays, cfg.PriceListFile)
	return nil
}
