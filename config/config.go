package config

import (
	"fmt"
	"math/rand"
	"runtime"
	"time"
)

// Config holds one run's configuration. It is built once per invocation and
// passed explicitly into the pipeline; nothing here mutates during a run.
type Config struct {
	URLsFile       string
	BrandsFile     string
	CategoriesFile string
	HistoryFile    string
	PriceListFile  string
	OutputFormat   string // csv, json, or dual
	Parallelism    int
	Timeout        time.Duration
	WindowDays     int
	UserAgent      string
	MetricsAddr    string
	Verbose        bool
}

// userAgents is the identity pool one agent is drawn from per run.
var userAgents = []string{
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// DefaultConfig returns defaults matching the tracker's conventional files.
func DefaultConfig() *Config {
	return &Config{
		URLsFile:       "urls.csv",
		BrandsFile:     "brands.csv",
		CategoriesFile: "categories.csv",
		HistoryFile:    "pricehistory.csv",
		PriceListFile:  "latest_prices.csv",
		OutputFormat:   "csv",
		Parallelism:    runtime.NumCPU(),
		Timeout:        10 * time.Second,
		WindowDays:     90,
		UserAgent:      RandomUserAgent(),
	}
}

// RandomUserAgent picks one request identity from the pool. Callers select it
// once per run and hold it fixed for every request in the batch.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.URLsFile == "" {
		return fmt.Errorf("URLs file cannot be empty")
	}
	if c.BrandsFile == "" {
		return fmt.Errorf("brands file cannot be empty")
	}
	if c.CategoriesFile == "" {
		return fmt.Errorf("categories file cannot be empty")
	}
	if c.HistoryFile == "" {
		return fmt.Errorf("history file cannot be empty")
	}
	if c.PriceListFile == "" {
		return fmt.Errorf("price list file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("window days must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return nil
}
