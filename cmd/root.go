// Package cmd wires the tracker's operations into a command tree. Every
// command is argument-driven and calls straight into the core packages; no
// interactive prompting happens below this layer.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DhKDc/precios3d/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "precios3d",
	Short: "Track 3D printing supply prices scraped from product pages.",
	Long: `precios3d scrapes a catalog of product pages, keeps an append-only
price history per product, and derives a smoothed current price list from
the recent history.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.precios3d.yaml)")

	rootCmd.PersistentFlags().String("urls", "urls.csv", "target URL list file")
	rootCmd.PersistentFlags().String("brands", "brands.csv", "ordered brand rule list file")
	rootCmd.PersistentFlags().String("categories", "categories.csv", "ordered category rule list file")
	rootCmd.PersistentFlags().String("history", "pricehistory.csv", "price history file")
	rootCmd.PersistentFlags().IntP("parallel", "p", runtime.NumCPU(), "number of concurrent fetches")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Second, "per-request timeout")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	for _, key := range []string{"urls", "brands", "categories", "history", "parallel", "timeout", "verbose"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

// initConfig reads in the config file and environment variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".precios3d")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PRECIOS3D")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "read config: %v\n", err)
			os.Exit(1)
		}
	}

	logger := newLogger(viper.GetBool("verbose"))
	slog.SetDefault(logger)
}

// buildConfig materializes one run's configuration from flags, env, and the
// config file, on top of the package defaults.
func buildConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.URLsFile = viper.GetString("urls")
	cfg.BrandsFile = viper.GetString("brands")
	cfg.CategoriesFile = viper.GetString("categories")
	cfg.HistoryFile = viper.GetString("history")
	if parallel := viper.GetInt("parallel"); parallel > 0 {
		cfg.Parallelism = parallel
	}
	if timeout := viper.GetDuration("timeout"); timeout > 0 {
		cfg.Timeout = timeout
	}
	cfg.Verbose = viper.GetBool("verbose")
	return cfg
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
