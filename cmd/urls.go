package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DhKDc/precios3d/catalog"
)

var urlsCmd = &cobra.Command{
	Use:   "urls",
	Short: "Manage the target URL list",
}

var urlsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the target URLs",
	RunE: func(cmd *cobra.Command, args []string) error {
		urls, err := catalog.LoadURLs(viper.GetString("urls"))
		if err != nil {
			return err
		}
		printNumbered(urls, "No URLs found.")
		return nil
	},
}

var urlsAddCmd = &cobra.Command{
	Use:   "add URL...",
	Short: "Append target URLs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("urls")
		urls, err := catalog.LoadURLs(path)
		if err != nil {
			return err
		}
		urls = append(urls, args...)
		if err := catalog.SaveURLs(path, urls); err != nil {
			return err
		}
		fmt.Printf("Added %d URL(s), %d total\n", len(args), len(urls))
		return nil
	},
}

var urlsRemoveCmd = &cobra.Command{
	Use:   "remove INDEX",
	Short: "Remove the target URL at the given 1-based index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("index must be a number: %w", err)
		}
		path := viper.GetString("urls")
		urls, err := catalog.LoadURLs(path)
		if err != nil {
			return err
		}
		urls, removed, err := catalog.RemoveAt(urls, index)
		if err != nil {
			return err
		}
		if err := catalog.SaveURLs(path, urls); err != nil {
			return err
		}
		fmt.Printf("Removed URL: %s\n", removed)
		return nil
	},
}

func init() {
	urlsCmd.AddCommand(urlsListCmd, urlsAddCmd, urlsRemoveCmd)
	rootCmd.AddCommand(urlsCmd)
}

func printNumbered(items []string, emptyMessage string) {
	if len(items) == 0 {
		fmt.Println(emptyMessage)
		return
	}
	for i, item := range items {
		fmt.Printf("%d. %s\n", i+1, item)
	}
}
