package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DhKDc/precios3d/catalog"
)

func init() {
	rootCmd.AddCommand(newRuleListCommand("brands", "brand"))
	rootCmd.AddCommand(newRuleListCommand("categories", "category"))
}

// newRuleListCommand builds the list/add/remove command set for one ordered
// rule list. The command name doubles as the viper key holding the file path.
// New entries append to the end: position in the file is match priority.
func newRuleListCommand(name, singular string) *cobra.Command {
	parent := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Manage the ordered %s rule list", singular),
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("Print the %s rules in priority order", singular),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := catalog.LoadList(viper.GetString(name))
			if err != nil {
				return err
			}
			printNumbered(items, fmt.Sprintf("No %s rules found.", singular))
			return nil
		},
	}

	addCmd := &cobra.Command{
		Use:   "add NAME...",
		Short: fmt.Sprintf("Append %s rules at the lowest priority", singular),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString(name)
			items, err := catalog.LoadList(path)
			if err != nil {
				return err
			}
			items = append(items, args...)
			if err := catalog.SaveList(path, items); err != nil {
				return err
			}
			fmt.Printf("Added %d %s rule(s), %d total\n", len(args), singular, len(items))
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove INDEX",
		Short: fmt.Sprintf("Remove the %s rule at the given 1-based index", singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("index must be a number: %w", err)
			}
			path := viper.GetString(name)
			items, err := catalog.LoadList(path)
			if err != nil {
				return err
			}
			items, removed, err := catalog.RemoveAt(items, index)
			if err != nil {
				return err
			}
			if err := catalog.SaveList(path, items); err != nil {
				return err
			}
			fmt.Printf("Removed %s rule: %s\n", singular, removed)
			return nil
		},
	}

	parent.AddCommand(listCmd, addCmd, removeCmd)
	return parent
}
