// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pdiddy/sourcing-engine/internal/vendors"
	"github.com/pdiddy/sourcing-engine/pkg/types"
)

var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "Manage the curated vendor directory (import, list, export, remove)",
	Long: `Vendors manages the local SQLite database behind the vendor_directory
adapter. The database path comes from --db or from the first
vendor_directory adapter in the configuration.`,
}

var vendorsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>...",
	Short: "Import vendors from YAML files (vendors: [...])",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openVendorStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		for _, path := range args {
			n, err := store.Import(context.Background(), path)
			if err != nil {
				return err
			}
			fmt.Printf("imported %d vendors from %s\n", n, path)
		}
		return nil
	},
}

var vendorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vendors",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openVendorStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		category, _ := cmd.Flags().GetString("category")
		list, err := store.List(context.Background(), category)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No vendors found.")
			return nil
		}

		fmt.Printf("%-24s  %-30s  %-18s  %s\n", "ID", "Name", "Category", "Website")
		fmt.Println(strings.Repeat("-", 100))
		for _, v := range list {
			fmt.Printf("%-24s  %-30s  %-18s  %s\n", v.ID, v.Name, v.Category, v.Website)
		}
		fmt.Printf("\n%d vendors\n", len(list))
		return nil
	},
}

var vendorsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all vendors as YAML to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openVendorStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Export(context.Background(), os.Stdout)
	},
}

var vendorsRemoveCmd = &cobra.Command{
	Use:   "remove <id>...",
	Short: "Remove vendors by ID",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openVendorStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		for _, id := range args {
			ok, err := store.Delete(context.Background(), id)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(os.Stderr, "no vendor with id %s\n", id)
				continue
			}
			fmt.Printf("removed %s\n", id)
		}
		return nil
	},
}

func init() {
	vendorsCmd.PersistentFlags().String("db", "", "vendor database path")
	vendorsListCmd.Flags().String("category", "", "only list vendors in this category")

	vendorsCmd.AddCommand(vendorsImportCmd, vendorsListCmd, vendorsExportCmd, vendorsRemoveCmd)
	rootCmd.AddCommand(vendorsCmd)
}

func openVendorStore(cmd *cobra.Command) (*vendors.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		for _, ac := range appConfig.Adapters {
			if ac.Kind == types.AdapterVendorDirectory {
				path = ac.Path
				break
			}
		}
	}
	if path == "" {
		return nil, eris.New("no vendor database: pass --db or configure a vendor_directory adapter")
	}
	return vendors.Open(path)
}
